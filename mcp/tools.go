package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Benny93/uml-go/internal/diagram"
	"github.com/Benny93/uml-go/internal/storage"
)

// ErrNoSaveLibrary is returned by the save tools when the server was built
// without a storage backend.
var ErrNoSaveLibrary = errors.New("no save library configured")

const defaultSearchLimit = 20

// CallTool executes a tool by name.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.logger.Debug("tool call", "tool", name)

	switch name {
	case "uml_show":
		class, _ := optionalString(args, "class")
		return s.handleShow(class)
	case "uml_add_class":
		return s.editClass(args, "name", "add class", "Added class %s", (*diagram.Store).AddClass)
	case "uml_delete_class":
		return s.editClass(args, "name", "delete class", "Deleted class %s", (*diagram.Store).DeleteClass)
	case "uml_rename_class":
		return s.handleRenameClass(args)
	case "uml_move_class":
		return s.handleMoveClass(args)
	case "uml_add_field":
		return s.handleAddField(args)
	case "uml_add_method":
		return s.handleAddMethod(args)
	case "uml_delete_attribute":
		return s.handleDeleteAttribute(args)
	case "uml_rename_attribute":
		return s.handleRenameAttribute(args)
	case "uml_retype_attribute":
		return s.handleRetypeAttribute(args)
	case "uml_add_parameter", "uml_delete_parameter", "uml_rename_parameter", "uml_retype_parameter":
		return s.handleParameter(name, args)
	case "uml_add_relationship":
		return s.handleAddRelationship(args)
	case "uml_delete_relationship":
		return s.handleDeleteRelationship(args)
	case "uml_retype_relationship":
		return s.handleRetypeRelationship(args)
	case "uml_undo":
		return s.handleStep("undo", s.editor.Undo)
	case "uml_redo":
		return s.handleStep("redo", s.editor.Redo)
	case "uml_write":
		if err := s.editor.Write(); err != nil {
			return "", err
		}
		return "Diagram written", nil
	case "uml_save":
		return s.handleSave(ctx, args)
	case "uml_load":
		return s.handleLoad(ctx, args)
	case "uml_list_saves":
		return s.handleListSaves(ctx)
	case "uml_search_saves":
		return s.handleSearchSaves(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) editClass(args map[string]any, key, op, done string, fn func(*diagram.Store, string) error) (string, error) {
	name, err := requiredString(args, key)
	if err != nil {
		return "", err
	}
	err = s.editor.Apply(op, func(d *diagram.Store) error { return fn(d, name) })
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(done, name), nil
}

func (s *Server) handleRenameClass(args map[string]any) (string, error) {
	oldName, err := requiredString(args, "old_name")
	if err != nil {
		return "", err
	}
	newName, err := requiredString(args, "new_name")
	if err != nil {
		return "", err
	}
	err = s.editor.Apply("rename class", func(d *diagram.Store) error {
		return d.RenameClass(oldName, newName)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Renamed class %s to %s", oldName, newName), nil
}

func (s *Server) handleMoveClass(args map[string]any) (string, error) {
	name, err := requiredString(args, "name")
	if err != nil {
		return "", err
	}
	x, err := requiredInt(args, "x")
	if err != nil {
		return "", err
	}
	y, err := requiredInt(args, "y")
	if err != nil {
		return "", err
	}
	err = s.editor.Apply("move class", func(d *diagram.Store) error {
		return d.SetPosition(name, x, y)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Moved class %s to (%d, %d)", name, x, y), nil
}

func (s *Server) handleAddField(args map[string]any) (string, error) {
	class, name, typ, err := threeStrings(args, "class", "name", "type")
	if err != nil {
		return "", err
	}
	err = s.editor.Apply("add field", func(d *diagram.Store) error {
		_, err := d.AddField(class, name, typ)
		return err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added field %s %s to %s", typ, name, class), nil
}

func (s *Server) handleAddMethod(args map[string]any) (string, error) {
	class, name, ret, err := threeStrings(args, "class", "name", "return_type")
	if err != nil {
		return "", err
	}
	params, err := parameterList(args, "params")
	if err != nil {
		return "", err
	}
	method := diagram.NewMethod(name, ret, params...)
	err = s.editor.Apply("add method", func(d *diagram.Store) error {
		_, err := d.AddAttribute(class, method)
		return err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added method %s to %s", method, class), nil
}

// applyAt runs fn against the attribute at args["index"] of args["class"].
func (s *Server) applyAt(op string, args map[string]any, fn func(d *diagram.Store, class string, attr diagram.Attribute) error) (string, diagram.Attribute, error) {
	class, err := requiredString(args, "class")
	if err != nil {
		return "", diagram.Attribute{}, err
	}
	index, err := requiredInt(args, "index")
	if err != nil {
		return "", diagram.Attribute{}, err
	}
	var target diagram.Attribute
	err = s.editor.Apply(op, func(d *diagram.Store) error {
		attr, err := d.AttributeAt(class, index)
		if err != nil {
			return err
		}
		target = attr
		return fn(d, class, attr)
	})
	return class, target, err
}

func (s *Server) handleDeleteAttribute(args map[string]any) (string, error) {
	class, attr, err := s.applyAt("delete attribute", args, func(d *diagram.Store, class string, attr diagram.Attribute) error {
		return d.RemoveAttribute(class, attr.ID)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %s from %s", attr, class), nil
}

func (s *Server) handleRenameAttribute(args map[string]any) (string, error) {
	newName, err := requiredString(args, "new_name")
	if err != nil {
		return "", err
	}
	class, attr, err := s.applyAt("rename attribute", args, func(d *diagram.Store, class string, attr diagram.Attribute) error {
		return d.RenameAttribute(class, attr.ID, newName)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Renamed %s.%s to %s", class, attr.Name, newName), nil
}

func (s *Server) handleRetypeAttribute(args map[string]any) (string, error) {
	typ, err := requiredString(args, "type")
	if err != nil {
		return "", err
	}
	class, attr, err := s.applyAt("retype attribute", args, func(d *diagram.Store, _ string, attr diagram.Attribute) error {
		return d.ChangeAttributeType(attr.ID, typ)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Changed type of %s.%s to %s", class, attr.Name, typ), nil
}

func (s *Server) handleParameter(tool string, args map[string]any) (string, error) {
	var (
		op   string
		fn   func(d *diagram.Store, id diagram.AttributeID) error
		done func(class, method string) string
	)

	switch tool {
	case "uml_add_parameter":
		name, err := requiredString(args, "name")
		if err != nil {
			return "", err
		}
		typ, err := requiredString(args, "type")
		if err != nil {
			return "", err
		}
		op = "add parameter"
		fn = func(d *diagram.Store, id diagram.AttributeID) error { return d.AddParameter(id, name, typ) }
		done = func(class, method string) string {
			return fmt.Sprintf("Added parameter %s %s to %s.%s", typ, name, class, method)
		}
	case "uml_delete_parameter":
		name, err := requiredString(args, "name")
		if err != nil {
			return "", err
		}
		op = "delete parameter"
		fn = func(d *diagram.Store, id diagram.AttributeID) error { return d.DeleteParameter(id, name) }
		done = func(class, method string) string {
			return fmt.Sprintf("Deleted parameter %s from %s.%s", name, class, method)
		}
	case "uml_rename_parameter":
		oldName, err := requiredString(args, "old_name")
		if err != nil {
			return "", err
		}
		newName, err := requiredString(args, "new_name")
		if err != nil {
			return "", err
		}
		op = "rename parameter"
		fn = func(d *diagram.Store, id diagram.AttributeID) error { return d.RenameParameter(id, oldName, newName) }
		done = func(class, method string) string {
			return fmt.Sprintf("Renamed parameter %s of %s.%s to %s", oldName, class, method, newName)
		}
	default:
		name, err := requiredString(args, "name")
		if err != nil {
			return "", err
		}
		typ, err := requiredString(args, "type")
		if err != nil {
			return "", err
		}
		op = "retype parameter"
		fn = func(d *diagram.Store, id diagram.AttributeID) error { return d.ChangeParameterType(id, name, typ) }
		done = func(class, method string) string {
			return fmt.Sprintf("Changed type of parameter %s of %s.%s to %s", name, class, method, typ)
		}
	}

	class, attr, err := s.applyAt(op, args, func(d *diagram.Store, _ string, attr diagram.Attribute) error {
		return fn(d, attr.ID)
	})
	if err != nil {
		return "", err
	}
	return done(class, attr.Name), nil
}

func (s *Server) handleAddRelationship(args map[string]any) (string, error) {
	src, dst, typ, err := relationshipArgs(args)
	if err != nil {
		return "", err
	}
	err = s.editor.Apply("add relationship", func(d *diagram.Store) error {
		return d.AddRelationship(src, dst, typ)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s relationship %s -> %s", typ, src, dst), nil
}

func (s *Server) handleDeleteRelationship(args map[string]any) (string, error) {
	src, err := requiredString(args, "source")
	if err != nil {
		return "", err
	}
	dst, err := requiredString(args, "destination")
	if err != nil {
		return "", err
	}
	err = s.editor.Apply("delete relationship", func(d *diagram.Store) error {
		return d.DeleteRelationship(src, dst)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted relationship %s -> %s", src, dst), nil
}

func (s *Server) handleRetypeRelationship(args map[string]any) (string, error) {
	src, dst, typ, err := relationshipArgs(args)
	if err != nil {
		return "", err
	}
	err = s.editor.Apply("retype relationship", func(d *diagram.Store) error {
		return d.ChangeRelationshipType(src, dst, typ)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Relationship %s -> %s is now %s", src, dst, typ), nil
}

func (s *Server) handleStep(what string, step func() (bool, error)) (string, error) {
	ok, err := step()
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Nothing to %s", what), nil
	}
	return fmt.Sprintf("Did %s", what), nil
}

func (s *Server) handleSave(ctx context.Context, args map[string]any) (string, error) {
	if s.saves == nil {
		return "", ErrNoSaveLibrary
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return "", err
	}
	info, err := s.editor.SaveTo(ctx, s.saves, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %s (%d classes, %d relationships)", info.Name, info.Classes, info.Relationships), nil
}

func (s *Server) handleLoad(ctx context.Context, args map[string]any) (string, error) {
	if s.saves == nil {
		return "", ErrNoSaveLibrary
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return "", err
	}
	if err := s.editor.LoadFrom(ctx, s.saves, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Loaded %s", name), nil
}

func (s *Server) handleListSaves(ctx context.Context) (string, error) {
	if s.saves == nil {
		return "", ErrNoSaveLibrary
	}
	infos, err := s.saves.List(ctx)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "No saves", nil
	}
	var sb strings.Builder
	sb.WriteString("# Saves\n\n")
	for _, info := range infos {
		fmt.Fprintf(&sb, "- %s (%d classes, %d relationships, %s)\n",
			info.Name, info.Classes, info.Relationships, info.SavedAt.Format("2006-01-02 15:04:05"))
	}
	return sb.String(), nil
}

func (s *Server) handleSearchSaves(ctx context.Context, args map[string]any) (string, error) {
	if s.saves == nil {
		return "", ErrNoSaveLibrary
	}
	query, err := requiredString(args, "query")
	if err != nil {
		return "", err
	}
	limit := defaultSearchLimit
	if _, ok := args["limit"]; ok {
		if limit, err = requiredInt(args, "limit"); err != nil {
			return "", err
		}
	}

	results, err := storage.Search(ctx, s.saves, query, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No matches for %q", query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Matches for %q\n\n", query)
	for _, r := range results {
		target := r.Class
		if r.Member != "" {
			target += "." + r.Member
		}
		fmt.Fprintf(&sb, "- %s: %s (score %.0f)\n", r.Save, target, r.Score)
	}
	return sb.String(), nil
}

func (s *Server) handleShow(class string) (string, error) {
	var out string
	err := s.editor.View(func(d *diagram.Store) error {
		if class != "" {
			c, err := d.Class(class)
			if err != nil {
				return err
			}
			rels, err := d.RelationshipsByClass(class)
			if err != nil {
				return err
			}
			out = formatClass(c, rels)
			return nil
		}
		out = formatDiagram(d)
		return nil
	})
	return out, err
}

func (s *Server) document() (string, error) {
	var data []byte
	err := s.editor.View(func(d *diagram.Store) error {
		var err error
		data, err = json.MarshalIndent(d.Document(), "", "  ")
		return err
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatDiagram(d *diagram.Store) string {
	classes := d.Classes()
	if len(classes) == 0 {
		return "Diagram is empty"
	}

	var sb strings.Builder
	sb.WriteString("# Diagram\n")
	for _, c := range classes {
		sb.WriteString("\n")
		writeClass(&sb, c)
	}

	if rels := d.Relationships(); len(rels) > 0 {
		sb.WriteString("\n## Relationships\n\n")
		for _, r := range rels {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	return sb.String()
}

func formatClass(c diagram.Class, rels []diagram.Relationship) string {
	var sb strings.Builder
	writeClass(&sb, c)
	if len(rels) > 0 {
		sb.WriteString("\nRelationships:\n")
		for _, r := range rels {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	return sb.String()
}

func writeClass(sb *strings.Builder, c diagram.Class) {
	fmt.Fprintf(sb, "## %s (%d, %d)\n", c.Name, c.Position.X, c.Position.Y)
	if len(c.Attributes) == 0 {
		sb.WriteString("(no attributes)\n")
		return
	}
	for i, a := range c.Attributes {
		fmt.Fprintf(sb, "%d. %s: %s\n", i, a.Kind, a)
	}
}

func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return str, nil
}

func optionalString(args map[string]any, key string) (string, bool) {
	str, ok := args[key].(string)
	return str, ok && str != ""
}

func threeStrings(args map[string]any, a, b, c string) (string, string, string, error) {
	var out [3]string
	for i, key := range []string{a, b, c} {
		v, err := requiredString(args, key)
		if err != nil {
			return "", "", "", err
		}
		out[i] = v
	}
	return out[0], out[1], out[2], nil
}

// requiredInt reads an integer argument. JSON numbers decode as float64.
func requiredInt(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q must be an integer", key)
		}
		// 2^63 is the first float64 above math.MaxInt on 64-bit platforms.
		if n < math.MinInt || n >= -math.MinInt {
			return 0, fmt.Errorf("argument %q is out of range", key)
		}
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer", key)
		}
		if i < math.MinInt || i > math.MaxInt {
			return 0, fmt.Errorf("argument %q is out of range", key)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer", key)
	}
}

func parameterList(args map[string]any, key string) ([]diagram.Parameter, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array", key)
	}
	params := make([]diagram.Parameter, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be an object", key, i)
		}
		name, err := requiredString(obj, "name")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		typ, err := requiredString(obj, "type")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		params = append(params, diagram.Parameter{Name: name, Type: typ})
	}
	return params, nil
}

func relationshipArgs(args map[string]any) (string, string, diagram.RelationshipType, error) {
	src, dst, raw, err := threeStrings(args, "source", "destination", "type")
	if err != nil {
		return "", "", 0, err
	}
	typ, err := diagram.ParseRelationshipType(raw)
	if err != nil {
		return "", "", 0, err
	}
	return src, dst, typ, nil
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Benny93/uml-go/internal/diagram"
)

// EditCmds are the diagram editing commands. They are shared by the command
// line and the interactive shell.
type EditCmds struct {
	Show   ShowCmd   `cmd:"" help:"Show the diagram or one class"`
	Class  ClassCmd  `cmd:"" help:"Add, delete, rename or move classes"`
	Field  FieldCmd  `cmd:"" help:"Add a field to a class"`
	Method MethodCmd `cmd:"" help:"Add a method to a class"`
	Attr   AttrCmd   `cmd:"" help:"Delete, rename or retype attributes by index"`
	Param  ParamCmd  `cmd:"" help:"Edit method parameters"`
	Rel    RelCmd    `cmd:"" help:"Add, delete or retype relationships"`
}

// ShowCmd prints the diagram.
type ShowCmd struct {
	Class string `arg:"" optional:"" help:"Only show this class"`
}

// Run executes the show command.
func (c *ShowCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	return editor.View(func(d *diagram.Store) error {
		if c.Class != "" {
			class, err := d.Class(c.Class)
			if err != nil {
				return err
			}
			rels, err := d.RelationshipsByClass(c.Class)
			if err != nil {
				return err
			}
			printClass(env.Out, class)
			printRelationships(env.Out, rels)
			return nil
		}

		classes := d.Classes()
		if len(classes) == 0 {
			fmt.Fprintln(env.Out, "Diagram is empty")
			return nil
		}
		for i, class := range classes {
			if i > 0 {
				fmt.Fprintln(env.Out)
			}
			printClass(env.Out, class)
		}
		printRelationships(env.Out, d.Relationships())
		return nil
	})
}

func printClass(w io.Writer, c diagram.Class) {
	color.New(color.Bold).Fprintf(w, "%s", c.Name)
	fmt.Fprintf(w, " (%d, %d)\n", c.Position.X, c.Position.Y)
	for i, a := range c.Attributes {
		fmt.Fprintf(w, "  [%d] %-6s %s\n", i, a.Kind, a)
	}
}

func printRelationships(w io.Writer, rels []diagram.Relationship) {
	if len(rels) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRelationships:")
	for _, r := range rels {
		fmt.Fprintf(w, "  %s\n", r)
	}
}

// apply runs one edit and reports it.
func apply(env *Env, op string, fn func(*diagram.Store) error, format string, args ...any) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	if err := editor.Apply(op, fn); err != nil {
		return err
	}
	env.success(format, args...)
	return nil
}

// ClassCmd groups the class commands.
type ClassCmd struct {
	Add    ClassAddCmd    `cmd:"" help:"Add an empty class"`
	Delete ClassDeleteCmd `cmd:"" aliases:"rm" help:"Delete a class and its relationships"`
	Rename ClassRenameCmd `cmd:"" help:"Rename a class"`
	Move   ClassMoveCmd   `cmd:"" help:"Set the display position of a class"`
}

// ClassAddCmd adds a class.
type ClassAddCmd struct {
	Name string `arg:"" help:"Class name"`
}

// Run executes the class add command.
func (c *ClassAddCmd) Run(env *Env) error {
	return apply(env, "add class", func(d *diagram.Store) error {
		return d.AddClass(c.Name)
	}, "Added class %s", c.Name)
}

// ClassDeleteCmd deletes a class.
type ClassDeleteCmd struct {
	Name string `arg:"" help:"Class name"`
}

// Run executes the class delete command.
func (c *ClassDeleteCmd) Run(env *Env) error {
	return apply(env, "delete class", func(d *diagram.Store) error {
		return d.DeleteClass(c.Name)
	}, "Deleted class %s", c.Name)
}

// ClassRenameCmd renames a class.
type ClassRenameCmd struct {
	Old string `arg:"" help:"Current class name"`
	New string `arg:"" help:"New class name"`
}

// Run executes the class rename command.
func (c *ClassRenameCmd) Run(env *Env) error {
	return apply(env, "rename class", func(d *diagram.Store) error {
		return d.RenameClass(c.Old, c.New)
	}, "Renamed class %s to %s", c.Old, c.New)
}

// ClassMoveCmd moves a class. Negative coordinates go after "--".
type ClassMoveCmd struct {
	Name string `arg:"" help:"Class name"`
	X    int    `arg:"" help:"X coordinate"`
	Y    int    `arg:"" help:"Y coordinate"`
}

// Run executes the class move command.
func (c *ClassMoveCmd) Run(env *Env) error {
	return apply(env, "move class", func(d *diagram.Store) error {
		return d.SetPosition(c.Name, c.X, c.Y)
	}, "Moved class %s to (%d, %d)", c.Name, c.X, c.Y)
}

// FieldCmd adds a field.
type FieldCmd struct {
	Class string `arg:"" help:"Class name"`
	Name  string `arg:"" help:"Field name"`
	Type  string `arg:"" help:"Field type"`
}

// Run executes the field command.
func (c *FieldCmd) Run(env *Env) error {
	return apply(env, "add field", func(d *diagram.Store) error {
		_, err := d.AddField(c.Class, c.Name, c.Type)
		return err
	}, "Added field %s %s to %s", c.Type, c.Name, c.Class)
}

// MethodCmd adds a method.
type MethodCmd struct {
	Class      string   `arg:"" help:"Class name"`
	Name       string   `arg:"" help:"Method name"`
	ReturnType string   `arg:"" help:"Return type"`
	Params     []string `arg:"" optional:"" help:"Parameters as name:type"`
}

// Run executes the method command.
func (c *MethodCmd) Run(env *Env) error {
	params, err := parseParams(c.Params)
	if err != nil {
		return err
	}
	method := diagram.NewMethod(c.Name, c.ReturnType, params...)
	return apply(env, "add method", func(d *diagram.Store) error {
		_, err := d.AddAttribute(c.Class, method)
		return err
	}, "Added method %s to %s", method, c.Class)
}

func parseParams(args []string) ([]diagram.Parameter, error) {
	params := make([]diagram.Parameter, 0, len(args))
	for _, arg := range args {
		name, typ, ok := strings.Cut(arg, ":")
		if !ok || name == "" || typ == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name:type", arg)
		}
		params = append(params, diagram.Parameter{Name: name, Type: typ})
	}
	return params, nil
}

// AttrRef addresses an attribute by class and 0-based index, as printed by
// the show command.
type AttrRef struct {
	Class string `arg:"" help:"Class name"`
	Index int    `arg:"" help:"Attribute index as printed by show"`
}

// edit resolves the attribute inside the edit so the lookup and the change
// see the same diagram.
func (r AttrRef) edit(env *Env, op string, fn func(d *diagram.Store, attr diagram.Attribute) error) (diagram.Attribute, error) {
	editor, err := env.Editor()
	if err != nil {
		return diagram.Attribute{}, err
	}
	var target diagram.Attribute
	err = editor.Apply(op, func(d *diagram.Store) error {
		attr, err := d.AttributeAt(r.Class, r.Index)
		if err != nil {
			return err
		}
		target = attr
		return fn(d, attr)
	})
	return target, err
}

// AttrCmd groups the attribute commands.
type AttrCmd struct {
	Delete AttrDeleteCmd `cmd:"" aliases:"rm" help:"Delete an attribute"`
	Rename AttrRenameCmd `cmd:"" help:"Rename an attribute"`
	Retype AttrRetypeCmd `cmd:"" help:"Change a field type or method return type"`
}

// AttrDeleteCmd deletes an attribute.
type AttrDeleteCmd struct {
	AttrRef `embed:""`
}

// Run executes the attr delete command.
func (c *AttrDeleteCmd) Run(env *Env) error {
	attr, err := c.edit(env, "delete attribute", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.RemoveAttribute(c.Class, attr.ID)
	})
	if err != nil {
		return err
	}
	env.success("Deleted %s from %s", attr, c.Class)
	return nil
}

// AttrRenameCmd renames an attribute.
type AttrRenameCmd struct {
	AttrRef `embed:""`

	New string `arg:"" help:"New name"`
}

// Run executes the attr rename command.
func (c *AttrRenameCmd) Run(env *Env) error {
	attr, err := c.edit(env, "rename attribute", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.RenameAttribute(c.Class, attr.ID, c.New)
	})
	if err != nil {
		return err
	}
	env.success("Renamed %s.%s to %s", c.Class, attr.Name, c.New)
	return nil
}

// AttrRetypeCmd changes an attribute type.
type AttrRetypeCmd struct {
	AttrRef `embed:""`

	Type string `arg:"" help:"New type"`
}

// Run executes the attr retype command.
func (c *AttrRetypeCmd) Run(env *Env) error {
	attr, err := c.edit(env, "retype attribute", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.ChangeAttributeType(attr.ID, c.Type)
	})
	if err != nil {
		return err
	}
	env.success("Changed type of %s.%s to %s", c.Class, attr.Name, c.Type)
	return nil
}

// ParamCmd groups the parameter commands.
type ParamCmd struct {
	Add    ParamAddCmd    `cmd:"" help:"Append a parameter to a method"`
	Delete ParamDeleteCmd `cmd:"" aliases:"rm" help:"Remove a parameter from a method"`
	Rename ParamRenameCmd `cmd:"" help:"Rename a method parameter"`
	Retype ParamRetypeCmd `cmd:"" help:"Change the type of a method parameter"`
}

// ParamAddCmd adds a parameter.
type ParamAddCmd struct {
	AttrRef `embed:""`

	Name string `arg:"" help:"Parameter name"`
	Type string `arg:"" help:"Parameter type"`
}

// Run executes the param add command.
func (c *ParamAddCmd) Run(env *Env) error {
	attr, err := c.edit(env, "add parameter", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.AddParameter(attr.ID, c.Name, c.Type)
	})
	if err != nil {
		return err
	}
	env.success("Added parameter %s %s to %s.%s", c.Type, c.Name, c.Class, attr.Name)
	return nil
}

// ParamDeleteCmd removes a parameter.
type ParamDeleteCmd struct {
	AttrRef `embed:""`

	Name string `arg:"" help:"Parameter name"`
}

// Run executes the param delete command.
func (c *ParamDeleteCmd) Run(env *Env) error {
	attr, err := c.edit(env, "delete parameter", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.DeleteParameter(attr.ID, c.Name)
	})
	if err != nil {
		return err
	}
	env.success("Deleted parameter %s from %s.%s", c.Name, c.Class, attr.Name)
	return nil
}

// ParamRenameCmd renames a parameter.
type ParamRenameCmd struct {
	AttrRef `embed:""`

	Old string `arg:"" help:"Current parameter name"`
	New string `arg:"" help:"New parameter name"`
}

// Run executes the param rename command.
func (c *ParamRenameCmd) Run(env *Env) error {
	attr, err := c.edit(env, "rename parameter", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.RenameParameter(attr.ID, c.Old, c.New)
	})
	if err != nil {
		return err
	}
	env.success("Renamed parameter %s of %s.%s to %s", c.Old, c.Class, attr.Name, c.New)
	return nil
}

// ParamRetypeCmd changes a parameter type.
type ParamRetypeCmd struct {
	AttrRef `embed:""`

	Name string `arg:"" help:"Parameter name"`
	Type string `arg:"" help:"New parameter type"`
}

// Run executes the param retype command.
func (c *ParamRetypeCmd) Run(env *Env) error {
	attr, err := c.edit(env, "retype parameter", func(d *diagram.Store, attr diagram.Attribute) error {
		return d.ChangeParameterType(attr.ID, c.Name, c.Type)
	})
	if err != nil {
		return err
	}
	env.success("Changed type of parameter %s of %s.%s to %s", c.Name, c.Class, attr.Name, c.Type)
	return nil
}

// RelCmd groups the relationship commands.
type RelCmd struct {
	Add    RelAddCmd    `cmd:"" help:"Add a relationship"`
	Delete RelDeleteCmd `cmd:"" aliases:"rm" help:"Delete a relationship"`
	Retype RelRetypeCmd `cmd:"" help:"Change the type of a relationship"`
}

// RelAddCmd adds a relationship.
type RelAddCmd struct {
	Source      string `arg:"" help:"Source class"`
	Destination string `arg:"" help:"Destination class"`
	Type        string `arg:"" help:"aggregation, composition, generalization or realization (or 0-3)"`
}

// Run executes the rel add command.
func (c *RelAddCmd) Run(env *Env) error {
	typ, err := diagram.ParseRelationshipType(c.Type)
	if err != nil {
		return err
	}
	return apply(env, "add relationship", func(d *diagram.Store) error {
		return d.AddRelationship(c.Source, c.Destination, typ)
	}, "Added %s relationship %s -> %s", typ, c.Source, c.Destination)
}

// RelDeleteCmd deletes a relationship.
type RelDeleteCmd struct {
	Source      string `arg:"" help:"Source class"`
	Destination string `arg:"" help:"Destination class"`
}

// Run executes the rel delete command.
func (c *RelDeleteCmd) Run(env *Env) error {
	return apply(env, "delete relationship", func(d *diagram.Store) error {
		return d.DeleteRelationship(c.Source, c.Destination)
	}, "Deleted relationship %s -> %s", c.Source, c.Destination)
}

// RelRetypeCmd changes a relationship type.
type RelRetypeCmd struct {
	Source      string `arg:"" help:"Source class"`
	Destination string `arg:"" help:"Destination class"`
	Type        string `arg:"" help:"New relationship type"`
}

// Run executes the rel retype command.
func (c *RelRetypeCmd) Run(env *Env) error {
	typ, err := diagram.ParseRelationshipType(c.Type)
	if err != nil {
		return err
	}
	return apply(env, "retype relationship", func(d *diagram.Store) error {
		return d.ChangeRelationshipType(c.Source, c.Destination, typ)
	}, "Relationship %s -> %s is now %s", c.Source, c.Destination, typ)
}

package mcp

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/uml-go/internal/diagram"
	"github.com/Benny93/uml-go/internal/session"
	"github.com/Benny93/uml-go/internal/storage"
)

func newTestServer(t *testing.T, withSaves bool) (*Server, *session.Editor) {
	t.Helper()
	editor, err := session.New()
	require.NoError(t, err)

	var opts []Option
	if withSaves {
		b := storage.NewMemoryBackend()
		require.NoError(t, b.Initialize("", false))
		t.Cleanup(func() { _ = b.Close() })
		opts = append(opts, WithSaves(b))
	}
	return NewServer(editor, "test", opts...), editor
}

func call(t *testing.T, s *Server, name string, args map[string]any) string {
	t.Helper()
	out, err := s.CallTool(context.Background(), name, args)
	require.NoError(t, err, name)
	return out
}

func TestNewServer(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	assert.NotNil(t, s)
	assert.NotNil(t, s.server)
	assert.NotNil(t, s.logger)
}

func TestServer_Tools(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	tools := s.ListTools()

	expected := []string{
		"uml_show",
		"uml_add_class",
		"uml_delete_class",
		"uml_rename_class",
		"uml_move_class",
		"uml_add_field",
		"uml_add_method",
		"uml_delete_attribute",
		"uml_rename_attribute",
		"uml_retype_attribute",
		"uml_add_parameter",
		"uml_delete_parameter",
		"uml_rename_parameter",
		"uml_retype_parameter",
		"uml_add_relationship",
		"uml_delete_relationship",
		"uml_retype_relationship",
		"uml_undo",
		"uml_redo",
		"uml_write",
		"uml_save",
		"uml_load",
		"uml_list_saves",
		"uml_search_saves",
	}

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
		assert.NotEmpty(t, tool.Description, tool.Name)
		require.NotNil(t, tool.InputSchema, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		for _, req := range tool.InputSchema.Required {
			assert.Contains(t, tool.InputSchema.Properties, req, tool.Name)
		}
	}
	assert.ElementsMatch(t, expected, names)
}

func TestServer_Resources(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	resources := s.ListResources()

	uris := make([]string, len(resources))
	for i, r := range resources {
		uris[i] = r.URI
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.MimeType)
	}
	assert.Equal(t, []string{"uml://diagram", "uml://overview", "uml://saves"}, uris)
}

func TestServer_CallTool_Classes(t *testing.T) {
	t.Parallel()
	s, editor := newTestServer(t, false)

	assert.Equal(t, "Diagram is empty", call(t, s, "uml_show", nil))

	call(t, s, "uml_add_class", map[string]any{"name": "Shape"})
	call(t, s, "uml_add_class", map[string]any{"name": "Circle"})
	call(t, s, "uml_rename_class", map[string]any{"old_name": "Circle", "new_name": "Ring"})
	call(t, s, "uml_move_class", map[string]any{"name": "Ring", "x": float64(10), "y": float64(-4)})

	out := call(t, s, "uml_show", nil)
	assert.Contains(t, out, "## Shape (0, 0)")
	assert.Contains(t, out, "## Ring (10, -4)")
	assert.NotContains(t, out, "Circle")

	call(t, s, "uml_delete_class", map[string]any{"name": "Shape"})
	require.NoError(t, editor.View(func(d *diagram.Store) error {
		assert.False(t, d.HasClass("Shape"))
		assert.True(t, d.HasClass("Ring"))
		return nil
	}))
}

func TestServer_CallTool_Attributes(t *testing.T) {
	t.Parallel()
	s, editor := newTestServer(t, false)

	call(t, s, "uml_add_class", map[string]any{"name": "Shape"})
	call(t, s, "uml_add_field", map[string]any{"class": "Shape", "name": "name", "type": "string"})
	out := call(t, s, "uml_add_method", map[string]any{
		"class":       "Shape",
		"name":        "scale",
		"return_type": "void",
		"params": []any{
			map[string]any{"name": "factor", "type": "double"},
		},
	})
	assert.Equal(t, "Added method void scale(double factor) to Shape", out)

	out = call(t, s, "uml_show", map[string]any{"class": "Shape"})
	assert.Contains(t, out, "0. field: string name")
	assert.Contains(t, out, "1. method: void scale(double factor)")

	call(t, s, "uml_rename_attribute", map[string]any{"class": "Shape", "index": float64(0), "new_name": "label"})
	call(t, s, "uml_retype_attribute", map[string]any{"class": "Shape", "index": float64(1), "type": "Shape"})
	call(t, s, "uml_add_parameter", map[string]any{"class": "Shape", "index": float64(1), "name": "y", "type": "double"})
	call(t, s, "uml_rename_parameter", map[string]any{"class": "Shape", "index": float64(1), "old_name": "factor", "new_name": "x"})
	call(t, s, "uml_retype_parameter", map[string]any{"class": "Shape", "index": float64(1), "name": "y", "type": "float"})

	require.NoError(t, editor.View(func(d *diagram.Store) error {
		c, err := d.Class("Shape")
		require.NoError(t, err)
		require.Len(t, c.Attributes, 2)
		assert.Equal(t, "string label", c.Attributes[0].String())
		assert.Equal(t, "Shape scale(double x, float y)", c.Attributes[1].String())
		return nil
	}))

	call(t, s, "uml_delete_parameter", map[string]any{"class": "Shape", "index": float64(1), "name": "x"})
	call(t, s, "uml_delete_attribute", map[string]any{"class": "Shape", "index": float64(0)})

	out = call(t, s, "uml_show", map[string]any{"class": "Shape"})
	assert.Contains(t, out, "0. method: Shape scale(float y)")
	assert.NotContains(t, out, "label")
}

func TestServer_CallTool_Relationships(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	for _, name := range []string{"a", "b", "c"} {
		call(t, s, "uml_add_class", map[string]any{"name": name})
	}
	call(t, s, "uml_add_relationship", map[string]any{"source": "a", "destination": "b", "type": "composition"})
	call(t, s, "uml_add_relationship", map[string]any{"source": "c", "destination": "b", "type": "aggregation"})

	_, err := s.CallTool(context.Background(), "uml_retype_relationship",
		map[string]any{"source": "c", "destination": "b", "type": "composition"})
	assert.ErrorIs(t, err, diagram.ErrCompositionConflict)

	call(t, s, "uml_retype_relationship", map[string]any{"source": "c", "destination": "b", "type": "realization"})
	out := call(t, s, "uml_show", map[string]any{"class": "b"})
	assert.Contains(t, out, "a -> b (composition)")
	assert.Contains(t, out, "c -> b (realization)")

	call(t, s, "uml_delete_relationship", map[string]any{"source": "a", "destination": "b"})
	out = call(t, s, "uml_show", nil)
	assert.NotContains(t, out, "a -> b")
}

func TestServer_CallTool_UndoRedo(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	assert.Equal(t, "Nothing to undo", call(t, s, "uml_undo", nil))

	call(t, s, "uml_add_class", map[string]any{"name": "a"})
	call(t, s, "uml_add_class", map[string]any{"name": "b"})

	assert.Equal(t, "Did undo", call(t, s, "uml_undo", nil))
	assert.NotContains(t, call(t, s, "uml_show", nil), "## b")

	assert.Equal(t, "Did redo", call(t, s, "uml_redo", nil))
	assert.Contains(t, call(t, s, "uml_show", nil), "## b")
	assert.Equal(t, "Nothing to redo", call(t, s, "uml_redo", nil))
}

func TestServer_CallTool_Errors(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)
	ctx := context.Background()
	call(t, s, "uml_add_class", map[string]any{"name": "a"})

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr error
		wantMsg string
	}{
		{name: "UnknownTool", tool: "uml_nope", wantMsg: "unknown tool"},
		{name: "MissingArgument", tool: "uml_add_class", args: map[string]any{}, wantMsg: `missing argument "name"`},
		{name: "WrongType", tool: "uml_add_class", args: map[string]any{"name": 3.0}, wantMsg: "must be a string"},
		{name: "FractionalIndex", tool: "uml_delete_attribute", args: map[string]any{"class": "a", "index": 0.5}, wantMsg: "must be an integer"},
		{name: "HugeCoordinate", tool: "uml_move_class", args: map[string]any{"name": "a", "x": 1e300, "y": 0.0}, wantMsg: "out of range"},
		{name: "MaxIntOverflow", tool: "uml_move_class", args: map[string]any{"name": "a", "x": 0.0, "y": -float64(math.MinInt)}, wantMsg: "out of range"},
		{name: "BadParams", tool: "uml_add_method", args: map[string]any{"class": "a", "name": "m", "return_type": "void", "params": "x"}, wantMsg: "must be an array"},
		{name: "DuplicateClass", tool: "uml_add_class", args: map[string]any{"name": "a"}, wantErr: diagram.ErrDuplicateName},
		{name: "InvalidName", tool: "uml_add_class", args: map[string]any{"name": "1a"}, wantErr: diagram.ErrInvalidName},
		{name: "IndexOutOfRange", tool: "uml_delete_attribute", args: map[string]any{"class": "a", "index": 0.0}, wantErr: diagram.ErrNotFound},
		{name: "UnknownRelationshipType", tool: "uml_add_relationship", args: map[string]any{"source": "a", "destination": "a", "type": "uses"}, wantErr: diagram.ErrInvalidType},
		{name: "NoSaveLibrary", tool: "uml_list_saves", wantErr: ErrNoSaveLibrary},
		{name: "NoPath", tool: "uml_write", wantErr: session.ErrNoPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CallTool(ctx, tt.tool, tt.args)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}

	// Failed calls leave no history behind.
	assert.Equal(t, "Did undo", call(t, s, "uml_undo", nil))
	assert.Equal(t, "Nothing to undo", call(t, s, "uml_undo", nil))
}

func TestServer_CallTool_SaveLibrary(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, true)

	assert.Equal(t, "No saves", call(t, s, "uml_list_saves", nil))

	call(t, s, "uml_add_class", map[string]any{"name": "UserService"})
	call(t, s, "uml_add_field", map[string]any{"class": "UserService", "name": "userCount", "type": "int"})
	out := call(t, s, "uml_save", map[string]any{"name": "demo"})
	assert.Equal(t, "Saved demo (1 classes, 0 relationships)", out)

	assert.Contains(t, call(t, s, "uml_list_saves", nil), "- demo (1 classes, 0 relationships")

	out = call(t, s, "uml_search_saves", map[string]any{"query": "user", "limit": float64(5)})
	assert.Contains(t, out, "demo: UserService")
	assert.Contains(t, out, "demo: UserService.userCount")
	assert.Contains(t, call(t, s, "uml_search_saves", map[string]any{"query": "zzz"}), "No matches")

	call(t, s, "uml_delete_class", map[string]any{"name": "UserService"})
	call(t, s, "uml_load", map[string]any{"name": "demo"})
	assert.Contains(t, call(t, s, "uml_show", nil), "## UserService")

	_, err := s.CallTool(context.Background(), "uml_load", map[string]any{"name": "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServer_ReadResource(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, true)
	ctx := context.Background()
	call(t, s, "uml_add_class", map[string]any{"name": "a"})
	call(t, s, "uml_add_relationship", map[string]any{"source": "a", "destination": "a", "type": "aggregation"})

	text, err := s.ReadResource(ctx, "uml://diagram")
	require.NoError(t, err)
	var doc diagram.Document
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	require.Len(t, doc.Classes, 1)
	assert.Equal(t, "a", doc.Classes[0].Name)
	assert.Equal(t, "aggregation", doc.Relationships[0].Type)

	text, err = s.ReadResource(ctx, "uml://overview")
	require.NoError(t, err)
	assert.Contains(t, text, "a -> a (aggregation)")

	text, err = s.ReadResource(ctx, "uml://saves")
	require.NoError(t, err)
	assert.Equal(t, "No saves", text)

	_, err = s.ReadResource(ctx, "uml://other")
	assert.Error(t, err)
}

func TestServer_Protocol(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	listed, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, listed.Tools, len(s.ListTools()))

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "uml_add_class",
		Arguments: map[string]any{"name": "Order"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "Added class Order", res.Content[0].(*mcp.TextContent).Text)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "uml_add_class",
		Arguments: map[string]any{"name": "Order"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	read, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "uml://overview"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "## Order")
}

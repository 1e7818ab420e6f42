// Package mcp provides the MCP (Model Context Protocol) server for uml-go.
//
// Every diagram operation is exposed as a tool; the diagram itself and the
// save library are exposed as resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/uml-go/internal/diagram"
	"github.com/Benny93/uml-go/internal/storage"
)

// Editor is the editing session the server drives.
type Editor interface {
	Apply(op string, fn func(*diagram.Store) error) error
	View(fn func(*diagram.Store) error) error
	Undo() (bool, error)
	Redo() (bool, error)
	Write() error
	SaveTo(ctx context.Context, b storage.Backend, name string) (storage.SaveInfo, error)
	LoadFrom(ctx context.Context, b storage.Backend, name string) error
}

// Server represents the MCP server.
type Server struct {
	editor Editor
	saves  storage.Backend
	logger *slog.Logger
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// Option configures a Server.
type Option func(*Server)

// WithSaves exposes a save library through the save tools.
func WithSaves(b storage.Backend) Option {
	return func(s *Server) { s.saves = b }
}

// WithLogger sets the server logger. It must not write to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server.
func NewServer(editor Editor, version string, opts ...Option) *Server {
	s := &Server{
		editor: editor,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "uml-go",
		Version: version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve serves MCP over the given transport.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

// Connect attaches one session over t and returns without blocking.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func integer(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

var relTypeSchema = &jsonschema.Schema{
	Type:        "string",
	Description: "Relationship type",
	Enum:        []any{"aggregation", "composition", "generalization", "realization"},
}

var paramsSchema = &jsonschema.Schema{
	Type:        "array",
	Description: "Ordered method parameters",
	Items: object(map[string]*jsonschema.Schema{
		"name": str("Parameter name"),
		"type": str("Parameter type"),
	}, "name", "type"),
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	classIndex := func(extra map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
		props := map[string]*jsonschema.Schema{
			"class": str("Class name"),
			"index": integer("0-based attribute index within the class"),
		}
		for k, v := range extra {
			props[k] = v
		}
		return object(props, append([]string{"class", "index"}, required...)...)
	}
	endpoints := func(extra map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
		props := map[string]*jsonschema.Schema{
			"source":      str("Source class"),
			"destination": str("Destination class"),
		}
		for k, v := range extra {
			props[k] = v
		}
		return object(props, append([]string{"source", "destination"}, required...)...)
	}

	return []Tool{
		{
			Name:        "uml_show",
			Description: "Describe the diagram, or a single class when 'class' is given. Attributes are listed with the index the attribute tools take.",
			InputSchema: object(map[string]*jsonschema.Schema{"class": str("Optional class name")}),
		},
		{
			Name:        "uml_add_class",
			Description: "Add an empty class.",
			InputSchema: object(map[string]*jsonschema.Schema{"name": str("Class name")}, "name"),
		},
		{
			Name:        "uml_delete_class",
			Description: "Delete a class and every relationship touching it.",
			InputSchema: object(map[string]*jsonschema.Schema{"name": str("Class name")}, "name"),
		},
		{
			Name:        "uml_rename_class",
			Description: "Rename a class; relationships follow the new name.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"old_name": str("Current class name"),
				"new_name": str("New class name"),
			}, "old_name", "new_name"),
		},
		{
			Name:        "uml_move_class",
			Description: "Set the display position of a class.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"name": str("Class name"),
				"x":    integer("X coordinate"),
				"y":    integer("Y coordinate"),
			}, "name", "x", "y"),
		},
		{
			Name:        "uml_add_field",
			Description: "Add a field to a class.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"class": str("Class name"),
				"name":  str("Field name"),
				"type":  str("Field type"),
			}, "class", "name", "type"),
		},
		{
			Name:        "uml_add_method",
			Description: "Add a method to a class. Methods may share a name when their parameter types differ.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"class":       str("Class name"),
				"name":        str("Method name"),
				"return_type": str("Return type"),
				"params":      paramsSchema,
			}, "class", "name", "return_type"),
		},
		{
			Name:        "uml_delete_attribute",
			Description: "Delete the field or method at an index.",
			InputSchema: classIndex(nil),
		},
		{
			Name:        "uml_rename_attribute",
			Description: "Rename the field or method at an index.",
			InputSchema: classIndex(map[string]*jsonschema.Schema{"new_name": str("New name")}, "new_name"),
		},
		{
			Name:        "uml_retype_attribute",
			Description: "Change the type of a field or the return type of a method.",
			InputSchema: classIndex(map[string]*jsonschema.Schema{"type": str("New type")}, "type"),
		},
		{
			Name:        "uml_add_parameter",
			Description: "Append a parameter to the method at an index.",
			InputSchema: classIndex(map[string]*jsonschema.Schema{
				"name": str("Parameter name"),
				"type": str("Parameter type"),
			}, "name", "type"),
		},
		{
			Name:        "uml_delete_parameter",
			Description: "Remove a parameter from the method at an index.",
			InputSchema: classIndex(map[string]*jsonschema.Schema{"name": str("Parameter name")}, "name"),
		},
		{
			Name:        "uml_rename_parameter",
			Description: "Rename a parameter of the method at an index.",
			InputSchema: classIndex(map[string]*jsonschema.Schema{
				"old_name": str("Current parameter name"),
				"new_name": str("New parameter name"),
			}, "old_name", "new_name"),
		},
		{
			Name:        "uml_retype_parameter",
			Description: "Change the type of a parameter of the method at an index.",
			InputSchema: classIndex(map[string]*jsonschema.Schema{
				"name": str("Parameter name"),
				"type": str("New parameter type"),
			}, "name", "type"),
		},
		{
			Name:        "uml_add_relationship",
			Description: "Add a relationship from source to destination.",
			InputSchema: endpoints(map[string]*jsonschema.Schema{"type": relTypeSchema}, "type"),
		},
		{
			Name:        "uml_delete_relationship",
			Description: "Delete the relationship from source to destination.",
			InputSchema: endpoints(nil),
		},
		{
			Name:        "uml_retype_relationship",
			Description: "Change the type of the relationship from source to destination.",
			InputSchema: endpoints(map[string]*jsonschema.Schema{"type": relTypeSchema}, "type"),
		},
		{
			Name:        "uml_undo",
			Description: "Undo the last change.",
			InputSchema: object(map[string]*jsonschema.Schema{}),
		},
		{
			Name:        "uml_redo",
			Description: "Redo the last undone change.",
			InputSchema: object(map[string]*jsonschema.Schema{}),
		},
		{
			Name:        "uml_write",
			Description: "Write the diagram to its file.",
			InputSchema: object(map[string]*jsonschema.Schema{}),
		},
		{
			Name:        "uml_save",
			Description: "Store the diagram in the save library.",
			InputSchema: object(map[string]*jsonschema.Schema{"name": str("Save name")}, "name"),
		},
		{
			Name:        "uml_load",
			Description: "Replace the diagram with a save from the library. Can be undone.",
			InputSchema: object(map[string]*jsonschema.Schema{"name": str("Save name")}, "name"),
		},
		{
			Name:        "uml_list_saves",
			Description: "List the save library.",
			InputSchema: object(map[string]*jsonschema.Schema{}),
		},
		{
			Name:        "uml_search_saves",
			Description: "Find classes and members across the save library by name.",
			InputSchema: object(map[string]*jsonschema.Schema{
				"query": str("Search text; camelCase and snake_case parts match separately"),
				"limit": integer("Maximum number of results"),
			}, "query"),
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "uml://diagram",
			Name:        "Diagram Document",
			Description: "The diagram in its canonical JSON form",
			MimeType:    "application/json",
		},
		{
			URI:         "uml://overview",
			Name:        "Diagram Overview",
			Description: "Classes, attributes and relationships as text",
			MimeType:    "text/plain",
		},
		{
			URI:         "uml://saves",
			Name:        "Save Library",
			Description: "Named saves available to uml_load",
			MimeType:    "text/plain",
		},
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "uml://diagram":
		return s.document()
	case "uml://overview":
		return s.handleShow("")
	case "uml://saves":
		return s.handleListSaves(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// registerTools registers tools with the MCP server.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := map[string]any{}
			if req.Params != nil && len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
				}
			}
			text, err := s.CallTool(ctx, tool.Name, args)
			if err != nil {
				return toolError(err), nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
			}, nil
		})
	}
}

// registerResources registers resources with the MCP server.
func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, res.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      res.URI,
					MIMEType: res.MimeType,
					Text:     text,
				}},
			}, nil
		})
	}
}

// toolError reports a failed call to the client as a tool result so the
// model can see the message.
func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

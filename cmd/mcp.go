package cmd

import (
	"context"
	"errors"

	"github.com/Benny93/uml-go/mcp"
)

// MCPCmd starts the MCP server.
type MCPCmd struct {
	Watch bool `short:"w" help:"Reload the diagram when its file changes on disk"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(env *Env) error {
	env.holdWrites()
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	saves, err := env.Saves()
	if err != nil {
		return err
	}

	server := mcp.NewServer(editor, Version, mcp.WithSaves(saves), mcp.WithLogger(env.Logger))

	ctx, cancel := context.WithCancel(env.Ctx)
	defer cancel()

	if c.Watch {
		go func() {
			err := editor.Watch(ctx, 0, func() {
				env.Logger.Info("diagram reloaded", "path", editor.Path())
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				env.Logger.Warn("watching diagram", "error", err)
			}
		}()
	}

	// Nothing may be printed to stdout; it carries the JSON-RPC stream.
	env.Logger.Info("starting MCP server", "file", editor.Path(), "watch", c.Watch)
	err = server.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Package cmd provides CLI command implementations for uml-go.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/Benny93/uml-go/internal/session"
	"github.com/Benny93/uml-go/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Env is the state shared by every command of one invocation. Commands
// receive it through kong bindings.
type Env struct {
	Ctx    context.Context
	Out    io.Writer
	In     io.Reader
	Logger *slog.Logger

	// Interactive reports whether In is a terminal.
	Interactive bool

	file     string
	storeDir string
	backend  string

	editor    *session.Editor
	saves     storage.Backend
	autoWrite bool
}

// Editor opens the diagram file on first use.
func (e *Env) Editor() (*session.Editor, error) {
	if e.editor != nil {
		return e.editor, nil
	}
	editor, err := session.Open(e.file, session.WithLogger(e.Logger))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", e.file, err)
	}
	e.editor = editor
	return editor, nil
}

// Saves opens the save library on first use.
func (e *Env) Saves() (storage.Backend, error) {
	if e.saves != nil {
		return e.saves, nil
	}

	var path string
	switch e.backend {
	case storage.KindBadger:
		path = filepath.Join(e.storeDir, "badger")
	case storage.KindSQLite:
		path = filepath.Join(e.storeDir, "saves.db")
	}
	if path != "" {
		if err := os.MkdirAll(e.storeDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	b, err := storage.Open(e.backend, path, false)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	e.Logger.Debug("save library opened", "backend", e.backend, "path", path)
	e.saves = b
	return b, nil
}

// holdWrites stops Close from writing the diagram back. Long-running
// commands that write explicitly call it.
func (e *Env) holdWrites() {
	e.autoWrite = false
}

// Close writes back a modified diagram after a successful one-shot command
// and releases the save library.
func (e *Env) Close(runErr error) error {
	var errs []error
	if runErr == nil && e.autoWrite && e.editor != nil && e.editor.Dirty() {
		if err := e.editor.Write(); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", e.file, err))
		}
	}
	if e.saves != nil {
		if err := e.saves.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing storage: %w", err))
		}
		e.saves = nil
	}
	return errors.Join(errs...)
}

func (e *Env) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(e.Out, format+"\n", args...)
}

func (e *Env) warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(e.Out, format+"\n", args...)
}

func (e *Env) failure(format string, args ...any) {
	color.New(color.FgRed).Fprintf(e.Out, format+"\n", args...)
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	File    string `short:"f" env:"UML_GO_FILE" default:"diagram.json" type:"path" help:"Diagram file (.json, .yaml or .yml)"`
	Store   string `env:"UML_GO_STORE" default:".uml-go" type:"path" help:"Directory holding the save library"`
	Backend string `env:"UML_GO_BACKEND" default:"badger" enum:"badger,sqlite,memory" help:"Save library backend (${enum})"`

	EditCmds `embed:""`
	FileCmds `embed:""`

	Check CheckCmd `cmd:"" help:"Validate every diagram file under a directory"`
	Sync  SyncCmd  `cmd:"" help:"Store every diagram file under a directory in the save library"`
	Watch WatchCmd `cmd:"" help:"Watch a directory and validate diagram files as they change"`
	Shell ShellCmd `cmd:"" help:"Interactive editing shell"`
	Setup SetupCmd `cmd:"" help:"Configure MCP for Claude Code / Cursor"`
	MCP   MCPCmd   `cmd:"" help:"Start MCP server (stdio transport)"`

	out io.Writer `kong:"-"`
	in  io.Reader `kong:"-"`
}

// NewCLI creates a new CLI instance bound to the process streams.
func NewCLI() *CLI {
	return &CLI{out: os.Stdout, in: os.Stdin}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.in == nil {
		c.in = os.Stdin
	}

	parser, err := kong.New(c,
		kong.Name("uml-go"),
		kong.Description("Edit UML class diagrams from the command line, a shell or an MCP client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Writers(c.out, os.Stderr),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := c.newEnv(ctx)
	runErr := kongCtx.Run(env)
	return errors.Join(runErr, env.Close(runErr))
}

func (c *CLI) newEnv(ctx context.Context) *Env {
	env := &Env{
		Ctx:       ctx,
		Out:       c.out,
		In:        c.in,
		Logger:    newLogger(c.Verbose, c.Quiet),
		file:      c.File,
		storeDir:  c.Store,
		backend:   c.Backend,
		autoWrite: true,
	}
	if f, ok := c.in.(*os.File); ok {
		env.Interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return env
}

// newLogger logs to stderr so stdout stays clean for command output and the
// MCP stdio transport.
func newLogger(verbose, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

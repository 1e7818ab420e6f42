package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/google/shlex"

	"github.com/Benny93/uml-go/internal/workspace"
)

var errExitShell = errors.New("exit shell")

// ShellCmd runs an interactive editing shell on the diagram file.
type ShellCmd struct {
	Watch bool `short:"w" help:"Reload the diagram when its file changes on disk"`
}

// shellGrammar is the command set of one shell line.
type shellGrammar struct {
	EditCmds `embed:""`
	FileCmds `embed:""`

	Undo    UndoCmd    `cmd:"" help:"Undo the last change"`
	Redo    RedoCmd    `cmd:"" help:"Redo the last undone change"`
	History HistoryCmd `cmd:"" help:"Show undo and redo depth"`
	Write   WriteCmd   `cmd:"" help:"Write the diagram to its file"`
	Exit    ExitCmd    `cmd:"" aliases:"quit" help:"Leave the shell"`
}

// Run executes the shell command.
func (c *ShellCmd) Run(env *Env) error {
	env.holdWrites()
	editor, err := env.Editor()
	if err != nil {
		return err
	}

	if c.Watch {
		env.Out = &lockedWriter{w: env.Out}
		ctx, cancel := context.WithCancel(env.Ctx)
		defer cancel()
		go func() {
			err := editor.Watch(ctx, workspace.DefaultDebounce, func() {
				env.warn("Reloaded %s", editor.Path())
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				env.Logger.Warn("watching diagram", "error", err)
			}
		}()
	}

	if env.Interactive {
		fmt.Fprintf(env.Out, "Editing %s. Type 'help' for commands.\n", editor.Path())
	}

	scanner := bufio.NewScanner(env.In)
	for env.Ctx.Err() == nil {
		if env.Interactive {
			prompt := "uml-go> "
			if editor.Dirty() {
				prompt = "uml-go*> "
			}
			fmt.Fprint(env.Out, prompt)
		}
		if !scanner.Scan() {
			break
		}

		err := execLine(env, scanner.Text())
		if errors.Is(err, errExitShell) {
			return nil
		}
		if err != nil {
			env.failure("Error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if editor.Dirty() {
		env.warn("Unsaved changes to %s were discarded", editor.Path())
	}
	return nil
}

// execLine parses and runs one shell line.
func execLine(env *Env, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parsing line: %w", err)
	}
	if len(args) == 0 {
		return nil
	}

	var grammar shellGrammar
	parser, err := kong.New(&grammar,
		kong.Name("uml-go"),
		kong.Description("Commands available in the shell"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Writers(env.Out, env.Out),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return err
	}

	if args[0] == "help" {
		// Help output is the goal; the parse error after it is expected.
		_, _ = parser.Parse(append(args[1:], "--help"))
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run(env)
}

// UndoCmd undoes the last change.
type UndoCmd struct{}

// Run executes the undo command.
func (c *UndoCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	ok, err := editor.Undo()
	if err != nil {
		return err
	}
	if !ok {
		env.warn("Nothing to undo")
		return nil
	}
	env.success("Undone")
	return nil
}

// RedoCmd redoes the last undone change.
type RedoCmd struct{}

// Run executes the redo command.
func (c *RedoCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	ok, err := editor.Redo()
	if err != nil {
		return err
	}
	if !ok {
		env.warn("Nothing to redo")
		return nil
	}
	env.success("Redone")
	return nil
}

// HistoryCmd prints the history depth.
type HistoryCmd struct{}

// Run executes the history command.
func (c *HistoryCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	undo, redo := editor.HistoryDepth()
	fmt.Fprintf(env.Out, "%d undo, %d redo\n", undo, redo)
	return nil
}

// WriteCmd writes the diagram file.
type WriteCmd struct{}

// Run executes the write command.
func (c *WriteCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	if err := editor.Write(); err != nil {
		return err
	}
	env.success("Wrote %s", editor.Path())
	return nil
}

// ExitCmd leaves the shell.
type ExitCmd struct {
	Force bool `short:"f" help:"Discard unsaved changes"`
}

// Run executes the exit command.
func (c *ExitCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	if editor.Dirty() && !c.Force {
		return errors.New("unsaved changes; run 'write' first or 'exit --force'")
	}
	return errExitShell
}

// lockedWriter serializes writes from the shell loop and the file watcher.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

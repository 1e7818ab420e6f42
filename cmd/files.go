package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/Benny93/uml-go/internal/storage"
)

// FileCmds move diagrams between the session, files and the save library.
type FileCmds struct {
	Export ExportCmd `cmd:"" help:"Write the diagram to another file (.json, .yaml or .yml)"`
	Import ImportCmd `cmd:"" help:"Replace the diagram with the contents of a file"`
	Save   SaveCmd   `cmd:"" help:"Store the diagram in the save library"`
	Load   LoadCmd   `cmd:"" help:"Replace the diagram with a save from the library"`
	Saves  SavesCmd  `cmd:"" help:"List, search or delete saves"`
}

// ExportCmd writes the diagram to a file.
type ExportCmd struct {
	Path string `arg:"" type:"path" help:"Destination file"`
}

// Run executes the export command.
func (c *ExportCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	if err := editor.Export(c.Path); err != nil {
		return err
	}
	env.success("Exported diagram to %s", c.Path)
	return nil
}

// ImportCmd replaces the diagram with a file.
type ImportCmd struct {
	Path string `arg:"" type:"existingfile" help:"Source file"`
}

// Run executes the import command.
func (c *ImportCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	if err := editor.Import(c.Path); err != nil {
		return err
	}
	env.success("Imported diagram from %s", c.Path)
	return nil
}

// SaveCmd stores the diagram under a name.
type SaveCmd struct {
	Name string `arg:"" help:"Save name"`
}

// Run executes the save command.
func (c *SaveCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	saves, err := env.Saves()
	if err != nil {
		return err
	}
	info, err := editor.SaveTo(env.Ctx, saves, c.Name)
	if err != nil {
		return err
	}
	env.success("Saved %s (%d classes, %d relationships)", info.Name, info.Classes, info.Relationships)
	return nil
}

// LoadCmd replaces the diagram with a save.
type LoadCmd struct {
	Name string `arg:"" help:"Save name"`
}

// Run executes the load command.
func (c *LoadCmd) Run(env *Env) error {
	editor, err := env.Editor()
	if err != nil {
		return err
	}
	saves, err := env.Saves()
	if err != nil {
		return err
	}
	if err := editor.LoadFrom(env.Ctx, saves, c.Name); err != nil {
		return err
	}
	env.success("Loaded %s", c.Name)
	return nil
}

// SavesCmd groups the save library commands.
type SavesCmd struct {
	List   SavesListCmd   `cmd:"" default:"1" help:"List saves"`
	Search SavesSearchCmd `cmd:"" help:"Find classes and members across saves"`
	Delete SavesDeleteCmd `cmd:"" aliases:"rm" help:"Delete a save"`
}

// SavesListCmd lists the save library.
type SavesListCmd struct{}

// Run executes the saves list command.
func (c *SavesListCmd) Run(env *Env) error {
	saves, err := env.Saves()
	if err != nil {
		return err
	}
	infos, err := saves.List(env.Ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(env.Out, "No saves found")
		return nil
	}

	tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCLASSES\tRELATIONSHIPS\tSAVED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n",
			info.Name, info.Classes, info.Relationships, info.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// SavesSearchCmd searches the save library.
type SavesSearchCmd struct {
	Query string `arg:"" help:"Search query"`
	Limit int    `short:"n" default:"20" help:"Maximum results"`
}

// Run executes the saves search command.
func (c *SavesSearchCmd) Run(env *Env) error {
	saves, err := env.Saves()
	if err != nil {
		return err
	}
	results, err := storage.Search(env.Ctx, saves, c.Query, c.Limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(env.Out, "No results found")
		return nil
	}

	for i, r := range results {
		target := r.Class
		if r.Member != "" {
			target += "." + r.Member
		}
		fmt.Fprintf(env.Out, "%d. %s: %s (score %.0f)\n", i+1, r.Save, target, r.Score)
	}
	return nil
}

// SavesDeleteCmd deletes a save.
type SavesDeleteCmd struct {
	Name string `arg:"" help:"Save name"`
}

// Run executes the saves delete command.
func (c *SavesDeleteCmd) Run(env *Env) error {
	saves, err := env.Saves()
	if err != nil {
		return err
	}
	if err := saves.Delete(env.Ctx, c.Name); err != nil {
		return err
	}
	env.success("Deleted save %s", c.Name)
	return nil
}

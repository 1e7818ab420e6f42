package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SetupCmd configures MCP for various AI clients.
type SetupCmd struct {
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	Format   string `help:"Output format (json|text)" enum:"json,text" default:"json"`
	FilePath string `help:"Custom directory for the configuration file"`
}

// Run executes the setup command.
func (c *SetupCmd) Run(env *Env) error {
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Format)
	}

	config := generateServerConfig(env.file, env.backend, env.storeDir)

	// Without a client, print the config for manual installation.
	if !c.Qwen && !c.Claude && !c.Cursor {
		content, err := renderConfig(config, c.Format)
		if err != nil {
			return err
		}
		if c.Format == "text" {
			fmt.Fprintln(env.Out, "# Add this to your MCP client configuration:")
			fmt.Fprintln(env.Out)
		}
		_, err = env.Out.Write(content)
		return err
	}

	if !c.Local && !c.Global {
		c.Local = true
	}

	clients := []struct {
		enabled bool
		name    string
		label   string
		file    string
	}{
		{c.Qwen, "qwen", "Qwen", "mcp.json"},
		{c.Claude, "claude", "Claude", "settings.json"},
		{c.Cursor, "cursor", "Cursor", "mcp.json"},
	}
	for _, client := range clients {
		if !client.enabled {
			continue
		}
		if c.Global {
			path := getGlobalConfigPath(client.name)
			if err := writeConfig(path, config, c.Format); err != nil {
				return err
			}
			env.success("✓ Created global %s MCP config at %s", client.label, path)
		}
		if c.Local {
			path := getLocalConfigPath(".", client.name)
			if c.FilePath != "" {
				path = filepath.Join(c.FilePath, client.file)
			}
			if err := writeConfig(path, config, c.Format); err != nil {
				return err
			}
			env.success("✓ Created local %s MCP config at %s", client.label, path)
		}
	}
	return nil
}

// generateServerConfig returns the mcpServers entry that starts the MCP
// server on the given diagram file.
func generateServerConfig(file, backend, storeDir string) map[string]any {
	args := []string{"mcp", "--file", file}
	if backend != "" {
		args = append(args, "--backend", backend)
	}
	if storeDir != "" {
		args = append(args, "--store", storeDir)
	}
	return map[string]any{
		"mcpServers": map[string]any{
			"uml-go": map[string]any{
				"command": "uml-go",
				"args":    args,
			},
		},
	}
}

func getLocalConfigPath(basePath, client string) string {
	return filepath.Join(basePath, getClientConfigDir(client), "mcp.json")
}

func getGlobalConfigPath(client string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	return filepath.Join(homeDir, getClientConfigDir(client), "global", "mcp.json")
}

func getClientConfigDir(client string) string {
	switch client {
	case "claude":
		return ".claude"
	case "cursor":
		return ".cursor"
	default:
		return ".qwen"
	}
}

func renderConfig(config map[string]any, format string) ([]byte, error) {
	if format == "json" {
		content, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return append(content, '\n'), nil
	}

	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		value, err := json.Marshal(config[key])
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", key, err)
		}
		fmt.Fprintf(&sb, "%s: %s\n", key, value)
	}
	return []byte(sb.String()), nil
}

func writeConfig(configPath string, config map[string]any, format string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	content, err := renderConfig(config, format)
	if err != nil {
		return err
	}
	if format == "text" {
		content = append([]byte("# MCP configuration for uml-go\n# Generated by uml-go setup\n\n"), content...)
	}

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

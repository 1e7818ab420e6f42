package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(out *bytes.Buffer) *Env {
	return &Env{Out: out, file: "/work/diagram.json", backend: "badger", storeDir: "/work/.uml-go"}
}

func TestSetupCmd_Run(t *testing.T) {
	t.Run("SetupQwenLocal", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Chdir(tmpDir)

		cmd := &SetupCmd{
			Qwen:   true,
			Local:  true,
			Format: "json",
		}

		var out bytes.Buffer
		err := cmd.Run(setupEnv(&out))
		assert.NoError(t, err)

		_, err = os.Stat(filepath.Join(tmpDir, ".qwen", "mcp.json"))
		assert.NoError(t, err)
		assert.Contains(t, out.String(), "Created local Qwen MCP config")
	})

	t.Run("SetupQwenGlobal", func(t *testing.T) {
		tmpHome := t.TempDir()
		t.Setenv("HOME", tmpHome)

		cmd := &SetupCmd{
			Qwen:   true,
			Global: true,
			Format: "json",
		}

		var out bytes.Buffer
		err := cmd.Run(setupEnv(&out))
		assert.NoError(t, err)

		_, err = os.Stat(filepath.Join(tmpHome, ".qwen", "global", "mcp.json"))
		assert.NoError(t, err)
	})

	t.Run("SetupClaudeAndCursor", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Chdir(tmpDir)

		cmd := &SetupCmd{
			Claude: true,
			Cursor: true,
			Format: "json",
		}

		var out bytes.Buffer
		err := cmd.Run(setupEnv(&out))
		assert.NoError(t, err)

		for _, dir := range []string{".claude", ".cursor"} {
			_, err = os.Stat(filepath.Join(tmpDir, dir, "mcp.json"))
			assert.NoError(t, err, dir)
		}
	})

	t.Run("CustomFilePath", func(t *testing.T) {
		tmpDir := t.TempDir()

		cmd := &SetupCmd{
			Claude:   true,
			Format:   "text",
			FilePath: tmpDir,
		}

		var out bytes.Buffer
		require.NoError(t, cmd.Run(setupEnv(&out)))

		content, err := os.ReadFile(filepath.Join(tmpDir, "settings.json"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "# MCP configuration for uml-go")
		assert.Contains(t, string(content), `"command":"uml-go"`)
	})

	t.Run("SetupDefault", func(t *testing.T) {
		cmd := &SetupCmd{
			Format: "json",
		}

		var out bytes.Buffer
		require.NoError(t, cmd.Run(setupEnv(&out)))

		var config map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &config))
		assert.Contains(t, config, "mcpServers")
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		cmd := &SetupCmd{
			Qwen:   true,
			Format: "invalid",
		}

		var out bytes.Buffer
		assert.Error(t, cmd.Run(setupEnv(&out)))
	})
}

func TestGenerateServerConfig(t *testing.T) {
	config := generateServerConfig("/work/diagram.json", "sqlite", "/work/.uml-go")

	servers := config["mcpServers"].(map[string]any)
	require.Contains(t, servers, "uml-go")

	server := servers["uml-go"].(map[string]any)
	assert.Equal(t, "uml-go", server["command"])
	assert.Equal(t, []string{
		"mcp", "--file", "/work/diagram.json",
		"--backend", "sqlite",
		"--store", "/work/.uml-go",
	}, server["args"])

	bare := generateServerConfig("d.json", "", "")
	args := bare["mcpServers"].(map[string]any)["uml-go"].(map[string]any)["args"]
	assert.Equal(t, []string{"mcp", "--file", "d.json"}, args)
}

func TestConfigPaths(t *testing.T) {
	t.Run("GetLocalConfigPath", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := getLocalConfigPath(tmpDir, "qwen")
		assert.Equal(t, filepath.Join(tmpDir, ".qwen", "mcp.json"), path)
	})

	t.Run("GetClientConfigDir", func(t *testing.T) {
		assert.Equal(t, ".qwen", getClientConfigDir("qwen"))
		assert.Equal(t, ".claude", getClientConfigDir("claude"))
		assert.Equal(t, ".cursor", getClientConfigDir("cursor"))
	})
}

func TestWriteConfig(t *testing.T) {
	t.Run("WriteJSONConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")

		config := generateServerConfig("diagram.json", "", "")

		err := writeConfig(configPath, config, "json")
		assert.NoError(t, err)

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)

		var loaded map[string]any
		assert.NoError(t, json.Unmarshal(content, &loaded))
	})

	t.Run("WriteConfigCreatesDirectory", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

		err := writeConfig(configPath, map[string]any{"test": "value"}, "json")
		assert.NoError(t, err)

		_, err = os.Stat(configPath)
		assert.NoError(t, err)
	})
}

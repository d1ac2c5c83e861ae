package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowvana/flowlight/internal/app"
)

const testConfig = `version: 1.0.0
flows:
  - name: deploy
    description: Ship the service
    inputs:
      env: {type: string, required: true}
    steps:
      - name: echo
        fn: echo
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func execute(t *testing.T, args ...string) app.ExitResult {
	t.Helper()
	root := NewRoot()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return app.ExitResult{}
	}
	var er app.ExitResult
	require.True(t, errors.As(err, &er), "unexpected error: %v", err)
	return er
}

func TestFlowsList(t *testing.T) {
	cfg := writeTestConfig(t)
	res := execute(t, "flows", "list", "--config", cfg, "-F", "json")
	assert.Equal(t, 0, res.Code)
	assert.Contains(t, res.Message, `"deploy"`)
	assert.Contains(t, res.Message, "Ship the service")
}

func TestFlowsRun(t *testing.T) {
	cfg := writeTestConfig(t)

	res := execute(t, "flows", "run", "deploy", "--config", cfg, "-i", "env=prod", "-F", "json")
	assert.Equal(t, 0, res.Code)
	assert.Contains(t, res.Message, "prod")

	res = execute(t, "flows", "run", "deploy", "--config", cfg, "-F", "json")
	assert.Equal(t, 2, res.Code, "missing required input")

	res = execute(t, "flows", "run", "nope", "--config", cfg)
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Message, `flow with name "nope" not found`)
}

func TestSearchFallsBackToLocalFlows(t *testing.T) {
	cfg := writeTestConfig(t)
	res := execute(t, "search", "ship", "--config", cfg, "-F", "json")
	assert.Equal(t, 0, res.Code)
	assert.Contains(t, res.Message, app.FlowURLScheme+"deploy")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	res := execute(t, "config", "init", "--config", path, "--base-url", "https://api.example.com")
	assert.Equal(t, 0, res.Code)
	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)

	res = execute(t, "config", "init", "--config", path)
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Message, "already exists")
}

func TestParseKV(t *testing.T) {
	k, v, ok := parseKV("X-Team: search", ":")
	assert.True(t, ok)
	assert.Equal(t, "X-Team", k)
	assert.Equal(t, "search", v)

	_, _, ok = parseKV("novalue", "=")
	assert.False(t, ok)

	_, _, ok = parseKV("=v", "=")
	assert.False(t, ok)
}

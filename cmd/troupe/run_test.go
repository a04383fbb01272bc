package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/troupe/config"
	"github.com/najoast/troupe/serde"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "troupe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const quietConfig = `
log:
  level: error
serde:
  audit: false
`

func TestRunErasing(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", writeConfig(t, quietConfig), "-rounds", "2"}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "initial state: 0")
	assert.Contains(t, text, "final state: 2")
	assert.Contains(t, text, "increment round=2")
	assert.Contains(t, text, "reloaded state: error: actor does not provide capability")
	assert.Contains(t, text, "reloaded ancestry:\n  increment (was increment)\n  message (was increment)\n  message (was run)\n")
}

func TestRunAnnotatedJSON(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", writeConfig(t, quietConfig), "-annotated", "-format", "json"}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "final state: 3")
	assert.Contains(t, text, "network dump (json):")
	assert.Contains(t, text, `"kind": "annotated_dummy"`)
	assert.Contains(t, text, "reloaded state: 3")
	assert.Contains(t, text, "  increment (was increment)")
	assert.Contains(t, text, "  run (was run)")
	assert.NotContains(t, text, "(was increment)\n  message")
}

func TestRunStrictSerdeRejectsErasing(t *testing.T) {
	cfg := writeConfig(t, quietConfig+"  strict: true\n")

	err := run(context.Background(), []string{"-config", cfg}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "erasing base slot")

	require.NoError(t, run(context.Background(), []string{"-config", cfg, "-annotated"}, &bytes.Buffer{}))
}

func TestRunStepLimit(t *testing.T) {
	cfg := writeConfig(t, quietConfig+"engine:\n  max_steps: 2\n")

	err := run(context.Background(), []string{"-config", cfg, "-rounds", "5"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "step limit")
}

func TestReconfigureAppliesLiveSettings(t *testing.T) {
	old := config.DefaultConfig()
	next := config.DefaultConfig()
	next.Engine.MaxSteps = 7
	next.Serde.Format = "json"
	next.Serde.Strict = true

	r, err := newRunner(old, options{rounds: 1}, log.NewNopLogger(), &bytes.Buffer{})
	require.NoError(t, err)
	r.reconfigure(old, next)
	assert.Equal(t, 7, r.engine.MaxSteps())
	assert.Equal(t, serde.FormatJSON, r.format)

	pinned, err := newRunner(old, options{rounds: 1, format: "yaml"}, log.NewNopLogger(), &bytes.Buffer{})
	require.NoError(t, err)
	pinned.reconfigure(old, next)
	assert.Equal(t, serde.FormatYAML, pinned.format)
}

func TestParseFlags(t *testing.T) {
	_, err := parseFlags([]string{"-rounds", "-1"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-watch"})
	assert.Error(t, err)

	opts, err := parseFlags([]string{"-annotated", "-rounds", "4"})
	require.NoError(t, err)
	assert.True(t, opts.annotated)
	assert.Equal(t, 4, opts.rounds)
}

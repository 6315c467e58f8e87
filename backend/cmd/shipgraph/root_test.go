package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TOKEN_COUNTING", "false")
	t.Setenv("ARTIFACT_DIR", dir)
	return dir
}

func execute(t *testing.T, args ...string) (*cli, string, error) {
	t.Helper()
	var out bytes.Buffer
	c := newCLI()
	c.root.SetOut(&out)
	c.root.SetErr(&out)
	c.root.SetArgs(args)
	err := c.Execute(context.Background())
	return c, out.String(), err
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	_, out, err := execute(t, args...)
	return out, err
}

func TestSchemaCommand(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready")
}

func TestShipsCommand_Empty(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "ships")
	require.NoError(t, err)
	assert.Contains(t, out, "No ships recorded")
}

func TestAskCommand_Count(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "ask", "How many ships are there?")
	require.NoError(t, err)
	assert.Contains(t, out, `{"count":0}`)
}

func TestAskCommand_Errors(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "ask", "Ship name?")
	assert.Error(t, err)

	_, err = run(t, "ask", "--strategy", "telepathy", "How many ships?")
	assert.Error(t, err)

	_, err = run(t, "ask")
	assert.Error(t, err)
}

func TestEmbedCommand_NothingToEmbed(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "embed")
	require.NoError(t, err)
	assert.Contains(t, out, "Embedded 0 questions")
}

func TestIngestCommand_UnreadablePDFIsReported(t *testing.T) {
	dir := memoryEnv(t)
	missing := filepath.Join(dir, "missing.pdf")

	out, err := run(t, "ingest", missing)
	require.NoError(t, err)
	assert.Contains(t, out, "missing.pdf: 0 tables")
	assert.Contains(t, out, "error:")
	assert.Contains(t, out, "Structured output:")
}

func TestStoreFlag_Invalid(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "--store", "sqlite", "ships")
	assert.Error(t, err)
}

func TestExecute_ClosesServices(t *testing.T) {
	memoryEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"success", []string{"ask", "How many ships are there?"}, false},
		{"invalid query", []string{"ask", "Ship name?"}, true},
		{"unknown strategy", []string{"ask", "--strategy", "telepathy", "How many ships?"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.NotNil(t, c.sm)
			assert.True(t, c.sm.Closed())
		})
	}
}

func TestExecute_SetupFailureLeavesNothingOpen(t *testing.T) {
	memoryEnv(t)

	c, _, err := execute(t, "--store", "sqlite", "ships")
	assert.Error(t, err)
	assert.Nil(t, c.sm)
}

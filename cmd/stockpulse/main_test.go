package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := `log:
  level: error
sources:
  provider: mock
  mock_price: 120
database:
  sqlite_path: ` + filepath.Join(dir, "data", "stockpulse.db") + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestAnalyzeCommand_PrintsReportAndWritesChart(t *testing.T) {
	dir := t.TempDir()
	chartPath := filepath.Join(dir, "aapl.png")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"analyze", "AAPL", "--config", writeConfig(t, dir), "--interval", "1d", "--chart", chartPath})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Disclaimer")
	assert.Contains(t, out.String(), "Updated: ")
	assert.FileExists(t, chartPath)
	assert.FileExists(t, filepath.Join(dir, "data", "stockpulse.db"))
}

func TestAnalyzeCommand_RequiresSymbol(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"analyze", "--config", writeConfig(t, t.TempDir())})
	assert.Error(t, root.Execute())
}

func TestAnalyzeCommand_RejectsBadInterval(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"analyze", "AAPL", "-i", "1w", "--config", writeConfig(t, t.TempDir())})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid symbol or interval")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"analyze", "serve"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	StateFile          string `json:"state_file"`
	CheckIntervalHours int    `json:"check_interval_hours"`
	Bluesky            struct {
		Handle   string `json:"handle"`
		Password string `json:"password"`
	} `json:"bluesky"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	writeFile(t, path, `{
		// comments are allowed
		state_file: "history.json",
		check_interval_hours: 12,
	}`)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "history.json", config.StateFile)
	require.Equal(t, 12, config.CheckIntervalHours)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	writeFile(t, path, `{
		state_file: "history.json",
		check_interval_hours: 24,
		bluesky: { handle: "archive.example.com" },
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		check_interval_hours: 1,
		bluesky: { password: "app-password" },
	}`)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)

	// overridden
	require.Equal(t, 1, config.CheckIntervalHours)
	require.Equal(t, "app-password", config.Bluesky.Password)
	// untouched
	require.Equal(t, "history.json", config.StateFile)
	require.Equal(t, "archive.example.com", config.Bluesky.Handle)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{state_file: "local.json"}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "local.json", config.StateFile)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "config.local.json5", localName("config.json5"))
	require.Equal(t, filepath.Join("a", "b", "telemetry.local.json5"), localName(filepath.Join("a", "b", "telemetry.json5")))
}

package configutil

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Token   string `json:"token"`
	BaseUrl string `json:"base_url"`
	Nested  struct {
		Enabled bool   `json:"enabled"`
		Name    string `json:"name"`
	} `json:"nested"`
}

func TestReadConfigLocalOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/crawlbase.json5", []byte(`{
		// comments and trailing commas are allowed
		token: "default",
		base_url: "https://api.crawlbase.com",
		nested: { name: "a", },
	}`), 0600))
	require.NoError(t, afero.WriteFile(fs, "/app/crawlbase.local.json5", []byte(`{
		token: "local",
		nested: { enabled: true },
	}`), 0600))

	config, err := ReadConfig[testConfig](fs, "/app/crawlbase.json5")
	require.NoError(t, err)
	require.Equal(t, "local", config.Token)
	require.Equal(t, "https://api.crawlbase.com", config.BaseUrl)
	require.True(t, config.Nested.Enabled)
	require.Equal(t, "a", config.Nested.Name)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/crawlbase.local.json5", []byte(`{token: "local"}`), 0600))

	config, err := ReadConfig[testConfig](fs, "/app/crawlbase.json5")
	require.NoError(t, err)
	require.Equal(t, "local", config.Token)
}

func TestReadConfigErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := ReadConfig[testConfig](fs, "/app/crawlbase.json5")
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, afero.WriteFile(fs, "/app/crawlbase.json5", []byte(`{token: `), 0600))
	_, err = ReadConfig[testConfig](fs, "/app/crawlbase.json5")
	require.Error(t, err)
	require.False(t, errors.Is(err, os.ErrNotExist))
}

func TestReadFromWalksUp(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/user/crawlbase.json5", []byte(`{token: "found"}`), 0600))
	require.NoError(t, fs.MkdirAll("/home/user/projects/site", 0755))

	config, err := ReadFrom[testConfig](fs, "/home/user/projects/site", "crawlbase.json5")
	require.NoError(t, err)
	require.Equal(t, "found", config.Token)

	_, err = ReadFrom[testConfig](fs, "/home/user/projects/site", "missing.json5")
	require.True(t, errors.Is(err, os.ErrNotExist))
}

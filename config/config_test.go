package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gallery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, conf.Discord.PageSize)
	assert.Equal(t, "1065828557370175539", conf.Discord.LogChannelID)
	assert.Equal(t, 2023, conf.Gallery.DatedFromYear)
	assert.Equal(t, 2017, conf.Gallery.FirstYear)
	assert.Equal(t, time.Now().Year(), conf.Gallery.LastYear)
	assert.Equal(t, "src/galleryImages.json", conf.Output.Path)
	assert.Equal(t, 15*time.Second, conf.Probe.Timeout)
	assert.Equal(t, "gallery_items", conf.Mirror.Collection)
	assert.False(t, conf.Mirror.Enabled)
	assert.Error(t, conf.RequireToken())
}

func TestLoad_EnvToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "abc.def")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", conf.Discord.Token)
	assert.NoError(t, conf.RequireToken())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
discord:
  pageSize: 50
  logChannelID: "42"
gallery:
  firstYear: 2019
  lastYear: 2024
  timezone: UTC
output:
  path: out/art.json
probe:
  timeout: 3s
  concurrency: 2
logger:
  level: debug
`)

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, conf.Path)
	assert.Equal(t, 50, conf.Discord.PageSize)
	assert.Equal(t, "42", conf.Discord.LogChannelID)
	assert.Equal(t, 2019, conf.Gallery.FirstYear)
	assert.Equal(t, 2024, conf.Gallery.LastYear)
	assert.Equal(t, "out/art.json", conf.Output.Path)
	assert.Equal(t, 3*time.Second, conf.Probe.Timeout)
	assert.Equal(t, 2, conf.Probe.Concurrency)
	assert.Equal(t, time.UTC, conf.Location())

	schema := conf.Schema()
	assert.Equal(t, 2019, schema.FirstYear)
	assert.Equal(t, 2024, schema.LastYear)
	assert.Equal(t, 2023, schema.DatedFromYear)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_PageSizeTooLarge(t *testing.T) {
	path := writeConfig(t, "discord:\n  pageSize: 500\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidLevel(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: verbose\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvertedRange(t *testing.T) {
	path := writeConfig(t, "gallery:\n  firstYear: 2024\n  lastYear: 2020\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadTimezone(t *testing.T) {
	path := writeConfig(t, "gallery:\n  timezone: Mars/Olympus\n")
	_, err := Load(path)
	assert.Error(t, err)
}

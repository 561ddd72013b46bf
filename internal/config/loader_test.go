package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMergesMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01-vars.yaml", `
variables:
  cluster: prod
`)
	writeFile(t, dir, "02-web.yaml", `
services:
  web:
    desc: web frontend
    actions:
      start:
        command: "systemctl start web"
`)

	f, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "prod", f.Variables["cluster"])
	require.Contains(t, f.Services, "web")
	assert.Equal(t, "web frontend", f.Services["web"].Description)
}

func TestLoadRejectsDuplicateServiceAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01-a.yaml", `
services:
  web:
    actions:
      start:
        command: "true"
`)
	writeFile(t, dir, "02-b.yaml", `
services:
  web:
    actions:
      stop:
        command: "true"
`)

	_, err := Load(dir)
	var dupErr *DuplicateServiceError
	assert.ErrorAs(t, err, &dupErr)
}

func TestLoadWrapsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "services: [this is not a map")

	_, err := Load(dir)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestLoadIgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "not config")
	writeFile(t, dir, "services.yaml", `
services:
  web:
    actions:
      start:
        command: "true"
`)

	f, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, f.Services, 1)
}

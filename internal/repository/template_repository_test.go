package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gschpoozi/printstack/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBuiltinTemplate(t *testing.T) {
	repo := NewTemplateRepository(testConfig(t))

	tmpl, err := repo.Lookup(render.TemplateKlipperUnit)
	require.NoError(t, err)
	assert.Equal(t, render.KlipperUnit, tmpl)

	_, err = repo.Lookup("nonexistent.service")
	assert.Error(t, err)
}

func TestLookupPrefersOverrideDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.TemplateDir = t.TempDir()
	override := "[Service]\nUser=%USER%\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.TemplateDir, render.TemplateKlipperUnit), []byte(override), 0644))

	repo := NewTemplateRepository(cfg)
	tmpl, err := repo.Lookup(render.TemplateKlipperUnit)
	require.NoError(t, err)
	assert.Equal(t, override, tmpl)

	// 覆盖目录中没有的模板仍落回内置版本
	tmpl, err = repo.Lookup(render.TemplateMoonrakerUnit)
	require.NoError(t, err)
	assert.Equal(t, render.MoonrakerUnit, tmpl)
}

func TestLookupRejectsInvalidOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.TemplateDir = t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.TemplateDir, render.TemplateKlipperUnit),
		[]byte("ExecStart=%BOGUS%\n"), 0644))

	repo := NewTemplateRepository(cfg)
	_, err := repo.Lookup(render.TemplateKlipperUnit)
	assert.Error(t, err, "覆盖模板含未知占位符时应拒绝，而不是落回内置版本")
}

func TestListCoversBuiltinTemplates(t *testing.T) {
	repo := NewTemplateRepository(testConfig(t))

	names := repo.List()
	assert.Len(t, names, len(render.Builtin))
	assert.Contains(t, names, render.TemplateMainsailSite)
	assert.Contains(t, names, render.TemplateFluiddSite)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"project": {"name": "demo", "version": "2.3"},
		"validation": true,
		"shaderDir": "build/spv",
		"window": {"title": "Demo", "x": -1, "y": 40, "width": 800, "height": 600,
			"resizable": false, "fullscreen": true, "decorated": false, "monitor": 1},
		"log": {"level": "warning", "assertLevel": "error", "validationLevel": "verbose",
			"printLocation": false, "colors": true,
			"disabledCategories": ["frame"], "disabledCodes": ["TIMEOUT", "swapchain_recreation"]},
		"future": {"nested": [1, 2, {"x": null}]}
	}`))
	require.NoError(t, err)

	require.Equal(t, Project{Name: "demo", Version: "2.3"}, cfg.Project)
	require.True(t, cfg.Validation)
	require.Equal(t, "build/spv", cfg.ShaderDir)
	require.Equal(t, Window{
		Title: "Demo", X: PositionUnset, Y: 40, Width: 800, Height: 600,
		Fullscreen: true, Monitor: 1,
	}, cfg.Window)

	require.Equal(t, report.SeverityWarning, cfg.Log.Level)
	require.Equal(t, report.SeverityError, cfg.Log.AssertLevel)
	require.Equal(t, gpu.DebugVerbose, cfg.Log.ValidationLevel)
	require.False(t, cfg.Log.PrintLocation)
	require.True(t, cfg.Log.PrintCode)
	require.True(t, cfg.Log.Colors)
	require.Equal(t, []string{"frame"}, cfg.Log.DisabledCategories)
	require.Equal(t, []report.Code{report.CodeTimeout, report.CodeSwapchainRecreation}, cfg.Log.DisabledCodes)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"window": {"title": "only title"}}`))
	require.NoError(t, err)

	want := Default().Window
	want.Title = "only title"
	require.Equal(t, want, cfg.Window)
	require.Equal(t, Default().Project, cfg.Project)
	require.Equal(t, "shaders", cfg.ShaderDir)
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		`{"log": {"level": "loud"}}`,
		`{"log": {"validationLevel": "chatty"}}`,
		`{"log": {"disabledCodes": ["NOPE"]}}`,
		`{"window": {"width": "wide"}}`,
		`{"window": `,
		`[]`,
	} {
		_, err := Parse([]byte(doc))
		require.Error(t, err, doc)
		code, ok := report.CodeOf(err)
		require.True(t, ok, doc)
		require.Equal(t, report.CodeParseError, code, doc)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avixel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"validation": true}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Validation)

	_, err = Load(filepath.Join(dir, "missing.json"))
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeIOError, code)
}

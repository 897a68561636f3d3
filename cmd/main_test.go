package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshaderhero/config"
	"github.com/richinsley/goshaderhero/shader"
)

func subcommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	return cmd
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hero.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPrepareRecordFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
record:
  fps: 24
  output: file.mp4
  codec: hevc
`)
	a := &app{}
	root := a.command()
	rec := subcommand(t, root, "record")
	require.NoError(t, rec.ParseFlags([]string{"--config", path, "--fps", "30", "--max-pointers", "3"}))
	require.NoError(t, a.prepare(rec))

	assert.Equal(t, 30, a.cfg.Record.FPS, "flag wins")
	assert.Equal(t, "file.mp4", a.cfg.Record.Output, "file value kept")
	assert.Equal(t, "hevc", a.cfg.Record.Codec)
	assert.Equal(t, 1280, a.cfg.Record.Width, "default kept")
	assert.Equal(t, 3, a.cfg.Render.MaxPointers)
	assert.NotNil(t, a.logger)
}

func TestPrepareWindowFlags(t *testing.T) {
	a := &app{}
	root := a.command()
	require.NoError(t, root.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--width", "800", "--title", "hero",
	}))
	require.NoError(t, a.prepare(root))

	assert.Equal(t, 800, a.cfg.Window.Width)
	assert.Equal(t, 720, a.cfg.Window.Height)
	assert.Equal(t, "hero", a.cfg.Window.Title)
}

func TestPrepareRejectsInvalidConfig(t *testing.T) {
	a := &app{}
	root := a.command()
	require.NoError(t, root.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--max-pointers", "11",
	}))
	assert.ErrorIs(t, a.prepare(root), config.ErrInvalid)
}

func TestPrepareWatchNeedsShader(t *testing.T) {
	a := &app{}
	root := a.command()
	require.NoError(t, root.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--watch",
	}))
	assert.ErrorIs(t, a.prepare(root), config.ErrInvalid)
}

func TestSaveConfigCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "saved.yaml")

	a := &app{}
	root := a.command()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"save-config", out, "--config", filepath.Join(dir, "none.yaml"), "--min-scale", "2"})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "wrote "+out)

	loaded, err := config.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Render.MinScale)
}

func TestLoadFragment(t *testing.T) {
	src, err := loadFragment("")
	require.NoError(t, err)
	assert.Equal(t, shader.HeroFragment, src)

	path := filepath.Join(t.TempDir(), "custom.frag")
	require.NoError(t, os.WriteFile(path, []byte("void main(){}"), 0o644))
	src, err = loadFragment(path)
	require.NoError(t, err)
	assert.Equal(t, "void main(){}", src)

	_, err = loadFragment(filepath.Join(t.TempDir(), "missing.frag"))
	assert.Error(t, err)
}

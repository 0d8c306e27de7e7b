package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/config"
)

func writeProjectConfig(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, config.ProjectDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
}

func TestResolveProjectDir_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	flagDir := t.TempDir()
	t.Setenv("VCADMIN_PROJECT_DIR", t.TempDir())

	got := config.ResolveProjectDir(context.Background(), flagDir, "/does/not/matter")
	assert.Equal(t, filepath.Join(flagDir, config.ProjectDirName), got)
}

func TestResolveProjectDir_EnvVar(t *testing.T) {
	isolate(t)
	envDir := t.TempDir()
	t.Setenv("VCADMIN_PROJECT_DIR", filepath.Join(envDir, config.ProjectDirName))

	got := config.ResolveProjectDir(context.Background(), "", "/does/not/matter")
	assert.Equal(t, filepath.Join(envDir, config.ProjectDirName), got, "no double .vcadmin suffix")
	assert.True(t, filepath.IsAbs(got))
}

func TestResolveProjectDir_WalkUp(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeProjectConfig(t, root, "output:\n  default_format: yaml\n")
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got := config.ResolveProjectDir(context.Background(), "", sub)
	assert.Equal(t, filepath.Join(root, config.ProjectDirName), got)
}

func TestResolveProjectDir_NoProject(t *testing.T) {
	isolate(t)
	assert.Empty(t, config.ResolveProjectDir(context.Background(), "", t.TempDir()))
}

func TestNewWithProjectDir(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeProjectConfig(t, root, "output:\n  default_format: yaml\n")

	cfg := config.NewWithProjectDir(context.Background(), filepath.Join(root, config.ProjectDirName))
	assert.Equal(t, config.FormatYAML, cfg.Output.DefaultFormat)

	t.Setenv(config.EnvOutput, config.FormatJSON)
	cfg = config.NewWithProjectDir(context.Background(), filepath.Join(root, config.ProjectDirName))
	assert.Equal(t, config.FormatJSON, cfg.Output.DefaultFormat, "environment beats the project file")

	assert.Equal(t, config.FormatJSON, config.NewWithProjectDir(context.Background(), "").Output.DefaultFormat)
}

func TestEnsureGitignore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), config.ProjectDirName)

	created, err := config.EnsureGitignore(dir)
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, config.GitignoreContent(), string(data))

	created, err = config.EnsureGitignore(dir)
	require.NoError(t, err)
	assert.False(t, created)
}

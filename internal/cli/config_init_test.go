package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/config"
)

// TestConfigInit_ProjectDir verifies that "config init --project-dir" creates
// .vcadmin/config.yaml and .vcadmin/.gitignore inside the project.
func TestConfigInit_ProjectDir(t *testing.T) {
	setupCLITest(t)
	projectDir := t.TempDir()

	output, err := run(t, "config", "init", "--project-dir", projectDir)
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration initialized at")
	assert.Contains(t, output, "Created .gitignore")

	_, statErr := os.Stat(filepath.Join(projectDir, config.ProjectDirName, "config.yaml"))
	require.NoError(t, statErr, ".vcadmin/config.yaml should exist")

	gitignore, readErr := os.ReadFile(filepath.Join(projectDir, config.ProjectDirName, ".gitignore"))
	require.NoError(t, readErr)
	assert.Equal(t, config.GitignoreContent(), string(gitignore))
}

// TestConfigInit_ExistingGitignorePreserved verifies that --force rewrites
// config.yaml but never an existing .gitignore.
func TestConfigInit_ExistingGitignorePreserved(t *testing.T) {
	setupCLITest(t)
	projectDir := t.TempDir()

	vcDir := filepath.Join(projectDir, config.ProjectDirName)
	require.NoError(t, os.MkdirAll(vcDir, 0o750))
	customContent := "# My custom gitignore\n*.secret\n"
	gitignorePath := filepath.Join(vcDir, ".gitignore")
	require.NoError(t, os.WriteFile(gitignorePath, []byte(customContent), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(vcDir, "config.yaml"), []byte("version: \"1.0\"\n"), 0o600))

	t.Setenv("VCADMIN_PROJECT_DIR", projectDir)

	_, err := run(t, "config", "init")
	require.Error(t, err, "existing config must not be overwritten without --force")

	_, err = run(t, "config", "init", "--force")
	require.NoError(t, err)

	data, readErr := os.ReadFile(gitignorePath)
	require.NoError(t, readErr)
	assert.Equal(t, customContent, string(data))
}

// TestConfigInit_GlobalFlag verifies that --global writes to VCADMIN_HOME even
// inside a project.
func TestConfigInit_GlobalFlag(t *testing.T) {
	setupCLITest(t)
	projectDir := t.TempDir()
	globalDir := t.TempDir()
	t.Setenv("VCADMIN_HOME", globalDir)
	t.Setenv("VCADMIN_PROJECT_DIR", projectDir)

	output, err := run(t, "config", "init", "--global")
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration initialized successfully")

	_, statErr := os.Stat(filepath.Join(globalDir, "config.yaml"))
	require.NoError(t, statErr)

	_, statErr = os.Stat(filepath.Join(projectDir, config.ProjectDirName, "config.yaml"))
	assert.True(t, os.IsNotExist(statErr), "no project config with --global")
}

func TestConfigInit_WritesLoadableDefaults(t *testing.T) {
	setupCLITest(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")

	_, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.CurrentVersion, cfg.Version)
	assert.Equal(t, config.DriverHTTP, cfg.Backend.Driver)
	assert.Equal(t, config.FormatTable, cfg.Output.DefaultFormat)
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing backend", func(t *testing.T) {
		setupCLITest(t)
		t.Setenv(config.EnvBackendURL, "")
		t.Setenv(config.EnvAnonKey, "")

		_, err := run(t, "config", "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend.url is required")
		assert.Contains(t, err.Error(), "backend.anon_key is required")
	})

	t.Run("valid verbose", func(t *testing.T) {
		setupCLITest(t)
		t.Setenv(config.EnvBackendURL, "https://example.supabase.co")
		t.Setenv(config.EnvAnonKey, testAnonKey)

		output, err := run(t, "config", "validate", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, output, "✅ Configuration is valid")
		assert.Contains(t, output, "Backend URL: https://example.supabase.co")
		assert.Contains(t, output, "Anon key: ****1234")
		assert.NotContains(t, output, testAnonKey)
		assert.Contains(t, output, "Events: disabled")
	})
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	setupCLITest(t)
	t.Setenv(config.EnvBackendURL, "https://example.supabase.co")
	t.Setenv(config.EnvAnonKey, testAnonKey)
	t.Setenv(config.EnvAdminAPIKey, testAdminKey)

	output, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "url: https://example.supabase.co")
	assert.Contains(t, output, "****1234")
	assert.NotContains(t, output, testAnonKey)
	assert.NotContains(t, output, testAdminKey)

	output, err = run(t, "config", "show", "--show-secrets", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, output, testAnonKey)
}

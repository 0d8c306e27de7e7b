package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/veganchecker/vcadmin/internal/logging"
)

// ProjectDirName is the name of a project-local configuration directory.
const ProjectDirName = ".vcadmin"

// ErrNoProject is returned by FindProject when no project directory exists above start.
var ErrNoProject = errors.New("no .vcadmin directory found")

// ResolveProjectDir determines the project-local .vcadmin directory path.
// It checks (in order):
//  1. flagValue (--project-dir CLI flag)
//  2. VCADMIN_PROJECT_DIR env var
//  3. a .vcadmin directory found walking up from startDir
//
// Returns an absolute path or "" if no project was found. It never creates anything.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}

	if envDir := os.Getenv("VCADMIN_PROJECT_DIR"); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	projectRoot, err := FindProject(startDir)
	if err != nil {
		if !errors.Is(err, ErrNoProject) {
			logging.FromContext(ctx).Warn().
				Str("component", "config").
				Err(err).
				Str("start_dir", startDir).
				Msg("unexpected error during project discovery")
		}
		return ""
	}

	return toAbsProjectDir(ctx, projectRoot)
}

// FindProject walks up from start looking for a directory containing .vcadmin/config.yaml
// and returns that directory. The user's global config directory does not count.
func FindProject(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	globalDir, _ := GetConfigDir()

	for {
		candidate := filepath.Join(dir, ProjectDirName)
		if candidate != globalDir {
			if _, statErr := os.Stat(filepath.Join(candidate, "config.yaml")); statErr == nil {
				return dir, nil
			} else if !errors.Is(statErr, os.ErrNotExist) {
				return "", statErr
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// NewWithProjectDir creates a Config by loading the global config then
// shallow-merging the project-local config on top. If projectDir is empty,
// it behaves like New().
func NewWithProjectDir(ctx context.Context, projectDir string) *Config {
	cfg := New()
	if projectDir == "" {
		return cfg
	}

	overlayPath := filepath.Join(projectDir, "config.yaml")
	if _, err := os.Stat(overlayPath); err != nil {
		return cfg
	}

	merged := New()
	if err := ShallowMergeYAML(merged, overlayPath); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(err).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using global defaults")
		return cfg
	}

	// Environment still wins over the project file.
	ApplyEnv(merged)
	return merged
}

// toAbsProjectDir converts dir to an absolute path and appends ".vcadmin" unless
// it already ends with it.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == ProjectDirName {
		return abs
	}
	return filepath.Join(abs, ProjectDirName)
}

package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentVersion is the configuration schema version written by config init.
const CurrentVersion = "1.0.0"

// supportedVersions is the range of schema versions this build can read.
const supportedVersions = "^1.0.0"

// CheckVersion reports whether a config file schema version can be read.
// An empty version is treated as current.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", version, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing supported version range: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("config version %s is not supported (want %s)", v, supportedVersions)
	}
	return nil
}

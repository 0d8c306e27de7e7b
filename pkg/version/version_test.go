package version

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion_IsSemver(t *testing.T) {
	_, err := semver.NewVersion(GetVersion())
	require.NoError(t, err)
}

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, GetVersion())
	assert.Contains(t, s, GetGitCommit())
	assert.Contains(t, s, GetBuildDate())
}

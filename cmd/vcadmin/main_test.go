package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/cli"
	"github.com/veganchecker/vcadmin/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.String())
		assert.NotNil(t, root)
		assert.Equal(t, "vcadmin", root.Use)
		assert.Contains(t, root.Version, version.GetVersion())
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error returns 0", nil, exitOK},
		{"generic error", errors.New("boom"), exitError},
		{"interrupted", fmt.Errorf("search: %w", context.Canceled), exitInterrupted},
		{"not an admin", fmt.Errorf("%w: a@example.com", backend.ErrNotAdmin), exitAccessDenied},
		{"declined", cli.ErrNotConfirmed, exitAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

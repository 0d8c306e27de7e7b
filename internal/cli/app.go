package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/cache"
	"github.com/veganchecker/vcadmin/internal/config"
	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/rpc"
)

// caller is an rpc.Caller that holds a connection.
type caller interface {
	rpc.Caller
	Close() error
}

// app bundles what backend-facing commands need for one invocation.
type app struct {
	cfg    *config.Config
	client *backend.Client
	closer []func() error
}

// openApp validates the configuration and connects the backend client.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	rc, err := openCaller(ctx, cfg.Backend)
	if err != nil {
		return nil, err
	}
	a.closer = append(a.closer, rc.Close)

	opts := []backend.Option{
		backend.WithLogger(logger),
		backend.WithAdminEmail(cfg.Backend.AdminEmail),
	}

	if cfg.Events.Enabled {
		pub, pubErr := events.NewNATSPublisher(cfg.Events.URL)
		if pubErr != nil {
			// Mutations still work without events; watchers simply miss them.
			logger.Warn().Ctx(ctx).
				Str("operation", "open_publisher").
				Err(pubErr).
				Msg("mutation events disabled")
		} else {
			a.closer = append(a.closer, pub.Close)
			opts = append(opts, backend.WithPublisher(pub, cfg.Events.SubjectPrefix))
		}
	}

	if cfg.Cache.Enabled {
		store, cacheErr := cache.NewFileStore(cfg.Cache.Directory, true)
		if cacheErr != nil {
			logger.Warn().Ctx(ctx).
				Str("operation", "open_cache").
				Err(cacheErr).
				Msg("stats cache disabled")
		} else {
			opts = append(opts, backend.WithStatsCache(store, cfg.Cache.StatsTTL))
		}
	}

	a.client, err = backend.NewClient(rc, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openCaller builds the transport selected by the backend driver.
func openCaller(ctx context.Context, bc config.BackendConfig) (caller, error) {
	switch bc.Driver {
	case config.DriverPostgres:
		return rpc.NewPostgresCaller(ctx, bc.DatabaseURL)
	case config.DriverHTTP, "":
		opts := []rpc.HTTPOption{rpc.WithTimeout(bc.Timeout)}
		if bc.AccessToken != "" {
			opts = append(opts, rpc.WithAccessToken(bc.AccessToken))
		}
		return rpc.NewHTTPCaller(bc.URL, bc.AnonKey, opts...)
	default:
		return nil, fmt.Errorf("unknown backend driver %q", bc.Driver)
	}
}

// Close releases every connection in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closer = nil
	return errors.Join(errs...)
}

// withApp opens the backend, runs fn and closes the backend again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("closing backend connections")
		}
	}()
	return fn(cmd.Context(), a)
}

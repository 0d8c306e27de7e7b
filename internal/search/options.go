package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type options struct {
	ctx        context.Context
	pageSize   int
	debounce   time.Duration
	normalizer Normalizer
	listAll    bool
	logger     *zerolog.Logger
	onChange   func()
}

// Option configures a Controller.
type Option func(*options)

func defaultOptions() options {
	return options{
		ctx:        context.Background(),
		pageSize:   DefaultPageSize,
		debounce:   DefaultDebounce,
		normalizer: DefaultNormalizer(),
	}
}

// WithContext sets the parent context of every fetch. Its logger (zerolog.Ctx) is used
// unless WithLogger is also given.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithPageSize fixes the screen's page size.
func WithPageSize(size int) Option {
	return func(o *options) {
		o.pageSize = size
	}
}

// WithDebounce overrides the quiet period applied to SetQuery.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithNormalizer overrides the wildcard configuration.
func WithNormalizer(n Normalizer) Option {
	return func(o *options) {
		o.normalizer = n
	}
}

// WithListAll makes an empty query a valid "match everything" search, for list
// screens such as the activity log.
func WithListAll() Option {
	return func(o *options) {
		o.listAll = true
	}
}

// WithLogger sets the controller's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithOnChange registers a callback invoked after every state change. It runs outside
// the controller lock, possibly from a fetch goroutine; read Snapshot from it.
func WithOnChange(fn func()) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

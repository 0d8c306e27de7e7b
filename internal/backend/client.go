package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/veganchecker/vcadmin/internal/cache"
	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/rpc"
)

// DefaultStatsTTL is how long dashboard statistics are reused.
const DefaultStatsTTL = 2 * time.Minute

// Client errors.
var (
	ErrNilCaller  = errors.New("rpc caller cannot be nil")
	ErrEmptyEmail = errors.New("email cannot be empty")
	ErrNotAdmin   = errors.New("account does not have admin access")
)

// Client runs admin procedures through an rpc.Caller.
type Client struct {
	caller     rpc.Caller
	publisher  events.Publisher
	prefix     string
	stats      *cache.FileStore
	statsTTL   time.Duration
	adminEmail string
	logger     zerolog.Logger
	now        func() time.Time

	adminMu       sync.Mutex
	adminVerified bool
}

// Option configures a Client.
type Option func(*Client)

// WithPublisher publishes mutation events with subject prefix.
func WithPublisher(p events.Publisher, prefix string) Option {
	return func(c *Client) {
		c.publisher = p
		c.prefix = prefix
	}
}

// WithStatsCache reuses dashboard statistics for ttl.
func WithStatsCache(store *cache.FileStore, ttl time.Duration) Option {
	return func(c *Client) {
		c.stats = store
		c.statsTTL = ttl
	}
}

// WithAdminEmail requires email to pass the admin access check before the first mutation.
func WithAdminEmail(email string) Option {
	return func(c *Client) {
		c.adminEmail = email
	}
}

// WithLogger sets the logger. By default the client logs nothing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a Client calling procedures through caller.
func NewClient(caller rpc.Caller, opts ...Option) (*Client, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}
	c := &Client{
		caller:    caller,
		publisher: events.NoopPublisher{},
		prefix:    events.DefaultPrefix,
		statsTTL:  DefaultStatsTTL,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "backend").Logger()
	return c, nil
}

func (c *Client) call(ctx context.Context, proc rpc.Procedure, params rpc.Params, out any) error {
	start := c.now()
	err := c.caller.Call(ctx, proc, params, out)
	ev := c.logger.Debug()
	if err != nil {
		ev = c.logger.Warn().Err(err)
	}
	ev.Ctx(ctx).
		Str("operation", "call").
		Str("procedure", proc.Name).
		Dur("duration", c.now().Sub(start)).
		Msg("procedure call finished")
	return err
}

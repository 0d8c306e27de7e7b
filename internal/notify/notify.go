// Package notify sends push notifications through the send-push-notification edge
// function.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veganchecker/vcadmin/internal/batch"
	"github.com/veganchecker/vcadmin/internal/logging"
)

const (
	functionPath       = "/functions/v1/send-push-notification"
	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 4
)

// Type classifies a notification for the mobile app.
type Type string

// Notification types accepted by the edge function.
const (
	TypeAdminMessage        Type = "admin_message"
	TypeSystemAlert         Type = "system_alert"
	TypeAccountUpdate       Type = "account_update"
	TypeFeatureAnnouncement Type = "feature_announcement"
	TypeSecurityAlert       Type = "security_alert"
	TypeMaintenance         Type = "maintenance"
	TypePromotional         Type = "promotional"
	TypeUserEngagement      Type = "user_engagement"
)

// Types returns every notification type.
func Types() []Type {
	return []Type{
		TypeAdminMessage,
		TypeSystemAlert,
		TypeAccountUpdate,
		TypeFeatureAnnouncement,
		TypeSecurityAlert,
		TypeMaintenance,
		TypePromotional,
		TypeUserEngagement,
	}
}

// ParseType validates a notification type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	if slices.Contains(Types(), t) {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Notification errors.
var (
	ErrNoBaseURL     = errors.New("notification base URL cannot be empty")
	ErrNoAPIKey      = errors.New("admin API key cannot be empty")
	ErrInvalidType   = errors.New("invalid notification type")
	ErrNoRecipients  = errors.New("at least one recipient is required")
	ErrInvalidUserID = errors.New("user id must be a UUID")
	ErrEmptyTitle    = errors.New("notification title cannot be empty")
	ErrEmptyBody     = errors.New("notification body cannot be empty")
)

// Message is the content of a notification.
type Message struct {
	Title string
	Body  string
	Type  Type
	Data  map[string]any
}

// Payload is the request body of the edge function. Exactly one of UserID and
// UserIDs is set.
type Payload struct {
	UserID  string         `json:"userId,omitempty"`
	UserIDs []string       `json:"userIds,omitempty"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Type    Type           `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
}

// Result is the edge function's response.
type Result struct {
	Message string            `json:"message"`
	Sent    int               `json:"sent"`
	Total   int               `json:"total"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// Error is a non-2xx response from the edge function.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("push notification failed: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client calls the push-notification edge function.
type Client struct {
	endpoint    string
	anonKey     string
	apiKey      string
	httpClient  *http.Client
	batchSize   int
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBatchSize sets how many recipients go into one broadcast request.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		c.batchSize = n
	}
}

// WithConcurrency sets how many broadcast requests run at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		c.concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL, anonKey, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		endpoint:    baseURL + functionPath,
		anonKey:     anonKey,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		batchSize:   batch.DefaultSize,
		concurrency: defaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.batchSize < batch.MinSize || c.batchSize > batch.MaxSize {
		return nil, fmt.Errorf("%w: got %d", batch.ErrInvalidSize, c.batchSize)
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	c.logger = c.logger.With().Str("component", "notify").Logger()
	return c, nil
}

// SendToUser notifies a single user.
func (c *Client) SendToUser(ctx context.Context, userID string, msg Message) (*Result, error) {
	return c.Send(ctx, Payload{
		UserID: userID,
		Title:  msg.Title,
		Body:   msg.Body,
		Type:   msg.Type,
		Data:   msg.Data,
	})
}

// Send validates p and posts it in one request.
func (c *Client) Send(ctx context.Context, p Payload) (*Result, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("X-API-Key", c.apiKey)
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Request-Id", traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling notification service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp.StatusCode, body)
	}

	var result Result
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding notification response: %w", err)
	}

	c.logger.Info().Ctx(ctx).
		Str("operation", "send").
		Str("type", string(p.Type)).
		Int("sent", result.Sent).
		Int("total", result.Total).
		Msg("notification sent")
	return &result, nil
}

// Broadcast sends msg to every user in userIDs, split into batches. Every batch is
// attempted; the returned Result sums the batches that succeeded and the error
// joins the ones that failed.
func (c *Client) Broadcast(ctx context.Context, userIDs []string, msg Message) (*Result, error) {
	recipients := dedupe(userIDs)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	for _, id := range recipients {
		if err := validateUserID(id); err != nil {
			return nil, err
		}
	}

	processor, err := batch.NewProcessor[string](c.batchSize)
	if err != nil {
		return nil, err
	}
	processor.WithProgress(func(p batch.Progress) {
		c.logger.Debug().Ctx(ctx).
			Str("operation", "broadcast").
			Int("batches_done", p.ProcessedBatches).
			Int("batches_total", p.TotalBatches).
			Msg("broadcast progress")
	})

	var (
		mu    sync.Mutex
		total = &Result{}
	)
	err = processor.ProcessConcurrent(ctx, recipients, c.concurrency, func(ctx context.Context, chunk []string, _ int) error {
		res, sendErr := c.Send(ctx, Payload{
			UserIDs: chunk,
			Title:   msg.Title,
			Body:    msg.Body,
			Type:    msg.Type,
			Data:    msg.Data,
		})
		if sendErr != nil {
			return sendErr
		}
		mu.Lock()
		total.Sent += res.Sent
		total.Total += res.Total
		total.Details = append(total.Details, res.Details...)
		mu.Unlock()
		return nil
	})
	total.Message = fmt.Sprintf("sent %d of %d notifications in %d batches",
		total.Sent, total.Total, processor.Chunks(len(recipients)))
	return total, err
}

func validatePayload(p Payload) error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(p.Body) == "" {
		return ErrEmptyBody
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return err
	}
	switch {
	case p.UserID != "" && len(p.UserIDs) > 0:
		return errors.New("set either a single recipient or a recipient list, not both")
	case p.UserID != "":
		return validateUserID(p.UserID)
	case len(p.UserIDs) > 0:
		for _, id := range p.UserIDs {
			if err := validateUserID(id); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrNoRecipients
	}
}

func validateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return &Error{StatusCode: status, Message: payload.Error}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{StatusCode: status, Message: msg}
}

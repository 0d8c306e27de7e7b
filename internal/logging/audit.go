package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEntry records one admin mutation.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	TraceID    string            `json:"trace_id,omitempty"`
	Command    string            `json:"command"`
	Entity     string            `json:"entity"`
	Key        string            `json:"key,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// NewAuditEntry starts an entry for command acting on entity/key.
func NewAuditEntry(command, entity, key string) *AuditEntry {
	return &AuditEntry{
		Timestamp: time.Now().UTC(),
		Command:   command,
		Entity:    entity,
		Key:       key,
	}
}

// WithParams attaches request parameters.
func (e *AuditEntry) WithParams(params map[string]string) *AuditEntry {
	e.Params = params
	return e
}

// Finish stamps the outcome and duration.
func (e *AuditEntry) Finish(err error) *AuditEntry {
	e.DurationMS = time.Since(e.Timestamp).Milliseconds()
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// AuditLogger appends AuditEntry records as JSON lines.
type AuditLogger interface {
	Log(ctx context.Context, entry *AuditEntry)
	Enabled() bool
	Close() error
}

// AuditLoggerConfig configures NewAuditLogger.
type AuditLoggerConfig struct {
	Enabled bool
	File    string
}

type fileAuditLogger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

type noopAuditLogger struct{}

func (noopAuditLogger) Log(context.Context, *AuditEntry) {}
func (noopAuditLogger) Enabled() bool                    { return false }
func (noopAuditLogger) Close() error                     { return nil }

// NewAuditLogger returns a file-backed audit logger, or a no-op logger when auditing is
// disabled or the file cannot be opened.
func NewAuditLogger(cfg AuditLoggerConfig) AuditLogger {
	if !cfg.Enabled || cfg.File == "" {
		return noopAuditLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return noopAuditLogger{}
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return noopAuditLogger{}
	}
	return &fileAuditLogger{file: f, enc: json.NewEncoder(f)}
}

func (l *fileAuditLogger) Log(ctx context.Context, entry *AuditEntry) {
	if entry == nil {
		return
	}
	if entry.TraceID == "" {
		entry.TraceID = TraceIDFromContext(ctx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	if err := l.enc.Encode(entry); err != nil {
		FromContext(ctx).Warn().Err(err).Str("component", "audit").Msg("failed to write audit entry")
	}
}

func (l *fileAuditLogger) Enabled() bool { return true }

func (l *fileAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

type auditLoggerKey struct{}

// ContextWithAuditLogger stores l in ctx.
func ContextWithAuditLogger(ctx context.Context, l AuditLogger) context.Context {
	return context.WithValue(ctx, auditLoggerKey{}, l)
}

// AuditLoggerFromContext returns the audit logger in ctx, or a no-op logger.
func AuditLoggerFromContext(ctx context.Context) AuditLogger {
	if ctx != nil {
		if l, ok := ctx.Value(auditLoggerKey{}).(AuditLogger); ok && l != nil {
			return l
		}
	}
	return noopAuditLogger{}
}

package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/veganchecker/vcadmin/internal/logging"
)

// PostgresCaller calls stored functions directly with named notation:
//
//	SELECT to_json("fn"("query" => $1, "limit_count" => $2))
//
// Set-returning functions are aggregated into a JSON array so both drivers decode
// the same shapes.
type PostgresCaller struct {
	db *sql.DB
}

// NewPostgresCaller opens a connection pool to databaseURL and pings it.
func NewPostgresCaller(ctx context.Context, databaseURL string) (*PostgresCaller, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresCallerFromDB(db), nil
}

// NewPostgresCallerFromDB wraps an existing pool.
func NewPostgresCallerFromDB(db *sql.DB) *PostgresCaller {
	return &PostgresCaller{db: db}
}

// Close closes the underlying connection pool.
func (c *PostgresCaller) Close() error {
	return c.db.Close()
}

// Call implements Caller.
func (c *PostgresCaller) Call(ctx context.Context, proc Procedure, params Params, out any) error {
	if err := validateProcedure(proc); err != nil {
		return err
	}

	query, args, err := buildCall(proc, params)
	if err != nil {
		return err
	}

	start := time.Now()
	var raw []byte
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&raw)

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "rpc").
		Str("operation", "call").
		Str("driver", "postgres").
		Str("procedure", proc.Name).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("procedure call")

	if err != nil {
		return wrapPQError(proc, err)
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", proc.Name, err)
	}
	return nil
}

// buildCall renders the SQL for proc with arguments bound in sorted-name order.
func buildCall(proc Procedure, params Params) (string, []any, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names))
	parts := make([]string, 0, len(names))
	for i, name := range names {
		v, err := sqlValue(params[name])
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		args = append(args, v)
		parts = append(parts, fmt.Sprintf("%s => $%d", pq.QuoteIdentifier(name), i+1))
	}

	call := fmt.Sprintf("%s(%s)", quoteQualified(proc.Name), strings.Join(parts, ", "))
	if proc.Set {
		return fmt.Sprintf("SELECT COALESCE(json_agg(t), '[]'::json) FROM %s AS t", call), args, nil
	}
	return fmt.Sprintf("SELECT to_json(%s)", call), args, nil
}

// quoteQualified quotes each part of a possibly schema-qualified name.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// sqlValue converts a parameter to a driver value. String slices become arrays;
// other composite values are sent as JSON text.
func sqlValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int, int32, int64, float32, float64, time.Time, []byte:
		return val, nil
	case *string:
		if val == nil {
			return nil, nil
		}
		return *val, nil
	case []string:
		return pq.Array(val), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func wrapPQError(proc Procedure, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &Error{
			Procedure: proc.Name,
			Code:      string(pqErr.Code),
			Message:   pqErr.Message,
			Details:   pqErr.Detail,
			Hint:      pqErr.Hint,
		}
	}
	return fmt.Errorf("calling %s: %w", proc.Name, err)
}

// Package rpc calls the backend's stored procedures, either through the hosted
// PostgREST endpoint or directly on PostgreSQL.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Procedure names a backend stored function.
type Procedure struct {
	Name string

	// Set marks a SETOF-returning function. Its result is always a JSON array.
	Set bool
}

// Scalar returns a procedure returning a single (possibly JSON) value.
func Scalar(name string) Procedure {
	return Procedure{Name: name}
}

// SetOf returns a set-returning procedure.
func SetOf(name string) Procedure {
	return Procedure{Name: name, Set: true}
}

func (p Procedure) String() string {
	return p.Name
}

// Params are the named arguments of a procedure call. Nil values are sent as SQL NULL.
type Params map[string]any

// Caller invokes a procedure and decodes its JSON result into out. A nil out discards
// the result.
type Caller interface {
	Call(ctx context.Context, proc Procedure, params Params, out any) error
}

// Sentinel errors.
var (
	ErrEmptyProcedure = errors.New("procedure name cannot be empty")
	ErrNoBaseURL      = errors.New("base URL cannot be empty")
)

// PostgreSQL error codes that map to well-known conditions.
const (
	codeUndefinedFunction = "42883"
	codeInsufficientPriv  = "42501"
	codePostgRESTNotFound = "PGRST202"
)

// Error is a failure reported by the backend.
type Error struct {
	Procedure  string `json:"-"`
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rpc %s", e.Procedure)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Details != "" {
		fmt.Fprintf(&b, " [%s]", e.Details)
	}
	return b.String()
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}

// IsNotFound reports whether err means the procedure does not exist.
func IsNotFound(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	return e.StatusCode == http.StatusNotFound || e.Code == codePostgRESTNotFound || e.Code == codeUndefinedFunction
}

// IsPermissionDenied reports whether err means the caller may not run the procedure.
func IsPermissionDenied(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden ||
		e.Code == codeInsufficientPriv
}

func validateProcedure(proc Procedure) error {
	if strings.TrimSpace(proc.Name) == "" {
		return ErrEmptyProcedure
	}
	return nil
}

package pagination

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Validation limits.
const (
	DefaultPage = 1
	MinPage     = 1
	MinPageSize = 1
	MaxPageSize = 1000
)

// Validation errors.
var (
	ErrInvalidPage     = errors.New("page must be >= 1")
	ErrInvalidPageSize = fmt.Errorf("page-size must be between %d and %d", MinPageSize, MaxPageSize)
)

// PaginationParams holds the --page and --page-size flags.
//
//nolint:revive // PaginationParams is the canonical name for this exported type.
type PaginationParams struct {
	// Page is the 1-based page number.
	Page int

	// PageSize is the number of rows per page. Zero means the screen's configured size.
	PageSize int
}

// NewPaginationParams creates a PaginationParams with default values.
func NewPaginationParams() *PaginationParams {
	return &PaginationParams{Page: DefaultPage}
}

// AddFlags registers --page and --page-size on cmd.
func (p *PaginationParams) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Page, "page", DefaultPage, "1-based page number")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "rows per page (default from config)")
}

// Validate checks the flag values.
func (p PaginationParams) Validate() error {
	if p.Page < MinPage {
		return fmt.Errorf("%w, got %d", ErrInvalidPage, p.Page)
	}
	if p.PageSize != 0 && (p.PageSize < MinPageSize || p.PageSize > MaxPageSize) {
		return fmt.Errorf("%w, got %d", ErrInvalidPageSize, p.PageSize)
	}
	return nil
}

// PageIndex returns the zero-based page index.
func (p PaginationParams) PageIndex() int {
	return max(p.Page-1, 0)
}

// EffectivePageSize returns PageSize, or fallback when it is unset.
func (p PaginationParams) EffectivePageSize(fallback int) int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return fallback
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Batch size limits.
const (
	DefaultSize = 100
	MinSize     = 1
	MaxSize     = 1000
)

// Common batch errors.
var (
	ErrInvalidSize        = errors.New("batch size must be between 1 and 1000")
	ErrInvalidConcurrency = errors.New("batch concurrency must be positive")
	ErrNilCallback        = errors.New("batch callback cannot be nil")
	ErrEmptyItems         = errors.New("items slice cannot be empty")
)

// Callback handles one chunk. index is the zero-based chunk number.
type Callback[T any] func(ctx context.Context, chunk []T, index int) error

// ProgressFunc receives a progress snapshot after each chunk completes.
type ProgressFunc func(Progress)

// Processor runs a Callback over fixed-size chunks of a slice.
type Processor[T any] struct {
	size       int
	onProgress ProgressFunc
}

// NewProcessor returns a processor producing chunks of size items.
func NewProcessor[T any](size int) (*Processor[T], error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return &Processor[T]{size: size}, nil
}

// WithProgress sets the progress callback and returns p.
func (p *Processor[T]) WithProgress(fn ProgressFunc) *Processor[T] {
	p.onProgress = fn
	return p
}

// Size returns the chunk size.
func (p *Processor[T]) Size() int {
	return p.size
}

// Chunks returns the number of chunks n items split into.
func (p *Processor[T]) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + p.size - 1) / p.size
}

// Process runs fn over each chunk in order and stops at the first failure.
func (p *Processor[T]) Process(ctx context.Context, items []T, fn Callback[T]) error {
	if err := p.check(items, fn); err != nil {
		return err
	}

	tracker := newTracker(len(items), p.Chunks(len(items)), p.onProgress)
	for i, chunk := range p.split(items) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch processing cancelled: %w", err)
		}
		if err := fn(ctx, chunk, i); err != nil {
			return fmt.Errorf("batch %d failed: %w", i, err)
		}
		tracker.done(len(chunk))
	}
	return nil
}

// ProcessConcurrent runs fn over every chunk with at most concurrency chunks in
// flight. All chunks are attempted; failures are joined in the returned error.
func (p *Processor[T]) ProcessConcurrent(ctx context.Context, items []T, concurrency int, fn Callback[T]) error {
	if err := p.check(items, fn); err != nil {
		return err
	}
	if concurrency <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}

	tracker := newTracker(len(items), p.Chunks(len(items)), p.onProgress)

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, chunk := range p.split(items) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("batch %d cancelled: %w", i, err))
				mu.Unlock()
				return nil
			}
			if err := fn(ctx, chunk, i); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("batch %d failed: %w", i, err))
				mu.Unlock()
				return nil
			}
			tracker.done(len(chunk))
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (p *Processor[T]) check(items []T, fn Callback[T]) error {
	if fn == nil {
		return ErrNilCallback
	}
	if len(items) == 0 {
		return ErrEmptyItems
	}
	return nil
}

func (p *Processor[T]) split(items []T) [][]T {
	chunks := make([][]T, 0, p.Chunks(len(items)))
	for start := 0; start < len(items); start += p.size {
		end := min(start+p.size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// Package db holds the document store: a full-snapshot persistence
// contract with file and MongoDB backends, and a single-writer in-memory
// Store that serializes read-modify-write cycles within the process.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Snapshot is a document that can produce an independent deep copy of itself.
type Snapshot[T any] interface {
	Clone() T
}

// Backend loads and saves whole snapshots. Load reports found=false when
// nothing has been persisted yet.
type Backend[T any] interface {
	Load(ctx context.Context) (doc T, found bool, err error)
	Save(ctx context.Context, doc T) error
}

// closer is implemented by backends holding connections.
type closer interface {
	Close(ctx context.Context) error
}

// Store keeps the current snapshot in memory and flushes it to the
// backend synchronously on every Update. Readers share a read lock;
// writers are serialized, so two concurrent updates can never clobber
// each other inside one process.
type Store[T Snapshot[T]] struct {
	mu      sync.RWMutex
	backend Backend[T]
	current T
	logger  *slog.Logger
}

// Open loads the persisted snapshot, or seeds and persists one when the
// backend has none. Open takes ownership of backend: if it fails, a
// backend holding a connection is closed before returning.
func Open[T Snapshot[T]](ctx context.Context, backend Backend[T], seed func() (T, error), logger *slog.Logger) (_ *Store[T], err error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if c, ok := backend.(closer); ok && err != nil {
			if cerr := c.Close(context.Background()); cerr != nil {
				logger.Warn("close backend after failed open", "error", cerr)
			}
		}
	}()

	doc, found, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	if !found {
		doc, err = seed()
		if err != nil {
			return nil, fmt.Errorf("seed document: %w", err)
		}
		if err := backend.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("persist seed document: %w", err)
		}
		logger.Info("document store seeded with defaults")
	}

	return &Store[T]{backend: backend, current: doc, logger: logger}, nil
}

// View runs fn against the current snapshot under a read lock. fn must
// not modify the snapshot or retain references to it after returning.
func (s *Store[T]) View(ctx context.Context, fn func(doc T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.current)
}

// Update runs fn against a private copy of the snapshot. When fn returns
// nil the copy is flushed to the backend and becomes current; when fn or
// the flush fails the in-memory state is left untouched and the error is
// returned unchanged (fn) or wrapped (flush).
func (s *Store[T]) Update(ctx context.Context, fn func(doc T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.backend.Save(ctx, next); err != nil {
		s.logger.Error("document flush failed", "error", err)
		return fmt.Errorf("flush document: %w", err)
	}
	s.current = next
	return nil
}

// Close releases backend resources, if any.
func (s *Store[T]) Close(ctx context.Context) error {
	if c, ok := s.backend.(closer); ok {
		return c.Close(ctx)
	}
	return nil
}

package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// ErrNotFound is returned by a Backend when nothing is stored under the
// metrics key yet.
var ErrNotFound = errors.New("metrics record not found")

// Backend is the raw key-value storage under the store. It deals in opaque
// bytes at one well-known key; the Store owns encoding and repair policy.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store is the metrics service object. It wraps a Backend with the funnel's
// durability policy:
//
//   - Read never fails. Missing or corrupt payloads yield the canonical zero
//     record, and storage is repaired as a side effect. Transient load
//     failures yield the zero record without touching storage.
//   - Write is best-effort. A lost write must not take the funnel down, so
//     failures are logged and swallowed.
//   - Reset atomically replaces the stored record with the zero record.
//
// The Store does not serialize callers; the event recorder owns the
// read-modify-write lock.
type Store struct {
	backend Backend
}

// NewStore creates a metrics store over the given backend.
func NewStore(backend Backend) *Store {
	if backend == nil {
		panic("metrics: backend must not be nil")
	}
	return &Store{backend: backend}
}

// Read returns the current record. On a missing or undecodable payload it
// falls back to the zero record and writes it back so the next read finds a
// healthy payload. A transient backend failure also yields the zero record,
// but without the write-back: the stored counters may still be healthy, and
// repairing over them would destroy them.
func (s *Store) Read(ctx context.Context) *Record {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return s.repair(ctx)
	}
	if err != nil {
		slog.Error("Metrics read failed, serving zero record without repair", "error", err)
		return Zero()
	}

	rec := Zero()
	if err := json.Unmarshal(data, rec); err != nil {
		slog.Warn("Stored metrics payload is corrupt, repairing", "error", err)
		return s.repair(ctx)
	}

	// Older revisions of the payload may omit newer fields.
	rec.normalize()
	return rec
}

// Write persists the record. Failure is logged, never propagated.
func (s *Store) Write(ctx context.Context, rec *Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("Metrics record encode failed, write dropped", "error", err)
		return
	}
	if err := s.backend.Save(ctx, data); err != nil {
		slog.Error("Metrics write failed, update lost", "error", err)
	}
}

// Reset replaces the stored record with the canonical zero record and returns
// the new record. The per-question map and visitor list are cleared with it.
func (s *Store) Reset(ctx context.Context) *Record {
	return s.repair(ctx)
}

func (s *Store) repair(ctx context.Context) *Record {
	rec := Zero()
	s.Write(ctx, rec)
	return rec
}

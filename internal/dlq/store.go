// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package dlq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/SamandarAlimov/alsamos-social-sub004/internal/config"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/logging"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/metrics"
	"github.com/SamandarAlimov/alsamos-social-sub004/internal/models"
)

var (
	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("dlq: store is closed")

	// ErrNotFound is returned when an entry ID does not exist.
	ErrNotFound = errors.New("dlq: entry not found")
)

// keyPrefix namespaces DLQ entries inside BadgerDB
const keyPrefix = "dlq:"

// Entry is a captured failed event with its failure context.
type Entry struct {
	ID         string               `json:"id"`
	Event      models.ActivityEvent `json:"event"`
	FailReason string               `json:"fail_reason"`
	CapturedAt time.Time            `json:"captured_at"`
}

// Stats contains DLQ counters for monitoring.
type Stats struct {
	PendingCount  int64 `json:"pending_count"`
	TotalCaptured int64 `json:"total_captured"`
	TotalReplayed int64 `json:"total_replayed"`
	TotalDeleted  int64 `json:"total_deleted"`
	DBSizeBytes   int64 `json:"db_size_bytes"`
}

// Inserter is the destination for replayed events. Satisfied by the
// database store.
type Inserter interface {
	InsertActivityEvent(ctx context.Context, event *models.ActivityEvent) error
}

// Store is a BadgerDB-backed dead letter queue. It satisfies the
// tracker's ErrorSink interface.
type Store struct {
	db  *badger.DB
	cfg config.DLQConfig

	totalCaptured atomic.Int64
	totalReplayed atomic.Int64
	totalDeleted  atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// Open creates or opens the dead letter queue at the configured path.
func Open(cfg config.DLQConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("dlq: path must not be empty")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = true
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{db: db, cfg: cfg}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("max_age", cfg.MaxAge).
		Msg("Dead letter queue opened")
	return s, nil
}

// CaptureFailedEvent stores a failed event with its failure reason.
// Implements the tracker's ErrorSink. Capture is best effort: a write
// failure here is logged and dropped, never propagated back into the
// tracking path.
func (s *Store) CaptureFailedEvent(event *models.ActivityEvent, insertErr error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	if event == nil {
		return
	}

	reason := "unknown"
	if insertErr != nil {
		reason = insertErr.Error()
	}

	entry := Entry{
		ID:         uuid.New().String(),
		Event:      *event,
		FailReason: reason,
		CapturedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal DLQ entry")
		return
	}

	key := []byte(keyPrefix + entry.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		if s.cfg.MaxAge > 0 {
			e = e.WithTTL(s.cfg.MaxAge)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		logging.Error().Err(err).
			Str("event_id", event.ID.String()).
			Msg("Failed to capture event in dead letter queue")
		return
	}

	s.totalCaptured.Add(1)
	metrics.RecordDLQEntry()
	logging.Warn().
		Str("entry_id", entry.ID).
		Str("event_id", event.ID.String()).
		Str("user_id", event.UserID).
		Str("reason", reason).
		Msg("Event captured in dead letter queue")
}

// List returns up to limit entries ordered by capture time, oldest first.
// A limit of 0 or less returns all entries.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	s.mu.RUnlock()

	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("unmarshal DLQ entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CapturedAt.Before(entries[j].CapturedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns a single entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	s.mu.RUnlock()

	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Replay re-inserts a captured event through the store and removes the
// entry on success. The insert path is idempotent, so replaying an
// entry whose original insert partially succeeded cannot duplicate it.
func (s *Store) Replay(ctx context.Context, id string, dest Inserter) error {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := dest.InsertActivityEvent(ctx, &entry.Event); err != nil {
		return fmt.Errorf("replay insert: %w", err)
	}

	if err := s.Delete(ctx, id); err != nil {
		return err
	}

	s.totalReplayed.Add(1)
	s.totalDeleted.Add(-1) // Delete() counted it; attribute to replay instead
	logging.Info().
		Str("entry_id", id).
		Str("event_id", entry.Event.ID.String()).
		Msg("Dead letter entry replayed")
	return nil
}

// Delete removes an entry by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	s.totalDeleted.Add(1)
	metrics.RecordDLQRemoval()
	return nil
}

// Stats returns current DLQ counters.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var pending int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			pending++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	metrics.DLQEntriesTotal.Set(float64(pending))

	lsm, vlog := s.db.Size()
	return Stats{
		PendingCount:  pending,
		TotalCaptured: s.totalCaptured.Load(),
		TotalReplayed: s.totalReplayed.Load(),
		TotalDeleted:  s.totalDeleted.Load(),
		DBSizeBytes:   lsm + vlog,
	}, nil
}

// String implements fmt.Stringer for supervisor logs.
func (s *Store) String() string { return "dead-letter-queue" }

// Serve runs periodic BadgerDB value log garbage collection until the
// context is cancelled, making the store a supervisable service.
func (s *Store) Serve(ctx context.Context) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Repeat until GC finds nothing to rewrite
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Close shuts down the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

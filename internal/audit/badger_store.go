// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package audit

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/logging"
)

// Key layout:
//
//	evt/<unix nanos, 8 bytes big-endian>/<id>    -> event JSON
//	id/<id>                                      -> event key
//	tgt/<target id>/<unix nanos>/<id>            -> event key
const (
	prefixEvent  = "evt/"
	prefixID     = "id/"
	prefixTarget = "tgt/"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// Retention sets a TTL on every record. Zero keeps records forever.
	Retention time.Duration

	// SyncWrites fsyncs every Save. Defaults to true via OpenBadgerStore.
	SyncWrites bool

	// InMemory runs BadgerDB without touching disk, for tests.
	InMemory bool
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
	inMemory  bool
}

// OpenBadgerStore opens (or creates) the audit database.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites || !cfg.InMemory

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open audit BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("retention", cfg.Retention).
		Msg("Audit store opened")
	return &BadgerStore{db: db, retention: cfg.Retention, inMemory: cfg.InMemory}, nil
}

func eventKey(event *Event) []byte {
	key := make([]byte, 0, len(prefixEvent)+9+len(event.ID))
	key = append(key, prefixEvent...)
	key = binary.BigEndian.AppendUint64(key, uint64(event.Timestamp.UnixNano()))
	key = append(key, '/')
	return append(key, event.ID...)
}

func targetKey(event *Event) []byte {
	key := make([]byte, 0, len(prefixTarget)+len(event.Target.ID)+10+len(event.ID))
	key = append(key, prefixTarget...)
	key = append(key, event.Target.ID...)
	key = append(key, '/')
	key = binary.BigEndian.AppendUint64(key, uint64(event.Timestamp.UnixNano()))
	key = append(key, '/')
	return append(key, event.ID...)
}

func targetPrefix(targetID string) []byte {
	return []byte(prefixTarget + targetID + "/")
}

func (s *BadgerStore) entry(key, value []byte) *badger.Entry {
	e := badger.NewEntry(key, value)
	if s.retention > 0 {
		e = e.WithTTL(s.retention)
	}
	return e
}

// Save persists an audit event.
func (s *BadgerStore) Save(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	evtKey := eventKey(event)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(evtKey, data)); err != nil {
			return err
		}
		if err := txn.SetEntry(s.entry([]byte(prefixID+event.ID), evtKey)); err != nil {
			return err
		}
		if event.Target != nil && event.Target.ID != "" {
			if err := txn.SetEntry(s.entry(targetKey(event), evtKey)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save audit event %s: %w", event.ID, err)
	}
	return nil
}

// Get retrieves an event by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Event, error) {
	var event *Event
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixID + id))
		if err != nil {
			return err
		}
		evtKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		event, err = readEvent(txn, evtKey)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get audit event %s: %w", id, err)
	}
	return event, nil
}

func readEvent(txn *badger.Txn, evtKey []byte) (*Event, error) {
	item, err := txn.Get(evtKey)
	if err != nil {
		return nil, err
	}
	var event Event
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &event)
	}); err != nil {
		return nil, err
	}
	return &event, nil
}

// scan visits matching events newest first until visit returns false.
func (s *BadgerStore) scan(ctx context.Context, filter QueryFilter, visit func(*Event) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixEvent)
		indexed := filter.TargetID != ""
		if indexed {
			prefix = targetPrefix(filter.TargetID)
		}

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		opts.PrefetchValues = !indexed
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(append([]byte{}, prefix...), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var (
				event *Event
				err   error
			)
			if indexed {
				var evtKey []byte
				if evtKey, err = item.ValueCopy(nil); err == nil {
					event, err = readEvent(txn, evtKey)
				}
			} else {
				var e Event
				err = item.Value(func(val []byte) error { return json.Unmarshal(val, &e) })
				event = &e
			}
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Failed to read audit event")
				continue
			}

			if !filter.Matches(event) {
				continue
			}
			if !visit(event) {
				return nil
			}
		}
		return nil
	})
}

// Query retrieves events matching the filter, newest first.
func (s *BadgerStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	results := []Event{}
	err := s.scan(ctx, filter, func(e *Event) bool {
		results = append(results, *e)
		return filter.Limit <= 0 || len(results) < filter.Limit
	})
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return results, nil
}

// Count returns the number of events matching the filter.
func (s *BadgerStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	filter.Limit = 0
	var n int64
	err := s.scan(ctx, filter, func(*Event) bool {
		n++
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}

// Delete removes events older than the cutoff together with their index
// entries, then runs value log GC.
func (s *BadgerStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	var doomed [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEvent)
		it := txn.NewIterator(opts)
		defer it.Close()

		cutoff := olderThan.UnixNano()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := item.Key()
			if len(key) < len(prefixEvent)+8 {
				continue
			}
			ts := int64(binary.BigEndian.Uint64(key[len(prefixEvent) : len(prefixEvent)+8]))
			if ts >= cutoff {
				break
			}

			var event Event
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &event) }); err != nil {
				logging.Warn().Err(err).Msg("Failed to decode expired audit event")
			}
			doomed = append(doomed, item.KeyCopy(nil))
			if event.ID != "" {
				doomed = append(doomed, []byte(prefixID+event.ID))
				if event.Target != nil && event.Target.ID != "" {
					doomed = append(doomed, targetKey(&event))
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired audit events: %w", err)
	}

	var deleted int64
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range doomed {
		if len(key) > len(prefixEvent) && string(key[:len(prefixEvent)]) == prefixEvent {
			deleted++
		}
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete audit event: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush audit deletions: %w", err)
	}

	if deleted > 0 && !s.inMemory {
		s.runGC()
	}
	return deleted, nil
}

func (s *BadgerStore) runGC() {
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				logging.Warn().Err(err).Msg("Audit value log GC failed")
			}
			return
		}
	}
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

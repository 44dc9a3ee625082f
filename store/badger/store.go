package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hasanerken/aiqueue"
)

// Store implements aiqueue.Archive using Badger KV
type Store struct {
	db   *badger.DB
	keys *KeyBuilder
}

// NewStore creates a Badger-backed archive at path. An empty path opens an
// in-memory database, which is what the tests use.
func NewStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil) // Disable badger logs
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{
		db:   db,
		keys: &KeyBuilder{},
	}, nil
}

// PutResult stores a completed task's result
func (s *Store) PutResult(ctx context.Context, result *aiqueue.Result) error {
	data, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.keys.Result(result.TaskID), data); err != nil {
			return err
		}
		return txn.Set(s.keys.ResultAt(result.CompletedAt, result.TaskID), []byte(result.TaskID))
	})
}

// PutFailure stores a terminal failure or cancellation record
func (s *Store) PutFailure(ctx context.Context, failure *aiqueue.FailureRecord) error {
	data, err := msgpack.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to marshal failure: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.keys.Failure(failure.TaskID), data); err != nil {
			return err
		}
		return txn.Set(s.keys.FailureAt(failure.FailedAt, failure.TaskID), []byte(failure.TaskID))
	})
}

// GetResult retrieves a stored result
func (s *Store) GetResult(ctx context.Context, taskID string) (*aiqueue.Result, error) {
	var result aiqueue.Result

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.keys.Result(taskID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &result)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, aiqueue.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetFailure retrieves a stored failure record
func (s *Store) GetFailure(ctx context.Context, taskID string) (*aiqueue.FailureRecord, error) {
	var failure aiqueue.FailureRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.keys.Failure(taskID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &failure)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, aiqueue.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return &failure, nil
}

// DeleteBefore prunes archived records older than the given time
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		n, err := s.deleteIndexed(txn, s.keys.ResultAtPrefix(), before, s.keys.Result)
		if err != nil {
			return err
		}
		removed += n

		n, err = s.deleteIndexed(txn, s.keys.FailureAtPrefix(), before, s.keys.Failure)
		if err != nil {
			return err
		}
		removed += n

		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// deleteIndexed walks a time index and deletes every entry (plus its data
// key) whose timestamp sorts before the cutoff
func (s *Store) deleteIndexed(txn *badger.Txn, prefix []byte, before time.Time, dataKey func(string) []byte) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	removed := 0
	var stale [][]byte

	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().KeyCopy(nil)
		ts, ok := s.keys.ParseTimestamp(key)
		if !ok {
			continue
		}
		// Keys sort by timestamp; the first survivor ends the scan.
		if !ts.Before(before) {
			break
		}
		stale = append(stale, key)
	}

	for _, key := range stale {
		taskID := s.keys.ParseTaskID(key)
		if err := txn.Delete(dataKey(taskID)); err != nil {
			return removed, err
		}
		if err := txn.Delete(key); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is usable
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return aiqueue.ErrStoreClosed
	}
	return nil
}

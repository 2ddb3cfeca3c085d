// Package store provides document store backends for medication records.
// The production backend is an embedded BadgerDB keyed by rxcui, which
// gives the ordered iteration the cursor-paginated query contract needs.
// An in-memory backend backs tests and dev mode.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
)

// Compile-time check to ensure BadgerStore implements DocumentStore
var _ interfaces.DocumentStore = (*BadgerStore)(nil)

// recordPrefix namespaces medication keys inside the key space.
var recordPrefix = []byte("med/")

// badgerCursor resumes iteration after the last key of a page. Opaque to
// callers; only this package inspects it.
type badgerCursor struct {
	lastKey []byte
}

// BadgerStore is a read-only document store over an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger adapts the application logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens the store at the given directory. An open failure is
// the session bootstrap failure of the error taxonomy: fatal, no retry.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}

	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// OpenBadgerInMemory opens a non-persistent store for tests and dev mode.
func OpenBadgerInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory document store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Count returns the total record count via key-only iteration.
func (s *BadgerStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = recordPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}

	return count, nil
}

// FetchPage returns up to limit records ordered by rxcui ascending,
// resuming after the given cursor.
func (s *BadgerStore) FetchPage(ctx context.Context, limit int, after interfaces.Cursor) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.Page{}, err
	}
	if limit <= 0 {
		return interfaces.Page{}, fmt.Errorf("invalid page limit: %d", limit)
	}

	var seekKey []byte
	if after != nil {
		bc, ok := after.(*badgerCursor)
		if !ok {
			return interfaces.Page{}, errors.New("cursor was not issued by this store")
		}
		// Seek strictly past the cursor key.
		seekKey = append(append([]byte{}, bc.lastKey...), 0)
	} else {
		seekKey = recordPrefix
	}

	page := interfaces.Page{Records: make([]entities.Medication, 0, limit)}
	var lastKey []byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seekKey); it.Valid() && len(page.Records) < limit; it.Next() {
			item := it.Item()
			var med entities.Medication
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &med)
			}); err != nil {
				return fmt.Errorf("decode record %s: %w", item.Key(), err)
			}
			med.Normalize()
			page.Records = append(page.Records, med)
			lastKey = item.KeyCopy(lastKey)
		}
		return nil
	})
	if err != nil {
		return interfaces.Page{}, fmt.Errorf("fetch page: %w", err)
	}

	page.HasMore = len(page.Records) == limit
	if len(page.Records) > 0 {
		page.Cursor = &badgerCursor{lastKey: append([]byte{}, lastKey...)}
	}

	return page, nil
}

// GetByRxcui performs an exact-match point lookup.
func (s *BadgerStore) GetByRxcui(ctx context.Context, rxcui string) (*entities.Medication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var med entities.Medication
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(rxcui))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &med)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", rxcui, err)
	}

	med.Normalize()
	return &med, nil
}

// Close releases the store session.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Seed loads records into the store. Only used at startup to materialize
// a dataset snapshot; the API itself exposes no write path.
func (s *BadgerStore) Seed(records []entities.Medication) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range records {
		records[i].Normalize()
		val, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("encode record %s: %w", records[i].Rxcui, err)
		}
		if err := wb.Set(recordKey(records[i].Rxcui), val); err != nil {
			return fmt.Errorf("seed record %s: %w", records[i].Rxcui, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush seed batch: %w", err)
	}

	logging.Info("Seeded document store", "record_count", len(records))
	return nil
}

// SeedFromFile loads a JSON snapshot (an array of records) into the store.
func (s *BadgerStore) SeedFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var records []entities.Medication
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	return s.Seed(records)
}

func recordKey(rxcui string) []byte {
	return append(append([]byte{}, recordPrefix...), rxcui...)
}

package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores memory blobs in an embedded BadgerDB under "memory:<namespace>"
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens the BadgerDB at config.BadgerPath
func NewBadgerBackend(config *Config) (*BadgerBackend, error) {
	path := expandPath(config.BadgerPath)

	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerBackend{db: db}, nil
}

// newInMemoryBadgerBackend opens a BadgerDB without a directory, for tests
func newInMemoryBadgerBackend() (*BadgerBackend, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// Blob returns the blob for namespace
func (b *BadgerBackend) Blob(namespace string) BlobStore {
	return &badgerBlob{db: b.db, key: []byte("memory:" + sanitizeNamespace(namespace))}
}

// Close closes the database
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

type badgerBlob struct {
	db  *badger.DB
	key []byte
}

func (s *badgerBlob) Load(ctx context.Context) ([]byte, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory blob: %w", err)
	}

	return data, nil
}

func (s *badgerBlob) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
}

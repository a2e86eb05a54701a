package cache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps blobs in a badger database under "<hash>/<name>" keys.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens or creates the database in dir. An empty dir opens
// an in-memory database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(hash, name string) []byte {
	return []byte(hash + "/" + name)
}

func (s *BadgerStore) Get(hash, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(hash, name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *BadgerStore) Put(hash, name string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(hash, name), data)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

package kv

import (
	"os"
	"strconv"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix = "kv"

	// maxConflictRetries bounds the retries of a transaction that lost a
	// race with a concurrent one.
	maxConflictRetries = 10
)

// BadgerStore implements the Store interface on top of a Badger database.
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger *logrus.Entry
}

// NewBadgerStore opens, or creates, the database in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = logger

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		db:     handle,
		path:   path,
		logger: logger,
	}

	return store, nil
}

// StorePath returns the directory of the database.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func dbKey(key string) []byte {
	return []byte(keyPrefix + "_" + key)
}

// Read implements the Store interface.
func (s *BadgerStore) Read(key string) (int, error) {
	var value int
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := dbGet(txn, key)
		value = v
		return err
	})
	return value, err
}

// Write implements the Store interface.
func (s *BadgerStore) Write(key string, value int) error {
	return s.update(func(txn *badger.Txn) error {
		return dbSet(txn, key, value)
	})
}

// CompareAndSwap implements the Store interface. The read and the write
// happen in the same transaction.
func (s *BadgerStore) CompareAndSwap(key string, from, to int, create bool) error {
	return s.update(func(txn *badger.Txn) error {
		current, err := dbGet(txn, key)
		switch {
		case IsStore(err, KeyNotFound):
			if !create {
				return err
			}
		case err != nil:
			return err
		case current != from:
			return casMismatch(key, from, current)
		}

		return dbSet(txn, key, to)
	})
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying when the commit
// conflicts with another transaction.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = s.db.Update(fn)
		if err != badger.ErrConflict {
			return err
		}
		s.logger.WithField("attempt", i+1).Debug("Transaction conflict, retrying")
	}
	return err
}

func dbGet(txn *badger.Txn, key string) (int, error) {
	item, err := txn.Get(dbKey(key))
	if err == badger.ErrKeyNotFound {
		return 0, NewStoreErr(KeyNotFound, key, "")
	}
	if err != nil {
		return 0, err
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(string(val))
}

func dbSet(txn *badger.Txn, key string, value int) error {
	return txn.Set(dbKey(key), []byte(strconv.Itoa(value)))
}

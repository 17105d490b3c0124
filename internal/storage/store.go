// Package storage implements spec.md §6's crash-recovery persistence: three
// logically-separate key-value tables (completed, unconfirmed, and reorg
// transactions) keyed by the transaction's excess signature. The in-memory
// pool state is authoritative; these tables exist only to let a restarted
// process rebuild that state rather than start from nothing.
//
// Grounded on the teacher's `infrastructure/db/dbaccess` (`DatabaseContext`
// wrapping a single KV backend) and `dbaccess/fee_data.go`'s bucket-keyed
// Get/Put shape, adapted from the teacher's own `ldb` wrapper directly to
// `github.com/syndtr/goleveldb` (the teacher's `ldb` subpackage itself
// wasn't present in the retrieved sample, but is documented there as a thin
// wrapper over the same library one level down).
package storage

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Table is a single signature-keyed LevelDB-backed KV table.
type Table struct {
	db *leveldb.DB
}

// OpenTable opens (creating if absent) a LevelDB table at path.
func OpenTable(path string) (*Table, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: opening table at %s", path)
	}
	return &Table{db: db}, nil
}

// Close closes the table's underlying database handle.
func (t *Table) Close() error {
	return t.db.Close()
}

// Put stores value under the transaction key's big-endian signature bytes.
func (t *Table) Put(key tx.TransactionKey, value []byte) error {
	b := key.Bytes()
	if err := t.db.Put(b[:], value, nil); err != nil {
		return errors.Wrapf(err, "storage: put %s", key)
	}
	return nil
}

// Get returns the value stored for key, and whether it was present.
func (t *Table) Get(key tx.TransactionKey) ([]byte, bool, error) {
	b := key.Bytes()
	value, err := t.db.Get(b[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "storage: get %s", key)
	}
	return value, true, nil
}

// Delete removes key. A no-op if key isn't present.
func (t *Table) Delete(key tx.TransactionKey) error {
	b := key.Bytes()
	if err := t.db.Delete(b[:], nil); err != nil {
		return errors.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}

// Keys returns every key currently stored in the table, in LevelDB's
// iteration (lexicographic big-endian) order.
func (t *Table) Keys() ([]tx.TransactionKey, error) {
	iter := t.db.NewIterator(nil, nil)
	defer iter.Release()

	var keys []tx.TransactionKey
	for iter.Next() {
		raw := iter.Key()
		var b [tx.SignatureSize]byte
		copy(b[:], raw)
		keys = append(keys, tx.SignatureFromBytes(b))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "storage: iterating table")
	}
	return keys, nil
}

// Store is spec.md §6's three-table crash-recovery persistence layer: one
// table each for completed, unconfirmed, and reorg-pool transactions.
type Store struct {
	Completed   *Table
	Unconfirmed *Table
	Reorg       *Table
}

// Open opens (creating if absent) the three tables under baseDir.
func Open(baseDir string) (*Store, error) {
	completed, err := OpenTable(filepath.Join(baseDir, "completed"))
	if err != nil {
		return nil, err
	}
	unconfirmed, err := OpenTable(filepath.Join(baseDir, "unconfirmed"))
	if err != nil {
		completed.Close()
		return nil, err
	}
	reorg, err := OpenTable(filepath.Join(baseDir, "reorg"))
	if err != nil {
		completed.Close()
		unconfirmed.Close()
		return nil, err
	}
	return &Store{Completed: completed, Unconfirmed: unconfirmed, Reorg: reorg}, nil
}

// Close closes all three tables, returning the first error encountered (if
// any) after attempting to close every table regardless.
func (s *Store) Close() error {
	var firstErr error
	for _, t := range []*Table{s.Completed, s.Unconfirmed, s.Reorg} {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

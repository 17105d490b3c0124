package broadcast

import (
	"sync"
	"time"

	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/internal/storage"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// MemoryStore is a process-local Store, guarding its map with a single
// mutex to satisfy spec.md §5's "the store itself must serialize writes"
// (CompletedTransaction state is shared between BroadcastProtocol and the
// output-manager collaborator). Grounded on the same single-mutex,
// map-of-pointers shape the teacher uses for its in-memory address cache
// (infrastructure/network/addressmanager.AddressManager).
//
// The in-memory map is authoritative; persistence (if wired via
// WithCompletedTable) is a write-through mirror into internal/storage's
// completed table for spec.md §6/A.4 crash recovery, keyed the same way the
// completed table's sibling tables are (tx.TransactionKey's excess
// signature).
type MemoryStore struct {
	mu  sync.Mutex
	txs map[tx.TransactionKey]*CompletedTransaction

	completed *storage.Table
}

// StoreOption configures an optional MemoryStore collaborator.
type StoreOption func(*MemoryStore)

// WithCompletedTable wires the completed persistence table: every Put,
// SetStatus, SetCancelled, and SetLastRejectionTime call writes the
// resulting state through to table as well as the in-memory map.
func WithCompletedTable(table *storage.Table) StoreOption {
	return func(s *MemoryStore) { s.completed = table }
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{txs: make(map[tx.TransactionKey]*CompletedTransaction)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts or replaces the CompletedTransaction for key. Callers wiring
// up a new BroadcastProtocol instance use this to seed the store before
// Execute starts.
func (s *MemoryStore) Put(key tx.TransactionKey, t *CompletedTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[key] = t
	persistPut(s.completed, key, t)
}

// Get returns a copy of the stored CompletedTransaction for key, or
// ErrNotFound if absent.
func (s *MemoryStore) Get(key tx.TransactionKey) (*CompletedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// SetStatus updates the stored transaction's status.
func (s *MemoryStore) SetStatus(key tx.TransactionKey, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[key]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	persistPut(s.completed, key, t)
	return nil
}

// SetCancelled marks the stored transaction Cancelled with reason.
func (s *MemoryStore) SetCancelled(key tx.TransactionKey, reason events.CancellationReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[key]
	if !ok {
		return ErrNotFound
	}
	t.Status = Cancelled
	t.CancellationReason = reason
	persistPut(s.completed, key, t)
	return nil
}

// SetLastRejectionTime records the timestamp of the transaction's most
// recent mempool rejection, consulted by the submission step's resend
// throttle (spec.md §4.4).
func (s *MemoryStore) SetLastRejectionTime(key tx.TransactionKey, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[key]
	if !ok {
		return ErrNotFound
	}
	t.LastRejectionTime = at
	persistPut(s.completed, key, t)
	return nil
}

// NoopOutputManager is an OutputManager that releases nothing. Wallet
// output reservation (which outputs a transaction has locked) is outside
// spec.md's five core components (§2's Non-goals scope out everything but
// validation/mempool/broadcast/template policy); deployments that manage
// real UTXO reservations supply their own OutputManager instead.
type NoopOutputManager struct{}

// ReleaseOutputs is a no-op.
func (NoopOutputManager) ReleaseOutputs(tx.TransactionKey) error { return nil }

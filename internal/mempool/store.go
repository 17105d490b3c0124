package mempool

import (
	"sync/atomic"

	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/internal/mempool/reorgpool"
	"github.com/tari-project/tari-sub013/internal/mempool/unconfirmedpool"
	"github.com/tari-project/tari-sub013/internal/storage"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Store is the MempoolStore orchestrator described in spec.md §4.3. It
// owns the two leaf pools and enforces the validation pipeline, the same
// way the teacher's TxPool (mempool/mempool.go) owns the main pool, depend
// pool, and orphan pool behind a single Config/Policy-driven surface.
type Store struct {
	unconfirmed *unconfirmedpool.Pool
	reorg       *reorgpool.Pool

	validator Validator
	consensus ConsensusManager
	config    Config
	publisher events.Publisher

	// persistence backs the two pools with spec.md §6/A.4's crash-recovery
	// tables. Nil is valid — a Store with no persistence configured simply
	// never touches disk, which is how most tests in this package run.
	persistence *storage.Store

	lastSeenHeight atomic.Uint64
}

// Option configures optional Store collaborators, mirroring the
// internal/broadcast Protocol's functional-option pattern.
type Option func(*Store)

// WithPersistence wires the crash-recovery persistence layer: every call
// that changes UnconfirmedPool's or ReorgPool's contents re-synchronizes
// the matching table afterward, so a restarted process can rebuild pool
// state from disk instead of starting empty.
func WithPersistence(p *storage.Store) Option {
	return func(s *Store) { s.persistence = p }
}

// NewStore constructs a MempoolStore over fresh, empty pools.
func NewStore(config Config, validator Validator, consensus ConsensusManager, publisher events.Publisher, opts ...Option) *Store {
	s := &Store{
		unconfirmed: unconfirmedpool.New(config.UnconfirmedPool.StorageCapacity),
		reorg:       reorgpool.New(config.ReorgPool.ExpiryHeight),
		validator:   validator,
		consensus:   consensus,
		config:      config,
		publisher:   publisher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// syncUnconfirmedPersistence rewrites the unconfirmed persistence table to
// match UnconfirmedPool's current contents. A no-op if no persistence layer
// is configured.
func (s *Store) syncUnconfirmedPersistence() {
	if s.persistence == nil {
		return
	}
	syncPersistedTable(s.persistence.Unconfirmed, s.unconfirmed.Snapshot())
}

// syncReorgPersistence rewrites the reorg persistence table to match
// ReorgPool's current contents. A no-op if no persistence layer is
// configured.
func (s *Store) syncReorgPersistence() {
	if s.persistence == nil {
		return
	}
	syncPersistedTable(s.persistence.Reorg, s.reorg.Snapshot())
}

// syncPersistedTable reconciles table against txs, keyed by each
// transaction's first kernel excess signature: entries in table that are
// no longer in txs are deleted, and every entry in txs is (re)written. The
// in-memory pool is authoritative (spec.md §6/A.4); table exists only so a
// restarted process can rebuild it, so a reconciliation pass after every
// pool-mutating call is simpler to reason about than tracking per-key
// diffs through each pool operation individually.
func syncPersistedTable(table *storage.Table, txs []*tx.Transaction) {
	want := make(map[tx.TransactionKey]*tx.Transaction, len(txs))
	for _, t := range txs {
		key, err := t.FirstKernelExcessSig()
		if err != nil {
			continue
		}
		want[key] = t
	}

	if existing, err := table.Keys(); err == nil {
		for _, key := range existing {
			if _, ok := want[key]; !ok {
				_ = table.Delete(key)
			}
		}
	}

	for key, t := range want {
		encoded, err := storage.EncodeTransaction(t)
		if err != nil {
			continue
		}
		_ = table.Put(key, encoded)
	}
}

// LastSeenHeight returns the height of the last chain event MempoolStore
// processed. It is initialized to 0 and updated monotonically except via
// reorg to an explicitly lower tip (spec.md §9).
func (s *Store) LastSeenHeight() uint64 {
	return s.lastSeenHeight.Load()
}

// Insert runs the validation pipeline described in spec.md §4.3 and routes
// the transaction to the unconfirmed pool or rejects it with the matching
// TxStorageResponse.
func (s *Store) Insert(t *tx.Transaction) (TxStorageResponse, error) {
	fee, err := t.Body.GetTotalFee()
	if err != nil {
		return NotStoredConsensus, nil
	}

	constants := s.consensus.ConsensusConstants(s.LastSeenHeight())
	minFee := s.config.UnconfirmedPool.MinFee
	if constants.MinFee > minFee {
		minFee = constants.MinFee
	}
	if fee < minFee {
		return NotStoredFeeTooLow, nil
	}

	validationErr := s.validator.Validate(t)
	if validationErr == nil {
		if err := s.unconfirmed.Insert(t, nil, constants.TransactionWeightParams); err != nil {
			return NotStored, err
		}
		s.syncUnconfirmedPersistence()
		return UnconfirmedPoolResponse, nil
	}

	valErr, ok := validationErr.(*ValidationError)
	if !ok {
		return NotStored, nil
	}

	switch valErr.Kind {
	case UnknownInputs:
		if !s.unconfirmed.ContainsAllOutputs(valErr.MissingInputs) {
			return NotStoredOrphan, nil
		}
		dependents := make(map[tx.Hash]struct{}, len(valErr.MissingInputs))
		for _, h := range valErr.MissingInputs {
			dependents[h] = struct{}{}
		}
		if err := s.unconfirmed.Insert(t, dependents, constants.TransactionWeightParams); err != nil {
			return NotStored, err
		}
		s.syncUnconfirmedPersistence()
		return UnconfirmedPoolResponse, nil
	case ContainsSTxO:
		return NotStoredAlreadySpent, nil
	case MaturityError:
		return NotStoredTimeLocked, nil
	case ConsensusError:
		return NotStoredConsensus, nil
	case DuplicateKernel:
		return NotStoredAlreadyMined, nil
	default:
		return NotStored, nil
	}
}

// ProcessPublishedBlock implements spec.md §4.3: it removes the block's
// transactions (and any pool transactions the block double-spent) from the
// unconfirmed pool, hands them to the reorg pool at the block's height,
// compacts both pools, and advances last_seen_height.
func (s *Store) ProcessPublishedBlock(block Block) error {
	removed := s.unconfirmed.RemovePublishedAndDiscardDeprecatedTransactions(unconfirmedpool.PublishedBlock{
		Height:           block.Height,
		KernelExcessSigs: block.KernelExcessSigs,
		SpentOutputs:     block.SpentOutputs,
	})

	txs := make([]*tx.Transaction, 0, len(removed))
	for _, r := range removed {
		txs = append(txs, r.Transaction)
	}
	if err := s.reorg.InsertAll(block.Height, txs); err != nil {
		return err
	}

	s.unconfirmed.Compact()
	s.reorg.Compact()
	s.syncUnconfirmedPersistence()
	s.syncReorgPersistence()
	s.lastSeenHeight.Store(block.Height)
	return nil
}

// ProcessReorg implements spec.md §4.3. Both sub-steps are total: a
// per-transaction reinsertion failure is logged by the caller (via the
// returned slice of failures) and does not abort the batch, per spec.md §7
// ("process_reorg... are total: they log and continue over per-transaction
// errors rather than aborting the batch").
func (s *Store) ProcessReorg(removedBlocks, newBlocks []Block) []error {
	var errs []error

	drained := s.unconfirmed.DrainAllMempoolTransactions()
	for _, t := range drained {
		if _, err := s.Insert(t); err != nil {
			errs = append(errs, err)
		}
	}

	restored := s.reorg.RemoveReorgedTxsAndDiscardDoubleSpends(
		toReorgPoolBlocks(removedBlocks), toReorgPoolBlocks(newBlocks))
	for _, t := range restored {
		if _, err := s.Insert(t); err != nil {
			errs = append(errs, err)
		}
	}

	switch {
	case len(newBlocks) > 0:
		s.lastSeenHeight.Store(newBlocks[len(newBlocks)-1].Height)
	case len(removedBlocks) > 0:
		s.lastSeenHeight.Store(removedBlocks[0].Height)
	}

	// Every reinsertion above already synced the unconfirmed table on
	// success; this final pass catches the failure case too (a transaction
	// drained or restored but not successfully reinserted must not linger
	// in either table).
	s.syncUnconfirmedPersistence()
	s.syncReorgPersistence()

	return errs
}

// ProcessSync implements spec.md §4.3: after a sync event the store cannot
// reason incrementally about, every known transaction (from both pools) is
// drained and revalidated from scratch.
func (s *Store) ProcessSync() []error {
	var errs []error

	drained := s.unconfirmed.DrainAllMempoolTransactions()
	for _, t := range drained {
		if _, err := s.Insert(t); err != nil {
			errs = append(errs, err)
		}
	}

	all := s.reorg.ClearAndRetrieveAll()
	for _, t := range all {
		if _, err := s.Insert(t); err != nil {
			errs = append(errs, err)
		}
	}

	s.syncUnconfirmedPersistence()
	s.syncReorgPersistence()

	return errs
}

// HasTransaction folds across a transaction's kernels per spec.md §4.3:
// UnconfirmedPool iff every kernel is in the unconfirmed pool, ReorgPool
// iff every kernel is in the reorg pool; anything else (mixed membership,
// or a kernel found in neither pool) means the transaction cannot be
// homogeneously classified and is reported as NotStoredAlreadySpent, the
// same response spec.md assigns to "partially mined."
func (s *Store) HasTransaction(t *tx.Transaction) (TxStorageResponse, error) {
	kernels := t.Kernels()
	if len(kernels) == 0 {
		return NotStored, ErrTransactionNoKernels
	}

	allUnconfirmed := true
	allReorg := true
	for _, k := range kernels {
		if !s.unconfirmed.HasTxWithExcessSig(k.ExcessSig) {
			allUnconfirmed = false
		}
		if !s.reorg.HasTxWithExcessSig(k.ExcessSig) {
			allReorg = false
		}
	}

	switch {
	case allUnconfirmed:
		return UnconfirmedPoolResponse, nil
	case allReorg:
		return ReorgPoolResponse, nil
	default:
		return NotStoredAlreadySpent, nil
	}
}

// Retrieve delegates to UnconfirmedPool.FetchHighestPriorityTxs, passing
// through the configured weight_tx_skip_count.
func (s *Store) Retrieve(weightBudget uint64) unconfirmedpool.RetrieveResults {
	return s.unconfirmed.FetchHighestPriorityTxs(weightBudget, s.config.UnconfirmedPool.WeightTxSkipCount)
}

// RemoveAndReinsertTransactions implements spec.md §4.3's
// remove_and_reinsert_transactions: it first removes every key, then
// re-inserts the corresponding transactions through the full validation
// pipeline.
//
// This is NOT atomic: per spec.md §9's open question, the source removes
// all entries before reinserting any, so a transaction whose reinsertion
// fails is permanently gone from the pool; the loop still goes on to
// reinsert the remaining transactions.
// This implementation reproduces that behavior faithfully rather than
// "fixing" it — see SPEC_FULL.md §E for the documented decision.
func (s *Store) RemoveAndReinsertTransactions(keys []tx.TransactionKey) []error {
	removedTxs := make([]*tx.Transaction, 0, len(keys))
	for _, key := range keys {
		t, err := s.unconfirmed.RemoveTransaction(key)
		if err != nil {
			continue
		}
		removedTxs = append(removedTxs, t)
	}

	var errs []error
	for _, t := range removedTxs {
		if _, err := s.Insert(t); err != nil {
			errs = append(errs, err)
		}
	}
	s.syncUnconfirmedPersistence()
	return errs
}

// ClearTransactionsForFailedBlock implements spec.md §4.3: the block was
// rejected by the chain, so its transactions are removed from the
// unconfirmed pool and re-inserted through validation (they may now be
// orphans). It runs the same discard sweep ProcessPublishedBlock does
// (RemovePublishedAndDiscardDeprecatedTransactions over the block's
// SpentOutputs), so any other pool transaction that double-spent against
// the failed block is purged too, rather than surviving as a stale
// double-spend.
func (s *Store) ClearTransactionsForFailedBlock(block Block) []error {
	removed := s.unconfirmed.RemovePublishedAndDiscardDeprecatedTransactions(unconfirmedpool.PublishedBlock{
		Height:           block.Height,
		KernelExcessSigs: block.KernelExcessSigs,
		SpentOutputs:     block.SpentOutputs,
	})

	var errs []error
	for _, r := range removed {
		if _, err := s.Insert(r.Transaction); err != nil {
			errs = append(errs, err)
		}
	}
	s.syncUnconfirmedPersistence()
	return errs
}

func toReorgPoolBlocks(blocks []Block) []reorgpool.Block {
	out := make([]reorgpool.Block, len(blocks))
	for i, b := range blocks {
		out[i] = reorgpool.Block{
			Height:           b.Height,
			KernelExcessSigs: b.KernelExcessSigs,
			SpentOutputs:     b.SpentOutputs,
		}
	}
	return out
}

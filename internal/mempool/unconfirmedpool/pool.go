// Package unconfirmedpool implements spec.md §4.1: the priority-ordered set
// of validation-passing transactions not yet mined. It is a leaf component —
// it trusts its caller (MempoolStore) to have already run validation, and
// enforces only key-uniqueness and the invariants stated in spec.md §3.
package unconfirmedpool

import (
	"sync"
	"time"

	"github.com/tari-project/tari-sub013/internal/mempool/feeest"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// WeightingParams is the consensus-derived weighting function a transaction
// is priced against at insertion time (spec.md §6 ConsensusManager's
// transaction_weight_params()).
type WeightingParams interface {
	// Weight returns the integer weight of the transaction.
	Weight(t *tx.Transaction) (uint64, error)
}

// PrioritizedTransaction is a pool entry: a transaction paired with the
// priority/weight/timestamp/dependent-output metadata spec.md §3 defines.
type PrioritizedTransaction struct {
	Transaction *tx.Transaction

	// Priority is the fee-per-gram integer weight used for ordering.
	Priority uint64

	// Weight is the transaction's consensus weight at insertion time.
	Weight uint64

	// InsertedAt is used as the tie-break when two entries share Priority.
	InsertedAt time.Time

	// DependentOutputs are hashes of outputs this transaction consumes
	// that are themselves produced by other unconfirmed transactions,
	// rather than the confirmed UTXO set.
	DependentOutputs map[tx.Hash]struct{}

	// key caches the transaction's pool identity, computed once at
	// insertion time.
	key tx.TransactionKey
}

// Key returns the transaction's pool identity.
func (p *PrioritizedTransaction) Key() tx.TransactionKey {
	return p.key
}

// RetrieveResults is the result of a fetch_highest_priority_txs call:
// the selected transactions, in descending priority order, and the
// remaining weight budget after their inclusion.
type RetrieveResults struct {
	SelectedTransactions []*tx.Transaction
	RemainingWeight      uint64
}

// Pool is the UnconfirmedPool described in spec.md §4.1.
type Pool struct {
	mu sync.RWMutex

	byKey map[tx.TransactionKey]*entry

	// byOutput indexes the key of the pool transaction producing a given
	// output hash, used by ContainsAllOutputs and fetch_highest_priority_txs
	// to resolve dependent-output chains by key through this index rather
	// than through back-pointers between entries.
	byOutput map[tx.Hash]tx.TransactionKey

	queue *priorityQueue
}

// New constructs an empty UnconfirmedPool with the given initial capacity
// hint (spec.md §6 unconfirmed_pool.storage_capacity).
func New(capacityHint int) *Pool {
	return &Pool{
		byKey:    make(map[tx.TransactionKey]*entry, capacityHint),
		byOutput: make(map[tx.Hash]tx.TransactionKey, capacityHint),
		queue:    newPriorityQueue(capacityHint),
	}
}

// Insert adds a transaction to the pool. It computes the transaction's
// weight and fee-per-gram priority and inserts it into both indices.
// Rejects with DuplicateKey if the key is already present.
func (p *Pool) Insert(transaction *tx.Transaction, dependentOutputs map[tx.Hash]struct{}, params WeightingParams) error {
	key, err := transaction.FirstKernelExcessSig()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byKey[key]; exists {
		return newDuplicateKeyError(key)
	}

	weight, err := params.Weight(transaction)
	if err != nil {
		return err
	}
	fee, err := transaction.Body.GetTotalFee()
	if err != nil {
		return err
	}

	priority := uint64(0)
	if weight > 0 {
		priority = fee / weight
	}

	prioritized := &PrioritizedTransaction{
		Transaction:      transaction,
		Priority:         priority,
		Weight:           weight,
		InsertedAt:       time.Now(),
		DependentOutputs: dependentOutputs,
		key:              key,
	}

	e := &entry{tx: prioritized}
	p.byKey[key] = e
	p.queue.push(e)
	for _, h := range transaction.OutputHashes() {
		p.byOutput[h] = key
	}

	return nil
}

// RemoveTransaction removes and returns the transaction for key. Fails with
// KeyNotFound if absent.
func (p *Pool) RemoveTransaction(key tx.TransactionKey) (*tx.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(key)
}

// this function MUST be called with the pool mutex locked for writes
func (p *Pool) removeLocked(key tx.TransactionKey) (*tx.Transaction, error) {
	e, exists := p.byKey[key]
	if !exists {
		return nil, newKeyNotFoundError(key)
	}
	delete(p.byKey, key)
	p.queue.remove(e)
	for _, h := range e.tx.Transaction.OutputHashes() {
		if owner, ok := p.byOutput[h]; ok && owner.Equal(key) {
			delete(p.byOutput, h)
		}
	}
	return e.tx.Transaction, nil
}

// HasTxWithExcessSig reports whether a transaction with the given excess
// signature is present.
func (p *Pool) HasTxWithExcessSig(sig tx.Signature) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.byKey[sig]
	return exists
}

// ContainsAllOutputs reports whether every hash in hashes is produced by a
// transaction currently in the pool — used to decide if an orphaned
// transaction can be admitted as a dependent.
func (p *Pool) ContainsAllOutputs(hashes []tx.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, h := range hashes {
		if _, ok := p.byOutput[h]; !ok {
			return false
		}
	}
	return true
}

// FetchHighestPriorityTxs performs the greedy knapsack retrieval described
// in spec.md §4.1: transactions are considered in descending priority
// order and included while the cumulative weight stays within weightBudget
// and every dependent output is either already confirmed (assumed by the
// caller for outputs this pool doesn't know about) or produced by a
// transaction already selected in this retrieval.
//
// skipLimit bounds how many too-heavy-to-fit candidates the scan tolerates
// before giving up early (spec.md §6 unconfirmed_pool.weight_tx_skip_count):
// once skipLimit candidates in total have been passed over for exceeding the
// remaining budget, the scan stops rather than continuing to the end of the
// pool looking for a smaller one that still fits. This bounds retrieval cost
// on a large pool at the expense of occasionally leaving a fitting
// low-priority transaction unselected. skipLimit <= 0 means unlimited (scan
// the whole pool).
func (p *Pool) FetchHighestPriorityTxs(weightBudget uint64, skipLimit int) RetrieveResults {
	p.mu.RLock()
	ordered := p.queue.orderedSnapshot()
	p.mu.RUnlock()

	selected := make([]*tx.Transaction, 0, len(ordered))
	selectedKeys := make(map[tx.TransactionKey]struct{}, len(ordered))
	var used uint64
	var skipped int

	for _, candidate := range ordered {
		if used+candidate.Weight > weightBudget {
			skipped++
			if skipLimit > 0 && skipped >= skipLimit {
				break
			}
			continue
		}
		if !p.dependenciesSatisfied(candidate, selectedKeys) {
			continue
		}
		selected = append(selected, candidate.Transaction)
		selectedKeys[candidate.Key()] = struct{}{}
		used += candidate.Weight
	}

	return RetrieveResults{
		SelectedTransactions: selected,
		RemainingWeight:      weightBudget - used,
	}
}

func (p *Pool) dependenciesSatisfied(candidate *PrioritizedTransaction, selectedKeys map[tx.TransactionKey]struct{}) bool {
	if len(candidate.DependentOutputs) == 0 {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for h := range candidate.DependentOutputs {
		owner, ok := p.byOutput[h]
		if !ok {
			// The producing transaction is no longer in the pool; the
			// caller's confirmed UTXO set is assumed to cover it.
			continue
		}
		if _, inSelection := selectedKeys[owner]; !inSelection {
			return false
		}
	}
	return true
}

// RemovePublishedAndDiscardDeprecatedTransactions removes, for each kernel
// signature in block, the matching pool entry, plus any pool transactions
// whose inputs collide with block's inputs (double-spends). The returned
// entries are handed by the caller to the ReorgPool.
func (p *Pool) RemovePublishedAndDiscardDeprecatedTransactions(block PublishedBlock) []RemovedTransaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := make([]RemovedTransaction, 0, len(block.KernelExcessSigs))
	publishedInputs := make(map[tx.Hash]struct{}, len(block.SpentOutputs))
	for _, h := range block.SpentOutputs {
		publishedInputs[h] = struct{}{}
	}

	for _, sig := range block.KernelExcessSigs {
		transaction, err := p.removeLocked(sig)
		if err != nil {
			continue
		}
		removed = append(removed, RemovedTransaction{Key: sig, Transaction: transaction})
	}

	// Double-spend sweep: any remaining pool transaction that consumes an
	// output the block already spent is now invalid and must be dropped —
	// it will never be minable again.
	for key, e := range p.byKey {
		for _, in := range e.tx.Transaction.InputHashes() {
			if _, spent := publishedInputs[in]; spent {
				transaction, err := p.removeLocked(key)
				if err == nil {
					removed = append(removed, RemovedTransaction{Key: key, Transaction: transaction})
				}
				break
			}
		}
	}

	return removed
}

// RemovedTransaction pairs a removed transaction with its pool key.
type RemovedTransaction struct {
	Key         tx.TransactionKey
	Transaction *tx.Transaction
}

// PublishedBlock is the minimal view of a mined block the pool needs: the
// kernel excess signatures it contains, and the output hashes its inputs
// spent.
type PublishedBlock struct {
	Height           uint64
	KernelExcessSigs []tx.TransactionKey
	SpentOutputs     []tx.Hash
}

// DrainAllMempoolTransactions empties the pool and returns its contents, for
// a full revalidation pass.
func (p *Pool) DrainAllMempoolTransactions() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]*tx.Transaction, 0, len(p.byKey))
	for _, e := range p.byKey {
		result = append(result, e.tx.Transaction)
	}
	p.byKey = make(map[tx.TransactionKey]*entry)
	p.byOutput = make(map[tx.Hash]tx.TransactionKey)
	p.queue = newPriorityQueue(0)
	return result
}

// RetrieveByExcessSigs performs a bulk lookup, returning the transactions
// found and the signatures that were not present.
func (p *Pool) RetrieveByExcessSigs(sigs []tx.Signature) (found []*tx.Transaction, remaining []tx.Signature) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, sig := range sigs {
		if e, ok := p.byKey[sig]; ok {
			found = append(found, e.tx.Transaction)
		} else {
			remaining = append(remaining, sig)
		}
	}
	return found, remaining
}

// CalculateWeight returns the sum of all current entries' weights. The
// params argument is accepted for symmetry with Insert's signature (spec.md
// §4.1) but is unused since weight is cached at insertion time.
func (p *Pool) CalculateWeight(_ WeightingParams) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var total uint64
	for _, e := range p.byKey {
		total += e.tx.Weight
	}
	return total, nil
}

// GetFeePerGramStats computes histogram buckets of fee-per-gram across the
// pool's current entries, restricted to the highest-priority transactions
// whose cumulative weight fits within targetWeight, for mining-fee
// estimation (spec.md §4.1).
func (p *Pool) GetFeePerGramStats(count int, targetWeight uint64) []feeest.Stat {
	p.mu.RLock()
	ordered := p.queue.orderedSnapshot()
	p.mu.RUnlock()

	priorities := make([]uint64, 0, len(ordered))
	var used uint64
	for _, e := range ordered {
		if used+e.Weight > targetWeight {
			break
		}
		priorities = append(priorities, e.Priority)
		used += e.Weight
	}

	return feeest.Compute(priorities, count)
}

// Len returns the number of transactions currently in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byKey)
}

// Snapshot returns every transaction currently in the pool, in no
// particular order.
func (p *Pool) Snapshot() []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]*tx.Transaction, 0, len(p.byKey))
	for _, e := range p.byKey {
		result = append(result, e.tx.Transaction)
	}
	return result
}

// Compact releases over-allocated capacity in the internal indices. Go maps
// cannot be shrunk in place, so compact rebuilds them at their current size.
func (p *Pool) Compact() {
	p.mu.Lock()
	defer p.mu.Unlock()

	byKey := make(map[tx.TransactionKey]*entry, len(p.byKey))
	for k, v := range p.byKey {
		byKey[k] = v
	}
	p.byKey = byKey

	byOutput := make(map[tx.Hash]tx.TransactionKey, len(p.byOutput))
	for k, v := range p.byOutput {
		byOutput[k] = v
	}
	p.byOutput = byOutput
}

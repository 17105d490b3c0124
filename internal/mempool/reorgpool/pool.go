// Package reorgpool implements spec.md §4.2: a height-indexed buffer of
// recently-mined transactions, retained long enough that a chain reorg can
// restore them to the unconfirmed pool without requiring re-propagation.
package reorgpool

import (
	"sync"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Block is the minimal view of a mined block the reorg pool needs when
// reasoning about reorgs: the kernel excess signatures it contains and the
// output hashes its inputs spent. It is analogous to
// unconfirmedpool.PublishedBlock but kept as a separate type since the two
// pools are independent leaf components (spec.md §2); MempoolStore
// translates between chain events and each pool's view.
type Block struct {
	Height           uint64
	KernelExcessSigs []tx.TransactionKey
	SpentOutputs     []tx.Hash
}

type record struct {
	transaction *tx.Transaction
	height      uint64
}

// Pool is the ReorgPool described in spec.md §4.2.
type Pool struct {
	mu sync.RWMutex

	byKey           map[tx.TransactionKey]*record
	retentionWindow uint64
	tip             uint64
}

// New constructs an empty ReorgPool. retentionWindow is the number of
// blocks behind the tip after which a recorded transaction is discarded
// (spec.md §4.2, config field reorg_pool.expiry_height).
func New(retentionWindow uint64) *Pool {
	return &Pool{
		byKey:           make(map[tx.TransactionKey]*record),
		retentionWindow: retentionWindow,
	}
}

// InsertAll records each transaction at the given block height. Transactions
// whose recorded height is more than retentionWindow blocks behind the new
// tip are discarded, per spec.md §4.2's retention policy, which runs on
// every InsertAll call.
func (p *Pool) InsertAll(blockHeight uint64, txs []*tx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, transaction := range txs {
		key, err := transaction.FirstKernelExcessSig()
		if err != nil {
			return err
		}
		if _, exists := p.byKey[key]; exists {
			return newDuplicateKeyError(key)
		}
		p.byKey[key] = &record{transaction: transaction, height: blockHeight}
	}

	if blockHeight > p.tip {
		p.tip = blockHeight
	}
	p.evictBeyondRetentionLocked()
	return nil
}

// this function MUST be called with the pool mutex locked for writes
func (p *Pool) evictBeyondRetentionLocked() {
	if p.tip < p.retentionWindow {
		return
	}
	cutoff := p.tip - p.retentionWindow
	for key, r := range p.byKey {
		if r.height < cutoff {
			delete(p.byKey, key)
		}
	}
}

// RemoveReorgedTxsAndDiscardDoubleSpends implements spec.md §4.2: for every
// transaction previously recorded at a height present in removedBlocks and
// NOT superseded by a transaction in newBlocks (same inputs, different
// kernel), remove and return it. Transactions superseded by a new-block
// transaction spending the same inputs are discarded without being
// returned.
func (p *Pool) RemoveReorgedTxsAndDiscardDoubleSpends(removedBlocks, newBlocks []Block) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	removedHeights := make(map[uint64]struct{}, len(removedBlocks))
	for _, b := range removedBlocks {
		removedHeights[b.Height] = struct{}{}
	}

	supersededOutputs := make(map[tx.Hash]struct{})
	for _, b := range newBlocks {
		for _, h := range b.SpentOutputs {
			supersededOutputs[h] = struct{}{}
		}
	}

	var restored []*tx.Transaction
	for key, r := range p.byKey {
		if _, wasRemoved := removedHeights[r.height]; !wasRemoved {
			continue
		}

		superseded := false
		for _, in := range r.transaction.InputHashes() {
			if _, ok := supersededOutputs[in]; ok {
				superseded = true
				break
			}
		}

		delete(p.byKey, key)
		if !superseded {
			restored = append(restored, r.transaction)
		}
	}

	return restored
}

// RetrieveByExcessSigs performs a bulk lookup, returning the transactions
// found and the signatures that were not present.
func (p *Pool) RetrieveByExcessSigs(sigs []tx.Signature) (found []*tx.Transaction, remaining []tx.Signature) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, sig := range sigs {
		if r, ok := p.byKey[sig]; ok {
			found = append(found, r.transaction)
		} else {
			remaining = append(remaining, sig)
		}
	}
	return found, remaining
}

// HasTxWithExcessSig reports whether a transaction with the given excess
// signature is recorded.
func (p *Pool) HasTxWithExcessSig(sig tx.Signature) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.byKey[sig]
	return exists
}

// ClearAndRetrieveAll empties the pool and returns all contents. Used on
// sync completion, per spec.md §4.2.
func (p *Pool) ClearAndRetrieveAll() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]*tx.Transaction, 0, len(p.byKey))
	for _, r := range p.byKey {
		result = append(result, r.transaction)
	}
	p.byKey = make(map[tx.TransactionKey]*record)
	return result
}

// Snapshot returns every transaction currently recorded, in no particular
// order.
func (p *Pool) Snapshot() []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]*tx.Transaction, 0, len(p.byKey))
	for _, r := range p.byKey {
		result = append(result, r.transaction)
	}
	return result
}

// Compact rebuilds the internal index at its current size, releasing
// over-allocated capacity (Go maps cannot be shrunk in place).
func (p *Pool) Compact() {
	p.mu.Lock()
	defer p.mu.Unlock()
	byKey := make(map[tx.TransactionKey]*record, len(p.byKey))
	for k, v := range p.byKey {
		byKey[k] = v
	}
	p.byKey = byKey
}

// Len returns the number of transactions currently recorded.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byKey)
}

// Package template implements spec.md §4.5: TemplateRepository, a
// time-bounded, dual-keyed cache of in-flight merge-mining block
// templates. The per-map reader-writer lock split (spec.md §5,
// "TemplateRepository uses per-map reader-writer locks permitting
// concurrent reads") is grounded on the teacher's
// `infrastructure/db/dbaccess` separation of independently-lockable
// stores, generalized here from a single LevelDB handle to two in-memory
// maps so the new-template and final-template paths never contend with
// each other.
package template

import (
	"sync"
	"time"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

// DefaultTTL is spec.md §6's TemplateRepository default retention window.
const DefaultTTL = 20 * time.Minute

// Template is BlockTemplate from spec.md §3: a per-height working block,
// opaque to the core except for the predecessor hash used for keying.
type Template struct {
	PredecessorHash  tx.Hash
	DifficultyTarget uint64
}

// TemplateWithCoinbase pairs a Template with the coinbase outputs a miner
// has attached to it.
type TemplateWithCoinbase struct {
	Template        Template
	CoinbaseOutputs []tx.TransactionOutput
}

// FinalTemplate is a block template finalized for merge-mining submission,
// keyed separately (by merge-mining hash) from the new-template cache.
type FinalTemplate struct {
	PredecessorHash tx.Hash
	Template        TemplateWithCoinbase
}

type newTemplateItem struct {
	template     Template
	withCoinbase TemplateWithCoinbase
	insertedAt   time.Time
}

type finalTemplateItem struct {
	final      FinalTemplate
	insertedAt time.Time
}

// Repository is TemplateRepository (spec.md §4.5).
type Repository struct {
	ttl time.Duration

	// now is the injectable clock tests advance past the TTL window
	// without a real sleep (spec.md §8 scenario S6: "Advance clock by 21
	// minutes").
	now func() time.Time

	newMu    sync.RWMutex
	newItems map[tx.Hash]newTemplateItem

	finalMu    sync.RWMutex
	finalItems map[tx.Hash]finalTemplateItem
}

// New constructs an empty TemplateRepository with the given TTL.
func New(ttl time.Duration) *Repository {
	return &Repository{
		ttl:        ttl,
		now:        time.Now,
		newItems:   make(map[tx.Hash]newTemplateItem),
		finalItems: make(map[tx.Hash]finalTemplateItem),
	}
}

// SaveNewTemplateIfKeyUnique inserts a new template keyed by the best
// block's hash, recording the current timestamp. A no-op if the key is
// already present; reports whether the insert happened.
func (r *Repository) SaveNewTemplateIfKeyUnique(bestBlockHash tx.Hash, template Template, withCoinbase TemplateWithCoinbase) bool {
	r.newMu.Lock()
	defer r.newMu.Unlock()

	if _, exists := r.newItems[bestBlockHash]; exists {
		return false
	}
	r.newItems[bestBlockHash] = newTemplateItem{
		template:     template,
		withCoinbase: withCoinbase,
		insertedAt:   r.now(),
	}
	return true
}

// SaveFinalTemplateIfKeyUnique inserts a final template keyed by its
// merge-mining hash. Analogous to SaveNewTemplateIfKeyUnique.
func (r *Repository) SaveFinalTemplateIfKeyUnique(mergeMiningHash tx.Hash, final FinalTemplate) bool {
	r.finalMu.Lock()
	defer r.finalMu.Unlock()

	if _, exists := r.finalItems[mergeMiningHash]; exists {
		return false
	}
	r.finalItems[mergeMiningHash] = finalTemplateItem{final: final, insertedAt: r.now()}
	return true
}

// GetNewTemplate returns the template stored for bestBlockHash, if any.
func (r *Repository) GetNewTemplate(bestBlockHash tx.Hash) (Template, TemplateWithCoinbase, bool) {
	r.newMu.RLock()
	defer r.newMu.RUnlock()

	item, ok := r.newItems[bestBlockHash]
	if !ok {
		return Template{}, TemplateWithCoinbase{}, false
	}
	return item.template, item.withCoinbase, true
}

// GetFinalTemplate returns the final template stored for mergeMiningHash,
// if any.
func (r *Repository) GetFinalTemplate(mergeMiningHash tx.Hash) (FinalTemplate, bool) {
	r.finalMu.RLock()
	defer r.finalMu.RUnlock()

	item, ok := r.finalItems[mergeMiningHash]
	if !ok {
		return FinalTemplate{}, false
	}
	return item.final, true
}

// BlocksContains performs a linear scan of the final-template cache for an
// entry whose predecessor hash equals currentBestBlockHash (spec.md §4.5).
func (r *Repository) BlocksContains(currentBestBlockHash tx.Hash) (FinalTemplate, bool) {
	r.finalMu.RLock()
	defer r.finalMu.RUnlock()

	for _, item := range r.finalItems {
		if item.final.PredecessorHash.Equal(currentBestBlockHash) {
			return item.final, true
		}
	}
	return FinalTemplate{}, false
}

// RemoveNewTemplate removes and returns the new template for key, if
// present.
func (r *Repository) RemoveNewTemplate(key tx.Hash) (Template, TemplateWithCoinbase, bool) {
	r.newMu.Lock()
	defer r.newMu.Unlock()

	item, ok := r.newItems[key]
	if !ok {
		return Template{}, TemplateWithCoinbase{}, false
	}
	delete(r.newItems, key)
	return item.template, item.withCoinbase, true
}

// RemoveFinalTemplate removes and returns the final template for key, if
// present.
func (r *Repository) RemoveFinalTemplate(key tx.Hash) (FinalTemplate, bool) {
	r.finalMu.Lock()
	defer r.finalMu.Unlock()

	item, ok := r.finalItems[key]
	if !ok {
		return FinalTemplate{}, false
	}
	delete(r.finalItems, key)
	return item.final, true
}

// RemoveOutdated drops every entry, in both maps, older than the
// repository's TTL. Age is measured inclusive of the TTL boundary itself —
// a template exactly TTL old is evicted (spec.md §3's closed-upper-bound
// edge case).
func (r *Repository) RemoveOutdated() {
	cutoff := r.now().Add(-r.ttl)

	r.newMu.Lock()
	for key, item := range r.newItems {
		if !item.insertedAt.After(cutoff) {
			delete(r.newItems, key)
		}
	}
	r.newMu.Unlock()

	r.finalMu.Lock()
	for key, item := range r.finalItems {
		if !item.insertedAt.After(cutoff) {
			delete(r.finalItems, key)
		}
	}
	r.finalMu.Unlock()
}

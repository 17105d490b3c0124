package unconfirmedpool

import (
	"container/heap"
)

// priorityQueueLessFunc mirrors the teacher's txPriorityQueueLessFunc
// (mining/mining.go): a pluggable compare function so the same queue shape
// can be reused for different orderings.
type priorityQueueLessFunc func(pq *priorityQueue, i, j int) bool

// priorityQueue is a container/heap-backed priority queue of pool entries,
// generalized from the teacher's txPriorityQueue (mining/mining.go) to
// order by fee-per-gram with an insertion-timestamp tie-break, per
// spec.md §4.1 ("When two transactions have identical fee-per-gram, earlier
// insertion timestamp wins").
type priorityQueue struct {
	lessFunc priorityQueueLessFunc
	items    []*entry
}

// Len is part of heap.Interface.
func (pq *priorityQueue) Len() int { return len(pq.items) }

// Less is part of heap.Interface; it defers to the configured compare func.
func (pq *priorityQueue) Less(i, j int) bool { return pq.lessFunc(pq, i, j) }

// Swap is part of heap.Interface.
func (pq *priorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].queueIndex = i
	pq.items[j].queueIndex = j
}

// Push is part of heap.Interface.
func (pq *priorityQueue) Push(x interface{}) {
	e := x.(*entry)
	e.queueIndex = len(pq.items)
	pq.items = append(pq.items, e)
}

// Pop is part of heap.Interface.
func (pq *priorityQueue) Pop() interface{} {
	n := len(pq.items)
	item := pq.items[n-1]
	pq.items[n-1] = nil
	pq.items = pq.items[0 : n-1]
	item.queueIndex = -1
	return item
}

// byFeePerGramThenAge sorts by descending priority (fee-per-gram), breaking
// ties by ascending insertion timestamp — the earlier transaction wins.
func byFeePerGramThenAge(pq *priorityQueue, i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.tx.Priority != b.tx.Priority {
		return a.tx.Priority > b.tx.Priority
	}
	return a.tx.InsertedAt.Before(b.tx.InsertedAt)
}

func newPriorityQueue(reserve int) *priorityQueue {
	pq := &priorityQueue{items: make([]*entry, 0, reserve)}
	pq.lessFunc = byFeePerGramThenAge
	heap.Init(pq)
	return pq
}

func (pq *priorityQueue) push(e *entry) {
	heap.Push(pq, e)
}

func (pq *priorityQueue) remove(e *entry) {
	if e.queueIndex < 0 || e.queueIndex >= len(pq.items) {
		return
	}
	heap.Remove(pq, e.queueIndex)
}

// orderedSnapshot returns every entry's *PrioritizedTransaction in
// descending priority order, without mutating the queue. Used by
// fetch_highest_priority_txs and get_fee_per_gram_stats.
func (pq *priorityQueue) orderedSnapshot() []*PrioritizedTransaction {
	items := make([]*entry, len(pq.items))
	copy(items, pq.items)
	clone := &priorityQueue{lessFunc: pq.lessFunc, items: items}
	heap.Init(clone)

	result := make([]*PrioritizedTransaction, 0, len(items))
	for clone.Len() > 0 {
		e := heap.Pop(clone).(*entry)
		result = append(result, e.tx)
	}
	return result
}

// entry wraps a PrioritizedTransaction with the bookkeeping needed to
// support heap.Remove in O(log n).
type entry struct {
	tx         *PrioritizedTransaction
	queueIndex int
}

// Package feeest computes fee-per-gram histograms over the unconfirmed
// pool for mining-fee estimation RPCs. spec.md §4.1 names
// get_fee_per_gram_stats but leaves the bucketing scheme unspecified;
// original_source/base_layer/mempool computes weighted buckets over the
// pool's current priority distribution, which this package reproduces.
package feeest

import "sort"

// Stat is one histogram bucket: the fee-per-gram range it covers and the
// number of candidate transactions it represents.
type Stat struct {
	MinFeePerGram uint64
	MaxFeePerGram uint64
	Count         uint64
}

// Source is anything that can report the fee-per-gram priority of its
// current entries. Nothing in this module implements it:
// unconfirmedpool.Pool.GetFeePerGramStats passes its priorities to Compute
// directly.
type Source interface {
	Priorities() []uint64
}

// Compute sorts priorities in descending order and splits them into
// min(count, len(priorities)) buckets of equal size, the last bucket also
// taking any remainder. Weights are not tracked here: any weight cutoff is
// applied by the caller (unconfirmedpool.Pool.GetFeePerGramStats keeps only
// the highest-priority entries that fit its targetWeight) — this function
// buckets whatever priorities it is given.
func Compute(priorities []uint64, count int) []Stat {
	if count <= 0 || len(priorities) == 0 {
		return nil
	}

	sorted := make([]uint64, len(priorities))
	copy(sorted, priorities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	if count > len(sorted) {
		count = len(sorted)
	}

	bucketSize := len(sorted) / count
	if bucketSize == 0 {
		bucketSize = 1
	}

	stats := make([]Stat, 0, count)
	for i := 0; i < len(sorted); i += bucketSize {
		end := i + bucketSize
		if end > len(sorted) || len(stats) == count-1 {
			end = len(sorted)
		}
		bucket := sorted[i:end]
		stats = append(stats, Stat{
			MinFeePerGram: bucket[len(bucket)-1],
			MaxFeePerGram: bucket[0],
			Count:         uint64(len(bucket)),
		})
		if len(stats) == count {
			break
		}
	}
	return stats
}

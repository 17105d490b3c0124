// Package mempool implements spec.md §4.3: MempoolStore, the orchestrator
// that enforces the validation pipeline and routes transactions between
// UnconfirmedPool and ReorgPool on chain events.
package mempool

// Config is MempoolConfig from spec.md §6. All fields are optional with
// defaults, matching the teacher's own Config/Policy split in
// mempool/mempool.go.
type Config struct {
	UnconfirmedPool UnconfirmedPoolConfig
	ReorgPool       ReorgPoolConfig
}

// UnconfirmedPoolConfig is spec.md §6's unconfirmed_pool config block.
type UnconfirmedPoolConfig struct {
	StorageCapacity   int
	WeightTxSkipCount int
	MinFee            uint64
}

// ReorgPoolConfig is spec.md §6's reorg_pool config block.
type ReorgPoolConfig struct {
	StorageCapacity int
	ExpiryHeight    uint64
}

// DefaultConfig returns the default MempoolConfig, mirroring the teacher's
// own default Policy construction in mempool/mempool.go's package-level
// defaults.
func DefaultConfig() Config {
	return Config{
		UnconfirmedPool: UnconfirmedPoolConfig{
			StorageCapacity:   10000,
			WeightTxSkipCount: 3,
			MinFee:            0,
		},
		ReorgPool: ReorgPoolConfig{
			StorageCapacity: 10000,
			ExpiryHeight:    720, // roughly a few hours' worth of blocks
		},
	}
}

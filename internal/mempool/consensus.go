package mempool

import (
	"github.com/tari-project/tari-sub013/internal/mempool/unconfirmedpool"
)

// ConsensusConstants is the subset of consensus_constants(height) spec.md
// §6 requires of MempoolStore: the minimum relay fee and the transaction
// weight function in effect at a given height.
type ConsensusConstants struct {
	MinFee                          uint64
	TransactionWeightParams         unconfirmedpool.WeightingParams
	MaxBlockWeightExcludingCoinbase uint64
}

// ConsensusManager is the external collaborator providing height-dependent
// consensus parameters (spec.md §6).
type ConsensusManager interface {
	ConsensusConstants(height uint64) ConsensusConstants
}

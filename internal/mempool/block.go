package mempool

import "github.com/tari-project/tari-sub013/pkg/tx"

// Block is the minimal view of a mined block MempoolStore needs to route
// transactions between the unconfirmed pool and the reorg pool. It is
// translated into each pool's own Block/PublishedBlock view internally —
// the two leaf pools stay independent of each other and of any wider block
// representation, per spec.md §2.
type Block struct {
	Height           uint64
	KernelExcessSigs []tx.TransactionKey
	SpentOutputs     []tx.Hash
}

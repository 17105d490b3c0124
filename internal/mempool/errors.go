package mempool

import "errors"

// ErrTransactionNoKernels is returned by HasTransaction for a transaction
// carrying zero kernels (spec.md §4.3).
var ErrTransactionNoKernels = errors.New("mempool: transaction has no kernels")

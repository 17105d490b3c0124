package tx

import "github.com/pkg/errors"

// ErrNoKernels is returned by FirstKernelExcessSig and by fee computation
// when a transaction carries zero kernels — a malformed aggregate that
// cannot be identified or feed the consensus pipeline.
var ErrNoKernels = errors.New("tx: transaction has no kernels")

// TransactionOutput is a single output of a transaction body: a commitment
// to a value plus the output's content hash, which other transactions may
// reference as a dependent output.
type TransactionOutput struct {
	Commitment Commitment
	Hash       Hash
	Features   OutputFeatures
}

// OutputFeatures distinguishes coinbase outputs (subject to maturity rules)
// from ordinary outputs.
type OutputFeatures struct {
	IsCoinbase   bool
	MaturityHeight uint64
}

// TransactionInput references an output being spent, by its hash.
type TransactionInput struct {
	OutputHash Hash
}

// TransactionBody carries a transaction's inputs, outputs, and kernels.
type TransactionBody struct {
	Ins     []TransactionInput
	Outs    []TransactionOutput
	Kernels []Kernel
}

// Inputs returns the body's inputs.
func (b *TransactionBody) Inputs() []TransactionInput { return b.Ins }

// Outputs returns the body's outputs.
func (b *TransactionBody) Outputs() []TransactionOutput { return b.Outs }

// GetTotalFee sums the fee fields of every kernel in the body. It fails if
// the body carries no kernels, mirroring spec.md's "fee computation may
// fail" contract (a kernel-less body cannot be priced).
func (b *TransactionBody) GetTotalFee() (uint64, error) {
	if len(b.Kernels) == 0 {
		return 0, ErrNoKernels
	}
	var total uint64
	for _, k := range b.Kernels {
		total += k.Fee
	}
	return total, nil
}

// Transaction is the immutable, opaque aggregate the mempool and broadcast
// protocol operate on. Identity and fee are derived from its kernels; the
// core never inspects commitments or signatures beyond byte equality.
type Transaction struct {
	Body TransactionBody
}

// NewTransaction constructs a Transaction from a body.
func NewTransaction(body TransactionBody) *Transaction {
	return &Transaction{Body: body}
}

// Kernels returns all kernels carried by the transaction.
func (t *Transaction) Kernels() []Kernel {
	return t.Body.Kernels
}

// FirstKernelExcessSig returns the excess signature of the transaction's
// first kernel — its TransactionKey.
func (t *Transaction) FirstKernelExcessSig() (TransactionKey, error) {
	if len(t.Body.Kernels) == 0 {
		var zero TransactionKey
		return zero, ErrNoKernels
	}
	return t.Body.Kernels[0].ExcessSig, nil
}

// OutputHashes returns the hashes of every output this transaction
// produces, in order.
func (t *Transaction) OutputHashes() []Hash {
	hashes := make([]Hash, len(t.Body.Outs))
	for i, o := range t.Body.Outs {
		hashes[i] = o.Hash
	}
	return hashes
}

// InputHashes returns the output hashes this transaction consumes, in
// order. Duplicates are preserved (a malformed transaction spending the
// same output twice is a validator concern, not this accessor's).
func (t *Transaction) InputHashes() []Hash {
	hashes := make([]Hash, len(t.Body.Ins))
	for i, in := range t.Body.Ins {
		hashes[i] = in.OutputHash
	}
	return hashes
}

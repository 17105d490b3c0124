package tx

// Kernel is the cryptographic commitment component of a transaction. Every
// transaction carries at least one kernel; the excess signature of the
// first kernel is the transaction's canonical identity (TransactionKey).
type Kernel struct {
	// ExcessSig is the Schnorr signature over the kernel's excess
	// commitment offset.
	ExcessSig Signature

	// Excess is the Pedersen commitment this kernel's signature is over.
	Excess Commitment

	// Fee is this kernel's contribution to the transaction's total fee,
	// denominated in the smallest unit.
	Fee uint64

	// LockHeight is the minimum chain height at which this kernel may be
	// mined; zero means no time lock.
	LockHeight uint64
}

// TransactionKey is the excess signature of a transaction's first kernel —
// the identity used for pool membership throughout the mempool. At most one
// transaction with a given key may exist across UnconfirmedPool and
// ReorgPool simultaneously.
type TransactionKey = Signature

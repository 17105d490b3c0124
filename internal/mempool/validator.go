package mempool

import (
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// ValidationErrorKind enumerates the validation error taxonomy from
// spec.md §6/§7. Validation is a capability the pool consumes; it is
// modeled as an interface abstraction per spec.md §9 ("Dynamic validator
// dispatch... model as an interface abstraction"), the same way the
// teacher treats mining.TxSource and blockdag.UTXOSet as externally
// supplied collaborators.
type ValidationErrorKind int

const (
	// UnknownInputs means the transaction spends outputs the validator
	// could not find in the confirmed UTXO set; it carries the hashes of
	// the missing outputs so the caller can check for orphan admission.
	UnknownInputs ValidationErrorKind = iota
	// ContainsSTxO means the transaction spends an output that is already
	// spent.
	ContainsSTxO
	// MaturityError means a coinbase or time-locked input has not yet
	// matured.
	MaturityError
	// ConsensusError is a catch-all for rule violations (bad weight,
	// malformed body, ...).
	ConsensusError
	// DuplicateKernel means a transaction with this kernel's excess
	// signature has already been mined.
	DuplicateKernel
	// Other is any validation failure outside the enumerated taxonomy.
	Other
)

// ValidationError is the error type returned by Validator.Validate.
type ValidationError struct {
	Kind          ValidationErrorKind
	MissingInputs []tx.Hash
	msg           string
}

func (e *ValidationError) Error() string { return e.msg }

// NewUnknownInputsError constructs an UnknownInputs validation error
// carrying the hashes of the outputs the validator could not resolve.
func NewUnknownInputsError(missing []tx.Hash) *ValidationError {
	return &ValidationError{Kind: UnknownInputs, MissingInputs: missing, msg: "mempool: unknown inputs"}
}

// NewValidationError constructs a validation error of the given kind with
// a message, for the kinds that carry no additional payload.
func NewValidationError(kind ValidationErrorKind, msg string) *ValidationError {
	return &ValidationError{Kind: kind, msg: msg}
}

// Validator is the external collaborator that runs consensus validation
// over a candidate transaction (spec.md §6).
type Validator interface {
	Validate(t *tx.Transaction) error
}

package unconfirmedpool

import "fmt"

// Error is a structural error returned by the pool. Per spec.md §7, these
// indicate a programming bug in the orchestrator (MempoolStore) rather than
// a validation outcome — validation is the caller's responsibility, and the
// pool only enforces key-uniqueness and reports violated invariants.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind enumerates the pool's structural error conditions.
type Kind int

const (
	// DuplicateKey is returned by Insert when a transaction with the same
	// key is already present in the pool.
	DuplicateKey Kind = iota
	// KeyNotFound is returned by RemoveTransaction when the requested key
	// is absent.
	KeyNotFound
)

func newDuplicateKeyError(key fmt.Stringer) *Error {
	return &Error{Kind: DuplicateKey, msg: fmt.Sprintf("unconfirmedpool: duplicate key %s", key)}
}

func newKeyNotFoundError(key fmt.Stringer) *Error {
	return &Error{Kind: KeyNotFound, msg: fmt.Sprintf("unconfirmedpool: key not found %s", key)}
}

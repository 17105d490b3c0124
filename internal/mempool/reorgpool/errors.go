package reorgpool

import "fmt"

// Error is a structural error returned by the pool, analogous to
// unconfirmedpool.Error (spec.md §7: pool structural errors indicate a
// programming bug in the orchestrator).
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind enumerates the pool's structural error conditions.
type Kind int

const (
	// DuplicateKey is returned by InsertAll when a transaction with the
	// same key is already recorded.
	DuplicateKey Kind = iota
)

func newDuplicateKeyError(key fmt.Stringer) *Error {
	return &Error{Kind: DuplicateKey, msg: fmt.Sprintf("reorgpool: duplicate key %s", key)}
}

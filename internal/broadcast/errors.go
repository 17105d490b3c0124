package broadcast

import "errors"

// ErrShutdown is returned by Execute when a shutdown signal fires; no
// state is mutated past the point of the signal (spec.md §4.4).
var ErrShutdown = errors.New("broadcast: shutdown")

// ErrRejected is returned by Execute when the protocol terminates because
// the transaction was cancelled.
var ErrRejected = errors.New("broadcast: transaction rejected")

// ErrNotFound is returned by a Store implementation when no
// CompletedTransaction is stored for the requested key.
var ErrNotFound = errors.New("broadcast: transaction not found")

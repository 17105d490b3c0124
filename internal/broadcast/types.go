// Package broadcast implements spec.md §4.4: BroadcastProtocol, the
// per-transaction state machine that drives a transaction from Completed
// through Broadcast to Mined/Confirmed (or to a terminal Cancelled state)
// against a remote full-node's RPC surface. The state-machine-as-a-task
// shape is grounded on the teacher's per-peer connection handler in
// netadapter/server/grpcserver (one goroutine per remote collaborator,
// driven by an explicit select over completion/timeout/shutdown events).
package broadcast

import (
	"context"
	"time"

	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Status is a CompletedTransaction's lifecycle state (spec.md §3).
type Status int

const (
	Pending Status = iota
	Completed
	Broadcast
	MinedUnconfirmed
	MinedConfirmed
	Cancelled
	CoinbaseStatus
	Imported
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Completed:
		return "Completed"
	case Broadcast:
		return "Broadcast"
	case MinedUnconfirmed:
		return "MinedUnconfirmed"
	case MinedConfirmed:
		return "MinedConfirmed"
	case Cancelled:
		return "Cancelled"
	case CoinbaseStatus:
		return "Coinbase"
	case Imported:
		return "Imported"
	default:
		return "Unknown"
	}
}

// CompletedTransaction is the client-side view of a transaction: the
// transaction itself plus its current status, cancellation reason (if
// any), and the timestamp of its last mempool rejection.
type CompletedTransaction struct {
	Transaction        *tx.Transaction
	Status             Status
	CancellationReason events.CancellationReason
	LastRejectionTime  time.Time
}

// Store is the collaborator BroadcastProtocol reads and writes
// CompletedTransaction state through. Per spec.md §5, the store itself must
// serialize writes since it is shared between BroadcastProtocol and the
// output-manager collaborator.
type Store interface {
	Get(key tx.TransactionKey) (*CompletedTransaction, error)
	SetStatus(key tx.TransactionKey, status Status) error
	SetCancelled(key tx.TransactionKey, reason events.CancellationReason) error
	SetLastRejectionTime(key tx.TransactionKey, at time.Time) error
}

// OutputManager releases a transaction's reserved outputs on cancellation
// (spec.md §4.4's cancellation step).
type OutputManager interface {
	ReleaseOutputs(key tx.TransactionKey) error
}

// RejectionReason is the remote full-node's classification of why a
// submitted transaction was not accepted (spec.md §6).
type RejectionReason int

const (
	RejectionNone RejectionReason = iota
	RejectionValidationFailed
	RejectionDoubleSpend
	RejectionOrphan
	RejectionTimeLocked
	RejectionAlreadyMined
	RejectionUnknown
)

// SubmissionResponse is BaseNodeWalletRpc.submit_transaction's result.
type SubmissionResponse struct {
	Accepted        bool
	RejectionReason RejectionReason
	IsSynced        bool
}

// Location is where the remote full-node currently places a queried
// transaction.
type Location int

const (
	NotStored Location = iota
	InMempool
	Mined
)

// QueryResponse is BaseNodeWalletRpc.transaction_query's result.
type QueryResponse struct {
	Location      Location
	Confirmations uint64
	IsSynced      bool
	BlockHash     *tx.Hash
}

// Client is the subset of BaseNodeWalletRpc (spec.md §6) BroadcastProtocol
// drives directly.
type Client interface {
	SubmitTransaction(ctx context.Context, t *tx.Transaction) (SubmissionResponse, error)
	TransactionQuery(ctx context.Context, sig tx.Signature) (QueryResponse, error)
}

// ClientProvider resolves the RPC client to use for the current base node.
// Modeled as a collaborator rather than a fixed client so a base-node
// change can be observed without BroadcastProtocol knowing about peer
// selection, mirroring the teacher's connection-manager indirection in
// rpcclient's client construction.
type ClientProvider interface {
	Client(ctx context.Context) (Client, error)
}

// Mode is BroadcastProtocol's current state-machine mode (spec.md §4.4).
type Mode int

const (
	ModeSubmission Mode = iota
	ModeQuery
)

func (m Mode) String() string {
	if m == ModeQuery {
		return "Query"
	}
	return "Submission"
}

// Config holds BroadcastProtocol's configurable durations (spec.md §6).
type Config struct {
	BroadcastTimeout                     time.Duration
	NumConfirmationsRequired             uint64
	TransactionMempoolResubmissionWindow time.Duration
}

// DefaultConfig returns BroadcastProtocol's default configuration.
func DefaultConfig() Config {
	return Config{
		BroadcastTimeout:                     30 * time.Second,
		NumConfirmationsRequired:             3,
		TransactionMempoolResubmissionWindow: 5 * time.Minute,
	}
}

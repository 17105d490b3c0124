package broadcast

import (
	"context"
	"time"

	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Protocol is a single BroadcastProtocol instance: one transaction, one
// task, driven to completion by Execute (spec.md §4.4, §5 "each
// BroadcastProtocol instance is one task").
type Protocol struct {
	key           tx.TransactionKey
	store         Store
	clients       ClientProvider
	outputManager OutputManager
	publisher     events.Publisher
	config        Config
	mode          Mode

	shutdown       <-chan struct{}
	cancel         <-chan struct{}
	baseNodeChange <-chan struct{}
	timeoutUpdates <-chan time.Duration
}

// Option configures optional suspension-point channels on a Protocol.
type Option func(*Protocol)

// WithShutdown wires a shutdown signal; Execute exits with ErrShutdown as
// soon as it observes a send on ch, without mutating stored state.
func WithShutdown(ch <-chan struct{}) Option {
	return func(p *Protocol) { p.shutdown = ch }
}

// WithCancel wires an external cancellation request (e.g. the wallet user
// cancelling the transaction directly).
func WithCancel(ch <-chan struct{}) Option {
	return func(p *Protocol) { p.cancel = ch }
}

// WithBaseNodeChange wires the signal fired when the configured remote
// peer changes. Per spec.md §4.4, this resets the last-rejection timestamp
// and restarts the loop rather than carrying per-peer retry state across
// peers.
func WithBaseNodeChange(ch <-chan struct{}) Option {
	return func(p *Protocol) { p.baseNodeChange = ch }
}

// WithTimeoutUpdates wires the watch channel broadcast_timeout is
// dynamically updatable through (spec.md §5).
func WithTimeoutUpdates(ch <-chan time.Duration) Option {
	return func(p *Protocol) { p.timeoutUpdates = ch }
}

// NewProtocol constructs a BroadcastProtocol instance for the transaction
// identified by key, starting in Submission mode per spec.md §4.4.
func NewProtocol(
	key tx.TransactionKey,
	store Store,
	clients ClientProvider,
	outputManager OutputManager,
	publisher events.Publisher,
	config Config,
	opts ...Option,
) *Protocol {
	p := &Protocol{
		key:           key,
		store:         store,
		clients:       clients,
		outputManager: outputManager,
		publisher:     publisher,
		config:        config,
		mode:          ModeSubmission,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// inFlight reports whether status is one BroadcastProtocol should keep
// driving; any other status means something else already advanced the
// transaction (spec.md §4.4's main loop, step 1).
func inFlight(s Status) bool {
	switch s {
	case Completed, Broadcast, MinedUnconfirmed:
		return true
	default:
		return false
	}
}

// Execute runs the main loop described in spec.md §4.4 to completion: it
// returns nil on success (mined with sufficient confirmations, or the
// transaction already advanced by something else), ErrShutdown on a
// shutdown signal, or ErrRejected once the transaction has been cancelled.
func (p *Protocol) Execute(ctx context.Context) error {
	for {
		select {
		case <-p.shutdown:
			return ErrShutdown
		default:
		}

		ct, err := p.store.Get(p.key)
		if err != nil {
			return err
		}
		if !inFlight(ct.Status) {
			return nil
		}

		client, err := p.clients.Client(ctx)
		if err != nil {
			// Connecting to the remote peer failed; treat exactly like an
			// RPC error — remain in the current mode and retry after the
			// timeout interval.
			if waitErr := p.wait(ctx); waitErr != nil {
				return waitErr
			}
			continue
		}

		var done bool
		switch p.mode {
		case ModeSubmission:
			done, err = p.submissionStep(ctx, client, ct)
		case ModeQuery:
			done, err = p.queryStep(ctx, client, ct)
		}
		if done {
			return err
		}

		if waitErr := p.wait(ctx); waitErr != nil {
			return waitErr
		}
	}
}

// submissionStep implements spec.md §4.4's Submission step.
func (p *Protocol) submissionStep(ctx context.Context, client Client, ct *CompletedTransaction) (done bool, err error) {
	resp, rpcErr := client.SubmitTransaction(ctx, ct.Transaction)
	if rpcErr != nil {
		return false, nil
	}
	if !resp.IsSynced {
		return false, nil
	}

	if resp.Accepted {
		if err := p.store.SetStatus(p.key, Broadcast); err != nil {
			return true, err
		}
		p.publisher.Publish(events.Event{Kind: events.TransactionBroadcast, TransactionID: p.key})
		p.mode = ModeQuery
		return false, nil
	}

	reason, staysSubmittedAsQuery := classifyRejection(resp.RejectionReason)
	if staysSubmittedAsQuery {
		// AlreadyMined is not a cancellation: the transaction is already on
		// chain somewhere, so switch to polling for its confirmation depth.
		p.mode = ModeQuery
		return false, nil
	}
	if err := p.cancelTransaction(reason); err != nil {
		return true, err
	}
	return true, ErrRejected
}

// queryStep implements spec.md §4.4's Query step.
func (p *Protocol) queryStep(ctx context.Context, client Client, ct *CompletedTransaction) (done bool, err error) {
	sig, kerr := ct.Transaction.FirstKernelExcessSig()
	if kerr != nil {
		return true, kerr
	}

	resp, rpcErr := client.TransactionQuery(ctx, sig)
	if rpcErr != nil || !resp.IsSynced {
		return false, nil
	}

	switch resp.Location {
	case Mined:
		if resp.Confirmations >= p.config.NumConfirmationsRequired {
			return true, nil
		}
		p.publisher.Publish(events.Event{
			Kind:             events.TransactionMinedUnconfirmed,
			TransactionID:    p.key,
			NumConfirmations: resp.Confirmations,
		})
		return false, nil
	case InMempool:
		return false, nil
	case NotStored:
		if ct.LastRejectionTime.IsZero() || time.Since(ct.LastRejectionTime) > p.config.TransactionMempoolResubmissionWindow {
			if err := p.store.SetLastRejectionTime(p.key, time.Now()); err != nil {
				return true, err
			}
			p.mode = ModeSubmission
			return false, nil
		}
		if err := p.cancelTransaction(events.InvalidTransaction); err != nil {
			return true, err
		}
		return true, ErrRejected
	default:
		return false, nil
	}
}

// classifyRejection maps a remote full-node's rejection_reason onto a
// terminal CancellationReason, per spec.md §4.4's table. The second return
// value is true only for AlreadyMined, which is explicitly not a
// cancellation.
func classifyRejection(reason RejectionReason) (cancellationReason events.CancellationReason, staysSubmittedAsQuery bool) {
	switch reason {
	case RejectionNone, RejectionValidationFailed:
		return events.InvalidTransaction, false
	case RejectionDoubleSpend:
		return events.DoubleSpend, false
	case RejectionOrphan:
		return events.Orphan, false
	case RejectionTimeLocked:
		return events.TimeLocked, false
	case RejectionAlreadyMined:
		return events.UnknownRejection, true
	default:
		return events.UnknownRejection, false
	}
}

// cancelTransaction implements spec.md §4.4's cancellation: release
// reserved outputs, mark the transaction rejected, emit the cancellation
// event. It is idempotent from the protocol's perspective — a later
// iteration simply observes the non-Completed status and exits.
func (p *Protocol) cancelTransaction(reason events.CancellationReason) error {
	if err := p.outputManager.ReleaseOutputs(p.key); err != nil {
		return err
	}
	if err := p.store.SetCancelled(p.key, reason); err != nil {
		return err
	}
	p.publisher.Publish(events.Event{
		Kind:               events.TransactionCancelled,
		TransactionID:      p.key,
		CancellationReason: reason,
	})
	return nil
}

// wait blocks for one timeout interval unless a cancellation or
// base-node-change event fires first (spec.md §4.4's main loop, step 4).
func (p *Protocol) wait(ctx context.Context) error {
	timeout := p.config.BroadcastTimeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.shutdown:
			return ErrShutdown
		case <-p.cancel:
			if err := p.cancelTransaction(events.InvalidTransaction); err != nil {
				return err
			}
			return ErrRejected
		case <-p.baseNodeChange:
			// Never inherit per-peer retry state across peers.
			return p.store.SetLastRejectionTime(p.key, time.Time{})
		case newTimeout := <-p.timeoutUpdates:
			p.config.BroadcastTimeout = newTimeout
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(newTimeout)
		case <-timer.C:
			return nil
		}
	}
}

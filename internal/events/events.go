// Package events implements the event stream produced by the core, per
// spec.md §6 and §7 ("Every state change is accompanied by an event; no
// state change occurs silently"). The dispatch mechanism — a buffered
// channel fanned out to subscribers — is grounded on the teacher's
// notification-queue pattern in
// infrastructure/network/rpc/rpcwebsocket.go (wsNotificationManager's
// queueHandler/notificationHandler split), generalized from websocket
// clients to arbitrary in-process subscribers.
package events

import (
	"sync"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Kind enumerates the event stream named in spec.md §6.
type Kind int

const (
	TransactionBroadcast Kind = iota
	TransactionMinedUnconfirmed
	TransactionMined
	TransactionCancelled
	ReceivedTransaction
	ReceivedTransactionReply
	ReceivedFinalizedTransaction
	TransactionValidationStateChanged
)

// String returns the event kind's name, for logging.
func (k Kind) String() string {
	switch k {
	case TransactionBroadcast:
		return "TransactionBroadcast"
	case TransactionMinedUnconfirmed:
		return "TransactionMinedUnconfirmed"
	case TransactionMined:
		return "TransactionMined"
	case TransactionCancelled:
		return "TransactionCancelled"
	case ReceivedTransaction:
		return "ReceivedTransaction"
	case ReceivedTransactionReply:
		return "ReceivedTransactionReply"
	case ReceivedFinalizedTransaction:
		return "ReceivedFinalizedTransaction"
	case TransactionValidationStateChanged:
		return "TransactionValidationStateChanged"
	default:
		return "Unknown"
	}
}

// CancellationReason explains why a transaction was cancelled; the reason
// is carried verbatim to the UI collaborator (spec.md §7).
type CancellationReason int

const (
	InvalidTransaction CancellationReason = iota
	DoubleSpend
	Orphan
	TimeLocked
	UnknownRejection
)

func (r CancellationReason) String() string {
	switch r {
	case InvalidTransaction:
		return "InvalidTransaction"
	case DoubleSpend:
		return "DoubleSpend"
	case Orphan:
		return "Orphan"
	case TimeLocked:
		return "TimeLocked"
	default:
		return "Unknown"
	}
}

// Event carries the transaction identifier every event is keyed on, plus
// any kind-specific payload.
type Event struct {
	Kind               Kind
	TransactionID      tx.TransactionKey
	NumConfirmations   uint64
	CancellationReason CancellationReason
}

// Publisher is the write side of the event stream, consumed by
// MempoolStore and BroadcastProtocol.
type Publisher interface {
	Publish(Event)
}

// Bus is the in-process event dispatcher: every Publish fans the event out
// to all current subscribers without blocking the publisher on a slow
// reader (a full subscriber channel drops the event rather than stalling
// the caller — mirroring the teacher's queueHandler, which exists
// specifically to decouple notification producers from slow websocket
// consumers).
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscription is a handle returned by Subscribe; call Unsubscribe when
// done listening.
type Subscription struct {
	bus *Bus
	id  int
	ch  chan Event
}

// Events returns the subscription's event channel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe removes the subscription from the bus and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if _, ok := s.bus.subs[s.id]; ok {
		delete(s.bus.subs, s.id)
		close(s.ch)
	}
}

// Subscribe registers a new subscriber with the given channel buffer size.
func (b *Bus) Subscribe(bufferSize int) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, bufferSize)
	id := b.next
	b.next++
	b.subs[id] = ch
	return &Subscription{bus: b, id: id, ch: ch}
}

// Publish fans the event out to every current subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber's buffer is full; drop rather than block the
			// publisher, matching the teacher's queueHandler behavior for
			// slow websocket clients.
		}
	}
}

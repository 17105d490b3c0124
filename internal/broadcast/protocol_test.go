package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwesterb/go-ristretto"
	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

func newTestTx(seed byte, fee uint64) *tx.Transaction {
	var nonce ristretto.Point
	var response ristretto.Scalar
	nonce.Rand()
	response.Derive([]byte{seed})
	sig := tx.NewSignature(nonce, response)
	return tx.NewTransaction(tx.TransactionBody{Kernels: []tx.Kernel{{ExcessSig: sig, Fee: fee}}})
}

// memStore is a minimal in-memory Store test double.
type memStore struct {
	mu  sync.Mutex
	txs map[tx.TransactionKey]*CompletedTransaction
}

func newMemStore(key tx.TransactionKey, t *tx.Transaction) *memStore {
	return &memStore{txs: map[tx.TransactionKey]*CompletedTransaction{
		key: {Transaction: t, Status: Completed},
	}}
}

func (m *memStore) Get(key tx.TransactionKey) (*CompletedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ct, ok := m.txs[key]
	if !ok {
		return nil, errors.New("memStore: not found")
	}
	copied := *ct
	return &copied, nil
}

func (m *memStore) SetStatus(key tx.TransactionKey, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[key].Status = status
	return nil
}

func (m *memStore) SetCancelled(key tx.TransactionKey, reason events.CancellationReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[key].Status = Cancelled
	m.txs[key].CancellationReason = reason
	return nil
}

func (m *memStore) SetLastRejectionTime(key tx.TransactionKey, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[key].LastRejectionTime = at
	return nil
}

type recordingOutputManager struct {
	released []tx.TransactionKey
}

func (r *recordingOutputManager) ReleaseOutputs(key tx.TransactionKey) error {
	r.released = append(r.released, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// scriptedClient replays a fixed sequence of submit/query responses,
// mirroring the teacher's scripted RPC fakes in rpcclient tests.
type scriptedClient struct {
	submitResponses []SubmissionResponse
	queryResponses  []QueryResponse
	submitCalls     int
	queryCalls      int
}

func (c *scriptedClient) SubmitTransaction(context.Context, *tx.Transaction) (SubmissionResponse, error) {
	resp := c.submitResponses[c.submitCalls]
	c.submitCalls++
	return resp, nil
}

func (c *scriptedClient) TransactionQuery(context.Context, tx.Signature) (QueryResponse, error) {
	resp := c.queryResponses[c.queryCalls]
	c.queryCalls++
	return resp, nil
}

type fixedProvider struct{ client Client }

func (f fixedProvider) Client(context.Context) (Client, error) { return f.client, nil }

func testConfig() Config {
	return Config{
		BroadcastTimeout:                     time.Millisecond,
		NumConfirmationsRequired:             3,
		TransactionMempoolResubmissionWindow: time.Hour,
	}
}

// TestBroadcastThenMined covers scenario S3 from spec.md §8.
func TestBroadcastThenMined(t *testing.T) {
	transaction := newTestTx(1, 100)
	key, _ := transaction.FirstKernelExcessSig()
	store := newMemStore(key, transaction)
	outputManager := &recordingOutputManager{}
	publisher := &recordingPublisher{}
	client := &scriptedClient{
		submitResponses: []SubmissionResponse{{Accepted: true, IsSynced: true}},
		queryResponses: []QueryResponse{
			{Location: InMempool, IsSynced: true},
			{Location: Mined, Confirmations: 3, IsSynced: true},
		},
	}

	protocol := NewProtocol(key, store, fixedProvider{client}, outputManager, publisher, testConfig())
	err := protocol.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	ct, _ := store.Get(key)
	if ct.Status != Broadcast {
		t.Fatalf("status = %v, want Broadcast", ct.Status)
	}

	var sawBroadcast bool
	for _, e := range publisher.events {
		if e.Kind == events.TransactionBroadcast && e.TransactionID.Equal(key) {
			sawBroadcast = true
		}
	}
	if !sawBroadcast {
		t.Fatal("expected a TransactionBroadcast event")
	}
}

// TestDoubleSpendRejection covers scenario S4 from spec.md §8.
func TestDoubleSpendRejection(t *testing.T) {
	transaction := newTestTx(2, 100)
	key, _ := transaction.FirstKernelExcessSig()
	store := newMemStore(key, transaction)
	outputManager := &recordingOutputManager{}
	publisher := &recordingPublisher{}
	client := &scriptedClient{
		submitResponses: []SubmissionResponse{
			{Accepted: false, RejectionReason: RejectionDoubleSpend, IsSynced: true},
		},
	}

	protocol := NewProtocol(key, store, fixedProvider{client}, outputManager, publisher, testConfig())
	err := protocol.Execute(context.Background())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Execute error = %v, want ErrRejected", err)
	}

	ct, _ := store.Get(key)
	if ct.Status != Cancelled {
		t.Fatalf("status = %v, want Cancelled", ct.Status)
	}
	if ct.CancellationReason != events.DoubleSpend {
		t.Fatalf("CancellationReason = %v, want DoubleSpend", ct.CancellationReason)
	}
	if len(outputManager.released) != 1 || !outputManager.released[0].Equal(key) {
		t.Fatalf("expected outputs released for key, got %v", outputManager.released)
	}

	var sawCancellation bool
	for _, e := range publisher.events {
		if e.Kind == events.TransactionCancelled && e.CancellationReason == events.DoubleSpend {
			sawCancellation = true
		}
	}
	if !sawCancellation {
		t.Fatal("expected a TransactionCancelled(DoubleSpend) event")
	}
}

// TestAlreadyMinedRejectionTransitionsToQuery covers the AlreadyMined
// special case: it is not a cancellation, and the protocol switches to
// polling for confirmation depth instead.
func TestAlreadyMinedRejectionTransitionsToQuery(t *testing.T) {
	transaction := newTestTx(3, 100)
	key, _ := transaction.FirstKernelExcessSig()
	store := newMemStore(key, transaction)
	outputManager := &recordingOutputManager{}
	publisher := &recordingPublisher{}
	client := &scriptedClient{
		submitResponses: []SubmissionResponse{
			{Accepted: false, RejectionReason: RejectionAlreadyMined, IsSynced: true},
		},
		queryResponses: []QueryResponse{
			{Location: Mined, Confirmations: 5, IsSynced: true},
		},
	}

	protocol := NewProtocol(key, store, fixedProvider{client}, outputManager, publisher, testConfig())
	if err := protocol.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(outputManager.released) != 0 {
		t.Fatalf("expected no outputs released, got %v", outputManager.released)
	}
}

// TestShutdownExitsWithoutMutation covers spec.md §4.4's shutdown handling.
func TestShutdownExitsWithoutMutation(t *testing.T) {
	transaction := newTestTx(4, 100)
	key, _ := transaction.FirstKernelExcessSig()
	store := newMemStore(key, transaction)
	shutdown := make(chan struct{})
	close(shutdown)

	protocol := NewProtocol(key, store, fixedProvider{&scriptedClient{}}, &recordingOutputManager{}, &recordingPublisher{}, testConfig(),
		WithShutdown(shutdown))

	err := protocol.Execute(context.Background())
	if !errors.Is(err, ErrShutdown) {
		t.Fatalf("Execute error = %v, want ErrShutdown", err)
	}
	ct, _ := store.Get(key)
	if ct.Status != Completed {
		t.Fatalf("status = %v, want unchanged Completed", ct.Status)
	}
}

// TestAlreadyAdvancedTransactionExitsImmediately covers the main loop's
// first check: a status outside {Completed, Broadcast, MinedUnconfirmed}
// means something else already advanced the transaction.
func TestAlreadyAdvancedTransactionExitsImmediately(t *testing.T) {
	transaction := newTestTx(5, 100)
	key, _ := transaction.FirstKernelExcessSig()
	store := newMemStore(key, transaction)
	_ = store.SetStatus(key, MinedConfirmed)

	protocol := NewProtocol(key, store, fixedProvider{&scriptedClient{}}, &recordingOutputManager{}, &recordingPublisher{}, testConfig())
	if err := protocol.Execute(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
}

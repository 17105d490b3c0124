package broadcast

import (
	"testing"
	"time"

	"github.com/bwesterb/go-ristretto"

	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/internal/storage"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

func testMemoryStoreKey(seed byte) tx.TransactionKey {
	var nonce ristretto.Point
	var response ristretto.Scalar
	nonce.Rand()
	response.Derive([]byte{seed})
	return tx.NewSignature(nonce, response)
}

func TestMemoryStoreGetMissingReturnsErrNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(testMemoryStoreKey(1)); err != ErrNotFound {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorePutGetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	key := testMemoryStoreKey(2)
	store.Put(key, &CompletedTransaction{Status: Completed})

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != Completed {
		t.Fatalf("Status = %v, want Completed", got.Status)
	}
}

func TestMemoryStoreGetReturnsACopy(t *testing.T) {
	store := NewMemoryStore()
	key := testMemoryStoreKey(3)
	store.Put(key, &CompletedTransaction{Status: Completed})

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Status = Cancelled

	got2, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got2.Status != Completed {
		t.Fatal("mutating a returned CompletedTransaction should not affect the stored copy")
	}
}

func TestMemoryStoreSetStatusAndCancelledAndRejectionTime(t *testing.T) {
	store := NewMemoryStore()
	key := testMemoryStoreKey(4)
	store.Put(key, &CompletedTransaction{Status: Pending})

	if err := store.SetStatus(key, Broadcast); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, _ := store.Get(key)
	if got.Status != Broadcast {
		t.Fatalf("Status = %v, want Broadcast", got.Status)
	}

	if err := store.SetCancelled(key, events.DoubleSpend); err != nil {
		t.Fatalf("SetCancelled: %v", err)
	}
	got, _ = store.Get(key)
	if got.Status != Cancelled || got.CancellationReason != events.DoubleSpend {
		t.Fatalf("unexpected state after SetCancelled: %+v", got)
	}

	now := time.Now()
	if err := store.SetLastRejectionTime(key, now); err != nil {
		t.Fatalf("SetLastRejectionTime: %v", err)
	}
	got, _ = store.Get(key)
	if !got.LastRejectionTime.Equal(now) {
		t.Fatalf("LastRejectionTime = %v, want %v", got.LastRejectionTime, now)
	}
}

func TestMemoryStoreSetStatusMissingReturnsErrNotFound(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SetStatus(testMemoryStoreKey(5), Broadcast); err != ErrNotFound {
		t.Fatalf("SetStatus on missing key: err = %v, want ErrNotFound", err)
	}
}

func testCompletedTransaction(seed byte) *CompletedTransaction {
	body := tx.TransactionBody{
		Kernels: []tx.Kernel{{ExcessSig: testMemoryStoreSignature(seed), Fee: 10}},
	}
	return &CompletedTransaction{Transaction: tx.NewTransaction(body), Status: Pending}
}

func testMemoryStoreSignature(seed byte) tx.Signature {
	var nonce ristretto.Point
	var response ristretto.Scalar
	nonce.Rand()
	response.Derive([]byte{seed})
	return tx.NewSignature(nonce, response)
}

func TestMemoryStorePersistsThroughCompletedTable(t *testing.T) {
	persistence, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer persistence.Close()

	store := NewMemoryStore(WithCompletedTable(persistence.Completed))
	ct := testCompletedTransaction(6)
	key, err := ct.Transaction.FirstKernelExcessSig()
	if err != nil {
		t.Fatalf("FirstKernelExcessSig: %v", err)
	}

	store.Put(key, ct)

	stored, ok, err := persistence.Completed.Get(key)
	if err != nil || !ok {
		t.Fatalf("Completed.Get after Put: ok=%v err=%v", ok, err)
	}
	decoded, err := decodeCompletedTransaction(stored)
	if err != nil {
		t.Fatalf("decodeCompletedTransaction: %v", err)
	}
	if decoded.Status != Pending {
		t.Fatalf("persisted Status = %v, want Pending", decoded.Status)
	}

	if err := store.SetStatus(key, Broadcast); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	stored, _, _ = persistence.Completed.Get(key)
	decoded, err = decodeCompletedTransaction(stored)
	if err != nil {
		t.Fatalf("decodeCompletedTransaction after SetStatus: %v", err)
	}
	if decoded.Status != Broadcast {
		t.Fatalf("persisted Status after SetStatus = %v, want Broadcast", decoded.Status)
	}

	if err := store.SetCancelled(key, events.DoubleSpend); err != nil {
		t.Fatalf("SetCancelled: %v", err)
	}
	stored, _, _ = persistence.Completed.Get(key)
	decoded, err = decodeCompletedTransaction(stored)
	if err != nil {
		t.Fatalf("decodeCompletedTransaction after SetCancelled: %v", err)
	}
	if decoded.Status != Cancelled || decoded.CancellationReason != events.DoubleSpend {
		t.Fatalf("persisted state after SetCancelled = %+v", decoded)
	}

	now := time.Now()
	if err := store.SetLastRejectionTime(key, now); err != nil {
		t.Fatalf("SetLastRejectionTime: %v", err)
	}
	stored, _, _ = persistence.Completed.Get(key)
	decoded, err = decodeCompletedTransaction(stored)
	if err != nil {
		t.Fatalf("decodeCompletedTransaction after SetLastRejectionTime: %v", err)
	}
	if !decoded.LastRejectionTime.Equal(now) {
		t.Fatalf("persisted LastRejectionTime = %v, want %v", decoded.LastRejectionTime, now)
	}
}

func TestMemoryStoreWithoutCompletedTableDoesNotPanic(t *testing.T) {
	store := NewMemoryStore()
	key := testMemoryStoreKey(7)
	store.Put(key, &CompletedTransaction{Status: Pending})
	if err := store.SetStatus(key, Broadcast); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
}

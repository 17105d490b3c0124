package rpcclient

import (
	"testing"

	"github.com/bwesterb/go-ristretto"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

func testSignature(seed byte) tx.Signature {
	var nonce ristretto.Point
	var response ristretto.Scalar
	nonce.Rand()
	response.Derive([]byte{seed})
	return tx.NewSignature(nonce, response)
}

func TestSignatureEncodeRoundTrip(t *testing.T) {
	sig := testSignature(1)
	decoded, err := decodeSignature(encodeSignature(sig))
	if err != nil {
		t.Fatalf("decodeSignature returned error: %v", err)
	}
	if !decoded.Equal(sig) {
		t.Fatalf("decoded signature does not match original")
	}
}

func TestHashEncodeRoundTrip(t *testing.T) {
	h := tx.Hash{1, 2, 3}
	decoded, err := decodeHash(encodeHash(h))
	if err != nil {
		t.Fatalf("decodeHash returned error: %v", err)
	}
	if decoded != h {
		t.Fatalf("decoded hash does not match original")
	}
}

func TestUint64EncodeRoundTrip(t *testing.T) {
	want := uint64(18446744073709551615)
	decoded, err := decodeUint64(encodeUint64(want))
	if err != nil {
		t.Fatalf("decodeUint64 returned error: %v", err)
	}
	if decoded != want {
		t.Fatalf("decoded = %d, want %d", decoded, want)
	}
}

func TestSubmitTransactionRequestRejectsKernelLessTransaction(t *testing.T) {
	empty := tx.NewTransaction(tx.TransactionBody{})
	if _, err := submitTransactionRequest(empty); err == nil {
		t.Fatal("expected an error for a kernel-less transaction")
	}
}

func TestSubmitTransactionRequestEncodesFee(t *testing.T) {
	req, err := submitTransactionRequest(tx.NewTransaction(tx.TransactionBody{
		Kernels: []tx.Kernel{{ExcessSig: testSignature(2), Fee: 100}},
	}))
	if err != nil {
		t.Fatalf("submitTransactionRequest returned error: %v", err)
	}
	if structString(req, "fee") != "100" {
		t.Fatalf("fee field = %q, want \"100\"", structString(req, "fee"))
	}
}

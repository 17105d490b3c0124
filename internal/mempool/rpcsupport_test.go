package mempool

import (
	"context"
	"testing"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

type stubFetcher struct {
	outputs []tx.TransactionOutput
	err     error
}

func (f stubFetcher) FetchMatchingUTXOs(context.Context, []tx.Hash) ([]tx.TransactionOutput, error) {
	return f.outputs, f.err
}

func testHash(seed byte) tx.Hash {
	var h tx.Hash
	h[0] = seed
	return h
}

func TestRPCValidatorAcceptsResolvedInputs(t *testing.T) {
	outputHash := testHash(7)
	validator := RPCValidator{
		Fetcher: stubFetcher{outputs: []tx.TransactionOutput{{Hash: outputHash}}},
		MinFee:  10,
	}
	transaction := tx.NewTransaction(tx.TransactionBody{
		Ins:     []tx.TransactionInput{{OutputHash: outputHash}},
		Kernels: []tx.Kernel{{Fee: 20}},
	})

	if err := validator.Validate(transaction); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRPCValidatorRejectsBelowMinFee(t *testing.T) {
	validator := RPCValidator{Fetcher: stubFetcher{}, MinFee: 100}
	transaction := tx.NewTransaction(tx.TransactionBody{Kernels: []tx.Kernel{{Fee: 1}}})

	err := validator.Validate(transaction)
	valErr, ok := err.(*ValidationError)
	if !ok || valErr.Kind != ConsensusError {
		t.Fatalf("Validate = %v, want ConsensusError", err)
	}
}

func TestRPCValidatorReportsMissingInputs(t *testing.T) {
	missingHash := testHash(9)
	validator := RPCValidator{Fetcher: stubFetcher{}, MinFee: 0}
	transaction := tx.NewTransaction(tx.TransactionBody{
		Ins:     []tx.TransactionInput{{OutputHash: missingHash}},
		Kernels: []tx.Kernel{{Fee: 5}},
	})

	err := validator.Validate(transaction)
	valErr, ok := err.(*ValidationError)
	if !ok || valErr.Kind != UnknownInputs {
		t.Fatalf("Validate = %v, want UnknownInputs", err)
	}
	if len(valErr.MissingInputs) != 1 || valErr.MissingInputs[0] != missingHash {
		t.Fatalf("MissingInputs = %v, want [%v]", valErr.MissingInputs, missingHash)
	}
}

func TestByteWeightingScalesWithBodySize(t *testing.T) {
	w := DefaultByteWeighting()
	small := tx.NewTransaction(tx.TransactionBody{Kernels: []tx.Kernel{{}}})
	large := tx.NewTransaction(tx.TransactionBody{
		Ins:     []tx.TransactionInput{{}, {}},
		Outs:    []tx.TransactionOutput{{}},
		Kernels: []tx.Kernel{{}},
	})

	smallWeight, err := w.Weight(small)
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	largeWeight, err := w.Weight(large)
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if largeWeight <= smallWeight {
		t.Fatalf("largeWeight = %d, want > smallWeight = %d", largeWeight, smallWeight)
	}
}

func TestStaticConsensusManagerIgnoresHeight(t *testing.T) {
	constants := ConsensusConstants{MinFee: 42}
	manager := StaticConsensusManager{Constants: constants}

	if got := manager.ConsensusConstants(0); got.MinFee != 42 {
		t.Fatalf("ConsensusConstants(0).MinFee = %d, want 42", got.MinFee)
	}
	if got := manager.ConsensusConstants(1000); got.MinFee != 42 {
		t.Fatalf("ConsensusConstants(1000).MinFee = %d, want 42", got.MinFee)
	}
}

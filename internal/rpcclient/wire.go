package rpcclient

import (
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

// Wire payloads are carried as structpb.Struct values (see types.go's
// package doc for why). Numeric fields wider than a JS-safe-integer-style
// float64 are encoded as decimal strings to avoid structpb's float64
// number representation silently losing precision.

func encodeHash(h tx.Hash) string {
	return hex.EncodeToString(h[:])
}

func decodeHash(s string) (tx.Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return tx.Hash{}, errors.Wrap(err, "rpcclient: decoding hash")
	}
	return tx.HashFromBytes(raw)
}

func encodeSignature(sig tx.Signature) string {
	b := sig.Bytes()
	return hex.EncodeToString(b[:])
}

func decodeSignature(s string) (tx.Signature, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return tx.Signature{}, errors.Wrap(err, "rpcclient: decoding signature")
	}
	if len(raw) != tx.SignatureSize {
		return tx.Signature{}, errors.Errorf("rpcclient: signature has %d bytes, want %d", len(raw), tx.SignatureSize)
	}
	var b [tx.SignatureSize]byte
	copy(b[:], raw)
	return tx.SignatureFromBytes(b), nil
}

func encodeUint64(v uint64) string { return strconv.FormatUint(v, 10) }

func decodeUint64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "rpcclient: decoding uint64")
	}
	return v, nil
}

func structString(s *structpb.Struct, key string) string {
	v, ok := s.Fields[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func structBool(s *structpb.Struct, key string) bool {
	v, ok := s.Fields[key]
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

func structNumber(s *structpb.Struct, key string) float64 {
	v, ok := s.Fields[key]
	if !ok {
		return 0
	}
	return v.GetNumberValue()
}

// submitTransactionRequest builds the wire payload for submit_transaction.
// The transaction body is carried as a hex-encoded excess signature plus
// total fee; consensus-relevant fields beyond the kernel's identity and
// fee are opaque to this client, mirroring the core's own
// Transaction-is-opaque-except-for-kernels contract (pkg/tx doc comment).
func submitTransactionRequest(t *tx.Transaction) (*structpb.Struct, error) {
	sig, err := t.FirstKernelExcessSig()
	if err != nil {
		return nil, err
	}
	fee, err := t.Body.GetTotalFee()
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{
		"excessSig": encodeSignature(sig),
		"fee":       encodeUint64(fee),
	})
}

func decodeTxSubmissionResponse(s *structpb.Struct) TxSubmissionResponse {
	return TxSubmissionResponse{
		Accepted:        structBool(s, "accepted"),
		RejectionReason: RejectionReason(int(structNumber(s, "rejectionReason"))),
		IsSynced:        structBool(s, "isSynced"),
	}
}

func transactionQueryRequest(sig tx.Signature) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"excessSig": encodeSignature(sig),
	})
}

func decodeTxQueryResponse(s *structpb.Struct) (TxQueryResponse, error) {
	confirmations, err := decodeUint64(structString(s, "confirmations"))
	if err != nil {
		return TxQueryResponse{}, err
	}
	resp := TxQueryResponse{
		Location:      Location(int(structNumber(s, "location"))),
		Confirmations: confirmations,
		IsSynced:      structBool(s, "isSynced"),
	}
	if blockHash := structString(s, "blockHash"); blockHash != "" {
		h, err := decodeHash(blockHash)
		if err != nil {
			return TxQueryResponse{}, err
		}
		resp.BlockHash = &h
	}
	return resp, nil
}

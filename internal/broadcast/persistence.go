package broadcast

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"

	"github.com/tari-project/tari-sub013/internal/events"
	"github.com/tari-project/tari-sub013/internal/storage"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

// completedTransactionHeaderSize is the fixed-size prefix encoding
// CompletedTransaction's non-Transaction fields: status (1 byte),
// cancellation reason (1 byte), and last-rejection Unix-nanosecond
// timestamp (8 bytes).
const completedTransactionHeaderSize = 1 + 1 + 8

// encodeCompletedTransaction serializes a CompletedTransaction for the
// completed persistence table, layering its own small fixed header on top
// of internal/storage's EncodeTransaction the same way internal/storage
// layers its wire format on top of pkg/tx's Bytes() accessors: the
// transaction body is opaque to this package beyond that one call.
func encodeCompletedTransaction(ct *CompletedTransaction) ([]byte, error) {
	body, err := storage.EncodeTransaction(ct.Transaction)
	if err != nil {
		return nil, errors.Wrap(err, "broadcast: encoding completed transaction body")
	}

	out := make([]byte, completedTransactionHeaderSize, completedTransactionHeaderSize+len(body))
	out[0] = byte(ct.Status)
	out[1] = byte(ct.CancellationReason)
	var lastRejectionNanos int64
	if !ct.LastRejectionTime.IsZero() {
		lastRejectionNanos = ct.LastRejectionTime.UnixNano()
	}
	binary.LittleEndian.PutUint64(out[2:10], uint64(lastRejectionNanos))
	out = append(out, body...)
	return out, nil
}

// decodeCompletedTransaction is encodeCompletedTransaction's inverse.
func decodeCompletedTransaction(data []byte) (*CompletedTransaction, error) {
	if len(data) < completedTransactionHeaderSize {
		return nil, errors.Errorf("broadcast: persisted completed transaction record too short (%d bytes)", len(data))
	}

	status := Status(data[0])
	reason := events.CancellationReason(data[1])
	nanos := int64(binary.LittleEndian.Uint64(data[2:10]))

	transaction, err := storage.DecodeTransaction(data[completedTransactionHeaderSize:])
	if err != nil {
		return nil, errors.Wrap(err, "broadcast: decoding completed transaction body")
	}

	var lastRejection time.Time
	if nanos != 0 {
		lastRejection = time.Unix(0, nanos)
	}

	return &CompletedTransaction{
		Transaction:        transaction,
		Status:             status,
		CancellationReason: reason,
		LastRejectionTime:  lastRejection,
	}, nil
}

// persistPut writes t's current state to the completed table, if a
// persistence layer is configured. Errors are swallowed (logged by the
// caller would require a logger dependency this leaf package doesn't
// otherwise need); the in-memory map remains authoritative regardless.
func persistPut(table *storage.Table, key tx.TransactionKey, t *CompletedTransaction) {
	if table == nil {
		return
	}
	encoded, err := encodeCompletedTransaction(t)
	if err != nil {
		return
	}
	_ = table.Put(key, encoded)
}

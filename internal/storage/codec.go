package storage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/tari-project/tari-sub013/pkg/tx"
)

// EncodeTransaction serializes a transaction into the wire format the three
// persistence tables store values in. pkg/tx's cryptographic types
// (Signature, Commitment) carry unexported fields, so encoding/gob's
// reflection-based codec cannot round-trip them; this format instead
// sequences each field through the fixed-size Bytes()/FromBytes() accessors
// pkg/tx already exposes for exactly this purpose, written with
// encoding/binary the way the teacher's own wire package serializes its
// fixed-size message fields (wire/common.go's binary.Write/Read use).
func EncodeTransaction(t *tx.Transaction) ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(t.Body.Ins))); err != nil {
		return nil, errors.Wrap(err, "storage: encoding input count")
	}
	for _, in := range t.Body.Ins {
		if _, err := buf.Write(in.OutputHash[:]); err != nil {
			return nil, errors.Wrap(err, "storage: encoding input hash")
		}
	}

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(t.Body.Outs))); err != nil {
		return nil, errors.Wrap(err, "storage: encoding output count")
	}
	for _, out := range t.Body.Outs {
		commitment := out.Commitment.Bytes()
		if _, err := buf.Write(commitment[:]); err != nil {
			return nil, errors.Wrap(err, "storage: encoding output commitment")
		}
		if _, err := buf.Write(out.Hash[:]); err != nil {
			return nil, errors.Wrap(err, "storage: encoding output hash")
		}
		isCoinbase := byte(0)
		if out.Features.IsCoinbase {
			isCoinbase = 1
		}
		if err := buf.WriteByte(isCoinbase); err != nil {
			return nil, errors.Wrap(err, "storage: encoding output features")
		}
		if err := binary.Write(&buf, binary.LittleEndian, out.Features.MaturityHeight); err != nil {
			return nil, errors.Wrap(err, "storage: encoding output maturity height")
		}
	}

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(t.Body.Kernels))); err != nil {
		return nil, errors.Wrap(err, "storage: encoding kernel count")
	}
	for _, k := range t.Body.Kernels {
		sig := k.ExcessSig.Bytes()
		if _, err := buf.Write(sig[:]); err != nil {
			return nil, errors.Wrap(err, "storage: encoding kernel excess signature")
		}
		excess := k.Excess.Bytes()
		if _, err := buf.Write(excess[:]); err != nil {
			return nil, errors.Wrap(err, "storage: encoding kernel excess commitment")
		}
		if err := binary.Write(&buf, binary.LittleEndian, k.Fee); err != nil {
			return nil, errors.Wrap(err, "storage: encoding kernel fee")
		}
		if err := binary.Write(&buf, binary.LittleEndian, k.LockHeight); err != nil {
			return nil, errors.Wrap(err, "storage: encoding kernel lock height")
		}
	}

	return buf.Bytes(), nil
}

// DecodeTransaction is EncodeTransaction's inverse.
func DecodeTransaction(data []byte) (*tx.Transaction, error) {
	r := bytes.NewReader(data)

	var numIns uint32
	if err := binary.Read(r, binary.LittleEndian, &numIns); err != nil {
		return nil, errors.Wrap(err, "storage: decoding input count")
	}
	ins := make([]tx.TransactionInput, numIns)
	for i := range ins {
		var h tx.Hash
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return nil, errors.Wrap(err, "storage: decoding input hash")
		}
		ins[i] = tx.TransactionInput{OutputHash: h}
	}

	var numOuts uint32
	if err := binary.Read(r, binary.LittleEndian, &numOuts); err != nil {
		return nil, errors.Wrap(err, "storage: decoding output count")
	}
	outs := make([]tx.TransactionOutput, numOuts)
	for i := range outs {
		var commitmentBytes [tx.CommitmentSize]byte
		if _, err := io.ReadFull(r, commitmentBytes[:]); err != nil {
			return nil, errors.Wrap(err, "storage: decoding output commitment")
		}
		var h tx.Hash
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return nil, errors.Wrap(err, "storage: decoding output hash")
		}
		isCoinbase, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "storage: decoding output features")
		}
		var maturity uint64
		if err := binary.Read(r, binary.LittleEndian, &maturity); err != nil {
			return nil, errors.Wrap(err, "storage: decoding output maturity height")
		}
		outs[i] = tx.TransactionOutput{
			Commitment: tx.CommitmentFromBytes(commitmentBytes),
			Hash:       h,
			Features: tx.OutputFeatures{
				IsCoinbase:     isCoinbase != 0,
				MaturityHeight: maturity,
			},
		}
	}

	var numKernels uint32
	if err := binary.Read(r, binary.LittleEndian, &numKernels); err != nil {
		return nil, errors.Wrap(err, "storage: decoding kernel count")
	}
	kernels := make([]tx.Kernel, numKernels)
	for i := range kernels {
		var sigBytes [tx.SignatureSize]byte
		if _, err := io.ReadFull(r, sigBytes[:]); err != nil {
			return nil, errors.Wrap(err, "storage: decoding kernel excess signature")
		}
		var excessBytes [tx.CommitmentSize]byte
		if _, err := io.ReadFull(r, excessBytes[:]); err != nil {
			return nil, errors.Wrap(err, "storage: decoding kernel excess commitment")
		}
		var fee, lockHeight uint64
		if err := binary.Read(r, binary.LittleEndian, &fee); err != nil {
			return nil, errors.Wrap(err, "storage: decoding kernel fee")
		}
		if err := binary.Read(r, binary.LittleEndian, &lockHeight); err != nil {
			return nil, errors.Wrap(err, "storage: decoding kernel lock height")
		}
		kernels[i] = tx.Kernel{
			ExcessSig:  tx.SignatureFromBytes(sigBytes),
			Excess:     tx.CommitmentFromBytes(excessBytes),
			Fee:        fee,
			LockHeight: lockHeight,
		}
	}

	return tx.NewTransaction(tx.TransactionBody{Ins: ins, Outs: outs, Kernels: kernels}), nil
}

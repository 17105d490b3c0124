// Package tx defines the opaque transaction aggregate consumed by the
// mempool, broadcast, and template-repository subsystems. Cryptographic
// primitives are represented concretely here (Ristretto scalars and points)
// but are never inspected by the consuming packages beyond byte identity
// and equality.
package tx

import (
	"encoding/hex"

	"github.com/bwesterb/go-ristretto"
)

// SignatureSize is the wire size of a Signature: a compressed Ristretto
// point (the nonce commitment) followed by a scalar (the response).
const SignatureSize = 64

// Signature is a Schnorr signature over Ristretto255 — the excess signature
// carried by a transaction kernel. It is the canonical identity of a
// transaction throughout the mempool.
type Signature struct {
	nonce    ristretto.Point
	response ristretto.Scalar
}

// NewSignature builds a Signature from its two Ristretto components.
func NewSignature(nonce ristretto.Point, response ristretto.Scalar) Signature {
	return Signature{nonce: nonce, response: response}
}

// SignatureFromBytes decodes a 64-byte wire signature.
func SignatureFromBytes(b [SignatureSize]byte) Signature {
	var s Signature
	var nb [32]byte
	var rb [32]byte
	copy(nb[:], b[:32])
	copy(rb[:], b[32:])
	s.nonce.SetBytes(&nb)
	s.response.SetBytes(&rb)
	return s
}

// Bytes returns the 64-byte wire encoding of the signature.
func (s Signature) Bytes() [SignatureSize]byte {
	var out [SignatureSize]byte
	nb := s.nonce.Bytes()
	rb := s.response.Bytes()
	copy(out[:32], nb)
	copy(out[32:], rb)
	return out
}

// String returns the hex encoding of the signature, for logging.
func (s Signature) String() string {
	b := s.Bytes()
	return hex.EncodeToString(b[:])
}

// Equal reports whether two signatures are byte-identical.
func (s Signature) Equal(other Signature) bool {
	return s.Bytes() == other.Bytes()
}

// IsZero reports whether the signature is the zero value (used as a
// not-yet-set sentinel; a real kernel excess signature is never zero).
func (s Signature) IsZero() bool {
	var zero Signature
	return s.Equal(zero)
}

// CommitmentSize is the wire size of a Pedersen commitment.
const CommitmentSize = 32

// Commitment is a Pedersen commitment to a value and blinding factor,
// represented as a compressed Ristretto point.
type Commitment struct {
	point ristretto.Point
}

// NewCommitment wraps a Ristretto point as a Commitment.
func NewCommitment(p ristretto.Point) Commitment {
	return Commitment{point: p}
}

// CommitmentFromBytes decodes a 32-byte compressed Ristretto point.
func CommitmentFromBytes(b [CommitmentSize]byte) Commitment {
	var c Commitment
	c.point.SetBytes(&b)
	return c
}

// Bytes returns the compressed wire encoding of the commitment.
func (c Commitment) Bytes() [CommitmentSize]byte {
	var out [CommitmentSize]byte
	copy(out[:], c.point.Bytes())
	return out
}

// Equal reports whether two commitments are byte-identical.
func (c Commitment) Equal(other Commitment) bool {
	return c.Bytes() == other.Bytes()
}

// HashSize is the size of an output/block hash.
const HashSize = 32

// Hash is a fixed-size, opaque content hash (output hash, predecessor
// hash, merge-mining hash, ...).
type Hash [HashSize]byte

// HashFromBytes copies a byte slice into a Hash, erroring if the length is
// wrong.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, errWrongHashLength(len(b))
	}
	copy(h[:], b)
	return h, nil
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the zero value.
func (h Hash) IsZero() bool {
	var zero Hash
	return h == zero
}

// Equal reports whether two hashes are byte-identical.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

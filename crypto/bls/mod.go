// Package bls implements BLS signatures over the BN256 curve. Public keys are
// points of G2 and signatures are points of G1, which makes it possible to
// aggregate the signatures of a quorum into one.
package bls

import (
	"bytes"
	"fmt"

	"go.dedis.ch/dpp/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/key"
	"golang.org/x/xerrors"
)

const (
	// Algorithm is the name of the curve used for the BLS signature.
	Algorithm = "CURVE-BN256"

	// PublicKeySize is the size of a marshaled public key.
	PublicKeySize = 128

	// SignatureSize is the size of a signature.
	SignatureSize = 64
)

var (
	suite = pairing.NewSuiteBn256()
)

// PublicKey can be provided to verify a BLS signature.
//
// - implements crypto.PublicKey
type PublicKey struct {
	point kyber.Point
}

// NewPublicKey unmarshals a public key.
func NewPublicKey(data []byte) (PublicKey, error) {
	point := suite.Point()

	err := point.UnmarshalBinary(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("couldn't unmarshal point: %v", err)
	}

	return PublicKey{point: point}, nil
}

// AggregatePublicKeys returns the public key that verifies the aggregate of
// the signatures of the given keys.
func AggregatePublicKeys(keys ...PublicKey) PublicKey {
	points := make([]kyber.Point, len(keys))
	for i, k := range keys {
		points[i] = k.point
	}

	return PublicKey{point: bls.AggregatePublicKeys(suite, points...)}
}

// MarshalBinary implements encoding.BinaryMarshaler. It produces a slice of
// bytes representing the public key.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.point.MarshalBinary()
}

// Verify implements crypto.PublicKey. It returns nil if the signature matches
// the message with this public key.
func (pk PublicKey) Verify(msg, signature []byte) error {
	if len(signature) != SignatureSize {
		return xerrors.Errorf("invalid signature size: %d != %d", len(signature), SignatureSize)
	}

	err := bls.Verify(suite, pk.point, msg, signature)
	if err != nil {
		return xerrors.Errorf("bls verify failed: %v", err)
	}

	return nil
}

// Equal returns true if the other public key is the same.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.point.Equal(other.point)
}

// MarshalText implements encoding.TextMarshaler. It returns a text
// representation of the public key.
func (pk PublicKey) MarshalText() ([]byte, error) {
	buffer, err := pk.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return []byte(fmt.Sprintf("bls:%x", buffer)), nil
}

// String implements fmt.String. It returns a string representation of the
// point.
func (pk PublicKey) String() string {
	buffer, err := pk.MarshalText()
	if err != nil {
		return "bls:malformed_point"
	}

	// Output only the prefix and 16 characters of the buffer in hexadecimal.
	return string(buffer)[:4+16]
}

// AggregateSignatures aggregates the signatures into a single one that can be
// verified with the aggregated public key of the signers.
func AggregateSignatures(signatures ...[]byte) ([]byte, error) {
	agg, err := bls.AggregateSignatures(suite, signatures...)
	if err != nil {
		return nil, xerrors.Errorf("couldn't aggregate: %v", err)
	}

	return agg, nil
}

// EqualSignatures returns true if both signatures are the same.
func EqualSignatures(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// Signer is a BLS signer that supports aggregation.
//
// - implements crypto.Signer
type Signer struct {
	keyPair *key.Pair
}

// NewSigner returns a new random BLS signer.
func NewSigner() Signer {
	kp := key.NewKeyPair(suite)

	return Signer{
		keyPair: kp,
	}
}

// GetPublicKey implements crypto.Signer. It returns the public key of the
// signer that can be used to verify signatures.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.PublicKey()
}

// PublicKey returns the concrete public key of the signer.
func (s Signer) PublicKey() PublicKey {
	return PublicKey{point: s.keyPair.Public}
}

// Sign implements crypto.Signer. It signs the message in parameter and returns
// the signature, or an error if it cannot sign.
func (s Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := bls.Sign(suite, s.keyPair.Private, msg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't make bls signature: %v", err)
	}

	return sig, nil
}

// Package secp256k1 implements ECDSA signatures over the secp256k1 curve.
//
// A key can be registered either with its compressed form, or only with the
// HASH160 of it. In the second case the signature carries the compressed key
// in front of the DER signature so that it can be matched against the hash.
package secp256k1

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"go.dedis.ch/dpp/crypto"
	"golang.org/x/xerrors"
)

const (
	// PublicKeySize is the size of a compressed public key.
	PublicKeySize = 33

	// HashSize is the size of the hash of a public key.
	HashSize = crypto.Hash160Size
)

// PublicKey is a compressed secp256k1 public key.
//
// - implements crypto.PublicKey
type PublicKey struct {
	key *btcec.PublicKey
}

// NewPublicKey parses a compressed public key.
func NewPublicKey(data []byte) (PublicKey, error) {
	if len(data) != PublicKeySize {
		return PublicKey{}, xerrors.Errorf("invalid public key size: %d != %d", len(data), PublicKeySize)
	}

	key, err := btcec.ParsePubKey(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("couldn't parse public key: %v", err)
	}

	return PublicKey{key: key}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the
// compressed form of the key.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.key.SerializeCompressed(), nil
}

// Verify implements crypto.PublicKey. The signature is DER encoded.
func (pk PublicKey) Verify(msg, signature []byte) error {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return xerrors.Errorf("couldn't parse signature: %v", err)
	}

	digest := crypto.Sha256d(msg)

	if !sig.Verify(digest[:], pk.key) {
		return xerrors.New("ecdsa verify failed")
	}

	return nil
}

// HashPublicKey is a public key known only by its HASH160.
//
// - implements crypto.PublicKey
type HashPublicKey struct {
	hash []byte
}

// NewHashPublicKey creates a public key from the hash.
func NewHashPublicKey(hash []byte) (HashPublicKey, error) {
	if len(hash) != HashSize {
		return HashPublicKey{}, xerrors.Errorf("invalid public key hash size: %d != %d", len(hash), HashSize)
	}

	return HashPublicKey{hash: append([]byte{}, hash...)}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the hash.
func (pk HashPublicKey) MarshalBinary() ([]byte, error) {
	return append([]byte{}, pk.hash...), nil
}

// Verify implements crypto.PublicKey. The signature is the compressed public
// key followed by the DER signature.
func (pk HashPublicKey) Verify(msg, signature []byte) error {
	if len(signature) <= PublicKeySize {
		return xerrors.Errorf("signature too short: %d", len(signature))
	}

	raw := signature[:PublicKeySize]

	if !bytes.Equal(crypto.Hash160(raw), pk.hash) {
		return xerrors.New("public key does not match the hash")
	}

	key, err := NewPublicKey(raw)
	if err != nil {
		return xerrors.Errorf("invalid embedded key: %v", err)
	}

	return key.Verify(msg, signature[PublicKeySize:])
}

// Signer is a secp256k1 private key.
//
// - implements crypto.Signer
type Signer struct {
	priv *btcec.PrivateKey
}

// NewSigner returns a signer with a random private key.
func NewSigner() (Signer, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return Signer{}, xerrors.Errorf("couldn't generate key: %v", err)
	}

	return Signer{priv: priv}, nil
}

// NewSignerFromBytes returns the signer of the serialized private key.
func NewSignerFromBytes(data []byte) Signer {
	priv, _ := btcec.PrivKeyFromBytes(data)

	return Signer{priv: priv}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{key: s.priv.PubKey()}
}

// Sign implements crypto.Signer. It returns the DER signature of the double
// SHA-256 digest of the message.
func (s Signer) Sign(msg []byte) ([]byte, error) {
	digest := crypto.Sha256d(msg)

	return ecdsa.Sign(s.priv, digest[:]).Serialize(), nil
}

// Bytes returns the serialized private key.
func (s Signer) Bytes() []byte {
	return s.priv.Serialize()
}

// HashSigner is a signer whose public key is registered by its hash.
//
// - implements crypto.Signer
type HashSigner struct {
	Signer
}

// NewHashSigner returns a signer with a random private key.
func NewHashSigner() (HashSigner, error) {
	signer, err := NewSigner()
	if err != nil {
		return HashSigner{}, err
	}

	return HashSigner{Signer: signer}, nil
}

// GetPublicKey implements crypto.Signer. It returns the hash of the public
// key.
func (s HashSigner) GetPublicKey() crypto.PublicKey {
	return HashPublicKey{hash: crypto.Hash160(s.priv.PubKey().SerializeCompressed())}
}

// Sign implements crypto.Signer. It returns the compressed public key
// followed by the DER signature.
func (s HashSigner) Sign(msg []byte) ([]byte, error) {
	sig, err := s.Signer.Sign(msg)
	if err != nil {
		return nil, err
	}

	return append(s.priv.PubKey().SerializeCompressed(), sig...), nil
}

// Package identity defines the identities of the platform and the public keys
// they sign state transitions with.
package identity

import (
	"sort"

	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/crypto"
	"go.dedis.ch/dpp/crypto/bls"
	"go.dedis.ch/dpp/crypto/secp256k1"
	"golang.org/x/xerrors"
)

// KeyType is the cryptographic scheme of a public key.
type KeyType uint8

const (
	// ECDSASecp256k1 is a compressed secp256k1 key.
	ECDSASecp256k1 KeyType = iota
	// BLS is a BN256 BLS key.
	BLS
	// ECDSAHash160 is a secp256k1 key registered by its hash.
	ECDSAHash160
)

// String implements fmt.Stringer.
func (t KeyType) String() string {
	switch t {
	case ECDSASecp256k1:
		return "ECDSA_SECP256K1"
	case BLS:
		return "BLS"
	case ECDSAHash160:
		return "ECDSA_HASH160"
	default:
		return "UNKNOWN"
	}
}

// DataSize returns the size of the key data, or zero if the type is unknown.
func (t KeyType) DataSize() int {
	switch t {
	case ECDSASecp256k1:
		return secp256k1.PublicKeySize
	case BLS:
		return bls.PublicKeySize
	case ECDSAHash160:
		return secp256k1.HashSize
	default:
		return 0
	}
}

// Purpose is what a key is allowed to be used for.
type Purpose uint8

const (
	// Authentication keys sign state transitions.
	Authentication Purpose = iota
	// Encryption keys encrypt data for the identity.
	Encryption
	// Decryption keys decrypt data sent to the identity.
	Decryption
	// Transfer keys sign credit transfers and withdrawals.
	Transfer
	// Owner keys sign withdrawals of masternode owners.
	Owner
	// Voting keys sign masternode votes.
	Voting
)

// SecurityLevel is the level of trust of a key. Lower is stronger.
type SecurityLevel uint8

const (
	// Master keys can add and disable keys.
	Master SecurityLevel = iota
	// Critical keys sign the most sensitive transitions.
	Critical
	// High keys sign regular transitions.
	High
	// Medium keys sign low value transitions.
	Medium
)

// PublicKey is a key registered by an identity.
type PublicKey struct {
	ID            uint32        `cbor:"1,keyasint"`
	Type          KeyType       `cbor:"2,keyasint"`
	Purpose       Purpose       `cbor:"3,keyasint"`
	SecurityLevel SecurityLevel `cbor:"4,keyasint"`
	ReadOnly      bool          `cbor:"5,keyasint"`
	Data          []byte        `cbor:"6,keyasint"`
	// DisabledAt is the block time in milliseconds at which the key has been
	// disabled, or zero.
	DisabledAt uint64 `cbor:"7,keyasint,omitempty"`
}

// IsDisabled returns true if the key has been disabled.
func (k PublicKey) IsDisabled() bool {
	return k.DisabledAt != 0
}

// ValidateData returns an error if the data cannot be a key of its type.
func (k PublicKey) ValidateData() error {
	size := k.Type.DataSize()
	if size == 0 {
		return xerrors.Errorf("unknown key type %d", k.Type)
	}

	if len(k.Data) != size {
		return xerrors.Errorf("invalid size for %v: %d != %d", k.Type, len(k.Data), size)
	}

	_, err := k.CryptoKey()
	if err != nil {
		return err
	}

	return nil
}

// CryptoKey returns the key that verifies the signatures.
func (k PublicKey) CryptoKey() (crypto.PublicKey, error) {
	var pk crypto.PublicKey
	var err error

	switch k.Type {
	case ECDSASecp256k1:
		pk, err = secp256k1.NewPublicKey(k.Data)
	case BLS:
		pk, err = bls.NewPublicKey(k.Data)
	case ECDSAHash160:
		pk, err = secp256k1.NewHashPublicKey(k.Data)
	default:
		return nil, xerrors.Errorf("unknown key type %d", k.Type)
	}

	if err != nil {
		return nil, xerrors.Errorf("invalid %v key: %v", k.Type, err)
	}

	return pk, nil
}

// Verify verifies the signature of the message.
func (k PublicKey) Verify(msg, signature []byte) error {
	pk, err := k.CryptoKey()
	if err != nil {
		return err
	}

	return pk.Verify(msg, signature)
}

// Identity is an account of the platform. The balance and the revision are
// loaded with it but stored separately.
type Identity struct {
	ID         types.Identifier     `cbor:"1,keyasint"`
	PublicKeys map[uint32]PublicKey `cbor:"2,keyasint"`
	Balance    types.Credits        `cbor:"3,keyasint"`
	Revision   uint64               `cbor:"4,keyasint"`
}

// Key returns the key with the identifier.
func (i Identity) Key(id uint32) (PublicKey, bool) {
	k, found := i.PublicKeys[id]
	return k, found
}

// KeyIDs returns the identifiers of the keys in increasing order.
func (i Identity) KeyIDs() []uint32 {
	ids := make([]uint32, 0, len(i.PublicKeys))
	for id := range i.PublicKeys {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(a, b int) bool {
		return ids[a] < ids[b]
	})

	return ids
}

// NextKeyID returns the identifier following the highest one in use.
func (i Identity) NextKeyID() uint32 {
	ids := i.KeyIDs()
	if len(ids) == 0 {
		return 0
	}

	return ids[len(ids)-1] + 1
}

// NewPublicKey creates the key registered for the signer.
func NewPublicKey(id uint32, signer crypto.Signer, typ KeyType, purpose Purpose,
	level SecurityLevel) (PublicKey, error) {

	data, err := signer.GetPublicKey().MarshalBinary()
	if err != nil {
		return PublicKey{}, xerrors.Errorf("couldn't marshal key: %v", err)
	}

	k := PublicKey{
		ID:            id,
		Type:          typ,
		Purpose:       purpose,
		SecurityLevel: level,
		Data:          data,
	}

	return k, nil
}

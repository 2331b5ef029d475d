// Package transition defines the state transitions that can be submitted to
// the platform and their wire format.
//
// A transition is encoded as a leading type byte, followed by the feature
// version it is encoded with on two bytes, followed by the CBOR body. The
// signature of a transition covers the same encoding where the signature and
// the signing key identifier are left empty.
package transition

import (
	"fmt"

	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/crypto"
	"golang.org/x/xerrors"
)

// Type is the discriminant of a state transition on the wire.
type Type uint8

const (
	DataContractCreateType Type = iota
	BatchType
	IdentityCreateType
	IdentityTopUpType
	DataContractUpdateType
	IdentityUpdateType
	IdentityCreditWithdrawalType
	IdentityCreditTransferType
	MasternodeVoteType

	numTypes
)

var typeNames = [numTypes]string{
	"DataContractCreate",
	"Batch",
	"IdentityCreate",
	"IdentityTopUp",
	"DataContractUpdate",
	"IdentityUpdate",
	"IdentityCreditWithdrawal",
	"IdentityCreditTransfer",
	"MasternodeVote",
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if t >= numTypes {
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}

	return typeNames[t]
}

// AllTypes returns every type of transition in order.
func AllTypes() []Type {
	types := make([]Type, numTypes)
	for i := range types {
		types[i] = Type(i)
	}

	return types
}

// StateTransition is the common interface of the transitions. Transitions are
// immutable values.
type StateTransition interface {
	// GetType returns the discriminant of the transition.
	GetType() Type

	// GetVersion returns the feature version the transition is encoded with.
	GetVersion() uint16

	// GetOwnerID returns the identity that is paying for the transition, or
	// the identity being created.
	GetOwnerID() types.Identifier

	// GetUserFeeIncrease returns the percentage added to the processing fee.
	GetUserFeeIncrease() uint16

	// GetSignature returns the signature of the transition.
	GetSignature() []byte

	// UniqueIdentifiers returns the identifiers that no two transitions in
	// the mempool can share.
	UniqueIdentifiers() []string

	// withSignature returns a copy with the signature and the key identifier.
	withSignature(keyID uint32, signature []byte) StateTransition
}

// IdentitySigned is a transition signed by a key of an existing identity.
type IdentitySigned interface {
	StateTransition

	// GetSignaturePublicKeyID returns the identifier of the signing key.
	GetSignaturePublicKeyID() uint32

	// GetPurposeRequirement returns the purposes the signing key can have.
	GetPurposeRequirement() []identity.Purpose

	// GetSecurityLevelRequirement returns the security levels the signing
	// key can have.
	GetSecurityLevelRequirement() []identity.SecurityLevel
}

// AssetLockSigned is a transition funded by an asset lock and signed by the
// key that the credit output pays to.
type AssetLockSigned interface {
	StateTransition

	// GetAssetLockProof returns the proof of the funding.
	GetAssetLockProof() AssetLockProof
}

// SignableBytes returns the bytes covered by the signature.
func SignableBytes(st StateTransition) ([]byte, error) {
	return Encode(st.withSignature(0, nil))
}

// Sign returns a copy of the transition signed by the signer. The key
// identifier is ignored by transitions signed with an asset lock key.
func Sign(st StateTransition, keyID uint32, signer crypto.Signer) (StateTransition, error) {
	data, err := SignableBytes(st)
	if err != nil {
		return nil, xerrors.Errorf("couldn't get signable bytes: %v", err)
	}

	sig, err := signer.Sign(data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't sign: %v", err)
	}

	return st.withSignature(keyID, sig), nil
}

func nonceIdentifier(owner types.Identifier, nonce uint64) string {
	return fmt.Sprintf("%v-%x", owner, nonce)
}

func contractNonceIdentifier(owner, contractID types.Identifier, nonce uint64) string {
	return fmt.Sprintf("%v-%v-%x", owner, contractID, nonce)
}

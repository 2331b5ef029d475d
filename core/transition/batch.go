package transition

import (
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
)

// DocumentAction is the operation of a document transition.
type DocumentAction uint8

const (
	DocumentCreate DocumentAction = iota
	DocumentReplace
	DocumentDelete
	DocumentTransfer
	DocumentUpdatePrice
	DocumentPurchase
)

// String implements fmt.Stringer.
func (a DocumentAction) String() string {
	switch a {
	case DocumentCreate:
		return "create"
	case DocumentReplace:
		return "replace"
	case DocumentDelete:
		return "delete"
	case DocumentTransfer:
		return "transfer"
	case DocumentUpdatePrice:
		return "update price"
	case DocumentPurchase:
		return "purchase"
	default:
		return "unknown"
	}
}

// DocumentTransition changes a document. The revision is the next revision
// of the document for every action but the creation.
type DocumentTransition struct {
	Action                DocumentAction         `cbor:"1,keyasint"`
	ID                    types.Identifier       `cbor:"2,keyasint"`
	DataContractID        types.Identifier       `cbor:"3,keyasint"`
	DocumentType          string                 `cbor:"4,keyasint"`
	IdentityContractNonce uint64                 `cbor:"5,keyasint"`
	Revision              uint64                 `cbor:"6,keyasint"`
	Entropy               [32]byte               `cbor:"7,keyasint"`
	Properties            map[string]interface{} `cbor:"8,keyasint,omitempty"`
	// Price is the new price of an update, or the price paid by a purchase.
	Price types.Credits `cbor:"9,keyasint,omitempty"`
	// RecipientOwnerID is the new owner of a transferred document.
	RecipientOwnerID types.Identifier `cbor:"10,keyasint,omitempty"`
}

// TokenAction is the operation of a token transition.
type TokenAction uint8

const (
	TokenTransfer TokenAction = iota
	TokenMint
	TokenBurn
	TokenFreeze
	TokenUnfreeze
)

// String implements fmt.Stringer.
func (a TokenAction) String() string {
	switch a {
	case TokenTransfer:
		return "transfer"
	case TokenMint:
		return "mint"
	case TokenBurn:
		return "burn"
	case TokenFreeze:
		return "freeze"
	case TokenUnfreeze:
		return "unfreeze"
	default:
		return "unknown"
	}
}

// TokenTransition transfers, mints, burns or freezes tokens of a contract.
type TokenTransition struct {
	Action                TokenAction      `cbor:"1,keyasint"`
	DataContractID        types.Identifier `cbor:"2,keyasint"`
	TokenPosition         uint16           `cbor:"3,keyasint"`
	TokenID               types.Identifier `cbor:"4,keyasint"`
	IdentityContractNonce uint64           `cbor:"5,keyasint"`
	Amount                uint64           `cbor:"6,keyasint"`
	// RecipientID is the receiver of a transfer or a mint, or the identity
	// whose tokens are frozen or unfrozen. A mint without recipient credits
	// the owner.
	RecipientID types.Identifier `cbor:"7,keyasint,omitempty"`
}

// BatchedTransition is one sub-transition of a batch. Exactly one of the
// fields is set.
type BatchedTransition struct {
	Document *DocumentTransition `cbor:"1,keyasint,omitempty"`
	Token    *TokenTransition    `cbor:"2,keyasint,omitempty"`
}

// DataContractID returns the contract the sub-transition applies to.
func (b BatchedTransition) DataContractID() types.Identifier {
	if b.Token != nil {
		return b.Token.DataContractID
	}

	if b.Document != nil {
		return b.Document.DataContractID
	}

	return types.Identifier{}
}

// IdentityContractNonce returns the nonce of the sub-transition.
func (b BatchedTransition) IdentityContractNonce() uint64 {
	if b.Token != nil {
		return b.Token.IdentityContractNonce
	}

	if b.Document != nil {
		return b.Document.IdentityContractNonce
	}

	return 0
}

var batchSecurityLevels = []identity.SecurityLevel{identity.Critical, identity.High, identity.Medium}

// Batch is a list of document and token transitions of the same owner.
//
// - implements transition.IdentitySigned
type Batch struct {
	Version              uint16              `cbor:"-"`
	OwnerID              types.Identifier    `cbor:"1,keyasint"`
	Transitions          []BatchedTransition `cbor:"2,keyasint"`
	UserFeeIncrease      uint16              `cbor:"3,keyasint"`
	SignaturePublicKeyID uint32              `cbor:"4,keyasint"`
	Signature            []byte              `cbor:"5,keyasint"`
}

// GetType implements transition.StateTransition.
func (t Batch) GetType() Type {
	return BatchType
}

// GetVersion implements transition.StateTransition.
func (t Batch) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition.
func (t Batch) GetOwnerID() types.Identifier {
	return t.OwnerID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t Batch) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t Batch) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t Batch) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t Batch) GetPurposeRequirement() []identity.Purpose {
	return authenticationPurpose
}

// GetSecurityLevelRequirement implements transition.IdentitySigned.
func (t Batch) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return batchSecurityLevels
}

// UniqueIdentifiers implements transition.StateTransition. It returns one
// identifier per sub-transition.
func (t Batch) UniqueIdentifiers() []string {
	ids := make([]string, len(t.Transitions))
	for i, sub := range t.Transitions {
		ids[i] = contractNonceIdentifier(t.OwnerID, sub.DataContractID(), sub.IdentityContractNonce())
	}

	return ids
}

// HasTokenTransitions returns true if one of the sub-transitions is a token
// transition.
func (t Batch) HasTokenTransitions() bool {
	for _, sub := range t.Transitions {
		if sub.Token != nil {
			return true
		}
	}

	return false
}

func (t Batch) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

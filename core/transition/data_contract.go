package transition

import (
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
)

var contractSecurityLevels = []identity.SecurityLevel{identity.Critical, identity.High}

var authenticationPurpose = []identity.Purpose{identity.Authentication}

// DataContractCreate registers a new data contract.
//
// - implements transition.IdentitySigned
type DataContractCreate struct {
	Version              uint16                `cbor:"-"`
	DataContract         contract.DataContract `cbor:"1,keyasint"`
	IdentityNonce        uint64                `cbor:"2,keyasint"`
	UserFeeIncrease      uint16                `cbor:"3,keyasint"`
	SignaturePublicKeyID uint32                `cbor:"4,keyasint"`
	Signature            []byte                `cbor:"5,keyasint"`
}

// GetType implements transition.StateTransition.
func (t DataContractCreate) GetType() Type {
	return DataContractCreateType
}

// GetVersion implements transition.StateTransition.
func (t DataContractCreate) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition. It returns the owner of
// the contract.
func (t DataContractCreate) GetOwnerID() types.Identifier {
	return t.DataContract.OwnerID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t DataContractCreate) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t DataContractCreate) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t DataContractCreate) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t DataContractCreate) GetPurposeRequirement() []identity.Purpose {
	return authenticationPurpose
}

// GetSecurityLevelRequirement implements transition.IdentitySigned.
func (t DataContractCreate) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return contractSecurityLevels
}

// UniqueIdentifiers implements transition.StateTransition.
func (t DataContractCreate) UniqueIdentifiers() []string {
	return []string{nonceIdentifier(t.GetOwnerID(), t.IdentityNonce)}
}

func (t DataContractCreate) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

// DataContractUpdate replaces a data contract with its next version.
//
// - implements transition.IdentitySigned
type DataContractUpdate struct {
	Version               uint16                `cbor:"-"`
	DataContract          contract.DataContract `cbor:"1,keyasint"`
	IdentityContractNonce uint64                `cbor:"2,keyasint"`
	UserFeeIncrease       uint16                `cbor:"3,keyasint"`
	SignaturePublicKeyID  uint32                `cbor:"4,keyasint"`
	Signature             []byte                `cbor:"5,keyasint"`
}

// GetType implements transition.StateTransition.
func (t DataContractUpdate) GetType() Type {
	return DataContractUpdateType
}

// GetVersion implements transition.StateTransition.
func (t DataContractUpdate) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition.
func (t DataContractUpdate) GetOwnerID() types.Identifier {
	return t.DataContract.OwnerID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t DataContractUpdate) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t DataContractUpdate) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t DataContractUpdate) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t DataContractUpdate) GetPurposeRequirement() []identity.Purpose {
	return authenticationPurpose
}

// GetSecurityLevelRequirement implements transition.IdentitySigned.
func (t DataContractUpdate) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return contractSecurityLevels
}

// UniqueIdentifiers implements transition.StateTransition.
func (t DataContractUpdate) UniqueIdentifiers() []string {
	return []string{
		contractNonceIdentifier(t.GetOwnerID(), t.DataContract.ID, t.IdentityContractNonce),
	}
}

func (t DataContractUpdate) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

package transition

import (
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
)

// AssetLockProof is the proof funding an identity creation or top up.
type AssetLockProof = assetlock.Proof

// IdentityIDFromOutPoint returns the identifier of the identity created with
// the asset lock outpoint.
func IdentityIDFromOutPoint(outpoint assetlock.OutPoint) types.Identifier {
	return types.HashIdentifier(outpoint.Bytes())
}

// IdentityCreate creates an identity funded by an asset lock.
//
// - implements transition.AssetLockSigned
type IdentityCreate struct {
	Version         uint16               `cbor:"-"`
	AssetLockProof  AssetLockProof       `cbor:"1,keyasint"`
	PublicKeys      []identity.PublicKey `cbor:"2,keyasint"`
	UserFeeIncrease uint16               `cbor:"3,keyasint"`
	Signature       []byte               `cbor:"4,keyasint"`
}

// GetType implements transition.StateTransition.
func (t IdentityCreate) GetType() Type {
	return IdentityCreateType
}

// GetVersion implements transition.StateTransition.
func (t IdentityCreate) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition. It returns the identifier
// derived from the asset lock outpoint, or the zero identifier if the proof is
// malformed.
func (t IdentityCreate) GetOwnerID() types.Identifier {
	outpoint, err := t.AssetLockProof.OutPoint()
	if err != nil {
		return types.Identifier{}
	}

	return IdentityIDFromOutPoint(outpoint)
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t IdentityCreate) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t IdentityCreate) GetSignature() []byte {
	return t.Signature
}

// GetAssetLockProof implements transition.AssetLockSigned.
func (t IdentityCreate) GetAssetLockProof() AssetLockProof {
	return t.AssetLockProof
}

// UniqueIdentifiers implements transition.StateTransition. It returns the
// asset lock outpoint.
func (t IdentityCreate) UniqueIdentifiers() []string {
	return assetLockIdentifiers(t.AssetLockProof)
}

func (t IdentityCreate) withSignature(_ uint32, sig []byte) StateTransition {
	t.Signature = sig
	return t
}

// IdentityTopUp adds the credits of an asset lock to an identity.
//
// - implements transition.AssetLockSigned
type IdentityTopUp struct {
	Version         uint16           `cbor:"-"`
	AssetLockProof  AssetLockProof   `cbor:"1,keyasint"`
	IdentityID      types.Identifier `cbor:"2,keyasint"`
	UserFeeIncrease uint16           `cbor:"3,keyasint"`
	Signature       []byte           `cbor:"4,keyasint"`
}

// GetType implements transition.StateTransition.
func (t IdentityTopUp) GetType() Type {
	return IdentityTopUpType
}

// GetVersion implements transition.StateTransition.
func (t IdentityTopUp) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition.
func (t IdentityTopUp) GetOwnerID() types.Identifier {
	return t.IdentityID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t IdentityTopUp) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t IdentityTopUp) GetSignature() []byte {
	return t.Signature
}

// GetAssetLockProof implements transition.AssetLockSigned.
func (t IdentityTopUp) GetAssetLockProof() AssetLockProof {
	return t.AssetLockProof
}

// UniqueIdentifiers implements transition.StateTransition.
func (t IdentityTopUp) UniqueIdentifiers() []string {
	return assetLockIdentifiers(t.AssetLockProof)
}

func (t IdentityTopUp) withSignature(_ uint32, sig []byte) StateTransition {
	t.Signature = sig
	return t
}

func assetLockIdentifiers(proof AssetLockProof) []string {
	outpoint, err := proof.OutPoint()
	if err != nil {
		return nil
	}

	return []string{outpoint.String()}
}

var masterSecurityLevel = []identity.SecurityLevel{identity.Master}

// IdentityUpdate adds and disables keys of an identity.
//
// - implements transition.IdentitySigned
type IdentityUpdate struct {
	Version              uint16               `cbor:"-"`
	IdentityID           types.Identifier     `cbor:"1,keyasint"`
	Revision             uint64               `cbor:"2,keyasint"`
	Nonce                uint64               `cbor:"3,keyasint"`
	AddPublicKeys        []identity.PublicKey `cbor:"4,keyasint,omitempty"`
	DisablePublicKeys    []uint32             `cbor:"5,keyasint,omitempty"`
	UserFeeIncrease      uint16               `cbor:"6,keyasint"`
	SignaturePublicKeyID uint32               `cbor:"7,keyasint"`
	Signature            []byte               `cbor:"8,keyasint"`
}

// GetType implements transition.StateTransition.
func (t IdentityUpdate) GetType() Type {
	return IdentityUpdateType
}

// GetVersion implements transition.StateTransition.
func (t IdentityUpdate) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition.
func (t IdentityUpdate) GetOwnerID() types.Identifier {
	return t.IdentityID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t IdentityUpdate) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t IdentityUpdate) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t IdentityUpdate) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t IdentityUpdate) GetPurposeRequirement() []identity.Purpose {
	return authenticationPurpose
}

// GetSecurityLevelRequirement implements transition.IdentitySigned. Only
// master keys can change the keys of an identity.
func (t IdentityUpdate) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return masterSecurityLevel
}

// UniqueIdentifiers implements transition.StateTransition.
func (t IdentityUpdate) UniqueIdentifiers() []string {
	return []string{nonceIdentifier(t.IdentityID, t.Nonce)}
}

func (t IdentityUpdate) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

var transferPurpose = []identity.Purpose{identity.Transfer}

var criticalSecurityLevel = []identity.SecurityLevel{identity.Critical}

// IdentityCreditTransfer moves credits from an identity to another.
//
// - implements transition.IdentitySigned
type IdentityCreditTransfer struct {
	Version              uint16           `cbor:"-"`
	IdentityID           types.Identifier `cbor:"1,keyasint"`
	RecipientID          types.Identifier `cbor:"2,keyasint"`
	Amount               uint64           `cbor:"3,keyasint"`
	Nonce                uint64           `cbor:"4,keyasint"`
	UserFeeIncrease      uint16           `cbor:"5,keyasint"`
	SignaturePublicKeyID uint32           `cbor:"6,keyasint"`
	Signature            []byte           `cbor:"7,keyasint"`
}

// GetType implements transition.StateTransition.
func (t IdentityCreditTransfer) GetType() Type {
	return IdentityCreditTransferType
}

// GetVersion implements transition.StateTransition.
func (t IdentityCreditTransfer) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition.
func (t IdentityCreditTransfer) GetOwnerID() types.Identifier {
	return t.IdentityID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t IdentityCreditTransfer) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t IdentityCreditTransfer) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t IdentityCreditTransfer) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t IdentityCreditTransfer) GetPurposeRequirement() []identity.Purpose {
	return transferPurpose
}

// GetSecurityLevelRequirement implements transition.IdentitySigned.
func (t IdentityCreditTransfer) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return criticalSecurityLevel
}

// UniqueIdentifiers implements transition.StateTransition.
func (t IdentityCreditTransfer) UniqueIdentifiers() []string {
	return []string{nonceIdentifier(t.IdentityID, t.Nonce)}
}

func (t IdentityCreditTransfer) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

// Pooling is the pooling strategy of a withdrawal on the core chain.
type Pooling uint8

const (
	// PoolingNever sends the withdrawal on its own.
	PoolingNever Pooling = iota
	// PoolingIfAvailable joins a pool if one is open.
	PoolingIfAvailable
	// PoolingStandard always waits for a pool.
	PoolingStandard
)

var withdrawalPurposes = []identity.Purpose{identity.Transfer, identity.Owner}

// IdentityCreditWithdrawal sends credits of an identity back to the core
// chain.
//
// - implements transition.IdentitySigned
type IdentityCreditWithdrawal struct {
	Version              uint16           `cbor:"-"`
	IdentityID           types.Identifier `cbor:"1,keyasint"`
	Amount               uint64           `cbor:"2,keyasint"`
	CoreFeePerByte       uint32           `cbor:"3,keyasint"`
	Pooling              Pooling          `cbor:"4,keyasint"`
	OutputScript         []byte           `cbor:"5,keyasint"`
	Nonce                uint64           `cbor:"6,keyasint"`
	UserFeeIncrease      uint16           `cbor:"7,keyasint"`
	SignaturePublicKeyID uint32           `cbor:"8,keyasint"`
	Signature            []byte           `cbor:"9,keyasint"`
}

// GetType implements transition.StateTransition.
func (t IdentityCreditWithdrawal) GetType() Type {
	return IdentityCreditWithdrawalType
}

// GetVersion implements transition.StateTransition.
func (t IdentityCreditWithdrawal) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition.
func (t IdentityCreditWithdrawal) GetOwnerID() types.Identifier {
	return t.IdentityID
}

// GetUserFeeIncrease implements transition.StateTransition.
func (t IdentityCreditWithdrawal) GetUserFeeIncrease() uint16 {
	return t.UserFeeIncrease
}

// GetSignature implements transition.StateTransition.
func (t IdentityCreditWithdrawal) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t IdentityCreditWithdrawal) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t IdentityCreditWithdrawal) GetPurposeRequirement() []identity.Purpose {
	return withdrawalPurposes
}

// GetSecurityLevelRequirement implements transition.IdentitySigned.
func (t IdentityCreditWithdrawal) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return criticalSecurityLevel
}

// UniqueIdentifiers implements transition.StateTransition.
func (t IdentityCreditWithdrawal) UniqueIdentifiers() []string {
	return []string{nonceIdentifier(t.IdentityID, t.Nonce)}
}

func (t IdentityCreditWithdrawal) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

package consensus

import (
	"fmt"

	"go.dedis.ch/dpp/core/types"
)

// Codes of the signature errors.
const (
	IdentityNotFoundCode Code = 20000 + iota
	InvalidStateTransitionSignatureCode
	MissingPublicKeyCode
	PublicKeyIsDisabledCode
	InvalidSignaturePublicKeySecurityLevelCode
	InvalidSignaturePublicKeyPurposeCode
	InvalidIdentityPublicKeyTypeCode
	SignatureShouldNotBePresentCode
)

// IdentityNotFoundError is returned when the signer identity does not exist.
type IdentityNotFoundError struct {
	IdentityID types.Identifier
}

// Code implements consensus.Error.
func (e IdentityNotFoundError) Code() Code {
	return IdentityNotFoundCode
}

// Family implements consensus.Error.
func (e IdentityNotFoundError) Family() Family {
	return Signature
}

// Error implements error.
func (e IdentityNotFoundError) Error() string {
	return fmt.Sprintf("identity %v not found", e.IdentityID)
}

// InvalidStateTransitionSignatureError is returned when the signature does not verify.
type InvalidStateTransitionSignatureError struct{}

// Code implements consensus.Error.
func (e InvalidStateTransitionSignatureError) Code() Code {
	return InvalidStateTransitionSignatureCode
}

// Family implements consensus.Error.
func (e InvalidStateTransitionSignatureError) Family() Family {
	return Signature
}

// Error implements error.
func (e InvalidStateTransitionSignatureError) Error() string {
	return "invalid state transition signature"
}

// MissingPublicKeyError is returned when the signer identity has no key with the identifier.
type MissingPublicKeyError struct {
	PublicKeyID uint32
}

// Code implements consensus.Error.
func (e MissingPublicKeyError) Code() Code {
	return MissingPublicKeyCode
}

// Family implements consensus.Error.
func (e MissingPublicKeyError) Family() Family {
	return Signature
}

// Error implements error.
func (e MissingPublicKeyError) Error() string {
	return fmt.Sprintf("public key %d not found", e.PublicKeyID)
}

// PublicKeyIsDisabledError is returned when the signing key is disabled.
type PublicKeyIsDisabledError struct {
	PublicKeyID uint32
}

// Code implements consensus.Error.
func (e PublicKeyIsDisabledError) Code() Code {
	return PublicKeyIsDisabledCode
}

// Family implements consensus.Error.
func (e PublicKeyIsDisabledError) Family() Family {
	return Signature
}

// Error implements error.
func (e PublicKeyIsDisabledError) Error() string {
	return fmt.Sprintf("public key %d is disabled", e.PublicKeyID)
}

// InvalidSignaturePublicKeySecurityLevelError is returned when the signing key does not have an allowed security level.
type InvalidSignaturePublicKeySecurityLevelError struct {
	SecurityLevel uint8
	Allowed       []uint8
}

// Code implements consensus.Error.
func (e InvalidSignaturePublicKeySecurityLevelError) Code() Code {
	return InvalidSignaturePublicKeySecurityLevelCode
}

// Family implements consensus.Error.
func (e InvalidSignaturePublicKeySecurityLevelError) Family() Family {
	return Signature
}

// Error implements error.
func (e InvalidSignaturePublicKeySecurityLevelError) Error() string {
	return fmt.Sprintf("public key security level %d is not allowed: expected one of %v", e.SecurityLevel, e.Allowed)
}

// InvalidSignaturePublicKeyPurposeError is returned when the signing key does not have an allowed purpose.
type InvalidSignaturePublicKeyPurposeError struct {
	Purpose uint8
	Allowed []uint8
}

// Code implements consensus.Error.
func (e InvalidSignaturePublicKeyPurposeError) Code() Code {
	return InvalidSignaturePublicKeyPurposeCode
}

// Family implements consensus.Error.
func (e InvalidSignaturePublicKeyPurposeError) Family() Family {
	return Signature
}

// Error implements error.
func (e InvalidSignaturePublicKeyPurposeError) Error() string {
	return fmt.Sprintf("public key purpose %d is not allowed: expected one of %v", e.Purpose, e.Allowed)
}

// InvalidIdentityPublicKeyTypeError is returned when the key type cannot sign transitions.
type InvalidIdentityPublicKeyTypeError struct {
	KeyType uint8
}

// Code implements consensus.Error.
func (e InvalidIdentityPublicKeyTypeError) Code() Code {
	return InvalidIdentityPublicKeyTypeCode
}

// Family implements consensus.Error.
func (e InvalidIdentityPublicKeyTypeError) Family() Family {
	return Signature
}

// Error implements error.
func (e InvalidIdentityPublicKeyTypeError) Error() string {
	return fmt.Sprintf("invalid public key type %d", e.KeyType)
}

// SignatureShouldNotBePresentError is returned when a signature is attached where none is expected.
type SignatureShouldNotBePresentError struct {
	Message string
}

// Code implements consensus.Error.
func (e SignatureShouldNotBePresentError) Code() Code {
	return SignatureShouldNotBePresentCode
}

// Family implements consensus.Error.
func (e SignatureShouldNotBePresentError) Family() Family {
	return Signature
}

// Error implements error.
func (e SignatureShouldNotBePresentError) Error() string {
	return fmt.Sprintf("signature should not be present: %s", e.Message)
}

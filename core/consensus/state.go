package consensus

import (
	"fmt"

	"go.dedis.ch/dpp/core/types"
)

// Codes of the state errors.
const (
	DataContractAlreadyPresentCode Code = 40000 + iota
	DataContractIsReadonlyCode
	DataContractUpdateOwnerMismatchCode
	IdentityAlreadyExistsCode
	InvalidIdentityRevisionCode
	InvalidIdentityNonceCode
	IdentityInsufficientBalanceCode
	DocumentAlreadyPresentCode
	DocumentNotFoundCode
	DocumentOwnerIDMismatchCode
	InvalidDocumentRevisionCode
	DocumentNotMutableCode
	DuplicateUniqueIndexCode
	DuplicatedIdentityPublicKeyIDStateCode
	MissingIdentityPublicKeyIDsCode
	IdentityPublicKeyIsReadOnlyCode
	IdentityPublicKeyIsDisabledCode
	PrefundedSpecializedBalanceNotFoundCode
	PrefundedSpecializedBalanceInsufficientCode
	MasternodeNotFoundCode
	MasternodeVotedTooManyTimesCode
	IdentityDoesNotHaveEnoughTokenBalanceCode
	UnauthorizedTokenActionCode
	TokenMaxSupplyExceededCode
	RecipientIdentityDoesNotExistCode
	DocumentNotForSaleCode
	DocumentIncorrectPurchasePriceCode
	IdentityTokenAccountFrozenCode
	IdentityTokenAccountNotFrozenCode
	IdentityTokenAccountAlreadyFrozenCode
)

// DataContractAlreadyPresentError is returned when a contract with the identifier already exists.
type DataContractAlreadyPresentError struct {
	DataContractID types.Identifier
}

// Code implements consensus.Error.
func (e DataContractAlreadyPresentError) Code() Code {
	return DataContractAlreadyPresentCode
}

// Family implements consensus.Error.
func (e DataContractAlreadyPresentError) Family() Family {
	return State
}

// Error implements error.
func (e DataContractAlreadyPresentError) Error() string {
	return fmt.Sprintf("data contract %v is already present", e.DataContractID)
}

// DataContractIsReadonlyError is returned when the contract cannot be updated.
type DataContractIsReadonlyError struct {
	DataContractID types.Identifier
}

// Code implements consensus.Error.
func (e DataContractIsReadonlyError) Code() Code {
	return DataContractIsReadonlyCode
}

// Family implements consensus.Error.
func (e DataContractIsReadonlyError) Family() Family {
	return State
}

// Error implements error.
func (e DataContractIsReadonlyError) Error() string {
	return fmt.Sprintf("data contract %v is read-only", e.DataContractID)
}

// DataContractUpdateOwnerMismatchError is returned when only the owner can update the contract.
type DataContractUpdateOwnerMismatchError struct {
	DataContractID types.Identifier
	OwnerID        types.Identifier
}

// Code implements consensus.Error.
func (e DataContractUpdateOwnerMismatchError) Code() Code {
	return DataContractUpdateOwnerMismatchCode
}

// Family implements consensus.Error.
func (e DataContractUpdateOwnerMismatchError) Family() Family {
	return State
}

// Error implements error.
func (e DataContractUpdateOwnerMismatchError) Error() string {
	return fmt.Sprintf("data contract %v is not owned by %v", e.DataContractID, e.OwnerID)
}

// IdentityAlreadyExistsError is returned when an identity with the identifier already exists.
type IdentityAlreadyExistsError struct {
	IdentityID types.Identifier
}

// Code implements consensus.Error.
func (e IdentityAlreadyExistsError) Code() Code {
	return IdentityAlreadyExistsCode
}

// Family implements consensus.Error.
func (e IdentityAlreadyExistsError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityAlreadyExistsError) Error() string {
	return fmt.Sprintf("identity %v already exists", e.IdentityID)
}

// InvalidIdentityRevisionError is returned when the declared revision does not follow the stored one.
type InvalidIdentityRevisionError struct {
	IdentityID      types.Identifier
	CurrentRevision uint64
}

// Code implements consensus.Error.
func (e InvalidIdentityRevisionError) Code() Code {
	return InvalidIdentityRevisionCode
}

// Family implements consensus.Error.
func (e InvalidIdentityRevisionError) Family() Family {
	return State
}

// Error implements error.
func (e InvalidIdentityRevisionError) Error() string {
	return fmt.Sprintf("identity %v has unexpected revision: current revision is %d", e.IdentityID, e.CurrentRevision)
}

// InvalidIdentityNonceError is returned when the nonce is not acceptable for the identity.
type InvalidIdentityNonceError struct {
	IdentityID   types.Identifier
	CurrentNonce uint64
	SettingNonce uint64
	Reason       string
}

// Code implements consensus.Error.
func (e InvalidIdentityNonceError) Code() Code {
	return InvalidIdentityNonceCode
}

// Family implements consensus.Error.
func (e InvalidIdentityNonceError) Family() Family {
	return State
}

// Error implements error.
func (e InvalidIdentityNonceError) Error() string {
	return fmt.Sprintf("invalid nonce %d for identity %v with current nonce %d: %s", e.SettingNonce, e.IdentityID, e.CurrentNonce, e.Reason)
}

// IdentityInsufficientBalanceError is returned when the identity cannot afford the transition.
type IdentityInsufficientBalanceError struct {
	IdentityID      types.Identifier
	Balance         uint64
	RequiredBalance uint64
}

// Code implements consensus.Error.
func (e IdentityInsufficientBalanceError) Code() Code {
	return IdentityInsufficientBalanceCode
}

// Family implements consensus.Error.
func (e IdentityInsufficientBalanceError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityInsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance %d for identity %v: required %d", e.Balance, e.IdentityID, e.RequiredBalance)
}

// DocumentAlreadyPresentError is returned when a document with the identifier already exists.
type DocumentAlreadyPresentError struct {
	DocumentID types.Identifier
}

// Code implements consensus.Error.
func (e DocumentAlreadyPresentError) Code() Code {
	return DocumentAlreadyPresentCode
}

// Family implements consensus.Error.
func (e DocumentAlreadyPresentError) Family() Family {
	return State
}

// Error implements error.
func (e DocumentAlreadyPresentError) Error() string {
	return fmt.Sprintf("document %v is already present", e.DocumentID)
}

// DocumentNotFoundError is returned when the document does not exist.
type DocumentNotFoundError struct {
	DocumentID types.Identifier
}

// Code implements consensus.Error.
func (e DocumentNotFoundError) Code() Code {
	return DocumentNotFoundCode
}

// Family implements consensus.Error.
func (e DocumentNotFoundError) Family() Family {
	return State
}

// Error implements error.
func (e DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %v not found", e.DocumentID)
}

// DocumentOwnerIDMismatchError is returned when the document belongs to another identity.
type DocumentOwnerIDMismatchError struct {
	DocumentID              types.Identifier
	DocumentOwnerID         types.Identifier
	ExistingDocumentOwnerID types.Identifier
}

// Code implements consensus.Error.
func (e DocumentOwnerIDMismatchError) Code() Code {
	return DocumentOwnerIDMismatchCode
}

// Family implements consensus.Error.
func (e DocumentOwnerIDMismatchError) Family() Family {
	return State
}

// Error implements error.
func (e DocumentOwnerIDMismatchError) Error() string {
	return fmt.Sprintf("document %v is owned by %v, not %v", e.DocumentID, e.ExistingDocumentOwnerID, e.DocumentOwnerID)
}

// InvalidDocumentRevisionError is returned when the document revision does not follow the stored one.
type InvalidDocumentRevisionError struct {
	DocumentID      types.Identifier
	CurrentRevision uint64
}

// Code implements consensus.Error.
func (e InvalidDocumentRevisionError) Code() Code {
	return InvalidDocumentRevisionCode
}

// Family implements consensus.Error.
func (e InvalidDocumentRevisionError) Family() Family {
	return State
}

// Error implements error.
func (e InvalidDocumentRevisionError) Error() string {
	return fmt.Sprintf("document %v has unexpected revision: current revision is %d", e.DocumentID, e.CurrentRevision)
}

// DocumentNotMutableError is returned when the document type does not allow the operation.
type DocumentNotMutableError struct {
	DocumentID   types.Identifier
	DocumentType string
}

// Code implements consensus.Error.
func (e DocumentNotMutableError) Code() Code {
	return DocumentNotMutableCode
}

// Family implements consensus.Error.
func (e DocumentNotMutableError) Family() Family {
	return State
}

// Error implements error.
func (e DocumentNotMutableError) Error() string {
	return fmt.Sprintf("document %v of type %s cannot be changed", e.DocumentID, e.DocumentType)
}

// DuplicateUniqueIndexError is returned when another document holds the unique index values.
type DuplicateUniqueIndexError struct {
	DocumentID            types.Identifier
	IndexName             string
	DuplicatingProperties []string
}

// Code implements consensus.Error.
func (e DuplicateUniqueIndexError) Code() Code {
	return DuplicateUniqueIndexCode
}

// Family implements consensus.Error.
func (e DuplicateUniqueIndexError) Family() Family {
	return State
}

// Error implements error.
func (e DuplicateUniqueIndexError) Error() string {
	return fmt.Sprintf("document %v duplicates unique index %s on %v", e.DocumentID, e.IndexName, e.DuplicatingProperties)
}

// DuplicatedIdentityPublicKeyIDStateError is returned when a new key identifier is already used by the identity.
type DuplicatedIdentityPublicKeyIDStateError struct {
	PublicKeyIDs []uint32
}

// Code implements consensus.Error.
func (e DuplicatedIdentityPublicKeyIDStateError) Code() Code {
	return DuplicatedIdentityPublicKeyIDStateCode
}

// Family implements consensus.Error.
func (e DuplicatedIdentityPublicKeyIDStateError) Family() Family {
	return State
}

// Error implements error.
func (e DuplicatedIdentityPublicKeyIDStateError) Error() string {
	return fmt.Sprintf("public key ids %v already exist", e.PublicKeyIDs)
}

// MissingIdentityPublicKeyIDsError is returned when keys to disable do not exist.
type MissingIdentityPublicKeyIDsError struct {
	PublicKeyIDs []uint32
}

// Code implements consensus.Error.
func (e MissingIdentityPublicKeyIDsError) Code() Code {
	return MissingIdentityPublicKeyIDsCode
}

// Family implements consensus.Error.
func (e MissingIdentityPublicKeyIDsError) Family() Family {
	return State
}

// Error implements error.
func (e MissingIdentityPublicKeyIDsError) Error() string {
	return fmt.Sprintf("public key ids %v do not exist", e.PublicKeyIDs)
}

// IdentityPublicKeyIsReadOnlyError is returned when the key cannot be disabled.
type IdentityPublicKeyIsReadOnlyError struct {
	PublicKeyID uint32
}

// Code implements consensus.Error.
func (e IdentityPublicKeyIsReadOnlyError) Code() Code {
	return IdentityPublicKeyIsReadOnlyCode
}

// Family implements consensus.Error.
func (e IdentityPublicKeyIsReadOnlyError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityPublicKeyIsReadOnlyError) Error() string {
	return fmt.Sprintf("public key %d is read-only", e.PublicKeyID)
}

// IdentityPublicKeyIsDisabledError is returned when the key is already disabled.
type IdentityPublicKeyIsDisabledError struct {
	PublicKeyID uint32
}

// Code implements consensus.Error.
func (e IdentityPublicKeyIsDisabledError) Code() Code {
	return IdentityPublicKeyIsDisabledCode
}

// Family implements consensus.Error.
func (e IdentityPublicKeyIsDisabledError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityPublicKeyIsDisabledError) Error() string {
	return fmt.Sprintf("public key %d is already disabled", e.PublicKeyID)
}

// PrefundedSpecializedBalanceNotFoundError is returned when the prefunded balance does not exist or is empty.
type PrefundedSpecializedBalanceNotFoundError struct {
	BalanceID types.Identifier
}

// Code implements consensus.Error.
func (e PrefundedSpecializedBalanceNotFoundError) Code() Code {
	return PrefundedSpecializedBalanceNotFoundCode
}

// Family implements consensus.Error.
func (e PrefundedSpecializedBalanceNotFoundError) Family() Family {
	return State
}

// Error implements error.
func (e PrefundedSpecializedBalanceNotFoundError) Error() string {
	return fmt.Sprintf("prefunded specialized balance %v not found", e.BalanceID)
}

// PrefundedSpecializedBalanceInsufficientError is returned when the prefunded balance cannot pay the vote.
type PrefundedSpecializedBalanceInsufficientError struct {
	BalanceID types.Identifier
	Balance   uint64
	Required  uint64
}

// Code implements consensus.Error.
func (e PrefundedSpecializedBalanceInsufficientError) Code() Code {
	return PrefundedSpecializedBalanceInsufficientCode
}

// Family implements consensus.Error.
func (e PrefundedSpecializedBalanceInsufficientError) Family() Family {
	return State
}

// Error implements error.
func (e PrefundedSpecializedBalanceInsufficientError) Error() string {
	return fmt.Sprintf("prefunded specialized balance %v has %d credits, %d required", e.BalanceID, e.Balance, e.Required)
}

// MasternodeNotFoundError is returned when the masternode is not registered.
type MasternodeNotFoundError struct {
	ProTxHash types.Identifier
}

// Code implements consensus.Error.
func (e MasternodeNotFoundError) Code() Code {
	return MasternodeNotFoundCode
}

// Family implements consensus.Error.
func (e MasternodeNotFoundError) Family() Family {
	return State
}

// Error implements error.
func (e MasternodeNotFoundError) Error() string {
	return fmt.Sprintf("masternode %v not found", e.ProTxHash)
}

// MasternodeVotedTooManyTimesError is returned when the masternode changed its vote too many times.
type MasternodeVotedTooManyTimesError struct {
	ProTxHash         types.Identifier
	TimesAlreadyVoted uint16
	MaxTimesAllowed   uint16
}

// Code implements consensus.Error.
func (e MasternodeVotedTooManyTimesError) Code() Code {
	return MasternodeVotedTooManyTimesCode
}

// Family implements consensus.Error.
func (e MasternodeVotedTooManyTimesError) Family() Family {
	return State
}

// Error implements error.
func (e MasternodeVotedTooManyTimesError) Error() string {
	return fmt.Sprintf("masternode %v already voted %d times: maximum is %d", e.ProTxHash, e.TimesAlreadyVoted, e.MaxTimesAllowed)
}

// IdentityDoesNotHaveEnoughTokenBalanceError is returned when the identity does not hold enough tokens.
type IdentityDoesNotHaveEnoughTokenBalanceError struct {
	TokenID         types.Identifier
	IdentityID      types.Identifier
	RequiredBalance uint64
	Balance         uint64
}

// Code implements consensus.Error.
func (e IdentityDoesNotHaveEnoughTokenBalanceError) Code() Code {
	return IdentityDoesNotHaveEnoughTokenBalanceCode
}

// Family implements consensus.Error.
func (e IdentityDoesNotHaveEnoughTokenBalanceError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityDoesNotHaveEnoughTokenBalanceError) Error() string {
	return fmt.Sprintf("identity %v has %d tokens of %v: required %d", e.IdentityID, e.Balance, e.TokenID, e.RequiredBalance)
}

// UnauthorizedTokenActionError is returned when the identity is not allowed to perform the token action.
type UnauthorizedTokenActionError struct {
	TokenID    types.Identifier
	IdentityID types.Identifier
	Action     string
}

// Code implements consensus.Error.
func (e UnauthorizedTokenActionError) Code() Code {
	return UnauthorizedTokenActionCode
}

// Family implements consensus.Error.
func (e UnauthorizedTokenActionError) Family() Family {
	return State
}

// Error implements error.
func (e UnauthorizedTokenActionError) Error() string {
	return fmt.Sprintf("identity %v is not allowed to %s token %v", e.IdentityID, e.Action, e.TokenID)
}

// TokenMaxSupplyExceededError is returned when minting would exceed the maximum supply.
type TokenMaxSupplyExceededError struct {
	TokenID   types.Identifier
	MaxSupply uint64
	Supply    uint64
	Amount    uint64
}

// Code implements consensus.Error.
func (e TokenMaxSupplyExceededError) Code() Code {
	return TokenMaxSupplyExceededCode
}

// Family implements consensus.Error.
func (e TokenMaxSupplyExceededError) Family() Family {
	return State
}

// Error implements error.
func (e TokenMaxSupplyExceededError) Error() string {
	return fmt.Sprintf("minting %d of token %v exceeds max supply %d with current supply %d", e.Amount, e.TokenID, e.MaxSupply, e.Supply)
}

// RecipientIdentityDoesNotExistError is returned when the recipient identity does not exist.
type RecipientIdentityDoesNotExistError struct {
	RecipientID types.Identifier
}

// Code implements consensus.Error.
func (e RecipientIdentityDoesNotExistError) Code() Code {
	return RecipientIdentityDoesNotExistCode
}

// Family implements consensus.Error.
func (e RecipientIdentityDoesNotExistError) Family() Family {
	return State
}

// Error implements error.
func (e RecipientIdentityDoesNotExistError) Error() string {
	return fmt.Sprintf("recipient identity %v does not exist", e.RecipientID)
}

// DocumentNotForSaleError is returned when a document without price is purchased.
type DocumentNotForSaleError struct {
	DocumentID types.Identifier
}

// Code implements consensus.Error.
func (e DocumentNotForSaleError) Code() Code {
	return DocumentNotForSaleCode
}

// Family implements consensus.Error.
func (e DocumentNotForSaleError) Family() Family {
	return State
}

// Error implements error.
func (e DocumentNotForSaleError) Error() string {
	return fmt.Sprintf("document %v is not for sale", e.DocumentID)
}

// DocumentIncorrectPurchasePriceError is returned when the purchase price is not the price of the document.
type DocumentIncorrectPurchasePriceError struct {
	DocumentID   types.Identifier
	OfferedPrice types.Credits
	ActualPrice  types.Credits
}

// Code implements consensus.Error.
func (e DocumentIncorrectPurchasePriceError) Code() Code {
	return DocumentIncorrectPurchasePriceCode
}

// Family implements consensus.Error.
func (e DocumentIncorrectPurchasePriceError) Family() Family {
	return State
}

// Error implements error.
func (e DocumentIncorrectPurchasePriceError) Error() string {
	return fmt.Sprintf("document %v costs %d: offered %d", e.DocumentID, e.ActualPrice, e.OfferedPrice)
}

// IdentityTokenAccountFrozenError is returned when the identity sends tokens that are frozen.
type IdentityTokenAccountFrozenError struct {
	TokenID    types.Identifier
	IdentityID types.Identifier
	Action     string
}

// Code implements consensus.Error.
func (e IdentityTokenAccountFrozenError) Code() Code {
	return IdentityTokenAccountFrozenCode
}

// Family implements consensus.Error.
func (e IdentityTokenAccountFrozenError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityTokenAccountFrozenError) Error() string {
	return fmt.Sprintf("identity %v cannot %s token %v: account is frozen", e.IdentityID, e.Action, e.TokenID)
}

// IdentityTokenAccountNotFrozenError is returned when unfreezing tokens that are not frozen.
type IdentityTokenAccountNotFrozenError struct {
	TokenID    types.Identifier
	IdentityID types.Identifier
}

// Code implements consensus.Error.
func (e IdentityTokenAccountNotFrozenError) Code() Code {
	return IdentityTokenAccountNotFrozenCode
}

// Family implements consensus.Error.
func (e IdentityTokenAccountNotFrozenError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityTokenAccountNotFrozenError) Error() string {
	return fmt.Sprintf("token %v of identity %v is not frozen", e.TokenID, e.IdentityID)
}

// IdentityTokenAccountAlreadyFrozenError is returned when freezing tokens that are already frozen.
type IdentityTokenAccountAlreadyFrozenError struct {
	TokenID    types.Identifier
	IdentityID types.Identifier
}

// Code implements consensus.Error.
func (e IdentityTokenAccountAlreadyFrozenError) Code() Code {
	return IdentityTokenAccountAlreadyFrozenCode
}

// Family implements consensus.Error.
func (e IdentityTokenAccountAlreadyFrozenError) Family() Family {
	return State
}

// Error implements error.
func (e IdentityTokenAccountAlreadyFrozenError) Error() string {
	return fmt.Sprintf("token %v of identity %v is already frozen", e.TokenID, e.IdentityID)
}

package consensus

import (
	"fmt"

	"go.dedis.ch/dpp/core/types"
)

// Codes of the basic errors.
const (
	UnknownStateTransitionTypeCode Code = 10000 + iota
	UnsupportedVersionCode
	SerializedObjectParsingCode
	UnsupportedFeatureCode
	InvalidSignatureSizeCode
	InvalidIdentityPublicKeyDataCode
	DuplicatedIdentityPublicKeyIDCode
	DuplicatedIdentityPublicKeyCode
	MissingMasterPublicKeyCode
	MaxIdentityPublicKeyLimitReachedCode
	InvalidIdentityCreditTransferAmountCode
	IdentityCreditTransferToSelfCode
	InvalidIdentityCreditWithdrawalAmountCode
	InvalidCreditWithdrawalOutputScriptCode
	InvalidInstantAssetLockProofCode
	InvalidInstantAssetLockProofSignatureCode
	InvalidAssetLockProofCoreChainHeightCode
	InvalidAssetLockProofTransactionHeightCode
	IdentityAssetLockTransactionOutputNotFoundCode
	InvalidAssetLockTransactionOutputScriptCode
	IdentityAssetLockTransactionOutPointAlreadyConsumedCode
	IdentityAssetLockTransactionOutPointNotEnoughBalanceCode
	InvalidIdentityAssetLockProofChainLockValidationCode
	DataContractNotPresentCode
	InvalidDataContractIDCode
	InvalidDataContractVersionCode
	DataContractEmptySchemaCode
	DataContractMaxDocumentTypesExceededCode
	InvalidIndexCode
	IncompatibleDataContractSchemaCode
	InvalidDocumentTypeCode
	DocumentTransitionsAreAbsentCode
	MaxDocumentsTransitionsExceededCode
	DuplicateDocumentTransitionsWithIDsCode
	InvalidDocumentTransitionIDCode
	InvalidTokenIDCode
	InvalidTokenAmountCode
	NonceOutOfBoundsCode
	InvalidVotePollCode
)

// UnknownStateTransitionTypeError is returned when the type byte of the transition is not known.
type UnknownStateTransitionTypeError struct {
	Type uint8
}

// Code implements consensus.Error.
func (e UnknownStateTransitionTypeError) Code() Code {
	return UnknownStateTransitionTypeCode
}

// Family implements consensus.Error.
func (e UnknownStateTransitionTypeError) Family() Family {
	return Basic
}

// Error implements error.
func (e UnknownStateTransitionTypeError) Error() string {
	return fmt.Sprintf("unknown state transition type %d", e.Type)
}

// UnsupportedVersionError is returned when the wire version of the transition is outside the accepted bounds.
type UnsupportedVersionError struct {
	Type     uint8
	Received uint16
	Min      uint16
	Max      uint16
}

// Code implements consensus.Error.
func (e UnsupportedVersionError) Code() Code {
	return UnsupportedVersionCode
}

// Family implements consensus.Error.
func (e UnsupportedVersionError) Family() Family {
	return Basic
}

// Error implements error.
func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version %d for state transition type %d: expected between %d and %d", e.Received, e.Type, e.Min, e.Max)
}

// SerializedObjectParsingError is returned when the transition cannot be decoded.
type SerializedObjectParsingError struct {
	Message string
}

// Code implements consensus.Error.
func (e SerializedObjectParsingError) Code() Code {
	return SerializedObjectParsingCode
}

// Family implements consensus.Error.
func (e SerializedObjectParsingError) Family() Family {
	return Basic
}

// Error implements error.
func (e SerializedObjectParsingError) Error() string {
	return fmt.Sprintf("parsing of serialized object failed: %s", e.Message)
}

// UnsupportedFeatureError is returned when the transition uses a feature not available in its version.
type UnsupportedFeatureError struct {
	Feature string
	Version uint16
}

// Code implements consensus.Error.
func (e UnsupportedFeatureError) Code() Code {
	return UnsupportedFeatureCode
}

// Family implements consensus.Error.
func (e UnsupportedFeatureError) Family() Family {
	return Basic
}

// Error implements error.
func (e UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("feature %s is not supported in version %d", e.Feature, e.Version)
}

// InvalidSignatureSizeError is returned when the signature does not have the size required by the key type.
type InvalidSignatureSizeError struct {
	Expected int
	Actual   int
}

// Code implements consensus.Error.
func (e InvalidSignatureSizeError) Code() Code {
	return InvalidSignatureSizeCode
}

// Family implements consensus.Error.
func (e InvalidSignatureSizeError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidSignatureSizeError) Error() string {
	return fmt.Sprintf("invalid signature size: expected %d, got %d", e.Expected, e.Actual)
}

// InvalidIdentityPublicKeyDataError is returned when the data of a public key is malformed.
type InvalidIdentityPublicKeyDataError struct {
	PublicKeyID uint32
	Message     string
}

// Code implements consensus.Error.
func (e InvalidIdentityPublicKeyDataError) Code() Code {
	return InvalidIdentityPublicKeyDataCode
}

// Family implements consensus.Error.
func (e InvalidIdentityPublicKeyDataError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidIdentityPublicKeyDataError) Error() string {
	return fmt.Sprintf("invalid data for public key %d: %s", e.PublicKeyID, e.Message)
}

// DuplicatedIdentityPublicKeyIDError is returned when the same key identifier is declared twice.
type DuplicatedIdentityPublicKeyIDError struct {
	PublicKeyIDs []uint32
}

// Code implements consensus.Error.
func (e DuplicatedIdentityPublicKeyIDError) Code() Code {
	return DuplicatedIdentityPublicKeyIDCode
}

// Family implements consensus.Error.
func (e DuplicatedIdentityPublicKeyIDError) Family() Family {
	return Basic
}

// Error implements error.
func (e DuplicatedIdentityPublicKeyIDError) Error() string {
	return fmt.Sprintf("duplicated public key ids %v", e.PublicKeyIDs)
}

// DuplicatedIdentityPublicKeyError is returned when the same key data is declared twice.
type DuplicatedIdentityPublicKeyError struct {
	PublicKeyIDs []uint32
}

// Code implements consensus.Error.
func (e DuplicatedIdentityPublicKeyError) Code() Code {
	return DuplicatedIdentityPublicKeyCode
}

// Family implements consensus.Error.
func (e DuplicatedIdentityPublicKeyError) Family() Family {
	return Basic
}

// Error implements error.
func (e DuplicatedIdentityPublicKeyError) Error() string {
	return fmt.Sprintf("duplicated public keys %v", e.PublicKeyIDs)
}

// MissingMasterPublicKeyError is returned when a new identity has no master authentication key.
type MissingMasterPublicKeyError struct{}

// Code implements consensus.Error.
func (e MissingMasterPublicKeyError) Code() Code {
	return MissingMasterPublicKeyCode
}

// Family implements consensus.Error.
func (e MissingMasterPublicKeyError) Family() Family {
	return Basic
}

// Error implements error.
func (e MissingMasterPublicKeyError) Error() string {
	return "missing master public key"
}

// MaxIdentityPublicKeyLimitReachedError is returned when too many keys are added at once.
type MaxIdentityPublicKeyLimitReachedError struct {
	Max int
}

// Code implements consensus.Error.
func (e MaxIdentityPublicKeyLimitReachedError) Code() Code {
	return MaxIdentityPublicKeyLimitReachedCode
}

// Family implements consensus.Error.
func (e MaxIdentityPublicKeyLimitReachedError) Family() Family {
	return Basic
}

// Error implements error.
func (e MaxIdentityPublicKeyLimitReachedError) Error() string {
	return fmt.Sprintf("too many public keys: maximum is %d", e.Max)
}

// InvalidIdentityCreditTransferAmountError is returned when the transfer amount is below the minimum.
type InvalidIdentityCreditTransferAmountError struct {
	Amount    uint64
	MinAmount uint64
}

// Code implements consensus.Error.
func (e InvalidIdentityCreditTransferAmountError) Code() Code {
	return InvalidIdentityCreditTransferAmountCode
}

// Family implements consensus.Error.
func (e InvalidIdentityCreditTransferAmountError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidIdentityCreditTransferAmountError) Error() string {
	return fmt.Sprintf("invalid credit transfer amount %d: minimum is %d", e.Amount, e.MinAmount)
}

// IdentityCreditTransferToSelfError is returned when the recipient of a transfer is its sender.
type IdentityCreditTransferToSelfError struct{}

// Code implements consensus.Error.
func (e IdentityCreditTransferToSelfError) Code() Code {
	return IdentityCreditTransferToSelfCode
}

// Family implements consensus.Error.
func (e IdentityCreditTransferToSelfError) Family() Family {
	return Basic
}

// Error implements error.
func (e IdentityCreditTransferToSelfError) Error() string {
	return "credit transfer to self is not allowed"
}

// InvalidIdentityCreditWithdrawalAmountError is returned when the withdrawal amount is below the minimum.
type InvalidIdentityCreditWithdrawalAmountError struct {
	Amount    uint64
	MinAmount uint64
}

// Code implements consensus.Error.
func (e InvalidIdentityCreditWithdrawalAmountError) Code() Code {
	return InvalidIdentityCreditWithdrawalAmountCode
}

// Family implements consensus.Error.
func (e InvalidIdentityCreditWithdrawalAmountError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidIdentityCreditWithdrawalAmountError) Error() string {
	return fmt.Sprintf("invalid credit withdrawal amount %d: minimum is %d", e.Amount, e.MinAmount)
}

// InvalidCreditWithdrawalOutputScriptError is returned when the withdrawal output script is not a pay-to-public-key-hash script.
type InvalidCreditWithdrawalOutputScriptError struct{}

// Code implements consensus.Error.
func (e InvalidCreditWithdrawalOutputScriptError) Code() Code {
	return InvalidCreditWithdrawalOutputScriptCode
}

// Family implements consensus.Error.
func (e InvalidCreditWithdrawalOutputScriptError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidCreditWithdrawalOutputScriptError) Error() string {
	return "invalid credit withdrawal output script"
}

// InvalidInstantAssetLockProofError is returned when the instant asset lock proof cannot be verified locally.
type InvalidInstantAssetLockProofError struct {
	Message string
}

// Code implements consensus.Error.
func (e InvalidInstantAssetLockProofError) Code() Code {
	return InvalidInstantAssetLockProofCode
}

// Family implements consensus.Error.
func (e InvalidInstantAssetLockProofError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidInstantAssetLockProofError) Error() string {
	return fmt.Sprintf("invalid instant asset lock proof: %s", e.Message)
}

// InvalidInstantAssetLockProofSignatureError is returned when the quorum signature of the instant lock is invalid.
type InvalidInstantAssetLockProofSignatureError struct{}

// Code implements consensus.Error.
func (e InvalidInstantAssetLockProofSignatureError) Code() Code {
	return InvalidInstantAssetLockProofSignatureCode
}

// Family implements consensus.Error.
func (e InvalidInstantAssetLockProofSignatureError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidInstantAssetLockProofSignatureError) Error() string {
	return "invalid instant lock proof signature"
}

// InvalidAssetLockProofCoreChainHeightError is returned when the chain proof refers to a height the platform has not reached.
type InvalidAssetLockProofCoreChainHeightError struct {
	ProofCoreChainLockedHeight   uint32
	CurrentCoreChainLockedHeight uint32
}

// Code implements consensus.Error.
func (e InvalidAssetLockProofCoreChainHeightError) Code() Code {
	return InvalidAssetLockProofCoreChainHeightCode
}

// Family implements consensus.Error.
func (e InvalidAssetLockProofCoreChainHeightError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidAssetLockProofCoreChainHeightError) Error() string {
	return fmt.Sprintf("asset lock proof core chain height %d is higher than the current height %d", e.ProofCoreChainLockedHeight, e.CurrentCoreChainLockedHeight)
}

// InvalidAssetLockProofTransactionHeightError is returned when the asset lock transaction is not yet chain locked.
type InvalidAssetLockProofTransactionHeightError struct {
	ProofCoreChainLockedHeight uint32
	TransactionHeight          uint32
}

// Code implements consensus.Error.
func (e InvalidAssetLockProofTransactionHeightError) Code() Code {
	return InvalidAssetLockProofTransactionHeightCode
}

// Family implements consensus.Error.
func (e InvalidAssetLockProofTransactionHeightError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidAssetLockProofTransactionHeightError) Error() string {
	return fmt.Sprintf("asset lock transaction at height %d is not covered by proof height %d", e.TransactionHeight, e.ProofCoreChainLockedHeight)
}

// IdentityAssetLockTransactionOutputNotFoundError is returned when the asset lock transaction does not have the output.
type IdentityAssetLockTransactionOutputNotFoundError struct {
	OutputIndex uint32
}

// Code implements consensus.Error.
func (e IdentityAssetLockTransactionOutputNotFoundError) Code() Code {
	return IdentityAssetLockTransactionOutputNotFoundCode
}

// Family implements consensus.Error.
func (e IdentityAssetLockTransactionOutputNotFoundError) Family() Family {
	return Basic
}

// Error implements error.
func (e IdentityAssetLockTransactionOutputNotFoundError) Error() string {
	return fmt.Sprintf("asset lock transaction output %d not found", e.OutputIndex)
}

// InvalidAssetLockTransactionOutputScriptError is returned when the credit output does not pay to a public key hash.
type InvalidAssetLockTransactionOutputScriptError struct {
	OutputIndex uint32
}

// Code implements consensus.Error.
func (e InvalidAssetLockTransactionOutputScriptError) Code() Code {
	return InvalidAssetLockTransactionOutputScriptCode
}

// Family implements consensus.Error.
func (e InvalidAssetLockTransactionOutputScriptError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidAssetLockTransactionOutputScriptError) Error() string {
	return fmt.Sprintf("asset lock transaction output %d has an invalid script", e.OutputIndex)
}

// IdentityAssetLockTransactionOutPointAlreadyConsumedError is returned when the asset lock outpoint has already been fully used.
type IdentityAssetLockTransactionOutPointAlreadyConsumedError struct {
	TransactionID [32]byte
	OutputIndex   uint32
}

// Code implements consensus.Error.
func (e IdentityAssetLockTransactionOutPointAlreadyConsumedError) Code() Code {
	return IdentityAssetLockTransactionOutPointAlreadyConsumedCode
}

// Family implements consensus.Error.
func (e IdentityAssetLockTransactionOutPointAlreadyConsumedError) Family() Family {
	return Basic
}

// Error implements error.
func (e IdentityAssetLockTransactionOutPointAlreadyConsumedError) Error() string {
	return fmt.Sprintf("asset lock outpoint %x:%d already consumed", e.TransactionID, e.OutputIndex)
}

// IdentityAssetLockTransactionOutPointNotEnoughBalanceError is returned when the asset lock outpoint does not carry enough credits.
type IdentityAssetLockTransactionOutPointNotEnoughBalanceError struct {
	TransactionID    [32]byte
	OutputIndex      uint32
	InitialCredits   uint64
	RemainingCredits uint64
	RequiredCredits  uint64
}

// Code implements consensus.Error.
func (e IdentityAssetLockTransactionOutPointNotEnoughBalanceError) Code() Code {
	return IdentityAssetLockTransactionOutPointNotEnoughBalanceCode
}

// Family implements consensus.Error.
func (e IdentityAssetLockTransactionOutPointNotEnoughBalanceError) Family() Family {
	return Basic
}

// Error implements error.
func (e IdentityAssetLockTransactionOutPointNotEnoughBalanceError) Error() string {
	return fmt.Sprintf("asset lock outpoint %x:%d has %d credits left out of %d, %d required", e.TransactionID, e.OutputIndex, e.RemainingCredits, e.InitialCredits, e.RequiredCredits)
}

// InvalidIdentityAssetLockProofChainLockValidationError is returned when the chain asset lock output cannot be fetched.
type InvalidIdentityAssetLockProofChainLockValidationError struct {
	TransactionID [32]byte
	Height        uint32
}

// Code implements consensus.Error.
func (e InvalidIdentityAssetLockProofChainLockValidationError) Code() Code {
	return InvalidIdentityAssetLockProofChainLockValidationCode
}

// Family implements consensus.Error.
func (e InvalidIdentityAssetLockProofChainLockValidationError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidIdentityAssetLockProofChainLockValidationError) Error() string {
	return fmt.Sprintf("asset lock transaction %x is not chain locked at height %d", e.TransactionID, e.Height)
}

// DataContractNotPresentError is returned when the referenced data contract does not exist.
type DataContractNotPresentError struct {
	DataContractID types.Identifier
}

// Code implements consensus.Error.
func (e DataContractNotPresentError) Code() Code {
	return DataContractNotPresentCode
}

// Family implements consensus.Error.
func (e DataContractNotPresentError) Family() Family {
	return Basic
}

// Error implements error.
func (e DataContractNotPresentError) Error() string {
	return fmt.Sprintf("data contract %v is not present", e.DataContractID)
}

// InvalidDataContractIDError is returned when the contract identifier is not derived from the owner and nonce.
type InvalidDataContractIDError struct {
	Expected types.Identifier
	Actual   types.Identifier
}

// Code implements consensus.Error.
func (e InvalidDataContractIDError) Code() Code {
	return InvalidDataContractIDCode
}

// Family implements consensus.Error.
func (e InvalidDataContractIDError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidDataContractIDError) Error() string {
	return fmt.Sprintf("invalid data contract id %v: expected %v", e.Actual, e.Expected)
}

// InvalidDataContractVersionError is returned when the contract version is not the expected one.
type InvalidDataContractVersionError struct {
	Expected uint32
	Actual   uint32
}

// Code implements consensus.Error.
func (e InvalidDataContractVersionError) Code() Code {
	return InvalidDataContractVersionCode
}

// Family implements consensus.Error.
func (e InvalidDataContractVersionError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidDataContractVersionError) Error() string {
	return fmt.Sprintf("invalid data contract version %d: expected %d", e.Actual, e.Expected)
}

// DataContractEmptySchemaError is returned when the contract defines neither document types nor tokens.
type DataContractEmptySchemaError struct{}

// Code implements consensus.Error.
func (e DataContractEmptySchemaError) Code() Code {
	return DataContractEmptySchemaCode
}

// Family implements consensus.Error.
func (e DataContractEmptySchemaError) Family() Family {
	return Basic
}

// Error implements error.
func (e DataContractEmptySchemaError) Error() string {
	return "data contract has no document types and no tokens"
}

// DataContractMaxDocumentTypesExceededError is returned when the contract defines too many document types.
type DataContractMaxDocumentTypesExceededError struct {
	Max int
}

// Code implements consensus.Error.
func (e DataContractMaxDocumentTypesExceededError) Code() Code {
	return DataContractMaxDocumentTypesExceededCode
}

// Family implements consensus.Error.
func (e DataContractMaxDocumentTypesExceededError) Family() Family {
	return Basic
}

// Error implements error.
func (e DataContractMaxDocumentTypesExceededError) Error() string {
	return fmt.Sprintf("data contract has too many document types: maximum is %d", e.Max)
}

// InvalidIndexError is returned when an index of a document type is malformed.
type InvalidIndexError struct {
	DocumentType string
	IndexName    string
	Message      string
}

// Code implements consensus.Error.
func (e InvalidIndexError) Code() Code {
	return InvalidIndexCode
}

// Family implements consensus.Error.
func (e InvalidIndexError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid index %s of document type %s: %s", e.IndexName, e.DocumentType, e.Message)
}

// IncompatibleDataContractSchemaError is returned when the update changes the contract in an incompatible way.
type IncompatibleDataContractSchemaError struct {
	DataContractID types.Identifier
	Message        string
}

// Code implements consensus.Error.
func (e IncompatibleDataContractSchemaError) Code() Code {
	return IncompatibleDataContractSchemaCode
}

// Family implements consensus.Error.
func (e IncompatibleDataContractSchemaError) Family() Family {
	return Basic
}

// Error implements error.
func (e IncompatibleDataContractSchemaError) Error() string {
	return fmt.Sprintf("incompatible update of data contract %v: %s", e.DataContractID, e.Message)
}

// InvalidDocumentTypeError is returned when the document type is not defined by the contract.
type InvalidDocumentTypeError struct {
	DocumentType   string
	DataContractID types.Identifier
}

// Code implements consensus.Error.
func (e InvalidDocumentTypeError) Code() Code {
	return InvalidDocumentTypeCode
}

// Family implements consensus.Error.
func (e InvalidDocumentTypeError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidDocumentTypeError) Error() string {
	return fmt.Sprintf("document type %s is not defined in data contract %v", e.DocumentType, e.DataContractID)
}

// DocumentTransitionsAreAbsentError is returned when the batch has no transitions.
type DocumentTransitionsAreAbsentError struct{}

// Code implements consensus.Error.
func (e DocumentTransitionsAreAbsentError) Code() Code {
	return DocumentTransitionsAreAbsentCode
}

// Family implements consensus.Error.
func (e DocumentTransitionsAreAbsentError) Family() Family {
	return Basic
}

// Error implements error.
func (e DocumentTransitionsAreAbsentError) Error() string {
	return "batch has no transitions"
}

// MaxDocumentsTransitionsExceededError is returned when the batch has too many transitions.
type MaxDocumentsTransitionsExceededError struct {
	Max int
}

// Code implements consensus.Error.
func (e MaxDocumentsTransitionsExceededError) Code() Code {
	return MaxDocumentsTransitionsExceededCode
}

// Family implements consensus.Error.
func (e MaxDocumentsTransitionsExceededError) Family() Family {
	return Basic
}

// Error implements error.
func (e MaxDocumentsTransitionsExceededError) Error() string {
	return fmt.Sprintf("batch has too many transitions: maximum is %d", e.Max)
}

// DuplicateDocumentTransitionsWithIDsError is returned when the batch touches the same document twice.
type DuplicateDocumentTransitionsWithIDsError struct {
	DocumentIDs []types.Identifier
}

// Code implements consensus.Error.
func (e DuplicateDocumentTransitionsWithIDsError) Code() Code {
	return DuplicateDocumentTransitionsWithIDsCode
}

// Family implements consensus.Error.
func (e DuplicateDocumentTransitionsWithIDsError) Family() Family {
	return Basic
}

// Error implements error.
func (e DuplicateDocumentTransitionsWithIDsError) Error() string {
	return fmt.Sprintf("batch has duplicate transitions for documents %v", e.DocumentIDs)
}

// InvalidDocumentTransitionIDError is returned when the document identifier is not derived from its creation data.
type InvalidDocumentTransitionIDError struct {
	Expected types.Identifier
	Actual   types.Identifier
}

// Code implements consensus.Error.
func (e InvalidDocumentTransitionIDError) Code() Code {
	return InvalidDocumentTransitionIDCode
}

// Family implements consensus.Error.
func (e InvalidDocumentTransitionIDError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidDocumentTransitionIDError) Error() string {
	return fmt.Sprintf("invalid document id %v: expected %v", e.Actual, e.Expected)
}

// InvalidTokenIDError is returned when the token identifier does not match the contract position.
type InvalidTokenIDError struct {
	Expected types.Identifier
	Actual   types.Identifier
}

// Code implements consensus.Error.
func (e InvalidTokenIDError) Code() Code {
	return InvalidTokenIDCode
}

// Family implements consensus.Error.
func (e InvalidTokenIDError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidTokenIDError) Error() string {
	return fmt.Sprintf("invalid token id %v: expected %v", e.Actual, e.Expected)
}

// InvalidTokenAmountError is returned when the token amount is zero or too large.
type InvalidTokenAmountError struct {
	Max    uint64
	Amount uint64
}

// Code implements consensus.Error.
func (e InvalidTokenAmountError) Code() Code {
	return InvalidTokenAmountCode
}

// Family implements consensus.Error.
func (e InvalidTokenAmountError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidTokenAmountError) Error() string {
	return fmt.Sprintf("invalid token amount %d: maximum is %d", e.Amount, e.Max)
}

// NonceOutOfBoundsError is returned when the nonce does not fit in its reserved bits.
type NonceOutOfBoundsError struct {
	Nonce uint64
}

// Code implements consensus.Error.
func (e NonceOutOfBoundsError) Code() Code {
	return NonceOutOfBoundsCode
}

// Family implements consensus.Error.
func (e NonceOutOfBoundsError) Family() Family {
	return Basic
}

// Error implements error.
func (e NonceOutOfBoundsError) Error() string {
	return fmt.Sprintf("nonce %d is out of bounds", e.Nonce)
}

// InvalidVotePollError is returned when the vote poll is malformed.
type InvalidVotePollError struct {
	Message string
}

// Code implements consensus.Error.
func (e InvalidVotePollError) Code() Code {
	return InvalidVotePollCode
}

// Family implements consensus.Error.
func (e InvalidVotePollError) Family() Family {
	return Basic
}

// Error implements error.
func (e InvalidVotePollError) Error() string {
	return fmt.Sprintf("invalid vote poll: %s", e.Message)
}

// Package version defines the protocol version tables. A table maps every
// versioned operation to the ordinal of the implementation that must run for
// that protocol version. Tables are loaded once and are read-only afterwards:
// activating a protocol version means selecting another table, never
// mutating one.
//
// Versioned operations resolve their implementation through a Dispatcher. An
// ordinal that no implementation exists for is an error, and the dispatch
// never falls back to another implementation.
package version

import (
	"fmt"
	"sort"

	"golang.org/x/xerrors"
)

// FeatureVersion is the ordinal of one implementation of a versioned
// operation.
type FeatureVersion = uint16

// Method is the name of a versioned operation.
type Method string

// Versioned operations.
const (
	CheckTx                     Method = "check_tx"
	ProcessRawStateTransitions  Method = "process_raw_state_transitions"
	ProcessStateTransition      Method = "process_state_transition"
	ExecuteEvent                Method = "execute_event"
	ValidateFeesOfEvent         Method = "validate_fees_of_event"
	IdentitySignature           Method = "identity_signature"
	IdentityNonce               Method = "identity_nonce"
	IdentityContractNonce       Method = "identity_contract_nonce"
	MinimumBalancePreCheck      Method = "validate_simple_pre_check_minimum_balance"
	CalculateOperationFees      Method = "calculate_operation_fees"
	RegistrationCost            Method = "registration_cost"
	VerifyInstantLockSignature  Method = "verify_instant_lock_signature"
	VerifyAssetLockIsNotSpent   Method = "verify_asset_lock_is_not_spent"
	FetchAssetLockOutput        Method = "fetch_asset_lock_transaction_output"
	DataContractCreateStructure Method = "data_contract_create.structure"
	DataContractCreateAdvanced  Method = "data_contract_create.advanced_structure"
	DataContractCreateState     Method = "data_contract_create.state"
	DataContractUpdateStructure Method = "data_contract_update.structure"
	DataContractUpdateState     Method = "data_contract_update.state"
	BatchStructure              Method = "batch.structure"
	BatchState                  Method = "batch.state"
	IdentityCreateStructure     Method = "identity_create.structure"
	IdentityCreateState         Method = "identity_create.state"
	IdentityTopUpStructure      Method = "identity_top_up.structure"
	IdentityTopUpState          Method = "identity_top_up.state"
	IdentityUpdateStructure     Method = "identity_update.structure"
	IdentityUpdateState         Method = "identity_update.state"
	CreditTransferStructure     Method = "identity_credit_transfer.structure"
	CreditTransferState         Method = "identity_credit_transfer.state"
	CreditWithdrawalStructure   Method = "identity_credit_withdrawal.structure"
	CreditWithdrawalState       Method = "identity_credit_withdrawal.state"
	MasternodeVoteStructure     Method = "masternode_vote.structure"
	MasternodeVoteBalance       Method = "masternode_vote.balance"
	MasternodeVoteState         Method = "masternode_vote.state"
)

// UnknownVersionMismatch is returned when a versioned operation is asked to
// run an implementation it does not have.
type UnknownVersionMismatch struct {
	Method        Method
	KnownVersions []FeatureVersion
	Received      FeatureVersion
}

// Error implements error.
func (e UnknownVersionMismatch) Error() string {
	return fmt.Sprintf("unknown version mismatch for %s: known versions %v, received %d",
		e.Method, e.KnownVersions, e.Received)
}

// Bounds is an inclusive range of feature versions.
type Bounds struct {
	Min FeatureVersion
	Max FeatureVersion
}

// Contains returns true if the version is inside the bounds.
func (b Bounds) Contains(v FeatureVersion) bool {
	return v >= b.Min && v <= b.Max
}

// Serialization defines the wire versions accepted for each kind of state
// transition.
type Serialization struct {
	DataContractCreate       Bounds
	DataContractUpdate       Bounds
	Batch                    Bounds
	IdentityCreate           Bounds
	IdentityTopUp            Bounds
	IdentityUpdate           Bounds
	IdentityCreditTransfer   Bounds
	IdentityCreditWithdrawal Bounds
	MasternodeVote           Bounds
}

// FeeVersion holds the cost constants of a protocol version.
type FeeVersion struct {
	StorageDiskUsageCreditPerByte  uint64
	StorageProcessingCreditPerByte uint64
	StorageLoadCreditPerByte       uint64
	NonStorageLoadCreditPerByte    uint64
	StorageSeekCost                uint64
	// StorageRefundEpochs is the number of epochs a storage fee pays for. The
	// refund of removed bytes decreases with the epochs already elapsed.
	StorageRefundEpochs uint16

	SignatureVerifyECDSA   uint64
	SignatureVerifyBLS     uint64
	SignatureVerifyHash160 uint64

	DataContractRegistrationBase uint64
	DocumentTypeRegistration     uint64
	IndexRegistration            uint64
	UniqueIndexRegistration      uint64
	ContestedIndexRegistration   uint64
	TokenRegistration            uint64

	DataContractCreateMinimum uint64
	DataContractUpdateMinimum uint64
	DocumentCreateMinimum     uint64
	DocumentReplaceMinimum    uint64
	DocumentDeleteMinimum     uint64
	TokenTransitionMinimum    uint64
	IdentityUpdateMinimum     uint64
	CreditTransferMinimum     uint64
	CreditWithdrawalMinimum   uint64

	IdentityCreateBaseCost uint64
	IdentityCreateKeyCost  uint64
	IdentityTopUpMinimum   uint64
	AssetLockPenalty       uint64

	ContestedDocumentVotingFee uint64
}

// Limits holds the structural limits of a protocol version.
type Limits struct {
	MaxBatchTransitions       int
	MaxIdentityNonceWindow    uint64
	MaxPublicKeysInCreation   int
	MaxPublicKeysInUpdate     int
	MaxDocumentTypes          int
	MaxIndicesPerDocumentType int
	MinCreditTransferAmount   uint64
	MinWithdrawalAmount       uint64
	MaxTokenAmount            uint64
}

// PlatformVersion is the table of a protocol version. It must be treated as
// read-only once published.
type PlatformVersion struct {
	ProtocolVersion uint32
	Fee             FeeVersion
	Serialization   Serialization
	Limits          Limits

	methods map[Method]FeatureVersion
}

// Method returns the ordinal of the operation, and false if the table does not
// define it.
func (pv *PlatformVersion) Method(m Method) (FeatureVersion, bool) {
	v, found := pv.methods[m]
	return v, found
}

// Methods returns the list of operations defined by the table in a
// deterministic order.
func (pv *PlatformVersion) Methods() []Method {
	methods := make([]Method, 0, len(pv.methods))
	for m := range pv.methods {
		methods = append(methods, m)
	}

	sort.Slice(methods, func(i, j int) bool {
		return methods[i] < methods[j]
	})

	return methods
}

// With returns a new table that is a copy of this one except for the ordinal
// of the given operation.
func (pv *PlatformVersion) With(m Method, v FeatureVersion) *PlatformVersion {
	clone := *pv
	clone.methods = make(map[Method]FeatureVersion, len(pv.methods))

	for k, o := range pv.methods {
		clone.methods[k] = o
	}

	clone.methods[m] = v

	return &clone
}

// Get returns the table of the protocol version.
func Get(protocolVersion uint32) (*PlatformVersion, error) {
	for _, pv := range tables {
		if pv.ProtocolVersion == protocolVersion {
			return pv, nil
		}
	}

	return nil, xerrors.Errorf("unsupported protocol version %d", protocolVersion)
}

// First returns the table of the oldest supported protocol version.
func First() *PlatformVersion {
	return tables[0]
}

// Latest returns the table of the most recent protocol version.
func Latest() *PlatformVersion {
	return tables[len(tables)-1]
}

// Supported returns the tables of all the supported protocol versions, in
// increasing order.
func Supported() []*PlatformVersion {
	return append([]*PlatformVersion{}, tables...)
}

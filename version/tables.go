package version

var feeV1 = FeeVersion{
	StorageDiskUsageCreditPerByte:  27000,
	StorageProcessingCreditPerByte: 400,
	StorageLoadCreditPerByte:       20,
	NonStorageLoadCreditPerByte:    10,
	StorageSeekCost:                2000,
	StorageRefundEpochs:            1000,

	SignatureVerifyECDSA:   3000,
	SignatureVerifyBLS:     6000,
	SignatureVerifyHash160: 4000,

	DataContractRegistrationBase: 10_000_000_000,
	DocumentTypeRegistration:     2_000_000_000,
	IndexRegistration:            1_000_000_000,
	UniqueIndexRegistration:      1_000_000_000,
	ContestedIndexRegistration:   100_000_000_000,
	TokenRegistration:            10_000_000_000,

	DataContractCreateMinimum: 100_000,
	DataContractUpdateMinimum: 100_000,
	DocumentCreateMinimum:     100_000,
	DocumentReplaceMinimum:    100_000,
	DocumentDeleteMinimum:     100_000,
	TokenTransitionMinimum:    100_000,
	IdentityUpdateMinimum:     100_000,
	CreditTransferMinimum:     100_000,
	CreditWithdrawalMinimum:   400_000,

	IdentityCreateBaseCost: 2_000_000,
	IdentityCreateKeyCost:  6_500_000,
	IdentityTopUpMinimum:   500_000,
	AssetLockPenalty:       2_000_000,

	ContestedDocumentVotingFee: 1_000_000_000,
}

var limitsV1 = Limits{
	MaxBatchTransitions:       10,
	MaxIdentityNonceWindow:    24,
	MaxPublicKeysInCreation:   6,
	MaxPublicKeysInUpdate:     6,
	MaxDocumentTypes:          100,
	MaxIndicesPerDocumentType: 10,
	MinCreditTransferAmount:   1,
	MinWithdrawalAmount:       190_000,
	MaxTokenAmount:            1 << 63,
}

var methodsV1 = map[Method]FeatureVersion{
	CheckTx:                     0,
	ProcessRawStateTransitions:  0,
	ProcessStateTransition:      0,
	ExecuteEvent:                0,
	ValidateFeesOfEvent:         0,
	IdentitySignature:           0,
	IdentityNonce:               0,
	IdentityContractNonce:       0,
	MinimumBalancePreCheck:      0,
	CalculateOperationFees:      0,
	RegistrationCost:            0,
	VerifyInstantLockSignature:  0,
	VerifyAssetLockIsNotSpent:   0,
	FetchAssetLockOutput:        0,
	DataContractCreateStructure: 0,
	DataContractCreateAdvanced:  0,
	DataContractCreateState:     0,
	DataContractUpdateStructure: 0,
	DataContractUpdateState:     0,
	BatchStructure:              0,
	BatchState:                  0,
	IdentityCreateStructure:     0,
	IdentityCreateState:         0,
	IdentityTopUpStructure:      0,
	IdentityTopUpState:          0,
	IdentityUpdateStructure:     0,
	IdentityUpdateState:         0,
	CreditTransferStructure:     0,
	CreditTransferState:         0,
	CreditWithdrawalStructure:   0,
	CreditWithdrawalState:       0,
	MasternodeVoteStructure:     0,
	MasternodeVoteBalance:       0,
	MasternodeVoteState:         0,
}

var v1 = &PlatformVersion{
	ProtocolVersion: 1,
	Fee:             feeV1,
	Serialization: Serialization{
		Batch: Bounds{Min: 0, Max: 0},
	},
	Limits:  limitsV1,
	methods: methodsV1,
}

// The second protocol version prices indices and tokens in the registration
// cost and accepts token transitions in batches.
var v2 = func() *PlatformVersion {
	pv := v1.With(RegistrationCost, 1)
	pv.ProtocolVersion = 2
	pv.Serialization.Batch = Bounds{Min: 0, Max: 1}

	return pv
}()

var tables = []*PlatformVersion{v1, v2}

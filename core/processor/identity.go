package processor

import (
	"bytes"

	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// validateNewKeys verifies the keys added to an identity. The identifiers and
// the data must be unique among them.
func validateNewKeys(keys []identity.PublicKey, limit int) []consensus.Error {
	if len(keys) > limit {
		return []consensus.Error{consensus.MaxIdentityPublicKeyLimitReachedError{Max: limit}}
	}

	var errs []consensus.Error

	ids := make(map[uint32]struct{}, len(keys))
	var dupIDs []uint32

	data := make([][]byte, 0, len(keys))
	var dupData []uint32

	for _, key := range keys {
		_, dup := ids[key.ID]
		if dup {
			dupIDs = append(dupIDs, key.ID)
		}

		ids[key.ID] = struct{}{}

		for _, other := range data {
			if bytes.Equal(other, key.Data) {
				dupData = append(dupData, key.ID)
				break
			}
		}

		data = append(data, key.Data)

		err := key.ValidateData()
		if err != nil {
			errs = append(errs, consensus.InvalidIdentityPublicKeyDataError{
				PublicKeyID: key.ID,
				Message:     err.Error(),
			})
		}

		if key.IsDisabled() {
			errs = append(errs, consensus.InvalidIdentityPublicKeyDataError{
				PublicKeyID: key.ID,
				Message:     "new key cannot be disabled",
			})
		}
	}

	if len(dupIDs) > 0 {
		errs = append(errs, consensus.DuplicatedIdentityPublicKeyIDError{PublicKeyIDs: dupIDs})
	}

	if len(dupData) > 0 {
		errs = append(errs, consensus.DuplicatedIdentityPublicKeyError{PublicKeyIDs: dupData})
	}

	return errs
}

func hasMasterKey(keys []identity.PublicKey) bool {
	for _, key := range keys {
		if key.Purpose == identity.Authentication && key.SecurityLevel == identity.Master {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------
// Identity create

var identityCreateHandler = handler[transition.IdentityCreate]{
	structure: version.NewDispatcher[stageFunc[transition.IdentityCreate]](
		version.IdentityCreateStructure,
		validateIdentityCreateStructureV0,
	),
	authenticate: authenticateAssetLock(func(c *call, t transition.IdentityCreate) types.Credits {
		cost, err := identityCreateCost(t, c.Version.Fee)
		if err != nil {
			return ^types.Credits(0)
		}

		return cost
	}),
	state: version.NewDispatcher[transformFunc[transition.IdentityCreate]](
		version.IdentityCreateState,
		validateIdentityCreateStateV0,
	),
}

// identityCreateCost is the fee of the registration of the identity and its
// keys, paid from the asset lock.
func identityCreateCost(t transition.IdentityCreate, fv version.FeeVersion) (types.Credits, error) {
	keys, err := fee.Mul(fv.IdentityCreateKeyCost, uint64(len(t.PublicKeys)))
	if err != nil {
		return 0, err
	}

	return fee.Add(fv.IdentityCreateBaseCost, keys)
}

func validateIdentityCreateStructureV0(c *call, t transition.IdentityCreate) (validation.Simple, error) {
	err := validateProofStructure(t.AssetLockProof)
	if err != nil {
		return simple(err), nil
	}

	if !hasMasterKey(t.PublicKeys) {
		return simple(consensus.MissingMasterPublicKeyError{}), nil
	}

	return simple(validateNewKeys(t.PublicKeys, c.Version.Limits.MaxPublicKeysInCreation)...), nil
}

func validateIdentityCreateStateV0(c *call, t transition.IdentityCreate) (validation.Result[action.Action], error) {
	id := transition.IdentityIDFromOutPoint(c.lock.OutPoint)

	_, found, err := c.drive().FetchBalance(c.Tx, id)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch identity: %v", err)
	}

	c.pay(fee.SeekOp())

	if found {
		return c.partiallyUseAssetLock(consensus.IdentityAlreadyExistsError{IdentityID: id}), nil
	}

	cost, err := identityCreateCost(t, c.Version.Fee)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("identity create cost: %v", err)
	}

	keys := make(map[uint32]identity.PublicKey, len(t.PublicKeys))
	for _, key := range t.PublicKeys {
		keys[key.ID] = key
	}

	a := action.IdentityCreate{
		Base:           c.base(t).WithCosts(fee.PrecalculatedOp(0, cost)),
		Identity:       identity.Identity{ID: id, PublicKeys: keys},
		OutPoint:       c.lock.OutPoint,
		Credits:        c.lock.Remaining,
		InitialCredits: c.lock.Initial,
	}

	return validation.NewWithData[action.Action](a), nil
}

// -----------------------------------------------------------------------------
// Identity top up

var identityTopUpHandler = handler[transition.IdentityTopUp]{
	structure: version.NewDispatcher[stageFunc[transition.IdentityTopUp]](
		version.IdentityTopUpStructure,
		validateIdentityTopUpStructureV0,
	),
	authenticate: authenticateAssetLock(func(c *call, _ transition.IdentityTopUp) types.Credits {
		return c.Version.Fee.IdentityTopUpMinimum
	}),
	state: version.NewDispatcher[transformFunc[transition.IdentityTopUp]](
		version.IdentityTopUpState,
		validateIdentityTopUpStateV0,
	),
}

func validateIdentityTopUpStructureV0(c *call, t transition.IdentityTopUp) (validation.Simple, error) {
	err := validateProofStructure(t.AssetLockProof)
	if err != nil {
		return simple(err), nil
	}

	return valid(), nil
}

func validateIdentityTopUpStateV0(c *call, t transition.IdentityTopUp) (validation.Result[action.Action], error) {
	_, found, err := c.drive().FetchBalance(c.Tx, t.IdentityID)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch identity: %v", err)
	}

	c.pay(fee.SeekOp())

	if !found {
		return c.partiallyUseAssetLock(consensus.IdentityNotFoundError{IdentityID: t.IdentityID}), nil
	}

	a := action.IdentityTopUp{
		Base:           c.base(t),
		IdentityID:     t.IdentityID,
		OutPoint:       c.lock.OutPoint,
		Credits:        c.lock.Remaining,
		InitialCredits: c.lock.Initial,
	}

	return validation.NewWithData[action.Action](a), nil
}

// -----------------------------------------------------------------------------
// Identity update

var identityUpdateHandler = handler[transition.IdentityUpdate]{
	structure: version.NewDispatcher[stageFunc[transition.IdentityUpdate]](
		version.IdentityUpdateStructure,
		validateIdentityUpdateStructureV0,
	),
	authenticate: authenticateIdentity[transition.IdentityUpdate],
	nonce: func(c *call, t transition.IdentityUpdate) (validation.Simple, error) {
		return c.validateIdentityNonce(t.IdentityID, t.Nonce)
	},
	balance: preCheckBalance[transition.IdentityUpdate],
	state: version.NewDispatcher[transformFunc[transition.IdentityUpdate]](
		version.IdentityUpdateState,
		validateIdentityUpdateStateV0,
	),
}

func validateIdentityUpdateStructureV0(c *call, t transition.IdentityUpdate) (validation.Simple, error) {
	errs := checkNonceBounds(t.Nonce)

	errs = append(errs, validateNewKeys(t.AddPublicKeys, c.Version.Limits.MaxPublicKeysInUpdate)...)

	seen := make(map[uint32]struct{}, len(t.DisablePublicKeys))
	var dups []uint32

	for _, id := range t.DisablePublicKeys {
		_, dup := seen[id]
		if dup {
			dups = append(dups, id)
		}

		seen[id] = struct{}{}
	}

	if len(dups) > 0 {
		errs = append(errs, consensus.DuplicatedIdentityPublicKeyIDError{PublicKeyIDs: dups})
	}

	return simple(errs...), nil
}

func validateIdentityUpdateStateV0(c *call, t transition.IdentityUpdate) (validation.Result[action.Action], error) {
	current := c.signer

	fail := func(err consensus.Error) (validation.Result[action.Action], error) {
		return c.bumpNonce(t, t.Nonce, err), nil
	}

	if t.Revision != current.Revision+1 {
		return fail(consensus.InvalidIdentityRevisionError{
			IdentityID:      current.ID,
			CurrentRevision: current.Revision,
		})
	}

	var existing []uint32
	for _, key := range t.AddPublicKeys {
		_, found := current.Key(key.ID)
		if found {
			existing = append(existing, key.ID)
		}
	}

	if len(existing) > 0 {
		return fail(consensus.DuplicatedIdentityPublicKeyIDStateError{PublicKeyIDs: existing})
	}

	for _, key := range t.AddPublicKeys {
		for _, id := range current.KeyIDs() {
			if bytes.Equal(current.PublicKeys[id].Data, key.Data) {
				return fail(consensus.DuplicatedIdentityPublicKeyError{PublicKeyIDs: []uint32{key.ID}})
			}
		}
	}

	var missing []uint32
	for _, id := range t.DisablePublicKeys {
		_, found := current.Key(id)
		if !found {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return fail(consensus.MissingIdentityPublicKeyIDsError{PublicKeyIDs: missing})
	}

	for _, id := range t.DisablePublicKeys {
		key := current.PublicKeys[id]

		if key.ReadOnly {
			return fail(consensus.IdentityPublicKeyIsReadOnlyError{PublicKeyID: id})
		}

		if key.IsDisabled() {
			return fail(consensus.IdentityPublicKeyIsDisabledError{PublicKeyID: id})
		}
	}

	disabledAt := c.Block.TimeMs
	if disabledAt == 0 {
		disabledAt = 1
	}

	keys := make(map[uint32]identity.PublicKey, len(current.PublicKeys)+len(t.AddPublicKeys))
	for id, key := range current.PublicKeys {
		keys[id] = key
	}

	for _, key := range t.AddPublicKeys {
		keys[key.ID] = key
	}

	for _, id := range t.DisablePublicKeys {
		key := keys[id]
		key.DisabledAt = disabledAt
		keys[id] = key
	}

	updated := identity.Identity{
		ID:         current.ID,
		PublicKeys: keys,
		Balance:    current.Balance,
		Revision:   t.Revision,
	}

	a := action.IdentityUpdate{
		Base:     c.base(t),
		Identity: updated,
		Nonce:    t.Nonce,
	}

	return validation.NewWithData[action.Action](a), nil
}

// -----------------------------------------------------------------------------
// Credit transfer

var creditTransferHandler = handler[transition.IdentityCreditTransfer]{
	structure: version.NewDispatcher[stageFunc[transition.IdentityCreditTransfer]](
		version.CreditTransferStructure,
		validateCreditTransferStructureV0,
	),
	authenticate: authenticateIdentity[transition.IdentityCreditTransfer],
	nonce: func(c *call, t transition.IdentityCreditTransfer) (validation.Simple, error) {
		return c.validateIdentityNonce(t.IdentityID, t.Nonce)
	},
	balance: preCheckBalance[transition.IdentityCreditTransfer],
	state: version.NewDispatcher[transformFunc[transition.IdentityCreditTransfer]](
		version.CreditTransferState,
		validateCreditTransferStateV0,
	),
}

func validateCreditTransferStructureV0(c *call,
	t transition.IdentityCreditTransfer) (validation.Simple, error) {

	errs := checkNonceBounds(t.Nonce)

	if t.Amount < c.Version.Limits.MinCreditTransferAmount {
		errs = append(errs, consensus.InvalidIdentityCreditTransferAmountError{
			Amount:    t.Amount,
			MinAmount: c.Version.Limits.MinCreditTransferAmount,
		})
	}

	if t.RecipientID == t.IdentityID {
		errs = append(errs, consensus.IdentityCreditTransferToSelfError{})
	}

	return simple(errs...), nil
}

func validateCreditTransferStateV0(c *call,
	t transition.IdentityCreditTransfer) (validation.Result[action.Action], error) {

	_, found, err := c.drive().FetchBalance(c.Tx, t.RecipientID)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch recipient: %v", err)
	}

	c.pay(fee.SeekOp())

	if !found {
		return c.bumpNonce(t, t.Nonce, consensus.RecipientIdentityDoesNotExistError{
			RecipientID: t.RecipientID,
		}), nil
	}

	a := action.IdentityCreditTransfer{
		Base:        c.base(t),
		IdentityID:  t.IdentityID,
		RecipientID: t.RecipientID,
		Amount:      t.Amount,
		Nonce:       t.Nonce,
	}

	return validation.NewWithData[action.Action](a), nil
}

// -----------------------------------------------------------------------------
// Credit withdrawal

var creditWithdrawalHandler = handler[transition.IdentityCreditWithdrawal]{
	structure: version.NewDispatcher[stageFunc[transition.IdentityCreditWithdrawal]](
		version.CreditWithdrawalStructure,
		validateCreditWithdrawalStructureV0,
	),
	authenticate: authenticateIdentity[transition.IdentityCreditWithdrawal],
	nonce: func(c *call, t transition.IdentityCreditWithdrawal) (validation.Simple, error) {
		return c.validateIdentityNonce(t.IdentityID, t.Nonce)
	},
	balance: preCheckBalance[transition.IdentityCreditWithdrawal],
	state: version.NewDispatcher[transformFunc[transition.IdentityCreditWithdrawal]](
		version.CreditWithdrawalState,
		validateCreditWithdrawalStateV0,
	),
}

func validateCreditWithdrawalStructureV0(c *call,
	t transition.IdentityCreditWithdrawal) (validation.Simple, error) {

	errs := checkNonceBounds(t.Nonce)

	minimum := c.Version.Limits.MinWithdrawalAmount

	// The amount is sent on the core chain and must be a whole number of
	// duffs.
	if t.Amount < minimum || t.Amount%assetlock.CreditsPerDuff != 0 {
		errs = append(errs, consensus.InvalidIdentityCreditWithdrawalAmountError{
			Amount:    t.Amount,
			MinAmount: minimum,
		})
	}

	_, ok := assetlock.PubKeyHash(t.OutputScript)
	if !ok {
		errs = append(errs, consensus.InvalidCreditWithdrawalOutputScriptError{})
	}

	if t.Pooling != transition.PoolingNever {
		errs = append(errs, consensus.UnsupportedFeatureError{
			Feature: "withdrawal pooling",
			Version: t.Version,
		})
	}

	return simple(errs...), nil
}

// The balance is verified once the fees are known.
func validateCreditWithdrawalStateV0(c *call,
	t transition.IdentityCreditWithdrawal) (validation.Result[action.Action], error) {

	a := action.IdentityCreditWithdrawal{
		Base: c.base(t),
		Withdrawal: drive.Withdrawal{
			IdentityID:     t.IdentityID,
			Nonce:          t.Nonce,
			Amount:         t.Amount,
			CoreFeePerByte: t.CoreFeePerByte,
			Pooling:        t.Pooling,
			OutputScript:   append([]byte{}, t.OutputScript...),
		},
	}

	return validation.NewWithData[action.Action](a), nil
}

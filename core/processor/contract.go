package processor

import (
	"fmt"

	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// validateContractSchema verifies the definitions of a data contract.
func validateContractSchema(dc contract.DataContract, pv *version.PlatformVersion) consensus.Error {
	if len(dc.DocumentTypes) == 0 && len(dc.Tokens) == 0 {
		return consensus.DataContractEmptySchemaError{}
	}

	if len(dc.DocumentTypes) > pv.Limits.MaxDocumentTypes {
		return consensus.DataContractMaxDocumentTypesExceededError{Max: pv.Limits.MaxDocumentTypes}
	}

	for _, name := range dc.DocumentTypeNames() {
		dt := dc.DocumentTypes[name]

		if name == "" || dt.Name != name {
			return consensus.InvalidDocumentTypeError{DocumentType: name, DataContractID: dc.ID}
		}

		err := validateIndices(dt, pv)
		if err != nil {
			return err
		}
	}

	if len(dc.Tokens) > 0 && pv.Serialization.Batch.Max < 1 {
		return consensus.UnsupportedFeatureError{
			Feature: "tokens",
			Version: uint16(pv.ProtocolVersion),
		}
	}

	for _, pos := range dc.TokenPositions() {
		cfg := dc.Tokens[pos]

		if cfg.MaxSupply != 0 && cfg.BaseSupply > cfg.MaxSupply {
			return consensus.InvalidTokenAmountError{Max: cfg.MaxSupply, Amount: cfg.BaseSupply}
		}
	}

	return nil
}

func validateIndices(dt contract.DocumentType, pv *version.PlatformVersion) consensus.Error {
	invalid := func(index, msg string) consensus.Error {
		return consensus.InvalidIndexError{DocumentType: dt.Name, IndexName: index, Message: msg}
	}

	if len(dt.Indices) > pv.Limits.MaxIndicesPerDocumentType {
		return invalid("", fmt.Sprintf("too many indices: %d > %d",
			len(dt.Indices), pv.Limits.MaxIndicesPerDocumentType))
	}

	names := make(map[string]struct{}, len(dt.Indices))

	for _, idx := range dt.Indices {
		if idx.Name == "" {
			return invalid(idx.Name, "index must have a name")
		}

		_, dup := names[idx.Name]
		if dup {
			return invalid(idx.Name, "duplicate index name")
		}

		names[idx.Name] = struct{}{}

		if len(idx.Properties) == 0 {
			return invalid(idx.Name, "index must have properties")
		}

		if idx.Contested && !idx.Unique {
			return invalid(idx.Name, "contested index must be unique")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Data contract create

var dataContractCreateAdvanced = version.NewDispatcher[transformFunc[transition.DataContractCreate]](
	version.DataContractCreateAdvanced,
	advancedDataContractCreateV0,
)

var dataContractCreateHandler = handler[transition.DataContractCreate]{
	structure: version.NewDispatcher[stageFunc[transition.DataContractCreate]](
		version.DataContractCreateStructure,
		validateDataContractCreateStructureV0,
	),
	authenticate: authenticateIdentity[transition.DataContractCreate],
	nonce: func(c *call, t transition.DataContractCreate) (validation.Simple, error) {
		return c.validateIdentityNonce(t.GetOwnerID(), t.IdentityNonce)
	},
	balance:  preCheckBalance[transition.DataContractCreate],
	advanced: &dataContractCreateAdvanced,
	state: version.NewDispatcher[transformFunc[transition.DataContractCreate]](
		version.DataContractCreateState,
		validateDataContractCreateStateV0,
	),
}

func validateDataContractCreateStructureV0(c *call,
	t transition.DataContractCreate) (validation.Simple, error) {

	errs := checkNonceBounds(t.IdentityNonce)

	if t.DataContract.Version != 1 {
		errs = append(errs, consensus.InvalidDataContractVersionError{
			Expected: 1,
			Actual:   t.DataContract.Version,
		})
	}

	err := validateContractSchema(t.DataContract, c.Version)
	if err != nil {
		errs = append(errs, err)
	}

	return simple(errs...), nil
}

// The identifier of the contract is derived from the owner and the nonce, so
// it cannot be verified before the owner is known.
func advancedDataContractCreateV0(c *call,
	t transition.DataContractCreate) (validation.Result[action.Action], error) {

	expected := contract.NewID(t.GetOwnerID(), t.IdentityNonce)

	if expected != t.DataContract.ID {
		return c.bumpNonce(t, t.IdentityNonce, consensus.InvalidDataContractIDError{
			Expected: expected,
			Actual:   t.DataContract.ID,
		}), nil
	}

	return validation.New[action.Action](), nil
}

func validateDataContractCreateStateV0(c *call,
	t transition.DataContractCreate) (validation.Result[action.Action], error) {

	existing, found, err := c.drive().FetchContract(c.Tx, t.DataContract.ID, c.Mode.CanAlterCache())
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch contract: %v", err)
	}

	c.pay(fee.SeekOp())

	if found {
		c.pay(existing.Cost())

		return c.bumpNonce(t, t.IdentityNonce, consensus.DataContractAlreadyPresentError{
			DataContractID: t.DataContract.ID,
		}), nil
	}

	cost, err := fee.RegistrationCost(t.DataContract, c.Version)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("registration cost: %v", err)
	}

	a := action.DataContractCreate{
		Base:          c.base(t).WithCosts(fee.PrecalculatedOp(0, cost)),
		Contract:      t.DataContract,
		IdentityNonce: t.IdentityNonce,
	}

	return validation.NewWithData[action.Action](a), nil
}

// -----------------------------------------------------------------------------
// Data contract update

var dataContractUpdateHandler = handler[transition.DataContractUpdate]{
	structure: version.NewDispatcher[stageFunc[transition.DataContractUpdate]](
		version.DataContractUpdateStructure,
		validateDataContractUpdateStructureV0,
	),
	authenticate: authenticateIdentity[transition.DataContractUpdate],
	nonce: func(c *call, t transition.DataContractUpdate) (validation.Simple, error) {
		return c.validateIdentityContractNonce(t.GetOwnerID(), t.DataContract.ID, t.IdentityContractNonce)
	},
	balance: preCheckBalance[transition.DataContractUpdate],
	state: version.NewDispatcher[transformFunc[transition.DataContractUpdate]](
		version.DataContractUpdateState,
		validateDataContractUpdateStateV0,
	),
}

func validateDataContractUpdateStructureV0(c *call,
	t transition.DataContractUpdate) (validation.Simple, error) {

	errs := checkNonceBounds(t.IdentityContractNonce)

	err := validateContractSchema(t.DataContract, c.Version)
	if err != nil {
		errs = append(errs, err)
	}

	return simple(errs...), nil
}

func validateDataContractUpdateStateV0(c *call,
	t transition.DataContractUpdate) (validation.Result[action.Action], error) {

	next := t.DataContract

	fail := func(err consensus.Error) (validation.Result[action.Action], error) {
		return c.bumpContractNonce(t, next.ID, t.IdentityContractNonce, err), nil
	}

	fetched, found, err := c.drive().FetchContract(c.Tx, next.ID, c.Mode.CanAlterCache())
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch contract: %v", err)
	}

	c.pay(fee.SeekOp())

	if !found {
		return fail(consensus.DataContractNotPresentError{DataContractID: next.ID})
	}

	c.pay(fetched.Cost())

	old := fetched.Contract

	if old.OwnerID != next.OwnerID {
		return fail(consensus.DataContractUpdateOwnerMismatchError{
			DataContractID: next.ID,
			OwnerID:        next.OwnerID,
		})
	}

	if old.Config.ReadOnly {
		return fail(consensus.DataContractIsReadonlyError{DataContractID: next.ID})
	}

	if next.Version != old.Version+1 {
		return fail(consensus.InvalidDataContractVersionError{
			Expected: old.Version + 1,
			Actual:   next.Version,
		})
	}

	msg := incompatibleChange(old, next)
	if msg != "" {
		return fail(consensus.IncompatibleDataContractSchemaError{DataContractID: next.ID, Message: msg})
	}

	cost, err := fee.RegistrationCost(next, c.Version)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("registration cost: %v", err)
	}

	a := action.DataContractUpdate{
		Base:                  c.base(t).WithCosts(fee.PrecalculatedOp(0, cost)),
		Contract:              next,
		IdentityContractNonce: t.IdentityContractNonce,
	}

	return validation.NewWithData[action.Action](a), nil
}

// incompatibleChange returns why the update would break the documents and the
// tokens already stored, or an empty string. Document types can only be added.
func incompatibleChange(old, next contract.DataContract) string {
	if old.Config != next.Config {
		return "contract config cannot change"
	}

	for _, name := range old.DocumentTypeNames() {
		prev := old.DocumentTypes[name]

		dt, found := next.DocumentType(name)
		if !found {
			return fmt.Sprintf("document type %s cannot be removed", name)
		}

		if prev.Mutable != dt.Mutable || prev.CanBeDeleted != dt.CanBeDeleted {
			return fmt.Sprintf("document type %s cannot change its mutability", name)
		}

		if prev.Transferable != dt.Transferable || prev.DirectPurchase != dt.DirectPurchase {
			return fmt.Sprintf("document type %s cannot change its trade rules", name)
		}

		if !sameIndices(prev.Indices, dt.Indices) {
			return fmt.Sprintf("indices of document type %s cannot change", name)
		}
	}

	for _, pos := range old.TokenPositions() {
		cfg, found := next.Token(pos)
		if !found {
			return fmt.Sprintf("token %d cannot be removed", pos)
		}

		if cfg != old.Tokens[pos] {
			return fmt.Sprintf("token %d cannot change", pos)
		}
	}

	return ""
}

func sameIndices(a, b []contract.Index) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Name != b[i].Name || a[i].Unique != b[i].Unique || a[i].Contested != b[i].Contested {
			return false
		}

		if len(a[i].Properties) != len(b[i].Properties) {
			return false
		}

		for j := range a[i].Properties {
			if a[i].Properties[j] != b[i].Properties[j] {
				return false
			}
		}
	}

	return true
}

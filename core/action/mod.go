// Package action defines the actions that validated state transitions are
// transformed into. An action holds the resolved values it applies, so that
// the execution never reads again what the validation has already paid for.
package action

import (
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/types"
)

// PayerKind is the source of the fees of an action.
type PayerKind uint8

const (
	// IdentityPayer debits the balance of an identity.
	IdentityPayer PayerKind = iota
	// AssetLockPayer takes the fees from the credits of an asset lock. The
	// operations of the action already account for them.
	AssetLockPayer
	// PrefundedPayer debits a specialized balance.
	PrefundedPayer
)

// Payer is who pays for an action.
type Payer struct {
	Kind PayerKind
	ID   types.Identifier
}

// Action is the storage-ready form of a state transition.
type Action interface {
	// Ops returns the writes of the action.
	Ops(block types.BlockInfo) ([]drive.Op, error)

	// Payer returns who pays for the action.
	Payer() Payer

	// Costs returns the operations paid during the validation, such as the
	// signature verification.
	Costs() []fee.Operation

	// Principal returns the credits moved out of the balance of the payer
	// that are not fees.
	Principal() types.Credits

	// UserFeeIncrease returns the percentage added to the processing fee.
	UserFeeIncrease() uint16
}

// Funded is implemented by the actions that credit their payer before it
// pays for them.
type Funded interface {
	Action

	// Funding returns the credits added to the balance of the payer.
	Funding() types.Credits
}

// Base holds what every action carries.
type Base struct {
	FeeCosts    []fee.Operation
	FeeIncrease uint16
}

// Costs implements action.Action.
func (b Base) Costs() []fee.Operation {
	return b.FeeCosts
}

// Principal implements action.Action. Most actions move no credits.
func (b Base) Principal() types.Credits {
	return 0
}

// UserFeeIncrease implements action.Action.
func (b Base) UserFeeIncrease() uint16 {
	return b.FeeIncrease
}

// WithCosts returns a copy of the base with more operations.
func (b Base) WithCosts(ops ...fee.Operation) Base {
	costs := make([]fee.Operation, 0, len(b.FeeCosts)+len(ops))
	costs = append(costs, b.FeeCosts...)
	b.FeeCosts = append(costs, ops...)

	return b
}

func identityPayer(id types.Identifier) Payer {
	return Payer{Kind: IdentityPayer, ID: id}
}

// BumpIdentityNonce only consumes the nonce of a transition that failed after
// its signature was verified, so that it cannot be replayed for free.
//
// - implements action.Action
type BumpIdentityNonce struct {
	Base
	IdentityID types.Identifier
	Nonce      uint64
}

// Ops implements action.Action.
func (a BumpIdentityNonce) Ops(types.BlockInfo) ([]drive.Op, error) {
	return []drive.Op{drive.SetIdentityNonce{ID: a.IdentityID, Nonce: a.Nonce}}, nil
}

// Payer implements action.Action.
func (a BumpIdentityNonce) Payer() Payer {
	return identityPayer(a.IdentityID)
}

// BumpIdentityDataContractNonce consumes the contract nonce of a transition
// that failed after its signature was verified.
//
// - implements action.Action
type BumpIdentityDataContractNonce struct {
	Base
	IdentityID types.Identifier
	ContractID types.Identifier
	Nonce      uint64
}

// Ops implements action.Action.
func (a BumpIdentityDataContractNonce) Ops(types.BlockInfo) ([]drive.Op, error) {
	op := drive.SetIdentityContractNonce{
		ID:         a.IdentityID,
		ContractID: a.ContractID,
		Nonce:      a.Nonce,
	}

	return []drive.Op{op}, nil
}

// Payer implements action.Action.
func (a BumpIdentityDataContractNonce) Payer() Payer {
	return identityPayer(a.IdentityID)
}

package action

import (
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
)

// IdentityCreate creates an identity with the credits of an asset lock. The
// new identity pays the fees from these credits.
//
// - implements action.Funded
type IdentityCreate struct {
	Base
	Identity identity.Identity
	OutPoint assetlock.OutPoint
	// Credits are the credits of the asset lock left to the identity.
	Credits        types.Credits
	InitialCredits types.Credits
}

// Ops implements action.Action.
func (a IdentityCreate) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.PutIdentity{Identity: a.Identity},
		drive.AddBalance{ID: a.Identity.ID, Amount: a.Credits},
		consumeAssetLock(a.OutPoint, a.InitialCredits),
	}

	return ops, nil
}

// Payer implements action.Action.
func (a IdentityCreate) Payer() Payer {
	return identityPayer(a.Identity.ID)
}

// Funding implements action.Funded.
func (a IdentityCreate) Funding() types.Credits {
	return a.Credits
}

// IdentityTopUp adds the credits of an asset lock to an identity.
//
// - implements action.Funded
type IdentityTopUp struct {
	Base
	IdentityID     types.Identifier
	OutPoint       assetlock.OutPoint
	Credits        types.Credits
	InitialCredits types.Credits
}

// Ops implements action.Action.
func (a IdentityTopUp) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.AddBalance{ID: a.IdentityID, Amount: a.Credits},
		consumeAssetLock(a.OutPoint, a.InitialCredits),
	}

	return ops, nil
}

// Payer implements action.Action.
func (a IdentityTopUp) Payer() Payer {
	return identityPayer(a.IdentityID)
}

// Funding implements action.Funded.
func (a IdentityTopUp) Funding() types.Credits {
	return a.Credits
}

func consumeAssetLock(outpoint assetlock.OutPoint, initial types.Credits) drive.Op {
	return drive.PutAssetLock{
		OutPoint: outpoint,
		Info: assetlock.Info{
			Status:         assetlock.FullyConsumed,
			InitialCredits: initial,
		},
	}
}

// PartiallyUseAssetLock takes a penalty from an asset lock whose identity
// creation or top up failed after the lock was verified. The rest of the
// credits can be used by another transition.
//
// - implements action.Action
type PartiallyUseAssetLock struct {
	Base
	OutPoint         assetlock.OutPoint
	InitialCredits   types.Credits
	RemainingCredits types.Credits
	Penalty          types.Credits
}

// Ops implements action.Action.
func (a PartiallyUseAssetLock) Ops(types.BlockInfo) ([]drive.Op, error) {
	remaining := a.RemainingCredits - a.Charged()

	status := assetlock.PartiallyConsumed
	if remaining == 0 {
		status = assetlock.FullyConsumed
	}

	op := drive.PutAssetLock{
		OutPoint: a.OutPoint,
		Info: assetlock.Info{
			Status:           status,
			InitialCredits:   a.InitialCredits,
			RemainingCredits: remaining,
		},
	}

	return []drive.Op{op}, nil
}

// Charged returns the credits taken from the asset lock, which is the penalty
// unless the lock holds less.
func (a PartiallyUseAssetLock) Charged() types.Credits {
	if a.RemainingCredits < a.Penalty {
		return a.RemainingCredits
	}

	return a.Penalty
}

// Payer implements action.Action.
func (a PartiallyUseAssetLock) Payer() Payer {
	return Payer{Kind: AssetLockPayer}
}

// IdentityUpdate replaces the keys of an identity and increments its
// revision.
//
// - implements action.Action
type IdentityUpdate struct {
	Base
	// Identity is the identity once updated.
	Identity identity.Identity
	Nonce    uint64
}

// Ops implements action.Action.
func (a IdentityUpdate) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.PutIdentity{Identity: a.Identity},
		drive.SetIdentityNonce{ID: a.Identity.ID, Nonce: a.Nonce},
	}

	return ops, nil
}

// Payer implements action.Action.
func (a IdentityUpdate) Payer() Payer {
	return identityPayer(a.Identity.ID)
}

// IdentityCreditTransfer moves credits between identities.
//
// - implements action.Action
type IdentityCreditTransfer struct {
	Base
	IdentityID  types.Identifier
	RecipientID types.Identifier
	Amount      types.Credits
	Nonce       uint64
}

// Ops implements action.Action.
func (a IdentityCreditTransfer) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.RemoveBalance{ID: a.IdentityID, Amount: a.Amount},
		drive.AddBalance{ID: a.RecipientID, Amount: a.Amount},
		drive.SetIdentityNonce{ID: a.IdentityID, Nonce: a.Nonce},
	}

	return ops, nil
}

// Payer implements action.Action.
func (a IdentityCreditTransfer) Payer() Payer {
	return identityPayer(a.IdentityID)
}

// Principal implements action.Action.
func (a IdentityCreditTransfer) Principal() types.Credits {
	return a.Amount
}

// IdentityCreditWithdrawal queues a withdrawal of credits to the core chain.
//
// - implements action.Action
type IdentityCreditWithdrawal struct {
	Base
	Withdrawal drive.Withdrawal
}

// Ops implements action.Action.
func (a IdentityCreditWithdrawal) Ops(block types.BlockInfo) ([]drive.Op, error) {
	w := a.Withdrawal
	w.CreatedAt = block.TimeMs

	ops := []drive.Op{
		drive.RemoveBalance{ID: w.IdentityID, Amount: w.Amount},
		drive.PutWithdrawal{Withdrawal: w},
		drive.SetIdentityNonce{ID: w.IdentityID, Nonce: w.Nonce},
	}

	return ops, nil
}

// Payer implements action.Action.
func (a IdentityCreditWithdrawal) Payer() Payer {
	return identityPayer(a.Withdrawal.IdentityID)
}

// Principal implements action.Action.
func (a IdentityCreditWithdrawal) Principal() types.Credits {
	return a.Withdrawal.Amount
}

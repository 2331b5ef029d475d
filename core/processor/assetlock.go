package processor

import (
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// lockedCredits are the credits of a verified asset lock.
type lockedCredits struct {
	OutPoint   assetlock.OutPoint
	Initial    types.Credits
	Remaining  types.Credits
	PubKeyHash []byte
}

type instantLockFunc func(c *call, lock assetlock.InstantLock) (validation.Simple, error)

var verifyInstantLockSignature = version.NewDispatcher[instantLockFunc](
	version.VerifyInstantLockSignature,
	verifyInstantLockSignatureV0,
)

// The quorums are only looked up locally. An unknown quorum is rejected
// instead of asking the core chain, and the owner must then submit a chain
// proof.
func verifyInstantLockSignatureV0(c *call, lock assetlock.InstantLock) (validation.Simple, error) {
	c.pay(fee.SignatureOp(identity.BLS))

	err := c.Quorums.VerifyInstantLock(lock)
	if xerrors.Is(err, assetlock.ErrQuorumNotFound) {
		return simple(consensus.InvalidInstantAssetLockProofError{
			Message: "instant lock quorum is unknown, a chain asset lock proof is required",
		}), nil
	}

	if err != nil {
		return simple(consensus.InvalidInstantAssetLockProofSignatureError{}), nil
	}

	return valid(), nil
}

type fetchOutputFunc func(c *call, proof assetlock.ChainProof) (validation.Result[assetlock.Output], error)

var fetchAssetLockOutput = version.NewDispatcher[fetchOutputFunc](
	version.FetchAssetLockOutput,
	fetchAssetLockOutputV0,
)

func fetchAssetLockOutputV0(c *call, proof assetlock.ChainProof) (validation.Result[assetlock.Output], error) {
	if proof.CoreChainLockedHeight > c.Block.CoreHeight {
		return validation.NewWithError[assetlock.Output](consensus.InvalidAssetLockProofCoreChainHeightError{
			ProofCoreChainLockedHeight:   proof.CoreChainLockedHeight,
			CurrentCoreChainLockedHeight: c.Block.CoreHeight,
		}), nil
	}

	if c.proc.core == nil {
		return validation.Result[assetlock.Output]{}, xerrors.New("core rpc is not available")
	}

	info, err := c.proc.core.GetTransaction(c.ctx, proof.OutPoint.TxID)
	if xerrors.Is(err, corerpc.ErrNotFound) {
		return validation.NewWithError[assetlock.Output](consensus.InvalidIdentityAssetLockProofChainLockValidationError{
			TransactionID: proof.OutPoint.TxID,
			Height:        proof.CoreChainLockedHeight,
		}), nil
	}

	if err != nil {
		return validation.Result[assetlock.Output]{}, xerrors.Errorf("core rpc: %v", err)
	}

	if !info.ChainLocked || info.Height == 0 || info.Height > proof.CoreChainLockedHeight {
		return validation.NewWithError[assetlock.Output](consensus.InvalidAssetLockProofTransactionHeightError{
			ProofCoreChainLockedHeight: proof.CoreChainLockedHeight,
			TransactionHeight:          info.Height,
		}), nil
	}

	output, found := info.Transaction.Output(proof.OutPoint.Index)
	if !found {
		return validation.NewWithError[assetlock.Output](consensus.IdentityAssetLockTransactionOutputNotFoundError{
			OutputIndex: proof.OutPoint.Index,
		}), nil
	}

	return validation.NewWithData(output), nil
}

type notSpentFunc func(c *call, outpoint assetlock.OutPoint,
	initial types.Credits) (validation.Result[types.Credits], error)

var verifyAssetLockIsNotSpent = version.NewDispatcher[notSpentFunc](
	version.VerifyAssetLockIsNotSpent,
	verifyAssetLockIsNotSpentV0,
)

// verifyAssetLockIsNotSpentV0 returns the credits left on the outpoint.
func verifyAssetLockIsNotSpentV0(c *call, outpoint assetlock.OutPoint,
	initial types.Credits) (validation.Result[types.Credits], error) {

	info, err := c.drive().FetchAssetLock(c.Tx, outpoint)
	if err != nil {
		return validation.Result[types.Credits]{}, xerrors.Errorf("couldn't fetch asset lock: %v", err)
	}

	c.pay(fee.SeekOp())

	switch info.Status {
	case assetlock.FullyConsumed:
		return validation.NewWithError[types.Credits](consensus.IdentityAssetLockTransactionOutPointAlreadyConsumedError{
			TransactionID: outpoint.TxID,
			OutputIndex:   outpoint.Index,
		}), nil
	case assetlock.PartiallyConsumed:
		return validation.NewWithData(info.RemainingCredits), nil
	default:
		return validation.NewWithData(initial), nil
	}
}

// verifyAssetLock verifies the proof and returns the credits it holds. The
// credits left on the outpoint must cover the required amount.
func (c *call) verifyAssetLock(proof assetlock.Proof,
	required types.Credits) (validation.Result[lockedCredits], error) {

	fail := func(err consensus.Error) (validation.Result[lockedCredits], error) {
		return validation.NewWithError[lockedCredits](err), nil
	}

	typ, err := proof.Type()
	if err != nil {
		return fail(consensus.InvalidInstantAssetLockProofError{Message: err.Error()})
	}

	var output assetlock.Output

	switch typ {
	case assetlock.Instant:
		if !c.Skip.Has(validation.CheckInstantLockSignature) {
			fn, err := verifyInstantLockSignature.Resolve(c.Version)
			if err != nil {
				return validation.Result[lockedCredits]{}, err
			}

			res, err := fn(c, proof.Instant.Lock)
			if err != nil {
				return validation.Result[lockedCredits]{}, err
			}

			if !res.IsValid() {
				return fail(res.FirstError())
			}
		}

		out, found := proof.Instant.Transaction.Output(proof.Instant.OutputIndex)
		if !found {
			return fail(consensus.IdentityAssetLockTransactionOutputNotFoundError{
				OutputIndex: proof.Instant.OutputIndex,
			})
		}

		output = out
	default:
		fn, err := fetchAssetLockOutput.Resolve(c.Version)
		if err != nil {
			return validation.Result[lockedCredits]{}, err
		}

		res, err := fn(c, *proof.Chain)
		if err != nil {
			return validation.Result[lockedCredits]{}, err
		}

		out, ok := res.Data()
		if !res.IsValid() || !ok {
			return fail(res.FirstError())
		}

		output = out
	}

	outpoint, err := proof.OutPoint()
	if err != nil {
		return fail(consensus.InvalidInstantAssetLockProofError{Message: err.Error()})
	}

	hash, ok := assetlock.PubKeyHash(output.Script)
	if !ok {
		return fail(consensus.InvalidAssetLockTransactionOutputScriptError{OutputIndex: outpoint.Index})
	}

	initial, err := output.Credits()
	if err != nil {
		return fail(consensus.InvalidInstantAssetLockProofError{Message: err.Error()})
	}

	remaining := initial

	if !c.Skip.Has(validation.CheckAssetLockSpent) {
		fn, err := verifyAssetLockIsNotSpent.Resolve(c.Version)
		if err != nil {
			return validation.Result[lockedCredits]{}, err
		}

		res, err := fn(c, outpoint, initial)
		if err != nil {
			return validation.Result[lockedCredits]{}, err
		}

		credits, ok := res.Data()
		if !res.IsValid() || !ok {
			return fail(res.FirstError())
		}

		remaining = credits
	}

	if remaining < required {
		return fail(consensus.IdentityAssetLockTransactionOutPointNotEnoughBalanceError{
			TransactionID:    outpoint.TxID,
			OutputIndex:      outpoint.Index,
			InitialCredits:   initial,
			RemainingCredits: remaining,
			RequiredCredits:  required,
		})
	}

	locked := lockedCredits{
		OutPoint:   outpoint,
		Initial:    initial,
		Remaining:  remaining,
		PubKeyHash: hash,
	}

	return validation.NewWithData(locked), nil
}

// authenticateAssetLock returns the stage verifying the asset lock of the
// transition and its signature by the key the credits are locked to.
func authenticateAssetLock[T transition.AssetLockSigned](required func(c *call, t T) types.Credits) stageFunc[T] {
	return func(c *call, t T) (validation.Simple, error) {
		res, err := c.verifyAssetLock(t.GetAssetLockProof(), required(c, t))
		if err != nil {
			return validation.Simple{}, err
		}

		locked, ok := res.Data()
		if !res.IsValid() || !ok {
			return simple(res.Errors()...), nil
		}

		c.lock = locked

		if c.Skip.Has(validation.CheckSignature) {
			return valid(), nil
		}

		data, err := transition.SignableBytes(t)
		if err != nil {
			return validation.Simple{}, xerrors.Errorf("couldn't get signable bytes: %v", err)
		}

		c.pay(fee.SignatureOp(identity.ECDSAHash160))

		key := identity.PublicKey{Type: identity.ECDSAHash160, Data: locked.PubKeyHash}

		err = key.Verify(data, t.GetSignature())
		if err != nil {
			return simple(consensus.InvalidStateTransitionSignatureError{}), nil
		}

		return valid(), nil
	}
}

// validateProofStructure verifies the parts of the proof that do not need
// the core chain.
func validateProofStructure(proof assetlock.Proof) consensus.Error {
	typ, err := proof.Type()
	if err != nil {
		return consensus.InvalidInstantAssetLockProofError{Message: err.Error()}
	}

	if typ == assetlock.Chain {
		return nil
	}

	txID, err := proof.Instant.Transaction.ID()
	if err != nil {
		return consensus.InvalidInstantAssetLockProofError{Message: err.Error()}
	}

	if txID != proof.Instant.Lock.TxID {
		return consensus.InvalidInstantAssetLockProofError{
			Message: "instant lock does not lock the transaction",
		}
	}

	_, found := proof.Instant.Transaction.Output(proof.Instant.OutputIndex)
	if !found {
		return consensus.IdentityAssetLockTransactionOutputNotFoundError{
			OutputIndex: proof.Instant.OutputIndex,
		}
	}

	return nil
}

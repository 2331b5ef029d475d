// Package processor implements the validation pipeline of the state
// transitions and their transformation into actions.
//
// A transition goes through ordered stages and the first stage that fails
// decides the outcome:
//   - the structure is validated from the transition alone,
//   - the signer is authenticated, either an identity or an asset lock,
//   - the nonces are checked against the last ones used,
//   - the balance of the owner is compared to the minimum fee,
//   - the state is validated and the action is produced.
//
// Failures before the state stage are unpaid. Failures of the state stage
// carry the action that still charges the signer for the attempt, such as
// bumping its nonce.
package processor

import (
	"context"

	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// maxNonce is the largest nonce a transition can use.
const maxNonce = 1<<40 - 1

// Params are the rules of the processor that the protocol version tables do
// not define.
type Params struct {
	// MinVoteFee is the smallest prefunded balance a vote poll must hold for
	// a masternode to vote on it.
	MinVoteFee types.Credits
	// MaxVotesPerPoll is the number of times a masternode can vote on the
	// same poll.
	MaxVotesPerPoll uint16
}

// DefaultParams are the parameters of a node without configuration.
var DefaultParams = Params{
	MinVoteFee:      100_000_000,
	MaxVotesPerPoll: 5,
}

// Context is the environment a transition is validated in.
type Context struct {
	Version *version.PlatformVersion
	Mode    validation.Mode
	// Block is the block being executed, or the last committed block when
	// checking a transition for the mempool.
	Block types.BlockInfo
	// Tx is the transaction the state is read from. Nil reads the committed
	// state.
	Tx      *drive.Transaction
	Quorums assetlock.QuorumSet
	// Skip are the checks already done on the transition.
	Skip validation.CheckSet
	// DryRun estimates the transition without rejecting it on state that the
	// caller knows is provisional.
	DryRun bool
}

// Processor validates the state transitions and transforms them into
// actions.
type Processor struct {
	drive  drive.Reader
	core   corerpc.Client
	params Params
}

// NewProcessor creates a processor reading the state from the drive. The
// core client is only used to verify chain asset lock proofs.
func NewProcessor(d drive.Reader, core corerpc.Client, params Params) Processor {
	return Processor{
		drive:  d,
		core:   core,
		params: params,
	}
}

type processFunc func(c *call, st transition.StateTransition) (validation.Result[action.Action], error)

var processStateTransition = version.NewDispatcher[processFunc](
	version.ProcessStateTransition,
	processV0,
)

// Process runs the pipeline on the transition. The result is valid with the
// action to apply, invalid with the action charging the failure, or invalid
// without action when nobody can be charged. An error is returned when the
// node itself fails.
func (p Processor) Process(ctx context.Context, pctx Context,
	st transition.StateTransition) (validation.Result[action.Action], error) {

	fn, err := processStateTransition.Resolve(pctx.Version)
	if err != nil {
		return validation.Result[action.Action]{}, err
	}

	c := &call{
		Context: pctx,
		ctx:     ctx,
		proc:    p,
	}

	c.Skip |= pctx.Mode.Skipped()

	return fn(c, st)
}

// ValidateStructure runs the structure stage only. It never reads the state
// and can run concurrently.
func (p Processor) ValidateStructure(pv *version.PlatformVersion,
	st transition.StateTransition) (validation.Simple, error) {

	c := &call{
		Context: Context{Version: pv},
		ctx:     context.Background(),
		proc:    p,
	}

	switch t := st.(type) {
	case transition.DataContractCreate:
		return dataContractCreateHandler.validateStructure(c, t)
	case transition.DataContractUpdate:
		return dataContractUpdateHandler.validateStructure(c, t)
	case transition.Batch:
		return batchHandler.validateStructure(c, t)
	case transition.IdentityCreate:
		return identityCreateHandler.validateStructure(c, t)
	case transition.IdentityTopUp:
		return identityTopUpHandler.validateStructure(c, t)
	case transition.IdentityUpdate:
		return identityUpdateHandler.validateStructure(c, t)
	case transition.IdentityCreditTransfer:
		return creditTransferHandler.validateStructure(c, t)
	case transition.IdentityCreditWithdrawal:
		return creditWithdrawalHandler.validateStructure(c, t)
	case transition.MasternodeVote:
		return masternodeVoteHandler.validateStructure(c, t)
	default:
		return validation.Simple{}, xerrors.Errorf("unknown transition %T", st)
	}
}

func processV0(c *call, st transition.StateTransition) (validation.Result[action.Action], error) {
	switch t := st.(type) {
	case transition.DataContractCreate:
		return dataContractCreateHandler.run(c, t)
	case transition.DataContractUpdate:
		return dataContractUpdateHandler.run(c, t)
	case transition.Batch:
		return batchHandler.run(c, t)
	case transition.IdentityCreate:
		return identityCreateHandler.run(c, t)
	case transition.IdentityTopUp:
		return identityTopUpHandler.run(c, t)
	case transition.IdentityUpdate:
		return identityUpdateHandler.run(c, t)
	case transition.IdentityCreditTransfer:
		return creditTransferHandler.run(c, t)
	case transition.IdentityCreditWithdrawal:
		return creditWithdrawalHandler.run(c, t)
	case transition.MasternodeVote:
		return masternodeVoteHandler.run(c, t)
	default:
		return validation.Result[action.Action]{}, xerrors.Errorf("unknown transition %T", st)
	}
}

// DryRunPolicy is what a dry run does when the state stage fails.
type DryRunPolicy uint8

const (
	// ReportStateErrors returns the errors of the state stage.
	ReportStateErrors DryRunPolicy = iota
	// SkipStateErrors returns a valid result without action.
	SkipStateErrors
)

// String implements fmt.Stringer.
func (p DryRunPolicy) String() string {
	switch p {
	case ReportStateErrors:
		return "report"
	case SkipStateErrors:
		return "skip"
	default:
		return "unknown"
	}
}

// Contracts are often registered and updated together with the transitions
// that depend on them, so their state is provisional during a dry run.
var dryRunPolicies = map[transition.Type]DryRunPolicy{
	transition.DataContractCreateType:       SkipStateErrors,
	transition.DataContractUpdateType:       SkipStateErrors,
	transition.BatchType:                    ReportStateErrors,
	transition.IdentityCreateType:           ReportStateErrors,
	transition.IdentityTopUpType:            ReportStateErrors,
	transition.IdentityUpdateType:           ReportStateErrors,
	transition.IdentityCreditTransferType:   ReportStateErrors,
	transition.IdentityCreditWithdrawalType: ReportStateErrors,
	transition.MasternodeVoteType:           ReportStateErrors,
}

// DryRunPolicyOf returns the dry run policy of the type of transition.
func DryRunPolicyOf(typ transition.Type) DryRunPolicy {
	return dryRunPolicies[typ]
}

type stageFunc[T any] func(c *call, t T) (validation.Simple, error)

type transformFunc[T any] func(c *call, t T) (validation.Result[action.Action], error)

// handler is the list of stages of a type of transition. The optional stages
// are nil when the type does not need them.
type handler[T transition.StateTransition] struct {
	structure    version.Dispatcher[stageFunc[T]]
	authenticate stageFunc[T]
	nonce        stageFunc[T]
	balance      stageFunc[T]
	// advanced runs after the authentication and its failures are paid.
	advanced *version.Dispatcher[transformFunc[T]]
	state    version.Dispatcher[transformFunc[T]]
}

func (h handler[T]) validateStructure(c *call, t T) (validation.Simple, error) {
	fn, err := h.structure.Resolve(c.Version)
	if err != nil {
		return validation.Simple{}, err
	}

	return fn(c, t)
}

func (h handler[T]) run(c *call, t T) (validation.Result[action.Action], error) {
	if !c.Skip.Has(validation.CheckStructure) {
		res, err := h.validateStructure(c, t)
		if err != nil || !res.IsValid() {
			return unpaid(res, err)
		}
	}

	res, err := h.authenticate(c, t)
	if err != nil || !res.IsValid() {
		return unpaid(res, err)
	}

	if h.nonce != nil && !c.Skip.Has(validation.CheckNonce) {
		res, err = h.nonce(c, t)
		if err != nil || !res.IsValid() {
			return unpaid(res, err)
		}
	}

	if h.balance != nil && !c.Skip.Has(validation.CheckBalance) {
		res, err = h.balance(c, t)
		if err != nil || !res.IsValid() {
			return unpaid(res, err)
		}
	}

	if h.advanced != nil {
		fn, err := h.advanced.Resolve(c.Version)
		if err != nil {
			return validation.Result[action.Action]{}, err
		}

		res, err := fn(c, t)
		if err != nil || !res.IsValid() {
			return res, err
		}
	}

	fn, err := h.state.Resolve(c.Version)
	if err != nil {
		return validation.Result[action.Action]{}, err
	}

	out, err := fn(c, t)
	if err != nil {
		return validation.Result[action.Action]{}, err
	}

	if c.DryRun && !out.IsValid() && DryRunPolicyOf(t.GetType()) == SkipStateErrors {
		return validation.New[action.Action](), nil
	}

	return out, nil
}

func unpaid(res validation.Simple, err error) (validation.Result[action.Action], error) {
	if err != nil {
		return validation.Result[action.Action]{}, err
	}

	return validation.NewWithErrors[action.Action](res.Errors()), nil
}

// call is the state of the pipeline for one transition.
type call struct {
	Context

	ctx  context.Context
	proc Processor

	// costs are the operations paid by the transition so far.
	costs []fee.Operation
	// signer is the identity that signed the transition.
	signer identity.Identity
	// lock is the asset lock that funds the transition.
	lock lockedCredits
}

func (c *call) drive() drive.Reader {
	return c.proc.drive
}

func (c *call) pay(ops ...fee.Operation) {
	c.costs = append(c.costs, ops...)
}

func (c *call) base(st transition.StateTransition) action.Base {
	return action.Base{
		FeeCosts:    append([]fee.Operation{}, c.costs...),
		FeeIncrease: st.GetUserFeeIncrease(),
	}
}

func (c *call) bumpNonce(st transition.StateTransition, nonce uint64,
	errs ...consensus.Error) validation.Result[action.Action] {

	a := action.BumpIdentityNonce{
		Base:       c.base(st),
		IdentityID: st.GetOwnerID(),
		Nonce:      nonce,
	}

	return validation.NewWithDataAndErrors[action.Action](a, errs)
}

func (c *call) bumpContractNonce(st transition.StateTransition, contractID types.Identifier,
	nonce uint64, errs ...consensus.Error) validation.Result[action.Action] {

	a := action.BumpIdentityDataContractNonce{
		Base:       c.base(st),
		IdentityID: st.GetOwnerID(),
		ContractID: contractID,
		Nonce:      nonce,
	}

	return validation.NewWithDataAndErrors[action.Action](a, errs)
}

func (c *call) partiallyUseAssetLock(errs ...consensus.Error) validation.Result[action.Action] {
	a := action.PartiallyUseAssetLock{
		Base:             action.Base{FeeCosts: append([]fee.Operation{}, c.costs...)},
		OutPoint:         c.lock.OutPoint,
		InitialCredits:   c.lock.Initial,
		RemainingCredits: c.lock.Remaining,
		Penalty:          c.Version.Fee.AssetLockPenalty,
	}

	return validation.NewWithDataAndErrors[action.Action](a, errs)
}

func simple(errs ...consensus.Error) validation.Simple {
	return validation.NewWithErrors[struct{}](errs)
}

func valid() validation.Simple {
	return validation.New[struct{}]()
}

func checkNonceBounds(nonce uint64) []consensus.Error {
	if nonce > maxNonce {
		return []consensus.Error{consensus.NonceOutOfBoundsError{Nonce: nonce}}
	}

	return nil
}

// preCheckBalance compares the balance of the signer with the minimum of the
// transition.
func preCheckBalance[T transition.IdentitySigned](c *call, t T) (validation.Simple, error) {
	res, err := fee.ValidateMinimumBalancePreCheck(t, c.signer.Balance, c.Version)
	if err != nil {
		return validation.Simple{}, xerrors.Errorf("balance pre-check: %v", err)
	}

	return res, nil
}

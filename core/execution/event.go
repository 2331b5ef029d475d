package execution

import (
	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// Event is an action to execute with the smallest fee its payer owes.
type Event struct {
	Action action.Action
	// MinimumFee is enforced on the identity paying the event. It is zero for
	// the actions charging a failure.
	MinimumFee types.Credits
}

// Fees are the fees of an executed event.
type Fees struct {
	Estimated fee.Result
	Actual    fee.Result
	// Paid is the amount actually taken from the payer.
	Paid types.Credits
}

type validateFeesFunc func(e Executor, tx *drive.Transaction, ev Event, block types.BlockInfo,
	pv *version.PlatformVersion) (validation.Result[fee.Result], error)

type executeFunc func(e Executor, tx *drive.Transaction, ev Event, block types.BlockInfo,
	pv *version.PlatformVersion) (validation.Result[Fees], error)

var validateFeesOfEvent = version.NewDispatcher[validateFeesFunc](
	version.ValidateFeesOfEvent,
	validateFeesOfEventV0,
)

var executeEvent = version.NewDispatcher[executeFunc](
	version.ExecuteEvent,
	executeEventV0,
)

// Executor applies the events to the drive and charges their payer.
type Executor struct {
	drive drive.Drive
}

// NewExecutor creates an executor writing to the drive.
func NewExecutor(d drive.Drive) Executor {
	return Executor{drive: d}
}

// ValidateFeesOfEvent estimates the fees of the event against the state of
// the transaction, or the committed state if it is nil, and verifies that the
// payer can afford them. Nothing is written.
func (e Executor) ValidateFeesOfEvent(tx *drive.Transaction, ev Event, block types.BlockInfo,
	pv *version.PlatformVersion) (validation.Result[fee.Result], error) {

	fn, err := validateFeesOfEvent.Resolve(pv)
	if err != nil {
		return validation.Result[fee.Result]{}, err
	}

	return fn(e, tx, ev, block, pv)
}

// ExecuteEvent applies the event to the transaction and charges its payer.
// The result is invalid and the transaction untouched when the payer cannot
// afford the fees. An error leaves the transaction with part of the writes.
func (e Executor) ExecuteEvent(tx *drive.Transaction, ev Event, block types.BlockInfo,
	pv *version.PlatformVersion) (validation.Result[Fees], error) {

	fn, err := executeEvent.Resolve(pv)
	if err != nil {
		return validation.Result[Fees]{}, err
	}

	return fn(e, tx, ev, block, pv)
}

func validateFeesOfEventV0(e Executor, tx *drive.Transaction, ev Event, block types.BlockInfo,
	pv *version.PlatformVersion) (validation.Result[fee.Result], error) {

	ops, err := ev.Action.Ops(block)
	if err != nil {
		return validation.Result[fee.Result]{}, xerrors.Errorf("couldn't get operations: %v", err)
	}

	storage, err := e.drive.Estimate(tx, ops, block)
	if err != nil {
		return validation.Result[fee.Result]{}, xerrors.Errorf("couldn't estimate: %v", err)
	}

	fees, err := feesOf(ev.Action, storage, block.Epoch, pv)
	if err != nil {
		return validation.Result[fee.Result]{}, err
	}

	res, err := e.validatePayer(tx, ev, fees)
	if err != nil {
		return validation.Result[fee.Result]{}, err
	}

	if !res.IsValid() {
		return validation.NewWithErrors[fee.Result](res.Errors()), nil
	}

	return validation.NewWithData(fees), nil
}

func executeEventV0(e Executor, tx *drive.Transaction, ev Event, block types.BlockInfo,
	pv *version.PlatformVersion) (validation.Result[Fees], error) {

	estimated, err := e.ValidateFeesOfEvent(tx, ev, block, pv)
	if err != nil {
		return validation.Result[Fees]{}, xerrors.Errorf("couldn't validate fees: %v", err)
	}

	if !estimated.IsValid() {
		return validation.NewWithErrors[Fees](estimated.Errors()), nil
	}

	ops, err := ev.Action.Ops(block)
	if err != nil {
		return validation.Result[Fees]{}, xerrors.Errorf("couldn't get operations: %v", err)
	}

	storage, err := e.drive.Apply(tx, ops, block)
	if err != nil {
		return validation.Result[Fees]{}, xerrors.Errorf("couldn't apply action: %v", err)
	}

	actual, err := feesOf(ev.Action, storage, block.Epoch, pv)
	if err != nil {
		return validation.Result[Fees]{}, err
	}

	paid, err := e.charge(tx, ev.Action, actual, block)
	if err != nil {
		return validation.Result[Fees]{}, xerrors.Errorf("couldn't charge: %v", err)
	}

	est, _ := estimated.Data()

	return validation.NewWithData(Fees{Estimated: est, Actual: actual, Paid: paid}), nil
}

// feesOf returns the fees of the action once its storage operations are
// known. An asset lock pays the penalty its operations already take.
func feesOf(a action.Action, storage []fee.Operation, epoch types.EpochIndex,
	pv *version.PlatformVersion) (fee.Result, error) {

	if lock, ok := a.(action.PartiallyUseAssetLock); ok {
		return fee.Result{ProcessingFee: lock.Charged()}, nil
	}

	ops := make([]fee.Operation, 0, len(a.Costs())+len(storage))
	ops = append(ops, a.Costs()...)
	ops = append(ops, storage...)

	res, err := fee.CalculateOperationFees(ops, epoch, pv)
	if err != nil {
		return fee.Result{}, xerrors.Errorf("couldn't calculate fees: %v", err)
	}

	res, err = res.ApplyUserFeeIncrease(a.UserFeeIncrease())
	if err != nil {
		return fee.Result{}, xerrors.Errorf("couldn't apply fee increase: %v", err)
	}

	return res, nil
}

func (e Executor) validatePayer(tx *drive.Transaction, ev Event, fees fee.Result) (validation.Simple, error) {
	payer := ev.Action.Payer()

	switch payer.Kind {
	case action.IdentityPayer:
		balance, _, err := e.drive.FetchBalance(tx, payer.ID)
		if err != nil {
			return validation.Simple{}, xerrors.Errorf("couldn't fetch balance: %v", err)
		}

		funded, ok := ev.Action.(action.Funded)
		if ok {
			balance, err = fee.Add(balance, funded.Funding())
			if err != nil {
				return validation.Simple{}, err
			}
		}

		minimum := fee.Minimum{
			Principal: ev.Action.Principal(),
			Fee:       ev.MinimumFee,
		}

		return fee.ValidateBalance(payer.ID, balance, minimum, fees)
	case action.PrefundedPayer:
		balance, _, err := e.drive.FetchPrefundedBalance(tx, payer.ID)
		if err != nil {
			return validation.Simple{}, xerrors.Errorf("couldn't fetch prefunded balance: %v", err)
		}

		required, err := fees.RequiredAmount()
		if err != nil {
			return validation.Simple{}, err
		}

		if balance < required {
			return validation.NewWithError[struct{}](consensus.PrefundedSpecializedBalanceInsufficientError{
				BalanceID: payer.ID,
				Balance:   balance,
				Required:  required,
			}), nil
		}

		return validation.New[struct{}](), nil
	default:
		return validation.New[struct{}](), nil
	}
}

// charge debits the payer, credits the refunds of the other identities and
// adds what was paid to the fee pool of the epoch. It returns the amount
// paid.
func (e Executor) charge(tx *drive.Transaction, a action.Action, fees fee.Result,
	block types.BlockInfo) (types.Credits, error) {

	payer := a.Payer()

	var ops []drive.Op
	var paid types.Credits

	switch payer.Kind {
	case action.IdentityPayer:
		balance, _, err := e.drive.FetchBalance(tx, payer.ID)
		if err != nil {
			return 0, xerrors.Errorf("couldn't fetch balance: %v", err)
		}

		change, err := fees.BalanceChange(payer.ID)
		if err != nil {
			return 0, err
		}

		next, p, err := change.ApplyTo(balance)
		if err != nil {
			return 0, xerrors.Errorf("identity %v: %v", payer.ID, err)
		}

		paid = p

		if next > balance {
			ops = append(ops, drive.AddBalance{ID: payer.ID, Amount: next - balance})
		} else if next < balance {
			ops = append(ops, drive.RemoveBalance{ID: payer.ID, Amount: balance - next})
		}
	case action.PrefundedPayer:
		balance, _, err := e.drive.FetchPrefundedBalance(tx, payer.ID)
		if err != nil {
			return 0, xerrors.Errorf("couldn't fetch prefunded balance: %v", err)
		}

		change, err := prefundedChange(fees)
		if err != nil {
			return 0, err
		}

		_, p, err := change.ApplyTo(balance)
		if err != nil {
			return 0, xerrors.Errorf("prefunded balance %v: %v", payer.ID, err)
		}

		paid = p

		if paid > 0 {
			ops = append(ops, drive.RemovePrefundedBalance{ID: payer.ID, Amount: paid})
		}
	default:
		paid = fees.ProcessingFee
	}

	for _, id := range fees.Refunds.Identities() {
		if payer.Kind == action.IdentityPayer && id == payer.ID {
			continue
		}

		amount, err := fees.Refunds.For(id)
		if err != nil {
			return 0, err
		}

		ops = append(ops, drive.AddBalance{ID: id, Amount: amount})
	}

	storage := fees.StorageFee
	if storage > paid {
		storage = paid
	}

	ops = append(ops, drive.AddToFeePool{
		Epoch: block.Epoch,
		Fees: drive.FeePool{
			Storage:    storage,
			Processing: paid - storage,
		},
	})

	_, err := e.drive.Apply(tx, ops, block)
	if err != nil {
		return 0, err
	}

	return paid, nil
}

// prefundedChange returns the debit of a prefunded balance. Refunds are never
// paid to a prefunded balance.
func prefundedChange(fees fee.Result) (fee.BalanceChange, error) {
	desired, err := fees.DesiredAmount()
	if err != nil {
		return fee.BalanceChange{}, err
	}

	if desired == 0 {
		return fee.BalanceChange{Kind: fee.NoChange}, nil
	}

	required, err := fees.RequiredAmount()
	if err != nil {
		return fee.BalanceChange{}, err
	}

	return fee.BalanceChange{
		Kind:     fee.RemoveFromBalance,
		Required: required,
		Desired:  desired,
	}, nil
}

// Package checktx implements the admission of state transitions into the
// mempool.
//
// A transition is checked a first time when it is received, then rechecked
// after every block for as long as it stays in the mempool. A recheck does not
// run again the checks that cannot change with the state, such as the
// signature.
package checktx

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/dpp"
	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/execution"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/processor"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

var promChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dpp_checktx_total",
	Help: "total number of transitions checked for the mempool",
}, []string{"level", "outcome"})

func init() {
	dpp.PromCollectors = append(dpp.PromCollectors, promChecks)
}

// Level is the kind of check.
type Level uint8

const (
	// FirstTimeCheck is the check of a transition the mempool has never seen.
	FirstTimeCheck Level = iota
	// Recheck is the check of a transition already in the mempool after a
	// block has been committed.
	Recheck
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case FirstTimeCheck:
		return "first_time_check"
	case Recheck:
		return "recheck"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Mode returns the validation mode of the level.
func (l Level) Mode() validation.Mode {
	if l == Recheck {
		return validation.ModeRecheckTx
	}

	return validation.ModeCheckTx
}

// Skipped returns the checks that the level does not run. The spend status
// of an asset lock is always verified again.
func (l Level) Skipped() validation.CheckSet {
	if l == Recheck {
		return validation.NewCheckSet(
			validation.CheckStructure,
			validation.CheckSignature,
			validation.CheckInstantLockSignature,
		)
	}

	return validation.NewCheckSet()
}

// Result is what the mempool learns about an admitted transition.
type Result struct {
	Level Level
	// Fee is the estimated fee of the transition.
	Fee fee.Result
	// UniqueIdentifiers are the identifiers no two transitions in the mempool
	// can share.
	UniqueIdentifiers []string
	// Priority orders the transitions of the mempool. It is the user fee
	// increase.
	Priority uint32
	// Name is the name of the type of the transition.
	Name string
	// Hash is the SHA-256 of the raw transition.
	Hash [32]byte
}

// State is the committed state a transition is checked against.
type State struct {
	Version *version.PlatformVersion
	// Block is the last committed block.
	Block   types.BlockInfo
	Quorums assetlock.QuorumSet
}

type checkFunc func(g Gate, ctx context.Context, raw []byte, level Level,
	state State) (validation.Result[Result], error)

var checkTx = version.NewDispatcher[checkFunc](version.CheckTx, checkTxV0)

// Gate checks the transitions against the committed state of the drive. It
// never writes.
type Gate struct {
	drive  drive.Drive
	proc   processor.Processor
	exec   execution.Executor
	logger zerolog.Logger
}

// NewGate creates a gate reading the state from the drive.
func NewGate(d drive.Drive, core corerpc.Client, params processor.Params) Gate {
	return Gate{
		drive:  d,
		proc:   processor.NewProcessor(d, core, params),
		exec:   execution.NewExecutor(d),
		logger: dpp.Logger.With().Str("component", "checktx").Logger(),
	}
}

// Check decodes the transition and validates it at the level. The result is
// invalid with the consensus errors when the transition must not enter, or
// must leave, the mempool. An error is returned when the node itself fails.
func (g Gate) Check(ctx context.Context, raw []byte, level Level,
	state State) (validation.Result[Result], error) {

	fn, err := checkTx.Resolve(state.Version)
	if err != nil {
		return validation.Result[Result]{}, err
	}

	res, err := fn(g, ctx, raw, level, state)
	if err != nil {
		promChecks.WithLabelValues(level.String(), "error").Inc()
		return validation.Result[Result]{}, err
	}

	outcome := "accepted"
	if !res.IsValid() {
		outcome = "rejected"

		g.logger.Debug().
			Str("level", level.String()).
			Str("error", res.FirstError().Error()).
			Msg("transition rejected")
	}

	promChecks.WithLabelValues(level.String(), outcome).Inc()

	return res, nil
}

func checkTxV0(g Gate, ctx context.Context, raw []byte, level Level,
	state State) (validation.Result[Result], error) {

	st, cerr := transition.Decode(raw, state.Version)
	if cerr != nil {
		return validation.NewWithError[Result](cerr), nil
	}

	var res validation.Result[Result]

	// Every read of the check is made on the same snapshot so that a block
	// committed in the meantime is either fully seen or not at all.
	err := g.drive.View(func(tx *drive.Transaction) error {
		var err error
		res, err = g.check(ctx, tx, st, raw, level, state)
		return err
	})
	if err != nil {
		return validation.Result[Result]{}, err
	}

	return res, nil
}

func (g Gate) check(ctx context.Context, tx *drive.Transaction, st transition.StateTransition,
	raw []byte, level Level, state State) (validation.Result[Result], error) {

	pctx := processor.Context{
		Version: state.Version,
		Mode:    level.Mode(),
		Block:   state.Block,
		Tx:      tx,
		Quorums: state.Quorums,
		Skip:    level.Skipped(),
	}

	processed, err := g.proc.Process(ctx, pctx, st)
	if err != nil {
		return validation.Result[Result]{}, xerrors.Errorf("couldn't process: %v", err)
	}

	if !processed.IsValid() {
		return validation.NewWithErrors[Result](processed.Errors()), nil
	}

	out := Result{
		Level:             level,
		UniqueIdentifiers: st.UniqueIdentifiers(),
		Priority:          uint32(st.GetUserFeeIncrease()),
		Name:              st.GetType().String(),
		Hash:              sha256.Sum256(raw),
	}

	a, found := processed.Data()
	if !found {
		return validation.NewWithData(out), nil
	}

	fees, err := g.validateFees(tx, st, a, state)
	if err != nil {
		return validation.Result[Result]{}, err
	}

	if !fees.IsValid() {
		return validation.NewWithErrors[Result](fees.Errors()), nil
	}

	out.Fee, _ = fees.Data()

	return validation.NewWithData(out), nil
}

func (g Gate) validateFees(tx *drive.Transaction, st transition.StateTransition, a action.Action,
	state State) (validation.Result[fee.Result], error) {

	minimum, err := fee.MinimumFor(st, state.Version)
	if err != nil {
		return validation.Result[fee.Result]{}, xerrors.Errorf("couldn't get minimum: %v", err)
	}

	ev := execution.Event{Action: a, MinimumFee: minimum.Fee}

	res, err := g.exec.ValidateFeesOfEvent(tx, ev, state.Block, state.Version)
	if err != nil {
		return validation.Result[fee.Result]{}, xerrors.Errorf("couldn't validate fees: %v", err)
	}

	return res, nil
}

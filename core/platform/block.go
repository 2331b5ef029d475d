package platform

import (
	"context"

	"github.com/gammazero/workerpool"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/dpp/core/consensus"
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

type processRawFunc func(p *Platform, ctx context.Context, raws [][]byte, block types.BlockInfo,
	tx *drive.Transaction, state State) (execution.ProcessingResult, error)

var processRawStateTransitions = version.NewDispatcher[processRawFunc](
	version.ProcessRawStateTransitions,
	processRawStateTransitionsV0,
)

// ProcessRawStateTransitions executes the transitions of the block in order
// inside the transaction. Every transition produces one result, including the
// ones the node failed to execute. An error is returned when the block cannot
// be executed at all and the transaction must be rolled back.
func (p *Platform) ProcessRawStateTransitions(ctx context.Context, raws [][]byte,
	block types.BlockInfo, tx *drive.Transaction) (execution.ProcessingResult, error) {

	state := p.State()

	fn, err := processRawStateTransitions.Resolve(state.Version)
	if err != nil {
		return execution.ProcessingResult{}, err
	}

	return fn(p, ctx, raws, block, tx, state)
}

// decoded is a transition after the stages that do not read the state.
type decoded struct {
	st       transition.StateTransition
	errs     []consensus.Error
	internal error
}

func processRawStateTransitionsV0(p *Platform, ctx context.Context, raws [][]byte,
	block types.BlockInfo, tx *drive.Transaction, state State) (execution.ProcessingResult, error) {

	logger := p.logger.With().
		Str("run", xid.New().String()).
		Uint64("height", block.Height).
		Logger()

	prepared := p.prepare(raws, state.Version)

	var out execution.ProcessingResult

	for i, d := range prepared {
		res := p.execute(ctx, d, block, tx, state)

		err := out.Add(res)
		if err != nil {
			return execution.ProcessingResult{}, xerrors.Errorf("transition %d: %v", i, err)
		}

		promResults.WithLabelValues(res.Kind().String()).Inc()

		logResult(logger, i, res)
	}

	promBlockTransitions.Observe(float64(len(raws)))

	logger.Info().
		Uint32("valid", out.Valid).
		Uint32("invalid_paid", out.InvalidPaid).
		Uint32("invalid_unpaid", out.InvalidUnpaid).
		Uint32("failed", out.Failed).
		Uint64("storage_fee", out.Fees.StorageFee).
		Uint64("processing_fee", out.Fees.ProcessingFee).
		Msg("block processed")

	return out, nil
}

// prepare decodes the transitions and validates their structure on the
// workers. The order of the results is the order of the block.
func (p *Platform) prepare(raws [][]byte, pv *version.PlatformVersion) []decoded {
	prepared := make([]decoded, len(raws))

	wp := workerpool.New(p.workers)

	for i := range raws {
		i := i

		wp.Submit(func() {
			st, cerr := transition.Decode(raws[i], pv)
			if cerr != nil {
				prepared[i] = decoded{errs: []consensus.Error{cerr}}
				return
			}

			res, err := p.proc.ValidateStructure(pv, st)
			if err != nil {
				prepared[i] = decoded{st: st, internal: err}
				return
			}

			prepared[i] = decoded{st: st, errs: res.Errors()}
		})
	}

	wp.StopWait()

	return prepared
}

func (p *Platform) execute(ctx context.Context, d decoded, block types.BlockInfo,
	tx *drive.Transaction, state State) execution.Result {

	if d.internal != nil {
		return execution.InternalError{Message: d.internal.Error()}
	}

	if len(d.errs) > 0 {
		return execution.UnpaidConsensusError{Error: d.errs[0]}
	}

	pctx := p.blockContext(block, tx, state)

	res, err := p.proc.Process(ctx, pctx, d.st)
	if err != nil {
		return execution.InternalError{Message: err.Error()}
	}

	a, found := res.Data()

	if res.IsValid() {
		if !found {
			return execution.SuccessfulExecution{}
		}

		minimum, err := fee.MinimumFor(d.st, state.Version)
		if err != nil {
			return execution.InternalError{Message: err.Error()}
		}

		executed, err := p.exec.ExecuteEvent(tx, execution.Event{Action: a, MinimumFee: minimum.Fee},
			block, state.Version)
		if err != nil {
			return execution.InternalError{Message: err.Error()}
		}

		if !executed.IsValid() {
			return execution.UnpaidConsensusError{Error: executed.FirstError()}
		}

		fees, _ := executed.Data()

		return execution.SuccessfulExecution{Estimated: fees.Estimated, Actual: fees.Actual}
	}

	if !found {
		return execution.UnpaidConsensusError{Error: res.FirstError()}
	}

	// The action of an invalid transition charges the attempt.
	executed, err := p.exec.ExecuteEvent(tx, execution.Event{Action: a}, block, state.Version)
	if err != nil {
		return execution.InternalError{Message: err.Error()}
	}

	if !executed.IsValid() {
		return execution.UnpaidConsensusError{Error: res.FirstError()}
	}

	fees, _ := executed.Data()

	return execution.PaidConsensusError{Error: res.FirstError(), Actual: fees.Actual}
}

func (p *Platform) blockContext(block types.BlockInfo, tx *drive.Transaction, state State) processor.Context {
	return processor.Context{
		Version: state.Version,
		Mode:    validation.ModeValidator,
		Block:   block,
		Tx:      tx,
		Quorums: state.Quorums,
		Skip:    validation.NewCheckSet(validation.CheckStructure),
	}
}

func logResult(logger zerolog.Logger, index int, res execution.Result) {
	evt := logger.Debug().Int("index", index).Str("result", res.Kind().String())

	switch r := res.(type) {
	case execution.PaidConsensusError:
		evt = evt.Str("error", r.Error.Error())
	case execution.UnpaidConsensusError:
		evt = evt.Str("error", r.Error.Error())
	case execution.InternalError:
		evt = evt.Str("error", r.Message)
	}

	evt.Msg("transition executed")
}

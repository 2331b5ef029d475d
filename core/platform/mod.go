// Package platform ties the drive, the validation pipeline and the execution
// of the state transitions together.
//
// The state of the platform is an immutable snapshot replaced atomically when
// a block is committed or a protocol version is activated, so that the checks
// of the mempool never observe a partial update.
package platform

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/dpp"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/checktx"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/execution"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/processor"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"go.uber.org/atomic"
	"golang.org/x/xerrors"
)

// DefaultWorkers is the number of workers validating the structure of the
// transitions of a block.
const DefaultWorkers = 4

var (
	promResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dpp_platform_transitions_total",
		Help: "total number of executed transitions by outcome",
	}, []string{"outcome"})

	promBlockTransitions = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dpp_platform_transitions_block",
		Help:    "number of transitions in the last block",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20, 30, 50, 100},
	})

	promProtocolVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dpp_platform_protocol_version",
		Help: "active protocol version",
	})
)

func init() {
	dpp.PromCollectors = append(dpp.PromCollectors, promResults,
		promBlockTransitions, promProtocolVersion)
}

// State is a snapshot of the state of the platform.
type State struct {
	Version *version.PlatformVersion
	// LastBlock is the last committed block.
	LastBlock types.BlockInfo
	Quorums   assetlock.QuorumSet
}

// Option is the type of option to create a platform.
type Option func(*Platform)

// WithWorkers sets the number of workers validating the structure of the
// transitions of a block.
func WithWorkers(n int) Option {
	return func(p *Platform) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithParams sets the parameters of the validation.
func WithParams(params processor.Params) Option {
	return func(p *Platform) {
		p.params = params
	}
}

// Platform validates and executes the state transitions against a drive.
type Platform struct {
	drive   drive.Drive
	core    corerpc.Client
	params  processor.Params
	workers int
	state   *atomic.Pointer[State]
	mu      sync.Mutex
	logger  zerolog.Logger

	proc processor.Processor
	exec execution.Executor
	gate checktx.Gate
}

// NewPlatform creates a platform starting from the state.
func NewPlatform(d drive.Drive, core corerpc.Client, init State, opts ...Option) *Platform {
	p := &Platform{
		drive:   d,
		core:    core,
		params:  processor.DefaultParams,
		workers: DefaultWorkers,
		state:   atomic.NewPointer(&init),
		logger:  dpp.Logger.With().Str("component", "platform").Logger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.proc = processor.NewProcessor(d, core, p.params)
	p.exec = execution.NewExecutor(d)
	p.gate = checktx.NewGate(d, core, p.params)

	promProtocolVersion.Set(float64(init.Version.ProtocolVersion))

	return p
}

// State returns the current snapshot.
func (p *Platform) State() State {
	return *p.state.Load()
}

// Drive returns the drive of the platform.
func (p *Platform) Drive() drive.Drive {
	return p.drive
}

// CheckTx checks the transition against the committed state.
func (p *Platform) CheckTx(ctx context.Context, raw []byte,
	level checktx.Level) (validation.Result[checktx.Result], error) {

	state := p.State()

	return p.gate.Check(ctx, raw, level, checktx.State{
		Version: state.Version,
		Block:   state.LastBlock,
		Quorums: state.Quorums,
	})
}

// DryRun validates the transition against the committed state and estimates
// its fees. It never writes and reads a single snapshot. The failures of the
// state of the contract transitions are ignored, as the contracts they depend
// on may be registered in the same block.
func (p *Platform) DryRun(ctx context.Context, raw []byte) (validation.Result[fee.Result], error) {
	state := p.State()

	st, cerr := transition.Decode(raw, state.Version)
	if cerr != nil {
		return validation.NewWithError[fee.Result](cerr), nil
	}

	var res validation.Result[fee.Result]

	err := p.drive.View(func(tx *drive.Transaction) error {
		var err error
		res, err = p.dryRun(ctx, tx, st, state)
		return err
	})
	if err != nil {
		return validation.Result[fee.Result]{}, err
	}

	return res, nil
}

func (p *Platform) dryRun(ctx context.Context, tx *drive.Transaction, st transition.StateTransition,
	state State) (validation.Result[fee.Result], error) {

	pctx := processor.Context{
		Version: state.Version,
		Mode:    validation.ModeValidator,
		Block:   state.LastBlock,
		Tx:      tx,
		Quorums: state.Quorums,
		DryRun:  true,
	}

	res, err := p.proc.Process(ctx, pctx, st)
	if err != nil {
		return validation.Result[fee.Result]{}, xerrors.Errorf("couldn't process: %v", err)
	}

	if !res.IsValid() {
		return validation.NewWithErrors[fee.Result](res.Errors()), nil
	}

	a, found := res.Data()
	if !found {
		return validation.New[fee.Result](), nil
	}

	minimum, err := fee.MinimumFor(st, state.Version)
	if err != nil {
		return validation.Result[fee.Result]{}, xerrors.Errorf("couldn't get minimum: %v", err)
	}

	ev := execution.Event{Action: a, MinimumFee: minimum.Fee}

	return p.exec.ValidateFeesOfEvent(tx, ev, state.LastBlock, state.Version)
}

// Commit commits the transaction of the block and makes the block the last
// one of the state.
func (p *Platform) Commit(tx *drive.Transaction, block types.BlockInfo) error {
	err := tx.Commit()
	if err != nil {
		return xerrors.Errorf("couldn't commit block %d: %v", block.Height, err)
	}

	return p.update(func(state *State) error {
		state.LastBlock = block
		return nil
	})
}

// SetQuorums replaces the quorums verifying the instant locks.
func (p *Platform) SetQuorums(quorums assetlock.QuorumSet) {
	p.update(func(state *State) error {
		state.Quorums = quorums
		return nil
	})
}

// UpgradeProtocolVersion activates the table of the protocol version for the
// next blocks. A protocol version is never downgraded.
func (p *Platform) UpgradeProtocolVersion(protocolVersion uint32) error {
	pv, err := version.Get(protocolVersion)
	if err != nil {
		return xerrors.Errorf("couldn't upgrade: %v", err)
	}

	err = p.update(func(state *State) error {
		if protocolVersion < state.Version.ProtocolVersion {
			return xerrors.Errorf("cannot downgrade from %d to %d",
				state.Version.ProtocolVersion, protocolVersion)
		}

		state.Version = pv

		return nil
	})
	if err != nil {
		return err
	}

	promProtocolVersion.Set(float64(protocolVersion))

	p.logger.Info().Uint32("version", protocolVersion).Msg("protocol version activated")

	return nil
}

// update replaces the snapshot with a modified copy. Updates are serialized
// while readers keep loading the snapshot without locking.
func (p *Platform) update(fn func(state *State) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := *p.state.Load()

	err := fn(&state)
	if err != nil {
		return err
	}

	p.state.Store(&state)

	return nil
}

package platform

import (
	"context"

	"github.com/rs/zerolog"
	"go.dedis.ch/dpp/core/checktx"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/execution"
	"go.dedis.ch/dpp/core/mempool"
	"go.dedis.ch/dpp/core/types"
	"golang.org/x/xerrors"
)

// Node runs the platform as a block proposer: the transitions are admitted in
// the pool, gathered into blocks and checked again after each commit.
type Node struct {
	platform *Platform
	pool     *mempool.Pool
	max      int
	logger   zerolog.Logger
}

// NewNode creates a node proposing blocks of at most max transitions. A
// maximum of zero means no limit.
func NewNode(p *Platform, pool *mempool.Pool, max int) *Node {
	return &Node{
		platform: p,
		pool:     pool,
		max:      max,
		logger:   p.logger.With().Str("component", "node").Logger(),
	}
}

// Submit checks the transition for the first time and adds it to the pool
// when it is valid. The consensus error is returned for a rejected
// transition.
func (n *Node) Submit(ctx context.Context, raw []byte) (consensus.Error, error) {
	res, err := n.platform.CheckTx(ctx, raw, checktx.FirstTimeCheck)
	if err != nil {
		return nil, xerrors.Errorf("couldn't check: %v", err)
	}

	if !res.IsValid() {
		return res.FirstError(), nil
	}

	out, _ := res.Data()

	err = n.pool.Add(raw, out)
	if err != nil {
		return nil, xerrors.Errorf("couldn't add to pool: %v", err)
	}

	return nil, nil
}

// ProduceBlock executes the transitions of the pool in a block and commits
// it. The transitions included are removed from the pool whatever their
// result, and the remaining ones are checked again.
func (n *Node) ProduceBlock(ctx context.Context, block types.BlockInfo) (execution.ProcessingResult, error) {
	entries := n.pool.Gather(ctx, mempool.Config{Min: 0, Max: n.max})

	raws := make([][]byte, len(entries))
	for i, e := range entries {
		raws[i] = e.Raw
	}

	tx, err := n.platform.Drive().Begin()
	if err != nil {
		return execution.ProcessingResult{}, xerrors.Errorf("couldn't open transaction: %v", err)
	}

	out, err := n.platform.ProcessRawStateTransitions(ctx, raws, block, tx)
	if err != nil {
		tx.Rollback()
		return execution.ProcessingResult{}, xerrors.Errorf("couldn't process block %d: %v",
			block.Height, err)
	}

	err = n.platform.Commit(tx, block)
	if err != nil {
		return execution.ProcessingResult{}, err
	}

	for _, e := range entries {
		err = n.pool.Remove(e.Key())
		if err != nil {
			n.logger.Warn().Err(err).Msg("entry already gone")
		}
	}

	err = n.recheck(ctx)
	if err != nil {
		return out, xerrors.Errorf("couldn't recheck: %v", err)
	}

	return out, nil
}

// recheck evicts the entries of the pool that are not valid anymore against
// the committed state.
func (n *Node) recheck(ctx context.Context) error {
	for _, e := range n.pool.Entries() {
		res, err := n.platform.CheckTx(ctx, e.Raw, checktx.Recheck)
		if err != nil {
			return err
		}

		if res.IsValid() {
			continue
		}

		n.logger.Debug().
			Stringer("key", e.Key()).
			Str("error", res.FirstError().Error()).
			Msg("transition evicted")

		err = n.pool.Evict(e.Key())
		if err != nil {
			return err
		}
	}

	return nil
}

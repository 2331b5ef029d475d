package platform

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/checktx"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/execution"
	"go.dedis.ch/dpp/core/mempool"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/internal/testing/fake"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

func TestPlatform_ProcessRawStateTransitions(t *testing.T) {
	f := newFixture(t)

	unknown := types.Identifier{0xee}

	// Signed by a key that is not the one referenced.
	forged, err := transition.Sign(f.transferTransition(unknown, 10, 3), fake.TransferKey,
		f.alice.Signers[fake.CriticalKey])
	require.NoError(t, err)

	raws := [][]byte{
		f.transfer(t, f.bob.ID, 1000, 1),
		f.transfer(t, unknown, 1000, 2),
		f.encode(t, forged),
		{0xff, 0, 0, 1},
	}

	successful := testutil.ToFloat64(promResults.WithLabelValues("successful"))

	block := types.BlockInfo{Height: 4, TimeMs: 400, CoreHeight: 31, Epoch: 1}

	tx, err := f.store.Begin()
	require.NoError(t, err)

	out, err := f.platform.ProcessRawStateTransitions(context.Background(), raws, block, tx)
	require.NoError(t, err)
	require.NoError(t, f.platform.Commit(tx, block))

	require.Equal(t, 4, out.Len())
	require.Equal(t, uint32(1), out.Valid)
	require.Equal(t, uint32(1), out.InvalidPaid)
	require.Equal(t, uint32(2), out.InvalidUnpaid)
	require.Equal(t, uint32(0), out.Failed)

	require.IsType(t, execution.SuccessfulExecution{}, out.Results[0])

	paid := out.Results[1].(execution.PaidConsensusError)
	require.Equal(t, consensus.RecipientIdentityDoesNotExistError{RecipientID: unknown}, paid.Error)
	require.NotZero(t, paid.Actual.ProcessingFee)

	require.Equal(t, execution.UnpaidConsensusError{Error: consensus.InvalidStateTransitionSignatureError{}},
		out.Results[2])
	require.Equal(t, execution.UnpaidConsensusError{Error: consensus.UnknownStateTransitionTypeError{Type: 0xff}},
		out.Results[3])

	first, _ := out.Results[0].Fees()
	sum, err := first.Add(paid.Actual)
	require.NoError(t, err)
	require.Equal(t, sum.StorageFee, out.Fees.StorageFee)
	require.Equal(t, sum.ProcessingFee, out.Fees.ProcessingFee)

	require.Equal(t, successful+1, testutil.ToFloat64(promResults.WithLabelValues("successful")))

	balance, _, err := f.store.FetchBalance(nil, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, types.Credits(1000), balance)

	// The paid failure consumed its nonce, the unpaid one did not.
	nonce, err := f.store.FetchIdentityNonce(nil, f.alice.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(2), nonce)

	require.Equal(t, block, f.platform.State().LastBlock)
}

func TestPlatform_ProcessRawStateTransitions_Empty(t *testing.T) {
	f := newFixture(t)

	tx, err := f.store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	out, err := f.platform.ProcessRawStateTransitions(context.Background(), nil, f.block, tx)
	require.NoError(t, err)
	require.Equal(t, 0, out.Len())
	require.Empty(t, out.Results)
}

func TestPlatform_ProcessRawStateTransitions_InternalError(t *testing.T) {
	f := newFixture(t)

	p := NewPlatform(fake.NewBadDrive(f.store), corerpc.NewMemory(), f.platform.State())

	raws := [][]byte{f.transfer(t, f.bob.ID, 1000, 1), {0xff, 0, 0, 1}}

	tx, err := f.store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	out, err := p.ProcessRawStateTransitions(context.Background(), raws, f.block, tx)
	require.NoError(t, err)

	require.Equal(t, uint32(1), out.Failed)
	require.Equal(t, uint32(1), out.InvalidUnpaid)
	require.Contains(t, out.Results[0].(execution.InternalError).Message, fake.GetError().Error())
	require.Equal(t, execution.Failed, out.Results[0].Kind())
}

func TestPlatform_ProcessRawStateTransitions_UnknownVersion(t *testing.T) {
	f := newFixture(t)

	state := f.platform.State()
	state.Version = version.Latest().With(version.ProcessRawStateTransitions, 1)

	p := NewPlatform(f.store, corerpc.NewMemory(), state)

	tx, err := f.store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = p.ProcessRawStateTransitions(context.Background(), nil, f.block, tx)

	var mismatch version.UnknownVersionMismatch
	require.True(t, xerrors.As(err, &mismatch))
	require.Equal(t, version.ProcessRawStateTransitions, mismatch.Method)
}

func TestPlatform_DryRun(t *testing.T) {
	f := newFixture(t)

	raw := f.transfer(t, f.bob.ID, 1000, 1)

	res, err := f.platform.DryRun(context.Background(), raw)
	require.NoError(t, err)
	require.True(t, res.IsValidWithData(), "%v", res.Errors())

	estimated, _ := res.Data()
	require.NotZero(t, estimated.ProcessingFee)

	// Nothing is written so the estimation is the same.
	res, err = f.platform.DryRun(context.Background(), raw)
	require.NoError(t, err)

	again, _ := res.Data()
	require.Equal(t, estimated, again)

	balance, _, err := f.store.FetchBalance(nil, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, types.Credits(0), balance)

	res, err = f.platform.DryRun(context.Background(), f.transfer(t, types.Identifier{0xee}, 1000, 1))
	require.NoError(t, err)
	require.IsType(t, consensus.RecipientIdentityDoesNotExistError{}, res.FirstError())

	res, err = f.platform.DryRun(context.Background(), []byte{1})
	require.NoError(t, err)
	require.IsType(t, consensus.SerializedObjectParsingError{}, res.FirstError())
}

func TestPlatform_CheckTx(t *testing.T) {
	f := newFixture(t)

	res, err := f.platform.CheckTx(context.Background(), f.transfer(t, f.bob.ID, 1000, 1),
		checktx.FirstTimeCheck)
	require.NoError(t, err)
	require.True(t, res.IsValidWithData())

	res, err = f.platform.CheckTx(context.Background(), f.transfer(t, f.bob.ID, 2_000_000_000, 1),
		checktx.FirstTimeCheck)
	require.NoError(t, err)
	require.IsType(t, consensus.IdentityInsufficientBalanceError{}, res.FirstError())
}

func TestPlatform_UpgradeProtocolVersion(t *testing.T) {
	f := newFixture(t)

	state := f.platform.State()
	state.Version = version.First()

	p := NewPlatform(f.store, corerpc.NewMemory(), state)
	require.Equal(t, float64(1), testutil.ToFloat64(promProtocolVersion))

	err := p.UpgradeProtocolVersion(2)
	require.NoError(t, err)
	require.Equal(t, version.Latest(), p.State().Version)
	require.Equal(t, float64(2), testutil.ToFloat64(promProtocolVersion))

	// The same version can be activated again.
	require.NoError(t, p.UpgradeProtocolVersion(2))

	err = p.UpgradeProtocolVersion(1)
	require.EqualError(t, err, "cannot downgrade from 2 to 1")

	err = p.UpgradeProtocolVersion(99)
	require.EqualError(t, err, "couldn't upgrade: unsupported protocol version 99")

	require.Equal(t, version.Latest(), p.State().Version)
}

func TestPlatform_SetQuorums(t *testing.T) {
	f := newFixture(t)

	q := fake.NewQuorum([32]byte{0xaa}, 20)

	f.platform.SetQuorums(q.Set())

	state := f.platform.State()
	require.Equal(t, 1, state.Quorums.Len())
	require.Equal(t, f.block, state.LastBlock)

	quorum, found := state.Quorums.Get([32]byte{0xaa})
	require.True(t, found)
	require.Equal(t, uint32(20), quorum.Height)
}

func TestPlatform_ConcurrentUpdates(t *testing.T) {
	f := newFixture(t)

	state := f.platform.State()
	state.Version = version.First()

	p := NewPlatform(f.store, corerpc.NewMemory(), state)

	q := fake.NewQuorum([32]byte{0xbb}, 30)

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			p.SetQuorums(q.Set())
		}()

		go func() {
			defer wg.Done()

			err := p.UpgradeProtocolVersion(2)
			if err != nil {
				t.Error(err)
			}
		}()
	}

	wg.Wait()

	state = p.State()
	require.Equal(t, version.Latest(), state.Version)
	require.Equal(t, 1, state.Quorums.Len())
	require.Equal(t, f.block, state.LastBlock)
}

func TestNode_Submit(t *testing.T) {
	f := newFixture(t)

	node := NewNode(f.platform, mempool.NewPool(), 0)

	raw := f.transfer(t, f.bob.ID, 1000, 1)

	cerr, err := node.Submit(context.Background(), raw)
	require.NoError(t, err)
	require.Nil(t, cerr)

	_, err = node.Submit(context.Background(), raw)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	cerr, err = node.Submit(context.Background(), []byte{0xff, 0, 0, 1})
	require.NoError(t, err)
	require.Equal(t, consensus.UnknownStateTransitionTypeError{Type: 0xff}, cerr)
}

func TestNode_ProduceBlock(t *testing.T) {
	f := newFixture(t)

	pool := mempool.NewPool()
	node := NewNode(f.platform, pool, 1)

	for nonce := uint64(1); nonce <= 2; nonce++ {
		cerr, err := node.Submit(context.Background(), f.transfer(t, f.bob.ID, 600_000_000, nonce))
		require.NoError(t, err)
		require.Nil(t, cerr)
	}

	require.Equal(t, 2, pool.Len())

	block := types.BlockInfo{Height: 4, TimeMs: 400, CoreHeight: 31, Epoch: 1}

	out, err := node.ProduceBlock(context.Background(), block)
	require.NoError(t, err)
	require.Equal(t, uint32(1), out.Valid)
	require.Equal(t, 1, out.Len())

	// The second transfer cannot be funded anymore and is evicted.
	require.Equal(t, 0, pool.Len())
	require.Equal(t, block, f.platform.State().LastBlock)

	balance, _, err := f.store.FetchBalance(nil, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, types.Credits(600_000_000), balance)

	next := types.BlockInfo{Height: 5, TimeMs: 500, CoreHeight: 31, Epoch: 1}

	out, err = node.ProduceBlock(context.Background(), next)
	require.NoError(t, err)
	require.Equal(t, 0, out.Len())
	require.Equal(t, next, f.platform.State().LastBlock)
}

func TestNode_ProduceBlock_Rollback(t *testing.T) {
	f := newFixture(t)

	state := f.platform.State()
	state.Version = version.Latest().With(version.ProcessRawStateTransitions, 1)

	node := NewNode(NewPlatform(f.store, corerpc.NewMemory(), state), mempool.NewPool(), 0)

	_, err := node.ProduceBlock(context.Background(), types.BlockInfo{Height: 4})
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't process block 4")

	// The drive is free for the next block.
	tx, err := f.store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

func TestVersions_Exhaustive(t *testing.T) {
	registered := make(map[version.Method]bool)
	for _, m := range version.Registered() {
		registered[m] = true
	}

	for _, pv := range version.Supported() {
		for _, m := range pv.Methods() {
			require.True(t, registered[m], "%s has no implementation", m)

			_, err := version.Check(pv, m)
			require.NoError(t, err)
		}

		for m := range registered {
			_, found := pv.Method(m)
			require.True(t, found, "%s not defined in protocol version %d", m, pv.ProtocolVersion)
		}
	}

	for m := range registered {
		known := version.Known(m)
		next := version.FeatureVersion(len(known))

		_, err := version.Check(version.Latest().With(m, next), m)
		require.Equal(t, version.UnknownVersionMismatch{
			Method:        m,
			KnownVersions: known,
			Received:      next,
		}, err)
	}
}

// -----------------------------------------------------------------------------
// Utility functions

type fixture struct {
	store    *drive.Store
	platform *Platform
	block    types.BlockInfo
	alice    fake.Identity
	bob      fake.Identity
}

func newFixture(t *testing.T) *fixture {
	db, err := kv.New(filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	store, err := drive.New(db, drive.DefaultCacheSize)
	require.NoError(t, err)

	alice, err := fake.NewIdentity(types.Identifier{1})
	require.NoError(t, err)

	bob, err := fake.NewIdentity(types.Identifier{2})
	require.NoError(t, err)

	f := &fixture{
		store: store,
		block: types.BlockInfo{Height: 3, TimeMs: 300, CoreHeight: 30, Epoch: 1},
		alice: alice,
		bob:   bob,
	}

	f.apply(t, alice.Ops(1_000_000_000)...)
	f.apply(t, bob.Ops(0)...)

	f.platform = NewPlatform(store, corerpc.NewMemory(), State{
		Version:   version.Latest(),
		LastBlock: f.block,
	}, WithWorkers(2))

	return f
}

func (f *fixture) apply(t *testing.T, ops ...drive.Op) {
	tx, err := f.store.Begin()
	require.NoError(t, err)

	_, err = f.store.Apply(tx, ops, f.block)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func (f *fixture) transferTransition(recipient types.Identifier, amount types.Credits,
	nonce uint64) transition.IdentityCreditTransfer {

	return transition.IdentityCreditTransfer{
		IdentityID:  f.alice.ID,
		RecipientID: recipient,
		Amount:      amount,
		Nonce:       nonce,
	}
}

func (f *fixture) transfer(t *testing.T, recipient types.Identifier, amount types.Credits, nonce uint64) []byte {
	st, err := f.alice.Sign(f.transferTransition(recipient, amount, nonce), fake.TransferKey)
	require.NoError(t, err)

	return f.encode(t, st)
}

func (f *fixture) encode(t *testing.T, st transition.StateTransition) []byte {
	raw, err := transition.Encode(st)
	require.NoError(t, err)

	return raw
}

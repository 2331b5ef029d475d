package checktx

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/processor"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/internal/testing/fake"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

func TestLevel(t *testing.T) {
	require.Equal(t, "first_time_check", FirstTimeCheck.String())
	require.Equal(t, "recheck", Recheck.String())
	require.Equal(t, "Level(3)", Level(3).String())

	require.Equal(t, validation.ModeCheckTx, FirstTimeCheck.Mode())
	require.Equal(t, validation.ModeRecheckTx, Recheck.Mode())

	require.Empty(t, FirstTimeCheck.Skipped().List())

	skipped := Recheck.Skipped()
	require.True(t, skipped.Has(validation.CheckStructure))
	require.True(t, skipped.Has(validation.CheckSignature))
	require.True(t, skipped.Has(validation.CheckInstantLockSignature))
	require.False(t, skipped.Has(validation.CheckAssetLockSpent))
	require.False(t, skipped.Has(validation.CheckNonce))
	require.False(t, skipped.Has(validation.CheckBalance))
}

func TestGate_Check(t *testing.T) {
	f := newFixture(t)

	raw := f.transfer(t, 1000, 1, fake.TransferKey)

	accepted := testutil.ToFloat64(promChecks.WithLabelValues("first_time_check", "accepted"))

	res, err := f.gate.Check(context.Background(), raw, FirstTimeCheck, f.state)
	require.NoError(t, err)
	require.True(t, res.IsValidWithData(), "%v", res.Errors())

	out, _ := res.Data()
	require.Equal(t, FirstTimeCheck, out.Level)
	require.Equal(t, uint32(5), out.Priority)
	require.Equal(t, "IdentityCreditTransfer", out.Name)
	require.Equal(t, sha256.Sum256(raw), out.Hash)
	require.NotZero(t, out.Fee.ProcessingFee)

	st, cerr := transition.Decode(raw, f.state.Version)
	require.Nil(t, cerr)
	require.Equal(t, st.UniqueIdentifiers(), out.UniqueIdentifiers)

	require.Equal(t, accepted+1,
		testutil.ToFloat64(promChecks.WithLabelValues("first_time_check", "accepted")))

	// The check never writes.
	balance, _, err := f.store.FetchBalance(nil, f.alice.ID)
	require.NoError(t, err)
	require.Equal(t, types.Credits(1_000_000_000), balance)
}

func TestGate_Check_Malformed(t *testing.T) {
	f := newFixture(t)

	rejected := testutil.ToFloat64(promChecks.WithLabelValues("first_time_check", "rejected"))

	res, err := f.gate.Check(context.Background(), []byte{0xff, 0, 0, 1}, FirstTimeCheck, f.state)
	require.NoError(t, err)
	require.False(t, res.IsValid())
	require.Equal(t, consensus.UnknownStateTransitionTypeError{Type: 0xff}, res.FirstError())

	res, err = f.gate.Check(context.Background(), []byte{1}, FirstTimeCheck, f.state)
	require.NoError(t, err)
	require.IsType(t, consensus.SerializedObjectParsingError{}, res.FirstError())

	require.Equal(t, rejected+2,
		testutil.ToFloat64(promChecks.WithLabelValues("first_time_check", "rejected")))
}

func TestGate_Recheck_SkipsSignature(t *testing.T) {
	f := newFixture(t)

	// Signed by a key that is not the one referenced.
	st, err := transition.Sign(f.transferTransition(1000, 1), fake.TransferKey,
		f.alice.Signers[fake.CriticalKey])
	require.NoError(t, err)

	raw, err := transition.Encode(st)
	require.NoError(t, err)

	res, err := f.gate.Check(context.Background(), raw, FirstTimeCheck, f.state)
	require.NoError(t, err)
	require.Equal(t, consensus.InvalidStateTransitionSignatureError{}, res.FirstError())

	res, err = f.gate.Check(context.Background(), raw, Recheck, f.state)
	require.NoError(t, err)
	require.True(t, res.IsValid())

	out, _ := res.Data()
	require.Equal(t, Recheck, out.Level)
}

func TestGate_Recheck_NonceUsed(t *testing.T) {
	f := newFixture(t)

	raw := f.transfer(t, 1000, 1, fake.TransferKey)

	res, err := f.gate.Check(context.Background(), raw, FirstTimeCheck, f.state)
	require.NoError(t, err)
	require.True(t, res.IsValid())

	f.apply(t, drive.SetIdentityNonce{ID: f.alice.ID, Nonce: 1})

	res, err = f.gate.Check(context.Background(), raw, Recheck, f.state)
	require.NoError(t, err)
	require.False(t, res.IsValid())
	require.IsType(t, consensus.InvalidIdentityNonceError{}, res.FirstError())
}

func TestGate_Recheck_Snapshot(t *testing.T) {
	f := newFixture(t)

	// A block spending the whole balance of alice is committed while the
	// transition is being checked.
	d := &committingDrive{
		Drive: f.store,
		store: f.store,
		block: []drive.Op{
			drive.SetIdentityNonce{ID: f.alice.ID, Nonce: 1},
			drive.RemoveBalance{ID: f.alice.ID, Amount: 1_000_000_000},
		},
		done: make(chan struct{}),
	}

	gate := NewGate(d, corerpc.NewMemory(), processor.DefaultParams)

	res, err := gate.Check(context.Background(), f.transfer(t, 1000, 1, fake.TransferKey), Recheck, f.state)
	require.NoError(t, err)

	<-d.done
	require.NoError(t, d.err)

	// The check has seen the state before the block.
	require.True(t, res.IsValid())

	require.NotEmpty(t, d.txs)
	for _, tx := range d.txs {
		require.NotNil(t, tx)
		require.Equal(t, d.txs[0], tx)
	}

	// The next recheck sees the block.
	res, err = f.gate.Check(context.Background(), f.transfer(t, 1000, 1, fake.TransferKey), Recheck, f.state)
	require.NoError(t, err)
	require.IsType(t, consensus.InvalidIdentityNonceError{}, res.FirstError())
}

func TestGate_Check_InsufficientBalance(t *testing.T) {
	f := newFixture(t)

	raw := f.transfer(t, 999_999_999, 1, fake.TransferKey)

	res, err := f.gate.Check(context.Background(), raw, FirstTimeCheck, f.state)
	require.NoError(t, err)
	require.False(t, res.IsValid())
	require.IsType(t, consensus.IdentityInsufficientBalanceError{}, res.FirstError())
}

func TestGate_Check_UnknownVersion(t *testing.T) {
	f := newFixture(t)

	f.state.Version = version.Latest().With(version.CheckTx, 1)

	_, err := f.gate.Check(context.Background(), nil, FirstTimeCheck, f.state)

	var mismatch version.UnknownVersionMismatch
	require.True(t, xerrors.As(err, &mismatch))
	require.Equal(t, version.CheckTx, mismatch.Method)
	require.Equal(t, []version.FeatureVersion{0}, mismatch.KnownVersions)
}

func TestGate_Check_DriveFailure(t *testing.T) {
	f := newFixture(t)

	bad := fake.Drive{Drive: f.store, ErrBalance: fake.GetError()}
	gate := NewGate(bad, corerpc.NewMemory(), processor.DefaultParams)

	raw := f.transfer(t, 1000, 1, fake.TransferKey)

	_, err := gate.Check(context.Background(), raw, FirstTimeCheck, f.state)
	require.Error(t, err)
	require.Contains(t, err.Error(), fake.GetError().Error())
}

// -----------------------------------------------------------------------------
// Utility functions

type fixture struct {
	store *drive.Store
	gate  Gate
	state State
	alice fake.Identity
	bob   fake.Identity
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
		gate:  NewGate(store, corerpc.NewMemory(), processor.DefaultParams),
		state: State{
			Version: version.Latest(),
			Block:   types.BlockInfo{Height: 3, TimeMs: 300, CoreHeight: 30, Epoch: 1},
		},
		alice: alice,
		bob:   bob,
	}

	f.apply(t, alice.Ops(1_000_000_000)...)
	f.apply(t, bob.Ops(0)...)

	return f
}

func (f *fixture) apply(t *testing.T, ops ...drive.Op) {
	tx, err := f.store.Begin()
	require.NoError(t, err)

	_, err = f.store.Apply(tx, ops, f.state.Block)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func (f *fixture) transferTransition(amount types.Credits, nonce uint64) transition.IdentityCreditTransfer {
	return transition.IdentityCreditTransfer{
		IdentityID:      f.alice.ID,
		RecipientID:     f.bob.ID,
		Amount:          amount,
		Nonce:           nonce,
		UserFeeIncrease: 5,
	}
}

func (f *fixture) transfer(t *testing.T, amount types.Credits, nonce uint64, keyID uint32) []byte {
	st, err := f.alice.Sign(f.transferTransition(amount, nonce), keyID)
	require.NoError(t, err)

	raw, err := transition.Encode(st)
	require.NoError(t, err)

	return raw
}

// committingDrive records the transactions the state is read from, and
// commits a block after the nonce of the signer has been read.
type committingDrive struct {
	drive.Drive

	store *drive.Store
	block []drive.Op
	once  sync.Once
	done  chan struct{}
	err   error
	txs   []*drive.Transaction
}

func (d *committingDrive) FetchIdentity(tx *drive.Transaction, id types.Identifier) (identity.Identity, bool, error) {
	d.txs = append(d.txs, tx)
	return d.Drive.FetchIdentity(tx, id)
}

func (d *committingDrive) FetchIdentityNonce(tx *drive.Transaction, id types.Identifier) (uint64, error) {
	d.txs = append(d.txs, tx)

	nonce, err := d.Drive.FetchIdentityNonce(tx, id)

	d.once.Do(func() {
		go func() {
			defer close(d.done)

			wtx, err := d.store.Begin()
			if err != nil {
				d.err = err
				return
			}

			_, err = d.store.Apply(wtx, d.block, types.BlockInfo{})
			if err != nil {
				wtx.Rollback()
				d.err = err
				return
			}

			d.err = wtx.Commit()
		}()

		// The database may wait for the readers to be done before growing,
		// so the commit is not always over when the check goes on.
		select {
		case <-d.done:
		case <-time.After(500 * time.Millisecond):
		}
	})

	return nonce, err
}

func (d *committingDrive) FetchBalance(tx *drive.Transaction, id types.Identifier) (types.Credits, bool, error) {
	d.txs = append(d.txs, tx)
	return d.Drive.FetchBalance(tx, id)
}

func (d *committingDrive) Estimate(tx *drive.Transaction, ops []drive.Op,
	block types.BlockInfo) ([]fee.Operation, error) {

	d.txs = append(d.txs, tx)
	return d.Drive.Estimate(tx, ops, block)
}

package execution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

var testBlock = types.BlockInfo{Height: 5, TimeMs: 500, CoreHeight: 50, Epoch: 2}

func TestExecutor_ExecuteEvent(t *testing.T) {
	store := makeStore(t)
	alice := types.Identifier{1}

	apply(t, store, drive.AddBalance{ID: alice, Amount: 10_000_000})

	a := action.BumpIdentityNonce{
		Base:       action.Base{FeeCosts: []fee.Operation{fee.SeekOp()}},
		IdentityID: alice,
		Nonce:      1,
	}

	fees := execute(t, store, Event{Action: a})

	desired, err := fees.Actual.DesiredAmountFor(alice)
	require.NoError(t, err)
	require.Equal(t, desired, fees.Paid)
	require.NotZero(t, fees.Paid)

	balance, _, err := store.FetchBalance(nil, alice)
	require.NoError(t, err)
	require.Equal(t, types.Credits(10_000_000)-fees.Paid, balance)

	nonce, err := store.FetchIdentityNonce(nil, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)

	pool, err := store.FetchFeePool(nil, testBlock.Epoch)
	require.NoError(t, err)
	require.Equal(t, fees.Paid, pool.Storage+pool.Processing)
}

func TestExecutor_ExecuteEvent_UserFeeIncrease(t *testing.T) {
	store := makeStore(t)
	alice := types.Identifier{1}

	apply(t, store, drive.AddBalance{ID: alice, Amount: 10_000_000})

	a := action.BumpIdentityNonce{
		Base:       action.Base{FeeCosts: []fee.Operation{fee.SeekOp()}, FeeIncrease: 100},
		IdentityID: alice,
		Nonce:      1,
	}

	fees := execute(t, store, Event{Action: a})
	require.Equal(t, fees.Actual.ProcessingFee, fees.Actual.Tip)
}

func TestExecutor_InsufficientBalance(t *testing.T) {
	store := makeStore(t)
	alice := types.Identifier{1}

	apply(t, store, drive.AddBalance{ID: alice, Amount: 10})

	ev := Event{
		Action:     action.BumpIdentityNonce{IdentityID: alice, Nonce: 1},
		MinimumFee: 100_000,
	}

	exec := NewExecutor(store)

	tx, err := store.Begin()
	require.NoError(t, err)

	res, err := exec.ExecuteEvent(tx, ev, testBlock, version.Latest())
	require.NoError(t, err)
	require.False(t, res.IsValid())
	require.NoError(t, tx.Commit())

	insufficient, ok := res.FirstError().(consensus.IdentityInsufficientBalanceError)
	require.True(t, ok)
	require.Equal(t, alice, insufficient.IdentityID)
	require.Equal(t, uint64(10), insufficient.Balance)
	require.GreaterOrEqual(t, insufficient.RequiredBalance, uint64(100_000))

	balance, _, err := store.FetchBalance(nil, alice)
	require.NoError(t, err)
	require.Equal(t, types.Credits(10), balance)

	nonce, err := store.FetchIdentityNonce(nil, alice)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

func TestExecutor_ValidateFeesOfEvent(t *testing.T) {
	store := makeStore(t)
	alice := types.Identifier{1}

	apply(t, store, drive.AddBalance{ID: alice, Amount: 10_000_000})

	a := action.IdentityCreditTransfer{
		IdentityID:  alice,
		RecipientID: types.Identifier{2},
		Amount:      9_999_999,
		Nonce:       1,
	}

	exec := NewExecutor(store)

	// Only the storage fee and the minimum fee are required on top of the
	// amount, and the transfer writes no new storage.
	res, err := exec.ValidateFeesOfEvent(nil, Event{Action: a}, testBlock, version.Latest())
	require.NoError(t, err)
	require.True(t, res.IsValidWithData())

	fees, _ := res.Data()
	require.Zero(t, fees.StorageFee)
	require.NotZero(t, fees.ProcessingFee)

	res, err = exec.ValidateFeesOfEvent(nil, Event{Action: a, MinimumFee: 100_000}, testBlock, version.Latest())
	require.NoError(t, err)
	require.Equal(t, consensus.IdentityInsufficientBalanceError{
		IdentityID:      alice,
		Balance:         10_000_000,
		RequiredBalance: 10_099_999,
	}, res.FirstError())

	a.Amount = 10_000_001

	res, err = exec.ValidateFeesOfEvent(nil, Event{Action: a}, testBlock, version.Latest())
	require.NoError(t, err)
	require.Equal(t, consensus.IdentityInsufficientBalanceError{
		IdentityID:      alice,
		Balance:         10_000_000,
		RequiredBalance: 10_000_001,
	}, res.FirstError())

	a.Amount = 1000

	res, err = exec.ValidateFeesOfEvent(nil, Event{Action: a, MinimumFee: 100_000}, testBlock, version.Latest())	// Nothing is written by the validation.
	balance, _, err := store.FetchBalance(nil, alice)
	require.NoError(t, err)
	require.Equal(t, types.Credits(10_000_000), balance)
}

func TestExecutor_CreditTransfer(t *testing.T) {
	store := makeStore(t)
	alice := types.Identifier{1}
	bob := types.Identifier{2}

	apply(t, store, drive.AddBalance{ID: alice, Amount: 10_000_000})

	a := action.IdentityCreditTransfer{
		IdentityID:  alice,
		RecipientID: bob,
		Amount:      1000,
		Nonce:       1,
	}

	fees := execute(t, store, Event{Action: a, MinimumFee: 100_000})
	require.NotZero(t, fees.Paid)

	balance, _, err := store.FetchBalance(nil, alice)
	require.NoError(t, err)
	require.Equal(t, types.Credits(10_000_000-1000)-fees.Paid, balance)

	balance, _, err = store.FetchBalance(nil, bob)
	require.NoError(t, err)
	require.Equal(t, types.Credits(1000), balance)
}

func TestExecutor_FundedPayer(t *testing.T) {
	store := makeStore(t)
	id := types.Identifier{7}

	a := action.IdentityCreate{
		Identity:       identity.Identity{ID: id, PublicKeys: map[uint32]identity.PublicKey{}},
		OutPoint:       assetlock.OutPoint{TxID: [32]byte{1}},
		Credits:        50_000_000,
		InitialCredits: 50_000_000,
	}

	fees := execute(t, store, Event{Action: a})
	require.NotZero(t, fees.Paid)

	balance, found, err := store.FetchBalance(nil, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, types.Credits(50_000_000)-fees.Paid, balance)

	info, err := store.FetchAssetLock(nil, a.OutPoint)
	require.NoError(t, err)
	require.Equal(t, assetlock.FullyConsumed, info.Status)
}

func TestExecutor_PrefundedPayer(t *testing.T) {
	store := makeStore(t)
	pollID := types.Identifier{9}

	apply(t, store, drive.AddPrefundedBalance{ID: pollID, Amount: 1_000_000_000})

	a := action.MasternodeVote{
		ProTxHash:       types.Identifier{3},
		VoterIdentityID: types.Identifier{4},
		PollID:          pollID,
		Choice:          transition.VoteChoice{Kind: transition.Abstain},
		Nonce:           1,
	}

	fees := execute(t, store, Event{Action: a})
	require.NotZero(t, fees.Paid)

	balance, _, err := store.FetchPrefundedBalance(nil, pollID)
	require.NoError(t, err)
	require.Equal(t, types.Credits(1_000_000_000)-fees.Paid, balance)

	vote, found, err := store.FetchVote(nil, a.ProTxHash, pollID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint16(1), vote.Count)
}

func TestExecutor_PrefundedPayer_Insufficient(t *testing.T) {
	store := makeStore(t)
	pollID := types.Identifier{9}

	apply(t, store, drive.AddPrefundedBalance{ID: pollID, Amount: 1})

	a := action.MasternodeVote{
		ProTxHash:       types.Identifier{3},
		VoterIdentityID: types.Identifier{4},
		PollID:          pollID,
		Choice:          transition.VoteChoice{Kind: transition.Abstain},
		Nonce:           1,
	}

	res, err := NewExecutor(store).ValidateFeesOfEvent(nil, Event{Action: a}, testBlock, version.Latest())
	require.NoError(t, err)

	insufficient, ok := res.FirstError().(consensus.PrefundedSpecializedBalanceInsufficientError)
	require.True(t, ok)
	require.Equal(t, pollID, insufficient.BalanceID)
	require.Equal(t, uint64(1), insufficient.Balance)
}

func TestExecutor_AssetLockPayer(t *testing.T) {
	store := makeStore(t)

	a := action.PartiallyUseAssetLock{
		OutPoint:         assetlock.OutPoint{TxID: [32]byte{2}},
		InitialCredits:   3_000_000,
		RemainingCredits: 1_000_000,
		Penalty:          2_000_000,
	}

	fees := execute(t, store, Event{Action: a})
	require.Equal(t, types.Credits(1_000_000), fees.Paid)
	require.Equal(t, types.Credits(1_000_000), fees.Actual.ProcessingFee)

	info, err := store.FetchAssetLock(nil, a.OutPoint)
	require.NoError(t, err)
	require.Equal(t, assetlock.FullyConsumed, info.Status)
	require.Zero(t, info.RemainingCredits)

	pool, err := store.FetchFeePool(nil, testBlock.Epoch)
	require.NoError(t, err)
	require.Equal(t, drive.FeePool{Processing: 1_000_000}, pool)
}

func TestExecutor_UnknownVersion(t *testing.T) {
	store := makeStore(t)

	pv := version.Latest().With(version.ValidateFeesOfEvent, 4)

	_, err := NewExecutor(store).ValidateFeesOfEvent(nil, Event{}, testBlock, pv)

	var mismatch version.UnknownVersionMismatch
	require.True(t, xerrors.As(err, &mismatch))
	require.Equal(t, version.ValidateFeesOfEvent, mismatch.Method)
	require.Equal(t, version.FeatureVersion(4), mismatch.Received)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeStore(t *testing.T) *drive.Store {
	db, err := kv.New(filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	store, err := drive.New(db, drive.DefaultCacheSize)
	require.NoError(t, err)

	return store
}

func apply(t *testing.T, store *drive.Store, ops ...drive.Op) {
	tx, err := store.Begin()
	require.NoError(t, err)

	_, err = store.Apply(tx, ops, testBlock)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func execute(t *testing.T, store *drive.Store, ev Event) Fees {
	tx, err := store.Begin()
	require.NoError(t, err)

	res, err := NewExecutor(store).ExecuteEvent(tx, ev, testBlock, version.Latest())
	require.NoError(t, err)
	require.True(t, res.IsValidWithData(), "%v", res.Errors())
	require.NoError(t, tx.Commit())

	fees, _ := res.Data()

	return fees
}

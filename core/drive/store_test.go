package drive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
)

func TestStore_Identity(t *testing.T) {
	s := makeStore(t)
	id := types.Identifier{1}

	_, found, err := s.FetchIdentity(nil, id)
	require.NoError(t, err)
	require.False(t, found)

	ident := identity.Identity{
		ID:         id,
		PublicKeys: map[uint32]identity.PublicKey{0: {ID: 0, Data: []byte{1}}},
		Balance:    42,
		Revision:   1,
	}

	apply(t, s, PutIdentity{Identity: ident}, AddBalance{ID: id, Amount: 500},
		SetIdentityNonce{ID: id, Nonce: 3},
		SetIdentityContractNonce{ID: id, ContractID: types.Identifier{2}, Nonce: 7})

	stored, found, err := s.FetchIdentity(nil, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, types.Credits(500), stored.Balance)
	require.Equal(t, uint64(1), stored.Revision)
	require.Len(t, stored.PublicKeys, 1)

	nonce, err := s.FetchIdentityNonce(nil, id)
	require.NoError(t, err)
	require.Equal(t, uint64(3), nonce)

	nonce, err = s.FetchIdentityContractNonce(nil, id, types.Identifier{2})
	require.NoError(t, err)
	require.Equal(t, uint64(7), nonce)

	nonce, err = s.FetchIdentityContractNonce(nil, id, types.Identifier{3})
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)

	apply(t, s, SetIdentityNonce{ID: id, Nonce: 2})

	nonce, err = s.FetchIdentityNonce(nil, id)
	require.NoError(t, err)
	require.Equal(t, uint64(3), nonce)

	tx, err := s.Begin()
	require.NoError(t, err)

	_, err = s.Apply(tx, []Op{RemoveBalance{ID: id, Amount: 501}}, types.BlockInfo{})
	require.EqualError(t, err,
		"couldn't apply: drive.RemoveBalance: insufficient amount 500 < 501")
	require.NoError(t, tx.Rollback())
}

func TestStore_Contract_Cache(t *testing.T) {
	s := makeStore(t)
	c := makeContract()

	tx, err := s.Begin()
	require.NoError(t, err)

	_, err = s.Apply(tx, []Op{PutContract{Contract: c}}, types.BlockInfo{})
	require.NoError(t, err)

	// The transaction reads its own writes.
	fetched, found, err := s.FetchContract(tx, c.ID, true)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, fetched.Written)
	require.Equal(t, c.ID, fetched.Contract.ID)
	require.Equal(t, fee.CachedLoadOp(fetched.Size), fetched.Cost())

	_, found, err = s.FetchContract(nil, c.ID, true)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, tx.Rollback())
	require.Equal(t, 0, s.CachedContracts())

	apply(t, s, PutContract{Contract: c})
	require.Equal(t, 1, s.CachedContracts())

	fetched, found, err = s.FetchContract(nil, c.ID, false)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, fetched.Cached)
	require.False(t, fetched.Written)
	require.Equal(t, fee.LoadOp(fetched.Size), fetched.Cost())
}

func TestStore_Contract_OnlyBlocksFillCache(t *testing.T) {
	db, err := kv.New(filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	writer, err := New(db, DefaultCacheSize)
	require.NoError(t, err)

	c := makeContract()
	apply(t, writer, PutContract{Contract: c})

	s, err := New(db, DefaultCacheSize)
	require.NoError(t, err)

	err = s.View(func(tx *Transaction) error {
		fetched, found, err := s.FetchContract(tx, c.ID, true)
		require.NoError(t, err)
		require.True(t, found)
		require.False(t, fetched.Cached)
		require.Equal(t, fee.LoadOp(fetched.Size), fetched.Cost())

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, s.CachedContracts())

	_, found, err := s.FetchContract(nil, c.ID, true)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 0, s.CachedContracts())

	// A block that is not allowed to alter the cache.
	tx, err := s.Begin()
	require.NoError(t, err)

	_, _, err = s.FetchContract(tx, c.ID, false)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Equal(t, 0, s.CachedContracts())

	// A rolled back block.
	tx, err = s.Begin()
	require.NoError(t, err)

	_, _, err = s.FetchContract(tx, c.ID, true)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.Equal(t, 0, s.CachedContracts())

	tx, err = s.Begin()
	require.NoError(t, err)

	_, _, err = s.FetchContract(tx, c.ID, true)
	require.NoError(t, err)
	require.Equal(t, 0, s.CachedContracts())
	require.NoError(t, tx.Commit())
	require.Equal(t, 1, s.CachedContracts())
}

func TestStore_Contract_CostIndependentOfCache(t *testing.T) {
	db, err := kv.New(filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	writer, err := New(db, DefaultCacheSize)
	require.NoError(t, err)

	c := makeContract()
	apply(t, writer, PutContract{Contract: c})

	warm, err := New(db, DefaultCacheSize)
	require.NoError(t, err)

	cold, err := New(db, DefaultCacheSize)
	require.NoError(t, err)

	// The warm node has executed a block reading the contract before.
	tx, err := warm.Begin()
	require.NoError(t, err)
	_, _, err = warm.FetchContract(tx, c.ID, true)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Equal(t, 1, warm.CachedContracts())

	costs := make([]fee.Operation, 0, 2)

	for _, s := range []*Store{warm, cold} {
		tx, err := s.Begin()
		require.NoError(t, err)

		fetched, found, err := s.FetchContract(tx, c.ID, true)
		require.NoError(t, err)
		require.True(t, found)

		costs = append(costs, fetched.Cost())
		require.NoError(t, tx.Rollback())
	}

	require.Equal(t, fee.StorageLoad, costs[0].Kind)
	require.Equal(t, costs[0], costs[1])
}

func TestStore_Documents(t *testing.T) {
	s := makeStore(t)
	c := makeContract()
	owner := types.Identifier{7}

	doc := contract.Document{
		ID:         types.Identifier{5},
		OwnerID:    owner,
		Revision:   1,
		Properties: map[string]interface{}{"label": "alice"},
	}

	costs := apply(t, s, PutContract{Contract: c},
		PutDocument{Contract: c, DocumentType: "domain", Document: doc})
	require.Len(t, costs, 3)
	require.Equal(t, fee.Insert, costs[2].Kind)

	key, _, err := contract.IndexKey(c.DocumentTypes["domain"].Indices[0], doc.Properties)
	require.NoError(t, err)

	holder, found, err := s.FetchUniqueEntry(nil, c.ID, "domain", "label", key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, doc.ID, holder)

	doc.Revision = 2
	doc.Properties = map[string]interface{}{"label": "bob"}

	costs = apply(t, s, PutDocument{Contract: c, DocumentType: "domain", Document: doc})
	require.Len(t, costs, 4)
	require.Equal(t, fee.Remove, costs[0].Kind)
	require.Equal(t, owner, costs[0].Owner)

	_, found, err = s.FetchUniqueEntry(nil, c.ID, "domain", "label", key)
	require.NoError(t, err)
	require.False(t, found)

	stored, found, err := s.FetchDocument(nil, c.ID, doc.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "domain", stored.DocumentType)
	require.Equal(t, uint64(2), stored.Document.Revision)

	costs = apply(t, s, DeleteDocument{Contract: c, DocumentType: "domain", DocumentID: doc.ID})
	require.Len(t, costs, 2)

	_, found, err = s.FetchDocument(nil, c.ID, doc.ID)
	require.NoError(t, err)
	require.False(t, found)

	tx, err := s.Begin()
	require.NoError(t, err)

	_, err = s.Apply(tx, []Op{DeleteDocument{Contract: c, DocumentType: "domain", DocumentID: doc.ID}},
		types.BlockInfo{})
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
}

func TestStore_FetchDocuments(t *testing.T) {
	s := makeStore(t)
	c := makeContract()

	other := makeContract()
	other.ID = types.Identifier{0xff}

	docs, err := s.FetchDocuments(nil, c.ID)
	require.NoError(t, err)
	require.Empty(t, docs)

	put := func(dc contract.DataContract, id byte, label string) Op {
		return PutDocument{Contract: dc, DocumentType: "domain", Document: contract.Document{
			ID:         types.Identifier{id},
			OwnerID:    dc.OwnerID,
			Revision:   1,
			Properties: map[string]interface{}{"label": label},
		}}
	}

	apply(t, s, put(c, 9, "carol"), put(other, 1, "dave"), put(c, 2, "alice"))

	docs, err = s.FetchDocuments(nil, c.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, types.Identifier{2}, docs[0].Document.ID)
	require.Equal(t, types.Identifier{9}, docs[1].Document.ID)
	require.Equal(t, "domain", docs[0].DocumentType)

	docs, err = s.FetchDocuments(nil, other.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "dave", docs[0].Document.Properties["label"])
}

func TestStore_TokenFrozen(t *testing.T) {
	s := makeStore(t)
	token := types.Identifier{6}
	holder := types.Identifier{5}

	frozen, err := s.FetchTokenFrozen(nil, token, holder)
	require.NoError(t, err)
	require.False(t, frozen)

	costs := apply(t, s, FreezeToken{TokenID: token, ID: holder})
	require.Len(t, costs, 2)

	frozen, err = s.FetchTokenFrozen(nil, token, holder)
	require.NoError(t, err)
	require.True(t, frozen)

	frozen, err = s.FetchTokenFrozen(nil, types.Identifier{7}, holder)
	require.NoError(t, err)
	require.False(t, frozen)

	apply(t, s, UnfreezeToken{TokenID: token, ID: holder})

	frozen, err = s.FetchTokenFrozen(nil, token, holder)
	require.NoError(t, err)
	require.False(t, frozen)
}

func TestStore_Estimate(t *testing.T) {
	s := makeStore(t)
	c := makeContract()

	estimated, err := s.Estimate(nil, []Op{PutContract{Contract: c}, AddBalance{ID: c.OwnerID, Amount: 1}},
		types.BlockInfo{})
	require.NoError(t, err)

	_, found, err := s.FetchContract(nil, c.ID, false)
	require.NoError(t, err)
	require.False(t, found)

	applied := apply(t, s, PutContract{Contract: c}, AddBalance{ID: c.OwnerID, Amount: 1})
	require.Equal(t, estimated, applied)

	err = s.View(func(tx *Transaction) error {
		_, err := s.Apply(tx, []Op{AddBalance{}}, types.BlockInfo{})
		require.EqualError(t, err, "transaction is read-only")

		require.EqualError(t, tx.Commit(), "transaction is read-only")

		return nil
	})
	require.NoError(t, err)
}

func TestStore_Refund(t *testing.T) {
	s := makeStore(t)
	c := makeContract()

	apply(t, s, PutContract{Contract: c})

	tx, err := s.Begin()
	require.NoError(t, err)

	costs, err := s.Apply(tx, []Op{PutContract{Contract: c}}, types.BlockInfo{Epoch: 3})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Equal(t, fee.Remove, costs[0].Kind)
	require.Equal(t, c.OwnerID, costs[0].Owner)
	require.Equal(t, types.EpochIndex(0), costs[0].Epoch)
}

func TestStore_SpecializedValues(t *testing.T) {
	s := makeStore(t)

	outpoint := assetlock.OutPoint{TxID: [32]byte{1}, Index: 2}
	info := assetlock.Info{Status: assetlock.PartiallyConsumed, InitialCredits: 10, RemainingCredits: 4}

	pollID := types.Identifier{9}
	proTx := types.Identifier{8}
	token := types.Identifier{6}
	holder := types.Identifier{5}

	apply(t, s,
		PutAssetLock{OutPoint: outpoint, Info: info},
		AddPrefundedBalance{ID: pollID, Amount: 100},
		RemovePrefundedBalance{ID: pollID, Amount: 40},
		PutMasternode{Masternode: Masternode{ProTxHash: proTx, VoterIdentityID: holder}},
		PutVote{ProTxHash: proTx, PollID: pollID, Choice: transition.VoteChoice{Kind: transition.Abstain}},
		PutVote{ProTxHash: proTx, PollID: pollID, Choice: transition.VoteChoice{Kind: transition.Lock}},
		AddTokenSupply{TokenID: token, Amount: 50},
		AddTokenBalance{TokenID: token, ID: holder, Amount: 50},
		RemoveTokenBalance{TokenID: token, ID: holder, Amount: 20},
		PutWithdrawal{Withdrawal: Withdrawal{IdentityID: holder, Nonce: 1, Amount: 7}},
		AddToFeePool{Epoch: 1, Fees: FeePool{Storage: 3, Processing: 4}},
		AddToFeePool{Epoch: 1, Fees: FeePool{Storage: 3, Processing: 4}},
	)

	stored, err := s.FetchAssetLock(nil, outpoint)
	require.NoError(t, err)
	require.Equal(t, info, stored)

	stored, err = s.FetchAssetLock(nil, assetlock.OutPoint{})
	require.NoError(t, err)
	require.Equal(t, assetlock.NotPresent, stored.Status)

	balance, found, err := s.FetchPrefundedBalance(nil, pollID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, types.Credits(60), balance)

	mn, found, err := s.FetchMasternode(nil, proTx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, holder, mn.VoterIdentityID)

	vote, found, err := s.FetchVote(nil, proTx, pollID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, VoteRecord{Choice: transition.VoteChoice{Kind: transition.Lock}, Count: 2}, vote)

	supply, found, err := s.FetchTokenSupply(nil, token)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(50), supply)

	tokens, err := s.FetchTokenBalance(nil, token, holder)
	require.NoError(t, err)
	require.Equal(t, uint64(30), tokens)

	withdrawals, err := s.FetchWithdrawals(nil)
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	require.Equal(t, types.Credits(7), withdrawals[0].Amount)

	pool, err := s.FetchFeePool(nil, 1)
	require.NoError(t, err)
	require.Equal(t, FeePool{Storage: 6, Processing: 8}, pool)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeStore(t *testing.T) *Store {
	db, err := kv.New(filepath.Join(t.TempDir(), "drive.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	s, err := New(db, DefaultCacheSize)
	require.NoError(t, err)

	return s
}

func apply(t *testing.T, s *Store, ops ...Op) []fee.Operation {
	tx, err := s.Begin()
	require.NoError(t, err)

	costs, err := s.Apply(tx, ops, types.BlockInfo{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return costs
}

func makeContract() contract.DataContract {
	owner := types.Identifier{7}

	return contract.DataContract{
		ID:      contract.NewID(owner, 1),
		OwnerID: owner,
		Version: 1,
		DocumentTypes: map[string]contract.DocumentType{
			"domain": {
				Name:         "domain",
				Mutable:      true,
				CanBeDeleted: true,
				Indices: []contract.Index{
					{Name: "label", Properties: []string{"label"}, Unique: true},
				},
			},
		},
	}
}

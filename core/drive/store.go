package drive

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/internal/encoding"
	"golang.org/x/xerrors"
)

var (
	identitiesBucket     = []byte("identities")
	balancesBucket       = []byte("balances")
	noncesBucket         = []byte("nonces")
	contractNoncesBucket = []byte("contract_nonces")
	contractsBucket      = []byte("contracts")
	documentsBucket      = []byte("documents")
	uniqueBucket         = []byte("unique")
	assetLocksBucket     = []byte("asset_locks")
	prefundedBucket      = []byte("prefunded")
	votesBucket          = []byte("votes")
	masternodesBucket    = []byte("masternodes")
	tokenBalancesBucket  = []byte("token_balances")
	tokenSupplyBucket    = []byte("token_supply")
	tokenFrozenBucket    = []byte("token_frozen")
	withdrawalsBucket    = []byte("withdrawals")
	feePoolsBucket       = []byte("fee_pools")
)

// DefaultCacheSize is the number of contracts kept in memory.
const DefaultCacheSize = 256

// Transaction is a handle on the database that reads are performed with.
// Only the transaction of a block can be written to.
//
// - implements store.Transaction
type Transaction struct {
	read  kv.ReadableTx
	write kv.Txn

	// contracts written in the transaction, moved to the cache on commit.
	contracts map[types.Identifier]FetchedContract
	// pulled are the committed contracts read by the transaction that enter
	// the cache on commit.
	pulled map[types.Identifier]FetchedContract
}

// Writable returns true if the transaction can be written to.
func (tx *Transaction) Writable() bool {
	return tx != nil && tx.write != nil
}

// OnCommit implements store.Transaction. Callbacks of a view are never
// called.
func (tx *Transaction) OnCommit(fn func()) {
	if tx.write != nil {
		tx.write.OnCommit(fn)
	}
}

// Commit applies the writes of the transaction.
func (tx *Transaction) Commit() error {
	if tx.write == nil {
		return xerrors.New("transaction is read-only")
	}

	return tx.write.Commit()
}

// Rollback discards the writes of the transaction.
func (tx *Transaction) Rollback() error {
	if tx.write == nil {
		return xerrors.New("transaction is read-only")
	}

	return tx.write.Rollback()
}

// Store is the implementation of the drive over a key/value database.
//
// - implements drive.Drive
type Store struct {
	db    kv.DB
	cache *lru.Cache[types.Identifier, FetchedContract]
}

// New creates a store over the database with a contract cache of the given
// size.
func New(db kv.DB, cacheSize int) (*Store, error) {
	cache, err := lru.New[types.Identifier, FetchedContract](cacheSize)
	if err != nil {
		return nil, xerrors.Errorf("couldn't create cache: %v", err)
	}

	s := &Store{
		db:    db,
		cache: cache,
	}

	return s, nil
}

// View implements drive.Drive. Contracts read through a view never enter the
// cache as the snapshot may be older than the cache.
func (s *Store) View(fn func(tx *Transaction) error) error {
	return s.db.View(func(rtx kv.ReadableTx) error {
		return fn(&Transaction{read: rtx})
	})
}

// Begin implements drive.Drive. The contracts written by the transaction
// replace the cached ones when it commits.
func (s *Store) Begin() (*Transaction, error) {
	txn, err := s.db.Begin()
	if err != nil {
		return nil, xerrors.Errorf("couldn't begin: %v", err)
	}

	tx := &Transaction{
		read:      txn,
		write:     txn,
		contracts: make(map[types.Identifier]FetchedContract),
		pulled:    make(map[types.Identifier]FetchedContract),
	}

	txn.OnCommit(func() {
		for id, c := range tx.pulled {
			s.cache.Add(id, c)
		}

		for id, c := range tx.contracts {
			c.Written = false
			s.cache.Add(id, c)
		}
	})

	return tx, nil
}

// CachedContracts returns the number of contracts in memory.
func (s *Store) CachedContracts() int {
	return s.cache.Len()
}

func (s *Store) read(tx *Transaction, fn func(tx *Transaction) error) error {
	if tx != nil {
		return fn(tx)
	}

	return s.View(fn)
}

// FetchIdentity implements drive.Reader.
func (s *Store) FetchIdentity(tx *Transaction, id types.Identifier) (identity.Identity, bool, error) {
	var ident identity.Identity
	var found bool

	err := s.read(tx, func(tx *Transaction) error {
		var err error

		found, err = getRecord(tx.read, identitiesBucket, id[:], &ident)
		if err != nil || !found {
			return err
		}

		ident.Balance, _ = getUint64(tx.read, balancesBucket, id[:])

		return nil
	})
	if err != nil {
		return identity.Identity{}, false, xerrors.Errorf("couldn't read identity %v: %v", id, err)
	}

	return ident, found, nil
}

// FetchBalance implements drive.Reader.
func (s *Store) FetchBalance(tx *Transaction, id types.Identifier) (types.Credits, bool, error) {
	return s.fetchUint64(tx, balancesBucket, id[:])
}

// FetchIdentityNonce implements drive.Reader.
func (s *Store) FetchIdentityNonce(tx *Transaction, id types.Identifier) (uint64, error) {
	nonce, _, err := s.fetchUint64(tx, noncesBucket, id[:])
	return nonce, err
}

// FetchIdentityContractNonce implements drive.Reader.
func (s *Store) FetchIdentityContractNonce(tx *Transaction, id, contractID types.Identifier) (uint64, error) {
	nonce, _, err := s.fetchUint64(tx, contractNoncesBucket, concat(id[:], contractID[:]))
	return nonce, err
}

// FetchContract implements drive.Reader. Contracts are read from the
// writes of the transaction first, then from the cache, then from the
// database. A view never reads the cache as its snapshot may be older. Only
// the transaction of a block can add the contracts it pulls to the cache, and
// they are added when it commits.
func (s *Store) FetchContract(tx *Transaction, id types.Identifier, addToCache bool) (FetchedContract, bool, error) {
	if tx != nil && tx.contracts != nil {
		c, found := tx.contracts[id]
		if found {
			c.Cached = true
			c.Written = true
			return c, true, nil
		}
	}

	if tx == nil || tx.Writable() {
		c, found := s.cache.Get(id)
		if found {
			c.Cached = true
			return c, true, nil
		}
	}

	var fetched FetchedContract

	err := s.read(tx, func(tx *Transaction) error {
		raw, found := getRaw(tx.read, contractsBucket, id[:])
		if !found {
			return nil
		}

		_, err := decodeRecord(raw, &fetched.Contract)
		if err != nil {
			return err
		}

		fetched.Size = len(raw)

		return nil
	})
	if err != nil {
		return FetchedContract{}, false, xerrors.Errorf("couldn't read contract %v: %v", id, err)
	}

	if fetched.Size == 0 {
		return FetchedContract{}, false, nil
	}

	if addToCache && tx.Writable() {
		tx.pulled[id] = fetched
	}

	return fetched, true, nil
}

// FetchDocument implements drive.Reader.
func (s *Store) FetchDocument(tx *Transaction, contractID, documentID types.Identifier) (StoredDocument, bool, error) {
	var doc StoredDocument
	var found bool

	err := s.read(tx, func(tx *Transaction) error {
		var err error
		found, err = getRecord(tx.read, documentsBucket, concat(contractID[:], documentID[:]), &doc)
		return err
	})
	if err != nil {
		return StoredDocument{}, false, xerrors.Errorf("couldn't read document %v: %v", documentID, err)
	}

	return doc, found, nil
}

// FetchUniqueEntry implements drive.Reader.
func (s *Store) FetchUniqueEntry(tx *Transaction, contractID types.Identifier, documentType, index string,
	key []byte) (types.Identifier, bool, error) {

	var docID types.Identifier
	var found bool

	err := s.read(tx, func(tx *Transaction) error {
		var err error
		found, err = getRecord(tx.read, uniqueBucket, uniqueKey(contractID, documentType, index, key), &docID)
		return err
	})
	if err != nil {
		return types.Identifier{}, false, xerrors.Errorf("couldn't read index %s: %v", index, err)
	}

	return docID, found, nil
}

// FetchAssetLock implements drive.Reader. An outpoint that has never been used
// is returned with the NotPresent status.
func (s *Store) FetchAssetLock(tx *Transaction, outpoint assetlock.OutPoint) (assetlock.Info, error) {
	var info assetlock.Info

	err := s.read(tx, func(tx *Transaction) error {
		raw, found := getRaw(tx.read, assetLocksBucket, outpoint.Bytes())
		if !found {
			return nil
		}

		return encoding.Unmarshal(raw, &info)
	})
	if err != nil {
		return assetlock.Info{}, xerrors.Errorf("couldn't read asset lock %v: %v", outpoint, err)
	}

	return info, nil
}

// FetchPrefundedBalance implements drive.Reader.
func (s *Store) FetchPrefundedBalance(tx *Transaction, id types.Identifier) (types.Credits, bool, error) {
	return s.fetchUint64(tx, prefundedBucket, id[:])
}

// FetchMasternode implements drive.Reader.
func (s *Store) FetchMasternode(tx *Transaction, proTxHash types.Identifier) (Masternode, bool, error) {
	var mn Masternode
	var found bool

	err := s.read(tx, func(tx *Transaction) error {
		var err error
		found, err = getValue(tx.read, masternodesBucket, proTxHash[:], &mn)
		return err
	})
	if err != nil {
		return Masternode{}, false, xerrors.Errorf("couldn't read masternode %v: %v", proTxHash, err)
	}

	return mn, found, nil
}

// FetchVote implements drive.Reader.
func (s *Store) FetchVote(tx *Transaction, proTxHash, pollID types.Identifier) (VoteRecord, bool, error) {
	var vote VoteRecord
	var found bool

	err := s.read(tx, func(tx *Transaction) error {
		var err error
		found, err = getRecord(tx.read, votesBucket, concat(proTxHash[:], pollID[:]), &vote)
		return err
	})
	if err != nil {
		return VoteRecord{}, false, xerrors.Errorf("couldn't read vote: %v", err)
	}

	return vote, found, nil
}

// FetchTokenBalance implements drive.Reader.
func (s *Store) FetchTokenBalance(tx *Transaction, tokenID, id types.Identifier) (uint64, error) {
	balance, _, err := s.fetchUint64(tx, tokenBalancesBucket, concat(tokenID[:], id[:]))
	return balance, err
}

// FetchTokenSupply implements drive.Reader.
func (s *Store) FetchTokenSupply(tx *Transaction, tokenID types.Identifier) (uint64, bool, error) {
	return s.fetchUint64(tx, tokenSupplyBucket, tokenID[:])
}

// FetchTokenFrozen implements drive.Reader.
func (s *Store) FetchTokenFrozen(tx *Transaction, tokenID, id types.Identifier) (bool, error) {
	var frozen bool

	err := s.read(tx, func(tx *Transaction) error {
		_, frozen = getRaw(tx.read, tokenFrozenBucket, concat(tokenID[:], id[:]))
		return nil
	})
	if err != nil {
		return false, xerrors.Errorf("couldn't read frozen token: %v", err)
	}

	return frozen, nil
}

// FetchDocuments returns the documents of the contract in the order of their
// identifiers.
func (s *Store) FetchDocuments(tx *Transaction, contractID types.Identifier) ([]StoredDocument, error) {
	var docs []StoredDocument

	err := s.read(tx, func(tx *Transaction) error {
		bucket := tx.read.GetBucket(documentsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.Scan(contractID[:], func(k, v []byte) error {
			var doc StoredDocument
			_, err := decodeRecord(v, &doc)
			if err != nil {
				return err
			}

			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't read documents of %v: %v", contractID, err)
	}

	return docs, nil
}

// FetchWithdrawals returns the withdrawals waiting in the queue.
func (s *Store) FetchWithdrawals(tx *Transaction) ([]Withdrawal, error) {
	var withdrawals []Withdrawal

	err := s.read(tx, func(tx *Transaction) error {
		bucket := tx.read.GetBucket(withdrawalsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var w Withdrawal
			_, err := decodeRecord(v, &w)
			if err != nil {
				return err
			}

			withdrawals = append(withdrawals, w)
			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't read withdrawals: %v", err)
	}

	return withdrawals, nil
}

// FetchFeePool returns the fees collected in the epoch.
func (s *Store) FetchFeePool(tx *Transaction, epoch types.EpochIndex) (FeePool, error) {
	var pool FeePool

	err := s.read(tx, func(tx *Transaction) error {
		_, err := getValue(tx.read, feePoolsBucket, epochKey(epoch), &pool)
		return err
	})
	if err != nil {
		return FeePool{}, xerrors.Errorf("couldn't read fee pool: %v", err)
	}

	return pool, nil
}

func (s *Store) fetchUint64(tx *Transaction, bucket, key []byte) (uint64, bool, error) {
	var value uint64
	var found bool

	err := s.read(tx, func(tx *Transaction) error {
		value, found = getUint64(tx.read, bucket, key)
		return nil
	})
	if err != nil {
		return 0, false, xerrors.Errorf("couldn't read %s: %v", bucket, err)
	}

	return value, found, nil
}

// record is the envelope of the values paid for by an identity. It remembers
// who paid and when to compute the refund when the value is removed.
type record struct {
	Owner types.Identifier `cbor:"1,keyasint"`
	Epoch types.EpochIndex `cbor:"2,keyasint"`
	Data  []byte           `cbor:"3,keyasint"`
}

func encodeRecord(owner types.Identifier, epoch types.EpochIndex, v interface{}) ([]byte, error) {
	data, err := encoding.Marshal(v)
	if err != nil {
		return nil, err
	}

	return encoding.Marshal(record{Owner: owner, Epoch: epoch, Data: data})
}

func decodeRecord(raw []byte, v interface{}) (record, error) {
	var rec record

	err := encoding.Unmarshal(raw, &rec)
	if err != nil {
		return record{}, err
	}

	if v != nil {
		err = encoding.Unmarshal(rec.Data, v)
		if err != nil {
			return record{}, err
		}
	}

	return rec, nil
}

func getRaw(tx kv.ReadableTx, bucket, key []byte) ([]byte, bool) {
	b := tx.GetBucket(bucket)
	if b == nil {
		return nil, false
	}

	value := b.Get(key)
	if value == nil {
		return nil, false
	}

	return value, true
}

func getRecord(tx kv.ReadableTx, bucket, key []byte, v interface{}) (bool, error) {
	raw, found := getRaw(tx, bucket, key)
	if !found {
		return false, nil
	}

	_, err := decodeRecord(raw, v)
	if err != nil {
		return false, err
	}

	return true, nil
}

func getValue(tx kv.ReadableTx, bucket, key []byte, v interface{}) (bool, error) {
	raw, found := getRaw(tx, bucket, key)
	if !found {
		return false, nil
	}

	err := encoding.Unmarshal(raw, v)
	if err != nil {
		return false, err
	}

	return true, nil
}

func getUint64(tx kv.ReadableTx, bucket, key []byte) (uint64, bool) {
	raw, found := getRaw(tx, bucket, key)
	if !found || len(raw) != 8 {
		return 0, false
	}

	return binary.BigEndian.Uint64(raw), true
}

func concat(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}

	buffer := make([]byte, 0, size)
	for _, p := range parts {
		buffer = append(buffer, p...)
	}

	return buffer
}

func uniqueKey(contractID types.Identifier, documentType, index string, key []byte) []byte {
	return concat(contractID[:], []byte(documentType), []byte{0}, []byte(index), []byte{0}, key)
}

func epochKey(epoch types.EpochIndex) []byte {
	key := make([]byte, 2)
	binary.BigEndian.PutUint16(key, epoch)
	return key
}

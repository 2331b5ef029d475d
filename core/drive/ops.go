package drive

import (
	"bytes"
	"encoding/binary"

	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/internal/encoding"
	"golang.org/x/xerrors"
)

// Op is a write to the storage.
type Op interface {
	run(w *writer) error
}

// Estimate implements drive.Drive. The operations are costed against the
// state of the transaction, or the committed state if it is nil, but
// nothing is written.
func (s *Store) Estimate(tx *Transaction, ops []Op, block types.BlockInfo) ([]fee.Operation, error) {
	var costs []fee.Operation

	err := s.read(tx, func(tx *Transaction) error {
		var err error
		costs, err = run(tx, ops, block, false)
		return err
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't estimate: %v", err)
	}

	return costs, nil
}

// Apply implements drive.Drive. An error leaves the transaction with part of
// the writes and it should be rolled back.
func (s *Store) Apply(tx *Transaction, ops []Op, block types.BlockInfo) ([]fee.Operation, error) {
	if !tx.Writable() {
		return nil, xerrors.New("transaction is read-only")
	}

	costs, err := run(tx, ops, block, true)
	if err != nil {
		return nil, xerrors.Errorf("couldn't apply: %v", err)
	}

	return costs, nil
}

func run(tx *Transaction, ops []Op, block types.BlockInfo, apply bool) ([]fee.Operation, error) {
	w := &writer{
		tx:    tx,
		block: block,
		apply: apply,
	}

	for _, op := range ops {
		err := op.run(w)
		if err != nil {
			return nil, xerrors.Errorf("%T: %v", op, err)
		}
	}

	return w.costs, nil
}

type writer struct {
	tx    *Transaction
	block types.BlockInfo
	apply bool
	costs []fee.Operation
}

func (w *writer) get(bucket, key []byte) ([]byte, bool) {
	return getRaw(w.tx.read, bucket, key)
}

func (w *writer) set(bucket, key, value []byte) error {
	if !w.apply {
		return nil
	}

	b, err := w.tx.write.GetBucketOrCreate(bucket)
	if err != nil {
		return err
	}

	return b.Set(key, value)
}

func (w *writer) delete(bucket, key []byte) error {
	if !w.apply {
		return nil
	}

	b, err := w.tx.write.GetBucketOrCreate(bucket)
	if err != nil {
		return err
	}

	return b.Delete(key)
}

// putRecord writes a value paid for by the owner. The previous value is
// refunded to the identity that paid for it.
func (w *writer) putRecord(bucket, key []byte, owner types.Identifier, v interface{}) ([]byte, error) {
	raw, err := encodeRecord(owner, w.block.Epoch, v)
	if err != nil {
		return nil, err
	}

	_, err = w.removeRecord(bucket, key, false)
	if err != nil {
		return nil, err
	}

	w.costs = append(w.costs, fee.InsertOp(len(raw)))

	return raw, w.set(bucket, key, raw)
}

// removeRecord refunds the value if it exists and deletes it when asked to.
func (w *writer) removeRecord(bucket, key []byte, del bool) (bool, error) {
	old, found := w.get(bucket, key)
	if !found {
		return false, nil
	}

	rec, err := decodeRecord(old, nil)
	if err != nil {
		return false, err
	}

	w.costs = append(w.costs, fee.RemoveOp(len(old), rec.Owner, rec.Epoch))

	if del {
		return true, w.delete(bucket, key)
	}

	return true, nil
}

// putValue writes a value of the platform that no identity pays storage for.
func (w *writer) putValue(bucket, key []byte, v interface{}) error {
	raw, err := encoding.Marshal(v)
	if err != nil {
		return err
	}

	w.costs = append(w.costs, fee.SeekOp(), fee.LoadOp(len(raw)))

	return w.set(bucket, key, raw)
}

// updateUint64 replaces a counter. The update function is not called when
// estimating as the counter may depend on writes that have not been applied.
func (w *writer) updateUint64(bucket, key []byte, fn func(uint64) (uint64, error)) error {
	w.costs = append(w.costs, fee.SeekOp(), fee.LoadOp(8))

	if !w.apply {
		return nil
	}

	current, _ := getUint64(w.tx.read, bucket, key)

	next, err := fn(current)
	if err != nil {
		return err
	}

	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, next)

	return w.set(bucket, key, buffer)
}

func add(amount uint64) func(uint64) (uint64, error) {
	return func(current uint64) (uint64, error) {
		return fee.Add(current, amount)
	}
}

func sub(amount uint64) func(uint64) (uint64, error) {
	return func(current uint64) (uint64, error) {
		if current < amount {
			return 0, xerrors.Errorf("insufficient amount %d < %d", current, amount)
		}

		return current - amount, nil
	}
}

func raise(value uint64) func(uint64) (uint64, error) {
	return func(current uint64) (uint64, error) {
		if value < current {
			return current, nil
		}

		return value, nil
	}
}

// PutIdentity stores the keys and the revision of the identity. The balance
// is written with AddBalance.
type PutIdentity struct {
	Identity identity.Identity
}

func (op PutIdentity) run(w *writer) error {
	ident := op.Identity
	ident.Balance = 0

	_, err := w.putRecord(identitiesBucket, ident.ID[:], ident.ID, ident)
	return err
}

// AddBalance credits an identity.
type AddBalance struct {
	ID     types.Identifier
	Amount types.Credits
}

func (op AddBalance) run(w *writer) error {
	return w.updateUint64(balancesBucket, op.ID[:], add(op.Amount))
}

// RemoveBalance debits an identity.
type RemoveBalance struct {
	ID     types.Identifier
	Amount types.Credits
}

func (op RemoveBalance) run(w *writer) error {
	return w.updateUint64(balancesBucket, op.ID[:], sub(op.Amount))
}

// SetIdentityNonce sets the last nonce used by the identity. A lower nonce
// leaves it unchanged.
type SetIdentityNonce struct {
	ID    types.Identifier
	Nonce uint64
}

func (op SetIdentityNonce) run(w *writer) error {
	return w.updateUint64(noncesBucket, op.ID[:], raise(op.Nonce))
}

// SetIdentityContractNonce sets the last nonce used by the identity on the
// contract. A lower nonce leaves it unchanged.
type SetIdentityContractNonce struct {
	ID         types.Identifier
	ContractID types.Identifier
	Nonce      uint64
}

func (op SetIdentityContractNonce) run(w *writer) error {
	return w.updateUint64(contractNoncesBucket, concat(op.ID[:], op.ContractID[:]), raise(op.Nonce))
}

// PutContract creates or replaces a data contract paid by its owner.
type PutContract struct {
	Contract contract.DataContract
}

func (op PutContract) run(w *writer) error {
	id := op.Contract.ID

	raw, err := w.putRecord(contractsBucket, id[:], op.Contract.OwnerID, op.Contract)
	if err != nil {
		return err
	}

	if w.apply {
		w.tx.contracts[id] = FetchedContract{Contract: op.Contract, Size: len(raw)}
	}

	return nil
}

// PutDocument creates or replaces a document and its entries in the unique
// indices of its type.
type PutDocument struct {
	Contract     contract.DataContract
	DocumentType string
	Document     contract.Document
}

func (op PutDocument) run(w *writer) error {
	dt, found := op.Contract.DocumentType(op.DocumentType)
	if !found {
		return xerrors.Errorf("unknown document type %s", op.DocumentType)
	}

	key := concat(op.Contract.ID[:], op.Document.ID[:])

	var previous *contract.Document

	raw, found := w.get(documentsBucket, key)
	if found {
		var old StoredDocument
		_, err := decodeRecord(raw, &old)
		if err != nil {
			return err
		}

		previous = &old.Document
	}

	stored := StoredDocument{DocumentType: op.DocumentType, Document: op.Document}

	_, err := w.putRecord(documentsBucket, key, op.Document.OwnerID, stored)
	if err != nil {
		return err
	}

	for _, idx := range dt.Indices {
		if !idx.Unique {
			continue
		}

		next, hasNext, err := contract.IndexKey(idx, op.Document.Properties)
		if err != nil {
			return err
		}

		if previous != nil {
			prev, hasPrev, err := contract.IndexKey(idx, previous.Properties)
			if err != nil {
				return err
			}

			if hasPrev && hasNext && bytes.Equal(prev, next) {
				continue
			}

			if hasPrev {
				_, err = w.removeRecord(uniqueBucket,
					uniqueKey(op.Contract.ID, op.DocumentType, idx.Name, prev), true)
				if err != nil {
					return err
				}
			}
		}

		if hasNext {
			_, err = w.putRecord(uniqueBucket, uniqueKey(op.Contract.ID, op.DocumentType, idx.Name, next),
				op.Document.OwnerID, op.Document.ID)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// DeleteDocument removes a document and its entries in the unique indices.
type DeleteDocument struct {
	Contract     contract.DataContract
	DocumentType string
	DocumentID   types.Identifier
}

func (op DeleteDocument) run(w *writer) error {
	dt, found := op.Contract.DocumentType(op.DocumentType)
	if !found {
		return xerrors.Errorf("unknown document type %s", op.DocumentType)
	}

	key := concat(op.Contract.ID[:], op.DocumentID[:])

	raw, found := w.get(documentsBucket, key)
	if !found {
		return xerrors.Errorf("document %v not found", op.DocumentID)
	}

	var old StoredDocument
	_, err := decodeRecord(raw, &old)
	if err != nil {
		return err
	}

	for _, idx := range dt.Indices {
		if !idx.Unique {
			continue
		}

		prev, hasPrev, err := contract.IndexKey(idx, old.Document.Properties)
		if err != nil {
			return err
		}

		if hasPrev {
			_, err = w.removeRecord(uniqueBucket, uniqueKey(op.Contract.ID, op.DocumentType, idx.Name, prev), true)
			if err != nil {
				return err
			}
		}
	}

	_, err = w.removeRecord(documentsBucket, key, true)

	return err
}

// PutAssetLock records the consumption of an asset lock outpoint.
type PutAssetLock struct {
	OutPoint assetlock.OutPoint
	Info     assetlock.Info
}

func (op PutAssetLock) run(w *writer) error {
	return w.putValue(assetLocksBucket, op.OutPoint.Bytes(), op.Info)
}

// AddPrefundedBalance credits a specialized balance.
type AddPrefundedBalance struct {
	ID     types.Identifier
	Amount types.Credits
}

func (op AddPrefundedBalance) run(w *writer) error {
	return w.updateUint64(prefundedBucket, op.ID[:], add(op.Amount))
}

// RemovePrefundedBalance debits a specialized balance.
type RemovePrefundedBalance struct {
	ID     types.Identifier
	Amount types.Credits
}

func (op RemovePrefundedBalance) run(w *writer) error {
	return w.updateUint64(prefundedBucket, op.ID[:], sub(op.Amount))
}

// PutVote records the vote of a masternode and increments its count.
type PutVote struct {
	ProTxHash types.Identifier
	PollID    types.Identifier
	Choice    transition.VoteChoice
	// Voter is the identity paying for the storage of the vote.
	Voter types.Identifier
}

func (op PutVote) run(w *writer) error {
	key := concat(op.ProTxHash[:], op.PollID[:])

	var vote VoteRecord

	_, err := getRecord(w.tx.read, votesBucket, key, &vote)
	if err != nil {
		return err
	}

	vote.Choice = op.Choice
	vote.Count++

	_, err = w.putRecord(votesBucket, key, op.Voter, vote)

	return err
}

// AddTokenBalance credits tokens to an identity.
type AddTokenBalance struct {
	TokenID types.Identifier
	ID      types.Identifier
	Amount  uint64
}

func (op AddTokenBalance) run(w *writer) error {
	return w.updateUint64(tokenBalancesBucket, concat(op.TokenID[:], op.ID[:]), add(op.Amount))
}

// RemoveTokenBalance debits tokens from an identity.
type RemoveTokenBalance struct {
	TokenID types.Identifier
	ID      types.Identifier
	Amount  uint64
}

func (op RemoveTokenBalance) run(w *writer) error {
	return w.updateUint64(tokenBalancesBucket, concat(op.TokenID[:], op.ID[:]), sub(op.Amount))
}

// AddTokenSupply increases the total supply of a token.
type AddTokenSupply struct {
	TokenID types.Identifier
	Amount  uint64
}

func (op AddTokenSupply) run(w *writer) error {
	return w.updateUint64(tokenSupplyBucket, op.TokenID[:], add(op.Amount))
}

// RemoveTokenSupply decreases the total supply of a token.
type RemoveTokenSupply struct {
	TokenID types.Identifier
	Amount  uint64
}

func (op RemoveTokenSupply) run(w *writer) error {
	return w.updateUint64(tokenSupplyBucket, op.TokenID[:], sub(op.Amount))
}

// FreezeToken stops the identity from sending its tokens.
type FreezeToken struct {
	TokenID types.Identifier
	ID      types.Identifier
}

func (op FreezeToken) run(w *writer) error {
	return w.putValue(tokenFrozenBucket, concat(op.TokenID[:], op.ID[:]), true)
}

// UnfreezeToken lets the identity send its tokens again.
type UnfreezeToken struct {
	TokenID types.Identifier
	ID      types.Identifier
}

func (op UnfreezeToken) run(w *writer) error {
	w.costs = append(w.costs, fee.SeekOp())

	return w.delete(tokenFrozenBucket, concat(op.TokenID[:], op.ID[:]))
}

// PutWithdrawal queues a withdrawal paid by the identity.
type PutWithdrawal struct {
	Withdrawal Withdrawal
}

func (op PutWithdrawal) run(w *writer) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, op.Withdrawal.Nonce)

	id := op.Withdrawal.IdentityID

	_, err := w.putRecord(withdrawalsBucket, concat(id[:], buffer), id, op.Withdrawal)
	return err
}

// PutMasternode adds a masternode to the list.
type PutMasternode struct {
	Masternode Masternode
}

func (op PutMasternode) run(w *writer) error {
	return w.putValue(masternodesBucket, op.Masternode.ProTxHash[:], op.Masternode)
}

// AddToFeePool adds the fees collected in a block to the pool of the epoch.
type AddToFeePool struct {
	Epoch types.EpochIndex
	Fees  FeePool
}

func (op AddToFeePool) run(w *writer) error {
	key := epochKey(op.Epoch)

	var pool FeePool

	_, err := getValue(w.tx.read, feePoolsBucket, key, &pool)
	if err != nil {
		return err
	}

	pool.Storage, err = fee.Add(pool.Storage, op.Fees.Storage)
	if err != nil {
		return err
	}

	pool.Processing, err = fee.Add(pool.Processing, op.Fees.Processing)
	if err != nil {
		return err
	}

	return w.putValue(feePoolsBucket, key, pool)
}

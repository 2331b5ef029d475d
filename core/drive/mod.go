// Package drive defines the storage of the platform state and implements it
// over a key/value database.
//
// Reads accept an optional transaction. A nil transaction reads the committed
// state, a view reads a consistent snapshot, and the transaction of a block
// reads its own uncommitted writes. Writes are expressed as operations that
// can be estimated without being applied, and both return the storage
// operations the fees are computed from.
package drive

import (
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
)

// FetchedContract is a data contract with the cost of fetching it.
type FetchedContract struct {
	Contract contract.DataContract
	// Size is the size of the stored record.
	Size int
	// Cached is true when the contract was read from memory.
	Cached bool
	// Written is true when the contract was written by the transaction it is
	// read from.
	Written bool
}

// Cost returns the fee operation of the fetch. The content of the cache is
// different on every node so a cached contract costs the same as a stored
// one, unless the block itself wrote it.
func (c FetchedContract) Cost() fee.Operation {
	if c.Written {
		return fee.CachedLoadOp(c.Size)
	}

	return fee.LoadOp(c.Size)
}

// StoredDocument is a document with its type.
type StoredDocument struct {
	DocumentType string            `cbor:"1,keyasint"`
	Document     contract.Document `cbor:"2,keyasint"`
}

// Masternode is a member of the masternode list allowed to vote.
type Masternode struct {
	ProTxHash       types.Identifier `cbor:"1,keyasint"`
	VoterIdentityID types.Identifier `cbor:"2,keyasint"`
}

// VoteRecord is the last vote of a masternode on a poll.
type VoteRecord struct {
	Choice transition.VoteChoice `cbor:"1,keyasint"`
	// Count is the number of times the masternode has voted on the poll.
	Count uint16 `cbor:"2,keyasint"`
}

// Withdrawal is a withdrawal waiting to be sent on the core chain.
type Withdrawal struct {
	IdentityID     types.Identifier   `cbor:"1,keyasint"`
	Nonce          uint64             `cbor:"2,keyasint"`
	Amount         types.Credits      `cbor:"3,keyasint"`
	CoreFeePerByte uint32             `cbor:"4,keyasint"`
	Pooling        transition.Pooling `cbor:"5,keyasint"`
	OutputScript   []byte             `cbor:"6,keyasint"`
	CreatedAt      uint64             `cbor:"7,keyasint"`
}

// FeePool is the sum of the fees collected in an epoch.
type FeePool struct {
	Storage    types.Credits `cbor:"1,keyasint"`
	Processing types.Credits `cbor:"2,keyasint"`
}

// Reader is the read side of the storage.
type Reader interface {
	// FetchIdentity returns the identity with its balance.
	FetchIdentity(tx *Transaction, id types.Identifier) (identity.Identity, bool, error)

	// FetchBalance returns the balance of the identity.
	FetchBalance(tx *Transaction, id types.Identifier) (types.Credits, bool, error)

	// FetchIdentityNonce returns the last nonce used by the identity, or zero.
	FetchIdentityNonce(tx *Transaction, id types.Identifier) (uint64, error)

	// FetchIdentityContractNonce returns the last nonce used by the identity
	// on the contract, or zero.
	FetchIdentityContractNonce(tx *Transaction, id, contractID types.Identifier) (uint64, error)

	// FetchContract returns the data contract. The contract enters the cache
	// of the drive when the transaction of the block commits if addToCache is
	// set.
	FetchContract(tx *Transaction, id types.Identifier, addToCache bool) (FetchedContract, bool, error)

	// FetchDocument returns the document of the contract.
	FetchDocument(tx *Transaction, contractID, documentID types.Identifier) (StoredDocument, bool, error)

	// FetchUniqueEntry returns the document holding the key of the unique
	// index.
	FetchUniqueEntry(tx *Transaction, contractID types.Identifier, documentType, index string,
		key []byte) (types.Identifier, bool, error)

	// FetchAssetLock returns what is known about the outpoint.
	FetchAssetLock(tx *Transaction, outpoint assetlock.OutPoint) (assetlock.Info, error)

	// FetchPrefundedBalance returns the specialized balance.
	FetchPrefundedBalance(tx *Transaction, id types.Identifier) (types.Credits, bool, error)

	// FetchMasternode returns the masternode of the list.
	FetchMasternode(tx *Transaction, proTxHash types.Identifier) (Masternode, bool, error)

	// FetchVote returns the last vote of the masternode on the poll.
	FetchVote(tx *Transaction, proTxHash, pollID types.Identifier) (VoteRecord, bool, error)

	// FetchTokenBalance returns the token balance of the identity.
	FetchTokenBalance(tx *Transaction, tokenID, id types.Identifier) (uint64, error)

	// FetchTokenSupply returns the total supply of the token.
	FetchTokenSupply(tx *Transaction, tokenID types.Identifier) (uint64, bool, error)

	// FetchTokenFrozen returns true if the tokens of the identity are frozen.
	FetchTokenFrozen(tx *Transaction, tokenID, id types.Identifier) (bool, error)
}

// Drive is the storage of the platform state.
type Drive interface {
	Reader

	// View runs the function with a read-only snapshot.
	View(fn func(tx *Transaction) error) error

	// Begin opens the writable transaction of a block.
	Begin() (*Transaction, error)

	// Estimate returns the storage operations of the writes without applying
	// them.
	Estimate(tx *Transaction, ops []Op, block types.BlockInfo) ([]fee.Operation, error)

	// Apply applies the writes to the transaction and returns their storage
	// operations.
	Apply(tx *Transaction, ops []Op, block types.BlockInfo) ([]fee.Operation, error)
}

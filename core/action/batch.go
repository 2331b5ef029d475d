package action

import (
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/types"
)

// BatchedAction is the action of one sub-transition of a batch.
type BatchedAction interface {
	ops(owner types.Identifier, block types.BlockInfo) []drive.Op
	principal() types.Credits
}

// Batch applies the actions of the sub-transitions of a batch in order.
//
// - implements action.Action
type Batch struct {
	Base
	OwnerID types.Identifier
	Actions []BatchedAction
}

// Ops implements action.Action.
func (a Batch) Ops(block types.BlockInfo) ([]drive.Op, error) {
	var ops []drive.Op
	for _, sub := range a.Actions {
		ops = append(ops, sub.ops(a.OwnerID, block)...)
	}

	return ops, nil
}

// Payer implements action.Action.
func (a Batch) Payer() Payer {
	return identityPayer(a.OwnerID)
}

// Principal implements action.Action. It returns the credits of the vote
// polls funded by the batch.
func (a Batch) Principal() types.Credits {
	var total types.Credits
	for _, sub := range a.Actions {
		total += sub.principal()
	}

	return total
}

// PollFunding is the credits moved from the owner of a document to the
// balance of a vote poll on a contested index.
type PollFunding struct {
	PollID types.Identifier
	Amount types.Credits
}

// DocumentCreate creates a document.
type DocumentCreate struct {
	Contract     contract.DataContract
	DocumentType string
	Document     contract.Document
	Nonce        uint64
	Polls        []PollFunding
}

func (a DocumentCreate) ops(owner types.Identifier, block types.BlockInfo) []drive.Op {
	doc := a.Document
	doc.CreatedAt = block.TimeMs
	doc.UpdatedAt = block.TimeMs

	ops := []drive.Op{
		drive.PutDocument{Contract: a.Contract, DocumentType: a.DocumentType, Document: doc},
	}

	for _, poll := range a.Polls {
		ops = append(ops,
			drive.RemoveBalance{ID: owner, Amount: poll.Amount},
			drive.AddPrefundedBalance{ID: poll.PollID, Amount: poll.Amount},
		)
	}

	return append(ops, contractNonce(owner, a.Contract.ID, a.Nonce))
}

func (a DocumentCreate) principal() types.Credits {
	var total types.Credits
	for _, poll := range a.Polls {
		total += poll.Amount
	}

	return total
}

// DocumentReplace replaces a document with its next revision.
type DocumentReplace struct {
	Contract     contract.DataContract
	DocumentType string
	Document     contract.Document
	Nonce        uint64
}

func (a DocumentReplace) ops(owner types.Identifier, block types.BlockInfo) []drive.Op {
	doc := a.Document
	doc.UpdatedAt = block.TimeMs

	return []drive.Op{
		drive.PutDocument{Contract: a.Contract, DocumentType: a.DocumentType, Document: doc},
		contractNonce(owner, a.Contract.ID, a.Nonce),
	}
}

func (a DocumentReplace) principal() types.Credits {
	return 0
}

// DocumentDelete deletes a document.
type DocumentDelete struct {
	Contract     contract.DataContract
	DocumentType string
	DocumentID   types.Identifier
	Nonce        uint64
}

func (a DocumentDelete) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{
		drive.DeleteDocument{Contract: a.Contract, DocumentType: a.DocumentType, DocumentID: a.DocumentID},
		contractNonce(owner, a.Contract.ID, a.Nonce),
	}
}

func (a DocumentDelete) principal() types.Credits {
	return 0
}

// DocumentTransfer gives a document to another identity. The price of the
// document is cleared.
type DocumentTransfer struct {
	Contract     contract.DataContract
	DocumentType string
	Document     contract.Document
	RecipientID  types.Identifier
	Nonce        uint64
}

func (a DocumentTransfer) ops(owner types.Identifier, block types.BlockInfo) []drive.Op {
	doc := a.Document
	doc.OwnerID = a.RecipientID
	doc.Price = 0
	doc.UpdatedAt = block.TimeMs

	return []drive.Op{
		drive.PutDocument{Contract: a.Contract, DocumentType: a.DocumentType, Document: doc},
		contractNonce(owner, a.Contract.ID, a.Nonce),
	}
}

func (a DocumentTransfer) principal() types.Credits {
	return 0
}

// DocumentUpdatePrice lists a document at a price, or removes it from sale
// with a zero price.
type DocumentUpdatePrice struct {
	Contract     contract.DataContract
	DocumentType string
	Document     contract.Document
	Price        types.Credits
	Nonce        uint64
}

func (a DocumentUpdatePrice) ops(owner types.Identifier, block types.BlockInfo) []drive.Op {
	doc := a.Document
	doc.Price = a.Price
	doc.UpdatedAt = block.TimeMs

	return []drive.Op{
		drive.PutDocument{Contract: a.Contract, DocumentType: a.DocumentType, Document: doc},
		contractNonce(owner, a.Contract.ID, a.Nonce),
	}
}

func (a DocumentUpdatePrice) principal() types.Credits {
	return 0
}

// DocumentPurchase pays the price of a document to its owner and makes the
// buyer the new owner.
type DocumentPurchase struct {
	Contract     contract.DataContract
	DocumentType string
	Document     contract.Document
	SellerID     types.Identifier
	Price        types.Credits
	Nonce        uint64
}

func (a DocumentPurchase) ops(owner types.Identifier, block types.BlockInfo) []drive.Op {
	doc := a.Document
	doc.OwnerID = owner
	doc.Price = 0
	doc.UpdatedAt = block.TimeMs

	return []drive.Op{
		drive.RemoveBalance{ID: owner, Amount: a.Price},
		drive.AddBalance{ID: a.SellerID, Amount: a.Price},
		drive.PutDocument{Contract: a.Contract, DocumentType: a.DocumentType, Document: doc},
		contractNonce(owner, a.Contract.ID, a.Nonce),
	}
}

func (a DocumentPurchase) principal() types.Credits {
	return a.Price
}

// TokenTransfer moves tokens from the owner to a recipient.
type TokenTransfer struct {
	ContractID  types.Identifier
	TokenID     types.Identifier
	RecipientID types.Identifier
	Amount      uint64
	Nonce       uint64
}

func (a TokenTransfer) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{
		drive.RemoveTokenBalance{TokenID: a.TokenID, ID: owner, Amount: a.Amount},
		drive.AddTokenBalance{TokenID: a.TokenID, ID: a.RecipientID, Amount: a.Amount},
		contractNonce(owner, a.ContractID, a.Nonce),
	}
}

func (a TokenTransfer) principal() types.Credits {
	return 0
}

// TokenMint creates tokens for a recipient.
type TokenMint struct {
	ContractID  types.Identifier
	TokenID     types.Identifier
	RecipientID types.Identifier
	Amount      uint64
	Nonce       uint64
}

func (a TokenMint) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{
		drive.AddTokenSupply{TokenID: a.TokenID, Amount: a.Amount},
		drive.AddTokenBalance{TokenID: a.TokenID, ID: a.RecipientID, Amount: a.Amount},
		contractNonce(owner, a.ContractID, a.Nonce),
	}
}

func (a TokenMint) principal() types.Credits {
	return 0
}

// TokenBurn destroys tokens of the owner.
type TokenBurn struct {
	ContractID types.Identifier
	TokenID    types.Identifier
	Amount     uint64
	Nonce      uint64
}

func (a TokenBurn) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{
		drive.RemoveTokenBalance{TokenID: a.TokenID, ID: owner, Amount: a.Amount},
		drive.RemoveTokenSupply{TokenID: a.TokenID, Amount: a.Amount},
		contractNonce(owner, a.ContractID, a.Nonce),
	}
}

func (a TokenBurn) principal() types.Credits {
	return 0
}

// TokenFreeze stops an identity from sending its tokens.
type TokenFreeze struct {
	ContractID types.Identifier
	TokenID    types.Identifier
	FrozenID   types.Identifier
	Nonce      uint64
}

func (a TokenFreeze) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{
		drive.FreezeToken{TokenID: a.TokenID, ID: a.FrozenID},
		contractNonce(owner, a.ContractID, a.Nonce),
	}
}

func (a TokenFreeze) principal() types.Credits {
	return 0
}

// TokenUnfreeze lets a frozen identity send its tokens again.
type TokenUnfreeze struct {
	ContractID types.Identifier
	TokenID    types.Identifier
	FrozenID   types.Identifier
	Nonce      uint64
}

func (a TokenUnfreeze) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{
		drive.UnfreezeToken{TokenID: a.TokenID, ID: a.FrozenID},
		contractNonce(owner, a.ContractID, a.Nonce),
	}
}

func (a TokenUnfreeze) principal() types.Credits {
	return 0
}

// BumpContractNonce only consumes the nonce of a sub-transition that failed
// its state validation.
type BumpContractNonce struct {
	ContractID types.Identifier
	Nonce      uint64
}

func (a BumpContractNonce) ops(owner types.Identifier, _ types.BlockInfo) []drive.Op {
	return []drive.Op{contractNonce(owner, a.ContractID, a.Nonce)}
}

func (a BumpContractNonce) principal() types.Credits {
	return 0
}

func contractNonce(owner, contractID types.Identifier, nonce uint64) drive.Op {
	return drive.SetIdentityContractNonce{ID: owner, ContractID: contractID, Nonce: nonce}
}

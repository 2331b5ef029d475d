package processor

import (
	"fmt"

	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

var batchHandler = handler[transition.Batch]{
	structure: version.NewDispatcher[stageFunc[transition.Batch]](
		version.BatchStructure,
		validateBatchStructureV0,
	),
	authenticate: authenticateIdentity[transition.Batch],
	nonce:        validateBatchNonces,
	balance:      preCheckBalance[transition.Batch],
	state: version.NewDispatcher[transformFunc[transition.Batch]](
		version.BatchState,
		validateBatchStateV0,
	),
}

func validateBatchStructureV0(c *call, t transition.Batch) (validation.Simple, error) {
	limits := c.Version.Limits

	if len(t.Transitions) == 0 {
		return simple(consensus.DocumentTransitionsAreAbsentError{}), nil
	}

	if len(t.Transitions) > limits.MaxBatchTransitions {
		return simple(consensus.MaxDocumentsTransitionsExceededError{Max: limits.MaxBatchTransitions}), nil
	}

	if t.HasTokenTransitions() && t.Version < 1 {
		return simple(consensus.UnsupportedFeatureError{
			Feature: "token transitions",
			Version: t.Version,
		}), nil
	}

	var errs []consensus.Error

	seen := make(map[types.Identifier]struct{})
	var duplicates []types.Identifier

	for _, sub := range t.Transitions {
		if (sub.Document == nil) == (sub.Token == nil) {
			errs = append(errs, consensus.SerializedObjectParsingError{
				Message: "batched transition must hold exactly one document or token transition",
			})
			continue
		}

		errs = append(errs, checkNonceBounds(sub.IdentityContractNonce())...)

		if sub.Document != nil {
			doc := sub.Document

			if doc.Action > transition.DocumentPurchase {
				errs = append(errs, consensus.SerializedObjectParsingError{
					Message: fmt.Sprintf("unknown document action %d", doc.Action),
				})
				continue
			}

			if doc.Action == transition.DocumentCreate {
				expected := contract.NewDocumentID(doc.DataContractID, t.OwnerID, doc.DocumentType, doc.Entropy)
				if expected != doc.ID {
					errs = append(errs, consensus.InvalidDocumentTransitionIDError{
						Expected: expected,
						Actual:   doc.ID,
					})
				}
			}

			_, dup := seen[doc.ID]
			if dup {
				duplicates = append(duplicates, doc.ID)
			}

			seen[doc.ID] = struct{}{}

			continue
		}

		tok := sub.Token

		if tok.Action > transition.TokenUnfreeze {
			errs = append(errs, consensus.SerializedObjectParsingError{
				Message: fmt.Sprintf("unknown token action %d", tok.Action),
			})
			continue
		}

		expected := contract.TokenID(tok.DataContractID, tok.TokenPosition)
		if expected != tok.TokenID {
			errs = append(errs, consensus.InvalidTokenIDError{Expected: expected, Actual: tok.TokenID})
		}

		freezing := tok.Action == transition.TokenFreeze || tok.Action == transition.TokenUnfreeze

		if !freezing && (tok.Amount == 0 || tok.Amount > limits.MaxTokenAmount) {
			errs = append(errs, consensus.InvalidTokenAmountError{
				Max:    limits.MaxTokenAmount,
				Amount: tok.Amount,
			})
		}
	}

	if len(duplicates) > 0 {
		errs = append(errs, consensus.DuplicateDocumentTransitionsWithIDsError{DocumentIDs: duplicates})
	}

	return simple(errs...), nil
}

// validateBatchNonces checks the contract nonce of every sub-transition. Two
// sub-transitions cannot use the same nonce on the same contract.
func validateBatchNonces(c *call, t transition.Batch) (validation.Simple, error) {
	type key struct {
		contractID types.Identifier
		nonce      uint64
	}

	seen := make(map[key]struct{}, len(t.Transitions))

	var errs []consensus.Error

	for _, sub := range t.Transitions {
		k := key{contractID: sub.DataContractID(), nonce: sub.IdentityContractNonce()}

		_, dup := seen[k]
		if dup {
			errs = append(errs, consensus.InvalidIdentityNonceError{
				IdentityID:   t.OwnerID,
				SettingNonce: k.nonce,
				Reason:       "nonce already used in the batch",
			})
			continue
		}

		seen[k] = struct{}{}

		res, err := c.validateIdentityContractNonce(t.OwnerID, k.contractID, k.nonce)
		if err != nil {
			return validation.Simple{}, err
		}

		errs = append(errs, res.Errors()...)
	}

	return simple(errs...), nil
}

// batchState is the state of the batch seen by the sub-transitions that
// follow each other.
type batchState struct {
	c     *call
	owner types.Identifier

	contracts map[types.Identifier]*contract.DataContract
	// claimed are the unique index entries taken by earlier documents.
	claimed  map[string]types.Identifier
	balances map[[2]types.Identifier]uint64
	supplies map[types.Identifier]uint64
	frozen   map[[2]types.Identifier]bool
}

func validateBatchStateV0(c *call, t transition.Batch) (validation.Result[action.Action], error) {
	state := &batchState{
		c:         c,
		owner:     t.OwnerID,
		contracts: make(map[types.Identifier]*contract.DataContract),
		claimed:   make(map[string]types.Identifier),
		balances:  make(map[[2]types.Identifier]uint64),
		supplies:  make(map[types.Identifier]uint64),
		frozen:    make(map[[2]types.Identifier]bool),
	}

	var errs []consensus.Error

	actions := make([]action.BatchedAction, 0, len(t.Transitions))

	for _, sub := range t.Transitions {
		var a action.BatchedAction
		var cerr consensus.Error
		var err error

		if sub.Document != nil {
			a, cerr, err = state.document(*sub.Document)
		} else {
			a, cerr, err = state.token(*sub.Token)
		}

		if err != nil {
			return validation.Result[action.Action]{}, err
		}

		if cerr != nil {
			errs = append(errs, cerr)
		}

		actions = append(actions, a)
	}

	if len(errs) > 0 {
		// Only the nonces are consumed when one of the sub-transitions fails.
		for i, sub := range t.Transitions {
			actions[i] = action.BumpContractNonce{
				ContractID: sub.DataContractID(),
				Nonce:      sub.IdentityContractNonce(),
			}
		}
	}

	a := action.Batch{
		Base:    c.base(t),
		OwnerID: t.OwnerID,
		Actions: actions,
	}

	return validation.NewWithDataAndErrors[action.Action](a, errs), nil
}

func (s *batchState) contract(id types.Identifier) (*contract.DataContract, error) {
	dc, cached := s.contracts[id]
	if cached {
		return dc, nil
	}

	fetched, found, err := s.c.drive().FetchContract(s.c.Tx, id, s.c.Mode.CanAlterCache())
	if err != nil {
		return nil, xerrors.Errorf("couldn't fetch contract: %v", err)
	}

	s.c.pay(fee.SeekOp())

	if found {
		s.c.pay(fetched.Cost())
		dc = &fetched.Contract
	}

	s.contracts[id] = dc

	return dc, nil
}

func (s *batchState) document(sub transition.DocumentTransition) (action.BatchedAction,
	consensus.Error, error) {

	dc, err := s.contract(sub.DataContractID)
	if err != nil {
		return nil, nil, err
	}

	if dc == nil {
		return nil, consensus.DataContractNotPresentError{DataContractID: sub.DataContractID}, nil
	}

	dt, found := dc.DocumentType(sub.DocumentType)
	if !found {
		return nil, consensus.InvalidDocumentTypeError{
			DocumentType:   sub.DocumentType,
			DataContractID: dc.ID,
		}, nil
	}

	stored, found, err := s.c.drive().FetchDocument(s.c.Tx, dc.ID, sub.ID)
	if err != nil {
		return nil, nil, xerrors.Errorf("couldn't fetch document: %v", err)
	}

	s.c.pay(fee.SeekOp())

	checkState := !s.c.Skip.Has(validation.CheckState)

	if sub.Action == transition.DocumentCreate {
		if found && checkState {
			return nil, consensus.DocumentAlreadyPresentError{DocumentID: sub.ID}, nil
		}

		polls, cerr, err := s.claimUniqueKeys(dc, dt, sub.ID, sub.Properties)
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		a := action.DocumentCreate{
			Contract:     *dc,
			DocumentType: dt.Name,
			Document: contract.Document{
				ID:         sub.ID,
				OwnerID:    s.owner,
				Revision:   1,
				Properties: sub.Properties,
			},
			Nonce: sub.IdentityContractNonce,
			Polls: polls,
		}

		return a, nil, nil
	}

	if !found || stored.DocumentType != dt.Name {
		return nil, consensus.DocumentNotFoundError{DocumentID: sub.ID}, nil
	}

	if sub.Action == transition.DocumentPurchase {
		return s.purchase(dc, dt, stored.Document, sub, checkState)
	}

	if checkState && stored.Document.OwnerID != s.owner {
		return nil, consensus.DocumentOwnerIDMismatchError{
			DocumentID:              sub.ID,
			DocumentOwnerID:         s.owner,
			ExistingDocumentOwnerID: stored.Document.OwnerID,
		}, nil
	}

	if sub.Action == transition.DocumentDelete {
		if !dt.CanBeDeleted {
			return nil, consensus.DocumentNotMutableError{DocumentID: sub.ID, DocumentType: dt.Name}, nil
		}

		a := action.DocumentDelete{
			Contract:     *dc,
			DocumentType: dt.Name,
			DocumentID:   sub.ID,
			Nonce:        sub.IdentityContractNonce,
		}

		return a, nil, nil
	}

	allowed := dt.Mutable
	switch sub.Action {
	case transition.DocumentTransfer:
		allowed = dt.Transferable
	case transition.DocumentUpdatePrice:
		allowed = dt.DirectPurchase
	}

	if !allowed {
		return nil, consensus.DocumentNotMutableError{DocumentID: sub.ID, DocumentType: dt.Name}, nil
	}

	if checkState && sub.Revision != stored.Document.Revision+1 {
		return nil, consensus.InvalidDocumentRevisionError{
			DocumentID:      sub.ID,
			CurrentRevision: stored.Document.Revision,
		}, nil
	}

	next := stored.Document
	next.Revision = sub.Revision

	switch sub.Action {
	case transition.DocumentTransfer:
		cerr, err := s.recipientExists(sub.RecipientOwnerID)
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		a := action.DocumentTransfer{
			Contract:     *dc,
			DocumentType: dt.Name,
			Document:     next,
			RecipientID:  sub.RecipientOwnerID,
			Nonce:        sub.IdentityContractNonce,
		}

		return a, nil, nil
	case transition.DocumentUpdatePrice:
		a := action.DocumentUpdatePrice{
			Contract:     *dc,
			DocumentType: dt.Name,
			Document:     next,
			Price:        sub.Price,
			Nonce:        sub.IdentityContractNonce,
		}

		return a, nil, nil
	}

	_, cerr, err := s.claimUniqueKeys(dc, dt, sub.ID, sub.Properties)
	if err != nil || cerr != nil {
		return nil, cerr, err
	}

	a := action.DocumentReplace{
		Contract:     *dc,
		DocumentType: dt.Name,
		Document: contract.Document{
			ID:         sub.ID,
			OwnerID:    s.owner,
			Revision:   sub.Revision,
			Properties: sub.Properties,
			CreatedAt:  stored.Document.CreatedAt,
			Price:      stored.Document.Price,
		},
		Nonce: sub.IdentityContractNonce,
	}

	return a, nil, nil
}

// purchase verifies that the document is listed at the price offered by the
// owner of the batch.
func (s *batchState) purchase(dc *contract.DataContract, dt contract.DocumentType, doc contract.Document,
	sub transition.DocumentTransition, checkState bool) (action.BatchedAction, consensus.Error, error) {

	if !dt.DirectPurchase {
		return nil, consensus.DocumentNotMutableError{DocumentID: sub.ID, DocumentType: dt.Name}, nil
	}

	if checkState {
		if doc.OwnerID == s.owner || doc.Price == 0 {
			return nil, consensus.DocumentNotForSaleError{DocumentID: sub.ID}, nil
		}

		if sub.Price != doc.Price {
			return nil, consensus.DocumentIncorrectPurchasePriceError{
				DocumentID:   sub.ID,
				OfferedPrice: sub.Price,
				ActualPrice:  doc.Price,
			}, nil
		}

		if sub.Revision != doc.Revision+1 {
			return nil, consensus.InvalidDocumentRevisionError{
				DocumentID:      sub.ID,
				CurrentRevision: doc.Revision,
			}, nil
		}
	}

	next := doc
	next.Revision = sub.Revision

	a := action.DocumentPurchase{
		Contract:     *dc,
		DocumentType: dt.Name,
		Document:     next,
		SellerID:     doc.OwnerID,
		Price:        sub.Price,
		Nonce:        sub.IdentityContractNonce,
	}

	return a, nil, nil
}

// claimUniqueKeys verifies that no other document holds the values of the
// unique indices, and returns the polls the contested ones open. The holders
// are not looked up when the state is not validated.
func (s *batchState) claimUniqueKeys(dc *contract.DataContract, dt contract.DocumentType,
	docID types.Identifier, props map[string]interface{}) ([]action.PollFunding, consensus.Error, error) {

	var polls []action.PollFunding

	for _, idx := range dt.Indices {
		if !idx.Unique {
			continue
		}

		key, ok, err := contract.IndexKey(idx, props)
		if err != nil {
			return nil, nil, xerrors.Errorf("index %s: %v", idx.Name, err)
		}

		if !ok {
			continue
		}

		duplicate := consensus.DuplicateUniqueIndexError{
			DocumentID:            docID,
			IndexName:             idx.Name,
			DuplicatingProperties: idx.Properties,
		}

		if !s.c.Skip.Has(validation.CheckState) {
			claim := fmt.Sprintf("%v/%s/%s/%x", dc.ID, dt.Name, idx.Name, key)

			holder, taken := s.claimed[claim]
			if taken && holder != docID {
				return nil, duplicate, nil
			}

			holder, found, err := s.c.drive().FetchUniqueEntry(s.c.Tx, dc.ID, dt.Name, idx.Name, key)
			if err != nil {
				return nil, nil, xerrors.Errorf("couldn't fetch unique entry: %v", err)
			}

			s.c.pay(fee.SeekOp())

			if found && holder != docID {
				return nil, duplicate, nil
			}

			s.claimed[claim] = docID
		}

		if idx.Contested {
			poll := transition.VotePoll{
				DataContractID: dc.ID,
				DocumentType:   dt.Name,
				IndexName:      idx.Name,
				IndexKey:       key,
			}

			polls = append(polls, action.PollFunding{
				PollID: poll.ID(),
				Amount: s.c.Version.Fee.ContestedDocumentVotingFee,
			})
		}
	}

	return polls, nil, nil
}

func (s *batchState) token(sub transition.TokenTransition) (action.BatchedAction, consensus.Error, error) {
	dc, err := s.contract(sub.DataContractID)
	if err != nil {
		return nil, nil, err
	}

	if dc == nil {
		return nil, consensus.DataContractNotPresentError{DataContractID: sub.DataContractID}, nil
	}

	cfg, found := dc.Token(sub.TokenPosition)
	if !found {
		return nil, consensus.InvalidTokenIDError{Actual: sub.TokenID}, nil
	}

	switch sub.Action {
	case transition.TokenTransfer:
		cerr, err := s.recipientExists(sub.RecipientID)
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		cerr, err = s.notFrozen(sub.TokenID, "transfer")
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		cerr, err = s.debit(sub.TokenID, s.owner, sub.Amount)
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		err = s.credit(sub.TokenID, sub.RecipientID, sub.Amount)
		if err != nil {
			return nil, nil, err
		}

		a := action.TokenTransfer{
			ContractID:  dc.ID,
			TokenID:     sub.TokenID,
			RecipientID: sub.RecipientID,
			Amount:      sub.Amount,
			Nonce:       sub.IdentityContractNonce,
		}

		return a, nil, nil
	case transition.TokenMint:
		if s.owner != dc.OwnerID || !cfg.MintingAllowed {
			return nil, consensus.UnauthorizedTokenActionError{
				TokenID:    sub.TokenID,
				IdentityID: s.owner,
				Action:     "mint",
			}, nil
		}

		recipient := sub.RecipientID
		if recipient.IsZero() {
			recipient = s.owner
		} else {
			cerr, err := s.recipientExists(recipient)
			if err != nil || cerr != nil {
				return nil, cerr, err
			}
		}

		supply, err := s.supply(sub.TokenID)
		if err != nil {
			return nil, nil, err
		}

		next, err := fee.Add(supply, sub.Amount)
		if err != nil || (cfg.MaxSupply != 0 && next > cfg.MaxSupply) {
			return nil, consensus.TokenMaxSupplyExceededError{
				TokenID:   sub.TokenID,
				MaxSupply: cfg.MaxSupply,
				Supply:    supply,
				Amount:    sub.Amount,
			}, nil
		}

		s.supplies[sub.TokenID] = next

		err = s.credit(sub.TokenID, recipient, sub.Amount)
		if err != nil {
			return nil, nil, err
		}

		a := action.TokenMint{
			ContractID:  dc.ID,
			TokenID:     sub.TokenID,
			RecipientID: recipient,
			Amount:      sub.Amount,
			Nonce:       sub.IdentityContractNonce,
		}

		return a, nil, nil
	case transition.TokenFreeze, transition.TokenUnfreeze:
		return s.freeze(dc, cfg, sub)
	default:
		cerr, err := s.notFrozen(sub.TokenID, "burn")
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		cerr, err = s.debit(sub.TokenID, s.owner, sub.Amount)
		if err != nil || cerr != nil {
			return nil, cerr, err
		}

		supply, err := s.supply(sub.TokenID)
		if err != nil {
			return nil, nil, err
		}

		if supply >= sub.Amount {
			s.supplies[sub.TokenID] = supply - sub.Amount
		}

		a := action.TokenBurn{
			ContractID: dc.ID,
			TokenID:    sub.TokenID,
			Amount:     sub.Amount,
			Nonce:      sub.IdentityContractNonce,
		}

		return a, nil, nil
	}
}

// freeze changes whether the target of the transition can send its tokens.
// Only the contract owner can do it when the token allows it.
func (s *batchState) freeze(dc *contract.DataContract, cfg contract.TokenConfiguration,
	sub transition.TokenTransition) (action.BatchedAction, consensus.Error, error) {

	if s.owner != dc.OwnerID || !cfg.FreezeAllowed {
		return nil, consensus.UnauthorizedTokenActionError{
			TokenID:    sub.TokenID,
			IdentityID: s.owner,
			Action:     sub.Action.String(),
		}, nil
	}

	cerr, err := s.recipientExists(sub.RecipientID)
	if err != nil || cerr != nil {
		return nil, cerr, err
	}

	frozen, err := s.isFrozen(sub.TokenID, sub.RecipientID)
	if err != nil {
		return nil, nil, err
	}

	key := [2]types.Identifier{sub.TokenID, sub.RecipientID}

	if sub.Action == transition.TokenFreeze {
		if frozen {
			return nil, consensus.IdentityTokenAccountAlreadyFrozenError{
				TokenID:    sub.TokenID,
				IdentityID: sub.RecipientID,
			}, nil
		}

		s.frozen[key] = true

		a := action.TokenFreeze{
			ContractID: dc.ID,
			TokenID:    sub.TokenID,
			FrozenID:   sub.RecipientID,
			Nonce:      sub.IdentityContractNonce,
		}

		return a, nil, nil
	}

	if !frozen {
		return nil, consensus.IdentityTokenAccountNotFrozenError{
			TokenID:    sub.TokenID,
			IdentityID: sub.RecipientID,
		}, nil
	}

	s.frozen[key] = false

	a := action.TokenUnfreeze{
		ContractID: dc.ID,
		TokenID:    sub.TokenID,
		FrozenID:   sub.RecipientID,
		Nonce:      sub.IdentityContractNonce,
	}

	return a, nil, nil
}

func (s *batchState) isFrozen(tokenID, id types.Identifier) (bool, error) {
	key := [2]types.Identifier{tokenID, id}

	frozen, cached := s.frozen[key]
	if cached {
		return frozen, nil
	}

	frozen, err := s.c.drive().FetchTokenFrozen(s.c.Tx, tokenID, id)
	if err != nil {
		return false, xerrors.Errorf("couldn't fetch frozen token: %v", err)
	}

	s.c.pay(fee.SeekOp())

	s.frozen[key] = frozen

	return frozen, nil
}

// notFrozen verifies that the owner of the batch can send the token.
func (s *batchState) notFrozen(tokenID types.Identifier, act string) (consensus.Error, error) {
	frozen, err := s.isFrozen(tokenID, s.owner)
	if err != nil {
		return nil, err
	}

	if frozen {
		return consensus.IdentityTokenAccountFrozenError{
			TokenID:    tokenID,
			IdentityID: s.owner,
			Action:     act,
		}, nil
	}

	return nil, nil
}

func (s *batchState) recipientExists(id types.Identifier) (consensus.Error, error) {
	_, found, err := s.c.drive().FetchBalance(s.c.Tx, id)
	if err != nil {
		return nil, xerrors.Errorf("couldn't fetch recipient: %v", err)
	}

	s.c.pay(fee.SeekOp())

	if !found {
		return consensus.RecipientIdentityDoesNotExistError{RecipientID: id}, nil
	}

	return nil, nil
}

func (s *batchState) balance(tokenID, id types.Identifier) (uint64, error) {
	key := [2]types.Identifier{tokenID, id}

	balance, cached := s.balances[key]
	if cached {
		return balance, nil
	}

	balance, err := s.c.drive().FetchTokenBalance(s.c.Tx, tokenID, id)
	if err != nil {
		return 0, xerrors.Errorf("couldn't fetch token balance: %v", err)
	}

	s.c.pay(fee.SeekOp(), fee.LoadOp(8))

	s.balances[key] = balance

	return balance, nil
}

func (s *batchState) debit(tokenID, id types.Identifier, amount uint64) (consensus.Error, error) {
	balance, err := s.balance(tokenID, id)
	if err != nil {
		return nil, err
	}

	if balance < amount {
		return consensus.IdentityDoesNotHaveEnoughTokenBalanceError{
			TokenID:         tokenID,
			IdentityID:      id,
			RequiredBalance: amount,
			Balance:         balance,
		}, nil
	}

	s.balances[[2]types.Identifier{tokenID, id}] = balance - amount

	return nil, nil
}

func (s *batchState) credit(tokenID, id types.Identifier, amount uint64) error {
	balance, err := s.balance(tokenID, id)
	if err != nil {
		return err
	}

	next, err := fee.Add(balance, amount)
	if err != nil {
		return xerrors.Errorf("token balance: %v", err)
	}

	s.balances[[2]types.Identifier{tokenID, id}] = next

	return nil
}

func (s *batchState) supply(tokenID types.Identifier) (uint64, error) {
	supply, cached := s.supplies[tokenID]
	if cached {
		return supply, nil
	}

	supply, _, err := s.c.drive().FetchTokenSupply(s.c.Tx, tokenID)
	if err != nil {
		return 0, xerrors.Errorf("couldn't fetch token supply: %v", err)
	}

	s.c.pay(fee.SeekOp(), fee.LoadOp(8))

	s.supplies[tokenID] = supply

	return supply, nil
}

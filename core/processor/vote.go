package processor

import (
	"go.dedis.ch/dpp/core/action"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

var masternodeVoteBalance = version.NewDispatcher[stageFunc[transition.MasternodeVote]](
	version.MasternodeVoteBalance,
	validateMasternodeVoteBalanceV0,
)

var masternodeVoteHandler = handler[transition.MasternodeVote]{
	structure: version.NewDispatcher[stageFunc[transition.MasternodeVote]](
		version.MasternodeVoteStructure,
		validateMasternodeVoteStructureV0,
	),
	authenticate: authenticateIdentity[transition.MasternodeVote],
	nonce: func(c *call, t transition.MasternodeVote) (validation.Simple, error) {
		return c.validateIdentityNonce(t.VoterIdentityID, t.Nonce)
	},
	balance: func(c *call, t transition.MasternodeVote) (validation.Simple, error) {
		fn, err := masternodeVoteBalance.Resolve(c.Version)
		if err != nil {
			return validation.Simple{}, err
		}

		return fn(c, t)
	},
	state: version.NewDispatcher[transformFunc[transition.MasternodeVote]](
		version.MasternodeVoteState,
		validateMasternodeVoteStateV0,
	),
}

func validateMasternodeVoteStructureV0(c *call, t transition.MasternodeVote) (validation.Simple, error) {
	errs := checkNonceBounds(t.Nonce)

	poll := t.Vote.Poll

	if poll.DataContractID.IsZero() || poll.DocumentType == "" || poll.IndexName == "" || len(poll.IndexKey) == 0 {
		errs = append(errs, consensus.InvalidVotePollError{Message: "vote poll is incomplete"})
	}

	switch t.Vote.Choice.Kind {
	case transition.TowardsIdentity:
		if t.Vote.Choice.IdentityID.IsZero() {
			errs = append(errs, consensus.InvalidVotePollError{Message: "vote must name the identity"})
		}
	case transition.Abstain, transition.Lock:
	default:
		errs = append(errs, consensus.InvalidVotePollError{Message: "unknown vote choice"})
	}

	return simple(errs...), nil
}

// The votes are paid by the balance of the poll, funded by the documents that
// opened it.
func validateMasternodeVoteBalanceV0(c *call, t transition.MasternodeVote) (validation.Simple, error) {
	pollID := t.Vote.Poll.ID()

	balance, found, err := c.drive().FetchPrefundedBalance(c.Tx, pollID)
	if err != nil {
		return validation.Simple{}, xerrors.Errorf("couldn't fetch prefunded balance: %v", err)
	}

	if !found || balance == 0 {
		return simple(consensus.PrefundedSpecializedBalanceNotFoundError{BalanceID: pollID}), nil
	}

	if balance < c.proc.params.MinVoteFee {
		return simple(consensus.PrefundedSpecializedBalanceInsufficientError{
			BalanceID: pollID,
			Balance:   balance,
			Required:  c.proc.params.MinVoteFee,
		}), nil
	}

	return valid(), nil
}

// Nobody can be charged for an invalid vote, so the failures of the state are
// not paid either.
func validateMasternodeVoteStateV0(c *call, t transition.MasternodeVote) (validation.Result[action.Action], error) {
	fail := func(err consensus.Error) (validation.Result[action.Action], error) {
		return validation.NewWithError[action.Action](err), nil
	}

	mn, found, err := c.drive().FetchMasternode(c.Tx, t.ProTxHash)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch masternode: %v", err)
	}

	c.pay(fee.SeekOp())

	if !found || mn.VoterIdentityID != t.VoterIdentityID {
		return fail(consensus.MasternodeNotFoundError{ProTxHash: t.ProTxHash})
	}

	poll := t.Vote.Poll

	fetched, found, err := c.drive().FetchContract(c.Tx, poll.DataContractID, c.Mode.CanAlterCache())
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch contract: %v", err)
	}

	c.pay(fee.SeekOp())

	if !found {
		return fail(consensus.InvalidVotePollError{Message: "data contract of the poll not found"})
	}

	c.pay(fetched.Cost())

	dt, found := fetched.Contract.DocumentType(poll.DocumentType)
	if !found {
		return fail(consensus.InvalidVotePollError{Message: "document type of the poll not found"})
	}

	idx, found := dt.Index(poll.IndexName)
	if !found || !idx.Contested {
		return fail(consensus.InvalidVotePollError{Message: "poll index is not contested"})
	}

	pollID := poll.ID()

	record, found, err := c.drive().FetchVote(c.Tx, t.ProTxHash, pollID)
	if err != nil {
		return validation.Result[action.Action]{}, xerrors.Errorf("couldn't fetch vote: %v", err)
	}

	c.pay(fee.SeekOp())

	if found && record.Count >= c.proc.params.MaxVotesPerPoll {
		return fail(consensus.MasternodeVotedTooManyTimesError{
			ProTxHash:         t.ProTxHash,
			TimesAlreadyVoted: record.Count,
			MaxTimesAllowed:   c.proc.params.MaxVotesPerPoll,
		})
	}

	a := action.MasternodeVote{
		Base:            c.base(t),
		ProTxHash:       t.ProTxHash,
		VoterIdentityID: t.VoterIdentityID,
		PollID:          pollID,
		Choice:          t.Vote.Choice,
		Nonce:           t.Nonce,
	}

	return validation.NewWithData[action.Action](a), nil
}

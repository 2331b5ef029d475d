package action

import (
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
)

// MasternodeVote records the vote of a masternode. It is paid by the
// prefunded balance of the poll.
//
// - implements action.Action
type MasternodeVote struct {
	Base
	ProTxHash       types.Identifier
	VoterIdentityID types.Identifier
	PollID          types.Identifier
	Choice          transition.VoteChoice
	Nonce           uint64
}

// Ops implements action.Action.
func (a MasternodeVote) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.PutVote{
			ProTxHash: a.ProTxHash,
			PollID:    a.PollID,
			Choice:    a.Choice,
			Voter:     a.VoterIdentityID,
		},
		drive.SetIdentityNonce{ID: a.VoterIdentityID, Nonce: a.Nonce},
	}

	return ops, nil
}

// Payer implements action.Action.
func (a MasternodeVote) Payer() Payer {
	return Payer{Kind: PrefundedPayer, ID: a.PollID}
}

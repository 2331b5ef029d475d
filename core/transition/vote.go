package transition

import (
	"fmt"

	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
)

// VotePoll identifies the values of a contested unique index that
// masternodes vote on.
type VotePoll struct {
	DataContractID types.Identifier `cbor:"1,keyasint"`
	DocumentType   string           `cbor:"2,keyasint"`
	IndexName      string           `cbor:"3,keyasint"`
	IndexKey       []byte           `cbor:"4,keyasint"`
}

// ID returns the identifier of the poll. It is also the identifier of the
// prefunded balance that pays for the votes.
func (p VotePoll) ID() types.Identifier {
	return types.HashIdentifier([]byte("vote_poll"), p.DataContractID[:],
		[]byte(p.DocumentType), []byte(p.IndexName), p.IndexKey)
}

// ChoiceKind is the kind of a vote choice.
type ChoiceKind uint8

const (
	// TowardsIdentity grants the contested values to an identity.
	TowardsIdentity ChoiceKind = iota
	// Abstain does not take part.
	Abstain
	// Lock prevents anyone from getting the contested values.
	Lock
)

// VoteChoice is the choice of a masternode.
type VoteChoice struct {
	Kind       ChoiceKind       `cbor:"1,keyasint"`
	IdentityID types.Identifier `cbor:"2,keyasint,omitempty"`
}

// Vote is the vote of a masternode on a poll.
type Vote struct {
	Poll   VotePoll   `cbor:"1,keyasint"`
	Choice VoteChoice `cbor:"2,keyasint"`
}

var votingPurpose = []identity.Purpose{identity.Voting}

var anySecurityLevel = []identity.SecurityLevel{
	identity.Master, identity.Critical, identity.High, identity.Medium,
}

// MasternodeVote is a vote of a masternode. It is paid by the prefunded
// balance of the poll.
//
// - implements transition.IdentitySigned
type MasternodeVote struct {
	Version              uint16           `cbor:"-"`
	ProTxHash            types.Identifier `cbor:"1,keyasint"`
	VoterIdentityID      types.Identifier `cbor:"2,keyasint"`
	Vote                 Vote             `cbor:"3,keyasint"`
	Nonce                uint64           `cbor:"4,keyasint"`
	SignaturePublicKeyID uint32           `cbor:"5,keyasint"`
	Signature            []byte           `cbor:"6,keyasint"`
}

// GetType implements transition.StateTransition.
func (t MasternodeVote) GetType() Type {
	return MasternodeVoteType
}

// GetVersion implements transition.StateTransition.
func (t MasternodeVote) GetVersion() uint16 {
	return t.Version
}

// GetOwnerID implements transition.StateTransition. It returns the voter
// identity.
func (t MasternodeVote) GetOwnerID() types.Identifier {
	return t.VoterIdentityID
}

// GetUserFeeIncrease implements transition.StateTransition. Votes cannot pay
// a tip.
func (t MasternodeVote) GetUserFeeIncrease() uint16 {
	return 0
}

// GetSignature implements transition.StateTransition.
func (t MasternodeVote) GetSignature() []byte {
	return t.Signature
}

// GetSignaturePublicKeyID implements transition.IdentitySigned.
func (t MasternodeVote) GetSignaturePublicKeyID() uint32 {
	return t.SignaturePublicKeyID
}

// GetPurposeRequirement implements transition.IdentitySigned.
func (t MasternodeVote) GetPurposeRequirement() []identity.Purpose {
	return votingPurpose
}

// GetSecurityLevelRequirement implements transition.IdentitySigned.
func (t MasternodeVote) GetSecurityLevelRequirement() []identity.SecurityLevel {
	return anySecurityLevel
}

// UniqueIdentifiers implements transition.StateTransition.
func (t MasternodeVote) UniqueIdentifiers() []string {
	return []string{fmt.Sprintf("%v-%v-%x", t.ProTxHash, t.VoterIdentityID, t.Nonce)}
}

func (t MasternodeVote) withSignature(keyID uint32, sig []byte) StateTransition {
	t.SignaturePublicKeyID = keyID
	t.Signature = sig
	return t
}

package transition

import (
	"encoding/binary"

	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/internal/encoding"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// headerSize is the size of the type byte and the version tag.
const headerSize = 3

// MaxSize is the maximum size of an encoded transition.
const MaxSize = 20 * 1024

// Encode returns the wire form of the transition.
func Encode(st StateTransition) ([]byte, error) {
	body, err := encoding.Marshal(st)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode body: %v", err)
	}

	buffer := make([]byte, headerSize, headerSize+len(body))
	buffer[0] = byte(st.GetType())
	binary.BigEndian.PutUint16(buffer[1:], st.GetVersion())

	return append(buffer, body...), nil
}

// Decode parses the wire form of a transition. Failures are consensus errors
// as the bytes come from the outside.
func Decode(raw []byte, pv *version.PlatformVersion) (StateTransition, consensus.Error) {
	if len(raw) > MaxSize {
		return nil, consensus.SerializedObjectParsingError{
			Message: xerrors.Errorf("transition too large: %d > %d", len(raw), MaxSize).Error(),
		}
	}

	if len(raw) < headerSize {
		return nil, consensus.SerializedObjectParsingError{
			Message: xerrors.Errorf("transition too short: %d", len(raw)).Error(),
		}
	}

	typ := Type(raw[0])
	v := binary.BigEndian.Uint16(raw[1:headerSize])

	target, found := newDecodable(typ)
	if !found {
		return nil, consensus.UnknownStateTransitionTypeError{Type: uint8(typ)}
	}

	bounds := Bounds(typ, pv)
	if !bounds.Contains(v) {
		return nil, consensus.UnsupportedVersionError{
			Type:     uint8(typ),
			Received: v,
			Min:      bounds.Min,
			Max:      bounds.Max,
		}
	}

	err := encoding.Unmarshal(raw[headerSize:], target)
	if err != nil {
		return nil, consensus.SerializedObjectParsingError{Message: err.Error()}
	}

	return target.decoded(v), nil
}

// Bounds returns the versions of the transition type accepted by the protocol
// version.
func Bounds(typ Type, pv *version.PlatformVersion) version.Bounds {
	s := pv.Serialization

	switch typ {
	case DataContractCreateType:
		return s.DataContractCreate
	case DataContractUpdateType:
		return s.DataContractUpdate
	case BatchType:
		return s.Batch
	case IdentityCreateType:
		return s.IdentityCreate
	case IdentityTopUpType:
		return s.IdentityTopUp
	case IdentityUpdateType:
		return s.IdentityUpdate
	case IdentityCreditTransferType:
		return s.IdentityCreditTransfer
	case IdentityCreditWithdrawalType:
		return s.IdentityCreditWithdrawal
	case MasternodeVoteType:
		return s.MasternodeVote
	default:
		return version.Bounds{Min: 1, Max: 0}
	}
}

// decodable is the pointer to an empty transition that the body is decoded
// into.
type decodable interface {
	decoded(version uint16) StateTransition
}

func newDecodable(typ Type) (decodable, bool) {
	switch typ {
	case DataContractCreateType:
		return &DataContractCreate{}, true
	case DataContractUpdateType:
		return &DataContractUpdate{}, true
	case BatchType:
		return &Batch{}, true
	case IdentityCreateType:
		return &IdentityCreate{}, true
	case IdentityTopUpType:
		return &IdentityTopUp{}, true
	case IdentityUpdateType:
		return &IdentityUpdate{}, true
	case IdentityCreditTransferType:
		return &IdentityCreditTransfer{}, true
	case IdentityCreditWithdrawalType:
		return &IdentityCreditWithdrawal{}, true
	case MasternodeVoteType:
		return &MasternodeVote{}, true
	default:
		return nil, false
	}
}

func (t *DataContractCreate) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *DataContractUpdate) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *Batch) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *IdentityCreate) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *IdentityTopUp) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *IdentityUpdate) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *IdentityCreditTransfer) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *IdentityCreditWithdrawal) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

func (t *MasternodeVote) decoded(v uint16) StateTransition {
	t.Version = v
	return *t
}

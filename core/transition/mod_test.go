package transition

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/crypto/secp256k1"
	"go.dedis.ch/dpp/version"
)

func TestType_String(t *testing.T) {
	require.Equal(t, "Batch", BatchType.String())
	require.Equal(t, "MasternodeVote", MasternodeVoteType.String())
	require.Equal(t, "Unknown(42)", Type(42).String())
	require.Len(t, AllTypes(), 9)
}

func TestCodec_EncodeDecode(t *testing.T) {
	owner := types.Identifier{1}

	transitions := []StateTransition{
		DataContractCreate{
			DataContract: contract.DataContract{
				ID:      contract.NewID(owner, 1),
				OwnerID: owner,
				Version: 1,
				DocumentTypes: map[string]contract.DocumentType{
					"note": {Name: "note", Mutable: true},
				},
			},
			IdentityNonce: 1,
			Signature:     []byte{1},
		},
		Batch{
			OwnerID: owner,
			Transitions: []BatchedTransition{
				{Document: &DocumentTransition{DocumentType: "note", Properties: map[string]interface{}{"text": "hi"}}},
			},
		},
		IdentityCreditTransfer{IdentityID: owner, RecipientID: types.Identifier{2}, Amount: 10, Nonce: 1},
		IdentityTopUp{
			IdentityID:     owner,
			AssetLockProof: AssetLockProof{Chain: &assetlock.ChainProof{CoreChainLockedHeight: 5}},
		},
		MasternodeVote{ProTxHash: types.Identifier{3}, Vote: Vote{Choice: VoteChoice{Kind: Abstain}}},
	}

	for _, st := range transitions {
		raw, err := Encode(st)
		require.NoError(t, err)
		require.Equal(t, byte(st.GetType()), raw[0])

		decoded, cerr := Decode(raw, version.First())
		require.Nil(t, cerr, st.GetType().String())
		require.Equal(t, st.GetType(), decoded.GetType())
		require.Equal(t, st.GetOwnerID(), decoded.GetOwnerID())

		again, err := Encode(decoded)
		require.NoError(t, err)
		require.Equal(t, raw, again, st.GetType().String())
	}
}

func TestCodec_Decode_Failures(t *testing.T) {
	pv := version.First()

	_, err := Decode([]byte{1}, pv)
	require.Equal(t, consensus.SerializedObjectParsingError{Message: "transition too short: 1"}, err)

	_, err = Decode(make([]byte, MaxSize+1), pv)
	require.IsType(t, consensus.SerializedObjectParsingError{}, err)

	_, err = Decode([]byte{42, 0, 0}, pv)
	require.Equal(t, consensus.UnknownStateTransitionTypeError{Type: 42}, err)

	_, err = Decode([]byte{byte(BatchType), 0, 0, 0xff}, pv)
	require.IsType(t, consensus.SerializedObjectParsingError{}, err)

	_, err = Decode([]byte{byte(IdentityUpdateType), 0, 3, 0xa0}, pv)
	require.Equal(t, consensus.UnsupportedVersionError{
		Type:     uint8(IdentityUpdateType),
		Received: 3,
	}, err)
}

func TestCodec_BatchVersionBounds(t *testing.T) {
	raw, err := Encode(Batch{Version: 1, OwnerID: types.Identifier{1}})
	require.NoError(t, err)

	_, cerr := Decode(raw, version.First())
	require.Equal(t, consensus.UnsupportedVersionError{
		Type:     uint8(BatchType),
		Received: 1,
		Min:      0,
		Max:      0,
	}, cerr)

	st, cerr := Decode(raw, version.Latest())
	require.Nil(t, cerr)
	require.Equal(t, uint16(1), st.GetVersion())
}

func TestSign(t *testing.T) {
	signer, err := secp256k1.NewSigner()
	require.NoError(t, err)

	key, err := identity.NewPublicKey(2, signer, identity.ECDSASecp256k1,
		identity.Transfer, identity.Critical)
	require.NoError(t, err)

	st := IdentityCreditTransfer{IdentityID: types.Identifier{1}, Amount: 5, Nonce: 1}

	signed, err := Sign(st, 2, signer)
	require.NoError(t, err)

	transfer := signed.(IdentityCreditTransfer)
	require.Equal(t, uint32(2), transfer.GetSignaturePublicKeyID())

	data, err := SignableBytes(signed)
	require.NoError(t, err)

	unsigned, err := SignableBytes(st)
	require.NoError(t, err)
	require.Equal(t, unsigned, data)

	require.NoError(t, key.Verify(data, signed.GetSignature()))

	transfer.Amount = 6
	data, err = SignableBytes(transfer)
	require.NoError(t, err)
	require.Error(t, key.Verify(data, signed.GetSignature()))
}

func TestUniqueIdentifiers(t *testing.T) {
	owner := types.Identifier{1}

	batch := Batch{
		OwnerID: owner,
		Transitions: []BatchedTransition{
			{Document: &DocumentTransition{DataContractID: types.Identifier{2}, IdentityContractNonce: 1}},
			{Document: &DocumentTransition{DataContractID: types.Identifier{2}, IdentityContractNonce: 2}},
			{Token: &TokenTransition{DataContractID: types.Identifier{2}, IdentityContractNonce: 3}},
		},
	}

	ids := batch.UniqueIdentifiers()
	require.Len(t, ids, 3)
	require.NotEqual(t, ids[0], ids[1])
	require.True(t, batch.HasTokenTransitions())

	transfer := IdentityCreditTransfer{IdentityID: owner, Nonce: 10}
	require.Equal(t, []string{owner.String() + "-a"}, transfer.UniqueIdentifiers())

	create := IdentityCreate{
		AssetLockProof: AssetLockProof{Chain: &assetlock.ChainProof{
			OutPoint: assetlock.OutPoint{Index: 1},
		}},
	}
	require.Equal(t, []string{assetlock.OutPoint{Index: 1}.String()}, create.UniqueIdentifiers())
	require.Equal(t, IdentityIDFromOutPoint(assetlock.OutPoint{Index: 1}), create.GetOwnerID())

	require.Nil(t, IdentityCreate{}.UniqueIdentifiers())
	require.True(t, IdentityCreate{}.GetOwnerID().IsZero())
}

func TestVotePoll_ID(t *testing.T) {
	a := VotePoll{DocumentType: "domain", IndexName: "name", IndexKey: []byte("a")}
	b := VotePoll{DocumentType: "domain", IndexName: "name", IndexKey: []byte("b")}

	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, a.ID(), a.ID())
}

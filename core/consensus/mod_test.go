package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/types"
)

func TestFamily_String(t *testing.T) {
	require.Equal(t, "basic", Basic.String())
	require.Equal(t, "signature", Signature.String())
	require.Equal(t, "fee", Fee.String())
	require.Equal(t, "state", State.String())
	require.Equal(t, "unknown", Family(0).String())
}

func TestError_CodeRanges(t *testing.T) {
	errs := []Error{
		UnknownStateTransitionTypeError{},
		InvalidVotePollError{},
		IdentityNotFoundError{},
		SignatureShouldNotBePresentError{},
		BalanceIsNotEnoughError{},
		DataContractAlreadyPresentError{},
		RecipientIdentityDoesNotExistError{},
		DocumentNotForSaleError{},
		IdentityTokenAccountAlreadyFrozenError{},
	}

	base := map[Family]Code{
		Basic:     10000,
		Signature: 20000,
		Fee:       30000,
		State:     40000,
	}

	for _, err := range errs {
		start := base[err.Family()]
		require.GreaterOrEqual(t, err.Code(), start, err.Error())
		require.Less(t, err.Code(), start+10000, err.Error())
	}
}

func TestError_Messages(t *testing.T) {
	id := types.Identifier{0xaa}

	var err Error = IdentityInsufficientBalanceError{
		IdentityID:      id,
		Balance:         500,
		RequiredBalance: 1000,
	}
	require.EqualError(t, err,
		"insufficient balance 500 for identity "+id.String()+": required 1000")
	require.Equal(t, State, err.Family())
	require.Equal(t, IdentityInsufficientBalanceCode, err.Code())

	err = PrefundedSpecializedBalanceInsufficientError{
		BalanceID: id,
		Balance:   5,
		Required:  10,
	}
	require.EqualError(t, err,
		"prefunded specialized balance "+id.String()+" has 5 credits, 10 required")

	err = DocumentIncorrectPurchasePriceError{DocumentID: id, OfferedPrice: 10, ActualPrice: 20}
	require.EqualError(t, err, "document "+id.String()+" costs 20: offered 10")

	err = IdentityTokenAccountFrozenError{TokenID: id, IdentityID: id, Action: "transfer"}
	require.EqualError(t, err, "identity "+id.String()+" cannot transfer token "+id.String()+": account is frozen")
	require.Equal(t, IdentityTokenAccountFrozenCode, err.Code())

	err = MissingMasterPublicKeyError{}
	require.EqualError(t, err, "missing master public key")
	require.Equal(t, Basic, err.Family())
}

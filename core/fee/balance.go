package fee

import (
	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/core/validation"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// Minimum is the smallest amount a transition can cost its owner.
type Minimum struct {
	// Principal is the amount moved out of the balance, such as the credits
	// of a transfer.
	Principal types.Credits
	// Fee is the smallest fee charged for the transition.
	Fee types.Credits
}

// Total returns the principal plus the fee.
func (m Minimum) Total() (types.Credits, error) {
	return Add(m.Principal, m.Fee)
}

// MinimumFor returns the minimum of the transition. Transitions funded by an
// asset lock or by a prefunded balance have no minimum on the balance of their
// owner.
func MinimumFor(st transition.StateTransition, pv *version.PlatformVersion) (Minimum, error) {
	fv := pv.Fee

	switch t := st.(type) {
	case transition.DataContractCreate:
		cost, err := RegistrationCost(t.DataContract, pv)
		if err != nil {
			return Minimum{}, xerrors.Errorf("registration cost: %v", err)
		}

		fee, err := Add(fv.DataContractCreateMinimum, cost)
		if err != nil {
			return Minimum{}, err
		}

		return Minimum{Fee: fee}, nil
	case transition.DataContractUpdate:
		cost, err := RegistrationCost(t.DataContract, pv)
		if err != nil {
			return Minimum{}, xerrors.Errorf("registration cost: %v", err)
		}

		fee, err := Add(fv.DataContractUpdateMinimum, cost)
		if err != nil {
			return Minimum{}, err
		}

		return Minimum{Fee: fee}, nil
	case transition.Batch:
		var min Minimum
		var err error

		for _, sub := range t.Transitions {
			min.Fee, err = Add(min.Fee, subTransitionMinimum(sub, fv))
			if err != nil {
				return Minimum{}, err
			}

			// A purchase pays the price of the document to its owner.
			if sub.Document != nil && sub.Document.Action == transition.DocumentPurchase {
				min.Principal, err = Add(min.Principal, sub.Document.Price)
				if err != nil {
					return Minimum{}, err
				}
			}
		}

		return min, nil
	case transition.IdentityUpdate:
		return Minimum{Fee: fv.IdentityUpdateMinimum}, nil
	case transition.IdentityCreditTransfer:
		return Minimum{Principal: t.Amount, Fee: fv.CreditTransferMinimum}, nil
	case transition.IdentityCreditWithdrawal:
		return Minimum{Principal: t.Amount, Fee: fv.CreditWithdrawalMinimum}, nil
	default:
		return Minimum{}, nil
	}
}

func subTransitionMinimum(sub transition.BatchedTransition, fv version.FeeVersion) types.Credits {
	if sub.Token != nil {
		return fv.TokenTransitionMinimum
	}

	if sub.Document == nil {
		return 0
	}

	switch sub.Document.Action {
	case transition.DocumentReplace, transition.DocumentTransfer, transition.DocumentUpdatePrice,
		transition.DocumentPurchase:
		return fv.DocumentReplaceMinimum
	case transition.DocumentDelete:
		return fv.DocumentDeleteMinimum
	default:
		return fv.DocumentCreateMinimum
	}
}

type preCheckFunc func(st transition.StateTransition, balance types.Credits,
	pv *version.PlatformVersion) (validation.Simple, error)

var preCheck = version.NewDispatcher[preCheckFunc](
	version.MinimumBalancePreCheck,
	validateMinimumBalancePreCheckV0,
)

// ValidateMinimumBalancePreCheck verifies that the balance of the owner can
// pay for the minimum of the transition. It runs before the state is
// validated and never reads the storage.
func ValidateMinimumBalancePreCheck(st transition.StateTransition, balance types.Credits,
	pv *version.PlatformVersion) (validation.Simple, error) {

	fn, err := preCheck.Resolve(pv)
	if err != nil {
		return validation.Simple{}, err
	}

	return fn(st, balance, pv)
}

func validateMinimumBalancePreCheckV0(st transition.StateTransition, balance types.Credits,
	pv *version.PlatformVersion) (validation.Simple, error) {

	minimum, err := MinimumFor(st, pv)
	if err != nil {
		return validation.Simple{}, err
	}

	required, err := minimum.Total()
	if err != nil {
		return validation.Simple{}, err
	}

	if balance < required {
		return validation.NewWithError[struct{}](consensus.IdentityInsufficientBalanceError{
			IdentityID:      st.GetOwnerID(),
			Balance:         balance,
			RequiredBalance: required,
		}), nil
	}

	return validation.New[struct{}](), nil
}

// ValidateBalance verifies once the fees are known that the balance can pay
// for the principal and the amount the identity must be charged, which is
// never less than the minimum fee.
func ValidateBalance(id types.Identifier, balance types.Credits, minimum Minimum,
	res Result) (validation.Simple, error) {

	required, err := res.RequiredAmountFor(id)
	if err != nil {
		return validation.Simple{}, err
	}

	if required < minimum.Fee {
		required = minimum.Fee
	}

	required, err = Add(minimum.Principal, required)
	if err != nil {
		return validation.Simple{}, err
	}

	if balance < required {
		return validation.NewWithError[struct{}](consensus.IdentityInsufficientBalanceError{
			IdentityID:      id,
			Balance:         balance,
			RequiredBalance: required,
		}), nil
	}

	return validation.New[struct{}](), nil
}

package fee

import (
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/version"
)

type registrationFunc func(c contract.DataContract, fv version.FeeVersion) (types.Credits, error)

var registrationCost = version.NewDispatcher[registrationFunc](
	version.RegistrationCost,
	registrationCostV0,
	registrationCostV1,
)

// RegistrationCost returns the fee charged for registering the contract on
// top of its storage.
func RegistrationCost(c contract.DataContract, pv *version.PlatformVersion) (types.Credits, error) {
	fn, err := registrationCost.Resolve(pv)
	if err != nil {
		return 0, err
	}

	return fn(c, pv.Fee)
}

// Contracts are only paid for by their storage.
func registrationCostV0(contract.DataContract, version.FeeVersion) (types.Credits, error) {
	return 0, nil
}

func registrationCostV1(c contract.DataContract, fv version.FeeVersion) (types.Credits, error) {
	cost := fv.DataContractRegistrationBase

	var err error
	add := func(credits types.Credits) {
		if err == nil {
			cost, err = Add(cost, credits)
		}
	}

	for _, name := range c.DocumentTypeNames() {
		add(fv.DocumentTypeRegistration)

		for _, idx := range c.DocumentTypes[name].Indices {
			switch {
			case idx.Contested:
				add(fv.ContestedIndexRegistration)
			case idx.Unique:
				add(fv.UniqueIndexRegistration)
			default:
				add(fv.IndexRegistration)
			}
		}
	}

	for range c.TokenPositions() {
		add(fv.TokenRegistration)
	}

	if err != nil {
		return 0, err
	}

	return cost, nil
}

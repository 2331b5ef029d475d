package action

import (
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/types"
)

// DataContractCreate registers a data contract.
//
// - implements action.Action
type DataContractCreate struct {
	Base
	Contract      contract.DataContract
	IdentityNonce uint64
}

// Ops implements action.Action. The base supply of the tokens is issued to
// the owner.
func (a DataContractCreate) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.PutContract{Contract: a.Contract},
	}

	for _, pos := range a.Contract.TokenPositions() {
		cfg := a.Contract.Tokens[pos]
		if cfg.BaseSupply == 0 {
			continue
		}

		tokenID := contract.TokenID(a.Contract.ID, pos)

		ops = append(ops,
			drive.AddTokenSupply{TokenID: tokenID, Amount: cfg.BaseSupply},
			drive.AddTokenBalance{TokenID: tokenID, ID: a.Contract.OwnerID, Amount: cfg.BaseSupply},
		)
	}

	ops = append(ops, drive.SetIdentityNonce{ID: a.Contract.OwnerID, Nonce: a.IdentityNonce})

	return ops, nil
}

// Payer implements action.Action.
func (a DataContractCreate) Payer() Payer {
	return identityPayer(a.Contract.OwnerID)
}

// DataContractUpdate replaces a data contract with its next version.
//
// - implements action.Action
type DataContractUpdate struct {
	Base
	Contract              contract.DataContract
	IdentityContractNonce uint64
}

// Ops implements action.Action.
func (a DataContractUpdate) Ops(types.BlockInfo) ([]drive.Op, error) {
	ops := []drive.Op{
		drive.PutContract{Contract: a.Contract},
		drive.SetIdentityContractNonce{
			ID:         a.Contract.OwnerID,
			ContractID: a.Contract.ID,
			Nonce:      a.IdentityContractNonce,
		},
	}

	return ops, nil
}

// Payer implements action.Action.
func (a DataContractUpdate) Payer() Payer {
	return identityPayer(a.Contract.OwnerID)
}

package fee

import (
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

// OperationKind is the kind of a costed storage or processing operation.
type OperationKind uint8

const (
	// Seek is one lookup in the storage.
	Seek OperationKind = iota
	// StorageLoad reads bytes from the storage.
	StorageLoad
	// NonStorageLoad reads bytes from memory, such as a cached contract.
	NonStorageLoad
	// Insert writes new bytes that are paid for.
	Insert
	// Remove frees bytes and refunds their owner.
	Remove
	// SignatureVerify is the verification of one signature.
	SignatureVerify
	// Precalculated is a fee computed elsewhere, such as a registration cost.
	Precalculated
)

// Operation is one costed operation.
type Operation struct {
	Kind  OperationKind
	Bytes uint64

	// Owner and Epoch of the bytes freed by a removal.
	Owner types.Identifier
	Epoch types.EpochIndex

	KeyType identity.KeyType

	Storage    types.Credits
	Processing types.Credits
}

// SeekOp returns a seek operation.
func SeekOp() Operation {
	return Operation{Kind: Seek}
}

// LoadOp returns the load of n bytes from the storage.
func LoadOp(n int) Operation {
	return Operation{Kind: StorageLoad, Bytes: uint64(n)}
}

// CachedLoadOp returns the load of n bytes from memory.
func CachedLoadOp(n int) Operation {
	return Operation{Kind: NonStorageLoad, Bytes: uint64(n)}
}

// InsertOp returns the insertion of n bytes.
func InsertOp(n int) Operation {
	return Operation{Kind: Insert, Bytes: uint64(n)}
}

// RemoveOp returns the removal of n bytes paid by the owner in the epoch.
func RemoveOp(n int, owner types.Identifier, epoch types.EpochIndex) Operation {
	return Operation{Kind: Remove, Bytes: uint64(n), Owner: owner, Epoch: epoch}
}

// SignatureOp returns the verification of a signature of the key type.
func SignatureOp(kt identity.KeyType) Operation {
	return Operation{Kind: SignatureVerify, KeyType: kt}
}

// PrecalculatedOp returns an operation with known fees.
func PrecalculatedOp(storage, processing types.Credits) Operation {
	return Operation{Kind: Precalculated, Storage: storage, Processing: processing}
}

type calculateFunc func(ops []Operation, epoch types.EpochIndex, fv version.FeeVersion) (Result, error)

var calculateOperationFees = version.NewDispatcher[calculateFunc](
	version.CalculateOperationFees,
	calculateOperationFeesV0,
)

// CalculateOperationFees returns the fees of the operations executed in the
// epoch.
func CalculateOperationFees(ops []Operation, epoch types.EpochIndex,
	pv *version.PlatformVersion) (Result, error) {

	fn, err := calculateOperationFees.Resolve(pv)
	if err != nil {
		return Result{}, err
	}

	return fn(ops, epoch, pv.Fee)
}

func calculateOperationFeesV0(ops []Operation, epoch types.EpochIndex,
	fv version.FeeVersion) (Result, error) {

	var res Result

	for _, op := range ops {
		var storage, processing types.Credits
		var err error

		switch op.Kind {
		case Seek:
			processing = fv.StorageSeekCost
		case StorageLoad:
			processing, err = Mul(op.Bytes, fv.StorageLoadCreditPerByte)
		case NonStorageLoad:
			processing, err = Mul(op.Bytes, fv.NonStorageLoadCreditPerByte)
		case Insert:
			storage, processing, err = insertCost(op.Bytes, fv)
		case Remove:
			processing = fv.StorageSeekCost

			if !op.Owner.IsZero() {
				var refund types.Credits
				refund, err = RefundFor(op.Bytes, op.Epoch, epoch, fv)
				if err == nil && refund > 0 {
					if res.Refunds == nil {
						res.Refunds = make(Refunds)
					}

					err = res.Refunds.Add(op.Owner, op.Epoch, refund)
				}
			}
		case SignatureVerify:
			processing, err = signatureCost(op.KeyType, fv)
		case Precalculated:
			storage, processing = op.Storage, op.Processing
		default:
			err = xerrors.Errorf("unknown operation kind %d", op.Kind)
		}

		if err != nil {
			return Result{}, err
		}

		res.StorageFee, err = Add(res.StorageFee, storage)
		if err != nil {
			return Result{}, xerrors.Errorf("storage fee: %w", err)
		}

		res.ProcessingFee, err = Add(res.ProcessingFee, processing)
		if err != nil {
			return Result{}, xerrors.Errorf("processing fee: %w", err)
		}
	}

	return res, nil
}

func insertCost(n uint64, fv version.FeeVersion) (types.Credits, types.Credits, error) {
	storage, err := Mul(n, fv.StorageDiskUsageCreditPerByte)
	if err != nil {
		return 0, 0, err
	}

	processing, err := Mul(n, fv.StorageProcessingCreditPerByte)
	if err != nil {
		return 0, 0, err
	}

	processing, err = Add(processing, fv.StorageSeekCost)
	if err != nil {
		return 0, 0, err
	}

	return storage, processing, nil
}

// RefundFor returns the refund of n bytes stored in the epoch and removed in
// the current epoch. The storage fee pays for a fixed number of epochs and the
// refund covers the ones that have not elapsed.
func RefundFor(n uint64, storedIn, current types.EpochIndex, fv version.FeeVersion) (types.Credits, error) {
	if fv.StorageRefundEpochs == 0 || current < storedIn {
		return 0, nil
	}

	elapsed := uint64(current - storedIn)
	epochs := uint64(fv.StorageRefundEpochs)

	if elapsed >= epochs {
		return 0, nil
	}

	paid, err := Mul(n, fv.StorageDiskUsageCreditPerByte)
	if err != nil {
		return 0, err
	}

	remaining, err := Mul(paid, epochs-elapsed)
	if err != nil {
		return 0, err
	}

	return remaining / epochs, nil
}

func signatureCost(kt identity.KeyType, fv version.FeeVersion) (types.Credits, error) {
	switch kt {
	case identity.ECDSASecp256k1:
		return fv.SignatureVerifyECDSA, nil
	case identity.BLS:
		return fv.SignatureVerifyBLS, nil
	case identity.ECDSAHash160:
		return fv.SignatureVerifyHash160, nil
	default:
		return 0, xerrors.Errorf("unknown key type %d", kt)
	}
}

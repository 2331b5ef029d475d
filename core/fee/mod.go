// Package fee computes the fees of the state transitions and the refunds of
// the storage they free.
//
// All the arithmetic is checked: an overflow or an underflow is returned as
// an error and never wraps around.
package fee

import (
	"math/bits"
	"sort"

	"go.dedis.ch/dpp/core/types"
	"golang.org/x/xerrors"
)

// ErrOverflow is returned when a fee computation overflows.
var ErrOverflow = xerrors.New("fee overflow")

// Add returns the sum of the credits or ErrOverflow.
func Add(a, b types.Credits) (types.Credits, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, xerrors.Errorf("%d + %d: %w", a, b, ErrOverflow)
	}

	return sum, nil
}

// Mul returns the product of the credits or ErrOverflow.
func Mul(a, b types.Credits) (types.Credits, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, xerrors.Errorf("%d * %d: %w", a, b, ErrOverflow)
	}

	return lo, nil
}

// Sub returns a - b or an error if b is greater than a.
func Sub(a, b types.Credits) (types.Credits, error) {
	if b > a {
		return 0, xerrors.Errorf("%d - %d: %w", a, b, ErrOverflow)
	}

	return a - b, nil
}

// Refunds are the credits returned to the identities that paid for storage
// which has been removed, by identity and by epoch the storage was paid in.
type Refunds map[types.Identifier]map[types.EpochIndex]types.Credits

// Add records a refund for the identity.
func (r Refunds) Add(id types.Identifier, epoch types.EpochIndex, credits types.Credits) error {
	epochs := r[id]
	if epochs == nil {
		epochs = make(map[types.EpochIndex]types.Credits)
		r[id] = epochs
	}

	sum, err := Add(epochs[epoch], credits)
	if err != nil {
		return xerrors.Errorf("refund of %v: %w", id, err)
	}

	epochs[epoch] = sum

	return nil
}

// For returns the refunds of one identity.
func (r Refunds) For(id types.Identifier) (types.Credits, error) {
	var total types.Credits
	var err error

	for _, credits := range r[id] {
		total, err = Add(total, credits)
		if err != nil {
			return 0, err
		}
	}

	return total, nil
}

// Total returns the refunds of every identity.
func (r Refunds) Total() (types.Credits, error) {
	var total types.Credits

	for id := range r {
		credits, err := r.For(id)
		if err != nil {
			return 0, err
		}

		total, err = Add(total, credits)
		if err != nil {
			return 0, err
		}
	}

	return total, nil
}

// Identities returns the identities that are refunded, in order.
func (r Refunds) Identities() []types.Identifier {
	ids := make([]types.Identifier, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})

	return ids
}

func (r Refunds) clone() Refunds {
	if len(r) == 0 {
		return nil
	}

	c := make(Refunds, len(r))
	for id, epochs := range r {
		e := make(map[types.EpochIndex]types.Credits, len(epochs))
		for k, v := range epochs {
			e[k] = v
		}

		c[id] = e
	}

	return c
}

// Result is the fee of a state transition, or the sum of several of them.
type Result struct {
	StorageFee    types.Credits
	ProcessingFee types.Credits
	Refunds       Refunds
	// Tip is the part of the processing fee added by the user fee increase.
	Tip types.Credits
}

// Add returns the sum of the two results.
func (r Result) Add(other Result) (Result, error) {
	var err error

	sum := Result{Refunds: r.Refunds.clone()}

	sum.StorageFee, err = Add(r.StorageFee, other.StorageFee)
	if err != nil {
		return Result{}, xerrors.Errorf("storage fee: %w", err)
	}

	sum.ProcessingFee, err = Add(r.ProcessingFee, other.ProcessingFee)
	if err != nil {
		return Result{}, xerrors.Errorf("processing fee: %w", err)
	}

	sum.Tip, err = Add(r.Tip, other.Tip)
	if err != nil {
		return Result{}, xerrors.Errorf("tip: %w", err)
	}

	for id, epochs := range other.Refunds {
		for epoch, credits := range epochs {
			if sum.Refunds == nil {
				sum.Refunds = make(Refunds)
			}

			err = sum.Refunds.Add(id, epoch, credits)
			if err != nil {
				return Result{}, err
			}
		}
	}

	return sum, nil
}

// TotalRefunds returns the refunds of every identity.
func (r Result) TotalRefunds() (types.Credits, error) {
	return r.Refunds.Total()
}

// RequiredAmount is the storage fee plus the tip minus all the refunds. Refunds
// exceeding the fee is an error.
func (r Result) RequiredAmount() (types.Credits, error) {
	refunds, err := r.TotalRefunds()
	if err != nil {
		return 0, err
	}

	return r.required(refunds)
}

// DesiredAmount is the storage and processing fees plus the tip minus all the
// refunds.
func (r Result) DesiredAmount() (types.Credits, error) {
	refunds, err := r.TotalRefunds()
	if err != nil {
		return 0, err
	}

	return r.desired(refunds)
}

// RequiredAmountFor is the required amount where only the refunds owed to the
// identity are deducted.
func (r Result) RequiredAmountFor(id types.Identifier) (types.Credits, error) {
	refunds, err := r.Refunds.For(id)
	if err != nil {
		return 0, err
	}

	return r.required(refunds)
}

// DesiredAmountFor is the desired amount where only the refunds owed to the
// identity are deducted.
func (r Result) DesiredAmountFor(id types.Identifier) (types.Credits, error) {
	refunds, err := r.Refunds.For(id)
	if err != nil {
		return 0, err
	}

	return r.desired(refunds)
}

func (r Result) required(refunds types.Credits) (types.Credits, error) {
	total, err := Add(r.StorageFee, r.Tip)
	if err != nil {
		return 0, err
	}

	amount, err := Sub(total, refunds)
	if err != nil {
		return 0, xerrors.Errorf("refunds %d exceed storage fee %d: %w",
			refunds, r.StorageFee, err)
	}

	return amount, nil
}

func (r Result) desired(refunds types.Credits) (types.Credits, error) {
	total, err := r.total()
	if err != nil {
		return 0, err
	}

	amount, err := Sub(total, refunds)
	if err != nil {
		return 0, xerrors.Errorf("refunds %d exceed fees %d: %w", refunds, total, err)
	}

	return amount, nil
}

func (r Result) total() (types.Credits, error) {
	total, err := Add(r.StorageFee, r.ProcessingFee)
	if err != nil {
		return 0, err
	}

	return Add(total, r.Tip)
}

// ApplyUserFeeIncrease returns the result with the tip set to the percentage
// of the processing fee.
func (r Result) ApplyUserFeeIncrease(percent uint16) (Result, error) {
	if percent == 0 {
		return r, nil
	}

	scaled, err := Mul(r.ProcessingFee, types.Credits(percent))
	if err != nil {
		return Result{}, xerrors.Errorf("user fee increase: %w", err)
	}

	r.Tip = scaled / 100

	return r, nil
}

// ChangeKind is the direction of a balance change.
type ChangeKind uint8

const (
	// NoChange leaves the balance as it is.
	NoChange ChangeKind = iota
	// AddToBalance credits the identity with the refunds exceeding its fees.
	AddToBalance
	// RemoveFromBalance debits the fees.
	RemoveFromBalance
)

// BalanceChange is the effect of a fee result on the balance of the identity
// paying it.
type BalanceChange struct {
	Kind ChangeKind
	// Added is the amount credited when the kind is AddToBalance.
	Added types.Credits
	// Required is the amount that must be available to debit.
	Required types.Credits
	// Desired is the amount debited when available.
	Desired types.Credits
}

// BalanceChange returns the change to apply to the balance of the identity.
// Unlike RequiredAmount, refunds exceeding the fees are credited.
func (r Result) BalanceChange(id types.Identifier) (BalanceChange, error) {
	refunds, err := r.Refunds.For(id)
	if err != nil {
		return BalanceChange{}, err
	}

	total, err := r.total()
	if err != nil {
		return BalanceChange{}, err
	}

	if refunds > total {
		return BalanceChange{Kind: AddToBalance, Added: refunds - total}, nil
	}

	if refunds == total {
		return BalanceChange{Kind: NoChange}, nil
	}

	change := BalanceChange{
		Kind:    RemoveFromBalance,
		Desired: total - refunds,
	}

	base := r.StorageFee + r.Tip
	if base > refunds {
		change.Required = base - refunds
	}

	return change, nil
}

// ApplyTo returns the new balance and the credits actually paid. The
// desired amount is debited when the balance allows it, otherwise the whole
// balance as long as it covers the required amount.
func (c BalanceChange) ApplyTo(balance types.Credits) (types.Credits, types.Credits, error) {
	switch c.Kind {
	case AddToBalance:
		next, err := Add(balance, c.Added)
		if err != nil {
			return 0, 0, err
		}

		return next, 0, nil
	case RemoveFromBalance:
		if balance >= c.Desired {
			return balance - c.Desired, c.Desired, nil
		}

		if balance >= c.Required {
			return 0, balance, nil
		}

		return 0, 0, xerrors.Errorf("balance %d is below required amount %d",
			balance, c.Required)
	default:
		return balance, 0, nil
	}
}

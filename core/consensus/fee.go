package consensus

import (
	"fmt"
)

// Codes of the fee errors.
const (
	BalanceIsNotEnoughCode Code = 30000 + iota
)

// BalanceIsNotEnoughError is returned when the balance cannot pay the fee.
type BalanceIsNotEnoughError struct {
	Balance uint64
	Fee     uint64
}

// Code implements consensus.Error.
func (e BalanceIsNotEnoughError) Code() Code {
	return BalanceIsNotEnoughCode
}

// Family implements consensus.Error.
func (e BalanceIsNotEnoughError) Family() Family {
	return Fee
}

// Error implements error.
func (e BalanceIsNotEnoughError) Error() string {
	return fmt.Sprintf("balance %d is not enough to pay fee %d", e.Balance, e.Fee)
}

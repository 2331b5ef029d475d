// Package execution defines the outcome of the execution of a state
// transition and the aggregate of the outcomes of a block.
package execution

import (
	"fmt"

	"go.dedis.ch/dpp/core/consensus"
	"go.dedis.ch/dpp/core/fee"
	"golang.org/x/xerrors"
)

// Kind is the category of an execution result.
type Kind uint8

const (
	// Successful is a valid transition that has been applied.
	Successful Kind = iota
	// InvalidPaid is an invalid transition whose signer has been charged.
	InvalidPaid
	// InvalidUnpaid is an invalid transition that nobody could be charged
	// for.
	InvalidUnpaid
	// Failed is a transition that the node could not execute.
	Failed
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Successful:
		return "successful"
	case InvalidPaid:
		return "invalid_paid"
	case InvalidUnpaid:
		return "invalid_unpaid"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Result is the outcome of the execution of one state transition.
type Result interface {
	// Kind returns the category of the result.
	Kind() Kind

	// Fees returns the fees collected for the transition, and false if
	// nothing has been collected.
	Fees() (fee.Result, bool)
}

// SuccessfulExecution is the result of a transition applied to the state.
//
// - implements execution.Result
type SuccessfulExecution struct {
	// Estimated is the fee computed before the execution, when the
	// transition was checked.
	Estimated fee.Result
	// Actual is the fee charged.
	Actual fee.Result
}

// Kind implements execution.Result.
func (SuccessfulExecution) Kind() Kind {
	return Successful
}

// Fees implements execution.Result.
func (r SuccessfulExecution) Fees() (fee.Result, bool) {
	return r.Actual, true
}

// PaidConsensusError is the result of an invalid transition whose failure
// has been charged.
//
// - implements execution.Result
type PaidConsensusError struct {
	Error  consensus.Error
	Actual fee.Result
}

// Kind implements execution.Result.
func (PaidConsensusError) Kind() Kind {
	return InvalidPaid
}

// Fees implements execution.Result.
func (r PaidConsensusError) Fees() (fee.Result, bool) {
	return r.Actual, true
}

// UnpaidConsensusError is the result of an invalid transition that was
// rejected before anybody could be charged.
//
// - implements execution.Result
type UnpaidConsensusError struct {
	Error consensus.Error
}

// Kind implements execution.Result.
func (UnpaidConsensusError) Kind() Kind {
	return InvalidUnpaid
}

// Fees implements execution.Result.
func (UnpaidConsensusError) Fees() (fee.Result, bool) {
	return fee.Result{}, false
}

// InternalError is the result of a transition that the node failed to
// execute. The processing of the block continues with the next one.
//
// - implements execution.Result
type InternalError struct {
	Message string
}

// Kind implements execution.Result.
func (InternalError) Kind() Kind {
	return Failed
}

// Fees implements execution.Result.
func (InternalError) Fees() (fee.Result, bool) {
	return fee.Result{}, false
}

// ProcessingResult is the aggregate of the results of the transitions of a
// block.
type ProcessingResult struct {
	// Results are the results in the order the transitions were executed.
	Results []Result

	Failed        uint32
	InvalidPaid   uint32
	InvalidUnpaid uint32
	Valid         uint32

	// Fees are the fees of the paid and successful results.
	Fees fee.Result
}

// Add records the result. It returns an error and leaves the aggregate
// unchanged if the fees overflow.
func (p *ProcessingResult) Add(res Result) error {
	fees, paid := res.Fees()
	if paid {
		sum, err := p.Fees.Add(fees)
		if err != nil {
			return xerrors.Errorf("couldn't aggregate fees: %w", err)
		}

		p.Fees = sum
	}

	switch res.Kind() {
	case Successful:
		p.Valid++
	case InvalidPaid:
		p.InvalidPaid++
	case InvalidUnpaid:
		p.InvalidUnpaid++
	default:
		p.Failed++
	}

	p.Results = append(p.Results, res)

	return nil
}

// Len returns the number of results.
func (p ProcessingResult) Len() int {
	return int(p.Failed + p.InvalidPaid + p.InvalidUnpaid + p.Valid)
}

// String implements fmt.Stringer.
func (p ProcessingResult) String() string {
	return fmt.Sprintf("ProcessingResult{valid: %d, invalid_paid: %d, invalid_unpaid: %d, failed: %d}",
		p.Valid, p.InvalidPaid, p.InvalidUnpaid, p.Failed)
}

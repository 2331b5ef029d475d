// Package validation defines the result of validating a state transition and
// the modes the validation runs in.
//
// A result carries zero or more consensus errors and an optional payload. A
// result with errors is never valid even if it carries a payload: the payload
// is then the action that must still be applied for the failure to be paid,
// like bumping a nonce.
package validation

import (
	"go.dedis.ch/dpp/core/consensus"
	"golang.org/x/xerrors"
)

// Result is the outcome of a validation producing a value of type T.
type Result[T any] struct {
	errors  []consensus.Error
	data    T
	hasData bool
}

// Simple is a result without a payload.
type Simple = Result[struct{}]

// New creates a valid result without payload.
func New[T any]() Result[T] {
	return Result[T]{}
}

// NewWithData creates a valid result with the payload.
func NewWithData[T any](data T) Result[T] {
	return Result[T]{
		data:    data,
		hasData: true,
	}
}

// NewWithError creates an invalid result from a single error.
func NewWithError[T any](err consensus.Error) Result[T] {
	return Result[T]{
		errors: []consensus.Error{err},
	}
}

// NewWithErrors creates a result from the list of errors.
func NewWithErrors[T any](errs []consensus.Error) Result[T] {
	return Result[T]{
		errors: append([]consensus.Error{}, errs...),
	}
}

// NewWithDataAndErrors creates an invalid result that still carries a
// payload.
func NewWithDataAndErrors[T any](data T, errs []consensus.Error) Result[T] {
	return Result[T]{
		errors:  append([]consensus.Error{}, errs...),
		data:    data,
		hasData: true,
	}
}

// IsValid returns true if the result has no error.
func (r Result[T]) IsValid() bool {
	return len(r.errors) == 0
}

// IsValidWithData returns true if the result has no error and a payload.
func (r Result[T]) IsValidWithData() bool {
	return r.IsValid() && r.hasData
}

// HasData returns true if the result carries a payload.
func (r Result[T]) HasData() bool {
	return r.hasData
}

// Data returns the payload and true if it is set.
func (r Result[T]) Data() (T, bool) {
	return r.data, r.hasData
}

// IntoData returns the payload or an error if it is not set.
func (r Result[T]) IntoData() (T, error) {
	if !r.hasData {
		var zero T
		return zero, xerrors.New("validation result has no data")
	}

	return r.data, nil
}

// Errors returns the consensus errors.
func (r Result[T]) Errors() []consensus.Error {
	return append([]consensus.Error{}, r.errors...)
}

// FirstError returns the first consensus error, or nil if the result is
// valid.
func (r Result[T]) FirstError() consensus.Error {
	if len(r.errors) == 0 {
		return nil
	}

	return r.errors[0]
}

// AddError appends an error to the result.
func (r *Result[T]) AddError(err consensus.Error) {
	r.errors = append(r.errors, err)
}

// AddErrors appends a list of errors to the result.
func (r *Result[T]) AddErrors(errs ...consensus.Error) {
	r.errors = append(r.errors, errs...)
}

// SetData sets the payload of the result.
func (r *Result[T]) SetData(data T) {
	r.data = data
	r.hasData = true
}

// Merge appends the errors of another result, whatever its payload type.
func Merge[T, U any](r *Result[T], other Result[U]) {
	r.errors = append(r.errors, other.errors...)
}

// Map transforms the payload of the result and keeps the errors.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	res := Result[U]{
		errors: r.errors,
	}

	if r.hasData {
		res.data = fn(r.data)
		res.hasData = true
	}

	return res
}

// Mode is the context in which a transition is validated.
type Mode uint8

const (
	// ModeCheckTx is the first-time admission check of the mempool.
	ModeCheckTx Mode = iota
	// ModeRecheckTx is the re-validation of a mempool transition after a
	// block has been committed.
	ModeRecheckTx
	// ModeValidator is the execution of a transition inside a block.
	ModeValidator
	// ModeNoValidation applies a transition without validating it.
	ModeNoValidation
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeCheckTx:
		return "check_tx"
	case ModeRecheckTx:
		return "recheck_tx"
	case ModeValidator:
		return "validator"
	case ModeNoValidation:
		return "no_validation"
	default:
		return "unknown"
	}
}

// CanAlterCache returns true if reads may populate the shared caches. Only
// block execution is allowed to do so.
func (m Mode) CanAlterCache() bool {
	return m == ModeValidator
}

// Skipped returns the checks that the mode does not run. A transition
// transformed without validation only reads the state its action needs.
func (m Mode) Skipped() CheckSet {
	if m == ModeNoValidation {
		return NewCheckSet(AllChecks()...)
	}

	return NewCheckSet()
}

// Check is a validation step that a mode can skip.
type Check uint8

const (
	// CheckStructure is the validation of the transition bytes.
	CheckStructure Check = iota
	// CheckSignature is the verification of the identity signature.
	CheckSignature
	// CheckInstantLockSignature is the verification of the quorum signature
	// of an instant asset lock.
	CheckInstantLockSignature
	// CheckAssetLockSpent is the verification that an asset lock outpoint is
	// not consumed.
	CheckAssetLockSpent
	// CheckNonce is the verification of the identity nonces.
	CheckNonce
	// CheckBalance is the minimum balance pre-check.
	CheckBalance
	// CheckState is the validation of the documents against the current
	// state, such as their owner, revision and unique indices.
	CheckState

	numChecks
)

var checkNames = [numChecks]string{
	"structure",
	"signature",
	"instant_lock_signature",
	"asset_lock_spent",
	"nonce",
	"balance",
	"state",
}

// String implements fmt.Stringer.
func (c Check) String() string {
	if c >= numChecks {
		return "unknown"
	}

	return checkNames[c]
}

// AllChecks returns every check in order.
func AllChecks() []Check {
	checks := make([]Check, numChecks)
	for i := range checks {
		checks[i] = Check(i)
	}

	return checks
}

// CheckSet is a set of checks.
type CheckSet uint32

// NewCheckSet creates a set from the list of checks.
func NewCheckSet(checks ...Check) CheckSet {
	var set CheckSet
	for _, c := range checks {
		set |= 1 << c
	}

	return set
}

// Has returns true if the check is in the set.
func (s CheckSet) Has(c Check) bool {
	return s&(1<<c) != 0
}

// List returns the checks of the set in order.
func (s CheckSet) List() []Check {
	var checks []Check
	for _, c := range AllChecks() {
		if s.Has(c) {
			checks = append(checks, c)
		}
	}

	return checks
}

// Package consensus defines the errors that are part of the consensus: every
// node must agree on them, so they are values with structured fields and a
// stable numeric code. They are never used to report a failure of the node
// itself.
//
// Codes are grouped by family:
//   - 10000 basic (structural) errors
//   - 20000 signature errors
//   - 30000 fee errors
//   - 40000 state errors
package consensus

// Family is the category of a consensus error.
type Family uint8

const (
	// Basic errors are detected from the bytes of the transition alone.
	Basic Family = iota + 1
	// Signature errors are detected when resolving the signer and verifying
	// the signature.
	Signature
	// Fee errors are detected by the balance gate.
	Fee
	// State errors are detected against the current state.
	State
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case Basic:
		return "basic"
	case Signature:
		return "signature"
	case Fee:
		return "fee"
	case State:
		return "state"
	default:
		return "unknown"
	}
}

// Code is the stable numeric code of a consensus error.
type Code uint32

// Error is the interface of a consensus error.
type Error interface {
	error

	// Code returns the numeric code of the error.
	Code() Code

	// Family returns the family of the error.
	Family() Family
}

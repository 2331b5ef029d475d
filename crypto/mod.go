// Package crypto defines the primitives to sign messages and verify the
// signatures of the keys registered by identities and quorums.
//
// Signatures are always computed over the double SHA-256 digest of the
// message, or over a hash to the curve for BLS.
package crypto

import "encoding"

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler

	// Verify returns nil if the signature matches the message, otherwise an
	// error.
	Verify(msg, signature []byte) error
}

// Signer provides the primitives to sign a message.
type Signer interface {
	// GetPublicKey returns the public key that verifies the signatures of the
	// signer.
	GetPublicKey() PublicKey

	// Sign returns the signature of the message.
	Sign(msg []byte) ([]byte, error)
}

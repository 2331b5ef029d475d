// Package types defines the primitive values shared by the state transition
// packages.
package types

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/xerrors"
)

// IdentifierSize is the size in bytes of an identifier.
const IdentifierSize = 32

// Identifier is the identifier of an identity, a data contract, a document or
// a token.
type Identifier [IdentifierSize]byte

// IdentifierFromBytes returns the identifier stored in the buffer. The buffer
// must have the exact identifier size.
func IdentifierFromBytes(data []byte) (Identifier, error) {
	var id Identifier

	if len(data) != IdentifierSize {
		return id, xerrors.Errorf("invalid identifier length: %d != %d", len(data), IdentifierSize)
	}

	copy(id[:], data)

	return id, nil
}

// IdentifierFromHex parses the hexadecimal text form of an identifier.
func IdentifierFromHex(text string) (Identifier, error) {
	data, err := hex.DecodeString(text)
	if err != nil {
		return Identifier{}, xerrors.Errorf("malformed identifier: %v", err)
	}

	return IdentifierFromBytes(data)
}

// HashIdentifier derives an identifier from the double SHA-256 of the
// concatenation of the parts.
func HashIdentifier(parts ...[]byte) Identifier {
	h := sha256.New()
	for _, part := range parts {
		h.Write(part)
	}

	return Identifier(sha256.Sum256(h.Sum(nil)))
}

// Bytes returns a copy of the identifier as a slice.
func (id Identifier) Bytes() []byte {
	return append([]byte{}, id[:]...)
}

// IsZero returns true when the identifier is not set.
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// String implements fmt.Stringer. It returns the hexadecimal form.
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// Credits is the unit of account of the platform.
type Credits = uint64

// EpochIndex is the index of a fee epoch.
type EpochIndex = uint16

// BlockInfo describes the block in which state transitions are executed.
type BlockInfo struct {
	Height     uint64
	TimeMs     uint64
	CoreHeight uint32
	Epoch      EpochIndex
}

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifier_FromBytes(t *testing.T) {
	id, err := IdentifierFromBytes(make([]byte, IdentifierSize))
	require.NoError(t, err)
	require.True(t, id.IsZero())

	_, err = IdentifierFromBytes([]byte{1, 2})
	require.EqualError(t, err, "invalid identifier length: 2 != 32")
}

func TestIdentifier_Hex(t *testing.T) {
	id := Identifier{0xaa}

	parsed, err := IdentifierFromHex(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = IdentifierFromHex("zz")
	require.EqualError(t, err, "malformed identifier: encoding/hex: invalid byte: U+007A 'z'")
}

func TestHashIdentifier(t *testing.T) {
	a := HashIdentifier([]byte{1}, []byte{2})
	b := HashIdentifier([]byte{1, 2})

	require.Equal(t, a, b)
	require.NotEqual(t, a, HashIdentifier([]byte{2, 1}))
	require.False(t, a.IsZero())
}

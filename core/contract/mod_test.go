package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/types"
)

func TestNewID(t *testing.T) {
	owner := types.Identifier{1}

	require.Equal(t, NewID(owner, 1), NewID(owner, 1))
	require.NotEqual(t, NewID(owner, 1), NewID(owner, 2))
	require.NotEqual(t, NewID(owner, 1), NewID(types.Identifier{2}, 1))
}

func TestDataContract_Accessors(t *testing.T) {
	c := DataContract{
		DocumentTypes: map[string]DocumentType{
			"note":    {Name: "note"},
			"contact": {Name: "contact", Indices: []Index{{Name: "byName"}}},
		},
		Tokens: map[uint16]TokenConfiguration{
			2: {},
			0: {MaxSupply: 10},
		},
	}

	require.Equal(t, []string{"contact", "note"}, c.DocumentTypeNames())
	require.Equal(t, []uint16{0, 2}, c.TokenPositions())

	dt, found := c.DocumentType("contact")
	require.True(t, found)

	_, found = dt.Index("byName")
	require.True(t, found)

	_, found = dt.Index("unknown")
	require.False(t, found)

	_, found = c.DocumentType("unknown")
	require.False(t, found)

	cfg, found := c.Token(0)
	require.True(t, found)
	require.Equal(t, uint64(10), cfg.MaxSupply)
}

func TestTokenID(t *testing.T) {
	id := types.Identifier{3}

	require.Equal(t, TokenID(id, 0), TokenID(id, 0))
	require.NotEqual(t, TokenID(id, 0), TokenID(id, 1))
}

func TestNewDocumentID(t *testing.T) {
	a := NewDocumentID(types.Identifier{1}, types.Identifier{2}, "note", [32]byte{})
	b := NewDocumentID(types.Identifier{1}, types.Identifier{2}, "note", [32]byte{1})

	require.NotEqual(t, a, b)
}

func TestIndexKey(t *testing.T) {
	idx := Index{Properties: []string{"first", "last"}}

	key, found, err := IndexKey(idx, map[string]interface{}{
		"first": "alice",
		"last":  "smith",
		"age":   42,
	})
	require.NoError(t, err)
	require.True(t, found)

	same, _, err := IndexKey(idx, map[string]interface{}{
		"last":  "smith",
		"first": "alice",
	})
	require.NoError(t, err)
	require.Equal(t, key, same)

	_, found, err = IndexKey(idx, map[string]interface{}{"first": "alice"})
	require.NoError(t, err)
	require.False(t, found)
}

package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type message struct {
	A uint64            `cbor:"1,keyasint"`
	B map[string]uint64 `cbor:"2,keyasint"`
}

func TestMarshal_Deterministic(t *testing.T) {
	m := message{A: 1, B: map[string]uint64{"b": 2, "a": 1, "c": 3}}

	first, err := Marshal(m)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		data, err := Marshal(m)
		require.NoError(t, err)
		require.Equal(t, first, data)
	}

	var decoded message
	require.NoError(t, Unmarshal(first, &decoded))
	require.Equal(t, m, decoded)
}

func TestMarshal_Failures(t *testing.T) {
	_, err := Marshal(make(chan int))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't encode chan int: ")

	var m message
	err = Unmarshal([]byte{0xff}, &m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't decode *encoding.message: ")
}

func TestUnmarshal_DuplicateKeys(t *testing.T) {
	// {1: 1, 1: 2}
	data := []byte{0xa2, 0x01, 0x01, 0x01, 0x02}

	var m message
	require.Error(t, Unmarshal(data, &m))
}

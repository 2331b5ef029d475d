package mempool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/checktx"
)

func TestKey_String(t *testing.T) {
	require.Equal(t, "0x01020304", Key{1, 2, 3, 4, 5}.String())
}

func TestPool_Add(t *testing.T) {
	p := NewPool()

	err := p.Add([]byte{1}, makeResult(1, 0, "a-1"))
	require.NoError(t, err)

	err = p.Add([]byte{2}, makeResult(2, 0, "a-2", "b-1"))
	require.NoError(t, err)

	require.Equal(t, 2, p.Len())

	err = p.Add([]byte{1}, makeResult(1, 0, "a-1"))
	require.EqualError(t, err, "transition 0x01000000 already exists")

	err = p.Add([]byte{3}, makeResult(3, 0, "c-1", "b-1"))
	require.EqualError(t, err, "identifier b-1 already used by 0x02000000")

	// Nothing is kept from a rejected transition.
	require.NoError(t, p.Add([]byte{4}, makeResult(4, 0, "c-1")))
	require.Equal(t, 3, p.Len())
}

func TestPool_Remove(t *testing.T) {
	p := NewPool()

	require.NoError(t, p.Add([]byte{1}, makeResult(1, 0, "a-1")))

	err := p.Remove(Key{1})
	require.NoError(t, err)
	require.Equal(t, 0, p.Len())

	err = p.Remove(Key{1})
	require.EqualError(t, err, "transition 0x01000000 not found")

	err = p.Add([]byte{1}, makeResult(1, 0, "a-1"))
	require.EqualError(t, err, "transition 0x01000000 already executed")

	// The identifier is released.
	require.NoError(t, p.Add([]byte{2}, makeResult(2, 0, "a-1")))
}

func TestPool_Evict(t *testing.T) {
	p := NewPool()

	require.NoError(t, p.Add([]byte{1}, makeResult(1, 0, "a-1")))

	require.NoError(t, p.Evict(Key{1}))
	require.EqualError(t, p.Evict(Key{1}), "transition 0x01000000 not found")

	require.NoError(t, p.Add([]byte{1}, makeResult(1, 0, "a-1")))
}

func TestPool_Entries(t *testing.T) {
	p := NewPool()

	require.NoError(t, p.Add([]byte{1}, makeResult(1, 0, "a")))
	require.NoError(t, p.Add([]byte{2}, makeResult(2, 10, "b")))
	require.NoError(t, p.Add([]byte{3}, makeResult(3, 0, "c")))
	require.NoError(t, p.Add([]byte{4}, makeResult(4, 10, "d")))

	entries := p.Entries()
	require.Len(t, entries, 4)

	keys := make([]Key, len(entries))
	for i, e := range entries {
		keys[i] = e.Key()
	}

	require.Equal(t, []Key{{2}, {4}, {1}, {3}}, keys)
	require.Equal(t, []byte{2}, entries[0].Raw)
}

func TestPool_Gather(t *testing.T) {
	p := NewPool()

	ctx := context.Background()

	cb := func() {
		p.Lock()
		require.Len(t, p.queue, 1)
		p.Unlock()

		require.NoError(t, p.Add([]byte{1}, makeResult(1, 0, "a")))
	}

	entries := p.Gather(ctx, Config{Min: 1, Callback: cb})
	require.Len(t, entries, 1)

	require.NoError(t, p.Add([]byte{2}, makeResult(2, 1, "b")))

	entries = p.Gather(ctx, Config{Min: 1, Max: 1})
	require.Len(t, entries, 1)
	require.Equal(t, Key{2}, entries[0].Key())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries = p.Gather(ctx, Config{Min: 3})
	require.Nil(t, entries)
}

func TestPool_Close(t *testing.T) {
	p := NewPool()

	require.NoError(t, p.Add([]byte{1}, makeResult(1, 0, "a")))

	done := make(chan []Entry)

	go func() {
		done <- p.Gather(context.Background(), Config{Min: 2, Callback: p.Close})
	}()

	require.Nil(t, <-done)
	require.Equal(t, 0, p.Len())
}

// -----------------------------------------------------------------------------
// Utility functions

func makeResult(hash byte, priority uint32, ids ...string) checktx.Result {
	return checktx.Result{
		Hash:              [32]byte{hash},
		Priority:          priority,
		UniqueIdentifiers: ids,
	}
}

package corerpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/assetlock"
	"golang.org/x/xerrors"
)

func TestMemory_GetTransaction(t *testing.T) {
	client := NewMemory()

	tx := assetlock.Transaction{Outputs: []assetlock.Output{{Value: 5}}}

	id, err := client.Add(tx, 12, true)
	require.NoError(t, err)

	info, err := client.GetTransaction(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, uint32(12), info.Height)
	require.True(t, info.ChainLocked)
	require.Equal(t, tx, info.Transaction)

	_, err = client.GetTransaction(context.Background(), [32]byte{1})
	require.Equal(t, ErrNotFound, err)
}

func TestRetrying_GetTransaction(t *testing.T) {
	inner := NewMemory()
	id, err := inner.Add(assetlock.Transaction{}, 1, true)
	require.NoError(t, err)

	flaky := &flakyClient{Client: inner, failures: 2}
	client := NewRetrying(flaky, WithBackoff(time.Millisecond), WithMaxRetries(3))

	info, err := client.GetTransaction(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, uint32(1), info.Height)
	require.Equal(t, 3, flaky.calls)
}

func TestRetrying_NotFound(t *testing.T) {
	flaky := &flakyClient{Client: NewMemory()}
	client := NewRetrying(flaky, WithBackoff(time.Millisecond))

	_, err := client.GetTransaction(context.Background(), [32]byte{2})
	require.True(t, xerrors.Is(err, ErrNotFound))
	require.Equal(t, 1, flaky.calls)
}

func TestRetrying_Exhausted(t *testing.T) {
	flaky := &flakyClient{Client: NewMemory(), failures: 10}
	client := NewRetrying(flaky, WithBackoff(time.Millisecond),
		WithMaxBackoff(time.Millisecond), WithMaxRetries(2))

	_, err := client.GetTransaction(context.Background(), [32]byte{})
	require.EqualError(t, err, "couldn't get transaction: oops")
	require.Equal(t, 3, flaky.calls)
}

func TestRetrying_BadBackoff(t *testing.T) {
	client := NewRetrying(NewMemory(), WithBackoff(0))

	_, err := client.GetTransaction(context.Background(), [32]byte{})
	require.EqualError(t, err, "invalid backoff: 0s")

	client = NewRetrying(NewMemory(), WithBackoff(-time.Millisecond))

	_, err = client.GetTransaction(context.Background(), [32]byte{})
	require.EqualError(t, err, "invalid backoff: -1ms")
}

// -----------------------------------------------------------------------------
// Utility functions

type flakyClient struct {
	Client

	failures int
	calls    int
}

func (c *flakyClient) GetTransaction(ctx context.Context, txID [32]byte) (TransactionInfo, error) {
	c.calls++

	if c.calls <= c.failures {
		return TransactionInfo{}, xerrors.New("oops")
	}

	return c.Client.GetTransaction(ctx, txID)
}

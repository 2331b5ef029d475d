package bls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicKey_MarshalBinary(t *testing.T) {
	signer := NewSigner()

	buffer, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buffer, PublicKeySize)

	pk, err := NewPublicKey(buffer)
	require.NoError(t, err)
	require.True(t, pk.Equal(signer.PublicKey()))

	_, err = NewPublicKey([]byte{1, 2, 3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't unmarshal point: ")
}

func TestPublicKey_Verify(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("deadbeef"))
	require.NoError(t, err)
	require.Len(t, sig, SignatureSize)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("abc"), sig)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bls verify failed: ")

	err = signer.GetPublicKey().Verify([]byte("abc"), []byte{1})
	require.EqualError(t, err, "invalid signature size: 1 != 64")
}

func TestPublicKey_String(t *testing.T) {
	pk := NewSigner().PublicKey()

	require.Len(t, pk.String(), 4+16)
	require.Equal(t, "bls:", pk.String()[:4])
}

func TestAggregate(t *testing.T) {
	a := NewSigner()
	b := NewSigner()

	msg := []byte("42")

	sigA, err := a.Sign(msg)
	require.NoError(t, err)

	sigB, err := b.Sign(msg)
	require.NoError(t, err)

	agg, err := AggregateSignatures(sigA, sigB)
	require.NoError(t, err)
	require.False(t, EqualSignatures(agg, sigA))

	pk := AggregatePublicKeys(a.PublicKey(), b.PublicKey())
	require.NoError(t, pk.Verify(msg, agg))

	require.Error(t, a.PublicKey().Verify(msg, agg))
}

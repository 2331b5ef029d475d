package assetlock

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/crypto"
)

func TestOutPoint_Bytes(t *testing.T) {
	o := OutPoint{TxID: [32]byte{1}, Index: 2}

	require.Len(t, o.Bytes(), 36)
	require.Equal(t, byte(2), o.Bytes()[32])
	require.Equal(t, "0100000000000000000000000000000000000000000000000000000000000000:2", o.String())
}

func TestOutput_Credits(t *testing.T) {
	credits, err := Output{Value: 5}.Credits()
	require.NoError(t, err)
	require.Equal(t, uint64(5000), credits)

	_, err = Output{Value: ^uint64(0)}.Credits()
	require.EqualError(t, err, "output value 18446744073709551615 overflows credits")
}

func TestP2PKHScript(t *testing.T) {
	hash := crypto.Hash160([]byte("key"))

	script := P2PKHScript(hash)
	require.Len(t, script, 25)

	parsed, ok := PubKeyHash(script)
	require.True(t, ok)
	require.Equal(t, hash, parsed)

	_, ok = PubKeyHash(script[:24])
	require.False(t, ok)

	script[0] = 0
	_, ok = PubKeyHash(script)
	require.False(t, ok)
}

func TestTransaction_ID(t *testing.T) {
	tx := Transaction{Outputs: []Output{{Value: 1}}}

	a, err := tx.ID()
	require.NoError(t, err)

	tx.Outputs[0].Value = 2

	b, err := tx.ID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, found := tx.Output(0)
	require.True(t, found)

	_, found = tx.Output(1)
	require.False(t, found)
}

func TestInstantLock_SignHash(t *testing.T) {
	lock := InstantLock{Inputs: []OutPoint{{Index: 1}}}
	a := lock.SignHash()

	lock.Inputs[0].Index = 2
	require.NotEqual(t, a, lock.SignHash())
}

func TestProof_Type(t *testing.T) {
	_, err := Proof{}.Type()
	require.EqualError(t, err, "proof must be either instant or chain")

	_, err = Proof{Instant: &InstantProof{}, Chain: &ChainProof{}}.Type()
	require.EqualError(t, err, "proof must be either instant or chain")

	typ, err := Proof{Chain: &ChainProof{OutPoint: OutPoint{Index: 3}}}.Type()
	require.NoError(t, err)
	require.Equal(t, Chain, typ)
	require.Equal(t, "chain", typ.String())

	outpoint, err := Proof{Chain: &ChainProof{OutPoint: OutPoint{Index: 3}}}.OutPoint()
	require.NoError(t, err)
	require.Equal(t, uint32(3), outpoint.Index)

	proof := Proof{Instant: &InstantProof{OutputIndex: 1}}

	outpoint, err = proof.OutPoint()
	require.NoError(t, err)

	txID, err := proof.Instant.Transaction.ID()
	require.NoError(t, err)
	require.Equal(t, OutPoint{TxID: txID, Index: 1}, outpoint)

	_, err = Proof{}.OutPoint()
	require.Error(t, err)
}

// Package assetlock defines the proofs that credits have been locked on the
// core chain to fund an identity.
//
// A proof is either an instant lock signed by a quorum of masternodes, or a
// reference to an output that is already chain locked. Instant locks are
// verified with the quorums known locally only; when the quorum is not known
// anymore the transition must be submitted again with a chain proof.
package assetlock

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"go.dedis.ch/dpp/crypto"
	"go.dedis.ch/dpp/internal/encoding"
	"golang.org/x/xerrors"
)

// CreditsPerDuff is the number of credits one duff of the core chain is
// worth.
const CreditsPerDuff = 1000

// OutPoint is the reference to an output of a core transaction.
type OutPoint struct {
	TxID  [32]byte `cbor:"1,keyasint"`
	Index uint32   `cbor:"2,keyasint"`
}

// Bytes returns the 36-byte form of the outpoint.
func (o OutPoint) Bytes() []byte {
	buffer := make([]byte, 36)
	copy(buffer, o.TxID[:])
	binary.LittleEndian.PutUint32(buffer[32:], o.Index)

	return buffer
}

// String implements fmt.Stringer.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(o.TxID[:]), o.Index)
}

// Output is a credit output of an asset lock transaction.
type Output struct {
	// Value is the amount of duffs locked.
	Value  uint64 `cbor:"1,keyasint"`
	Script []byte `cbor:"2,keyasint"`
}

// Credits returns the value of the output in credits.
func (o Output) Credits() (uint64, error) {
	if o.Value > ^uint64(0)/CreditsPerDuff {
		return 0, xerrors.Errorf("output value %d overflows credits", o.Value)
	}

	return o.Value * CreditsPerDuff, nil
}

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// P2PKHScript returns the pay-to-public-key-hash script of the hash.
func P2PKHScript(hash []byte) []byte {
	script := []byte{opDup, opHash160, byte(len(hash))}
	script = append(script, hash...)

	return append(script, opEqualVerify, opCheckSig)
}

// PubKeyHash returns the public key hash of a pay-to-public-key-hash script,
// or false if the script has another form.
func PubKeyHash(script []byte) ([]byte, bool) {
	if len(script) != 25 {
		return nil, false
	}

	prefix := []byte{opDup, opHash160, crypto.Hash160Size}
	suffix := []byte{opEqualVerify, opCheckSig}

	if !bytes.Equal(script[:3], prefix) || !bytes.Equal(script[23:], suffix) {
		return nil, false
	}

	return append([]byte{}, script[3:23]...), true
}

// Transaction is the part of an asset lock transaction the platform uses.
type Transaction struct {
	Version uint16     `cbor:"1,keyasint"`
	Inputs  []OutPoint `cbor:"2,keyasint"`
	Outputs []Output   `cbor:"3,keyasint"`
}

// ID returns the identifier of the transaction.
func (tx Transaction) ID() ([32]byte, error) {
	data, err := encoding.Marshal(tx)
	if err != nil {
		return [32]byte{}, xerrors.Errorf("couldn't encode transaction: %v", err)
	}

	return crypto.Sha256d(data), nil
}

// Output returns the output at the index.
func (tx Transaction) Output(index uint32) (Output, bool) {
	if int64(index) >= int64(len(tx.Outputs)) {
		return Output{}, false
	}

	return tx.Outputs[index], true
}

// InstantLock is the quorum signature that locks the inputs of a transaction.
type InstantLock struct {
	Version    uint8      `cbor:"1,keyasint"`
	Inputs     []OutPoint `cbor:"2,keyasint"`
	TxID       [32]byte   `cbor:"3,keyasint"`
	CycleHash  [32]byte   `cbor:"4,keyasint"`
	QuorumHash [32]byte   `cbor:"5,keyasint"`
	Signature  []byte     `cbor:"6,keyasint"`
}

// RequestID returns the identifier of the signing request derived from the
// inputs.
func (l InstantLock) RequestID() [32]byte {
	buffer := []byte("islock")
	for _, input := range l.Inputs {
		buffer = append(buffer, input.Bytes()...)
	}

	return crypto.Sha256d(buffer)
}

// SignHash returns the message signed by the quorum.
func (l InstantLock) SignHash() [32]byte {
	requestID := l.RequestID()

	buffer := make([]byte, 0, 32*4)
	buffer = append(buffer, l.QuorumHash[:]...)
	buffer = append(buffer, l.CycleHash[:]...)
	buffer = append(buffer, requestID[:]...)
	buffer = append(buffer, l.TxID[:]...)

	return crypto.Sha256d(buffer)
}

// ProofType is the kind of an asset lock proof.
type ProofType uint8

const (
	// Instant is a proof by instant lock.
	Instant ProofType = iota
	// Chain is a proof by chain lock.
	Chain
)

// String implements fmt.Stringer.
func (t ProofType) String() string {
	switch t {
	case Instant:
		return "instant"
	case Chain:
		return "chain"
	default:
		return "unknown"
	}
}

// InstantProof carries the asset lock transaction and its instant lock.
type InstantProof struct {
	Lock        InstantLock `cbor:"1,keyasint"`
	Transaction Transaction `cbor:"2,keyasint"`
	OutputIndex uint32      `cbor:"3,keyasint"`
}

// ChainProof references an output chain locked at or before the height.
type ChainProof struct {
	CoreChainLockedHeight uint32   `cbor:"1,keyasint"`
	OutPoint              OutPoint `cbor:"2,keyasint"`
}

// Proof is an asset lock proof. Exactly one of the fields must be set.
type Proof struct {
	Instant *InstantProof `cbor:"1,keyasint,omitempty"`
	Chain   *ChainProof   `cbor:"2,keyasint,omitempty"`
}

// Type returns the kind of the proof.
func (p Proof) Type() (ProofType, error) {
	switch {
	case p.Instant != nil && p.Chain == nil:
		return Instant, nil
	case p.Chain != nil && p.Instant == nil:
		return Chain, nil
	default:
		return 0, xerrors.New("proof must be either instant or chain")
	}
}

// OutPoint returns the outpoint that the proof locks.
func (p Proof) OutPoint() (OutPoint, error) {
	typ, err := p.Type()
	if err != nil {
		return OutPoint{}, err
	}

	if typ == Chain {
		return p.Chain.OutPoint, nil
	}

	txID, err := p.Instant.Transaction.ID()
	if err != nil {
		return OutPoint{}, err
	}

	return OutPoint{TxID: txID, Index: p.Instant.OutputIndex}, nil
}

// Status is the consumption state of an asset lock outpoint.
type Status uint8

const (
	// NotPresent means the outpoint has never been used.
	NotPresent Status = iota
	// PartiallyConsumed means some credits are left.
	PartiallyConsumed
	// FullyConsumed means the outpoint cannot be used anymore.
	FullyConsumed
)

// Info is what the platform stores about a used outpoint.
type Info struct {
	Status           Status `cbor:"1,keyasint"`
	InitialCredits   uint64 `cbor:"2,keyasint"`
	RemainingCredits uint64 `cbor:"3,keyasint"`
}

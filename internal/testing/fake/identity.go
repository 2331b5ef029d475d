package fake

import (
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/identity"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/crypto/bls"
	"go.dedis.ch/dpp/crypto/secp256k1"
	"golang.org/x/xerrors"
)

// Identifiers of the keys of an identity created by NewIdentity.
const (
	MasterKey uint32 = iota
	CriticalKey
	HighKey
	TransferKey
	VotingKey
)

var keySpecs = []struct {
	purpose identity.Purpose
	level   identity.SecurityLevel
}{
	{identity.Authentication, identity.Master},
	{identity.Authentication, identity.Critical},
	{identity.Authentication, identity.High},
	{identity.Transfer, identity.Critical},
	{identity.Voting, identity.High},
}

// Identity is an identity with the signers of its keys.
type Identity struct {
	identity.Identity

	Signers map[uint32]secp256k1.Signer
}

// NewIdentity creates an identity with one ECDSA key per purpose and level
// combination used by the transitions.
func NewIdentity(id types.Identifier) (Identity, error) {
	ident := Identity{
		Identity: identity.Identity{
			ID:         id,
			PublicKeys: make(map[uint32]identity.PublicKey),
		},
		Signers: make(map[uint32]secp256k1.Signer),
	}

	for i, spec := range keySpecs {
		signer, err := secp256k1.NewSigner()
		if err != nil {
			return Identity{}, err
		}

		key, err := identity.NewPublicKey(uint32(i), signer, identity.ECDSASecp256k1,
			spec.purpose, spec.level)
		if err != nil {
			return Identity{}, err
		}

		ident.PublicKeys[key.ID] = key
		ident.Signers[key.ID] = signer
	}

	return ident, nil
}

// Ops returns the writes storing the identity with the balance.
func (i Identity) Ops(balance types.Credits) []drive.Op {
	return []drive.Op{
		drive.PutIdentity{Identity: i.Identity},
		drive.AddBalance{ID: i.ID, Amount: balance},
	}
}

// Sign signs the transition with the key.
func (i Identity) Sign(st transition.StateTransition, keyID uint32) (transition.StateTransition, error) {
	signer, found := i.Signers[keyID]
	if !found {
		return nil, xerrors.Errorf("key %d not found", keyID)
	}

	return transition.Sign(st, keyID, signer)
}

// NewContract returns a contract of the owner with a mutable "domain"
// document type and a unique index on its label.
func NewContract(owner types.Identifier, nonce uint64) contract.DataContract {
	return contract.DataContract{
		ID:      contract.NewID(owner, nonce),
		OwnerID: owner,
		Version: 1,
		DocumentTypes: map[string]contract.DocumentType{
			"domain": {
				Name:         "domain",
				Mutable:      true,
				CanBeDeleted: true,
				Indices: []contract.Index{
					{Name: "label", Properties: []string{"label"}, Unique: true},
				},
			},
		},
	}
}

// NewDocumentCreate returns the creation of a "domain" document with the
// label.
func NewDocumentCreate(owner, contractID types.Identifier, entropy [32]byte, nonce uint64,
	label string) transition.DocumentTransition {

	return transition.DocumentTransition{
		Action:                transition.DocumentCreate,
		ID:                    contract.NewDocumentID(contractID, owner, "domain", entropy),
		DataContractID:        contractID,
		DocumentType:          "domain",
		IdentityContractNonce: nonce,
		Entropy:               entropy,
		Properties:            map[string]interface{}{"label": label},
	}
}

// Quorum is a quorum whose members sign the instant locks of the tests.
type Quorum struct {
	Hash    [32]byte
	Height  uint32
	Members []bls.Signer

	inputs uint32
}

// NewQuorum creates a quorum of two members.
func NewQuorum(hash [32]byte, height uint32) *Quorum {
	return &Quorum{
		Hash:    hash,
		Height:  height,
		Members: []bls.Signer{bls.NewSigner(), bls.NewSigner()},
	}
}

// Set returns the quorum set with only this quorum.
func (q *Quorum) Set() assetlock.QuorumSet {
	keys := make([]bls.PublicKey, len(q.Members))
	for i, m := range q.Members {
		keys[i] = m.PublicKey()
	}

	return assetlock.NewQuorumSet(assetlock.NewQuorum(q.Hash, q.Height, keys...))
}

// InstantProof returns the proof of an output of a new transaction locked to
// the signer and instant locked by the quorum.
func (q *Quorum) InstantProof(signer secp256k1.HashSigner, duffs uint64) (assetlock.Proof, error) {
	hash, err := signer.GetPublicKey().MarshalBinary()
	if err != nil {
		return assetlock.Proof{}, err
	}

	q.inputs++

	input := assetlock.OutPoint{Index: q.inputs}
	copy(input.TxID[:], q.Hash[:])

	tx := assetlock.Transaction{
		Version: 3,
		Inputs:  []assetlock.OutPoint{input},
		Outputs: []assetlock.Output{{Value: duffs, Script: assetlock.P2PKHScript(hash)}},
	}

	txID, err := tx.ID()
	if err != nil {
		return assetlock.Proof{}, err
	}

	lock := assetlock.InstantLock{
		Inputs:     tx.Inputs,
		TxID:       txID,
		QuorumHash: q.Hash,
	}

	msg := lock.SignHash()

	sigs := make([][]byte, len(q.Members))
	for i, m := range q.Members {
		sigs[i], err = m.Sign(msg[:])
		if err != nil {
			return assetlock.Proof{}, err
		}
	}

	lock.Signature, err = bls.AggregateSignatures(sigs...)
	if err != nil {
		return assetlock.Proof{}, err
	}

	return assetlock.Proof{Instant: &assetlock.InstantProof{Lock: lock, Transaction: tx}}, nil
}

// NewIdentityCreate returns an identity creation funded by the proof and
// signed by the owner of the locked output.
func NewIdentityCreate(proof assetlock.Proof, signer secp256k1.HashSigner) (transition.StateTransition, error) {
	master, err := secp256k1.NewSigner()
	if err != nil {
		return nil, err
	}

	key, err := identity.NewPublicKey(0, master, identity.ECDSASecp256k1,
		identity.Authentication, identity.Master)
	if err != nil {
		return nil, err
	}

	st := transition.IdentityCreate{
		AssetLockProof: proof,
		PublicKeys:     []identity.PublicKey{key},
	}

	return transition.Sign(st, 0, signer)
}

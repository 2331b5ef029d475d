package assetlock

import (
	"go.dedis.ch/dpp/crypto/bls"
	"golang.org/x/xerrors"
)

// ErrQuorumNotFound is returned when the quorum of an instant lock is not
// known locally.
var ErrQuorumNotFound = xerrors.New("quorum not found")

// Quorum is a set of masternodes that signs instant locks. Its key is the
// aggregate of the keys of its members.
type Quorum struct {
	Hash      [32]byte
	PublicKey bls.PublicKey
	// Height is the core height the quorum has been formed at.
	Height uint32
}

// NewQuorum creates a quorum from the keys of the members.
func NewQuorum(hash [32]byte, height uint32, members ...bls.PublicKey) Quorum {
	return Quorum{
		Hash:      hash,
		PublicKey: bls.AggregatePublicKeys(members...),
		Height:    height,
	}
}

// QuorumSet is the read-only set of the quorums recent enough to be verified
// locally.
type QuorumSet struct {
	quorums map[[32]byte]Quorum
}

// NewQuorumSet creates a set of the quorums.
func NewQuorumSet(quorums ...Quorum) QuorumSet {
	set := QuorumSet{
		quorums: make(map[[32]byte]Quorum, len(quorums)),
	}

	for _, q := range quorums {
		set.quorums[q.Hash] = q
	}

	return set
}

// Len returns the number of quorums.
func (s QuorumSet) Len() int {
	return len(s.quorums)
}

// Get returns the quorum with the hash.
func (s QuorumSet) Get(hash [32]byte) (Quorum, bool) {
	q, found := s.quorums[hash]
	return q, found
}

// Prune returns a set without the quorums formed before the minimum height.
func (s QuorumSet) Prune(minHeight uint32) QuorumSet {
	next := QuorumSet{
		quorums: make(map[[32]byte]Quorum),
	}

	for hash, q := range s.quorums {
		if q.Height >= minHeight {
			next.quorums[hash] = q
		}
	}

	return next
}

// VerifyInstantLock verifies the signature of the lock. It returns
// ErrQuorumNotFound when the quorum is not in the set.
func (s QuorumSet) VerifyInstantLock(lock InstantLock) error {
	q, found := s.Get(lock.QuorumHash)
	if !found {
		return ErrQuorumNotFound
	}

	hash := lock.SignHash()

	err := q.PublicKey.Verify(hash[:], lock.Signature)
	if err != nil {
		return xerrors.Errorf("invalid quorum signature: %v", err)
	}

	return nil
}

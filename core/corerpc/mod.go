// Package corerpc defines the client of the core chain node. The platform
// only uses it to look up the transaction of a chain asset lock proof.
package corerpc

import (
	"context"
	"sync"

	"go.dedis.ch/dpp/core/assetlock"
	"golang.org/x/xerrors"
)

// ErrNotFound is returned when the core chain does not know the transaction.
var ErrNotFound = xerrors.New("transaction not found")

// TransactionInfo is a transaction of the core chain with its confirmation.
type TransactionInfo struct {
	Transaction assetlock.Transaction
	// Height is the height of the block that includes the transaction, or
	// zero if it is not mined yet.
	Height uint32
	// ChainLocked is true when the block is chain locked.
	ChainLocked bool
}

// Client is the interface of a core chain node.
type Client interface {
	// GetTransaction returns the transaction with the identifier, or
	// ErrNotFound.
	GetTransaction(ctx context.Context, txID [32]byte) (TransactionInfo, error)
}

// Memory is a client that serves the transactions it is given.
//
// - implements corerpc.Client
type Memory struct {
	sync.Mutex
	txs map[[32]byte]TransactionInfo
}

// NewMemory creates an empty client.
func NewMemory() *Memory {
	return &Memory{
		txs: make(map[[32]byte]TransactionInfo),
	}
}

// Add stores the transaction mined at the height. It returns the identifier
// of the transaction.
func (m *Memory) Add(tx assetlock.Transaction, height uint32, chainLocked bool) ([32]byte, error) {
	id, err := tx.ID()
	if err != nil {
		return id, xerrors.Errorf("couldn't compute id: %v", err)
	}

	m.Lock()
	m.txs[id] = TransactionInfo{
		Transaction: tx,
		Height:      height,
		ChainLocked: chainLocked,
	}
	m.Unlock()

	return id, nil
}

// GetTransaction implements corerpc.Client.
func (m *Memory) GetTransaction(ctx context.Context, txID [32]byte) (TransactionInfo, error) {
	m.Lock()
	defer m.Unlock()

	info, found := m.txs[txID]
	if !found {
		return TransactionInfo{}, ErrNotFound
	}

	return info, nil
}

// Package fake provides fake implementations and builders for the interfaces
// commonly used in the tests of the repository.
// The implementations offer configuration to return errors when it is needed by
// the unit test and it is also possible to record the call of functions of an
// object in some cases.
package fake

import (
	"context"
	"sync"

	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/fee"
	"go.dedis.ch/dpp/core/types"
	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the error returned by the bad fakes.
func GetError() error {
	return fakeErr
}

// Call is a tool to keep track of a function calls.
type Call struct {
	sync.Mutex
	calls [][]interface{}
}

// Get returns the nth call ith parameter.
func (c *Call) Get(n, i int) interface{} {
	c.Lock()
	defer c.Unlock()

	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	c.Lock()
	defer c.Unlock()

	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	c.Lock()
	c.calls = append(c.calls, args)
	c.Unlock()
}

// CoreClient is a fake core RPC client.
//
// - implements corerpc.Client
type CoreClient struct {
	call *Call
	err  error
}

// NewBadCoreClient returns a client that always fails and records the
// transactions it is asked for.
func NewBadCoreClient(call *Call) CoreClient {
	return CoreClient{call: call, err: fakeErr}
}

// GetTransaction implements corerpc.Client.
func (c CoreClient) GetTransaction(ctx context.Context, txID [32]byte) (corerpc.TransactionInfo, error) {
	if c.call != nil {
		c.call.Add(txID)
	}

	return corerpc.TransactionInfo{}, c.err
}

// Drive is a drive that fails on demand.
//
// - implements drive.Drive
type Drive struct {
	drive.Drive

	// ErrApply is returned by Apply when set.
	ErrApply error
	// ErrBalance is returned by FetchBalance when set.
	ErrBalance error
}

// NewBadDrive returns a drive that fails to apply the writes.
func NewBadDrive(d drive.Drive) Drive {
	return Drive{Drive: d, ErrApply: fakeErr}
}

// Apply implements drive.Drive.
func (d Drive) Apply(tx *drive.Transaction, ops []drive.Op, block types.BlockInfo) ([]fee.Operation, error) {
	if d.ErrApply != nil {
		return nil, d.ErrApply
	}

	return d.Drive.Apply(tx, ops, block)
}

// FetchBalance implements drive.Reader.
func (d Drive) FetchBalance(tx *drive.Transaction, id types.Identifier) (types.Credits, bool, error) {
	if d.ErrBalance != nil {
		return 0, false, d.ErrBalance
	}

	return d.Drive.FetchBalance(tx, id)
}

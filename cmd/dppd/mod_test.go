package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/contract"
	"go.dedis.ch/dpp/core/drive"
	"go.dedis.ch/dpp/core/store/kv"
	"go.dedis.ch/dpp/core/transition"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/internal/testing/fake"
)

func TestVersions(t *testing.T) {
	out, err := run(t, nil, "versions")
	require.NoError(t, err)

	require.Contains(t, out, "protocol version 1\n")
	require.Contains(t, out, "protocol version 2\n")
	require.Contains(t, out, "  check_tx: 0\n")
}

func TestVersions_Metrics(t *testing.T) {
	_, err := run(t, nil, "--metrics", "127.0.0.1:0", "versions")
	require.NoError(t, err)

	_, err = run(t, nil, "--metrics", "127.0.0.1:-1", "versions")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to listen")
}

func TestCheck(t *testing.T) {
	path, alice, bob := makeDrive(t)

	raw := transfer(t, alice, bob.ID, 1000, 1)

	out, err := run(t, nil, "--db", path, "check", raw, "ff000001")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "0: accepted IdentityCreditTransfer "), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "1: rejected "), lines[1])

	out, err = run(t, strings.NewReader(raw+"\n\n"), "--db", path, "check", "--dry-run")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "0: valid storage="), out)
}

func TestCheck_BadInput(t *testing.T) {
	path, _, _ := makeDrive(t)

	_, err := run(t, nil, "--db", path, "check", "zz")
	require.EqualError(t, err, "transition 0 is not hexadecimal: encoding/hex: invalid byte: U+007A 'z'")

	_, err = run(t, nil, "--config", filepath.Join(t.TempDir(), "none.yaml"), "check", "00")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestProcess(t *testing.T) {
	path, alice, bob := makeDrive(t)

	raws := []string{
		transfer(t, alice, bob.ID, 1000, 1),
		transfer(t, alice, types.Identifier{0xee}, 1000, 2),
		"ff000001",
	}

	out, err := run(t, nil, append([]string{"--db", path, "process", "--height", "4", "--epoch", "1"}, raws...)...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "0: successful", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "1: invalid_paid "), lines[1])
	require.True(t, strings.HasPrefix(lines[2], "2: invalid_unpaid "), lines[2])
	require.True(t, strings.HasPrefix(lines[3],
		"ProcessingResult{valid: 1, invalid_paid: 1, invalid_unpaid: 1, failed: 0}"), lines[3])

	// The block is committed so the nonces are consumed.
	out, err = run(t, nil, "--db", path, "check", raws[0])
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "0: rejected "), out)
}

func TestDocuments(t *testing.T) {
	path, alice, _ := makeDrive(t)

	dc := fake.NewContract(alice.ID, 1)

	db, err := kv.New(path)
	require.NoError(t, err)

	store, err := drive.New(db, drive.DefaultCacheSize)
	require.NoError(t, err)

	tx, err := store.Begin()
	require.NoError(t, err)

	put := func(id byte, label string, price types.Credits) drive.Op {
		return drive.PutDocument{Contract: dc, DocumentType: "domain", Document: contract.Document{
			ID:         types.Identifier{id},
			OwnerID:    alice.ID,
			Revision:   2,
			Properties: map[string]interface{}{"label": label},
			Price:      price,
		}}
	}

	_, err = store.Apply(tx, []drive.Op{drive.PutContract{Contract: dc}, put(2, "b", 0), put(1, "a", 500)},
		types.BlockInfo{Height: 2})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Close())

	out, err := run(t, nil, "--db", path, "documents", dc.ID.String())
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%v domain owner=%v revision=2 price=500\n%v domain owner=%v revision=2\n",
		types.Identifier{1}, alice.ID, types.Identifier{2}, alice.ID), out)

	out, err = run(t, nil, "--db", path, "documents", types.Identifier{0xee}.String())
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = run(t, nil, "--db", path, "documents", "zz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid contract")

	_, err = run(t, nil, "--db", path, "documents")
	require.EqualError(t, err, "expected one contract identifier")
}

func TestServeMetrics(t *testing.T) {
	srv, err := serveMetrics("127.0.0.1:0")
	require.NoError(t, err)

	defer srv.Close()

	resp, err := http.Get("http://" + srv.addr.String() + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "dpp_platform_protocol_version")
}

// -----------------------------------------------------------------------------
// Utility functions

func run(t *testing.T, in io.Reader, args ...string) (string, error) {
	buf := new(bytes.Buffer)

	app := newApp()
	app.Writer = buf
	app.ErrWriter = io.Discard

	if in != nil {
		app.Reader = in
	}

	err := app.Run(append([]string{"dppd"}, args...))

	return buf.String(), err
}

func makeDrive(t *testing.T) (string, fake.Identity, fake.Identity) {
	path := filepath.Join(t.TempDir(), "drive.db")

	db, err := kv.New(path)
	require.NoError(t, err)

	defer db.Close()

	store, err := drive.New(db, drive.DefaultCacheSize)
	require.NoError(t, err)

	alice, err := fake.NewIdentity(types.Identifier{1})
	require.NoError(t, err)

	bob, err := fake.NewIdentity(types.Identifier{2})
	require.NoError(t, err)

	tx, err := store.Begin()
	require.NoError(t, err)

	ops := append(alice.Ops(1_000_000_000), bob.Ops(0)...)

	_, err = store.Apply(tx, ops, types.BlockInfo{Height: 1})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return path, alice, bob
}

func transfer(t *testing.T, from fake.Identity, to types.Identifier, amount types.Credits, nonce uint64) string {
	st, err := from.Sign(transition.IdentityCreditTransfer{
		IdentityID:  from.ID,
		RecipientID: to,
		Amount:      amount,
		Nonce:       nonce,
	}, fake.TransferKey)
	require.NoError(t, err)

	raw, err := transition.Encode(st)
	require.NoError(t, err)

	return hex.EncodeToString(raw)
}

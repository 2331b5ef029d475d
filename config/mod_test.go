package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/dpp/core/processor"
	"go.dedis.ch/dpp/crypto/bls"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, processor.DefaultParams, cfg.Params())
	require.Len(t, cfg.RetryOptions(), 3)

	pv, err := cfg.Version()
	require.NoError(t, err)
	require.Equal(t, version.Latest(), pv)
}

func TestParse(t *testing.T) {
	key, err := bls.NewSigner().PublicKey().MarshalBinary()
	require.NoError(t, err)

	data := []byte(`
database: /tmp/node.db
protocol_version: 1
workers: 8
voting:
  min_vote_fee: 10
  max_votes_per_poll: 2
quorums:
  - hash: "` + hex.EncodeToString(make([]byte, 32)) + `"
    height: 12
    members: ["` + hex.EncodeToString(key) + `"]
core_rpc:
  backoff: 50ms
  max_backoff: 1s
  max_retries: 2
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	require.Equal(t, "/tmp/node.db", cfg.Database)
	require.Equal(t, uint32(1), cfg.ProtocolVersion)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, DefaultBlockSize, cfg.BlockSize)
	require.Equal(t, processor.Params{MinVoteFee: 10, MaxVotesPerPoll: 2}, cfg.Params())
	require.Equal(t, Retry{Backoff: 50 * time.Millisecond, MaxBackoff: time.Second, MaxRetries: 2}, cfg.CoreRPC)

	set, err := cfg.QuorumSet()
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	quorum, found := set.Get([32]byte{})
	require.True(t, found)
	require.Equal(t, uint32(12), quorum.Height)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParse_Failures(t *testing.T) {
	_, err := Parse([]byte("unknown: 1"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config")

	_, err = Parse([]byte("workers: [1]"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config")

	_, err = Parse([]byte("workers: 0"))
	require.EqualError(t, err, "invalid config: 1 error occurred:\n\t* workers must be positive: 0\n\n")
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	cfg.Database = ""
	cfg.ProtocolVersion = 99
	cfg.Workers = -1
	cfg.BlockSize = 0
	cfg.Voting.MaxVotesPerPoll = 0
	cfg.CoreRPC.Backoff = 0
	cfg.CoreRPC.MaxBackoff = -time.Second
	cfg.Quorums = []Quorum{
		{Hash: "zz"},
		{Hash: "aa"},
		{Hash: hex.EncodeToString(make([]byte, 32))},
		{Hash: hex.EncodeToString(make([]byte, 32)), Members: []string{"aa"}},
	}

	err := cfg.Validate()

	var merr *multierror.Error
	require.True(t, xerrors.As(err, &merr))

	msgs := make([]string, len(merr.Errors))
	for i, e := range merr.Errors {
		msgs[i] = e.Error()
	}

	require.Len(t, msgs, 11)
	require.Equal(t, "database path is empty", msgs[0])
	require.Equal(t, "unsupported protocol version 99", msgs[1])
	require.Equal(t, "workers must be positive: -1", msgs[2])
	require.Equal(t, "block size must be positive: 0", msgs[3])
	require.Equal(t, "max votes per poll must be positive", msgs[4])
	require.Equal(t, "core rpc backoff must be positive: 0s", msgs[5])
	require.Equal(t, "core rpc max backoff -1s is below backoff 0s", msgs[6])
	require.Contains(t, msgs[7], "quorum 0: invalid hash")
	require.Equal(t, "quorum 1: invalid hash length 1", msgs[8])
	require.Equal(t, "quorum 2: no members", msgs[9])
	require.Contains(t, msgs[10], "quorum 3: member 0")

	_, err = cfg.QuorumSet()
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := os.WriteFile(path, []byte("block_size: 5\n"), 0600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.BlockSize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

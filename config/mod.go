// Package config defines the configuration of a node, loaded from a YAML file.
//
// Every field has a default so that an empty file is a valid configuration.
// The problems of a configuration are all reported at once by Validate.
package config

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.dedis.ch/dpp/core/assetlock"
	"go.dedis.ch/dpp/core/corerpc"
	"go.dedis.ch/dpp/core/processor"
	"go.dedis.ch/dpp/core/types"
	"go.dedis.ch/dpp/crypto/bls"
	"go.dedis.ch/dpp/version"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Default values of the configuration.
const (
	DefaultDatabase  = "dpp.db"
	DefaultWorkers   = 4
	DefaultBlockSize = 100
)

// Config is the configuration of a node.
type Config struct {
	// Database is the path of the drive database.
	Database string `yaml:"database"`
	// ProtocolVersion is the protocol version active at startup. Zero means
	// the latest supported one.
	ProtocolVersion uint32 `yaml:"protocol_version"`
	// Workers is the number of workers validating the structure of the
	// transitions of a block.
	Workers int `yaml:"workers"`
	// BlockSize is the maximum number of transitions in a block.
	BlockSize int `yaml:"block_size"`

	Voting  Voting   `yaml:"voting"`
	Quorums []Quorum `yaml:"quorums"`
	CoreRPC Retry    `yaml:"core_rpc"`
}

// Voting are the rules of the masternode votes.
type Voting struct {
	MinVoteFee      uint64 `yaml:"min_vote_fee"`
	MaxVotesPerPoll uint16 `yaml:"max_votes_per_poll"`
}

// Quorum is a quorum signing the instant locks, with the hex encoded BLS keys
// of its members.
type Quorum struct {
	Hash    string   `yaml:"hash"`
	Height  uint32   `yaml:"height"`
	Members []string `yaml:"members"`
}

// Retry is the policy of the requests to the core chain.
type Retry struct {
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
	MaxRetries uint64        `yaml:"max_retries"`
}

// Default returns the configuration of a node without a file.
func Default() Config {
	return Config{
		Database:        DefaultDatabase,
		ProtocolVersion: version.Latest().ProtocolVersion,
		Workers:         DefaultWorkers,
		BlockSize:       DefaultBlockSize,
		Voting: Voting{
			MinVoteFee:      processor.DefaultParams.MinVoteFee,
			MaxVotesPerPoll: processor.DefaultParams.MaxVotesPerPoll,
		},
		CoreRPC: Retry{
			Backoff:    corerpc.DefaultBackoff,
			MaxBackoff: corerpc.DefaultMaxBackoff,
			MaxRetries: corerpc.DefaultMaxRetries,
		},
	}
}

// Load reads the configuration from the file. The fields missing from the
// file keep their default value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to read config: %v", err)
	}

	return Parse(data)
}

// Parse reads the configuration from YAML data and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	err := yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to parse config: %v", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, xerrors.Errorf("invalid config: %v", err)
	}

	return cfg, nil
}

// Validate returns an error listing every problem of the configuration.
func (c Config) Validate() error {
	var errs *multierror.Error

	if c.Database == "" {
		errs = multierror.Append(errs, xerrors.New("database path is empty"))
	}

	_, err := version.Get(c.ProtocolVersion)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if c.Workers <= 0 {
		errs = multierror.Append(errs, xerrors.Errorf("workers must be positive: %d", c.Workers))
	}

	if c.BlockSize <= 0 {
		errs = multierror.Append(errs, xerrors.Errorf("block size must be positive: %d", c.BlockSize))
	}

	if c.Voting.MaxVotesPerPoll == 0 {
		errs = multierror.Append(errs, xerrors.New("max votes per poll must be positive"))
	}

	if c.CoreRPC.Backoff <= 0 {
		errs = multierror.Append(errs, xerrors.Errorf("core rpc backoff must be positive: %v",
			c.CoreRPC.Backoff))
	}

	if c.CoreRPC.MaxBackoff < c.CoreRPC.Backoff {
		errs = multierror.Append(errs, xerrors.Errorf("core rpc max backoff %v is below backoff %v",
			c.CoreRPC.MaxBackoff, c.CoreRPC.Backoff))
	}

	for i, q := range c.Quorums {
		_, err := q.parse()
		if err != nil {
			errs = multierror.Append(errs, xerrors.Errorf("quorum %d: %v", i, err))
		}
	}

	return errs.ErrorOrNil()
}

// Version returns the table of the protocol version.
func (c Config) Version() (*version.PlatformVersion, error) {
	return version.Get(c.ProtocolVersion)
}

// Params returns the parameters of the validation.
func (c Config) Params() processor.Params {
	return processor.Params{
		MinVoteFee:      types.Credits(c.Voting.MinVoteFee),
		MaxVotesPerPoll: c.Voting.MaxVotesPerPoll,
	}
}

// RetryOptions returns the options of the client of the core chain.
func (c Config) RetryOptions() []corerpc.RetryOption {
	return []corerpc.RetryOption{
		corerpc.WithBackoff(c.CoreRPC.Backoff),
		corerpc.WithMaxBackoff(c.CoreRPC.MaxBackoff),
		corerpc.WithMaxRetries(c.CoreRPC.MaxRetries),
	}
}

// QuorumSet returns the quorums verifying the instant locks.
func (c Config) QuorumSet() (assetlock.QuorumSet, error) {
	quorums := make([]assetlock.Quorum, len(c.Quorums))

	for i, q := range c.Quorums {
		quorum, err := q.parse()
		if err != nil {
			return assetlock.QuorumSet{}, xerrors.Errorf("quorum %d: %v", i, err)
		}

		quorums[i] = quorum
	}

	return assetlock.NewQuorumSet(quorums...), nil
}

func (q Quorum) parse() (assetlock.Quorum, error) {
	raw, err := hex.DecodeString(q.Hash)
	if err != nil {
		return assetlock.Quorum{}, xerrors.Errorf("invalid hash: %v", err)
	}

	if len(raw) != 32 {
		return assetlock.Quorum{}, xerrors.Errorf("invalid hash length %d", len(raw))
	}

	if len(q.Members) == 0 {
		return assetlock.Quorum{}, xerrors.New("no members")
	}

	keys := make([]bls.PublicKey, len(q.Members))

	for i, m := range q.Members {
		data, err := hex.DecodeString(m)
		if err != nil {
			return assetlock.Quorum{}, xerrors.Errorf("member %d: %v", i, err)
		}

		keys[i], err = bls.NewPublicKey(data)
		if err != nil {
			return assetlock.Quorum{}, xerrors.Errorf("member %d: %v", i, err)
		}
	}

	var hash [32]byte
	copy(hash[:], raw)

	return assetlock.NewQuorum(hash, q.Height, keys...), nil
}

package corerpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.dedis.ch/dpp"
	"golang.org/x/xerrors"
)

const (
	// DefaultBackoff is the first delay between two attempts.
	DefaultBackoff = 100 * time.Millisecond

	// DefaultMaxRetries is the number of attempts after the first one.
	DefaultMaxRetries = 4

	// DefaultMaxBackoff caps the delay between two attempts.
	DefaultMaxBackoff = 2 * time.Second
)

type retryTemplate struct {
	backoff    time.Duration
	maxBackoff time.Duration
	maxRetries uint64
}

// RetryOption is the type of option to set the policy of a retrying client.
type RetryOption func(*retryTemplate)

// WithBackoff sets the first delay between two attempts. It doubles after
// every attempt.
func WithBackoff(d time.Duration) RetryOption {
	return func(tmpl *retryTemplate) {
		tmpl.backoff = d
	}
}

// WithMaxBackoff caps the delay between two attempts.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(tmpl *retryTemplate) {
		tmpl.maxBackoff = d
	}
}

// WithMaxRetries sets the number of attempts after the first one.
func WithMaxRetries(n uint64) RetryOption {
	return func(tmpl *retryTemplate) {
		tmpl.maxRetries = n
	}
}

// Retrying is a client that tries again the requests that failed for another
// reason than a missing transaction.
//
// - implements corerpc.Client
type Retrying struct {
	client Client
	tmpl   retryTemplate
	logger zerolog.Logger
}

// NewRetrying wraps the client.
func NewRetrying(client Client, opts ...RetryOption) Retrying {
	tmpl := retryTemplate{
		backoff:    DefaultBackoff,
		maxBackoff: DefaultMaxBackoff,
		maxRetries: DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	return Retrying{
		client: client,
		tmpl:   tmpl,
		logger: dpp.Logger.With().Str("component", "corerpc").Logger(),
	}
}

// GetTransaction implements corerpc.Client.
func (r Retrying) GetTransaction(ctx context.Context, txID [32]byte) (TransactionInfo, error) {
	// The exponential backoff panics on a base that is not positive.
	if r.tmpl.backoff <= 0 {
		return TransactionInfo{}, xerrors.Errorf("invalid backoff: %v", r.tmpl.backoff)
	}

	backoff := retry.NewExponential(r.tmpl.backoff)
	backoff = retry.WithCappedDuration(r.tmpl.maxBackoff, backoff)
	backoff = retry.WithMaxRetries(r.tmpl.maxRetries, backoff)

	var info TransactionInfo

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := r.client.GetTransaction(ctx, txID)
		if xerrors.Is(err, ErrNotFound) {
			return err
		}

		if err != nil {
			r.logger.Warn().Err(err).Msg("core rpc failed, retrying")
			return retry.RetryableError(err)
		}

		info = res

		return nil
	})

	if xerrors.Is(err, ErrNotFound) {
		return TransactionInfo{}, ErrNotFound
	}

	if err != nil {
		return TransactionInfo{}, xerrors.Errorf("couldn't get transaction: %v", err)
	}

	return info, nil
}

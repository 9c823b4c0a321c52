package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/stats"
	"go.uber.org/ratelimit"
)

const (
	defaultAirdropMaxAttempts    = 5
	defaultAirdropBackoff        = 500 * time.Millisecond
	defaultConfirmationAttempts  = 30
	defaultConfirmationInterval  = 500 * time.Millisecond
	maxAirdropBackoffMultiplier  = 32
	retryReasonRateLimited       = "rate_limited"
	retryReasonRpcUnavailable    = "rpc_unavailable"
	retryReasonPendingSignatures = "pending_confirmation"
)

type AirdropFundingOpts struct {
	Node ports.SolanaNode
	// MaxAttempts bounds the airdrop requests made for a single funding.
	MaxAttempts int
	// Backoff is the delay before the first retry, doubled at every attempt.
	Backoff time.Duration
	// RatePerSecond paces the airdrop requests, 0 means unlimited.
	RatePerSecond        int
	ConfirmationAttempts int
	ConfirmationInterval time.Duration
	Stats                *stats.FundingStats
}

func (o *AirdropFundingOpts) validate() error {
	if o.Node == nil {
		return fmt.Errorf("missing solana node")
	}
	if o.MaxAttempts < 0 || o.ConfirmationAttempts < 0 {
		return fmt.Errorf("attempts must not be negative")
	}
	if o.Backoff < 0 || o.ConfirmationInterval < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if o.RatePerSecond < 0 {
		return fmt.Errorf("rate must not be negative")
	}

	if o.MaxAttempts == 0 {
		o.MaxAttempts = defaultAirdropMaxAttempts
	}
	if o.Backoff == 0 {
		o.Backoff = defaultAirdropBackoff
	}
	if o.ConfirmationAttempts == 0 {
		o.ConfirmationAttempts = defaultConfirmationAttempts
	}
	if o.ConfirmationInterval == 0 {
		o.ConfirmationInterval = defaultConfirmationInterval
	}
	return nil
}

type airdropFunding struct {
	node    ports.SolanaNode
	limiter ratelimit.Limiter
	opts    AirdropFundingOpts
}

// NewAirdropFunding returns the strategy that credits lamports with the
// faucet of a solana test validator.
func NewAirdropFunding(opts AirdropFundingOpts) (FundingStrategy, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	limiter := ratelimit.NewUnlimited()
	if opts.RatePerSecond > 0 {
		limiter = ratelimit.New(opts.RatePerSecond)
	}

	return &airdropFunding{opts.Node, limiter, opts}, nil
}

func (f *airdropFunding) Chain() domain.ChainFamily {
	return domain.ChainSolana
}

func (f *airdropFunding) Fund(
	ctx context.Context, addr string, amount uint64,
) (*FundingReceipt, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	signature, err := f.requestAirdrop(ctx, addr, amount)
	if err != nil {
		return nil, err
	}

	if err := f.waitForConfirmation(ctx, signature); err != nil {
		return nil, err
	}

	return &FundingReceipt{TxRef: signature, Amount: amount}, nil
}

// requestAirdrop retries rate limited and unavailable responses with
// exponential backoff. After MaxAttempts the last error is returned.
func (f *airdropFunding) requestAirdrop(
	ctx context.Context, addr string, amount uint64,
) (string, error) {
	backoff := f.opts.Backoff
	var lastErr error

	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		f.limiter.Take()

		signature, err := f.opts.Node.RequestAirdrop(ctx, addr, amount)
		if err == nil {
			return signature, nil
		}

		reason := retryReason(err)
		if reason == "" {
			return "", err
		}
		lastErr = err
		if attempt == f.opts.MaxAttempts {
			break
		}

		f.opts.Stats.ObserveRetry(domain.ChainSolana.String(), reason)
		log.WithError(err).WithFields(log.Fields{
			"address": addr,
			"attempt": attempt,
			"backoff": backoff,
		}).Debug("airdrop request failed, retrying")

		if err := sleep(ctx, backoff); err != nil {
			return "", err
		}
		if backoff < f.opts.Backoff*maxAirdropBackoffMultiplier {
			backoff *= 2
		}
	}

	return "", fmt.Errorf(
		"airdrop failed after %d attempts: %w", f.opts.MaxAttempts, lastErr,
	)
}

func (f *airdropFunding) waitForConfirmation(
	ctx context.Context, signature string,
) error {
	for attempt := 1; attempt <= f.opts.ConfirmationAttempts; attempt++ {
		status, err := f.opts.Node.GetSignatureStatus(ctx, signature)
		if err != nil {
			if retryReason(err) == "" {
				return err
			}
			log.WithError(err).Debug("failed to get airdrop status, retrying")
		} else {
			switch status {
			case ports.TxConfirmed:
				return nil
			case ports.TxFailed:
				return fmt.Errorf(
					"%w: airdrop %s failed", domain.ErrTransactionRejected, signature,
				)
			}
		}

		if attempt == f.opts.ConfirmationAttempts {
			break
		}
		f.opts.Stats.ObserveRetry(
			domain.ChainSolana.String(), retryReasonPendingSignatures,
		)
		if err := sleep(ctx, f.opts.ConfirmationInterval); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: airdrop %s", domain.ErrTxNotConfirmed, signature)
}

func retryReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return retryReasonRateLimited
	case errors.Is(err, domain.ErrRpcUnavailable):
		return retryReasonRpcUnavailable
	default:
		return ""
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

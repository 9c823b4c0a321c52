package application

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/stats"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

// FundingReceipt is returned by a FundingStrategy once the credit has been
// confirmed by the daemon.
type FundingReceipt struct {
	// TxRef is the airdrop signature or the txid of the funding tx.
	TxRef string
	// Amount is the value actually credited, that can be greater than the
	// requested one if raised to the dust threshold.
	Amount uint64
	Fee    uint64
	// Blocks lists the hashes of the blocks mined to confirm the tx.
	Blocks []string
}

// FundingStrategy credits amount base units to addr and waits for the credit
// to be confirmed.
type FundingStrategy interface {
	Chain() domain.ChainFamily
	Fund(ctx context.Context, addr string, amount uint64) (*FundingReceipt, error)
}

// Transferer is implemented by the strategies able to move funds between
// accounts by spending the outputs of the source with its local key.
type Transferer interface {
	Transfer(
		ctx context.Context, from, to string, amount uint64,
		keyring *wallet.Keyring,
	) (*FundingReceipt, error)
}

// FundingStrategyOpts holds the dependencies and tunables of every funding
// strategy. Only the fields relative to the selected chain are required.
type FundingStrategyOpts struct {
	SolanaNode  ports.SolanaNode
	BitcoinNode ports.BitcoinNode
	Network     *chaincfg.Params

	// Airdrop
	MaxAttempts          int
	Backoff              time.Duration
	RatePerSecond        int
	ConfirmationAttempts int
	ConfirmationInterval time.Duration

	// UTXO
	SatsPerVByte  uint64
	DustThreshold uint64

	Stats *stats.FundingStats
}

// NewFundingStrategy returns the strategy of the given chain family.
func NewFundingStrategy(
	chain domain.ChainFamily, opts FundingStrategyOpts,
) (FundingStrategy, error) {
	switch chain {
	case domain.ChainSolana:
		return NewAirdropFunding(AirdropFundingOpts{
			Node:                 opts.SolanaNode,
			MaxAttempts:          opts.MaxAttempts,
			Backoff:              opts.Backoff,
			RatePerSecond:        opts.RatePerSecond,
			ConfirmationAttempts: opts.ConfirmationAttempts,
			ConfirmationInterval: opts.ConfirmationInterval,
			Stats:                opts.Stats,
		})
	case domain.ChainBitcoin:
		return NewUTXOFunding(UTXOFundingOpts{
			Node:          opts.BitcoinNode,
			Network:       opts.Network,
			SatsPerVByte:  opts.SatsPerVByte,
			DustThreshold: opts.DustThreshold,
		})
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChain, string(chain))
	}
}

package ports

import (
	"context"

	"github.com/btcsuite/btcd/wire"
	"github.com/tdex-network/devnet-forge/pkg/explorer"
)

// BalanceSource returns the confirmed balance in base units of an address
// as seen by the chain daemon.
type BalanceSource interface {
	GetBalance(ctx context.Context, addr string) (uint64, error)
}

type TxStatus int

const (
	TxPending TxStatus = iota
	TxConfirmed
	TxFailed
)

// SolanaNode is the JSON-RPC interface of a Solana test validator.
type SolanaNode interface {
	BalanceSource
	// RequestAirdrop credits lamports to addr and returns the tx signature.
	RequestAirdrop(
		ctx context.Context, addr string, lamports uint64,
	) (string, error)
	// GetSignatureStatus returns whether the tx has reached the confirmed
	// commitment level.
	GetSignatureStatus(ctx context.Context, signature string) (TxStatus, error)
	Health(ctx context.Context) error
}

// BitcoinNode is the JSON-RPC interface of a regtest bitcoind with a loaded
// wallet.
type BitcoinNode interface {
	BalanceSource
	// ListUnspents returns the confirmed utxos owned by addr by scanning the
	// utxo set, hence addr needs not to belong to the node's wallet.
	ListUnspents(ctx context.Context, addr string) ([]explorer.Utxo, error)
	// ListWalletUnspents returns the spendable utxos of the node's wallet.
	ListWalletUnspents(ctx context.Context) ([]explorer.Utxo, error)
	// NewWalletAddress derives a new receiving address of the node's wallet.
	NewWalletAddress(ctx context.Context) (string, error)
	// SignWithWallet signs the inputs of tx owned by the node's wallet.
	SignWithWallet(ctx context.Context, tx *wire.MsgTx) (*wire.MsgTx, error)
	BroadcastTransaction(ctx context.Context, tx *wire.MsgTx) (string, error)
	// GenerateBlocks mines num blocks paying the reward to addr.
	GenerateBlocks(ctx context.Context, num int, addr string) ([]string, error)
	GetBlockCount(ctx context.Context) (int64, error)
}

package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/explorer"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

const (
	defaultSatsPerVByte = 2
	// defaultDustThreshold is the dust limit of a P2WPKH output at the
	// default relay fee of bitcoin core.
	defaultDustThreshold = 294
	confirmationBlocks   = 1
)

type UTXOFundingOpts struct {
	Node          ports.BitcoinNode
	Network       *chaincfg.Params
	SatsPerVByte  uint64
	DustThreshold uint64
}

func (o *UTXOFundingOpts) validate() error {
	if o.Node == nil {
		return fmt.Errorf("missing bitcoin node")
	}
	if o.Network == nil {
		return wallet.ErrNullNetwork
	}
	if o.SatsPerVByte == 0 {
		o.SatsPerVByte = defaultSatsPerVByte
	}
	if o.DustThreshold == 0 {
		o.DustThreshold = defaultDustThreshold
	}
	return nil
}

type utxoFunding struct {
	node ports.BitcoinNode
	opts UTXOFundingOpts
}

// NewUTXOFunding returns the strategy that pays from the utxos of the
// bitcoind wallet and mines a block to confirm every payment.
func NewUTXOFunding(opts UTXOFundingOpts) (FundingStrategy, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &utxoFunding{opts.Node, opts}, nil
}

func (f *utxoFunding) Chain() domain.ChainFamily {
	return domain.ChainBitcoin
}

// Fund pays amount to addr from the wallet of the node. The change goes back
// to a fresh wallet address, that also receives the reward of the mined
// block.
func (f *utxoFunding) Fund(
	ctx context.Context, addr string, amount uint64,
) (*FundingReceipt, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := wallet.ValidateBitcoinAddress(addr, f.opts.Network); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}
	if amount < f.opts.DustThreshold {
		log.Debugf(
			"raising funding amount %d to dust threshold %d",
			amount, f.opts.DustThreshold,
		)
		amount = f.opts.DustThreshold
	}

	utxos, err := f.node.ListWalletUnspents(ctx)
	if err != nil {
		return nil, err
	}
	walletAddr, err := f.node.NewWalletAddress(ctx)
	if err != nil {
		return nil, err
	}

	unsigned, err := f.buildTransaction(utxos, addr, walletAddr, amount)
	if err != nil {
		return nil, err
	}

	signedTx, err := f.node.SignWithWallet(ctx, unsigned.Tx)
	if err != nil {
		return nil, err
	}

	return f.broadcastAndConfirm(ctx, signedTx, unsigned, amount, walletAddr)
}

// Transfer pays amount from one account to another by spending the utxos of
// the source, signed with its key from keyring. The change goes back to the
// source address.
func (f *utxoFunding) Transfer(
	ctx context.Context, from, to string, amount uint64,
	keyring *wallet.Keyring,
) (*FundingReceipt, error) {
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	for _, addr := range []string{from, to} {
		if err := wallet.ValidateBitcoinAddress(addr, f.opts.Network); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
		}
	}
	if keyring == nil || !keyring.Has(from) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAddress, from)
	}
	if amount < f.opts.DustThreshold {
		return nil, fmt.Errorf(
			"%w: amount %d is below dust threshold %d",
			domain.ErrInvalidAmount, amount, f.opts.DustThreshold,
		)
	}

	utxos, err := f.node.ListUnspents(ctx, from)
	if err != nil {
		return nil, err
	}

	unsigned, err := f.buildTransaction(utxos, to, from, amount)
	if err != nil {
		return nil, err
	}

	if err := wallet.SignTransaction(
		unsigned.Tx, unsigned.PrevOuts, keyring,
	); err != nil {
		if errors.Is(err, wallet.ErrUnknownAddress) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAddress, err)
		}
		return nil, err
	}

	rewardAddr, err := f.node.NewWalletAddress(ctx)
	if err != nil {
		return nil, err
	}

	return f.broadcastAndConfirm(ctx, unsigned.Tx, unsigned, amount, rewardAddr)
}

func (f *utxoFunding) buildTransaction(
	utxos []explorer.Utxo, addr, changeAddr string, amount uint64,
) (*wallet.UnsignedTransaction, error) {
	coins, _, err := explorer.SelectUnspents(
		utxos, amount, func(numInputs int) uint64 {
			return wallet.EstimateFee(numInputs, 2, f.opts.SatsPerVByte)
		},
	)
	if err != nil {
		if errors.Is(err, explorer.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientWalletFunds, err)
		}
		return nil, err
	}

	unsigned, err := wallet.BuildTransaction(wallet.BuildTransactionOpts{
		Inputs:        explorer.Inputs(coins),
		Address:       addr,
		Amount:        amount,
		ChangeAddress: changeAddr,
		SatsPerVByte:  f.opts.SatsPerVByte,
		DustThreshold: f.opts.DustThreshold,
		Network:       f.opts.Network,
	})
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientWalletFunds, err)
		}
		return nil, err
	}
	return unsigned, nil
}

func (f *utxoFunding) broadcastAndConfirm(
	ctx context.Context, tx *wire.MsgTx, unsigned *wallet.UnsignedTransaction,
	amount uint64, rewardAddr string,
) (*FundingReceipt, error) {
	txid, err := f.node.BroadcastTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	blocks, err := f.node.GenerateBlocks(ctx, confirmationBlocks, rewardAddr)
	if err != nil {
		return nil, fmt.Errorf("tx %s broadcasted but not mined: %w", txid, err)
	}

	log.WithFields(log.Fields{
		"txid":   txid,
		"amount": amount,
		"fee":    unsigned.Fee,
		"change": unsigned.Change,
		"inputs": len(unsigned.PrevOuts),
	}).Debug("funding tx confirmed")

	return &FundingReceipt{
		TxRef:  txid,
		Amount: amount,
		Fee:    unsigned.Fee,
		Blocks: blocks,
	}, nil
}

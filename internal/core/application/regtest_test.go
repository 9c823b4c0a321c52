package application_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/pkg/explorer"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

const (
	nodeWalletMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	blockSubsidy       = 50 * oneBitcoin
	oneBitcoin         = 100000000
)

var regtest = &chaincfg.RegressionNetParams

type fakeUtxo struct {
	value    uint64
	script   []byte
	address  string
	height   int64
	coinbase bool
}

// fakeRegtest is an in-memory bitcoind with a loaded wallet. It keeps the
// utxo set, verifies the scripts of every broadcasted tx and confirms the
// mempool when blocks are generated.
type fakeRegtest struct {
	lock sync.Mutex

	seed        []byte
	deriver     *wallet.Secp256k1Deriver
	keyring     *wallet.Keyring
	walletAddrs map[string]bool
	nextIndex   uint32

	height  int64
	utxos   map[wire.OutPoint]*fakeUtxo
	spent   map[wire.OutPoint]bool
	mempool []*wire.MsgTx

	broadcasted []*wire.MsgTx
	blocks      int
}

func newFakeRegtest(t *testing.T) *fakeRegtest {
	seed, err := wallet.SeedFromMnemonic(nodeWalletMnemonic)
	require.NoError(t, err)
	deriver, err := wallet.NewSecp256k1Deriver(regtest)
	require.NoError(t, err)

	node := &fakeRegtest{
		seed:        seed,
		deriver:     deriver,
		keyring:     wallet.NewKeyring(),
		walletAddrs: make(map[string]bool),
		utxos:       make(map[wire.OutPoint]*fakeUtxo),
		spent:       make(map[wire.OutPoint]bool),
	}

	// Make the first 2 coinbase outputs mature.
	ctx := context.Background()
	addr, err := node.NewWalletAddress(ctx)
	require.NoError(t, err)
	_, err = node.GenerateBlocks(ctx, explorer.CoinbaseMaturity+1, addr)
	require.NoError(t, err)
	node.blocks = 0

	return node
}

func (f *fakeRegtest) GetBalance(_ context.Context, addr string) (uint64, error) {
	if err := wallet.ValidateBitcoinAddress(addr, regtest); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	var balance uint64
	for _, u := range f.utxos {
		if u.address == addr {
			balance += u.value
		}
	}
	return balance, nil
}

func (f *fakeRegtest) ListUnspents(
	_ context.Context, addr string,
) ([]explorer.Utxo, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.unspents(func(u *fakeUtxo) bool { return u.address == addr }), nil
}

func (f *fakeRegtest) ListWalletUnspents(
	_ context.Context,
) ([]explorer.Utxo, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	utxos := f.unspents(func(u *fakeUtxo) bool { return f.walletAddrs[u.address] })
	spendable := make([]explorer.Utxo, 0, len(utxos))
	for _, u := range utxos {
		if u.IsSpendable() {
			spendable = append(spendable, u)
		}
	}
	return spendable, nil
}

func (f *fakeRegtest) NewWalletAddress(_ context.Context) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	key, err := f.deriver.Derive(f.seed, f.nextIndex)
	if err != nil {
		return "", err
	}
	f.nextIndex++

	if err := f.keyring.AddWIF(key.Address, key.WIF); err != nil {
		return "", err
	}
	f.walletAddrs[key.Address] = true
	return key.Address, nil
}

func (f *fakeRegtest) SignWithWallet(
	_ context.Context, tx *wire.MsgTx,
) (*wire.MsgTx, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	signed := tx.Copy()
	prevOuts, err := f.prevOuts(signed)
	if err != nil {
		return nil, err
	}
	for _, p := range prevOuts {
		if !f.walletAddrs[p.Address] {
			return nil, fmt.Errorf(
				"%w: wallet could not sign every input", domain.ErrTransactionRejected,
			)
		}
	}
	if err := wallet.SignTransaction(signed, prevOuts, f.keyring); err != nil {
		return nil, err
	}
	return signed, nil
}

func (f *fakeRegtest) BroadcastTransaction(
	_ context.Context, tx *wire.MsgTx,
) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	prevOuts, err := f.prevOuts(tx)
	if err != nil {
		return "", err
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	var totalIn uint64
	for i, in := range tx.TxIn {
		if f.spent[in.PreviousOutPoint] {
			return "", fmt.Errorf(
				"%w: bad-txns-inputs-missingorspent", domain.ErrTransactionRejected,
			)
		}
		fetcher.AddPrevOut(
			in.PreviousOutPoint,
			wire.NewTxOut(int64(prevOuts[i].Value), prevOuts[i].Script),
		)
		totalIn += prevOuts[i].Value
	}

	var totalOut uint64
	for _, out := range tx.TxOut {
		totalOut += uint64(out.Value)
	}
	if totalOut > totalIn {
		return "", fmt.Errorf(
			"%w: bad-txns-in-belowout", domain.ErrTransactionRejected,
		)
	}

	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	for i, prevOut := range prevOuts {
		vm, err := txscript.NewEngine(
			prevOut.Script, tx, i, txscript.StandardVerifyFlags, nil,
			sigHashes, int64(prevOut.Value), fetcher,
		)
		if err == nil {
			err = vm.Execute()
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s", domain.ErrTransactionRejected, err)
		}
	}

	for _, in := range tx.TxIn {
		f.spent[in.PreviousOutPoint] = true
	}
	f.mempool = append(f.mempool, tx)
	f.broadcasted = append(f.broadcasted, tx)
	return tx.TxHash().String(), nil
}

func (f *fakeRegtest) GenerateBlocks(
	_ context.Context, num int, addr string,
) ([]string, error) {
	script, err := wallet.AddressScript(addr, regtest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	hashes := make([]string, 0, num)
	for i := 0; i < num; i++ {
		f.height++

		var fees uint64
		for _, tx := range f.mempool {
			var totalIn, totalOut uint64
			for _, in := range tx.TxIn {
				totalIn += f.utxos[in.PreviousOutPoint].value
				delete(f.utxos, in.PreviousOutPoint)
				delete(f.spent, in.PreviousOutPoint)
			}
			f.addOutputs(tx, false)
			for _, out := range tx.TxOut {
				totalOut += uint64(out.Value)
			}
			fees += totalIn - totalOut
		}
		f.mempool = nil

		coinbase := wire.NewMsgTx(wire.TxVersion)
		heightScript := make([]byte, 8)
		binary.LittleEndian.PutUint64(heightScript, uint64(f.height))
		coinbase.AddTxIn(wire.NewTxIn(
			wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
			heightScript, nil,
		))
		coinbase.AddTxOut(wire.NewTxOut(int64(blockSubsidy+fees), script))
		f.addOutputs(coinbase, true)

		f.blocks++
		hashes = append(hashes, chainhash.DoubleHashH(heightScript).String())
	}
	return hashes, nil
}

func (f *fakeRegtest) GetBlockCount(_ context.Context) (int64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.height, nil
}

func (f *fakeRegtest) broadcasts() []*wire.MsgTx {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]*wire.MsgTx{}, f.broadcasted...)
}

func (f *fakeRegtest) minedBlocks() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.blocks
}

func (f *fakeRegtest) addOutputs(tx *wire.MsgTx, coinbase bool) {
	hash := tx.TxHash()
	for i, out := range tx.TxOut {
		var addr string
		if len(out.PkScript) == 22 && out.PkScript[0] == txscript.OP_0 {
			addr, _ = wallet.EncodeWitnessPubKeyHash(out.PkScript[2:], regtest)
		}
		f.utxos[*wire.NewOutPoint(&hash, uint32(i))] = &fakeUtxo{
			value:    uint64(out.Value),
			script:   out.PkScript,
			address:  addr,
			height:   f.height,
			coinbase: coinbase,
		}
	}
}

func (f *fakeRegtest) prevOuts(tx *wire.MsgTx) ([]wallet.Input, error) {
	prevOuts := make([]wallet.Input, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		u, ok := f.utxos[in.PreviousOutPoint]
		if !ok {
			return nil, fmt.Errorf(
				"%w: bad-txns-inputs-missingorspent", domain.ErrTransactionRejected,
			)
		}
		prevOuts = append(prevOuts, wallet.Input{
			TxID:    in.PreviousOutPoint.Hash.String(),
			Vout:    in.PreviousOutPoint.Index,
			Value:   u.value,
			Script:  u.script,
			Address: u.address,
		})
	}
	return prevOuts, nil
}

func (f *fakeRegtest) unspents(filter func(u *fakeUtxo) bool) []explorer.Utxo {
	utxos := make([]explorer.Utxo, 0)
	for outpoint, u := range f.utxos {
		if !filter(u) || f.spent[outpoint] {
			continue
		}
		utxos = append(utxos, explorer.Utxo{
			TxID:          outpoint.Hash.String(),
			Vout:          outpoint.Index,
			Value:         u.value,
			Address:       u.address,
			Script:        u.script,
			Confirmations: f.height - u.height + 1,
			Coinbase:      u.coinbase,
		})
	}
	return utxos
}

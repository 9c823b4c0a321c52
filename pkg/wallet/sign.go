package wallet

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Keyring maps addresses to the private keys able to spend their outputs.
type Keyring struct {
	lock sync.RWMutex
	keys map[string]*btcec.PrivateKey
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]*btcec.PrivateKey)}
}

// AddKey adds a raw 32-byte secp256k1 private key for addr.
func (k *Keyring) AddKey(addr string, privateKey []byte) {
	key, _ := btcec.PrivKeyFromBytes(privateKey)

	k.lock.Lock()
	defer k.lock.Unlock()
	k.keys[addr] = key
}

// AddWIF adds the WIF encoded private key for addr.
func (k *Keyring) AddWIF(addr, wif string) error {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return err
	}

	k.lock.Lock()
	defer k.lock.Unlock()
	k.keys[addr] = decoded.PrivKey
	return nil
}

func (k *Keyring) Has(addr string) bool {
	_, ok := k.key(addr)
	return ok
}

func (k *Keyring) key(addr string) (*btcec.PrivateKey, bool) {
	k.lock.RLock()
	defer k.lock.RUnlock()
	key, ok := k.keys[addr]
	return key, ok
}

// SignTransaction adds a P2WPKH witness to every input of tx with the key of
// the address owning the relative previous output.
func SignTransaction(tx *wire.MsgTx, prevOuts []Input, keyring *Keyring) error {
	if len(tx.TxIn) != len(prevOuts) {
		return ErrPrevOutsMismatch
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range tx.TxIn {
		prevOut := prevOuts[i]
		fetcher.AddPrevOut(
			in.PreviousOutPoint,
			wire.NewTxOut(int64(prevOut.Value), prevOut.Script),
		)
	}
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i, prevOut := range prevOuts {
		key, ok := keyring.key(prevOut.Address)
		if !ok {
			return fmt.Errorf("%w %s", ErrUnknownAddress, prevOut.Address)
		}

		witness, err := txscript.WitnessSignature(
			tx, sigHashes, i, int64(prevOut.Value), prevOut.Script,
			txscript.SigHashAll, key, true,
		)
		if err != nil {
			return fmt.Errorf("sign input %d: %w", i, err)
		}
		tx.TxIn[i].Witness = witness
	}

	return nil
}

package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Secp256k1Deriver derives Bitcoin accounts along m/44'/0'/0'/0/index with
// BIP32 and encodes them as P2WPKH addresses of its network.
type Secp256k1Deriver struct {
	network *chaincfg.Params
}

func NewSecp256k1Deriver(network *chaincfg.Params) (*Secp256k1Deriver, error) {
	if network == nil {
		return nil, ErrNullNetwork
	}
	return &Secp256k1Deriver{network}, nil
}

func (d *Secp256k1Deriver) Network() *chaincfg.Params {
	return d.network
}

func (d *Secp256k1Deriver) Derive(seed []byte, index uint32) (*DerivedKey, error) {
	if err := (DeriveOpts{seed, index}).validate(); err != nil {
		return nil, err
	}

	hdNode, err := hdkeychain.NewMaster(seed, d.network)
	if err != nil {
		if errors.Is(err, hdkeychain.ErrInvalidSeedLen) {
			return nil, ErrInvalidSeedLength
		}
		return nil, err
	}

	path := BitcoinAccountPath(index)
	for _, elem := range path {
		hdNode, err = hdNode.Derive(elem)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
	}

	privateKey, err := hdNode.ECPrivKey()
	if err != nil {
		return nil, err
	}
	publicKey := privateKey.PubKey().SerializeCompressed()

	addr, err := P2WPKHAddress(publicKey, d.network)
	if err != nil {
		return nil, err
	}
	wif, err := btcutil.NewWIF(privateKey, d.network, true)
	if err != nil {
		return nil, err
	}

	return &DerivedKey{
		Index:      index,
		Path:       path,
		Address:    addr,
		PublicKey:  publicKey,
		PrivateKey: privateKey.Serialize(),
		WIF:        wif.String(),
	}, nil
}

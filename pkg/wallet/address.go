package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gagliardetto/solana-go"
)

const witnessV0 = 0x00

// P2WPKHAddress returns the bech32 P2WPKH address of the given compressed
// public key for the network.
func P2WPKHAddress(pubkey []byte, network *chaincfg.Params) (string, error) {
	if network == nil {
		return "", ErrNullNetwork
	}
	return EncodeWitnessPubKeyHash(btcutil.Hash160(pubkey), network)
}

// EncodeWitnessPubKeyHash encodes a 20-byte key hash as a v0 witness
// program with the network's human readable part.
func EncodeWitnessPubKeyHash(
	keyHash []byte, network *chaincfg.Params,
) (string, error) {
	if len(keyHash) != 20 {
		return "", ErrNotWitnessPubKeyHash
	}
	program, err := bech32.ConvertBits(keyHash, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(
		network.Bech32HRPSegwit, append([]byte{witnessV0}, program...),
	)
}

// DecodeWitnessPubKeyHash returns the 20-byte key hash committed by a
// P2WPKH address of the network.
func DecodeWitnessPubKeyHash(
	addr string, network *chaincfg.Params,
) ([]byte, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if hrp != network.Bech32HRPSegwit {
		return nil, ErrInvalidAddressNetwork
	}
	if len(data) < 1 || data[0] != witnessV0 {
		return nil, ErrNotWitnessPubKeyHash
	}
	keyHash, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(keyHash) != 20 {
		return nil, ErrNotWitnessPubKeyHash
	}
	return keyHash, nil
}

// ValidateBitcoinAddress checks that addr is a valid address of the network.
func ValidateBitcoinAddress(addr string, network *chaincfg.Params) error {
	if _, err := decodeAddress(addr, network); err != nil {
		return err
	}
	return nil
}

// ValidateSolanaAddress checks that addr is a base58 encoded public key.
func ValidateSolanaAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	return nil
}

// AddressScript returns the output script paying to addr.
func AddressScript(addr string, network *chaincfg.Params) ([]byte, error) {
	decoded, err := decodeAddress(addr, network)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(decoded)
}

func decodeAddress(
	addr string, network *chaincfg.Params,
) (btcutil.Address, error) {
	if network == nil {
		return nil, ErrNullNetwork
	}
	decoded, err := btcutil.DecodeAddress(addr, network)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if !decoded.IsForNet(network) {
		return nil, ErrInvalidAddressNetwork
	}
	return decoded, nil
}

package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")

	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidMnemonicLength ...
	ErrInvalidMnemonicLength = fmt.Errorf(
		"%w: must be made of %d words", ErrInvalidMnemonic, MnemonicWords,
	)
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be 128 bits for a 12-word mnemonic",
	)
	// ErrInvalidSeedLength ...
	ErrInvalidSeedLength = errors.New("seed length must be in range [16, 64]")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New("malformed derivation path")
	// ErrNonHardenedDerivation ...
	ErrNonHardenedDerivation = errors.New(
		"ed25519 derivation supports hardened path elements only",
	)
	// ErrOutOfRangeAccountIndex ...
	ErrOutOfRangeAccountIndex = fmt.Errorf(
		"account index must be in range [0, %d]", MaxAccountIndex,
	)
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidAddressNetwork ...
	ErrInvalidAddressNetwork = errors.New("address does not belong to network")
	// ErrNotWitnessPubKeyHash ...
	ErrNotWitnessPubKeyHash = errors.New("address is not a v0 witness pubkey hash")

	// ErrEmptyInputs ...
	ErrEmptyInputs = errors.New("input list must not be empty")
	// ErrZeroAmount ...
	ErrZeroAmount = errors.New("amount must be greater than zero")
	// ErrDustAmount ...
	ErrDustAmount = errors.New("amount is below dust threshold")
	// ErrZeroFeeRate ...
	ErrZeroFeeRate = errors.New("fee rate must be greater than zero")
	// ErrInsufficientFunds ...
	ErrInsufficientFunds = errors.New("inputs do not cover amount plus fee")
	// ErrUnknownAddress ...
	ErrUnknownAddress = errors.New("no private key for address")
	// ErrPrevOutsMismatch ...
	ErrPrevOutsMismatch = errors.New(
		"length of tx inputs and previous outputs must match",
	)
)

// NetworkParams returns the chain params for the given network name.
// Accepted names are regtest, testnet and mainnet.
func NetworkParams(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
}

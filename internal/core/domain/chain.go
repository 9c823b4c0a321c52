package domain

import (
	"fmt"
	"strings"
)

// ChainFamily identifies the kind of daemon an instance runs against.
type ChainFamily string

const (
	// ChainSolana is the ed25519 account-based chain with an airdrop faucet.
	ChainSolana ChainFamily = "solana"
	// ChainBitcoin is the secp256k1 UTXO chain in regtest mode.
	ChainBitcoin ChainFamily = "bitcoin"
)

var chainDecimals = map[ChainFamily]int32{
	ChainSolana:  9,
	ChainBitcoin: 8,
}

func ParseChainFamily(s string) (ChainFamily, error) {
	chain := ChainFamily(strings.ToLower(strings.TrimSpace(s)))
	if err := chain.Validate(); err != nil {
		return "", err
	}
	return chain, nil
}

func (c ChainFamily) Validate() error {
	if _, ok := chainDecimals[c]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChain, string(c))
	}
	return nil
}

// Decimals is the precision of the chain unit: lamports per SOL, sats per BTC.
func (c ChainFamily) Decimals() int32 {
	return chainDecimals[c]
}

// Ticker returns the symbol of the whole chain unit.
func (c ChainFamily) Ticker() string {
	if c == ChainBitcoin {
		return "BTC"
	}
	return "SOL"
}

func (c ChainFamily) String() string {
	return string(c)
}

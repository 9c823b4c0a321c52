package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
)

func TestFundingView(t *testing.T) {
	noop := toFundingView(
		domain.ChainBitcoin, domain.NoOp("bcrt1qaddr", 100000000, 150000000),
	)
	require.Equal(t, "noop", noop.Outcome)
	require.Equal(t, "1.50000000", noop.Balance)
	require.Empty(t, noop.Delta)
	require.Empty(t, noop.Fee)

	funded := toFundingView(
		domain.ChainSolana,
		domain.Funded("addr", 2000000000, 2000000000, 1500000000, 0, "sig"),
	)
	require.Equal(t, "funded", funded.Outcome)
	require.Equal(t, "2.000000000", funded.Balance)
	require.Equal(t, "1.500000000", funded.Delta)
	require.Empty(t, funded.Fee)
	require.Equal(t, "sig", funded.Tx)
}

func TestAccountViews(t *testing.T) {
	list := []domain.Account{
		{Index: 0, Address: "sol-addr", PublicKey: []byte{1, 2}, Balance: 1},
	}
	views := toAccountViews(domain.ChainSolana, list)
	require.Len(t, views, 1)
	require.Equal(t, "sol-addr", views[0].PublicKey)
	require.Equal(t, "0.000000001", views[0].Balance)

	views = toAccountViews(domain.ChainBitcoin, list)
	require.Equal(t, "0102", views[0].PublicKey)
	require.Equal(t, "0.00000001", views[0].Balance)
}

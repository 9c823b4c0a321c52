package domain_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
)

func TestNewInstance(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		instance, err := domain.NewInstance(
			domain.ChainBitcoin, "default", "", "http://localhost:18443", 10,
		)
		require.NoError(t, err)
		require.Equal(t, "bitcoin:default", instance.NodeID())
		require.Equal(t, "default", instance.Name)
		require.Equal(t, domain.InstanceStopped, instance.Status)

		for _, id := range []string{"a", "dev-1", "my-node-2", "0"} {
			_, err := domain.NewInstance(domain.ChainSolana, id, "", "", 1)
			require.NoError(t, err, id)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			chain    domain.ChainFamily
			id       string
			accounts int
			err      error
		}{
			{"ethereum", "default", 10, domain.ErrUnknownChain},
			{domain.ChainSolana, "", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "a:b", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "a/b", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "..", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, ".", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "My-Node", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "my_node", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "my node", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "-node", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "node-", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "my--node", 10, domain.ErrInvalidInstanceID},
			{domain.ChainSolana, "default", 0, nil},
		}
		for _, tt := range tests {
			instance, err := domain.NewInstance(tt.chain, tt.id, "", "", tt.accounts)
			require.Error(t, err)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
			}
			require.Nil(t, instance)
		}
	})
}

func TestInstanceLifecycle(t *testing.T) {
	instance, err := domain.NewInstance(domain.ChainSolana, "dev", "", "", 3)
	require.NoError(t, err)

	require.ErrorIs(t, instance.Stop(), domain.ErrInstanceNotRunning)

	require.NoError(t, instance.Start())
	require.True(t, instance.IsRunning())
	require.NotZero(t, instance.StartedAt)
	require.ErrorIs(t, instance.Start(), domain.ErrInstanceAlreadyRunning)

	require.NoError(t, instance.Stop())
	require.False(t, instance.IsRunning())
	require.NotZero(t, instance.StoppedAt)
}

func TestParseChainFamily(t *testing.T) {
	chain, err := domain.ParseChainFamily(" Solana ")
	require.NoError(t, err)
	require.Equal(t, domain.ChainSolana, chain)
	require.Equal(t, int32(9), chain.Decimals())
	require.Equal(t, "SOL", chain.Ticker())

	chain, err = domain.ParseChainFamily("bitcoin")
	require.NoError(t, err)
	require.Equal(t, int32(8), chain.Decimals())
	require.Equal(t, "BTC", chain.Ticker())

	_, err = domain.ParseChainFamily("dogecoin")
	require.ErrorIs(t, err, domain.ErrUnknownChain)
}

func TestAccountNeverPrintsSecrets(t *testing.T) {
	account := domain.Account{
		InstanceKey: "bitcoin:default",
		Index:       2,
		Address:     "bcrt1qaddress",
		PrivateKey:  []byte("secret-key"),
		WIF:         "secret-wif",
		Mnemonic:    "secret mnemonic",
	}
	require.Equal(t, "bitcoin:default/2", account.Key())

	for _, s := range []string{
		account.String(),
		fmt.Sprintf("%v", account),
		fmt.Sprintf("%v", account.LogFields()),
	} {
		require.NotContains(t, s, "secret")
		require.Contains(t, s, "bcrt1qaddress")
	}

	account.SetBalance(42)
	require.Equal(t, uint64(42), account.Balance)
	require.NotZero(t, account.UpdatedAt)
}

func TestFundingResult(t *testing.T) {
	noop := domain.NoOp("addr", 10, 12)
	require.Equal(t, domain.FundingNoOp, noop.Kind)
	require.Equal(t, "noop", noop.Kind.String())
	require.Zero(t, noop.Delta)

	funded := domain.Funded("addr", 10, 10, 4, 141, "txid")
	require.Equal(t, "funded", funded.Kind.String())
	require.Equal(t, uint64(4), funded.Delta)

	failed := domain.Failed("addr", 10, domain.ErrRateLimited)
	require.Equal(t, "failed", failed.Kind.String())
	require.Equal(t, domain.ErrRateLimited.Error(), failed.Reason)
}

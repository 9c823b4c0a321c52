package application_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/devnet-forge/internal/core/application"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
)

const (
	solanaEndpointA  = "http://node-a:8899"
	solanaEndpointB  = "http://node-b:8899"
	bitcoinEndpointA = "http://node-a:18443"
	bitcoinEndpointB = "http://node-b:18443"
)

func TestConfigInstanceNodes(t *testing.T) {
	t.Run("solana", testSolanaInstanceNodes())
	t.Run("bitcoin", testBitcoinInstanceNodes())
}

func testSolanaInstanceNodes() func(t *testing.T) {
	return func(t *testing.T) {
		nodeA, nodeB := &mockSolanaNode{}, &mockSolanaNode{}
		nodeA.On("GetBalance", mock.Anything, testSolanaAddress).
			Return(uint64(10), nil)
		nodeB.On("GetBalance", mock.Anything, testSolanaAddress).
			Return(uint64(20), nil)
		nodeA.On("Health", mock.Anything).Return(nil)
		nodeB.On("Health", mock.Anything).
			Return(fmt.Errorf("%w: connection refused", domain.ErrRpcUnavailable))

		nodes := map[string]*mockSolanaNode{
			solanaEndpointA: nodeA,
			solanaEndpointB: nodeB,
		}
		built := make(map[string]int)
		cfg := &application.Config{
			Network: regtest,
			NewSolanaNode: func(endpoint string) (ports.SolanaNode, error) {
				built[endpoint]++
				node, ok := nodes[endpoint]
				if !ok {
					return nil, fmt.Errorf("connection refused")
				}
				return node, nil
			},
			ReadinessAttempts: 2,
			ReadinessDelay:    time.Millisecond,
		}
		require.NoError(t, cfg.Validate())
		t.Cleanup(cfg.Close)

		instanceA := registerInstance(t, cfg, application.RegisterInstanceOpts{
			Chain: domain.ChainSolana, ID: "a", RPCEndpoint: solanaEndpointA,
		})
		instanceB := registerInstance(t, cfg, application.RegisterInstanceOpts{
			Chain: domain.ChainSolana, ID: "b", RPCEndpoint: solanaEndpointB,
		})

		tests := []struct {
			instance        domain.Instance
			expectedBalance uint64
		}{
			{instanceA, 10},
			{instanceB, 20},
		}
		for _, tt := range tests {
			svc, err := cfg.BalanceService(tt.instance)
			require.NoError(t, err)

			result, err := svc.SetBalance(ctx, testSolanaAddress, 5)
			require.NoError(t, err)
			require.Equal(t, domain.FundingNoOp, result.Kind)
			require.Equal(t, tt.expectedBalance, result.Balance)
		}
		nodeA.AssertNumberOfCalls(t, "GetBalance", 1)
		nodeB.AssertNumberOfCalls(t, "GetBalance", 1)

		require.NoError(t, cfg.WaitReady(ctx, instanceA))
		err := cfg.WaitReady(ctx, instanceB)
		require.ErrorIs(t, err, domain.ErrRpcUnavailable)

		// Nodes are built once per endpoint.
		_, err = cfg.BalanceService(instanceA)
		require.NoError(t, err)
		require.Equal(t, map[string]int{solanaEndpointA: 1, solanaEndpointB: 1}, built)

		unreachable := registerInstance(t, cfg, application.RegisterInstanceOpts{
			Chain: domain.ChainSolana, ID: "c", RPCEndpoint: "http://node-c:8899",
		})
		svc, err := cfg.BalanceService(unreachable)
		require.Error(t, err)
		require.Nil(t, svc)
	}
}

func testBitcoinInstanceNodes() func(t *testing.T) {
	return func(t *testing.T) {
		nodeA, nodeB := newFakeRegtest(t), newFakeRegtest(t)
		nodes := map[string]*fakeRegtest{
			bitcoinEndpointA: nodeA,
			bitcoinEndpointB: nodeB,
		}
		var credentials []string
		cfg := &application.Config{
			Network:       regtest,
			SatsPerVByte:  testSatsPerVByte,
			DustThreshold: testDust,
			NewBitcoinNode: func(instance domain.Instance) (ports.BitcoinNode, error) {
				credentials = append(credentials, fmt.Sprintf(
					"%s:%s@%s", instance.RPCUser, instance.RPCPassword,
					instance.RPCWallet,
				))
				node, ok := nodes[instance.RPCEndpoint]
				if !ok {
					return nil, fmt.Errorf("connection refused")
				}
				return node, nil
			},
		}
		require.NoError(t, cfg.Validate())
		t.Cleanup(cfg.Close)

		instanceA := registerInstance(t, cfg, application.RegisterInstanceOpts{
			Chain:       domain.ChainBitcoin,
			ID:          "a",
			RPCEndpoint: bitcoinEndpointA,
			RPCUser:     "alice",
			RPCPassword: "secret-a",
			RPCWallet:   "wallet-a",
		})
		instanceB := registerInstance(t, cfg, application.RegisterInstanceOpts{
			Chain:       domain.ChainBitcoin,
			ID:          "b",
			RPCEndpoint: bitcoinEndpointB,
			RPCUser:     "bob",
			RPCPassword: "secret-b",
			RPCWallet:   "wallet-b",
		})

		stored, err := cfg.InstanceService().Get(ctx, instanceB.NodeID())
		require.NoError(t, err)
		require.Equal(t, "bob", stored.RPCUser)
		require.Equal(t, "secret-b", stored.RPCPassword)
		require.Equal(t, "wallet-b", stored.RPCWallet)

		// The same mnemonic gives the same addresses to both instances.
		accountsA, err := cfg.AccountService().Materialize(ctx, instanceA, testMnemonic, 1)
		require.NoError(t, err)
		accountsB, err := cfg.AccountService().Materialize(ctx, instanceB, testMnemonic, 1)
		require.NoError(t, err)
		addr := accountsA[0].Address
		require.Equal(t, addr, accountsB[0].Address)

		svcA, err := cfg.BalanceService(instanceA)
		require.NoError(t, err)
		result, err := svcA.SetBalance(ctx, addr, oneBitcoin)
		require.NoError(t, err)
		require.Equal(t, domain.FundingFunded, result.Kind)
		require.Len(t, nodeA.broadcasts(), 1)
		require.Empty(t, nodeB.broadcasts())

		// Funds on the daemon of A are not seen by B.
		svcB, err := cfg.BalanceService(instanceB)
		require.NoError(t, err)
		result, err = svcB.SetBalance(ctx, addr, 2*oneBitcoin)
		require.NoError(t, err)
		require.Equal(t, domain.FundingFunded, result.Kind)
		require.Equal(t, uint64(2*oneBitcoin), result.Delta)
		require.Len(t, nodeA.broadcasts(), 1)
		require.Len(t, nodeB.broadcasts(), 1)

		accountA, err := cfg.AccountService().Account(ctx, instanceA, addr)
		require.NoError(t, err)
		require.Equal(t, uint64(oneBitcoin), accountA.Balance)
		accountB, err := cfg.AccountService().Account(ctx, instanceB, addr)
		require.NoError(t, err)
		require.Equal(t, uint64(2*oneBitcoin), accountB.Balance)

		require.Equal(t, []string{
			"alice:secret-a@wallet-a", "bob:secret-b@wallet-b",
		}, credentials)
	}
}

func registerInstance(
	t *testing.T, cfg *application.Config, opts application.RegisterInstanceOpts,
) domain.Instance {
	opts.AccountsCount = 1
	instance, err := cfg.InstanceService().Register(ctx, opts)
	require.NoError(t, err)
	return *instance
}

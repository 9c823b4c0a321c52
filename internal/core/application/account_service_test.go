package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/devnet-forge/internal/core/application"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	dbbadger "github.com/tdex-network/devnet-forge/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/devnet-forge/internal/infrastructure/storage/file"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

const otherMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"

func TestMaterializeAccounts(t *testing.T) {
	tests := []struct {
		name  string
		chain domain.ChainFamily
	}{
		{"solana", domain.ChainSolana},
		{"bitcoin", domain.ChainBitcoin},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAccountService(t, "")
			instance := newTestInstance(t, tt.chain, "first")

			accounts, err := svc.Materialize(ctx, instance, testMnemonic, 3)
			require.NoError(t, err)
			require.Len(t, accounts, 3)

			addresses := make(map[string]bool)
			for i, a := range accounts {
				require.Equal(t, uint32(i), a.Index)
				require.Equal(t, instance.NodeID(), a.InstanceKey)
				require.Equal(t, testMnemonic, a.Mnemonic)
				require.NotEmpty(t, a.PrivateKey)
				require.Zero(t, a.Balance)
				addresses[a.Address] = true
			}
			require.Len(t, addresses, 3)

			// Same mnemonic for a different instance gives the same keys
			// but independent records.
			other := newTestInstance(t, tt.chain, "second")
			otherAccounts, err := svc.Materialize(ctx, other, testMnemonic, 3)
			require.NoError(t, err)
			for i := range accounts {
				require.Equal(t, accounts[i].Address, otherAccounts[i].Address)
				require.Equal(t, accounts[i].PrivateKey, otherAccounts[i].PrivateKey)
				require.NotEqual(t, accounts[i].Key(), otherAccounts[i].Key())
			}

			err = svc.UpdateBalances(ctx, instance, map[string]uint64{
				accounts[0].Address: 10,
			})
			require.NoError(t, err)

			stored, err := svc.Accounts(ctx, other)
			require.NoError(t, err)
			require.Zero(t, stored[0].Balance)

			stored, err = svc.Accounts(ctx, instance)
			require.NoError(t, err)
			require.Equal(t, uint64(10), stored[0].Balance)
		})
	}
}

func TestMaterializeReloadsStoredAccounts(t *testing.T) {
	datadir := t.TempDir()
	instance := newTestInstance(t, domain.ChainBitcoin, "reload")

	svc, repoManager := newTestAccountService(t, datadir)
	accounts, err := svc.Materialize(ctx, instance, testMnemonic, 2)
	require.NoError(t, err)
	err = svc.UpdateBalances(ctx, instance, map[string]uint64{
		accounts[1].Address: 42,
	})
	require.NoError(t, err)
	repoManager.Close()

	// Reopen the db as a cold process would do.
	svc, _ = newTestAccountService(t, datadir)

	reloaded, err := svc.Materialize(ctx, instance, "", 4)
	require.NoError(t, err)
	require.Len(t, reloaded, 4)
	for i := range accounts {
		require.Equal(t, accounts[i].PrivateKey, reloaded[i].PrivateKey)
		require.Equal(t, accounts[i].PublicKey, reloaded[i].PublicKey)
		require.Equal(t, accounts[i].WIF, reloaded[i].WIF)
		require.Equal(t, accounts[i].Address, reloaded[i].Address)
	}
	require.Equal(t, uint64(42), reloaded[1].Balance)

	// Asking for less accounts drops the exceeding ones.
	reloaded, err = svc.Materialize(ctx, instance, testMnemonic, 1)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	stored, err := svc.Accounts(ctx, instance)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	exported, err := file.ReadAccounts(datadir, instance)
	require.NoError(t, err)
	require.Len(t, exported, 1)
	require.Equal(t, accounts[0].WIF, exported[0].WIF)
}

func TestMaterializeRejectsCorruptedPath(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"wrong_index", "m/44'/0'/0'/0/7"},
		{"wrong_scheme", "m/44'/501'/1'/0'"},
		{"malformed", "m/44'/x'"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			datadir := t.TempDir()
			instance := newTestInstance(t, domain.ChainBitcoin, "corrupted")

			svc, closer := newTestAccountService(t, datadir)
			accounts, err := svc.Materialize(ctx, instance, testMnemonic, 2)
			require.NoError(t, err)
			closer.Close()

			repoManager, err := dbbadger.NewRepoManager(datadir, nil)
			require.NoError(t, err)
			err = repoManager.AccountRepository().UpdateAccount(
				ctx, instance.NodeID(), accounts[1].Address,
				func(a *domain.Account) (*domain.Account, error) {
					a.DerivationPath = tt.path
					return a, nil
				},
			)
			require.NoError(t, err)
			repoManager.Close()

			svc, _ = newTestAccountService(t, datadir)
			_, err = svc.Materialize(ctx, instance, "", 2)
			require.ErrorIs(t, err, domain.ErrDerivation)
		})
	}
}

func TestMaterializeWithAnotherMnemonic(t *testing.T) {
	svc, _ := newTestAccountService(t, "")
	instance := newTestInstance(t, domain.ChainSolana, "reset")

	accounts, err := svc.Materialize(ctx, instance, testMnemonic, 2)
	require.NoError(t, err)

	replaced, err := svc.Materialize(ctx, instance, otherMnemonic, 2)
	require.NoError(t, err)
	require.Len(t, replaced, 2)
	require.NotEqual(t, accounts[0].Address, replaced[0].Address)
	require.Equal(t, otherMnemonic, replaced[0].Mnemonic)

	stored, err := svc.Accounts(ctx, instance)
	require.NoError(t, err)
	require.Equal(t, replaced, stored)
}

func TestMaterializeGeneratesMnemonic(t *testing.T) {
	svc, _ := newTestAccountService(t, "")
	instance := newTestInstance(t, domain.ChainSolana, "generated")

	accounts, err := svc.Materialize(ctx, instance, "", 1)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.NoError(t, wallet.ValidateMnemonic(accounts[0].Mnemonic))

	again, err := svc.Materialize(ctx, instance, "", 1)
	require.NoError(t, err)
	require.Equal(t, accounts, again)
}

func TestMaterializeInvalidArgs(t *testing.T) {
	svc, _ := newTestAccountService(t, "")
	instance := newTestInstance(t, domain.ChainBitcoin, "invalid")

	tests := []struct {
		name        string
		mnemonic    string
		count       int
		expectedErr error
	}{
		{"bad_checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", 1, domain.ErrInvalidMnemonic},
		{"bad_word_count", "test test test junk", 1, domain.ErrInvalidMnemonic},
		{"unknown_word", "test test test test test test test test test test test notaword", 1, domain.ErrInvalidMnemonic},
		{"index_overflow", testMnemonic, int(wallet.MaxAccountIndex) + 2, domain.ErrDerivation},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			accounts, err := svc.Materialize(ctx, instance, tt.mnemonic, tt.count)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, accounts)
		})
	}

	_, err := svc.Materialize(ctx, instance, testMnemonic, 0)
	require.Error(t, err)
}

func TestAccountKeyring(t *testing.T) {
	svc, _ := newTestAccountService(t, "")

	btcInstance := newTestInstance(t, domain.ChainBitcoin, "keyring")
	accounts, err := svc.Materialize(ctx, btcInstance, testMnemonic, 2)
	require.NoError(t, err)

	keyring, err := svc.Keyring(ctx, btcInstance)
	require.NoError(t, err)
	for _, a := range accounts {
		require.True(t, keyring.Has(a.Address))
	}

	solInstance := newTestInstance(t, domain.ChainSolana, "keyring")
	_, err = svc.Keyring(ctx, solInstance)
	require.ErrorIs(t, err, domain.ErrUnknownChain)
}

func TestAccountReset(t *testing.T) {
	datadir := t.TempDir()
	svc, _ := newTestAccountService(t, datadir)
	instance := newTestInstance(t, domain.ChainSolana, "drop")

	_, err := svc.Materialize(ctx, instance, testMnemonic, 2)
	require.NoError(t, err)

	err = svc.Reset(ctx, instance)
	require.NoError(t, err)

	accounts, err := svc.Accounts(ctx, instance)
	require.NoError(t, err)
	require.Empty(t, accounts)

	_, err = file.ReadAccounts(datadir, instance)
	require.Error(t, err)
}

// newTestAccountService returns an account service persisting to datadir,
// or in memory if empty.
func newTestAccountService(
	t *testing.T, datadir string,
) (application.AccountService, interface{ Close() }) {
	repoManager, err := dbbadger.NewRepoManager(datadir, nil)
	require.NoError(t, err)

	exportDir := datadir
	if exportDir == "" {
		exportDir = t.TempDir()
	}
	exporter, err := file.NewExporter(exportDir)
	require.NoError(t, err)

	svc, err := application.NewAccountService(repoManager, exporter, regtest)
	require.NoError(t, err)

	closed := false
	closer := closeFunc(func() {
		if !closed {
			closed = true
			repoManager.Close()
		}
	})
	t.Cleanup(closer.Close)
	return svc, closer
}

type closeFunc func()

func (f closeFunc) Close() { f() }

func newTestInstance(
	t *testing.T, chain domain.ChainFamily, id string,
) domain.Instance {
	instance, err := domain.NewInstance(chain, id, "", "http://localhost", 2)
	require.NoError(t, err)
	return *instance
}

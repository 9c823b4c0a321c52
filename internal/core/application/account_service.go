package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

// AccountService materializes and persists the accounts derived for an
// instance. Only one writer per instance is supported.
type AccountService interface {
	// Materialize returns the first count accounts of the instance derived
	// from mnemonic. Stored accounts are reused if derived from the same
	// mnemonic, missing ones are derived and persisted. If stored accounts
	// come from another mnemonic they are replaced.
	// An empty mnemonic reuses the stored one, or generates a new one.
	Materialize(
		ctx context.Context, instance domain.Instance, mnemonic string, count int,
	) ([]domain.Account, error)
	Accounts(ctx context.Context, instance domain.Instance) ([]domain.Account, error)
	Account(
		ctx context.Context, instance domain.Instance, addr string,
	) (*domain.Account, error)
	// UpdateBalances sets the cached balances of the given addresses.
	// Addresses not owned by the instance are ignored.
	UpdateBalances(
		ctx context.Context, instance domain.Instance, balances map[string]uint64,
	) error
	// Keyring returns the signing keys of the accounts of a bitcoin instance.
	Keyring(ctx context.Context, instance domain.Instance) (*wallet.Keyring, error)
	// Reset drops every account of the instance.
	Reset(ctx context.Context, instance domain.Instance) error
}

type accountService struct {
	repoManager ports.RepoManager
	exporter    ports.AccountExporter
	network     *chaincfg.Params
}

// NewAccountService returns the AccountService persisting to repoManager.
// network is the bitcoin network used for addresses and WIFs. A nil
// exporter disables the accounts file.
func NewAccountService(
	repoManager ports.RepoManager, exporter ports.AccountExporter,
	network *chaincfg.Params,
) (AccountService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if network == nil {
		return nil, wallet.ErrNullNetwork
	}
	return &accountService{repoManager, exporter, network}, nil
}

func (s *accountService) Materialize(
	ctx context.Context, instance domain.Instance, mnemonic string, count int,
) ([]domain.Account, error) {
	if count <= 0 {
		return nil, fmt.Errorf("accounts count must be greater than zero")
	}
	if uint64(count-1) > uint64(wallet.MaxAccountIndex) {
		return nil, fmt.Errorf(
			"%w: %s", domain.ErrDerivation, wallet.ErrOutOfRangeAccountIndex,
		)
	}

	deriver, err := s.deriver(instance.Chain)
	if err != nil {
		return nil, err
	}

	instanceKey := instance.NodeID()
	stored, err := s.repo().GetAccounts(ctx, instanceKey)
	if err != nil {
		return nil, err
	}

	mnemonic = wallet.NormalizeMnemonic(mnemonic)
	if mnemonic == "" {
		if len(stored) > 0 {
			mnemonic = stored[0].Mnemonic
		} else {
			words, err := wallet.NewMnemonic(wallet.NewMnemonicOpts{})
			if err != nil {
				return nil, err
			}
			mnemonic = strings.Join(words, " ")
			log.WithField("instance", instanceKey).Info("generated new mnemonic")
		}
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidMnemonic, err)
	}

	if len(stored) > 0 && stored[0].Mnemonic != mnemonic {
		log.WithField("instance", instanceKey).Warn(
			"stored accounts derive from another mnemonic, resetting",
		)
		if err := s.repo().DeleteAccounts(ctx, instanceKey); err != nil {
			return nil, err
		}
		stored = nil
	}

	for _, a := range stored {
		if err := checkDerivationPath(instance.Chain, a); err != nil {
			return nil, err
		}
	}

	accounts := stored
	if len(accounts) > count {
		accounts = accounts[:count]
		if err := s.repo().DeleteAccounts(ctx, instanceKey); err != nil {
			return nil, err
		}
		if err := s.repo().AddAccounts(ctx, accounts); err != nil {
			return nil, err
		}
	}

	if missing := count - len(accounts); missing > 0 {
		keys, err := wallet.DeriveRange(
			deriver, seed, uint32(len(accounts)), uint32(count),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrDerivation, err)
		}

		newAccounts := make([]domain.Account, 0, len(keys))
		for _, key := range keys {
			newAccounts = append(newAccounts, domain.Account{
				InstanceKey:    instanceKey,
				Index:          key.Index,
				Address:        key.Address,
				PublicKey:      key.PublicKey,
				PrivateKey:     key.PrivateKey,
				WIF:            key.WIF,
				Mnemonic:       mnemonic,
				DerivationPath: key.Path.String(),
			})
		}
		if err := s.repo().AddAccounts(ctx, newAccounts); err != nil {
			return nil, err
		}
		accounts = append(accounts, newAccounts...)

		log.WithFields(log.Fields{
			"instance": instanceKey,
			"derived":  len(newAccounts),
			"loaded":   len(stored),
		}).Debug("materialized accounts")
	}

	if err := s.export(ctx, instance, accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) Accounts(
	ctx context.Context, instance domain.Instance,
) ([]domain.Account, error) {
	return s.repo().GetAccounts(ctx, instance.NodeID())
}

func (s *accountService) Account(
	ctx context.Context, instance domain.Instance, addr string,
) (*domain.Account, error) {
	return s.repo().GetAccountByAddress(ctx, instance.NodeID(), addr)
}

func (s *accountService) UpdateBalances(
	ctx context.Context, instance domain.Instance, balances map[string]uint64,
) error {
	instanceKey := instance.NodeID()
	for addr, balance := range balances {
		balance := balance
		if err := s.repo().UpdateAccount(
			ctx, instanceKey, addr,
			func(a *domain.Account) (*domain.Account, error) {
				a.SetBalance(balance)
				return a, nil
			},
		); err != nil {
			if isAccountNotFound(err) {
				continue
			}
			return err
		}
	}

	accounts, err := s.Accounts(ctx, instance)
	if err != nil {
		return err
	}
	return s.export(ctx, instance, accounts)
}

func (s *accountService) Keyring(
	ctx context.Context, instance domain.Instance,
) (*wallet.Keyring, error) {
	if instance.Chain != domain.ChainBitcoin {
		return nil, fmt.Errorf(
			"%w: keyring not supported for %s", domain.ErrUnknownChain, instance.Chain,
		)
	}

	accounts, err := s.Accounts(ctx, instance)
	if err != nil {
		return nil, err
	}

	keyring := wallet.NewKeyring()
	for _, a := range accounts {
		keyring.AddKey(a.Address, a.PrivateKey)
	}
	return keyring, nil
}

func (s *accountService) Reset(
	ctx context.Context, instance domain.Instance,
) error {
	if err := s.repo().DeleteAccounts(ctx, instance.NodeID()); err != nil {
		return err
	}
	if s.exporter != nil {
		return s.exporter.Remove(ctx, instance)
	}
	return nil
}

func (s *accountService) deriver(
	chain domain.ChainFamily,
) (wallet.KeyDeriver, error) {
	switch chain {
	case domain.ChainSolana:
		return wallet.NewEd25519Deriver(), nil
	case domain.ChainBitcoin:
		deriver, err := wallet.NewSecp256k1Deriver(s.network)
		if err != nil {
			return nil, err
		}
		return deriver, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChain, string(chain))
	}
}

func (s *accountService) export(
	ctx context.Context, instance domain.Instance, accounts []domain.Account,
) error {
	if s.exporter == nil {
		return nil
	}
	if err := s.exporter.Export(ctx, instance, accounts); err != nil {
		return fmt.Errorf("export accounts: %w", err)
	}
	return nil
}

func (s *accountService) repo() domain.AccountRepository {
	return s.repoManager.AccountRepository()
}

// isAccountNotFound tells apart the external addresses from the accounts of
// the instance.
func isAccountNotFound(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound)
}

// checkDerivationPath rejects a stored account whose path does not match the
// one its index derives from on the chain.
func checkDerivationPath(chain domain.ChainFamily, account domain.Account) error {
	path, err := wallet.ParseDerivationPath(account.DerivationPath)
	if err != nil {
		return fmt.Errorf(
			"%w: account %d: %s", domain.ErrDerivation, account.Index, err,
		)
	}

	expected := wallet.BitcoinAccountPath(account.Index)
	if chain == domain.ChainSolana {
		expected = wallet.SolanaAccountPath(account.Index)
	}
	if path.String() != expected.String() {
		return fmt.Errorf(
			"%w: account %d has path %s, expected %s",
			domain.ErrDerivation, account.Index, path, expected,
		)
	}
	return nil
}

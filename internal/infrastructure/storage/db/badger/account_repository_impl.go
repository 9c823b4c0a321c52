package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type accountRepositoryImpl struct {
	store *badgerhold.Store
}

// NewAccountRepositoryImpl initialize a badger implementation of the
// domain.AccountRepository
func NewAccountRepositoryImpl(store *badgerhold.Store) domain.AccountRepository {
	return accountRepositoryImpl{store}
}

func (r accountRepositoryImpl) AddAccounts(
	ctx context.Context, accounts []domain.Account,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for i := range accounts {
			account := accounts[i]
			if err := r.store.TxUpsert(tx, account.Key(), &account); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r accountRepositoryImpl) GetAccounts(
	ctx context.Context, instanceKey string,
) ([]domain.Account, error) {
	query := badgerhold.Where("InstanceKey").Eq(instanceKey).SortBy("Index")

	var accounts []domain.Account
	if err := r.store.Find(&accounts, query); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r accountRepositoryImpl) GetAccountByAddress(
	ctx context.Context, instanceKey, addr string,
) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.Badger().View(func(tx *badger.Txn) error {
		var err error
		account, err = r.findAccount(tx, instanceKey, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r accountRepositoryImpl) UpdateAccount(
	ctx context.Context, instanceKey, addr string,
	updateFn func(a *domain.Account) (*domain.Account, error),
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		account, err := r.findAccount(tx, instanceKey, addr)
		if err != nil {
			return err
		}

		updatedAccount, err := updateFn(account)
		if err != nil {
			return err
		}

		return r.store.TxUpdate(tx, updatedAccount.Key(), updatedAccount)
	})
}

func (r accountRepositoryImpl) DeleteAccounts(
	ctx context.Context, instanceKey string,
) error {
	return r.store.DeleteMatching(
		&domain.Account{}, badgerhold.Where("InstanceKey").Eq(instanceKey),
	)
}

func (r accountRepositoryImpl) findAccount(
	tx *badger.Txn, instanceKey, addr string,
) (*domain.Account, error) {
	query := badgerhold.Where("InstanceKey").Eq(instanceKey).
		And("Address").Eq(addr)

	var accounts []domain.Account
	if err := r.store.TxFind(tx, &accounts, query); err != nil {
		return nil, err
	}
	if len(accounts) <= 0 {
		return nil, domain.ErrAccountNotFound
	}
	return &accounts[0], nil
}

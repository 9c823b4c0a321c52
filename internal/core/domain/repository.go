package domain

import "context"

// AccountRepository is the abstraction for any kind of database intended to
// persist the derived accounts of every instance.
type AccountRepository interface {
	// AddAccounts inserts or replaces the given accounts.
	AddAccounts(ctx context.Context, accounts []Account) error
	// GetAccounts returns the accounts of the instance ordered by index.
	GetAccounts(ctx context.Context, instanceKey string) ([]Account, error)
	// GetAccountByAddress returns the account of the instance owning addr.
	GetAccountByAddress(
		ctx context.Context, instanceKey, addr string,
	) (*Account, error)
	// UpdateAccount allows to commit multiple changes to an account.
	UpdateAccount(
		ctx context.Context, instanceKey, addr string,
		updateFn func(a *Account) (*Account, error),
	) error
	// DeleteAccounts removes all the accounts of the instance.
	DeleteAccounts(ctx context.Context, instanceKey string) error
}

// InstanceRepository is the abstraction for any kind of database intended
// to persist instances, keyed by node id.
type InstanceRepository interface {
	AddInstance(ctx context.Context, instance Instance) error
	GetInstance(ctx context.Context, nodeID string) (*Instance, error)
	ListInstances(ctx context.Context) ([]Instance, error)
	UpdateInstance(
		ctx context.Context, nodeID string,
		updateFn func(i *Instance) (*Instance, error),
	) error
	DeleteInstance(ctx context.Context, nodeID string) error
}

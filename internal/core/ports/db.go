package ports

import "github.com/tdex-network/devnet-forge/internal/core/domain"

// RepoManager holds the repositories of the persisted domain entities.
type RepoManager interface {
	AccountRepository() domain.AccountRepository
	InstanceRepository() domain.InstanceRepository
	Close()
}

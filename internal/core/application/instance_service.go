package application

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
)

type RegisterInstanceOpts struct {
	Chain         domain.ChainFamily
	ID            string
	Name          string
	RPCEndpoint   string
	RPCUser       string
	RPCPassword   string
	RPCWallet     string
	AccountsCount int
}

// InstanceService keeps track of the instances and of their lifecycle.
// Instances are namespaced by node id, hence the same mnemonic can be used
// with different daemons without sharing accounts.
type InstanceService interface {
	// Register returns the instance with the given chain and id, creating it
	// if it does not exist. Rpc settings and accounts count of an existing
	// instance are updated with the given ones.
	Register(
		ctx context.Context, opts RegisterInstanceOpts,
	) (*domain.Instance, error)
	Start(ctx context.Context, nodeID string) (*domain.Instance, error)
	Stop(ctx context.Context, nodeID string) (*domain.Instance, error)
	Get(ctx context.Context, nodeID string) (*domain.Instance, error)
	List(ctx context.Context) ([]domain.Instance, error)
	// Remove deletes the instance together with its accounts.
	Remove(ctx context.Context, nodeID string) error
}

type instanceService struct {
	repoManager ports.RepoManager
	accounts    AccountService
}

func NewInstanceService(
	repoManager ports.RepoManager, accounts AccountService,
) (InstanceService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if accounts == nil {
		return nil, fmt.Errorf("missing account service")
	}
	return &instanceService{repoManager, accounts}, nil
}

func (s *instanceService) Register(
	ctx context.Context, opts RegisterInstanceOpts,
) (*domain.Instance, error) {
	instance, err := domain.NewInstance(
		opts.Chain, opts.ID, opts.Name, opts.RPCEndpoint, opts.AccountsCount,
	)
	if err != nil {
		return nil, err
	}
	instance.RPCUser = opts.RPCUser
	instance.RPCPassword = opts.RPCPassword
	instance.RPCWallet = opts.RPCWallet
	nodeID := instance.NodeID()

	existing, err := s.repo().GetInstance(ctx, nodeID)
	if err != nil && !errors.Is(err, domain.ErrInstanceNotFound) {
		return nil, err
	}

	if existing == nil {
		if err := s.repo().AddInstance(ctx, *instance); err != nil {
			return nil, err
		}
		log.WithField("instance", nodeID).Info("registered new instance")
		return instance, nil
	}

	if sameRPC(*existing, *instance) &&
		existing.AccountsCount == instance.AccountsCount &&
		(opts.Name == "" || existing.Name == opts.Name) {
		return existing, nil
	}

	if err := s.repo().UpdateInstance(
		ctx, nodeID, func(i *domain.Instance) (*domain.Instance, error) {
			i.RPCEndpoint = instance.RPCEndpoint
			i.RPCUser = instance.RPCUser
			i.RPCPassword = instance.RPCPassword
			i.RPCWallet = instance.RPCWallet
			i.AccountsCount = instance.AccountsCount
			if opts.Name != "" {
				i.Name = opts.Name
			}
			return i, nil
		},
	); err != nil {
		return nil, err
	}
	return s.repo().GetInstance(ctx, nodeID)
}

func (s *instanceService) Start(
	ctx context.Context, nodeID string,
) (*domain.Instance, error) {
	return s.updateStatus(ctx, nodeID, func(i *domain.Instance) error {
		return i.Start()
	})
}

func (s *instanceService) Stop(
	ctx context.Context, nodeID string,
) (*domain.Instance, error) {
	return s.updateStatus(ctx, nodeID, func(i *domain.Instance) error {
		return i.Stop()
	})
}

func (s *instanceService) Get(
	ctx context.Context, nodeID string,
) (*domain.Instance, error) {
	return s.repo().GetInstance(ctx, nodeID)
}

func (s *instanceService) List(ctx context.Context) ([]domain.Instance, error) {
	return s.repo().ListInstances(ctx)
}

func (s *instanceService) Remove(ctx context.Context, nodeID string) error {
	instance, err := s.repo().GetInstance(ctx, nodeID)
	if err != nil {
		return err
	}

	if err := s.accounts.Reset(ctx, *instance); err != nil {
		return err
	}
	if err := s.repo().DeleteInstance(ctx, nodeID); err != nil {
		return err
	}

	log.WithField("instance", nodeID).Info("removed instance")
	return nil
}

func (s *instanceService) updateStatus(
	ctx context.Context, nodeID string, fn func(i *domain.Instance) error,
) (*domain.Instance, error) {
	if err := s.repo().UpdateInstance(
		ctx, nodeID, func(i *domain.Instance) (*domain.Instance, error) {
			if err := fn(i); err != nil {
				return nil, err
			}
			return i, nil
		},
	); err != nil {
		return nil, err
	}

	instance, err := s.repo().GetInstance(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"instance": nodeID,
		"status":   instance.Status,
	}).Debug("instance status updated")
	return instance, nil
}

func (s *instanceService) repo() domain.InstanceRepository {
	return s.repoManager.InstanceRepository()
}

func sameRPC(a, b domain.Instance) bool {
	return a.RPCEndpoint == b.RPCEndpoint &&
		a.RPCUser == b.RPCUser &&
		a.RPCPassword == b.RPCPassword &&
		a.RPCWallet == b.RPCWallet
}

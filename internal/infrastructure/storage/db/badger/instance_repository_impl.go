package dbbadger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type instanceRepositoryImpl struct {
	store *badgerhold.Store
}

// NewInstanceRepositoryImpl initialize a badger implementation of the
// domain.InstanceRepository
func NewInstanceRepositoryImpl(store *badgerhold.Store) domain.InstanceRepository {
	return instanceRepositoryImpl{store}
}

func (r instanceRepositoryImpl) AddInstance(
	ctx context.Context, instance domain.Instance,
) error {
	if err := r.store.Insert(instance.NodeID(), &instance); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("instance %s already exists", instance.NodeID())
		}
		return err
	}
	return nil
}

func (r instanceRepositoryImpl) GetInstance(
	ctx context.Context, nodeID string,
) (*domain.Instance, error) {
	var instance domain.Instance
	if err := r.store.Get(nodeID, &instance); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, err
	}
	return &instance, nil
}

func (r instanceRepositoryImpl) ListInstances(
	ctx context.Context,
) ([]domain.Instance, error) {
	var instances []domain.Instance
	if err := r.store.Find(
		&instances, (&badgerhold.Query{}).SortBy("Chain", "ID"),
	); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r instanceRepositoryImpl) UpdateInstance(
	ctx context.Context, nodeID string,
	updateFn func(i *domain.Instance) (*domain.Instance, error),
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var instance domain.Instance
		if err := r.store.TxGet(tx, nodeID, &instance); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrInstanceNotFound
			}
			return err
		}

		updatedInstance, err := updateFn(&instance)
		if err != nil {
			return err
		}

		return r.store.TxUpdate(tx, nodeID, updatedInstance)
	})
}

func (r instanceRepositoryImpl) DeleteInstance(
	ctx context.Context, nodeID string,
) error {
	if err := r.store.Delete(nodeID, domain.Instance{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}

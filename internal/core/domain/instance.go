package domain

import (
	"fmt"
	"regexp"
	"time"
)

var instanceIDRegexp = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type InstanceStatus string

const (
	InstanceRunning InstanceStatus = "running"
	InstanceStopped InstanceStatus = "stopped"
)

// Instance namespaces a chain daemon and the accounts derived for it. Two
// instances never share accounts, even when they use the same mnemonic.
// RPCUser, RPCPassword and RPCWallet authenticate against a bitcoind
// endpoint and are left empty for solana instances.
type Instance struct {
	ID            string
	Chain         ChainFamily
	Name          string
	RPCEndpoint   string
	RPCUser       string
	RPCPassword   string
	RPCWallet     string
	AccountsCount int
	Status        InstanceStatus
	StartedAt     int64
	StoppedAt     int64
}

// NodeID returns "<chain>:<instanceID>".
func NodeID(chain ChainFamily, instanceID string) string {
	return fmt.Sprintf("%s:%s", chain, instanceID)
}

func NewInstance(
	chain ChainFamily, id, name, rpcEndpoint string, accountsCount int,
) (*Instance, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	if err := validateInstanceID(id); err != nil {
		return nil, err
	}
	if accountsCount <= 0 {
		return nil, fmt.Errorf("accounts count must be greater than zero")
	}
	if name == "" {
		name = id
	}
	return &Instance{
		ID:            id,
		Chain:         chain,
		Name:          name,
		RPCEndpoint:   rpcEndpoint,
		AccountsCount: accountsCount,
		Status:        InstanceStopped,
	}, nil
}

// Validate checks the chain and id of an instance not built with
// NewInstance, ie. one decoded from storage.
func (i Instance) Validate() error {
	if err := i.Chain.Validate(); err != nil {
		return err
	}
	return validateInstanceID(i.ID)
}

func (i Instance) NodeID() string {
	return NodeID(i.Chain, i.ID)
}

func (i Instance) IsRunning() bool {
	return i.Status == InstanceRunning
}

// Start marks the instance as running.
func (i *Instance) Start() error {
	if i.IsRunning() {
		return ErrInstanceAlreadyRunning
	}
	i.Status = InstanceRunning
	i.StartedAt = time.Now().Unix()
	i.StoppedAt = 0
	return nil
}

// Stop marks the instance as stopped.
func (i *Instance) Stop() error {
	if !i.IsRunning() {
		return ErrInstanceNotRunning
	}
	i.Status = InstanceStopped
	i.StoppedAt = time.Now().Unix()
	return nil
}

// validateInstanceID accepts lowercase letters and digits, optionally
// separated by single hyphens, ie. "my-node-1". The id names the instance
// directory, so anything else is rejected.
func validateInstanceID(id string) error {
	if !instanceIDRegexp.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidInstanceID, id)
	}
	return nil
}

package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	dbbadger "github.com/tdex-network/devnet-forge/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/devnet-forge/internal/infrastructure/storage/file"
	"github.com/tdex-network/devnet-forge/pkg/stats"
)

// Config is the composition root of the application services. Services
// are built lazily on first access and shared afterwards.
//
// The daemon of an instance is built from its rpc settings by NewSolanaNode
// or NewBitcoinNode, one per endpoint. SolanaNode and BitcoinNode serve the
// instances of their chain when the matching factory is not set or the
// instance has no endpoint.
type Config struct {
	// DBDir is the badger datadir, empty for an in-memory db.
	DBDir string
	// ExportDir is the root of the accounts files, empty to disable them.
	ExportDir string

	SolanaNode     ports.SolanaNode
	BitcoinNode    ports.BitcoinNode
	NewSolanaNode  SolanaNodeFactory
	NewBitcoinNode BitcoinNodeFactory
	Network        *chaincfg.Params

	SatsPerVByte         uint64
	DustThreshold        uint64
	AirdropMaxAttempts   int
	AirdropBackoff       time.Duration
	AirdropRatePerSecond int
	ConfirmationAttempts int
	ConfirmationInterval time.Duration
	ReadinessAttempts    int
	ReadinessDelay       time.Duration

	Registerer prometheus.Registerer

	lock         sync.Mutex
	repo         ports.RepoManager
	stats        *stats.FundingStats
	accounts     AccountService
	instances    InstanceService
	solanaNodes  map[string]ports.SolanaNode
	bitcoinNodes map[string]ports.BitcoinNode
	strategies   map[string]FundingStrategy
}

// SolanaNodeFactory returns the client of the validator at endpoint.
type SolanaNodeFactory func(endpoint string) (ports.SolanaNode, error)

// BitcoinNodeFactory returns the client of the bitcoind serving instance,
// authenticated with its rpc credentials.
type BitcoinNodeFactory func(instance domain.Instance) (ports.BitcoinNode, error)

// instanceNode is the daemon serving an instance.
type instanceNode struct {
	key     string
	solana  ports.SolanaNode
	bitcoin ports.BitcoinNode
}

func (n instanceNode) source() ports.BalanceSource {
	if n.solana != nil {
		return n.solana
	}
	return n.bitcoin
}

func (n instanceNode) healthCheck() HealthCheckFunc {
	if n.solana != nil {
		return n.solana.Health
	}
	return func(ctx context.Context) error {
		_, err := n.bitcoin.GetBlockCount(ctx)
		return err
	}
}

func (c *Config) Validate() error {
	if c.Network == nil {
		return fmt.Errorf("missing bitcoin network")
	}
	if c.SolanaNode == nil && c.NewSolanaNode == nil &&
		c.BitcoinNode == nil && c.NewBitcoinNode == nil {
		return fmt.Errorf("at least one of solana and bitcoin nodes is required")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	svc, _ := c.repoManager()
	return svc
}

func (c *Config) AccountService() AccountService {
	svc, _ := c.accountService()
	return svc
}

func (c *Config) InstanceService() InstanceService {
	svc, _ := c.instanceService()
	return svc
}

func (c *Config) Stats() *stats.FundingStats {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.stats == nil {
		c.stats = stats.NewFundingStats(c.Registerer)
	}
	return c.stats
}

// BalanceService returns the BalanceService of the given instance, bound
// to the daemon of the instance.
func (c *Config) BalanceService(instance domain.Instance) (BalanceService, error) {
	strategy, err := c.FundingStrategy(instance)
	if err != nil {
		return nil, err
	}
	node, err := c.node(instance)
	if err != nil {
		return nil, err
	}
	accounts, err := c.accountService()
	if err != nil {
		return nil, err
	}
	return NewBalanceService(
		instance, accounts, node.source(), strategy, c.Network, c.Stats(),
	)
}

// FundingStrategy returns the strategy selected for the chain family of the
// instance, funding through the daemon of the instance. Instances served by
// the same daemon share the strategy.
func (c *Config) FundingStrategy(instance domain.Instance) (FundingStrategy, error) {
	fundingStats := c.Stats()

	c.lock.Lock()
	defer c.lock.Unlock()

	node, err := c.nodeLocked(instance)
	if err != nil {
		return nil, err
	}
	if strategy, ok := c.strategies[node.key]; ok {
		return strategy, nil
	}

	strategy, err := NewFundingStrategy(instance.Chain, FundingStrategyOpts{
		SolanaNode:           node.solana,
		BitcoinNode:          node.bitcoin,
		Network:              c.Network,
		MaxAttempts:          c.AirdropMaxAttempts,
		Backoff:              c.AirdropBackoff,
		RatePerSecond:        c.AirdropRatePerSecond,
		ConfirmationAttempts: c.ConfirmationAttempts,
		ConfirmationInterval: c.ConfirmationInterval,
		SatsPerVByte:         c.SatsPerVByte,
		DustThreshold:        c.DustThreshold,
		Stats:                fundingStats,
	})
	if err != nil {
		return nil, err
	}

	if c.strategies == nil {
		c.strategies = make(map[string]FundingStrategy)
	}
	c.strategies[node.key] = strategy
	return strategy, nil
}

// WaitReady waits for the daemon of the given instance to serve requests.
func (c *Config) WaitReady(ctx context.Context, instance domain.Instance) error {
	node, err := c.node(instance)
	if err != nil {
		return err
	}

	return WaitReady(ctx, node.healthCheck(), ReadinessOpts{
		Attempts: c.ReadinessAttempts,
		Delay:    c.ReadinessDelay,
	})
}

func (c *Config) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.repo != nil {
		c.repo.Close()
		c.repo = nil
	}
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.repo == nil {
		logger := log.New()
		logger.SetLevel(log.WarnLevel)
		repoManager, err := dbbadger.NewRepoManager(c.DBDir, logger)
		if err != nil {
			return nil, err
		}
		c.repo = repoManager
	}
	return c.repo, nil
}

func (c *Config) accountService() (AccountService, error) {
	repo, err := c.repoManager()
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.accounts == nil {
		var exporter ports.AccountExporter
		if c.ExportDir != "" {
			if exporter, err = file.NewExporter(c.ExportDir); err != nil {
				return nil, err
			}
		}
		accounts, err := NewAccountService(repo, exporter, c.Network)
		if err != nil {
			return nil, err
		}
		c.accounts = accounts
	}
	return c.accounts, nil
}

func (c *Config) instanceService() (InstanceService, error) {
	repo, err := c.repoManager()
	if err != nil {
		return nil, err
	}
	accounts, err := c.accountService()
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.instances == nil {
		instances, err := NewInstanceService(repo, accounts)
		if err != nil {
			return nil, err
		}
		c.instances = instances
	}
	return c.instances, nil
}

func (c *Config) node(instance domain.Instance) (*instanceNode, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.nodeLocked(instance)
}

func (c *Config) nodeLocked(instance domain.Instance) (*instanceNode, error) {
	switch instance.Chain {
	case domain.ChainSolana:
		if c.NewSolanaNode == nil || instance.RPCEndpoint == "" {
			if c.SolanaNode == nil {
				return nil, fmt.Errorf("missing solana node")
			}
			return &instanceNode{key: instance.Chain.String(), solana: c.SolanaNode}, nil
		}

		key := nodeKey(instance)
		node, ok := c.solanaNodes[key]
		if !ok {
			newNode, err := c.NewSolanaNode(instance.RPCEndpoint)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to connect to %s: %w", instance.RPCEndpoint, err,
				)
			}
			if c.solanaNodes == nil {
				c.solanaNodes = make(map[string]ports.SolanaNode)
			}
			c.solanaNodes[key] = newNode
			node = newNode
		}
		return &instanceNode{key: key, solana: node}, nil

	case domain.ChainBitcoin:
		if c.NewBitcoinNode == nil || instance.RPCEndpoint == "" {
			if c.BitcoinNode == nil {
				return nil, fmt.Errorf("missing bitcoin node")
			}
			return &instanceNode{key: instance.Chain.String(), bitcoin: c.BitcoinNode}, nil
		}

		key := nodeKey(instance)
		node, ok := c.bitcoinNodes[key]
		if !ok {
			newNode, err := c.NewBitcoinNode(instance)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to connect to %s: %w", instance.RPCEndpoint, err,
				)
			}
			if c.bitcoinNodes == nil {
				c.bitcoinNodes = make(map[string]ports.BitcoinNode)
			}
			c.bitcoinNodes[key] = newNode
			node = newNode
		}
		return &instanceNode{key: key, bitcoin: node}, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChain, string(instance.Chain))
	}
}

// nodeKey identifies the daemon serving an instance: its endpoint and, for
// bitcoind, the credentials and wallet the calls are scoped to.
func nodeKey(instance domain.Instance) string {
	if instance.Chain == domain.ChainBitcoin {
		return fmt.Sprintf(
			"%s|%s|%s|%s|%s", instance.Chain, instance.RPCEndpoint,
			instance.RPCUser, instance.RPCPassword, instance.RPCWallet,
		)
	}
	return fmt.Sprintf("%s|%s", instance.Chain, instance.RPCEndpoint)
}

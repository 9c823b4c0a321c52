package bitcoinrpc

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/circuitbreaker"
)

// DefaultWallet is the name of the bitcoind wallet used to fund accounts.
const DefaultWallet = "chain-forge"

var (
	// ErrMissingRPCHost ...
	ErrMissingRPCHost = errors.New("missing rpc host")
	// ErrMissingRPCPort ...
	ErrMissingRPCPort = errors.New("missing rpc port")
	// ErrMissingRPCUser ...
	ErrMissingRPCUser = errors.New("missing rpc user")
	// ErrMissingRPCPassword ...
	ErrMissingRPCPassword = errors.New("missing rpc password")
)

type Config struct {
	// Addr is the host:port of the bitcoind JSON-RPC interface.
	Addr     string
	User     string
	Password string
	Wallet   string
	Network  *chaincfg.Params
}

func (c Config) validate() error {
	if c.Network == nil {
		return fmt.Errorf("missing network")
	}
	parsed, err := url.Parse("http://" + c.Addr)
	if err != nil {
		return fmt.Errorf("invalid rpc addr: %w", err)
	}
	if parsed.Hostname() == "" {
		return ErrMissingRPCHost
	}
	if parsed.Port() == "" {
		return ErrMissingRPCPort
	}
	if c.User == "" {
		return ErrMissingRPCUser
	}
	if c.Password == "" {
		return ErrMissingRPCPassword
	}
	return nil
}

type service struct {
	client  *rpcclient.Client
	cb      *gobreaker.CircuitBreaker
	network *chaincfg.Params
}

// NewService returns the bitcoind implementation of ports.BitcoinNode.
// It talks HTTP POST JSON-RPC with no TLS termination, scoped to the
// configured wallet. No call is made until the first request.
func NewService(cfg Config) (ports.BitcoinNode, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Wallet == "" {
		cfg.Wallet = DefaultWallet
	}

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         fmt.Sprintf("%s/wallet/%s", cfg.Addr, cfg.Wallet),
		User:         cfg.User,
		Pass:         cfg.Password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, err
	}

	cb := circuitbreaker.NewCircuitBreaker(
		"bitcoind", func(name string, from, to gobreaker.State) {
			log.WithField("breaker", name).Warnf(
				"rpc circuit breaker moved from %s to %s", from, to,
			)
		},
	)

	return &service{client, cb, cfg.Network}, nil
}

func (s *service) GetBlockCount(ctx context.Context) (int64, error) {
	res, err := s.execute(ctx, "getblockcount", func() (interface{}, error) {
		return s.client.GetBlockCount()
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// execute runs fn through the circuit breaker. Transport failures and calls
// refused by the open breaker map to domain.ErrRpcUnavailable, errors
// returned by the daemon are wrapped as they are.
func (s *service) execute(
	ctx context.Context, method string, fn func() (interface{}, error),
) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.cb.Execute(fn)
	if err == nil {
		return res, nil
	}

	if circuitbreaker.IsOpen(err) {
		return nil, fmt.Errorf(
			"%w: %s: %s breaker is open", domain.ErrRpcUnavailable, method, s.cb.Name(),
		)
	}

	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return nil, fmt.Errorf("%w: %s: %s", domain.ErrRpcUnavailable, method, err)
}

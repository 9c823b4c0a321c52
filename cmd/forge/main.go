package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tdex-network/devnet-forge/internal/config"
	"github.com/tdex-network/devnet-forge/internal/core/application"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	bitcoinrpc "github.com/tdex-network/devnet-forge/internal/infrastructure/bitcoin-rpc"
	solanarpc "github.com/tdex-network/devnet-forge/internal/infrastructure/solana-rpc"
	"github.com/tdex-network/devnet-forge/pkg/stats"
)

const metricsFile = "metrics.txt"

var (
	chainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "the chain family of the instance, one of solana or bitcoin",
		Value: domain.ChainSolana.String(),
	}
	instanceFlag = &cli.StringFlag{
		Name:  "instance",
		Usage: "the id of the instance",
		Value: "default",
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "forge"
	app.Usage = "derive and fund accounts of local solana and bitcoin regtest daemons"
	app.Flags = []cli.Flag{chainFlag, instanceFlag}
	app.Before = func(*cli.Context) error {
		if err := config.InitConfig(); err != nil {
			return err
		}
		log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
		return nil
	}
	app.Commands = append(
		app.Commands,
		&instances,
		&accounts,
		&setbalance,
		&transfer,
		&refresh,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// forge bundles what a command needs to run against the daemons.
type forge struct {
	ctx      context.Context
	cfg      *application.Config
	registry *prometheus.Registry
	chain    domain.ChainFamily
	id       string
}

func newForge(c *cli.Context) (*forge, func(), error) {
	chain, err := domain.ParseChainFamily(c.String(chainFlag.Name))
	if err != nil {
		return nil, nil, err
	}

	registry := prometheus.NewRegistry()
	cfg := &application.Config{
		DBDir:                config.GetDbDir(),
		ExportDir:            config.GetDatadir(),
		NewSolanaNode:        solanarpc.NewService,
		NewBitcoinNode:       newBitcoinNode,
		Network:              config.GetNetwork(),
		SatsPerVByte:         config.GetUint64(config.FeeSatsPerVByteKey),
		DustThreshold:        config.GetUint64(config.DustThresholdKey),
		AirdropMaxAttempts:   config.GetInt(config.AirdropMaxAttemptsKey),
		AirdropBackoff:       config.GetDuration(config.AirdropBackoffKey),
		AirdropRatePerSecond: config.GetInt(config.AirdropRatePerSecondKey),
		ConfirmationAttempts: config.GetInt(config.ConfirmationAttemptsKey),
		ConfirmationInterval: config.GetDuration(config.ConfirmationIntervalKey),
		ReadinessAttempts:    config.GetInt(config.ReadinessAttemptsKey),
		ReadinessDelay:       config.GetDuration(config.ReadinessDelayKey),
		Registerer:           registry,
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(
		c.Context, syscall.SIGINT, syscall.SIGTERM,
	)

	cleanup := func() {
		stop()
		path := filepath.Join(config.GetStatsDir(), metricsFile)
		if err := stats.DumpMetrics(registry, path); err != nil {
			log.WithError(err).Warn("failed to dump metrics")
		}
		cfg.Close()
	}

	return &forge{ctx, cfg, registry, chain, c.String(instanceFlag.Name)}, cleanup, nil
}

func (f *forge) nodeID() string {
	return domain.NodeID(f.chain, f.id)
}

// instance returns the registered instance selected by the global flags
// after making sure its own daemon is reachable.
func (f *forge) instance() (*domain.Instance, error) {
	instance, err := f.cfg.InstanceService().Get(f.ctx, f.nodeID())
	if err != nil {
		if errors.Is(err, domain.ErrInstanceNotFound) {
			return nil, fmt.Errorf(
				"instance %s not found: try 'instances create'", f.nodeID(),
			)
		}
		return nil, err
	}
	if err := f.cfg.WaitReady(f.ctx, *instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func (f *forge) balanceService() (application.BalanceService, error) {
	instance, err := f.instance()
	if err != nil {
		return nil, err
	}
	return f.cfg.BalanceService(*instance)
}

func newBitcoinNode(instance domain.Instance) (ports.BitcoinNode, error) {
	endpoint, err := url.Parse(instance.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid rpc url: %w", err)
	}
	addr := endpoint.Host
	if addr == "" {
		addr = instance.RPCEndpoint
	}
	return bitcoinrpc.NewService(bitcoinrpc.Config{
		Addr:     addr,
		User:     instance.RPCUser,
		Password: instance.RPCPassword,
		Wallet:   instance.RPCWallet,
		Network:  config.GetNetwork(),
	})
}

func printJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[forge] %v\n", err)
	os.Exit(1)
}

package main

import (
	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"

	"github.com/tdex-network/devnet-forge/internal/config"
	"github.com/tdex-network/devnet-forge/internal/core/application"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
)

var instances = cli.Command{
	Name:  "instances",
	Usage: "manage the chain instances and their accounts",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "register an instance, wait for its daemon and derive its accounts",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "id",
					Usage: "the instance id, random if omitted and --instance is not set",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "a display name for the instance",
				},
				&cli.IntFlag{
					Name:  "accounts",
					Usage: "the number of accounts to derive",
				},
				&cli.StringFlag{
					Name:  "mnemonic",
					Usage: "the mnemonic to derive accounts from, generated if omitted",
				},
				&cli.StringFlag{
					Name:  "rpc-url",
					Usage: "the rpc url of the daemon, defaults to the configured one",
				},
				&cli.StringFlag{
					Name:  "rpc-user",
					Usage: "the bitcoind rpc user, defaults to the configured one",
				},
				&cli.StringFlag{
					Name:  "rpc-password",
					Usage: "the bitcoind rpc password, defaults to the configured one",
				},
				&cli.StringFlag{
					Name:  "wallet",
					Usage: "the bitcoind wallet funding the accounts, defaults to the configured one",
				},
			},
			Action: createInstanceAction,
		},
		{
			Name:   "list",
			Usage:  "list the registered instances",
			Action: listInstancesAction,
		},
		{
			Name:   "stop",
			Usage:  "mark the instance as stopped",
			Action: stopInstanceAction,
		},
		{
			Name:   "remove",
			Usage:  "remove the instance together with its accounts",
			Action: removeInstanceAction,
		},
	},
}

type instanceView struct {
	NodeID      string        `json:"nodeId"`
	Name        string        `json:"name"`
	RPCEndpoint string        `json:"rpcUrl"`
	Status      string        `json:"status"`
	StartedAt   int64         `json:"startedAt,omitempty"`
	Accounts    []accountView `json:"accounts,omitempty"`
}

func createInstanceAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id := ctx.String("id")
	if id == "" {
		id = f.id
		if !ctx.IsSet(instanceFlag.Name) {
			id = randstr.Hex(8)
		}
	}
	count := ctx.Int("accounts")
	if count <= 0 {
		count = config.GetInt(config.AccountsKey)
	}

	opts := application.RegisterInstanceOpts{
		Chain:         f.chain,
		ID:            id,
		Name:          ctx.String("name"),
		RPCEndpoint:   stringOr(ctx.String("rpc-url"), defaultRPCEndpoint(f.chain)),
		AccountsCount: count,
	}
	if f.chain == domain.ChainBitcoin {
		opts.RPCUser = stringOr(
			ctx.String("rpc-user"), config.GetString(config.BitcoinRPCUserKey),
		)
		opts.RPCPassword = stringOr(
			ctx.String("rpc-password"), config.GetString(config.BitcoinRPCPasswordKey),
		)
		opts.RPCWallet = stringOr(
			ctx.String("wallet"), config.GetString(config.BitcoinWalletKey),
		)
	}

	svc := f.cfg.InstanceService()
	instance, err := svc.Register(f.ctx, opts)
	if err != nil {
		return err
	}

	if err := f.cfg.WaitReady(f.ctx, *instance); err != nil {
		return err
	}

	list, err := f.cfg.AccountService().Materialize(
		f.ctx, *instance, ctx.String("mnemonic"), count,
	)
	if err != nil {
		return err
	}

	if !instance.IsRunning() {
		if instance, err = svc.Start(f.ctx, instance.NodeID()); err != nil {
			return err
		}
	}

	view := toInstanceView(*instance)
	view.Accounts = toAccountViews(instance.Chain, list)
	printJSON(view)
	return nil
}

func listInstancesAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := f.cfg.InstanceService().List(f.ctx)
	if err != nil {
		return err
	}

	views := make([]instanceView, 0, len(list))
	for _, i := range list {
		views = append(views, toInstanceView(i))
	}
	printJSON(views)
	return nil
}

func stopInstanceAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	instance, err := f.cfg.InstanceService().Stop(f.ctx, f.nodeID())
	if err != nil {
		return err
	}
	printJSON(toInstanceView(*instance))
	return nil
}

func removeInstanceAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := f.cfg.InstanceService().Remove(f.ctx, f.nodeID()); err != nil {
		return err
	}
	printJSON(map[string]string{"removed": f.nodeID()})
	return nil
}

func defaultRPCEndpoint(chain domain.ChainFamily) string {
	if chain == domain.ChainBitcoin {
		return "http://" + config.GetString(config.BitcoinRPCAddrKey)
	}
	return config.GetString(config.SolanaRPCURLKey)
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func toInstanceView(i domain.Instance) instanceView {
	return instanceView{
		NodeID:      i.NodeID(),
		Name:        i.Name,
		RPCEndpoint: i.RPCEndpoint,
		Status:      string(i.Status),
		StartedAt:   i.StartedAt,
	}
}

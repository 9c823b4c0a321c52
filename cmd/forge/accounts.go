package main

import (
	"encoding/hex"

	"github.com/urfave/cli/v2"

	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/pkg/mathutil"
)

var accounts = cli.Command{
	Name:  "accounts",
	Usage: "list the accounts of the instance, deriving the missing ones",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "the mnemonic to derive accounts from, defaults to the stored one",
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "the number of accounts, defaults to the one of the instance",
		},
	},
	Action: accountsAction,
}

type accountView struct {
	Index          uint32 `json:"index"`
	Address        string `json:"address"`
	PublicKey      string `json:"publicKey"`
	DerivationPath string `json:"derivationPath"`
	Balance        string `json:"balance"`
}

func accountsAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	instance, err := f.instance()
	if err != nil {
		return err
	}

	count := ctx.Int("count")
	if count <= 0 {
		count = instance.AccountsCount
	}

	list, err := f.cfg.AccountService().Materialize(
		f.ctx, *instance, ctx.String("mnemonic"), count,
	)
	if err != nil {
		return err
	}

	printJSON(toAccountViews(instance.Chain, list))
	return nil
}

func toAccountViews(
	chain domain.ChainFamily, list []domain.Account,
) []accountView {
	views := make([]accountView, 0, len(list))
	for _, a := range list {
		pubkey := hex.EncodeToString(a.PublicKey)
		if chain == domain.ChainSolana {
			pubkey = a.Address
		}
		views = append(views, accountView{
			Index:          a.Index,
			Address:        a.Address,
			PublicKey:      pubkey,
			DerivationPath: a.DerivationPath,
			Balance:        mathutil.FormatBaseUnits(a.Balance, chain.Decimals()),
		})
	}
	return views
}

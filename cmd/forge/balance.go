package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/pkg/mathutil"
)

var setbalance = cli.Command{
	Name:  "set-balance",
	Usage: "raise the balance of an address, or of every account, to a target",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "address",
			Usage: "the address to fund, all accounts of the instance if omitted",
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the target balance in whole units (SOL or BTC)",
			Required: true,
		},
	},
	Action: setBalanceAction,
}

var transfer = cli.Command{
	Name:  "transfer",
	Usage: "send an amount from an account of a bitcoin instance to an address",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "from",
			Usage:    "the sender account address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the receiver address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount to send in BTC",
			Required: true,
		},
	},
	Action: transferAction,
}

var refresh = cli.Command{
	Name:   "refresh",
	Usage:  "update the stored balances of the accounts from the daemon",
	Action: refreshAction,
}

type fundingView struct {
	OperationID string `json:"operationId"`
	Address     string `json:"address"`
	Outcome     string `json:"outcome"`
	Balance     string `json:"balance"`
	Delta       string `json:"delta,omitempty"`
	Fee         string `json:"fee,omitempty"`
	Tx          string `json:"tx,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func setBalanceAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	target, err := mathutil.ParseBaseUnits(
		ctx.String("amount"), f.chain.Decimals(),
	)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	svc, err := f.balanceService()
	if err != nil {
		return err
	}

	if addr := ctx.String("address"); addr != "" {
		result, err := svc.SetBalance(f.ctx, addr, target)
		if err != nil {
			return err
		}
		printJSON(toFundingView(f.chain, result))
		return nil
	}

	results, err := svc.SetBalances(f.ctx, target)
	views := make([]fundingView, 0, len(results))
	for _, r := range results {
		views = append(views, toFundingView(f.chain, r))
	}
	printJSON(views)
	return err
}

func transferAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	amount, err := mathutil.ParseBaseUnits(
		ctx.String("amount"), f.chain.Decimals(),
	)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	svc, err := f.balanceService()
	if err != nil {
		return err
	}

	from, to := ctx.String("from"), ctx.String("to")
	result, err := svc.Transfer(f.ctx, from, to, amount)
	if err != nil {
		return err
	}

	decimals := f.chain.Decimals()
	printJSON(map[string]string{
		"txid":        result.Receipt.TxRef,
		"amount":      mathutil.FormatBaseUnits(result.Receipt.Amount, decimals),
		"fee":         mathutil.FormatBaseUnits(result.Receipt.Fee, decimals),
		"fromBalance": mathutil.FormatBaseUnits(result.FromBalance, decimals),
		"toBalance":   mathutil.FormatBaseUnits(result.ToBalance, decimals),
	})
	return nil
}

func refreshAction(ctx *cli.Context) error {
	f, cleanup, err := newForge(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := f.balanceService()
	if err != nil {
		return err
	}

	list, err := svc.RefreshBalances(f.ctx)
	printJSON(toAccountViews(f.chain, list))
	return err
}

func toFundingView(
	chain domain.ChainFamily, r domain.FundingResult,
) fundingView {
	decimals := chain.Decimals()
	view := fundingView{
		OperationID: r.OperationID,
		Address:     r.Address,
		Outcome:     r.Kind.String(),
		Balance:     mathutil.FormatBaseUnits(r.Balance, decimals),
		Tx:          r.TxRef,
		Reason:      r.Reason,
	}
	if r.Delta > 0 {
		view.Delta = mathutil.FormatBaseUnits(r.Delta, decimals)
	}
	if r.Fee > 0 {
		view.Fee = mathutil.FormatBaseUnits(r.Fee, decimals)
	}
	return view
}

package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/stats"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentBalanceQueries = 4

// ErrTransferNotSupported is returned when the funding strategy of the
// instance cannot move funds between accounts.
var ErrTransferNotSupported = errors.New(
	"transfers are not supported by the funding strategy of the instance",
)

// BalanceService brings the accounts of an instance to a target balance.
//
// Balances can only be raised: a target lower than the current balance is
// a no-op, not an error. Calls for the same address are not serialized, two
// concurrent SetBalance may both fund the same delta.
type BalanceService interface {
	// SetBalance funds addr with the difference between target and its
	// confirmed balance, if positive.
	SetBalance(
		ctx context.Context, addr string, target uint64,
	) (domain.FundingResult, error)
	// SetBalances reconciles every account of the instance to target, in
	// index order. A failure does not stop the remaining accounts.
	SetBalances(
		ctx context.Context, target uint64,
	) ([]domain.FundingResult, error)
	// Transfer pays amount from one account of the instance to another
	// address and refreshes the balances of both.
	Transfer(
		ctx context.Context, from, to string, amount uint64,
	) (*TransferResult, error)
	// RefreshBalances updates the cached balances of every account with the
	// confirmed ones.
	RefreshBalances(ctx context.Context) ([]domain.Account, error)
}

type TransferResult struct {
	Receipt     FundingReceipt
	FromBalance uint64
	ToBalance   uint64
}

type balanceService struct {
	instance domain.Instance
	accounts AccountService
	source   ports.BalanceSource
	strategy FundingStrategy
	network  *chaincfg.Params
	stats    *stats.FundingStats
}

// NewBalanceService returns the BalanceService of the given instance.
// The funding strategy must be one of the chain of the instance.
func NewBalanceService(
	instance domain.Instance, accounts AccountService,
	source ports.BalanceSource, strategy FundingStrategy,
	network *chaincfg.Params, fundingStats *stats.FundingStats,
) (BalanceService, error) {
	if accounts == nil {
		return nil, fmt.Errorf("missing account service")
	}
	if source == nil {
		return nil, fmt.Errorf("missing balance source")
	}
	if strategy == nil {
		return nil, fmt.Errorf("missing funding strategy")
	}
	if strategy.Chain() != instance.Chain {
		return nil, fmt.Errorf(
			"funding strategy for %s can't be used by %s instance",
			strategy.Chain(), instance.Chain,
		)
	}
	if instance.Chain == domain.ChainBitcoin && network == nil {
		return nil, wallet.ErrNullNetwork
	}

	return &balanceService{
		instance, accounts, source, strategy, network, fundingStats,
	}, nil
}

func (s *balanceService) SetBalance(
	ctx context.Context, addr string, target uint64,
) (domain.FundingResult, error) {
	start := time.Now()
	operationID := uuid.New().String()
	logger := log.WithFields(log.Fields{
		"operation": operationID,
		"instance":  s.instance.NodeID(),
		"address":   addr,
		"target":    target,
	})

	result, err := s.setBalance(ctx, addr, target)
	result.OperationID = operationID

	s.stats.ObserveFunding(
		s.instance.Chain.String(), result.Kind.String(), result.Delta,
		time.Since(start),
	)

	if err != nil {
		logger.WithError(err).Warn("failed to set balance")
		return result, err
	}

	logger.WithFields(log.Fields{
		"outcome": result.Kind,
		"balance": result.Balance,
		"delta":   result.Delta,
		"tx":      result.TxRef,
	}).Info("balance set")
	return result, nil
}

func (s *balanceService) setBalance(
	ctx context.Context, addr string, target uint64,
) (domain.FundingResult, error) {
	if err := s.validateAddress(addr); err != nil {
		return domain.Failed(addr, target, err), err
	}

	current, err := s.source.GetBalance(ctx, addr)
	if err != nil {
		return domain.Failed(addr, target, err), err
	}

	if current >= target {
		if err := s.updateCache(ctx, map[string]uint64{addr: current}); err != nil {
			return domain.Failed(addr, target, err), err
		}
		return domain.NoOp(addr, target, current), nil
	}

	delta := target - current
	receipt, err := s.strategy.Fund(ctx, addr, delta)
	if err != nil {
		return domain.Failed(addr, target, err), err
	}

	balance, err := s.source.GetBalance(ctx, addr)
	if err != nil {
		err = fmt.Errorf(
			"funded with %s but failed to refresh balance: %w", receipt.TxRef, err,
		)
		return domain.Failed(addr, target, err), err
	}
	if err := s.updateCache(ctx, map[string]uint64{addr: balance}); err != nil {
		return domain.Failed(addr, target, err), err
	}

	return domain.Funded(
		addr, target, balance, receipt.Amount, receipt.Fee, receipt.TxRef,
	), nil
}

func (s *balanceService) SetBalances(
	ctx context.Context, target uint64,
) ([]domain.FundingResult, error) {
	accounts, err := s.accounts.Accounts(ctx, s.instance)
	if err != nil {
		return nil, err
	}

	results := make([]domain.FundingResult, 0, len(accounts))
	errs := make([]error, 0)
	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := s.SetBalance(ctx, a.Address, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %d: %w", a.Index, err))
		}
		results = append(results, result)
	}

	return results, joinErrors(len(accounts), errs)
}

func (s *balanceService) Transfer(
	ctx context.Context, from, to string, amount uint64,
) (*TransferResult, error) {
	transferer, ok := s.strategy.(Transferer)
	if !ok {
		return nil, ErrTransferNotSupported
	}

	keyring, err := s.accounts.Keyring(ctx, s.instance)
	if err != nil {
		return nil, err
	}

	receipt, err := transferer.Transfer(ctx, from, to, amount, keyring)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]uint64)
	for _, addr := range []string{from, to} {
		balance, err := s.source.GetBalance(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf(
				"transferred with %s but failed to refresh balance: %w",
				receipt.TxRef, err,
			)
		}
		balances[addr] = balance
	}
	if err := s.updateCache(ctx, balances); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"instance": s.instance.NodeID(),
		"from":     from,
		"to":       to,
		"amount":   amount,
		"fee":      receipt.Fee,
		"txid":     receipt.TxRef,
	}).Info("transfer confirmed")

	return &TransferResult{
		Receipt:     *receipt,
		FromBalance: balances[from],
		ToBalance:   balances[to],
	}, nil
}

func (s *balanceService) RefreshBalances(
	ctx context.Context,
) ([]domain.Account, error) {
	accounts, err := s.accounts.Accounts(ctx, s.instance)
	if err != nil {
		return nil, err
	}

	balances := make([]uint64, len(accounts))
	errs := make([]error, len(accounts))

	eg := &errgroup.Group{}
	eg.SetLimit(maxConcurrentBalanceQueries)
	for i := range accounts {
		i := i
		eg.Go(func() error {
			balances[i], errs[i] = s.source.GetBalance(ctx, accounts[i].Address)
			return nil
		})
	}
	_ = eg.Wait()

	updates := make(map[string]uint64)
	failures := make([]error, 0)
	for i, a := range accounts {
		if errs[i] != nil {
			failures = append(failures, fmt.Errorf("account %d: %w", a.Index, errs[i]))
			continue
		}
		updates[a.Address] = balances[i]
	}

	if err := s.updateCache(ctx, updates); err != nil {
		return nil, err
	}

	refreshed, err := s.accounts.Accounts(ctx, s.instance)
	if err != nil {
		return nil, err
	}
	return refreshed, joinErrors(len(accounts), failures)
}

func (s *balanceService) validateAddress(addr string) error {
	var err error
	switch s.instance.Chain {
	case domain.ChainSolana:
		err = wallet.ValidateSolanaAddress(addr)
	case domain.ChainBitcoin:
		err = wallet.ValidateBitcoinAddress(addr, s.network)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownChain, s.instance.Chain)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}
	return nil
}

func (s *balanceService) updateCache(
	ctx context.Context, balances map[string]uint64,
) error {
	if len(balances) <= 0 {
		return nil
	}
	return s.accounts.UpdateBalances(ctx, s.instance, balances)
}

// joinErrors aggregates the failures of a bulk operation over total items.
// The first failure is wrapped so that errors.Is works on it.
func joinErrors(total int, errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return fmt.Errorf(
			"%d of %d accounts failed, first error: %w", len(errs), total, errs[0],
		)
	}
}

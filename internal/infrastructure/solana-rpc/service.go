package solanarpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
	"github.com/tdex-network/devnet-forge/pkg/circuitbreaker"
)

const healthOk = "ok"

type service struct {
	client *rpc.Client
	cb     *gobreaker.CircuitBreaker
}

// NewService returns the solana-test-validator implementation of
// ports.SolanaNode. Balances and airdrops use the confirmed commitment.
func NewService(endpoint string) (ports.SolanaNode, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	cb := circuitbreaker.NewCircuitBreaker(
		"solana", func(name string, from, to gobreaker.State) {
			log.WithField("breaker", name).Warnf(
				"rpc circuit breaker moved from %s to %s", from, to,
			)
		},
	)
	return &service{rpc.New(endpoint), cb}, nil
}

func (s *service) GetBalance(ctx context.Context, addr string) (uint64, error) {
	pubkey, err := parsePublicKey(addr)
	if err != nil {
		return 0, err
	}

	res, err := s.execute(ctx, "getBalance", func() (interface{}, error) {
		return s.client.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	})
	if err != nil {
		return 0, err
	}
	return res.(*rpc.GetBalanceResult).Value, nil
}

func (s *service) RequestAirdrop(
	ctx context.Context, addr string, lamports uint64,
) (string, error) {
	pubkey, err := parsePublicKey(addr)
	if err != nil {
		return "", err
	}

	res, err := s.execute(ctx, "requestAirdrop", func() (interface{}, error) {
		return s.client.RequestAirdrop(
			ctx, pubkey, lamports, rpc.CommitmentConfirmed,
		)
	})
	if err != nil {
		return "", err
	}
	return res.(solana.Signature).String(), nil
}

func (s *service) GetSignatureStatus(
	ctx context.Context, signature string,
) (ports.TxStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return ports.TxPending, fmt.Errorf("invalid signature: %w", err)
	}

	res, err := s.execute(ctx, "getSignatureStatuses", func() (interface{}, error) {
		return s.client.GetSignatureStatuses(ctx, true, sig)
	})
	if err != nil {
		return ports.TxPending, err
	}

	statuses := res.(*rpc.GetSignatureStatusesResult).Value
	if len(statuses) <= 0 || statuses[0] == nil {
		return ports.TxPending, nil
	}
	status := statuses[0]
	if status.Err != nil {
		return ports.TxFailed, nil
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return ports.TxConfirmed, nil
	default:
		return ports.TxPending, nil
	}
}

func (s *service) Health(ctx context.Context) error {
	res, err := s.execute(ctx, "getHealth", func() (interface{}, error) {
		return s.client.GetHealth(ctx)
	})
	if err != nil {
		return err
	}
	if health := res.(string); health != healthOk {
		return fmt.Errorf("%w: node is %s", domain.ErrRpcUnavailable, health)
	}
	return nil
}

// execute runs fn through the circuit breaker and maps failures to the
// domain errors: rate limiting responses to domain.ErrRateLimited, transport
// failures to domain.ErrRpcUnavailable.
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

	switch {
	case circuitbreaker.IsOpen(err):
		return nil, fmt.Errorf(
			"%w: %s: %s breaker is open", domain.ErrRpcUnavailable, method, s.cb.Name(),
		)
	case isRateLimited(err):
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrRateLimited, method, err)
	case isRPCError(err):
		return nil, fmt.Errorf("%s: %w", method, err)
	default:
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrRpcUnavailable, method, err)
	}
}

func isRateLimited(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == http.StatusTooManyRequests {
		return true
	}
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

func isRPCError(err error) bool {
	var rpcErr *jsonrpc.RPCError
	return errors.As(err, &rpcErr)
}

func parsePublicKey(addr string) (solana.PublicKey, error) {
	pubkey, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}
	return pubkey, nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("missing endpoint")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid endpoint scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("missing endpoint host")
	}
	return nil
}

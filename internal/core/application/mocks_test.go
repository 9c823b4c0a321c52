package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/devnet-forge/internal/core/application"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
)

// **** Solana node ****

type mockSolanaNode struct {
	mock.Mock
}

func (m *mockSolanaNode) GetBalance(
	ctx context.Context, addr string,
) (uint64, error) {
	args := m.Called(ctx, addr)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockSolanaNode) RequestAirdrop(
	ctx context.Context, addr string, lamports uint64,
) (string, error) {
	args := m.Called(ctx, addr, lamports)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockSolanaNode) GetSignatureStatus(
	ctx context.Context, signature string,
) (ports.TxStatus, error) {
	args := m.Called(ctx, signature)

	var res ports.TxStatus
	if a := args.Get(0); a != nil {
		res = a.(ports.TxStatus)
	}
	return res, args.Error(1)
}

func (m *mockSolanaNode) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// **** Funding strategy ****

type mockFundingStrategy struct {
	mock.Mock
	chain domain.ChainFamily
}

func (m *mockFundingStrategy) Chain() domain.ChainFamily {
	return m.chain
}

func (m *mockFundingStrategy) Fund(
	ctx context.Context, addr string, amount uint64,
) (*application.FundingReceipt, error) {
	args := m.Called(ctx, addr, amount)

	var res *application.FundingReceipt
	if a := args.Get(0); a != nil {
		res = a.(*application.FundingReceipt)
	}
	return res, args.Error(1)
}

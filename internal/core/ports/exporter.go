package ports

import (
	"context"

	"github.com/tdex-network/devnet-forge/internal/core/domain"
)

// AccountExporter publishes the accounts of an instance to the presentation
// layer.
type AccountExporter interface {
	Export(
		ctx context.Context, instance domain.Instance, accounts []domain.Account,
	) error
	Remove(ctx context.Context, instance domain.Instance) error
}

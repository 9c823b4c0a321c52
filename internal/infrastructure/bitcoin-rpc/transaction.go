package bitcoinrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
)

func (s *service) NewWalletAddress(ctx context.Context) (string, error) {
	res, err := s.execute(ctx, "getnewaddress", func() (interface{}, error) {
		return s.client.RawRequest("getnewaddress", nil)
	})
	if err != nil {
		return "", err
	}

	var addr string
	if err := json.Unmarshal(res.(json.RawMessage), &addr); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return addr, nil
}

func (s *service) SignWithWallet(
	ctx context.Context, tx *wire.MsgTx,
) (*wire.MsgTx, error) {
	type signResult struct {
		tx       *wire.MsgTx
		complete bool
	}

	res, err := s.execute(
		ctx, "signrawtransactionwithwallet", func() (interface{}, error) {
			signed, complete, err := s.client.SignRawTransactionWithWallet(tx)
			if err != nil {
				return nil, err
			}
			return signResult{signed, complete}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	signed := res.(signResult)
	if !signed.complete {
		return nil, fmt.Errorf(
			"%w: wallet could not sign every input", domain.ErrTransactionRejected,
		)
	}
	return signed.tx, nil
}

// BroadcastTransaction adds tx to the mempool. Any error returned by the
// daemon is a rejection of the tx.
func (s *service) BroadcastTransaction(
	ctx context.Context, tx *wire.MsgTx,
) (string, error) {
	res, err := s.execute(ctx, "sendrawtransaction", func() (interface{}, error) {
		return s.client.SendRawTransaction(tx, false)
	})
	if err != nil {
		var rpcErr *btcjson.RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf(
				"%w: %s", domain.ErrTransactionRejected, rpcErr.Message,
			)
		}
		return "", err
	}
	return res.(*chainhash.Hash).String(), nil
}

func (s *service) GenerateBlocks(
	ctx context.Context, num int, addr string,
) ([]string, error) {
	decoded, err := btcutil.DecodeAddress(addr, s.network)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}

	res, err := s.execute(ctx, "generatetoaddress", func() (interface{}, error) {
		return s.client.GenerateToAddress(int64(num), decoded, nil)
	})
	if err != nil {
		return nil, err
	}

	hashes := res.([]*chainhash.Hash)
	blocks := make([]string, 0, len(hashes))
	for _, h := range hashes {
		blocks = append(blocks, h.String())
	}
	return blocks, nil
}

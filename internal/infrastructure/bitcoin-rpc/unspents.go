package bitcoinrpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/pkg/explorer"
	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

const maxConfirmations = 9999999

type scanTxOutSetResult struct {
	Success     bool                  `json:"success"`
	Height      int64                 `json:"height"`
	Unspents    []scanTxOutSetUnspent `json:"unspents"`
	TotalAmount float64               `json:"total_amount"`
}

type scanTxOutSetUnspent struct {
	TxID         string  `json:"txid"`
	Vout         uint32  `json:"vout"`
	ScriptPubKey string  `json:"scriptPubKey"`
	Amount       float64 `json:"amount"`
	Coinbase     bool    `json:"coinbase"`
	Height       int64   `json:"height"`
}

// GetBalance returns the confirmed balance of addr as the total amount of
// the utxo set entries it owns.
func (s *service) GetBalance(ctx context.Context, addr string) (uint64, error) {
	res, err := s.scanTxOutSet(ctx, addr)
	if err != nil {
		return 0, err
	}
	return toSats(res.TotalAmount)
}

func (s *service) ListUnspents(
	ctx context.Context, addr string,
) ([]explorer.Utxo, error) {
	res, err := s.scanTxOutSet(ctx, addr)
	if err != nil {
		return nil, err
	}

	utxos := make([]explorer.Utxo, 0, len(res.Unspents))
	for _, u := range res.Unspents {
		value, err := toSats(u.Amount)
		if err != nil {
			return nil, err
		}
		script, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}
		utxos = append(utxos, explorer.Utxo{
			TxID:          u.TxID,
			Vout:          u.Vout,
			Value:         value,
			Address:       addr,
			Script:        script,
			Confirmations: res.Height - u.Height + 1,
			Coinbase:      u.Coinbase,
		})
	}
	return utxos, nil
}

func (s *service) ListWalletUnspents(
	ctx context.Context,
) ([]explorer.Utxo, error) {
	res, err := s.execute(ctx, "listunspent", func() (interface{}, error) {
		return s.client.ListUnspentMinMax(1, maxConfirmations)
	})
	if err != nil {
		return nil, err
	}

	unspents := res.([]btcjson.ListUnspentResult)
	utxos := make([]explorer.Utxo, 0, len(unspents))
	for _, u := range unspents {
		if !u.Spendable {
			continue
		}
		value, err := toSats(u.Amount)
		if err != nil {
			return nil, err
		}
		script, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}
		utxos = append(utxos, explorer.Utxo{
			TxID:          u.TxID,
			Vout:          u.Vout,
			Value:         value,
			Address:       u.Address,
			Script:        script,
			Confirmations: u.Confirmations,
		})
	}
	return utxos, nil
}

func (s *service) scanTxOutSet(
	ctx context.Context, addr string,
) (*scanTxOutSetResult, error) {
	if err := wallet.ValidateBitcoinAddress(addr, s.network); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, err)
	}

	action, _ := json.Marshal("start")
	descriptors, _ := json.Marshal([]map[string]string{
		{"desc": fmt.Sprintf("addr(%s)", addr)},
	})

	res, err := s.execute(ctx, "scantxoutset", func() (interface{}, error) {
		return s.client.RawRequest(
			"scantxoutset", []json.RawMessage{action, descriptors},
		)
	})
	if err != nil {
		return nil, err
	}

	var result scanTxOutSetResult
	if err := json.Unmarshal(res.(json.RawMessage), &result); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("scantxoutset: scan not completed")
	}
	return &result, nil
}

func toSats(amount float64) (uint64, error) {
	sats, err := btcutil.NewAmount(amount)
	if err != nil {
		return 0, err
	}
	if sats < 0 {
		return 0, fmt.Errorf("negative amount %v", amount)
	}
	return uint64(sats), nil
}

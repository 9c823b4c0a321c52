package explorer

import (
	"fmt"

	"github.com/tdex-network/devnet-forge/pkg/wallet"
)

// CoinbaseMaturity is the number of confirmations after which a coinbase
// output becomes spendable.
const CoinbaseMaturity = 100

// Utxo represents an unspent transaction output of the bitcoin chain.
type Utxo struct {
	TxID          string
	Vout          uint32
	Value         uint64
	Address       string
	Script        []byte
	Confirmations int64
	Coinbase      bool
}

// Key returns the outpoint in the form txid:vout.
func (u Utxo) Key() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Vout)
}

func (u Utxo) IsConfirmed() bool {
	return u.Confirmations > 0
}

// IsSpendable returns whether the output is confirmed and, if coinbase,
// mature.
func (u Utxo) IsSpendable() bool {
	if u.Coinbase {
		return u.Confirmations >= CoinbaseMaturity
	}
	return u.IsConfirmed()
}

// Input returns the utxo as a tx input to be spent.
func (u Utxo) Input() wallet.Input {
	return wallet.Input{
		TxID:    u.TxID,
		Vout:    u.Vout,
		Value:   u.Value,
		Script:  u.Script,
		Address: u.Address,
	}
}

// Inputs converts the given utxos to tx inputs preserving their order.
func Inputs(utxos []Utxo) []wallet.Input {
	ins := make([]wallet.Input, 0, len(utxos))
	for _, u := range utxos {
		ins = append(ins, u.Input())
	}
	return ins
}

// TotalValue returns the sum of the values of the given utxos.
func TotalValue(utxos []Utxo) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Value
	}
	return total
}

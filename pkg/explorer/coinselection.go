package explorer

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInsufficientFunds is returned when the spendable utxos do not cover
// target amount plus fee.
var ErrInsufficientFunds = errors.New(
	"total utxo amount does not cover target amount plus fee",
)

// FeeFunc returns the fee to pay for a tx spending numInputs inputs.
type FeeFunc func(numInputs int) uint64

// SelectUnspents performs a coin selection over the spendable utxos of the
// given list and returns the coins to spend to cover targetAmount plus the
// fee for that many inputs, along with the fee itself.
// Coins are picked largest first. Ties are broken by txid then vout, so that
// the same set of utxos always gives the same selection.
func SelectUnspents(
	utxos []Utxo, targetAmount uint64, fee FeeFunc,
) (coins []Utxo, totalFee uint64, err error) {
	candidates := make([]Utxo, 0, len(utxos))
	for _, u := range utxos {
		if u.IsSpendable() {
			candidates = append(candidates, u)
		}
	}
	sortUnspents(candidates)

	var total uint64
	for _, u := range candidates {
		coins = append(coins, u)
		total += u.Value

		totalFee = fee(len(coins))
		if total >= targetAmount+totalFee {
			return coins, totalFee, nil
		}
	}

	return nil, 0, fmt.Errorf(
		"%w: available %d, target %d", ErrInsufficientFunds, total, targetAmount,
	)
}

func sortUnspents(utxos []Utxo) {
	sort.SliceStable(utxos, func(i, j int) bool {
		if utxos[i].Value != utxos[j].Value {
			return utxos[i].Value > utxos[j].Value
		}
		if utxos[i].TxID != utxos[j].TxID {
			return utxos[i].TxID < utxos[j].TxID
		}
		return utxos[i].Vout < utxos[j].Vout
	})
}

package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Input is a previous output spent by a transaction.
type Input struct {
	TxID    string
	Vout    uint32
	Value   uint64
	Script  []byte
	Address string
}

// BuildTransactionOpts is the struct given to BuildTransaction
type BuildTransactionOpts struct {
	Inputs        []Input
	Address       string
	Amount        uint64
	ChangeAddress string
	SatsPerVByte  uint64
	DustThreshold uint64
	Network       *chaincfg.Params
}

func (o BuildTransactionOpts) validate() error {
	if o.Network == nil {
		return ErrNullNetwork
	}
	if len(o.Inputs) <= 0 {
		return ErrEmptyInputs
	}
	for i, in := range o.Inputs {
		if _, err := chainhash.NewHashFromStr(in.TxID); err != nil {
			return fmt.Errorf("invalid txid for input %d: %w", i, err)
		}
		if len(in.Script) <= 0 {
			return fmt.Errorf("missing prevout script for input %d", i)
		}
	}
	if o.Amount == 0 {
		return ErrZeroAmount
	}
	if o.Amount < o.DustThreshold {
		return ErrDustAmount
	}
	if o.SatsPerVByte == 0 {
		return ErrZeroFeeRate
	}
	if err := ValidateBitcoinAddress(o.Address, o.Network); err != nil {
		return fmt.Errorf("output address: %w", err)
	}
	if err := ValidateBitcoinAddress(o.ChangeAddress, o.Network); err != nil {
		return fmt.Errorf("change address: %w", err)
	}
	return nil
}

// UnsignedTransaction is the result of BuildTransaction. PrevOuts are in the
// same order as the tx inputs.
type UnsignedTransaction struct {
	Tx       *wire.MsgTx
	PrevOuts []Input
	Fee      uint64
	Change   uint64
}

// BuildTransaction crafts a tx spending all the given inputs, paying Amount
// to Address and returning the change to ChangeAddress. The fee is estimated
// for a 2-output tx. Change below DustThreshold is not created and is left
// to the fee instead.
func BuildTransaction(opts BuildTransactionOpts) (*UnsignedTransaction, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var totalIn uint64
	for _, in := range opts.Inputs {
		totalIn += in.Value
	}

	fee := EstimateFee(len(opts.Inputs), 2, opts.SatsPerVByte)
	if totalIn < opts.Amount+fee {
		return nil, fmt.Errorf(
			"%w: got %d, need %d", ErrInsufficientFunds, totalIn, opts.Amount+fee,
		)
	}

	change := totalIn - opts.Amount - fee
	if change < opts.DustThreshold {
		fee += change
		change = 0
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, in := range opts.Inputs {
		hash, _ := chainhash.NewHashFromStr(in.TxID)
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil))
	}

	script, err := AddressScript(opts.Address, opts.Network)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(int64(opts.Amount), script))

	if change > 0 {
		changeScript, err := AddressScript(opts.ChangeAddress, opts.Network)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}

	prevOuts := make([]Input, len(opts.Inputs))
	copy(prevOuts, opts.Inputs)

	return &UnsignedTransaction{
		Tx:       tx,
		PrevOuts: prevOuts,
		Fee:      fee,
		Change:   change,
	}, nil
}

package domain

type FundingKind int

const (
	// FundingNoOp means the account already held at least the target.
	FundingNoOp FundingKind = iota
	// FundingFunded means the missing delta has been credited and confirmed.
	FundingFunded
	// FundingFailed means the funding strategy gave up.
	FundingFailed
)

func (k FundingKind) String() string {
	switch k {
	case FundingNoOp:
		return "noop"
	case FundingFunded:
		return "funded"
	default:
		return "failed"
	}
}

// FundingResult is the outcome of a set balance request.
// Balance is the confirmed balance after the operation, Delta the amount
// requested to the funding strategy and TxRef the airdrop signature or the
// funding txid.
type FundingResult struct {
	OperationID string
	Address     string
	Kind        FundingKind
	Target      uint64
	Balance     uint64
	Delta       uint64
	Fee         uint64
	TxRef       string
	Reason      string
}

func NoOp(address string, target, balance uint64) FundingResult {
	return FundingResult{
		Address: address,
		Kind:    FundingNoOp,
		Target:  target,
		Balance: balance,
	}
}

func Funded(
	address string, target, balance, delta, fee uint64, txRef string,
) FundingResult {
	return FundingResult{
		Address: address,
		Kind:    FundingFunded,
		Target:  target,
		Balance: balance,
		Delta:   delta,
		Fee:     fee,
		TxRef:   txRef,
	}
}

func Failed(address string, target uint64, err error) FundingResult {
	return FundingResult{
		Address: address,
		Kind:    FundingFailed,
		Target:  target,
		Reason:  err.Error(),
	}
}

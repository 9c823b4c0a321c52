package domain

import (
	"fmt"
	"time"
)

// Account is a derived keypair of an instance together with its cached
// balance in base units (lamports or sats). The cached balance is refreshed
// from the daemon after every funding and on explicit refresh.
type Account struct {
	InstanceKey    string
	Index          uint32
	Address        string
	PublicKey      []byte
	PrivateKey     []byte
	WIF            string
	Mnemonic       string
	DerivationPath string
	Balance        uint64
	UpdatedAt      int64
}

// Key is the unique storage key of the account.
func (a Account) Key() string {
	return AccountKey(a.InstanceKey, a.Index)
}

func AccountKey(instanceKey string, index uint32) string {
	return fmt.Sprintf("%s/%d", instanceKey, index)
}

// SetBalance updates the cached balance.
func (a *Account) SetBalance(balance uint64) {
	a.Balance = balance
	a.UpdatedAt = time.Now().Unix()
}

// LogFields returns the account fields safe to be logged. Key material and
// mnemonic are never included.
func (a Account) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"instance": a.InstanceKey,
		"index":    a.Index,
		"address":  a.Address,
		"path":     a.DerivationPath,
		"balance":  a.Balance,
	}
}

// String omits secrets, so that accounts are safe to print with %v.
func (a Account) String() string {
	return fmt.Sprintf(
		"Account{instance: %s, index: %d, address: %s, balance: %d}",
		a.InstanceKey, a.Index, a.Address, a.Balance,
	)
}

package wallet

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivedKey is the keypair and address derived at an account index.
type DerivedKey struct {
	Index      uint32
	Path       DerivationPath
	Address    string
	PublicKey  []byte
	PrivateKey []byte
	// WIF is set only for secp256k1 keys.
	WIF string
}

// KeyDeriver derives the keypair of an account index from seed bytes.
// Implementations are pure: the same (seed, index) always gives the same key.
type KeyDeriver interface {
	Derive(seed []byte, index uint32) (*DerivedKey, error)
}

type DeriveOpts struct {
	Seed  []byte
	Index uint32
}

func (o DeriveOpts) validate() error {
	if len(o.Seed) <= 0 {
		return ErrNullSeed
	}
	if len(o.Seed) < hdkeychain.MinSeedBytes ||
		len(o.Seed) > hdkeychain.MaxSeedBytes {
		return ErrInvalidSeedLength
	}
	if o.Index > MaxAccountIndex {
		return ErrOutOfRangeAccountIndex
	}
	return nil
}

// DeriveRange derives the keys for indexes [from, to) in order.
func DeriveRange(
	deriver KeyDeriver, seed []byte, from, to uint32,
) ([]*DerivedKey, error) {
	keys := make([]*DerivedKey, 0, to-from)
	for i := from; i < to; i++ {
		key, err := deriver.Derive(seed, i)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

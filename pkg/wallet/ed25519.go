package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

const ed25519SeedModifier = "ed25519 seed"

// Ed25519Deriver derives Solana accounts along m/44'/501'/index'/0' using
// SLIP-0010 hardened-only derivation.
type Ed25519Deriver struct{}

func NewEd25519Deriver() Ed25519Deriver {
	return Ed25519Deriver{}
}

func (Ed25519Deriver) Derive(seed []byte, index uint32) (*DerivedKey, error) {
	if err := (DeriveOpts{seed, index}).validate(); err != nil {
		return nil, err
	}

	path := SolanaAccountPath(index)
	key, _, err := deriveEd25519Key(seed, path)
	if err != nil {
		return nil, err
	}

	privateKey := solana.PrivateKey(ed25519.NewKeyFromSeed(key))
	publicKey := privateKey.PublicKey()

	return &DerivedKey{
		Index:      index,
		Path:       path,
		Address:    publicKey.String(),
		PublicKey:  append([]byte{}, publicKey[:]...),
		PrivateKey: []byte(privateKey),
	}, nil
}

// deriveEd25519Key returns the 32-byte key and chain code at path.
func deriveEd25519Key(seed []byte, path DerivationPath) ([]byte, []byte, error) {
	if !path.IsHardenedOnly() {
		return nil, nil, ErrNonHardenedDerivation
	}

	key, chainCode := hmacSplit([]byte(ed25519SeedModifier), seed)

	data := make([]byte, 37)
	for _, elem := range path {
		data[0] = 0x00
		copy(data[1:33], key)
		binary.BigEndian.PutUint32(data[33:], elem)
		key, chainCode = hmacSplit(chainCode, data)
	}
	return key, chainCode, nil
}

func hmacSplit(key, data []byte) ([]byte, []byte) {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

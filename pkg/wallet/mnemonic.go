package wallet

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicWords is the only accepted mnemonic length.
const MnemonicWords = 12

type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize != 0 && o.EntropySize != 128 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewMnemonic returns a new 12-word mnemonic as a list of words
func NewMnemonic(opts NewMnemonicOpts) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

// ValidateMnemonic checks word count and checksum of the given mnemonic.
func ValidateMnemonic(mnemonic string) error {
	if len(strings.TrimSpace(mnemonic)) <= 0 {
		return ErrNullMnemonic
	}
	if len(strings.Fields(mnemonic)) != MnemonicWords {
		return ErrInvalidMnemonicLength
	}
	if !bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic)) {
		return ErrInvalidMnemonic
	}
	return nil
}

// NormalizeMnemonic collapses any whitespace between words to a single space.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// SeedFromMnemonic validates the mnemonic and returns its 64-byte seed,
// computed with an empty passphrase.
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(NormalizeMnemonic(mnemonic), ""), nil
}

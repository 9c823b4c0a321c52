package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testMnemonic    = "test test test test test test test test test test test junk"
	abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

func TestNewMnemonic(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		words, err := NewMnemonic(NewMnemonicOpts{})
		require.NoError(t, err)
		require.Len(t, words, MnemonicWords)
		require.NoError(t, ValidateMnemonic(strings.Join(words, " ")))

		other, err := NewMnemonic(NewMnemonicOpts{EntropySize: 128})
		require.NoError(t, err)
		require.NotEqual(t, words, other)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, size := range []int{-1, 64, 160, 256} {
			words, err := NewMnemonic(NewMnemonicOpts{EntropySize: size})
			require.ErrorIs(t, err, ErrInvalidEntropySize)
			require.Nil(t, words)
		}
	})
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		err      error
	}{
		{"valid", testMnemonic, nil},
		{"valid with extra spaces", "  test test test test test test\ttest test test test test   junk ", nil},
		{"empty", "", ErrNullMnemonic},
		{"24 words", testMnemonic + " " + testMnemonic, ErrInvalidMnemonic},
		{"11 words", "test test test test test test test test test test junk", ErrInvalidMnemonic},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", ErrInvalidMnemonic},
		{"unknown word", "test test test test test test test test test test test junkk", ErrInvalidMnemonic},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMnemonic(tt.mnemonic)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSeedFromMnemonic(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic)
	require.NoError(t, err)
	require.Len(t, seed, 64)

	again, err := SeedFromMnemonic("test  test test test test test test test test test test junk")
	require.NoError(t, err)
	require.Equal(t, seed, again)

	other, err := SeedFromMnemonic(abandonMnemonic)
	require.NoError(t, err)
	require.NotEqual(t, seed, other)

	seed, err = SeedFromMnemonic("not a mnemonic")
	require.ErrorIs(t, err, ErrInvalidMnemonic)
	require.Nil(t, seed)
}

package wallet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// MaxAccountIndex is the greatest account index that can be derived.
const MaxAccountIndex = hdkeychain.HardenedKeyStart - 1

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet account
type DerivationPath []uint32

var (
	// SolanaBasePath m/44'/501'
	SolanaBasePath = DerivationPath{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 501,
	}
	// BitcoinBasePath m/44'/0'/0'/0
	BitcoinBasePath = DerivationPath{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 0,
		hdkeychain.HardenedKeyStart + 0,
		0,
	}
)

// SolanaAccountPath returns m/44'/501'/index'/0'.
func SolanaAccountPath(index uint32) DerivationPath {
	return SolanaBasePath.Child(
		hdkeychain.HardenedKeyStart+index, hdkeychain.HardenedKeyStart,
	)
}

// BitcoinAccountPath returns m/44'/0'/0'/0/index.
func BitcoinAccountPath(index uint32) DerivationPath {
	return BitcoinBasePath.Child(index)
}

// ParseDerivationPath parses an absolute ("m/44'/0'/0'/0/0") or relative
// ("0/0") path. Elements can be decimal or 0x prefixed hex, a trailing '
// marks a hardened one.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strPath == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if len(elems) < 2 {
		return nil, ErrMalformedDerivationPath
	}
	for _, elem := range elems {
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		value, err := parsePathElem(strings.TrimSpace(elem))
		if err != nil {
			return nil, err
		}
		path = append(path, value)
	}
	return path, nil
}

func parsePathElem(elem string) (uint32, error) {
	var offset uint32
	if strings.HasSuffix(elem, "'") {
		offset = hdkeychain.HardenedKeyStart
		elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
	}

	value, err := strconv.ParseUint(elem, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: elem '%s'", ErrInvalidDerivationPath, elem)
	}
	if max := uint64(math.MaxUint32 - offset); value > max {
		return 0, fmt.Errorf(
			"%w: elem %d out of range [0, %d]", ErrInvalidDerivationPath, value, max,
		)
	}
	return offset + uint32(value), nil
}

// Child returns a copy of path extended with the given elements.
func (path DerivationPath) Child(elems ...uint32) DerivationPath {
	child := make(DerivationPath, 0, len(path)+len(elems))
	child = append(child, path...)
	return append(child, elems...)
}

// IsHardenedOnly returns whether every element of the path is hardened.
func (path DerivationPath) IsHardenedOnly() bool {
	for _, elem := range path {
		if elem < hdkeychain.HardenedKeyStart {
			return false
		}
	}
	return true
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hdkeychain.HardenedKeyStart {
			component -= hdkeychain.HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

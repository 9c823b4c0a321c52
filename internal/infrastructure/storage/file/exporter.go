package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
	"github.com/tdex-network/devnet-forge/internal/core/ports"
)

const (
	accountsFilename = "accounts.json"
	fileMode         = 0600
	dirMode          = 0700
)

// AccountFile is the json representation of an account in accounts.json.
// The private key is serialized as a list of bytes, the same format used by
// solana keypair files.
type AccountFile struct {
	Index          uint32 `json:"index"`
	Address        string `json:"address"`
	PublicKey      string `json:"publicKey"`
	PrivateKey     []int  `json:"privateKey"`
	WIF            string `json:"wif,omitempty"`
	Mnemonic       string `json:"mnemonic"`
	DerivationPath string `json:"derivationPath"`
	Balance        uint64 `json:"balance"`
}

type exporter struct {
	datadir string
}

// NewExporter returns a ports.AccountExporter that writes the accounts of
// every instance to <datadir>/<chain>/instances/<id>/accounts.json.
func NewExporter(datadir string) (ports.AccountExporter, error) {
	if datadir == "" {
		return nil, fmt.Errorf("missing datadir")
	}
	return &exporter{datadir}, nil
}

func (e *exporter) Export(
	_ context.Context, instance domain.Instance, accounts []domain.Account,
) error {
	if err := instance.Validate(); err != nil {
		return err
	}
	dir := InstanceDir(e.datadir, instance)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating instance dir: %w", err)
	}

	content := make([]AccountFile, 0, len(accounts))
	for _, a := range accounts {
		content = append(content, toAccountFile(instance.Chain, a))
	}
	buf, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temp file first, so that readers never see partial content.
	path := filepath.Join(dir, accountsFilename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf, fileMode); err != nil {
		return fmt.Errorf("writing accounts file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("writing accounts file: %w", err)
	}

	log.WithFields(log.Fields{
		"instance": instance.NodeID(),
		"accounts": len(accounts),
	}).Debugf("exported accounts to %s", path)
	return nil
}

func (e *exporter) Remove(_ context.Context, instance domain.Instance) error {
	if err := instance.Validate(); err != nil {
		return err
	}
	if err := os.RemoveAll(InstanceDir(e.datadir, instance)); err != nil {
		return fmt.Errorf("removing instance dir: %w", err)
	}
	return nil
}

// InstanceDir returns the directory of the given instance.
func InstanceDir(datadir string, instance domain.Instance) string {
	return filepath.Join(
		datadir, instance.Chain.String(), "instances", instance.ID,
	)
}

// ReadAccounts parses the accounts.json file of the given instance.
func ReadAccounts(
	datadir string, instance domain.Instance,
) ([]AccountFile, error) {
	if err := instance.Validate(); err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(
		filepath.Join(InstanceDir(datadir, instance), accountsFilename),
	)
	if err != nil {
		return nil, err
	}
	var accounts []AccountFile
	if err := json.Unmarshal(buf, &accounts); err != nil {
		return nil, fmt.Errorf("invalid accounts file: %w", err)
	}
	return accounts, nil
}

func toAccountFile(chain domain.ChainFamily, a domain.Account) AccountFile {
	privkey := make([]int, 0, len(a.PrivateKey))
	for _, b := range a.PrivateKey {
		privkey = append(privkey, int(b))
	}

	// Solana public keys are known by their base58 address, bitcoin ones by
	// their compressed hex encoding.
	pubkey := a.Address
	if chain == domain.ChainBitcoin {
		pubkey = fmt.Sprintf("%x", a.PublicKey)
	}

	return AccountFile{
		Index:          a.Index,
		Address:        a.Address,
		PublicKey:      pubkey,
		PrivateKey:     privkey,
		WIF:            a.WIF,
		Mnemonic:       a.Mnemonic,
		DerivationPath: a.DerivationPath,
		Balance:        a.Balance,
	}
}

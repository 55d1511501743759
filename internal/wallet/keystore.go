package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	networkSolana = "solana"
	fileExt       = ".wallet"
)

// keystoreFile is the on-disk wallet format. The address is readable without
// decryption; the private key stays inside the secret-store envelope.
type keystoreFile struct {
	Network   string          `json:"network"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	CreatedAt string          `json:"createdAt"`
	Key       json.RawMessage `json:"key"`
}

// StoredWallet is one wallet read back from disk.
type StoredWallet struct {
	Name    string
	Address string
	EncKey  []byte
}

// Keystore persists one file per wallet name under a directory.
type Keystore struct {
	dir string
}

// NewKeystore creates the keystore directory if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

// Save writes (or overwrites) the wallet file for name.
func (k *Keystore) Save(name, address string, encKey []byte) error {
	data, err := json.MarshalIndent(keystoreFile{
		Network:   networkSolana,
		Name:      name,
		Address:   address,
		CreatedAt: time.Now().Format(time.RFC3339),
		Key:       json.RawMessage(encKey),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet file: %w", err)
	}

	path := filepath.Join(k.dir, name+fileExt)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	return nil
}

// LoadAll reads every wallet file in the directory. Files that fail to parse
// are skipped, not fatal: a single damaged file must not block startup.
func (k *Keystore) LoadAll() ([]StoredWallet, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keystore dir: %w", err)
	}

	var out []StoredWallet
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(k.dir, e.Name()))
		if err != nil {
			continue
		}
		var f keystoreFile
		if err := json.Unmarshal(data, &f); err != nil || f.Name == "" || f.Address == "" {
			continue
		}
		out = append(out, StoredWallet{
			Name:    f.Name,
			Address: f.Address,
			EncKey:  []byte(f.Key),
		})
	}
	return out, nil
}

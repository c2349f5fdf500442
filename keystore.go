package pqvault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Keystore stores wrapped key packages for recovery. Implementations
// only ever see encrypted material. Create escrows the wrapped
// master-key package when WithKeystore is set, keyed by the hex-encoded
// header salt.
type Keystore interface {
	// Store persists data under id, overwriting any previous entry.
	Store(id string, data []byte) error
	// Load retrieves the entry for id, or ErrKeystoreEntryNotFound.
	Load(id string) ([]byte, error)
}

// ErrKeystoreEntryNotFound is returned by Keystore.Load when no entry
// exists for the id.
var ErrKeystoreEntryNotFound = errors.New("keystore entry not found")

// DirKeystore stores entries as files in a directory. The directory is
// created with mode 0700 and entries with 0600.
type DirKeystore struct {
	dir string
}

// NewDirKeystore opens (creating if needed) a directory keystore.
func NewDirKeystore(dir string) (*DirKeystore, error) {
	if dir == "" {
		return nil, &ParameterError{Param: "keystore dir", Reason: "must not be empty"}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore directory: %w", err)
	}
	return &DirKeystore{dir: dir}, nil
}

// entryPath validates the id and maps it to a file path. IDs are
// restricted to hex-style names so an id can never escape the
// directory.
func (k *DirKeystore) entryPath(id string) (string, error) {
	if id == "" {
		return "", &ParameterError{Param: "keystore id", Reason: "must not be empty"}
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", &ParameterError{Param: "keystore id", Reason: fmt.Sprintf("invalid character %q", r)}
		}
	}
	return filepath.Join(k.dir, id+".key"), nil
}

// Store implements Keystore.
func (k *DirKeystore) Store(id string, data []byte) error {
	path, err := k.entryPath(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write keystore entry: %w", err)
	}
	return nil
}

// Load implements Keystore.
func (k *DirKeystore) Load(id string) ([]byte, error) {
	path, err := k.entryPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, ErrKeystoreEntryNotFound)
		}
		return nil, fmt.Errorf("read keystore entry: %w", err)
	}
	return data, nil
}

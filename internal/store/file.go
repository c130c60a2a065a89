package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/saran-1305/job-assigning-app-frontend-main/pkg/utils"
)

// ErrSealed means the file was written with a passphrase and none (or a
// different one) was supplied.
var ErrSealed = errors.New("store: token file is sealed with another passphrase")

// File keeps values in a 0600 JSON file. With a passphrase every value is
// sealed with AES-GCM under an Argon2id-derived key; the salt lives in the file.
type File struct {
	path       string
	passphrase string

	mu      sync.Mutex
	key     []byte // derived lazily, once per salt
	keySalt string
}

type fileDoc struct {
	Salt   string            `json:"salt,omitempty"`
	Sealed bool              `json:"sealed,omitempty"`
	Values map[string]string `json:"values"`
}

func NewFile(path, passphrase string) (*File, error) {
	if path == "" {
		return nil, errors.New("store: token file path is empty")
	}
	return &File{path: path, passphrase: passphrase}, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	if !ok {
		return "", false, nil
	}
	if !doc.Sealed {
		return v, true, nil
	}
	k, err := f.keyFor(doc)
	if err != nil {
		return "", false, err
	}
	plain, err := utils.Decrypt(k, v)
	if err != nil {
		return "", false, ErrSealed
	}
	return plain, true, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if doc.Sealed {
		k, err := f.keyFor(doc)
		if err != nil {
			return err
		}
		if value, err = utils.Encrypt(k, value); err != nil {
			return fmt.Errorf("store: seal value: %w", err)
		}
	}
	doc.Values[key] = value
	return f.write(doc)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	return f.write(doc)
}

// read returns the current document, or a fresh one when the file is missing.
func (f *File) read() (*fileDoc, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f.fresh()
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", f.path, err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", f.path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	if doc.Sealed && f.passphrase == "" {
		return nil, ErrSealed
	}
	// Switching an existing plain file over to sealing starts a new document.
	if !doc.Sealed && f.passphrase != "" && len(doc.Values) == 0 {
		return f.fresh()
	}
	return &doc, nil
}

func (f *File) fresh() (*fileDoc, error) {
	doc := &fileDoc{Values: map[string]string{}}
	if f.passphrase == "" {
		return doc, nil
	}
	salt, err := utils.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("store: salt: %w", err)
	}
	doc.Salt = base64.StdEncoding.EncodeToString(salt)
	doc.Sealed = true
	return doc, nil
}

func (f *File) keyFor(doc *fileDoc) ([]byte, error) {
	if f.key != nil && f.keySalt == doc.Salt {
		return f.key, nil
	}
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil {
		return nil, fmt.Errorf("store: bad salt: %w", err)
	}
	k, err := utils.DeriveKey(f.passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("store: derive key: %w", err)
	}
	// One stored value is enough to tell a wrong passphrase apart.
	for _, v := range doc.Values {
		if _, err := utils.Decrypt(k, v); err != nil {
			return nil, ErrSealed
		}
		break
	}
	f.key, f.keySalt = k, doc.Salt
	return k, nil
}

// write replaces the file atomically.
func (f *File) write(doc *fileDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}
	return nil
}

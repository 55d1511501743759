// Package secrets encrypts sensitive material at rest with AES-256-GCM
// under a scrypt-derived key. It knows nothing about wallets or the network.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"spica/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters: security over speed. N=2^18 (~256MB, sub-second on
	// desktops) keeps brute force expensive while staying within common
	// per-process memory limits.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// envelope is the serialized ciphertext format.
type envelope struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// Store performs symmetric authenticated encryption under a process-wide
// passphrase. Decrypt failures are always fatal to the calling operation;
// there are no retries.
type Store struct {
	passphrase []byte

	mu   sync.Mutex
	keys map[string][]byte // derived key per salt; scrypt is too slow to rerun per signing
}

// New creates a Store keyed by passphrase. The slice is copied; the caller
// should zero its own copy after use.
func New(passphrase []byte) *Store {
	p := make([]byte, len(passphrase))
	copy(p, passphrase)
	return &Store{passphrase: p, keys: make(map[string][]byte)}
}

// Encrypt seals plaintext and returns a self-contained JSON envelope
// (salt, nonce, ciphertext, all base64).
func (s *Store) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	out, err := json.Marshal(envelope{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return out, nil
}

// Decrypt opens an envelope produced by Encrypt. Returns model.ErrIntegrity
// when the envelope was not produced under this passphrase or has been
// tampered with. Caller should zero the returned plaintext after use.
func (s *Store) Decrypt(data []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.ErrIntegrity
	}
	return plaintext, nil
}

// Close wipes the passphrase and all derived keys from memory. The Store
// must not be used after.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.passphrase)
	s.passphrase = nil
	for k, key := range s.keys {
		clear(key)
		delete(s.keys, k)
	}
}

func (s *Store) deriveKey(salt []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.keys[string(salt)]; ok {
		return key, nil
	}
	key, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	s.keys[string(salt)] = key
	return key, nil
}

func (s *Store) aead(salt []byte) (cipher.AEAD, error) {
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

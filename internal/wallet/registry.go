// Package wallet owns the mapping from wallet name to keypair and the
// current-wallet pointer. Private key material is held encrypted at rest via
// the secret store and decrypted into memory only for the lifetime of a
// signing operation.
package wallet

import (
	"regexp"
	"sync"

	"spica/internal/model"
	"spica/internal/secrets"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// privateKeyLen is the raw ed25519 keypair length Solana secrets decode to.
const privateKeyLen = 64

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type entry struct {
	address solana.PublicKey
	encKey  []byte // secret-store envelope of the 64-byte private key
}

// Registry maps wallet names to keypairs. All mutation is mutually exclusive
// with signing access so a half-updated entry is never observed.
type Registry struct {
	mu      sync.RWMutex
	wallets map[string]*entry
	current string

	store    *secrets.Store
	keystore *Keystore // nil disables persistence
	log      *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // per-wallet transfer serialization
}

// NewRegistry creates an empty registry. keystore may be nil for a purely
// in-memory registry.
func NewRegistry(store *secrets.Store, keystore *Keystore, log *zap.Logger) *Registry {
	return &Registry{
		wallets:  make(map[string]*entry),
		store:    store,
		keystore: keystore,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Connect decodes the supplied base58 secret, requires exactly 64 raw bytes
// before any key derivation, and registers the derived keypair under name,
// overwriting any prior entry. Returns the public address.
func (r *Registry) Connect(name, secret string) (string, error) {
	if !nameRe.MatchString(name) {
		return "", model.NewValidationError("invalid wallet name %q", name)
	}

	raw, err := base58.Decode(secret)
	if err != nil {
		return "", model.NewValidationError("invalid key material")
	}
	defer clear(raw)
	if len(raw) != privateKeyLen {
		return "", model.NewValidationError("invalid key material")
	}

	priv := solana.PrivateKey(raw)
	address := priv.PublicKey()

	encKey, err := r.store.Encrypt(raw)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.wallets[name] = &entry{address: address, encKey: encKey}
	r.mu.Unlock()

	if r.keystore != nil {
		if err := r.keystore.Save(name, address.String(), encKey); err != nil {
			// Registration already happened; persistence failure is surfaced
			// but does not unregister the wallet.
			r.log.Warn("failed to persist wallet", zap.String("wallet", name), zap.Error(err))
		}
	}

	r.log.Info("wallet connected", zap.String("wallet", name), zap.String("address", address.String()))
	return address.String(), nil
}

// SwitchCurrent sets the current-wallet pointer iff name is registered.
// On NotFoundError the pointer is left unchanged.
func (r *Registry) SwitchCurrent(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[name]; !ok {
		return &model.NotFoundError{Name: name}
	}
	r.current = name
	return nil
}

// Current returns the current wallet name; ok is false when unset.
func (r *Registry) Current() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.current != ""
}

// Resolve is a pure lookup of name's public address.
func (r *Registry) Resolve(name string) (solana.PublicKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.wallets[name]
	if !ok {
		return solana.PublicKey{}, &model.NotFoundError{Name: name}
	}
	return e.address, nil
}

// Names returns all registered wallet names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.wallets))
	for n := range r.wallets {
		names = append(names, n)
	}
	return names
}

// WithPrivateKey decrypts name's private key, passes it to fn, and wipes it
// on every exit path. The registry read lock is held for the duration so a
// concurrent Connect cannot swap the entry mid-signing.
func (r *Registry) WithPrivateKey(name string, fn func(priv solana.PrivateKey) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.wallets[name]
	if !ok {
		return &model.NotFoundError{Name: name}
	}

	raw, err := r.store.Decrypt(e.encKey)
	if err != nil {
		return err
	}
	defer clear(raw)

	return fn(solana.PrivateKey(raw))
}

// TransferLock returns the mutex serializing transfer attempts for name.
// Locks survive Connect overwrites: serialization is per wallet name.
func (r *Registry) TransferLock(name string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	mu, ok := r.locks[name]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[name] = mu
	}
	return mu
}

// LoadPersisted registers every wallet found in the keystore. Key material
// stays encrypted; only addresses are read.
func (r *Registry) LoadPersisted() error {
	if r.keystore == nil {
		return nil
	}
	stored, err := r.keystore.LoadAll()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range stored {
		addr, err := solana.PublicKeyFromBase58(w.Address)
		if err != nil {
			r.log.Warn("skipping keystore entry with bad address", zap.String("wallet", w.Name), zap.Error(err))
			continue
		}
		r.wallets[w.Name] = &entry{address: addr, encKey: w.EncKey}
	}
	return nil
}

package secrets

import (
	"testing"

	"spica/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	store := New([]byte("correct horse battery staple"))
	defer store.Close()

	plaintext := []byte("sixty-four bytes of very sensitive key material, more or less..")
	env, err := store.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(env), string(plaintext))

	got, err := store.Decrypt(env)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	store := New([]byte("passphrase one"))
	defer store.Close()

	env, err := store.Encrypt([]byte("secret"))
	require.NoError(t, err)

	other := New([]byte("passphrase two"))
	defer other.Close()

	_, err = other.Decrypt(env)
	require.ErrorIs(t, err, model.ErrIntegrity)
}

func TestDecryptTampered(t *testing.T) {
	store := New([]byte("passphrase"))
	defer store.Close()

	env, err := store.Encrypt([]byte("secret"))
	require.NoError(t, err)

	// Flip a ciphertext byte inside the base64 payload.
	tampered := make([]byte, len(env))
	copy(tampered, env)
	for i := len(tampered) - 5; i > 0; i-- {
		if tampered[i] >= 'a' && tampered[i] < 'z' {
			tampered[i]++
			break
		}
	}

	_, err = store.Decrypt(tampered)
	require.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	store := New([]byte("passphrase"))
	defer store.Close()

	_, err := store.Decrypt([]byte("not an envelope"))
	require.Error(t, err)
}

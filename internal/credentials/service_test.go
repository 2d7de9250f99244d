package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("encrypts and returns a usable store", func(t *testing.T) {
		store, err := NewStore(Credential{Username: "admin", Secret: "s3cr3t"})
		require.NoError(t, err)
		require.NotNil(t, store)

		got, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "admin", got.Username)
		assert.Equal(t, "s3cr3t", got.Secret)
	})

	t.Run("rejects empty username", func(t *testing.T) {
		store, err := NewStore(Credential{Username: "", Secret: "s3cr3t"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, store)
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		store, err := NewStore(Credential{Username: "admin", Secret: ""})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, store)
	})
}

func TestStoreRotate(t *testing.T) {
	t.Run("replaces the held credential", func(t *testing.T) {
		store, err := NewStore(Credential{Username: "admin", Secret: "old-secret"})
		require.NoError(t, err)

		require.NoError(t, store.Rotate(Credential{Username: "svc-account", Secret: "new-secret"}))

		got, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "svc-account", got.Username)
		assert.Equal(t, "new-secret", got.Secret)
	})

	t.Run("rejects an incomplete replacement", func(t *testing.T) {
		store, err := NewStore(Credential{Username: "admin", Secret: "old-secret"})
		require.NoError(t, err)

		err = store.Rotate(Credential{Username: "admin", Secret: ""})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		got, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "old-secret", got.Secret, "rotate failure must not disturb the held credential")
	})
}

func TestCredentialRedacted(t *testing.T) {
	c := Credential{Username: "admin", Secret: "supersecret123"}
	redacted := c.Redacted()
	assert.Equal(t, "admin:[REDACTED]", redacted)
	assert.NotContains(t, redacted, "supersecret123")
}

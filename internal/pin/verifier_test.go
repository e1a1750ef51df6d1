package pin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		hash, err := Hash("4921")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))
		assert.NotContains(t, hash, "4921")
	})

	t.Run("empty pin", func(t *testing.T) {
		hash, err := Hash("")

		assert.ErrorIs(t, err, ErrEmptyPin)
		assert.Empty(t, hash)
	})

	t.Run("same pin hashes differently", func(t *testing.T) {
		first, err := Hash("4921")
		require.NoError(t, err)
		second, err := Hash("4921")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestVerify(t *testing.T) {
	hash, err := Hash("4921")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		assert.NoError(t, Verify(hash, "4921"))
	})

	t.Run("wrong pin", func(t *testing.T) {
		assert.ErrorIs(t, Verify(hash, "0000"), ErrMismatch)
	})

	t.Run("no hash stored", func(t *testing.T) {
		assert.ErrorIs(t, Verify("", "4921"), ErrMismatch)
	})

	t.Run("garbage hash", func(t *testing.T) {
		err := Verify("not-a-bcrypt-hash", "4921")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrMismatch)
	})
}

package vas

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

func TestDeriveKey(t *testing.T) {
	walletID := uuid.New()

	t.Run("deterministic", func(t *testing.T) {
		first := DeriveKey(walletID, shared.CategoryAirtime, "08012345678", 50_000)
		second := DeriveKey(walletID, shared.CategoryAirtime, "08012345678", 50_000)

		assert.Equal(t, first, second)
		assert.Len(t, first, 64)
	})

	t.Run("every input participates", func(t *testing.T) {
		base := DeriveKey(walletID, shared.CategoryAirtime, "08012345678", 50_000)

		assert.NotEqual(t, base, DeriveKey(uuid.New(), shared.CategoryAirtime, "08012345678", 50_000))
		assert.NotEqual(t, base, DeriveKey(walletID, shared.CategoryData, "08012345678", 50_000))
		assert.NotEqual(t, base, DeriveKey(walletID, shared.CategoryAirtime, "08012345679", 50_000))
		assert.NotEqual(t, base, DeriveKey(walletID, shared.CategoryAirtime, "08012345678", 50_001))
	})
}

func TestHashRequest(t *testing.T) {
	walletID := uuid.New()

	newRequest := func() *PurchaseRequest {
		return &PurchaseRequest{
			WalletID:  walletID,
			Category:  shared.CategoryData,
			Amount:    150_000,
			Recipient: "07031112233",
			Metadata:  map[string]string{"plan": "weekly", "network": "mtn"},
		}
	}

	t.Run("equal requests hash equally", func(t *testing.T) {
		first, err := HashRequest(newRequest())
		require.NoError(t, err)
		second, err := HashRequest(newRequest())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, first, 64)
	})

	t.Run("metadata insertion order is irrelevant", func(t *testing.T) {
		first := newRequest()
		second := newRequest()
		second.Metadata = map[string]string{"network": "mtn", "plan": "weekly"}

		firstHash, err := HashRequest(first)
		require.NoError(t, err)
		secondHash, err := HashRequest(second)
		require.NoError(t, err)

		assert.Equal(t, firstHash, secondHash)
	})

	t.Run("correlation id does not participate", func(t *testing.T) {
		first := newRequest()
		first.CorrelationID = "corr-1"
		second := newRequest()
		second.CorrelationID = "corr-2"

		firstHash, err := HashRequest(first)
		require.NoError(t, err)
		secondHash, err := HashRequest(second)
		require.NoError(t, err)

		assert.Equal(t, firstHash, secondHash)
	})

	t.Run("payload drift changes the hash", func(t *testing.T) {
		first := newRequest()
		second := newRequest()
		second.Metadata = map[string]string{"plan": "monthly", "network": "mtn"}

		firstHash, err := HashRequest(first)
		require.NoError(t, err)
		secondHash, err := HashRequest(second)
		require.NoError(t, err)

		assert.NotEqual(t, firstHash, secondHash)
	})
}

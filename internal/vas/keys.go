package vas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// DeriveKey builds the deterministic idempotency key for a purchase. The key
// is derived server side from the wallet and the normalized payload, so
// client retries of the same logical request collapse onto one reservation
// regardless of any transport-level request IDs they carry.
func DeriveKey(walletID uuid.UUID, category shared.Category, recipient string, amount int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", walletID, category, recipient, amount)))
	return hex.EncodeToString(sum[:])
}

// HashRequest fingerprints the canonical request payload. The JSON encoder
// emits struct fields in declaration order and sorts map keys, so equal
// requests always hash equally. A completed key presented with a different
// hash is a reuse, not a replay.
func HashRequest(req *PurchaseRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint purchase request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// purchaseReference is the globally unique ledger reference for a purchase
// debit
func purchaseReference(purchaseID uuid.UUID) string {
	return "purchase:" + purchaseID.String()
}

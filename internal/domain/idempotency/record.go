package idempotency

import (
	"time"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// Record maps a deterministic request fingerprint to its lifecycle state and,
// once completed, the response that every replay of the same request receives.
//
// Lifecycle: a record is created PENDING before any external call is made.
// It moves to COMPLETED (with the cached response) only after the ledger
// commit succeeds, or to FAILED on rejection, provider error or insufficient
// funds. A FAILED key may be re-armed by a fresh attempt; a COMPLETED key is
// terminal.
type Record struct {
	Key            string                   `json:"key"`
	RequestHash    string                   `json:"request_hash"`
	Status         shared.IdempotencyStatus `json:"status"`
	CachedResponse []byte                   `json:"cached_response,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Reservation is the outcome of a successful Reserve call.
//
// Fresh is true when this caller now owns a PENDING record (newly inserted,
// re-armed after FAILED, or taken over from a stale PENDING) and must run the
// operation. Fresh is false when the record is COMPLETED with a matching
// request hash; Record.CachedResponse then holds the response to return
// verbatim without doing any work.
type Reservation struct {
	Record *Record
	Fresh  bool
}

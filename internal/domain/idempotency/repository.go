package idempotency

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository is the idempotency store. Reserve must be implemented as an
// atomic insert-if-absent so that N concurrent identical requests resolve to
// exactly one fresh reservation.
type Repository interface {
	// Reserve claims the key for the caller. Outcomes:
	//   - no record: a PENDING record is created, reservation is fresh
	//   - COMPLETED with matching hash: reservation carries the cached response
	//   - COMPLETED with different hash: ErrKeyReuseMismatch
	//   - PENDING updated after staleBefore: ErrDuplicateInFlight
	//   - PENDING updated before staleBefore: taken over, reservation is fresh
	//   - FAILED: re-armed to PENDING, reservation is fresh
	Reserve(ctx context.Context, key, requestHash string, staleBefore time.Time) (*Reservation, error)

	// Complete transitions a PENDING record to COMPLETED and stores the
	// response returned to all future replays. Completing a non-PENDING
	// record returns ErrRecordNotPending.
	Complete(ctx context.Context, key string, response []byte) error

	// Fail transitions a PENDING record to FAILED so the key can be retried.
	// Calling Fail on a COMPLETED record is a no-op: a completed idempotent
	// operation is never reverted.
	Fail(ctx context.Context, key string) error

	Get(ctx context.Context, key string) (*Record, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateInFlight indicates the key is already reserved by a live request
type ErrDuplicateInFlight struct {
	Key string
}

func (e ErrDuplicateInFlight) Error() string {
	return "duplicate request in flight for idempotency key: " + e.Key
}

// Is implements the errors.Is interface for ErrDuplicateInFlight
func (e ErrDuplicateInFlight) Is(target error) bool {
	t, ok := target.(ErrDuplicateInFlight)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

// ErrKeyReuseMismatch indicates a completed key was presented with a
// different request payload
type ErrKeyReuseMismatch struct {
	Key string
}

func (e ErrKeyReuseMismatch) Error() string {
	return "idempotency key reused with a different payload: " + e.Key
}

// Is implements the errors.Is interface for ErrKeyReuseMismatch
func (e ErrKeyReuseMismatch) Is(target error) bool {
	t, ok := target.(ErrKeyReuseMismatch)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

// ErrRecordNotFound indicates missing idempotency record
type ErrRecordNotFound struct {
	Key string
}

func (e ErrRecordNotFound) Error() string {
	return "idempotency record not found: " + e.Key
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

// ErrRecordNotPending indicates a terminal transition was attempted on a
// record that is not PENDING
type ErrRecordNotPending struct {
	Key string
}

func (e ErrRecordNotPending) Error() string {
	return "idempotency record is not pending: " + e.Key
}

// Is implements the errors.Is interface for ErrRecordNotPending
func (e ErrRecordNotPending) Is(target error) bool {
	t, ok := target.(ErrRecordNotPending)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

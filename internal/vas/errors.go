package vas

// ErrOutcomeUnknown indicates the provider may or may not have processed the
// purchase and requery could not decide within the attempt budget. The
// reservation is left PENDING so a blind retry cannot cause a second charge;
// a reconciliation alert has been raised.
type ErrOutcomeUnknown struct {
	Key string
}

func (e ErrOutcomeUnknown) Error() string {
	return "provider outcome unknown for idempotency key: " + e.Key
}

// Is implements the errors.Is interface for ErrOutcomeUnknown
func (e ErrOutcomeUnknown) Is(target error) bool {
	t, ok := target.(ErrOutcomeUnknown)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

// ErrCommitFailure indicates the provider accepted the purchase but the
// local ledger commit failed. Money moved externally with no internal
// record; a reconciliation alert has been raised and the reservation is left
// PENDING.
type ErrCommitFailure struct {
	Key               string
	ProviderReference string
}

func (e ErrCommitFailure) Error() string {
	return "ledger commit failed after provider acceptance, key: " + e.Key
}

// Is implements the errors.Is interface for ErrCommitFailure
func (e ErrCommitFailure) Is(target error) bool {
	t, ok := target.(ErrCommitFailure)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

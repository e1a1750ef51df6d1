package pin

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/movaapp/mova-backend/internal/config"
)

// ErrTooManyAttempts indicates the wallet exhausted its PIN attempts for the
// current window
type ErrTooManyAttempts struct {
	WalletID uuid.UUID
}

func (e ErrTooManyAttempts) Error() string {
	return "too many pin attempts for wallet: " + e.WalletID.String()
}

// Is implements the errors.Is interface for ErrTooManyAttempts
func (e ErrTooManyAttempts) Is(target error) bool {
	t, ok := target.(ErrTooManyAttempts)
	if !ok {
		return false
	}
	if t.WalletID == uuid.Nil {
		return true
	}
	return e.WalletID == t.WalletID
}

// Limiter counts PIN attempts per wallet in Redis so every API replica sees
// the same window. Redis being unavailable must never block settlements, so
// all cache failures log and allow.
type Limiter struct {
	logger *slog.Logger
	client *redis.Client
	max    int64
	window time.Duration
}

// NewLimiter creates a PIN attempt limiter
func NewLimiter(logger *slog.Logger, client *redis.Client, cfg *config.PinConfig) *Limiter {
	return &Limiter{
		logger: logger,
		client: client,
		max:    int64(cfg.MaxAttempts),
		window: cfg.AttemptWindow,
	}
}

// Allow records one attempt for the wallet and reports whether it may
// proceed. The window starts at the first attempt and is not extended by
// later ones.
func (l *Limiter) Allow(ctx context.Context, walletID uuid.UUID) error {
	key := attemptKey(walletID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("PIN attempt counter unavailable, allowing attempt", "wallet_id", walletID, "error", err)
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("Failed to set PIN attempt window", "wallet_id", walletID, "error", err)
		}
	}

	if count > l.max {
		return ErrTooManyAttempts{WalletID: walletID}
	}
	return nil
}

// Reset clears the attempt counter after a successful verification
func (l *Limiter) Reset(ctx context.Context, walletID uuid.UUID) {
	if err := l.client.Del(ctx, attemptKey(walletID)).Err(); err != nil {
		l.logger.Warn("Failed to reset PIN attempt counter", "wallet_id", walletID, "error", err)
	}
}

func attemptKey(walletID uuid.UUID) string {
	return "pin:attempts:" + walletID.String()
}

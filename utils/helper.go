package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func NewTime(t time.Time) *time.Time {
	return &t
}

// GenerateInvoiceNumber returns "INV-" followed by an uppercase unique token.
func GenerateInvoiceNumber() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INV-" + strings.ToUpper(token[:13])
}

// ParseDecimal accepts user-formatted amounts such as "1,500", "PHP 1,500.50"
// or "₱ -200". Currency markers and thousands separators are dropped.
func ParseDecimal(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	for _, marker := range []string{"PHP", "php", "Php", "₱"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimSpace(strings.TrimPrefix(s, "-"))

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
			continue
		}
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	if neg {
		clean = "-" + clean
	}
	return decimal.NewFromString(clean)
}

// UppercaseFirst upper-cases the first letter of s.
func UppercaseFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsLockContention reports whether err from ObtainLock means another holder
// kept the lock, as opposed to redis failing.
func IsLockContention(err error) bool {
	return errors.Is(err, redislock.ErrNotObtained)
}

// ObtainLock takes a best-effort redis lock on key.
// The returned release func is never nil. When redis is not connected the
// lock is skipped and ok is false.
func ObtainLock(ctx context.Context, key string, ttl time.Duration, moduleName string, functionName string) (release func(), ok bool, err error) {
	release = func() {}
	locker := config.GetRedisLock()
	if locker == nil {
		return release, false, nil
	}
	logger := config.GetLogger()

	lock, err := locker.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock", key, err)
		return release, false, fmt.Errorf("could not obtain lock for %s: %w", key, err)
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", key, err)
		return release, false, err
	}

	release = func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogError(logger, moduleName, functionName, "Release lock", key, releaseErr)
		}
	}
	return release, true, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(lockErr error) (*OverdueSweeper, *logtest.Hook, *int) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	calls := 0
	s := &OverdueSweeper{
		Logger:    logger,
		BatchSize: 10,
		Interval:  time.Minute,
		LockTTL:   time.Minute,
		obtainLock: func(context.Context, string, time.Duration, string, string) (func(), bool, error) {
			return func() {}, lockErr == nil, lockErr
		},
		sweep: func(context.Context, time.Time, int) (int, error) {
			calls++
			return 2, nil
		},
	}
	return s, hook, &calls
}

func errorEntries(hook *logtest.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestOverdueSweeper_Sweeps(t *testing.T) {
	s, hook, calls := newTestSweeper(nil)
	s.sweepOnce(context.Background())
	assert.Equal(t, 1, *calls)
	assert.Empty(t, errorEntries(hook))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 2, hook.LastEntry().Data["swept"])
}

func TestOverdueSweeper_LockHeldElsewhere(t *testing.T) {
	s, hook, calls := newTestSweeper(fmt.Errorf("could not obtain lock for overdue-sweeper: %w", redislock.ErrNotObtained))
	s.sweepOnce(context.Background())
	assert.Zero(t, *calls)
	assert.Empty(t, errorEntries(hook))
}

func TestOverdueSweeper_LogsRedisFailure(t *testing.T) {
	s, hook, calls := newTestSweeper(errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))
	s.sweepOnce(context.Background())
	assert.Zero(t, *calls)
	entries := errorEntries(hook)
	require.Len(t, entries, 1)
	assert.Equal(t, "ObtainLock", entries[0].Data["context"])
}

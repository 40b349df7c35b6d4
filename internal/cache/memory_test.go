package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	memory := NewMemory[string](time.Minute)
	memory.now = func() time.Time { return now }

	_, err := memory.Get("k1")
	assert.ErrorIs(t, err, ErrNotFound)

	memory.Set("k1", "v1")
	v, err := memory.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	// expired once the ttl has elapsed
	now = now.Add(time.Minute)
	_, err = memory.Get("k1")
	assert.ErrorIs(t, err, ErrNotFound)

	memory.Set("k2", "v2")
	memory.Delete("k2")
	_, err = memory.Get("k2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetOrSet(t *testing.T) {
	memory := NewMemory[int](time.Hour)

	calls := 0
	compute := func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		v, err := memory.GetOrSet(t.Context(), "answer", compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)

	_, err := memory.GetOrSet(t.Context(), "failing", func(ctx context.Context) (int, error) {
		return 0, errors.New("expected error")
	})
	assert.Error(t, err)

	_, err = memory.Get("failing")
	assert.ErrorIs(t, err, ErrNotFound)
}

package worldstate

import (
	"log/slog"
	"testing"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	ctx := t.Context()

	memory := NewMemory()

	v, err := memory.GetState(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, v)

	value := []byte("v1")
	require.NoError(t, memory.PutState(ctx, "k1", value))

	// stored values are copies
	value[0] = 'x'
	v, err = memory.GetState(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, memory.DelState(ctx, "k1"))
	v, err = memory.GetState(ctx, "k1")
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemoryPartialCompositeKey(t *testing.T) {
	ctx := t.Context()
	memory := NewMemory()

	for _, attrs := range [][]string{
		{"STATE", "NY", "2020"},
		{"STATE", "CA", "2021"},
		{"STATE", "CA", "2020"},
		{"COUNTRY", "USA", "2020"},
	} {
		key, err := store.CreateCompositeKey("UtilityEmissionsFactor", attrs)
		require.NoError(t, err)
		require.NoError(t, memory.PutState(ctx, key, []byte(attrs[1])))
	}
	other, err := store.CreateCompositeKey("EmissionsRecord", []string{"STATE"})
	require.NoError(t, err)
	require.NoError(t, memory.PutState(ctx, other, []byte("record")))

	it, err := memory.GetStateByPartialCompositeKey(ctx, "UtilityEmissionsFactor", []string{"STATE", "CA"})
	require.NoError(t, err)
	defer it.Close()

	years := []string{}
	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		_, attrs, err := store.SplitCompositeKey(kv.Key)
		require.NoError(t, err)
		years = append(years, attrs[2])
	}
	assert.Equal(t, []string{"2020", "2021"}, years)

	it, err = memory.GetStateByPartialCompositeKey(ctx, "UtilityEmissionsFactor", nil)
	require.NoError(t, err)
	count := 0
	for it.HasNext() {
		_, err := it.Next()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 4, count)
}

func TestPrintableKey(t *testing.T) {
	key, err := store.CreateCompositeKey("EmissionsRecord", []string{"U1", "P1"})
	require.NoError(t, err)
	assert.Equal(t, "EmissionsRecord/U1/P1", printableKey(key))
}

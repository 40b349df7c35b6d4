// Package worldstate provides the key/value backends the engine runs on: an
// in-memory map, an etcd cluster, or the chaincode stub of a ledger peer.
package worldstate

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/must"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
)

// Memory is a process local world state.
type Memory struct {
	m *sync.Map
}

func NewMemory() *Memory {
	return &Memory{
		m: new(sync.Map),
	}
}

func (m *Memory) GetState(ctx context.Context, key string) ([]byte, error) {
	v, found := m.m.Load(key)
	if !found {
		return nil, nil
	}

	value, ok := v.([]byte)
	must.Assert(ok, "loaded value is not a byte slice")

	return slices.Clone(value), nil
}

func (m *Memory) PutState(ctx context.Context, key string, value []byte) error {
	m.m.Store(key, slices.Clone(value))
	slog.Debug("world state entry written", "key", printableKey(key))
	return nil
}

func (m *Memory) DelState(ctx context.Context, key string) error {
	m.m.Delete(key)
	slog.Debug("world state entry deleted", "key", printableKey(key))
	return nil
}

// GetStateByPartialCompositeKey snapshots the matching entries, sorted by key.
func (m *Memory) GetStateByPartialCompositeKey(ctx context.Context, objectType string, attributes []string) (store.StateIterator, error) {
	start, end, err := store.PartialKeyRange(objectType, attributes)
	if err != nil {
		return nil, err
	}

	kvs := make([]store.KV, 0)
	m.m.Range(func(k, v any) bool {
		key, ok := k.(string)
		must.Assert(ok, "loaded key is not a string")

		if key >= start && key < end {
			value, ok := v.([]byte)
			must.Assert(ok, "loaded value is not a byte slice")
			kvs = append(kvs, store.KV{Key: key, Value: slices.Clone(value)})
		}
		return true
	})

	slices.SortFunc(kvs, func(a, b store.KV) int {
		return strings.Compare(a.Key, b.Key)
	})

	return store.NewSliceIterator(kvs), nil
}

// printableKey replaces the composite key separators for logging.
func printableKey(key string) string {
	return strings.Trim(strings.ReplaceAll(key, "\x00", "/"), "/")
}

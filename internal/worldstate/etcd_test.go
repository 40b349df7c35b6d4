package worldstate

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sortedPages serves ranges the way etcd does for sorted, limited Get requests.
type sortedPages struct {
	data  map[string][]byte
	calls int
	fail  error
}

func (p *sortedPages) page(_ context.Context, from, end string, limit int64) ([]store.KV, bool, error) {
	p.calls++
	if p.fail != nil {
		return nil, false, p.fail
	}

	var keys []string
	for k := range p.data {
		if k >= from && k < end {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	more := false
	if limit > 0 && int64(len(keys)) > limit {
		keys = keys[:limit]
		more = true
	}

	kvs := make([]store.KV, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, store.KV{Key: k, Value: p.data[k]})
	}
	return kvs, more, nil
}

func compositeKey(t *testing.T, objectType string, attrs ...string) string {
	t.Helper()
	key, err := store.CreateCompositeKey(objectType, attrs)
	require.NoError(t, err)
	return key
}

func drain(t *testing.T, it store.StateIterator) []string {
	t.Helper()
	var keys []string
	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		keys = append(keys, kv.Key)
	}
	require.NoError(t, it.Close())
	return keys
}

func TestEtcdIteratorPages(t *testing.T) {
	const prefix = "ghg"
	pages := &sortedPages{data: map[string][]byte{}}

	var want []string
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		key := compositeKey(t, store.FactorType, "USA_EIA_11208", id)
		want = append(want, key)
		pages.data[prefix+key] = []byte(id)
	}
	// neighbours of the range that must never be returned
	pages.data[prefix+compositeKey(t, store.FactorType, "USA_EIA_11209", "a")] = []byte("x")
	pages.data[prefix+compositeKey(t, store.LookupType, "USA_EIA_11208")] = []byte("x")
	pages.data["other"+compositeKey(t, store.FactorType, "USA_EIA_11208", "z")] = []byte("x")

	start, end, err := store.PartialKeyRange(store.FactorType, []string{"USA_EIA_11208"})
	require.NoError(t, err)

	it := newEtcdIterator(t.Context(), pages.page, prefix, start, end, 2)
	assert.Equal(t, want, drain(t, it))
	assert.Equal(t, 3, pages.calls)
}

func TestEtcdIteratorExactPageBoundary(t *testing.T) {
	pages := &sortedPages{data: map[string][]byte{}}
	for _, id := range []string{"a", "b", "c", "d"} {
		pages.data[compositeKey(t, store.EmissionsRecordType, id)] = []byte(id)
	}

	start, end, err := store.PartialKeyRange(store.EmissionsRecordType, nil)
	require.NoError(t, err)

	it := newEtcdIterator(t.Context(), pages.page, "", start, end, 2)
	assert.Len(t, drain(t, it), 4)
	assert.Equal(t, 2, pages.calls)
}

func TestEtcdIteratorEmptyRange(t *testing.T) {
	pages := &sortedPages{data: map[string][]byte{
		compositeKey(t, store.LookupType, "USA_EIA_11208"): []byte("x"),
	}}

	start, end, err := store.PartialKeyRange(store.FactorType, nil)
	require.NoError(t, err)

	it := newEtcdIterator(t.Context(), pages.page, "", start, end, 10)
	assert.False(t, it.HasNext())
	assert.Empty(t, drain(t, it))
	assert.Equal(t, 1, pages.calls)

	_, err = it.Next()
	assert.Error(t, err)
}

func TestEtcdIteratorPartialKeyEnd(t *testing.T) {
	pages := &sortedPages{data: map[string][]byte{}}
	inside := compositeKey(t, store.FactorType, "USA_EIA_11208", "\U0010fffe")
	pages.data[inside] = []byte("in")
	// a longer attribute sharing the prefix belongs to another division
	pages.data[compositeKey(t, store.FactorType, "USA_EIA_112080")] = []byte("out")
	pages.data[compositeKey(t, store.FactorType, "USA_EIA_11207", "z")] = []byte("out")

	start, end, err := store.PartialKeyRange(store.FactorType, []string{"USA_EIA_11208"})
	require.NoError(t, err)

	it := newEtcdIterator(t.Context(), pages.page, "", start, end, 1)
	assert.Equal(t, []string{inside}, drain(t, it))
}

func TestEtcdIteratorError(t *testing.T) {
	pages := &sortedPages{fail: errors.New("etcdserver: request timed out")}

	start, end, err := store.PartialKeyRange(store.FactorType, nil)
	require.NoError(t, err)

	it := newEtcdIterator(t.Context(), pages.page, "", start, end, 10)
	require.True(t, it.HasNext())
	_, err = it.Next()
	assert.ErrorContains(t, err, "request timed out")
	assert.False(t, it.HasNext())
}

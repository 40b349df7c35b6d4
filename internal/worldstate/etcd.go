package worldstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Etcd keeps the world state in an etcd cluster. etcd serves ordered key
// ranges natively, which is all the partial key queries need.
type Etcd struct {
	client   *clientv3.Client
	prefix   string
	pageSize int64
}

type EtcdOption func(*Etcd)

// WithPrefix namespaces every key, allowing several ledgers to share a cluster.
func WithPrefix(prefix string) EtcdOption {
	return func(e *Etcd) {
		e.prefix = prefix
	}
}

// WithPageSize bounds the number of entries fetched per range request.
func WithPageSize(size int64) EtcdOption {
	return func(e *Etcd) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

func NewEtcd(client *clientv3.Client, opts ...EtcdOption) *Etcd {
	e := &Etcd{
		client:   client,
		prefix:   "emissions",
		pageSize: 100,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Etcd) GetState(ctx context.Context, key string) ([]byte, error) {
	resp, err := e.client.Get(ctx, e.prefix+key)
	if err != nil {
		return nil, fmt.Errorf("failed to get etcd key: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}
	return resp.Kvs[0].Value, nil
}

func (e *Etcd) PutState(ctx context.Context, key string, value []byte) error {
	if _, err := e.client.Put(ctx, e.prefix+key, string(value)); err != nil {
		return fmt.Errorf("failed to put etcd key: %w", err)
	}
	return nil
}

func (e *Etcd) DelState(ctx context.Context, key string) error {
	if _, err := e.client.Delete(ctx, e.prefix+key); err != nil {
		return fmt.Errorf("failed to delete etcd key: %w", err)
	}
	return nil
}

// GetStateByPartialCompositeKey returns an iterator fetching the range page by page.
func (e *Etcd) GetStateByPartialCompositeKey(ctx context.Context, objectType string, attributes []string) (store.StateIterator, error) {
	start, end, err := store.PartialKeyRange(objectType, attributes)
	if err != nil {
		return nil, err
	}
	return newEtcdIterator(ctx, e.rangePage, e.prefix, start, end, e.pageSize), nil
}

// pageFunc returns up to limit raw entries in [from, end) sorted by key and
// whether more entries remain after them.
type pageFunc func(ctx context.Context, from, end string, limit int64) ([]store.KV, bool, error)

func (e *Etcd) rangePage(ctx context.Context, from, end string, limit int64) ([]store.KV, bool, error) {
	resp, err := e.client.Get(ctx, from,
		clientv3.WithRange(end),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
		clientv3.WithLimit(limit),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to range etcd keys: %w", err)
	}

	kvs := make([]store.KV, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		kvs = append(kvs, store.KV{Key: string(kv.Key), Value: kv.Value})
	}
	return kvs, resp.More, nil
}

type etcdIterator struct {
	ctx      context.Context
	fetchFn  pageFunc
	prefix   string
	pageSize int64
	from     string
	end      string
	page     []store.KV
	done     bool
	err      error
}

func newEtcdIterator(ctx context.Context, fetch pageFunc, prefix, start, end string, pageSize int64) *etcdIterator {
	return &etcdIterator{
		ctx:      ctx,
		fetchFn:  fetch,
		prefix:   prefix,
		pageSize: pageSize,
		from:     prefix + start,
		end:      prefix + end,
	}
}

func (it *etcdIterator) fetch() {
	kvs, more, err := it.fetchFn(it.ctx, it.from, it.end, it.pageSize)
	if err != nil {
		it.err = err
		return
	}

	for _, kv := range kvs {
		it.page = append(it.page, store.KV{
			Key:   strings.TrimPrefix(kv.Key, it.prefix),
			Value: kv.Value,
		})
	}

	if !more || len(kvs) == 0 {
		it.done = true
		return
	}
	it.from = kvs[len(kvs)-1].Key + "\x00"
}

func (it *etcdIterator) HasNext() bool {
	if len(it.page) == 0 && !it.done && it.err == nil {
		it.fetch()
	}
	return len(it.page) > 0 || it.err != nil
}

func (it *etcdIterator) Next() (store.KV, error) {
	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true
		return store.KV{}, err
	}
	if len(it.page) == 0 {
		return store.KV{}, fmt.Errorf("iterator exhausted")
	}
	kv := it.page[0]
	it.page = it.page[1:]
	return kv, nil
}

func (it *etcdIterator) Close() error {
	it.page = nil
	it.done = true
	return nil
}

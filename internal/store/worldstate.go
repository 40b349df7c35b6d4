// Package store is the typed access layer over the ledger world state. The
// world state only offers point reads and ordered scans over composite keys:
// every other selection happens in the caller.
package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

const (
	compositeKeyNamespace = "\x00"
	compositeKeySeparator = "\x00"
)

// KV is a single world state entry returned by a range scan.
type KV struct {
	Key   string
	Value []byte
}

// StateIterator walks a range scan in key order.
type StateIterator interface {
	HasNext() bool
	Next() (KV, error)
	Close() error
}

// WorldState is the key/value surface exposed by the ledger to the engine.
// GetState returns a nil value without error for a missing key.
type WorldState interface {
	GetState(ctx context.Context, key string) ([]byte, error)
	PutState(ctx context.Context, key string, value []byte) error
	DelState(ctx context.Context, key string) error
	GetStateByPartialCompositeKey(ctx context.Context, objectType string, attributes []string) (StateIterator, error)
}

// CreateCompositeKey encodes objectType and attributes the way the ledger does,
// so keys written here are range-scannable by the ledger itself.
func CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key, err := shim.CreateCompositeKey(objectType, attributes)
	if err != nil {
		return "", fmt.Errorf("%w: %s", carbonaccounting.ErrInvalidArgument, err.Error())
	}
	return key, nil
}

// SplitCompositeKey is the inverse of CreateCompositeKey.
func SplitCompositeKey(compositeKey string) (string, []string, error) {
	if !strings.HasPrefix(compositeKey, compositeKeyNamespace) {
		return "", nil, fmt.Errorf("%w: %q is not a composite key", carbonaccounting.ErrParse, compositeKey)
	}
	parts := strings.Split(strings.TrimSuffix(compositeKey[1:], compositeKeySeparator), compositeKeySeparator)
	return parts[0], parts[1:], nil
}

// PartialKeyRange returns the [start, end) key range matching every composite
// key that starts with objectType and attributes.
func PartialKeyRange(objectType string, attributes []string) (start string, end string, err error) {
	start, err = CreateCompositeKey(objectType, attributes)
	if err != nil {
		return "", "", err
	}
	return start, start + string(utf8.MaxRune), nil
}

// SliceIterator iterates over an in-memory snapshot of a range scan.
type SliceIterator struct {
	kvs    []KV
	cursor int
}

func NewSliceIterator(kvs []KV) *SliceIterator {
	return &SliceIterator{kvs: kvs}
}

func (it *SliceIterator) HasNext() bool {
	return it.cursor < len(it.kvs)
}

func (it *SliceIterator) Next() (KV, error) {
	if !it.HasNext() {
		return KV{}, fmt.Errorf("iterator exhausted")
	}
	kv := it.kvs[it.cursor]
	it.cursor++
	return kv, nil
}

func (it *SliceIterator) Close() error {
	it.kvs = nil
	return nil
}

// ReadOnly rejects writes, for transactions that are evaluated but never committed.
func ReadOnly(state WorldState) WorldState {
	return readOnly{state}
}

type readOnly struct {
	WorldState
}

func (readOnly) PutState(ctx context.Context, key string, value []byte) error {
	return fmt.Errorf("%w: write attempted in a read-only transaction", carbonaccounting.ErrInvalidArgument)
}

func (readOnly) DelState(ctx context.Context, key string) error {
	return fmt.Errorf("%w: delete attempted in a read-only transaction", carbonaccounting.ErrInvalidArgument)
}

package worldstate

import (
	"context"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Fabric exposes the chaincode stub of the running transaction. Reads and
// writes join the transaction read/write set; the peer orders conflicting writes.
type Fabric struct {
	stub shim.ChaincodeStubInterface
}

func NewFabric(stub shim.ChaincodeStubInterface) *Fabric {
	return &Fabric{stub: stub}
}

func (f *Fabric) GetState(ctx context.Context, key string) ([]byte, error) {
	return f.stub.GetState(key)
}

func (f *Fabric) PutState(ctx context.Context, key string, value []byte) error {
	return f.stub.PutState(key, value)
}

func (f *Fabric) DelState(ctx context.Context, key string) error {
	return f.stub.DelState(key)
}

func (f *Fabric) GetStateByPartialCompositeKey(ctx context.Context, objectType string, attributes []string) (store.StateIterator, error) {
	it, err := f.stub.GetStateByPartialCompositeKey(objectType, attributes)
	if err != nil {
		return nil, err
	}
	return &fabricIterator{it: it}, nil
}

type fabricIterator struct {
	it shim.StateQueryIteratorInterface
}

func (i *fabricIterator) HasNext() bool {
	return i.it.HasNext()
}

func (i *fabricIterator) Next() (store.KV, error) {
	kv, err := i.it.Next()
	if err != nil {
		return store.KV{}, err
	}
	return store.KV{Key: kv.Key, Value: kv.Value}, nil
}

func (i *fabricIterator) Close() error {
	return i.it.Close()
}

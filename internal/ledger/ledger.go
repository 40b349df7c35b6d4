// Package ledger is the client side of the ledger: transactions are either
// submitted, and may write to the world state, or evaluated read-only.
package ledger

import (
	"context"
	"sync"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
)

type Client interface {
	// Submit runs a transaction that may write to the world state.
	Submit(ctx context.Context, fn string, args ...string) ([]byte, error)
	// Evaluate runs a query transaction. Writes are rejected.
	Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error)
	Close() error
}

// Connector opens a client per unit of work.
type Connector interface {
	Connect(ctx context.Context) (Client, error)
}

// LocalConnector runs the engine in process. Submissions are serialized, as
// the ordering service of a ledger would.
type LocalConnector struct {
	engine *engine.Engine
	state  store.WorldState
	mu     *sync.Mutex
}

func NewLocalConnector(e *engine.Engine, state store.WorldState) *LocalConnector {
	return &LocalConnector{
		engine: e,
		state:  state,
		mu:     new(sync.Mutex),
	}
}

func (c *LocalConnector) Connect(ctx context.Context) (Client, error) {
	return &localClient{c}, nil
}

type localClient struct {
	*LocalConnector
}

func (c *localClient) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Invoke(ctx, c.state, fn, args)
}

func (c *localClient) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return c.engine.Invoke(ctx, store.ReadOnly(c.state), fn, args)
}

func (c *localClient) Close() error {
	return nil
}

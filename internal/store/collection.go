package store

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"

	"github.com/goccy/go-json"
)

// Row is one entry of a partial key query.
type Row[T any] struct {
	Key    string `json:"Key"`
	Record T      `json:"Record"`
}

// Collection stores entities of one kind under a composite key and keeps a
// uuid index so that entities can be read back by identity alone.
type Collection[T any] struct {
	state      WorldState
	objectType string
	identity   func(T) string
	keyAttrs   func(T) []string
}

func (c *Collection[T]) indexKey(uuid string) (string, error) {
	return CreateCompositeKey(c.objectType+"~uuid", []string{uuid})
}

// Put creates or overwrites entity. When the key attributes of an existing
// uuid change, the stale primary entry is removed once the new one is written.
func (c *Collection[T]) Put(ctx context.Context, entity T) error {
	uuid := c.identity(entity)
	if uuid == "" {
		return fmt.Errorf("%w: %s uuid is empty", carbonaccounting.ErrInvalidArgument, c.objectType)
	}

	primaryKey, err := CreateCompositeKey(c.objectType, c.keyAttrs(entity))
	if err != nil {
		return err
	}
	indexKey, err := c.indexKey(uuid)
	if err != nil {
		return err
	}

	previousKey, err := c.state.GetState(ctx, indexKey)
	if err != nil {
		return fmt.Errorf("failed to read %s index %s: %w", c.objectType, uuid, err)
	}
	value, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", c.objectType, uuid, err)
	}
	if err := c.state.PutState(ctx, primaryKey, value); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", c.objectType, uuid, err)
	}
	if err := c.state.PutState(ctx, indexKey, []byte(primaryKey)); err != nil {
		return fmt.Errorf("failed to write %s index %s: %w", c.objectType, uuid, err)
	}

	// stale entry removed last
	if len(previousKey) > 0 && string(previousKey) != primaryKey {
		if err := c.state.DelState(ctx, string(previousKey)); err != nil {
			return fmt.Errorf("failed to remove stale %s %s: %w", c.objectType, uuid, err)
		}
		slog.Debug("stale primary key removed", "object_type", c.objectType, "uuid", uuid)
	}

	return nil
}

// Get reads the entity identified by uuid.
func (c *Collection[T]) Get(ctx context.Context, uuid string) (entity T, err error) {
	indexKey, err := c.indexKey(uuid)
	if err != nil {
		return entity, err
	}

	primaryKey, err := c.state.GetState(ctx, indexKey)
	if err != nil {
		return entity, fmt.Errorf("failed to read %s index %s: %w", c.objectType, uuid, err)
	}
	if len(primaryKey) == 0 {
		return entity, fmt.Errorf("%w: %s %s", carbonaccounting.ErrNotFound, c.objectType, uuid)
	}

	value, err := c.state.GetState(ctx, string(primaryKey))
	if err != nil {
		return entity, fmt.Errorf("failed to read %s %s: %w", c.objectType, uuid, err)
	}
	if len(value) == 0 {
		return entity, fmt.Errorf("%w: %s %s", carbonaccounting.ErrNotFound, c.objectType, uuid)
	}

	if err := json.Unmarshal(value, &entity); err != nil {
		return entity, fmt.Errorf("%w: %s %s: %s", carbonaccounting.ErrParse, c.objectType, uuid, err.Error())
	}
	return entity, nil
}

// Query scans every entity whose key starts with attributes, in key order.
// Trailing empty attributes are ignored, widening the scan. The sequence
// re-issues the scan each time it is ranged over.
func (c *Collection[T]) Query(ctx context.Context, attributes ...string) iter.Seq2[Row[T], error] {
	for len(attributes) > 0 && attributes[len(attributes)-1] == "" {
		attributes = attributes[:len(attributes)-1]
	}

	return func(yield func(Row[T], error) bool) {
		it, err := c.state.GetStateByPartialCompositeKey(ctx, c.objectType, attributes)
		if err != nil {
			yield(Row[T]{}, fmt.Errorf("failed to query %s: %w", c.objectType, err))
			return
		}
		defer it.Close()

		for it.HasNext() {
			kv, err := it.Next()
			if err != nil {
				yield(Row[T]{}, fmt.Errorf("failed to iterate on next %s: %w", c.objectType, err))
				return
			}

			var entity T
			if err := json.Unmarshal(kv.Value, &entity); err != nil {
				yield(Row[T]{}, fmt.Errorf("%w: %s at %q: %s", carbonaccounting.ErrParse, c.objectType, kv.Key, err.Error()))
				return
			}

			if !yield(Row[T]{Key: kv.Key, Record: entity}, nil) {
				return
			}
		}
	}
}

// Collect drains rows into a slice.
func Collect[T any](rows iter.Seq2[Row[T], error]) ([]Row[T], error) {
	collected := make([]Row[T], 0)
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		collected = append(collected, row)
	}
	return collected, nil
}

// Records projects the entity out of each row.
func Records[T any](rows []Row[T]) []T {
	records := make([]T, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record)
	}
	return records
}

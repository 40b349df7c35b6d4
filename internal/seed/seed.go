// Package seed bulk loads emissions factors and utility identifiers, as
// published in yearly datasets, into the ledger.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/client"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML or JSON list of rows. Rows without a uuid are given a random one.
func Load(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	rows := make([]map[string]any, 0)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rows)
	case ".json":
		err = json.Unmarshal(data, &rows)
	default:
		return nil, fmt.Errorf("%w: unsupported seed file %s", carbonaccounting.ErrInvalidArgument, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: seed file %s: %s", carbonaccounting.ErrParse, path, err.Error())
	}

	for _, row := range rows {
		if id, _ := row["uuid"].(string); strings.TrimSpace(id) == "" {
			row["uuid"] = uuid.NewString()
		}
	}
	return rows, nil
}

// Importer sends rows through the client with a bounded number of
// transactions in flight.
type Importer struct {
	client *client.Client
	limit  int
}

type Option func(*Importer)

func WithConcurrency(limit int) Option {
	return func(i *Importer) {
		i.limit = limit
	}
}

func NewImporter(c *client.Client, opts ...Option) *Importer {
	i := &Importer{
		client: c,
		limit:  5,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFactors decodes and imports every factor row. The first failing row
// stops the import; rows already imported stay on the ledger.
func (i *Importer) ImportFactors(ctx context.Context, rows []map[string]any) error {
	return i.run(ctx, "factors", rows, func(ctx context.Context, row map[string]any) error {
		factor, err := carbonaccounting.DecodeFactor(row)
		if err != nil {
			return err
		}
		return failure(i.client.ImportUtilityFactor(ctx, factor).Info)
	})
}

func (i *Importer) ImportUtilities(ctx context.Context, rows []map[string]any) error {
	return i.run(ctx, "utilities", rows, func(ctx context.Context, row map[string]any) error {
		lookup, err := carbonaccounting.DecodeLookup(row)
		if err != nil {
			return err
		}
		return failure(i.client.ImportUtilityIdentifier(ctx, lookup).Info)
	})
}

func (i *Importer) run(ctx context.Context, kind string, rows []map[string]any, importRow func(context.Context, map[string]any) error) error {
	errg, errgctx := errgroup.WithContext(ctx)
	errg.SetLimit(i.limit)

	for n, row := range rows {
		errg.Go(func() error {
			if err := errgctx.Err(); err != nil {
				return err
			}
			if err := importRow(errgctx, row); err != nil {
				return fmt.Errorf("failed to import %s row %d (uuid %v): %w", kind, n, row["uuid"], err)
			}
			return nil
		})
	}

	if err := errg.Wait(); err != nil {
		return err
	}
	slog.Info("seed imported", "kind", kind, "rows", len(rows))
	return nil
}

func failure(info string) error {
	if client.Failed(info) {
		return errors.New(info)
	}
	return nil
}

// Package engine records emissions against the ledger world state. It holds no
// state between calls: every operation reads what it needs from the world
// state it is handed, which makes it safe to run inside a ledger transaction.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/model/calculator"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/model/division"
)

type Engine struct {
	fingerprint carbonaccounting.Fingerprint
}

type Option func(*Engine)

// WithFingerprint replaces the function deriving emissions record identities.
func WithFingerprint(fingerprint carbonaccounting.Fingerprint) Option {
	return func(e *Engine) {
		e.fingerprint = fingerprint
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		fingerprint: carbonaccounting.SHA256Fingerprint,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Usage is the energy consumption reported by a party for a utility and period.
type Usage struct {
	UtilityID       string
	PartyID         string
	FromDate        string
	ThruDate        string
	EnergyUseAmount float64
	EnergyUseUom    string
	URL             string
	ContentHash     string
}

// RecordEmissions computes the emissions of usage with the factor of the
// utility's division and persists the resulting record.
func (e *Engine) RecordEmissions(ctx context.Context, state store.WorldState, usage Usage) (carbonaccounting.EmissionsRecord, error) {
	const op = "recordEmissions"
	s := store.New(state)

	lookup, err := s.Lookups.Get(ctx, usage.UtilityID)
	if err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}

	div, err := division.Resolve(lookup)
	if err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}

	attributes := []string{div.Type.String(), div.ID}
	if year, ok := carbonaccounting.ParseYear(usage.ThruDate); ok {
		attributes = append(attributes, store.YearAttribute(year))
	} else {
		slog.DebugContext(ctx, "thru date has no parsable year, querying factors of every year", "thru_date", usage.ThruDate)
	}

	factor, err := firstFactor(ctx, s, attributes)
	if err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}

	result, err := calculator.Calculate(factor, usage.EnergyUseAmount, usage.EnergyUseUom)
	if err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}

	slog.DebugContext(ctx, "emissions calculated",
		"utility_id", usage.UtilityID,
		"division", div.String(),
		"factor", factor.UUID,
		"energy_based", factor.PercentOfRenewables != nil,
		"emissions", result.EmissionsValue,
		"emissions_uom", result.EmissionsUom)

	record := carbonaccounting.EmissionsRecord{
		UUID:                        carbonaccounting.RecordFingerprint(e.fingerprint, usage.UtilityID, usage.PartyID, usage.FromDate, usage.ThruDate),
		UtilityID:                   usage.UtilityID,
		PartyID:                     usage.PartyID,
		FromDate:                    usage.FromDate,
		ThruDate:                    usage.ThruDate,
		EmissionsAmount:             result.EmissionsValue,
		EmissionsUom:                result.EmissionsUom,
		RenewableEnergyUseAmount:    result.RenewableAmount,
		NonrenewableEnergyUseAmount: result.NonrenewableAmount,
		EnergyUseUom:                usage.EnergyUseUom,
		FactorSource:                factorSource(factor),
		URL:                         usage.URL,
		ContentHash:                 usage.ContentHash,
	}

	if err := s.Records.Put(ctx, record); err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}

	return record, nil
}

func firstFactor(ctx context.Context, s *store.Store, attributes []string) (carbonaccounting.UtilityEmissionsFactorItem, error) {
	for row, err := range s.Factors.Query(ctx, attributes...) {
		if err != nil {
			return carbonaccounting.UtilityEmissionsFactorItem{}, err
		}
		return row.Record, nil
	}
	return carbonaccounting.UtilityEmissionsFactorItem{}, fmt.Errorf("%w: division %s", carbonaccounting.ErrNoFactorFound, strings.Join(attributes, "/"))
}

func factorSource(factor carbonaccounting.UtilityEmissionsFactorItem) string {
	return strings.TrimSpace(fmt.Sprintf("%s %d %s %s", factor.Source, factor.Year, factor.DivisionType, factor.DivisionID))
}

// UpdateEmissionsRecord overwrites an existing record with caller supplied
// amounts. Nothing is recalculated. An empty emissions unit or a missing token
// id keeps the stored value.
func (e *Engine) UpdateEmissionsRecord(ctx context.Context, state store.WorldState, record carbonaccounting.EmissionsRecord) (carbonaccounting.EmissionsRecord, error) {
	const op = "updateEmissionsRecord"
	s := store.New(state)

	existing, err := s.Records.Get(ctx, record.UUID)
	if err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}
	if record.EmissionsUom == "" {
		record.EmissionsUom = existing.EmissionsUom
	}
	if record.TokenID == nil {
		record.TokenID = existing.TokenID
	}
	if err := s.Records.Put(ctx, record); err != nil {
		return carbonaccounting.EmissionsRecord{}, fail(op, err)
	}
	return record, nil
}

func (e *Engine) GetEmissionsData(ctx context.Context, state store.WorldState, uuid string) (carbonaccounting.EmissionsRecord, error) {
	record, err := store.New(state).Records.Get(ctx, uuid)
	if err != nil {
		return record, fail("getEmissionsData", err)
	}
	return record, nil
}

// GetAllEmissionsData returns the records of a utility, optionally narrowed to a party.
func (e *Engine) GetAllEmissionsData(ctx context.Context, state store.WorldState, utilityID, partyID string) ([]store.Row[carbonaccounting.EmissionsRecord], error) {
	rows, err := store.Collect(store.New(state).Records.Query(ctx, utilityID, partyID))
	if err != nil {
		return nil, fail("getAllEmissionsData", err)
	}
	return rows, nil
}

// GetAllEmissionsDataByDateRange scans every record: the world state cannot
// range over dates, so periods are compared as zero padded ISO strings.
func (e *Engine) GetAllEmissionsDataByDateRange(ctx context.Context, state store.WorldState, fromDate, thruDate string) ([]carbonaccounting.EmissionsRecord, error) {
	records, err := e.scanDateRange(ctx, state, fromDate, thruDate, "")
	if err != nil {
		return nil, fail("getAllEmissionsDataByDateRange", err)
	}
	return records, nil
}

func (e *Engine) GetAllEmissionsDataByDateRangeAndParty(ctx context.Context, state store.WorldState, fromDate, thruDate, partyID string) ([]carbonaccounting.EmissionsRecord, error) {
	records, err := e.scanDateRange(ctx, state, fromDate, thruDate, partyID)
	if err != nil {
		return nil, fail("getAllEmissionsDataByDateRangeAndParty", err)
	}
	return records, nil
}

func (e *Engine) scanDateRange(ctx context.Context, state store.WorldState, fromDate, thruDate, partyID string) ([]carbonaccounting.EmissionsRecord, error) {
	records := make([]carbonaccounting.EmissionsRecord, 0)
	for row, err := range store.New(state).Records.Query(ctx) {
		if err != nil {
			return nil, err
		}
		if partyID != "" && row.Record.PartyID != partyID {
			continue
		}
		if !withinDateRange(row.Record, fromDate, thruDate) {
			continue
		}
		records = append(records, row.Record)
	}
	return records, nil
}

// withinDateRange reports whether the record period lies inside [fromDate, thruDate].
// An empty bound leaves that side open.
func withinDateRange(record carbonaccounting.EmissionsRecord, fromDate, thruDate string) bool {
	if fromDate != "" && record.FromDate < fromDate {
		return false
	}
	if thruDate != "" && record.ThruDate > thruDate {
		return false
	}
	return true
}

func (e *Engine) ImportUtilityFactor(ctx context.Context, state store.WorldState, factor carbonaccounting.UtilityEmissionsFactorItem) (carbonaccounting.UtilityEmissionsFactorItem, error) {
	if err := store.New(state).Factors.Put(ctx, factor); err != nil {
		return factor, fail("importUtilityFactor", err)
	}
	return factor, nil
}

func (e *Engine) UpdateUtilityFactor(ctx context.Context, state store.WorldState, factor carbonaccounting.UtilityEmissionsFactorItem) (carbonaccounting.UtilityEmissionsFactorItem, error) {
	if err := store.New(state).Factors.Put(ctx, factor); err != nil {
		return factor, fail("updateUtilityFactor", err)
	}
	return factor, nil
}

func (e *Engine) GetUtilityFactor(ctx context.Context, state store.WorldState, uuid string) (carbonaccounting.UtilityEmissionsFactorItem, error) {
	factor, err := store.New(state).Factors.Get(ctx, uuid)
	if err != nil {
		return factor, fail("getUtilityFactor", err)
	}
	return factor, nil
}

func (e *Engine) ImportUtilityIdentifier(ctx context.Context, state store.WorldState, lookup carbonaccounting.UtilityLookupItem) (carbonaccounting.UtilityLookupItem, error) {
	if err := store.New(state).Lookups.Put(ctx, lookup); err != nil {
		return lookup, fail("importUtilityIdentifier", err)
	}
	return lookup, nil
}

func (e *Engine) UpdateUtilityIdentifier(ctx context.Context, state store.WorldState, lookup carbonaccounting.UtilityLookupItem) (carbonaccounting.UtilityLookupItem, error) {
	if err := store.New(state).Lookups.Put(ctx, lookup); err != nil {
		return lookup, fail("updateUtilityIdentifier", err)
	}
	return lookup, nil
}

func (e *Engine) GetUtilityIdentifier(ctx context.Context, state store.WorldState, uuid string) (carbonaccounting.UtilityLookupItem, error) {
	lookup, err := store.New(state).Lookups.Get(ctx, uuid)
	if err != nil {
		return lookup, fail("getUtilityIdentifier", err)
	}
	return lookup, nil
}

func (e *Engine) GetAllUtilityIdentifiers(ctx context.Context, state store.WorldState) ([]carbonaccounting.UtilityLookupItem, error) {
	rows, err := store.Collect(store.New(state).Lookups.Query(ctx))
	if err != nil {
		return nil, fail("getAllUtilityIdentifiers", err)
	}
	return store.Records(rows), nil
}

func fail(operation string, err error) error {
	return &carbonaccounting.OperationErr{Operation: operation, Err: err}
}

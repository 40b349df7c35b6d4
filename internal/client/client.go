// Package client calls the emissions engine through the ledger and shapes its
// answers for external consumers. Ledger failures never surface as Go errors:
// every call returns a result whose info field describes what happened.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/cache"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/ledger"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"

	"github.com/goccy/go-json"
)

const (
	submitFailure   = "Failed to submit transaction: "
	evaluateFailure = "Failed to evaluate transaction: "
	evidenceFailure = "Failed to hash evidence: "

	InfoRecorded = "EMISSIONS RECORDED"
	InfoUpdated  = "EMISSIONS RECORD UPDATED"
	InfoFetched  = "EMISSIONS DATA FETCHED"
	InfoImported = "IMPORTED"
)

// Failed reports whether info describes a failed call.
func Failed(info string) bool {
	return strings.HasPrefix(info, submitFailure) ||
		strings.HasPrefix(info, evaluateFailure) ||
		strings.HasPrefix(info, evidenceFailure)
}

// EvidenceHasher computes the content hash of the document behind a url.
type EvidenceHasher interface {
	Hash(ctx context.Context, url string) (string, error)
}

type Client struct {
	connector ledger.Connector
	now       func() time.Time
	evidence  EvidenceHasher
	utilities *cache.Memory[[]carbonaccounting.UtilityLookupItem]
}

type Option func(*Client)

// WithClock replaces the clock the recency filter is computed from.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithEvidenceHasher fills in missing content hashes of recorded evidence.
func WithEvidenceHasher(hasher EvidenceHasher) Option {
	return func(c *Client) {
		c.evidence = hasher
	}
}

// WithUtilityCache keeps the utility identifiers searched by FindUtilities for
// ttl. Imports and updates made through the client invalidate it.
func WithUtilityCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.utilities = cache.NewMemory[[]carbonaccounting.UtilityLookupItem](ttl)
	}
}

func New(connector ledger.Connector, opts ...Option) *Client {
	c := &Client{
		connector: connector,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmissionsResult is an emissions record as returned to consumers, or the
// echoed inputs of a failed call.
type EmissionsResult struct {
	Info                        string  `json:"info"`
	UUID                        string  `json:"uuid,omitempty"`
	UtilityID                   string  `json:"utilityId"`
	PartyID                     string  `json:"partyId"`
	FromDate                    string  `json:"fromDate"`
	ThruDate                    string  `json:"thruDate"`
	EmissionsAmount             float64 `json:"emissionsAmount"`
	EmissionsUom                string  `json:"emissionsUom"`
	EnergyUseAmount             float64 `json:"energyUseAmount,omitempty"`
	RenewableEnergyUseAmount    float64 `json:"renewableEnergyUseAmount"`
	NonrenewableEnergyUseAmount float64 `json:"nonrenewableEnergyUseAmount"`
	EnergyUseUom                string  `json:"energyUseUom"`
	FactorSource                string  `json:"factorSource"`
	URL                         string  `json:"url,omitempty"`
	ContentHash                 string  `json:"contentHash,omitempty"`
	TokenID                     *string `json:"tokenId,omitempty"`
}

func newEmissionsResult(info string, record carbonaccounting.EmissionsRecord) EmissionsResult {
	return EmissionsResult{
		Info:                        info,
		UUID:                        record.UUID,
		UtilityID:                   record.UtilityID,
		PartyID:                     record.PartyID,
		FromDate:                    record.FromDate,
		ThruDate:                    record.ThruDate,
		EmissionsAmount:             record.EmissionsAmount,
		EmissionsUom:                record.EmissionsUom,
		RenewableEnergyUseAmount:    record.RenewableEnergyUseAmount,
		NonrenewableEnergyUseAmount: record.NonrenewableEnergyUseAmount,
		EnergyUseUom:                record.EnergyUseUom,
		FactorSource:                record.FactorSource,
		URL:                         record.URL,
		ContentHash:                 record.ContentHash,
		TokenID:                     record.TokenID,
	}
}

// RecordRequest is the energy use reported for a utility and period.
type RecordRequest struct {
	UtilityID       string  `json:"utilityId" binding:"required"`
	PartyID         string  `json:"partyId" binding:"required"`
	FromDate        string  `json:"fromDate" binding:"required"`
	ThruDate        string  `json:"thruDate" binding:"required"`
	EnergyUseAmount float64 `json:"energyUseAmount"`
	EnergyUseUom    string  `json:"energyUseUom" binding:"required"`
	URL             string  `json:"url"`
	ContentHash     string  `json:"contentHash"`
}

func (c *Client) RecordEmissions(ctx context.Context, req RecordRequest) EmissionsResult {
	echo := EmissionsResult{
		UtilityID:       req.UtilityID,
		PartyID:         req.PartyID,
		FromDate:        req.FromDate,
		ThruDate:        req.ThruDate,
		EnergyUseAmount: req.EnergyUseAmount,
		EnergyUseUom:    req.EnergyUseUom,
		URL:             req.URL,
		ContentHash:     req.ContentHash,
	}

	if req.ContentHash == "" && req.URL != "" && c.evidence != nil {
		hash, err := c.evidence.Hash(ctx, req.URL)
		if err != nil {
			echo.Info = evidenceFailure + err.Error()
			return echo
		}
		req.ContentHash = hash
		echo.ContentHash = hash
	}

	record := carbonaccounting.EmissionsRecord{}
	err := c.submit(ctx, &record, engine.RecordEmissions,
		req.UtilityID, req.PartyID, req.FromDate, req.ThruDate,
		formatAmount(req.EnergyUseAmount), req.EnergyUseUom, req.URL, req.ContentHash)
	if err != nil {
		echo.Info = submitFailure + err.Error()
		return echo
	}
	result := newEmissionsResult(InfoRecorded, record)
	result.EnergyUseAmount = req.EnergyUseAmount
	return result
}

// UpdateEmissionsRecord overwrites the record identified by update.UUID with
// the amounts it carries.
func (c *Client) UpdateEmissionsRecord(ctx context.Context, update EmissionsResult) EmissionsResult {
	tokenID := ""
	if update.TokenID != nil {
		tokenID = *update.TokenID
	}

	record := carbonaccounting.EmissionsRecord{}
	err := c.submit(ctx, &record, engine.UpdateEmissionsRecord,
		update.UUID, update.UtilityID, update.PartyID, update.FromDate, update.ThruDate,
		formatAmount(update.EmissionsAmount), formatAmount(update.RenewableEnergyUseAmount), formatAmount(update.NonrenewableEnergyUseAmount),
		update.EnergyUseUom, update.FactorSource, update.URL, update.ContentHash, tokenID)
	if err != nil {
		update.Info = submitFailure + err.Error()
		return update
	}
	return newEmissionsResult(InfoUpdated, record)
}

func (c *Client) GetEmissionsData(ctx context.Context, uuid string) EmissionsResult {
	record := carbonaccounting.EmissionsRecord{}
	if err := c.evaluate(ctx, &record, engine.GetEmissionsData, uuid); err != nil {
		return EmissionsResult{Info: evaluateFailure + err.Error(), UUID: uuid}
	}
	return newEmissionsResult(InfoFetched, record)
}

// EmissionsList is the answer to an emissions query.
type EmissionsList struct {
	Info      string            `json:"info"`
	UtilityID string            `json:"utilityId,omitempty"`
	PartyID   string            `json:"partyId,omitempty"`
	FromDate  string            `json:"fromDate,omitempty"`
	ThruDate  string            `json:"thruDate,omitempty"`
	Records   []EmissionsResult `json:"records"`
}

// GetAllEmissionsData returns the recent records of a utility and party.
// Records starting before the previous calendar year are left out.
func (c *Client) GetAllEmissionsData(ctx context.Context, utilityID, partyID string) EmissionsList {
	list := EmissionsList{UtilityID: utilityID, PartyID: partyID, Records: make([]EmissionsResult, 0)}

	rows := make([]store.Row[carbonaccounting.EmissionsRecord], 0)
	if err := c.evaluate(ctx, &rows, engine.GetAllEmissionsData, utilityID, partyID); err != nil {
		list.Info = evaluateFailure + err.Error()
		return list
	}

	minYear := c.now().Year() - 1
	for _, row := range rows {
		if !recent(row.Record, minYear) {
			slog.Debug("emissions record left out as outdated", "uuid", row.Record.UUID, "from_date", row.Record.FromDate)
			continue
		}
		list.Records = append(list.Records, newEmissionsResult(InfoFetched, row.Record))
	}
	list.Info = InfoFetched
	return list
}

// recent keeps records whose period starts in minYear or later. A start date
// without a readable year cannot be placed and is dropped.
func recent(record carbonaccounting.EmissionsRecord, minYear int) bool {
	year, ok := carbonaccounting.ParseYear(record.FromDate)
	return ok && year >= minYear
}

func (c *Client) GetEmissionsByDateRange(ctx context.Context, fromDate, thruDate string) EmissionsList {
	return c.dateRange(ctx, engine.GetAllEmissionsDataByDateRange, fromDate, thruDate, "", fromDate, thruDate)
}

func (c *Client) GetEmissionsByDateRangeAndParty(ctx context.Context, fromDate, thruDate, partyID string) EmissionsList {
	return c.dateRange(ctx, engine.GetAllEmissionsDataByDateRangeAndParty, fromDate, thruDate, partyID, fromDate, thruDate, partyID)
}

func (c *Client) dateRange(ctx context.Context, fn, fromDate, thruDate, partyID string, args ...string) EmissionsList {
	list := EmissionsList{FromDate: fromDate, ThruDate: thruDate, PartyID: partyID, Records: make([]EmissionsResult, 0)}

	records := make([]carbonaccounting.EmissionsRecord, 0)
	if err := c.evaluate(ctx, &records, fn, args...); err != nil {
		list.Info = evaluateFailure + err.Error()
		return list
	}
	for _, record := range records {
		list.Records = append(list.Records, newEmissionsResult(InfoFetched, record))
	}
	list.Info = InfoFetched
	return list
}

// FactorResult carries an emissions factor, or the echoed input of a failed call.
type FactorResult struct {
	Info string `json:"info"`
	carbonaccounting.UtilityEmissionsFactorItem
}

func (c *Client) ImportUtilityFactor(ctx context.Context, factor carbonaccounting.UtilityEmissionsFactorItem) FactorResult {
	return c.putFactor(ctx, engine.ImportUtilityFactor, factor)
}

func (c *Client) UpdateUtilityFactor(ctx context.Context, factor carbonaccounting.UtilityEmissionsFactorItem) FactorResult {
	return c.putFactor(ctx, engine.UpdateUtilityFactor, factor)
}

func (c *Client) putFactor(ctx context.Context, fn string, factor carbonaccounting.UtilityEmissionsFactorItem) FactorResult {
	arg, err := json.Marshal(factor)
	if err != nil {
		return FactorResult{Info: submitFailure + err.Error(), UtilityEmissionsFactorItem: factor}
	}
	stored := carbonaccounting.UtilityEmissionsFactorItem{}
	if err := c.submit(ctx, &stored, fn, string(arg)); err != nil {
		return FactorResult{Info: submitFailure + err.Error(), UtilityEmissionsFactorItem: factor}
	}
	return FactorResult{Info: InfoImported, UtilityEmissionsFactorItem: stored}
}

func (c *Client) GetUtilityFactor(ctx context.Context, uuid string) FactorResult {
	factor := carbonaccounting.UtilityEmissionsFactorItem{}
	if err := c.evaluate(ctx, &factor, engine.GetUtilityFactor, uuid); err != nil {
		factor.UUID = uuid
		return FactorResult{Info: evaluateFailure + err.Error(), UtilityEmissionsFactorItem: factor}
	}
	return FactorResult{Info: InfoFetched, UtilityEmissionsFactorItem: factor}
}

// UtilityResult carries a utility identifier, or the echoed input of a failed call.
type UtilityResult struct {
	Info string `json:"info"`
	carbonaccounting.UtilityLookupItem
}

func (c *Client) ImportUtilityIdentifier(ctx context.Context, lookup carbonaccounting.UtilityLookupItem) UtilityResult {
	return c.putLookup(ctx, engine.ImportUtilityIdentifier, lookup)
}

func (c *Client) UpdateUtilityIdentifier(ctx context.Context, lookup carbonaccounting.UtilityLookupItem) UtilityResult {
	return c.putLookup(ctx, engine.UpdateUtilityIdentifier, lookup)
}

func (c *Client) putLookup(ctx context.Context, fn string, lookup carbonaccounting.UtilityLookupItem) UtilityResult {
	arg, err := json.Marshal(lookup)
	if err != nil {
		return UtilityResult{Info: submitFailure + err.Error(), UtilityLookupItem: lookup}
	}
	stored := carbonaccounting.UtilityLookupItem{}
	if err := c.submit(ctx, &stored, fn, string(arg)); err != nil {
		return UtilityResult{Info: submitFailure + err.Error(), UtilityLookupItem: lookup}
	}
	if c.utilities != nil {
		c.utilities.Delete(utilitiesCacheKey)
	}
	return UtilityResult{Info: InfoImported, UtilityLookupItem: stored}
}

func (c *Client) GetUtilityIdentifier(ctx context.Context, uuid string) UtilityResult {
	lookup := carbonaccounting.UtilityLookupItem{}
	if err := c.evaluate(ctx, &lookup, engine.GetUtilityIdentifier, uuid); err != nil {
		lookup.UUID = uuid
		return UtilityResult{Info: evaluateFailure + err.Error(), UtilityLookupItem: lookup}
	}
	return UtilityResult{Info: InfoFetched, UtilityLookupItem: lookup}
}

// UtilityList is the answer to a utility identifier listing or search.
type UtilityList struct {
	Info      string                               `json:"info"`
	Query     string                               `json:"query,omitempty"`
	Utilities []carbonaccounting.UtilityLookupItem `json:"utilities"`
}

func (c *Client) GetAllUtilityIdentifiers(ctx context.Context) UtilityList {
	lookups := make([]carbonaccounting.UtilityLookupItem, 0)
	if err := c.evaluate(ctx, &lookups, engine.GetAllUtilityIdentifiers); err != nil {
		return UtilityList{Info: evaluateFailure + err.Error(), Utilities: lookups}
	}
	return UtilityList{Info: InfoFetched, Utilities: lookups}
}

func (c *Client) submit(ctx context.Context, result any, fn string, args ...string) error {
	return c.call(ctx, true, result, fn, args)
}

func (c *Client) evaluate(ctx context.Context, result any, fn string, args ...string) error {
	return c.call(ctx, false, result, fn, args)
}

// call opens a ledger connection for a single transaction and decodes its payload into result.
func (c *Client) call(ctx context.Context, submit bool, result any, fn string, args []string) error {
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("failed to close ledger connection", "err", err.Error())
		}
	}()

	var payload []byte
	if submit {
		payload, err = conn.Submit(ctx, fn, args...)
	} else {
		payload, err = conn.Evaluate(ctx, fn, args...)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(payload, result); err != nil {
		return fmt.Errorf("%w: %s returned malformed json: %s", carbonaccounting.ErrParse, fn, err.Error())
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

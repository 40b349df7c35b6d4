package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"

	"github.com/goccy/go-json"
)

// Transaction names of the invocation surface.
const (
	RecordEmissions                        = "recordEmissions"
	UpdateEmissionsRecord                  = "updateEmissionsRecord"
	GetEmissionsData                       = "getEmissionsData"
	GetAllEmissionsData                    = "getAllEmissionsData"
	GetAllEmissionsDataByDateRange         = "getAllEmissionsDataByDateRange"
	GetAllEmissionsDataByDateRangeAndParty = "getAllEmissionsDataByDateRangeAndParty"
	ImportUtilityFactor                    = "importUtilityFactor"
	UpdateUtilityFactor                    = "updateUtilityFactor"
	GetUtilityFactor                       = "getUtilityFactor"
	ImportUtilityIdentifier                = "importUtilityIdentifier"
	UpdateUtilityIdentifier                = "updateUtilityIdentifier"
	GetUtilityIdentifier                   = "getUtilityIdentifier"
	GetAllUtilityIdentifiers               = "getAllUtilityIdentifiers"
)

type transaction func(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error)

var transactions = map[string]struct {
	arity int
	run   transaction
}{
	RecordEmissions:                        {8, recordEmissions},
	UpdateEmissionsRecord:                  {13, updateEmissionsRecord},
	GetEmissionsData:                       {1, getEmissionsData},
	GetAllEmissionsData:                    {2, getAllEmissionsData},
	GetAllEmissionsDataByDateRange:         {2, getAllEmissionsDataByDateRange},
	GetAllEmissionsDataByDateRangeAndParty: {3, getAllEmissionsDataByDateRangeAndParty},
	ImportUtilityFactor:                    {1, importUtilityFactor},
	UpdateUtilityFactor:                    {1, updateUtilityFactor},
	GetUtilityFactor:                       {1, getUtilityFactor},
	ImportUtilityIdentifier:                {1, importUtilityIdentifier},
	UpdateUtilityIdentifier:                {1, updateUtilityIdentifier},
	GetUtilityIdentifier:                   {1, getUtilityIdentifier},
	GetAllUtilityIdentifiers:               {0, getAllUtilityIdentifiers},
}

// Invoke runs the named transaction with positional string arguments, as the
// ledger transports them, and returns its JSON encoded result.
func (e *Engine) Invoke(ctx context.Context, state store.WorldState, fn string, args []string) ([]byte, error) {
	name := TransactionName(fn)
	tx, found := transactions[name]
	if !found {
		return nil, fmt.Errorf("%w: unknown transaction %q", carbonaccounting.ErrInvalidArgument, fn)
	}
	if len(args) != tx.arity {
		return nil, fail(name, fmt.Errorf("%w: expected %d arguments, got %d", carbonaccounting.ErrInvalidArgument, tx.arity, len(args)))
	}

	result, err := tx.run(e, ctx, state, args)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fail(name, fmt.Errorf("failed to encode result: %w", err))
	}
	return payload, nil
}

// TransactionName maps "RecordEmissions" and "recordEmissions" to the same transaction.
func TransactionName(fn string) string {
	r, size := utf8.DecodeRuneInString(fn)
	if r == utf8.RuneError {
		return fn
	}
	return string(unicode.ToLower(r)) + fn[size:]
}

// IsQuery reports whether fn only reads the world state.
func IsQuery(fn string) bool {
	return strings.HasPrefix(TransactionName(fn), "get")
}

func recordEmissions(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	amount, err := parseAmount(RecordEmissions, "energyUseAmount", args[4])
	if err != nil {
		return nil, err
	}
	return e.RecordEmissions(ctx, state, Usage{
		UtilityID:       args[0],
		PartyID:         args[1],
		FromDate:        args[2],
		ThruDate:        args[3],
		EnergyUseAmount: amount,
		EnergyUseUom:    args[5],
		URL:             args[6],
		ContentHash:     args[7],
	})
}

func updateEmissionsRecord(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	amounts := make([]float64, 3)
	for i, name := range []string{"emissionsAmount", "renewableEnergyUseAmount", "nonrenewableEnergyUseAmount"} {
		amount, err := parseAmount(UpdateEmissionsRecord, name, args[5+i])
		if err != nil {
			return nil, err
		}
		amounts[i] = amount
	}

	record := carbonaccounting.EmissionsRecord{
		UUID:                        args[0],
		UtilityID:                   args[1],
		PartyID:                     args[2],
		FromDate:                    args[3],
		ThruDate:                    args[4],
		EmissionsAmount:             amounts[0],
		RenewableEnergyUseAmount:    amounts[1],
		NonrenewableEnergyUseAmount: amounts[2],
		EnergyUseUom:                args[8],
		FactorSource:                args[9],
		URL:                         args[10],
		ContentHash:                 args[11],
	}
	if args[12] != "" {
		tokenID := args[12]
		record.TokenID = &tokenID
	}

	return e.UpdateEmissionsRecord(ctx, state, record)
}

func getEmissionsData(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetEmissionsData(ctx, state, args[0])
}

func getAllEmissionsData(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetAllEmissionsData(ctx, state, args[0], args[1])
}

func getAllEmissionsDataByDateRange(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetAllEmissionsDataByDateRange(ctx, state, args[0], args[1])
}

func getAllEmissionsDataByDateRangeAndParty(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetAllEmissionsDataByDateRangeAndParty(ctx, state, args[0], args[1], args[2])
}

func importUtilityFactor(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	factor, err := parseFactor(ImportUtilityFactor, args[0])
	if err != nil {
		return nil, err
	}
	return e.ImportUtilityFactor(ctx, state, factor)
}

func updateUtilityFactor(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	factor, err := parseFactor(UpdateUtilityFactor, args[0])
	if err != nil {
		return nil, err
	}
	return e.UpdateUtilityFactor(ctx, state, factor)
}

func getUtilityFactor(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetUtilityFactor(ctx, state, args[0])
}

func importUtilityIdentifier(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	lookup, err := parseLookup(ImportUtilityIdentifier, args[0])
	if err != nil {
		return nil, err
	}
	return e.ImportUtilityIdentifier(ctx, state, lookup)
}

func updateUtilityIdentifier(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	lookup, err := parseLookup(UpdateUtilityIdentifier, args[0])
	if err != nil {
		return nil, err
	}
	return e.UpdateUtilityIdentifier(ctx, state, lookup)
}

func getUtilityIdentifier(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetUtilityIdentifier(ctx, state, args[0])
}

func getAllUtilityIdentifiers(e *Engine, ctx context.Context, state store.WorldState, args []string) (any, error) {
	return e.GetAllUtilityIdentifiers(ctx, state)
}

func parseAmount(op, name, arg string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, fail(op, fmt.Errorf("%w: %s %q is not a number", carbonaccounting.ErrInvalidArgument, name, arg))
	}
	return amount, nil
}

func parseFactor(op, arg string) (carbonaccounting.UtilityEmissionsFactorItem, error) {
	raw, err := parseObject(arg)
	if err != nil {
		return carbonaccounting.UtilityEmissionsFactorItem{}, fail(op, err)
	}
	factor, err := carbonaccounting.DecodeFactor(raw)
	if err != nil {
		return factor, fail(op, err)
	}
	return factor, nil
}

func parseLookup(op, arg string) (carbonaccounting.UtilityLookupItem, error) {
	raw, err := parseObject(arg)
	if err != nil {
		return carbonaccounting.UtilityLookupItem{}, fail(op, err)
	}
	lookup, err := carbonaccounting.DecodeLookup(raw)
	if err != nil {
		return lookup, fail(op, err)
	}
	return lookup, nil
}

func parseObject(arg string) (map[string]any, error) {
	raw := make(map[string]any)
	if err := json.Unmarshal([]byte(arg), &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed json argument: %s", carbonaccounting.ErrParse, err.Error())
	}
	return raw, nil
}

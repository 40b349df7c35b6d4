package client

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const utilitiesCacheKey = "utilities"

// FindUtilities returns the utility identifiers whose name matches query,
// closest first. Matching ignores case and diacritics.
func (c *Client) FindUtilities(ctx context.Context, query string) UtilityList {
	all := c.searchableUtilities(ctx)
	all.Query = query
	if Failed(all.Info) || query == "" {
		return all
	}

	names := make([]string, len(all.Utilities))
	for i, lookup := range all.Utilities {
		names[i] = lookup.UtilityName
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	found := make([]carbonaccounting.UtilityLookupItem, 0, len(ranks))
	for _, rank := range ranks {
		found = append(found, all.Utilities[rank.OriginalIndex])
	}

	slog.Debug("utilities searched", "query", query, "candidates", len(names), "found", len(found))

	all.Utilities = found
	return all
}

func (c *Client) searchableUtilities(ctx context.Context) UtilityList {
	if c.utilities == nil {
		return c.GetAllUtilityIdentifiers(ctx)
	}

	info := InfoFetched
	utilities, err := c.utilities.GetOrSet(ctx, utilitiesCacheKey, func(ctx context.Context) ([]carbonaccounting.UtilityLookupItem, error) {
		list := c.GetAllUtilityIdentifiers(ctx)
		if Failed(list.Info) {
			info = list.Info
			return nil, errors.New(list.Info)
		}
		return list.Utilities, nil
	})
	if err != nil {
		return UtilityList{Info: info, Utilities: make([]carbonaccounting.UtilityLookupItem, 0)}
	}
	return UtilityList{Info: InfoFetched, Utilities: utilities}
}

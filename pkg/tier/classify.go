package tier

import (
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Classify partitions records into the tiers of table. The eligible pool is
// every unflagged record with a known price at or above floor and a known
// grade; the rest is returned as Excluded. Tiers are processed in table
// order, each claiming the pool records priced at or below their grade's
// threshold, and whatever no tier claims is Unassigned. Every list keeps the
// input order of records.
func Classify(records []domain.Listing, floor float64, table *domain.ThresholdTable) domain.Classification {
	pool, excluded := eligible(records, floor)

	var n int
	if table != nil {
		n = len(table.Rates)
	}

	out := domain.Classification{
		Tiers:    make([]domain.Tier, 0, n),
		Excluded: excluded,
	}
	for i := range n {
		rt := table.Rates[i]

		var claimed []domain.Listing
		claimed, pool = claim(pool, table, i)

		out.Tiers = append(out.Tiers, domain.Tier{
			Index:    rt.Index,
			Rate:     rt.Rate,
			Label:    rt.Label,
			Listings: claimed,
		})
	}
	out.Unassigned = pool
	return out
}

func eligible(records []domain.Listing, floor float64) (pool, excluded []domain.Listing) {
	pool = make([]domain.Listing, 0, len(records))
	excluded = make([]domain.Listing, 0)
	for i := range records {
		r := records[i]
		if r.OutlierFlag || !r.HasPrice() || !r.Grade.Known() || *r.Price < floor {
			excluded = append(excluded, r)
			continue
		}
		pool = append(pool, r)
	}
	return pool, excluded
}

// claim splits pool into the records tier i takes and the records left for
// later tiers. pool is not modified.
func claim(pool []domain.Listing, table *domain.ThresholdTable, i int) (claimed, remaining []domain.Listing) {
	claimed = make([]domain.Listing, 0)
	remaining = make([]domain.Listing, 0, len(pool))
	for j := range pool {
		cutoff, ok := table.Threshold(i, pool[j].Grade)
		if ok && *pool[j].Price <= cutoff {
			claimed = append(claimed, pool[j])
			continue
		}
		remaining = append(remaining, pool[j])
	}
	return claimed, remaining
}

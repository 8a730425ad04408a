package pipeline

import (
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Outcomes returns one RunListing per annotated listing, in input order,
// recording where the listing ended up: in the error subset, in a tier,
// unassigned, or excluded from the eligible pool.
func (r *Result) Outcomes(runID string) []domain.RunListing {
	if r == nil {
		return nil
	}

	reasons := make(map[int]domain.ErrorReason, len(r.Errors))
	for _, e := range r.Errors {
		reasons[e.Listing.SequenceIndex] = e.Reason
	}

	type placement struct {
		outcome string
		tier    *domain.Tier
	}
	placed := make(map[int]placement)
	if c := r.Classification; c != nil {
		for i := range c.Tiers {
			for _, l := range c.Tiers[i].Listings {
				placed[l.SequenceIndex] = placement{outcome: domain.OutcomeTier, tier: &c.Tiers[i]}
			}
		}
		for _, l := range c.Unassigned {
			placed[l.SequenceIndex] = placement{outcome: domain.OutcomeUnassigned}
		}
		for _, l := range c.Excluded {
			placed[l.SequenceIndex] = placement{outcome: domain.OutcomeExcluded}
		}
	}

	out := make([]domain.RunListing, 0, len(r.Listings))
	for _, l := range r.Listings {
		rl := domain.RunListing{RunID: runID, Listing: l}
		if reason, ok := reasons[l.SequenceIndex]; ok {
			rl.Outcome = domain.OutcomeError
			rl.ErrorReason = reason
		} else if p, ok := placed[l.SequenceIndex]; ok {
			rl.Outcome = p.outcome
			if p.tier != nil {
				idx := p.tier.Index
				rl.TierIndex = &idx
				rl.TierLabel = p.tier.Label
			}
		} else {
			rl.Outcome = domain.OutcomeUnassigned
		}
		out = append(out, rl)
	}
	return out
}

// TierListings returns the listings of the tier at index, or nil when the
// run produced no such tier.
func (r *Result) TierListings(index int) []domain.Listing {
	if r == nil || r.Classification == nil {
		return nil
	}
	for _, t := range r.Classification.Tiers {
		if t.Index == index {
			return t.Listings
		}
	}
	return nil
}

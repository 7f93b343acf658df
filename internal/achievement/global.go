package achievement

import "github.com/p-n-ai/pai-academy/internal/badge"

// GlobalSummary folds every discipline into platform totals.
type GlobalSummary struct {
	TotalBadges   int                `json:"total_badges"`
	ByTier        map[badge.Tier]int `json:"by_tier"`
	HasGraduation bool               `json:"has_graduation"`
	// Badges lists every earned badge: per discipline in input order, then
	// the graduation badge.
	Badges []badge.Badge `json:"badges"`
}

// AggregateGlobal totals the per-discipline results and awards the
// graduation badge when there is at least one discipline and every one of
// them is complete. Graduation counts as one extra diamond badge.
func AggregateGlobal(results []DisciplineBadges) GlobalSummary {
	all := []badge.Badge{}
	graduated := len(results) > 0
	for _, r := range results {
		all = append(all, r.All()...)
		if !r.Complete {
			graduated = false
		}
	}
	if graduated {
		all = append(all, badge.MustLookup(badge.AllDisciplinesComplete))
	}

	return GlobalSummary{
		TotalBadges:   len(all),
		ByTier:        badge.CountByTier(all),
		HasGraduation: graduated,
		Badges:        all,
	}
}

package ranking

import (
	"sort"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

// Rank orders deals by cpp descending with undefined cpp last. Ties break
// on lower effective points cost, then earlier travel date, then
// fingerprint so output is stable across runs. The input is not modified.
func Rank(deals []models.Deal) []models.Deal {
	result := make([]models.Deal, len(deals))
	copy(result, deals)
	sort.SliceStable(result, func(i, j int) bool {
		return Less(result[i], result[j])
	})
	return result
}

// Less reports whether a ranks ahead of b.
func Less(a, b models.Deal) bool {
	if a.CPP.Valid != b.CPP.Valid {
		return a.CPP.Valid
	}
	if a.CPP.Valid {
		if c := a.CPP.Decimal.Cmp(b.CPP.Decimal); c != 0 {
			return c > 0
		}
	}
	if ca, cb := Cost(a), Cost(b); ca != cb {
		return ca < cb
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.Fingerprint < b.Fingerprint
}

// Cost is the owned-currency cost of a deal, or the program's miles when
// it is not reachable from the portfolio.
func Cost(d models.Deal) int64 {
	if d.Reachable {
		return d.EffectivePointsCost
	}
	return d.MilesRequired
}

package filter

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/ranking"
)

// Criteria narrows a deal list. Zero values match everything.
type Criteria struct {
	MinCPP         *decimal.Decimal
	MaxCPP         *decimal.Decimal
	UnicornOnly    bool
	AffordableOnly bool
	Cabins         []models.Cabin
	Programs       []string
	MaxMiles       *int64
}

func Apply(deals []models.Deal, criteria *Criteria, sortBy, sortOrder string) []models.Deal {
	filtered := applyFilters(deals, criteria)

	return applySort(filtered, sortBy, sortOrder)
}

func applyFilters(deals []models.Deal, criteria *Criteria) []models.Deal {
	if criteria == nil {
		return deals
	}

	result := make([]models.Deal, 0, len(deals))

	for _, d := range deals {
		if Matches(d, criteria) {
			result = append(result, d)
		}
	}

	return result
}

// Matches applies criteria to one deal. A cpp bound never matches a deal
// without a cash baseline.
func Matches(d models.Deal, criteria *Criteria) bool {
	if criteria.MinCPP != nil && (!d.CPP.Valid || d.CPP.Decimal.LessThan(*criteria.MinCPP)) {
		return false
	}
	if criteria.MaxCPP != nil && (!d.CPP.Valid || d.CPP.Decimal.GreaterThan(*criteria.MaxCPP)) {
		return false
	}

	if criteria.UnicornOnly && !d.IsUnicorn {
		return false
	}

	if criteria.AffordableOnly && !d.Affordable() {
		return false
	}

	if criteria.MaxMiles != nil && d.MilesRequired > *criteria.MaxMiles {
		return false
	}

	if len(criteria.Cabins) > 0 {
		found := false
		for _, cabin := range criteria.Cabins {
			if d.Cabin == cabin {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(criteria.Programs) > 0 {
		found := false
		for _, program := range criteria.Programs {
			if strings.EqualFold(d.ProgramCode, program) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func applySort(deals []models.Deal, sortBy, sortOrder string) []models.Deal {
	if len(deals) == 0 {
		return deals
	}

	ascending := strings.ToLower(sortOrder) == "asc"

	switch strings.ToLower(sortBy) {
	case "miles":
		sort.SliceStable(deals, func(i, j int) bool {
			if ascending || sortOrder == "" {
				return deals[i].MilesRequired < deals[j].MilesRequired
			}
			return deals[i].MilesRequired > deals[j].MilesRequired
		})

	case "cost":
		sort.SliceStable(deals, func(i, j int) bool {
			if ascending || sortOrder == "" {
				return ranking.Cost(deals[i]) < ranking.Cost(deals[j])
			}
			return ranking.Cost(deals[i]) > ranking.Cost(deals[j])
		})

	case "date":
		sort.SliceStable(deals, func(i, j int) bool {
			if ascending || sortOrder == "" {
				return deals[i].Date.Before(deals[j].Date)
			}
			return deals[i].Date.After(deals[j].Date)
		})

	case "first_seen":
		sort.SliceStable(deals, func(i, j int) bool {
			if ascending {
				return deals[i].FirstSeenAt.Before(deals[j].FirstSeenAt)
			}
			return deals[i].FirstSeenAt.After(deals[j].FirstSeenAt)
		})

	default:
		// Default to value ranking
		deals = ranking.Rank(deals)
		if ascending {
			for i, j := 0, len(deals)-1; i < j; i, j = i+1, j-1 {
				deals[i], deals[j] = deals[j], deals[i]
			}
		}
	}

	return deals
}

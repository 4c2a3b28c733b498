package ranking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

func deal(fp, cpp string, cost int64, day int) models.Deal {
	d := models.Deal{
		Fingerprint:         fp,
		Reachable:           true,
		EffectivePointsCost: cost,
		MilesRequired:       cost,
		Date:                time.Date(2026, 11, day, 0, 0, 0, 0, time.UTC),
	}
	if cpp != "" {
		d.CPP = decimal.NewNullDecimal(decimal.RequireFromString(cpp))
	}
	return d
}

func fingerprints(deals []models.Deal) []string {
	out := make([]string, len(deals))
	for i, d := range deals {
		out[i] = d.Fingerprint
	}
	return out
}

func TestRank(t *testing.T) {
	input := []models.Deal{
		deal("nocash", "", 10000, 1),
		deal("low", "1.2", 30000, 1),
		deal("unicorn", "7.19", 85000, 1),
		deal("tie-expensive", "4.5", 80000, 1),
		deal("tie-cheap", "4.5", 60000, 3),
		deal("tie-cheap-earlier", "4.5", 60000, 2),
	}

	got := Rank(input)

	assert.Equal(t, []string{"unicorn", "tie-cheap-earlier", "tie-cheap", "tie-expensive", "low", "nocash"}, fingerprints(got))
	assert.Equal(t, "nocash", input[0].Fingerprint, "input untouched")
}

func TestRank_UndefinedLastAndStable(t *testing.T) {
	a := deal("a", "", 10000, 1)
	b := deal("b", "", 10000, 1)
	c := deal("c", "0", 90000, 5)

	assert.Equal(t, []string{"c", "a", "b"}, fingerprints(Rank([]models.Deal{b, a, c})))
	assert.Empty(t, Rank(nil))
}

func TestCost(t *testing.T) {
	d := deal("x", "2", 40000, 1)
	d.MilesRequired = 50000
	assert.Equal(t, int64(40000), Cost(d))

	d.Reachable = false
	assert.Equal(t, int64(50000), Cost(d))
}

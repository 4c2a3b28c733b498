package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

func mk(fp string, cpp string, cabin models.Cabin, program string, miles int64, day int) models.Deal {
	d := models.Deal{
		Fingerprint:   fp,
		Cabin:         cabin,
		ProgramCode:   program,
		MilesRequired: miles,
		Date:          time.Date(2026, 11, day, 0, 0, 0, 0, time.UTC),
		FirstSeenAt:   time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC),
	}
	if cpp != "" {
		d.CPP = decimal.NewNullDecimal(decimal.RequireFromString(cpp))
		d.IsUnicorn = d.CPP.Decimal.GreaterThanOrEqual(decimal.NewFromInt(7))
	}
	return d
}

func sample() []models.Deal {
	reachable := mk("aeroplan-j", "7.19", models.CabinBusiness, "aeroplan", 85000, 20)
	reachable.Reachable = true
	reachable.EffectivePointsCost = 85000

	short := mk("ana-f", "9.5", models.CabinFirst, "ana", 110000, 21)
	short.Reachable = true
	short.InsufficientBalance = true
	short.EffectivePointsCost = 110000

	return []models.Deal{
		reachable,
		short,
		mk("united-j", "2.1", models.CabinBusiness, "united", 88000, 22),
		mk("delta-y", "", models.CabinEconomy, "delta", 45000, 23),
	}
}

func fps(deals []models.Deal) []string {
	out := make([]string, len(deals))
	for i, d := range deals {
		out[i] = d.Fingerprint
	}
	return out
}

func TestApply_Filters(t *testing.T) {
	lo := decimal.RequireFromString("2.1")
	hi := decimal.RequireFromString("8")
	miles := int64(100000)

	tests := []struct {
		name     string
		criteria *Criteria
		want     []string
	}{
		{"nil criteria", nil, []string{"ana-f", "aeroplan-j", "united-j", "delta-y"}},
		{"min cpp inclusive drops no baseline", &Criteria{MinCPP: &lo}, []string{"ana-f", "aeroplan-j", "united-j"}},
		{"max cpp", &Criteria{MaxCPP: &hi}, []string{"aeroplan-j", "united-j"}},
		{"unicorns", &Criteria{UnicornOnly: true}, []string{"ana-f", "aeroplan-j"}},
		{"affordable", &Criteria{AffordableOnly: true}, []string{"aeroplan-j"}},
		{"cabins", &Criteria{Cabins: []models.Cabin{models.CabinBusiness}}, []string{"aeroplan-j", "united-j"}},
		{"programs case insensitive", &Criteria{Programs: []string{"DELTA", "ana"}}, []string{"ana-f", "delta-y"}},
		{"max miles", &Criteria{MaxMiles: &miles}, []string{"aeroplan-j", "united-j", "delta-y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fps(Apply(sample(), tt.criteria, "", "")))
		})
	}
}

func TestApply_Sort(t *testing.T) {
	assert.Equal(t, []string{"delta-y", "aeroplan-j", "united-j", "ana-f"}, fps(Apply(sample(), nil, "miles", "")))
	assert.Equal(t, []string{"ana-f", "united-j", "aeroplan-j", "delta-y"}, fps(Apply(sample(), nil, "miles", "desc")))
	assert.Equal(t, []string{"delta-y", "united-j", "ana-f", "aeroplan-j"}, fps(Apply(sample(), nil, "date", "desc")))
	assert.Equal(t, []string{"aeroplan-j", "ana-f", "united-j", "delta-y"}, fps(Apply(sample(), nil, "first_seen", "asc")))
	assert.Equal(t, []string{"delta-y", "aeroplan-j", "united-j", "ana-f"}, fps(Apply(sample(), nil, "cost", "")))
	assert.Equal(t, []string{"delta-y", "united-j", "aeroplan-j", "ana-f"}, fps(Apply(sample(), nil, "cpp", "asc")))
}

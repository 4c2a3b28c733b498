package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		want error
	}{
		{name: "missing origin", req: SearchRequest{Destination: "NRT"}, want: ErrMissingOrigin},
		{name: "missing destination", req: SearchRequest{Origin: "SFO"}, want: ErrMissingDestination},
		{name: "same airport", req: SearchRequest{Origin: "sfo", Destination: " SFO"}, want: ErrSameAirport},
		{name: "bad cabin", req: SearchRequest{Origin: "SFO", Destination: "NRT", Cabins: []string{"coach"}}, want: ErrInvalidCabin},
		{name: "bad date", req: SearchRequest{Origin: "SFO", Destination: "NRT", StartDate: "11/20/2026"}, want: ErrInvalidDate},
		{name: "reversed range", req: SearchRequest{Origin: "SFO", Destination: "NRT", StartDate: "2026-11-20", EndDate: "2026-11-19"}, want: ErrInvalidDateRange},
		{name: "range too long", req: SearchRequest{Origin: "SFO", Destination: "NRT", StartDate: "2026-01-01", EndDate: "2026-11-28"}, want: ErrDateRangeTooLong},
		{name: "longest range", req: SearchRequest{Origin: "SFO", Destination: "NRT", StartDate: "2026-01-01", EndDate: "2026-11-27"}},
		{name: "single day", req: SearchRequest{Origin: "SFO", Destination: "NRT", StartDate: "2026-11-20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchRequestValidateNormalizes(t *testing.T) {
	req := SearchRequest{
		Origin:      " sfo ",
		Destination: "nrt",
		Cabins:      []string{"Business", " FIRST"},
		Programs:    []string{" ANA", "Aeroplan"},
	}
	require.NoError(t, req.Validate())

	assert.Equal(t, "SFO", req.Origin)
	assert.Equal(t, "NRT", req.Destination)
	assert.Equal(t, []Cabin{CabinBusiness, CabinFirst}, req.CabinList())
	assert.Equal(t, []string{"ana", "aeroplan"}, req.Programs)
}

func TestTransferRequestValidate(t *testing.T) {
	req := TransferRequest{From: "Chase_UR", To: " aeroplan", Points: 1000}
	require.NoError(t, req.Validate())
	assert.Equal(t, "chase_ur", req.From)
	assert.Equal(t, "aeroplan", req.To)

	assert.ErrorIs(t, (&TransferRequest{From: "chase_ur", Points: 1}).Validate(), ErrMissingProgram)
	assert.ErrorIs(t, (&TransferRequest{From: "chase_ur", To: "ana"}).Validate(), ErrInvalidPoints)
	assert.ErrorIs(t, BalanceUpdateRequest{Balance: -1}.Validate(), ErrNegativeBalance)
}

func TestWorkItemString(t *testing.T) {
	date, err := ParseDate("2026-11-20")
	require.NoError(t, err)
	item := WorkItem{Origin: "SFO", Destination: "NRT", Cabin: CabinBusiness, Date: date, Program: "ana"}
	assert.Equal(t, "ana:SFO-NRT:business:2026-11-20", item.String())
}

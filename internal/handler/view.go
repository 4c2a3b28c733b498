package handler

import (
	"github.com/dharmasatrya/pointsmaxxer/internal/booking"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/pkg/currency"
)

func NewDealView(d models.Deal) models.DealView {
	v := models.DealView{
		Deal:         d,
		CPPDisplay:   currency.FormatCPP(d.CPP),
		TaxesDisplay: currency.FormatUSD(int64(d.TaxesFees)),
	}
	if d.CashPrice != nil {
		v.CashPriceDisplay = currency.FormatUSD(int64(*d.CashPrice))
	}
	if u, ok := booking.ForDeal(d); ok {
		v.BookingURL = u
	}
	if v.TransferPath == nil {
		v.TransferPath = []models.TransferEdge{}
	}
	return v
}

func dealViews(ds []models.Deal) []models.DealView {
	out := make([]models.DealView, len(ds))
	for i, d := range ds {
		out[i] = NewDealView(d)
	}
	return out
}

// Package booking builds deep links into airline award search pages.
package booking

import (
	"net/url"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

// site describes one airline's one-way award search URL.
type site struct {
	base       string
	dateLayout string
	// query parameter names for the trip fields
	origin, destination, date, cabin string
	cabins                           map[models.Cabin]string
	fallback                         string
	fixed                            map[string]string
}

var sites = map[string]site{
	"aa": {
		base:       "https://www.aa.com/booking/find-flights",
		dateLayout: "2006-01-02",
		origin:     "originAirport", destination: "destinationAirport", date: "departureDate", cabin: "cabinType",
		cabins: map[models.Cabin]string{
			models.CabinEconomy:        "COACH",
			models.CabinPremiumEconomy: "PREMIUM_ECONOMY",
			models.CabinBusiness:       "BUSINESS",
			models.CabinFirst:          "FIRST",
		},
		fallback: "BUSINESS",
		fixed:    map[string]string{"tripType": "OneWay", "awardTravel": "true", "passengers": "1"},
	},
	"united": {
		base:       "https://www.united.com/en/us/fsr/choose-flights",
		dateLayout: "2006-01-02",
		origin:     "f", destination: "t", date: "d", cabin: "ct",
		cabins: map[models.Cabin]string{
			models.CabinEconomy:        "economy",
			models.CabinPremiumEconomy: "premium-economy",
			models.CabinBusiness:       "business",
			models.CabinFirst:          "first",
		},
		fallback: "business",
		fixed:    map[string]string{"tt": "1", "px": "1", "taxng": "1", "idx": "1", "st": "bestmatches", "at": "1"},
	},
	"delta": {
		base:       "https://www.delta.com/flight-search/book-a-flight",
		dateLayout: "20060102",
		origin:     "originCity", destination: "destinationCity", date: "departureDate", cabin: "cabinFareClass",
		cabins: map[models.Cabin]string{
			models.CabinEconomy:        "MAIN",
			models.CabinPremiumEconomy: "PREMIUM_SELECT",
			models.CabinBusiness:       "DELTA_ONE",
			models.CabinFirst:          "FIRST",
		},
		fallback: "DELTA_ONE",
		fixed: map[string]string{
			"action": "findFlights", "tripType": "ONE_WAY", "priceSchedule": "price",
			"paxCount": "1", "searchByCabin": "true", "awardTravel": "true",
		},
	},
	"aeroplan": {
		base:       "https://www.aircanada.com/aeroplan/redeem/availability/outbound",
		dateLayout: "2006-01-02",
		origin:     "org0", destination: "dest0", date: "departureDate0", cabin: "cabinClass",
		cabins: map[models.Cabin]string{
			models.CabinEconomy:        "economy",
			models.CabinPremiumEconomy: "premium-economy",
			models.CabinBusiness:       "business",
			models.CabinFirst:          "first",
		},
		fallback: "business",
		fixed: map[string]string{
			"ADT": "1", "YTH": "0", "CHD": "0", "INF": "0", "INS": "0",
			"tripType": "O", "marketCode": "INT", "awardBooking": "true",
		},
	},
	"alaska": {
		base:       "https://www.alaskaair.com/search/results",
		dateLayout: "01/02/2006",
		origin:     "O", destination: "D", date: "OD", cabin: "FT",
		// Alaska sells partner business as First.
		cabins: map[models.Cabin]string{
			models.CabinEconomy:        "Coach",
			models.CabinPremiumEconomy: "PremiumClass",
			models.CabinBusiness:       "First",
			models.CabinFirst:          "First",
		},
		fallback: "First",
		fixed:    map[string]string{"A": "1", "C": "0", "IR": "1"},
	},
	"ba_avios": {
		base:       "https://www.britishairways.com/travel/redeem/execclub/_gf/en_us",
		dateLayout: "20060102",
		origin:     "from", destination: "to", date: "depDate", cabin: "cabin",
		cabins: map[models.Cabin]string{
			models.CabinEconomy:        "M",
			models.CabinPremiumEconomy: "W",
			models.CabinBusiness:       "J",
			models.CabinFirst:          "F",
		},
		fallback: "J",
		fixed: map[string]string{
			"eId": "111099", "adult": "1", "child": "0", "infant": "0", "redemption": "AVIOS_PART_PAY",
		},
	},
}

// Trip is what a booking search needs to know.
type Trip struct {
	Program     string
	Origin      string
	Destination string
	Cabin       models.Cabin
	Date        time.Time
}

// URL returns a one-passenger, one-way award search link. ok is false for
// programs without a known search page.
func URL(t Trip) (string, bool) {
	s, ok := sites[models.NormalizeCode(t.Program)]
	if !ok {
		return "", false
	}
	q := url.Values{}
	for k, v := range s.fixed {
		q.Set(k, v)
	}
	q.Set(s.origin, t.Origin)
	q.Set(s.destination, t.Destination)
	q.Set(s.date, t.Date.Format(s.dateLayout))
	cabin, ok := s.cabins[t.Cabin]
	if !ok {
		cabin = s.fallback
	}
	q.Set(s.cabin, cabin)
	return s.base + "?" + q.Encode(), true
}

// ForDeal links to the search that finds d.
func ForDeal(d models.Deal) (string, bool) {
	return URL(Trip{Program: d.ProgramCode, Origin: d.Origin, Destination: d.Destination, Cabin: d.Cabin, Date: d.Date})
}

// Display is the link, or a pointer to the program's own site.
func Display(d models.Deal) string {
	if u, ok := ForDeal(d); ok {
		return u
	}
	return "[Visit " + d.ProgramCode + " website to book]"
}

// Supported reports whether program has a known search page.
func Supported(program string) bool {
	_, ok := sites[models.NormalizeCode(program)]
	return ok
}

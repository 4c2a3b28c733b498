package providers

import "strings"

type Region string

const (
	RegionDomestic      Region = "domestic"
	RegionHawaii        Region = "hawaii"
	RegionTransatlantic Region = "transatlantic"
	RegionTranspacific  Region = "transpacific"
)

var (
	usAirports     = airportSet("JFK", "LAX", "SFO", "ORD", "DFW", "MIA", "SEA", "BOS", "ATL", "DEN", "IAH", "PHX", "EWR", "LGA", "DCA", "IAD")
	hawaiiAirports = airportSet("HNL", "OGG", "LIH", "KOA")
	europeAirports = airportSet("LHR", "CDG", "FRA", "AMS", "FCO", "MAD", "MUC", "BCN", "DUB", "ZRH", "VIE", "CPH")
	asiaAirports   = airportSet("NRT", "HND", "HKG", "SIN", "ICN", "PVG", "BKK", "TPE", "KUL", "MNL", "DEL", "BOM")
)

func airportSet(codes ...string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// RegionOf classifies a route by its endpoints. Anything not touching the
// US mainland on one side is treated as domestic.
func RegionOf(origin, destination string) Region {
	o, d := strings.ToUpper(origin), strings.ToUpper(destination)
	between := func(other map[string]bool) bool {
		return (usAirports[o] && other[d]) || (other[o] && usAirports[d])
	}
	switch {
	case between(hawaiiAirports):
		return RegionHawaii
	case between(europeAirports):
		return RegionTransatlantic
	case between(asiaAirports):
		return RegionTranspacific
	default:
		return RegionDomestic
	}
}

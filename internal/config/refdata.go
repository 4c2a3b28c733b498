package config

import "sort"

var currencyNames = map[string]string{
	"chase_ur": "Chase Ultimate Rewards",
	"amex_mr":  "Amex Membership Rewards",
	"cap_one":  "Capital One Miles",
	"bilt":     "Bilt Rewards",
	"citi_typ": "Citi ThankYou Points",
}

var airlinePrograms = map[string]string{
	"aa":              "American AAdvantage",
	"united":          "United MileagePlus",
	"delta":           "Delta SkyMiles",
	"aeroplan":        "Air Canada Aeroplan",
	"alaska":          "Alaska Mileage Plan",
	"ba_avios":        "British Airways Avios",
	"virgin_atlantic": "Virgin Atlantic Flying Club",
	"ana":             "ANA Mileage Club",
	"singapore":       "Singapore KrisFlyer",
	"cathay":          "Cathay Pacific Asia Miles",
	"flying_blue":     "Air France/KLM Flying Blue",
	"turkish":         "Turkish Miles&Smiles",
	"emirates":        "Emirates Skywards",
	"etihad":          "Etihad Guest",
	"qantas":          "Qantas Frequent Flyer",
	"jal":             "Japan Airlines Mileage Bank",
	"hyatt":           "World of Hyatt",
	"southwest":       "Southwest Rapid Rewards",
	"iberia":          "Iberia Plus",
	"avianca":         "Avianca LifeMiles",
	"finnair":         "Finnair Plus",
	"thai":            "Thai Royal Orchid Plus",
	"eva":             "EVA Infinity MileageLands",
}

var defaultPartners = map[string][]string{
	"chase_ur": {"united", "aeroplan", "virgin_atlantic", "ba_avios", "hyatt", "southwest", "iberia", "flying_blue", "singapore"},
	"amex_mr":  {"delta", "ana", "virgin_atlantic", "ba_avios", "singapore", "cathay", "flying_blue", "emirates", "etihad", "avianca"},
	"cap_one":  {"turkish", "avianca", "flying_blue", "ba_avios", "virgin_atlantic", "singapore", "emirates", "etihad", "finnair", "qantas"},
	"bilt":     {"aa", "united", "aeroplan", "virgin_atlantic", "turkish", "flying_blue", "alaska", "emirates", "cathay"},
	"citi_typ": {"turkish", "singapore", "virgin_atlantic", "flying_blue", "cathay", "qantas", "etihad", "thai", "eva"},
}

// DefaultPrograms lists the bank currencies and airline programs known
// without configuration, ordered by code.
func DefaultPrograms() []ProgramConfig {
	out := make([]ProgramConfig, 0, len(currencyNames)+len(airlinePrograms))
	for code, name := range currencyNames {
		out = append(out, ProgramConfig{Code: code, Name: name, Kind: "transferable_currency"})
	}
	for code, name := range airlinePrograms {
		out = append(out, ProgramConfig{Code: code, Name: name, Kind: "airline_program"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// DefaultTransfers is the 1:1 partner table used when no transfers are
// configured.
func DefaultTransfers() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(defaultPartners))
	for src, partners := range defaultPartners {
		m := make(map[string]float64, len(partners))
		for _, p := range partners {
			m[p] = 1.0
		}
		out[src] = m
	}
	return out
}

package timezone

import (
	"strings"
	"sync"
	"time"

	// Embedded zone database so containers without /usr/share/zoneinfo
	// resolve airport zones.
	_ "time/tzdata"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

var airportTimezones = map[string]string{
	// US mainland
	"ATL": "America/New_York",    // Atlanta - Hartsfield-Jackson
	"BOS": "America/New_York",    // Boston - Logan
	"DCA": "America/New_York",    // Washington - Reagan National
	"EWR": "America/New_York",    // Newark - Liberty
	"IAD": "America/New_York",    // Washington - Dulles
	"JFK": "America/New_York",    // New York - John F. Kennedy
	"LGA": "America/New_York",    // New York - LaGuardia
	"MIA": "America/New_York",    // Miami
	"DFW": "America/Chicago",     // Dallas/Fort Worth
	"IAH": "America/Chicago",     // Houston - George Bush
	"ORD": "America/Chicago",     // Chicago - O'Hare
	"DEN": "America/Denver",      // Denver
	"PHX": "America/Phoenix",     // Phoenix - Sky Harbor
	"LAX": "America/Los_Angeles", // Los Angeles
	"SEA": "America/Los_Angeles", // Seattle-Tacoma
	"SFO": "America/Los_Angeles", // San Francisco

	// Hawaii
	"HNL": "Pacific/Honolulu", // Honolulu - Daniel K. Inouye
	"KOA": "Pacific/Honolulu", // Kona
	"LIH": "Pacific/Honolulu", // Lihue
	"OGG": "Pacific/Honolulu", // Kahului

	// Europe
	"AMS": "Europe/Amsterdam",
	"BCN": "Europe/Madrid",
	"CDG": "Europe/Paris",
	"CPH": "Europe/Copenhagen",
	"DUB": "Europe/Dublin",
	"FCO": "Europe/Rome",
	"FRA": "Europe/Berlin",
	"LHR": "Europe/London",
	"MAD": "Europe/Madrid",
	"MUC": "Europe/Berlin",
	"VIE": "Europe/Vienna",
	"ZRH": "Europe/Zurich",

	// Asia
	"BKK": "Asia/Bangkok",
	"BOM": "Asia/Kolkata",
	"DEL": "Asia/Kolkata",
	"HKG": "Asia/Hong_Kong",
	"HND": "Asia/Tokyo",
	"ICN": "Asia/Seoul",
	"KUL": "Asia/Kuala_Lumpur",
	"MNL": "Asia/Manila",
	"NRT": "Asia/Tokyo",
	"PVG": "Asia/Shanghai",
	"SIN": "Asia/Singapore",
	"TPE": "Asia/Taipei",

	// Canada
	"YUL": "America/Toronto",
	"YVR": "America/Vancouver",
	"YYZ": "America/Toronto",
}

var (
	locMu     sync.RWMutex
	locations = map[string]*time.Location{}
)

// GetTimezoneByAirport returns the IANA zone of an airport, or "" when it
// is not known.
func GetTimezoneByAirport(code string) string {
	return airportTimezones[strings.ToUpper(code)]
}

// GetLocationByAirport resolves an airport's zone, falling back to
// fallback (UTC when nil) for unknown airports.
func GetLocationByAirport(code string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	name := GetTimezoneByAirport(code)
	if name == "" {
		return fallback
	}
	if loc := GetLocationByName(name); loc != nil {
		return loc
	}
	return fallback
}

// GetLocationByName loads and memoizes a zone. It returns nil for unknown
// names.
func GetLocationByName(name string) *time.Location {
	locMu.RLock()
	loc, ok := locations[name]
	locMu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	locMu.Lock()
	locations[name] = loc
	locMu.Unlock()
	return loc
}

// LocalDate is the calendar date at the airport at instant now, as
// midnight UTC.
func LocalDate(now time.Time, airport string, fallback *time.Location) time.Time {
	return models.DateOf(now.In(GetLocationByAirport(airport, fallback)))
}

// DateWindow lists days consecutive travel dates starting at the origin's
// local today.
func DateWindow(now time.Time, origin string, days int, fallback *time.Location) []time.Time {
	if days <= 0 {
		return nil
	}
	start := LocalDate(now, origin, fallback)
	out := make([]time.Time, days)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func ConvertToTimezone(t time.Time, airportCode string) time.Time {
	return t.In(GetLocationByAirport(airportCode, nil))
}

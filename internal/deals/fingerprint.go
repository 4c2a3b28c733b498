package deals

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

const DefaultMilesBand int64 = 5000

// MilesBucket rounds miles to the nearest band, half up.
func MilesBucket(miles, band int64) int64 {
	if band <= 0 {
		band = DefaultMilesBand
	}
	return (miles + band/2) / band
}

// Fingerprint identifies one award across observations. cpp bucket is the
// folded value tier from the analyzer.
func Fingerprint(s models.AvailabilitySnapshot, band int64, cppBucket string) string {
	key := strings.Join([]string{
		strings.ToUpper(s.Origin),
		strings.ToUpper(s.Destination),
		string(s.Cabin),
		models.DateOf(s.Date).Format(models.DateLayout),
		models.NormalizeCode(s.ProgramCode),
		strconv.FormatInt(MilesBucket(s.MilesRequired, band), 10),
		cppBucket,
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

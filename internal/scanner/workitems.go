package scanner

import (
	"strings"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/timezone"
)

// WorkItems expands routes into the cross product of origins, cabins,
// travel dates and programs. Wildcard destinations are skipped and
// duplicates collapse. Order is deterministic.
func (s *Scanner) WorkItems(req CycleRequest) []models.WorkItem {
	st := s.state.Load()
	cfg := st.cfg
	programs := s.sources.Select(req.Programs)
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}

	seen := make(map[string]bool)
	var items []models.WorkItem
	for _, route := range req.Routes {
		if route.Wildcard() || route.Destination == "" {
			continue
		}
		origins := []string{route.Origin}
		if route.Origin == "" {
			origins = cfg.HomeAirports
		}
		cabins := req.Cabins
		if route.Cabin != "" {
			cabins = []models.Cabin{route.Cabin}
		}
		if len(cabins) == 0 {
			cabins = cfg.Cabins
		}
		dest := strings.ToUpper(route.Destination)

		for _, origin := range origins {
			origin = strings.ToUpper(origin)
			if origin == dest {
				continue
			}
			dates := req.Dates
			if len(dates) == 0 {
				dates = timezone.DateWindow(now, origin, cfg.WindowDays, cfg.Location)
			}
			for _, cabin := range cabins {
				for _, date := range dates {
					for _, program := range programs {
						item := models.WorkItem{
							Origin:      origin,
							Destination: dest,
							Cabin:       cabin,
							Date:        models.DateOf(date),
							Program:     program,
						}
						if key := item.String(); !seen[key] {
							seen[key] = true
							items = append(items, item)
						}
					}
				}
			}
		}
	}
	return items
}

// DatesBetween lists the travel dates from start to end inclusive.
func DatesBetween(start, end time.Time) []time.Time {
	start, end = models.DateOf(start), models.DateOf(end)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

package models

type SearchMetadata struct {
	TotalResults    int   `json:"total_results"`
	WorkItems       int   `json:"work_items"`
	CachedItems     int   `json:"cached_items"`
	ItemsSucceeded  int   `json:"items_succeeded"`
	ItemsFailed     int   `json:"items_failed"`
	SnapshotsScored int   `json:"snapshots_scored"`
	NewDeals        int   `json:"new_deals"`
	UpdatedDeals    int   `json:"updated_deals"`
	UnchangedDeals  int   `json:"unchanged_deals"`
	SearchTimeMs    int64 `json:"search_time_ms"`
}

type SearchResponse struct {
	CycleID  string         `json:"cycle_id"`
	Metadata SearchMetadata `json:"metadata"`
	Deals    []DealView     `json:"deals"`
	Failures []ScanFailure  `json:"failures,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DealView is a deal with display-formatted fields attached.
type DealView struct {
	Deal
	CPPDisplay       string `json:"cpp_display"`
	CashPriceDisplay string `json:"cash_price_display,omitempty"`
	TaxesDisplay     string `json:"taxes_display"`
	BookingURL       string `json:"booking_url,omitempty"`
}

type HistoryResponse struct {
	Count int        `json:"count"`
	Deals []DealView `json:"deals"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

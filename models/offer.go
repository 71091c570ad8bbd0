// Package models defines data structures shared by the comparator.
package models

// Offer is one product listing extracted from one source.
// Nil pointer fields encode values that could not be extracted.
type Offer struct {
	Site        string   `json:"site"`
	Price       *float64 `json:"price"`
	Size        *string  `json:"size"`
	PricePerML  *float64 `json:"price_per_ml"`
	URL         string   `json:"url"`
	StockStatus string   `json:"stock_status"`
	ImageURL    *string  `json:"image_url"`
}

// SearchRequest is the inbound body of a comparison request.
type SearchRequest struct {
	Name string `json:"name"`
}

// ComparisonResult holds every offer found for a query and the best of them.
// BestDeal points into Results.
type ComparisonResult struct {
	PerfumeName string  `json:"perfume_name"`
	Results     []Offer `json:"results"`
	BestDeal    *Offer  `json:"best_deal"`
	Degraded    bool    `json:"degraded"`
	Notice      string  `json:"notice,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

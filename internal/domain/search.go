package domain

// SortBy selects the final ordering of a result list
type SortBy string

const (
	SortDefault   SortBy = "default"
	SortPriceLow  SortBy = "price-low"
	SortPriceHigh SortBy = "price-high"
	SortRating    SortBy = "rating"
)

// Valid reports whether s is a known sort order. The empty value means default.
func (s SortBy) Valid() bool {
	switch s {
	case "", SortDefault, SortPriceLow, SortPriceHigh, SortRating:
		return true
	}
	return false
}

// PriceRange is an inclusive price window. Max <= 0 means no upper bound.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filters narrows a result list after ranking. Empty strings disable a facet.
type Filters struct {
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	Color       string     `json:"color,omitempty"`
	PriceRange  PriceRange `json:"priceRange"`
	InStock     bool       `json:"inStock"`
	SortBy      SortBy     `json:"sortBy,omitempty"`
}

// SearchRequest represents a catalog search request
type SearchRequest struct {
	Query     string  `json:"query"`
	Filters   Filters `json:"filters"`
	SessionID string  `json:"sessionId,omitempty"`
}

// SearchResult is the ordered list returned for a search request
type SearchResult struct {
	Query    string          `json:"query"`
	Tokens   []string        `json:"tokens"`
	Total    int             `json:"total"`
	Products []ScoredProduct `json:"products"`
}

package domain

// Product is a catalog record as served by the storefront product API.
// Optional text fields are empty strings when the API omits them.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Colors      []Color  `json:"colors,omitempty"`
	Models      []string `json:"model,omitempty"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Rating      float64  `json:"rating"`
}

// Color is a named product color; names compare case-insensitively
type Color struct {
	Name string `json:"colorName"`
}

// ScoredProduct is a product with its relevance score for the current query.
// Score is 0 when search is inactive.
type ScoredProduct struct {
	Product
	Score       float64 `json:"score"`
	DisplayName string  `json:"displayName"`
}

// Vocabulary holds the facet values offered by the storefront
type Vocabulary struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Colors        []string `json:"colors"`
}

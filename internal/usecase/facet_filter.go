package usecase

import (
	"sort"
	"strings"

	"github.com/storefront/backend/internal/domain"
)

// ApplyFilters narrows a ranked list by the active facets and applies the
// requested sort. The input slice is not modified.
//
// Facets run in a fixed order: category, subcategory, color, stock, price.
// An explicit sort overrides relevance; the default sort keeps relevance
// order while a search is active and otherwise lists newest products first.
func ApplyFilters(products []domain.ScoredProduct, filters domain.Filters, searchActive bool) []domain.ScoredProduct {
	result := make([]domain.ScoredProduct, 0, len(products))
	for _, p := range products {
		if matchesFilters(p.Product, filters) {
			result = append(result, p)
		}
	}

	switch filters.SortBy {
	case domain.SortPriceLow:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case domain.SortPriceHigh:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	case domain.SortRating:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	default:
		if !searchActive {
			sort.SliceStable(result, func(i, j int) bool { return newerThan(result[i].ID, result[j].ID) })
		}
	}

	return result
}

func matchesFilters(p domain.Product, f domain.Filters) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Subcategory != "" && p.Subcategory != f.Subcategory {
		return false
	}
	if f.Color != "" && !hasColor(p, f.Color) {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if p.Price < f.PriceRange.Min {
		return false
	}
	if f.PriceRange.Max > 0 && p.Price > f.PriceRange.Max {
		return false
	}
	return true
}

func hasColor(p domain.Product, color string) bool {
	for _, c := range p.Colors {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(color)) {
			return true
		}
	}
	return false
}

// newerThan orders product IDs newest first. The product API hands out
// increasing IDs, so longer IDs are newer and equal lengths compare lexically.
func newerThan(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

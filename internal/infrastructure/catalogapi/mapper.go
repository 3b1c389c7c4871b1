package catalogapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/storefront/backend/internal/domain"
)

// productRecord is a product as the storefront API serves it. References such
// as category may arrive as a plain name or as a populated object, and ids as
// strings or numbers, so they are decoded lazily.
type productRecord struct {
	ID          json.RawMessage   `json:"id"`
	MongoID     json.RawMessage   `json:"_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    json.RawMessage   `json:"category"`
	Subcategory json.RawMessage   `json:"subcategory"`
	Colors      []json.RawMessage `json:"colors"`
	Model       []string          `json:"model"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Rating      float64           `json:"rating"`
}

// decodeProductList accepts either a bare array or an object with a "products" array
func decodeProductList(data []byte) ([]productRecord, error) {
	data = bytes.TrimSpace(data)

	var records []productRecord
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var envelope struct {
		Products []productRecord `json:"products"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Products, nil
}

// mapProducts converts API records to domain products. Records without an id
// cannot be addressed by the storefront and are skipped.
func mapProducts(records []productRecord) []domain.Product {
	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		p := mapProduct(r)
		if p.ID == "" {
			continue
		}
		products = append(products, p)
	}
	return products
}

func mapProduct(r productRecord) domain.Product {
	id := rawString(r.ID)
	if id == "" {
		id = rawString(r.MongoID)
	}

	p := domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Category:    rawName(r.Category),
		Subcategory: rawName(r.Subcategory),
		Price:       r.Price,
		Stock:       r.Stock,
		Rating:      r.Rating,
	}

	seen := make(map[string]bool, len(r.Colors))
	for _, c := range r.Colors {
		name := rawName(c)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		p.Colors = append(p.Colors, domain.Color{Name: name})
	}

	for _, m := range r.Model {
		if m = strings.TrimSpace(m); m != "" {
			p.Models = append(p.Models, m)
		}
	}

	return p
}

// mapNames converts a vocabulary listing to names, skipping entries without one
func mapNames(raw []json.RawMessage) []string {
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		if name := rawName(r); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// rawString decodes a JSON string or number as a string; anything else is ""
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

// rawName decodes a name given as a string or as an object with a
// name, colorName or title field
func rawName(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}

	var obj struct {
		Name      string `json:"name"`
		ColorName string `json:"colorName"`
		Title     string `json:"title"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, v := range []string{obj.Name, obj.ColorName, obj.Title} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/reloveshop/storefront/internal/gateway"
)

// ErrValidation marks a rejected product payload.
var ErrValidation = errors.New("validation failed")

// ErrNotFound marks a product id absent from the catalog.
var ErrNotFound = errors.New("product not found")

var (
	Categories = []string{"denim", "tops", "dresses", "outerwear", "accessories"}
	Sizes      = []string{"xs", "s", "m", "l", "xl"}
)

// Product is one listing. Price is in the smallest currency unit. Gender,
// color and condition are optional free-form values matched
// case-insensitively by the filter logic.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Size        string   `json:"size"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Available   bool     `json:"available"`
	Category    string   `json:"category"`
	Gender      string   `json:"gender,omitempty"`
	Color       string   `json:"color,omitempty"`
	Condition   string   `json:"condition,omitempty"`
}

// CreateProductRequest carries a full product payload for creation.
type CreateProductRequest struct {
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Size        string   `json:"size"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Available   bool     `json:"available"`
	Category    string   `json:"category"`
	Gender      string   `json:"gender"`
	Color       string   `json:"color"`
	Condition   string   `json:"condition"`
}

// PatchProductRequest carries a partial update; nil fields keep their
// stored values (gateway merge semantics).
type PatchProductRequest struct {
	Name        *string   `json:"name"`
	Price       *int64    `json:"price"`
	Size        *string   `json:"size"`
	Description *string   `json:"description"`
	Images      *[]string `json:"images"`
	Available   *bool     `json:"available"`
	Category    *string   `json:"category"`
	Gender      *string   `json:"gender"`
	Color       *string   `json:"color"`
	Condition   *string   `json:"condition"`
}

func (r CreateProductRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if !contains(Sizes, strings.ToLower(r.Size)) {
		return fmt.Errorf("%w: unknown size %q", ErrValidation, r.Size)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if len(r.Images) == 0 {
		return fmt.Errorf("%w: at least one image is required", ErrValidation)
	}
	if !contains(Categories, strings.ToLower(r.Category)) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, r.Category)
	}
	return nil
}

func (r PatchProductRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if r.Size != nil && !contains(Sizes, strings.ToLower(*r.Size)) {
		return fmt.Errorf("%w: unknown size %q", ErrValidation, *r.Size)
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrValidation)
	}
	if r.Images != nil && len(*r.Images) == 0 {
		return fmt.Errorf("%w: at least one image is required", ErrValidation)
	}
	if r.Category != nil && !contains(Categories, strings.ToLower(*r.Category)) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, *r.Category)
	}
	return nil
}

func (r PatchProductRequest) fields() map[string]any {
	fields := map[string]any{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.Size != nil {
		fields["size"] = *r.Size
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Images != nil {
		fields["images"] = *r.Images
	}
	if r.Available != nil {
		fields["available"] = *r.Available
	}
	if r.Category != nil {
		fields["category"] = *r.Category
	}
	if r.Gender != nil {
		fields["gender"] = *r.Gender
	}
	if r.Color != nil {
		fields["color"] = *r.Color
	}
	if r.Condition != nil {
		fields["condition"] = *r.Condition
	}
	return fields
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func productFromDocument(doc gateway.Document) (Product, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func (r CreateProductRequest) fields() map[string]any {
	return map[string]any{
		"name":        r.Name,
		"price":       r.Price,
		"size":        r.Size,
		"description": r.Description,
		"images":      r.Images,
		"available":   r.Available,
		"category":    r.Category,
		"gender":      r.Gender,
		"color":       r.Color,
		"condition":   r.Condition,
	}
}

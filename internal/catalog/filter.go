package catalog

import "strings"

// Facet names accepted in a Selection.
const (
	FacetCategory  = "category"
	FacetGender    = "gender"
	FacetSize      = "size"
	FacetColor     = "color"
	FacetCondition = "condition"
	FacetPrice     = "price"
)

// Price buckets over price in major units (price/100). Boundaries are
// inclusive on the lower bucket: a 25.00 product is "0-25".
const (
	PriceBucketLow    = "0-25"
	PriceBucketMid    = "25-50"
	PriceBucketHigh   = "50-100"
	PriceBucketHigher = "100+"
)

var PriceBuckets = []string{PriceBucketLow, PriceBucketMid, PriceBucketHigh, PriceBucketHigher}

// Selection maps a facet name to its selected values. A missing facet or
// an empty value list means no constraint on that facet.
type Selection map[string][]string

// FacetCounts holds, per facet value, the number of products in the full
// collection carrying that value. It is computed independently of any
// Selection.
type FacetCounts struct {
	Category  map[string]int `json:"category"`
	Gender    map[string]int `json:"gender"`
	Size      map[string]int `json:"size"`
	Color     map[string]int `json:"color"`
	Condition map[string]int `json:"condition"`
	Price     map[string]int `json:"price"`
}

// PriceBucket places a price (smallest currency unit) into its bucket.
// The buckets partition every price total: exactly one matches.
func PriceBucket(price int64) string {
	major := float64(price) / 100
	switch {
	case major <= 25:
		return PriceBucketLow
	case major <= 50:
		return PriceBucketMid
	case major <= 100:
		return PriceBucketHigh
	default:
		return PriceBucketHigher
	}
}

// ApplyFilters returns the order-preserving subsequence of products
// accepted by every non-empty facet of the selection. Facets combine
// with AND; values within one facet with OR. String facets match
// case-insensitively; products lacking an optional field are matched as
// the empty string, so they never satisfy a non-empty selection for that
// facet. An empty selection returns the input unchanged.
func ApplyFilters(products []Product, sel Selection) []Product {
	if len(sel) == 0 {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if matches(p, sel) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p Product, sel Selection) bool {
	for facet, values := range sel {
		if len(values) == 0 {
			continue
		}
		var ok bool
		switch facet {
		case FacetCategory:
			ok = containsFold(values, p.Category)
		case FacetSize:
			ok = containsFold(values, p.Size)
		case FacetGender:
			ok = containsFold(values, p.Gender)
		case FacetColor:
			ok = containsFold(values, p.Color)
		case FacetCondition:
			ok = containsFold(values, p.Condition)
		case FacetPrice:
			ok = contains(values, PriceBucket(p.Price))
		default:
			// unknown facets constrain nothing
			ok = true
		}
		if !ok {
			return false
		}
	}
	return true
}

func containsFold(values []string, field string) bool {
	field = strings.ToLower(field)
	for _, v := range values {
		if strings.ToLower(v) == field {
			return true
		}
	}
	return false
}

// CountFacets tallies facet values over the full collection. Price
// buckets are always present in the result, even at zero; optional
// fields contribute only when set.
func CountFacets(products []Product) FacetCounts {
	counts := FacetCounts{
		Category:  map[string]int{},
		Gender:    map[string]int{},
		Size:      map[string]int{},
		Color:     map[string]int{},
		Condition: map[string]int{},
		Price: map[string]int{
			PriceBucketLow:    0,
			PriceBucketMid:    0,
			PriceBucketHigh:   0,
			PriceBucketHigher: 0,
		},
	}

	for _, p := range products {
		counts.Category[strings.ToLower(p.Category)]++
		counts.Size[strings.ToLower(p.Size)]++
		if p.Gender != "" {
			counts.Gender[strings.ToLower(p.Gender)]++
		}
		if p.Color != "" {
			counts.Color[strings.ToLower(p.Color)]++
		}
		if p.Condition != "" {
			counts.Condition[strings.ToLower(p.Condition)]++
		}
		counts.Price[PriceBucket(p.Price)]++
	}

	return counts
}

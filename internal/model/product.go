package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// Category and similarity are not provided by the search API yet.
const (
	defaultCategory   = "furniture"
	defaultSimilarity = 1.0
)

// Product is the display model rendered as a card.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Image        string   `json:"image"`
	Category     string   `json:"category"`
	Similarity   float64  `json:"similarity"`
	URL          string   `json:"url"`
	Condition    string   `json:"condition"`
	Location     string   `json:"location"`
	ShippingCost *float64 `json:"shippingCost,omitempty"` // nil means unknown
	SellerRating float64  `json:"sellerRating"`
}

// ToProduct maps an API listing to its display model.
func ToProduct(l Listing) Product {
	currency := strings.ToUpper(strings.TrimSpace(l.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	var shipping *float64
	if l.ShippingCost != nil {
		v := *l.ShippingCost
		shipping = &v
	}
	return Product{
		ID:           l.ItemID,
		Name:         l.Title,
		Price:        l.Price,
		Currency:     currency,
		Image:        l.ImageURL,
		Category:     defaultCategory,
		Similarity:   defaultSimilarity,
		URL:          l.ItemURL,
		Condition:    l.Condition,
		Location:     l.Location,
		ShippingCost: shipping,
		SellerRating: l.SellerRating,
	}
}

// ToProducts maps listings preserving API order. It never returns nil.
func ToProducts(listings []Listing) []Product {
	products := make([]Product, 0, len(listings))
	for _, l := range listings {
		products = append(products, ToProduct(l))
	}
	return products
}

// TotalCost returns price plus shipping. ok is false when shipping is unknown.
func (p Product) TotalCost() (total float64, ok bool) {
	if p.ShippingCost == nil {
		return p.Price, false
	}
	return p.Price + *p.ShippingCost, true
}

// PriceLabel formats the item price for display.
func (p Product) PriceLabel() string {
	return FormatPrice(p.Price, p.Currency)
}

// ShippingLabel formats the shipping cost, or "Not listed" when unknown.
func (p Product) ShippingLabel() string {
	if p.ShippingCost == nil {
		return "Not listed"
	}
	return FormatPrice(*p.ShippingCost, p.Currency)
}

// SimilarityPercent is the match badge value, 0..100.
func (p Product) SimilarityPercent() int {
	return int(math.Round(p.Similarity * 100))
}

// RatingLabel formats the seller rating as a percentage.
func (p Product) RatingLabel() string {
	return humanize.Commaf(math.Round(p.SellerRating*10)/10) + "%"
}

// FormatPrice renders an amount with grouping and at most two fraction digits.
// USD uses a "$" prefix; other currencies are prefixed with their code.
func FormatPrice(amount float64, currency string) string {
	s := humanize.Commaf(math.Round(amount*100) / 100)
	if currency == "" || strings.EqualFold(currency, DefaultCurrency) {
		return "$" + s
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(currency), s)
}

// SortByTotalCost orders products by ascending total cost. Products with unknown
// shipping go after every product with a known total; ties keep relevance order.
func SortByTotalCost(products []Product) []Product {
	sorted := make([]Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, oki := sorted[i].TotalCost()
		tj, okj := sorted[j].TotalCost()
		if oki != okj {
			return oki
		}
		return ti < tj
	})
	return sorted
}

package searchapi

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"pieza-web/internal/model"
)

// DefaultCatalogLimit caps the number of demo listings returned per query.
const DefaultCatalogLimit = 12

// Catalog is an offline searcher over a fixed furniture set. It lets the front end
// run without a search backend.
type Catalog struct {
	items []model.Listing
	limit int
}

// NewCatalog returns a catalog over items. A nil items uses the built-in set.
func NewCatalog(items []model.Listing, limit int) *Catalog {
	if items == nil {
		items = demoListings()
	}
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	return &Catalog{items: items, limit: limit}
}

var stopWords = map[string]bool{
	"and": true, "for": true, "the": true, "with": true, "that": true, "something": true,
	"make": true, "more": true, "prefer": true, "want": true, "looking": true, "need": true,
	"room": true, "from": true, "like": true,
}

// terms splits a query into lowercase words of three or more letters.
func terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Search ranks catalog listings by how many query words appear in the title.
// Listings matching no word are left out; ties keep catalog order.
func (c *Catalog) Search(ctx context.Context, query string) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := terms(query)
	type scored struct {
		listing model.Listing
		score   int
	}
	var hits []scored
	for _, item := range c.items {
		title := strings.ToLower(item.Title)
		score := 0
		for _, w := range words {
			if strings.Contains(title, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{listing: item, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > c.limit {
		hits = hits[:c.limit]
	}
	listings := make([]model.Listing, 0, len(hits))
	for _, h := range hits {
		listings = append(listings, h.listing)
	}
	return listings, nil
}

func shipping(v float64) *float64 { return &v }

func demoListing(id, title string, price float64, condition, location, photo string, ship *float64, rating float64) model.Listing {
	return model.Listing{
		ItemID:       id,
		Title:        title,
		Price:        price,
		Currency:     model.DefaultCurrency,
		Condition:    condition,
		Location:     location,
		ImageURL:     "https://images.unsplash.com/" + photo + "?w=600&h=600&fit=crop",
		ItemURL:      "https://ebay.com/itm/" + id,
		ShippingCost: ship,
		SellerRating: rating,
	}
}

func demoListings() []model.Listing {
	return []model.Listing{
		demoListing("1", "Modern Velvet Sofa with Wood Legs", 599.99, "New", "New York, NY", "photo-1555041469-a586c61ea9bc", shipping(49.99), 98.5),
		demoListing("2", "Contemporary Fabric Sofa - 70\" Wide", 799.99, "New", "Los Angeles, CA", "photo-1493663284031-b7e3aefcae8e", shipping(59.99), 99.2),
		demoListing("3", "Vintage Wood Frame Sofa", 299.99, "Used - Like New", "Chicago, IL", "photo-1567016432779-094069958ea5", shipping(89.99), 97.8),
		demoListing("4", "Mid-Century Modern Sofa with Tapered Legs", 899.99, "New", "San Francisco, CA", "photo-1550254478-ead40cc54513", shipping(69.99), 99.5),
		demoListing("5", "Sectional Sofa with Ottoman", 1299.99, "New", "Miami, FL", "photo-1586023492125-27b2c045efd7", shipping(99.99), 98.9),
		demoListing("6", "Convertible Sleeper Sofa", 699.99, "New", "Seattle, WA", "photo-1567016376408-0226e4d0c1ea", nil, 97.5),
		demoListing("7", "Scandinavian Minimalist Sofa", 850, "New", "Portland, OR", "photo-1519710164239-da123dc03ef4", shipping(60), 99.1),
		demoListing("8", "Industrial Reclaimed Wood Coffee Table", 320, "Used - Good", "Brooklyn, NY", "photo-1506744038136-46273834b3fb", shipping(45), 97.8),
		demoListing("9", "Mid-Century Walnut Sideboard", 1200, "New", "Austin, TX", "photo-1465101046530-73398c7f28ca", shipping(80), 98.7),
		demoListing("10", "Modern Tufted Velvet Armchair", 410, "New", "Chicago, IL", "photo-1515378791036-0648a3ef77b2", shipping(35), 99.0),
		demoListing("11", "Bohemian Rattan Lounge Chair", 275, "Used - Like New", "Santa Barbara, CA", "photo-1503389152951-9c3d8b6e9c94", shipping(30), 98.2),
		demoListing("12", "Contemporary Glass Dining Table", 950, "New", "Miami, FL", "photo-1468436139062-f60a71c5c892", shipping(90), 99.3),
		demoListing("13", "Classic Leather Chesterfield Sofa", 1800, "Used - Excellent", "Boston, MA", "photo-1519125323398-675f0ddb6308", shipping(120), 97.9),
		demoListing("14", "Farmhouse Pine Dining Bench", 220, "New", "Nashville, TN", "photo-1465101178521-c1a9136a3b99", nil, 98.6),
		demoListing("16", "Vintage Oak Bookshelf", 330, "Used - Good", "Denver, CO", "photo-1465101046530-73398c7f28ca", shipping(50), 97.5),
		demoListing("21", "Modern Glass and Chrome Coffee Table", 420, "New", "Los Angeles, CA", "photo-1503389152951-9c3d8b6e9c94", shipping(40), 99.0),
		demoListing("22", "Rustic Live Edge Walnut Desk", 1100, "New", "Boulder, CO", "photo-1519125323398-675f0ddb6308", shipping(70), 98.7),
		demoListing("24", "Mid-Century Modern Walnut Coffee Table", 600, "Used - Good", "San Francisco, CA", "photo-1500534314209-a25ddb2bd429", shipping(45), 98.3),
		demoListing("26", "Modern Velvet Swivel Chair", 350, "New", "Atlanta, GA", "photo-1519710164239-da123dc03ef4", shipping(30), 99.1),
		demoListing("28", "Scandinavian Oak Dining Chairs (Set of 4)", 780, "New", "Minneapolis, MN", "photo-1515378791036-0648a3ef77b2", shipping(60), 99.3),
	}
}

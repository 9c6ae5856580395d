package model

// DefaultCurrency is assumed when the search API omits the currency code.
const DefaultCurrency = "USD"

// SearchRequest is the body posted to the remote search API.
type SearchRequest struct {
	Prompt string `json:"prompt"`
}

// SearchResponse models the remote search API reply. Items are in relevance order.
type SearchResponse struct {
	Items []Listing `json:"items"`
	Total int       `json:"total"`
	Query string    `json:"query"`
}

// Listing is a single furniture item as returned by the search API.
// The JSON shape is fixed by the backend and must not change.
type Listing struct {
	ItemID       string   `json:"item_id" validate:"required"`
	Title        string   `json:"title" validate:"required"`
	Price        float64  `json:"price" validate:"gte=0"`
	Currency     string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Condition    string   `json:"condition"`
	Location     string   `json:"location"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`
	ItemURL      string   `json:"item_url" validate:"required,url"`
	ShippingCost *float64 `json:"shipping_cost,omitempty" validate:"omitempty,gte=0"`
	SellerRating float64  `json:"seller_rating" validate:"gte=0,lte=100"`
}

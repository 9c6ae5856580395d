package searchapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"pieza-web/internal/model"
)

// go-playground/validator/v10 checks listings against the struct tags in model.Listing.
var validate = validator.New()

// Rejection records a listing dropped from a response, with the reason.
type Rejection struct {
	Scope  string `json:"scope"`  // e.g. "listing:123" or "listing#4" when the id is missing
	Reason string `json:"reason"` // e.g. "seller_rating: lte"
}

// RejectionSink receives listings dropped by validation.
type RejectionSink interface {
	WriteRejection(ctx context.Context, query string, rej Rejection) error
}

// ValidateListing returns "" for a valid listing, or a short reason.
func ValidateListing(l model.Listing) string {
	err := validate.Struct(l)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		reasons = append(reasons, fmt.Sprintf("%s: %s", jsonName(fe.Field()), fe.Tag()))
	}
	return strings.Join(reasons, ", ")
}

// FilterListings keeps valid listings in order. A bad listing only drops itself;
// the rest of the response is still used.
func FilterListings(items []model.Listing) (valid []model.Listing, rejected []Rejection) {
	valid = make([]model.Listing, 0, len(items))
	for i, item := range items {
		if reason := ValidateListing(item); reason != "" {
			scope := fmt.Sprintf("listing#%d", i)
			if item.ItemID != "" {
				scope = "listing:" + item.ItemID
			}
			rejected = append(rejected, Rejection{Scope: scope, Reason: reason})
			continue
		}
		valid = append(valid, item)
	}
	return valid, rejected
}

var fieldNames = map[string]string{
	"ItemID":       "item_id",
	"Title":        "title",
	"Price":        "price",
	"Currency":     "currency",
	"ImageURL":     "image_url",
	"ItemURL":      "item_url",
	"ShippingCost": "shipping_cost",
	"SellerRating": "seller_rating",
}

func jsonName(field string) string {
	if n, ok := fieldNames[field]; ok {
		return n
	}
	return field
}

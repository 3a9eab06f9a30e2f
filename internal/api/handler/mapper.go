package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/skateshop/storefront/internal/core/domain"
)

// UploadsPrefix is the public path under which stored images are served.
const UploadsPrefix = "/uploads"

func toUserResponse(id int64, username, email string, role domain.Role) userResponse {
	return userResponse{ID: id, Username: username, Email: email, Role: string(role)}
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Quantity:    p.Stock,
		Price:       priceNumber(p.Price),
		Image:       imageURL(p.Image),
		AdminID:     p.AdminID,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}

func toCartLineResponses(lines []domain.CartLineView) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Title:       l.Title,
			Description: l.Description,
			Stock:       l.Stock,
			Price:       priceNumber(l.Price),
			Image:       imageURL(l.Image),
			CreatedAt:   l.CreatedAt,
		})
	}
	return out
}

// priceNumber renders a price with exactly two decimals as a JSON number.
func priceNumber(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(domain.PriceScale))
}

func imageURL(ref string) *string {
	if ref == "" {
		return nil
	}
	u := UploadsPrefix + "/" + ref
	return &u
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahq/duka-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients. Prices are kept in
// cents internally; the display amount is derived at the boundary.
type ProductDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Category     string    `json:"category"`
	Condition    string    `json:"condition"`
	PriceCents   int64     `json:"price_cents"`
	DisplayPrice string    `json:"display_price"`
	ImageURL     *string   `json:"image_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category" validate:"required,max=100"`
	Condition   string  `json:"condition" validate:"required,oneof=New Refurbished"`
	PriceCents  int64   `json:"price_cents" validate:"required,gt=0"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

func fromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Condition:    p.Condition,
		PriceCents:   p.PriceCents,
		DisplayPrice: decimal.NewFromInt(p.PriceCents).Shift(-2).StringFixed(2),
		ImageURL:     p.ImageURL,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

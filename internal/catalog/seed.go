package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/dukahq/duka-backend/pkg/db/models"
)

func strPtr(s string) *string { return &s }

// SeedProducts is the storefront's starter catalog. Prices are KSh in cents.
func SeedProducts() []models.Product {
	return []models.Product{
		{
			Name:        "MacBook Pro",
			Description: strPtr("Apple MacBook Pro, M2, 16GB RAM, 512GB SSD."),
			Category:    "Laptops",
			Condition:   models.ConditionNew,
			PriceCents:  20000000,
			ImageURL:    strPtr("https://images.duka.example/products/macbook-pro.jpg"),
			IsActive:    true,
		},
		{
			Name:        "iPhone 14 Pro",
			Description: strPtr("Apple iPhone 14 Pro, 256GB, Deep Purple."),
			Category:    "Phones",
			Condition:   models.ConditionNew,
			PriceCents:  15000000,
			ImageURL:    strPtr("https://images.duka.example/products/iphone-14-pro.jpg"),
			IsActive:    true,
		},
		{
			Name:        "Sony WH-1000XM5",
			Description: strPtr("Sony WH-1000XM5 wireless noise-cancelling headphones."),
			Category:    "Audio",
			Condition:   models.ConditionNew,
			PriceCents:  4500000,
			ImageURL:    strPtr("https://images.duka.example/products/sony-wh-1000xm5.jpg"),
			IsActive:    true,
		},
		{
			Name:        "Samsung Galaxy Tab S8",
			Description: strPtr("Samsung Galaxy Tab S8, 128GB, Wi-Fi, renewed."),
			Category:    "Tablets",
			Condition:   models.ConditionRefurbished,
			PriceCents:  9000000,
			ImageURL:    strPtr("https://images.duka.example/products/galaxy-tab-s8.jpg"),
			IsActive:    true,
		},
	}
}

// Seed inserts the starter catalog when the products table is empty. It is a
// no-op on a populated table so repeated runs stay safe.
func Seed(ctx context.Context, db *gorm.DB) (int, error) {
	repo := NewRepository(db)
	count, err := repo.CountAll(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	products := SeedProducts()
	for i := range products {
		if _, err := repo.Create(ctx, &products[i]); err != nil {
			return i, err
		}
	}
	return len(products), nil
}

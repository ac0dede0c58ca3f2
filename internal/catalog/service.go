package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukahq/duka-backend/pkg/db/models"
	pkgerrors "github.com/dukahq/duka-backend/pkg/errors"
	"github.com/dukahq/duka-backend/pkg/types"
)

// Service exposes the catalog to the storefront.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Snapshot(ctx context.Context, id uuid.UUID) (*types.CartLine, error)
}

type productRepository interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	products productRepository
}

// NewService constructs a catalog service with the provided repository.
func NewService(products productRepository) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{products: products}, nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *fromModel(&products[i]))
	}
	return dtos, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(product), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	condition := strings.TrimSpace(input.Condition)
	if condition != models.ConditionNew && condition != models.ConditionRefurbished {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product condition")
	}

	product, err := s.products.Create(ctx, &models.Product{
		Name:        name,
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		Condition:   condition,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return fromModel(product), nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.products.SetActive(ctx, id, active); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set product active")
	}
	return nil
}

// Snapshot copies the product's display fields into a cart line. The line
// keeps those values as they are right now; later catalog edits do not
// reach carts that already hold the product.
func (s *service) Snapshot(ctx context.Context, id uuid.UUID) (*types.CartLine, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	line := &types.CartLine{
		ProductID:      product.ID.String(),
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Condition:      product.Condition,
	}
	if product.ImageURL != nil {
		line.ImageURL = *product.ImageURL
	}
	return line, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	return product, nil
}

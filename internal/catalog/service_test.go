package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukahq/duka-backend/pkg/db/models"
	pkgerrors "github.com/dukahq/duka-backend/pkg/errors"
)

type fakeProductRepo struct {
	byID    map[uuid.UUID]*models.Product
	created []*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byID: map[uuid.UUID]*models.Product{}}
}

func (f *fakeProductRepo) add(p models.Product) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := p
	f.byID[p.ID] = &stored
	return p.ID
}

func (f *fakeProductRepo) ListActive(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.byID {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *p
	return &found, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	stored := *product
	f.byID[product.ID] = &stored
	f.created = append(f.created, &stored)
	return product, nil
}

func (f *fakeProductRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if p, ok := f.byID[id]; ok {
		p.IsActive = active
	}
	return nil
}

func TestServiceSnapshotCopiesDisplayFields(t *testing.T) {
	repo := newFakeProductRepo()
	image := "https://images.duka.example/products/macbook-pro.jpg"
	id := repo.add(models.Product{
		Name:       "MacBook Pro",
		Category:   "Laptops",
		Condition:  models.ConditionNew,
		PriceCents: 20000000,
		ImageURL:   &image,
		IsActive:   true,
	})
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	line, err := svc.Snapshot(context.Background(), id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if line.ProductID != id.String() {
		t.Fatalf("expected product id %s, got %s", id, line.ProductID)
	}
	if line.Name != "MacBook Pro" || line.UnitPriceCents != 20000000 {
		t.Fatalf("unexpected snapshot: %+v", line)
	}
	if line.ImageURL != image || line.Condition != models.ConditionNew {
		t.Fatalf("display fields not copied: %+v", line)
	}

	// A later price change must not reach the snapshot already taken.
	repo.byID[id].PriceCents = 1
	if line.UnitPriceCents != 20000000 {
		t.Fatal("snapshot tracked the live product")
	}
}

func TestServiceSnapshotInactiveProduct(t *testing.T) {
	repo := newFakeProductRepo()
	id := repo.add(models.Product{Name: "Old Stock", Category: "Misc", Condition: models.ConditionNew, PriceCents: 100, IsActive: false})
	svc, _ := NewService(repo)

	_, err := svc.Snapshot(context.Background(), id)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
}

func TestServiceGetByIDUnknown(t *testing.T) {
	svc, _ := NewService(newFakeProductRepo())

	_, err := svc.GetByID(context.Background(), uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCreateValidatesInput(t *testing.T) {
	svc, _ := NewService(newFakeProductRepo())
	ctx := context.Background()

	cases := []CreateProductInput{
		{Name: "", Category: "Phones", Condition: models.ConditionNew, PriceCents: 100},
		{Name: "Pixel 7", Category: "Phones", Condition: models.ConditionNew, PriceCents: 0},
		{Name: "Pixel 7", Category: "Phones", Condition: "Used", PriceCents: 100},
	}
	for i, input := range cases {
		_, err := svc.Create(ctx, input)
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestServiceCreateAndListRoundTrip(t *testing.T) {
	repo := newFakeProductRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateProductInput{
		Name:       "Sony WH-1000XM5",
		Category:   "Audio",
		Condition:  models.ConditionNew,
		PriceCents: 4500000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.DisplayPrice != "45000.00" {
		t.Fatalf("expected display price 45000.00, got %s", dto.DisplayPrice)
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != dto.ID {
		t.Fatalf("expected the created product, got %+v", listed)
	}

	if err := svc.SetActive(ctx, dto.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	listed, err = svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("deactivated product still listed: %+v", listed)
	}
}

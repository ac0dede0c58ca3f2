package cartstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dukahq/duka-backend/pkg/db/models"
	"github.com/dukahq/duka-backend/pkg/types"
)

// GormStore keeps cart records in the cart_records table, one row per
// identity with the lines serialized as JSONB.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Read(ctx context.Context, identityID string) (*CartRecord, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, fmt.Errorf("identity id is required")
	}

	var row models.CartRecord
	err := s.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart record: %w", err)
	}
	return &CartRecord{Lines: row.Lines}, nil
}

func (s *GormStore) Write(ctx context.Context, identityID string, record CartRecord) error {
	if strings.TrimSpace(identityID) == "" {
		return fmt.Errorf("identity id is required")
	}

	lines := record.Lines
	if lines == nil {
		lines = types.CartLines{}
	}
	row := models.CartRecord{IdentityID: identityID, Lines: lines}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"lines", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("write cart record: %w", err)
	}
	return nil
}

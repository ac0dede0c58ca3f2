package models

import (
	"time"

	"github.com/dukahq/duka-backend/pkg/types"
)

// CartRecord is the durable shadow of a signed-in user's cart. One row per
// identity; every write replaces the whole lines payload (last write wins).
type CartRecord struct {
	IdentityID string          `gorm:"column:identity_id;primaryKey"`
	Lines      types.CartLines `gorm:"column:lines;type:jsonb;serializer:json"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

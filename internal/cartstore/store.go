// Package cartstore persists per-user cart records. Every write replaces the
// whole record; the store never merges. Whatever write physically lands last
// is the durable cart (last write wins), which is the accepted consistency
// model for this client cart.
package cartstore

import (
	"context"

	"github.com/dukahq/duka-backend/pkg/types"
)

// CartRecord is the remote representation of a user's cart.
type CartRecord struct {
	Lines types.CartLines
}

// Store reads and upserts full cart records keyed by identity id.
//
// Read returns (nil, nil) when no record exists for the identity; callers
// treat that as an empty cart. Write replaces the stored record in full.
type Store interface {
	Read(ctx context.Context, identityID string) (*CartRecord, error)
	Write(ctx context.Context, identityID string, record CartRecord) error
}

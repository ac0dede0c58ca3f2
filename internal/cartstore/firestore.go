package cartstore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dukahq/duka-backend/pkg/types"
)

const defaultCartsCollection = "carts"

// cartDocument mirrors the storefront's original document layout:
// carts/{uid} holding an items array.
type cartDocument struct {
	Items types.CartLines `firestore:"items"`
}

// FirestoreStore keeps one cart document per identity.
type FirestoreStore struct {
	fs         *firestore.Client
	collection string
}

func NewFirestoreStore(fs *firestore.Client, collection string) (*FirestoreStore, error) {
	if fs == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCartsCollection
	}
	return &FirestoreStore{fs: fs, collection: collection}, nil
}

func (s *FirestoreStore) Read(ctx context.Context, identityID string) (*CartRecord, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, fmt.Errorf("identity id is required")
	}

	snap, err := s.fs.Collection(s.collection).Doc(identityID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart document: %w", err)
	}

	var doc cartDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode cart document: %w", err)
	}
	return &CartRecord{Lines: doc.Items}, nil
}

// Write replaces the document wholesale. No merge: the arriving payload is
// authoritative for that write.
func (s *FirestoreStore) Write(ctx context.Context, identityID string, record CartRecord) error {
	if strings.TrimSpace(identityID) == "" {
		return fmt.Errorf("identity id is required")
	}

	doc := cartDocument{Items: record.Lines}
	if doc.Items == nil {
		doc.Items = types.CartLines{}
	}
	if _, err := s.fs.Collection(s.collection).Doc(identityID).Set(ctx, doc); err != nil {
		return fmt.Errorf("write cart document: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string { return "sess:" + accessID }

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestGenerateAndHasSession(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	token, err := mgr.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty refresh token")
	}

	ok, err := mgr.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("has session failed: %v", err)
	}
	if !ok {
		t.Fatal("expected session to exist")
	}

	ok, err = mgr.HasSession(ctx, "access-unknown")
	if err != nil {
		t.Fatalf("has session failed: %v", err)
	}
	if ok {
		t.Fatal("did not expect unknown session")
	}
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	token, err := mgr.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	newID, newToken, err := mgr.Rotate(ctx, "access-1", token)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if newID == "access-1" || newToken == token {
		t.Fatal("expected fresh access id and token")
	}

	ok, _ := mgr.HasSession(ctx, "access-1")
	if ok {
		t.Fatal("old session should be revoked")
	}
	ok, _ = mgr.HasSession(ctx, newID)
	if !ok {
		t.Fatal("new session should exist")
	}
}

func TestRotateRejectsWrongToken(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	if _, err := mgr.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, _, err := mgr.Rotate(ctx, "access-1", "bogus"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	if _, err := mgr.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := mgr.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	ok, _ := mgr.HasSession(ctx, "access-1")
	if ok {
		t.Fatal("session should be gone after revoke")
	}
}

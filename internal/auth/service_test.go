package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukahq/duka-backend/internal/identity"
	"github.com/dukahq/duka-backend/internal/users"
	pkgAuth "github.com/dukahq/duka-backend/pkg/auth"
	"github.com/dukahq/duka-backend/pkg/config"
	"github.com/dukahq/duka-backend/pkg/db/models"
	pkgerrors "github.com/dukahq/duka-backend/pkg/errors"
	"github.com/dukahq/duka-backend/pkg/security"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	created []*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		DisplayName:  dto.DisplayName,
	}
	f.byEmail[user.Email] = user
	f.created = append(f.created, user)
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type fakeSessionManager struct {
	revoked []string
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return "refresh-" + accessID, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

type recordingHub struct {
	events []identity.Event
}

func (r *recordingHub) Publish(evt identity.Event) {
	r.events = append(r.events, evt)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "duka", ExpirationMinutes: 30}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildTestService(t *testing.T, repo *fakeUserRepo) (Service, *recordingHub, *fakeSessionManager) {
	t.Helper()
	hub := &recordingHub{}
	sessions := &fakeSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		IdentityHub:    hub,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, hub, sessions
}

func TestServiceLoginIssuesTokensAndPublishesIdentity(t *testing.T) {
	password := "shopper-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	repo := &fakeUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, hub, _ := buildTestService(t, repo)

	resp, err := svc.Login(context.Background(), "sess-1", LoginRequest{
		Email:    "Shopper@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token to be set")
	}

	if len(hub.events) != 1 {
		t.Fatalf("expected one identity event, got %d", len(hub.events))
	}
	evt := hub.events[0]
	if evt.SessionID != "sess-1" {
		t.Fatalf("expected event for sess-1, got %q", evt.SessionID)
	}
	if evt.Identity == nil || evt.Identity.ID != user.ID.String() {
		t.Fatalf("expected the signed-in identity, got %+v", evt.Identity)
	}
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
	}
	repo := &fakeUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, hub, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), "sess-1", LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(hub.events) != 0 {
		t.Fatalf("failed login must not publish identity events, got %d", len(hub.events))
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc, _, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), "sess-1", LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceRegisterCreatesUserAndSignsIn(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc, hub, _ := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), "sess-1", RegisterRequest{
		Email:    "New@Example.com",
		Password: "brand-new-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(repo.created))
	}
	if repo.created[0].Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %q", repo.created[0].Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected tokens after registration")
	}

	ok, err := security.VerifyPassword("brand-new-pass", repo.created[0].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}

	if len(hub.events) != 1 || hub.events[0].Identity == nil {
		t.Fatalf("expected a sign-in identity event, got %+v", hub.events)
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "taken@example.com", PasswordHash: "x"}
	repo := &fakeUserRepo{byEmail: map[string]*models.User{existing.Email: existing}}
	svc, _, _ := buildTestService(t, repo)

	_, err := svc.Register(context.Background(), "sess-1", RegisterRequest{
		Email:    "taken@example.com",
		Password: "whatever-else",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceLogoutRevokesAndPublishesGuest(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc, hub, sessions := buildTestService(t, repo)

	if err := svc.Logout(context.Background(), "sess-1", "access-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-1" {
		t.Fatalf("expected access-1 to be revoked, got %v", sessions.revoked)
	}
	if len(hub.events) != 1 {
		t.Fatalf("expected one identity event, got %d", len(hub.events))
	}
	if hub.events[0].Identity != nil {
		t.Fatalf("expected a guest event, got %+v", hub.events[0].Identity)
	}
}

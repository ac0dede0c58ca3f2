package identity

import (
	"context"
	"fmt"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	pkgerrors "github.com/dukahq/duka-backend/pkg/errors"
)

type firebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseVerifier resolves bearer ID tokens against Firebase Auth for
// deployments that keep the storefront's original identity provider.
type FirebaseVerifier struct {
	client firebaseTokenVerifier
}

func NewFirebaseVerifier(client *firebaseauth.Client) (*FirebaseVerifier, error) {
	if client == nil {
		return nil, fmt.Errorf("firebase auth client is required")
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify validates the ID token and returns the identity it asserts.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid uid in token")
	}

	ident := &Identity{ID: uid}
	if emailRaw, ok := token.Claims["email"]; ok {
		if emailStr, ok := emailRaw.(string); ok {
			ident.Email = strings.TrimSpace(emailStr)
		}
	}
	return ident, nil
}

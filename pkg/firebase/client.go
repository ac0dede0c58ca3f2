package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/dukahq/duka-backend/pkg/config"
	"github.com/dukahq/duka-backend/pkg/logger"
)

// Clients bundles the Firebase app, its auth client, and a Firestore handle.
type Clients struct {
	App       *firebase.App
	Auth      *firebaseauth.Client
	Firestore *firestore.Client
}

// New bootstraps the Firebase SDK and a Firestore client for the configured
// project. Credentials fall back to application-default when no inline JSON
// is provided.
func New(ctx context.Context, cfg config.FirebaseConfig, logg *logger.Logger) (*Clients, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gcp project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	fs, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firestore: %w", err)
	}

	if logg != nil {
		ctx = logg.WithField(ctx, "project_id", cfg.ProjectID)
		logg.Info(ctx, "firebase clients initialized")
	}

	return &Clients{App: app, Auth: authClient, Firestore: fs}, nil
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

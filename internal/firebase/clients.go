package firebase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"client-upload/backend/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fbstorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"
)

// Clients bundles the platform handle and everything derived from it.
// It is built once by the composition root and shared read-only.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Storage   *fbstorage.Client
	Auth      *auth.Client
	Functions *Functions
	Phone     *PhoneAuth

	ProjectID string
	Bucket    string
}

// Platform constructs the SDK handles. SDK is the real implementation.
type Platform interface {
	NewApp(ctx context.Context, conf *firebase.Config, opts ...option.ClientOption) (*firebase.App, error)
	Firestore(ctx context.Context, app *firebase.App) (*firestore.Client, error)
	Storage(ctx context.Context, app *firebase.App) (*fbstorage.Client, error)
	Auth(ctx context.Context, app *firebase.App) (*auth.Client, error)
	PhoneAuth(ctx context.Context, apiKey string) (*PhoneAuth, error)
}

type SDK struct{}

func (SDK) NewApp(ctx context.Context, conf *firebase.Config, opts ...option.ClientOption) (*firebase.App, error) {
	return firebase.NewApp(ctx, conf, opts...)
}

func (SDK) Firestore(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	return app.Firestore(ctx)
}

func (SDK) Storage(ctx context.Context, app *firebase.App) (*fbstorage.Client, error) {
	return app.Storage(ctx)
}

func (SDK) Auth(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	return app.Auth(ctx)
}

func (SDK) PhoneAuth(ctx context.Context, apiKey string) (*PhoneAuth, error) {
	return NewPhoneAuth(ctx, apiKey)
}

// NewClients builds the platform handle exactly once and derives the
// sub-clients from it. Config values are passed through as-is; a bad value
// surfaces as whatever error the SDK returns.
func NewClients(ctx context.Context, cfg config.Config, p Platform) (*Clients, error) {
	if p == nil {
		p = SDK{}
	}

	app, err := p.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.Platform.ProjectID,
		StorageBucket: cfg.Platform.StorageBucket,
	}, credentialOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	fs, err := p.Firestore(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}

	st, err := p.Storage(ctx, app)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	authClient, err := p.Auth(ctx, app)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	phone, err := p.PhoneAuth(ctx, cfg.Platform.APIKey)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("phone auth: %w", err)
	}

	fn := NewFunctions(FunctionsConfig{
		ProjectID:      cfg.Platform.ProjectID,
		Region:         cfg.FunctionsRegion,
		EmulatorOrigin: cfg.FunctionsEmulatorOrigin,
	}, &http.Client{Timeout: 60 * time.Second})

	return &Clients{
		App:       app,
		Firestore: fs,
		Storage:   st,
		Auth:      authClient,
		Functions: fn,
		Phone:     phone,
		ProjectID: cfg.Platform.ProjectID,
		Bucket:    cfg.Platform.StorageBucket,
	}, nil
}

func (c *Clients) Close() {
	if c == nil || c.Firestore == nil {
		return
	}
	_ = c.Firestore.Close()
}

// credentialOptions prefers a service account file, then raw JSON. With
// neither set the SDK falls back to Application Default Credentials.
func credentialOptions(cfg config.Config) []option.ClientOption {
	switch {
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	case cfg.ServiceAccountJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	}
	return nil
}

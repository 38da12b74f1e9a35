package firebase

import (
	"context"
	"errors"
	"testing"

	"client-upload/backend/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fbstorage "firebase.google.com/go/v4/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakePlatform struct {
	app *firebase.App

	appCalls  int
	gotConf   *firebase.Config
	gotOpts   int
	derivedBy []*firebase.App
	apiKey    string

	appErr       error
	firestoreErr error
}

func (f *fakePlatform) NewApp(_ context.Context, conf *firebase.Config, opts ...option.ClientOption) (*firebase.App, error) {
	f.appCalls++
	f.gotConf = conf
	f.gotOpts = len(opts)
	if f.appErr != nil {
		return nil, f.appErr
	}
	f.app = new(firebase.App)
	return f.app, nil
}

func (f *fakePlatform) Firestore(_ context.Context, app *firebase.App) (*firestore.Client, error) {
	f.derivedBy = append(f.derivedBy, app)
	if f.firestoreErr != nil {
		return nil, f.firestoreErr
	}
	return new(firestore.Client), nil
}

func (f *fakePlatform) Storage(_ context.Context, app *firebase.App) (*fbstorage.Client, error) {
	f.derivedBy = append(f.derivedBy, app)
	return new(fbstorage.Client), nil
}

func (f *fakePlatform) Auth(_ context.Context, app *firebase.App) (*auth.Client, error) {
	f.derivedBy = append(f.derivedBy, app)
	return new(auth.Client), nil
}

func (f *fakePlatform) PhoneAuth(_ context.Context, apiKey string) (*PhoneAuth, error) {
	f.apiKey = apiKey
	return &PhoneAuth{}, nil
}

func testConfig() config.Config {
	return config.Config{
		Platform: config.Platform{
			APIKey:            "key-123",
			AuthDomain:        "demo-project.firebaseapp.com",
			ProjectID:         "demo-project",
			StorageBucket:     "demo-project.appspot.com",
			MessagingSenderID: "1234567890",
			AppID:             "1:1234567890:web:abc",
		},
		FunctionsRegion: "europe-west1",
	}
}

func TestNewClientsBuildsOneAppAndDerivesFromIt(t *testing.T) {
	fp := &fakePlatform{}

	c, err := NewClients(context.Background(), testConfig(), fp)
	require.NoError(t, err)

	assert.Equal(t, 1, fp.appCalls)
	assert.Equal(t, "demo-project", fp.gotConf.ProjectID)
	assert.Equal(t, "demo-project.appspot.com", fp.gotConf.StorageBucket)
	assert.Equal(t, "key-123", fp.apiKey)

	require.Len(t, fp.derivedBy, 3)
	for _, app := range fp.derivedBy {
		assert.Same(t, fp.app, app)
	}

	assert.Same(t, fp.app, c.App)
	assert.NotNil(t, c.Firestore)
	assert.NotNil(t, c.Storage)
	assert.NotNil(t, c.Auth)
	assert.NotNil(t, c.Phone)
	require.NotNil(t, c.Functions)
	assert.Equal(t, "https://europe-west1-demo-project.cloudfunctions.net/processUpload", c.Functions.URL("processUpload"))
	assert.Equal(t, "demo-project", c.ProjectID)
	assert.Equal(t, "demo-project.appspot.com", c.Bucket)
}

func TestNewClientsPassesEmptyConfigThrough(t *testing.T) {
	fp := &fakePlatform{}
	cfg := testConfig()
	cfg.Platform.ProjectID = ""
	cfg.Platform.APIKey = ""

	_, err := NewClients(context.Background(), cfg, fp)
	require.NoError(t, err)

	assert.Equal(t, 1, fp.appCalls)
	assert.Equal(t, "", fp.gotConf.ProjectID)
	assert.Equal(t, "", fp.apiKey)
}

func TestNewClientsCredentialOptions(t *testing.T) {
	fp := &fakePlatform{}
	cfg := testConfig()
	cfg.ServiceAccountJSON = `{"type":"service_account"}`

	_, err := NewClients(context.Background(), cfg, fp)
	require.NoError(t, err)
	assert.Equal(t, 1, fp.gotOpts)

	fp = &fakePlatform{}
	_, err = NewClients(context.Background(), testConfig(), fp)
	require.NoError(t, err)
	assert.Equal(t, 0, fp.gotOpts)
}

func TestNewClientsSurfacesSDKErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewClients(context.Background(), testConfig(), &fakePlatform{appErr: boom})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "firebase app")

	fp := &fakePlatform{firestoreErr: boom}
	_, err = NewClients(context.Background(), testConfig(), fp)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "firestore")
	assert.Equal(t, 1, fp.appCalls)
}

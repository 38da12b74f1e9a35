package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"client-upload/backend/internal/config"
	"client-upload/backend/internal/domain/user"
	"client-upload/backend/internal/firebase"
	"client-upload/backend/internal/nav"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifier struct{}

func (verifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "uid-1", Claims: map[string]any{"phone_number": "+15555550100"}}, nil
}

type phone struct{}

func (phone) SendCode(context.Context, string, string) (string, error) { return "sess", nil }

func (phone) Verify(context.Context, string, string) (*firebase.PhoneSession, error) {
	return &firebase.PhoneSession{IDToken: "good"}, nil
}

type profiles struct{}

func (profiles) Get(_ context.Context, uid string) (*user.Profile, error) {
	if uid != "uid-1" {
		return nil, user.ErrNotFound
	}
	return &user.Profile{UID: uid, PhoneNumber: "+15555550100"}, nil
}

func (profiles) RecordSignIn(context.Context, string, string, bool) error { return nil }

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	navRouter, err := nav.NewRouter(nav.WebHistory(""), nav.Routes(), nav.PageOptions{}, nil)
	require.NoError(t, err)
	return NewRouter(RouterDeps{
		Cfg:      config.Config{AllowedOrigins: []string{"https://app.example"}},
		Verifier: verifier{},
		Phone:    phone{},
		Profiles: profiles{},
		Nav:      navRouter,
	})
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(newTestHandler(t), "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestClientUploadPageIsServed(t *testing.T) {
	rec := get(newTestHandler(t), "/client-upload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), `data-route="ClientUpload"`)
}

func TestUnknownPathIsJSON404(t *testing.T) {
	rec := get(newTestHandler(t), "/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"not found"`)
}

func TestMeRequiresAuth(t *testing.T) {
	h := newTestHandler(t)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/v1/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/v1/me", "bad").Code)

	rec := get(h, "/v1/me", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "uid-1", body["uid"])
	assert.Equal(t, "+15555550100", body["phoneNumber"])
	require.Contains(t, body, "profile")
	assert.Equal(t, "uid-1", body["profile"].(map[string]any)["uid"])
}

func TestPhoneRoutesArePublic(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/phone/start", strings.NewReader(`{"phoneNumber":"+15555550100"}`))
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessionInfo":"sess"`)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/uploads", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

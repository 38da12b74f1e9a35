package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"client-upload/backend/internal/domain/upload"
	"client-upload/backend/internal/middleware"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRecorder struct{ items []upload.Upload }

func (m *memRecorder) Create(_ context.Context, u upload.Upload) error {
	m.items = append(m.items, u)
	return nil
}

func (m *memRecorder) ListByOwner(_ context.Context, uid string, limit int) ([]upload.Upload, error) {
	out := []upload.Upload{}
	for _, u := range m.items {
		if u.OwnerUID == uid && len(out) < limit {
			out = append(out, u)
		}
	}
	return out, nil
}

type memBucket struct {
	objects map[string][]byte
	signErr error
}

func (b *memBucket) Put(_ context.Context, object, _ string, r io.Reader, maxBytes int64) (int64, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return int64(len(data)), err
	}
	if int64(len(data)) > maxBytes {
		return int64(len(data)), upload.ErrTooLarge
	}
	b.objects[object] = data
	return int64(len(data)), nil
}

func (b *memBucket) Delete(_ context.Context, object string) error {
	delete(b.objects, object)
	return nil
}

func (b *memBucket) SignedPutURL(_ context.Context, object, _ string, _ time.Time) (string, error) {
	if b.signErr != nil {
		return "", b.signErr
	}
	return "https://signed.example/" + object, nil
}

type tokens struct{}

func (tokens) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	return &auth.Token{UID: strings.TrimPrefix(idToken, "tok-"), Claims: map[string]any{}}, nil
}

func newUploadsMux(t *testing.T, maxBytes int64, b *memBucket) (*chi.Mux, *memRecorder) {
	t.Helper()
	rec := &memRecorder{}
	if b == nil {
		b = &memBucket{objects: map[string][]byte{}}
	}
	h := NewUploads(upload.NewService(rec, b, nil, maxBytes, nil), zap.NewNop())

	r := chi.NewRouter()
	r.Use(middleware.WithAuth(tokens{}))
	r.Post("/v1/uploads/signed-url", h.CreateSignedURL)
	r.Post("/v1/uploads", h.Create)
	r.Get("/v1/uploads", h.List)
	return r, rec
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer tok-uid-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestUploadCreate(t *testing.T) {
	mux, store := newUploadsMux(t, 1024, nil)

	body, ct := multipartBody(t, "file", "scan.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec := do(mux, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out upload.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "uid-1", out.OwnerUID)
	assert.Equal(t, "scan.png", out.FileName)
	assert.Equal(t, int64(9), out.Size)
	assert.Equal(t, upload.StatusStored, out.Status)
	require.Len(t, store.items, 1)
}

func TestUploadCreateErrors(t *testing.T) {
	mux, _ := newUploadsMux(t, 4, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(mux, req).Code)

	body, ct := multipartBody(t, "other", "a.txt", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, do(mux, req).Code)

	body, ct = multipartBody(t, "file", "big.bin", []byte("too large"))
	req = httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(mux, req).Code)
}

func TestUploadSignedURL(t *testing.T) {
	mux, store := newUploadsMux(t, 1024, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/signed-url", strings.NewReader(`{"fileName":"a.pdf","contentType":"application/pdf"}`))
	rec := do(mux, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out upload.SignedURL
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "PUT", out.Method)
	assert.True(t, strings.HasPrefix(out.URL, "https://signed.example/client-uploads/uid-1/"))
	require.Len(t, store.items, 1)
	assert.Equal(t, upload.StatusPending, store.items[0].Status)
}

func TestUploadSignedURLErrors(t *testing.T) {
	mux, _ := newUploadsMux(t, 1024, nil)

	rec := do(mux, httptest.NewRequest(http.MethodPost, "/v1/uploads/signed-url", strings.NewReader(`{"fileName":"a","unknown":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, httptest.NewRequest(http.MethodPost, "/v1/uploads/signed-url", strings.NewReader(`{"fileName":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mux, _ = newUploadsMux(t, 1024, &memBucket{objects: map[string][]byte{}, signErr: upload.ErrNotConfigured})
	rec = do(mux, httptest.NewRequest(http.MethodPost, "/v1/uploads/signed-url", strings.NewReader(`{"fileName":"a"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadList(t *testing.T) {
	mux, store := newUploadsMux(t, 1024, nil)
	store.items = []upload.Upload{
		{ID: "1", OwnerUID: "uid-1", FileName: "a"},
		{ID: "2", OwnerUID: "someone-else", FileName: "b"},
	}

	rec := do(mux, httptest.NewRequest(http.MethodGet, "/v1/uploads?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Items []upload.Upload `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "1", out.Items[0].ID)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/v1/uploads?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

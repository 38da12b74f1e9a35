package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"client-upload/backend/internal/domain/upload"
	"client-upload/backend/internal/httpjson"
	"client-upload/backend/internal/middleware"

	"go.uber.org/zap"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

type Uploads struct {
	svc *upload.Service
	log *zap.Logger
}

func NewUploads(svc *upload.Service, log *zap.Logger) *Uploads {
	return &Uploads{svc: svc, log: log.Named("uploads")}
}

func (h *Uploads) CreateSignedURL(w http.ResponseWriter, r *http.Request) {
	au, _ := middleware.GetAuthUser(r.Context())

	var in upload.SignedURLInput
	if err := httpjson.Read(r, &in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.svc.CreateSignedURL(r.Context(), uid(au), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, out)
}

// Create accepts a multipart form with a "file" part and streams it to
// storage without buffering the whole file.
func (h *Uploads) Create(w http.ResponseWriter, r *http.Request) {
	au, _ := middleware.GetAuthUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxBytes()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}

	part, err := filePart(mr)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer part.Close()

	idToken := ""
	if au != nil {
		idToken = au.IDToken
	}
	out, err := h.svc.Store(r.Context(), uid(au), idToken, upload.StoreInput{
		FileName:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
	}, part)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, out)
}

func (h *Uploads) List(w http.ResponseWriter, r *http.Request) {
	au, _ := middleware.GetAuthUser(r.Context())

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}
	items, err := h.svc.List(r.Context(), uid(au), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Uploads) fail(w http.ResponseWriter, err error) {
	status, msg := mapUploadError(err)
	if status >= 500 {
		h.log.Error("upload request failed", zap.Error(err))
	}
	httpjson.Error(w, status, msg)
}

func filePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: file part is required", upload.ErrBadRequest)
		}
		if err != nil {
			return nil, err
		}
		if p.FormName() == "file" {
			return p, nil
		}
		_ = p.Close()
	}
}

func mapUploadError(err error) (int, string) {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe), upload.IsErrTooLarge(err):
		return http.StatusRequestEntityTooLarge, upload.ErrTooLarge.Error()
	case upload.IsErrUnauthorized(err):
		return http.StatusUnauthorized, err.Error()
	case upload.IsErrBadRequest(err):
		return http.StatusBadRequest, err.Error()
	case upload.IsErrNotConfigured(err):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func uid(au *middleware.AuthUser) string {
	if au == nil {
		return ""
	}
	return au.UID
}

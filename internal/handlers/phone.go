package handlers

import (
	"context"
	"errors"
	"net/http"

	"client-upload/backend/internal/domain/user"
	"client-upload/backend/internal/firebase"
	"client-upload/backend/internal/httpjson"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// PhoneSignIn is satisfied by *firebase.PhoneAuth.
type PhoneSignIn interface {
	SendCode(ctx context.Context, phoneNumber, recaptchaToken string) (string, error)
	Verify(ctx context.Context, sessionInfo, code string) (*firebase.PhoneSession, error)
}

// Profiles is satisfied by *user.Repo.
type Profiles interface {
	Get(ctx context.Context, uid string) (*user.Profile, error)
	RecordSignIn(ctx context.Context, uid, phoneNumber string, isNew bool) error
}

type Phone struct {
	auth     PhoneSignIn
	profiles Profiles
	log      *zap.Logger
}

// NewPhone serves the sign-in endpoints. profiles may be nil.
func NewPhone(auth PhoneSignIn, profiles Profiles, log *zap.Logger) *Phone {
	return &Phone{auth: auth, profiles: profiles, log: log.Named("phone")}
}

type phoneStartReq struct {
	PhoneNumber    string `json:"phoneNumber"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type phoneVerifyReq struct {
	SessionInfo string `json:"sessionInfo"`
	Code        string `json:"code"`
}

func (h *Phone) Start(w http.ResponseWriter, r *http.Request) {
	var req phoneStartReq
	if err := httpjson.Read(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	session, err := h.auth.SendCode(r.Context(), req.PhoneNumber, req.RecaptchaToken)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"sessionInfo": session})
}

func (h *Phone) Verify(w http.ResponseWriter, r *http.Request) {
	var req phoneVerifyReq
	if err := httpjson.Read(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	s, err := h.auth.Verify(r.Context(), req.SessionInfo, req.Code)
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.profiles != nil {
		if err := h.profiles.RecordSignIn(r.Context(), s.UID, s.PhoneNumber, s.IsNewUser); err != nil {
			h.log.Warn("profile update failed", zap.String("uid", s.UID), zap.Error(err))
		}
	}
	httpjson.Write(w, http.StatusOK, s)
}

func (h *Phone) fail(w http.ResponseWriter, err error) {
	status, msg := mapPhoneError(err)
	if status >= 500 {
		h.log.Error("phone sign-in failed", zap.Error(err))
	}
	httpjson.Error(w, status, msg)
}

// Identity Toolkit reports bad codes, expired sessions and captcha failures
// as 4xx; those are passed back to the caller with the upstream message.
func mapPhoneError(err error) (int, string) {
	if errors.Is(err, firebase.ErrInvalidPhoneNumber) || errors.Is(err, firebase.ErrMissingSession) {
		return http.StatusBadRequest, err.Error()
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 {
		return http.StatusBadRequest, gerr.Message
	}
	return http.StatusBadGateway, "phone sign-in unavailable"
}

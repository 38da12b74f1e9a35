package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"client-upload/backend/internal/httpjson"
)

type ctxKey string

const authUserKey ctxKey = "authUser"

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthUser struct {
	UID         string
	Email       string
	PhoneNumber string
	Claims      map[string]any
	// IDToken is the raw bearer token, kept so downstream calls can act as
	// the user.
	IDToken string
}

func WithAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
				httpjson.Error(w, http.StatusUnauthorized, "missing Authorization: Bearer <token>")
				return
			}
			idToken := strings.TrimSpace(h[len("Bearer "):])
			if idToken == "" {
				httpjson.Error(w, http.StatusUnauthorized, "missing Authorization: Bearer <token>")
				return
			}

			tok, err := v.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			au := &AuthUser{
				UID:     tok.UID,
				Claims:  tok.Claims,
				IDToken: idToken,
			}
			if v, ok := tok.Claims["email"].(string); ok {
				au.Email = v
			}
			if v, ok := tok.Claims["phone_number"].(string); ok {
				au.PhoneNumber = v
			}

			ctx := context.WithValue(r.Context(), authUserKey, au)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAuthUser(ctx context.Context) (*AuthUser, bool) {
	au, ok := ctx.Value(authUserKey).(*AuthUser)
	return au, ok && au != nil
}

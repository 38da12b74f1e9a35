package http

import (
	"errors"
	"net/http"
	"time"

	"client-upload/backend/internal/config"
	"client-upload/backend/internal/domain/user"
	"client-upload/backend/internal/handlers"
	"client-upload/backend/internal/middleware"
	"client-upload/backend/internal/nav"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Cfg      config.Config
	Log      *zap.Logger
	Verifier middleware.TokenVerifier
	Phone    handlers.PhoneSignIn
	Profiles handlers.Profiles
	Uploads  *handlers.Uploads
	Nav      *nav.Router
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log.Named("http")))
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// pages from the navigation table
	if d.Nav != nil {
		d.Nav.Mount(r)
	}

	// ===== Phone sign-in (no auth: this is how a token is obtained) =====
	if d.Phone != nil {
		phone := handlers.NewPhone(d.Phone, d.Profiles, log)
		r.Post("/v1/auth/phone/start", phone.Start)
		r.Post("/v1/auth/phone/verify", phone.Verify)
	}

	// Protected routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Verifier))

		pr.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out := map[string]any{
				"uid":         au.UID,
				"email":       au.Email,
				"phoneNumber": au.PhoneNumber,
				"claims":      au.Claims,
			}
			if d.Profiles != nil {
				p, err := d.Profiles.Get(r.Context(), au.UID)
				switch {
				case err == nil:
					out["profile"] = p
				case !errors.Is(err, user.ErrNotFound):
					log.Warn("profile lookup failed", zap.String("uid", au.UID), zap.Error(err))
				}
			}
			WriteJSON(w, 200, out)
		})

		if d.Uploads != nil {
			pr.Post("/v1/uploads/signed-url", d.Uploads.CreateSignedURL)
			pr.Post("/v1/uploads", d.Uploads.Create)
			pr.Get("/v1/uploads", d.Uploads.List)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		Fail(w, http.StatusNotFound, "not found")
	})

	return r
}

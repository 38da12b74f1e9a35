package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func CORS(allowedOrigins []string, log *zap.Logger) func(http.Handler) http.Handler {
	// empty allows everything (local dev)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	log.Info("cors configured", zap.Strings("allowedOrigins", allowedOrigins))

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

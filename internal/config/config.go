package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Platform is the browser-facing Firebase configuration record. Field names
// follow the Firebase web config; the env var names are kept from the
// frontend build so the same .env file serves both.
type Platform struct {
	APIKey            string `json:"apiKey" env:"VUE_APP_API_KEY" validate:"required"`
	AuthDomain        string `json:"authDomain" env:"VUE_APP_AUTH_DOMAIN" validate:"required"`
	ProjectID         string `json:"projectId" env:"VUE_APP_PROJECT_ID" validate:"required"`
	StorageBucket     string `json:"storageBucket" env:"VUE_APP_STORAGE_BUCKET" validate:"required"`
	MessagingSenderID string `json:"messagingSenderId" env:"VUE_APP_MESSAGING_SENDER_ID" validate:"required"`
	AppID             string `json:"appId" env:"VUE_APP_APP_ID" validate:"required"`
}

type Config struct {
	Platform Platform

	Port                         string
	AllowedOrigins               []string
	SignedURLServiceAccountEmail string
	CredentialsFile              string
	ServiceAccountJSON           string
	FunctionsRegion              string
	FunctionsEmulatorOrigin      string
	ProcessUploadFunction        string
	RecaptchaSiteKey             string
	MaxUploadBytes               int64
	LogLevel                     string
	LogFormat                    string
}

// PlatformEnv lists the env vars backing Platform, in field order.
var PlatformEnv = []string{
	"VUE_APP_API_KEY",
	"VUE_APP_AUTH_DOMAIN",
	"VUE_APP_PROJECT_ID",
	"VUE_APP_STORAGE_BUCKET",
	"VUE_APP_MESSAGING_SENDER_ID",
	"VUE_APP_APP_ID",
}

const (
	DefaultPort            = "8080"
	DefaultFunctionsRegion = "us-central1"
	DefaultMaxUploadBytes  = 25 << 20
)

var ErrMissing = errors.New("missing required configuration")

// Load reads configuration from the environment. Missing platform keys are
// not an error here; they come through as empty strings and Validate is the
// place that rejects them.
func Load() Config {
	v := viper.New()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:8080")
	v.SetDefault("FUNCTIONS_REGION", DefaultFunctionsRegion)
	v.SetDefault("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	keys := append([]string{
		"PORT",
		"ALLOWED_ORIGINS",
		"SIGNED_URL_SERVICE_ACCOUNT_EMAIL",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_JSON",
		"FUNCTIONS_REGION",
		"FUNCTIONS_EMULATOR_ORIGIN",
		"PROCESS_UPLOAD_FUNCTION",
		"RECAPTCHA_SITE_KEY",
		"MAX_UPLOAD_BYTES",
		"LOG_LEVEL",
		"LOG_FORMAT",
	}, PlatformEnv...)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	return Config{
		Platform: Platform{
			APIKey:            v.GetString("VUE_APP_API_KEY"),
			AuthDomain:        v.GetString("VUE_APP_AUTH_DOMAIN"),
			ProjectID:         v.GetString("VUE_APP_PROJECT_ID"),
			StorageBucket:     v.GetString("VUE_APP_STORAGE_BUCKET"),
			MessagingSenderID: v.GetString("VUE_APP_MESSAGING_SENDER_ID"),
			AppID:             v.GetString("VUE_APP_APP_ID"),
		},
		Port:                         v.GetString("PORT"),
		AllowedOrigins:               splitList(v.GetString("ALLOWED_ORIGINS")),
		SignedURLServiceAccountEmail: v.GetString("SIGNED_URL_SERVICE_ACCOUNT_EMAIL"),
		CredentialsFile:              v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		ServiceAccountJSON:           v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
		FunctionsRegion:              v.GetString("FUNCTIONS_REGION"),
		FunctionsEmulatorOrigin:      strings.TrimRight(v.GetString("FUNCTIONS_EMULATOR_ORIGIN"), "/"),
		ProcessUploadFunction:        v.GetString("PROCESS_UPLOAD_FUNCTION"),
		RecaptchaSiteKey:             v.GetString("RECAPTCHA_SITE_KEY"),
		MaxUploadBytes:               maxUpload,
		LogLevel:                     v.GetString("LOG_LEVEL"),
		LogFormat:                    v.GetString("LOG_FORMAT"),
	}
}

// Validate fails if any platform key is empty. The error names every
// missing env var, not just the first.
func (c Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	err := validate.Struct(c.Platform)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
}

func splitList(s string) []string {
	out := []string{}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

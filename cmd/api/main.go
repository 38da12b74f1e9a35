package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"client-upload/backend/internal/config"
	"client-upload/backend/internal/domain/upload"
	"client-upload/backend/internal/domain/user"
	"client-upload/backend/internal/firebase"
	"client-upload/backend/internal/handlers"
	apihttp "client-upload/backend/internal/http"
	"client-upload/backend/internal/logging"
	"client-upload/backend/internal/nav"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:          "client-upload",
		Short:        "Client upload API and pages",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, routesCmd())
	return root
}

func serveCmd() *cobra.Command {
	var skipValidate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), skipValidate)
		},
	}
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false,
		"pass missing VUE_APP_* values through to the SDK instead of failing at startup")
	return cmd
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the navigation table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := nav.NewRouter(nav.WebHistory(""), nav.Routes(), nav.PageOptions{}, nil)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tNAME\tURL")
			for _, rt := range r.Routes() {
				href, _ := r.Href(rt.Name)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rt.Path, rt.Name, href)
			}
			return tw.Flush()
		},
	}
}

func serve(ctx context.Context, skipValidate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		if !skipValidate {
			log.Error("invalid configuration", zap.Error(err))
			return err
		}
		log.Warn("continuing with incomplete configuration", zap.Error(err))
	}

	clients, err := firebase.NewClients(ctx, cfg, firebase.SDK{})
	if err != nil {
		log.Error("firebase init failed", zap.Error(err))
		return err
	}
	defer clients.Close()

	bucket, err := upload.NewGCSBucket(ctx, clients.Storage, clients.Bucket, cfg.SignedURLServiceAccountEmail)
	if err != nil {
		log.Error("storage bucket init failed", zap.Error(err))
		return err
	}
	defer bucket.Close()

	var notifier upload.Notifier
	if cfg.ProcessUploadFunction != "" {
		notifier = upload.NewFunctionNotifier(clients.Functions, cfg.ProcessUploadFunction, clients.Bucket)
		log.Info("upload notifications enabled", zap.String("function", cfg.ProcessUploadFunction))
	}
	uploadSvc := upload.NewService(upload.NewRepo(clients.Firestore), bucket, notifier, cfg.MaxUploadBytes, log)

	navRouter, err := nav.NewRouter(nav.WebHistory(""), nav.Routes(), nav.PageOptions{
		Firebase:         cfg.Platform,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		RecaptchaSiteKey: recaptchaSiteKey(ctx, cfg, clients.Phone, log),
	}, log)
	if err != nil {
		return err
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:      cfg,
		Log:      log,
		Verifier: clients.Auth,
		Phone:    clients.Phone,
		Profiles: user.NewRepo(clients.Firestore),
		Uploads:  handlers.NewUploads(uploadSvc, log),
		Nav:      navRouter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API listening", zap.String("addr", srv.Addr), zap.String("project", cfg.Platform.ProjectID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		log.Error("listen failed", zap.Error(err))
		return err
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down")
	return srv.Shutdown(ctxShutdown)
}

// recaptchaSiteKey prefers RECAPTCHA_SITE_KEY and otherwise asks the project.
// Without a key the page still renders but phone sign-in will be rejected.
func recaptchaSiteKey(ctx context.Context, cfg config.Config, phone *firebase.PhoneAuth, log *zap.Logger) string {
	if cfg.RecaptchaSiteKey != "" || phone == nil {
		return cfg.RecaptchaSiteKey
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	key, err := phone.RecaptchaSiteKey(ctx)
	if err != nil {
		log.Warn("recaptcha site key unavailable", zap.Error(err))
		return ""
	}
	return key
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"surf-market/internal/config"
	"surf-market/internal/geocode"
	"surf-market/internal/handler"
	"surf-market/internal/logging"
	"surf-market/internal/mailer"
	mongodb "surf-market/internal/mongo"
	"surf-market/internal/repository"
	"surf-market/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:           "surf-market",
		Short:         "Marketplace API for used surfboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := serveCmd()
	root.AddCommand(serve, migrateCmd())
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and opens Postgres.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *sqlx.DB, error) {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	if !envLoaded {
		logger.Debug("no .env file, using process environment")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return cfg, logger, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema up to date")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply the schema before serving")
	return cmd
}

func serve(ctx context.Context, autoMigrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	if autoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
	}

	mongoClient, err := mongodb.NewMongoClient(ctx, cfg.MongoURI, logger)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	listingRepo := repository.NewListingRepository(db)
	userRepo := repository.NewUserRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	imageRepo := repository.NewImageRepository(mongoClient, cfg.MongoDB)

	geocoder := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithUserAgent(cfg.Geocoder.UserAgent),
	)

	var mail mailer.Mailer = mailer.Noop{Logger: logger}
	if cfg.SMTP.Enabled() {
		mail = mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
	}

	listingSvc := service.NewListingService(listingRepo, favoriteRepo, imageRepo, geocoder, logger)
	authSvc := service.NewAuthService(userRepo, mail, cfg.JWTSecret, cfg.JWTTTL, logger)

	authHandler := &handler.AuthHandler{Auth: authSvc, Logger: logger}
	if cfg.OAuth.Enabled() {
		authHandler.OAuth = &oauth2.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(
		handler.RouterConfig{
			Logger:        logger,
			SessionSecret: cfg.SessionSecret,
			JWTSecret:     cfg.JWTSecret,
			SecureCookies: cfg.Production(),
		},
		&handler.HealthHandler{Checks: map[string]func(context.Context) error{
			"postgres": db.PingContext,
			"mongo":    func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		}},
		authHandler,
		&handler.ListingHandler{
			Listings: listingSvc,
			Contact:  service.NewContactService(userRepo, listingRepo, mail, logger),
			Logger:   logger,
		},
		&handler.ImageHandler{Listings: listingSvc, Logger: logger},
		&handler.ProfileHandler{
			Profiles: service.NewProfileService(userRepo, listingRepo, imageRepo, geocoder, logger),
			Logger:   logger,
		},
		&handler.FavoriteHandler{Favorites: service.NewFavoriteService(favoriteRepo, listingRepo), Logger: logger},
		&handler.GeocodeHandler{Geocoder: geocoder, Logger: logger},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("surf market listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

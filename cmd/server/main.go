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
	"github.com/planning-tool/planner-server/internal/api"
	"github.com/planning-tool/planner-server/internal/config"
	"github.com/planning-tool/planner-server/internal/mailer"
	"github.com/planning-tool/planner-server/internal/repository"
	"github.com/planning-tool/planner-server/internal/secrets"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/planning-tool/planner-server/internal/translate"
	"github.com/planning-tool/planner-server/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg         *config.Config
	logger      *logrus.Logger
	port        int
	skipMigrate bool
)

var rootCmd = &cobra.Command{
	Use:   "planner-server",
	Short: "Planning tool API server",
	Long: `planner-server serves the planning tool REST API: tasks, teams, org chart,
leave requests and balances, KPI settings, bookmarks, subscriptions and the
guest translation trial.

Run without a subcommand to start the HTTP server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		logger = utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
		if port > 0 {
			cfg.Server.Port = port
		}
	},
	RunE: serve,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and seed the built-in plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := config.SetupDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := config.Migrate(db, logger); err != nil {
			return err
		}
		logger.Info("database schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides SERVER_PORT)")
	rootCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not bootstrap the schema on startup")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	db, err := config.SetupDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrate {
		if err := config.Migrate(db, logger); err != nil {
			return err
		}
	}

	repo := repository.NewPostgresRepository(db)

	svc := service.NewDefaultService(repo, service.Options{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenDuration,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		FrontendURL:   cfg.App.FrontendURL,
		Guest: service.GuestLimits{
			MaxUses:          cfg.Guest.MaxUses,
			SessionTTL:       cfg.Guest.SessionTTL,
			MaxSessionsPerIP: cfg.Guest.MaxSessionsPerIP,
			SystemTenantID:   cfg.Guest.SystemTenantID,
		},
		Clock:  utils.SystemClock{},
		Logger: logger,
		Mailer: mailer.NewSMTPMailer(mailer.Config{
			Server:   cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger),
		Translator: translate.NewOpenAITranslator(translate.Options{
			Model:       cfg.Translation.Model,
			BaseURL:     cfg.Translation.BaseURL,
			Timeout:     cfg.Translation.Timeout,
			MaxTokens:   cfg.Translation.MaxTokens,
			Temperature: cfg.Translation.Temperature,
		}),
		KeyChecker: translate.NewHTTPKeyChecker(cfg.Translation.Timeout),
		Cipher:     secrets.NewCipher(cfg.Secrets.EncryptionSecret),
	})

	handler := api.NewHandler(svc, logger)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(api.SecretMiddleware(cfg.Auth.JWTSecret))

	handler.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

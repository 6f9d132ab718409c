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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/veridianip/veridian/backend/internal/accounts"
	"github.com/veridianip/veridian/backend/internal/auth"
	"github.com/veridianip/veridian/backend/internal/config"
	"github.com/veridianip/veridian/backend/internal/database"
	"github.com/veridianip/veridian/backend/internal/docgen"
	"github.com/veridianip/veridian/backend/internal/logging"
	"github.com/veridianip/veridian/backend/internal/nda"
	"github.com/veridianip/veridian/backend/internal/notify"
	"github.com/veridianip/veridian/backend/internal/payments"
	"github.com/veridianip/veridian/backend/internal/realtime"
	"github.com/veridianip/veridian/backend/internal/reports"
	"github.com/veridianip/veridian/backend/internal/server"
	"github.com/veridianip/veridian/backend/internal/storage"
	"github.com/veridianip/veridian/backend/internal/submissions"
)

const draftStageTTL = 30 * time.Minute

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veridian-api",
		Short: "Veridian IP search portal backend service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	rootCmd.AddCommand(newCreateAdminCommand())
	rootCmd.AddCommand(newSetRoleCommand())

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().Int("autosave-quiet-seconds", defaults.GetInt("autosave.quiet_seconds"), "Draft auto-save quiet window in seconds")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("blob-endpoint", defaults.GetString("blob.endpoint"), "Blob storage endpoint (empty for AWS)")
	cmd.PersistentFlags().String("blob-region", defaults.GetString("blob.region"), "Blob storage region")
	cmd.PersistentFlags().String("blob-bucket", defaults.GetString("blob.bucket"), "Blob storage bucket")
	cmd.PersistentFlags().String("mail-endpoint", defaults.GetString("mail.endpoint"), "Transactional email API endpoint")
	cmd.PersistentFlags().String("payment-base-url", defaults.GetString("payment.base_url"), "Payment provider API base URL")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "autosave.quiet_seconds", "autosave-quiet-seconds")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "blob.endpoint", "blob-endpoint")
	bindFlag(cmd, "blob.region", "blob-region")
	bindFlag(cmd, "blob.bucket", "blob-bucket")
	bindFlag(cmd, "mail.endpoint", "mail-endpoint")
	bindFlag(cmd, "payment.base_url", "payment-base-url")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger("veridian-api", appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		TokenTTL:      appConfig.TokenTTL,
	})

	blobStore, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:  appConfig.BlobEndpoint,
		Region:    appConfig.BlobRegion,
		Bucket:    appConfig.BlobBucket,
		AccessKey: appConfig.BlobAccessKey,
		SecretKey: appConfig.BlobSecretKey,
	})
	if err != nil {
		return err
	}

	var captureVerifier submissions.CaptureVerifier
	if appConfig.PaymentBaseURL != "" {
		paymentClient, err := payments.NewClient(payments.ClientConfig{
			BaseURL:      appConfig.PaymentBaseURL,
			ClientID:     appConfig.PaymentClientID,
			ClientSecret: appConfig.PaymentSecret,
		})
		if err != nil {
			return err
		}
		captureVerifier = paymentClient
	}

	var mailer notify.Mailer
	if appConfig.MailEndpoint != "" {
		httpMailer, err := notify.NewHTTPMailer(notify.HTTPMailerConfig{
			Endpoint: appConfig.MailEndpoint,
			APIKey:   appConfig.MailAPIKey,
			Sender:   appConfig.MailSender,
		})
		if err != nil {
			return err
		}
		mailer = httpMailer
	}
	notifier := notify.NewDispatcher(notify.DispatcherConfig{
		Mailer:     mailer,
		AdminInbox: appConfig.MailAdminInbox,
		Logger:     logger,
	})

	events := realtime.NewDispatcher()
	renderer := docgen.NewRenderer()
	idProvider := submissions.NewUUIDProvider()

	accountService, err := accounts.NewService(accounts.ServiceConfig{
		Database: db,
		Clock:    time.Now,
	})
	if err != nil {
		return err
	}

	submissionService, err := submissions.NewService(submissions.ServiceConfig{
		Database:      db,
		Clock:         time.Now,
		IDProvider:    idProvider,
		Logger:        logger,
		Blobs:         blobStore,
		Verifier:      captureVerifier,
		Renderer:      renderer,
		Notifier:      notifier,
		Events:        events,
		AutosaveQuiet: appConfig.AutosaveQuiet,
	})
	if err != nil {
		return err
	}
	defer submissionService.Close()

	ndaService, err := nda.NewService(nda.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		IDs:      idProvider,
		Blobs:    blobStore,
		Renderer: renderer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	ndaStage := nda.NewStage(draftStageTTL, time.Now)

	reportService, err := reports.NewService(reports.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		IDs:      idProvider,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Accounts:    accountService,
		Tokens:      tokenIssuer,
		Submissions: submissionService,
		NDA:         ndaService,
		NDAStage:    ndaStage,
		Reports:     reportService,
		Renderer:    renderer,
		Blobs:       blobStore,
		Notify:      notifier,
		Events:      events,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newCreateAdminCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create or promote an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				account, err := service.EnsureAdmin(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (%s)\n", account.Email, account.UserID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Administrator email address")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password")
	return cmd
}

func newSetRoleCommand() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change an account's role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || role == "" {
				return errors.New("--email and --role are required")
			}
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				account, err := service.SetRole(ctx, email, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "role updated: %s is now %s\n", account.Email, account.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&role, "role", "", "Role to assign (user or admin)")
	return cmd
}

// withAccounts opens the database just long enough to run one account
// operation. Account maintenance commands skip the full config validation so
// they can run without blob or payment credentials.
func withAccounts(ctx context.Context, run func(context.Context, *accounts.Service) error) error {
	databasePath := viper.GetString("database.path")
	logLevel := viper.GetString("log.level")

	logger, err := logging.NewLogger("veridian-api", logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(databasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	service, err := accounts.NewService(accounts.ServiceConfig{Database: db, Clock: time.Now})
	if err != nil {
		return err
	}
	return run(ctx, service)
}

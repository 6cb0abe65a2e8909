package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/oneelevenhq/leadbridge/core/config"
	"github.com/oneelevenhq/leadbridge/core/database"
	domainEventlog "github.com/oneelevenhq/leadbridge/domains/eventlog"
	domainHealth "github.com/oneelevenhq/leadbridge/domains/health"
	domainIngest "github.com/oneelevenhq/leadbridge/domains/ingest"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	"github.com/oneelevenhq/leadbridge/infrastructure/gateway"
	"github.com/oneelevenhq/leadbridge/infrastructure/valkey"
	"github.com/oneelevenhq/leadbridge/pkg/crypto"
	"github.com/oneelevenhq/leadbridge/pkg/eventworker"
	"github.com/oneelevenhq/leadbridge/pkg/utils"
	"github.com/oneelevenhq/leadbridge/usecase"
)

var (
	cfg *config.Config
	db  *gorm.DB

	vkClient  *valkey.Client
	eventPool *eventworker.EventWorkerPool

	// Usecase
	ingestUsecase   domainIngest.IIngestUsecase
	tenantUsecase   domainTenant.ITenantUsecase
	eventlogUsecase domainEventlog.IEventLogUsecase
	healthUsecase   domainHealth.IHealthUsecase

	flagPort          string
	flagDebug         bool
	flagBasicAuth     []string
	flagBasePath      string
	flagWebhookSecret string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leadbridge",
	Short: "WhatsApp gateway webhook bridge for the CRM",
	Long: `Receives inbound webhook events from WhatsApp gateway providers,
verifies them per tenant, keeps a raw audit trail and forwards normalized
messages into the CRM ingestion endpoint.`,
}

func init() {
	utils.LoadEnv(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&flagPort,
		"port", "p",
		"",
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagDebug,
		"debug", "d",
		false,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&flagBasicAuth,
		"basic-auth", "b",
		nil,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagBasePath,
		"base-path", "",
		"",
		`base path for subpath deployment --base-path <string> | example: --base-path="/leadbridge"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagWebhookSecret,
		"webhook-secret", "",
		"",
		`HMAC secret for inbound webhook signatures --webhook-secret <string> | example: --webhook-secret="super-secret-key"`,
	)
}

func initApp() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		logrus.Fatalf("[APP] Failed to load configuration: %v", err)
	}
	applyFlagOverrides()

	if cfg.App.Debug || viper.GetBool("app_debug") {
		cfg.App.Debug = true
		logrus.SetLevel(logrus.DebugLevel)
	}

	if cfg.Database.Driver == "sqlite" {
		if err := os.MkdirAll("storages", 0o755); err != nil {
			logrus.Errorln(err)
		}
	}

	ctx := context.Background()

	db, err = database.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[APP] Failed to open database: %v", err)
	}

	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("[APP] Valkey unavailable, continuing without credential cache")
			vkClient = nil
		}
	}

	eventPool = eventworker.NewEventWorkerPool(cfg.Workers.Size, cfg.Workers.QueueSize)
	eventPool.Start(ctx)

	verifier := gateway.NewSignatureVerifier(cfg.Webhook.Secret)
	forwarder := gateway.NewForwarder(cfg.Forward.BaseURL, cfg.Forward.Timeout)
	cipher := crypto.NewTokenCipher(cfg.Security.SecretKey)

	eventlogUsecase, err = usecase.NewEventLogService(db, eventPool)
	if err != nil {
		logrus.Fatalf("[APP] Failed to init event log: %v", err)
	}
	tenantUsecase, err = usecase.NewTenantService(db, cfg, cipher, verifier, vkClient)
	if err != nil {
		logrus.Fatalf("[APP] Failed to init tenant service: %v", err)
	}
	ingestUsecase = usecase.NewIngestService(cfg, verifier, forwarder, tenantUsecase, eventlogUsecase)
	healthUsecase = usecase.NewHealthService(cfg, db, vkClient, eventPool)

	if !verifier.Enabled() {
		logrus.Warn("[APP] WEBHOOK_SECRET is empty, inbound signature verification is DISABLED")
	}
	logrus.WithFields(logrus.Fields{
		"credential_mode": cfg.Webhook.CredentialMode,
		"forward_base":    cfg.Forward.BaseURL,
		"valkey":          vkClient != nil,
	}).Info("[APP] Initialized")
}

func applyFlagOverrides() {
	if flagPort != "" {
		cfg.App.Port = flagPort
	}
	if flagDebug {
		cfg.App.Debug = true
	}
	if len(flagBasicAuth) > 0 {
		cfg.App.BasicAuth = flagBasicAuth
	}
	if flagBasePath != "" {
		cfg.App.BasePath = strings.TrimRight(flagBasePath, "/")
	}
	if flagWebhookSecret != "" {
		cfg.Webhook.Secret = flagWebhookSecret
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of the worker pool and connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if eventPool != nil {
		eventPool.Stop()
	}
	if vkClient != nil {
		vkClient.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}

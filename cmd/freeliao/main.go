package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/freeliao/freeliao/internal/api"
	"github.com/freeliao/freeliao/internal/bot"
	"github.com/freeliao/freeliao/internal/lockfile"
	"github.com/freeliao/freeliao/internal/messaging"
	"github.com/freeliao/freeliao/internal/session"
	"github.com/freeliao/freeliao/internal/store"
	"github.com/freeliao/freeliao/internal/twiliowhatsapp"
	"github.com/freeliao/freeliao/internal/util"
	"github.com/freeliao/freeliao/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for FreeLiao state data
	DefaultStateDir = "/var/lib/freeliao"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "freeliao.db"
	// DefaultWhatsAppDBFileName is the default SQLite filename for the whatsmeow session store
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// ShutdownTimeout bounds the graceful shutdown of the API server
	ShutdownTimeout = 10 * time.Second
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Only one process may serve a state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	slog.Info("Bootstrapping FreeLiao with configured modules")
	if err := run(flags); err != nil {
		slog.Error("FreeLiao failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("FreeLiao exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir     string
	DatabaseURL  string
	WhatsAppDSN  string
	APIAddr      string
	TwilioSID    string
	TwilioToken  string
	TwilioFrom   string
	NumericLogin bool
}

// Flags holds command line flag values
type Flags struct {
	qrOutput    *string
	numeric     *bool
	stateDir    *string
	dbDSN       *string
	waDSN       *string
	apiAddr     *string
	twilioSID   *string
	twilioToken *string
	twilioFrom  *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:     os.Getenv("FREELIAO_STATE_DIR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		WhatsAppDSN:  os.Getenv("WHATSAPP_DB_DSN"),
		APIAddr:      os.Getenv("API_ADDR"),
		TwilioSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:   os.Getenv("TWILIO_FROM_NUMBER"),
		NumericLogin: util.ParseBoolEnv("FREELIAO_NUMERIC_LOGIN", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No FREELIAO_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Default both DSNs to SQLite files in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
		slog.Debug("No WHATSAPP_DB_DSN provided, defaulting to SQLite", "sqlite_path", config.WhatsAppDSN)
	}

	slog.Debug("environment variables loaded",
		"FREELIAO_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"API_ADDR", config.APIAddr,
		"TWILIO_ACCOUNT_SID_SET", config.TwilioSID != "",
		"TWILIO_AUTH_TOKEN_SET", config.TwilioToken != "",
		"TWILIO_FROM_NUMBER_SET", config.TwilioFrom != "",
		"FREELIAO_NUMERIC_LOGIN", config.NumericLogin)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:    flag.String("qr-output", "", "path to write login QR code"),
		numeric:     flag.Bool("numeric-code", config.NumericLogin, "use numeric login code instead of QR code (overrides $FREELIAO_NUMERIC_LOGIN)"),
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for FreeLiao data (overrides $FREELIAO_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN for the FreeLiao store (overrides $DATABASE_URL)"),
		waDSN:       flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the whatsmeow session store (overrides $WHATSAPP_DB_DSN)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		twilioSID:   flag.String("twilio-account-sid", config.TwilioSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)"),
		twilioToken: flag.String("twilio-auth-token", config.TwilioToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom:  flag.String("twilio-from-number", config.TwilioFrom, "Twilio WhatsApp sender number (overrides $TWILIO_FROM_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"waDSN_set", *flags.waDSN != "",
		"apiAddr", *flags.apiAddr,
		"twilioConfigured", *flags.twilioSID != "" && *flags.twilioToken != "")

	// Follow an overridden state directory for the default SQLite paths.
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
			slog.Debug("Updated db-dsn based on state directory", "new_state_dir", *flags.stateDir)
		}
		if *flags.waDSN == filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) {
			*flags.waDSN = filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)
			slog.Debug("Updated whatsapp-db-dsn based on state directory", "new_state_dir", *flags.stateDir)
		}
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	for _, dsn := range []string{*flags.dbDSN, *flags.waDSN} {
		if strings.Contains(dsn, "postgres://") || strings.Contains(dsn, "host=") {
			continue
		}
		dir := filepath.Dir(dsn)
		slog.Debug("Creating state directory for file-based database", "state_dir", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", dir)
			return err
		}
	}
	return nil
}

// buildStoreOptions selects the store backend from the DSN.
func buildStoreOptions(flags Flags) []store.Option {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return []store.Option{store.WithPostgresDSN(*flags.dbDSN)}
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
	return []store.Option{store.WithSQLiteDSN(*flags.dbDSN)}
}

// buildMessagingService selects the messaging backend. Twilio is used when its
// credentials are configured; otherwise the whatsmeow client is started with
// the interactive login flow.
func buildMessagingService(flags Flags) (messaging.Service, *messaging.TwilioService, error) {
	if *flags.twilioSID != "" && *flags.twilioToken != "" {
		slog.Info("Twilio credentials configured, using Twilio messaging backend")
		client, err := twiliowhatsapp.NewClient(
			twiliowhatsapp.WithAccountSID(*flags.twilioSID),
			twiliowhatsapp.WithAuthToken(*flags.twilioToken),
			twiliowhatsapp.WithFromWhats(*flags.twilioFrom),
		)
		if err != nil {
			return nil, nil, err
		}
		svc := messaging.NewTwilioService(client)
		return svc, svc, nil
	}

	slog.Info("Using whatsmeow messaging backend")
	var waOpts []whatsapp.Option
	if *flags.waDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.waDSN))
	}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	client, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewWhatsAppService(client), nil, nil
}

// run wires the modules together and blocks until shutdown.
func run(flags Flags) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	var err error
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		st, err = store.NewPostgresStore(buildStoreOptions(flags)...)
	} else {
		st, err = store.NewSQLiteStore(buildStoreOptions(flags)...)
	}
	if err != nil {
		return err
	}
	defer st.Close()

	svc, twilioSvc, err := buildMessagingService(flags)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	var srv *api.Server
	if twilioSvc != nil {
		srv = api.NewServer(st, twilioSvc.WebhookHandler, apiOpts...)
	} else {
		srv = api.NewServer(st, nil, apiOpts...)
	}
	srv.Start()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	b := bot.New(st, session.NewManager(), svc)
	botDone := make(chan error, 1)
	go func() { botDone <- b.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
		cancel()
		<-botDone
		return nil
	case err := <-botDone:
		if err != nil && err != context.Canceled {
			return err
		}
		return nil
	}
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iaclub/salesbot/internal/api"
	"github.com/iaclub/salesbot/internal/bot"
	"github.com/iaclub/salesbot/internal/flow"
	"github.com/iaclub/salesbot/internal/genai"
	"github.com/iaclub/salesbot/internal/lockfile"
	"github.com/iaclub/salesbot/internal/messaging"
	"github.com/iaclub/salesbot/internal/scheduler"
	"github.com/iaclub/salesbot/internal/store"
	"github.com/iaclub/salesbot/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for salesbot state data
	DefaultStateDir = "/var/lib/salesbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "salesbot.db"
	// DefaultAdvisorDigest is the reminder sent to the sales advisor on the
	// follow-up schedule.
	DefaultAdvisorDigest = "Recordatorio IA Club: revisa las conversaciones pendientes del bot de ventas."
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Only one bot instance may run against a given state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire instance lock", "error", err, "state_dir", *flags.stateDir)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("Failed to release instance lock", "error", err)
		}
	}()

	slog.Info("Bootstrapping salesbot with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags); err != nil {
		slog.Error("salesbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("salesbot exited successfully")
}

// run wires the pipeline modules together and serves the API until the
// context is cancelled.
func run(ctx context.Context, flags Flags) error {
	st, err := buildStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	gen, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		return err
	}

	botOpts, err := buildBotOptions(flags)
	if err != nil {
		return err
	}
	orchestrator := bot.NewOrchestrator(gen, st, botOpts...)

	msgService, err := messaging.NewChatwoot()
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := scheduleFollowUps(ctx, sched, flags); err != nil {
		return err
	}

	server := api.NewServer(orchestrator, msgService, buildAPIOptions(flags)...)
	return server.Run(ctx)
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	OpenAIKey     string
	OpenAIModel   string
	APIAddr       string
	FlowsFile     string
	FollowUpCron  string
	AdvisorNumber string
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	openaiKey     *string
	openaiModel   *string
	apiAddr       *string
	flowsFile     *string
	followUpCron  *string
	advisorNumber *string
}

// initializeLogger sets up structured logging; SALESBOT_DEBUG enables debug
// level output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("SALESBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("SALESBOT_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		APIAddr:       os.Getenv("API_ADDR"),
		FlowsFile:     os.Getenv("SALESBOT_FLOWS_FILE"),
		FollowUpCron:  os.Getenv("SALESBOT_FOLLOWUP_CRON"),
		AdvisorNumber: os.Getenv("SALESBOT_ADVISOR_NUMBER"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SALESBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("SALESBOT_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SALESBOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"SALESBOT_FLOWS_FILE", config.FlowsFile,
		"SALESBOT_FOLLOWUP_CRON", config.FollowUpCron,
		"SALESBOT_ADVISOR_NUMBER_SET", config.AdvisorNumber != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for salesbot data (overrides $SALESBOT_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN for the SQLite or Postgres store (overrides $DATABASE_URL)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:   flag.String("openai-model", config.OpenAIModel, "OpenAI model for completions (overrides $OPENAI_MODEL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		flowsFile:     flag.String("flows-file", config.FlowsFile, "YAML file with extra conversation flows (overrides $SALESBOT_FLOWS_FILE)"),
		followUpCron:  flag.String("followup-cron", config.FollowUpCron, "cron schedule for advisor follow-up reminders (overrides $SALESBOT_FOLLOWUP_CRON)"),
		advisorNumber: flag.String("advisor-number", config.AdvisorNumber, "WhatsApp number that receives follow-up reminders (overrides $SALESBOT_ADVISOR_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"openaiModel", *flags.openaiModel,
		"apiAddr", *flags.apiAddr,
		"flowsFile", *flags.flowsFile,
		"followUpCron", *flags.followUpCron,
		"advisorNumberSet", *flags.advisorNumber != "")

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", *flags.stateDir)
		return err
	}
	if store.DetectDSNType(*flags.dbDSN) == "sqlite3" {
		dbDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating directory for file-based database", "db_dir", dbDir)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			slog.Error("Failed to create database directory", "error", err, "db_dir", dbDir)
			return err
		}
	}
	return nil
}

// buildStore selects the store backend from the DSN.
func buildStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildBotOptions constructs orchestrator configuration options, loading
// operator-defined flows on top of the built-in ones when a flows file is
// configured.
func buildBotOptions(flags Flags) ([]bot.Option, error) {
	var botOpts []bot.Option
	if *flags.flowsFile != "" {
		manager := flow.NewManager()
		if err := flow.LoadDefinitionsFile(manager, *flags.flowsFile); err != nil {
			return nil, err
		}
		botOpts = append(botOpts, bot.WithFlowManager(manager))
	}
	return botOpts, nil
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// scheduleFollowUps wires the advisor reminder job when both a schedule and a
// destination number are configured. Twilio credentials come from the
// environment.
func scheduleFollowUps(ctx context.Context, sched *scheduler.Scheduler, flags Flags) error {
	if *flags.followUpCron == "" || *flags.advisorNumber == "" {
		slog.Debug("Follow-up reminders disabled", "cron_set", *flags.followUpCron != "", "advisor_set", *flags.advisorNumber != "")
		return nil
	}

	notifier, err := messaging.NewTwilioNotifier()
	if err != nil {
		return err
	}

	advisor := *flags.advisorNumber
	if err := sched.AddJob(*flags.followUpCron, func() {
		if err := notifier.NotifyAdvisor(ctx, advisor, DefaultAdvisorDigest); err != nil {
			slog.Error("Follow-up reminder failed", "error", err, "advisor", advisor)
			return
		}
		slog.Info("Follow-up reminder sent", "advisor", advisor)
	}); err != nil {
		return err
	}

	slog.Info("Follow-up reminders scheduled", "cron", *flags.followUpCron, "advisor", advisor)
	return nil
}

// Command goalforge runs the GoalForge orchestration core: the HTTP
// /process and /callback surface, the notification scheduler, and crash
// recovery. Wiring loads config, builds every module, starts background
// runners, and serves.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTreeMap/GoalForge/internal/analytics"
	"github.com/BTreeMap/GoalForge/internal/api"
	"github.com/BTreeMap/GoalForge/internal/config"
	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/llm"
	"github.com/BTreeMap/GoalForge/internal/lockfile"
	"github.com/BTreeMap/GoalForge/internal/pipeline"
	"github.com/BTreeMap/GoalForge/internal/recovery"
	"github.com/BTreeMap/GoalForge/internal/resultset"
	"github.com/BTreeMap/GoalForge/internal/scheduler"
	"github.com/BTreeMap/GoalForge/internal/store"
	"github.com/BTreeMap/GoalForge/internal/transport"
)

// Exit codes for the goalforge process.
const (
	exitOK               = 0
	exitFatalConfigError = 1
	exitStoreUnreachable = 2
)

func main() {
	initializeLogger()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("goalforge: configuration error", "error", err)
		os.Exit(exitFatalConfigError)
	}
	applyLogLevel(cfg.LogLevel)

	lock, err := lockfile.AcquireLock(cfg.StateDir)
	if err != nil {
		slog.Error("goalforge: failed to acquire instance lock", "error", err)
		os.Exit(exitFatalConfigError)
	}
	defer lock.Release()

	st, err := openStore(cfg.StoreDSN)
	if err != nil {
		slog.Error("goalforge: store unreachable at startup", "error", err)
		os.Exit(exitStoreUnreachable)
	}
	defer st.Close()

	llmClient, err := llm.NewClient(
		llm.WithAPIKey(cfg.OpenAIKey),
		llm.WithTimeout(cfg.ModelTimeout),
		llm.WithTemperature(cfg.ModelTemperature),
	)
	if err != nil {
		slog.Error("goalforge: model adapter configuration error", "error", err)
		os.Exit(exitFatalConfigError)
	}
	templates := llm.NewTemplates()

	sender, err := transport.NewWebhookSender(
		transport.WithWebhookURL(cfg.TransportWebhookURL),
		transport.WithWebhookToken(cfg.TransportAPIToken),
	)
	if err != nil {
		slog.Error("goalforge: transport configuration error", "error", err)
		os.Exit(exitFatalConfigError)
	}

	sink := analytics.NewLoggingSink()
	defer sink.Close()

	results := resultset.New(cfg.ResultSetCapacity, cfg.ResultSetTTL)
	dialogMC := dialog.NewMachine(dialog.NewStoreBasedStateManager(st))
	autoScheduler := scheduler.NewAutoScheduler(st)

	dispatcher := pipeline.New(st, llmClient, templates, results, dialogMC, autoScheduler)

	cron := scheduler.NewScheduler()
	defer cron.Stop()
	rateLimited := scheduler.NewRateLimitedSender(sender, cfg.NotificationRatePerSec)
	notifier := scheduler.NewNotificationRunner(cron, st, rateLimited)
	if err := notifier.Register(); err != nil {
		slog.Error("goalforge: failed to register notification jobs", "error", err)
		os.Exit(exitFatalConfigError)
	}

	jobRunner := store.NewJobRunner(st, 10*time.Second)
	outboxSender := store.NewOutboxSender(st, outboxSendFunc(sender), 5*time.Second)

	recoveryManager := recovery.NewRecoveryManager()
	recoveryManager.Register(recovery.NewJobRunnerRecoverable(jobRunner))
	recoveryManager.Register(recovery.NewOutboxRecoverable(outboxSender))
	if err := recoveryManager.RecoverAll(); err != nil {
		slog.Warn("goalforge: startup recovery completed with errors", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go jobRunner.Run(ctx)
	go outboxSender.Run(ctx)
	go resultSetEvictionLoop(ctx, results)

	server := api.NewServer(cfg.APIAddr, dispatcher)
	serveErrCh := make(chan error, 1)
	go func() { serveErrCh <- server.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrCh:
		slog.Error("goalforge: API server exited", "error", err)
		os.Exit(exitFatalConfigError)
	case sig := <-sigCh:
		slog.Info("goalforge: shutting down", "signal", sig.String())
	}

	slog.Info("goalforge: exited successfully")
	os.Exit(exitOK)
}

func openStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// outboxSendFunc adapts a transport.Sender to store.OutboxSendFunc, so any
// future producer that calls EnqueueOutboxMessage gets its message
// delivered through the same transport used for direct sends.
func outboxSendFunc(sender transport.Sender) store.OutboxSendFunc {
	return func(ctx context.Context, msg store.OutboxMessage) error {
		chatID, err := sender.ValidateAndCanonicalizeChatID(msg.ParticipantID)
		if err != nil {
			return err
		}
		return sender.Send(ctx, chatID, msg.PayloadJSON, nil)
	}
}

// resultSetEvictionLoop periodically sweeps expired Result Set entries, the
// background-maintenance counterpart to the per-request eviction check
// already performed inline by resultset.Cache.Get/Resolve.
func resultSetEvictionLoop(ctx context.Context, results *resultset.Cache) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := results.EvictExpired(time.Now().UTC()); n > 0 {
				slog.Debug("goalforge: evicted expired result sets", "count", n)
			}
		}
	}
}

func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
}

func applyLogLevel(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// Package main - клиент опроса уведомлений для администратора.
//
// Раз в POLL_INTERVAL запрашивает число новых квалифицированных заявок,
// ведёт состояние бейджа и пишет переходы в лог. С POLL_AUTO_ACK=true
// сразу подтверждает просмотр.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scholarhub/scholarship-review/config"
	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/auth"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/external/reviewapi"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/scheduler"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/scheduler/jobs"
	"github.com/scholarhub/scholarship-review/pkg/circuitbreaker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidatePoller(); err != nil {
		return err
	}

	log := setupLogger(cfg)
	log.Info("starting notification poller",
		"api", cfg.Poller.BaseURL,
		"interval", cfg.Poller.Interval.String(),
		"auto_ack", cfg.Poller.AutoAck,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ТОКЕН АДМИНИСТРАТОРА
	// ─────────────────────────────────────────────────────────────────────────
	token := cfg.Poller.Token
	if token == "" {
		gate, err := auth.NewJWTGate(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return fmt.Errorf("auth gate: %w", err)
		}
		token, err = gate.Issue(cfg.Poller.AdminID, access.RoleAdmin, cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("issue poller token: %w", err)
		}
		log.Info("issued admin token for poller", "admin_id", cfg.Poller.AdminID, "ttl", cfg.Auth.TokenTTL.String())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. КЛИЕНТ И ЗАДАЧА ОПРОСА
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := reviewapi.DefaultClientConfig(cfg.Poller.BaseURL, token)
	clientCfg.Timeout = cfg.Poller.RequestTimeout
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug

	breaker := circuitbreaker.AdminAPIBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	})
	client := reviewapi.NewClient(clientCfg, breaker)

	pollJob := jobs.NewPollNotificationsJob(client, jobs.PollNotificationsConfig{
		AutoAck: cfg.Poller.AutoAck,
	}, log)

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log, RunOnStart: true})
	if err := sched.Register(pollJob, scheduler.Every(cfg.Poller.Interval)); err != nil {
		return fmt.Errorf("register poll job: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}

	stats, err := sched.Stats(pollJob.Name())
	if err == nil {
		log.Info("poller stopped",
			"polls", stats.RunCount,
			"failed", stats.FailCount,
			"badge", pollJob.Badge().String(),
		)
	}
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug || cfg.Observability.LogLevel == "debug" {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// Package main - точка входа HTTP API сервиса рассмотрения заявок на стипендии.
//
// Сервер отдаёт администраторам счётчик новых квалифицированных заявок,
// подтверждение просмотра, быстрые действия и редактирование статуса,
// а студентам - подачу заявки.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scholarhub/scholarship-review/config"

	// Application layer
	"github.com/scholarhub/scholarship-review/internal/application/command"
	"github.com/scholarhub/scholarship-review/internal/application/eventhandler"
	"github.com/scholarhub/scholarship-review/internal/application/query"

	// Domain
	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/student"

	// Infrastructure layer
	"github.com/scholarhub/scholarship-review/internal/infrastructure/auth"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/messaging"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/persistence/memory"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/persistence/postgres"
	rediscache "github.com/scholarhub/scholarship-review/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/scholarhub/scholarship-review/internal/interface/http"
	"github.com/scholarhub/scholarship-review/internal/interface/http/handlers"

	// Packages
	"github.com/scholarhub/scholarship-review/pkg/circuitbreaker"
	"github.com/scholarhub/scholarship-review/pkg/logger"
	"github.com/scholarhub/scholarship-review/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// stores - три хранилища, за которыми стоит один драйвер.
type stores struct {
	applications application.Store
	students     student.Repository
	scholarships scholarship.Repository
	ping         handlers.HealthCheckFunc
	close        func()
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting scholarship review API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"storage", cfg.Database.Driver,
		"eligibility", cfg.Eligibility.String(),
		"features", cfg.Features.Enabled(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально: кеш справочных панелей и лимит опросов)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache     query.Cache
		cachePing handlers.HealthCheckFunc
		limiter   handlers.Limiter
	)

	if cfg.NeedsRedis() {
		redisCfg := rediscache.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.KeyPrefix = cfg.Redis.KeyPrefix
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		log.Info("connecting to Redis...", "addr", redisCfg.Addr())
		client, err := rediscache.NewClient(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, continuing without it", "error", err)
		} else {
			defer client.Close()

			if cfg.Features.IsEnabled(config.FeatureRedisCache) {
				c := rediscache.NewCache(client, redisCfg.KeyPrefix)
				cache = c
				cachePing = handlers.PingCheck(c)
			}
			if cfg.Features.IsEnabled(config.FeatureRateLimit) {
				limiter = rediscache.NewRateLimiter(client, redisCfg.KeyPrefix)
			}
			log.Info("Redis connection established")
		}
	}

	if limiter == nil && cfg.Features.IsEnabled(config.FeatureRateLimit) {
		limiter = handlers.NewMemoryLimiter()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	audit := eventhandler.NewAuditLogHandler(log)
	if err := eventBus.SubscribeAll(audit.Handle); err != nil {
		return fmt.Errorf("subscribe audit log: %w", err)
	}
	onSubmitted := eventhandler.NewOnApplicationSubmittedHandler(cache, log)
	if err := eventBus.Subscribe(onSubmitted.EventType(), onSubmitted.Handle); err != nil {
		return fmt.Errorf("subscribe cache invalidation: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. COMMANDS / QUERIES
	// ─────────────────────────────────────────────────────────────────────────
	breaker := circuitbreaker.StoreBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	})
	degrader := query.NewDegrader(breaker, log)
	filter := cfg.Eligibility

	deps := httpserver.Dependencies{
		QuickAction:              command.NewQuickActionHandler(st.applications, eventBus, log),
		EditApplication:          command.NewEditApplicationHandler(st.applications, eventBus, log),
		AcknowledgeNotifications: command.NewAcknowledgeNotificationsHandler(st.applications, filter, eventBus, log),
		SubmitApplication:        command.NewSubmitApplicationHandler(st.applications, st.scholarships, filter, eventBus, log),
		GetUnseenCount:           query.NewGetUnseenCountHandler(st.applications, filter, degrader),
		ListApplications:         query.NewListApplicationsHandler(st.applications, filter, degrader),
		GetDashboard:             query.NewGetDashboardHandler(st.applications, st.students, st.scholarships, filter, cache, degrader, log),
		ListOpenScholarships:     query.NewListOpenScholarshipsHandler(st.scholarships, cache, degrader, log),
		Limiter:                  limiter,
	}

	gate, err := auth.NewJWTGate(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("auth gate: %w", err)
	}
	deps.Gate = gate

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HEALTH
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewHealthChecker(cfg.App.Version)
	health.AddCritical("store", st.ping)
	if cachePing != nil {
		health.AddOptional("cache", cachePing)
	}
	deps.HealthChecker = health

	deps.Logger = logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	}).With(logger.Component("http"))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.PollRateLimit = cfg.HTTP.PollRateLimit
	httpCfg.PollRateWindow = cfg.HTTP.PollRateWindow
	httpCfg.AcceptDocuments = cfg.Features.IsEnabled(config.FeatureDocumentPaths)

	server := httpserver.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	if cfg.Database.Driver == config.StorageMemory && cfg.IsDevelopment() {
		logDevTokens(log, gate, cfg.Auth.TokenTTL, st)
	}

	log.Info("scholarship review API is running", "address", httpCfg.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// openStores подключает выбранный драйвер хранилища.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Database.Driver == config.StorageMemory {
		store := memory.NewStore()
		demo := memory.SeedDemo(store, time.Now())
		log.Warn("using in-memory store, data is lost on restart",
			"demo_students", len(demo.StudentIDs),
			"demo_scholarships", len(demo.ScholarshipIDs),
		)
		return &stores{
			applications: store,
			students:     store.Students(),
			scholarships: store.Scholarships(),
			ping: func(ctx context.Context) error {
				_, err := store.Count(ctx)
				return err
			},
			close: func() {},
		}, nil
	}

	pgCfg := postgres.DefaultConfig(cfg.Database.URL)
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pgCfg.QueryTimeout = cfg.Database.QueryTimeout

	log.Info("connecting to database...")
	retrier := retry.DatabaseRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("database connection failed, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
	})
	conn, err := retry.DoWithData(ctx, retrier, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnection(ctx, pgCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.Features.IsEnabled(config.FeatureAutoMigrate) {
		log.Info("checking database migrations...")
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	return &stores{
		applications: postgres.NewApplicationRepository(conn),
		students:     postgres.NewStudentRepository(conn),
		scholarships: postgres.NewScholarshipRepository(conn),
		ping:         handlers.PingCheck(conn),
		close: func() {
			log.Info("closing database connection...")
			conn.Close()
		},
	}, nil
}

// logDevTokens печатает токены для ручной проверки в режиме разработки.
func logDevTokens(log *slog.Logger, gate *auth.JWTGate, ttl time.Duration, st *stores) {
	admin, err := gate.Issue("dev-admin", access.RoleAdmin, ttl)
	if err != nil {
		log.Warn("failed to issue dev token", "error", err)
		return
	}
	log.Info("dev admin token", "token", admin)

	newest, err := st.students.ListNewest(context.Background(), 5)
	if err != nil {
		log.Warn("failed to list demo students", "error", err)
		return
	}
	for _, s := range newest {
		token, err := gate.Issue(s.ID, access.RoleStudent, ttl)
		if err != nil {
			continue
		}
		log.Info("dev student token", "student", s.FullName(), "token", token)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

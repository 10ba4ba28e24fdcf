package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket-portal/config"
	"ticket-portal/internal/backend"
	"ticket-portal/internal/handlers"
	"ticket-portal/internal/query"
	"ticket-portal/internal/services/booking"
	"ticket-portal/internal/services/contact"
	"ticket-portal/internal/services/media"
	"ticket-portal/internal/services/notify"
	"ticket-portal/internal/services/portal"
	"ticket-portal/internal/services/session"
	"ticket-portal/monitoring"
	"ticket-portal/security"
	"ticket-portal/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/redis/go-redis/v9"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := monitoring.InitTracer(ctx, "ticket-portal", cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return err
	}

	// Initialize Redis. Without it the cache and rate limits stay in memory.
	var rdb redis.UniversalClient
	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, using in-memory stores", "error", err)
		} else {
			rdb = client
			defer client.Close()
		}
	}

	// Remote backend, or the sandbox in development
	backendURL := cfg.BackendURL
	var settler handlers.Settler
	if cfg.SandboxBackend && cfg.IsDevelopment() {
		sb, url, err := startSandbox(ctx)
		if err != nil {
			return err
		}
		backendURL = url
		settler = sb
	}
	client := backend.NewClient(backendURL, backend.WithTimeout(cfg.BackendTimeout))

	var store query.Store = query.NewMemoryStore()
	if rdb != nil {
		store = query.NewRedisStore(rdb)
	}
	hooks := portal.NewHooks(client, query.New(store, cfg.QueryStaleTime), cfg.LegacyIsPublicFallback)

	// Payment notices
	var bus notify.Bus = notify.NewMemoryBus()
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pn, err := notify.NewPubNubBus(ctx, notify.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UserID:       cfg.PubNubUserID,
		})
		if err != nil {
			return err
		}
		bus = pn
	}

	registry := booking.NewRegistry(hooks, bus, cfg.CheckoutIdleTTL)
	backoff := booking.Backoff{
		Initial:     cfg.PaymentPollInterval,
		Max:         cfg.PaymentPollMax,
		Factor:      2,
		MaxAttempts: cfg.PaymentPollAttempts,
		Timeout:     cfg.PaymentPollTimeout,
	}
	limiter := security.NewRateLimiter(rdb, cfg.RateLimitPerMinute)
	uploader := media.NewUploader(cfg.MediaUploadURL, cfg.MediaUploadPreset, cfg.MediaMaxDimension)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})
	registerCommands(app, client)

	// Start background tasks
	go registry.Run(ctx, cfg.CleanupInterval)
	go runCleanup(ctx, limiter, cfg.CleanupInterval)
	if cfg.EnableMetrics {
		go monitoring.Serve(ctx, ":"+cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("shutdownTracer()", "error", err)
		}
		return e.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		sessions, err := sessionStore(app, cfg, rdb)
		if err != nil {
			return err
		}

		meta := app.Settings().Meta
		contactSvc := contact.NewService(app.NewMailClient(),
			mail.Address{Name: meta.SenderName, Address: meta.SenderAddress},
			cfg.ContactRecipient)

		checks := map[string]handlers.HealthCheck{
			"backend": func(ctx context.Context) error {
				_, err := client.PublicEvents(ctx)
				return err
			},
		}
		if rdb != nil {
			checks["redis"] = func(ctx context.Context) error { return utils.RedisHealthCheck(ctx, rdb) }
		}

		handlers.Register(se, handlers.Deps{
			Hooks:        hooks,
			Registry:     registry,
			Backoff:      backoff,
			Sessions:     session.NewManager(sessions, session.DefaultTTL),
			Bus:          bus,
			Settler:      settler,
			Contact:      contactSvc,
			Uploader:     uploader,
			Limiter:      limiter,
			HealthChecks: checks,
			PublicURL:    cfg.PublicURL,
			Development:  cfg.IsDevelopment(),
		})

		return se.Next()
	})

	// With no arguments, serve on the configured port
	if len(os.Args) == 1 {
		app.RootCmd.SetArgs([]string{"serve", "--http", "0.0.0.0:" + cfg.Port})
	}

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// sessionStore picks where portal sessions live. Database sessions are
// purged by a cron job; a configured secret seals every stored session.
func sessionStore(app core.App, cfg *config.Config, rdb redis.UniversalClient) (session.Store, error) {
	var store session.Store
	switch {
	case cfg.SessionStore == "redis" && rdb != nil:
		store = session.NewRedisStore(rdb)
	case cfg.SessionStore == "memory":
		store = session.NewMemoryStore()
	default:
		db := session.NewDBStore(app.DB())
		app.Cron().MustAdd("purgeClientSessions", "*/15 * * * *", func() {
			n, err := db.Purge(context.Background())
			if err != nil {
				slog.Error("db.Purge()", "error", err)
				return
			}
			if n > 0 {
				slog.Info("purged expired sessions", "count", n)
			}
		})
		store = db
	}

	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			slog.Warn("SESSION_SECRET is not set, sessions are stored unsealed")
		}
		return store, nil
	}
	return session.NewSealed(store, cfg.SessionSecret)
}

func runCleanup(ctx context.Context, limiter *security.RateLimiter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(10 * time.Minute); n > 0 {
				slog.Debug("forgot idle rate limit clients", "count", n)
			}
		}
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}

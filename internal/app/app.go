package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pizza-shop/internal/dispatch"
	"github.com/xenking/pizza-shop/internal/domain/catalog"
	"github.com/xenking/pizza-shop/internal/domain/order"
	"github.com/xenking/pizza-shop/internal/handler"
	"github.com/xenking/pizza-shop/internal/notify"
	"github.com/xenking/pizza-shop/internal/storage/file"
	"github.com/xenking/pizza-shop/internal/storage/postgres"
	"github.com/xenking/pizza-shop/pkg/health"
	"github.com/xenking/pizza-shop/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	menu, err := catalog.Default()
	if err != nil {
		return errors.Wrap(err, "load menu catalog")
	}

	// Persistence sink and order number sequence: durable postgres when a
	// database is configured, local JSON files plus a file-backed counter
	// otherwise.
	var (
		store order.Store
		seq   order.Sequence
	)
	healthSvc := health.New()

	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		store = postgres.NewOrderStore(pool)
		seq = postgres.NewSequence(pool)
		healthSvc.AddReadiness("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		lg.Info("Using postgres order store")
	} else {
		fileStore, err := file.NewStore(cfg.OrdersDir)
		if err != nil {
			return errors.Wrap(err, "create file order store")
		}
		last, err := fileStore.LastNumber()
		if err != nil {
			return errors.Wrap(err, "scan existing orders")
		}
		fileSeq, err := file.NewSequence(cfg.OrdersDir, last)
		if err != nil {
			return errors.Wrap(err, "open order number counter")
		}

		store = fileStore
		seq = fileSeq
		lg.Info("Using file order store",
			zap.String("dir", cfg.OrdersDir),
			zap.Int64("last_order", last),
		)
	}

	// Notification sink.
	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewMailer(notify.MailerConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		lg.Info("Email delivery enabled", zap.String("smtp_host", cfg.SMTP.Host))
	} else {
		notifier = notify.NewLogNotifier(lg.Named("notify"))
		lg.Info("Email delivery disabled, confirmations go to the log")
	}

	dispatcher := dispatch.New(store, notifier, cfg.Notify.Timeout, lg.Named("dispatch"))

	sessions := handler.NewSessions(menu, cfg.Session.TTL)
	sessions.StartCleanup(ctx, cfg.Session.CleanupInterval)

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		menu,
		sessions,
		order.NewFinalizer(seq),
		dispatcher,
	)

	healthSvc.AddLiveness("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			// Logger goes in first so Recovery sees it when a panic unwinds.
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("pizza-shop", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone

	// Let in-flight confirmations reach the sinks before exiting.
	dispatcher.Wait()
	return nil
}

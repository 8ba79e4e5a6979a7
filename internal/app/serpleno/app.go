// Package serpleno собирает HTTP-приложение платформы: хранилище, кэш,
// брокер событий, сервисы и маршруты.
package serpleno

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/serpleno/serpleno/internal/cache"
	"github.com/serpleno/serpleno/internal/config"
	"github.com/serpleno/serpleno/internal/events"
	"github.com/serpleno/serpleno/internal/filestore"
	"github.com/serpleno/serpleno/internal/http/handlers/health"
	"github.com/serpleno/serpleno/internal/http/request"
	"github.com/serpleno/serpleno/internal/lib/jwt"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/metrics"
	"github.com/serpleno/serpleno/internal/migrations"
	"github.com/serpleno/serpleno/internal/paymentprovider"
	"github.com/serpleno/serpleno/internal/rabbitmq"
	accountservice "github.com/serpleno/serpleno/internal/services/account"
	adminservice "github.com/serpleno/serpleno/internal/services/admin"
	authservice "github.com/serpleno/serpleno/internal/services/auth"
	calendarservice "github.com/serpleno/serpleno/internal/services/calendar"
	contentservice "github.com/serpleno/serpleno/internal/services/content"
	notificationservice "github.com/serpleno/serpleno/internal/services/notification"
	paymentservice "github.com/serpleno/serpleno/internal/services/payment"
	scheduleservice "github.com/serpleno/serpleno/internal/services/schedule"
	uploadservice "github.com/serpleno/serpleno/internal/services/upload"
	"github.com/serpleno/serpleno/internal/storage"
	"github.com/serpleno/serpleno/internal/storage/memory"
	"github.com/serpleno/serpleno/internal/storage/postgresql"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}
	checks := make(map[string]health.Check)

	db, err := openStorage(ctx, cfg, checks)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	var contentCache contentservice.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, err
		}
		contentCache = redisCache
		checks["cache"] = redisCache.Ping
		a.closers = append(a.closers, func() { logClose(logger, "redis", redisCache.Close()) })
	}

	jwtMaker, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	if err != nil {
		a.close()
		return nil, err
	}

	files, err := filestore.NewLocal(cfg.UploadsDir, cfg.PublicBaseURL)
	if err != nil {
		a.close()
		return nil, err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	notificationService := notificationservice.NewNotificationService(db, logger)

	var publisher events.Publisher = events.Direct{Handle: notificationService.HandleBooked}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { logClose(logger, "rabbitmq connection", conn.Close()) })
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { logClose(logger, "rabbitmq channel", ch.Close()) })
		publisher = events.NewRabbit(rabbitmq.NewPublisher(ch, rabbitmq.Exchange))
		checks["broker"] = brokerCheck(conn)
		logger.Info("booking events go through rabbitmq")
	} else {
		logger.Info("booking events are handled in process")
	}

	var provider paymentservice.Provider
	if cfg.StripeSecretKey != "" {
		stripeClient, err := paymentprovider.NewClient(paymentprovider.Config{
			SecretKey:  cfg.StripeSecretKey,
			SuccessURL: cfg.SuccessURL,
			CancelURL:  cfg.CancelURL,
			Currency:   cfg.Currency,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		provider = stripeClient
	} else {
		logger.Warn("stripe secret key is not set, payments are disabled")
	}

	authService := authservice.NewAuthService(db, jwtMaker, logger)
	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			a.close()
			return nil, err
		}
	}

	deps := Deps{
		Logger:       logger,
		Verifier:     jwtMaker,
		Metrics:      m,
		Files:        files,
		Checks:       checks,
		Limits:       request.Limits{MaxMemory: cfg.MaxMemory, MaxBytes: cfg.MaxBody},
		RPS:          cfg.RPS,
		Burst:        cfg.Burst,
		Origins:      cfg.AllowedOrigins,
		Auth:         authService,
		Account:      accountservice.NewAccountService(db, jwtMaker, logger),
		Content:      contentservice.NewContentService(db, contentCache, files, cfg.CacheTTL, logger),
		Schedule:     scheduleservice.NewScheduleService(db, publisher, m, logger),
		Calendar:     calendarservice.NewCalendarService(db, logger),
		Upload:       uploadservice.NewUploadService(db, files, logger),
		Notification: notificationService,
		Admin:        adminservice.NewAdminService(db, logger),
		Payment:      paymentservice.NewPaymentService(db, provider, jwtMaker, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, deps)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close освобождает ресурсы в обратном порядке открытия.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openStorage(ctx context.Context, cfg *config.Config, checks map[string]health.Check) (storage.Gateway, error) {
	const op = "app.serpleno.openStorage"

	if cfg.Driver == config.DriverMemory {
		return memory.New(), nil
	}
	st, err := postgresql.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := migrations.Run(st.DB(), cfg.MigrationsPath); err != nil {
		st.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	checks["storage"] = st.DB().PingContext
	return st, nil
}

func brokerCheck(conn *amqp.Connection) health.Check {
	return func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("rabbitmq connection closed")
		}
		return nil
	}
}

// logClose пишет ошибку закрытия ресурса.
func logClose(log *slog.Logger, name string, err error) {
	if err != nil {
		log.Error("failed to close "+name, sl.Err(err))
	}
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/minhlq-dev/cinebook/internal/mailer"
	"github.com/minhlq-dev/cinebook/internal/notifier"
	"github.com/minhlq-dev/cinebook/internal/payment"
	"github.com/minhlq-dev/cinebook/internal/repository"
	"github.com/minhlq-dev/cinebook/internal/seathold"
	"github.com/minhlq-dev/cinebook/internal/token"
	appvalidator "github.com/minhlq-dev/cinebook/internal/validator"
	"github.com/minhlq-dev/cinebook/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/stripe/stripe-go/v82"
)

var (
	version = vcs.Version()
)

type application struct {
	config         config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	notifier       notifier.Notifier
	sessionManager *scs.SessionManager

	userRepo         domain.UserRepository
	showtimeRepo     domain.ShowtimeRepository
	scheduleSeatRepo domain.ScheduleSeatRepository
	ticketTypeRepo   domain.TicketTypeRepository
	productRepo      domain.ProductRepository
	promotionRepo    domain.PromotionRepository
	orderRepo        domain.OrderRepository

	gateways *payment.Registry
	seats    *seathold.Coordinator
	tokens   *token.Signer
}

type config struct {
	port int
	env  string
	db   struct {
		dsn            string
		maxOpenConns   int
		maxIdleTime    time.Duration
		automigrate    bool
		migrationsPath string
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	rabbitmq struct {
		url string
	}
	otel struct {
		collectorUrl string
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	seatHold struct {
		ttl time.Duration
	}
	admission struct {
		secret string
	}
	stripe struct {
		secretKey     string
		webhookSecret string
		successUrl    string
		failureUrl    string
	}
	vnpay struct {
		tmnCode    string
		hashSecret string
		baseUrl    string
		queryUrl   string
		returnUrl  string
	}
	momo struct {
		partnerCode string
		accessKey   string
		secretKey   string
		endpoint    string
		redirectUrl string
		ipnUrl      string
	}
	zalopay struct {
		appId       string
		key1        string
		key2        string
		endpoint    string
		callbackUrl string
	}
	paypal struct {
		clientId  string
		secret    string
		baseUrl   string
		returnUrl string
		cancelUrl string
		currency  string
	}
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")
	flag.BoolVar(&cfg.db.automigrate, "db-automigrate", false, "Run database migrations on startup")
	flag.StringVar(&cfg.db.migrationsPath, "db-migrations-path", "file://migrations", "Migrations source URL")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.rabbitmq.url, "rabbitmq-url", "", "RabbitMQ URL for seat events (empty disables publishing)")

	flag.StringVar(&cfg.otel.collectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL (empty disables telemetry export)")

	flag.StringVar(&cfg.smtp.host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "CineBook <no-reply@cinebook.example>", "SMTP sender")

	flag.DurationVar(&cfg.seatHold.ttl, "seat-hold-ttl", seathold.DefaultTTL, "Seat hold lease TTL")
	flag.StringVar(&cfg.admission.secret, "admission-secret", "", "HMAC secret for admission tokens")

	flag.StringVar(&cfg.stripe.secretKey, "stripe-key", "", "Stripe secret key")
	flag.StringVar(&cfg.stripe.webhookSecret, "stripe-webhook-secret", "", "Stripe webhook secret")
	flag.StringVar(&cfg.stripe.successUrl, "stripe-success-url", "https://example.com/success.html", "Stripe payment success page")
	flag.StringVar(&cfg.stripe.failureUrl, "stripe-failure-url", "https://example.com/failure.html", "Stripe payment failure page")

	flag.StringVar(&cfg.vnpay.tmnCode, "vnpay-tmn-code", "", "VNPay terminal code")
	flag.StringVar(&cfg.vnpay.hashSecret, "vnpay-hash-secret", "", "VNPay hash secret")
	flag.StringVar(&cfg.vnpay.baseUrl, "vnpay-base-url", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "VNPay payment URL")
	flag.StringVar(&cfg.vnpay.queryUrl, "vnpay-query-url", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction", "VNPay querydr URL")
	flag.StringVar(&cfg.vnpay.returnUrl, "vnpay-return-url", "", "VNPay client return URL")

	flag.StringVar(&cfg.momo.partnerCode, "momo-partner-code", "", "MoMo partner code")
	flag.StringVar(&cfg.momo.accessKey, "momo-access-key", "", "MoMo access key")
	flag.StringVar(&cfg.momo.secretKey, "momo-secret-key", "", "MoMo secret key")
	flag.StringVar(&cfg.momo.endpoint, "momo-endpoint", "https://test-payment.momo.vn", "MoMo API endpoint")
	flag.StringVar(&cfg.momo.redirectUrl, "momo-redirect-url", "", "MoMo client redirect URL")
	flag.StringVar(&cfg.momo.ipnUrl, "momo-ipn-url", "", "MoMo IPN callback URL")

	flag.StringVar(&cfg.zalopay.appId, "zalopay-app-id", "", "ZaloPay app id")
	flag.StringVar(&cfg.zalopay.key1, "zalopay-key1", "", "ZaloPay key1 (request signing)")
	flag.StringVar(&cfg.zalopay.key2, "zalopay-key2", "", "ZaloPay key2 (callback verification)")
	flag.StringVar(&cfg.zalopay.endpoint, "zalopay-endpoint", "https://sb-openapi.zalopay.vn", "ZaloPay API endpoint")
	flag.StringVar(&cfg.zalopay.callbackUrl, "zalopay-callback-url", "", "ZaloPay callback URL")

	flag.StringVar(&cfg.paypal.clientId, "paypal-client-id", "", "PayPal client id")
	flag.StringVar(&cfg.paypal.secret, "paypal-secret", "", "PayPal secret")
	flag.StringVar(&cfg.paypal.baseUrl, "paypal-base-url", "https://api-m.sandbox.paypal.com", "PayPal API base URL")
	flag.StringVar(&cfg.paypal.returnUrl, "paypal-return-url", "", "PayPal approval return URL")
	flag.StringVar(&cfg.paypal.cancelUrl, "paypal-cancel-url", "", "PayPal approval cancel URL")
	flag.StringVar(&cfg.paypal.currency, "paypal-currency", "USD", "PayPal charge currency")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	stripe.Key = cfg.stripe.secretKey

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	validator := appvalidator.NewValidator()

	db, err := newDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.db.automigrate {
		err = runMigrations(cfg.db.dsn, cfg.db.migrationsPath)
		if err != nil {
			logger.Error("failed to run migrations", "error", err)
			return err
		}
		logger.Info("database migrations applied")
	}

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var seatNotifier notifier.Notifier = notifier.NewMockNotifier()
	if cfg.rabbitmq.url != "" {
		amqpNotifier, err := notifier.NewAMQPNotifier(cfg.rabbitmq.url)
		if err != nil {
			return err
		}
		defer amqpNotifier.Close()
		seatNotifier = amqpNotifier
	}

	gateways := payment.NewRegistry(
		payment.NewCashGateway(),
		payment.NewVNPayGateway(payment.VNPayConfig{
			TmnCode:    cfg.vnpay.tmnCode,
			HashSecret: cfg.vnpay.hashSecret,
			BaseURL:    cfg.vnpay.baseUrl,
			QueryURL:   cfg.vnpay.queryUrl,
			ReturnURL:  cfg.vnpay.returnUrl,
		}),
		payment.NewMoMoGateway(payment.MoMoConfig{
			PartnerCode: cfg.momo.partnerCode,
			AccessKey:   cfg.momo.accessKey,
			SecretKey:   cfg.momo.secretKey,
			Endpoint:    cfg.momo.endpoint,
			RedirectURL: cfg.momo.redirectUrl,
			IPNURL:      cfg.momo.ipnUrl,
		}),
		payment.NewZaloPayGateway(payment.ZaloPayConfig{
			AppID:       cfg.zalopay.appId,
			Key1:        cfg.zalopay.key1,
			Key2:        cfg.zalopay.key2,
			Endpoint:    cfg.zalopay.endpoint,
			CallbackURL: cfg.zalopay.callbackUrl,
		}),
		payment.NewPayPalGateway(payment.PayPalConfig{
			ClientID:  cfg.paypal.clientId,
			Secret:    cfg.paypal.secret,
			BaseURL:   cfg.paypal.baseUrl,
			ReturnURL: cfg.paypal.returnUrl,
			CancelURL: cfg.paypal.cancelUrl,
			Currency:  cfg.paypal.currency,
		}),
		payment.NewStripeGateway(payment.StripeConfig{
			WebhookSecret: cfg.stripe.webhookSecret,
			SuccessURL:    cfg.stripe.successUrl,
			CancelURL:     cfg.stripe.failureUrl,
		}),
	)

	app := &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		redis:            redisClient,
		validator:        validator,
		mailer:           mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		notifier:         seatNotifier,
		sessionManager:   newSessionManager(redisClient),
		userRepo:         repository.NewPostgresUserRepository(db),
		showtimeRepo:     repository.NewPostgresShowtimeRepository(db),
		scheduleSeatRepo: repository.NewPostgresScheduleSeatRepository(db),
		ticketTypeRepo:   repository.NewPostgresTicketTypeRepository(db),
		productRepo:      repository.NewPostgresProductRepository(db),
		promotionRepo:    repository.NewPostgresPromotionRepository(db),
		orderRepo:        repository.NewPostgresOrderRepository(db),
		gateways:         gateways,
		seats:            seathold.NewCoordinator(seathold.NewRedisLeaseStore(redisClient), cfg.seatHold.ttl),
		tokens:           token.NewSigner(cfg.admission.secret),
	}

	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func newSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	err = redisotel.InstrumentTracing(rdb)
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigrations(dsn, migrationsPath string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "pgx", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (app *application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/healthcheck", app.GetHealth)

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/vnpay", app.VNPayWebhookHandler)
		r.Get("/vnpay", app.VNPayWebhookHandler)
		r.Post("/momo", app.MoMoWebhookHandler)
		r.Post("/zalopay", app.ZaloPayWebhookHandler)
		r.Post("/paypal", app.PayPalWebhookHandler)
		r.Post("/stripe", app.StripeWebhookHandler)
	})

	r.With(app.requireAuthentication).Route("/showtimes/{showtimeId}/holds", func(r chi.Router) {
		r.Post("/", app.HoldSeatsHandler)
		r.Delete("/", app.ReleaseSeatsHandler)
	})

	r.With(app.requireAuthentication).Route("/orders", func(r chi.Router) {
		r.Post("/", app.CreateOrderHandler)
		r.Get("/", app.ListOrdersHandler)

		r.Route("/{orderCode}", func(r chi.Router) {
			r.Get("/", app.GetOrderHandler)
			r.Post("/repay", app.RepayOrderHandler)
			r.Post("/cancel", app.CancelOrderHandler)

			r.With(app.requireStaff).Patch("/", app.UpdateOrderHandler)
			r.With(app.requireStaff).Post("/refund", app.RefundOrderHandler)
			r.With(app.requireStaff).Post("/reconcile", app.ReconcileOrderHandler)
		})
	})

	r.With(app.requireAuthentication, app.requireStaff).Post("/checkin", app.CheckinHandler)

	return r
}

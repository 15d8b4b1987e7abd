package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"icpep-backend/internal/analytics"
	analyticsapi "icpep-backend/internal/analytics/api"
	"icpep-backend/internal/announcement"
	announcementapi "icpep-backend/internal/announcement/api"
	announcementdb "icpep-backend/internal/announcement/db"
	"icpep-backend/internal/auth"
	authapi "icpep-backend/internal/auth/api"
	authdb "icpep-backend/internal/auth/db"
	"icpep-backend/internal/availability"
	availabilityapi "icpep-backend/internal/availability/api"
	availabilitydb "icpep-backend/internal/availability/db"
	"icpep-backend/internal/cache"
	"icpep-backend/internal/config"
	"icpep-backend/internal/database/migrations"
	"icpep-backend/internal/event"
	eventapi "icpep-backend/internal/event/api"
	eventdb "icpep-backend/internal/event/db"
	"icpep-backend/internal/faq"
	faqapi "icpep-backend/internal/faq/api"
	faqdb "icpep-backend/internal/faq/db"
	"icpep-backend/internal/kafka"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/media"
	mediaapi "icpep-backend/internal/media/api"
	"icpep-backend/internal/media/cloudinary"
	"icpep-backend/internal/membership"
	membershipapi "icpep-backend/internal/membership/api"
	membershipdb "icpep-backend/internal/membership/db"
	"icpep-backend/internal/mongodb"
	"icpep-backend/internal/notification"
	notificationapi "icpep-backend/internal/notification/api"
	notificationdb "icpep-backend/internal/notification/db"
	"icpep-backend/internal/qr"
	"icpep-backend/internal/roster"
	rosterapi "icpep-backend/internal/roster/api"
	rosterdb "icpep-backend/internal/roster/db"
	"icpep-backend/internal/server"
	"icpep-backend/internal/sponsor"
	sponsorapi "icpep-backend/internal/sponsor/api"
	sponsordb "icpep-backend/internal/sponsor/db"
	"icpep-backend/internal/sse"
)

func connectPostgres(ctx context.Context, cfg config.PostgresConfig, log *logger.Logger) *bun.DB {
	const maxRetries = 5
	var (
		sqldb *sql.DB
		err   error
	)
	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = sqldb.PingContext(pingCtx)
			cancel()
			if err == nil {
				break
			}
			_ = sqldb.Close()
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		time.Sleep(time.Duration(i+1) * 2 * time.Second)
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}
	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger("icpep-api")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	store, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("MongoDB connection error: %v", err))
	}
	defer func() { _ = store.Close(context.Background()) }()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to ensure indexes: %v", err))
	}

	// --- PostgreSQL (accounts) ---
	bunDB := connectPostgres(ctx, cfg.Postgres, log)
	defer bunDB.Close()
	if cfg.Postgres.AutoMigrate {
		runner := migrations.NewRunner(bunDB.DB, migrations.Options{MigrationsDir: cfg.Postgres.MigrationsDir}, log)
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
	}

	// --- Redis (optional) ---
	var rdb *redis.Client
	if client, err := cache.Connect(ctx, cfg.Redis, log); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Running without Redis: %v", err))
	} else {
		rdb = client
		defer rdb.Close()
	}
	locker := cache.NewLocker(rdb)
	denylist := cache.NewDenylist(rdb)
	responseCache := cache.NewResponseCache(rdb, cfg.Cache, log)
	limiter := cache.NewRateLimiter(rdb, cfg.RateLimit, log)

	// --- Notifications ---
	hub := sse.NewHub()
	notificationStore := notificationdb.New(store, log)
	notifications := notification.NewService(notificationStore, hub, log)

	var workers sync.WaitGroup
	var publisher notification.Publisher = notification.NewDirectPublisher(notifications)
	if cfg.Kafka.Enabled {
		topic := cfg.Kafka.Topics.Notifications
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{topic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, topic, log)
		defer producer.Close()
		publisher = notification.NewKafkaPublisher(producer)

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, log)
		defer consumer.Close()
		worker := notification.NewWorker(consumer, notifications)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("KAFKA", fmt.Sprintf("Notification worker stopped: %v", err))
			}
		}()
		log.Info("KAFKA", "Notification worker started")
	} else {
		log.Info("KAFKA", "Kafka disabled, delivering notifications in-process")
	}

	// --- Accounts ---
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	authService := auth.NewService(authdb.New(bunDB), tokens, denylist, cfg.Auth.RefreshTokenTTL, cfg.Auth.BcryptCost, log)
	if b := cfg.Bootstrap; b.AdminEmail != "" && b.AdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, b.AdminEmail, b.AdminName, b.AdminPassword)
		if err != nil {
			log.Fatal("AUTH", fmt.Sprintf("Failed to bootstrap admin: %v", err))
		}
		if created {
			log.LogSecurity("ADMIN_BOOTSTRAP", "Created initial admin "+b.AdminEmail)
		}
	}

	// --- Domain services ---
	passes, err := qr.NewPassGenerator(cfg.Auth.PassSecret)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid PASS_SECRET: %v", err))
	}
	eventStore := eventdb.New(store, log)
	membershipStore := membershipdb.New(store, log)
	announcementStore := announcementdb.New(store, log)
	sponsorStore := sponsordb.New(store, log)
	rosterStore := rosterdb.New(store, log)

	announcements := announcement.NewService(announcementStore, publisher, log)
	events := event.NewService(eventStore, locker, passes, publisher, log)
	memberships := membership.NewService(membershipStore, publisher, cfg.Membership.Term, log)
	rosterService := roster.NewService(rosterStore, rosterStore)
	sponsors := sponsor.NewService(sponsorStore)
	faqs := faq.NewService(faqdb.New(store, log))
	slots := availability.NewService(availabilitydb.New(store, log), locker, log)
	mediaService := media.NewService(cloudinary.New(cfg.Media), cfg.Media, log)
	if !mediaService.Configured() {
		log.Warn("MEDIA", "Cloudinary credentials missing, media uploads disabled")
	}
	dashboard := analytics.NewService(membershipStore, eventStore, announcementStore, sponsorStore, notificationStore)

	sweeper := membership.NewSweeper(memberships, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		sweeper.Run(ctx, cfg.Membership.SweepInterval)
	}()

	// --- HTTP ---
	authHandler := authapi.NewHandler(authService, log)
	authHandler.LoginLimiter = limiter.Middleware("login")

	checks := map[string]server.HealthCheck{
		"mongo":    store.Ping,
		"postgres": bunDB.PingContext,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	router := server.NewRouter(server.Options{
		Handlers: server.Handlers{
			Announcements: announcementapi.NewHandler(announcements, log),
			Events:        eventapi.NewHandler(events, log),
			Memberships:   membershipapi.NewHandler(memberships, log),
			Roster:        rosterapi.NewHandler(rosterService, log),
			Sponsors:      sponsorapi.NewHandler(sponsors, log),
			FAQs:          faqapi.NewHandler(faqs, log),
			Notifications: notificationapi.NewHandler(notifications, publisher, hub, log),
			Availability:  availabilityapi.NewHandler(slots, log),
			Auth:          authHandler,
			Media:         mediaapi.NewHandler(mediaService, cfg.Media.MaxUploadBytes, log),
			Dashboard:     analyticsapi.NewHandler(dashboard, log),
		},
		Tokens:         tokens,
		Denylist:       denylist,
		Cache:          responseCache,
		Limiter:        limiter,
		Checks:         checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	srv := server.NewHTTPServer(cfg.Server, router, hub.Close)

	go func() {
		log.Info("HTTP", "Server listening on "+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("Server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	}
	workers.Wait()
	log.Info("APP", "✅ Shutdown complete")
}

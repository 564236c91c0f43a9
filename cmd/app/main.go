package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/api"
	"github.com/zvrva/railbooking/config"
	"github.com/zvrva/railbooking/internal/bootstrap"
	"github.com/zvrva/railbooking/internal/cache"
	"github.com/zvrva/railbooking/internal/kafka"
	"github.com/zvrva/railbooking/internal/ledger"
	"github.com/zvrva/railbooking/internal/repository"
	"github.com/zvrva/railbooking/internal/service/auth"
	"github.com/zvrva/railbooking/internal/service/booking"
	"github.com/zvrva/railbooking/internal/service/catalog"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	tripsTTL := time.Duration(cfg.Booking.TripsCacheTTLSecond) * time.Second
	redisCache := cache.NewRedisCache(cfg.Redis, tripsTTL)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	stationRepo := repository.NewStationRepository(pool)
	trainRepo := repository.NewTrainRepository(pool)
	tripRepo := repository.NewTripRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	seatLedger := ledger.NewPGLedger(pool, time.Duration(cfg.Booking.LockTimeoutMillis)*time.Millisecond)

	catalogService := catalog.NewCatalogService(stationRepo, trainRepo, tripRepo, redisCache)
	bookingService := booking.NewBookingService(
		seatLedger,
		bookingRepo,
		paymentRepo,
		userRepo,
		producer,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	authService := auth.NewAuthService(
		userRepo,
		producer,
		cfg.Kafka.NotificationsTopic,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		cfg.Auth.BcryptCost,
	)

	router := api.NewRouter(api.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Catalog: api.NewCatalogHandler(catalogService),
		Booking: api.NewBookingHandler(bookingService),
		Admin:   api.NewAdminHandler(catalogService, bookingService),
	}, cfg.Auth.JWTSecret)

	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

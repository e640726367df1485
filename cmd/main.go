package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/cancel_booking"
	confirmReservationHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/confirm_reservation"
	createBookingHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/create_booking"
	getAvailableSeatsHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/get_available_seats"
	getBookingHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/get_booking"
	getBusBookingsHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/get_bus_bookings"
	getMyBookingsHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/get_my_bookings"
	releaseReservationHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/release_reservation"
	reserveHandler "github.com/m04kA/SMC-ShuttleService/internal/api/handlers/reserve"
	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/internal/config"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	reservationStore "github.com/m04kA/SMC-ShuttleService/internal/infra/reservation"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	bookingsService "github.com/m04kA/SMC-ShuttleService/internal/service/bookings"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	cancelBookingUC "github.com/m04kA/SMC-ShuttleService/internal/usecase/cancel_booking"
	createBookingUC "github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
	getAvailableSeatsUC "github.com/m04kA/SMC-ShuttleService/internal/usecase/get_available_seats"
	reservationUC "github.com/m04kA/SMC-ShuttleService/internal/usecase/reservation"
	"github.com/m04kA/SMC-ShuttleService/pkg/logger"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
)

func main() {
	configPath := "config.toml"
	if p := os.Getenv("SHUTTLE_CONFIG"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ShuttleService...")
	log.Info("Configuration loaded from %s", configPath)

	ctx := context.Background()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName, prometheus.DefaultRegisterer)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище сущностей
	store, err := openStorage(ctx, cfg.Database, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	if err := seedCatalog(ctx, store.buses, cfg.Catalog, log); err != nil {
		log.Fatal("Failed to seed catalog: %v", err)
	}

	// Redis нужен только для распределенных блокировок и резервов
	var redisClient *redis.Client
	if cfg.Lock.Backend == config.BackendRedis || cfg.Reservation.Backend == config.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
		}
		defer redisClient.Close()
		log.Info("Successfully connected to redis (addr=%s)", cfg.Redis.Addr)
	}

	// Менеджер блокировок ресурсов {bus}:{date}
	var lockManager lock.Manager
	switch cfg.Lock.Backend {
	case config.BackendRedis:
		lockManager = lock.NewRedisManager(redisClient, cfg.Lock.Prefix, cfg.Lock.LeaseTTL(), cfg.Lock.PollInterval())
	case config.BackendPostgres:
		lockDB, err := openLockDB(cfg.Database, cfg.Lock)
		if err != nil {
			log.Fatal("Failed to initialize lock pool: %v", err)
		}
		if err := lockDB.PingContext(ctx); err != nil {
			log.Fatal("Failed to connect lock pool: %v", err)
		}
		defer lockDB.Close()
		lockManager = lock.NewPostgresManager(lockDB, cfg.Lock.PollInterval())
	default:
		lockManager = lock.NewMemoryManager()
	}
	if metricsCollector != nil {
		lockManager = lock.Instrument(lockManager, cfg.Lock.Backend, metricsCollector)
	}
	log.Info("Lock manager initialized (backend=%s, acquire_timeout=%s)", cfg.Lock.Backend, cfg.Lock.AcquireTimeout())

	// Хранилище резервов
	var reservations reservationUC.ReservationStore
	switch cfg.Reservation.Backend {
	case config.BackendRedis:
		reservations = reservationStore.NewRedisStore(redisClient, cfg.Reservation.Prefix)
	default:
		reservations = reservationStore.NewMemoryStore(time.Now)
	}
	log.Info("Reservation store initialized (backend=%s, ttl=%s)", cfg.Reservation.Backend, cfg.Reservation.TTL())

	// Публикация событий бронирования
	var publisher *notifier.Publisher
	if cfg.Kafka.Enabled {
		publisher, err = notifier.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Fatal("Failed to create kafka publisher: %v", err)
		}
		log.Info("Kafka publisher initialized (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		publisher = notifier.NewLogPublisher(log)
		log.Info("Kafka disabled, booking events are written to log")
	}
	defer publisher.Close()

	// Правила бронирования
	policy, err := cfg.Booking.Policy()
	if err != nil {
		log.Fatal("Invalid booking policy: %v", err)
	}
	validator := capacity.NewValidator(policy)
	if policy.MaintenanceMode {
		log.Warn("Maintenance mode is on, new bookings and reservations are rejected")
	}

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		store.buses,
		store.bookings,
		store.waitlist,
		validator,
		lockManager,
		cfg.Lock.AcquireTimeout(),
		store.txManager,
		publisher,
		metricsCollector,
		log,
	)

	cancelBookingUseCase := cancelBookingUC.NewUseCase(
		store.buses,
		store.bookings,
		store.waitlist,
		validator,
		lockManager,
		cfg.Lock.AcquireTimeout(),
		store.txManager,
		publisher,
		metricsCollector,
		log,
	)

	reservationUseCase := reservationUC.NewUseCase(
		store.buses,
		reservations,
		createBookingUseCase,
		lockManager,
		reservationUC.Config{
			TTL:             cfg.Reservation.TTL(),
			Secret:          []byte(cfg.Reservation.Secret),
			LockTimeout:     cfg.Lock.AcquireTimeout(),
			MaintenanceMode: policy.MaintenanceMode,
		},
		metricsCollector,
		log,
	)

	getAvailableSeatsUseCase := getAvailableSeatsUC.NewUseCase(
		store.buses,
		store.bookings,
		store.waitlist,
		validator,
		log,
	)

	bookingSvc := bookingsService.NewService(
		store.buses,
		store.bookings,
		store.waitlist,
		store.txManager,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	reserve := reserveHandler.NewHandler(reservationUseCase, log)
	confirmReservation := confirmReservationHandler.NewHandler(reservationUseCase, log)
	releaseReservation := releaseReservationHandler.NewHandler(reservationUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getBusBookings := getBusBookingsHandler.NewHandler(bookingSvc, log)
	getMyBookings := getMyBookingsHandler.NewHandler(bookingSvc, log)
	getAvailableSeats := getAvailableSeatsHandler.NewHandler(getAvailableSeatsUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Загрузка рейсов на дату
	api.HandleFunc("/buses", getAvailableSeats.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-Employee-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window()))
		log.Info("Rate limit enabled: %d requests per %s per employee", cfg.RateLimit.Requests, cfg.RateLimit.Window())
	}

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// --- Резервы ---
	protected.HandleFunc("/reservations", reserve.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/confirm", confirmReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{busId}/{date}", releaseReservation.Handle).Methods(http.MethodDelete)

	// --- Просмотр ---
	protected.HandleFunc("/buses/{busId}/bookings", getBusBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/employees/me/bookings", getMyBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

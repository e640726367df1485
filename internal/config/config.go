package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Переменные окружения с секретами, перекрывающие значения из файла
const (
	EnvDBPassword        = "SHUTTLE_DB_PASSWORD"
	EnvRedisPassword     = "SHUTTLE_REDIS_PASSWORD"
	EnvReservationSecret = "SHUTTLE_RESERVATION_SECRET"
)

// ErrInvalidConfig возвращается при некорректной конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Logs        LogsConfig        `toml:"logs"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	Lock        LockConfig        `toml:"lock"`
	Reservation ReservationConfig `toml:"reservation"`
	Booking     BookingConfig     `toml:"booking"`
	Kafka       KafkaConfig       `toml:"kafka"`
	Metrics     MetricsConfig     `toml:"metrics"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
	Catalog     CatalogConfig     `toml:"catalog"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // пусто = только stdout
}

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig настройки хранилища сущностей
type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	Path            string `toml:"path"` // файл sqlite
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для выбранного драйвера
func (c DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverSQLite:
		return "file:" + c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     c.DBName,
			RawQuery: "sslmode=" + c.SSLMode,
		}
		return u.String()
	}
}

// RedisConfig настройки подключения к Redis
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Backend блокировок и резервов
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// LockConfig настройки менеджера блокировок
type LockConfig struct {
	Backend          string `toml:"backend"`
	AcquireTimeoutMs int    `toml:"acquire_timeout_ms"`
	PollIntervalMs   int    `toml:"poll_interval_ms"`
	LeaseTTLMs       int    `toml:"lease_ttl_ms"`
	Prefix           string `toml:"prefix"`
	// MaxConns размер отдельного пула соединений для advisory-локов (backend = postgres)
	MaxConns int `toml:"max_conns"`
}

// AcquireTimeout время ожидания блокировки
func (c LockConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMs) * time.Millisecond
}

// PollInterval интервал повторных попыток
func (c LockConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// LeaseTTL время жизни блокировки в Redis
func (c LockConfig) LeaseTTL() time.Duration {
	return time.Duration(c.LeaseTTLMs) * time.Millisecond
}

// ReservationConfig настройки мягкого резервирования
type ReservationConfig struct {
	Backend    string `toml:"backend"`
	TTLSeconds int    `toml:"ttl_seconds"`
	Secret     string `toml:"secret"`
	Prefix     string `toml:"prefix"`
}

// TTL время жизни резерва
func (c ReservationConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// BookingConfig правила бронирования
type BookingConfig struct {
	Timezone          string `toml:"timezone"`
	CutoffEnabled     *bool  `toml:"cutoff_enabled"`
	CutoffMinutes     int    `toml:"cutoff_minutes"`
	MaxBookingsPerDay *int   `toml:"max_bookings_per_day"` // 0 = без ограничения
	MaintenanceMode   bool   `toml:"maintenance_mode"`
}

// Policy собирает доменную политику бронирования
func (c BookingConfig) Policy() (domain.BookingPolicy, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return domain.BookingPolicy{}, fmt.Errorf("%w: booking.timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return domain.BookingPolicy{
		Location:          loc,
		CutoffEnabled:     *c.CutoffEnabled,
		CutoffMinutes:     c.CutoffMinutes,
		MaxBookingsPerDay: *c.MaxBookingsPerDay,
		MaintenanceMode:   c.MaintenanceMode,
	}, nil
}

// KafkaConfig настройки публикации событий
type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// MetricsConfig настройки метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RateLimitConfig ограничение частоты запросов на сотрудника (скользящее окно)
type RateLimitConfig struct {
	Enabled       bool `toml:"enabled"`
	Requests      int  `toml:"requests"`
	WindowSeconds int  `toml:"window_seconds"`
}

// Window длительность окна
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// CatalogConfig начальное наполнение каталога автобусов
type CatalogConfig struct {
	Buses []BusConfig `toml:"buses"`
}

// BusConfig автобус каталога
type BusConfig struct {
	ID            string `toml:"id"`
	Route         string `toml:"route"`
	Capacity      int    `toml:"capacity"`
	DepartureTime string `toml:"departure_time"` // "HH:MM"
	Slot          string `toml:"slot"`
	Active        *bool  `toml:"active"`
}

// ToDomain конвертирует запись каталога в доменную модель
func (b BusConfig) ToDomain(now time.Time) *domain.Bus {
	active := true
	if b.Active != nil {
		active = *b.Active
	}
	return &domain.Bus{
		ID:            b.ID,
		Route:         b.Route,
		Capacity:      b.Capacity,
		DepartureTime: types.TimeString(b.DepartureTime),
		Slot:          b.Slot,
		Active:        active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Load читает конфигурацию из TOML файла
// Перед чтением подгружается необязательный .env, затем секреты перекрываются переменными окружения
func Load(path string) (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvDBPassword); ok {
		cfg.Database.Password = v
	}
	if v, ok := os.LookupEnv(EnvRedisPassword); ok {
		cfg.Redis.Password = v
	}
	if v, ok := os.LookupEnv(EnvReservationSecret); ok {
		cfg.Reservation.Secret = v
	}
}

func applyDefaults(cfg *Config) {
	setInt(&cfg.Server.HTTPPort, 8080)
	setInt(&cfg.Server.ReadTimeout, 15)
	setInt(&cfg.Server.WriteTimeout, 15)
	setInt(&cfg.Server.IdleTimeout, 60)
	setInt(&cfg.Server.ShutdownTimeout, 30)

	setString(&cfg.Logs.Level, "info")

	setString(&cfg.Database.Driver, DriverPostgres)
	setString(&cfg.Database.SSLMode, "disable")
	setString(&cfg.Database.Path, "shuttle.db")
	setInt(&cfg.Database.Port, 5432)
	setInt(&cfg.Database.MaxOpenConns, 25)
	setInt(&cfg.Database.MaxIdleConns, 5)
	setInt(&cfg.Database.ConnMaxLifetime, 300)

	setString(&cfg.Redis.Addr, "localhost:6379")

	setString(&cfg.Lock.Backend, BackendMemory)
	setInt(&cfg.Lock.AcquireTimeoutMs, int(domain.DefaultLockAcquireTimeout/time.Millisecond))
	setInt(&cfg.Lock.PollIntervalMs, int(domain.DefaultLockPollInterval/time.Millisecond))
	setInt(&cfg.Lock.LeaseTTLMs, int(domain.DefaultLockLeaseTTL/time.Millisecond))
	setInt(&cfg.Lock.MaxConns, 10)

	setString(&cfg.Reservation.Backend, BackendMemory)
	setInt(&cfg.Reservation.TTLSeconds, int(domain.DefaultReservationTTL/time.Second))

	setString(&cfg.Booking.Timezone, "UTC")
	setInt(&cfg.Booking.CutoffMinutes, domain.DefaultCutoffMinutes)
	if cfg.Booking.CutoffEnabled == nil {
		enabled := true
		cfg.Booking.CutoffEnabled = &enabled
	}
	if cfg.Booking.MaxBookingsPerDay == nil {
		limit := domain.DefaultMaxBookingsPerDay
		cfg.Booking.MaxBookingsPerDay = &limit
	}

	setString(&cfg.Kafka.Topic, "shuttle-booking-events")

	setString(&cfg.Metrics.Path, "/metrics")
	setString(&cfg.Metrics.ServiceName, "shuttle-service")

	setInt(&cfg.RateLimit.Requests, 50)
	setInt(&cfg.RateLimit.WindowSeconds, 10)
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			problems = append(problems, "database.host and database.dbname are required for postgres")
		}
	case DriverSQLite, DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
	}

	switch c.Lock.Backend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.Database.Driver != DriverPostgres {
			problems = append(problems, "lock.backend = postgres requires database.driver = postgres")
		}
		if c.Lock.MaxConns < 1 {
			problems = append(problems, "lock.max_conns must be positive")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown lock.backend %q", c.Lock.Backend))
	}

	switch c.Reservation.Backend {
	case BackendMemory, BackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown reservation.backend %q", c.Reservation.Backend))
	}

	if c.Reservation.Secret == "" {
		problems = append(problems, "reservation.secret is required (or "+EnvReservationSecret+")")
	}
	if c.Booking.CutoffMinutes < 0 {
		problems = append(problems, "booking.cutoff_minutes must not be negative")
	}
	if *c.Booking.MaxBookingsPerDay < 0 {
		problems = append(problems, "booking.max_bookings_per_day must not be negative")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown booking.timezone %q", c.Booking.Timezone))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		problems = append(problems, "kafka.brokers is required when kafka is enabled")
	}

	seen := make(map[string]struct{}, len(c.Catalog.Buses))
	for i, b := range c.Catalog.Buses {
		if b.ID == "" {
			problems = append(problems, fmt.Sprintf("catalog.buses[%d]: id is required", i))
			continue
		}
		if _, dup := seen[b.ID]; dup {
			problems = append(problems, fmt.Sprintf("catalog.buses[%d]: duplicate id %q", i, b.ID))
		}
		seen[b.ID] = struct{}{}
		if b.Capacity <= 0 {
			problems = append(problems, fmt.Sprintf("catalog.buses[%d]: capacity must be positive", i))
		}
		if err := types.TimeString(b.DepartureTime).Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("catalog.buses[%d]: departure_time: %v", i, err))
		}
		if strings.TrimSpace(b.Slot) == "" {
			problems = append(problems, fmt.Sprintf("catalog.buses[%d]: slot is required", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

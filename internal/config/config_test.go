package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
[database]
driver = "sqlite"
path = "shuttle.db"

[reservation]
secret = "from-file"

[[catalog.buses]]
id = "B1"
route = "Office - Metro"
capacity = 40
departure_time = "07:30"
slot = "morning"

[[catalog.buses]]
id = "B9"
route = "Retired"
capacity = 10
departure_time = "18:10"
slot = "evening"
active = false
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "info", cfg.Logs.Level)
	assert.Equal(t, BackendMemory, cfg.Lock.Backend)
	assert.Equal(t, 3*time.Second, cfg.Lock.AcquireTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.Lock.PollInterval())
	assert.Equal(t, 10, cfg.Lock.MaxConns)
	assert.Equal(t, 50, cfg.RateLimit.Requests)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window())
	assert.Equal(t, 30*time.Second, cfg.Reservation.TTL())

	policy, err := cfg.Booking.Policy()
	require.NoError(t, err)
	assert.True(t, policy.CutoffEnabled)
	assert.Equal(t, 15, policy.CutoffMinutes)
	assert.Equal(t, 2, policy.MaxBookingsPerDay)
	assert.Equal(t, time.UTC, policy.Loc())

	require.Len(t, cfg.Catalog.Buses, 2)
	now := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, cfg.Catalog.Buses[0].ToDomain(now).Active)
	assert.False(t, cfg.Catalog.Buses[1].ToDomain(now).Active)
	assert.Equal(t, "07:30", cfg.Catalog.Buses[0].ToDomain(now).DepartureTime.String())
}

func TestLoad_ExplicitZeroLimitAndDisabledCutoff(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
[booking]
timezone = "Europe/Moscow"
cutoff_enabled = false
max_bookings_per_day = 0
`))
	require.NoError(t, err)

	policy, err := cfg.Booking.Policy()
	require.NoError(t, err)
	assert.False(t, policy.CutoffEnabled)
	assert.False(t, policy.HasDailyLimit())
	assert.Equal(t, "Europe/Moscow", policy.Loc().String())
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvReservationSecret, "from-env")
	t.Setenv(EnvDBPassword, "p@ss")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Reservation.Secret)
	assert.Equal(t, "p@ss", cfg.Database.Password)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown driver",
			body: "[database]\ndriver = \"mysql\"\n[reservation]\nsecret = \"s\"\n",
			want: "unknown database.driver",
		},
		{
			name: "postgres lock without postgres",
			body: "[database]\ndriver = \"memory\"\n[lock]\nbackend = \"postgres\"\n[reservation]\nsecret = \"s\"\n",
			want: "requires database.driver = postgres",
		},
		{
			name: "empty lock pool",
			body: "[database]\ndriver = \"postgres\"\nhost = \"db\"\ndbname = \"shuttle\"\n[lock]\nbackend = \"postgres\"\nmax_conns = -1\n[reservation]\nsecret = \"s\"\n",
			want: "lock.max_conns must be positive",
		},
		{
			name: "missing secret",
			body: "[database]\ndriver = \"memory\"\n",
			want: "reservation.secret is required",
		},
		{
			name: "bad bus",
			body: "[database]\ndriver = \"memory\"\n[reservation]\nsecret = \"s\"\n[[catalog.buses]]\nid = \"B1\"\ncapacity = 0\ndeparture_time = \"7:3\"\nslot = \"morning\"\n",
			want: "capacity must be positive",
		},
		{
			name: "kafka without brokers",
			body: "[database]\ndriver = \"memory\"\n[reservation]\nsecret = \"s\"\n[kafka]\nenabled = true\n",
			want: "kafka.brokers is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "shuttle", Password: "p@ss", DBName: "shuttle", SSLMode: "disable"}
	assert.Equal(t, "postgres://shuttle:p%40ss@db:5432/shuttle?sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/s.db"}
	assert.Contains(t, lite.DSN(), "file:/tmp/s.db?")
}

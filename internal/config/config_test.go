package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SCHEDULER_INTERVAL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, 5, cfg.Scheduler.Threshold)
	assert.Equal(t, []string{"10:00", "14:00", "18:00", "21:00"}, cfg.Scheduler.Showtimes)
	assert.Equal(t, []int64{1000, 1250, 1500, 1250}, cfg.Scheduler.PricesCents)
}

func TestLoad_MySQLRequiresCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	d := DBConfig{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "movies"}
	assert.Equal(t, "app:pw@tcp(db:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC", d.DSN())

	d.Pass = ""
	assert.Equal(t, "app@tcp(db:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC", d.DSN())
}

func TestSchedulerConfig_Validate(t *testing.T) {
	t.Setenv("SCHEDULER_SHOWTIMES", "10:00,14:00")
	t.Setenv("SCHEDULER_PRICES", "10.00")
	_, err := LoadSchedulerConfig()
	assert.Error(t, err)

	t.Setenv("SCHEDULER_PRICES", "10,9.5")
	cfg, err := LoadSchedulerConfig()
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 950}, cfg.PricesCents)

	t.Setenv("SCHEDULER_SHOWTIMES", "25:00,14:00")
	_, err = LoadSchedulerConfig()
	assert.Error(t, err)
}

func TestParsePrices_Rejects(t *testing.T) {
	for _, bad := range []string{"abc", "1.234", "-1.00", "-0.50", "10.-5", "10.+5", "+10", ".50", "10. 5"} {
		_, err := parsePrices(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePrices(t *testing.T) {
	got, err := parsePrices("10.00, 12.5,15,0.05")
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 1250, 1500, 5}, got)
}

func TestSchedulerConfig_TotalSeatsBounds(t *testing.T) {
	t.Setenv("SCHEDULER_TOTAL_SEATS", "260")
	cfg, err := LoadSchedulerConfig()
	require.NoError(t, err)
	assert.Equal(t, 260, cfg.TotalSeats)

	for _, bad := range []string{"261", "300", "0"} {
		t.Setenv("SCHEDULER_TOTAL_SEATS", bad)
		_, err := LoadSchedulerConfig()
		assert.Error(t, err, bad)
	}
}

func TestRateLimitConfig_Normalize(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: time.Second}.normalize()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
}

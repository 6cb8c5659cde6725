package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":    "test",
		"APP_PORT":   "8080",
		"DB_USER":    "app",
		"DB_HOST":    "localhost",
		"DB_PORT":    "3306",
		"DB_NAME":    "reservations",
		"JWT_SECRET": "secret",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	t.Setenv("ADMIN_EMAIL", " Admin@Example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.False(t, cfg.IsProduction())
}

func TestLoadReportsEveryMissingVariable(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), `BCRYPT_COST="lots"`)
}

func TestLoadBookingConfig(t *testing.T) {
	t.Setenv("TURNAROUND", "90m")
	t.Setenv("AVAILABILITY_TOLERANCE", "")
	t.Setenv("RESTAURANT_TZ", "Asia/Kolkata")
	t.Setenv("RETIRED_SECTIONS", "Rooftop, Patio ,")

	cfg, err := LoadBookingConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Turnaround)
	assert.Equal(t, 2*time.Hour, cfg.Tolerance)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, []string{"Rooftop", "Patio"}, cfg.RetiredSections)
}

func TestLoadBookingConfigRejectsBadZone(t *testing.T) {
	t.Setenv("RESTAURANT_TZ", "Mars/Olympus")
	_, err := LoadBookingConfig()
	assert.Error(t, err)
}

func TestServiceHoursSlots(t *testing.T) {
	tests := []struct {
		name     string
		hours    string
		interval string
		want     []time.Duration
		wantErr  bool
	}{
		{
			name:     "two sittings",
			hours:    "11:00-12:00, 18:30-19:30",
			interval: "30m",
			want: []time.Duration{
				11 * time.Hour, 11*time.Hour + 30*time.Minute, 12 * time.Hour,
				18*time.Hour + 30*time.Minute, 19 * time.Hour, 19*time.Hour + 30*time.Minute,
			},
		},
		{
			name:     "last start off the grid",
			hours:    "18:00-19:45",
			interval: "1h",
			want:     []time.Duration{18 * time.Hour, 19 * time.Hour},
		},
		{name: "reversed", hours: "22:00-18:00", interval: "30m", wantErr: true},
		{name: "garbage", hours: "dinner", interval: "30m", wantErr: true},
		{name: "zero interval", hours: "18:00-20:00", interval: "0s", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SERVICE_HOURS", tt.hours)
			t.Setenv("SLOT_INTERVAL", tt.interval)
			cfg, err := LoadBookingConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Slots())
		})
	}
}

func TestRateLimitPerSecond(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "500ms")
	cfg := LoadRateLimitConfig()
	assert.InDelta(t, 2.0, cfg.PerSecond(), 0.0001)
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/utils"
)

const secret = "test-secret"

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStaffAuthAndRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		id, ok := StaffID(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"id": id})
	}, StaffAuth(secret), RequireRole("ADMIN"))

	admin, err := utils.NewAccessToken(secret, 7, "ADMIN", 5)
	require.NoError(t, err)
	host, err := utils.NewAccessToken(secret, 8, "HOST", 5)
	require.NoError(t, err)
	forged, err := utils.NewAccessToken("other-secret", 7, "ADMIN", 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged.Token, http.StatusUnauthorized},
		{"wrong role", "Bearer " + host.Token, http.StatusForbidden},
		{"admin", "Bearer " + admin.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"id":7}`, rec.Body.String())
			}
		})
	}
}

func TestTokenBucketFallsBackToLocal(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "guest",
		Prefix:         "test",
	}
	e := echo.New()
	e.GET("/chat", ok, NewTokenBucket(cfg, nil, zap.NewNop()))

	call := func(session string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.Header.Set(SessionHeader, session)
		return serve(e, req)
	}
	assert.Equal(t, http.StatusOK, call("a").Code)
	assert.Equal(t, http.StatusOK, call("a").Code)
	rec := call("a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// separate guests get separate buckets
	assert.Equal(t, http.StatusOK, call("b").Code)
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/x", ok, NewTokenBucket(config.RateLimitConfig{}, nil, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", ok)
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = serve(e, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusBadGateway, entries[1].ContextMap()["status"])
}

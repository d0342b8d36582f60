package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		uid, ok := UserID(c)
		require.True(t, ok)
		return c.String(http.StatusOK, strconv.FormatUint(uid, 10))
	}, JWTAuth("secret"))

	tok, err := utils.NewAccessToken("secret", 17, time.Hour)
	require.NoError(t, err)
	rec := do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + tok.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "17", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", nil).Code)

	other, err := utils.NewAccessToken("other", 17, time.Hour)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + other.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := utils.NewAccessToken("secret", 17, -time.Minute)
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + expired.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_StoresOnlyUserID(t *testing.T) {
	e := echo.New()
	var keys []string
	e.GET("/me", func(c echo.Context) error {
		for _, k := range []string{ctxUserID, "role", "sub"} {
			if c.Get(k) != nil {
				keys = append(keys, k)
			}
		}
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth("secret"))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "5",
		"role": "owner",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + signed})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{ctxUserID}, keys)
}

func TestJWTAuth_RejectsOtherAlgorithms(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, JWTAuth("secret"))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "5",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + signed})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseUserID(t *testing.T) {
	cases := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{uint64(5), 5, true},
		{float64(7), 7, true},
		{float64(7.5), 0, false},
		{"12", 12, true},
		{"abc", 0, false},
		{"0", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseUserID(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCache_HitAfterMiss(t *testing.T) {
	_, rdb := newRedis(t)
	var calls atomic.Int32
	e := echo.New()
	e.GET("/v1/screenings/:id", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, NewRedisCache(cacheConfig(), rdb, zerolog.Nop()))

	first := do(e, http.MethodGet, "/v1/screenings/1", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/v1/screenings/1", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))

	other := do(e, http.MethodGet, "/v1/screenings/2", nil)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"), "params are part of the key")
	assert.Equal(t, int32(2), calls.Load())

	n, err := PurgeCache(context.Background(), rdb, "cache")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/v1/screenings/1", nil).Header().Get("X-Cache"))
}

func TestRedisCache_SkipsErrorsAndLargeBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 8
	e := echo.New()
	mw := NewRedisCache(cfg, rdb, zerolog.Nop())
	e.GET("/missing", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "x"})
	}, mw)
	e.GET("/big", func(c echo.Context) error {
		return c.String(http.StatusOK, "0123456789abcdef")
	}, mw)

	do(e, http.MethodGet, "/missing", nil)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/missing", nil).Header().Get("X-Cache"))
	do(e, http.MethodGet, "/big", nil)
	rec := do(e, http.MethodGet, "/big", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "0123456789abcdef", rec.Body.String())
}

func TestRedisCache_DisabledWithoutClient(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewRedisCache(cacheConfig(), nil, zerolog.Nop()))
	rec := do(e, http.MethodGet, "/x", nil)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	}
}

func exerciseLimiter(t *testing.T, lim Limiter) {
	t.Helper()
	e := echo.New()
	e.POST("/v1/reservations", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		NewRateLimit(rateConfig(), lim, zerolog.Nop()))

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodPost, "/v1/reservations", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := do(e, http.MethodPost, "/v1/reservations", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
}

func TestRateLimit_RedisBucket(t *testing.T) {
	_, rdb := newRedis(t)
	exerciseLimiter(t, NewRedisBucket(rateConfig(), rdb))
}

func TestRateLimit_LocalLimiter(t *testing.T) {
	exerciseLimiter(t, NewLocalLimiter(rateConfig()))
}

func TestRedisBucket_Refills(t *testing.T) {
	_, rdb := newRedis(t)
	b := NewRedisBucket(rateConfig(), rdb)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := b.Take(ctx, "k")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := b.Take(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	now = now.Add(time.Minute)
	d, err = b.Take(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
}

func TestRateLimit_FailsOpenOnRedisError(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	e := echo.New()
	e.POST("/r", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewRateLimit(rateConfig(), NewRedisBucket(rateConfig(), rdb), zerolog.Nop()))
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/r", nil).Code)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(zerolog.Nop()))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") })

	rec := do(e, http.MethodGet, "/ok", nil)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(e, http.MethodGet, "/ok", map[string]string{echo.HeaderXRequestID: "abc"})
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))

	rec = do(e, http.MethodGet, "/fail", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

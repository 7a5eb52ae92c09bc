package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAPIAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", okHandler, APIAuth("secret"))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Token", "wrong")
	require.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Token", "secret")
	require.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestAPIAuth_EmptyKeyRejects(t *testing.T) {
	e := echo.New()
	e.GET("/x", okHandler, APIAuth(""))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Token", "anything")
	require.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	var seen string
	e.GET("/x", func(c echo.Context) error {
		seen, _ = c.Get(ContextRequestID).(string)
		return c.NoContent(http.StatusOK)
	}, RequestID())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = serve(e, req)
	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestMemoryKeyClaimer(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newMemoryKeyClaimer(time.Minute)
	c.now = func() time.Time { return now }

	dup, err := c.Claim(context.Background(), "k1")
	require.NoError(t, err)
	require.False(t, dup)

	dup, _ = c.Claim(context.Background(), "k1")
	require.True(t, dup)

	dup, _ = c.Claim(context.Background(), "k2")
	require.False(t, dup)

	now = now.Add(2 * time.Minute)
	dup, _ = c.Claim(context.Background(), "k1")
	require.False(t, dup)
}

func TestMemoryKeyClaimer_Release(t *testing.T) {
	c := newMemoryKeyClaimer(time.Minute)

	dup, _ := c.Claim(context.Background(), "k1")
	require.False(t, dup)
	require.NoError(t, c.Release(context.Background(), "k1"))

	dup, _ = c.Claim(context.Background(), "k1")
	require.False(t, dup)
	dup, _ = c.Claim(context.Background(), "k1")
	require.True(t, dup)
}

func TestNewKeyClaimer_FallsBackWithoutRedis(t *testing.T) {
	c, err := NewKeyClaimer("", "", 0, 0)
	require.NoError(t, err)
	require.IsType(t, &memoryKeyClaimer{}, c)

	c, err = NewKeyClaimer("127.0.0.1:1", "", 0, time.Minute)
	require.Error(t, err)
	require.IsType(t, &memoryKeyClaimer{}, c)
}

type failingClaimer struct{}

func (failingClaimer) Claim(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (failingClaimer) Release(context.Context, string) error {
	return errors.New("redis down")
}

func TestIdempotency(t *testing.T) {
	e := echo.New()
	e.POST("/x", okHandler, Idempotency(newMemoryKeyClaimer(time.Minute)))

	newReq := func(key string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		return req
	}

	require.Equal(t, http.StatusOK, serve(e, newReq("order-1")).Code)
	require.Equal(t, http.StatusConflict, serve(e, newReq("order-1")).Code)
	require.Equal(t, http.StatusOK, serve(e, newReq("order-2")).Code)
	require.Equal(t, http.StatusOK, serve(e, newReq("")).Code)
	require.Equal(t, http.StatusOK, serve(e, newReq("")).Code)
}

func TestIdempotency_ClaimerErrorPassesThrough(t *testing.T) {
	e := echo.New()
	e.POST("/x", okHandler, Idempotency(failingClaimer{}))

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	require.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestIdempotency_FailedRequestReleasesKey(t *testing.T) {
	status := http.StatusBadGateway
	e := echo.New()
	e.POST("/x", func(c echo.Context) error {
		return c.NoContent(status)
	}, Idempotency(newMemoryKeyClaimer(time.Minute)))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(HeaderIdempotencyKey, "order-1")
		return req
	}

	require.Equal(t, http.StatusBadGateway, serve(e, newReq()).Code)

	status = http.StatusOK
	require.Equal(t, http.StatusOK, serve(e, newReq()).Code)
	require.Equal(t, http.StatusConflict, serve(e, newReq()).Code)
}

func TestIdempotency_HandlerErrorReleasesKey(t *testing.T) {
	fail := true
	e := echo.New()
	e.POST("/x", func(c echo.Context) error {
		if fail {
			return echo.NewHTTPError(http.StatusInternalServerError, "boom")
		}
		return c.NoContent(http.StatusOK)
	}, Idempotency(newMemoryKeyClaimer(time.Minute)))

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "order-1")
	require.Equal(t, http.StatusInternalServerError, serve(e, req).Code)

	fail = false
	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "order-1")
	require.Equal(t, http.StatusOK, serve(e, req).Code)
}

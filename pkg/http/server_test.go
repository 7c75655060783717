package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error {
		return SuccessResponse(c, map[string]string{"hello": "world"})
	})
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundError("nothing here"))
	})
	e.GET("/busy", func(c echo.Context) error {
		return AppErrorResponse(c, ServiceUnavailableError("warming up"))
	})
	e.GET("/boom", func(c echo.Context) error {
		panic("kaboom")
	})
	e.GET("/cached", func(c echo.Context) error {
		CacheControl(c, 30)
		return SuccessResponse(c, nil)
	})
}

func do(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s: decode: %v (%s)", target, err, rec.Body.String())
	}
	return rec, body
}

func TestServerEnvelopeStatus(t *testing.T) {
	s := NewServer(routes{})
	for target, want := range map[string]int{
		"/ok":      http.StatusOK,
		"/missing": http.StatusNotFound,
		"/busy":    http.StatusServiceUnavailable,
		"/boom":    http.StatusInternalServerError,
	} {
		rec, body := do(t, s, target)
		if rec.Code != want || body.Status != want {
			t.Fatalf("%s: http %d envelope %d, want %d", target, rec.Code, body.Status, want)
		}
	}
}

func TestServerCORSHeaders(t *testing.T) {
	s := NewServer(routes{})
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://example.test")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.test" {
		t.Fatalf("allow origin %q", got)
	}
}

func TestCacheControl(t *testing.T) {
	s := NewServer(routes{}, WithCORS(false))
	rec, _ := do(t, s, "/cached")
	if got := rec.Header().Get(echo.HeaderCacheControl); got != "public, max-age=30" {
		t.Fatalf("cache control %q", got)
	}
}

func TestServerUnknownRouteUsesEnvelope(t *testing.T) {
	s := NewServer(routes{})
	rec, body := do(t, s, "/nope")
	if rec.Code != http.StatusNotFound || body.Status != http.StatusNotFound || body.Message != "Not Found" {
		t.Fatalf("unexpected %d %+v", rec.Code, body)
	}
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(routes{}, WithConfig(ServerConfig{Host: "127.0.0.1", Port: 0}))
	// Port 0 is rejected by config validation but lets the kernel pick here.
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + s.Addr().String() + "/ok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/metrics"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/service/stream"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler serves the read-only query API and the signal stream.
type Handler struct {
	logger   *applogger.Logger
	query    *usecase.QueryUseCase
	cache    cache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	hub      *stream.Hub
}

type Option func(*Handler)

// WithResponseCache caches rendered analysis and chart responses per refresh cycle.
func WithResponseCache(c cache.BytesCache, ttl time.Duration) Option {
	return func(h *Handler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithRateLimit limits requests per client IP.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithStream exposes hub on /ws/signals.
func WithStream(hub *stream.Hub) Option {
	return func(h *Handler) { h.hub = hub }
}

func NewHandler(logger *applogger.Logger, query *usecase.QueryUseCase, opts ...Option) *Handler {
	if logger == nil {
		logger = applogger.Nop()
	}
	h := &Handler{logger: logger, query: query, cacheTTL: time.Minute}
	for _, opt := range opts {
		opt(h)
	}
	metrics.Register()
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/assets", h.Assets)
	g.GET("/health", h.Health)
	g.GET("/risk-calculator", h.Risk)

	// BASE/QUOTE also arrives unescaped, so each symbol route has a two-segment twin.
	g.GET("/data/:symbol", h.Data)
	g.GET("/data/:base/:quote", h.Data)
	g.GET("/analysis/:symbol", h.Analysis)
	g.GET("/analysis/:base/:quote", h.Analysis)
	g.GET("/chart/:symbol", h.Chart)
	g.GET("/chart/:base/:quote", h.Chart)

	if h.hub != nil {
		e.GET("/ws/signals", h.Signals, h.rateLimit)
	}
}

func (h *Handler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			metrics.Fail(c.Path(), strconv.Itoa(http.StatusTooManyRequests))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

// symbolParam returns the raw instrument from either route shape.
func symbolParam(c echo.Context) string {
	if s := c.Param("symbol"); s != "" {
		return s
	}
	base, quote := c.Param("base"), c.Param("quote")
	if base == "" {
		return ""
	}
	b, err := url.PathUnescape(base)
	if err != nil {
		b = base
	}
	q, err := url.PathUnescape(quote)
	if err != nil {
		q = quote
	}
	return b + "/" + q
}

// fail maps domain errors onto the response envelope and records the failure.
func (h *Handler) fail(c echo.Context, endpoint string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, models.ErrUnknownSymbol):
		appErr = xhttp.NotFoundError("unknown symbol").
			WithParam("assets", h.query.Assets()).
			WithError(err)
	case errors.Is(err, models.ErrNotReady):
		appErr = xhttp.ServiceUnavailableError("data not available yet").WithError(err)
	default:
		appErr = xhttp.InternalError("Something went wrong").WithError(err)
	}

	metrics.Fail(endpoint, strconv.Itoa(appErr.Status))
	if appErr.Status >= http.StatusInternalServerError && appErr.Status != http.StatusServiceUnavailable {
		h.logger.Error("query failed", applogger.String("endpoint", endpoint), applogger.Error(err))
	} else {
		h.logger.Debug("query rejected", applogger.String("endpoint", endpoint), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *Handler) badRequest(c echo.Context, endpoint string, verr []xhttp.ValidationError) error {
	metrics.Fail(endpoint, strconv.Itoa(http.StatusBadRequest))
	return xhttp.BadRequestResponse(c, verr)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/service/chart"
	"SignalDesk/internal/service/metrics"
	"SignalDesk/internal/service/stream"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	epAssets   = "assets"
	epData     = "data"
	epAnalysis = "analysis"
	epRisk     = "risk_calculator"
	epChart    = "chart"
	epHealth   = "health"
)

func (h *Handler) Assets(c echo.Context) error {
	defer metrics.Observe(epAssets, time.Now())
	return xhttp.SuccessResponse(c, map[string][]string{"assets": h.query.Assets()})
}

func (h *Handler) Data(c echo.Context) error {
	defer metrics.Observe(epData, time.Now())
	req := &models.DataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, epData, verr)
	}
	req.Symbol = symbolParam(c)

	view, err := h.query.Data(req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, epData, err)
	}
	return xhttp.SuccessResponse(c, view)
}

// Analysis serves the latest analysis. The encoded envelope is cached per
// symbol, timeframe and refresh cycle, so a new cycle never serves stale data.
func (h *Handler) Analysis(c echo.Context) error {
	defer metrics.Observe(epAnalysis, time.Now())
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, epAnalysis, verr)
	}
	req.Symbol = symbolParam(c)
	tf := domrepo.NormalizeTimeframe(req.Timeframe)

	entry, err := h.query.Entry(req.Symbol)
	if err != nil {
		return h.fail(c, epAnalysis, err)
	}
	ctx := c.Request().Context()
	key := "analysis|" + entry.Symbol + "|" + tf.String() + "|" + entry.CycleID
	if body, ok := h.cached(ctx, epAnalysis, key); ok {
		return xhttp.RawJSONResponse(c, http.StatusOK, body)
	}

	view, err := h.query.Analysis(req.Symbol, tf)
	if err != nil {
		return h.fail(c, epAnalysis, err)
	}
	body, err := json.Marshal(xhttp.Envelope(http.StatusOK, view))
	if err != nil {
		return h.fail(c, epAnalysis, err)
	}
	h.store(ctx, key, body)
	return xhttp.RawJSONResponse(c, http.StatusOK, body)
}

func (h *Handler) Risk(c echo.Context) error {
	defer metrics.Observe(epRisk, time.Now())
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, epRisk, verr)
	}
	return xhttp.SuccessResponse(c, h.query.Risk(*req))
}

// Chart renders close, SMA20 and Bollinger bands as a PNG.
func (h *Handler) Chart(c echo.Context) error {
	defer metrics.Observe(epChart, time.Now())
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, epChart, verr)
	}
	req.Symbol = symbolParam(c)

	data, err := h.query.Chart(req.Symbol, req.Bars)
	if err != nil {
		return h.fail(c, epChart, err)
	}
	ctx := c.Request().Context()
	key := "chart|" + data.Symbol + "|" + strconv.Itoa(req.Bars) + "|" +
		strconv.Itoa(req.Width) + "x" + strconv.Itoa(req.Height) + "|" + data.CycleID
	if png, ok := h.cached(ctx, epChart, key); ok {
		return c.Blob(http.StatusOK, "image/png", png)
	}

	var buf bytes.Buffer
	err = chart.RenderPNG(&buf, data.Bars, data.Indicators, chart.Options{
		Title:  data.Symbol,
		Width:  req.Width,
		Height: req.Height,
	})
	if errors.Is(err, chart.ErrNotEnoughPoints) {
		return h.fail(c, epChart, xhttp.ServiceUnavailableError("not enough bars to draw").WithError(err))
	}
	if err != nil {
		return h.fail(c, epChart, err)
	}
	h.store(ctx, key, buf.Bytes())
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) Health(c echo.Context) error {
	defer metrics.Observe(epHealth, time.Now())
	xhttp.CacheControl(c, 0)
	return xhttp.SuccessResponse(c, h.query.Health())
}

// Signals upgrades to a WebSocket and streams signal events until the
// client goes away.
func (h *Handler) Signals(c echo.Context) error {
	err := h.hub.ServeWS(c.Response(), c.Request())
	if errors.Is(err, stream.ErrHubFull) {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("too many stream clients"))
	}
	if err != nil {
		h.logger.Debug("websocket session ended", applogger.Error(err))
	}
	return nil
}

func (h *Handler) cached(ctx context.Context, endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(ctx, key)
	if err != nil {
		h.logger.Warn("response cache read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	metrics.CacheLookup(endpoint, ok)
	return b, ok
}

func (h *Handler) store(ctx context.Context, key string, body []byte) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetBytes(ctx, key, body, h.cacheTTL); err != nil {
		h.logger.Warn("response cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

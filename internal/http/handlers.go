package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budget/internal/chart"
	"budget/internal/controller"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/report"
	"budget/internal/store"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the templates and the store
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
	default:
		if err := store.Ping(ctx, s.store); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	_, totals := s.ctrl.State()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_us", "gauge", "Average response time in microseconds", traceMetrics.AverageResponseTime)
	metric("budget_events_total", "counter", "Widget events handled", s.metrics.events.Load())
	metric("budget_event_errors_total", "counter", "Widget events rejected", s.metrics.eventErrors.Load())
	metric("budget_notices_total", "counter", "Notices returned to the page", s.metrics.notices.Load())
	metric("budget_resets_total", "counter", "Confirmed resets", s.metrics.resets.Load())
	metric("budget_exports_total", "counter", "Summary exports", s.metrics.exports.Load())
	metric("budget_chart_empty_total", "counter", "Chart requests with nothing to draw", s.metrics.chartMissing.Load())
	metric("budget_balance_euros", "gauge", "Current remaining balance", totals.Balance.String())
	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests rejected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.metrics.started).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snapshot, totals := s.ctrl.State()
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", newPageView(s.ctrl.Catalog(), snapshot, totals)); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleEvent forwards one widget event to the controller.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := ParseEvent(NewRequestBodyParser(r))
	if err != nil {
		s.metrics.eventErrors.Add(1)
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.dispatch(w, r, ev)
}

// handleReset clears the budget once confirm=confirm is sent. Plain form
// posts are redirected back to the page.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Format de requête invalide").Write(w)
		return
	}
	ev := controller.Event{
		Field: controller.FieldReset,
		Kind:  controller.EventReset,
		Value: strings.TrimSpace(p.Get("confirm")),
	}
	if p.IsJSON() || strings.Contains(r.Header.Get("Accept"), "application/json") {
		s.dispatch(w, r, ev)
		return
	}

	if _, err := s.handle(r.Context(), ev); err != nil {
		status, msg := statusFor(err)
		http.Error(w, msg, status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev controller.Event) {
	out, err := s.handle(r.Context(), ev)
	if err != nil {
		status, msg := statusFor(err)
		ErrorResponse(status, msg).Write(w)
		return
	}
	NewResponse().Header("Cache-Control", "no-store").JSON(newOutcomeJSON(out)).Write(w)
}

func (s *Server) handle(ctx context.Context, ev controller.Event) (controller.Outcome, error) {
	s.metrics.events.Add(1)
	out, err := s.ctrl.Handle(ctx, ev)
	if err != nil {
		s.metrics.eventErrors.Add(1)
		status, _ := statusFor(err)
		fields := log.NewFields().WithEvent(string(ev.Field), string(ev.Kind)).WithError(err).ToSlice()
		if status >= http.StatusInternalServerError {
			log.FromContext(ctx).ErrorContext(ctx, "Event failed", fields...)
		} else {
			log.FromContext(ctx).DebugContext(ctx, "Event rejected", fields...)
		}
		return out, err
	}
	if ev.Field == controller.FieldReset {
		s.metrics.resets.Add(1)
	}
	s.metrics.notices.Add(int64(len(out.Notices)))
	return out, nil
}

// statusFor maps controller errors to an HTTP status and a user message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, controller.ErrUnhandledEvent):
		return http.StatusBadRequest, "Événement inconnu"
	case errors.Is(err, core.ErrOutOfGrid):
		return http.StatusUnprocessableEntity, "Cellule hors de la grille"
	case errors.Is(err, controller.ErrResetNotConfirmed):
		return http.StatusUnprocessableEntity, "Réinitialisation non confirmée"
	default:
		return http.StatusInternalServerError, "Erreur d'enregistrement"
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, totals := s.ctrl.State()
	NewResponse().Header("Cache-Control", "no-store").JSON(newStateJSON(snapshot, totals)).Write(w)
}

// handleExport streams the summary as an attachment. The document is
// rendered in memory first so a failure still yields a clean 500.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.PathValue("format"))
	if err != nil {
		NotFoundError("Format d'export inconnu").Write(w)
		return
	}
	exporter, err := report.ExporterFor(format)
	if err != nil {
		NotFoundError("Format d'export inconnu").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.ctrl.Export(r.Context(), format, &buf); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldFormat, string(format), log.FieldError, err)
		InternalServerError("Erreur lors de l'export").Write(w)
		return
	}
	s.metrics.exports.Add(1)

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", attachment(report.Filename(exporter)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleChart serves the current chart. It answers 204 while there is
// nothing to draw.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.ctrl.ChartPNG()
	switch {
	case errors.Is(err, chart.ErrNoData):
		s.metrics.chartMissing.Add(1)
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart rendering failed", log.FieldError, err)
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

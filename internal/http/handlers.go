package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"fincoach/internal/core"
	"fincoach/internal/log"
	"fincoach/internal/services"
	"fincoach/internal/session"
)

// maxQuestionRunes is how much of a chat question is routed and journaled.
const maxQuestionRunes = 500

const (
	pageTitle       = "FinCoach AI"
	pageSubtitle    = "Your real-time AI personal finance coach – built for everyone"
	ethicsNotice    = "Ethics & Transparency Notice: Advice is AI-generated and for educational purposes only. Not personalized investment advice. We perform quarterly bias audits. Consult a licensed advisor for complex decisions."
	chatPlaceholder = "e.g., Why am I overspending on food? | ¿Por qué gasto tanto en comida?"
	pageFooter      = "FinCoach AI © 2025 | Ramon • Jorge • Nathaly | FIN 6778 Final Project"
)

type languageOption struct {
	Value core.Language
	Label string
}

var languageOptions = []languageOption{
	{Value: core.English, Label: "English"},
	{Value: core.Spanish, Label: "Español"},
}

type indexData struct {
	Title        string
	Subtitle     string
	Ethics       string
	Placeholder  string
	Footer       string
	Goals        []core.Goal
	RiskProfiles []core.RiskProfile
	Languages    []languageOption
	Defaults     core.UserSettings
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["ledger"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["ledger"] = "ok"
		}
	} else {
		checks["ledger"] = "not_configured"
	}

	checks["sessions"] = map[string]any{
		"active": s.coach.ActiveSessions(),
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
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
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_errors_total Responses with status >= 400\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total %d\n\n", traceMetrics.TotalErrors)

	fmt.Fprintf(w, "# HELP advice_total Total questions answered\n")
	fmt.Fprintf(w, "# TYPE advice_total counter\n")
	fmt.Fprintf(w, "advice_total %d\n\n", atomic.LoadInt64(&s.metrics.advice))

	fmt.Fprintf(w, "# HELP active_sessions Live coach sessions\n")
	fmt.Fprintf(w, "# TYPE active_sessions gauge\n")
	fmt.Fprintf(w, "active_sessions %d\n\n", s.coach.ActiveSessions())

	fmt.Fprintf(w, "# HELP websocket_connections Open coach websockets\n")
	fmt.Fprintf(w, "# TYPE websocket_connections gauge\n")
	fmt.Fprintf(w, "websocket_connections %d\n\n", atomic.LoadInt64(&s.metrics.sockets))

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.started).Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := indexData{
		Title:        pageTitle,
		Subtitle:     pageSubtitle,
		Ethics:       ethicsNotice,
		Placeholder:  chatPlaceholder,
		Footer:       pageFooter,
		Goals:        core.Goals,
		RiskProfiles: core.RiskProfiles,
		Languages:    languageOptions,
		Defaults:     s.defaults,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.coach.StartSession(r.Context())
	setSessionCookie(w, r, sess.ID, s.sessionTTL)
	NewResponse().Status(http.StatusCreated).JSON(newSessionView(sess)).Write(w)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}
	s.coach.EndSession(id)
	setSessionCookie(w, r, "", -time.Second)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}
	d, err := s.coach.Dashboard(r.Context(), id)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	NewResponse().JSON(newDashboardView(d)).Write(w)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	_, err = s.coach.UpdateSettings(r.Context(), id, services.SettingsUpdate{
		Income:   parser.Optional("income"),
		Goal:     parser.Optional("goal"),
		Risk:     parser.Optional("risk_profile"),
		Language: parser.Optional("language"),
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.sessionError(w, r, err)
			return
		}
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	d, err := s.coach.Dashboard(r.Context(), id)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	NewResponse().JSON(newDashboardView(d)).Write(w)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	question := clampQuestion(parser.Get("question"))
	if msg := validateQuestion(question); msg != "" {
		UnprocessableEntityError(msg).Write(w)
		return
	}

	advice, err := s.coach.Ask(r.Context(), id, question)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	atomic.AddInt64(&s.metrics.advice, 1)
	NewResponse().JSON(advice).Write(w)
}

func (s *Server) handleOptimizeBudget(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}
	proposal, err := s.coach.OptimizeBudget(r.Context(), id)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	NewResponse().JSON(newBudgetView(proposal)).Write(w)
}

type investmentView struct {
	core.InvestmentSuggestion
	Display string `json:"display"`
}

func (s *Server) handleInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}
	suggestion, err := s.coach.Investment(r.Context(), id)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	NewResponse().JSON(investmentView{
		InvestmentSuggestion: suggestion,
		Display:              services.DisplaySuggestion(suggestion),
	}).Write(w)
}

// validateQuestion returns a user-facing message, or "" when q is usable.
// Only an empty question is refused; long ones are cut by clampQuestion.
func validateQuestion(q string) string {
	if q == "" {
		return "question is required"
	}
	return ""
}

// clampQuestion keeps the first maxQuestionRunes runes of q. Keywords past
// the cut are not seen by the router.
func clampQuestion(q string) string {
	if utf8.RuneCountInString(q) <= maxQuestionRunes {
		return q
	}
	return string([]rune(q)[:maxQuestionRunes])
}

// sessionError maps a session lookup failure to a response.
func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotFound) {
		NotFoundError("session not found or expired").Write(w)
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Session request failed", log.FieldError, err)
	InternalServerError("internal error").Write(w)
}

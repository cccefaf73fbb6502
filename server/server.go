// Package server exposes the triage engine over a JSON HTTP API: ticket
// submission with classify-and-route, recent-ticket listing, health, and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/supportstack/triage"
	"github.com/supportstack/triage/internal/metrics"
	"github.com/supportstack/triage/store"
)

// ClassifierRouter is the part of the triage engine the server needs.
type ClassifierRouter interface {
	ClassifyAndRoute(ctx context.Context, text string) (*triage.RoutingDecision, error)
	ConfidenceThreshold() float64
}

// TicketStore is the persistence surface the server needs.
type TicketStore interface {
	Create(ctx context.Context, ticket *store.Ticket) error
	Get(ctx context.Context, id string) (*store.Ticket, error)
	Recent(ctx context.Context, limit int) ([]*store.Ticket, error)
	Count(ctx context.Context) (int, error)
}

// Server handles the HTTP API.
type Server struct {
	engine  ClassifierRouter
	tickets TicketStore
	logger  zerolog.Logger
}

// NewServer creates a Server around the given engine and ticket store.
func NewServer(engine ClassifierRouter, tickets TicketStore, logger zerolog.Logger) *Server {
	return &Server{
		engine:  engine,
		tickets: tickets,
		logger:  logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tickets/submit", s.instrument("/api/tickets/submit", s.handleSubmit))
	mux.HandleFunc("GET /api/tickets", s.instrument("/api/tickets", s.handleList))
	mux.HandleFunc("GET /api/tickets/{id}", s.instrument("/api/tickets/{id}", s.handleGet))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// submission is the ticket submission payload.
type submission struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
}

func (sub *submission) validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(sub.CustomerName) == "" {
		problems["customer_name"] = "this field is required"
	}
	if strings.TrimSpace(sub.Subject) == "" {
		problems["subject"] = "this field is required"
	}
	if strings.TrimSpace(sub.Description) == "" {
		problems["description"] = "this field is required"
	}
	return problems
}

// classification is the decision part of the submit response.
type classification struct {
	Category       string          `json:"category"`
	Confidence     float64         `json:"confidence"`
	Department     string          `json:"department"`
	Priority       triage.Priority `json:"priority"`
	SLAHours       int             `json:"sla_hours"`
	BelowThreshold bool            `json:"below_threshold"`
	Error          string          `json:"error,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if problems := sub.validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, problems)
		return
	}

	// Subject and description are classified together, the same way the
	// labeled corpus was embedded.
	text := sub.Subject + " | " + sub.Description

	decision, err := s.engine.ClassifyAndRoute(r.Context(), text)
	if errors.Is(err, triage.ErrEmptyText) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("classification failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "classification failed: " + err.Error()})
		return
	}

	ticket := &store.Ticket{
		CustomerName:      sub.CustomerName,
		CustomerEmail:     sub.CustomerEmail,
		Subject:           sub.Subject,
		Description:       sub.Description,
		PredictedCategory: decision.Category,
		Confidence:        decision.Confidence,
		Department:        decision.Department,
		Priority:          decision.Priority,
		SLAHours:          decision.SLAHours,
	}
	if err := s.tickets.Create(r.Context(), ticket); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist ticket")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist ticket"})
		return
	}

	s.logger.Info().
		Str("ticket_id", ticket.ID).
		Str("category", decision.Category).
		Str("department", decision.Department).
		Float64("confidence", decision.Confidence).
		Msg("ticket classified")

	writeJSON(w, http.StatusCreated, map[string]any{
		"ticket": ticket,
		"classification": classification{
			Category:       decision.Category,
			Confidence:     decision.Confidence,
			Department:     decision.Department,
			Priority:       decision.Priority,
			SLAHours:       decision.SLAHours,
			BelowThreshold: decision.Confidence < s.engine.ConfidenceThreshold(),
			Error:          decision.Error,
		},
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	tickets, err := s.tickets.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tickets")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tickets"})
		return
	}
	if tickets == nil {
		tickets = []*store.Ticket{}
	}

	total, err := s.tickets.Count(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count tickets")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count tickets"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tickets":       tickets,
		"total_tickets": total,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.tickets.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get ticket")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get ticket"})
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request logging and metrics.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(recorder, r)

		metrics.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(recorder.status)).Inc()
		s.logger.Debug().
			Str("method", r.Method).
			Str("endpoint", endpoint).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

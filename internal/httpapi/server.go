package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/voxline/callbot/internal/archive"
	"github.com/voxline/callbot/internal/brain"
	"github.com/voxline/callbot/internal/config"
	"github.com/voxline/callbot/internal/conversation"
	"github.com/voxline/callbot/internal/observability"
	"github.com/voxline/callbot/internal/ratelimit"
)

type Server struct {
	cfg      config.Config
	store    *conversation.Store
	brain    brain.Adapter
	limiter  *ratelimit.Limiter
	sink     archive.Sink
	metrics  *observability.Metrics
	hub      *EventHub
	upgrader websocket.Upgrader
}

func New(
	cfg config.Config,
	store *conversation.Store,
	adapter brain.Adapter,
	limiter *ratelimit.Limiter,
	sink archive.Sink,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		brain:   adapter,
		limiter: limiter,
		sink:    sink,
		metrics: metrics,
		hub:     NewEventHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/webhook", s.handleWebhook)

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/conversations", s.handleListConversations)
	r.Get("/api/conversations/search", s.handleSearch)
	r.Get("/api/conversations/{sid}", s.handleConversationStats)
	r.Get("/api/conversations/{sid}/history", s.handleConversationHistory)
	r.Get("/api/conversations/{sid}/export", s.handleConversationExport)
	r.Get("/api/events/ws", s.handleEventsWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       "callbot",
		"bot_name":      s.cfg.BotName,
		"conversations": s.store.Len(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func limitQuery(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

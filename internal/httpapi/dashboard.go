package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voxline/callbot/internal/conversation"
)

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.ListRecent(limitQuery(r, 50)))
}

func (s *Server) handleConversationStats(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	stats, ok := s.store.Stats(sid)
	if !ok {
		respondError(w, http.StatusNotFound, "conversation_not_found", "no conversation for call "+sid)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	history := s.store.History(sid, limitQuery(r, 0))
	if history == nil {
		history = []conversation.Message{}
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleConversationExport(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	snap, ok := s.store.Export(sid)
	if !ok {
		respondError(w, http.StatusNotFound, "conversation_not_found", "no conversation for call "+sid)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing_query", "query parameter q is required")
		return
	}
	results := s.store.Search(query, limitQuery(r, 20))
	if results == nil {
		results = []conversation.SearchResult{}
	}
	respondJSON(w, http.StatusOK, results)
}

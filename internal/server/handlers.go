package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/retrieval"
	"github.com/skyops/airman/internal/store"
)

type askRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.TopK == 0 {
		req.TopK = s.cfg.Retrieval.DefaultTopK
	}
	if req.TopK < 1 || req.TopK > s.cfg.Retrieval.MaxTopK {
		s.respondError(w, http.StatusBadRequest,
			"top_k must be between 1 and "+strconv.Itoa(s.cfg.Retrieval.MaxTopK))
		return
	}

	s.logger.Debug("ask request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))
	result, err := s.answerer.Answer(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.logger.Error("answer failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Status(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) {
			s.respondJSON(w, http.StatusOK, map[string]any{"ingested": false})
			return
		}
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"ingested":      true,
		"generation_id": st.GenerationID,
		"model_id":      st.ModelID,
		"dimensions":    st.Dimensions,
		"chunk_count":   st.ChunkCount,
		"created_at":    st.CreatedAt,
		"config": map[string]any{
			"chunk_max_chars":     s.cfg.Chunking.MaxChars,
			"chunk_overlap_chars": s.cfg.Chunking.OverlapChars,
			"default_top_k":       s.cfg.Retrieval.DefaultTopK,
			"chat_model":          s.cfg.Chat.Model,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors to HTTP statuses: an empty store is a
// temporary service condition, a model failure is an upstream fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrModelMismatch):
		return http.StatusConflict
	case errors.Is(err, retrieval.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// TotalCountHeader reports the number of stored history records.
const TotalCountHeader = "X-Total-Count"

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// handleVersion returns the application version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": vars.Version})
}

// handleInfo returns the build metadata.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, vars.Info())
}

// handleSourceQuery performs a live A2S query to a specific game server host and port.
// Query params: ?host=1.2.3.4&port=27016
func (s *Server) handleSourceQuery(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	portStr := r.URL.Query().Get("port")

	if host == "" || portStr == "" {
		respondMessage(w, http.StatusBadRequest, "missing_host_or_port")
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid_port")
		return
	}

	info, err := s.sourceQuery(host, port, s.a2sOptions)
	if err != nil {
		respondJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// handleHistory returns the most recent query records, newest first.
// Query params: ?limit=100
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondMessage(w, http.StatusNotFound, "history_disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondMessage(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.ListQueries(limit)
	if err != nil {
		logger.Component("server").Error().Err(err).Msg("Failed to fetch query history")
		respondMessage(w, http.StatusInternalServerError, "database_error")
		return
	}

	if records == nil {
		records = []models.QueryRecord{}
	}

	total, err := s.history.CountQueries()
	if err != nil {
		logger.Component("server").Error().Err(err).Msg("Failed to count query history")
		respondMessage(w, http.StatusInternalServerError, "database_error")
		return
	}
	w.Header().Set(TotalCountHeader, strconv.FormatInt(total, 10))

	respondJSON(w, http.StatusOK, records)
}

// handlePruneHistory deletes records older than the given duration.
// Query params: ?older-than=720h
func (s *Server) handlePruneHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondMessage(w, http.StatusNotFound, "history_disabled")
		return
	}

	age, err := time.ParseDuration(r.URL.Query().Get("older-than"))
	if err != nil || age <= 0 {
		respondMessage(w, http.StatusBadRequest, "invalid_duration")
		return
	}

	deleted, err := s.history.PruneQueries(time.Now().Add(-age))
	if err != nil {
		logger.Component("server").Error().Err(err).Dur("older_than", age).Msg("Failed to prune query history")
		respondMessage(w, http.StatusInternalServerError, "database_error")
		return
	}

	logger.Component("server").Info().
		Int64("deleted", deleted).
		Dur("older_than", age).
		Msg("Query history pruned manually")

	respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// respondMessage writes {"message": message} with the given status code.
func respondMessage(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"message": message})
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/mbconv/internal/history"
)

// handleListRuns returns paginated compile runs, most recent first.
//
// Query parameters:
//   - status: ok, invalid or error
//   - device: exact device name
//   - source: cli or api
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeUnavailable(w, "compile history not configured")
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		Status:     history.Status(q.Get("status")),
		DeviceName: q.Get("device"),
		Source:     q.Get("source"),
	}

	switch filter.Status {
	case "", history.StatusOK, history.StatusInvalid, history.StatusError:
	default:
		writeBadRequest(w, "status must be ok, invalid or error")
		return
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.runs.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list compile runs", "error", err)
		writeInternalError(w, "failed to list compile runs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetRun returns one compile run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeUnavailable(w, "compile history not configured")
		return
	}

	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrRunNotFound) {
		writeNotFound(w, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get compile run", "error", err)
		writeInternalError(w, "failed to get compile run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

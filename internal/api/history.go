package api

import (
	"net/http"
	"strconv"

	"github.com/javen-yan/miot-agent/internal/audit"
)

func (s *Server) handleListToolCalls(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "tool call history is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		ToolName: q.Get("tool"),
		Category: q.Get("category"),
		Source:   q.Get("source"),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, key+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing tool calls failed", "error", err)
		writeInternalError(w, "failed to list tool calls")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/javen-yan/miot-agent/internal/tool"
)

// toolDescriptor is the listing form of a tool.
type toolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Parameters  tool.Schema `json:"parameters"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	var tools []tool.Tool
	if category := r.URL.Query().Get("category"); category != "" {
		tools = s.catalog.ToolsByCategory(category)
	} else {
		tools = s.catalog.Tools()
	}

	out := make([]toolDescriptor, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Parameters:  t.InputSchema(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out, "count": len(out)})
}

func (s *Server) handleOpenAITools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.OpenAITools())
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.catalog.Categories()})
}

func (s *Server) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.catalog.Get(name); !ok {
		writeNotFound(w, "tool not found: "+name)
		return
	}

	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body exceeds 1 MiB")
			return
		}
		writeBadRequest(w, "request body must be a JSON object of tool arguments")
		return
	}

	result, err := s.executor.ExecuteTool(r.Context(), name, args)
	switch {
	case errors.Is(err, tool.ErrToolNotFound):
		writeNotFound(w, "tool not found: "+name)
	case errors.Is(err, tool.ErrInvalidArguments):
		writeJSON(w, http.StatusBadRequest, tool.Envelope(name, nil, err))
	default:
		writeJSON(w, http.StatusOK, tool.Envelope(name, result, err))
	}
}

package http

import (
	"errors"
	"net/http"
	"strings"

	"pdptracker/internal/assistant"
	"pdptracker/internal/core"
	"pdptracker/internal/log"
	"pdptracker/internal/state"
)

const (
	msgNoInput       = "Se requiere texto o imagen"
	msgAnalyzeFailed = "Error al procesar la solicitud"
	msgNoAssistant   = "Asistente no configurado"
	msgBadBody       = "invalid request body"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.state.Dashboard())
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.state.Roster())
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.state.Entries())
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var in state.EntryInput
	if err := decodeJSON(w, r, maxEntryBody, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, msgBadBody)
		return
	}
	e, err := s.state.SaveEntry(r.Context(), in)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, e)
}

// handleReplaceEntry stores the body under the id in the path, ignoring any
// id in the body.
func (s *Server) handleReplaceEntry(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	var in state.EntryInput
	if err := decodeJSON(w, r, maxEntryBody, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, msgBadBody)
		return
	}
	in.ID = id
	e, err := s.state.SaveEntry(r.Context(), in)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.state.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.state.AppState())
}

type pendingRequest struct {
	Pendientes core.RawCount `json:"pendientes"`
}

// handleSetState accepts the counter as a number or a string; negative and
// unparseable values are stored as 0.
func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var in pendingRequest
	if err := decodeJSON(w, r, maxEntryBody, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, msgBadBody)
		return
	}
	st, err := s.state.SetPending(r.Context(), core.ClampPending(string(in.Pendientes)).Pendientes)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.state.HistoricalYears())
}

type analyzeRequest struct {
	Text  *string `json:"text"`
	Image *string `json:"image"`
}

type analyzeResponse struct {
	Result string `json:"result"`
}

// handleAnalyze forwards text and image as received; only a request with
// neither is rejected here.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if err := decodeJSON(w, r, maxAnalyzeBody, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, msgBadBody)
		return
	}
	var text, image string
	if in.Text != nil {
		text = *in.Text
	}
	if in.Image != nil {
		image = *in.Image
	}
	if text == "" && image == "" {
		writeError(w, r, http.StatusBadRequest, msgNoInput)
		return
	}
	if s.analyzer == nil {
		writeError(w, r, http.StatusInternalServerError, msgNoAssistant)
		return
	}

	out, err := s.analyzer.Analyze(r.Context(), text, image)
	if errors.Is(err, assistant.ErrNoInput) {
		writeError(w, r, http.StatusBadRequest, msgNoInput)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAssistant).
			ErrorContext(r.Context(), "Analysis request failed", log.FieldError, err)
		msg := err.Error()
		if msg == "" {
			msg = msgAnalyzeFailed
		}
		writeError(w, r, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, r, http.StatusOK, analyzeResponse{Result: out})
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/54b3r/ragdesk/internal/logging"
	"github.com/54b3r/ragdesk/internal/service"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// decodeJSON reads a size-capped JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", service.ErrValidation, err)
	}
	return nil
}

// outcome classifies err for metric labels.
func outcome(err error) string {
	switch service.MapHTTPStatus(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "invalid"
	}
	if err == nil {
		return "ok"
	}
	return "error"
}

// handleChat handles POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req service.ChatRequest

	resp, err := func() (service.Message, error) {
		if err := decodeJSON(w, r, &req); err != nil {
			return service.Message{}, err
		}
		return s.svc.Chat(r.Context(), req)
	}()

	o := "ok"
	if err != nil {
		o = outcome(err)
	}
	s.metrics.chatRequestsTotal.WithLabelValues(o).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(o).Observe(time.Since(start).Seconds())

	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// handleUpload handles POST /upload with a multipart "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	if r.ContentLength > s.cfg.MaxUploadBytes {
		s.metrics.uploadsTotal.WithLabelValues("invalid").Inc()
		respondError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.metrics.uploadsTotal.WithLabelValues("invalid").Inc()
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit))
		case errors.Is(err, http.ErrMissingFile):
			respondError(w, r, http.StatusBadRequest, "multipart field \"file\" is required")
		default:
			respondError(w, r, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.metrics.uploadsTotal.WithLabelValues("error").Inc()
		respondServiceError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := s.svc.Upload(r.Context(), header.Filename, data)
	if err != nil {
		s.metrics.uploadsTotal.WithLabelValues(outcome(err)).Inc()
		if errors.Is(err, service.ErrDecode) {
			log.Warn("upload rejected", slog.String("filename", header.Filename), slog.Any("error", err))
		}
		respondServiceError(w, r, err)
		return
	}

	s.metrics.uploadsTotal.WithLabelValues("ok").Inc()
	s.metrics.uploadBytes.Observe(float64(len(data)))
	respondJSON(w, r, http.StatusOK, res)
}

// handleListDocuments handles GET /documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.ListDocuments(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, docs)
}

// handleGetDocument handles GET /documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, doc)
}

// handleDeleteDocument handles DELETE /documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateAgent handles POST /agents.
func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var spec service.AgentSpec
	if err := decodeJSON(w, r, &spec); err != nil {
		respondServiceError(w, r, err)
		return
	}
	a, err := s.svc.CreateAgent(r.Context(), spec)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, agentCreatedResponse{Message: service.AgentCreatedMessage, Agent: a})
}

// handleListAgents handles GET /agents.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.svc.ListAgents(r.Context()))
}

// handleGetAgent handles GET /agents/{id}.
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.GetAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, a)
}

// handleDeleteAgent handles DELETE /agents/{id}.
func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	s.svc.DeleteAgent(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

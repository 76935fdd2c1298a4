package service

import (
	"errors"
	"net/http"

	"github.com/54b3r/ragdesk/internal/rag"
)

// Domain errors for service operations.
var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDecode           = errors.New("payload is not valid UTF-8 text")
	ErrValidation       = errors.New("invalid request")
	ErrStorage          = rag.ErrStorage
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrAgentNotFound) || errors.Is(err, ErrDocumentNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

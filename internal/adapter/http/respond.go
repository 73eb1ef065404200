package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and sends the structured error body. Server errors are
// logged at error level, client errors at info.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apperrors.ToResponse(err, s.production)

	details := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
		"type":   string(body.Type),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request_failed", "Request failed", logger.RequestID(r.Context()), details, err)
	} else {
		details["error"] = err.Error()
		s.logger.Info("request_rejected", "Request rejected", logger.RequestID(r.Context()), details)
	}

	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ValidationError("request body is required")
		}
		return apperrors.ValidationError("invalid request body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.ValidationError("invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid " + name).WithContext("field", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.ValidationError(name + " must be a non-negative integer").WithContext("field", name)
	}
	return n, nil
}

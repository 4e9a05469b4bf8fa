package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	maxBodyBytes     = 1 << 20
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response with a status-derived error type
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	appErr := &errors.AppError{
		Type:       errors.ErrorTypeUnknown,
		Code:       errors.ErrCodeInternal,
		Message:    message,
		StatusCode: status,
	}
	if status < http.StatusInternalServerError {
		appErr.Type = errors.ErrorTypeValidation
		appErr.Code = errors.ErrCodeInvalidBody
	}
	h.writeResponse(w, appErr)
}

// WriteAppError writes err as the standard error payload. Errors that are not AppErrors, and
// AppErrors with a 5xx status, are logged under a fresh correlation id which is returned to the
// caller in place of any internal detail.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.From(r.Context())

	appErr, ok := errors.IsAppError(err)
	if !ok {
		appErr = errors.NewInternalError("An unexpected error occurred", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		correlationID := uuid.NewString()
		appErr = appErr.WithCorrelationID(correlationID)
		lg.Error("request failed",
			"correlation_id", correlationID,
			"method", r.Method,
			"path", r.URL.Path,
			"code", appErr.Code,
			"error", appErr.Error())
	} else {
		lg.Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", appErr.StatusCode,
			"code", appErr.Code,
			"message", appErr.Message)
	}

	h.writeResponse(w, appErr)
}

func (h *BaseHandler) writeResponse(w http.ResponseWriter, appErr *errors.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
		body.StatusCode = status
	}
	h.WriteJSON(w, status, body)
}

// DecodeJSON reads a JSON request body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	if r.Body == nil {
		return errors.NewValidationError("Request body is required", errors.ErrCodeInvalidBody)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("Request body is required", errors.ErrCodeInvalidBody)
		}
		return errors.NewValidationError("Invalid request body", errors.ErrCodeInvalidBody).WithCause(err)
	}
	return nil
}

// ParsePagination reads limit and offset query parameters. Out of range values fall back to the
// defaults rather than failing the request.
func (h *BaseHandler) ParsePagination(r *http.Request) (limit, offset int) {
	limit = DefaultPageLimit
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= MaxPageLimit {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

package command

import (
	"context"
	stderrors "errors"
	"net/http"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/transport"
)

// ServiceAPI is the pipeline surface the HTTP handlers need.
type ServiceAPI interface {
	Interpret(ctx context.Context, text string) (*ProcessResponse, error)
	Execute(ctx context.Context, interp *Interpretation) (*Result, error)
	Run(ctx context.Context, text string) (*Result, error)
}

// TextRequest carries a plain-English request.
type TextRequest struct {
	Text string `json:"text"`
}

// Handler serves the natural-language command routes.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

// NewHandler creates a new command handler
func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Process interprets text into a command and reports whether it could run. Nothing is executed.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	resp, err := h.Service.Interpret(r.Context(), req.Text)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// ExecuteCommand runs a structured command. A command sent without a confidence is treated
// as confirmed by the caller.
func (h *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if appErr := h.DecodeJSON(r, &env); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	interp, err := env.Decode(1)
	if err != nil {
		if stderrors.Is(err, ErrNotUnderstood) {
			h.WriteAppError(w, r, errors.NewValidationError(err.Error(), errors.ErrCodeInvalidBody))
			return
		}
		h.WriteAppError(w, r, err)
		return
	}

	res, err := h.Service.Execute(r.Context(), interp)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.writeResult(w, res)
}

// ExecuteText interprets text and executes the command when it is actionable and valid.
func (h *Handler) ExecuteText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	res, err := h.Service.Run(r.Context(), req.Text)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.writeResult(w, res)
}

func (h *Handler) writeResult(w http.ResponseWriter, res *Result) {
	status := res.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	h.WriteJSON(w, status, res)
}

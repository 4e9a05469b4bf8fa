package command

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	errors "github.com/frahmantamala/rbac-admin/internal"
)

const maxTextLength = 1000

const (
	notUnderstoodMessage = "I couldn't understand that command. Try rephrasing it like one of the suggestions."
	notActionableMessage = "The command was not recognized with enough confidence to run."
	invalidMessage       = "The command cannot be executed in the current state."
)

// Suggestions are offered whenever a request cannot be acted on.
var Suggestions = []string{
	"Create a permission called read_users",
	"Create a role called Editor",
	"Give the Admin role the read_users permission",
	"Remove the read_users permission from the Admin role",
	"Delete the read_users permission",
	"Delete the Editor role",
}

// Recorder receives one observation per processed request.
type Recorder interface {
	CommandProcessed(commandType, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CommandProcessed(string, string) {}

// ProcessResponse is the interpretation of a request before anything runs.
type ProcessResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	Command     *Interpretation `json:"command,omitempty"`
	Actionable  bool            `json:"actionable"`
	Validation  *Validation     `json:"validation,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// Processor turns text or structured commands into validated executions.
type Processor struct {
	interpreter Interpreter
	snapshots   SnapshotReader
	executor    *Executor
	recorder    Recorder
	logger      *slog.Logger
}

// NewProcessor wires the pipeline. A nil recorder discards observations.
func NewProcessor(interpreter Interpreter, snapshots SnapshotReader, executor *Executor, recorder Recorder, logger *slog.Logger) *Processor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Processor{
		interpreter: interpreter,
		snapshots:   snapshots,
		executor:    executor,
		recorder:    recorder,
		logger:      logger,
	}
}

// Interpret turns text into a command and validates it without executing anything.
func (p *Processor) Interpret(ctx context.Context, text string) (*ProcessResponse, error) {
	text, appErr := normalizeText(text)
	if appErr != nil {
		return nil, appErr
	}

	snap, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	interp, err := p.interpret(ctx, text, snap)
	if err != nil {
		if stderrors.Is(err, ErrNotUnderstood) {
			return &ProcessResponse{
				Success:     false,
				Message:     notUnderstoodMessage,
				Suggestions: Suggestions,
			}, nil
		}
		return nil, err
	}

	validation := Validate(interp.Command, snap)
	resp := &ProcessResponse{
		Success:    true,
		Command:    interp,
		Actionable: interp.Actionable(),
		Validation: &validation,
	}
	if !resp.Actionable {
		resp.Message = notActionableMessage
		resp.Suggestions = Suggestions
	}
	p.recorder.CommandProcessed(string(interp.Command.Type()), "interpreted")
	return resp, nil
}

// Execute validates interp against fresh state and runs it when it is actionable and valid.
func (p *Processor) Execute(ctx context.Context, interp *Interpretation) (*Result, error) {
	if !interp.Actionable() {
		p.recordOutcome(interp, "not_actionable")
		return &Result{
			Success:     false,
			Message:     notActionableMessage,
			Suggestions: Suggestions,
			Command:     interp,
			StatusCode:  http.StatusBadRequest,
		}, nil
	}

	snap, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	validation := Validate(interp.Command, snap)
	if !validation.Valid {
		p.recordOutcome(interp, "invalid")
		return &Result{
			Success:    false,
			Message:    invalidMessage,
			Error:      strings.Join(validation.Errors, "; "),
			Errors:     validation.Errors,
			Command:    interp,
			StatusCode: statusForValidation(interp.Command, snap),
		}, nil
	}

	res, err := p.executor.Execute(ctx, interp.Command)
	if err != nil {
		p.recordOutcome(interp, "error")
		return nil, err
	}
	res.Command = interp
	if res.Success {
		p.recordOutcome(interp, "executed")
	} else {
		p.recordOutcome(interp, "rejected")
	}
	return res, nil
}

// Run interprets text and executes the result in one step.
func (p *Processor) Run(ctx context.Context, text string) (*Result, error) {
	resp, err := p.Interpret(ctx, text)
	if err != nil {
		return nil, err
	}
	if resp.Command == nil {
		return &Result{
			Success:     false,
			Message:     resp.Message,
			Suggestions: resp.Suggestions,
			StatusCode:  http.StatusUnprocessableEntity,
		}, nil
	}
	return p.Execute(ctx, resp.Command)
}

func (p *Processor) interpret(ctx context.Context, text string, snap *Snapshot) (*Interpretation, error) {
	interp, err := p.interpreter.Interpret(ctx, text, snap)
	if err != nil {
		if stderrors.Is(err, ErrNotUnderstood) {
			p.recorder.CommandProcessed("none", "not_understood")
			p.logger.Info("request not understood", "error", err)
		} else {
			p.recorder.CommandProcessed("none", "interpreter_error")
		}
		return nil, err
	}
	return interp, nil
}

func (p *Processor) snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := p.snapshots.Snapshot(ctx)
	if err != nil {
		p.logger.Error("failed to load inventory snapshot", "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	return snap, nil
}

func (p *Processor) recordOutcome(interp *Interpretation, outcome string) {
	t := string(TypeUnknown)
	if interp != nil && interp.Command != nil {
		t = string(interp.Command.Type())
	}
	p.recorder.CommandProcessed(t, outcome)
}

// statusForValidation is 409 when the command collides with existing state and 404 when it
// refers to something missing.
func statusForValidation(cmd Command, snap *Snapshot) int {
	switch c := cmd.(type) {
	case CreatePermission, CreateRole:
		return http.StatusConflict
	case AssignPermission:
		if snap.HasRole(c.RoleName) && snap.HasPermission(c.PermissionName) {
			return http.StatusConflict
		}
	}
	return http.StatusNotFound
}

func normalizeText(text string) (string, *errors.AppError) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewValidationFieldError("text", "text is required", errors.ErrCodeValidationFailed)
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return "", errors.NewValidationFieldError("text", "text must not exceed 1000 characters", errors.ErrCodeValidationFailed)
	}
	return text, nil
}

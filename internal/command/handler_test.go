package command_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/command"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockService implements command.ServiceAPI for testing
type MockService struct {
	interpretResp *command.ProcessResponse
	result        *command.Result
	err           error
	executed      *command.Interpretation
	ranText       string
}

func (m *MockService) Interpret(ctx context.Context, text string) (*command.ProcessResponse, error) {
	return m.interpretResp, m.err
}

func (m *MockService) Execute(ctx context.Context, interp *command.Interpretation) (*command.Result, error) {
	m.executed = interp
	return m.result, m.err
}

func (m *MockService) Run(ctx context.Context, text string) (*command.Result, error) {
	m.ranText = text
	return m.result, m.err
}

var _ = Describe("Command Handler", func() {
	var (
		mockService *MockService
		handler     *command.Handler
	)

	post := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	BeforeEach(func() {
		mockService = &MockService{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = command.NewHandler(transport.NewBaseHandler(lg), mockService)
	})

	Describe("Process", func() {
		It("should return the interpretation with 200", func() {
			mockService.interpretResp = &command.ProcessResponse{
				Success:    true,
				Command:    &command.Interpretation{Command: command.CreateRole{Name: "Editor"}, Confidence: 0.9},
				Actionable: true,
				Validation: &command.Validation{Valid: true, Errors: []string{}},
			}

			w := post(handler.Process, `{"text":"create editor"}`)
			Expect(w.Code).To(Equal(http.StatusOK))

			var body map[string]interface{}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["actionable"]).To(BeTrue())
			Expect(body["command"]).To(HaveKeyWithValue("type", "create_role"))
		})

		It("should map service errors to their status", func() {
			mockService.err = internal.ErrServiceUnavailable

			w := post(handler.Process, `{"text":"create editor"}`)
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("should reject a missing body", func() {
			w := post(handler.Process, "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ExecuteCommand", func() {
		It("should treat a command without confidence as confirmed", func() {
			mockService.result = &command.Result{Success: true, Message: "done", StatusCode: http.StatusOK}

			w := post(handler.ExecuteCommand, `{"type":"delete_role","parameters":{"name":"Editor"}}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(mockService.executed.Command).To(Equal(command.DeleteRole{Name: "Editor"}))
			Expect(mockService.executed.Confidence).To(Equal(1.0))
		})

		It("should keep an explicit confidence", func() {
			mockService.result = &command.Result{Success: false, StatusCode: http.StatusBadRequest}

			w := post(handler.ExecuteCommand, `{"type":"delete_role","parameters":{"name":"Editor"},"confidence":0.2}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(mockService.executed.Confidence).To(Equal(0.2))
		})

		It("should reject an unsupported command type before executing", func() {
			w := post(handler.ExecuteCommand, `{"type":"drop_database","parameters":{}}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("INVALID_BODY"))
			Expect(mockService.executed).To(BeNil())
		})
	})

	Describe("ExecuteText", func() {
		It("should write the result status", func() {
			mockService.result = &command.Result{Success: false, Message: "nope", StatusCode: http.StatusConflict}

			w := post(handler.ExecuteText, `{"text":"create read_users"}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(mockService.ranText).To(Equal("create read_users"))
		})

		It("should default an unset status to 200", func() {
			mockService.result = &command.Result{Success: true, Message: "ok"}

			w := post(handler.ExecuteText, `{"text":"create read_users"}`)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})

package command_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/frahmantamala/rbac-admin/internal/command"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeGenerator returns a fixed reply and records the last prompt.
type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	return g.reply, g.err
}

var _ = Describe("ExtractJSONObject", func() {
	DescribeTable("finding the first object",
		func(reply, expected string) {
			obj, err := command.ExtractJSONObject(reply)
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(Equal(expected))
		},
		Entry("bare object", `{"type":"unknown"}`, `{"type":"unknown"}`),
		Entry("surrounding prose", "Sure! {\"type\":\"unknown\"} Hope that helps.", `{"type":"unknown"}`),
		Entry("code fence", "```json\n{\"a\":{\"b\":1}}\n```", `{"a":{"b":1}}`),
		Entry("braces inside strings", `{"explanation":"use } and { freely","x":"\"}"}`, `{"explanation":"use } and { freely","x":"\"}"}`),
		Entry("only the first of two", `{"a":1} {"b":2}`, `{"a":1}`),
		Entry("skipping braces that are not JSON",
			`Sure {ok} here: {"type":"create_permission","parameters":{"name":"read_users"},"confidence":0.9}`,
			`{"type":"create_permission","parameters":{"name":"read_users"},"confidence":0.9}`),
		Entry("skipping a placeholder before the answer", `Format: {<command>} Answer: {"type":"unknown"}`, `{"type":"unknown"}`),
	)

	DescribeTable("failing",
		func(reply string) {
			_, err := command.ExtractJSONObject(reply)
			Expect(err).To(MatchError(command.ErrNotUnderstood))
		},
		Entry("no object", "I cannot help with that."),
		Entry("unterminated", `{"type":"create_role"`),
		Entry("only malformed objects", `{ok} and {also not json}`),
	)
})

var _ = Describe("ParseReply", func() {
	It("should decode a full reply", func() {
		interp, err := command.ParseReply(`Here you go: {"type":"create_role","parameters":{"name":"Editor"},"confidence":0.92,"explanation":"create"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(interp.Command).To(Equal(command.CreateRole{Name: "Editor"}))
		Expect(interp.Confidence).To(Equal(0.92))
		Expect(interp.Explanation).To(Equal("create"))
	})

	It("should treat a missing confidence as zero", func() {
		interp, err := command.ParseReply(`{"type":"delete_role","parameters":{"name":"Editor"}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(interp.Confidence).To(BeZero())
		Expect(interp.Actionable()).To(BeFalse())
	})

	It("should decode a command that follows non-JSON braces", func() {
		interp, err := command.ParseReply(`Sure {ok} here: {"type":"create_permission","parameters":{"name":"read_users"},"confidence":0.9}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(interp.Command).To(Equal(command.CreatePermission{Name: "read_users"}))
		Expect(interp.Actionable()).To(BeTrue())
	})

	It("should reject an object without a type", func() {
		_, err := command.ParseReply(`{"parameters":{"name":"Editor"}}`)
		Expect(err).To(MatchError(command.ErrNotUnderstood))
	})

	It("should reject invalid JSON inside the braces", func() {
		_, err := command.ParseReply(`{type: create_role}`)
		Expect(err).To(MatchError(command.ErrNotUnderstood))
	})
})

var _ = Describe("BuildPrompt", func() {
	It("should list the inventory and quote the request", func() {
		snap := command.NewSnapshot(
			[]string{"read_users", "write_users"},
			[]string{"Admin"},
			[]command.Pair{{RoleName: "Admin", PermissionName: "read_users"}},
		)

		prompt, err := command.BuildPrompt(`give "Admin" write access`, snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("Current permissions: read_users, write_users"))
		Expect(prompt).To(ContainSubstring("Current roles: Admin"))
		Expect(prompt).To(ContainSubstring("- Admin has read_users"))
		Expect(prompt).To(ContainSubstring(`Request: "give \"Admin\" write access"`))
		Expect(prompt).To(ContainSubstring("assign_permission: role_name, permission_name"))
	})

	It("should group assignments per role", func() {
		snap := command.NewSnapshot(
			[]string{"read_users", "write_users", "read_reports"},
			[]string{"Admin", "Viewer"},
			[]command.Pair{
				{RoleName: "Admin", PermissionName: "read_users"},
				{RoleName: "Admin", PermissionName: "write_users"},
			},
		)

		prompt, err := command.BuildPrompt("who can edit users?", snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("- Admin has read_users, write_users"))
		Expect(prompt).To(ContainSubstring("- Viewer has no permissions"))
	})

	It("should mark an empty inventory", func() {
		prompt, err := command.BuildPrompt("hello", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("Current permissions: (none)"))
		Expect(prompt).To(ContainSubstring("Current roles: (none)"))
		Expect(prompt).To(ContainSubstring("Current assignments: (none)"))
	})
})

var _ = Describe("LLMInterpreter", func() {
	var (
		generator   *fakeGenerator
		interpreter *command.LLMInterpreter
		ctx         context.Context
	)

	BeforeEach(func() {
		generator = &fakeGenerator{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		interpreter = command.NewLLMInterpreter(generator, lg)
		ctx = context.Background()
	})

	It("should send the rendered prompt and parse the reply", func() {
		generator.reply = `{"type":"create_permission","parameters":{"name":"read_users"},"confidence":0.9}`

		interp, err := interpreter.Interpret(ctx, "create read_users", command.NewSnapshot(nil, []string{"Admin"}, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(interp.Command).To(Equal(command.CreatePermission{Name: "read_users"}))
		Expect(generator.lastPrompt).To(ContainSubstring(`Request: "create read_users"`))
		Expect(generator.lastPrompt).To(ContainSubstring("Current roles: Admin"))
	})

	It("should pass generator failures through untouched", func() {
		unavailable := errors.New("upstream down")
		generator.err = unavailable

		_, err := interpreter.Interpret(ctx, "anything", nil)
		Expect(err).To(MatchError(unavailable))
		Expect(errors.Is(err, command.ErrNotUnderstood)).To(BeFalse())
	})

	It("should report unparseable replies as not understood", func() {
		generator.reply = "Sorry, I don't know."

		_, err := interpreter.Interpret(ctx, "anything", nil)
		Expect(err).To(MatchError(command.ErrNotUnderstood))
	})
})

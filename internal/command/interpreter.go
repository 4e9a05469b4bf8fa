package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Interpreter reads a request in the light of the current inventory.
type Interpreter interface {
	Interpret(ctx context.Context, text string, snap *Snapshot) (*Interpretation, error)
}

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"join":  strings.Join,
	"quote": func(s string) string { b, _ := json.Marshal(s); return string(b) },
}).Parse(`You translate administrator requests for a role-based access control system into one JSON command.

Current permissions: {{if .Snapshot.Permissions}}{{join .Snapshot.Permissions ", "}}{{else}}(none){{end}}
Current roles: {{if .Snapshot.Roles}}{{join .Snapshot.Roles ", "}}{{else}}(none){{end}}
Current assignments:
{{- range .Snapshot.Roles}}
- {{.}} has {{with $.Snapshot.PermissionsOf .}}{{join . ", "}}{{else}}no permissions{{end}}
{{- else}} (none){{end}}

Supported command types and their parameters:
- create_permission: name, description (optional). Permission names use only letters, numbers, underscores and hyphens.
- create_role: name, description (optional)
- assign_permission: role_name, permission_name
- remove_permission: role_name, permission_name
- delete_permission: name
- delete_role: name
- unknown: no parameters, when the request matches none of the above

Reply with only a JSON object of the form:
{"type": "<command type>", "parameters": {"<parameter>": "<value>"}, "confidence": <number between 0 and 1>, "explanation": "<short reason>"}

Use existing names exactly as listed when the request refers to them.

Request: {{quote .Text}}
`))

// BuildPrompt renders the instruction sent to the text generator.
func BuildPrompt(text string, snap *Snapshot) (string, error) {
	if snap == nil {
		snap = NewSnapshot(nil, nil, nil)
	}
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Text     string
		Snapshot *Snapshot
	}{Text: text, Snapshot: snap})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// LLMInterpreter interprets requests through a TextGenerator.
type LLMInterpreter struct {
	generator TextGenerator
	logger    *slog.Logger
}

// NewLLMInterpreter creates an interpreter backed by generator.
func NewLLMInterpreter(generator TextGenerator, logger *slog.Logger) *LLMInterpreter {
	return &LLMInterpreter{generator: generator, logger: logger}
}

// Interpret renders the prompt, calls the generator and decodes its reply.
func (i *LLMInterpreter) Interpret(ctx context.Context, text string, snap *Snapshot) (*Interpretation, error) {
	prompt, err := BuildPrompt(text, snap)
	if err != nil {
		return nil, err
	}

	reply, err := i.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	interp, err := ParseReply(reply)
	if err != nil {
		i.logger.Warn("interpreter reply rejected", "error", err, "reply_length", len(reply))
		return nil, err
	}

	i.logger.Debug("request interpreted",
		"type", interp.Command.Type(),
		"confidence", interp.Confidence)
	return interp, nil
}

// ParseReply decodes the first well-formed JSON object found in a generator reply. A reply
// without a confidence is treated as zero confidence.
func ParseReply(reply string) (*Interpretation, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotUnderstood, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing command type", ErrNotUnderstood)
	}
	return env.Decode(0)
}

// ExtractJSONObject returns the first balanced {...} object in s that is valid JSON.
// Candidates that do not decode are skipped. Braces inside string literals are ignored.
func ExtractJSONObject(s string) (string, error) {
	found := false
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := balancedObjectEnd(s, start); end > 0 {
			found = true
			if candidate := s[start:end]; json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if found {
		return "", fmt.Errorf("%w: no valid JSON object in reply", ErrNotUnderstood)
	}
	if strings.IndexByte(s, '{') >= 0 {
		return "", fmt.Errorf("%w: unterminated JSON object in reply", ErrNotUnderstood)
	}
	return "", fmt.Errorf("%w: no JSON object in reply", ErrNotUnderstood)
}

// balancedObjectEnd returns the index just past the brace closing the object opened at
// start, or -1 when it never closes.
func balancedObjectEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// Package diagnostics defines LETREC diagnostic types for decode, validation and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
)

// Diagnostic code constants.
const (
	EDecode  = "E_DECODE"
	EAst     = "E_AST"
	EUnbound = "E_UNBOUND"
	EType    = "E_TYPE"
	EBudget  = "E_BUDGET"
	EIO      = "E_IO"
	EConfig  = "E_CONFIG"
)

// Diagnostic represents a decode, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		file := d.Span.File
		if file == "" {
			file = "<tree>"
		}
		loc = fmt.Sprintf("%s:%d:%d", file, d.Span.Line, d.Span.Col)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// Codes returns the code of every diagnostic, in order.
func Codes(diags []Diagnostic) []string {
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return codes
}

// Exit codes of the letrec command.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitInvalid = 2
	ExitBudget  = 3
	ExitRuntime = 4
)

// ExitCode maps the code of a failure to the process exit status. Static
// diagnostics from decoding and checking exit with ExitInvalid regardless of
// their code; ExitCode covers the rest.
func ExitCode(code string) int {
	switch code {
	case EIO, EConfig:
		return ExitUsage
	case EDecode, EAst:
		return ExitInvalid
	case EBudget:
		return ExitBudget
	default:
		return ExitRuntime
	}
}

package letrec_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/GitMew/eopl3-noracket/internal/testutil"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
	"github.com/GitMew/eopl3-noracket/pkg/evaluator"
	"github.com/GitMew/eopl3-noracket/pkg/runtime"
)

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, scenarioDir := range dirs {
		scenarioDir := scenarioDir
		t.Run(filepath.Base(scenarioDir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(scenarioDir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}

			source, filename, err := testutil.ReadProgramFile(scenarioDir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			flags := parseScenarioFlags(t, scenario.Cmd[2:])
			rt := runtime.New(flags.options...)

			switch scenario.Cmd[0] {
			case "run":
				runRunScenario(t, rt, source, filename, scenario, flags.pretty)
			case "check":
				runCheckScenario(t, rt, source, filename, scenario, flags.pretty)
			case "fmt":
				out, err := rt.Format(source, filename)
				checkTextOutput(t, out, err, scenario)
			case "encode":
				out, err := rt.Encode(source, filename)
				checkTextOutput(t, string(out), err, scenario)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}
		})
	}
}

type scenarioFlags struct {
	pretty  bool
	options []runtime.Option
}

func parseScenarioFlags(t *testing.T, args []string) scenarioFlags {
	t.Helper()
	var flags scenarioFlags
	var budget evaluator.Budget
	limit := func(i int) *int64 {
		if i >= len(args) {
			t.Fatalf("missing value for %s", args[i-1])
		}
		n, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			t.Fatalf("bad value for %s: %v", args[i-1], err)
		}
		return &n
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			flags.pretty = true
		case "--prelude":
			flags.options = append(flags.options, runtime.WithDefaultPrelude())
		case "--max-steps":
			i++
			budget.MaxSteps = limit(i)
		case "--max-depth":
			i++
			budget.MaxDepth = limit(i)
		case "--time-ms":
			i++
			budget.TimeMs = limit(i)
		default:
			t.Fatalf("unsupported scenario flag: %s", args[i])
		}
	}
	flags.options = append(flags.options, runtime.WithBudget(budget), runtime.WithRunID("test"))
	return flags
}

func runRunScenario(t *testing.T, rt *runtime.Runtime, source []byte, filename string, scenario *testutil.Scenario, pretty bool) {
	t.Helper()

	result, err := rt.Run(context.Background(), source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			checkDiagExpectations(t, diagErr.Diagnostics, scenario, pretty, diagnostics.ExitInvalid)
			return
		}
		var rtErr *evaluator.RuntimeError
		if errors.As(err, &rtErr) {
			checkDiagExpectations(t, []diagnostics.Diagnostic{rtErr.Diagnostic()}, scenario, pretty, diagnostics.ExitCode(rtErr.Code))
			return
		}
		t.Fatalf("unexpected error type: %v", err)
	}

	if scenario.Expect.ExitCode != 0 {
		t.Errorf("exit code: got 0, want %d (value %s)", scenario.Expect.ExitCode, result.Value)
	}

	if scenario.Expect.StdoutJSON != nil {
		actualJSON, err := evaluator.ValueToJSON(result.Value)
		if err != nil {
			t.Fatalf("failed to serialize result: %v", err)
		}
		expected := normalizeJSON(t, scenario.Expect.StdoutJSON)
		actual := normalizeJSON(t, json.RawMessage(actualJSON))
		if expected != actual {
			t.Errorf("stdout JSON:\n  got:  %s\n  want: %s", actual, expected)
		}
	}

	if scenario.Expect.StdoutText != "" {
		out := evaluator.ValueToJSONString(result.Value) + "\n"
		if pretty {
			out = result.Value.String() + "\n"
		}
		if out != scenario.Expect.StdoutText {
			t.Errorf("stdout: got %q, want %q", out, scenario.Expect.StdoutText)
		}
	}
}

func runCheckScenario(t *testing.T, rt *runtime.Runtime, source []byte, filename string, scenario *testutil.Scenario, pretty bool) {
	t.Helper()

	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		checkDiagExpectations(t, diags, scenario, pretty, diagnostics.ExitInvalid)
		return
	}

	if scenario.Expect.ExitCode != 0 {
		t.Errorf("exit code: got 0, want %d", scenario.Expect.ExitCode)
	}
	if scenario.Expect.StdoutJSON != nil {
		expected := normalizeJSON(t, scenario.Expect.StdoutJSON)
		if actual := "[]"; expected != actual {
			t.Errorf("stdout: got %s, want %s", actual, expected)
		}
	}
}

func checkTextOutput(t *testing.T, out string, err error, scenario *testutil.Scenario) {
	t.Helper()

	if err != nil {
		var diagErr *runtime.DiagnosticError
		if !errors.As(err, &diagErr) {
			t.Fatalf("unexpected error type: %v", err)
		}
		checkDiagExpectations(t, diagErr.Diagnostics, scenario, false, diagnostics.ExitInvalid)
		return
	}
	if scenario.Expect.ExitCode != 0 {
		t.Errorf("exit code: got 0, want %d", scenario.Expect.ExitCode)
	}
	if out != scenario.Expect.StdoutText {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", out, scenario.Expect.StdoutText)
	}
}

func checkDiagExpectations(t *testing.T, diags []diagnostics.Diagnostic, scenario *testutil.Scenario, pretty bool, exitCode int) {
	t.Helper()

	if scenario.Expect.ExitCode != exitCode {
		t.Errorf("exit code: got %d, want %d (%s)", exitCode, scenario.Expect.ExitCode, diagnostics.FormatDiagnostics(diags, true))
	}

	stderrOutput := diagnostics.FormatDiagnostics(diags, pretty)
	if scenario.Expect.StderrContains != "" && !strings.Contains(stderrOutput, scenario.Expect.StderrContains) {
		t.Errorf("stderr should contain %q, got: %s", scenario.Expect.StderrContains, stderrOutput)
	}

	if len(scenario.Expect.StderrJSONSubset) == 0 {
		return
	}
	diagsJSON, _ := json.Marshal(diags)
	var actualDiags []map[string]any
	if err := json.Unmarshal(diagsJSON, &actualDiags); err != nil {
		t.Fatalf("failed to parse actual diagnostics: %v", err)
	}
	for _, expected := range scenario.Expect.StderrJSONSubset {
		found := false
		for _, actual := range actualDiags {
			if testutil.IsSubset(expected, actual) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("stderr JSON subset not found: %v\n  in: %s", expected, diagsJSON)
		}
	}
}

func normalizeJSON(t *testing.T, v any) string {
	t.Helper()
	if raw, ok := v.(json.RawMessage); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("failed to parse JSON: %v (raw: %s)", err, string(raw))
		}
		v = decoded
	}
	s, err := testutil.NormalizeJSON(v)
	if err != nil {
		t.Fatalf("failed to normalize JSON: %v", err)
	}
	return s
}

// Command letrec is the LETREC CLI entry point.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GitMew/eopl3-noracket/pkg/ast"
	"github.com/GitMew/eopl3-noracket/pkg/config"
	"github.com/GitMew/eopl3-noracket/pkg/diagnostics"
	"github.com/GitMew/eopl3-noracket/pkg/evaluator"
	"github.com/GitMew/eopl3-noracket/pkg/help"
	"github.com/GitMew/eopl3-noracket/pkg/runtime"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: letrec <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: run, check, fmt, encode, trace, demo, config, help")
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "encode":
		os.Exit(cmdEncode(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "demo":
		os.Exit(cmdDemo())
	case "config":
		os.Exit(cmdConfig())
	case "help", "--help", "-h":
		os.Exit(cmdHelp(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}
}

// runFlags are the options shared by run and check.
type runFlags struct {
	file      string
	pretty    bool
	prelude   bool
	tracePath string
	budget    evaluator.Budget
}

func parseRunFlags(args []string) (*runFlags, error) {
	f := &runFlags{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			f.pretty = true
		case "--prelude":
			f.prelude = true
		case "--trace":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--trace needs a file")
			}
			i++
			f.tracePath = args[i]
		case "--max-steps", "--max-depth", "--time-ms":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s needs a value", args[i])
			}
			n, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%s: invalid value %q", args[i], args[i+1])
			}
			switch args[i] {
			case "--max-steps":
				f.budget.MaxSteps = &n
			case "--max-depth":
				f.budget.MaxDepth = &n
			case "--time-ms":
				f.budget.TimeMs = &n
			}
			i++
		default:
			if strings.HasPrefix(args[i], "-") && args[i] != "-" {
				return nil, fmt.Errorf("unknown flag %s", args[i])
			}
			f.file = args[i]
		}
	}
	return f, nil
}

// runtimeOptions merges the config file with command-line flags; flags win.
func (f *runFlags) runtimeOptions() ([]runtime.Option, error) {
	cwd, _ := os.Getwd()
	cfg, _, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if f.prelude {
		cfg.Prelude = true
	}
	if cfg.Pretty {
		f.pretty = true
	}
	if f.budget.MaxSteps != nil {
		cfg.Budget.MaxSteps = f.budget.MaxSteps
	}
	if f.budget.MaxDepth != nil {
		cfg.Budget.MaxDepth = f.budget.MaxDepth
	}
	if f.budget.TimeMs != nil {
		cfg.Budget.TimeMs = f.budget.TimeMs
	}
	return []runtime.Option{runtime.WithConfig(cfg)}, nil
}

func cmdRun(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil || flags.file == "" {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprintln(os.Stderr, "usage: letrec run <file> [--pretty] [--prelude] [--max-steps N] [--max-depth N] [--time-ms N] [--trace <out.jsonl>]")
		return diagnostics.ExitUsage
	}

	opts, err := flags.runtimeOptions()
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), flags.pretty)
		return diagnostics.ExitUsage
	}

	source, filename, exitCode := readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	if flags.tracePath != "" {
		traceFile, err := os.Create(flags.tracePath)
		if err != nil {
			printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write trace: %s", flags.tracePath), nil, ""), flags.pretty)
			return diagnostics.ExitUsage
		}
		defer traceFile.Close()
		w := bufio.NewWriter(traceFile)
		defer w.Flush()
		enc := json.NewEncoder(w)
		opts = append(opts, runtime.WithTrace(func(ev evaluator.TraceEvent) {
			_ = enc.Encode(ev)
		}))
	}
	opts = append(opts, runtime.WithRunID(newRunID()))

	rt := runtime.New(opts...)
	ctx, stop := signalContext()
	defer stop()
	result, execErr := rt.Run(ctx, source, filename)

	if execErr != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(execErr, &diagErr) {
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, flags.pretty))
			return diagnostics.ExitInvalid
		}
		var rtErr *evaluator.RuntimeError
		if errors.As(execErr, &rtErr) {
			printDiag(rtErr.Diagnostic(), flags.pretty)
			return diagnostics.ExitCode(rtErr.Code)
		}
		fmt.Fprintln(os.Stderr, execErr.Error())
		return diagnostics.ExitRuntime
	}

	if flags.pretty {
		fmt.Println(result.Value.String())
		return diagnostics.ExitOK
	}
	jsonBytes, err := evaluator.ValueToJSON(result.Value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error serializing result: %s\n", err)
		return diagnostics.ExitRuntime
	}
	fmt.Println(string(jsonBytes))
	return diagnostics.ExitOK
}

func cmdCheck(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil || flags.file == "" {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprintln(os.Stderr, "usage: letrec check <file> [--pretty] [--prelude]")
		return diagnostics.ExitUsage
	}

	opts, err := flags.runtimeOptions()
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), flags.pretty)
		return diagnostics.ExitUsage
	}

	source, filename, exitCode := readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New(opts...)
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, flags.pretty))
		return diagnostics.ExitInvalid
	}

	// Valid program
	if flags.pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return diagnostics.ExitOK
}

func cmdFmt(args []string) int {
	return rewrite(args, "fmt", func(rt *runtime.Runtime, source []byte, filename string) ([]byte, error) {
		out, err := rt.Format(source, filename)
		return []byte(out), err
	})
}

func cmdEncode(args []string) int {
	return rewrite(args, "encode", (*runtime.Runtime).Encode)
}

// rewrite implements the commands that turn a program file into text,
// printing it or replacing the file with --write.
func rewrite(args []string, name string, fn func(*runtime.Runtime, []byte, string) ([]byte, error)) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" || (write && file == "-") {
		fmt.Fprintf(os.Stderr, "usage: letrec %s <file> [--write]\n", name)
		return diagnostics.ExitUsage
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	out, err := fn(rt, source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, false))
			return diagnostics.ExitInvalid
		}
		fmt.Fprintln(os.Stderr, err.Error())
		return diagnostics.ExitInvalid
	}

	if write {
		if err := os.WriteFile(file, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return diagnostics.ExitUsage
		}
		return diagnostics.ExitOK
	}
	// Output already ends in a newline
	os.Stdout.Write(out)
	return diagnostics.ExitOK
}

func cmdTrace(args []string) int {
	var file string
	textOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			textOutput = false
		case "--text":
			textOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: letrec trace <file.jsonl> [--json|--text]")
		return diagnostics.ExitUsage
	}

	f, err := os.Open(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), false)
		return diagnostics.ExitUsage
	}
	defer f.Close()

	summary := computeTraceSummary(f)

	if textOutput {
		printTraceSummaryText(os.Stdout, summary)
	} else {
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
	}
	return diagnostics.ExitOK
}

// cmdDemo evaluates let x = 69 in x.
func cmdDemo() int {
	program := ast.Let("x", ast.Const(69), ast.Var("x"))
	result, err := runtime.New().Eval(context.Background(), program)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return diagnostics.ExitRuntime
	}
	fmt.Println(result.Value.String())
	return diagnostics.ExitOK
}

func cmdConfig() int {
	cwd, _ := os.Getwd()
	cfg, path, err := config.Load(cwd)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), false)
		return diagnostics.ExitUsage
	}
	if path == "" {
		path = "defaults"
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error serializing config: %s\n", err)
		return diagnostics.ExitUsage
	}
	fmt.Printf("# source: %s\n%s", path, out)
	return diagnostics.ExitOK
}

func cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "prelude" {
			fmt.Fprintln(os.Stderr, "error: --index is only supported for the prelude topic")
			return diagnostics.ExitUsage
		}
		fmt.Print(help.PreludeIndex())
		return diagnostics.ExitOK
	}

	if topic == "" {
		fmt.Print(help.QUICKREF)
		return diagnostics.ExitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return diagnostics.ExitUsage
	}
	fmt.Print(content)
	return diagnostics.ExitOK
}

// TraceSummary aggregates a JSONL trace written by run --trace.
type TraceSummary struct {
	RunID          string         `json:"runId"`
	TotalEvents    int            `json:"totalEvents"`
	Calls          int            `json:"calls"`
	CallsByParam   map[string]int `json:"callsByParam"`
	LetRecBinds    int            `json:"letrecBinds"`
	MaxCallDepth   int            `json:"maxCallDepth"`
	BudgetExceeded int            `json:"budgetExceeded"`
	StartTime      string         `json:"startTime,omitempty"`
	EndTime        string         `json:"endTime,omitempty"`
	DurationMs     float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string            `json:"event"`
	RunID string            `json:"runId"`
	TS    string            `json:"ts"`
	Data  map[string]string `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		CallsByParam: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch evaluator.TraceEventType(event.Event) {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
		case evaluator.TraceCallStart:
			summary.Calls++
			if param, ok := event.Data["param"]; ok {
				summary.CallsByParam[param]++
			}
			if depth, err := strconv.Atoi(event.Data["depth"]); err == nil && depth > summary.MaxCallDepth {
				summary.MaxCallDepth = depth
			}
		case evaluator.TraceLetRecBind:
			summary.LetRecBinds++
		case evaluator.TraceBudgetExceeded:
			summary.BudgetExceeded++
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Milliseconds())
		}
	}

	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Calls: %d (max depth %d)\n", s.Calls, s.MaxCallDepth)
	params := make([]string, 0, len(s.CallsByParam))
	for param := range s.CallsByParam {
		params = append(params, param)
	}
	sort.Strings(params)
	for _, param := range params {
		fmt.Fprintf(w, "  proc (%s): %d\n", param, s.CallsByParam[param])
	}
	fmt.Fprintf(w, "Letrec bindings: %d\n", s.LetRecBinds)
	if s.BudgetExceeded > 0 {
		fmt.Fprintf(w, "Budget exceeded: %d\n", s.BudgetExceeded)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.0fms\n", s.DurationMs)
	}
}

func readSource(file string, pretty bool) ([]byte, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return nil, "", 1
		}
		return data, "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), pretty)
		return nil, "", 1
	}
	return source, file, 0
}

func printDiag(d diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{d}, pretty))
}

// signalContext cancels evaluation on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunID() string {
	return "run-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

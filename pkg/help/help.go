// Package help holds the text shown by `letrec help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GitMew/eopl3-noracket/pkg/formatter"
	"github.com/GitMew/eopl3-noracket/pkg/stdlib"
)

// Version is the reference version shown in QUICKREF.
const Version = "v0.1"

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "values", "scope", "prelude", "budget", "diagnostics", "examples"}

// QUICKREF is printed by `letrec help` without a topic.
var QUICKREF = `LETREC ` + Version + ` quick reference

Programs are expression trees written as YAML (or JSON).
Each node is a mapping with exactly one key naming its kind.

  letrec run <file>     evaluate and print the value as JSON
  letrec check <file>   decode and check scope without evaluating
  letrec fmt <file>     print in textbook notation
  letrec encode <file>  rewrite in canonical tree form
  letrec trace <jsonl>  summarize a trace written by run --trace
  letrec demo           evaluate let x = 69 in x
  letrec config         show the active configuration

Topics: ` + strings.Join(TopicList, ", ") + `
Run 'letrec help <topic>' for details.
`

// Topics maps topic names to their help text.
var Topics = map[string]string{
	"syntax": `Node kinds:

  const: 5                                    integer literal
  var: x                                      variable reference
  diff: [<expr>, <expr>]                      left minus right
  zero: <expr>                                true when the operand is 0
  if: [<cond>, <then>, <else>]                cond must be a boolean
  let: {name: x, value: <expr>, body: <expr>}
  letrec: {name: f, param: n, proc: <expr>, body: <expr>}
  proc: {param: x, body: <expr>}
  call: [<operator>, <operand>]

Unknown kinds, unknown or missing fields and wrong list lengths are E_AST.
`,
	"values": `Values are integers, booleans and procedures.

  int        64-bit signed, printed as a JSON number
  bool       produced by zero?, printed as true or false
  procedure  printed as {"proc":{"param":"x"}}

diff and zero? need integers, if needs a boolean and call needs a
procedure. Anything else fails with E_TYPE.
`,
	"scope": `Scoping is lexical. A procedure remembers the environment it was
created in, and a call evaluates the body there with the parameter bound.

let binds one name in its body only. letrec binds a single procedure
that can call itself; its name is visible in both the procedure body and
the letrec body, its parameter in the procedure body only.

Inner bindings shadow outer ones. Referring to a name that no enclosing
form binds is E_UNBOUND, reported by check before evaluation.
`,
	"prelude": `With --prelude (or prelude: true in .letrec.yaml) programs start in an
environment of predefined names instead of the empty one.

Run 'letrec help prelude --index' for the list.
`,
	"budget": `Resource limits for run:

  --max-steps N   stop after N evaluation steps
  --max-depth N   stop when nesting exceeds N
  --time-ms N     stop after N milliseconds

The same limits can be set under budget: in .letrec.yaml as maxSteps,
maxDepth and timeMs. Exceeding a limit is E_BUDGET and exit code 3.
`,
	"diagnostics": `Diagnostic codes:

  E_DECODE   the file is not valid YAML
  E_AST      the tree is malformed
  E_UNBOUND  reference to an unbound variable
  E_TYPE     operand of the wrong kind
  E_BUDGET   a resource limit was exceeded
  E_IO       a file could not be read or written
  E_CONFIG   the config file is invalid

Exit codes: 0 ok, 1 usage or I/O, 2 decode or check, 3 budget, 4 runtime.
Diagnostics are JSON lines on stderr; --pretty prints them for humans.
`,
	"examples": examples(),
}

func examples() string {
	var b strings.Builder
	b.WriteString("Doubling by repeated subtraction, as a tree:\n\n")
	b.WriteString(`  letrec:
    name: double
    param: x
    proc:
      if:
        - zero: {var: x}
        - {const: 0}
        - diff:
            - call: [{var: double}, {diff: [{var: x}, {const: 1}]}]
            - {const: -2}
    body:
      call: [{var: double}, {const: 6}]
`)
	b.WriteString("\nwhich 'letrec fmt' prints as:\n\n")
	for _, line := range strings.Split(strings.TrimRight(doubleExample, "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\nand 'letrec run' evaluates to 12.\n")
	return b.String()
}

const doubleExample = `letrec double(x) = if zero?(x)
    then 0
    else -((double -(x, 1)), -2)
in (double 6)
`

// MatchTopic resolves an exact topic name or an unambiguous prefix.
func MatchTopic(query string) (string, string, error) {
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic '%s'", query)
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("ambiguous help topic '%s': %s", query, strings.Join(matches, ", "))
}

// PreludeIndex lists the default prelude definitions.
func PreludeIndex() string {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)

	var b strings.Builder
	for _, def := range reg.All() {
		fmt.Fprintf(&b, "  %-6s = %s\n", def.Name, formatter.FormatInline(def.Expr))
		if def.Doc != "" {
			fmt.Fprintf(&b, "           %s\n", def.Doc)
		}
	}
	fmt.Fprintf(&b, "Total: %d definitions\n", len(reg.All()))
	return b.String()
}

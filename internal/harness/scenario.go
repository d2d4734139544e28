package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/symtrace/internal/trace"
)

// Scenario defines one scripted trace.
// The steps play the role of a traced function's body; the resulting graph
// is checked by assertions and, optionally, against a golden listing.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Catalogs lists CUE type catalogs to compile.
	// Paths are relative to the scenario file location.
	Catalogs []string `yaml:"catalogs,omitempty"`

	// ValueType selects the catalog type whose members route generic
	// function steps to call_method. Requires Catalogs.
	ValueType string `yaml:"value_type,omitempty"`

	// Inputs are the placeholder names, bound in the frame under the same names.
	Inputs []string `yaml:"inputs"`

	// Steps run in order against the frame's bindings.
	Steps []Step `yaml:"steps"`

	// Output is the returned value. When absent no output node is recorded.
	Output yaml.Node `yaml:"output,omitempty"`

	// Assertions validate the resulting graph.
	// Supported types: node_count, node_exists, node_order
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation of the scripted body. Exactly one form field is set.
type Step struct {
	// Let binds the step's result in the frame.
	Let string `yaml:"let,omitempty"`

	Op       string `yaml:"op,omitempty"`
	Method   string `yaml:"method,omitempty"`
	Attr     string `yaml:"attr,omitempty"`
	Call     string `yaml:"call,omitempty"`
	Function string `yaml:"function,omitempty"`
	Unpack   string `yaml:"unpack,omitempty"`
	Keys     string `yaml:"keys,omitempty"`
	Bool     string `yaml:"bool,omitempty"`
	Iter     string `yaml:"iter,omitempty"`

	// On is the receiver of method and attr steps.
	On string `yaml:"on,omitempty"`

	// Into names the bindings an unpack step produces.
	Into []string `yaml:"into,omitempty"`

	// Args is a sequence of values; Kwargs a mapping, kept in document order.
	Args   yaml.Node `yaml:"args,omitempty"`
	Kwargs yaml.Node `yaml:"kwargs,omitempty"`

	// ExpectError makes the step pass only if it fails with this kind.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step form names.
const (
	FormOp       = "op"
	FormMethod   = "method"
	FormAttr     = "attr"
	FormCall     = "call"
	FormFunction = "function"
	FormUnpack   = "unpack"
	FormKeys     = "keys"
	FormBool     = "bool"
	FormIter     = "iter"
)

// Expected error kinds.
const (
	ErrorKindTrace       = "trace_error"
	ErrorKindUnsupported = "unsupported_argument"
)

// forms returns the names of every form field set on s.
func (s *Step) forms() []string {
	var set []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FormOp, s.Op},
		{FormMethod, s.Method},
		{FormAttr, s.Attr},
		{FormCall, s.Call},
		{FormFunction, s.Function},
		{FormUnpack, s.Unpack},
		{FormKeys, s.Keys},
		{FormBool, s.Bool},
		{FormIter, s.Iter},
	} {
		if f.value != "" {
			set = append(set, f.name)
		}
	}
	return set
}

// Form returns the step's form, or "" if it does not have exactly one.
func (s *Step) Form() string {
	set := s.forms()
	if len(set) != 1 {
		return ""
	}
	return set[0]
}

// Assertion validates the traced graph.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": the graph has exactly Count nodes
	// - "node_exists": some node matches every non-empty field of Name, Kind, Target, Args
	// - "node_order": the nodes in Names appear in that order
	Type string `yaml:"type"`

	// Count is the expected number of nodes (used by node_count).
	Count int `yaml:"count,omitempty"`

	// Name, Kind, Target and Args select a node (used by node_exists).
	// Target is the rendered target ("operator.add", "relu"); Args is the
	// listing form of the node's args ("(%x, 1)").
	Name   string `yaml:"name,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Target string `yaml:"target,omitempty"`
	Args   string `yaml:"args,omitempty"`

	// Names is the expected node order (used by node_order).
	Names []string `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertNodeCount  = "node_count"
	AssertNodeExists = "node_exists"
	AssertNodeOrder  = "node_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Catalog paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving catalog paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve catalog paths relative to base path BEFORE validation
	for i, catalog := range scenario.Catalogs {
		if !filepath.IsAbs(catalog) && basePath != "" {
			scenario.Catalogs[i] = filepath.Join(basePath, catalog)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, catalog := range s.Catalogs {
		if _, err := os.Stat(catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog file not found: %s", catalog)
		}
	}

	if s.ValueType != "" && len(s.Catalogs) == 0 {
		return fmt.Errorf("value_type %q requires catalogs", s.ValueType)
	}

	seen := make(map[string]bool)
	for i, input := range s.Inputs {
		if input == "" {
			return fmt.Errorf("inputs[%d]: name is required", i)
		}
		if seen[input] {
			return fmt.Errorf("inputs[%d]: duplicate input %q", i, input)
		}
		seen[input] = true
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks one step's shape. Binding names are checked when the
// step runs, since earlier steps create them.
func validateStep(index int, s *Step) error {
	set := s.forms()
	switch len(set) {
	case 0:
		return fmt.Errorf("steps[%d]: one of op, method, attr, call, function, unpack, keys, bool, iter is required", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: only one form allowed, got %s", index, strings.Join(set, ", "))
	}
	form := set[0]

	if s.Args.Kind != 0 && s.Args.Kind != yaml.SequenceNode {
		return fmt.Errorf("steps[%d]: args must be a sequence", index)
	}
	if s.Kwargs.Kind != 0 && s.Kwargs.Kind != yaml.MappingNode {
		return fmt.Errorf("steps[%d]: kwargs must be a mapping", index)
	}

	switch form {
	case FormOp:
		op, ok := trace.ParseOp(s.Op)
		if !ok {
			return fmt.Errorf("steps[%d]: unknown operator %q", index, s.Op)
		}
		if n := len(s.Args.Content); n != op.Arity() {
			return fmt.Errorf("steps[%d]: operator %s takes %d operands, got %d", index, op, op.Arity(), n)
		}
	case FormMethod, FormAttr:
		if s.On == "" {
			return fmt.Errorf("steps[%d]: on is required for %s", index, form)
		}
	case FormUnpack:
		if len(s.Into) == 0 {
			return fmt.Errorf("steps[%d]: into is required for unpack", index)
		}
		if s.Let != "" {
			return fmt.Errorf("steps[%d]: unpack binds through into, not let", index)
		}
	}

	if s.On != "" && form != FormMethod && form != FormAttr {
		return fmt.Errorf("steps[%d]: on is only valid for method and attr", index)
	}
	if len(s.Into) > 0 && form != FormUnpack {
		return fmt.Errorf("steps[%d]: into is only valid for unpack", index)
	}
	if s.Kwargs.Kind != 0 && form != FormMethod && form != FormCall && form != FormFunction {
		return fmt.Errorf("steps[%d]: kwargs are only valid for method, call and function", index)
	}
	if s.Args.Kind != 0 && form != FormOp && form != FormMethod && form != FormCall && form != FormFunction {
		return fmt.Errorf("steps[%d]: args are not valid for %s", index, form)
	}

	switch s.ExpectError {
	case "", ErrorKindTrace, ErrorKindUnsupported:
	default:
		return fmt.Errorf("steps[%d]: unknown expect_error %q", index, s.ExpectError)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNodeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for node_count", index)
		}
	case AssertNodeExists:
		if a.Name == "" && a.Kind == "" && a.Target == "" && a.Args == "" {
			return fmt.Errorf("assertions[%d]: node_exists needs at least one of name, kind, target, args", index)
		}
	case AssertNodeOrder:
		if len(a.Names) < 2 {
			return fmt.Errorf("assertions[%d]: names needs at least two entries for node_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

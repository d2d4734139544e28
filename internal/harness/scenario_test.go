package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const minimalScenario = `
name: minimal
description: "Minimal test scenario"
inputs: [x]
steps:
  - let: y
    op: neg
    args: [$x]
output: $y
assertions:
  - type: node_count
    count: 3
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario), "")
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, []string{"x"}, s.Inputs)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, FormOp, s.Steps[0].Form())
	assert.Equal(t, "y", s.Steps[0].Let)
	assert.Equal(t, yaml.SequenceNode, s.Steps[0].Args.Kind)
	assert.Equal(t, yaml.ScalarNode, s.Output.Kind)
	assert.Equal(t, "$y", s.Output.Value)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	data := strings.Replace(minimalScenario, "assertions:", "assertion:", 1)

	_, err := ParseScenario([]byte(data), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_KeepsKwargsOrder(t *testing.T) {
	data := `
name: kw
description: "kwargs order"
inputs: [x]
steps:
  - method: view
    on: $x
    kwargs: { z: 1, a: 2, m: 3 }
assertions:
  - type: node_count
    count: 2
`
	s, err := ParseScenario([]byte(data), "")
	require.NoError(t, err)

	kwargs := s.Steps[0].Kwargs
	require.Equal(t, yaml.MappingNode, kwargs.Kind)
	var keys []string
	for i := 0; i < len(kwargs.Content); i += 2 {
		keys = append(keys, kwargs.Content[i].Value)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestParseScenario_ResolvesCatalogPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t.cue"), []byte(`type: T: { methods: ["f"] }`), 0644))

	data := `
name: cat
description: "catalog paths"
catalogs: [t.cue]
value_type: T
assertions:
  - type: node_count
    count: 0
`
	s, err := ParseScenario([]byte(data), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "t.cue")}, s.Catalogs)
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nassertions: [{type: node_count}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nassertions: [{type: node_count}]",
			wantErr: "description is required",
		},
		{
			name:    "missing assertions",
			yaml:    "name: n\ndescription: d",
			wantErr: "assertions list is required",
		},
		{
			name:    "missing catalog",
			yaml:    "name: n\ndescription: d\ncatalogs: [nope.cue]\nassertions: [{type: node_count}]",
			wantErr: "catalog file not found",
		},
		{
			name:    "value_type without catalogs",
			yaml:    "name: n\ndescription: d\nvalue_type: T\nassertions: [{type: node_count}]",
			wantErr: "requires catalogs",
		},
		{
			name:    "duplicate input",
			yaml:    "name: n\ndescription: d\ninputs: [x, x]\nassertions: [{type: node_count}]",
			wantErr: `duplicate input "x"`,
		},
		{
			name:    "step without form",
			yaml:    "name: n\ndescription: d\nsteps: [{let: y}]\nassertions: [{type: node_count}]",
			wantErr: "steps[0]: one of op",
		},
		{
			name:    "step with two forms",
			yaml:    "name: n\ndescription: d\nsteps: [{op: neg, bool: $x, args: [$x]}]\nassertions: [{type: node_count}]",
			wantErr: "only one form allowed, got op, bool",
		},
		{
			name:    "unknown operator",
			yaml:    "name: n\ndescription: d\nsteps: [{op: spaceship, args: [$x]}]\nassertions: [{type: node_count}]",
			wantErr: `unknown operator "spaceship"`,
		},
		{
			name:    "operator arity",
			yaml:    "name: n\ndescription: d\nsteps: [{op: add, args: [$x]}]\nassertions: [{type: node_count}]",
			wantErr: "operator add takes 2 operands, got 1",
		},
		{
			name:    "method without on",
			yaml:    "name: n\ndescription: d\nsteps: [{method: relu}]\nassertions: [{type: node_count}]",
			wantErr: "on is required for method",
		},
		{
			name:    "unpack without into",
			yaml:    "name: n\ndescription: d\nsteps: [{unpack: $x}]\nassertions: [{type: node_count}]",
			wantErr: "into is required for unpack",
		},
		{
			name:    "unpack with let",
			yaml:    "name: n\ndescription: d\nsteps: [{unpack: $x, into: [a], let: b}]\nassertions: [{type: node_count}]",
			wantErr: "unpack binds through into",
		},
		{
			name:    "kwargs on op",
			yaml:    "name: n\ndescription: d\nsteps: [{op: neg, args: [$x], kwargs: {a: 1}}]\nassertions: [{type: node_count}]",
			wantErr: "kwargs are only valid",
		},
		{
			name:    "args not a sequence",
			yaml:    "name: n\ndescription: d\nsteps: [{call: $x, args: 1}]\nassertions: [{type: node_count}]",
			wantErr: "args must be a sequence",
		},
		{
			name:    "unknown expect_error",
			yaml:    "name: n\ndescription: d\nsteps: [{bool: $x, expect_error: boom}]\nassertions: [{type: node_count}]",
			wantErr: `unknown expect_error "boom"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nassertions: [{type: trace_contains}]",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "node_exists without selector",
			yaml:    "name: n\ndescription: d\nassertions: [{type: node_exists}]",
			wantErr: "needs at least one of",
		},
		{
			name:    "node_order too short",
			yaml:    "name: n\ndescription: d\nassertions: [{type: node_order, names: [x]}]",
			wantErr: "at least two entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

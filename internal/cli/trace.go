package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symtrace/internal/harness"
	"github.com/roach88/symtrace/internal/ir"
	"github.com/roach88/symtrace/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string // optional - persist the graph
	Name     string // stored graph name, defaults to the scenario name

	// IDGenerator allows overriding the graph ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Scenario string          `json:"scenario"`
	Pass     bool            `json:"pass"`
	Errors   []string        `json:"errors,omitempty"`
	Hash     string          `json:"hash"`
	Nodes    int             `json:"nodes"`
	Graph    json.RawMessage `json:"graph"`
	Stored   *StoredGraph    `json:"stored,omitempty"`
}

// StoredGraph reports where a traced graph was persisted.
type StoredGraph struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Inserted bool   `json:"inserted"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	return newTraceCommand(&TraceOptions{RootOptions: rootOpts})
}

func newTraceCommand(opts *TraceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Trace one scenario and print its graph",
		Long: `Run a scenario's steps through the tracer and print the recorded graph.

Text output is the graph listing followed by its content hash; JSON output
carries the canonical graph. With --db the graph is also written to a
SQLite graph store.

Exit codes:
  0 - Scenario traced and every assertion held
  1 - A step failed or an assertion did not hold
  2 - Command error (invalid scenario, catalog or database)

Examples:
  symtrace trace ./scenarios/relu_add.yaml
  symtrace trace ./scenarios/relu_add.yaml --format json
  symtrace trace ./scenarios/relu_add.yaml --db ./graphs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite graph store")
	cmd.Flags().StringVar(&opts.Name, "name", "", "stored graph name (default: scenario name)")

	return cmd
}

func runTrace(opts *TraceOptions, scenarioFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.Logger(cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario, harness.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeTraceFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "trace failed", err)
	}

	var stored *StoredGraph
	if opts.Database != "" {
		stored, err = persistGraph(opts, scenario.Name, result.Graph, cmd)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store graph", err)
		}
		logger.Info("graph stored", "id", stored.ID, "seq", stored.Seq, "inserted", stored.Inserted)
	}

	if opts.Format == "json" {
		if err := outputTraceJSON(formatter, scenario.Name, result, stored); err != nil {
			return err
		}
	} else {
		outputTraceText(formatter, result, stored)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(result.Errors)))
	}
	return nil
}

// persistGraph writes g to the store at opts.Database.
func persistGraph(opts *TraceOptions, scenarioName string, g *ir.Graph, cmd *cobra.Command) (*StoredGraph, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	ids := opts.IDGenerator
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	name := opts.Name
	if name == "" {
		name = scenarioName
	}

	rec, inserted, err := st.WriteGraph(commandContext(cmd), ids.Generate(), name, g)
	if err != nil {
		return nil, err
	}
	return &StoredGraph{ID: rec.ID, Seq: rec.Seq, Inserted: inserted}, nil
}

func outputTraceJSON(formatter *OutputFormatter, name string, result *harness.Result, stored *StoredGraph) error {
	canonical, err := ir.MarshalCanonical(result.Graph)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode graph", err)
	}

	response := CLIResponse{
		Status: "ok",
		Data: TraceResult{
			Scenario: name,
			Pass:     result.Pass,
			Errors:   result.Errors,
			Hash:     result.Hash,
			Nodes:    result.Graph.Len(),
			Graph:    canonical,
			Stored:   stored,
		},
	}
	if stored != nil {
		response.GraphID = stored.ID
	}
	if !result.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTraceFailed,
			Message: fmt.Sprintf("%d error(s)", len(result.Errors)),
		}
	}
	return formatter.Respond(response)
}

func outputTraceText(formatter *OutputFormatter, result *harness.Result, stored *StoredGraph) {
	w := formatter.Writer
	fmt.Fprint(w, result.Graph.String())
	fmt.Fprintf(w, "\nhash: %s\n", result.Hash)

	if stored != nil {
		state := "stored"
		if !stored.Inserted {
			state = "already stored"
		}
		fmt.Fprintf(w, "%s: %s (seq %d)\n", state, stored.ID, stored.Seq)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", e)
	}
}

package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symtrace/internal/ir"
	"github.com/roach88/symtrace/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	GraphID  string
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Record store.GraphRecord `json:"record"`
	Graph  json.RawMessage   `json:"graph"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored graph",
		Long: `Read a graph from the store and print it.

The stored content hash is recomputed on read, so a graph whose rows were
changed after writing is reported as an error.

Examples:
  symtrace show --db ./graphs.db --graph 01936f5e-...
  symtrace show --db ./graphs.db --graph 01936f5e-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite graph store (required)")
	cmd.Flags().StringVar(&opts.GraphID, "graph", "", "graph ID (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("graph")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open graph store", err)
	}
	defer st.Close()

	rec, g, err := st.ReadGraph(commandContext(cmd), opts.GraphID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("graph not found: %s", opts.GraphID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("graph not found: %s", opts.GraphID))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read graph", err)
	}

	if opts.Format == "json" {
		canonical, err := ir.MarshalCanonical(g)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode graph", err)
		}
		return formatter.Respond(CLIResponse{
			Status:  "ok",
			Data:    ShowResult{Record: rec, Graph: canonical},
			GraphID: rec.ID,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "graph %s (%s)\n", rec.ID, rec.Name)
	fmt.Fprintf(w, "  seq: %d  nodes: %d  ir: %s  tracer: %s\n", rec.Seq, rec.NodeCount, rec.IRVersion, rec.TracerVersion)
	fmt.Fprintf(w, "  hash: %s\n\n", rec.Hash)
	fmt.Fprint(w, g.String())
	return nil
}

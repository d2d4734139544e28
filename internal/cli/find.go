package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symtrace/internal/ir"
	"github.com/roach88/symtrace/internal/store"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Database string
	Kind     string
	Target   string
	Name     string
	Graph    string
	TypeHint string
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find recorded nodes across stored graphs",
		Long: `Find nodes in a store that match every given filter.

Targets are matched in their rendered form, so "operator.add" finds
additions and "relu" finds relu method calls.

Examples:
  symtrace find --db ./graphs.db --target operator.add
  symtrace find --db ./graphs.db --kind call_method --graph 0192...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite graph store (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "node kind (placeholder, call_function, call_method, get_attr, output)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "rendered node target")
	cmd.Flags().StringVar(&opts.Name, "name", "", "node name")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "only search this graph ID")
	cmd.Flags().StringVar(&opts.TypeHint, "type-hint", "", "placeholder type hint")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	kind := ir.Kind(opts.Kind)
	if opts.Kind != "" && !kind.Valid() {
		msg := fmt.Sprintf("invalid kind %q", opts.Kind)
		_ = formatter.Error(ErrCodeInvalidField, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open graph store", err)
	}
	defer st.Close()

	matches, err := st.FindNodes(commandContext(cmd), store.NodeQuery{
		GraphID:  opts.Graph,
		Kind:     kind,
		Name:     opts.Name,
		TypeHint: opts.TypeHint,
		Target:   opts.Target,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find nodes", err)
	}

	if opts.Format == "json" {
		return formatter.Success(matches)
	}

	w := formatter.Writer
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matching nodes.")
		return nil
	}
	fmt.Fprintf(w, "%-36s %-20s %4s  %-16s %-14s %s\n", "GRAPH", "GRAPH NAME", "POS", "NODE", "KIND", "TARGET")
	for _, m := range matches {
		fmt.Fprintf(w, "%-36s %-20s %4d  %-16s %-14s %s\n", m.GraphID, m.GraphName, m.Position, m.Name, m.Kind, m.Target)
	}
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/symtrace/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	Hash     string // optional - only graphs with this content hash
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored graphs",
		Long: `List the graphs in a store in write order.

Examples:
  symtrace list --db ./graphs.db
  symtrace list --db ./graphs.db --hash 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite graph store (required)")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only list graphs with this content hash")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
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

	ctx := commandContext(cmd)
	var records []store.GraphRecord
	if opts.Hash != "" {
		records, err = st.FindByHash(ctx, opts.Hash)
	} else {
		records, err = st.ListGraphs(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list graphs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(records)
	}

	w := formatter.Writer
	if len(records) == 0 {
		fmt.Fprintln(w, "No graphs stored.")
		return nil
	}
	fmt.Fprintf(w, "%-5s %-36s %-20s %5s  %s\n", "SEQ", "ID", "NAME", "NODES", "HASH")
	for _, rec := range records {
		fmt.Fprintf(w, "%-5d %-36s %-20s %5d  %s\n", rec.Seq, rec.ID, rec.Name, rec.NodeCount, shortHash(rec.Hash))
	}
	return nil
}

// shortHash abbreviates a content hash for tables.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// openExistingStore opens a store without creating a missing database file.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s", path)
		}
		return nil, err
	}
	return store.Open(path)
}

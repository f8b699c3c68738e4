package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/binder"
	"github.com/dshills/quantaplan/internal/sql/planner"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for statements that do not parse, 1 for other failures.
func exitCode(err error) int {
	if errors.IsError(err, errors.SyntaxError) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quantaplan",
		Short:        "quantaplan chooses join order and access paths for SELECT statements.",
		SilenceUsage: true,
		Version:      version,
	}
	root.AddCommand(newExplainCmd(), newConfigCmd(), newVersionCmd())
	return root
}

type explainOptions struct {
	schemaFile        string
	configFile        string
	logLevel          string
	caseSensitiveLike bool
}

func newExplainCmd() *cobra.Command {
	var opts explainOptions
	cmd := &cobra.Command{
		Use:   "explain [flags] SQL",
		Short: "Print the plan chosen for a SELECT",
		Long: `Print the plan chosen for a SELECT: one line per nested loop level,
outermost first, followed by the WHERE terms left for the executor.

Tables joined with a comma, JOIN or CROSS JOIN may be reordered. The
MySQL grammar does not tell CROSS JOIN apart from JOIN, so use
STRAIGHT_JOIN to keep a table after everything to its left. The inner
table of a LEFT JOIN is never moved before its left side.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.schemaFile, "schema", "", "Path to the YAML schema file")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.caseSensitiveLike, "case-sensitive-like", false, "Treat LIKE as case-sensitive")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runExplain(ctx context.Context, out, errOut io.Writer, opts explainOptions, sql string) error {
	cfg := config.DefaultConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(opts.configFile); err != nil {
			return err
		}
	}
	cfg.LoadFromFlags(opts.logLevel, opts.caseSensitiveLike)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.NewFromConfig(cfg.Log, errOut).WithContext(ctx)

	cat, err := catalog.LoadSchemaFile(opts.schemaFile)
	if err != nil {
		return err
	}
	in, err := binder.New(cat).Bind(sql)
	if err != nil {
		return err
	}
	wi, err := planner.New(cfg.Planner, logger).Plan(in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, wi.Explain())
	return err
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage planner configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init PATH",
		Short: "Write the default configuration to PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DefaultConfig().SaveToFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "QuantaPlan v%s (commit: %s)\n", version, commit)
		},
	}
}

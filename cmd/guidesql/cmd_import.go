package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/guidesql/internal/emit"
)

type importOptions struct {
	report string
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import <dump.sql>",
		Short: "Reconcile a dump and insert its sections into the remote store",
		Long: `Reconcile a dump and insert its sections one row at a time.

Rows whose order_num already exists for the document are skipped, so an
interrupted import can be re-run. Write failures are collected and the run
continues with the next row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			rep := &emit.Report{}
			plan, err := a.reconcile(d, rep)
			if err != nil {
				if opts.report != "" {
					_ = writeReport(opts.report, rep)
				}
				return err
			}
			if err := a.importTree(cmd.Context(), plan.Tree, d, rep); err != nil {
				return err
			}
			if opts.report != "" {
				if err := writeReport(opts.report, rep); err != nil {
					return err
				}
			}
			a.log.Info("import finished",
				"run_id", rep.Import.RunID,
				"status", rep.Import.Status,
				"inserted", rep.Import.Inserted,
				"skipped", rep.Import.Skipped,
				"failed", rep.Import.Failed,
			)
			if rep.Import.Err != nil {
				return rep.Import.Err
			}
			return a.done(rep)
		},
	}
	reconcileFlags(cmd)
	storeFlags(cmd)
	cmd.Flags().StringVar(&opts.report, "report", "", "Report file; .html renders HTML, anything else Markdown")
	return cmd
}

func storeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("store", "", "Store backend: postgrest, postgres or sqlite")
	f.String("sqlite-path", "", "SQLite database file for the sqlite store")
}

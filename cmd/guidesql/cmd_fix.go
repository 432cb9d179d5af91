package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidesql/internal/emit"
	"github.com/dgallion1/guidesql/internal/hierarchy"
)

type fixOptions struct {
	output string
	report string
}

func newFixCmd(a *app) *cobra.Command {
	var opts fixOptions
	cmd := &cobra.Command{
		Use:   "fix <dump.sql>",
		Short: "Reconcile parent references and write a corrected transactional script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFix(args[0], opts)
		},
	}
	reconcileFlags(cmd)
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Corrected SQL file (default stdout)")
	f.StringVar(&opts.report, "report", "", "Report file; .html renders HTML, anything else Markdown")
	f.String("parent-mode", "", "Parent references in the output: subquery, literal or null")
	f.Bool("replace", false, "Delete the document's existing rows inside the transaction first")
	return cmd
}

func (a *app) runFix(path string, opts fixOptions) error {
	if err := a.checkLiteralIDs(); err != nil {
		return err
	}
	d, err := a.readDump(path)
	if err != nil {
		return err
	}
	rep := &emit.Report{}
	plan, rerr := a.reconcile(d, rep)
	if opts.report != "" {
		if err := writeReport(opts.report, rep); err != nil {
			return err
		}
	}
	if rerr != nil {
		return rerr
	}
	if err := a.writeSQL(opts.output, plan.Tree, d); err != nil {
		return err
	}
	return a.done(rep)
}

// checkLiteralIDs rejects literal parent references when sections carry no
// identifiers to write.
func (a *app) checkLiteralIDs() error {
	if a.cfg.ParentMode == string(emit.ParentLiteral) && a.cfg.IDScheme == string(hierarchy.SchemeNone) {
		return fmt.Errorf("parent mode %q needs an id scheme other than %q", emit.ParentLiteral, hierarchy.SchemeNone)
	}
	return nil
}

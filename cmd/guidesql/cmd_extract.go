package main

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidesql/internal/config"
	"github.com/dgallion1/guidesql/internal/emit"
	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/hierarchy"
	"github.com/dgallion1/guidesql/internal/parser"
	"github.com/dgallion1/guidesql/internal/segment"
)

type extractOptions struct {
	plan     string
	noStyles bool
	output   string
	report   string
}

func newExtractCmd(a *app) *cobra.Command {
	var opts extractOptions
	cmd := &cobra.Command{
		Use:   "extract <document>",
		Short: "Split a .docx, .pdf, .md, .html or .txt guide into sections and write them as SQL",
		Long: `Split a source document into guide sections.

Without --plan, headings are detected from paragraph styles and numbering
patterns. With --plan, a YAML file lists every section and the paragraph
range its content comes from. The sections are numbered in document order
and written as a transactional script; with --store they are also imported.`,
		Args: documentArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.plan, "plan", "", "YAML section plan with paragraph ranges")
	f.BoolVar(&opts.noStyles, "no-styles", false, "Ignore heading paragraph styles and rely on numbering patterns")
	f.StringVarP(&opts.output, "output", "o", "", "SQL file (default stdout)")
	f.StringVar(&opts.report, "report", "", "Report file; .html renders HTML, anything else Markdown")
	f.String("charset", "", "Encoding of .txt input")
	f.String("parent-mode", "", "Parent references in the output: subquery, literal or null")
	f.Bool("replace", false, "Delete the document's existing rows inside the transaction first")
	storeFlags(cmd)
	return cmd
}

// documentArg accepts exactly one document of a readable format.
func documentArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(args[0]), ".doc") {
		return parser.ErrLegacyWord
	}
	if !parser.IsSupportedExtension(args[0]) {
		exts := slices.Sorted(maps.Keys(parser.SupportedExtensions))
		return fmt.Errorf("unsupported document %s (want %s)", args[0], strings.Join(exts, ", "))
	}
	return nil
}

func (a *app) runExtract(cmd *cobra.Command, path string, opts extractOptions) error {
	log := a.log.With("source", path)

	p, err := parser.ForFileWith(path, parser.Options{
		Charset:           a.cfg.Charset,
		FallbackPdftotext: a.cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	doc, err := p.Parse(bytes.NewReader(data), path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	log.Info("parsed document", "paragraphs", doc.Len())

	docID := a.cfg.DocumentID
	var tree *guide.Tree
	if opts.plan != "" {
		f, err := os.Open(opts.plan)
		if err != nil {
			return fmt.Errorf("open plan: %w", err)
		}
		plan, err := segment.LoadPlan(f)
		f.Close()
		if err != nil {
			return err
		}
		if tree, err = segment.BuildFromPlan(doc, plan); err != nil {
			return err
		}
		if plan.DocumentID != 0 && !cmd.Flags().Changed("document-id") {
			docID = plan.DocumentID
		}
	} else {
		rules := segment.DefaultRules()
		rules.UseStyles = !opts.noStyles
		tree = segment.Segment(doc, rules)
	}

	sections := segment.Flatten(tree, docID)
	if len(sections) == 0 {
		return fmt.Errorf("no sections found in %s", path)
	}
	result := hierarchy.Reconcile(sections)
	rep := &emit.Report{
		Source:          path,
		Rows:            len(sections),
		Written:         tree.Len(),
		DuplicateTitles: result.DuplicateTitles,
	}
	log.Info("segmented",
		"sections", len(sections),
		"roots", len(tree.Roots),
		"folders", countFolders(tree),
		"duplicate_titles", len(result.DuplicateTitles),
	)

	src := &dump{path: path, data: data}
	if err := a.writeSQL(opts.output, tree, src); err != nil {
		return err
	}
	if a.cfg.Store != config.StoreNone {
		if err := a.importTree(cmd.Context(), tree, src, rep); err != nil {
			return err
		}
		if rep.Import.Err != nil {
			return rep.Import.Err
		}
	}
	if opts.report != "" {
		if err := writeReport(opts.report, rep); err != nil {
			return err
		}
	}
	return a.done(rep)
}

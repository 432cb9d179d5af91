package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidesql/internal/sqlrow"
)

// tokenizedRow is the JSON line printed for each row.
type tokenizedRow struct {
	Line       int     `json:"line"`
	Table      string  `json:"table"`
	DocumentID string  `json:"document_id"`
	ParentID   string  `json:"parent_id"`
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	OrderNum   string  `json:"order_num"`
}

func newTokenizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize <dump.sql>",
		Short: "Print the raw fields of every guide section INSERT as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.readDump(args[0])
			if err != nil {
				return err
			}
			res := sqlrow.Scan(d.text, a.cfg.Table)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			for _, r := range res.Rows {
				out := tokenizedRow{
					Line:       r.Line,
					Table:      r.Table,
					DocumentID: r.DocumentID,
					ParentID:   r.ParentID,
					Title:      r.Title,
					OrderNum:   r.OrderNum,
				}
				if !r.ContentNull {
					c := r.Content
					out.Content = &c
				}
				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("encode row: %w", err)
				}
			}
			for _, m := range res.Malformed {
				a.log.Warn("malformed row", "line", m.Line, "reason", m.Reason, "excerpt", m.Excerpt(60))
			}
			a.log.Info("tokenized", "rows", len(res.Rows), "malformed", len(res.Malformed), "skipped", res.Skipped)

			if a.strict && len(res.Malformed) > 0 {
				return withCode(exitProblems, fmt.Errorf("%d malformed rows", len(res.Malformed)))
			}
			return nil
		},
	}
	cmd.Flags().String("charset", "", "Dump encoding: utf-8, windows-1251 or koi8-u")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/schema"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		f           objectFlags
		original    string
		update      string
		batch       string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Update a stored object",
		Long: `Update a stored object from its original and updated forms. Only the
columns that differ are written; relations follow the values of the updated
object.

With --batch, the file holds an array of {"original": ..., "update": ...}
pairs that are applied concurrently, each in its own transaction.`,
		Example: `  persist apply --model Account --original before.json --update after.json
  persist apply --model Account --batch changes.json --concurrency 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, table, err := a.target(f.model, f.table)
			if err != nil {
				return err
			}
			if batch != "" {
				return a.applyBatch(cmd, m, table, batch, concurrency)
			}
			if update == "" {
				return errors.New("missing --update or --batch")
			}
			ov, err := a.object(cmd.InOrStdin(), m, original)
			if err != nil {
				return err
			}
			uv, err := a.object(cmd.InOrStdin(), m, update)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.connect(func() error {
				res, err := a.write(ctx, m, persist.OpUpdate, func(ex dialect.ExecQuerier) (persist.Result, error) {
					return a.persister.Update(ctx, ex, a.cfg.Dialect, table, m, ov, uv)
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.model, "model", "", "model of the object")
	cmd.Flags().StringVar(&f.table, "table", "", "table of the model (default: the schema table)")
	cmd.Flags().StringVar(&original, "original", "", "JSON file of the stored object")
	cmd.Flags().StringVar(&update, "update", "", "JSON file of the updated object")
	cmd.Flags().StringVar(&batch, "batch", "", "JSON file of original and update pairs")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of batch pairs applied at once")
	cmd.MarkFlagsMutuallyExclusive("batch", "original")
	cmd.MarkFlagsMutuallyExclusive("batch", "update")
	return cmd
}

// applyBatch applies every pair and prints one result line per pair that
// succeeded. Failed pairs are reported together.
func (a *app) applyBatch(cmd *cobra.Command, m *schema.Model, table, path string, concurrency int) error {
	data, err := read(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	pairs, err := a.schema.DecodePairs(m.Name, data)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return a.connect(func() error {
		var (
			g       errgroup.Group
			results = make([]persist.Result, len(pairs))
			errs    = make([]error, len(pairs))
		)
		g.SetLimit(max(1, concurrency))
		for i, p := range pairs {
			g.Go(func() error {
				res, err := a.write(ctx, m, persist.OpUpdate, func(ex dialect.ExecQuerier) (persist.Result, error) {
					return a.persister.Update(ctx, ex, a.cfg.Dialect, table, m, p.Original, p.Update)
				})
				if err != nil {
					errs[i] = fmt.Errorf("pair %d: %w", i, err)
				}
				results[i] = res
				return nil
			})
		}
		_ = g.Wait()
		out := cmd.OutOrStdout()
		for i, res := range results {
			if errs[i] == nil {
				fmt.Fprintf(out, "%d: %s\n", i, res)
			}
		}
		return persist.NewAggregateError(errs...)
	})
}

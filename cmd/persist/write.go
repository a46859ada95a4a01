package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
)

// objectFlags are the flags naming the object of a single write.
type objectFlags struct {
	model  string
	table  string
	object string
}

func (f *objectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "model of the object")
	cmd.Flags().StringVar(&f.table, "table", "", "table of the model (default: the schema table)")
	cmd.Flags().StringVar(&f.object, "object", "", `JSON file of the object, "-" for stdin`)
}

func newInsertCmd(a *app) *cobra.Command {
	var f objectFlags
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert an object",
		Long: `Insert an object together with the private objects it references and the
rows of its property and join tables.`,
		Example: `  persist insert --model Account --object account.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.writeObject(cmd, &f, persist.OpInsert)
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var f objectFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an object",
		Long: `Delete an object, its property and join table rows and the private
objects it references. Shared objects are unlinked, never deleted.`,
		Example: `  persist delete --model Account --object account.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.writeObject(cmd, &f, persist.OpDelete)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) writeObject(cmd *cobra.Command, f *objectFlags, op persist.Op) error {
	m, table, err := a.target(f.model, f.table)
	if err != nil {
		return err
	}
	if f.object == "" {
		return errors.New("missing --object")
	}
	obj, err := a.object(cmd.InOrStdin(), m, f.object)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return a.connect(func() error {
		res, err := a.write(ctx, m, op, func(ex dialect.ExecQuerier) (persist.Result, error) {
			if op == persist.OpDelete {
				return a.persister.Delete(ctx, ex, a.cfg.Dialect, table, m, obj)
			}
			return a.persister.Insert(ctx, ex, a.cfg.Dialect, table, m, obj)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	})
}

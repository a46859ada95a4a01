package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/persist/dialect/sqlschema"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the mappings of the schema",
		Long: `Load the schema and check every property mapping: key columns must pair
up with key properties, and each mapper must suit the values it stores.`,
		Example: `  persist validate --schema models.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := sqlschema.Validate(a.schema.Models...); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema is valid. Found %d models:\n", len(a.schema.Models))
			for _, m := range a.schema.Models {
				fmt.Fprintf(out, "  - %s (table %s, %d properties)\n", m.Name, sqlschema.TableName(m), len(m.Properties))
			}
			return nil
		},
	}
}

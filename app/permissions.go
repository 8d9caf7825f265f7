package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/senma231/checkprice-sub001/internal/permission"
)

func init() { //nolint: gochecknoinits
	permissionsCmd.Flags().StringSliceVar(&modules, "module", nil, "only list codes of these modules")

	rootCmd.AddCommand(permissionsCmd)
}

var (
	modules []string

	permissionsCmd = &cobra.Command{
		Use:   "permissions",
		Short: "List the registered permission codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint: mnd

			_, _ = fmt.Fprintln(w, "CODE\tMODULE\tNAME")

			for _, e := range permission.MustDefaultRegistry().Entries(modules...) {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Code, e.Module, e.Name)
			}

			return w.Flush() //nolint: wrapcheck
		},
	}
)

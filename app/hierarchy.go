package app

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/senma231/checkprice-sub001/internal/daemon"
	"github.com/senma231/checkprice-sub001/internal/db/controller/organization"
)

// ErrMalformedHierarchy is returned by check-hierarchy when problems were found.
var ErrMalformedHierarchy = errors.New("organization hierarchy is malformed")

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(checkHierarchyCmd)
}

var checkHierarchyCmd = &cobra.Command{
	Use:   "check-hierarchy",
	Short: "Report cycles, dangling parents and duplicate ids in the organization table",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return readConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := daemon.OpenDB(&cfg)
		if err != nil {
			return err
		}

		forest, err := organization.Forest(db)
		if err != nil {
			return errors.Wrap(err, "failed to load organizations")
		}

		summary := forest.Summarize()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if err = enc.Encode(summary); err != nil {
			return err //nolint: wrapcheck
		}

		if summary.Malformed {
			return ErrMalformedHierarchy
		}

		return nil
	},
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// NewIonsCmd lists the ion suggestions for one site.
func NewIonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "ions <site>",
		Short:     "List ion suggestions for site A, B or C",
		Long:      "List the default ions of a site followed by the abbreviations found in its reference table.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"A", "B", "C"},
		RunE: func(cmd *cobra.Command, args []string) error {
			site, ok := ptypes.ParseSite(args[0])
			if !ok {
				return errors.New(errors.ErrCodeInvalidSite, "site must be A, B or C").WithDetail("site=" + args[0])
			}

			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			rt, err := cliCtx.Runtime()
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.WithTimeout(cmd.Context())
			defer cancel()

			ions, err := rt.Service.ListIons(ctx, site)
			if err != nil {
				return err
			}
			return PrintResult(cmd, listView{Site: string(site), Items: ions})
		},
	}
}

// NewDimensionalitiesCmd lists the known dimensionality labels.
func NewDimensionalitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dimensionalities",
		Short: "List the known dimensionality labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, listView{Items: append([]string(nil), ptypes.Dimensionalities...)})
		},
	}
}

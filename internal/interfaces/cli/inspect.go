package cli

import (
	"github.com/spf13/cobra"
)

// NewInspectCmd reads back a written document and validates it.
func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <location>",
		Short: "Read and validate a composition document",
		Long: "Read a composition document from the configured backend, check it against the\n" +
			"document schema and print it.  For the filesystem backend the location is a\n" +
			"file path; for minio it is the minio://bucket/key location printed by compose\n" +
			"or a key in the configured bucket.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			doc, err := rt.Service.ReadDocument(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, documentView{doc})
		},
	}
}

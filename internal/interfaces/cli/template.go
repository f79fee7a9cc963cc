package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/internal/infrastructure/reference/tablefile"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// NewTemplateCmd writes empty A/B/C reference workbooks.
func NewTemplateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "template [dir]",
		Short: "Create empty reference tables for a new dataset",
		Long: "Write the A, B and C reference workbooks named in the configuration with the\n" +
			"header row only.  The directory defaults to reference.dir.  Existing files are\n" +
			"kept unless --force is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			paths := ReferencePaths(cliCtx.Config)
			if len(args) == 1 {
				paths.Dir = args[0]
			}
			dirPerm, err := cliCtx.Config.Output.DirPerm()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "output.dir_mode")
			}

			var written []string
			for _, site := range ptypes.Sites {
				path := paths.For(site)
				if _, err := os.Stat(path); err == nil && !force {
					return errors.New(errors.ErrCodeValidation, "reference table already exists; use --force to overwrite").
						WithDetail("path=" + path)
				}
				if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
					return errors.Wrap(err, errors.ErrCodeStorageError, "create reference directory").WithDetail("path=" + path)
				}
				if err := tablefile.WriteWorkbook(path, nil); err != nil {
					return err
				}
				cliCtx.Logger.Debug("reference template written",
					logging.String("site", string(site)), logging.String("path", path))
				written = append(written, path)
			}
			return PrintResult(cmd, listView{Items: written})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing tables")
	return cmd
}

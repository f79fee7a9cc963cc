package cli

import (
	"strings"

	"github.com/spf13/cobra"

	appcomp "github.com/turtacn/perovskite-json/internal/application/composition"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

type composeOptions struct {
	a, b, c        []string
	bandGap        string
	dimensionality string
	additives      []string
	folder         string
	fileName       string
	dryRun         bool
}

// NewComposeCmd creates the compose command.
func NewComposeCmd() *cobra.Command {
	opts := &composeOptions{}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Build a composition document and write it",
		Long: "Build a composition document from A, B and C ions and write it as JSON.\n\n" +
			"Each ion is given as SYMBOL or SYMBOL=COEFFICIENT; repeat the flag for every\n" +
			"ion of a site.  A decimal comma is accepted.  An ion without a coefficient is\n" +
			"recorded with a missing coefficient.",
		Example: "  perovskite compose --a Cs=0.15 --a MA=0.85 --b Pb --c I=3 --band-gap 1,6 \\\n" +
			"    --dimensionality 3D --folder Data --file CsMAPbI3",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.a, "a", nil, "A-site ion as SYMBOL[=COEF] (repeatable)")
	f.StringArrayVar(&opts.b, "b", nil, "B-site ion as SYMBOL[=COEF] (repeatable)")
	f.StringArrayVar(&opts.c, "c", nil, "C-site ion as SYMBOL[=COEF] (repeatable)")
	f.StringVar(&opts.bandGap, "band-gap", "", "band gap text, kept verbatim")
	f.StringVar(&opts.dimensionality, "dimensionality", "", "dimensionality label, e.g. 3D or 2D/3D")
	f.StringArrayVar(&opts.additives, "additive", nil, "additive name (repeatable)")
	f.StringVar(&opts.folder, "folder", "", "destination folder (default: output.default_folder)")
	f.StringVar(&opts.fileName, "file", "", "destination file name; .txt is dropped and .json appended")
	f.BoolVar(&opts.dryRun, "dry-run", false, "build and validate the document without writing it")

	return cmd
}

func runCompose(cmd *cobra.Command, opts *composeOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	form, err := opts.form()
	if err != nil {
		return err
	}
	req, dest, err := form.Clean()
	if err != nil {
		return err
	}

	rt, err := cliCtx.Runtime()
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.WithTimeout(cmd.Context())
	defer cancel()

	var result *appcomp.ComposeResult
	if opts.dryRun {
		result, err = rt.Service.Render(ctx, req)
	} else {
		result, err = rt.Service.Compose(ctx, &appcomp.ComposeInput{Request: req, Destination: dest})
	}
	if err != nil {
		cliCtx.Logger.Debug("compose failed", logging.Err(err))
		return err
	}
	return PrintResult(cmd, composeView{ComposeResult: result, DryRun: opts.dryRun})
}

func (o *composeOptions) form() (appcomp.FormInput, error) {
	in := appcomp.FormInput{
		BandGap:        o.bandGap,
		Dimensionality: o.dimensionality,
		Additives:      o.additives,
		Folder:         o.folder,
		FileName:       o.fileName,
	}
	var err error
	if in.A, err = parseIonFlags(ptypes.SiteA, o.a); err != nil {
		return in, err
	}
	if in.B, err = parseIonFlags(ptypes.SiteB, o.b); err != nil {
		return in, err
	}
	if in.C, err = parseIonFlags(ptypes.SiteC, o.c); err != nil {
		return in, err
	}
	return in, nil
}

// parseIonFlags splits SYMBOL[=COEF] values into form slots.
func parseIonFlags(site ptypes.Site, values []string) (appcomp.SiteSlots, error) {
	slots := appcomp.SiteSlots{
		Ions:         make([]string, 0, len(values)),
		Coefficients: make([]string, 0, len(values)),
	}
	for _, v := range values {
		ion, coef, _ := strings.Cut(v, "=")
		if strings.TrimSpace(ion) == "" {
			return slots, errors.Newf(errors.ErrCodeEmptyIonSymbol, "site %s: %q has no ion symbol", site, v)
		}
		slots.Ions = append(slots.Ions, ion)
		slots.Coefficients = append(slots.Coefficients, coef)
	}
	return slots, nil
}

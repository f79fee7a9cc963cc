package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	appcomp "github.com/turtacn/perovskite-json/internal/application/composition"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// documentView prints a composition document.  Table output lists one row per
// ion with its main reference fields.
type documentView struct {
	*ptypes.Document
}

func (v documentView) TableHeaders() []string {
	return []string{"Site", "Ion", "Coef", "Common name", "Formula", "SMILES", "CAS"}
}

func (v documentView) TableRows() [][]string {
	var rows [][]string
	for _, site := range ptypes.Sites {
		sec := v.Section(site)
		for i, ion := range sec.Ions {
			coef := ptypes.MissingText
			if i < len(sec.Coefficients) {
				coef = sec.Coefficients[i].String()
			}
			rows = append(rows, []string{
				string(site), ion, coef,
				at(sec.CommonNames, i), at(sec.MolecularFormulas, i), at(sec.SMILES, i), at(sec.CASNumbers, i),
			})
		}
	}
	return rows
}

func (v documentView) String() string {
	var sb strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&sb, "%-16s%s\n", label+":", value)
	}
	line("Family", v.Family)
	line("Composition", v.Composition)
	line("Band gap", string(v.BandGap))
	line("Dimensionality", v.Dimensionality)
	if len(v.Additives) > 0 {
		line("Additives", strings.Join(v.Additives, ", "))
	}
	for _, site := range ptypes.Sites {
		sec := v.Section(site)
		parts := make([]string, len(sec.Ions))
		for i, ion := range sec.Ions {
			coef := ptypes.MissingText
			if i < len(sec.Coefficients) {
				coef = sec.Coefficients[i].String()
			}
			parts[i] = ion + "=" + coef
		}
		line(string(site)+" ions", strings.Join(parts, " "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// composeView prints the outcome of compose.
type composeView struct {
	*appcomp.ComposeResult
	DryRun bool `json:"dry_run"`
}

func (v composeView) TableHeaders() []string { return documentView{&v.Document}.TableHeaders() }
func (v composeView) TableRows() [][]string  { return documentView{&v.Document}.TableRows() }

func (v composeView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s%s\n", "Family:", v.Family)
	fmt.Fprintf(&sb, "%-16s%s\n", "Composition:", v.Formula)
	if v.DryRun {
		fmt.Fprintf(&sb, "%-16s%s\n", "Written to:", color.YellowString("nothing (dry run)"))
	} else {
		fmt.Fprintf(&sb, "%-16s%s\n", "Written to:", color.GreenString(v.Location))
	}
	fmt.Fprintf(&sb, "%-16s%s\n", "Request id:", v.RequestID)
	if !v.KnownDimensionality && v.Document.Dimensionality != "" {
		fmt.Fprintf(&sb, "%s dimensionality %q is not one of %s\n",
			color.YellowString("Note:"), v.Document.Dimensionality, strings.Join(ptypes.Dimensionalities, ", "))
	}
	sites := make([]string, 0, len(v.Unmatched))
	for site := range v.Unmatched {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	for _, site := range sites {
		fmt.Fprintf(&sb, "%s site %s ions not in reference table: %s\n",
			color.YellowString("Warning:"), site, strings.Join(v.Unmatched[site], ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// listView prints a flat list of labels, one per line in text mode.
type listView struct {
	Site  string   `json:"site,omitempty"`
	Items []string `json:"items"`
}

func (v listView) TableHeaders() []string { return []string{"#", "Value"} }

func (v listView) TableRows() [][]string {
	rows := make([][]string, len(v.Items))
	for i, item := range v.Items {
		rows[i] = []string{fmt.Sprint(i + 1), item}
	}
	return rows
}

func (v listView) String() string { return strings.Join(v.Items, "\n") }

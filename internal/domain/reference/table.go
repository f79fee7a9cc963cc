// Package reference models the per-site ion reference tables and the lookup
// that turns a list of ion abbreviations into chemical metadata.
package reference

import (
	"context"
	"sort"
	"strings"

	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// Column headers a reference table must carry.
const (
	ColAbbreviation     = "Abbreviation"
	ColCommonName       = "Common_name"
	ColIUPACName        = "IUPAC_name"
	ColSMILES           = "SMILE"
	ColMolecularFormula = "Molecular_formula"
	ColCAS              = "CAS"
	ColParentSMILES     = "Parent_SMILE"
	ColParentIUPAC      = "Parent_IUPAC"
	ColParentCAS        = "Parent_CAS"
)

// RequiredColumns lists every header a table must provide, in table order.
var RequiredColumns = []string{
	ColAbbreviation, ColCommonName, ColIUPACName, ColSMILES, ColMolecularFormula,
	ColCAS, ColParentSMILES, ColParentIUPAC, ColParentCAS,
}

// Record is one row of a reference table.  Values are kept as read.
type Record struct {
	Abbreviation     string `json:"abbreviation"`
	CommonName       string `json:"common_name"`
	IUPACName        string `json:"iupac_name"`
	SMILES           string `json:"smiles"`
	MolecularFormula string `json:"molecular_formula"`
	CAS              string `json:"cas"`
	ParentSMILES     string `json:"parent_smiles"`
	ParentIUPAC      string `json:"parent_iupac"`
	ParentCAS        string `json:"parent_cas"`
}

// RecordFromColumns builds a Record from a header-to-value map.  Missing keys
// yield empty strings.
func RecordFromColumns(cols map[string]string) Record {
	return Record{
		Abbreviation:     cols[ColAbbreviation],
		CommonName:       cols[ColCommonName],
		IUPACName:        cols[ColIUPACName],
		SMILES:           cols[ColSMILES],
		MolecularFormula: cols[ColMolecularFormula],
		CAS:              cols[ColCAS],
		ParentSMILES:     cols[ColParentSMILES],
		ParentIUPAC:      cols[ColParentIUPAC],
		ParentCAS:        cols[ColParentCAS],
	}
}

// Table is the ordered content of one site's reference file.
type Table struct {
	Site ptypes.Site `json:"site"`
	Rows []Record    `json:"rows"`
}

// NewTable returns a table for site holding rows in file order.
func NewTable(site ptypes.Site, rows []Record) *Table {
	return &Table{Site: site, Rows: rows}
}

// Lookup returns the first row whose abbreviation equals symbol exactly.
func (t *Table) Lookup(symbol string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	for _, r := range t.Rows {
		if r.Abbreviation == symbol {
			return r, true
		}
	}
	return Record{}, false
}

// Abbreviations returns the distinct non-blank abbreviations, sorted.
func (t *Table) Abbreviations() []string {
	if t == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		a := strings.TrimSpace(r.Abbreviation)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// TableSource loads the reference table of a site.  Implementations read a
// file, a cache or an object store; callers must not assume the result is
// shared between calls.
type TableSource interface {
	Load(ctx context.Context, site ptypes.Site) (*Table, error)
}

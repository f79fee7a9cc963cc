// Package perovskite defines the data transfer objects shared by every layer
// of the toolkit: ion sites, coefficients, the composition request collected
// by a form, and the output document.  No domain logic lives here, only plain
// data types that are safe to import from any layer.
package perovskite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Site
// ─────────────────────────────────────────────────────────────────────────────

// Site is one of the three lattice positions of an ABC3 perovskite.
type Site string

const (
	SiteA Site = "A"
	SiteB Site = "B"
	SiteC Site = "C"
)

// Sites lists the sites in document order.
var Sites = []Site{SiteA, SiteB, SiteC}

// IsValid reports whether s is A, B or C.
func (s Site) IsValid() bool {
	switch s {
	case SiteA, SiteB, SiteC:
		return true
	}
	return false
}

// ParseSite accepts "A", "b", " C " and the long forms "A-ion" etc.
func ParseSite(raw string) (Site, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.TrimSuffix(v, "-ION")
	s := Site(v)
	return s, s.IsValid()
}

// ─────────────────────────────────────────────────────────────────────────────
// Coefficient
// ─────────────────────────────────────────────────────────────────────────────

// MissingText is how a missing coefficient prints inside a formula.
const MissingText = "nan"

// Coefficient is the stoichiometric coefficient of one ion as the user typed
// it.  The text is kept verbatim; no arithmetic is ever performed on it.  A
// coefficient left blank in the form is "missing": it serialises as JSON null
// and prints as MissingText inside the long formula.
type Coefficient struct {
	text    string
	missing bool
}

// NewCoefficient wraps user-entered text.
func NewCoefficient(text string) Coefficient { return Coefficient{text: text} }

// MissingCoefficient returns the "not available" sentinel.
func MissingCoefficient() Coefficient { return Coefficient{missing: true} }

// Coefficients wraps several texts at once.
func Coefficients(texts ...string) []Coefficient {
	out := make([]Coefficient, len(texts))
	for i, t := range texts {
		out[i] = NewCoefficient(t)
	}
	return out
}

// IsMissing reports whether c is the "not available" sentinel.
func (c Coefficient) IsMissing() bool { return c.missing }

// String returns the verbatim text, or MissingText for the sentinel.
func (c Coefficient) String() string {
	if c.missing {
		return MissingText
	}
	return c.text
}

// IsUnity reports whether the coefficient reads exactly "1" once surrounding
// whitespace is ignored.  "1.0" is not unity.
func (c Coefficient) IsUnity() bool {
	return !c.missing && strings.TrimSpace(c.text) == "1"
}

// MarshalJSON encodes a missing coefficient as null and anything else as a
// JSON string holding the verbatim text.
func (c Coefficient) MarshalJSON() ([]byte, error) {
	if c.missing {
		return []byte("null"), nil
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts null, a string, or a bare JSON number (documents
// produced by older tooling stored numbers).
func (c *Coefficient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = MissingCoefficient()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = NewCoefficient(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("coefficient must be a string, number or null: %w", err)
	}
	*c = NewCoefficient(n.String())
	return nil
}

// BandGap is the band gap text, kept verbatim.  It encodes as a JSON string.
type BandGap string

// UnmarshalJSON accepts a string, a bare JSON number or null (read as empty).
// Older tooling wrote the band gap as a number.
func (b *BandGap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BandGap(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("band gap must be a string, number or null: %w", err)
	}
	*b = BandGap(n.String())
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Request
// ─────────────────────────────────────────────────────────────────────────────

// SiteInput is the raw content of one site: ion symbols and their
// coefficients.  Coefficients may be shorter than Ions.
type SiteInput struct {
	Ions         []string      `json:"ions"`
	Coefficients []Coefficient `json:"coefficients"`
}

// Request is everything the form collaborator supplies for one composition,
// already stripped of blank ion slots.
type Request struct {
	A              SiteInput `json:"a"`
	B              SiteInput `json:"b"`
	C              SiteInput `json:"c"`
	BandGap        string    `json:"band_gap"`
	Dimensionality string    `json:"dimensionality"`
	Additives      []string  `json:"additives"`
}

// Site returns the input for s.
func (r Request) Site(s Site) SiteInput {
	switch s {
	case SiteA:
		return r.A
	case SiteB:
		return r.B
	default:
		return r.C
	}
}

// Destination is the folder and file name chosen in the form.
type Destination struct {
	Folder   string `json:"folder"`
	FileName string `json:"file_name"`
}

// Known dimensionality labels offered by the form.  Other labels are accepted.
var Dimensionalities = []string{"0D", "1D", "2D", "3D", "2D/3D", "Unknown"}

// IsKnownDimensionality reports whether label is one of Dimensionalities.
func IsKnownDimensionality(label string) bool {
	for _, d := range Dimensionalities {
		if d == label {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Document
// ─────────────────────────────────────────────────────────────────────────────

// SiteSection is the per-site block of a Document.  All slices are parallel
// to Ions.
type SiteSection struct {
	Ions              []string
	Coefficients      []Coefficient
	SMILES            []string
	MolecularFormulas []string
	IUPACNames        []string
	CommonNames       []string
	CASNumbers        []string
	ParentSMILES      []string
	ParentIUPACNames  []string
	ParentCASNumbers  []string
}

// Document is the persisted record.  Field order is the key order of the
// written file and must not change.
type Document struct {
	Family         string  `json:"Perovskite family"`
	Composition    string  `json:"Perovskite composition"`
	BandGap        BandGap `json:"Band gap"`
	Dimensionality string  `json:"Dimensionality"`

	AIons             []string      `json:"A_ions"`
	ACoef             []Coefficient `json:"A_coef"`
	ASMILES           []string      `json:"A_SMILES"`
	AMolecularFormula []string      `json:"A_molecular_formula"`
	AIUPACNames       []string      `json:"A_IUPAC_names"`
	ACommonNames      []string      `json:"A_common_names"`
	ACASNumbers       []string      `json:"A_cas_numbers"`
	AParentSMILES     []string      `json:"A_parent_SMILES"`
	AParentIUPAC      []string      `json:"A_parent_IUPAC_names"`
	AParentCAS        []string      `json:"A_parent_cas_numbers"`

	BIons             []string      `json:"B_ions"`
	BCoef             []Coefficient `json:"B_coef"`
	BSMILES           []string      `json:"B_SMILES"`
	BMolecularFormula []string      `json:"B_molecular_formula"`
	BIUPACNames       []string      `json:"B_IUPAC_names"`
	BCommonNames      []string      `json:"B_common_names"`
	BCASNumbers       []string      `json:"B_cas_numbers"`
	BParentSMILES     []string      `json:"B_parent_SMILES"`
	BParentIUPAC      []string      `json:"B_parent_IUPAC_names"`
	BParentCAS        []string      `json:"B_parent_cas_numbers"`

	CIons             []string      `json:"C_ions"`
	CCoef             []Coefficient `json:"C_coef"`
	CSMILES           []string      `json:"C_SMILES"`
	CMolecularFormula []string      `json:"C_molecular_formula"`
	CIUPACNames       []string      `json:"C_IUPAC_names"`
	CCommonNames      []string      `json:"C_common_names"`
	CCASNumbers       []string      `json:"C_cas_numbers"`
	CParentSMILES     []string      `json:"C_parent_SMILES"`
	CParentIUPAC      []string      `json:"C_parent_IUPAC_names"`
	CParentCAS        []string      `json:"C_parent_cas_numbers"`

	Additives []string `json:"Additives"`
}

// Section returns the block for site s.
func (d *Document) Section(s Site) SiteSection {
	switch s {
	case SiteA:
		return SiteSection{d.AIons, d.ACoef, d.ASMILES, d.AMolecularFormula, d.AIUPACNames,
			d.ACommonNames, d.ACASNumbers, d.AParentSMILES, d.AParentIUPAC, d.AParentCAS}
	case SiteB:
		return SiteSection{d.BIons, d.BCoef, d.BSMILES, d.BMolecularFormula, d.BIUPACNames,
			d.BCommonNames, d.BCASNumbers, d.BParentSMILES, d.BParentIUPAC, d.BParentCAS}
	default:
		return SiteSection{d.CIons, d.CCoef, d.CSMILES, d.CMolecularFormula, d.CIUPACNames,
			d.CCommonNames, d.CCASNumbers, d.CParentSMILES, d.CParentIUPAC, d.CParentCAS}
	}
}

// SetSection stores sec as the block for site s.  Nil slices are replaced by
// empty ones so that the file always carries [] rather than null.
func (d *Document) SetSection(s Site, sec SiteSection) {
	sec = sec.nonNil()
	switch s {
	case SiteA:
		d.AIons, d.ACoef, d.ASMILES, d.AMolecularFormula, d.AIUPACNames = sec.Ions, sec.Coefficients, sec.SMILES, sec.MolecularFormulas, sec.IUPACNames
		d.ACommonNames, d.ACASNumbers, d.AParentSMILES, d.AParentIUPAC, d.AParentCAS = sec.CommonNames, sec.CASNumbers, sec.ParentSMILES, sec.ParentIUPACNames, sec.ParentCASNumbers
	case SiteB:
		d.BIons, d.BCoef, d.BSMILES, d.BMolecularFormula, d.BIUPACNames = sec.Ions, sec.Coefficients, sec.SMILES, sec.MolecularFormulas, sec.IUPACNames
		d.BCommonNames, d.BCASNumbers, d.BParentSMILES, d.BParentIUPAC, d.BParentCAS = sec.CommonNames, sec.CASNumbers, sec.ParentSMILES, sec.ParentIUPACNames, sec.ParentCASNumbers
	default:
		d.CIons, d.CCoef, d.CSMILES, d.CMolecularFormula, d.CIUPACNames = sec.Ions, sec.Coefficients, sec.SMILES, sec.MolecularFormulas, sec.IUPACNames
		d.CCommonNames, d.CCASNumbers, d.CParentSMILES, d.CParentIUPAC, d.CParentCAS = sec.CommonNames, sec.CASNumbers, sec.ParentSMILES, sec.ParentIUPACNames, sec.ParentCASNumbers
	}
}

func (sec SiteSection) nonNil() SiteSection {
	strs := []*[]string{&sec.Ions, &sec.SMILES, &sec.MolecularFormulas, &sec.IUPACNames,
		&sec.CommonNames, &sec.CASNumbers, &sec.ParentSMILES, &sec.ParentIUPACNames, &sec.ParentCASNumbers}
	for _, p := range strs {
		if *p == nil {
			*p = []string{}
		}
	}
	if sec.Coefficients == nil {
		sec.Coefficients = []Coefficient{}
	}
	return sec
}

package reference

import (
	"context"
	"strings"

	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// NotFoundValue fills every field of an ion absent from the table.
const NotFoundValue = "NaN"

// BlankValue replaces a matched cell that holds no text.
const BlankValue = "nan"

// Metadata holds eight lists parallel to the symbols passed to Enrich.
type Metadata struct {
	CommonNames       []string
	IUPACNames        []string
	SMILES            []string
	MolecularFormulas []string
	CASNumbers        []string
	ParentSMILES      []string
	ParentIUPACNames  []string
	ParentCASNumbers  []string

	// Unmatched lists symbols with no table row, in input order.
	Unmatched []string
}

func newMetadata(n int) Metadata {
	return Metadata{
		CommonNames:       make([]string, 0, n),
		IUPACNames:        make([]string, 0, n),
		SMILES:            make([]string, 0, n),
		MolecularFormulas: make([]string, 0, n),
		CASNumbers:        make([]string, 0, n),
		ParentSMILES:      make([]string, 0, n),
		ParentIUPACNames:  make([]string, 0, n),
		ParentCASNumbers:  make([]string, 0, n),
		Unmatched:         []string{},
	}
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	cp := func(s []string) []string { return append([]string{}, s...) }
	return Metadata{
		CommonNames:       cp(m.CommonNames),
		IUPACNames:        cp(m.IUPACNames),
		SMILES:            cp(m.SMILES),
		MolecularFormulas: cp(m.MolecularFormulas),
		CASNumbers:        cp(m.CASNumbers),
		ParentSMILES:      cp(m.ParentSMILES),
		ParentIUPACNames:  cp(m.ParentIUPACNames),
		ParentCASNumbers:  cp(m.ParentCASNumbers),
		Unmatched:         cp(m.Unmatched),
	}
}

func (m *Metadata) appendRecord(r Record) {
	m.CommonNames = append(m.CommonNames, cell(r.CommonName))
	m.IUPACNames = append(m.IUPACNames, cell(r.IUPACName))
	m.SMILES = append(m.SMILES, cell(r.SMILES))
	m.MolecularFormulas = append(m.MolecularFormulas, cell(r.MolecularFormula))
	m.CASNumbers = append(m.CASNumbers, cell(r.CAS))
	m.ParentSMILES = append(m.ParentSMILES, cell(r.ParentSMILES))
	m.ParentIUPACNames = append(m.ParentIUPACNames, cell(r.ParentIUPAC))
	m.ParentCASNumbers = append(m.ParentCASNumbers, cell(r.ParentCAS))
}

func (m *Metadata) appendNotFound(symbol string) {
	m.CommonNames = append(m.CommonNames, NotFoundValue)
	m.IUPACNames = append(m.IUPACNames, NotFoundValue)
	m.SMILES = append(m.SMILES, NotFoundValue)
	m.MolecularFormulas = append(m.MolecularFormulas, NotFoundValue)
	m.CASNumbers = append(m.CASNumbers, NotFoundValue)
	m.ParentSMILES = append(m.ParentSMILES, NotFoundValue)
	m.ParentIUPACNames = append(m.ParentIUPACNames, NotFoundValue)
	m.ParentCASNumbers = append(m.ParentCASNumbers, NotFoundValue)
	m.Unmatched = append(m.Unmatched, symbol)
}

func cell(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return BlankValue
	}
	return v
}

// Enricher resolves ion symbols against the reference table of their site.
// The table is loaded on every call so edits to the file are picked up.
type Enricher struct {
	source TableSource
	logger logging.Logger
}

// NewEnricher returns an Enricher reading tables from source.
func NewEnricher(source TableSource, logger logging.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Enricher{source: source, logger: logger.Named("reference")}
}

// Enrich returns metadata for symbols, in the same order.  A symbol is matched
// only by exact equality with the Abbreviation column; the first matching row
// wins.  An empty symbol list does not touch the table.
func (e *Enricher) Enrich(ctx context.Context, site ptypes.Site, symbols []string) (Metadata, error) {
	md := newMetadata(len(symbols))
	if len(symbols) == 0 {
		return md, nil
	}

	table, err := e.load(ctx, site)
	if err != nil {
		return Metadata{}, err
	}

	for _, sym := range symbols {
		if r, ok := table.Lookup(sym); ok {
			md.appendRecord(r)
			continue
		}
		md.appendNotFound(sym)
	}
	if len(md.Unmatched) > 0 {
		e.logger.Warn("ions missing from reference table",
			logging.String("site", string(site)),
			logging.Strings("ions", md.Unmatched))
	}
	return md, nil
}

// Abbreviations returns the sorted abbreviations listed in the site's table.
func (e *Enricher) Abbreviations(ctx context.Context, site ptypes.Site) ([]string, error) {
	table, err := e.load(ctx, site)
	if err != nil {
		return nil, err
	}
	return table.Abbreviations(), nil
}

// load wraps untyped source failures as REF_001.
func (e *Enricher) load(ctx context.Context, site ptypes.Site) (*Table, error) {
	table, err := e.source.Load(ctx, site)
	if err == nil {
		return table, nil
	}
	if errors.GetCode(err) != errors.CodeUnknown {
		return nil, err
	}
	return nil, errors.Wrap(err, errors.ErrCodeReferenceUnavailable, "load reference table").
		WithDetail("site=" + string(site))
}

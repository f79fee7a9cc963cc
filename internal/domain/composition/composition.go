package composition

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// MetadataSource resolves ion symbols to reference metadata.  It is satisfied
// by *reference.Enricher.
type MetadataSource interface {
	Enrich(ctx context.Context, site ptypes.Site, symbols []string) (reference.Metadata, error)
}

// Composition is a fully normalised and enriched perovskite record.  It is
// immutable once built; accessors return copies.
type Composition struct {
	family         string
	formula        string
	bandGap        string
	dimensionality string
	additives      []string
	groups         map[ptypes.Site]IonGroup
	metadata       map[ptypes.Site]reference.Metadata
}

// Build normalises every site of req, derives both formulas and enriches the
// ions through source.  Sites are processed in A, B, C order and the first
// failure aborts the build.
func Build(ctx context.Context, req ptypes.Request, source MetadataSource) (*Composition, error) {
	c := &Composition{
		bandGap:        req.BandGap,
		dimensionality: req.Dimensionality,
		additives:      CleanAdditives(req.Additives),
		groups:         make(map[ptypes.Site]IonGroup, len(ptypes.Sites)),
		metadata:       make(map[ptypes.Site]reference.Metadata, len(ptypes.Sites)),
	}

	ordered := make([]IonGroup, 0, len(ptypes.Sites))
	for _, site := range ptypes.Sites {
		in := req.Site(site)
		g, err := Normalize(site, in.Ions, in.Coefficients)
		if err != nil {
			return nil, err
		}
		c.groups[site] = g
		ordered = append(ordered, g)
	}
	c.family = ShortFormula(ordered...)
	c.formula = LongFormula(ordered...)

	for _, site := range ptypes.Sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md, err := source.Enrich(ctx, site, c.groups[site].ions)
		if err != nil {
			return nil, err
		}
		c.metadata[site] = md
	}
	return c, nil
}

// CleanAdditives trims every entry, drops blanks and sorts the rest.
func CleanAdditives(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Composition) Family() string         { return c.family }
func (c *Composition) Formula() string        { return c.formula }
func (c *Composition) BandGap() string        { return c.bandGap }
func (c *Composition) Dimensionality() string { return c.dimensionality }
func (c *Composition) Additives() []string    { return append([]string{}, c.additives...) }

// Group returns the normalised ions of site.
func (c *Composition) Group(site ptypes.Site) IonGroup { return c.groups[site] }

// Unmatched returns, per site, the symbols absent from the reference tables.
// Sites where every ion matched are omitted.
func (c *Composition) Unmatched() map[ptypes.Site][]string {
	out := make(map[ptypes.Site][]string)
	for site, md := range c.metadata {
		if len(md.Unmatched) > 0 {
			out[site] = append([]string{}, md.Unmatched...)
		}
	}
	return out
}

// IonCount is the total number of ions over all sites.
func (c *Composition) IonCount() int {
	n := 0
	for _, g := range c.groups {
		n += g.Len()
	}
	return n
}

// Document projects the composition onto the persisted record layout.  The
// returned document shares no slices with c.
func (c *Composition) Document() ptypes.Document {
	doc := ptypes.Document{
		Family:         c.family,
		Composition:    c.formula,
		BandGap:        ptypes.BandGap(c.bandGap),
		Dimensionality: c.dimensionality,
		Additives:      c.Additives(),
	}
	for _, site := range ptypes.Sites {
		g := c.groups[site]
		md := c.metadata[site].Clone()
		doc.SetSection(site, ptypes.SiteSection{
			Ions:              g.Ions(),
			Coefficients:      g.Coefficients(),
			SMILES:            md.SMILES,
			MolecularFormulas: md.MolecularFormulas,
			IUPACNames:        md.IUPACNames,
			CommonNames:       md.CommonNames,
			CASNumbers:        md.CASNumbers,
			ParentSMILES:      md.ParentSMILES,
			ParentIUPACNames:  md.ParentIUPACNames,
			ParentCASNumbers:  md.ParentCASNumbers,
		})
	}
	return doc
}

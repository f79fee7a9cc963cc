// Package composition holds the core of the toolkit: normalising the ions of
// each perovskite site, deriving the family and full formulas, and assembling
// the immutable Composition that is later written as a document.
package composition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// IonGroup is the normalised content of one site: symbols sorted ascending
// with their coefficients permuted alongside.  The two slices always have the
// same length.
type IonGroup struct {
	site  ptypes.Site
	ions  []string
	coefs []ptypes.Coefficient
}

// Site returns the lattice site of the group.
func (g IonGroup) Site() ptypes.Site { return g.site }

// Len returns the number of ions in the group.
func (g IonGroup) Len() int { return len(g.ions) }

// Ions returns a copy of the sorted symbols.
func (g IonGroup) Ions() []string { return append([]string{}, g.ions...) }

// Coefficients returns a copy of the coefficients aligned with Ions.
func (g IonGroup) Coefficients() []ptypes.Coefficient {
	return append([]ptypes.Coefficient{}, g.coefs...)
}

// CleanSymbol trims whitespace and removes exactly one enclosing pair of
// parentheses: "(MA)" becomes "MA", "((MA))" becomes "(MA)".
func CleanSymbol(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = s[1 : len(s)-1]
	}
	return s
}

// Normalize cleans the symbols of one site and sorts them, case-sensitively
// and stably, carrying the coefficients along.  Coefficients shorter than the
// symbols are padded with the missing sentinel; longer ones are rejected.
// Duplicate symbols are kept in their input order.
func Normalize(site ptypes.Site, ions []string, coefs []ptypes.Coefficient) (IonGroup, error) {
	if !site.IsValid() {
		return IonGroup{}, errors.Newf(errors.ErrCodeInvalidSite, "unknown ion site %q", string(site))
	}
	if len(coefs) > len(ions) {
		return IonGroup{}, errors.New(errors.ErrCodeCoefficientOverflow, "more coefficients than ions").
			WithDetail(fmt.Sprintf("site=%s ions=%d coefficients=%d", site, len(ions), len(coefs)))
	}

	cleaned := make([]string, len(ions))
	for i, raw := range ions {
		cleaned[i] = CleanSymbol(raw)
		if cleaned[i] == "" {
			return IonGroup{}, errors.New(errors.ErrCodeEmptyIonSymbol, "ion symbol is empty").
				WithDetail(fmt.Sprintf("site=%s position=%d", site, i))
		}
	}

	padded := make([]ptypes.Coefficient, len(ions))
	copy(padded, coefs)
	for i := len(coefs); i < len(padded); i++ {
		padded[i] = ptypes.MissingCoefficient()
	}

	order := make([]int, len(cleaned))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cleaned[order[a]] < cleaned[order[b]]
	})

	g := IonGroup{
		site:  site,
		ions:  make([]string, len(order)),
		coefs: make([]ptypes.Coefficient, len(order)),
	}
	for dst, src := range order {
		g.ions[dst] = cleaned[src]
		g.coefs[dst] = padded[src]
	}
	return g, nil
}

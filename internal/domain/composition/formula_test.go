package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

func mustGroup(t *testing.T, site ptypes.Site, ions []string, coefs ...string) IonGroup {
	t.Helper()
	g, err := Normalize(site, ions, ptypes.Coefficients(coefs...))
	require.NoError(t, err)
	return g
}

func TestParenthesize(t *testing.T) {
	assert.Equal(t, "I", Parenthesize("I"))
	assert.Equal(t, "MA", Parenthesize("MA"))
	assert.Equal(t, "(RbI)", Parenthesize("RbI"))
	assert.Equal(t, "(PEA)", Parenthesize("PEA"))
	assert.Equal(t, "", Parenthesize(""))
}

func TestFormulas_ReferenceComposition(t *testing.T) {
	a := mustGroup(t, ptypes.SiteA, []string{"MA", "Cs", "FA"}, "0.79", "0.05", "0.18")
	b := mustGroup(t, ptypes.SiteB, []string{"Pb"}, "1")
	c := mustGroup(t, ptypes.SiteC, []string{"Br", "I"}, "0.5", "2.5")

	assert.Equal(t, "CsFAMAPbBrI", ShortFormula(a, b, c))
	assert.Equal(t, "Cs0.05FA0.18MA0.79PbBr0.5I2.5", LongFormula(a, b, c))
}

func TestFormulas_LongSymbolsParenthesized(t *testing.T) {
	a := mustGroup(t, ptypes.SiteA, []string{"RbI", "Cs"}, "0.1", "0.9")
	b := mustGroup(t, ptypes.SiteB, []string{"Pb"}, "1")
	c := mustGroup(t, ptypes.SiteC, []string{"I"}, "3")

	assert.Equal(t, "Cs(RbI)PbI", ShortFormula(a, b, c))
	assert.Equal(t, "Cs0.9(RbI)0.1PbI3", LongFormula(a, b, c))
}

func TestLongFormula_UnityVariants(t *testing.T) {
	for _, unity := range []string{"1", " 1", "1 ", "  1  "} {
		b := mustGroup(t, ptypes.SiteB, []string{"Pb"}, unity)
		assert.Equal(t, "Pb", LongFormula(b), "coefficient %q", unity)
	}
	b := mustGroup(t, ptypes.SiteB, []string{"Pb"}, "1.0")
	assert.Equal(t, "Pb1.0", LongFormula(b))
}

func TestLongFormula_MissingCoefficient(t *testing.T) {
	c := mustGroup(t, ptypes.SiteC, []string{"I", "Br"}, "2.5")
	assert.Equal(t, "BrnanI2.5", LongFormula(c))
}

func TestFormulas_EmptyGroups(t *testing.T) {
	empty := mustGroup(t, ptypes.SiteA, nil)
	b := mustGroup(t, ptypes.SiteB, []string{"Pb"}, "1")

	assert.Equal(t, "Pb", ShortFormula(empty, b, empty))
	assert.Equal(t, "Pb", LongFormula(empty, b, empty))
	assert.Equal(t, "", ShortFormula())
}

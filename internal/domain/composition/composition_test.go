package composition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

type memorySource map[ptypes.Site]*reference.Table

func (m memorySource) Load(_ context.Context, site ptypes.Site) (*reference.Table, error) {
	t, ok := m[site]
	if !ok {
		return nil, fmt.Errorf("no table for %s", site)
	}
	return t, nil
}

func testSource() memorySource {
	return memorySource{
		ptypes.SiteA: reference.NewTable(ptypes.SiteA, []reference.Record{
			{Abbreviation: "Cs", CommonName: "Cesium", IUPACName: "caesium", SMILES: "[Cs+]", MolecularFormula: "Cs", CAS: "7440-46-2"},
			{Abbreviation: "FA", CommonName: "Formamidinium", IUPACName: "aminomethylideneazanium", SMILES: "C(=[NH2+])N", MolecularFormula: "CH5N2"},
			{Abbreviation: "MA", CommonName: "Methylammonium", IUPACName: "methylazanium", SMILES: "C[NH3+]", MolecularFormula: "CH6N"},
		}),
		ptypes.SiteB: reference.NewTable(ptypes.SiteB, []reference.Record{
			{Abbreviation: "Pb", CommonName: "Lead", IUPACName: "lead(2+)", SMILES: "[Pb+2]", MolecularFormula: "Pb"},
		}),
		ptypes.SiteC: reference.NewTable(ptypes.SiteC, []reference.Record{
			{Abbreviation: "Br", CommonName: "Bromide", IUPACName: "bromide", SMILES: "[Br-]", MolecularFormula: "Br"},
			{Abbreviation: "I", CommonName: "Iodide", IUPACName: "iodide", SMILES: "[I-]", MolecularFormula: "I"},
		}),
	}
}

func referenceRequest() ptypes.Request {
	return ptypes.Request{
		A:              ptypes.SiteInput{Ions: []string{"MA", "Cs", "FA"}, Coefficients: ptypes.Coefficients("0.79", "0.05", "0.18")},
		B:              ptypes.SiteInput{Ions: []string{"Pb"}, Coefficients: ptypes.Coefficients("1")},
		C:              ptypes.SiteInput{Ions: []string{"Br", "I"}, Coefficients: ptypes.Coefficients("0.5", "2.5")},
		BandGap:        "1.6",
		Dimensionality: "3D",
		Additives:      []string{" RbI", "", "KI "},
	}
}

func TestBuild_ReferenceComposition(t *testing.T) {
	enricher := reference.NewEnricher(testSource(), nil)

	c, err := Build(context.Background(), referenceRequest(), enricher)
	require.NoError(t, err)

	assert.Equal(t, "CsFAMAPbBrI", c.Family())
	assert.Equal(t, "Cs0.05FA0.18MA0.79PbBr0.5I2.5", c.Formula())
	assert.Equal(t, "1.6", c.BandGap())
	assert.Equal(t, "3D", c.Dimensionality())
	assert.Equal(t, []string{"KI", "RbI"}, c.Additives())
	assert.Equal(t, []string{"Cs", "FA", "MA"}, c.Group(ptypes.SiteA).Ions())
	assert.Equal(t, 6, c.IonCount())
	assert.Empty(t, c.Unmatched())

	doc := c.Document()
	assert.Equal(t, []string{"Cesium", "Formamidinium", "Methylammonium"}, doc.ACommonNames)
	assert.Equal(t, []string{"caesium", "aminomethylideneazanium", "methylazanium"}, doc.AIUPACNames)
	assert.Equal(t, []string{"7440-46-2", "nan", "nan"}, doc.ACASNumbers)
	assert.Equal(t, []string{"[Br-]", "[I-]"}, doc.CSMILES)
	assert.Equal(t, ptypes.Coefficients("1"), doc.BCoef)
}

func TestDocument_ReturnsCopies(t *testing.T) {
	c, err := Build(context.Background(), referenceRequest(), reference.NewEnricher(testSource(), nil))
	require.NoError(t, err)

	doc := c.Document()
	doc.ASMILES[0] = "changed"
	doc.CCommonNames[1] = "changed"
	doc.BCASNumbers[0] = "changed"
	doc.AIons[0] = "changed"
	doc.Additives[0] = "changed"

	again := c.Document()
	assert.Equal(t, []string{"[Cs+]", "C(=[NH2+])N", "C[NH3+]"}, again.ASMILES)
	assert.Equal(t, []string{"Bromide", "Iodide"}, again.CCommonNames)
	assert.Equal(t, []string{"nan"}, again.BCASNumbers)
	assert.Equal(t, []string{"Cs", "FA", "MA"}, again.AIons)
	assert.Equal(t, []string{"KI", "RbI"}, again.Additives)
}

func TestBuild_UnmatchedIons(t *testing.T) {
	req := referenceRequest()
	req.A = ptypes.SiteInput{Ions: []string{"XYZ", "Cs"}, Coefficients: ptypes.Coefficients("0.5", "0.5")}

	c, err := Build(context.Background(), req, reference.NewEnricher(testSource(), nil))
	require.NoError(t, err)

	assert.Equal(t, map[ptypes.Site][]string{ptypes.SiteA: {"XYZ"}}, c.Unmatched())
	doc := c.Document()
	assert.Equal(t, []string{"Cs", "XYZ"}, doc.AIons)
	assert.Equal(t, []string{"Cesium", "NaN"}, doc.ACommonNames)
	assert.Equal(t, []string{"[Cs+]", "NaN"}, doc.ASMILES)
	assert.Equal(t, "Cs0.5(XYZ)0.5PbBr0.5I2.5", c.Formula())
}

func TestBuild_NormalizationErrorStopsBeforeEnrichment(t *testing.T) {
	req := referenceRequest()
	req.C.Coefficients = ptypes.Coefficients("1", "2", "3")

	_, err := Build(context.Background(), req, memoryFailing{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeCoefficientOverflow))
}

func TestBuild_SourceFailure(t *testing.T) {
	_, err := Build(context.Background(), referenceRequest(), reference.NewEnricher(memorySource{}, nil))
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceUnavailable))
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, referenceRequest(), reference.NewEnricher(testSource(), nil))
	assert.ErrorIs(t, err, context.Canceled)
}

type memoryFailing struct{}

func (memoryFailing) Enrich(context.Context, ptypes.Site, []string) (reference.Metadata, error) {
	panic("enrichment must not run")
}

func TestCleanAdditives(t *testing.T) {
	assert.Equal(t, []string{}, CleanAdditives(nil))
	assert.Equal(t, []string{"KI", "PEAI", "RbI"}, CleanAdditives([]string{"RbI", "  ", "PEAI", " KI"}))
}

func TestDocument_KeyOrderAndEncoding(t *testing.T) {
	c, err := Build(context.Background(), referenceRequest(), reference.NewEnricher(testSource(), nil))
	require.NoError(t, err)

	data, err := EncodeDocument(c.Document())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n    \"Perovskite family\": \"CsFAMAPbBrI\""))
	assert.False(t, strings.HasSuffix(text, "\n"))
	assert.Contains(t, text, `"C(=[NH2+])N"`)

	keys := []string{
		"Perovskite family", "Perovskite composition", "Band gap", "Dimensionality",
	}
	for _, site := range []string{"A", "B", "C"} {
		for _, suffix := range []string{"ions", "coef", "SMILES", "molecular_formula", "IUPAC_names",
			"common_names", "cas_numbers", "parent_SMILES", "parent_IUPAC_names", "parent_cas_numbers"} {
			keys = append(keys, site+"_"+suffix)
		}
	}
	keys = append(keys, "Additives")

	last := -1
	for _, k := range keys {
		idx := strings.Index(text, `"`+k+`":`)
		require.GreaterOrEqual(t, idx, 0, "key %q missing", k)
		assert.Greater(t, idx, last, "key %q out of order", k)
		last = idx
	}

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Len(t, generic, len(keys))
}

func TestDocument_RoundTrip(t *testing.T) {
	req := referenceRequest()
	req.C.Coefficients = ptypes.Coefficients("0.5")

	c, err := Build(context.Background(), req, reference.NewEnricher(testSource(), nil))
	require.NoError(t, err)

	doc := c.Document()
	data, err := EncodeDocument(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "null")

	back, err := DecodeDocument(data)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, back, cmp.AllowUnexported(ptypes.Coefficient{})); diff != "" {
		t.Errorf("document changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestDecodeDocument_Invalid(t *testing.T) {
	_, err := DecodeDocument([]byte("{"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentRead))
}

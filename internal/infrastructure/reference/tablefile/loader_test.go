package tablefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

var aIons = []reference.Record{
	{Abbreviation: "Cs", CommonName: "Cesium", IUPACName: "caesium", SMILES: "[Cs+]", MolecularFormula: "Cs", CAS: "7440-46-2"},
	{Abbreviation: "MA", CommonName: "Methylammonium", IUPACName: "methylazanium", SMILES: "C[NH3+]", MolecularFormula: "CH6N",
		ParentSMILES: "CN", ParentIUPAC: "methanamine", ParentCAS: "74-89-5"},
}

func writeFixture(t *testing.T, dir, name string, records []reference.Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, WriteWorkbook(path, records))
	return path
}

func TestPaths_For(t *testing.T) {
	p := Paths{Dir: "Data_ions", A: "A-ion_data.xlsx", B: "/abs/B.xlsx"}
	assert.Equal(t, filepath.Join("Data_ions", "A-ion_data.xlsx"), p.For(ptypes.SiteA))
	assert.Equal(t, "/abs/B.xlsx", p.For(ptypes.SiteB))
	assert.Equal(t, "", p.For(ptypes.SiteC))

	assert.Equal(t, "A.xlsx", Paths{A: "A.xlsx"}.For(ptypes.SiteA))
}

func TestLoader_LoadWorkbook(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "A.xlsx", aIons)

	l := NewLoader(Paths{Dir: dir, A: "A.xlsx"}, nil)
	table, err := l.Load(context.Background(), ptypes.SiteA)
	require.NoError(t, err)

	assert.Equal(t, ptypes.SiteA, table.Site)
	assert.Equal(t, aIons, table.Rows)
	assert.Equal(t, []string{"Cs", "MA"}, table.Abbreviations())
}

func TestLoader_RereadsOnEveryLoad(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "A.xlsx", aIons[:1])
	l := NewLoader(Paths{Dir: dir, A: "A.xlsx"}, nil)

	table, err := l.Load(context.Background(), ptypes.SiteA)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	writeFixture(t, dir, "A.xlsx", aIons)
	table, err = l.Load(context.Background(), ptypes.SiteA)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestLoader_ColumnOrderAndExtraColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "B.xlsx")

	f := excelize.NewFile()
	header := []interface{}{"Notes", "CAS", "Abbreviation", "Common_name", "IUPAC_name", "SMILE",
		"Molecular_formula", "Parent_SMILE", "Parent_IUPAC", "Parent_CAS"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	row := []interface{}{"ignored", "7439-92-1", "Pb", "Lead"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewLoader(Paths{B: path}, nil).Load(context.Background(), ptypes.SiteB)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, reference.Record{Abbreviation: "Pb", CommonName: "Lead", CAS: "7439-92-1"}, table.Rows[0])
}

func TestLoader_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "C.csv")
	content := "\ufeffAbbreviation,Common_name,IUPAC_name,SMILE,Molecular_formula,CAS,Parent_SMILE,Parent_IUPAC,Parent_CAS\n" +
		"I,Iodide,iodide,[I-],I,20461-54-5,,,\n" +
		",,,,,,,,\n" +
		"Br,Bromide,bromide,[Br-],Br\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewLoader(Paths{C: path}, nil).Load(context.Background(), ptypes.SiteC)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "20461-54-5", table.Rows[0].CAS)
	assert.Equal(t, "Bromide", table.Rows[1].CommonName)
	assert.Equal(t, "", table.Rows[1].CAS)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := NewLoader(Paths{}, nil).Load(ctx, ptypes.SiteA)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceUnavailable))

	_, err = NewLoader(Paths{Dir: dir, A: "missing.xlsx"}, nil).Load(ctx, ptypes.SiteA)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceUnavailable))

	_, err = NewLoader(Paths{Dir: dir, A: "table.ods"}, nil).Load(ctx, ptypes.SiteA)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceFormat))

	_, err = NewLoader(Paths{A: "x.xlsx"}, nil).Load(ctx, ptypes.Site("D"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSite))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Abbreviation,SMILE\nMA,C[NH3+]\n"), 0o644))
	_, err = NewLoader(Paths{A: bad}, nil).Load(ctx, ptypes.SiteA)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceColumn))
	assert.Contains(t, err.Error(), "Common_name")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewLoader(Paths{A: bad}, nil).Load(cancelled, ptypes.SiteA)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_SetPaths(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "one.xlsx", aIons[:1])
	writeFixture(t, dir, "two.xlsx", aIons)

	l := NewLoader(Paths{Dir: dir, A: "one.xlsx"}, nil)
	l.SetPaths(Paths{Dir: dir, A: "two.xlsx"})
	assert.Equal(t, "two.xlsx", l.Paths().A)

	table, err := l.Load(context.Background(), ptypes.SiteA)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestParseRecords(t *testing.T) {
	_, err := ParseRecords(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceColumn))

	header := append([]string{}, reference.RequiredColumns...)
	header[0] = "  Abbreviation "
	recs, err := ParseRecords([][]string{header, {"FA", "Formamidinium"}, {}, {"  "}})
	require.NoError(t, err)
	assert.Equal(t, []reference.Record{{Abbreviation: "FA", CommonName: "Formamidinium"}}, recs)
}

func TestWriteWorkbook_RejectsOtherExtensions(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "x.csv"), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceFormat))
}

func TestWriteWorkbook_EmptyTemplate(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "template.xlsx", nil)
	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, reference.RequiredColumns, rows[0])
}

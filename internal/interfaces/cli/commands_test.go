package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	"github.com/turtacn/perovskite-json/internal/infrastructure/reference/tablefile"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

type fixture struct {
	dir        string
	refDir     string
	outDir     string
	configPath string
}

func writeTables(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	tables := map[string][]reference.Record{
		"A-ion_data.xlsx": {
			{Abbreviation: "Cs", CommonName: "Cesium", SMILES: "[Cs+]", MolecularFormula: "Cs", CAS: "7440-46-2"},
			{Abbreviation: "MA", CommonName: "Methylammonium", SMILES: "C[NH3+]", MolecularFormula: "CH6N"},
			{Abbreviation: "PEA", CommonName: "Phenethylammonium", SMILES: "[NH3+]CCc1ccccc1"},
		},
		"B-ion_data.xlsx": {
			{Abbreviation: "Pb", CommonName: "Lead", SMILES: "[Pb+2]"},
		},
		"C-ion_data.xlsx": {
			{Abbreviation: "I", CommonName: "Iodide", SMILES: "[I-]"},
			{Abbreviation: "Br", CommonName: "Bromide", SMILES: "[Br-]"},
		},
	}
	for name, records := range tables {
		require.NoError(t, tablefile.WriteWorkbook(filepath.Join(dir, name), records))
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		refDir:     filepath.Join(dir, "Data_ions"),
		outDir:     filepath.Join(dir, "Data"),
		configPath: filepath.Join(dir, "perovskite.yaml"),
	}
	writeTables(t, f.refDir)

	yaml := fmt.Sprintf(`reference:
  dir: %q
  a: A-ion_data.xlsx
  b: B-ion_data.xlsx
  c: C-ion_data.xlsx
output:
  backend: filesystem
  default_folder: %q
log:
  level: error
`, f.refDir, f.outDir)
	require.NoError(t, os.WriteFile(f.configPath, []byte(yaml), 0o644))
	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", f.configPath, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestComposeCommand_WritesDocument(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "compose",
		"--a", "MA=0,85", "--a", "Cs=0.15",
		"--b", "Pb=1",
		"--c", "I=3",
		"--band-gap", "1,6",
		"--dimensionality", "3D",
		"--additive", " KI ",
		"--file", "CsMAPbI3.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "CsMAPbI")
	assert.Contains(t, out, "Cs0.15MA0.85PbI3")

	path := filepath.Join(f.outDir, "CsMAPbI3.json")
	assert.Contains(t, out, path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    \"Perovskite family\": \"CsMAPbI\"")
	assert.Contains(t, string(raw), "\"Band gap\": \"1.6\"")

	inspected, err := f.run(t, "-o", "json", "inspect", path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(inspected), &doc))
	assert.Equal(t, "CsMAPbI", doc["Perovskite family"])
	assert.Equal(t, []interface{}{"Cs", "MA"}, doc["A_ions"])
	assert.Equal(t, []interface{}{"Cesium", "Methylammonium"}, doc["A_common_names"])
	assert.Equal(t, []interface{}{"KI"}, doc["Additives"])
}

func TestComposeCommand_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "compose", "--a", "PEA", "--b", "Pb", "--c", "Br=3", "--file", "x", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(PEA)PbBr")
	assert.Contains(t, out, "(PEA)nanPbnanBr3")
	assert.Contains(t, out, "dry run")

	_, statErr := os.Stat(filepath.Join(f.outDir, "x.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestComposeCommand_ReportsUnmatchedIons(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "compose", "--a", "XY=1", "--b", "Pb", "--c", "I", "--file", "unknown", "--dimensionality", "4D")
	require.NoError(t, err)
	assert.Contains(t, out, "site A ions not in reference table: XY")
	assert.Contains(t, out, `dimensionality "4D"`)

	raw, err := os.ReadFile(filepath.Join(f.outDir, "unknown.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"A_common_names": [
        "NaN"
    ]`)
}

func TestComposeCommand_TableOutput(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "-o", "table", "compose", "--a", "Cs", "--b", "Pb", "--c", "I", "--file", "t", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Cesium")
	assert.Contains(t, out, "Iodide")
}

func TestComposeCommand_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"empty ion symbol", []string{"--a", "=0.5", "--file", "x"}, errors.ErrCodeEmptyIonSymbol},
		{"missing file name", []string{"--a", "Cs"}, errors.ErrCodeInvalidFileName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, append([]string{"compose"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestIonsCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "ions", "a")
	require.NoError(t, err)
	assert.Equal(t, "Cs\nFA\nMA\nPEA\n", out)

	jsonOut, err := f.run(t, "-o", "json", "ions", "C-ion")
	require.NoError(t, err)
	var got listView
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &got))
	assert.Equal(t, "C", got.Site)
	assert.Equal(t, []string{"Br", "I"}, got.Items)

	_, err = f.run(t, "ions", "D")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSite))
}

func TestDimensionalitiesCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "-o", "json", "dimensionalities")
	require.NoError(t, err)
	var got listView
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, ptypes.Dimensionalities, got.Items)
}

func TestInspectCommand_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "inspect", filepath.Join(f.dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	bad := filepath.Join(f.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"Perovskite family": 3}`), 0o644))
	_, err = f.run(t, "inspect", bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentSchema))
}

func TestTemplateCommand(t *testing.T) {
	f := newFixture(t)
	target := filepath.Join(f.dir, "new-dataset")

	out, err := f.run(t, "template", target)
	require.NoError(t, err)
	for _, name := range []string{"A-ion_data.xlsx", "B-ion_data.xlsx", "C-ion_data.xlsx"} {
		path := filepath.Join(target, name)
		assert.FileExists(t, path)
		assert.Contains(t, out, path)

		rows, err := tablefile.ReadRows(path)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, reference.RequiredColumns, rows[0])
	}

	_, err = f.run(t, "template", target)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = f.run(t, "template", "--force", target)
	assert.NoError(t, err)
}

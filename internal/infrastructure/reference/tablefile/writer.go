package tablefile

import (
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	"github.com/turtacn/perovskite-json/pkg/errors"
)

const sheetName = "Sheet1"

// WriteWorkbook writes records to a new .xlsx file at path with the standard
// header row, bold and frozen.  It is used to create empty templates for new
// datasets.
func WriteWorkbook(path string, records []reference.Record) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return errors.New(errors.ErrCodeReferenceFormat, "reference workbook must be .xlsx").WithDetail("path=" + path)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, header := range reference.RequiredColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return errors.Wrap(err, errors.ErrCodeReferenceFormat, "write header")
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(reference.RequiredColumns), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for r, rec := range records {
		values := []string{
			rec.Abbreviation, rec.CommonName, rec.IUPACName, rec.SMILES, rec.MolecularFormula,
			rec.CAS, rec.ParentSMILES, rec.ParentIUPAC, rec.ParentCAS,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return errors.Wrap(err, errors.ErrCodeReferenceFormat, "write row")
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "save reference workbook").WithDetail("path=" + path)
	}
	return nil
}

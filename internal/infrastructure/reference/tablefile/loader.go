// Package tablefile reads the per-site ion reference tables from disk.  Excel
// workbooks (.xlsx, .xlsm) are read with excelize; plain .csv files are also
// accepted.  Only the first worksheet of a workbook is used and its first row
// must carry the column headers.
package tablefile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// Paths locates the three reference tables.  Relative file names are joined
// to Dir.
type Paths struct {
	Dir string `mapstructure:"dir" json:"dir"`
	A   string `mapstructure:"a" json:"a"`
	B   string `mapstructure:"b" json:"b"`
	C   string `mapstructure:"c" json:"c"`
}

// For returns the resolved path of site's table.
func (p Paths) For(site ptypes.Site) string {
	var name string
	switch site {
	case ptypes.SiteA:
		name = p.A
	case ptypes.SiteB:
		name = p.B
	case ptypes.SiteC:
		name = p.C
	}
	if name == "" || filepath.IsAbs(name) || p.Dir == "" {
		return name
	}
	return filepath.Join(p.Dir, name)
}

// Loader implements reference.TableSource over files on disk.  Every Load
// re-reads the file.
type Loader struct {
	mu     sync.RWMutex
	paths  Paths
	logger logging.Logger
}

// NewLoader returns a Loader for paths.
func NewLoader(paths Paths, log logging.Logger) *Loader {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Loader{paths: paths, logger: log.Named("tablefile")}
}

// SetPaths swaps the table locations, e.g. after a configuration reload.
func (l *Loader) SetPaths(paths Paths) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = paths
}

// Paths returns the current table locations.
func (l *Loader) Paths() Paths {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paths
}

// Load reads and parses the table of site.
func (l *Loader) Load(ctx context.Context, site ptypes.Site) (*reference.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !site.IsValid() {
		return nil, errors.Newf(errors.ErrCodeInvalidSite, "unknown ion site %q", string(site))
	}
	path := l.Paths().For(site)
	if path == "" {
		return nil, errors.New(errors.ErrCodeReferenceUnavailable, "no reference table configured").
			WithDetail("site=" + string(site))
	}

	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	records, err := ParseRecords(rows)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "parse reference table").WithDetail("path=" + path)
	}

	l.logger.Debug("Reference table loaded",
		logging.String("site", string(site)),
		logging.String("path", path),
		logging.Int("rows", len(records)))
	return reference.NewTable(site, records), nil
}

// ReadRows returns every row of the table at path, header included.
func ReadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, errors.New(errors.ErrCodeReferenceFormat, "unsupported reference table format").
			WithDetail("path=" + path)
	}
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceUnavailable, "open reference workbook").
			WithDetail("path=" + path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceFormat, "workbook has no sheets").WithDetail("path=" + path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceFormat, "read reference worksheet").
			WithDetail("path=" + path + " sheet=" + sheets[0])
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceUnavailable, "open reference csv").
			WithDetail("path=" + path)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceFormat, "read reference csv").
			WithDetail("path=" + path)
	}
	return rows, nil
}

// ParseRecords maps rows onto records using the header in rows[0].  Header
// names are trimmed; a UTF-8 byte-order mark on the first header is ignored.
// Rows whose cells are all blank are skipped.
func ParseRecords(rows [][]string) ([]reference.Record, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceColumn, "reference table is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	var missing []string
	for _, col := range reference.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeReferenceColumn, "reference table is missing columns").
			WithDetail(strings.Join(missing, ", "))
	}

	records := make([]reference.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cols := make(map[string]string, len(reference.RequiredColumns))
		for _, col := range reference.RequiredColumns {
			if i := index[col]; i < len(row) {
				cols[col] = row[i]
			}
		}
		records = append(records, reference.RecordFromColumns(cols))
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

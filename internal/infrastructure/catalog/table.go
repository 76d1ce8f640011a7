package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/spiceshelf/shelf/pkg/errors"
)

// table is a header row plus the data rows below it. lines holds the
// 1-based source line of each row; the header is line 1.
type table struct {
	resource string
	header   map[string]int
	rows     [][]string
	lines    []int
}

// readTable opens path as CSV or XLSX depending on its extension. Records the
// CSV reader cannot parse go through d's malformed-row policy.
func readTable(resource, path, sheet string, d *rowDecoder) (*table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewMissingResourceError(resource, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var (
		records [][]string
		lines   []int
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path, sheet)
		lines = make([]int, len(records))
		for i := range lines {
			lines[i] = i + 1
		}
	default:
		records, lines, err = readCSV(resource, path, d)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resource, err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewMalformedRowError(resource, 0, errors.New("missing header row"))
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}

	return &table{resource: resource, header: header, rows: records[1:], lines: lines[1:]}, nil
}

// readCSV reads every record of path. Quotes inside unquoted fields are kept
// literally, so a cell like ["Cumin"] needs no escaping.
func readCSV(resource, path string, d *rowDecoder) ([][]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if err := d.parseError(resource, err); err != nil {
				return nil, nil, err
			}
			continue
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}

// line returns the source line of data row i.
func (t *table) line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// require checks that every named column is present.
func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewMalformedRowError(t.resource, 0,
			fmt.Errorf("missing column(s): %s", strings.Join(missing, ", ")))
	}
	return nil
}

// cell returns the trimmed value of column in row, or "" when the row is short
// or the column is absent.
func (t *table) cell(row []string, column string) string {
	i, ok := t.header[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// blank reports whether every cell of row is empty.
func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

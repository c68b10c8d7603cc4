package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrNoRows            = errors.New("no data rows found in file")
)

// SheetNotFoundError names the sheets a workbook does have.
type SheetNotFoundError struct {
	Name      string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found. Available sheets: %s", e.Name, strings.Join(e.Available, ", "))
}

// Cell is one raw source value. Numeric spreadsheet cells keep their number so
// that date serials and durations are not re-parsed from display text.
type Cell struct {
	Text     string
	Number   float64
	IsNumber bool
}

func TextCell(s string) Cell        { return Cell{Text: s} }
func NumberCell(f float64) Cell     { return Cell{Number: f, IsNumber: true, Text: formatNumber(f)} }
func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func (c Cell) String() string { return c.Text }

// Empty reports whether the cell holds nothing. A numeric zero counts as empty.
func (c Cell) Empty() bool {
	if c.IsNumber {
		return c.Number == 0
	}
	return strings.TrimSpace(c.Text) == ""
}

// Row maps the original header to its cell.
type Row map[string]Cell

// Table is a fully read source. Headers come from the first row.
type Table struct {
	Sheet   string
	Headers []string
	Rows    []Row
}

// ReadFile reads every row of a spreadsheet (.xlsx, .xlsm) or delimited file (.csv, .tsv).
// sheet selects a workbook sheet and defaults to the first one.
func ReadFile(path, sheet string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		t   *Table
		err error
	)
	switch ext {
	case ".xlsx", ".xlsm":
		t, err = ReadWorkbook(path, sheet)
	case ".csv", ".tsv":
		comma := ','
		if ext == ".tsv" {
			comma = '\t'
		}
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		t, err = ReadDelimited(f, comma)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q (use .xlsx, .xlsm, .csv or .tsv)", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

// decodeText turns UTF-16 (with BOM) and Latin-1 input into UTF-8 and drops a UTF-8 BOM.
func decodeText(r io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return nil, errors.Wrap(err, "decode utf-16")
		}
		return bytes.NewReader(out), nil
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return bytes.NewReader(data[3:]), nil
	case utf8.Valid(data):
		return bytes.NewReader(data), nil
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return nil, errors.Wrap(err, "decode latin-1")
	}
	return bytes.NewReader(out), nil
}

func ReadDelimited(r io.Reader, comma rune) (*Table, error) {
	decoded, err := decodeText(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bufio.NewReader(decoded))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRows
		}
		return nil, errors.Wrap(err, "read header")
	}
	t := &Table{Headers: uniqueHeaders(header)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", len(t.Rows)+2)
		}
		cells := make([]Cell, len(rec))
		for i, v := range rec {
			cells[i] = TextCell(v)
		}
		if row, ok := t.row(cells); ok {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

func ReadWorkbook(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	name := sheet
	if name == "" {
		name = sheets[0]
	} else if indexOf(sheets, name) < 0 {
		return nil, &SheetNotFoundError{Name: name, Available: sheets}
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", name)
	}
	if len(raw) == 0 {
		return nil, ErrNoRows
	}

	t := &Table{Sheet: name, Headers: uniqueHeaders(raw[0])}
	for r := 1; r < len(raw); r++ {
		cells := make([]Cell, len(raw[r]))
		for c, v := range raw[r] {
			cells[c] = workbookCell(f, name, c+1, r+1, v)
		}
		if row, ok := t.row(cells); ok {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

func workbookCell(f *excelize.File, sheet string, col, row int, raw string) Cell {
	if raw == "" {
		return TextCell("")
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return TextCell(raw)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return TextCell(raw)
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return TextCell(raw)
	case excelize.CellTypeBool:
		if raw == "1" {
			return TextCell("true")
		}
		return TextCell("false")
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return NumberCell(n)
	}
	return TextCell(raw)
}

// row pairs cells with headers. Rows whose cells are all empty are skipped.
func (t *Table) row(cells []Cell) (Row, bool) {
	row := make(Row, len(t.Headers))
	blank := true
	for i, h := range t.Headers {
		c := TextCell("")
		if i < len(cells) {
			c = cells[i]
		}
		if c.IsNumber || strings.TrimSpace(c.Text) != "" {
			blank = false
		}
		row[h] = c
	}
	return row, !blank
}

// uniqueHeaders trims headers, names blank ones __EMPTY and suffixes repeats with _1, _2...
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := map[string]bool{}
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "__EMPTY"
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", h, n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/warrantor/internal/columns"
	"github.com/nconklindev/warrantor/internal/types"

	"github.com/xuri/excelize/v2"
)

// emptyHeader labels a header cell that carries no text.
const emptyHeader = "__EMPTY"

// AllowedTypes lists the file extensions ParseFile accepts.
var AllowedTypes = []string{".xlsx", ".xls"}

var (
	warrantyColumns = []string{
		"Warranty ID",
		"Order ID",
		"Customer Name",
		"Email",
		"Phone",
		"Product Name",
		"Product Model",
		"Purchase Date",
		"Activation Date",
		"Expiry Date",
		"Status",
	}

	claimColumns = []string{
		"Claim ID",
		"Warranty ID",
		"Order ID",
		"Customer Name",
		"Email",
		"Product Name",
		"Problem Description",
		"Claim Date",
		"Status",
	}
)

var sheetNames = map[types.Kind]string{
	types.KindWarranty: "Warranties",
	types.KindClaims:   "Claims",
}

// FormatError reports input that could not be decoded as a spreadsheet.
type FormatError struct {
	File string
	Err  error
}

func (e *FormatError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("failed to parse Excel file %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("failed to parse Excel file: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Columns returns the fixed header row written for kind.
func Columns(kind types.Kind) ([]string, error) {
	switch kind {
	case types.KindWarranty:
		return warrantyColumns, nil
	case types.KindClaims:
		return claimColumns, nil
	default:
		return nil, fmt.Errorf("unknown export kind: %s", kind)
	}
}

// IsAllowedType checks the extension of path against AllowedTypes
func IsAllowedType(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range AllowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ParseFile opens an .xlsx or .xls file and parses its first worksheet
func ParseFile(path string) ([]types.Record, error) {
	if !IsAllowedType(path) {
		return nil, &FormatError{File: filepath.Base(path), Err: fmt.Errorf("unsupported file type: %s", filepath.Ext(path))}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := Parse(file)
	var fe *FormatError
	if errors.As(err, &fe) {
		fe.File = filepath.Base(path)
	}
	return records, err
}

// Parse reads the first worksheet of a spreadsheet. The table starts at the
// first non-blank row and column; that row holds the field labels and every
// later non-blank row becomes one record with exactly one field per label.
func Parse(r io.Reader) ([]types.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Err: fmt.Errorf("workbook has no worksheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &FormatError{Err: err}
	}

	records := []types.Record{}
	rows = usedRange(rows)
	if len(rows) == 0 {
		return records, nil
	}

	headers := headerLabels(rows[0])
	for _, row := range rows[1:] {
		if isBlankRow(row, len(headers)) {
			continue
		}

		record := make(types.Record, len(headers))
		for i, label := range headers {
			if i < len(row) {
				record[label] = row[i]
			} else {
				record[label] = ""
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// Generate writes records into a single-sheet workbook laid out with the fixed
// columns of kind. Fields a record lacks are left blank.
func Generate(kind types.Kind, records []types.Record) ([]byte, error) {
	headers, err := Columns(kind)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheetNames[kind]
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, record := range records {
		row := make([]interface{}, len(headers))
		for j, label := range headers {
			v, _ := columns.Lookup(record, label)
			row[j] = v
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := styleHeader(f, sheetName, len(headers)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// styleHeader bolds the header row and widens the used columns
func styleHeader(f *excelize.File, sheetName string, width int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, style); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheetName, "A", lastCol, 20)
}

// headerLabels turns the header row into unique field labels. Blank cells
// become __EMPTY and repeats get a numeric suffix so no column is dropped.
func headerLabels(row []string) []string {
	labels := make([]string, len(row))
	used := make(map[string]bool, len(row))
	counts := make(map[string]int, len(row))

	for i, cell := range row {
		base := cell
		if strings.TrimSpace(cell) == "" {
			base = emptyHeader
		}

		label := base
		for used[label] {
			counts[base]++
			label = fmt.Sprintf("%s_%d", base, counts[base])
		}

		used[label] = true
		labels[i] = label
	}

	return labels
}

// usedRange drops the blank rows above the table and the columns left of it
// that are blank in every row.
func usedRange(rows [][]string) [][]string {
	for len(rows) > 0 && isBlankRow(rows[0], len(rows[0])) {
		rows = rows[1:]
	}

	offset := -1
	for _, row := range rows {
		for i, cell := range row {
			if offset >= 0 && i >= offset {
				break
			}
			if cell != "" {
				offset = i
				break
			}
		}
	}
	if offset <= 0 {
		return rows
	}

	trimmed := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > offset {
			trimmed[i] = row[offset:]
		}
	}
	return trimmed
}

func isBlankRow(row []string, width int) bool {
	for i, cell := range row {
		if i >= width {
			break
		}
		if cell != "" {
			return false
		}
	}
	return true
}

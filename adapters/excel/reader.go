package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bmcount/domain/countdata"
	"bmcount/internal"

	"github.com/xuri/excelize/v2"
)

// TableReader reads count tables from Excel and CSV files
type TableReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewTableReader creates a reader for an .xlsx or .csv count table. For
// workbooks the first sheet is read unless WithSheet selects another.
func NewTableReader(filePath string, logger *internal.Logger) *TableReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &TableReader{filePath: filePath, fileType: fileType, logger: logger.With("TableReader")}
}

// WithSheet selects the workbook sheet to read.
func (r *TableReader) WithSheet(sheet string) *TableReader {
	r.sheet = sheet
	return r
}

// Read loads the table.
func (r *TableReader) Read() (*CountTable, error) {
	r.logger.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}

	return r.processRows(rows)
}

func (r *TableReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets: %s", r.filePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *TableReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into a CountTable
func (r *TableReader) processRows(rows [][]string) (*CountTable, error) {
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s file must have a header row", strings.ToUpper(r.fileType))
	}

	groupCol, valueCol, countCol := -1, -1, -1
	for i, header := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case ColumnGroup:
			groupCol = i
		case ColumnValue:
			valueCol = i
		case ColumnCount:
			countCol = i
		}
	}
	if valueCol < 0 || countCol < 0 {
		return nil, fmt.Errorf("header must name %q and %q columns, got %v", ColumnValue, ColumnCount, rows[0])
	}

	table := &CountTable{Counts: make(map[string]countdata.CountMap[float64])}
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}

		group := DefaultGroup
		if groupCol >= 0 {
			group = strings.TrimSpace(cell(row, groupCol))
			if group == "" {
				return nil, fmt.Errorf("row %d: empty group", line)
			}
		}

		value, err := countdata.ParseValue(cell(row, valueCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(cell(row, countCol)))
		if err != nil {
			return nil, fmt.Errorf("row %d: count %q is not an integer", line, cell(row, countCol))
		}

		counts, ok := table.Counts[group]
		if !ok {
			counts = make(countdata.CountMap[float64])
			table.Counts[group] = counts
			table.Groups = append(table.Groups, group)
		}
		counts[value] += count
	}

	r.logger.Info("%s loaded (%d groups, %d rows)", filepath.Base(r.filePath), len(table.Groups), len(rows)-1)
	return table, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

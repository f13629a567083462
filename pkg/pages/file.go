package pages

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrOutsideDataDir is returned for a relative name that escapes its data
// directory.
var ErrOutsideDataDir = errors.New("path escapes the data directory")

// File reads test data from the data-source directory and writes results to
// the data-write directory. Relative names resolve inside those directories;
// absolute paths are used as given.
type File struct {
	base *BasePage
}

func scoped(dir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	path := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideDataDir)
	}
	return path, nil
}

func (f *File) source(name string) (string, error) {
	return scoped(f.base.Config.Paths.DataSource, name)
}

func (f *File) target(name string) (string, error) {
	path, err := scoped(f.base.Config.Paths.DataWrite, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return path, nil
}

// records maps data rows onto header names. Missing trailing cells read as "".
func records(header []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func values(header []string, rec map[string]string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = rec[col]
	}
	return row
}

// ReadCSV reads a CSV file whose first line is the header.
func (f *File) ReadCSV(name string) ([]map[string]string, error) {
	path, err := f.source(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		f.base.Logger.Errorf("read CSV %s: %v", path, err)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		f.base.Logger.Errorf("read CSV %s: %v", path, err)
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		f.base.Logger.Warnf("CSV %s is empty", path)
		return nil, nil
	}

	out := records(rows[0], rows[1:])
	f.base.Logger.Infof("read %d records from %s", len(out), path)
	return out, nil
}

// WriteCSV writes rows in header order. With appendRows the rows go after any
// existing content and the header is written only for a new or empty file.
func (f *File) WriteCSV(name string, header []string, rows []map[string]string, appendRows bool) (string, error) {
	path, err := f.target(name)
	if err != nil {
		return "", err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendRows {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	for _, rec := range rows {
		if err := w.Write(values(header, rec)); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	f.base.Logger.Infof("wrote %d records to %s", len(rows), path)
	return path, nil
}

// ReadJSON decodes a JSON file into v.
func (f *File) ReadJSON(name string, v interface{}) error {
	path, err := f.source(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		f.base.Logger.Errorf("read JSON %s: %v", path, err)
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		f.base.Logger.Errorf("decode JSON %s: %v", path, err)
		return fmt.Errorf("decode %s: %w", path, err)
	}

	f.base.Logger.Infof("read JSON from %s", path)
	return nil
}

// WriteJSON encodes v with four-space indentation.
func (f *File) WriteJSON(name string, v interface{}) (string, error) {
	path, err := f.target(name)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	f.base.Logger.Infof("wrote JSON to %s", path)
	return path, nil
}

// ReadExcel reads a sheet whose first row is the header. An empty sheet name
// reads the first sheet.
func (f *File) ReadExcel(name, sheet string) ([]map[string]string, error) {
	path, err := f.source(name)
	if err != nil {
		return nil, err
	}

	book, err := excelize.OpenFile(path)
	if err != nil {
		f.base.Logger.Errorf("open workbook %s: %v", path, err)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer book.Close()

	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		f.base.Logger.Errorf("read sheet %q of %s: %v", sheet, path, err)
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		f.base.Logger.Warnf("sheet %q of %s is empty", sheet, path)
		return nil, nil
	}

	out := records(rows[0], rows[1:])
	f.base.Logger.Infof("read %d records from %s[%s]", len(out), path, sheet)
	return out, nil
}

// WriteExcel writes rows to sheet in header order, creating the workbook and
// sheet as needed. With appendRows the rows go below existing content.
func (f *File) WriteExcel(name, sheet string, header []string, rows []map[string]string, appendRows bool) (string, error) {
	path, err := f.target(name)
	if err != nil {
		return "", err
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	var book *excelize.File
	if appendRows {
		book, err = excelize.OpenFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
	}
	if book == nil {
		book = excelize.NewFile()
		if sheet != "Sheet1" {
			if err := book.SetSheetName("Sheet1", sheet); err != nil {
				book.Close()
				return "", fmt.Errorf("name sheet %q: %w", sheet, err)
			}
		}
	}
	defer book.Close()

	if idx, err := book.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := book.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}

	existing, err := book.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	next := len(existing) + 1
	lines := make([][]string, 0, len(rows)+1)
	if next == 1 {
		lines = append(lines, header)
	}
	for _, rec := range rows {
		lines = append(lines, values(header, rec))
	}

	for _, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return "", err
		}
		row := make([]interface{}, len(line))
		for i, v := range line {
			row[i] = v
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("write row %d: %w", next, err)
		}
		next++
	}

	if err := book.SaveAs(path); err != nil {
		f.base.Logger.Errorf("save workbook %s: %v", path, err)
		return "", fmt.Errorf("save %s: %w", path, err)
	}

	f.base.Logger.Infof("wrote %d records to %s[%s]", len(rows), path, sheet)
	return path, nil
}

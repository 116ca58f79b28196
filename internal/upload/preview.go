package upload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"idrecon/internal/domain"
)

// Preview is the head of a source file as the operator will upload it.
type Preview struct {
	Header []string
	Rows   [][]string
	Total  int
	Sheet  string
}

// ReadPreview parses filename's content and keeps the first limit data rows.
func ReadPreview(filename string, data []byte, limit int) (*Preview, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return previewXLSX(data, limit)
	case ".csv":
		utf, _, err := NormalizeCSV(data)
		if err != nil {
			return nil, err
		}
		return previewCSV(utf, limit)
	default:
		return nil, domain.ErrValidation("предпросмотр для %q не поддерживается", filepath.Ext(filename))
	}
}

func previewXLSX(data []byte, limit int) (*Preview, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	p := cut(rows, limit)
	p.Sheet = sheet
	return p, nil
}

// previewCSV reads comma-separated content and retries with ";" when the
// header has a single field, like the backend parser does.
func previewCSV(data []byte, limit int) (*Preview, error) {
	var rows [][]string
	for _, sep := range []rune{',', ';'} {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = sep
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		parsed, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rows = parsed
		if len(parsed) == 0 || len(parsed[0]) > 1 {
			break
		}
	}
	return cut(rows, limit), nil
}

func cut(rows [][]string, limit int) *Preview {
	p := &Preview{}
	if len(rows) == 0 {
		return p
	}
	p.Header = rows[0]
	body := rows[1:]
	p.Total = len(body)
	if limit > 0 && len(body) > limit {
		body = body[:limit]
	}
	p.Rows = body
	return p
}

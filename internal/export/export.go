// Package export turns the rows currently shown in a table view into a
// spreadsheet, either on the backend or locally.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"idrecon/internal/backend"
	"idrecon/internal/table"
)

// ErrNoRows rejects an export of an empty view before any request is sent.
var ErrNoRows = errors.New("Нет данных для выгрузки")

const (
	// DefaultSheet is used when no sheet name is requested.
	DefaultSheet = "Данные"
	// MaxSheetName is the spreadsheet format's sheet-name limit in characters.
	MaxSheetName = 31
)

// Request is one export of a table view: the displayed columns and the
// filtered rows, in display order.
type Request struct {
	Columns  table.Columns
	Rows     []table.Row
	Filename string
	Sheet    string
}

// NewRequest validates and normalises an export request.
func NewRequest(cols table.Columns, rows []table.Row, filename, sheet string) (Request, error) {
	if len(rows) == 0 {
		return Request{}, ErrNoRows
	}
	return Request{
		Columns:  cols,
		Rows:     rows,
		Filename: Filename(filename),
		Sheet:    SheetName(sheet),
	}, nil
}

var unsafeSheet = strings.NewReplacer(`\`, "_", "/", "_", "?", "_", "*", "_", ":", "_", "[", "_", "]", "_")

// SheetName applies the default, replaces the characters a sheet name may
// not contain and truncates to MaxSheetName characters. A sheet name may
// not start or end with an apostrophe either.
func SheetName(s string) string {
	s = strings.Trim(unsafeSheet.Replace(strings.TrimSpace(s)), "'")
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSheet
	}
	if utf8.RuneCountInString(s) > MaxSheetName {
		s = strings.TrimRight(string([]rune(s)[:MaxSheetName]), "'")
	}
	return s
}

// Filename ensures an .xlsx extension.
func Filename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "export"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

var unsafeName = strings.NewReplacer(`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_", "[", "_", "]", "_")

// SafeName replaces characters that are not allowed in file names.
func SafeName(s string) string {
	return unsafeName.Replace(strings.TrimSpace(s))
}

// Payload converts the request to the backend wire format. Each row only
// carries the requested columns.
func (r Request) Payload() backend.ExportTableRequest {
	cols := make([]backend.ExportColumn, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = backend.ExportColumn{Key: c.Key, Label: c.Label}
	}
	rows := make([]map[string]string, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]string, len(r.Columns))
		for _, c := range r.Columns {
			m[c.Key] = row.Get(c.Key)
		}
		rows[i] = m
	}
	return backend.ExportTableRequest{Columns: cols, Rows: rows, Filename: r.Filename, Sheet: r.Sheet}
}

// Service exports through the backend.
type Service struct {
	client *backend.Client
}

// NewService creates an export service.
func NewService(client *backend.Client) *Service {
	return &Service{client: client}
}

// Table posts req to the backend and returns the workbook stream. The
// requested filename wins over the one the backend suggests.
func (s *Service) Table(ctx context.Context, req Request) (*backend.Download, error) {
	if len(req.Rows) == 0 {
		return nil, ErrNoRows
	}
	dl, err := s.client.ExportTable(ctx, req.Payload())
	if err != nil {
		return nil, fmt.Errorf("export table: %w", err)
	}
	dl.Filename = req.Filename
	return dl, nil
}

// Consolidated streams the backend's full consolidated workbook.
func (s *Service) Consolidated(ctx context.Context) (*backend.Download, error) {
	dl, err := s.client.ExportConsolidated(ctx)
	if err != nil {
		return nil, fmt.Errorf("export consolidated: %w", err)
	}
	return dl, nil
}

// Workbook and sheet names of the fixed reports.
const (
	ConsolidatedFile  = "Сводная_таблица.xlsx"
	ConsolidatedSheet = "Сводная"
	DuplicatesFile    = "Дубли_логинов_AD.xlsx"
	DuplicatesSheet   = "Дубли"
)

// SecurityNames returns the workbook and sheet names of one finding's items.
func SecurityNames(id string) (filename, sheet string) {
	return "Безопасность_" + SafeName(id) + ".xlsx", id
}

// FindingColumns is the items column model of one security finding: the
// shared account columns followed by the finding's own.
func FindingColumns(f backend.Finding) table.Columns {
	extra := make([]table.Column, 0, len(f.ExtraColumns))
	for _, c := range f.ExtraColumns {
		extra = append(extra, table.Column{Key: c.Key, Label: c.Label})
	}
	return table.MustColumnSet("security_items").With(extra...)
}

package upload

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// NormalizeCSV returns UTF-8 content. A UTF-8 BOM is stripped; content that
// is not valid UTF-8 is decoded as Windows-1251, the usual encoding of
// directory exports made on Russian-locale workstations.
func NormalizeCSV(data []byte) ([]byte, string, error) {
	if bytes.HasPrefix(data, bomUTF8) {
		return data[len(bomUTF8):], "utf-8-bom", nil
	}
	if utf8.Valid(data) {
		return data, "utf-8", nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("decode windows-1251: %w", err)
	}
	return decoded, "windows-1251", nil
}

// IsCSV reports whether filename names a CSV file.
func IsCSV(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

var allowedExt = map[string]bool{".csv": true, ".xlsx": true, ".xls": true}

// CheckFilename rejects files the backend cannot parse.
func CheckFilename(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

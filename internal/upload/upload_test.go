package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
)

func TestLookup(t *testing.T) {
	src, err := Lookup("ad/moscow")
	require.NoError(t, err)
	assert.Equal(t, "AD Москва", src.Label)
	assert.Equal(t, "moscow", src.DomainKey())

	mfa, err := Lookup("mfa")
	require.NoError(t, err)
	assert.Empty(t, mfa.DomainKey())

	_, err = Lookup("ad/paris")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Len(t, Sources(), 5)
}

func TestNormalizeCSV(t *testing.T) {
	text := "Логин;ФИО\nivanov;Иванов Иван\n"

	got, enc, err := NormalizeCSV([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, text, string(got))

	got, enc, err = NormalizeCSV(append([]byte{0xEF, 0xBB, 0xBF}, text...))
	require.NoError(t, err)
	assert.Equal(t, "utf-8-bom", enc)
	assert.Equal(t, text, string(got))

	cp1251, err := charmap.Windows1251.NewEncoder().String(text)
	require.NoError(t, err)
	got, enc, err = NormalizeCSV([]byte(cp1251))
	require.NoError(t, err)
	assert.Equal(t, "windows-1251", enc)
	assert.Equal(t, text, string(got))
}

func TestStatusTexts(t *testing.T) {
	assert.Equal(t, Status{OK: true, Text: "Загружено: 120 записей (ad.xlsx)"},
		UploadStatus(&backend.UploadResult{Rows: 120, Filename: "ad.xlsx"}))
	assert.Equal(t, "Загружено: 120 записей (ad.xlsx) | пропущено 4 чужих",
		UploadStatus(&backend.UploadResult{Rows: 120, Filename: "ad.xlsx", Skipped: 4}).Text)
	assert.Equal(t, "Удалено: 9 записей", ClearStatus(&backend.ClearResult{Deleted: 9}).Text)
	assert.Equal(t, "Удалено: AD 1, MFA 2, Кадры 3",
		ClearAllStatus(&backend.ClearAllResult{Deleted: map[string]backend.LooseInt{"ad": 1, "mfa": 2, "people": 3}}).Text)

	st := ErrorStatus(&backend.APIError{Status: 500})
	assert.False(t, st.OK)
	assert.Equal(t, "Сервер вернул ошибку 500", st.Text)
	assert.Equal(t, "Ошибка сети: refused", ErrorStatus(&backend.NetworkError{Err: errors.New("refused")}).Text)
}

func TestStatsLine(t *testing.T) {
	stats := &backend.Stats{
		ADDomains: map[string]backend.DomainStats{
			"moscow":  {City: "Москва", Rows: 30},
			"izhevsk": {City: "Ижевск", Rows: 10},
			"tula":    {Rows: 2},
		},
		ADTotal:    42,
		MFARows:    7,
		PeopleRows: 5,
		LastUpload: map[string]*backend.UploadInfo{"mfa": {Filename: "mfa.csv", At: "01.02.2024 10:00", Rows: 7}},
	}
	assert.Equal(t, "AD: 42 (Ижевск: 10, Москва: 30, tula: 2) · MFA: 7 · Кадры: 5", StatsLine(stats))
	assert.Equal(t, "AD: 0 · MFA: 0 · Кадры: 0", StatsLine(&backend.Stats{}))
	assert.Empty(t, StatsLine(nil))

	assert.Equal(t, "mfa.csv, 01.02.2024 10:00, 7 записей", LastUpload(stats, "mfa"))
	assert.Empty(t, LastUpload(stats, "people"))
}

func newService(t *testing.T, h http.HandlerFunc) (*Service, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewService(backend.NewClient(srv.URL, ""), nil), &calls
}

func TestUpload_TranscodesCSV(t *testing.T) {
	var received string
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		received = string(data)
		_, _ = io.WriteString(w, `{"rows":1,"filename":"mfa.csv"}`)
	})

	cp1251, err := charmap.Windows1251.NewEncoder().String("identity;name\nivanov;Иванов\n")
	require.NoError(t, err)

	res, err := svc.Upload(context.Background(), "mfa", "mfa.csv", strings.NewReader(cp1251))
	require.NoError(t, err)
	assert.Equal(t, backend.LooseInt(1), res.Rows)
	assert.Contains(t, received, "Иванов")
}

func TestUpload_RejectsBadInputWithoutRequest(t *testing.T) {
	svc, calls := newService(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Upload(context.Background(), "ldap", "a.csv", strings.NewReader(""))
	require.Error(t, err)
	_, err = svc.Upload(context.Background(), "mfa", "a.pdf", strings.NewReader(""))
	require.Error(t, err)
	_, err = svc.Upload(context.Background(), "mfa", "", strings.NewReader(""))
	require.Error(t, err)

	assert.Zero(t, *calls)
}

func TestClear_RequiresConfirmation(t *testing.T) {
	svc, calls := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/clear/all" {
			_, _ = io.WriteString(w, `{"deleted":{"ad":1,"mfa":0,"people":0}}`)
			return
		}
		_, _ = io.WriteString(w, `{"deleted":3}`)
	})
	ctx := context.Background()

	_, err := svc.Clear(ctx, "people", false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	_, err = svc.ClearAll(ctx, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Zero(t, *calls)

	res, err := svc.Clear(ctx, "people", true)
	require.NoError(t, err)
	assert.Equal(t, backend.LooseInt(3), res.Deleted)
	_, err = svc.ClearAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestConfirmPrompt(t *testing.T) {
	assert.Equal(t, "Удалить все данные AD Кострома?", ConfirmPrompt("ad/kostroma"))
	assert.Contains(t, ConfirmPrompt(""), "ВСЮ")
}

func TestReadPreview_CSVSemicolon(t *testing.T) {
	p, err := ReadPreview("people.csv", []byte("staff_uuid;fio\n1;A\n2;B\n3;C\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"staff_uuid", "fio"}, p.Header)
	assert.Equal(t, 3, p.Total)
	assert.Len(t, p.Rows, 2)
}

func TestReadPreview_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"login", "name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"ivanov", "Иванов"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	p, err := ReadPreview("ad.xlsx", buf.Bytes(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", p.Sheet)
	assert.Equal(t, [][]string{{"ivanov", "Иванов"}}, p.Rows)
}

func TestReadPreview_Unsupported(t *testing.T) {
	_, err := ReadPreview("old.xls", nil, 1)
	require.Error(t, err)
}

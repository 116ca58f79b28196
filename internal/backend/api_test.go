package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok")
}

func TestUpload_Multipart(t *testing.T) {
	var (
		gotPath, gotName, gotContent string
	)
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		gotName, gotContent = hdr.Filename, string(data)
		_, _ = io.WriteString(w, `{"ok":true,"rows":42,"filename":"ad.xlsx","skipped":3}`)
	})

	res, err := c.Upload(context.Background(), "ad/moscow", "ad.xlsx", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "/api/upload/ad/moscow", gotPath)
	assert.Equal(t, "ad.xlsx", gotName)
	assert.Equal(t, "payload", gotContent)
	assert.Equal(t, LooseInt(42), res.Rows)
	assert.Equal(t, LooseInt(3), res.Skipped)
}

func TestUpload_ServerDetail(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Нет имени файла"}`)
	})

	_, err := c.Upload(context.Background(), "mfa", "x.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, "Нет имени файла", Message(err))
}

func TestClearAndClearAll(t *testing.T) {
	var methods []string
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/api/clear/all" {
			_, _ = io.WriteString(w, `{"deleted":{"ad":10,"mfa":5,"people":2}}`)
			return
		}
		_, _ = io.WriteString(w, `{"deleted":7}`)
	})

	one, err := c.Clear(context.Background(), "people")
	require.NoError(t, err)
	assert.Equal(t, LooseInt(7), one.Deleted)

	all, err := c.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LooseInt(10), all.Deleted["ad"])
	assert.Equal(t, []string{"DELETE /api/clear/people", "DELETE /api/clear/all"}, methods)
}

func TestStats(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"ad_domains": {"moscow": {"city": "Москва", "rows": 3}},
			"ad_total": 3, "ad_rows": 3, "mfa_rows": 2, "people_rows": 1,
			"last_upload": {"ad": {"filename": "ad.xlsx", "at": "2024-01-01T10:00:00", "rows": 3}, "mfa": null}
		}`)
	})

	s, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.ADCount())
	assert.Equal(t, "Москва", s.ADDomains["moscow"].City)
	require.NotNil(t, s.LastUpload["ad"])
	assert.Equal(t, "ad.xlsx", s.LastUpload["ad"].Filename)
	assert.Nil(t, s.LastUpload["mfa"])
}

func TestMembersQueries(t *testing.T) {
	var got []string
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"members":[{"login":"a","enabled":"Да"}],"count":1,"city":"Ижевск"}`)
	})
	ctx := context.Background()

	m, err := c.GroupMembers(ctx, "VPN", "izhevsk")
	require.NoError(t, err)
	assert.Equal(t, "Ижевск", m.City)
	assert.Equal(t, "a", m.Members[0]["login"])

	_, err = c.StructureMembers(ctx, "Departments/ИТ", "izhevsk")
	require.NoError(t, err)
	_, err = c.OrgMembers(ctx, "ООО Ромашка", "")
	require.NoError(t, err)

	assert.Equal(t, "/api/groups/members?domain=izhevsk&group=VPN", got[0])
	assert.Contains(t, got[1], "/api/structure/members?")
	assert.NotContains(t, got[2], "department=")
}

func TestTrees(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/structure/tree":
			_, _ = io.WriteString(w, `{"domains":[{"key":"moscow","city":"Москва","total_users":5,
				"tree":[{"name":"Departments","count":0,"total":5,"children":[{"name":"ИТ","count":5,"total":5,"children":[]}]}]}]}`)
		case "/api/org/tree":
			_, _ = io.WriteString(w, `{"companies":[{"name":"A","departments":[{"name":"B","count":2}],"count":2}],"total_users":2}`)
		default:
			_, _ = io.WriteString(w, `{"domains":[{"key":"moscow","city":"Москва","groups":[{"name":"VPN","count":4,"active_count":3}],"total_users":5}]}`)
		}
	})
	ctx := context.Background()

	st, err := c.StructureTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ИТ", st.Domains[0].Tree[0].Children[0].Name)
	assert.Equal(t, LooseInt(5), st.Domains[0].Tree[0].Total)

	org, err := c.OrgTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", org.Companies[0].Departments[0].Name)

	groups, err := c.GroupTree(ctx)
	require.NoError(t, err)
	require.NotNil(t, groups.Domains[0].Groups[0].ActiveCount)
	assert.Equal(t, LooseInt(3), *groups.Domains[0].Groups[0].ActiveCount)
}

func TestUserCardAndResolve(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/card":
			assert.Equal(t, "_login_ivanov", r.URL.Query().Get("key"))
			_, _ = io.WriteString(w, `{"fio":"Иванов","logins":["ivanov"],"ad":[{"login":"ivanov","enabled":"Да"}],
				"mfa":[],"people":{"fio":"Иванов","hub":"Север"},"duplicates":[{"key":"k2","fio":"Иванов И.","reason":"совпадает ФИО"}]}`)
		case "/api/users/by-dn":
			assert.Equal(t, "CN=Петров,OU=IT,DC=corp", r.URL.Query().Get("dn"))
			_, _ = io.WriteString(w, `{"found":false}`)
		}
	})
	ctx := context.Background()

	card, err := c.UserCard(ctx, "_login_ivanov")
	require.NoError(t, err)
	assert.Equal(t, "Север", card.People["hub"])
	require.Len(t, card.Duplicates, 1)
	assert.Equal(t, "совпадает ФИО", card.Duplicates[0].Reason)

	res, err := c.ResolveDN(ctx, "CN=Петров,OU=IT,DC=corp")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestExportTable_StreamsWorkbook(t *testing.T) {
	var got ExportTableRequest
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", XLSXContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="server.xlsx"`)
		_, _ = io.WriteString(w, "PK-data")
	})

	dl, err := c.ExportTable(context.Background(), ExportTableRequest{
		Columns:  []ExportColumn{{Key: "login", Label: "Логин"}},
		Rows:     []map[string]string{{"login": "a"}},
		Filename: "view.xlsx",
		Sheet:    "Данные",
	})
	require.NoError(t, err)
	defer dl.Body.Close()

	data, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "PK-data", string(data))
	assert.Equal(t, "server.xlsx", dl.Filename)
	assert.Equal(t, "Данные", got.Sheet)
	assert.Len(t, got.Rows, 1)
}

func TestExportConsolidated_FallbackName(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "PK")
	})

	dl, err := c.ExportConsolidated(context.Background())
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, "consolidated.xlsx", dl.Filename)
}

func TestLoginAndMe(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Неверный логин или пароль"}`)
				return
			}
			_, _ = io.WriteString(w, `{"token":"jwt","user":{"username":"ivanov","display_name":"Иванов","role":"admin"}}`)
		case "/api/auth/me":
			_, _ = io.WriteString(w, `{"username":"ivanov","name":"Иванов","role":"admin","domain":"moscow"}`)
		}
	})
	ctx := context.Background()

	_, err := c.Login(ctx, LoginRequest{Username: "ivanov", Password: "bad"})
	require.ErrorIs(t, err, ErrUnauthorized)

	res, err := c.Login(ctx, LoginRequest{Username: "ivanov", Password: "secret", Domain: "moscow"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "admin", res.User.Role)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Иванов", me.Name)
}

func TestSecurityFindings(t *testing.T) {
	c := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_accounts":10,"total_enabled":8,"total_issues":1,"critical_count":1,"high_count":0,
			"findings":[{"id":"spn_kerberoasting","title":"SPN","severity":"critical","description":"d",
			"extra_columns":[{"key":"spn","label":"SPN"}],"count":1,
			"items":[{"login":"svc","enabled":"Да","spn":"HTTP/x","group_count":3}]}]}`)
	})

	rep, err := c.SecurityFindings(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "3", rep.Findings[0].Items[0]["group_count"])
	assert.Equal(t, "spn", rep.Findings[0].ExtraColumns[0].Key)
}

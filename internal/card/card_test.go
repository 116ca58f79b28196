package card

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idrecon/internal/backend"
)

func TestParseDN(t *testing.T) {
	d := ParseDN("CN=Иванов Иван,OU=Отдел,OU=Департамент,OU=Departments,DC=aplana,DC=com")
	assert.Equal(t, "Иванов Иван", d.CN)
	assert.Equal(t, []string{"Departments", "Департамент", "Отдел"}, d.OUs)
	assert.Equal(t, "Departments/Департамент/Отдел", d.OUPath())
	assert.Equal(t, "Departments › Департамент › Отдел", d.Display())
}

func TestParseDN_EscapedComma(t *testing.T) {
	d := ParseDN(`CN=Petrov\, Petr,OU=IT,DC=corp`)
	assert.Equal(t, "Petrov, Petr", d.CN)
	assert.Equal(t, []string{"IT"}, d.OUs)
}

func TestParseDN_Fallback(t *testing.T) {
	// "Sales" has no attribute type, so the RFC parser rejects the name.
	d := ParseDN("CN=x,Sales,OU=Root")
	assert.Equal(t, "x", d.Name())
	assert.Equal(t, "Root", d.OUPath())
}

func TestParseDN_NoCN(t *testing.T) {
	d := ParseDN("OU=Servers,DC=corp")
	assert.Empty(t, d.CN)
	assert.Equal(t, "OU=Servers,DC=corp", d.Name())
	assert.Empty(t, ParseDN("  ").Name())
}

func TestSplitLists(t *testing.T) {
	assert.Equal(t, []string{"VPN", "Domain Users"}, SplitGroups(" VPN ; ;Domain Users;"))
	assert.Nil(t, SplitDNList(""))
}

func TestLinks(t *testing.T) {
	groups := GroupLinks("VPN Users;Wi-Fi", "moscow")
	require.Len(t, groups, 2)
	assert.Equal(t, "/ui/groups?domain=moscow&group=VPN+Users", groups[0].Href)

	ou := OULinks("CN=x,OU=ИТ,OU=Departments,DC=corp", "izhevsk")
	require.Len(t, ou, 1)
	assert.Equal(t, "Departments › ИТ", ou[0].Text)
	assert.Equal(t, StructureHref("izhevsk", "Departments/ИТ"), ou[0].Href)
	assert.Nil(t, OULinks("CN=x,DC=corp", "izhevsk"))

	dns := DNLinks("CN=Boss,OU=Mgmt,DC=corp; CN=Deputy,DC=corp")
	require.Len(t, dns, 2)
	assert.Equal(t, LinkDN, dns[1].Kind)
	assert.Equal(t, "Deputy", dns[1].Text)
	assert.Equal(t, "CN=Deputy,DC=corp", dns[1].DN)
}

func TestBuild(t *testing.T) {
	long := "x"
	for len(long) <= LongValue {
		long += "x"
	}
	doc := &backend.UserCard{
		StaffUUID: "u-1",
		FIO:       "Иванов Иван",
		Logins:    []string{"ivanov"},
		City:      "Москва",
		RM:        "Петров",
		People:    backend.Record{"fio": "Иванов Иван", "hub": "Север", "phone": ""},
		AD: []backend.Record{{
			"ad_source":          "moscow",
			"domain":             "AD Москва",
			"login":              "ivanov",
			"display_name":       "Иванов Иван",
			"enabled":            "Нет",
			"manager":            "CN=Петров,OU=Mgmt,DC=corp",
			"groups":             "VPN",
			"distinguished_name": "CN=Иванов Иван,OU=ИТ,DC=corp",
			"info":               long,
		}},
		MFA:        []backend.Record{{"identity": "ivanov@corp", "status": "active"}},
		Duplicates: []backend.Candidate{{Key: "k2", FIO: "Иванов И.", Reason: "совпадает ФИО"}},
	}

	c := Build(doc, "fallback")
	assert.Equal(t, "Иванов Иван", c.Title)
	assert.Equal(t, []SummaryItem{{"Город", "Москва"}, {"RM", "Петров"}}, c.Summary)

	require.NotNil(t, c.People)
	assert.Len(t, c.People.Fields, 2)

	require.Len(t, c.AD, 1)
	block := c.AD[0]
	assert.Equal(t, "AD Москва — ivanov", block.Title)
	assert.True(t, block.Inactive)

	titles := make([]string, len(block.Sections))
	for i, s := range block.Sections {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{"Основные", "Должность", "Статус", "Идентификаторы", "Связи", "Прочее"}, titles)

	other := block.Sections[len(block.Sections)-1]
	assert.True(t, other.Fields[0].Long)

	links := block.Sections[4].Fields
	require.Len(t, links, 2)
	assert.Equal(t, "OU", links[0].Label)
	assert.Equal(t, "Группы", links[1].Label)

	require.Len(t, c.MFA, 1)
	assert.Len(t, c.MFA[0].Fields, 2)
	assert.Equal(t, "совпадает ФИО", c.Duplicates[0].Reason)
}

func TestBuild_EmptyName(t *testing.T) {
	c := Build(&backend.UserCard{}, "")
	assert.Equal(t, "—", c.Title)
	assert.Nil(t, c.People)
	assert.Empty(t, c.AD)
}

type fakeFetcher struct {
	card *backend.UserCard
	res  *backend.DNResolution
	err  error
}

func (f fakeFetcher) UserCard(context.Context, string) (*backend.UserCard, error) {
	return f.card, f.err
}

func (f fakeFetcher) ResolveDN(context.Context, string) (*backend.DNResolution, error) {
	return f.res, f.err
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	got, err := Resolve(ctx, fakeFetcher{res: &backend.DNResolution{Found: true, Key: "k1"}}, "CN=A,DC=x", "A")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.Key)
	assert.Equal(t, "A", got.DisplayName)
	assert.Nil(t, got.Raw)

	got, err = Resolve(ctx, fakeFetcher{res: &backend.DNResolution{Found: false}}, "CN=Printer,OU=Devices,OU=HQ,DC=x", "")
	require.NoError(t, err)
	require.NotNil(t, got.Raw)
	assert.Equal(t, "Объект AD", got.Raw.Title)
	assert.Equal(t, []Field{
		{Label: "Имя (CN)", Text: "Printer"},
		{Label: "OU", Text: "HQ › Devices"},
		{Label: "Полный DN", Text: "CN=Printer,OU=Devices,OU=HQ,DC=x", Long: true},
	}, got.Raw.Fields)
	assert.Equal(t, NotFoundNote, got.Raw.Note)

	_, err = Resolve(ctx, fakeFetcher{err: errors.New("boom")}, "CN=A", "")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	c, err := Load(context.Background(), fakeFetcher{card: &backend.UserCard{FIO: "X"}}, "k", "")
	require.NoError(t, err)
	assert.Equal(t, "X", c.Title)
}

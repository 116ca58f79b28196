package card

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"idrecon/internal/backend"
)

// LongValue is the length above which a value is shown wrapped.
const LongValue = 80

// LinkKind tells the renderer what a link opens.
type LinkKind int

// Link kinds.
const (
	// LinkPage navigates to another dashboard page.
	LinkPage LinkKind = iota
	// LinkDN opens the directory object in a stacked popup.
	LinkDN
)

// Link is a cross-reference inside a field value.
type Link struct {
	Kind LinkKind
	Text string
	Href string
	DN   string
}

// Field is one label/value row. A value is either text or links.
type Field struct {
	Label string
	Text  string
	Links []Link
	Long  bool
}

// Section is a titled field table.
type Section struct {
	Title  string
	Fields []Field
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool { return len(s.Fields) == 0 }

// SummaryItem is one entry of the card header line.
type SummaryItem struct {
	Label string
	Value string
}

// ADBlock is one AD account of the identity.
type ADBlock struct {
	Title    string
	Inactive bool
	Sections []Section
}

// Card is the render model of a user card.
type Card struct {
	Title      string
	StaffUUID  string
	Logins     []string
	Summary    []SummaryItem
	People     *Section
	AD         []ADBlock
	MFA        []Section
	Duplicates []backend.Candidate
}

type pair struct {
	label string
	value string
}

func textFields(pairs ...pair) []Field {
	out := make([]Field, 0, len(pairs))
	for _, p := range pairs {
		v := strings.TrimSpace(p.value)
		if v == "" {
			continue
		}
		out = append(out, Field{Label: p.label, Text: v, Long: utf8.RuneCountInString(v) > LongValue})
	}
	return out
}

func linkField(label string, links []Link) []Field {
	if len(links) == 0 {
		return nil
	}
	return []Field{{Label: label, Links: links, Long: true}}
}

// Build assembles the card model. fallbackTitle is used when the document
// has no name at all.
func Build(doc *backend.UserCard, fallbackTitle string) Card {
	c := Card{
		Title:      firstNonEmpty(doc.FIO, fallbackTitle, "—"),
		StaffUUID:  doc.StaffUUID,
		Logins:     doc.Logins,
		Duplicates: doc.Duplicates,
	}
	for _, it := range []SummaryItem{
		{"Город", doc.City}, {"Локация", doc.Hub}, {"Подразделение DP", doc.DPUnit}, {"RM", doc.RM},
	} {
		if it.Value != "" {
			c.Summary = append(c.Summary, it)
		}
	}

	if doc.People != nil {
		p := doc.People
		c.People = &Section{Title: "Кадры", Fields: textFields(
			pair{"ФИО", p["fio"]}, pair{"Email", p["email"]},
			pair{"Телефон", p["phone"]}, pair{"Подразделение", p["unit"]},
			pair{"Хаб", p["hub"]}, pair{"Статус", p["employment_status"]},
			pair{"RM", p["unit_manager"]}, pair{"Формат работы", p["work_format"]},
			pair{"HR BP", p["hr_bp"]}, pair{"StaffUUID", p["staff_uuid"]},
		)}
	}

	for _, a := range doc.AD {
		c.AD = append(c.AD, ADBlock{
			Title:    fmt.Sprintf("%s — %s", a["domain"], a["login"]),
			Inactive: a["enabled"] == "Нет",
			Sections: ADSections(a),
		})
	}

	for _, m := range doc.MFA {
		c.MFA = append(c.MFA, Section{Title: m["identity"], Fields: textFields(
			pair{"Identity", m["identity"]}, pair{"ФИО", m["name"]},
			pair{"Email", m["email"]}, pair{"Телефон", m["phones"]},
			pair{"Статус", m["status"]}, pair{"Зарегистрирован", m["is_enrolled"]},
			pair{"Аутентификаторы", m["authenticators"]}, pair{"Последний вход", m["last_login"]},
			pair{"Создан", m["created_at"]}, pair{"Группы MFA", m["mfa_groups"]},
			pair{"LDAP", m["ldap"]},
		)})
	}
	return c
}

// ADSections lays out one AD account in the twelve card sections. Sections
// without any value are left out.
func ADSections(a backend.Record) []Section {
	domainKey := a["ad_source"]
	sections := []Section{
		{Title: "Основные", Fields: textFields(
			pair{"ФИО", a["display_name"]}, pair{"Имя", a["given_name"]}, pair{"Фамилия", a["surname_ad"]},
			pair{"UPN", a["upn"]}, pair{"Email", a["email"]},
			pair{"Телефон", a["phone"]}, pair{"Мобильный", a["mobile"]},
			pair{"Описание", a["description"]},
		)},
		{Title: "Должность", Fields: concat(
			textFields(
				pair{"Должность", a["title"]}, pair{"Отдел", a["department"]}, pair{"Компания", a["company"]},
				pair{"Тип сотрудника", a["employee_type"]}, pair{"Расположение", a["location"]},
				pair{"Адрес", a["street_address"]},
			),
			linkField("Руководитель", DNLinks(a["manager"])),
			textFields(pair{"Таб. номер", a["employee_number"]}),
		)},
		{Title: "Статус", Fields: textFields(
			pair{"Активна", a["enabled"]}, pair{"Заблокирована", a["locked_out"]},
			pair{"Время блокировки", a["account_lockout_time"]},
		)},
		{Title: "Пароль", Fields: textFields(
			pair{"Смена пароля", a["password_last_set"]}, pair{"Пароль сменён", a["pwd_last_set"]},
			pair{"Треб. смена пароля", a["must_change_password"]},
			pair{"Пароль просрочен", a["password_expired"]},
			pair{"Бессрочный пароль", a["password_never_expires"]},
			pair{"Пароль не требуется", a["password_not_required"]},
			pair{"Запрет смены пароля", a["cannot_change_password"]},
		)},
		{Title: "Срок действия", Fields: textFields(
			pair{"Срок УЗ", a["account_expires"]}, pair{"Дата окончания", a["account_expiration_date"]},
		)},
		{Title: "Активность", Fields: textFields(
			pair{"Последний вход", a["last_logon_date"]},
			pair{"Посл. вход (timestamp)", a["last_logon_timestamp"]},
			pair{"Кол-во входов", a["logon_count"]},
			pair{"Посл. ошибка пароля", a["last_bad_password_attempt"]},
			pair{"Кол-во ошибок", a["bad_logon_count"]},
		)},
		{Title: "Жизненный цикл", Fields: textFields(
			pair{"Создана", a["created_date"]}, pair{"Изменена", a["modified_date"]},
			pair{"whenCreated", a["when_created"]}, pair{"whenChanged", a["when_changed"]},
			pair{"Дата выгрузки", a["exported_at"]},
		)},
		{Title: "Безопасность", Fields: textFields(
			pair{"Делегирование", a["trusted_for_delegation"]},
			pair{"Протокольный переход", a["trusted_to_auth_for_delegation"]},
			pair{"Запрет делегирования", a["account_not_delegated"]},
			pair{"Без Kerberos Pre-Auth", a["does_not_require_preauth"]},
			pair{"Обратимое шифрование", a["allow_reversible_password_encryption"]},
			pair{"Только смарт-карта", a["smartcard_logon_required"]},
			pair{"Защита от удаления", a["protected_from_accidental_deletion"]},
			pair{"UAC", a["user_account_control"]},
			pair{"SPN", a["service_principal_names"]},
		)},
		{Title: "Идентификаторы", Fields: textFields(
			pair{"ObjectGUID", a["object_guid"]}, pair{"SID", a["sid"]},
			pair{"CanonicalName", a["canonical_name"]},
			pair{"DN", a["distinguished_name"]},
			pair{"StaffUUID", a["staff_uuid"]},
		)},
		{Title: "Профиль", Fields: textFields(
			pair{"Рабочие станции", a["logon_workstations"]},
			pair{"Диск", a["home_drive"]}, pair{"Дом. каталог", a["home_directory"]},
			pair{"Профиль", a["profile_path"]}, pair{"Скрипт", a["script_path"]},
		)},
		{Title: "Связи", Fields: concat(
			linkField("OU", OULinks(a["distinguished_name"], domainKey)),
			linkField("Группы", GroupLinks(a["groups"], domainKey)),
			linkField("Подчинённые", DNLinks(a["direct_reports"])),
			linkField("Управляемые объекты", DNLinks(a["managed_objects"])),
			linkField("Основная группа", DNLinks(a["primary_group"])),
		)},
		{Title: "Прочее", Fields: textFields(pair{"Инфо", a["info"]})},
	}
	out := sections[:0]
	for _, s := range sections {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	return out
}

func concat(parts ...[]Field) []Field {
	var out []Field
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// GroupLinks links every group of a ";"-list to the groups page.
func GroupLinks(groups, domainKey string) []Link {
	var out []Link
	for _, g := range SplitGroups(groups) {
		out = append(out, Link{Kind: LinkPage, Text: g, Href: GroupHref(domainKey, g)})
	}
	return out
}

// GroupHref deep-links to a group of a domain.
func GroupHref(domainKey, group string) string {
	return "/ui/groups?" + url.Values{"domain": {domainKey}, "group": {group}}.Encode()
}

// OULinks links the account's OU path to the structure page.
func OULinks(dn, domainKey string) []Link {
	d := ParseDN(dn)
	if len(d.OUs) == 0 {
		return nil
	}
	return []Link{{Kind: LinkPage, Text: d.Display(), Href: StructureHref(domainKey, d.OUPath())}}
}

// StructureHref deep-links to an OU of a domain.
func StructureHref(domainKey, path string) string {
	return "/ui/structure?" + url.Values{"domain": {domainKey}, "path": {path}}.Encode()
}

// DNLinks turns a ";"-list of distinguished names into popup links labelled
// with their CN.
func DNLinks(list string) []Link {
	var out []Link
	for _, dn := range SplitDNList(list) {
		out = append(out, Link{Kind: LinkDN, Text: ParseDN(dn).Name(), DN: dn})
	}
	return out
}

// RawObject is the read-only view of a directory object that is not a
// known identity.
type RawObject struct {
	Title  string
	Fields []Field
	Note   string
}

// NotFoundNote is shown under a raw directory object.
const NotFoundNote = "Объект не найден среди учётных записей пользователей в базе данных."

// BuildRaw describes dn from its parsed parts alone.
func BuildRaw(dn, displayName string) RawObject {
	d := ParseDN(dn)
	fields := []Field{{Label: "Имя (CN)", Text: d.Name()}}
	if len(d.OUs) > 0 {
		fields = append(fields, Field{Label: "OU", Text: d.Display()})
	}
	fields = append(fields, Field{Label: "Полный DN", Text: d.Raw, Long: true})
	return RawObject{
		Title:  firstNonEmpty(displayName, "Объект AD"),
		Fields: fields,
		Note:   NotFoundNote,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

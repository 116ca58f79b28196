package ui

import (
	"net/http"
	"strings"

	"idrecon/internal/prefs"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Сводная", Href: "/ui", Key: "consolidated", Icon: "table"},
	{Label: "Загрузка", Href: "/ui/upload", Key: "upload", Icon: "upload"},
	{Label: "Пользователи", Href: "/ui/users", Key: "users", Icon: "users"},
	{Label: "Группы AD", Href: "/ui/groups", Key: "groups", Icon: "shield"},
	{Label: "Структура OU", Href: "/ui/structure", Key: "structure", Icon: "folder-tree"},
	{Label: "Оргструктура", Href: "/ui/org", Key: "org", Icon: "building-2"},
	{Label: "Дубли", Href: "/ui/duplicates", Key: "duplicates", Icon: "copy"},
	{Label: "Безопасность", Href: "/ui/security", Key: "security", Icon: "shield-alert"},
}

// requestTheme reads the theme preference without touching the response.
func requestTheme(r *http.Request) prefs.Theme {
	return prefs.ThemeOf(prefs.NewCookieStore(nil, r, false))
}

func documentHead(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | Сверка УЗ")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href(uiStylesheetHref())),
		Script(Raw(themeInitScript)),
		Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
		Script(Type("module"), Src(datastarSrc)),
	)
}

func appPage(r *http.Request, title, active string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	theme := requestTheme(r)
	who, admin := principalLabel(r.Context())
	var account Node
	if who != "" {
		role := ""
		if admin {
			role = " (администратор)"
		}
		account = Group([]Node{
			Span(Class("muted text-small"), Text(who+role)),
			Form(
				Method("post"),
				Action("/ui/logout"),
				csrfField(r),
				Button(Type("submit"), Class("btn btn-sm"), Text("Выйти")),
			),
		})
	}

	return HTML(
		Lang("ru"),
		Attr("data-theme", string(theme)),
		documentHead(title),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(Class("brand"), Strong(Text("Сверка учётных записей")), P(Class("muted text-small"), Text("AD · MFA · Кадры"))),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						H1(Class("page-title"), Text(title)),
						Div(
							Class("topbar-actions"),
							Form(
								Method("post"),
								Action("/ui/prefs/theme"),
								csrfField(r),
								Button(Type("submit"), ID("theme-toggle"), Class("btn btn-sm"), Title("Сменить тему"), Text("Тема: "+theme.Label())),
							),
							account,
						),
					),
					Div(ID("flash")),
					Div(Class("content"), Group(body)),
				),
			),
			Div(ID("card-stack")),
			Script(Src(uiScriptHref("app.js"))),
		),
	)
}

func errorPage(r *http.Request, title, message string) Node {
	return HTML(
		Lang("ru"),
		Attr("data-theme", string(requestTheme(r))),
		documentHead(title),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui"), Text("На главную"))),
			),
		),
	)
}

// flash is the page-level message slot.
func flash(message string) Node {
	if message == "" {
		return Div(ID("flash"))
	}
	return Div(ID("flash"), Class("flash flash-error"), Role("alert"), Text(message))
}

func cardClass(extra ...string) string {
	return strings.Join(append([]string{"card"}, extra...), " ")
}

func mutedClass() string {
	return "muted text-small"
}

func emptyState(message string) Node {
	return P(Class("muted-text"), Text(message))
}

func statusLabel(text, tone string) Node {
	className := "label"
	if tone != "" {
		className += " label-" + tone
	}
	return Span(Class(className), Text(text))
}

func onClick(expr string) Node {
	return Attr("data-on:click", expr)
}

func onClickPrevent(expr string) Node {
	return Attr("data-on:click__prevent", expr)
}

// getAction builds a datastar GET action for url.
func getAction(url string) string {
	return "@get('" + jsString(url) + "')"
}

// jsString escapes s for a single-quoted JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "<", `\x3c`)
	return r.Replace(s)
}

// flashInline is a message shown next to the control that caused it.
func flashInline(message string) Node {
	return P(Class("notice notice-warn"), Role("status"), Text(message))
}

func pageHeader(title string, lines ...string) Node {
	meta := make([]Node, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			meta = append(meta, P(Class(mutedClass()), Text(l)))
		}
	}
	return Div(Class("page-header"), If(title != "", H2(Text(title))), Group(meta))
}

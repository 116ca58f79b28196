package ui

import (
	"net/http"

	"idrecon/internal/upload"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type loginForm struct {
	Username string
	Domain   string
}

func loginPage(r *http.Request, form loginForm, errMsg string) Node {
	domains := []Node{}
	for _, src := range upload.Sources() {
		key := src.DomainKey()
		if key == "" {
			continue
		}
		domains = append(domains, Option(Value(key), If(key == form.Domain, Selected()), Text(src.City)))
	}

	return HTML(
		Lang("ru"),
		Attr("data-theme", string(requestTheme(r))),
		documentHead("Вход"),
		Body(
			Class("login-body"),
			Main(
				Class("login-wrap"),
				H1(Text("Сверка учётных записей")),
				P(Class(mutedClass()), Text("Войдите с учётной записью домена.")),
				If(errMsg != "", P(Class("flash flash-error"), Role("alert"), Text(errMsg))),
				Form(
					Method("post"),
					Action(loginPath),
					Class("login-form"),
					csrfField(r),
					Label(For("login-username"), Text("Логин")),
					Input(ID("login-username"), Name("username"), Class("input"), Value(form.Username), AutoComplete("username"), Required()),
					Label(For("login-password"), Text("Пароль")),
					Input(ID("login-password"), Type("password"), Name("password"), Class("input"), AutoComplete("current-password"), Required()),
					Label(For("login-domain"), Text("Домен")),
					Select(ID("login-domain"), Name("domain"), Class("input"), Group(domains)),
					Button(Type("submit"), Class("btn btn-primary"), Text("Войти")),
				),
			),
		),
	)
}

package ui

import (
	"strings"

	"idrecon/internal/backend"
	"idrecon/internal/finder"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

func userFinder(res finder.Result, err error) Node {
	return Aside(
		Class(cardClass("finder")),
		data.Signals(map[string]any{"q": ""}),
		Input(
			Type("search"),
			Class("input"),
			Placeholder("ФИО, логин или StaffUUID…"),
			data.Bind("q"),
			Attr("data-on:input__debounce.250ms", getAction("/ui/users/list")),
		),
		userList(res, err),
	)
}

func userList(res finder.Result, err error) Node {
	if err != nil {
		return Div(ID("user-list"), emptyState(errorText(err)))
	}
	items := make([]Node, 0, len(res.Users))
	for _, u := range res.Users {
		items = append(items, userListItem(u))
	}
	return Div(
		ID("user-list"),
		P(Class(mutedClass()), Text(res.Summary())),
		Ul(Class("user-list"), Group(items)),
	)
}

func userListItem(u backend.UserSummary) Node {
	className := "user-item"
	if u.AllDisabled {
		className += " uz-inactive"
	}
	return Li(A(
		Href("#"),
		Class(className),
		onClickPrevent(getAction(userCardURL(u.Key, cardPanel))),
		Strong(Text(firstNonBlank(u.FIO, "—"))),
		If(len(u.Logins) > 0, Span(Class(mutedClass()), Text(" "+strings.Join(u.Logins, ", ")))),
		If(len(u.Sources) > 0, Div(Class("user-item-sources"), Text(strings.Join(u.Sources, ", ")))),
	))
}

package ui

import (
	"strings"

	"github.com/google/uuid"

	"idrecon/internal/card"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// popup wraps content in a stackable overlay. app.js closes the topmost
// one on Escape, on the close button and on a click on the backdrop.
func popup(content Node) Node {
	return Div(
		ID("popup-"+uuid.NewString()),
		Class("popup-overlay"),
		Attr("data-popup", ""),
		Div(
			Class("popup"),
			Role("dialog"),
			Attr("aria-modal", "true"),
			Button(Type("button"), Class("popup-close"), Attr("data-popup-close", ""), Title("Закрыть"), Text("×")),
			content,
		),
	)
}

func cardError(err error) Node {
	return Div(Class("card-body"), P(Class("flash flash-error"), Text(errorText(err))))
}

func userCardPlaceholder() Node {
	return Section(ID("user-card"), Class(cardClass("user-card-panel")), emptyState("Выберите пользователя в списке слева"))
}

func userCardPanel(c card.Card, err error) Node {
	return Section(ID("user-card"), Class(cardClass("user-card-panel")), userCardBody(c, err))
}

func userCardBody(c card.Card, err error) Node {
	if err != nil {
		return cardError(err)
	}

	head := []Node{H2(Class("card-title"), Text(c.Title))}
	if c.StaffUUID != "" {
		head = append(head, P(Class(mutedClass()), Text("StaffUUID: "+c.StaffUUID)))
	}
	if len(c.Logins) > 0 {
		head = append(head, P(Class(mutedClass()), Text("Логины: "+strings.Join(c.Logins, ", "))))
	}
	if len(c.Summary) > 0 {
		items := make([]Node, 0, len(c.Summary))
		for _, s := range c.Summary {
			items = append(items, Span(Class("summary-item"), Strong(Text(s.Label+": ")), Text(s.Value)))
		}
		head = append(head, Div(Class("card-summary"), Group(items)))
	}

	body := []Node{Div(Class("card-head"), Group(head))}
	if c.People != nil && !c.People.Empty() {
		body = append(body, fieldSection(*c.People, "h3"))
	}
	for _, ad := range c.AD {
		className := "card-block"
		if ad.Inactive {
			className += " uz-inactive"
		}
		sections := make([]Node, 0, len(ad.Sections))
		for _, s := range ad.Sections {
			sections = append(sections, fieldSection(s, "h4"))
		}
		body = append(body, Div(Class(className), H3(Text("AD: "+ad.Title)), Group(sections)))
	}
	for _, m := range c.MFA {
		body = append(body, Div(Class("card-block"), H3(Text("MFA")), fieldSection(m, "h4")))
	}
	if len(c.Duplicates) > 0 {
		items := make([]Node, 0, len(c.Duplicates))
		for _, d := range c.Duplicates {
			items = append(items, Li(
				A(Href("#"), Class("card-link"), onClickPrevent(getAction(userCardURL(d.Key, cardPopup))), Text(firstNonBlank(d.FIO, d.Key))),
				If(d.Reason != "", Span(Class(mutedClass()), Text(" ("+d.Reason+")"))),
			))
		}
		body = append(body, Div(Class("card-block card-duplicates"), H3(Text("Возможные дубли")), Ul(Group(items))))
	}
	if len(c.AD) == 0 && len(c.MFA) == 0 && c.People == nil {
		body = append(body, emptyState("Нет данных по источникам"))
	}
	return Div(Class("card-body"), Group(body))
}

func fieldSection(s card.Section, heading string) Node {
	rows := make([]Node, 0, len(s.Fields))
	for _, f := range s.Fields {
		rows = append(rows, Tr(Th(Text(f.Label)), Td(If(f.Long, Class("long")), fieldValue(f))))
	}
	return Div(
		Class("card-section"),
		If(s.Title != "", El(heading, Text(s.Title))),
		Table(Class("field-table"), TBody(Group(rows))),
	)
}

func fieldValue(f card.Field) Node {
	if len(f.Links) == 0 {
		return Text(f.Text)
	}
	links := make([]Node, 0, len(f.Links))
	for _, l := range f.Links {
		switch l.Kind {
		case card.LinkDN:
			links = append(links, Li(A(Href("#"), Class("dn-link"), onClickPrevent(getAction(dnCardURL(l.DN, l.Text))), Text(l.Text))))
		default:
			links = append(links, Li(A(Href(l.Href), Text(l.Text))))
		}
	}
	return Ul(Class("link-list"), Group(links))
}

func rawObjectBody(o card.RawObject) Node {
	return Div(
		Class("card-body"),
		H2(Class("card-title"), Text(o.Title)),
		fieldSection(card.Section{Fields: o.Fields}, "h3"),
		P(Class(mutedClass()), Text(o.Note)),
	)
}

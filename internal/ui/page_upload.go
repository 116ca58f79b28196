package ui

import (
	"net/http"

	"idrecon/internal/backend"
	"idrecon/internal/upload"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func postForm(url string) string {
	return "@post('" + jsString(url) + "', {contentType: 'form'})"
}

func clearURL(key string) string {
	if key == "" {
		return "/ui/clear-all"
	}
	return "/ui/clear/" + key
}

func uploadPage(r *http.Request, stats *backend.Stats, err error) Node {
	cards := make([]Node, 0, len(upload.Sources()))
	for _, src := range upload.Sources() {
		cards = append(cards, sourceCard(r, src, stats))
	}
	return Group([]Node{
		statsBox(stats, err),
		Div(Class("source-grid"), Group(cards)),
		Div(
			Class(cardClass("danger-zone")),
			H3(Text("Очистка базы")),
			P(Class(mutedClass()), Text("Удаляет данные всех источников: AD, MFA и Кадры.")),
			clearForm(r, ""),
			statusBox("", upload.Status{}),
		),
	})
}

func statsBox(stats *backend.Stats, err error) Node {
	if err != nil {
		return Div(ID("upload-stats"), Class(cardClass()), P(Class("flash flash-error"), Text(errorText(err))))
	}
	return Div(ID("upload-stats"), Class(cardClass()), Strong(Text(upload.StatsLine(stats))))
}

func sourceCard(r *http.Request, src upload.Source, stats *backend.Stats) Node {
	url := "/ui/upload/" + src.Key
	last := upload.LastUpload(stats, src.Key)
	return Div(
		Class(cardClass("source-card")),
		H3(Text(src.Label)),
		If(last != "", P(Class(mutedClass()), Text("Последняя загрузка: "+last))),
		Form(
			Method("post"),
			Action(url),
			EncType("multipart/form-data"),
			csrfField(r),
			Input(
				Type("file"),
				Name("file"),
				Accept(".xlsx,.xls,.csv"),
				Attr("aria-label", "Файл "+src.Label),
				Attr("data-on:change", postForm(url)),
			),
		),
		clearForm(r, src.Key),
		statusBox(src.Key, upload.Status{}),
	)
}

func clearForm(r *http.Request, key string) Node {
	label := "Очистить"
	if key == "" {
		label = "Очистить всё"
	}
	return Form(
		Method("post"),
		Action(clearURL(key)),
		Attr("data-on:submit__prevent", postForm(clearURL(key))),
		csrfField(r),
		Button(Type("submit"), Class("btn btn-sm btn-danger"), Text(label)),
	)
}

func statusBox(key string, st upload.Status) Node {
	className := "upload-status"
	switch {
	case st.Text == "":
	case st.OK:
		className += " status-ok"
	default:
		className += " status-error"
	}
	return Div(ID("status-"+sourceSlug(key)), Class(className), Role("status"), If(st.Text != "", Text(st.Text)))
}

// clearConfirmation replaces the status slot with the confirmation prompt.
func clearConfirmation(r *http.Request, key string) Node {
	return Div(
		ID("status-"+sourceSlug(key)),
		Class("upload-status confirm"),
		P(Text(upload.ConfirmPrompt(key))),
		Form(
			Method("post"),
			Action(clearURL(key)),
			Attr("data-on:submit__prevent", postForm(clearURL(key))),
			csrfField(r),
			Input(Type("hidden"), Name("confirm"), Value("yes")),
			Button(Type("submit"), Class("btn btn-sm btn-danger"), Text("Да, очистить")),
			Button(Type("button"), Class("btn btn-sm"), Attr("data-on:click", "el.closest('.confirm').replaceChildren()"), Text("Отмена")),
		),
	)
}

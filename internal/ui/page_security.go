package ui

import (
	"strconv"

	"idrecon/internal/backend"
	"idrecon/internal/table"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// collapseAbove is the item count from which a finding starts collapsed.
const collapseAbove = 20

var severityLabels = map[string]string{
	"critical": "Критич.",
	"high":     "Высокий",
	"medium":   "Средний",
	"info":     "Инфо",
}

func severityLabel(s string) string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return s
}

func securityError(err error) Node {
	return Div(ID("sec-summary"), emptyState(errorText(err)))
}

func summaryCard(label string, value int, tone string) Node {
	return Div(
		Class("sec-card "+tone),
		Div(Class("sec-card-value"), Text(strconv.Itoa(value))),
		Div(Class("sec-card-label"), Text(label)),
	)
}

func toneIf(cond bool, tone string) string {
	if cond {
		return tone
	}
	return ""
}

func securityPage(rep *backend.SecurityReport, views map[string]*table.View) Node {
	issuesTone := "sec-card-ok"
	if rep.TotalIssues > 0 {
		issuesTone = "sec-card-warn"
	}
	summary := Div(
		ID("sec-summary"),
		Class("sec-summary"),
		summaryCard("Всего УЗ", int(rep.TotalAccounts), ""),
		summaryCard("Активных", int(rep.TotalEnabled), ""),
		summaryCard("Критичных", int(rep.CriticalCount), toneIf(rep.CriticalCount > 0, "sec-card-critical")),
		summaryCard("Высоких", int(rep.HighCount), toneIf(rep.HighCount > 0, "sec-card-high")),
		summaryCard("Всего замечаний", int(rep.TotalIssues), issuesTone),
	)

	findings := make([]Node, 0, len(rep.Findings))
	for _, f := range rep.Findings {
		findings = append(findings, findingBlock(f, views[f.ID]))
	}
	if len(findings) == 0 {
		findings = append(findings, emptyState("Проверки не вернули результатов"))
	}
	return Group([]Node{summary, Div(ID("sec-findings"), Group(findings))})
}

func findingBlock(f backend.Finding, v *table.View) Node {
	className := "sec-finding sec-sev-" + f.Severity
	header := []Node{
		Span(Class("sec-finding-sev"), Text(severityLabel(f.Severity))),
		Span(Class("sec-finding-title"), Text(f.Title)),
		Span(Class("sec-finding-count"), Text(strconv.Itoa(int(f.Count)))),
	}
	if v == nil {
		return Div(
			Class(className+" sec-finding-ok"),
			Div(Class("sec-finding-header"), Group(header), Span(Class("sec-finding-arrow"), Text("✓"))),
			If(f.Description != "", P(Class("sec-finding-desc"), Text(f.Description))),
		)
	}
	return Details(
		Class(className),
		If(int(f.Count) <= collapseAbove, Attr("open", "")),
		Summary(Class("sec-finding-header"), Group(header)),
		If(f.Description != "", P(Class("sec-finding-desc"), Text(f.Description))),
		tableSection(securityView(f.ID), v),
	)
}

// Package finder searches the user index by name, StaffUUID and login.
package finder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"idrecon/internal/backend"
	"idrecon/internal/table"
)

// Limit caps the entries returned by Find.
const Limit = 500

// Result is one search over the index.
type Result struct {
	Users   []backend.UserSummary
	Matched int
	Total   int
	// Fuzzy is set when nothing contained the query and Users holds the
	// closest names instead.
	Fuzzy bool
}

// Summary is the status line shown above the result list.
func (res Result) Summary() string {
	switch {
	case res.Total == 0:
		return "Нет пользователей. Загрузите данные на странице «Загрузка»."
	case res.Fuzzy:
		return fmt.Sprintf("Точных совпадений нет, похожие: %d", res.Matched)
	case res.Matched > Limit:
		return fmt.Sprintf("Найдено: %d из %d. Показано %d, уточните поиск", res.Matched, res.Total, Limit)
	default:
		return fmt.Sprintf("Найдено: %d из %d", res.Matched, res.Total)
	}
}

func text(u backend.UserSummary) string {
	parts := append([]string{u.FIO, u.StaffUUID}, u.Logins...)
	return strings.Join(parts, "\x1f")
}

// Find filters users by substring over name, StaffUUID and logins. When
// nothing contains the query the closest entries are offered instead, best
// match first.
func Find(users []backend.UserSummary, q string) Result {
	res := Result{Total: len(users)}
	q = table.NormalizeQuery(q)
	if q == "" {
		res.Matched = len(users)
		res.Users = users[:min(len(users), Limit)]
		return res
	}

	texts := make([]string, len(users))
	for i, u := range users {
		texts[i] = text(u)
	}
	for i, t := range texts {
		if strings.Contains(table.NormalizeQuery(t), q) {
			res.Matched++
			if len(res.Users) < Limit {
				res.Users = append(res.Users, users[i])
			}
		}
	}
	if res.Matched > 0 {
		return res
	}

	ranks := fuzzy.RankFindNormalizedFold(q, texts)
	sort.Sort(ranks)
	for _, r := range ranks {
		if len(res.Users) == Limit {
			break
		}
		res.Users = append(res.Users, users[r.OriginalIndex])
	}
	res.Matched = len(ranks)
	res.Fuzzy = len(ranks) > 0
	return res
}

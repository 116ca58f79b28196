package finder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idrecon/internal/backend"
)

func finderIndex() []backend.UserSummary {
	return []backend.UserSummary{
		{Key: "a", FIO: "Иванов Иван Иванович", StaffUUID: "u-100", Logins: []string{"ivanov.ii"}},
		{Key: "b", FIO: "Петрова Анна", StaffUUID: "u-200", Logins: []string{"petrova", "apetrova"}},
		{Key: "c", FIO: "Сидоров Олег", Logins: []string{"sidorov"}},
	}
}

func TestFind_Substring(t *testing.T) {
	tests := []struct {
		q    string
		keys []string
	}{
		{"", []string{"a", "b", "c"}},
		{"ИВАНОВ", []string{"a"}},
		{"apetr", []string{"b"}},
		{"u-200", []string{"b"}},
		{"  олег ", []string{"c"}},
	}
	for _, tc := range tests {
		t.Run(tc.q, func(t *testing.T) {
			res := Find(finderIndex(), tc.q)
			keys := make([]string, 0, len(res.Users))
			for _, u := range res.Users {
				keys = append(keys, u.Key)
			}
			assert.Equal(t, tc.keys, keys)
			assert.False(t, res.Fuzzy)
			assert.Equal(t, 3, res.Total)
		})
	}
}

func TestFind_FuzzyFallback(t *testing.T) {
	res := Find(finderIndex(), "sdrv")
	require.True(t, res.Fuzzy)
	require.NotEmpty(t, res.Users)
	assert.Equal(t, "c", res.Users[0].Key)
	assert.Contains(t, res.Summary(), "Точных совпадений нет")
}

func TestFind_NoMatchAtAll(t *testing.T) {
	res := Find(finderIndex(), "zzzzzz")
	assert.Empty(t, res.Users)
	assert.False(t, res.Fuzzy)
	assert.Equal(t, "Найдено: 0 из 3", res.Summary())
}

func TestFind_Limit(t *testing.T) {
	users := make([]backend.UserSummary, Limit+10)
	for i := range users {
		users[i] = backend.UserSummary{Key: fmt.Sprint(i), FIO: fmt.Sprintf("user %d", i)}
	}
	res := Find(users, "user")
	assert.Len(t, res.Users, Limit)
	assert.Equal(t, Limit+10, res.Matched)
	assert.Contains(t, res.Summary(), "уточните поиск")
}

func TestFinderSummary_EmptyIndex(t *testing.T) {
	assert.Contains(t, Find(nil, "x").Summary(), "Нет пользователей")
}

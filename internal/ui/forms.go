package ui

import (
	"strings"
)

func formString(values map[string][]string, key string) string {
	if values == nil {
		return ""
	}
	return strings.TrimSpace(first(values[key]))
}

func formBool(values map[string][]string, key string) bool {
	v := strings.ToLower(formString(values, key))
	return v == "true" || v == "1" || v == "on" || v == "yes"
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// formSecret returns a value exactly as submitted.
func formSecret(values map[string][]string, key string) string {
	if values == nil {
		return ""
	}
	return first(values[key])
}

package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Record is a row-like object whose values are all shown as text. Numbers,
// booleans and nulls are accepted and converted; lists are joined with ", ".
type Record map[string]string

// UnmarshalJSON decodes an object with loosely typed values.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Record, len(raw))
	for k, v := range raw {
		out[k] = Stringify(v)
	}
	*r = out
	return nil
}

// Stringify renders a decoded JSON value as display text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := Stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Records converts records into plain maps for the table engine.
func Records(in []Record) []map[string]string {
	out := make([]map[string]string, len(in))
	for i, r := range in {
		if r == nil {
			r = Record{}
		}
		out[i] = r
	}
	return out
}

// LooseInt accepts a number, a numeric string or null.
type LooseInt int

// UnmarshalJSON decodes a loosely typed integer.
func (n *LooseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = LooseInt(f)
	return nil
}

package upload

import (
	"fmt"
	"sort"
	"strings"

	"idrecon/internal/backend"
)

// Status is the text shown next to a source after an action.
type Status struct {
	OK   bool
	Text string
}

// UploadStatus renders a successful upload.
func UploadStatus(res *backend.UploadResult) Status {
	text := fmt.Sprintf("Загружено: %d записей (%s)", res.Rows, res.Filename)
	if res.Skipped > 0 {
		text += fmt.Sprintf(" | пропущено %d чужих", res.Skipped)
	}
	return Status{OK: true, Text: text}
}

// ClearStatus renders a cleared source.
func ClearStatus(res *backend.ClearResult) Status {
	return Status{OK: true, Text: fmt.Sprintf("Удалено: %d записей", res.Deleted)}
}

// ClearAllStatus renders the per-source totals of a full clear.
func ClearAllStatus(res *backend.ClearAllResult) Status {
	d := res.Deleted
	return Status{OK: true, Text: fmt.Sprintf("Удалено: AD %d, MFA %d, Кадры %d", d["ad"], d["mfa"], d["people"])}
}

// ErrorStatus renders a failure: the network error, the server detail or
// the generic server error text.
func ErrorStatus(err error) Status {
	return Status{Text: backend.Message(err)}
}

// StatsLine summarises the row counts of every source:
// "AD: N (Ижевск: a, …) · MFA: m · Кадры: p". Domains follow the registry
// order; unknown domains come last.
func StatsLine(s *backend.Stats) string {
	if s == nil {
		return ""
	}
	seen := map[string]bool{}
	var parts []string
	for _, src := range sources {
		key := src.DomainKey()
		if key == "" {
			continue
		}
		seen[key] = true
		if d, ok := s.ADDomains[key]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", firstNonEmpty(d.City, src.City), d.Rows))
		}
	}
	rest := make([]string, 0, len(s.ADDomains))
	for key := range s.ADDomains {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		d := s.ADDomains[key]
		parts = append(parts, fmt.Sprintf("%s: %d", firstNonEmpty(d.City, key), d.Rows))
	}

	ad := fmt.Sprintf("AD: %d", s.ADCount())
	if len(parts) > 0 {
		ad += " (" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%s · MFA: %d · Кадры: %d", ad, s.MFARows, s.PeopleRows)
}

// LastUpload describes the last accepted file of a source, or "".
func LastUpload(s *backend.Stats, sourceKey string) string {
	if s == nil {
		return ""
	}
	info := s.LastUpload[sourceKey]
	if info == nil || info.Filename == "" {
		return ""
	}
	text := info.Filename
	if info.At != "" {
		text += ", " + info.At
	}
	if info.Rows > 0 {
		text += fmt.Sprintf(", %d записей", info.Rows)
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

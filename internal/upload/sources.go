// Package upload drives source-file ingestion and clearing: the source
// registry, the operator status texts and the confirmation gate.
package upload

import "idrecon/internal/domain"

// Kind groups sources by the backend table they feed.
type Kind string

// Source kinds.
const (
	KindAD     Kind = "ad"
	KindMFA    Kind = "mfa"
	KindPeople Kind = "people"
)

// Source is one uploadable data source.
type Source struct {
	// Key is the path suffix of the upload and clear endpoints.
	Key   string
	Label string
	Kind  Kind
	// City is set for AD domains.
	City string
}

var sources = []Source{
	{Key: "ad/izhevsk", Label: "AD Ижевск", Kind: KindAD, City: "Ижевск"},
	{Key: "ad/kostroma", Label: "AD Кострома", Kind: KindAD, City: "Кострома"},
	{Key: "ad/moscow", Label: "AD Москва", Kind: KindAD, City: "Москва"},
	{Key: "mfa", Label: "MFA", Kind: KindMFA},
	{Key: "people", Label: "Кадры", Kind: KindPeople},
}

// Sources returns the registry in display order.
func Sources() []Source {
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}

// Lookup finds a source by key.
func Lookup(key string) (Source, error) {
	for _, s := range sources {
		if s.Key == key {
			return s, nil
		}
	}
	return Source{}, domain.ErrValidation("неизвестный источник %q", key)
}

// DomainKey returns the AD domain part of an AD source key ("moscow").
func (s Source) DomainKey() string {
	if s.Kind != KindAD {
		return ""
	}
	return s.Key[len("ad/"):]
}

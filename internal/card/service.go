package card

import (
	"context"
	"fmt"

	"idrecon/internal/backend"
)

// Fetcher is the part of the backend client the card needs.
type Fetcher interface {
	UserCard(ctx context.Context, key string) (*backend.UserCard, error)
	ResolveDN(ctx context.Context, dn string) (*backend.DNResolution, error)
}

// Load fetches and builds the card of key.
func Load(ctx context.Context, f Fetcher, key, fallbackTitle string) (Card, error) {
	doc, err := f.UserCard(ctx, key)
	if err != nil {
		return Card{}, fmt.Errorf("load card %q: %w", key, err)
	}
	return Build(doc, fallbackTitle), nil
}

// Resolution is the outcome of following a DN link: either a known
// identity key or a raw object view.
type Resolution struct {
	Key         string
	DisplayName string
	Raw         *RawObject
}

// Resolve maps dn to a known identity, or describes it from its parts when
// the backend does not know it.
func Resolve(ctx context.Context, f Fetcher, dn, displayName string) (Resolution, error) {
	res, err := f.ResolveDN(ctx, dn)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve dn: %w", err)
	}
	if res.Found && res.Key != "" {
		return Resolution{Key: res.Key, DisplayName: firstNonEmpty(res.DisplayName, displayName)}, nil
	}
	raw := BuildRaw(dn, displayName)
	return Resolution{Raw: &raw}, nil
}

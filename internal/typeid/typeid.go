package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixBook     = "book"
	PrefixPage     = "page"
	PrefixSession  = "sess"
	PrefixClient   = "client"
	PrefixAsset    = "asset"
	PrefixSnapshot = "snap"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewBookID() string     { return New(PrefixBook) }
func NewPageID() string     { return New(PrefixPage) }
func NewSessionID() string  { return New(PrefixSession) }
func NewClientID() string   { return New(PrefixClient) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewSnapshotID() string { return New(PrefixSnapshot) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

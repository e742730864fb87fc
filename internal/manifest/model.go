package manifest

import (
	"errors"
	"fmt"

	"github.com/pageflip/pageflip/internal/book"
	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/settings"
)

var (
	ErrNoPages       = errors.New("manifest has no pages")
	ErrDuplicatePage = errors.New("duplicate page id")
	ErrBadDensity    = errors.New("unknown page density")
	ErrDuplicateBook = errors.New("duplicate book id")
)

// Manifest describes one book: its pages in reading order and the settings it is shown with.
type Manifest struct {
	ID       string            `toml:"id" json:"id"`
	Title    string            `toml:"title" json:"title"`
	Pages    []PageSpec        `toml:"pages" json:"pages"`
	Blank    *PageSpec         `toml:"blank" json:"blank,omitempty"`
	Settings settings.Settings `toml:"settings" json:"settings"`
}

// PageSpec is one page of a manifest.
type PageSpec struct {
	ID      string `toml:"id" json:"id"`
	Density string `toml:"density" json:"density,omitempty"` // "soft" (default) or "hard"
	Asset   string `toml:"asset" json:"asset,omitempty"`     // asset id of the page image
}

// Validate checks the pages and the settings.
func (m *Manifest) Validate() error {
	if len(m.Pages) == 0 {
		return fmt.Errorf("%w: %q", ErrNoPages, m.ID)
	}
	seen := make(map[string]bool, len(m.Pages))
	specs := m.Pages
	if m.Blank != nil {
		specs = append(specs[:len(specs):len(specs)], *m.Blank)
	}
	for i, p := range specs {
		if p.ID == "" {
			return fmt.Errorf("page %d: missing id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicatePage, p.ID)
		}
		seen[p.ID] = true
		if p.Density != "" && p.Density != "soft" && p.Density != "hard" {
			return fmt.Errorf("page %q: %w: %q", p.ID, ErrBadDensity, p.Density)
		}
	}
	if err := m.Settings.Validate(); err != nil {
		return fmt.Errorf("manifest %q: %w", m.ID, err)
	}
	return nil
}

// Handles returns the page handles in reading order.
func (m *Manifest) Handles() []page.Handle {
	hs := make([]page.Handle, len(m.Pages))
	for i, p := range m.Pages {
		hs[i] = page.Handle(p.ID)
	}
	return hs
}

// Sources returns the pages ready to load into a book.
func (m *Manifest) Sources() []book.PageSource {
	out := make([]book.PageSource, len(m.Pages))
	for i, p := range m.Pages {
		out[i] = book.PageSource{Handle: page.Handle(p.ID), Density: page.ParseDensity(p.Density)}
	}
	return out
}

// BlankHandle is the handle of the filler page, or empty.
func (m *Manifest) BlankHandle() page.Handle {
	if m.Blank == nil {
		return ""
	}
	return page.Handle(m.Blank.ID)
}

// Assets maps page handles to their image asset ids.
func (m *Manifest) Assets() map[page.Handle]string {
	out := make(map[page.Handle]string, len(m.Pages)+1)
	for _, p := range m.Pages {
		if p.Asset != "" {
			out[page.Handle(p.ID)] = p.Asset
		}
	}
	if m.Blank != nil && m.Blank.Asset != "" {
		out[page.Handle(m.Blank.ID)] = m.Blank.Asset
	}
	return out
}

// Summary is the listing form of a manifest.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Pages int    `json:"pages"`
}

func (m *Manifest) Summary() Summary {
	return Summary{ID: m.ID, Title: m.Title, Pages: len(m.Pages)}
}

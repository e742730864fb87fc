package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pageflip/pageflip/internal/settings"
)

// Decode reads a manifest in the given format. Settings left out of the document keep
// their defaults.
func Decode(r io.Reader, format settings.Format) (*Manifest, error) {
	m := &Manifest{Settings: settings.Default()}
	switch format {
	case settings.FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(m); err != nil {
			return nil, fmt.Errorf("decode toml manifest: %w", err)
		}
	case settings.FormatJSON:
		if err := json.NewDecoder(r).Decode(m); err != nil {
			return nil, fmt.Errorf("decode json manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", settings.ErrUnknownFormat, format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads a .toml or .json manifest file. A manifest without an id takes its file name.
func Load(path string) (*Manifest, error) {
	format, err := settings.FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if m.ID == "" {
		m.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Dir loads every manifest in dir, keyed by id. Files that fail to load are logged and
// skipped.
func Dir(dir string) (map[string]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest dir: %w", err)
	}

	out := make(map[string]*Manifest)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := settings.FormatOf(e.Name()); err != nil {
			continue
		}
		m, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Warn("skip manifest", "file", e.Name(), "error", err)
			continue
		}
		if _, dup := out[m.ID]; dup {
			slog.Warn("skip manifest", "file", e.Name(), "error", ErrDuplicateBook, "id", m.ID)
			continue
		}
		out[m.ID] = m
	}
	return out, nil
}

// Summaries lists manifests sorted by title.
func Summaries(books map[string]*Manifest) []Summary {
	out := make([]Summary, 0, len(books))
	for _, m := range books {
		out = append(out, m.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

package manifest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/settings"
)

func TestLoadTOML(t *testing.T) {
	m, err := Load("testdata/atlas.toml")
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "atlas" || m.Title != "Atlas" {
		t.Errorf("id %q, title %q", m.ID, m.Title)
	}
	if m.Settings.FlipDuration.Duration != 700*time.Millisecond {
		t.Errorf("FlipDuration = %v", m.Settings.FlipDuration)
	}
	if !m.Settings.ShowCover || m.Settings.Width != 400 {
		t.Errorf("settings = %+v", m.Settings)
	}
	if m.Settings.MaxShadowOpacity != settings.Default().MaxShadowOpacity {
		t.Error("unset settings lost their defaults")
	}

	src := m.Sources()
	if len(src) != 4 || src[0].Density != page.Hard || src[1].Density != page.Soft || src[3].Density != page.Hard {
		t.Errorf("Sources() = %+v", src)
	}
	if got := m.Assets()["cover"]; got != "asset_01h2xcejqtf2nbrexx3vqjhp41" {
		t.Errorf("cover asset = %q", got)
	}
	if _, ok := m.Assets()["map-1"]; ok {
		t.Error("page without an asset has one")
	}
}

func TestLoadJSON(t *testing.T) {
	m, err := Load("testdata/journal.json")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Settings.RTL || m.Settings.Size != settings.SizeStretch || m.Settings.MaxWidth != 600 {
		t.Errorf("settings = %+v", m.Settings)
	}
	if m.BlankHandle() != "filler" {
		t.Errorf("BlankHandle() = %q", m.BlankHandle())
	}
	hs := m.Handles()
	if len(hs) != 3 || hs[2] != "p3" {
		t.Errorf("Handles() = %v", hs)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("testdata/broken.toml"); !errors.Is(err, ErrNoPages) {
		t.Errorf("broken manifest = %v, want ErrNoPages", err)
	}
	if _, err := Load("testdata/notes.txt"); !errors.Is(err, settings.ErrUnknownFormat) {
		t.Errorf("txt manifest = %v, want ErrUnknownFormat", err)
	}
	if _, err := Load("testdata/missing.toml"); err == nil {
		t.Error("missing manifest loaded")
	}
}

func TestDecodeRejectsBadSettings(t *testing.T) {
	doc := `{"pages": [{"id": "a"}], "settings": {"width": -1}}`
	if _, err := Decode(strings.NewReader(doc), settings.FormatJSON); !errors.Is(err, settings.ErrInvalidDimensions) {
		t.Errorf("Decode = %v, want ErrInvalidDimensions", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Manifest {
		return &Manifest{
			ID:       "b",
			Pages:    []PageSpec{{ID: "a"}, {ID: "b", Density: "hard"}},
			Settings: settings.Default(),
		}
	}
	tests := []struct {
		name   string
		mutate func(*Manifest)
		want   error
	}{
		{"valid", func(*Manifest) {}, nil},
		{"duplicate", func(m *Manifest) { m.Pages[1].ID = "a" }, ErrDuplicatePage},
		{"blank clashes", func(m *Manifest) { m.Blank = &PageSpec{ID: "b"} }, ErrDuplicatePage},
		{"bad density", func(m *Manifest) { m.Pages[0].Density = "stiff" }, ErrBadDensity},
		{"no pages", func(m *Manifest) { m.Pages = nil }, ErrNoPages},
		{"bad settings", func(m *Manifest) { m.Settings.Size = "huge" }, settings.ErrInvalidSizeMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			err := m.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDir(t *testing.T) {
	books, err := Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 || books["atlas"] == nil || books["journal"] == nil {
		t.Fatalf("Dir loaded %v", books)
	}

	sums := Summaries(books)
	if sums[0].Title != "Atlas" || sums[1].Title != "Journal" || sums[0].Pages != 4 {
		t.Errorf("Summaries() = %+v", sums)
	}

	if _, err := Dir("testdata/nope"); err == nil {
		t.Error("missing dir loaded")
	}
}

func TestNewSample(t *testing.T) {
	m := NewSample("book_demo", 9)
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	src := m.Sources()
	if len(src) != 9 || src[0].Density != page.Hard || src[8].Density != page.Hard || src[4].Density != page.Soft {
		t.Errorf("Sources() = %+v", src)
	}
	if got := NewSample("x", 0); len(got.Pages) != 1 {
		t.Errorf("NewSample(0) has %d pages", len(got.Pages))
	}
}

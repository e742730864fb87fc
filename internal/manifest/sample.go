package manifest

import (
	"fmt"

	"github.com/pageflip/pageflip/internal/settings"
	"github.com/pageflip/pageflip/internal/typeid"
)

// NewSample returns a demo book of n pages with hard covers and no images.
func NewSample(bookID string, n int) *Manifest {
	if n < 1 {
		n = 1
	}
	s := settings.Default()
	s.ShowCover = true

	pages := make([]PageSpec, n)
	for i := range pages {
		pages[i] = PageSpec{ID: typeid.NewPageID(), Density: "soft"}
	}
	pages[0].Density = "hard"
	pages[n-1].Density = "hard"

	return &Manifest{
		ID:       bookID,
		Title:    fmt.Sprintf("Sample (%d pages)", n),
		Pages:    pages,
		Settings: s,
	}
}

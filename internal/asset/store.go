package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/render"
	"github.com/pageflip/pageflip/internal/typeid"
)

var ErrNotFound = errors.New("asset not found")

// maxSide caps the longer side of a stored page image.
const maxSide = 2048

// Store keeps page images as PNG files named by asset id and caches decoded images.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewStore creates a store in dir.
func NewStore(dir string) *Store {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Store{dir: dir, cache: make(map[string]image.Image)}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}

// Save decodes a PNG or JPEG image, downscales it to fit maxSide and stores it as PNG.
func (s *Store) Save(r io.Reader) (string, image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	img = fit(img, maxSide)

	id := typeid.NewAssetID()
	out, err := os.Create(s.path(id))
	if err != nil {
		return "", nil, fmt.Errorf("create asset file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		os.Remove(s.path(id))
		return "", nil, fmt.Errorf("encode png: %w", err)
	}

	s.mu.Lock()
	s.cache[id] = img
	s.mu.Unlock()
	return id, img, nil
}

// Open returns the decoded image for id.
func (s *Store) Open(id string) (image.Image, error) {
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	s.mu.Lock()
	img, ok := s.cache[id]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	f, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer f.Close()

	img, err = png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", id, err)
	}
	s.mu.Lock()
	s.cache[id] = img
	s.mu.Unlock()
	return img, nil
}

// Delete removes an asset file from disk.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Pages returns an image source for a book whose pages map to asset ids. Pages without an
// asset, or whose asset fails to load, are drawn plain.
func (s *Store) Pages(assets map[page.Handle]string) render.ImageSource {
	return render.ImageSourceFunc(func(h page.Handle) (image.Image, bool) {
		id, ok := assets[h]
		if !ok {
			return nil, false
		}
		img, err := s.Open(id)
		if err != nil {
			slog.Warn("page image", "page", h, "asset", id, "error", err)
			return nil, false
		}
		return img, true
	})
}

// fit scales img down so its longer side is at most side.
func fit(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return img
	}
	if w >= h {
		h = h * side / w
		w = side
	} else {
		w = w * side / h
		h = side
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/pageflip/pageflip/internal/page"
	"github.com/pageflip/pageflip/internal/typeid"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSaveOpen(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	id, img, err := s.Save(bytes.NewReader(encodePNG(t, 30, 40)))
	if err != nil {
		t.Fatal(err)
	}
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		t.Errorf("id %q: %v", id, err)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}

	// A fresh store reads from disk.
	got, err := NewStore(dir).Open(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Dy() != 40 {
		t.Errorf("reopened height = %d", got.Bounds().Dy())
	}

	if err := s.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(dir).Open(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open after Delete = %v", err)
	}
}

func TestSaveDownscales(t *testing.T) {
	s := NewStore(t.TempDir())
	_, img, err := s.Save(bytes.NewReader(encodePNG(t, 4096, 1024)))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != maxSide || b.Dy() != 512 {
		t.Errorf("stored size = %dx%d, want %dx512", b.Dx(), b.Dy(), maxSide)
	}
}

func TestOpenErrors(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, id := range []string{"../etc/passwd", typeid.NewBookID(), typeid.NewAssetID()} {
		if _, err := s.Open(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) = %v, want ErrNotFound", id, err)
		}
	}
	if _, _, err := s.Save(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Save accepted garbage")
	}
}

func TestPages(t *testing.T) {
	s := NewStore(t.TempDir())
	id, _, err := s.Save(bytes.NewReader(encodePNG(t, 10, 10)))
	if err != nil {
		t.Fatal(err)
	}
	src := s.Pages(map[page.Handle]string{"cover": id, "lost": typeid.NewAssetID()})

	if _, ok := src.PageImage("cover"); !ok {
		t.Error("cover has no image")
	}
	if _, ok := src.PageImage("lost"); ok {
		t.Error("missing asset produced an image")
	}
	if _, ok := src.PageImage("plain"); ok {
		t.Error("unmapped page produced an image")
	}
}

func upload(t *testing.T, h *Handler, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="page.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

func TestUploadAndServe(t *testing.T) {
	h := NewHandler(NewStore(t.TempDir()))

	rec := upload(t, h, "image/png", encodePNG(t, 12, 16))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body)
	}
	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != 12 || resp.Height != 16 || resp.Name != "page.png" || resp.Aspect != 0.75 {
		t.Errorf("resp = %+v", resp)
	}

	srec := httptest.NewRecorder()
	h.Serve().ServeHTTP(srec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if srec.Code != http.StatusOK {
		t.Fatalf("serve status %d", srec.Code)
	}
	if cc := srec.Header().Get("Cache-Control"); cc != "public, max-age=31536000, immutable" {
		t.Errorf("Cache-Control = %q", cc)
	}

	if rec := upload(t, h, "image/gif", []byte("GIF89a")); rec.Code != http.StatusBadRequest {
		t.Errorf("gif upload status %d", rec.Code)
	}

	for _, p := range []string{"/assets/" + resp.ID, "/assets/notes.txt", "/assets/" + typeid.NewBookID() + ".png"} {
		rec := httptest.NewRecorder()
		h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status %d, want 404", p, rec.Code)
		}
	}
}

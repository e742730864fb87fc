package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const book = `title = "Test"

[settings]
width = 100
height = 150
show_cover = true
flip_duration = "200ms"

[[pages]]
id = "a"

[[pages]]
id = "b"

[[pages]]
id = "c"

[[pages]]
id = "d"
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	root := newRootCmd()
	root.SetErr(&stderr)
	root.SetOut(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func frameCount(t *testing.T, dir string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	return len(matches)
}

func TestRenderRange(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "test.toml", book)
	out := filepath.Join(dir, "frames")

	logs, err := execute(t, "render", manifest, "--out", out, "--fps", "20", "--width", "240", "--height", "180")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, logs)
	}
	if n := frameCount(t, out); n < 2 {
		t.Errorf("frames = %d", n)
	}
	if !strings.Contains(logs, "Rendered") {
		t.Errorf("logs = %q", logs)
	}
}

func TestRenderScript(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "test.toml", book)
	script := writeFile(t, dir, "flips.js", `book.flipNext(); book.wait(100); book.flipPrev();`)
	out := filepath.Join(dir, "frames")

	if logs, err := execute(t, "render", manifest, "--out", out, "--script", script, "--fps", "20", "--width", "240", "--height", "180"); err != nil {
		t.Fatalf("render: %v\n%s", err, logs)
	}
	if n := frameCount(t, out); n < 3 {
		t.Errorf("frames = %d", n)
	}
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "test.toml", book)

	tests := []struct {
		name string
		args []string
	}{
		{"no manifest", []string{"render"}},
		{"missing manifest", []string{"render", filepath.Join(dir, "nope.toml")}},
		{"bad video format", []string{"render", manifest, "--video", "out.avi", "--out", dir}},
		{"missing script", []string{"render", manifest, "--script", filepath.Join(dir, "nope.js"), "--out", dir}},
		{"bad fps", []string{"render", manifest, "--fps", "0", "--out", dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("render succeeded")
			}
		})
	}
}

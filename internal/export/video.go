package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

var ErrUnknownFormat = errors.New("unknown video format")

// framePattern names frame files so ffmpeg reads them in order.
const framePattern = "frame_%04d.png"

// FrameName is the file name of frame i in a frame directory.
func FrameName(i int) string { return fmt.Sprintf(framePattern, i) }

// WriteFrame stores img as frame i in dir.
func WriteFrame(dir string, i int, img image.Image) (string, error) {
	path := filepath.Join(dir, FrameName(i))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create frame file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return "", fmt.Errorf("encode frame %d: %w", i, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("write frame %d: %w", i, err)
	}
	return path, nil
}

// Encoder turns a directory of numbered PNG frames into a video with ffmpeg.
type Encoder struct {
	FfmpegPath string
}

// FormatOf picks the video format from an output file name.
func FormatOf(path string) (string, error) {
	switch ext := filepath.Ext(path); ext {
	case ".mp4", ".gif", ".webm":
		return ext[1:], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Encode writes frames from dir to out at fps. The format follows out's extension.
func (e Encoder) Encode(ctx context.Context, dir string, fps int, out string) error {
	format, err := FormatOf(out)
	if err != nil {
		return err
	}
	if fps <= 0 || fps > 120 {
		fps = 24
	}

	for _, args := range passes(format, dir, fps, out) {
		if err := e.run(ctx, args...); err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
	}
	return nil
}

// passes lists the ffmpeg invocations for format. GIFs take two: palette, then apply.
func passes(format, dir string, fps int, out string) [][]string {
	input := []string{"-framerate", strconv.Itoa(fps), "-i", filepath.Join(dir, framePattern)}
	with := func(args ...string) []string {
		return append(append([]string{}, input...), args...)
	}

	switch format {
	case "mp4":
		return [][]string{with(
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			out,
		)}
	case "gif":
		palette := filepath.Join(dir, "palette.png")
		return [][]string{
			with("-vf", "palettegen=stats_mode=diff", palette),
			with("-i", palette, "-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle", out),
		}
	default:
		return [][]string{with(
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuva420p",
			out,
		)}
	}
}

func (e Encoder) run(ctx context.Context, args ...string) error {
	path := e.FfmpegPath
	if path == "" {
		path = "ffmpeg"
	}
	// -y overwrites output without prompting
	fullArgs := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(ctx, path, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}

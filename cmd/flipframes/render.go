package main

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageflip/pageflip/internal/asset"
	"github.com/pageflip/pageflip/internal/export"
	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/reel"
)

type renderOpts struct {
	out    string  // frame directory
	from   int     // first page shown
	to     int     // last page to turn to, -1 for the last page
	fps    int     // frames per second of book time
	width  float64 // container width in pixels
	height float64 // container height in pixels
	script string  // JavaScript flip script, replaces from/to
	assets string  // asset directory holding page images
	video  string  // encode frames to this .mp4, .gif or .webm file
	ffmpeg string  // ffmpeg binary
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{
		out:    "frames",
		to:     -1,
		fps:    60,
		width:  1200,
		height: 800,
		ffmpeg: "ffmpeg",
	}

	cmd := &cobra.Command{
		Use:   "render [manifest]",
		Short: "Render flips of a book manifest to PNG frames",
		Long: `Render loads a .toml or .json book manifest and records page turns as numbered PNG
frames. Without --script it turns one spread at a time from --from to --to. With --script
it runs a JavaScript file that drives a global book object:

  book.flipNext(); book.flipPrev(); book.goTo(n);
  book.drag(x0, y0, x1, y1); book.wait(ms);
  book.page; book.pageCount`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", opts.out, "directory for frame_NNNN.png files")
	cmd.Flags().IntVar(&opts.from, "from", opts.from, "page to start on")
	cmd.Flags().IntVar(&opts.to, "to", opts.to, "page to turn to (-1 for the last page)")
	cmd.Flags().IntVar(&opts.fps, "fps", opts.fps, "frames per second")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "container width in pixels")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "container height in pixels")
	cmd.Flags().StringVar(&opts.script, "script", "", "JavaScript flip script")
	cmd.Flags().StringVar(&opts.assets, "assets", "", "asset directory with page images")
	cmd.Flags().StringVar(&opts.video, "video", "", "encode frames to a .mp4, .gif or .webm file")
	cmd.Flags().StringVar(&opts.ffmpeg, "ffmpeg", opts.ffmpeg, "path to ffmpeg")

	return cmd
}

func runRender(ctx context.Context, path string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if opts.video != "" {
		if _, err := export.FormatOf(opts.video); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(opts.out, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	logger.Debug("loaded manifest", "book", m.ID, "pages", len(m.Pages))

	sink := func(i int, img image.Image) error {
		_, err := export.WriteFrame(opts.out, i, img)
		return err
	}
	ropts := []reel.Option{reel.WithLogger(slogFrom(logger))}
	if opts.assets != "" {
		ropts = append(ropts, reel.WithImages(asset.NewStore(opts.assets).Pages(m.Assets())))
	}

	rec, err := reel.NewRecorder(m, opts.width, opts.height, opts.fps, sink, ropts...)
	if err != nil {
		return err
	}

	if opts.script != "" {
		src, err := os.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		err = reel.RunScript(ctx, rec, string(src))
		if err != nil {
			return err
		}
	} else {
		to := opts.to
		if to < 0 {
			to = rec.Book().PageCount() - 1
		}
		if err := rec.Range(opts.from, to); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Rendered %d frames of %q to %s", rec.Frames(), m.Title, opts.out))

	if opts.video == "" {
		return nil
	}
	prog = newProgress(logger)
	enc := export.Encoder{FfmpegPath: opts.ffmpeg}
	if err := enc.Encode(ctx, opts.out, opts.fps, opts.video); err != nil {
		return err
	}
	prog.done("Encoded " + opts.video)
	return nil
}

// Package settings holds the validated configuration of a book: page size and sizing mode,
// flip timing, cover and reading-direction flags, shadow strength and gesture thresholds.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	ErrInvalidDimensions = errors.New("invalid page dimensions")
	ErrInvalidDuration   = errors.New("invalid flip duration")
	ErrInvalidSizeMode   = errors.New("invalid size mode")
	ErrInvalidOpacity    = errors.New("invalid shadow opacity")
	ErrInvalidSwipe      = errors.New("invalid swipe thresholds")
	ErrUnknownFormat     = errors.New("unknown settings format")
)

// SizeMode selects how the book fits its container.
type SizeMode string

const (
	// SizeFixed keeps the configured page size and centres the book.
	SizeFixed SizeMode = "fixed"
	// SizeStretch scales pages to the container within the min/max bounds, keeping the
	// configured width/height ratio.
	SizeStretch SizeMode = "stretch"
)

// Duration is a time.Duration that reads and writes as a string ("800ms", "1s") in TOML
// and JSON.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Swipe holds the thresholds the gesture layer classifies pointer sequences with.
type Swipe struct {
	// Distance is the horizontal travel, in pixels, a quick release needs to count as a swipe.
	Distance float64 `toml:"distance" json:"distance"`
	// Timeout is the window a swipe has to complete in.
	Timeout Duration `toml:"timeout" json:"timeout"`
	// DirectionThreshold is how far a pointer moves before its primary axis is decided.
	DirectionThreshold float64 `toml:"direction_threshold" json:"directionThreshold"`
	// VerticalTolerance scales the vertical delta when deciding the primary axis.
	VerticalTolerance float64 `toml:"vertical_tolerance" json:"verticalTolerance"`
}

// Settings configures one book instance. The zero value is not valid; start from Default.
type Settings struct {
	Width     float64 `toml:"width" json:"width"`
	Height    float64 `toml:"height" json:"height"`
	MinWidth  float64 `toml:"min_width" json:"minWidth"`
	MaxWidth  float64 `toml:"max_width" json:"maxWidth"`
	MinHeight float64 `toml:"min_height" json:"minHeight"`
	MaxHeight float64 `toml:"max_height" json:"maxHeight"`

	Size         SizeMode `toml:"size" json:"size"`
	FlipDuration Duration `toml:"flip_duration" json:"flipDuration"`
	StartPage    int      `toml:"start_page" json:"startPage"`

	ShowCover   bool `toml:"show_cover" json:"showCover"`
	RTL         bool `toml:"rtl" json:"rtl"`
	UsePortrait bool `toml:"use_portrait" json:"usePortrait"`

	MaxShadowOpacity float64 `toml:"max_shadow_opacity" json:"maxShadowOpacity"`
	ShowPageCorners  bool    `toml:"show_page_corners" json:"showPageCorners"`

	// IgnoreInteractive leaves pointer-downs on links, buttons and inputs to the page content.
	IgnoreInteractive bool `toml:"ignore_interactive" json:"ignoreInteractive"`
	// DisableFlipByClick makes taps flip only when they land on a page corner.
	DisableFlipByClick bool `toml:"disable_flip_by_click" json:"disableFlipByClick"`

	Swipe Swipe `toml:"swipe" json:"swipe"`
}

// Default returns settings for a 550x733 fixed-size book.
func Default() Settings {
	return Settings{
		Width:             550,
		Height:            733,
		Size:              SizeFixed,
		FlipDuration:      Duration{time.Second},
		UsePortrait:       true,
		MaxShadowOpacity:  1,
		ShowPageCorners:   true,
		IgnoreInteractive: true,
		Swipe: Swipe{
			Distance:           30,
			Timeout:            Duration{250 * time.Millisecond},
			DirectionThreshold: 10,
			VerticalTolerance:  1.3,
		},
	}
}

// Validate reports the first configuration problem in s.
func (s Settings) Validate() error {
	if !(s.Width > 0) || !(s.Height > 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidDimensions, s.Width, s.Height)
	}
	switch s.Size {
	case SizeFixed:
	case SizeStretch:
		if s.MinWidth < 0 || s.MinHeight < 0 || s.MaxWidth < 0 || s.MaxHeight < 0 {
			return fmt.Errorf("%w: negative bounds", ErrInvalidDimensions)
		}
		if s.MaxWidth > 0 && s.MinWidth > s.MaxWidth {
			return fmt.Errorf("%w: min width %v above max width %v", ErrInvalidDimensions, s.MinWidth, s.MaxWidth)
		}
		if s.MaxHeight > 0 && s.MinHeight > s.MaxHeight {
			return fmt.Errorf("%w: min height %v above max height %v", ErrInvalidDimensions, s.MinHeight, s.MaxHeight)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSizeMode, s.Size)
	}
	if s.FlipDuration.Duration <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, s.FlipDuration.Duration)
	}
	if s.MaxShadowOpacity < 0 || s.MaxShadowOpacity > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidOpacity, s.MaxShadowOpacity)
	}
	if s.Swipe.Distance < 0 || s.Swipe.Timeout.Duration < 0 || s.Swipe.DirectionThreshold < 0 || s.Swipe.VerticalTolerance <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidSwipe, s.Swipe)
	}
	if s.StartPage < 0 {
		return fmt.Errorf("%w: start page %d", ErrInvalidDimensions, s.StartPage)
	}
	return nil
}

// Ratio is the page height over its width.
func (s Settings) Ratio() float64 {
	return s.Height / s.Width
}

// Format is a settings encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Decode reads settings in the given format on top of Default and validates the result.
func Decode(r io.Reader, format Format) (Settings, error) {
	s := Default()
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("decode toml settings: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("decode json settings: %w", err)
		}
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads a .toml or .json settings file.
func Load(path string) (Settings, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Settings{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

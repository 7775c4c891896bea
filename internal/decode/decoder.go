package decode

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"log/slog"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ErrUndecodable is returned when no strategy produced a usable image.
var ErrUndecodable = errors.New("no decoder could read the image")

// Hint carries metadata about where the bytes came from.
type Hint struct {
	URL         string
	ContentType string
}

// looksLikeIcon reports whether the hint suggests an ICO payload.
func (h Hint) looksLikeIcon() bool {
	url := strings.ToLower(h.URL)
	ct := strings.ToLower(h.ContentType)
	return strings.HasSuffix(url, ".ico") ||
		strings.Contains(ct, "image/x-icon") ||
		strings.Contains(ct, "image/vnd.microsoft.icon")
}

// Strategy is a single attempt at decoding.
type Strategy struct {
	// Name identifies the strategy in logs and metrics.
	Name string

	// Applies reports whether the strategy should run for the hint.
	// A nil Applies always runs.
	Applies func(Hint) bool

	// Decode converts data into an image.
	Decode func(data []byte, hint Hint) (image.Image, error)
}

// Result is a successfully decoded image.
type Result struct {
	Image    image.Image
	Strategy string
}

// Width returns the image width.
func (r Result) Width() int {
	return r.Image.Bounds().Dx()
}

// Height returns the image height.
func (r Result) Height() int {
	return r.Image.Bounds().Dy()
}

// Decoder runs a chain of strategies.
type Decoder struct {
	strategies []Strategy
	logger     *slog.Logger
	observe    func(strategy string)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger for strategy failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// WithStrategies replaces the default chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(d *Decoder) {
		d.strategies = strategies
	}
}

// WithObserver registers a callback invoked with the name of the strategy
// that produced each decoded image.
func WithObserver(observe func(strategy string)) Option {
	return func(d *Decoder) {
		d.observe = observe
	}
}

// New returns a Decoder with the default strategy chain.
func New(opts ...Option) *Decoder {
	d := &Decoder{strategies: DefaultStrategies()}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// DefaultStrategies returns the standard decoding chain.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "native", Decode: decodeNative},
		{Name: "icon", Applies: Hint.looksLikeIcon, Decode: decodeIcon},
		{Name: "container", Decode: decodeContainer},
		{Name: "svg-512", Decode: svgAt(512)},
		{Name: "svg-256", Decode: svgAt(256)},
		{Name: "svg-1024", Decode: svgAt(1024)},
	}
}

// Decode returns the first image with positive width and height produced
// by the chain, or ErrUndecodable.
func (d *Decoder) Decode(data []byte, hint Hint) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrUndecodable
	}
	for _, s := range d.strategies {
		if s.Applies != nil && !s.Applies(hint) {
			continue
		}
		img, err := runStrategy(s, data, hint)
		if err != nil {
			d.logger.Debug("decode strategy failed", "strategy", s.Name, "url", hint.URL, "error", err)
			continue
		}
		if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
			continue
		}
		if d.observe != nil {
			d.observe(s.Name)
		}
		return Result{Image: img, Strategy: s.Name}, nil
	}
	return Result{}, ErrUndecodable
}

// runStrategy invokes s, converting a panic into an error.
func runStrategy(s Strategy, data []byte, hint Hint) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Name, r)
		}
	}()
	return s.Decode(data, hint)
}

// Package derivative turns an uploaded image into the fixed set of
// re-encoded JPEG renditions served to clients.
package derivative

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyInput        = errors.New("empty image input")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image dimensions exceed the pixel limit")
)

// MaxPixels bounds the decoded size of a source image. Headers are checked
// before any pixel data is allocated.
const MaxPixels = 50_000_000

// Tier names a rendition. The value doubles as the storage prefix.
type Tier string

const (
	TierOriginal Tier = "original"
	TierMobile   Tier = "mobile"
	TierSquare   Tier = "square400"
)

// Mode selects how a rendition is bounded.
type Mode int

const (
	// ModeFit keeps the aspect ratio and bounds both sides by Width/Height.
	// Smaller sources are not upscaled.
	ModeFit Mode = iota
	// ModeFill scales to cover Width x Height and center-crops the overflow.
	ModeFill
)

type Spec struct {
	Tier    Tier
	Mode    Mode
	Width   int
	Height  int
	Quality int
}

var (
	OriginalSpec = Spec{Tier: TierOriginal, Mode: ModeFit, Width: 2048, Height: 2048, Quality: 90}
	MobileSpec   = Spec{Tier: TierMobile, Mode: ModeFit, Width: 1080, Height: 1080, Quality: 80}
	SquareSpec   = Spec{Tier: TierSquare, Mode: ModeFill, Width: 400, Height: 400, Quality: 75}
)

// DefaultSpecs is the rendition set produced for every daily photo.
var DefaultSpecs = []Spec{OriginalSpec, MobileSpec, SquareSpec}

type Derivative struct {
	Tier   Tier
	Data   []byte
	Width  int
	Height int
}

type Result struct {
	// Width and Height of the source after EXIF orientation was applied.
	Width       int
	Height      int
	Derivatives []Derivative
}

// Get returns the rendition for tier t.
func (r *Result) Get(t Tier) (Derivative, bool) {
	for _, d := range r.Derivatives {
		if d.Tier == t {
			return d, true
		}
	}
	return Derivative{}, false
}

// Generator holds an immutable list of specs and is safe for concurrent use.
type Generator struct {
	specs []Spec
}

func NewGenerator(specs ...Spec) *Generator {
	if len(specs) == 0 {
		specs = DefaultSpecs
	}
	cp := make([]Spec, len(specs))
	copy(cp, specs)
	return &Generator{specs: cp}
}

func (g *Generator) Specs() []Spec {
	cp := make([]Spec, len(g.specs))
	copy(cp, g.specs)
	return cp
}

// Generate decodes data once, applies EXIF orientation, and renders every
// spec from that same bitmap.
func (g *Generator) Generate(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrUnsupportedFormat)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrUnsupportedFormat)
	}

	res := &Result{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Derivatives: make([]Derivative, 0, len(g.specs)),
	}

	for _, spec := range g.specs {
		d, err := render(src, spec)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", spec.Tier, err)
		}
		res.Derivatives = append(res.Derivatives, d)
	}

	return res, nil
}

func render(src image.Image, spec Spec) (Derivative, error) {
	var out image.Image
	switch spec.Mode {
	case ModeFill:
		out = imaging.Fill(src, spec.Width, spec.Height, imaging.Center, imaging.Lanczos)
	default:
		out = imaging.Fit(src, spec.Width, spec.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(spec.Quality)); err != nil {
		return Derivative{}, err
	}

	b := out.Bounds()
	return Derivative{
		Tier:   spec.Tier,
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

package layout

import (
	"math"

	"github.com/cozy-creator/meme-engine/internal/config"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const (
	DefaultMaxLines     = config.DefaultMaxLines
	DefaultMinSize      = config.DefaultMinFontSize
	DefaultMaxStartSize = config.DefaultMaxFontSize
	DefaultStep         = config.DefaultFontStep
)

// FaceSource hands out faces of one font at any size.
type FaceSource interface {
	Face(size float64) font.Face
}

// OpenTypeFaces is a FaceSource backed by a parsed OpenType font. Sizes are
// in pixels at 72 DPI.
type OpenTypeFaces struct {
	Font *opentype.Font
}

func (o OpenTypeFaces) Face(size float64) font.Face {
	face, err := opentype.NewFace(o.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

type FitOptions struct {
	// MaxWidth is the widest a line may be, in pixels.
	MaxWidth int
	// ImageWidth derives the starting size when StartSize is zero.
	ImageWidth int
	// ImageHeight bounds the block height through MaxHeightFraction. Zero
	// disables the height check.
	ImageHeight       int
	MaxHeightFraction float64

	StartSize    float64
	MinSize      float64
	MaxStartSize float64
	Step         float64
	MaxLines     int
	LineSpacing  float64
}

func FitOptionsFromConfig(cfg config.LayoutConfig) FitOptions {
	return FitOptions{
		MaxHeightFraction: cfg.MaxHeightFraction,
		MinSize:           cfg.MinFontSize,
		MaxStartSize:      cfg.MaxFontSize,
		Step:              cfg.FontStep,
		MaxLines:          cfg.MaxLines,
		LineSpacing:       cfg.LineSpacing,
	}
}

type Result struct {
	Lines      []string
	Size       float64
	LineHeight int
	Face       font.Face
}

// Height is the total block height of the wrapped lines.
func (r Result) Height() int {
	return len(r.Lines) * r.LineHeight
}

func (o FitOptions) withDefaults() FitOptions {
	if o.MinSize <= 0 {
		o.MinSize = DefaultMinSize
	}
	if o.MaxStartSize <= 0 {
		o.MaxStartSize = DefaultMaxStartSize
	}
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.LineSpacing <= 0 {
		o.LineSpacing = 1
	}
	if o.StartSize <= 0 {
		o.StartSize = math.Min(math.Max(float64(o.ImageWidth)/10, o.MinSize), o.MaxStartSize)
	}
	return o
}

// Fit searches for the largest font size, starting at StartSize and shrinking
// by Step, at which text wraps into at most MaxLines lines whose block fits in
// MaxHeightFraction of the image height. At MinSize it gives up and returns
// that layout as is.
func Fit(text string, opts FitOptions, faces FaceSource) Result {
	opts = opts.withDefaults()

	size := opts.StartSize
	for {
		face := faces.Face(size)
		lineHeight := int(math.Ceil(float64(face.Metrics().Height.Ceil()) * opts.LineSpacing))
		result := Result{
			Lines:      Wrap(text, opts.MaxWidth, face),
			Size:       size,
			LineHeight: lineHeight,
			Face:       face,
		}

		if opts.fits(result) || size <= opts.MinSize {
			return result
		}

		size = math.Max(size-opts.Step, opts.MinSize)
	}
}

func (o FitOptions) fits(r Result) bool {
	if len(r.Lines) > o.MaxLines {
		return false
	}
	if o.ImageHeight > 0 && o.MaxHeightFraction > 0 {
		return float64(r.Height()) <= o.MaxHeightFraction*float64(o.ImageHeight)
	}
	return true
}

package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/catalog"
	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/internal/layout"
	"github.com/cozy-creator/meme-engine/internal/slots"
	"github.com/cozy-creator/meme-engine/internal/utils/pathutil"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultFontSize = 32
	DefaultPadding  = config.DefaultPadding
)

var (
	defaultFill   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	defaultStroke = color.NRGBA{A: 255}
)

type Options struct {
	// Format is FormatPNG or FormatJPEG.
	Format string
	// Layout drives caption fitting. Its size fields are reused, the
	// per-image fields are filled in per render.
	Layout  layout.FitOptions
	Padding int
	// CaptionFont is the font reference for free-form captions. Empty means
	// the embedded fallback.
	CaptionFont string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Format:  cfg.OutputFormat,
		Layout:  layout.FitOptionsFromConfig(cfg.Layout),
		Padding: cfg.Layout.Padding,
	}
}

// Compositor draws text onto images and encodes the result. It never uploads
// anything. Each render works on its own pixel buffer, so a Compositor is safe
// for concurrent use.
type Compositor struct {
	fonts *FontLoader
	opts  Options
	log   *zap.Logger
}

func NewCompositor(fonts *FontLoader, opts Options, log *zap.Logger) (*Compositor, error) {
	format, err := NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if fonts == nil {
		fonts = NewFontLoader(log)
	}

	return &Compositor{fonts: fonts, opts: opts, log: logger.OrNop(log)}, nil
}

// RenderTemplate draws every slot value onto the template's base image with
// the template's text style. Center alignment centres the text block on the
// slot anchor; left alignment puts the block's top-left corner on it.
func (c *Compositor) RenderTemplate(tpl *catalog.TemplateDefinition, values slots.SlotValues) (*Output, error) {
	base, err := LoadImage(pathutil.Resolve(tpl.BasePath, tpl.Image.File))
	if err != nil {
		return nil, err
	}

	img := canvas(base, tpl.Image.Width, tpl.Image.Height)
	style := tpl.TextStyle

	size := style.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	face := c.fonts.Faces(style.Font, tpl.BasePath).Face(size)
	defer face.Close()

	fill := c.color(style.Color, defaultFill)
	strokeColor := c.color(style.StrokeColor, defaultStroke)
	strokeWidth := 0
	if style.Stroke {
		strokeWidth = style.StrokeWidth
	}

	for _, slot := range tpl.TextSlots {
		text := values[slot.Key]
		if strings.TrimSpace(text) == "" {
			return nil, &slots.UnfillableError{Template: tpl.ID, Slot: slot.Key}
		}

		x, y := slot.Coordinates[0], slot.Coordinates[1]
		lines := layout.Wrap(text, slotWidth(img.Bounds().Dx(), x, style.Align), face)
		block := textBlock{lines: lines, face: face, lineHeight: face.Metrics().Height.Ceil()}
		if style.Align == catalog.AlignLeft {
			block.drawLeft(img, x, y, fill, strokeColor, strokeWidth)
		} else {
			block.drawCentered(img, x, y, fill, strokeColor, strokeWidth)
		}
	}

	c.log.Debug("rendered template", zap.String("template", tpl.ID), zap.Int("slots", len(tpl.TextSlots)))
	return encode(img, c.opts.Format)
}

// RenderCaption draws a free-form caption over base: fitted lines, centred
// horizontally, at the top or bottom edge, white with a black outline that
// grows with the font size.
func (c *Compositor) RenderCaption(base image.Image, caption string, position concept.TextPosition) (*Output, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: no background image", ErrAssetNotFound)
	}

	img := canvas(base, 0, 0)
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	padding := c.opts.Padding

	opts := c.opts.Layout
	opts.MaxWidth = width - 2*padding
	opts.ImageWidth = width
	opts.ImageHeight = height

	fitted := layout.Fit(caption, opts, c.fonts.Faces(c.opts.CaptionFont, ""))
	strokeWidth := int(math.Max(1, fitted.Size/15))

	block := textBlock{lines: fitted.Lines, face: fitted.Face, lineHeight: fitted.LineHeight}
	top := padding
	if position != concept.PositionTop {
		top = height - padding - fitted.Height()
	}
	block.drawRows(img, width/2, top, true, defaultFill, defaultStroke, strokeWidth)

	c.log.Debug("rendered caption",
		zap.Int("lines", len(fitted.Lines)),
		zap.Float64("font_size", fitted.Size),
		zap.String("position", string(position)),
	)
	return encode(img, c.opts.Format)
}

func (c *Compositor) color(s string, fallback color.NRGBA) color.NRGBA {
	if s == "" {
		return fallback
	}
	col, err := ParseColor(s)
	if err != nil {
		c.log.Warn("unknown color, using default", zap.String("color", s))
		return fallback
	}
	return col
}

// slotWidth is the widest a slot's text may run without leaving the image.
func slotWidth(imageWidth, x int, align string) int {
	if align == catalog.AlignLeft {
		return imageWidth - x
	}
	return 2 * min(x, imageWidth-x)
}

type textBlock struct {
	lines      []string
	face       font.Face
	lineHeight int
}

func (b textBlock) height() int {
	return len(b.lines) * b.lineHeight
}

func (b textBlock) drawCentered(dst *image.RGBA, cx, cy int, fill, stroke color.Color, strokeWidth int) {
	b.drawRows(dst, cx, cy-b.height()/2, true, fill, stroke, strokeWidth)
}

func (b textBlock) drawLeft(dst *image.RGBA, x, y int, fill, stroke color.Color, strokeWidth int) {
	b.drawRows(dst, x, y, false, fill, stroke, strokeWidth)
}

// drawRows draws the lines downwards from top. With centered set, x is the
// horizontal centre of each line, otherwise its left edge.
func (b textBlock) drawRows(dst *image.RGBA, x, top int, centered bool, fill, stroke color.Color, strokeWidth int) {
	metrics := b.face.Metrics()
	ascent, descent := metrics.Ascent.Ceil(), metrics.Descent.Ceil()
	// Centre the glyph box inside each row when rows are taller than the font.
	inset := (b.lineHeight - ascent - descent) / 2

	for i, line := range b.lines {
		dotX := x
		if centered {
			dotX = x - layout.Measure(b.face, line)/2
		}
		baseline := top + i*b.lineHeight + inset + ascent
		drawString(dst, b.face, line, dotX, baseline, fill, stroke, strokeWidth)
	}
}

// drawString paints the outline by stamping the text at every offset within
// strokeWidth, then the fill on top.
func drawString(dst *image.RGBA, face font.Face, s string, x, y int, fill, stroke color.Color, strokeWidth int) {
	d := &font.Drawer{Dst: dst, Face: face}

	if strokeWidth > 0 {
		d.Src = image.NewUniform(stroke)
		r2 := strokeWidth * strokeWidth
		for dy := -strokeWidth; dy <= strokeWidth; dy++ {
			for dx := -strokeWidth; dx <= strokeWidth; dx++ {
				if dx*dx+dy*dy > r2 || (dx == 0 && dy == 0) {
					continue
				}
				d.Dot = fixed.P(x+dx, y+dy)
				d.DrawString(s)
			}
		}
	}

	d.Src = image.NewUniform(fill)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

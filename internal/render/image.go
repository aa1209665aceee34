package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/utils/hashutil"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"

	jpegQuality = 90
	hashLength  = 16
)

var (
	ErrAssetNotFound     = errors.New("image asset not found")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

var decodableTypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp"}

// Output is an encoded image ready to hand back or store.
type Output struct {
	Data        []byte
	ContentType string
	Format      string
	Hash        string
}

func (o *Output) Base64() string {
	return base64.StdEncoding.EncodeToString(o.Data)
}

// Extension is the file extension for the output format, with the dot.
func (o *Output) Extension() string {
	if o.Format == FormatJPEG {
		return ".jpg"
	}
	return "." + o.Format
}

// NormalizeFormat maps user spellings onto FormatPNG or FormatJPEG.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatJPEG, "jpg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// LoadImage reads and decodes an image file after sniffing its type.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, path)
		}
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return DecodeImage(data)
}

func DecodeImage(data []byte) (image.Image, error) {
	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), decodableTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", mtype.String(), err)
	}
	return img, nil
}

// canvas copies src into a fresh RGBA buffer owned by the caller, resizing it
// first when width and height are positive and differ from its bounds.
func canvas(src image.Image, width, height int) *image.RGBA {
	b := src.Bounds()
	if width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		return transform.Resize(src, width, height, transform.Linear)
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func encode(img image.Image, format string) (*Output, error) {
	var buf bytes.Buffer
	out := &Output{Format: format}

	switch format {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		out.ContentType = "image/png"
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		out.ContentType = "image/jpeg"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	out.Data = buf.Bytes()
	out.Hash = hashutil.ShortHash(out.Data, hashLength)
	return out, nil
}

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cozy-creator/meme-engine/internal/layout"
	"github.com/cozy-creator/meme-engine/internal/utils/pathutil"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

var fontExtensions = []string{".ttf", ".otf", ".ttc"}

var fallbackFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

// FallbackFont is the embedded Go Bold face used whenever a referenced font
// cannot be found or parsed.
func FallbackFont() *opentype.Font {
	f, err := fallbackFont()
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	return f
}

// FontLoader resolves font references against a template directory and the
// configured font directories. Parsed fonts are memoised for the life of the
// loader; concurrent first loads of the same font may parse it twice, which
// is harmless.
type FontLoader struct {
	dirs  []string
	cache sync.Map
	log   *zap.Logger
}

func NewFontLoader(log *zap.Logger, dirs ...string) *FontLoader {
	return &FontLoader{dirs: dirs, log: logger.OrNop(log)}
}

// Load returns the font named by ref, looked up in baseDir first. It never
// fails: missing or broken fonts degrade to FallbackFont.
func (l *FontLoader) Load(ref, baseDir string) *opentype.Font {
	if strings.TrimSpace(ref) == "" {
		return FallbackFont()
	}

	path, ok := l.resolve(ref, baseDir)
	key := path
	if !ok {
		key = "missing:" + baseDir + ":" + ref
	}
	if cached, ok := l.cache.Load(key); ok {
		return cached.(*opentype.Font)
	}

	var f *opentype.Font
	if !ok {
		l.log.Warn("font not found, using fallback", zap.String("font", ref))
		f = FallbackFont()
	} else if parsed, err := parseFontFile(path); err != nil {
		l.log.Warn("failed to parse font, using fallback", zap.String("path", path), zap.Error(err))
		f = FallbackFont()
	} else {
		f = parsed
	}

	actual, _ := l.cache.LoadOrStore(key, f)
	return actual.(*opentype.Font)
}

func (l *FontLoader) Faces(ref, baseDir string) layout.OpenTypeFaces {
	return layout.OpenTypeFaces{Font: l.Load(ref, baseDir)}
}

func (l *FontLoader) resolve(ref, baseDir string) (string, bool) {
	var roots []string
	if baseDir != "" {
		roots = append(roots, baseDir)
	}
	roots = append(roots, l.dirs...)

	names := []string{ref}
	if filepath.Ext(ref) == "" {
		for _, ext := range fontExtensions {
			names = append(names, ref+ext)
		}
	}

	for _, name := range names {
		if filepath.IsAbs(name) {
			if pathutil.Exists(name) {
				return name, true
			}
			continue
		}
		for _, root := range roots {
			candidate := pathutil.Resolve(root, name)
			if pathutil.Exists(candidate) {
				return candidate, true
			}
		}
	}

	return "", false
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		collection, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return collection.Font(0)
	}

	return opentype.Parse(data)
}

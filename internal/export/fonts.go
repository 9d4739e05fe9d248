package export

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type faceKey struct {
	size int
	bold bool
	mono bool
}

// fontBank parses the Go fonts once and caches faces per size and style.
type fontBank struct {
	mu       sync.Mutex
	regular  *opentype.Font
	bold     *opentype.Font
	mono     *opentype.Font
	monoBold *opentype.Font
	cache    map[faceKey]font.Face
}

func newFontBank() *fontBank {
	b := &fontBank{cache: make(map[faceKey]font.Face)}
	b.regular = parseFont("regular", goregular.TTF)
	b.bold = parseFont("bold", gobold.TTF)
	b.mono = parseFont("mono", gomono.TTF)
	b.monoBold = parseFont("mono bold", gomonobold.TTF)
	return b
}

func parseFont(name string, ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		slog.Default().Warn("parse builtin font", "font", name, "error", err)
		return nil
	}
	return f
}

// face returns a face for a CSS-like family and weight at size pixels. Any
// family mentioning "mono" or "courier" gets the monospace face.
func (b *fontBank) face(size float64, family, weight string) font.Face {
	key := faceKey{
		size: int(math.Round(size)),
		bold: isBold(weight),
		mono: isMono(family),
	}
	if key.size < 1 {
		key.size = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.cache[key]; ok {
		return f
	}

	var base *opentype.Font
	switch {
	case key.mono && key.bold:
		base = b.monoBold
	case key.mono:
		base = b.mono
	case key.bold:
		base = b.bold
	default:
		base = b.regular
	}
	if base == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(base, &opentype.FaceOptions{
		Size:    float64(key.size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	b.cache[key] = f
	return f
}

func isBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

func isMono(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier")
}

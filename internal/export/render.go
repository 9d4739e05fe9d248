// Package export rasterises the overlays visible at a moment onto a still
// frame of the video and writes it as a PNG.
package export

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/Dicklesworthstone/frametrack/internal/overlay"
)

// Default canvas size when no base frame is available.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Text shadow parameters.
const (
	shadowOffset = 2
	shadowBlur   = 4
)

var shadowColor = color.RGBA{A: 204}

// Renderer draws overlays onto frames. It is safe for concurrent use.
type Renderer struct {
	fonts *fontBank
}

// NewRenderer returns a renderer using the built-in Go fonts.
func NewRenderer() *Renderer {
	return &Renderer{fonts: newFontBank()}
}

// Render draws overlays onto a copy of base scaled to width x height. A nil
// base gives a black canvas. Non-positive sizes fall back to the base frame's
// size, then to the defaults.
func (r *Renderer) Render(base image.Image, width, height int, overlays []overlay.TextOverlay) *image.RGBA {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
		if base != nil {
			width, height = base.Bounds().Dx(), base.Bounds().Dy()
		}
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if base != nil {
		draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), base, base.Bounds(), draw.Over, nil)
	}

	for _, o := range overlays {
		r.drawText(canvas, o)
	}
	return canvas
}

func (r *Renderer) drawText(canvas *image.RGBA, o overlay.TextOverlay) {
	if strings.TrimSpace(o.Text) == "" {
		return
	}
	face := r.fonts.face(o.Style.FontSize, o.Style.FontFamily, o.Style.FontWeight)
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	adv := font.MeasureString(face, o.Text).Ceil()

	b := canvas.Bounds()
	cx := int(o.Position.X / 100 * float64(b.Dx()))
	cy := int(o.Position.Y / 100 * float64(b.Dy()))
	// Centred horizontally and vertically on the anchor point.
	dot := image.Pt(cx-adv/2, cy+(ascent-descent)/2)

	pad := shadowBlur + shadowOffset
	box := image.Rect(dot.X-pad, dot.Y-ascent-pad, dot.X+adv+pad, dot.Y+descent+pad)
	shadow := image.NewRGBA(box)
	drawString(shadow, face, shadowColor, dot.Add(image.Pt(shadowOffset, shadowOffset)), o.Text)
	boxBlur(shadow, shadowBlur/2)
	draw.Draw(canvas, box, shadow, box.Min, draw.Over)

	drawString(canvas, face, ParseColor(o.Style.Color), dot, o.Text)
}

func drawString(dst draw.Image, face font.Face, c color.Color, dot image.Point, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
}

// boxBlur applies a two-pass box blur of the given radius in place.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	b := img.Bounds()
	tmp := image.NewRGBA(b)
	blurPass(tmp, img, radius, 1, 0)
	blurPass(img, tmp, radius, 0, 1)
}

func blurPass(dst, src *image.RGBA, radius, dx, dy int) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum [4]int
			n := 0
			for k := -radius; k <= radius; k++ {
				p := image.Pt(x+k*dx, y+k*dy)
				if !p.In(b) {
					continue
				}
				i := src.PixOffset(p.X, p.Y)
				for c := 0; c < 4; c++ {
					sum[c] += int(src.Pix[i+c])
				}
				n++
			}
			i := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				dst.Pix[i+c] = uint8(sum[c] / n)
			}
		}
	}
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa. Anything else is white.
func ParseColor(s string) color.NRGBA {
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return white
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return white
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

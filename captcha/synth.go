// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package captcha

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/danielhkuo/pollgate/models"
)

const (
	glyphSize     = 38
	watermarkSize = 14
	tileSize      = 60
)

type Options struct {
	Width     int
	Height    int
	Watermark string
	// Strong adds an independent random scale to every glyph
	Strong bool
}

func DefaultOptions() Options {
	return Options{
		Width:     300,
		Height:    120,
		Watermark: "@pollgate",
		Strong:    true,
	}
}

// Synthesizer renders arithmetic puzzles. It holds no mutable state and is
// safe for concurrent use.
type Synthesizer struct {
	opts      Options
	glyphFont *truetype.Font
	markFont  *truetype.Font
}

func NewSynthesizer(opts Options) (*Synthesizer, error) {
	if opts.Width < 2*tileSize || opts.Height < tileSize {
		return nil, fmt.Errorf("canvas %dx%d is too small", opts.Width, opts.Height)
	}

	glyphFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse glyph font: %w", err)
	}
	markFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse watermark font: %w", err)
	}

	return &Synthesizer{opts: opts, glyphFont: glyphFont, markFont: markFont}, nil
}

// Generate draws a fresh question and renders it to PNG.
func (s *Synthesizer) Generate() (models.Puzzle, error) {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	q := NewQuestion(rng)

	img, err := s.render(rng, q.Expression+" = ?")
	if err != nil {
		return models.Puzzle{}, err
	}

	return models.Puzzle{
		ID:         uuid.NewString(),
		Image:      img,
		Expression: q.Expression,
		Answer:     q.Answer,
		Options:    q.Options,
	}, nil
}

func (s *Synthesizer) render(rng *rand.Rand, text string) ([]byte, error) {
	w, h := s.opts.Width, s.opts.Height
	bg := color.RGBA{uint8(between(rng, 230, 255)), uint8(between(rng, 230, 255)), uint8(between(rng, 230, 255)), 255}

	dc := gg.NewContext(w, h)
	dc.SetColor(bg)
	dc.Clear()

	s.drawLines(dc, rng)
	s.drawDots(dc, rng)
	s.drawGlyphs(dc, rng, text)
	s.drawCurves(dc, rng)

	warped := wave(dc.Image(), rng, bg)

	out := gg.NewContextForRGBA(warped)
	if s.opts.Watermark != "" {
		out.SetFontFace(truetype.NewFace(s.markFont, &truetype.Options{Size: watermarkSize}))
		out.SetRGBA255(150, 150, 150, 200)
		out.DrawStringAnchored(s.opts.Watermark, float64(w-6), float64(h-5), 1, 0)
	}

	var buf bytes.Buffer
	if err := out.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode puzzle: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Synthesizer) drawLines(dc *gg.Context, rng *rand.Rand) {
	w, h := s.opts.Width, s.opts.Height
	for i := between(rng, 6, 12); i > 0; i-- {
		dc.SetRGB255(between(rng, 150, 210), between(rng, 150, 210), between(rng, 150, 210))
		dc.SetLineWidth(float64(between(rng, 1, 2)))
		dc.DrawLine(rng.Float64()*float64(w), rng.Float64()*float64(h), rng.Float64()*float64(w), rng.Float64()*float64(h))
		dc.Stroke()
	}
}

func (s *Synthesizer) drawDots(dc *gg.Context, rng *rand.Rand) {
	w, h := s.opts.Width, s.opts.Height
	for i := between(rng, 80, 150); i > 0; i-- {
		dc.SetRGB255(between(rng, 100, 200), between(rng, 100, 200), between(rng, 100, 200))
		dc.DrawCircle(float64(rng.IntN(w)), float64(rng.IntN(h)), 1+rng.Float64())
		dc.Fill()
	}
}

// drawGlyphs renders each character on its own tile, rotated about the tile
// centre, and composites the tiles left to right around the canvas centre.
func (s *Synthesizer) drawGlyphs(dc *gg.Context, rng *rand.Rand, text string) {
	type glyph struct {
		ch      string
		scale   float64
		advance float64
	}

	glyphs := make([]glyph, 0, len(text))
	total := 0.0
	for _, r := range text {
		g := glyph{ch: string(r), scale: 1}
		if s.opts.Strong {
			g.scale = 0.85 + 0.3*rng.Float64()
		}
		if r == ' ' {
			g.advance = glyphSize * 0.3 * g.scale
		} else {
			face := truetype.NewFace(s.glyphFont, &truetype.Options{Size: glyphSize * g.scale})
			adv, _ := face.GlyphAdvance(r)
			g.advance = float64(adv)/64 + float64(between(rng, 2, 6))
		}
		glyphs = append(glyphs, g)
		total += g.advance
	}

	x := (float64(s.opts.Width) - total) / 2
	top := (s.opts.Height - tileSize) / 2
	for _, g := range glyphs {
		if g.ch != " " {
			tile := gg.NewContext(tileSize, tileSize)
			tile.SetFontFace(truetype.NewFace(s.glyphFont, &truetype.Options{Size: glyphSize * g.scale}))
			tile.SetRGB255(rng.IntN(101), rng.IntN(101), rng.IntN(101))
			angle := gg.Radians(-15 + 30*rng.Float64())
			c := float64(tileSize) / 2
			tile.RotateAbout(angle, c, c)
			tile.DrawStringAnchored(g.ch, c, c, 0.5, 0.35)

			offset := between(rng, -8, 8)
			dc.DrawImage(tile.Image(), int(x+g.advance/2-c), top+offset)
		}
		x += g.advance
	}
}

func (s *Synthesizer) drawCurves(dc *gg.Context, rng *rand.Rand) {
	w, h := float64(s.opts.Width), float64(s.opts.Height)
	for i := between(rng, 2, 4); i > 0; i-- {
		dc.SetRGB255(between(rng, 100, 180), between(rng, 100, 180), between(rng, 100, 180))
		dc.SetLineWidth(2)

		x := rng.Float64() * w / 2
		y := rng.Float64() * h
		dc.MoveTo(x, y)
		for p := between(rng, 2, 3); p > 0; p-- {
			cx, cy := x+20+rng.Float64()*40, rng.Float64()*h
			x, y = x+40+rng.Float64()*50, rng.Float64()*h
			dc.QuadraticTo(cx, cy, x, y)
		}
		dc.Stroke()
	}
}

// wave displaces every pixel by a sine of its row and a cosine of its column.
// Samples that land outside the canvas take the background colour.
func wave(src image.Image, rng *rand.Rand, bg color.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)

	ampX := 2 + 2*rng.Float64()
	ampY := 2 + 1.5*rng.Float64()
	periodY := 40 + 40*rng.Float64()
	periodX := 60 + 60*rng.Float64()
	phase := 2 * math.Pi * rng.Float64()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		dx := ampX * math.Sin(2*math.Pi*float64(y)/periodY+phase)
		for x := b.Min.X; x < b.Max.X; x++ {
			dy := ampY * math.Cos(2*math.Pi*float64(x)/periodX+phase)
			sx := x + int(math.Round(dx))
			sy := y + int(math.Round(dy))
			if sx < b.Min.X || sx >= b.Max.X || sy < b.Min.Y || sy >= b.Max.Y {
				dst.SetRGBA(x, y, bg)
				continue
			}
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

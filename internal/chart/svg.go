package chart

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// SVGOptions control colours of the rendered chart. Empty fields take the defaults.
type SVGOptions struct {
	Background string
	Stroke     string
	Text       string
	Ascendant  string
	Muted      string
}

func (o SVGOptions) withDefaults() SVGOptions {
	def := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	def(&o.Background, "#fffaf0")
	def(&o.Stroke, "#8b4513")
	def(&o.Text, "#2c1810")
	def(&o.Ascendant, "#c0392b")
	def(&o.Muted, "#8b7355")
	return o
}

type svgWriter struct {
	w   *bufio.Writer
	err error
}

func (s *svgWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *svgWriter) text(at Point, size int, weight, fill, body string) {
	s.printf(`<text x="%g" y="%g" text-anchor="middle" dominant-baseline="middle" font-size="%d" font-weight="%s" fill="%s">%s</text>`+"\n",
		at.X, at.Y, size, weight, fill, escape(body))
}

// RenderSVG writes c as a standalone SVG document.
func RenderSVG(w io.Writer, c *Chart, opts SVGOptions) error {
	opts = opts.withDefaults()
	g := c.Geometry
	k := g.Points()
	s := &svgWriter{w: bufio.NewWriter(w)}

	s.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		g.Width, g.Height, g.Width, g.Height)
	s.printf(`<rect x="%g" y="%g" width="%g" height="%g" fill="%s" stroke="%s" stroke-width="3"/>`+"\n",
		k.TopLeft.X, k.TopLeft.Y, g.Size, g.Size, opts.Background, opts.Stroke)

	line := func(a, b Point) {
		s.printf(`<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="2"/>`+"\n",
			a.X, a.Y, b.X, b.Y, opts.Stroke)
	}
	line(k.TopLeft, k.BottomRight)
	line(k.TopRight, k.BottomLeft)
	line(k.TopMid, k.RightMid)
	line(k.RightMid, k.BottomMid)
	line(k.BottomMid, k.LeftMid)
	line(k.LeftMid, k.TopMid)

	for _, h := range c.Houses {
		s.printf(`<g class="house" data-house="%d">`+"\n", h.House)
		s.printf("<title>%s</title>\n", escape(h.Sign.Text))
		s.text(h.Number.At, 11, "normal", opts.Muted, h.Number.Text)
		s.text(h.Sign.At, 10, "normal", opts.Muted, h.Sign.Text)
		for _, it := range h.Items {
			fill := opts.Text
			if it.Ascendant {
				fill = opts.Ascendant
			}
			s.text(it.At, 13, "bold", fill, it.Label)
			if it.Degree != "" {
				s.text(it.DegreeAt, 8, "normal", opts.Muted, it.Degree)
			}
		}
		s.printf("</g>\n")
	}

	for i, caption := range c.Caption {
		at := Point{k.Center.X, ItemY(k.Center.Y, i, len(c.Caption), 15)}
		weight := "normal"
		if i == 0 {
			weight = "bold"
		}
		s.text(at, 12, weight, opts.Text, caption)
	}

	s.printf("</svg>\n")
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

func escape(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}

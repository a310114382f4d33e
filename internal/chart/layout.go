package chart

import (
	"fmt"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// Default spacing, in chart units.
const (
	DefaultStep         = 18
	DefaultDegreeOffset = 10
	DefaultHeaderGap    = 15
)

// Label is text placed at a point.
type Label struct {
	Text string
	At   Point
}

// PlacedItem is an item with its final position. Degree is empty when the
// item has no degree value.
type PlacedItem struct {
	Item
	At       Point
	Degree   string
	DegreeAt Point
}

// HouseLayout is everything drawn in one house.
type HouseLayout struct {
	House  int
	Anchor Point
	Number Label
	Sign   Label
	Items  []PlacedItem
}

// Options tune label spacing. Zero fields take the defaults.
type Options struct {
	Step         float64
	DegreeOffset float64
	HeaderGap    float64
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.DegreeOffset <= 0 {
		o.DegreeOffset = DefaultDegreeOffset
	}
	if o.HeaderGap <= 0 {
		o.HeaderGap = DefaultHeaderGap
	}
	return o
}

// Layout places the house number, sign and items of every house. Items are
// stacked Step apart and centred on the house anchor: item i of n sits at
// anchor.Y + (i - (n-1)/2) * Step. The number and sign sit above the stack.
func Layout(g Geometry, houses Houses, opts Options) [12]HouseLayout {
	opts = opts.withDefaults()
	anchors := Anchors(g)

	var out [12]HouseLayout
	for i, anchor := range anchors {
		items := houses[i]
		n := len(items)

		hl := HouseLayout{House: i + 1, Anchor: anchor}
		top := anchor.Y + opts.HeaderGap
		if n > 0 {
			top = ItemY(anchor.Y, 0, n, opts.Step)
		}
		hl.Sign = Label{Text: SignName(i + 1), At: Point{anchor.X, top - opts.HeaderGap}}
		hl.Number = Label{Text: fmt.Sprint(i + 1), At: Point{anchor.X, top - 2*opts.HeaderGap}}

		for j, it := range items {
			y := ItemY(anchor.Y, j, n, opts.Step)
			hl.Items = append(hl.Items, PlacedItem{
				Item:     it,
				At:       Point{anchor.X, y},
				Degree:   FormatDegrees(it.Degrees),
				DegreeAt: Point{anchor.X, y + opts.DegreeOffset},
			})
		}
		out[i] = hl
	}
	return out
}

// ItemY is the vertical position of item i in a stack of n centred on cy.
func ItemY(cy float64, i, n int, step float64) float64 {
	return cy + (float64(i)-float64(n-1)/2)*step
}

// FormatDegrees renders a degree value to one decimal, or "" when nil.
func FormatDegrees(d *float64) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%.1f°", *d)
}

// Chart is a laid-out rasi chart ready to render.
type Chart struct {
	Geometry Geometry
	Houses   [12]HouseLayout
	// Caption is the text written at the centre, one entry per line.
	Caption []string
}

// New lays out c with default geometry and spacing.
func New(c *api.ChartResult) *Chart {
	return NewWithGeometry(c, DefaultGeometry(), Options{})
}

// NewWithGeometry lays out c on g.
func NewWithGeometry(c *api.ChartResult, g Geometry, opts Options) *Chart {
	return &Chart{
		Geometry: g,
		Houses:   Layout(g, ItemsByHouse(c), opts),
		Caption:  Caption(c),
	}
}

// Caption returns the centre text: place (or "Rasi Chart"), date, time and
// the lagna sign when known.
func Caption(c *api.ChartResult) []string {
	if c == nil {
		return []string{"Rasi Chart", "North Indian"}
	}
	title := c.Place
	if title == "" {
		title = "Rasi Chart"
	}
	lines := []string{title}
	if c.DOB != "" {
		lines = append(lines, api.BirthDetails{DOB: c.DOB}.Date())
	}
	if c.TOB != "" {
		lines = append(lines, c.TOB)
	}
	if c.Lagna != nil {
		sign := c.Lagna.SignName
		if sign == "" {
			sign = SignName(c.Lagna.House)
		}
		if sign != "" {
			lines = append(lines, "Lagna: "+sign)
		}
	}
	if len(lines) == 1 {
		lines = append(lines, "North Indian")
	}
	return lines
}

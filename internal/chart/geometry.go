// Package chart lays out a North Indian (diamond) rasi chart and renders it
// as SVG or as a terminal table.
package chart

// Point is a position in chart coordinates; y grows downward.
type Point struct {
	X float64
	Y float64
}

// Geometry describes the drawing area. The chart square of side Size is
// centred in a Width x Height canvas.
type Geometry struct {
	Width  float64
	Height float64
	Size   float64
}

// DefaultGeometry is the 600x600 canvas with a 480 square.
func DefaultGeometry() Geometry {
	return Geometry{Width: 600, Height: 600, Size: 480}
}

func (g Geometry) offset() Point {
	return Point{X: (g.Width - g.Size) / 2, Y: (g.Height - g.Size) / 2}
}

// KeyPoints are the corners, edge midpoints and centre of the chart square.
type KeyPoints struct {
	TopLeft, TopRight, BottomLeft, BottomRight Point
	TopMid, RightMid, BottomMid, LeftMid       Point
	Center                                     Point
}

// Points returns the key points of g.
func (g Geometry) Points() KeyPoints {
	o := g.offset()
	s := g.Size
	return KeyPoints{
		TopLeft:     Point{o.X, o.Y},
		TopRight:    Point{o.X + s, o.Y},
		BottomLeft:  Point{o.X, o.Y + s},
		BottomRight: Point{o.X + s, o.Y + s},
		TopMid:      Point{o.X + s/2, o.Y},
		RightMid:    Point{o.X + s, o.Y + s/2},
		BottomMid:   Point{o.X + s/2, o.Y + s},
		LeftMid:     Point{o.X, o.Y + s/2},
		Center:      Point{o.X + s/2, o.Y + s/2},
	}
}

// HousePolygons returns the polygon of each house, index 0 being house 1.
// House 1 is the top diamond; the rest follow counter-clockwise.
func HousePolygons(g Geometry) [12][]Point {
	k := g.Points()
	q := g.Size * 0.25
	tl, tr, bl, br := k.TopLeft, k.TopRight, k.BottomLeft, k.BottomRight

	return [12][]Point{
		{k.TopMid, {tl.X + q, tl.Y + q}, k.Center, {tr.X - q, tr.Y + q}},
		{tl, k.TopMid, {tl.X + q, tl.Y + q}},
		{tl, {tl.X + q, tl.Y + q}, k.LeftMid},
		{k.LeftMid, {k.LeftMid.X + q, tl.Y + q}, k.Center, {k.LeftMid.X + q, bl.Y - q}},
		{k.LeftMid, {k.LeftMid.X + q, bl.Y - q}, bl},
		{bl, {k.LeftMid.X + q, bl.Y - q}, k.BottomMid},
		{k.BottomMid, {bl.X + q, bl.Y - q}, k.Center, {br.X - q, br.Y - q}},
		{k.BottomMid, {br.X - q, br.Y - q}, br},
		{br, {br.X - q, br.Y - q}, k.RightMid},
		{k.RightMid, {k.RightMid.X - q, br.Y - q}, k.Center, {k.RightMid.X - q, tr.Y + q}},
		{k.RightMid, {k.RightMid.X - q, tr.Y + q}, tr},
		{tr, {tr.X - q, tr.Y + q}, k.TopMid},
	}
}

// Centroid is the arithmetic mean of the vertices.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(points))
	return Point{X: c.X / n, Y: c.Y / n}
}

// Anchors returns the centroid of every house polygon.
func Anchors(g Geometry) [12]Point {
	var out [12]Point
	for i, poly := range HousePolygons(g) {
		out[i] = Centroid(poly)
	}
	return out
}

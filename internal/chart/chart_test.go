package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/felixgeelhaar/vedic/internal/api"
)

func deg(v float64) *float64 { return &v }

func sampleChart() *api.ChartResult {
	return &api.ChartResult{
		Place: "Chennai",
		DOB:   "1990-05-17T00:00:00",
		TOB:   "06:30",
		Lagna: &api.Position{House: 1, SignName: "Taurus", Degrees: deg(12.345)},
		D1: map[string]api.Position{
			"Uranus":  {House: 1},
			"Moon":    {House: 1, Degrees: deg(3)},
			"Pluto":   {House: 1},
			"Sun":     {House: 1, Degrees: deg(29.96)},
			"Saturn":  {House: 10, Degrees: deg(1.04)},
			"Jupiter": {House: 13},
		},
	}
}

func TestAnchors_DefaultGeometry(t *testing.T) {
	anchors := Anchors(DefaultGeometry())

	tests := []struct {
		house int
		want  Point
	}{
		{1, Point{300, 180}},
		{2, Point{180, 100}},
		{3, Point{100, 180}},
		{4, Point{180, 300}},
		{7, Point{300, 420}},
		{10, Point{420, 300}},
		{12, Point{420, 100}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("house %d", tt.house), func(t *testing.T) {
			got := anchors[tt.house-1]
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestAnchors_DistinctAndInside(t *testing.T) {
	g := DefaultGeometry()
	k := g.Points()
	seen := map[Point]int{}
	for i, a := range Anchors(g) {
		if prev, ok := seen[a]; ok {
			t.Fatalf("houses %d and %d share anchor %v", prev+1, i+1, a)
		}
		seen[a] = i
		assert.Greater(t, a.X, k.TopLeft.X)
		assert.Less(t, a.X, k.BottomRight.X)
		assert.Greater(t, a.Y, k.TopLeft.Y)
		assert.Less(t, a.Y, k.BottomRight.Y)
	}
}

func TestCentroid_Empty(t *testing.T) {
	assert.Equal(t, Point{}, Centroid(nil))
}

func TestItemsByHouse_Order(t *testing.T) {
	houses := ItemsByHouse(sampleChart())

	var labels []string
	for _, it := range houses[0] {
		labels = append(labels, it.Label)
	}
	assert.Equal(t, []string{"As", "Su", "Mo", "Pluto", "Uranus"}, labels)
	assert.True(t, houses[0][0].Ascendant)

	require.Len(t, houses[9], 1)
	assert.Equal(t, "Sa", houses[9][0].Label)

	total := 0
	for _, h := range houses {
		total += len(h)
	}
	assert.Equal(t, 6, total, "a body outside houses 1-12 is dropped")
}

func TestItemsByHouse_Nil(t *testing.T) {
	assert.Equal(t, Houses{}, ItemsByHouse(nil))
}

func TestSignName(t *testing.T) {
	assert.Equal(t, "Aries", SignName(1))
	assert.Equal(t, "Pisces", SignName(12))
	assert.Empty(t, SignName(0))
	assert.Empty(t, SignName(13))
}

func TestLayout_EmptyHouse(t *testing.T) {
	layout := Layout(DefaultGeometry(), Houses{}, Options{})
	h := layout[1]

	assert.Equal(t, 2, h.House)
	assert.Equal(t, "2", h.Number.Text)
	assert.Equal(t, "Taurus", h.Sign.Text)
	assert.Equal(t, h.Anchor.Y, h.Sign.At.Y)
	assert.Equal(t, h.Anchor.Y-DefaultHeaderGap, h.Number.At.Y)
	assert.Empty(t, h.Items)
}

func TestLayout_StackIsCentred(t *testing.T) {
	layout := Layout(DefaultGeometry(), ItemsByHouse(sampleChart()), Options{})
	h := layout[0]

	require.Len(t, h.Items, 5)
	var ys []float64
	for _, it := range h.Items {
		ys = append(ys, it.At.Y)
		assert.Equal(t, h.Anchor.X, it.At.X)
	}
	assert.Equal(t, []float64{144, 162, 180, 198, 216}, ys)
	assert.Less(t, h.Sign.At.Y, ys[0])
	assert.Less(t, h.Number.At.Y, h.Sign.At.Y)

	assert.Equal(t, "12.3°", h.Items[0].Degree)
	assert.Equal(t, "30.0°", h.Items[1].Degree)
	assert.Empty(t, h.Items[3].Degree, "missing degrees render as empty")
	assert.Equal(t, h.Items[0].At.Y+DefaultDegreeOffset, h.Items[0].DegreeAt.Y)
}

func TestFormatDegrees(t *testing.T) {
	assert.Equal(t, "", FormatDegrees(nil))
	assert.Equal(t, "0.0°", FormatDegrees(deg(0)))
	assert.Equal(t, "1.0°", FormatDegrees(deg(1.04)))
}

func TestCaption(t *testing.T) {
	assert.Equal(t, []string{"Chennai", "1990-05-17", "06:30", "Lagna: Taurus"}, Caption(sampleChart()))
	assert.Equal(t, []string{"Rasi Chart", "North Indian"}, Caption(&api.ChartResult{}))
	assert.Equal(t, []string{"Rasi Chart", "Lagna: Leo"}, Caption(&api.ChartResult{Lagna: &api.Position{House: 5}}))
}

func TestRenderSVG(t *testing.T) {
	c := New(sampleChart())
	c.Caption[0] = "Salt & Pepper <Town>"

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, c, SVGOptions{}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
	assert.Equal(t, 12, strings.Count(out, `class="house"`))
	assert.Equal(t, 6, strings.Count(out, "<line"))
	assert.Contains(t, out, `stroke-width="3"`)
	assert.Contains(t, out, ">As<")
	assert.Contains(t, out, ">12.3°<")
	assert.Contains(t, out, "Salt &amp; Pepper &lt;Town&gt;")
	assert.NotContains(t, out, "<Town>")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderSVG_WriteError(t *testing.T) {
	err := RenderSVG(failingWriter{}, New(sampleChart()), SVGOptions{})
	assert.EqualError(t, err, "disk full")
}

func TestRenderText(t *testing.T) {
	out := RenderText(New(sampleChart()))

	assert.Contains(t, out, "Chennai")
	assert.Contains(t, out, "Aries")
	assert.Contains(t, out, "Pisces")
	assert.Contains(t, out, "Su 30.0°")
	assert.Contains(t, out, "Sa 1.0°")
}

func TestItemY_SymmetricAndDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		step := rapid.Float64Range(1, 60).Draw(t, "step")
		cy := rapid.Float64Range(0, 600).Draw(t, "cy")

		ys := make([]float64, n)
		for i := range ys {
			ys[i] = ItemY(cy, i, n, step)
		}
		for i := range ys {
			mirror := ys[n-1-i]
			if d := (ys[i] - cy) + (mirror - cy); math.Abs(d) > 1e-6 {
				t.Fatalf("offsets %v and %v not symmetric about %v", ys[i], mirror, cy)
			}
			if i > 0 && ys[i]-ys[i-1] < step-1e-6 {
				t.Fatalf("items %d and %d overlap: %v, %v", i-1, i, ys[i-1], ys[i])
			}
		}
	})
}

func TestLayout_EveryHouseCentred(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var houses Houses
		for i := range houses {
			n := rapid.IntRange(0, 8).Draw(t, fmt.Sprintf("n%d", i+1))
			for j := 0; j < n; j++ {
				houses[i] = append(houses[i], Item{Label: fmt.Sprint(j)})
			}
		}

		for _, h := range Layout(DefaultGeometry(), houses, Options{}) {
			if len(h.Items) == 0 {
				continue
			}
			var sum float64
			seen := map[float64]bool{}
			for _, it := range h.Items {
				if seen[it.At.Y] {
					t.Fatalf("house %d: two items at y=%v", h.House, it.At.Y)
				}
				seen[it.At.Y] = true
				sum += it.At.Y - h.Anchor.Y
			}
			if math.Abs(sum) > 1e-6 {
				t.Fatalf("house %d: stack not centred, offset sum %v", h.House, sum)
			}
		}
	})
}

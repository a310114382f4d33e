package chart

import (
	"sort"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// SignNames are the twelve rasis in zodiac order.
var SignNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// SignName returns the sign shown in house h of a rasi chart, or "" when h is
// outside 1..12.
func SignName(h int) string {
	if h < 1 || h > 12 {
		return ""
	}
	return SignNames[h-1]
}

// PlanetOrder is the order bodies are listed in within a house.
var PlanetOrder = []string{"Sun", "Moon", "Mars", "Mercury", "Jupiter", "Venus", "Saturn", "Rahu", "Ketu"}

var abbreviations = map[string]string{
	"Sun":     "Su",
	"Moon":    "Mo",
	"Mars":    "Ma",
	"Mercury": "Me",
	"Jupiter": "Ju",
	"Venus":   "Ve",
	"Saturn":  "Sa",
	"Rahu":    "Ra",
	"Ketu":    "Ke",
}

// AscendantLabel marks the lagna.
const AscendantLabel = "As"

// Abbreviation returns the two-letter label for a planet. Unknown names are
// returned unchanged.
func Abbreviation(planet string) string {
	if a, ok := abbreviations[planet]; ok {
		return a
	}
	return planet
}

// Item is one body drawn in a house.
type Item struct {
	Name      string
	Label     string
	Ascendant bool
	// Degrees is nil when the backend sent none.
	Degrees *float64
}

// Houses maps house index (0 = house 1) to its items.
type Houses [12][]Item

// ItemsByHouse groups the ascendant and planets of c by house. The ascendant
// comes first, then planets in PlanetOrder, then unknown bodies by name.
// Positions outside houses 1..12 are dropped.
func ItemsByHouse(c *api.ChartResult) Houses {
	var out Houses
	if c == nil {
		return out
	}

	if c.Lagna != nil && validHouse(c.Lagna.House) {
		out[c.Lagna.House-1] = append(out[c.Lagna.House-1], Item{
			Name:      "Ascendant",
			Label:     AscendantLabel,
			Ascendant: true,
			Degrees:   c.Lagna.Degrees,
		})
	}

	for _, name := range planetNames(c.D1) {
		pos := c.D1[name]
		if !validHouse(pos.House) {
			continue
		}
		out[pos.House-1] = append(out[pos.House-1], Item{
			Name:    name,
			Label:   Abbreviation(name),
			Degrees: pos.Degrees,
		})
	}
	return out
}

func planetNames(d1 map[string]api.Position) []string {
	names := make([]string, 0, len(d1))
	for _, p := range PlanetOrder {
		if _, ok := d1[p]; ok {
			names = append(names, p)
		}
	}
	var unknown []string
	for name := range d1 {
		if _, ok := abbreviations[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return append(names, unknown...)
}

func validHouse(h int) bool { return h >= 1 && h <= 12 }

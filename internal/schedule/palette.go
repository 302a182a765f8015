package schedule

import (
	"fmt"
	"math/rand"
)

// Palette is the ordered pair of cue colors used for a whole run.
// Colors[0] is identity 1 and Colors[1] is identity 2.
type Palette struct {
	Colors [2]string `json:"colors" yaml:"colors"`
	Labels [2]string `json:"labels" yaml:"labels"`
}

// Palettes are the fixed color pairs a run chooses from.
var Palettes = []Palette{
	{Colors: [2]string{"#df9998", "#03bfb6"}, Labels: [2]string{"peach", "mint"}},
	{Colors: [2]string{"#c3a86a", "#4cb6e4"}, Labels: [2]string{"curry", "skyblue"}},
	{Colors: [2]string{"#7eba79", "#b7a2d4"}, Labels: [2]string{"frog", "lavender"}},
}

func choosePalette(rng *rand.Rand) Palette {
	return Palettes[rng.Intn(len(Palettes))]
}

// Identity maps a color to its cue identity, or 0 if the color is not in
// the palette.
func (p Palette) Identity(color string) int {
	switch color {
	case p.Colors[0]:
		return 1
	case p.Colors[1]:
		return 2
	default:
		return 0
	}
}

// Color returns the color for identity 1 or 2.
func (p Palette) Color(identity int) (string, error) {
	if identity != 1 && identity != 2 {
		return "", fmt.Errorf("identity must be 1 or 2, got %d", identity)
	}
	return p.Colors[identity-1], nil
}

// Label returns the human-readable name of a palette color.
func (p Palette) Label(color string) string {
	if id := p.Identity(color); id != 0 {
		return p.Labels[id-1]
	}
	return ""
}

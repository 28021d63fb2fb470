package models

import "strings"

const (
	// ClothingNoChange keeps the outfit from the source photo.
	ClothingNoChange = "no change"
	SizeCustomLabel  = "custom"
	// DefaultBackgroundTag is used when a background name is not in the palette.
	DefaultBackgroundTag = "solid studio blue"
)

type BackgroundColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
	Tag  string `json:"tag"`
}

var Palette = []BackgroundColor{
	{Name: "blue", Hex: "#1E40AF", Tag: "solid studio blue"},
	{Name: "white", Hex: "#FFFFFF", Tag: "pure white"},
	{Name: "light gray", Hex: "#E5E7EB", Tag: "light neutral gray"},
	{Name: "sky blue", Hex: "#7DD3FC", Tag: "soft sky blue"},
	{Name: "red", Hex: "#DC2626", Tag: "deep studio red"},
	{Name: "maroon", Hex: "#7F1D1D", Tag: "dark maroon"},
	{Name: "green", Hex: "#15803D", Tag: "forest green"},
	{Name: "black", Hex: "#000000", Tag: "matte black"},
}

var Wardrobe = map[Gender][]string{
	GenderMale: {
		ClothingNoChange,
		"black formal suit",
		"navy blue blazer with white shirt",
		"white formal shirt",
		"grey suit with tie",
		"traditional panjabi",
	},
	GenderFemale: {
		ClothingNoChange,
		"black formal blazer",
		"elegant saree",
		"salwar kameez",
		"white formal shirt",
		"navy blue business suit",
	},
}

var SizePresets = []string{
	"passport (40x50 mm)",
	"visa (35x45 mm)",
	"stamp (20x25 mm)",
	"2R (2.5x3.5 in)",
	"3R (3.5x5 in)",
}

// BackgroundTag maps a palette name to the colour description sent to the model.
// Lookup ignores case and surrounding whitespace.
func BackgroundTag(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Palette {
		if c.Name == name {
			return c.Tag
		}
	}
	return DefaultBackgroundTag
}

func IsPresetSize(label string) bool {
	for _, p := range SizePresets {
		if p == label {
			return true
		}
	}
	return false
}

package appctx

import "sort"

const DefaultTheme = "blue"

// Palette 主题色板
type Palette struct {
	Primary       string
	PrimaryLight  string
	Secondary     string
	Background    string
	Surface       string
	Text          string
	TextSecondary string
	Border        string
	Success       string
	Error         string
	Warning       string
}

type Theme struct {
	Name   string
	Colors Palette
}

func palette(primary, primaryLight, secondary, surface, border string) Palette {
	return Palette{
		Primary:       primary,
		PrimaryLight:  primaryLight,
		Secondary:     secondary,
		Background:    "#ffffff",
		Surface:       surface,
		Text:          "#1f2937",
		TextSecondary: "#6b7280",
		Border:        border,
		Success:       "#10b981",
		Error:         "#ef4444",
		Warning:       "#f59e0b",
	}
}

var themes = map[string]Theme{
	"blue":   {Name: "blue", Colors: palette("#2563eb", "#3b82f6", "#1d4ed8", "#f8fafc", "#e5e7eb")},
	"green":  {Name: "green", Colors: palette("#059669", "#10b981", "#047857", "#f0fdf4", "#d1fae5")},
	"orange": {Name: "orange", Colors: palette("#ea580c", "#f97316", "#c2410c", "#fff7ed", "#fed7aa")},
}

// ThemeNames 可选主题名，按字母序
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

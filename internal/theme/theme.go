// Package theme holds the colour palettes and lipgloss styles of the
// terminal front-end.
package theme

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Theme is a named colour palette
type Theme struct {
	Name string `yaml:"name"`

	Background lipgloss.Color `yaml:"background"`
	Foreground lipgloss.Color `yaml:"foreground"`
	Subtle     lipgloss.Color `yaml:"subtle"`
	Highlight  lipgloss.Color `yaml:"highlight"`

	Pass    lipgloss.Color `yaml:"pass"`
	Warning lipgloss.Color `yaml:"warning"`
	Fail    lipgloss.Color `yaml:"fail"`
	Info    lipgloss.Color `yaml:"info"`

	Primary lipgloss.Color `yaml:"primary"`
	Accent  lipgloss.Color `yaml:"accent"`

	Border    lipgloss.Color `yaml:"border"`
	Selection lipgloss.Color `yaml:"selection"`
	Bar       lipgloss.Color `yaml:"bar"`
}

var palettes = map[string]Theme{
	"catppuccin": {
		Name:       "Catppuccin Mocha",
		Background: "#1e1e2e", Foreground: "#cdd6f4", Subtle: "#6c7086", Highlight: "#f5e0dc",
		Pass: "#a6e3a1", Warning: "#f9e2af", Fail: "#f38ba8", Info: "#89b4fa",
		Primary: "#cba6f7", Accent: "#94e2d5",
		Border: "#313244", Selection: "#45475a", Bar: "#181825",
	},
	"dracula": {
		Name:       "Dracula",
		Background: "#282a36", Foreground: "#f8f8f2", Subtle: "#6272a4", Highlight: "#f1fa8c",
		Pass: "#50fa7b", Warning: "#ffb86c", Fail: "#ff5555", Info: "#8be9fd",
		Primary: "#bd93f9", Accent: "#8be9fd",
		Border: "#44475a", Selection: "#44475a", Bar: "#21222c",
	},
	"nord": {
		Name:       "Nord",
		Background: "#2e3440", Foreground: "#eceff4", Subtle: "#4c566a", Highlight: "#ebcb8b",
		Pass: "#a3be8c", Warning: "#ebcb8b", Fail: "#bf616a", Info: "#81a1c1",
		Primary: "#88c0d0", Accent: "#8fbcbb",
		Border: "#3b4252", Selection: "#434c5e", Bar: "#242933",
	},
}

// Current is the active theme
var Current = palettes["catppuccin"]

// Names returns the built-in theme names, sorted
func Names() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply selects the active theme. name is a built-in theme or a path to a
// YAML palette; an unknown name falls back to catppuccin.
func Apply(name string) error {
	if t, ok := palettes[strings.ToLower(name)]; ok {
		Current = t
		return nil
	}
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return LoadFile(name)
	}
	Current = palettes["catppuccin"]
	return nil
}

// LoadFile makes the YAML palette at path the active theme. Colours the
// file leaves out keep their catppuccin values.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	t := palettes["catppuccin"]
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("invalid theme %s: %w", path, err)
	}
	Current = t
	return nil
}

// Styles contains the lipgloss styles built from a theme
type Styles struct {
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Content   lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Rows and inputs
	Cursor   lipgloss.Style
	Row      lipgloss.Style
	Tag      lipgloss.Style
	Shortcut lipgloss.Style

	// Screen breadcrumb
	Crumb       lipgloss.Style
	CrumbActive lipgloss.Style

	// Actions
	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style

	Box    lipgloss.Style
	Notice lipgloss.Style

	// Review badges
	BadgePass lipgloss.Style
	BadgeFail lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() Styles {
	t := Current
	badge := lipgloss.NewStyle().Foreground(t.Background).Padding(0, 1).Bold(true)

	return Styles{
		Header: lipgloss.NewStyle().
			Background(t.Bar).
			Foreground(t.Foreground).
			Padding(0, 2).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Background(t.Bar).
			Foreground(t.Subtle).
			Padding(0, 2),
		Content: lipgloss.NewStyle().Padding(1, 2),

		Title:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(t.Accent),
		Muted:    lipgloss.NewStyle().Foreground(t.Subtle),
		Bold:     lipgloss.NewStyle().Bold(true),

		Success: lipgloss.NewStyle().Foreground(t.Pass),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Foreground(t.Fail),
		Info:    lipgloss.NewStyle().Foreground(t.Info),

		Cursor: lipgloss.NewStyle().
			Background(t.Selection).
			Foreground(t.Highlight).
			Bold(true),
		Row:      lipgloss.NewStyle().Foreground(t.Foreground),
		Tag:      lipgloss.NewStyle().Foreground(t.Fail).Bold(true),
		Shortcut: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),

		Crumb: lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1),
		CrumbActive: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 1).
			Bold(true),

		Button: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),
		ButtonDisabled: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Background(t.Border).
			Padding(0, 2),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Notice: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Fail).
			Foreground(t.Fail).
			Padding(0, 1),

		BadgePass: badge.Background(t.Pass),
		BadgeFail: badge.Background(t.Fail),
	}
}

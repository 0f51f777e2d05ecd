package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template holds the page geometry. All values are PDF units with a
// top-left origin.
type Template struct {
	MarginX   float64 `yaml:"margin_x"`
	MarginY   float64 `yaml:"margin_y"`
	BoxWidth  float64 `yaml:"box_width"`
	BoxHeight float64 `yaml:"box_height"`
	GapX      float64 `yaml:"gap_x"`
	GapY      float64 `yaml:"gap_y"`
}

// DefaultTemplate is the stock geometry: five 270x150 rows with a 15 unit
// center gutter, fitting A4 with room to spare.
func DefaultTemplate() Template {
	return Template{
		MarginX:   20,
		MarginY:   20,
		BoxWidth:  270,
		BoxHeight: 150,
		GapX:      15,
		GapY:      10,
	}
}

// Load reads a YAML geometry file over the defaults, so a file may
// override only the fields it names.
func Load(path string) (Template, error) {
	t := DefaultTemplate()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read layout template: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse layout template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("layout template %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects geometry that cannot hold five two-box rows on the page.
func (t Template) Validate() error {
	if t.BoxWidth <= 0 || t.BoxHeight <= 0 {
		return fmt.Errorf("box dimensions must be positive, got %gx%g", t.BoxWidth, t.BoxHeight)
	}
	if t.MarginX < 0 || t.MarginY < 0 || t.GapX < 0 || t.GapY < 0 {
		return fmt.Errorf("margins and gaps must not be negative")
	}

	width := 2*t.MarginX + 2*t.BoxWidth + t.GapX
	if width > PageWidth {
		return fmt.Errorf("row width %.1f exceeds page width %.1f", width, PageWidth)
	}

	height := t.MarginY + float64(maxRows)*t.BoxHeight + float64(maxRows-1)*t.GapY
	if height > PageHeight {
		return fmt.Errorf("column height %.1f exceeds page height %.1f", height, PageHeight)
	}
	return nil
}

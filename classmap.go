package cvatconv

import "fmt"

// Class resolves a source class identifier to an output label.
type Class struct {
	ID    int      `yaml:"id" json:"id" validate:"min=0"`
	Name  string   `yaml:"name" json:"name" validate:"required"`
	Color [3]uint8 `yaml:"color" json:"color"` // RGB. Also the mask color of the class.
	Type  string   `yaml:"type" json:"type" validate:"required"`
}

// HexColor formats c.Color as "#rrggbb".
func (c Class) HexColor() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Color[0], c.Color[1], c.Color[2])
}

// ClassMap is the ordered list of known classes. The order determines the label order of the
// task descriptor and the order in which mask colors are traced.
type ClassMap []Class

// ByID looks up the class with the given numeric source identifier.
func (m ClassMap) ByID(id int) (Class, bool) {
	for _, c := range m {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

// Check reports duplicate ids, names and colors.
func (m ClassMap) Check() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: the class map is empty", ErrInvalidConfig)
	}

	ids := make(map[int]bool, len(m))
	names := make(map[string]bool, len(m))
	colors := make(map[[3]uint8]string, len(m))
	for _, c := range m {
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate class id %d", ErrInvalidConfig, c.ID)
		}
		if names[c.Name] {
			return fmt.Errorf("%w: duplicate class name %q", ErrInvalidConfig, c.Name)
		}
		if other, ok := colors[c.Color]; ok {
			return fmt.Errorf("%w: classes %q and %q share the color %s", ErrInvalidConfig,
				other, c.Name, c.HexColor())
		}
		ids[c.ID] = true
		names[c.Name] = true
		colors[c.Color] = c.Name
	}

	return nil
}

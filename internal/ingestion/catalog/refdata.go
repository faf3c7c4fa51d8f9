package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed refdata/*.yaml
var embeddedRefData embed.FS

const (
	unitsFile = "units.yaml"
	foodsFile = "foods.yaml"
)

// ReferenceData holds the lookup tables the synthesizer estimates from.
type ReferenceData struct {
	Units *UnitTable
	Foods *FoodTable
}

// LoadReferenceData reads the embedded tables. A non-empty dir overrides any
// table file present there.
func LoadReferenceData(dir string) (*ReferenceData, error) {
	unitsRaw, err := readRefFile(dir, unitsFile)
	if err != nil {
		return nil, err
	}
	foodsRaw, err := readRefFile(dir, foodsFile)
	if err != nil {
		return nil, err
	}
	units, err := ParseUnitTable(unitsRaw)
	if err != nil {
		return nil, err
	}
	foods, err := ParseFoodTable(foodsRaw)
	if err != nil {
		return nil, err
	}
	return &ReferenceData{Units: units, Foods: foods}, nil
}

// MustDefaultReferenceData returns the embedded tables and panics if they are invalid.
func MustDefaultReferenceData() *ReferenceData {
	rd, err := LoadReferenceData("")
	if err != nil {
		panic(err)
	}
	return rd
}

func readRefFile(dir, name string) ([]byte, error) {
	if dir != "" {
		p := filepath.Join(dir, name)
		b, err := os.ReadFile(p)
		if err == nil {
			return b, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}
	b, err := embeddedRefData.ReadFile("refdata/" + name)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s: %w", name, err)
	}
	return b, nil
}

func decodeYAML(raw []byte, out any, what string) error {
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", what, err)
	}
	return nil
}

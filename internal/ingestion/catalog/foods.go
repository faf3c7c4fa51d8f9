package catalog

import (
	"fmt"
	"strings"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
)

// Per100 is nutrition per 100 grams (or ml).
type Per100 struct {
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	Carbs    float64 `yaml:"carbs"`
	Fat      float64 `yaml:"fat"`
	Fiber    float64 `yaml:"fiber"`
}

// GenericPer100 is used when neither an estimate nor a table entry is available.
var GenericPer100 = Per100{Calories: 100, Protein: 5, Carbs: 10, Fat: 3, Fiber: 1}

type FoodTable struct {
	byName map[string]Per100
}

func ParseFoodTable(raw []byte) (*FoodTable, error) {
	var doc struct {
		Foods []struct {
			Name    string   `yaml:"name"`
			Aliases []string `yaml:"aliases"`
			Per100  Per100   `yaml:"per100"`
		} `yaml:"foods"`
	}
	if err := decodeYAML(raw, &doc, "foods table"); err != nil {
		return nil, err
	}
	t := &FoodTable{byName: make(map[string]Per100)}
	for i, f := range doc.Foods {
		name := health.NormalizeName(f.Name)
		if name == "" {
			return nil, fmt.Errorf("foods table: entry %d has no name", i)
		}
		t.byName[name] = f.Per100
		for _, a := range f.Aliases {
			if a = health.NormalizeName(a); a != "" {
				if _, dup := t.byName[a]; !dup {
					t.byName[a] = f.Per100
				}
			}
		}
	}
	return t, nil
}

// Lookup matches the normalized name, then its singular form.
func (t *FoodTable) Lookup(name string) (Per100, bool) {
	n := health.NormalizeName(name)
	if v, ok := t.byName[n]; ok {
		return v, true
	}
	for _, suffix := range []string{"es", "s"} {
		if s, ok := strings.CutSuffix(n, suffix); ok && s != "" {
			if v, ok := t.byName[s]; ok {
				return v, true
			}
		}
	}
	return Per100{}, false
}

func (t *FoodTable) Len() int { return len(t.byName) }

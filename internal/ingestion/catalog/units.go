package catalog

import (
	"fmt"
	"strings"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
)

type keywordRule struct {
	Keywords []string `yaml:"keywords"`
	Grams    float64  `yaml:"grams"`
}

type unitSpec struct {
	Unit         string        `yaml:"unit"`
	Aliases      []string      `yaml:"aliases"`
	DefaultGrams float64       `yaml:"default_grams"`
	Base         bool          `yaml:"base"`
	Rules        []keywordRule `yaml:"rules"`
}

// UnitTable maps unit spellings to canonical units and estimates grams per
// unit from ordered keyword rules.
type UnitTable struct {
	GlobalDefault float64
	specs         map[string]*unitSpec
	aliases       map[string]string
}

func ParseUnitTable(raw []byte) (*UnitTable, error) {
	var doc struct {
		GlobalDefault float64    `yaml:"global_default_grams"`
		Units         []unitSpec `yaml:"units"`
	}
	if err := decodeYAML(raw, &doc, "units table"); err != nil {
		return nil, err
	}
	t := &UnitTable{
		GlobalDefault: doc.GlobalDefault,
		specs:         make(map[string]*unitSpec, len(doc.Units)),
		aliases:       make(map[string]string),
	}
	if t.GlobalDefault <= 0 {
		t.GlobalDefault = 100
	}
	for i := range doc.Units {
		u := &doc.Units[i]
		u.Unit = strings.ToLower(strings.TrimSpace(u.Unit))
		if u.Unit == "" || u.DefaultGrams <= 0 {
			return nil, fmt.Errorf("units table: entry %d needs unit and positive default_grams", i)
		}
		for j := range u.Rules {
			if u.Rules[j].Grams <= 0 {
				return nil, fmt.Errorf("units table: %s rule %d needs positive grams", u.Unit, j)
			}
			for k, kw := range u.Rules[j].Keywords {
				u.Rules[j].Keywords[k] = health.NormalizeName(kw)
			}
		}
		t.specs[u.Unit] = u
		t.aliases[u.Unit] = u.Unit
		for _, a := range u.Aliases {
			t.aliases[strings.ToLower(strings.TrimSpace(a))] = u.Unit
		}
	}
	return t, nil
}

// Canonical returns the canonical unit for s and whether it is known.
// Unknown units come back lower-cased and trimmed.
func (t *UnitTable) Canonical(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if u, ok := t.aliases[s]; ok {
		return u, true
	}
	return s, false
}

// IsBase reports whether the canonical unit is itself a base unit (gram, ml).
func (t *UnitTable) IsBase(unit string) bool {
	spec, ok := t.specs[unit]
	return ok && spec.Base
}

// GramsPerUnit estimates the weight of one unit of the named food. known is
// false when the unit is not in the table and GlobalDefault was used.
func (t *UnitTable) GramsPerUnit(unit, foodName string) (grams float64, known bool) {
	canon, ok := t.Canonical(unit)
	if !ok {
		return t.GlobalDefault, false
	}
	spec := t.specs[canon]
	name := health.NormalizeName(foodName)
	for _, r := range spec.Rules {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(name, kw) {
				return r.Grams, true
			}
		}
	}
	return spec.DefaultGrams, true
}

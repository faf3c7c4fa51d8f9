package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
)

const DefaultUnit = "serving"

// NutritionEstimate is an upstream estimate per 100 base units (grams or ml).
type NutritionEstimate struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Candidate is one food record proposed by the upstream reply.
type Candidate struct {
	Name      string             `json:"name"`
	Quantity  float64            `json:"quantity"`
	Unit      string             `json:"unit"`
	Category  string             `json:"category"`
	LoggedAt  time.Time          `json:"logged_at"`
	Note      string             `json:"note"`
	Nutrition *NutritionEstimate `json:"nutrition,omitempty"`
}

// DroppedItem records a reply item that lacked a required field.
type DroppedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type Result struct {
	Candidates []Candidate
	Dropped    []DroppedItem
}

type Options struct {
	// Now substitutes for missing or unparsable timestamps.
	Now time.Time
	// Location interprets timestamps without a zone and buckets meal types.
	Location *time.Location
	// OriginalText is the fallback note.
	OriginalText string
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalize parses an upstream reply. Only a reply that is not a JSON object
// with an items array fails; individual malformed fields get defaults and
// items missing name, quantity or unit are dropped and reported.
func Normalize(raw string, opts Options) (*Result, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	body, ok := extractObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ingestion.ErrUpstreamFormat)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ingestion.ErrUpstreamFormat, err)
	}
	rawItems, ok := doc["items"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing items array", ingestion.ErrUpstreamFormat)
	}

	res := &Result{Candidates: make([]Candidate, 0, len(rawItems))}
	for i, ri := range rawItems {
		obj, ok := ri.(map[string]any)
		if !ok {
			res.Dropped = append(res.Dropped, DroppedItem{Index: i, Reason: "not_object"})
			continue
		}
		c, reason := normalizeItem(obj, opts)
		if reason != "" {
			res.Dropped = append(res.Dropped, DroppedItem{Index: i, Reason: reason})
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res, nil
}

func normalizeItem(obj map[string]any, opts Options) (Candidate, string) {
	name, _ := obj["name"].(string)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return Candidate{}, "missing_name"
	}
	rawQty, ok := obj["quantity"]
	if !ok || rawQty == nil {
		return Candidate{}, "missing_quantity"
	}
	rawUnit, ok := obj["unit"]
	if !ok || rawUnit == nil {
		return Candidate{}, "missing_unit"
	}

	c := Candidate{Name: name, Quantity: 1, Unit: DefaultUnit}
	if q, ok := floatFromAny(rawQty); ok && q > 0 {
		c.Quantity = q
	}
	if u, ok := rawUnit.(string); ok && strings.TrimSpace(u) != "" {
		c.Unit = strings.ToLower(strings.TrimSpace(u))
	}

	c.LoggedAt = parseTimestamp(obj["timestamp"], opts)
	c.Category = strings.ToLower(strings.TrimSpace(stringFromAny(obj["category"])))
	if !health.ValidMealType(c.Category) {
		c.Category = health.MealTypeForHour(c.LoggedAt.In(opts.Location).Hour())
	}

	c.Note = strings.TrimSpace(stringFromAny(obj["note"]))
	if c.Note == "" {
		c.Note = strings.TrimSpace(opts.OriginalText)
	}
	if c.Note == "" {
		c.Note = name
	}

	c.Nutrition = parseNutrition(obj["nutrition"])
	return c, ""
}

// parseNutrition returns nil unless the block is an object with numeric
// calories. Other fields default to zero when absent and void the block when
// present but non-numeric.
func parseNutrition(v any) *NutritionEstimate {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	cal, ok := floatFromAny(obj["calories"])
	if !ok {
		return nil
	}
	est := &NutritionEstimate{Calories: cal}
	fields := []struct {
		key string
		dst *float64
	}{
		{"protein", &est.Protein},
		{"carbs", &est.Carbs},
		{"fat", &est.Fat},
		{"fiber", &est.Fiber},
	}
	for _, f := range fields {
		raw, present := obj[f.key]
		if !present || raw == nil {
			continue
		}
		val, ok := floatFromAny(raw)
		if !ok {
			return nil
		}
		*f.dst = val
	}
	return est
}

func parseTimestamp(v any, opts Options) time.Time {
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return opts.Now.UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, opts.Location); err == nil {
			return t.UTC()
		}
	}
	return opts.Now.UTC()
}

// extractObject strips markdown fences and any prose around the outermost
// JSON object.
func extractObject(raw string) (string, bool) {
	s := stripMarkdownCodeFences(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func stripMarkdownCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
	}
	return strings.TrimSpace(strings.Join(lines[1:], "\n"))
}

func floatFromAny(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = t
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringFromAny(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

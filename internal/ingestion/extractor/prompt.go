package extractor

import (
	"fmt"
	"strings"
	"time"
)

// SystemPrompt instructs the model to reply with the items document only.
const SystemPrompt = `You convert a person's description of what they ate into structured food log items.
Reply with a single JSON object and nothing else, shaped as:
{"items":[{"name":string,"quantity":number,"unit":string,"category":"breakfast"|"lunch"|"snack"|"dinner","timestamp":"YYYY-MM-DDTHH:MM:SS","note":string,"nutrition":{"calories":number,"protein":number,"carbs":number,"fat":number,"fiber":number}}]}
Rules:
- One item per distinct food. Use the singular common name ("boiled egg", not "2 boiled eggs").
- quantity is how many units were eaten; unit is one of piece, cup, glass, tablespoon, teaspoon, gram, kilogram, ounce, pound, serving, ml, liter.
- timestamp is local time. Resolve relative phrases ("this morning", "an hour ago") against the current time given below. If no time is mentioned use the current time.
- nutrition is your estimate per 100 grams (or 100 ml for drinks). Omit it if unsure.
- note is a short phrase from the original text about this item.`

// BuildUserPrompt embeds the current local time and the caller's text.
func BuildUserPrompt(now time.Time, loc *time.Location, text string) string {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	var b strings.Builder
	fmt.Fprintf(&b, "Current time: %s (%s, %s)\n", local.Format("2006-01-02T15:04:05"), local.Weekday(), loc.String())
	b.WriteString("Text:\n")
	b.WriteString(strings.TrimSpace(text))
	return b.String()
}

package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/healthlog-backend/internal/ingestion"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNormalizeWellFormedReply(t *testing.T) {
	raw := "Sure! Here is the log:\n```json\n" + `{"items":[
		{"name":"Boiled egg","quantity":2,"unit":"piece","category":"breakfast","timestamp":"2025-03-14T08:00:00","note":"two boiled eggs","nutrition":{"calories":155,"protein":13,"carbs":1.1,"fat":11,"fiber":0}},
		{"name":"coffee","quantity":"1","unit":"Cup","category":"breakfast","timestamp":"2025-03-14T08:10:00Z"}
	]}` + "\n```"

	res, err := Normalize(raw, Options{Now: testNow, OriginalText: "I had 2 boiled eggs and a coffee"})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Empty(t, res.Dropped)

	egg := res.Candidates[0]
	assert.Equal(t, "Boiled egg", egg.Name)
	assert.Equal(t, 2.0, egg.Quantity)
	assert.Equal(t, "piece", egg.Unit)
	assert.Equal(t, "breakfast", egg.Category)
	assert.Equal(t, time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC), egg.LoggedAt)
	assert.Equal(t, "two boiled eggs", egg.Note)
	require.NotNil(t, egg.Nutrition)
	assert.Equal(t, 155.0, egg.Nutrition.Calories)

	coffee := res.Candidates[1]
	assert.Equal(t, 1.0, coffee.Quantity)
	assert.Equal(t, "cup", coffee.Unit)
	assert.Equal(t, "I had 2 boiled eggs and a coffee", coffee.Note)
	assert.Nil(t, coffee.Nutrition)
}

func TestNormalizeStructuralFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose", "I could not understand that."},
		{"broken json", `{"items":[{"name":"egg",}`},
		{"no items", `{"foods":[]}`},
		{"items not array", `{"items":{"name":"egg"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, Options{Now: testNow})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ingestion.ErrUpstreamFormat), "err=%v", err)
		})
	}
}

func TestNormalizeDefaultsMalformedFields(t *testing.T) {
	raw := `{"items":[{"name":"rice","quantity":"lots","unit":5,"category":"brunch","timestamp":"yesterday-ish","nutrition":"high"}]}`
	res, err := Normalize(raw, Options{Now: testNow, OriginalText: "some rice"})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)

	c := res.Candidates[0]
	assert.Equal(t, 1.0, c.Quantity)
	assert.Equal(t, DefaultUnit, c.Unit)
	assert.Equal(t, testNow, c.LoggedAt)
	assert.Equal(t, "breakfast", c.Category, "09:30 infers breakfast")
	assert.Equal(t, "some rice", c.Note)
	assert.Nil(t, c.Nutrition)
}

func TestNormalizeNonPositiveQuantity(t *testing.T) {
	for _, q := range []string{"0", "-2", `"NaN"`} {
		raw := `{"items":[{"name":"apple","quantity":` + q + `,"unit":"piece"}]}`
		res, err := Normalize(raw, Options{Now: testNow})
		require.NoError(t, err)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, 1.0, res.Candidates[0].Quantity, "quantity %s", q)
	}
}

func TestNormalizeDropsStructurallyAbsentItems(t *testing.T) {
	raw := `{"items":[
		{"quantity":1,"unit":"piece"},
		{"name":"  ","quantity":1,"unit":"piece"},
		{"name":"toast","unit":"slice"},
		{"name":"toast","quantity":1,"unit":null},
		"banana",
		{"name":"toast","quantity":2,"unit":"slice"}
	]}`
	res, err := Normalize(raw, Options{Now: testNow})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "toast", res.Candidates[0].Name)

	reasons := make([]string, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		reasons = append(reasons, d.Reason)
	}
	assert.Equal(t, []string{"missing_name", "missing_name", "missing_quantity", "missing_unit", "not_object"}, reasons)
}

func TestNormalizeNaiveTimestampUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	raw := `{"items":[{"name":"dosa","quantity":1,"unit":"piece","timestamp":"2025-03-14 13:00"}]}`
	res, err := Normalize(raw, Options{Now: testNow, Location: loc})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]
	assert.Equal(t, time.Date(2025, 3, 14, 7, 30, 0, 0, time.UTC), c.LoggedAt)
	assert.Equal(t, "lunch", c.Category, "13:00 local infers lunch")
}

func TestNormalizeNutritionPartialBlock(t *testing.T) {
	raw := `{"items":[
		{"name":"a","quantity":1,"unit":"cup","nutrition":{"calories":"90","protein":3}},
		{"name":"b","quantity":1,"unit":"cup","nutrition":{"calories":90,"fat":"x"}},
		{"name":"c","quantity":1,"unit":"cup","nutrition":{"protein":3}}
	]}`
	res, err := Normalize(raw, Options{Now: testNow})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 3)
	require.NotNil(t, res.Candidates[0].Nutrition)
	assert.Equal(t, NutritionEstimate{Calories: 90, Protein: 3}, *res.Candidates[0].Nutrition)
	assert.Nil(t, res.Candidates[1].Nutrition)
	assert.Nil(t, res.Candidates[2].Nutrition)
}

func TestNormalizeEmptyItems(t *testing.T) {
	res, err := Normalize(`{"items":[]}`, Options{Now: testNow})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
}

func TestUnavailable(t *testing.T) {
	var c Completer = Unavailable{}
	assert.False(t, Available(c))
	assert.False(t, Available(nil))
	_, err := c.Complete(context.Background(), "s", "u")
	assert.True(t, errors.Is(err, ingestion.ErrUpstreamUnavailable))
}

func TestBuildUserPrompt(t *testing.T) {
	p := BuildUserPrompt(testNow, time.UTC, "  two eggs  ")
	assert.True(t, strings.HasPrefix(p, "Current time: 2025-03-14T09:30:00 (Friday, UTC)"), p)
	assert.True(t, strings.HasSuffix(p, "two eggs"))
}

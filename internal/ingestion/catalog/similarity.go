package catalog

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
)

// Scorer returns a similarity in [0,1] between two catalog names.
type Scorer func(a, b string) float64

// Similarity is one minus the edit distance normalized by the longer name,
// computed over normalized names.
func Similarity(a, b string) float64 {
	a, b = health.NormalizeName(a), health.NormalizeName(b)
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

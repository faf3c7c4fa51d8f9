// Package extractor turns free text into candidate food records by way of a
// text-completion capability and a tolerant reply normalizer.
package extractor

import (
	"context"
	"fmt"

	"github.com/yungbote/healthlog-backend/internal/ingestion"
)

// Completer is the opaque text-completion capability. Implementations return
// the raw reply text; interpreting it is Normalize's job.
type Completer interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

// Unavailable stands in for a capability that is not configured. It never
// makes a network call.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Complete(context.Context, string, string) (string, error) {
	reason := u.Reason
	if reason == "" {
		reason = "no completion backend configured"
	}
	return "", fmt.Errorf("%w: %s", ingestion.ErrUpstreamUnavailable, reason)
}

// Available reports whether c can actually serve requests.
func Available(c Completer) bool {
	if c == nil {
		return false
	}
	switch c.(type) {
	case Unavailable, *Unavailable:
		return false
	}
	return true
}

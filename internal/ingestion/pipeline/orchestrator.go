// Package pipeline runs natural-language food ingestion end to end: extract
// candidates, bind each to a catalog entry and write the log.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

const (
	MessageLogged      = "food items logged"
	MessageTotalFailed = "no items could be logged"

	DefaultUpstreamTimeout = 30 * time.Second
)

type Resolver interface {
	Resolve(ctx context.Context, name string, ownerID uuid.UUID) (*health.FoodItem, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, c extractor.Candidate) (*health.FoodItem, error)
}

type Writer interface {
	Write(ctx context.Context, c extractor.Candidate, item *health.FoodItem, ownerID uuid.UUID) (*health.FoodLog, error)
}

type ItemResult struct {
	Name     string    `json:"name"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit"`
	MealType string    `json:"meal_type"`
	Calories *float64  `json:"calories"`
	Protein  *float64  `json:"protein"`
	Carbs    *float64  `json:"carbs"`
	Fat      *float64  `json:"fat"`
	Fiber    *float64  `json:"fiber"`
	LoggedAt time.Time `json:"logged_at"`
}

type BatchResult struct {
	Message string       `json:"message"`
	Items   []ItemResult `json:"items,omitempty"`
	// Failed is set when no candidate could be logged.
	Failed bool `json:"-"`
}

type Config struct {
	UpstreamTimeout time.Duration
	// UpstreamRPS throttles outbound completion calls process-wide. Zero disables it.
	UpstreamRPS float64
	Location    *time.Location
}

type Orchestrator struct {
	log       *logger.Logger
	completer extractor.Completer
	resolver  Resolver
	synth     Synthesizer
	writer    Writer
	throttle  *rate.Limiter
	cfg       Config
	now       func() time.Time
}

func NewOrchestrator(log *logger.Logger, completer extractor.Completer, resolver Resolver, synth Synthesizer, writer Writer, cfg Config) *Orchestrator {
	if completer == nil {
		completer = extractor.Unavailable{}
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	throttle := rate.NewLimiter(rate.Inf, 0)
	if cfg.UpstreamRPS > 0 {
		throttle = rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), max(1, int(cfg.UpstreamRPS)))
	}
	return &Orchestrator{
		log:       log.With("service", "IngestOrchestrator"),
		completer: completer,
		resolver:  resolver,
		synth:     synth,
		writer:    writer,
		throttle:  throttle,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock returns a copy that reads the current time from now.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	cp := *o
	cp.now = now
	return &cp
}

// Ingest turns text into food logs for ownerID. Access, upstream and
// format failures abort the batch; per-item failures are logged and skipped.
func (o *Orchestrator) Ingest(ctx context.Context, ownerID uuid.UUID, text string) (*BatchResult, error) {
	ctx, span := observability.StartSpan(ctx, "ingest.run")
	defer span.End()

	res, err := o.ingest(ctx, ownerID, text)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = ingestion.Reason(err)
		span.RecordError(err)
	case res.Failed:
		outcome = "failed"
	}
	span.SetAttributes(attribute.String("ingest.outcome", outcome))
	observability.Current().IncIngestRun(outcome)
	return res, err
}

func (o *Orchestrator) ingest(ctx context.Context, ownerID uuid.UUID, text string) (*BatchResult, error) {
	if err := authorize(ctx, ownerID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ingestion.ErrInvalidInput)
	}

	now := o.now()
	raw, err := o.complete(ctx, now, text)
	if err != nil {
		return nil, err
	}

	parsed, err := extractor.Normalize(raw, extractor.Options{Now: now, Location: o.cfg.Location, OriginalText: text})
	if err != nil {
		o.log.Warn("upstream reply rejected", "owner_id", ownerID, "error", err)
		return nil, err
	}
	for _, d := range parsed.Dropped {
		o.log.Info("candidate dropped", "owner_id", ownerID, "index", d.Index, "reason", d.Reason)
		observability.Current().IncIngestItem("dropped_" + d.Reason)
	}

	out := &BatchResult{Items: make([]ItemResult, 0, len(parsed.Candidates))}
	for i, c := range parsed.Candidates {
		entry, err := o.process(ctx, c, ownerID)
		if err != nil {
			reason := ingestion.Reason(err)
			o.log.Warn("candidate skipped", "owner_id", ownerID, "index", i, "reason", reason, "error", err)
			observability.Current().IncIngestItem(reason)
			continue
		}
		observability.Current().IncIngestItem("logged")
		out.Items = append(out.Items, ItemResult{
			Name:     c.Name,
			Quantity: entry.Quantity,
			Unit:     entry.Unit,
			MealType: entry.MealType,
			Calories: entry.Calories,
			Protein:  entry.Protein,
			Carbs:    entry.Carbs,
			Fat:      entry.Fat,
			Fiber:    entry.Fiber,
			LoggedAt: entry.LoggedAt,
		})
	}

	if len(out.Items) == 0 {
		return &BatchResult{Message: MessageTotalFailed, Failed: true}, nil
	}
	out.Message = MessageLogged
	o.log.Info("ingestion complete", "owner_id", ownerID, "logged", len(out.Items), "candidates", len(parsed.Candidates))
	return out, nil
}

// complete calls the upstream capability once under the configured timeout.
func (o *Orchestrator) complete(ctx context.Context, now time.Time, text string) (string, error) {
	if !extractor.Available(o.completer) {
		// Unavailable reports its reason without any I/O.
		_, err := o.completer.Complete(ctx, "", "")
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.UpstreamTimeout)
	defer cancel()
	if err := o.throttle.Wait(callCtx); err != nil {
		return "", fmt.Errorf("%w: throttled: %v", ingestion.ErrUpstreamUnavailable, err)
	}

	start := time.Now()
	raw, err := o.completer.Complete(callCtx, extractor.SystemPrompt, extractor.BuildUserPrompt(now, o.cfg.Location, text))
	if err != nil {
		o.log.Warn("upstream completion failed", "elapsed", time.Since(start).String(), "error", err)
		if errors.Is(err, ingestion.ErrUpstreamUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ingestion.ErrUpstreamUnavailable, err)
	}
	return raw, nil
}

func (o *Orchestrator) process(ctx context.Context, c extractor.Candidate, ownerID uuid.UUID) (*health.FoodLog, error) {
	item, err := o.resolver.Resolve(ctx, c.Name, ownerID)
	if errors.Is(err, ingestion.ErrNotFound) {
		item, err = o.synth.Synthesize(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	return o.writer.Write(ctx, c, item, ownerID)
}

// authorize allows callers acting for themselves and admins acting for anyone.
func authorize(ctx context.Context, ownerID uuid.UUID) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("%w: no authenticated caller", ingestion.ErrAccessDenied)
	}
	if ownerID == uuid.Nil {
		return fmt.Errorf("%w: owner required", ingestion.ErrInvalidInput)
	}
	if rd.UserID != ownerID && !rd.IsAdmin() {
		return ingestion.ErrAccessDenied
	}
	return nil
}

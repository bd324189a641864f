// Package pipeline wires dedup, classification, summarization, and delivery
// into the end-to-end event flow. The gates run synchronously on the request
// path; everything after acceptance runs on a detached worker so webhook
// latency never depends on LLM or network latency.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"iris/internal/classifier"
	"iris/internal/domain"
	"iris/internal/notify"
)

// Outcome is the synchronous acknowledgment for one inbound event.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeAlreadySeen Outcome = "ignored-already-seen"
	OutcomeWrongType   Outcome = "ignored-event-type"
	OutcomeNotTask     Outcome = "ignored-no-task-like-pattern"
)

// Accepted reports whether the outcome queued work for the tail.
func (o Outcome) Accepted() bool { return o == OutcomeAccepted }

// acceptedEventTypes is the allow-list of event tags that proceed past the
// type gate.
var acceptedEventTypes = map[string]bool{
	"message.created": true,
	"message.posted":  true,
	"message.new":     true,
}

const (
	defaultQueueSize = 100
	enqueueTimeout   = 10 * time.Second
)

type job struct {
	runID string
	event domain.Event
}

// Pipeline owns the per-event state machine and all failure-containment
// policy. The dedup store is the only resource shared across runs.
type Pipeline struct {
	store     domain.DedupStore
	primary   domain.Strategy // nil when no model-backed strategy is configured
	fallback  domain.Strategy
	messenger domain.Messenger
	logger    *slog.Logger
	queue     chan job
}

type Config struct {
	Store     domain.DedupStore
	Primary   domain.Strategy
	Fallback  domain.Strategy
	Messenger domain.Messenger
	Logger    *slog.Logger
	QueueSize int
}

func New(cfg Config) *Pipeline {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Pipeline{
		store:     cfg.Store,
		primary:   cfg.Primary,
		fallback:  cfg.Fallback,
		messenger: cfg.Messenger,
		logger:    cfg.Logger,
		queue:     make(chan job, cfg.QueueSize),
	}
}

// Handle runs the synchronous gates and, for accepted events, enqueues the
// summarize→compose→deliver tail. The returned outcome is the acknowledgment
// for the webhook response.
func (p *Pipeline) Handle(ctx context.Context, event domain.Event) Outcome {
	runID := uuid.NewString()

	seen, err := p.store.HasSeen(ctx, event.MessageID)
	if err != nil {
		// Availability over strict dedup: an unreadable store must not
		// reject all traffic. Duplicates are the accepted failure mode.
		p.logger.Warn("dedup check failed, treating event as unseen",
			"run", runID,
			"message_id", event.MessageID,
			"error", err,
		)
	}
	if seen {
		return OutcomeAlreadySeen
	}

	// Record before every later gate so retried webhook deliveries are
	// deduplicated even when the event turns out not to be a task.
	if err := p.store.MarkSeen(ctx, event.MessageID); err != nil {
		p.logger.Error("cannot record message as seen, duplicate notifications possible",
			"run", runID,
			"message_id", event.MessageID,
			"error", err,
		)
	}

	if !acceptedEventTypes[event.EventType] {
		return OutcomeWrongType
	}

	if !classifier.LooksLikeTask(event.Content) {
		return OutcomeNotTask
	}

	p.enqueue(job{runID: runID, event: event})
	return OutcomeAccepted
}

// enqueue hands the accepted event to the worker. Blocks up to
// enqueueTimeout when the queue is full instead of dropping immediately.
func (p *Pipeline) enqueue(j job) {
	select {
	case p.queue <- j:
		return
	default:
	}

	p.logger.Warn("pipeline queue full, waiting", "run", j.runID, "message_id", j.event.MessageID)
	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()
	select {
	case p.queue <- j:
	case <-timer.C:
		p.logger.Error("accepted event dropped: queue full",
			"run", j.runID,
			"message_id", j.event.MessageID,
		)
	}
}

// Run is the single worker draining the accepted-event queue. Tail failures
// are terminal for their own event only: logged, never propagated.
func (p *Pipeline) Run(ctx context.Context) {
	p.logger.Info("pipeline worker started", "queue_size", cap(p.queue))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline worker stopping")
			return
		case j := <-p.queue:
			p.process(ctx, j)
		}
	}
}

// process executes the detached tail for one accepted event.
func (p *Pipeline) process(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline tail panic", "run", j.runID, "message_id", j.event.MessageID, "panic", r)
		}
	}()

	title := classifier.ExtractTitle(j.event.Content)
	summary := p.summarize(ctx, j.runID, title, j.event.Content)
	body := notify.Compose(j.event, summary)

	if err := p.messenger.SendDirectMessage(ctx, j.event.AuthorID, body); err != nil {
		p.logger.Error("notification delivery failed",
			"run", j.runID,
			"message_id", j.event.MessageID,
			"recipient", j.event.AuthorID,
			"content", truncateForLog(body),
			"error", err,
		)
		return
	}

	p.logger.Info("notification delivered",
		"run", j.runID,
		"message_id", j.event.MessageID,
		"recipient", j.event.AuthorID,
		"title", summary.Title,
	)
}

// summarize prefers the model-backed strategy and falls back to the
// heuristic one on any failure. The fallback is total, so this always
// returns a summary.
func (p *Pipeline) summarize(ctx context.Context, runID, title, content string) *domain.TaskSummary {
	if p.primary != nil {
		summary, err := p.primary.Summarize(ctx, title, content)
		if err == nil {
			return summary
		}
		p.logger.Warn("summarizer failed, using fallback",
			"run", runID,
			"strategy", p.primary.Name(),
			"error", err,
		)
	}

	summary, err := p.fallback.Summarize(ctx, title, content)
	if err != nil {
		// The heuristic strategy never fails; keep the event alive anyway.
		p.logger.Error("fallback summarizer failed", "run", runID, "error", err)
		return &domain.TaskSummary{Title: title, PlainSummary: title}
	}
	return summary
}

func truncateForLog(s string) string {
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

package queue

import (
	"context"
	"log/slog"
	"os"
	"time"

	"hugbridge/pkg/channel"
	"hugbridge/pkg/generate"
	"hugbridge/pkg/metrics"
	"hugbridge/pkg/session"
)

const safetyDrainInterval = 5 * time.Second

// User-facing terminal messages by failure kind. Overload gets its own
// actionable text; everything else collapses into generic guidance.
const (
	msgGenericFailure   = "Sorry, an error occurred while processing your request."
	msgNoCandidates     = "Sorry, I couldn't generate a response."
	msgModelUnavailable = "Sorry, the selected model is not available at the moment."
	msgOverloaded       = "The service is temporarily unavailable because of overloading. Please try again later or switch to another model with /model."
)

// Worker drains the queue on a single goroutine, so at most one generation
// call is in flight at any instant. Every request ends with exactly one
// terminal message, one placeholder deletion, and one unconditional cooldown.
type Worker struct {
	queue     *Queue
	session   *session.State
	generator generate.Generator
	transport channel.Transport
	cooldown  time.Duration
	log       *slog.Logger
}

func NewWorker(q *Queue, state *session.State, generator generate.Generator, transport channel.Transport, cooldown time.Duration, log *slog.Logger) *Worker {
	if cooldown <= 0 {
		cooldown = time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		queue:     q,
		session:   state,
		generator: generator,
		transport: transport,
		cooldown:  cooldown,
		log:       log.With("component", "queue.worker"),
	}
}

// Run blocks until ctx is canceled. The ticker is a safety net in case a
// wake signal is ever missed.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(safetyDrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.queue.Wake():
			w.drain(ctx)
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		request, ok := w.queue.Dequeue()
		if !ok {
			return
		}

		w.serve(ctx, request)
		w.pause(ctx)
	}
}

// serve handles one request to a terminal state. No failure while processing
// one request may crash the loop or leak into the next item; the deferred
// block guarantees placeholder cleanup on every exit path, including panics.
func (w *Worker) serve(ctx context.Context, request Request) {
	startedAt := time.Now()
	outcome := "completed"

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = "panic"
			w.log.Error("Recovered panic while serving request", "chat_id", request.ChatID, "panic", recovered)
			w.sendText(ctx, request.ChatID, msgGenericFailure, request.OriginMessageID)
		}

		if err := w.transport.DeleteMessage(ctx, request.ChatID, request.PlaceholderMessageID); err != nil {
			w.log.Warn("Failed to delete placeholder message", "chat_id", request.ChatID, "message_id", request.PlaceholderMessageID, "error", err)
		}

		metrics.ObserveGeneration(outcome, time.Since(startedAt).Seconds())
	}()

	modelKey := w.session.Active()
	w.log.Info("Serving request", "chat_id", request.ChatID, "model", modelKey, "queue_depth", w.queue.Depth())

	artifact, err := w.generator.Generate(ctx, modelKey, request.Prompt)
	if err != nil {
		outcome = generate.ReasonFromError(err)
		w.log.Warn("Generation failed", "chat_id", request.ChatID, "model", modelKey, "reason", outcome, "error", err)
		w.sendText(ctx, request.ChatID, failureMessage(err), request.OriginMessageID)
		return
	}

	if artifact.ImagePath != "" {
		defer func() {
			if err := os.Remove(artifact.ImagePath); err != nil {
				w.log.Warn("Failed to remove artifact file", "path", artifact.ImagePath, "error", err)
			}
		}()

		if err := w.transport.SendPhoto(ctx, request.ChatID, artifact.ImagePath, request.OriginMessageID); err != nil {
			outcome = "send_failed"
			w.log.Error("Failed to send photo", "chat_id", request.ChatID, "error", err)
		}
		return
	}

	w.sendText(ctx, request.ChatID, artifact.Text, request.OriginMessageID)
}

func (w *Worker) sendText(ctx context.Context, chatID int64, text string, replyTo int) {
	if _, err := w.transport.SendText(ctx, chatID, text, replyTo); err != nil {
		w.log.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// pause enforces the fixed inter-request cooldown, success or failure, to
// pace the outbound call rate.
func (w *Worker) pause(ctx context.Context) {
	timer := time.NewTimer(w.cooldown)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func failureMessage(err error) string {
	switch generate.ReasonFromError(err) {
	case generate.ReasonOverloaded:
		return msgOverloaded
	case generate.ReasonNoCandidates:
		return msgNoCandidates
	case generate.ReasonUnknownModel:
		return msgModelUnavailable
	default:
		return msgGenericFailure
	}
}

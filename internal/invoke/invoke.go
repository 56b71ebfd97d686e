// Package invoke calls a generation backend with bounded, linear retry on
// transient failures and cleans up the reply for parsing.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/ayerma/assistant/internal/logging"
	"github.com/ayerma/assistant/internal/telemetry"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffUnit = 2 * time.Second
	DefaultSignature   = "no completion"
)

// ErrNoCompletion is the transient condition raised when a backend answers
// without any content. Its message carries DefaultSignature.
var ErrNoCompletion = errors.New("no completion produced by the generation backend")

// Generator produces raw text for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, user string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// Classifier reports whether err is worth another attempt.
type Classifier func(err error) bool

// SignatureClassifier treats an error as recoverable when its message
// contains sig, ignoring case. Context cancellation never is, and a blank
// sig matches nothing.
func SignatureClassifier(sig string) Classifier {
	sig = strings.ToLower(strings.TrimSpace(sig))
	return func(err error) bool {
		if err == nil || sig == "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return strings.Contains(strings.ToLower(err.Error()), sig)
	}
}

// Attempt is one regenerable unit of work.
type Attempt struct {
	System string
	User   string
	// Recoverable overrides the invoker's classifier for this attempt.
	Recoverable Classifier
}

// ExhaustedError is returned when every attempt failed recoverably.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Options tunes an Invoker.
type Options struct {
	MaxAttempts int
	BackoffUnit time.Duration
	Classifier  Classifier
	// NewTimer supplies the wait timer; tests inject one that never sleeps.
	NewTimer func() backoff.Timer
	Logger   *slog.Logger
}

// Invoker wraps a Generator with the retry policy.
type Invoker struct {
	gen         Generator
	maxAttempts int
	unit        time.Duration
	classify    Classifier
	newTimer    func() backoff.Timer
	logger      *slog.Logger
}

// New returns an Invoker around gen.
func New(gen Generator, opts Options) *Invoker {
	inv := &Invoker{
		gen:         gen,
		maxAttempts: opts.MaxAttempts,
		unit:        opts.BackoffUnit,
		classify:    opts.Classifier,
		newTimer:    opts.NewTimer,
		logger:      logging.OrDiscard(opts.Logger),
	}
	if inv.maxAttempts <= 0 {
		inv.maxAttempts = DefaultMaxAttempts
	}
	if inv.unit <= 0 {
		inv.unit = DefaultBackoffUnit
	}
	if inv.classify == nil {
		inv.classify = SignatureClassifier(DefaultSignature)
	}
	if inv.newTimer == nil {
		inv.newTimer = func() backoff.Timer { return &realTimer{} }
	}
	return inv
}

// linearBackOff waits n*unit before attempt n+1.
type linearBackOff struct {
	unit time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.unit
}

func (b *linearBackOff) Reset() { b.n = 0 }

// aiMetrics holds lazily-initialized OTel instruments for generation calls.
var aiMetrics struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := telemetry.Meter("github.com/ayerma/assistant/generation")
	aiMetrics.attempts, _ = m.Int64Counter("assistant.generation.attempts",
		metric.WithDescription("Generation backend calls, including retries"),
		metric.WithUnit("{call}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("assistant.generation.duration",
		metric.WithDescription("Generation backend call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

// Invoke runs the attempt, retrying recoverable failures with waits of
// 1, 2, ... times the backoff unit, and returns the reply with any code
// fence removed. Non-recoverable errors return at once.
func (inv *Invoker) Invoke(ctx context.Context, a Attempt) (string, error) {
	aiMetricsOnce.Do(initAIMetrics)

	ctx, span := telemetry.Tracer("github.com/ayerma/assistant/generation").Start(ctx, "generation.invoke")
	defer span.End()

	classify := inv.classify
	if a.Recoverable != nil {
		classify = a.Recoverable
	}

	attempts := 0
	var raw string
	op := func() error {
		attempts++
		t0 := time.Now()
		out, err := inv.gen.Generate(ctx, a.System, a.User)
		ms := float64(time.Since(t0).Milliseconds())
		if aiMetrics.attempts != nil {
			ok := attribute.Bool("assistant.generation.ok", err == nil)
			aiMetrics.attempts.Add(ctx, 1, metric.WithAttributes(ok))
			aiMetrics.duration.Record(ctx, ms, metric.WithAttributes(ok))
		}
		if err == nil {
			raw = out
			return nil
		}
		if !classify(err) {
			return backoff.Permanent(fmt.Errorf("generation attempt %d: %w", attempts, err))
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		inv.logger.Warn("generation attempt failed, retrying",
			"attempt", attempts, "max_attempts", inv.maxAttempts, "wait", wait, "error", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{unit: inv.unit}, uint64(inv.maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotifyWithTimer(op, policy, notify, inv.newTimer())
	span.SetAttributes(attribute.Int("assistant.generation.attempts", attempts))

	if err != nil {
		if ctx.Err() == nil && classify(err) {
			err = &ExhaustedError{Attempts: attempts, Last: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if attempts > 1 {
		inv.logger.Info("generation succeeded after retry", "attempts", attempts)
	}
	return StripFence(raw), nil
}

// realTimer is a backoff.Timer over time.Timer.
type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *realTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

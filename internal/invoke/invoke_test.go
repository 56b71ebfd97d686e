package invoke

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer fires immediately and records every requested wait.
type fakeTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{c: make(chan time.Time, 1)}
}

func (f *fakeTimer) Start(d time.Duration) {
	f.waits = append(f.waits, d)
	f.c <- time.Now()
}

func (f *fakeTimer) Stop() {}

func (f *fakeTimer) C() <-chan time.Time { return f.c }

// scripted returns the errors in order, then the reply.
func scripted(reply string, errs ...error) (*int, Generator) {
	calls := 0
	return &calls, GeneratorFunc(func(ctx context.Context, system, user string) (string, error) {
		calls++
		if calls <= len(errs) {
			return "", errs[calls-1]
		}
		return reply, nil
	})
}

func newInvoker(gen Generator, timer *fakeTimer, max int) *Invoker {
	return New(gen, Options{
		MaxAttempts: max,
		BackoffUnit: time.Second,
		NewTimer:    func() backoff.Timer { return timer },
	})
}

func TestInvokeRetriesTransient(t *testing.T) {
	calls, gen := scripted("```json\n{\"a\":1}\n```", ErrNoCompletion, ErrNoCompletion)
	timer := newFakeTimer()

	out, err := newInvoker(gen, timer, 3).Invoke(context.Background(), Attempt{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, timer.waits)
}

func TestInvokeNonRecoverable(t *testing.T) {
	boom := errors.New("401 unauthorized")
	calls, gen := scripted("never", boom)
	timer := newFakeTimer()

	_, err := newInvoker(gen, timer, 3).Invoke(context.Background(), Attempt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "attempt 1")
	assert.Equal(t, 1, *calls)
	assert.Empty(t, timer.waits)

	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
}

func TestInvokeExhausted(t *testing.T) {
	calls, gen := scripted("never", ErrNoCompletion, ErrNoCompletion, ErrNoCompletion, ErrNoCompletion)
	timer := newFakeTimer()

	_, err := newInvoker(gen, timer, 3).Invoke(context.Background(), Attempt{})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, ErrNoCompletion)
	assert.Equal(t, 3, *calls)
	// No wait after the final attempt.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, timer.waits)
}

func TestInvokeSingleAttempt(t *testing.T) {
	_, gen := scripted("never", ErrNoCompletion)
	timer := newFakeTimer()

	_, err := newInvoker(gen, timer, 1).Invoke(context.Background(), Attempt{})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
	assert.Empty(t, timer.waits)
}

func TestInvokeRecoverableOverride(t *testing.T) {
	flaky := errors.New("HTTP 503 upstream busy")
	calls, gen := scripted(`{"ok":true}`, flaky)
	timer := newFakeTimer()

	out, err := newInvoker(gen, timer, 3).Invoke(context.Background(), Attempt{
		Recoverable: SignatureClassifier("503"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, []time.Duration{time.Second}, timer.waits)
}

func TestInvokeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := GeneratorFunc(func(ctx context.Context, system, user string) (string, error) {
		cancel()
		return "", ErrNoCompletion
	})

	_, err := New(gen, Options{NewTimer: func() backoff.Timer { return newFakeTimer() }}).Invoke(ctx, Attempt{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaults(t *testing.T) {
	inv := New(GeneratorFunc(nil), Options{})
	assert.Equal(t, DefaultMaxAttempts, inv.maxAttempts)
	assert.Equal(t, DefaultBackoffUnit, inv.unit)
	assert.True(t, inv.classify(ErrNoCompletion))
}

func TestSignatureClassifier(t *testing.T) {
	c := SignatureClassifier("No Completion")
	assert.True(t, c(fmt.Errorf("models: %w", ErrNoCompletion)))
	assert.True(t, c(errors.New("backend said: no completion available")))
	assert.False(t, c(errors.New("rate limited")))
	assert.False(t, c(nil))
	assert.False(t, c(context.Canceled))
}

func TestSignatureClassifierBlankMatchesNothing(t *testing.T) {
	for _, sig := range []string{"", "   "} {
		c := SignatureClassifier(sig)
		assert.False(t, c(errors.New("401 unauthorized")), "sig %q", sig)
		assert.False(t, c(ErrNoCompletion), "sig %q", sig)
	}
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{unit: 2 * time.Second}
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 6*time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tagged fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"untagged fence", "```\n[1,2]\n```", `[1,2]`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n  ", `{"a":1}`},
		{"closing fence on content line", "```json\n{\"a\":1}```", `{"a":1}`},
		{"single line tagged", "```json {\"a\":1}```", `{"a":1}`},
		{"single line untagged", "```{\"a\":1}```", `{"a":1}`},
		{"content on fence line", "```{\"a\":\n1}\n```", "{\"a\":\n1}"},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"trimmed plain", "  hello \n", "hello"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFence(tt.in))
		})
	}
}

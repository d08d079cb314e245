package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoServiceAvailable is returned by Discover when no candidate answered.
	ErrNoServiceAvailable = errors.New("no judge endpoint available")
	// ErrRemoteCallFailed is returned by Judge once the attempt budget is spent
	// or the failure cannot be retried.
	ErrRemoteCallFailed = errors.New("judge call failed")
	// ErrRateLimited marks a failure caused by the service's rate limit.
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformedEnvelope means a 2xx response carried no text where expected.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
)

type OutcomeKind int

const (
	Success OutcomeKind = iota
	RateLimited
	Transient
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case RateLimited:
		return "rate_limited"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is the result of a single attempt. Status is the HTTP status when one
// was received, zero otherwise.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Status int
	Err    error
}

func succeeded(text string, status int) Outcome {
	return Outcome{Kind: Success, Text: text, Status: status}
}

func failed(kind OutcomeKind, status int, err error) Outcome {
	return Outcome{Kind: kind, Status: status, Err: err}
}

// RetryPolicy bounds the attempts made by Client.Judge.
type RetryPolicy struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffCeiling time.Duration
	RetryDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		BackoffBase:    5 * time.Second,
		BackoffCeiling: 60 * time.Second,
		RetryDelay:     2 * time.Second,
	}
}

// Next decides what follows attempt (zero-based) that ended with kind.
// It returns the wait before the next attempt and whether there is one.
func (p RetryPolicy) Next(attempt int, kind OutcomeKind) (time.Duration, bool) {
	if kind == Success || kind == Fatal {
		return 0, false
	}
	if attempt+1 >= p.attempts() {
		return 0, false
	}
	if kind == RateLimited {
		return p.backoff(attempt), true
	}
	return p.RetryDelay, true
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backoff is min(ceiling, base*2^attempt) without overflowing.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := p.BackoffBase
	for i := 0; i < attempt; i++ {
		if wait >= p.BackoffCeiling {
			break
		}
		wait *= 2
	}
	if wait > p.BackoffCeiling {
		wait = p.BackoffCeiling
	}
	return wait
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

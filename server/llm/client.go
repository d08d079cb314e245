package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const probePrompt = "test"

// Transport performs one attempt against one endpoint. Implementations must not
// retry; Client owns the retry budget.
type Transport interface {
	Send(ctx context.Context, endpoint, prompt string) Outcome
}

// Endpoint is the address bound at discovery.
type Endpoint struct {
	URL  string
	Name string
}

// Client is a judge bound to a single endpoint. It is immutable after construction.
type Client struct {
	transport    Transport
	endpoint     Endpoint
	policy       RetryPolicy
	probeTimeout time.Duration
	callTimeout  time.Duration
	sleep        func(context.Context, time.Duration) error
	log          *zap.Logger
}

type Option func(*Client)

func WithRetryPolicy(p RetryPolicy) Option { return func(c *Client) { c.policy = p } }
func WithLogger(l *zap.Logger) Option      { return func(c *Client) { c.log = l } }

// WithTimeouts sets the per-attempt bounds for discovery probes and judge calls.
func WithTimeouts(probe, call time.Duration) Option {
	return func(c *Client) {
		c.probeTimeout = probe
		c.callTimeout = call
	}
}

// WithSleep replaces the backoff wait; tests use it to record waits.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func newClient(t Transport, opts []Option) *Client {
	c := &Client{
		transport:    t,
		policy:       DefaultRetryPolicy(),
		probeTimeout: 5 * time.Second,
		callTimeout:  30 * time.Second,
		sleep:        sleepCtx,
		log:          zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewBound returns a client already bound to endpoint, skipping discovery.
func NewBound(t Transport, endpoint string, opts ...Option) *Client {
	c := newClient(t, opts)
	c.endpoint = Endpoint{URL: endpoint, Name: EndpointName(endpoint)}
	return c
}

// Discover probes candidates in order and binds the first one that answers
// with a 2xx status. It fails with ErrNoServiceAvailable when none does.
func Discover(ctx context.Context, t Transport, candidates []string, opts ...Option) (*Client, error) {
	c := newClient(t, opts)
	c.log.Info("Probing judge endpoints", zap.Int("candidates", len(candidates)))
	for _, ep := range candidates {
		ep = strings.TrimSpace(ep)
		if ep == "" {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		out := t.Send(pctx, ep, probePrompt)
		cancel()
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("endpoint discovery: %w", err)
		}
		if out.Status >= 200 && out.Status < 300 {
			c.endpoint = Endpoint{URL: ep, Name: EndpointName(ep)}
			discoveryTotal.WithLabelValues("bound").Inc()
			c.log.Info("Judge endpoint selected", zap.String("endpoint", c.endpoint.Name))
			return c, nil
		}
		discoveryTotal.WithLabelValues("rejected").Inc()
		c.log.Debug("Judge endpoint rejected",
			zap.String("endpoint", EndpointName(ep)),
			zap.Int("status", out.Status),
			zap.Error(out.Err))
	}
	discoveryTotal.WithLabelValues("none").Inc()
	c.log.Error("No judge endpoint answered the probe")
	return nil, ErrNoServiceAvailable
}

func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Judge sends prompt to the bound endpoint and returns the raw text reply.
// Rate limits back off exponentially, other failures wait a fixed delay, and
// the attempt budget is never exceeded.
func (c *Client) Judge(ctx context.Context, prompt string) (string, error) {
	for attempt := 0; ; attempt++ {
		start := time.Now()
		actx, cancel := context.WithTimeout(ctx, c.callTimeout)
		out := c.transport.Send(actx, c.endpoint.URL, prompt)
		cancel()
		callDuration.WithLabelValues(out.Kind.String()).Observe(time.Since(start).Seconds())
		attemptsTotal.WithLabelValues(c.endpoint.Name, out.Kind.String()).Inc()

		if out.Kind == Success {
			return out.Text, nil
		}
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
		}
		wait, retry := c.policy.Next(attempt, out.Kind)
		if !retry {
			c.log.Warn("Judge call failed",
				zap.Int("attempts", attempt+1),
				zap.Stringer("kind", out.Kind),
				zap.Int("status", out.Status),
				zap.Error(out.Err))
			return "", c.failure(attempt+1, out)
		}
		c.log.Info("Retrying judge call",
			zap.Int("attempt", attempt+1),
			zap.Stringer("kind", out.Kind),
			zap.Duration("wait", wait),
			zap.Error(out.Err))
		backoffSeconds.WithLabelValues(out.Kind.String()).Add(wait.Seconds())
		if err := c.sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
		}
	}
}

func (c *Client) failure(attempts int, out Outcome) error {
	cause := out.Err
	if cause == nil {
		cause = fmt.Errorf("status %d", out.Status)
	}
	if out.Kind == RateLimited && !errors.Is(cause, ErrRateLimited) {
		cause = errors.Join(ErrRateLimited, cause)
	}
	return fmt.Errorf("%w after %d attempt(s): %w", ErrRemoteCallFailed, attempts, cause)
}

// EndpointName shortens a URL such as ".../models/gemini-2.5-flash:generateContent"
// to "gemini-2.5-flash". Other values are returned unchanged.
func EndpointName(endpoint string) string {
	name := endpoint
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 && strings.Contains(name, "://") {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, ':'); i > 0 && !strings.Contains(name, "://") {
		name = name[:i]
	}
	return name
}

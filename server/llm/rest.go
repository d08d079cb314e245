package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Defaults match the Gemini generateContent contract.
const (
	DefaultRequestTemplate = `{"contents":[{"parts":[{"text":""}]}]}`
	DefaultPromptPath      = "contents.0.parts.0.text"
	DefaultResponsePath    = "candidates.0.content.parts.0.text"

	maxResponseBytes = 1 << 20
	redacted         = "REDACTED"
)

// RESTConfig describes a JSON-over-HTTP judge. The prompt is written into
// RequestTemplate at PromptPath and the reply read from ResponsePath; both are
// gjson/sjson paths.
type RESTConfig struct {
	APIKey          string
	KeyParam        string // query parameter carrying the key, e.g. "key"
	KeyHeader       string // header carrying the key when set
	KeyPrefix       string
	RequestTemplate string
	PromptPath      string
	ResponsePath    string
}

type RESTTransport struct {
	cfg  RESTConfig
	http *http.Client
}

func NewRESTTransport(cfg RESTConfig, hc *http.Client) *RESTTransport {
	if cfg.RequestTemplate == "" {
		cfg.RequestTemplate = DefaultRequestTemplate
	}
	if cfg.PromptPath == "" {
		cfg.PromptPath = DefaultPromptPath
	}
	if cfg.ResponsePath == "" {
		cfg.ResponsePath = DefaultResponsePath
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &RESTTransport{cfg: cfg, http: hc}
}

func (t *RESTTransport) Send(ctx context.Context, endpoint, prompt string) Outcome {
	body, err := sjson.Set(t.cfg.RequestTemplate, t.cfg.PromptPath, prompt)
	if err != nil {
		return failed(Fatal, 0, fmt.Errorf("build request body: %w", err))
	}
	target, err := t.url(endpoint)
	if err != nil {
		return failed(Fatal, 0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return failed(Fatal, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.cfg.KeyHeader != "" && t.cfg.APIKey != "" {
		req.Header.Set(t.cfg.KeyHeader, t.cfg.KeyPrefix+t.cfg.APIKey)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return failed(Transient, 0, t.redact(err))
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return failed(RateLimited, resp.StatusCode,
			t.redact(fmt.Errorf("%w: judge http 429: %s", ErrRateLimited, Truncate(string(raw), 200))))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return failed(Transient, resp.StatusCode,
			t.redact(fmt.Errorf("judge http %d: %s", resp.StatusCode, Truncate(string(raw), 200))))
	case readErr != nil:
		return failed(Transient, resp.StatusCode, t.redact(fmt.Errorf("read judge response: %w", readErr)))
	}

	text := gjson.GetBytes(raw, t.cfg.ResponsePath)
	if text.Type != gjson.String {
		return failed(Transient, resp.StatusCode,
			fmt.Errorf("%w: nothing at %q", ErrMalformedEnvelope, t.cfg.ResponsePath))
	}
	return succeeded(text.String(), resp.StatusCode)
}

func (t *RESTTransport) url(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if t.cfg.KeyParam != "" && t.cfg.KeyHeader == "" && t.cfg.APIKey != "" {
		q := u.Query()
		q.Set(t.cfg.KeyParam, t.cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// redact removes the API key from err's text. Transport errors from net/http
// quote the request URL, which carries the key when it is sent as a query
// parameter.
func (t *RESTTransport) redact(err error) error {
	key := t.cfg.APIKey
	if err == nil || key == "" {
		return err
	}
	msg := err.Error()
	clean := strings.ReplaceAll(msg, key, redacted)
	if esc := url.QueryEscape(key); esc != key {
		clean = strings.ReplaceAll(clean, esc, redacted)
	}
	if clean == msg {
		return err
	}
	return &redactedError{msg: clean, err: err}
}

// redactedError keeps the chain for errors.Is while hiding the original text.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// Truncate shortens s to at most n bytes, marking the cut with "...". It never
// splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < 0 {
		n = 0
	}
	suffix := "..."
	if n <= len(suffix) {
		suffix = ""
	}
	cut := n - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

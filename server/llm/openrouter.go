package llm

import (
	"net/http"
	"strings"
)

const defaultOpenRouterTitle = "RPS Plus Judge"

// IsOpenRouter reports whether baseURL points at OpenRouter.
func IsOpenRouter(baseURL string) bool {
	return strings.Contains(strings.ToLower(baseURL), "openrouter")
}

// OpenRouterHeaders returns the attribution headers OpenRouter asks clients to send.
func OpenRouterHeaders(siteURL, title string) map[string]string {
	h := map[string]string{"X-Title": firstNonEmpty(title, defaultOpenRouterTitle)}
	if v := strings.TrimSpace(siteURL); v != "" {
		h["HTTP-Referer"] = v
		h["Referer"] = v
	}
	return h
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		setHeaderPreserveCase(r.Header, k, v)
	}
	return t.base.RoundTrip(r)
}

func withHeaders(hc *http.Client, headers map[string]string) *http.Client {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *hc
	clone.Transport = headerTransport{base: base, headers: headers}
	return &clone
}

// setHeaderPreserveCase keeps non-canonical spellings such as "HTTP-Referer",
// which some gateways match case-sensitively. Blank keys or values are ignored.
func setHeaderPreserveCase(h http.Header, key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if http.CanonicalHeaderKey(key) != key {
		h[key] = []string{value}
		return
	}
	h.Set(key, value)
}

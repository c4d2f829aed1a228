package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries the HTTP client and the last response across the steps
// of one scenario.
type TestContext struct {
	BaseURL  string
	ClientIP string
	client   *http.Client

	lastStatus  int
	lastBody    []byte
	lastHeaders http.Header
	remembered  map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
		remembered: map[string]string{},
	}
}

// Reset clears per-scenario state. Each scenario gets its own client IP so
// rate limit budgets do not leak between scenarios. The IP is sent as
// X-Forwarded-For and only takes effect when the server lists this runner in
// TRUSTED_PROXIES.
func (tc *TestContext) Reset(clientIP string) {
	tc.ClientIP = clientIP
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	tc.remembered = map[string]string{}
}

func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(payload))
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.ClientIP != "" {
		req.Header.Set("X-Forwarded-For", tc.ClientIP)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.remembered {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func (tc *TestContext) Remember(name, value string) {
	tc.remembered[name] = value
}

func (tc *TestContext) GetLastResponseStatus() int  { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }
func (tc *TestContext) GetLastResponseHeader(k string) string {
	if tc.lastHeaders == nil {
		return ""
	}
	return tc.lastHeaders.Get(k)
}

// GetResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q", field)
	}
	return v, nil
}

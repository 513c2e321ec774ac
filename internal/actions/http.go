package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rendis/runcase/pkg/model"
)

// HTTPConfig configures the http.request action.
type HTTPConfig struct {
	MaxResponseBody int64
	DefaultTimeout  time.Duration
}

const (
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
	defaultHTTPTimeout     = 30 * time.Second
)

// HTTPRequestAction implements the "http.request" builtin: a minimal
// net/http-backed client covering the request shape the spec's mention of
// an out-of-scope "HTTP client" action implies (method, url, headers,
// JSON body, timeout). Auth schemes, redirect policy, and alternate body
// encodings are left to a caller's own registered action — this builtin
// exists so the engine is runnable out of the box, not to be a complete
// HTTP client.
type HTTPRequestAction struct {
	config HTTPConfig
}

// NewHTTPRequestAction creates the http.request action.
func NewHTTPRequestAction(cfg HTTPConfig) *HTTPRequestAction {
	if cfg.MaxResponseBody <= 0 {
		cfg.MaxResponseBody = defaultMaxResponseBody
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultHTTPTimeout
	}
	return &HTTPRequestAction{config: cfg}
}

func (a *HTTPRequestAction) Name() string { return "http.request" }

func (a *HTTPRequestAction) Execute(ctx context.Context, step model.Step) (*model.ActionResult, error) {
	params, err := decodeParams(step)
	if err != nil {
		return nil, err
	}

	rawURL := stringParam(params, "url", "")
	if rawURL == "" {
		return nil, model.NewError(model.ErrCodeValidation, "http.request: missing required param 'url'").WithStep(step.ID)
	}
	if u, err := url.ParseRequestURI(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, model.NewErrorf(model.ErrCodeValidation, "http.request: invalid url %q", rawURL).WithStep(step.ID)
	}

	method := strings.ToUpper(stringParam(params, "method", "GET"))
	failOnErrorStatus := boolParam(params, "fail_on_error_status", false)

	timeout := a.config.DefaultTimeout
	if ts := stringParam(params, "timeout", ""); ts != "" {
		if d, err := time.ParseDuration(ts); err == nil {
			timeout = d
		}
	}

	var bodyReader io.Reader
	contentType := ""
	if rawBody, ok := params["body"]; ok && rawBody != nil {
		b, err := json.Marshal(rawBody)
		if err != nil {
			return nil, model.NewErrorf(model.ErrCodeActionFailed, "http.request: marshal body: %s", err.Error()).WithStep(step.ID).WithCause(err)
		}
		bodyReader = bytes.NewReader(b)
		contentType = "application/json"
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, bodyReader)
	if err != nil {
		return nil, model.NewErrorf(model.ErrCodeActionFailed, "http.request: build request: %s", err.Error()).WithStep(step.ID).WithCause(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if hdrs, ok := params["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			req.Header.Set(k, fmt.Sprintf("%v", v))
		}
	}

	client := &http.Client{}
	start := time.Now()
	resp, err := client.Do(req)
	durationMs := time.Since(start).Milliseconds()
	if err != nil {
		return jsonOutput(false, map[string]any{"error": err.Error()}), nil
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, a.config.MaxResponseBody)
	bodyBytes, err := io.ReadAll(limited)
	if err != nil {
		return nil, model.NewErrorf(model.ErrCodeActionFailed, "http.request: read response body: %s", err.Error()).WithStep(step.ID).WithCause(err)
	}

	respContentType := resp.Header.Get("Content-Type")
	var parsedBody any
	switch {
	case len(bodyBytes) == 0:
		parsedBody = nil
	case strings.Contains(respContentType, "application/json"):
		var jsonBody any
		if err := json.Unmarshal(bodyBytes, &jsonBody); err == nil {
			parsedBody = jsonBody
		} else {
			parsedBody = string(bodyBytes)
		}
	default:
		parsedBody = string(bodyBytes)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	output := map[string]any{
		"status_code":  resp.StatusCode,
		"status":       resp.Status,
		"headers":      respHeaders,
		"body":         parsedBody,
		"content_type": respContentType,
		"duration_ms":  durationMs,
	}

	if failOnErrorStatus && resp.StatusCode >= 400 {
		output["error"] = fmt.Sprintf("server returned %d", resp.StatusCode)
		return jsonOutput(false, output), nil
	}
	return jsonOutput(true, output), nil
}

// Package transport implements the thin HTTP-send wrapper of spec.md §4.5: given one
// RequestRecord, build a wire request, follow redirects, capture the full response, and
// never let a transport-level failure escape as an error — it becomes a synthetic
// failed ResponseRecord instead, per §7's "request failures are data, not exceptions."
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	segjson "github.com/segmentio/encoding/json"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// Client wraps a pooled *http.Client — the opaque transport collaborator §1 describes.
// One Client is shared across every worker of a single Drive call for connection reuse,
// created at dispatcher start and released at teardown.
type Client struct {
	http *http.Client
}

// NewClient builds a Client with redirect-following and HTTP/2-capable connection
// pooling (the zero http.Transport already negotiates HTTP/2 over TLS).
func NewClient() *Client {
	return &Client{http: &http.Client{}}
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Send performs one RequestRecord and always returns a ResponseRecord — transport
// failures are captured into a synthetic failed record rather than returned as errors.
func (c *Client) Send(ctx context.Context, r *muretypes.RequestRecord) *muretypes.ResponseRecord {
	req, err := buildRequest(ctx, r)
	if err != nil {
		return muretypes.NewTransportFailure(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, r.EffectiveTimeout())
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return muretypes.NewTransportFailure(fmt.Sprintf("%v", err))
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return muretypes.NewTransportFailure(fmt.Sprintf("read response body: %v", err))
	}

	finalURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	encoding := resolveCharset(resp.Header.Get("Content-Type"), content)

	return &muretypes.ResponseRecord{
		OK:       resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:   resp.StatusCode,
		Reason:   reasonPhrase(resp),
		URL:      finalURL,
		Headers:  resp.Header,
		Content:  content,
		Encoding: encoding,
	}
}

func reasonPhrase(resp *http.Response) string {
	if idx := strings.IndexByte(resp.Status, ' '); idx >= 0 && idx+1 < len(resp.Status) {
		return resp.Status[idx+1:]
	}
	return resp.Status
}

// buildRequest assembles the wire-level *http.Request: method, merged query, merged
// headers, and a body chosen per the raw-wins rule of §3/§4.5.
func buildRequest(ctx context.Context, r *muretypes.RequestRecord) (*http.Request, error) {
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", r.URL, err)
	}

	query := parsed.Query()
	for _, kv := range r.Params {
		query.Add(kv.Name, kv.Value)
	}
	parsed.RawQuery = query.Encode()

	body, err := requestBody(r)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, string(r.Method), parsed.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for _, kv := range r.Headers {
		req.Header.Add(kv.Name, kv.Value)
	}
	if req.Header.Get("Content-Type") == "" && r.BodyRaw == nil && r.BodyJSON != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// requestBody serializes the request body, preferring BodyRaw over BodyJSON.
func requestBody(r *muretypes.RequestRecord) (io.Reader, error) {
	if r.BodyRaw != nil {
		return bytes.NewReader(r.BodyRaw), nil
	}
	if r.BodyJSON != nil {
		data, err := segjson.Marshal(r.BodyJSON)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
	return nil, nil
}

// Package fingerprint computes the canonical, process-stable digest §4.2 of spec.md
// describes: a SHA-256 hex string derived from a request's normalized shape, so that
// two RequestRecords which differ only in header/param ordering, query-vs-params split,
// or body encoding shape still produce the same cache key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	segjson "github.com/segmentio/encoding/json"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// Compute returns the hex-encoded SHA-256 digest of r's canonical form.
func Compute(r *muretypes.RequestRecord) (string, error) {
	canonicalURL, err := canonicalizeURL(r.URL, r.Params)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize url %q: %w", r.URL, err)
	}

	record := map[string]any{
		"method":  strings.ToUpper(strings.TrimSpace(string(r.Method))),
		"url":     canonicalURL,
		"headers": canonicalizeHeaders(r.Headers),
		"body":    normalizeBody(effectiveBody(r)),
	}

	data, err := segjson.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal canonical record: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// effectiveBody picks the body that would actually reach the wire: BodyRaw wins over
// BodyJSON when both are set, matching the send-time rule in §3/§4.5.
func effectiveBody(r *muretypes.RequestRecord) any {
	if r.BodyRaw != nil {
		return r.BodyRaw
	}
	if r.BodyJSON != nil {
		return r.BodyJSON
	}
	return nil
}

// canonicalizeURL lowercases scheme+host, keeps the path verbatim, and merges the
// existing query string with params into a key-sorted map of value lists, preserving
// insertion order within each key (existing query values first, then params).
func canonicalizeURL(raw string, params []muretypes.KV) (map[string]any, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	merged := map[string][]string{}
	var order []string
	add := func(k, v string) {
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] = append(merged[k], v)
	}
	for k, vs := range parsed.Query() {
		for _, v := range vs {
			add(k, v)
		}
	}
	for _, kv := range params {
		add(kv.Name, kv.Value)
	}

	sortedKeys := append([]string(nil), order...)
	sort.Strings(sortedKeys)
	query := make(map[string]any, len(sortedKeys))
	for _, k := range sortedKeys {
		query[k] = merged[k]
	}

	return map[string]any{
		"scheme_host": strings.ToLower(parsed.Scheme + "://" + parsed.Host),
		"path":        parsed.Path,
		"query":       query,
	}, nil
}

// canonicalizeHeaders lowercases/trims header names and sorts by name, preserving
// insertion order among repeated names.
func canonicalizeHeaders(headers []muretypes.KV) map[string]any {
	merged := map[string][]string{}
	for _, kv := range headers {
		name := strings.ToLower(strings.TrimSpace(kv.Name))
		merged[name] = append(merged[name], kv.Value)
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = merged[k]
	}
	return out
}

// normalizeBody implements the six-way normalization rule in §4.2.
func normalizeBody(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case []byte:
		sum := sha256.Sum256(value)
		return map[string]any{"__type": "bytes", "sha256": hex.EncodeToString(sum[:])}
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return value
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, v := range value {
			out[k] = normalizeBody(v)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, elem := range value {
			out[i] = normalizeBody(elem)
		}
		return out
	default:
		return normalizeOpaque(v)
	}
}

// normalizeOpaque handles anything normalizeBody's type switch doesn't recognize
// directly (custom structs, typed maps/slices, etc.): it round-trips the value through
// JSON so that equivalent values normalize identically, falling back to a debug
// representation when the value isn't JSON-serializable at all.
func normalizeOpaque(v any) any {
	data, err := segjson.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	var generic any
	if err := segjson.Unmarshal(data, &generic); err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return normalizeBody(generic)
}

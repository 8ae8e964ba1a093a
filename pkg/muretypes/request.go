// Package muretypes holds the data carriers shared between mure's public API and its
// internal packages (fingerprinting, transport, caching, dispatch). They live in a
// separate package so internal packages can depend on the record shapes without
// importing the root package.
package muretypes

import "time"

// Method is an HTTP method accepted by a RequestRecord.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
	MethodHead   Method = "HEAD"
)

// DefaultTimeout is used when a RequestRecord's Timeout is nil.
const DefaultTimeout = 30 * time.Second

// KV is an ordered name/value pair, used for headers and params so that insertion
// order survives from the caller through to the wire (repetition is allowed for
// params, e.g. the same query key supplied twice).
type KV struct {
	Name  string
	Value string
}

// RequestRecord is an immutable description of one HTTP call. Two RequestRecords
// are semantically equal if they fingerprint the same (see the fingerprint package),
// independent of header/param ordering.
type RequestRecord struct {
	Method Method
	URL    string

	Headers []KV
	Params  []KV

	// BodyRaw and BodyJSON are mutually exclusive at send time; if both are set,
	// BodyRaw wins. BodyJSON is encoded with the same JSON codec mure uses
	// elsewhere (segmentio/encoding/json) immediately before the call is sent.
	BodyRaw  []byte
	BodyJSON any

	// Timeout is nil to mean "use DefaultTimeout".
	Timeout *time.Duration
}

// EffectiveTimeout returns r.Timeout, or DefaultTimeout if unset.
func (r *RequestRecord) EffectiveTimeout() time.Duration {
	if r.Timeout == nil || *r.Timeout <= 0 {
		return DefaultTimeout
	}
	return *r.Timeout
}

// HasBody reports whether the request carries a body of either shape.
func (r *RequestRecord) HasBody() bool {
	return r.BodyRaw != nil || r.BodyJSON != nil
}

// Resource is the loosely-typed shape accepted by mure's per-method convenience
// constructors (Get/Post/.../Requests) before it is validated and turned into a
// RequestRecord. It mirrors what a caller naturally builds by hand: a map with at
// least a URL and a handful of optional fields.
type Resource struct {
	Method  Method // only read by the mixed-method constructor
	URL     string
	Headers []KV
	Params  []KV
	Data    []byte
	JSON    any
	Timeout *time.Duration
}

// ToRequestRecord converts a validated Resource into a RequestRecord.
func (r Resource) ToRequestRecord(method Method) *RequestRecord {
	return &RequestRecord{
		Method:   method,
		URL:      r.URL,
		Headers:  r.Headers,
		Params:   r.Params,
		BodyRaw:  r.Data,
		BodyJSON: r.JSON,
		Timeout:  r.Timeout,
	}
}

package muretypes

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	segjson "github.com/segmentio/encoding/json"
	"golang.org/x/text/encoding/htmlindex"
)

// ResponseRecord is built once per request by the dispatcher, stored into exactly one
// ResponseSlotQueue slot, and handed to the consumer exactly once. Text and JSON are
// derived lazily from Content the first time they're called.
type ResponseRecord struct {
	OK     bool
	Status int // 0 iff transport failure
	Reason string
	URL    string // final URL after redirects; empty on transport failure
	Headers http.Header
	Content []byte
	Encoding string // declared or detected charset name; empty if undetermined

	// Fingerprint is set by the dispatcher after computing it, so a cache backend
	// can log or key off it without re-deriving it from the originating request.
	Fingerprint string

	once    sync.Once
	text    string
	textErr error
}

// NewTransportFailure builds the synthetic ResponseRecord §4.5 mandates for a request
// that never reached the network (DNS, TLS, malformed URL, timeout, ...).
func NewTransportFailure(reason string) *ResponseRecord {
	return &ResponseRecord{
		OK:      false,
		Status:  0,
		Reason:  reason,
		URL:     "",
		Headers: http.Header{},
		Content: []byte{},
	}
}

// Text decodes Content to a string, using Encoding when it names a known charset and
// falling back to UTF-8 with invalid sequences replaced otherwise. The decode runs at
// most once; subsequent calls return the cached result.
func (r *ResponseRecord) Text() (string, error) {
	r.once.Do(func() {
		r.text, r.textErr = decodeText(r.Content, r.Encoding)
	})
	return r.text, r.textErr
}

// JSON parses Text as JSON into v. It returns a DecodeError wrapping the underlying
// failure when the body is not valid JSON — this is the deferred DecodeError of §7,
// only ever raised here, never from Drive/Next.
func (r *ResponseRecord) JSON(v any) error {
	text, err := r.Text()
	if err != nil {
		return err
	}
	if err := segjson.Unmarshal([]byte(text), v); err != nil {
		return &DecodeError{Cause: err}
	}
	return nil
}

func decodeText(content []byte, declared string) (string, error) {
	if declared != "" {
		if enc, err := htmlindex.Get(declared); err == nil {
			decoded, decErr := enc.NewDecoder().Bytes(content)
			if decErr == nil {
				return string(decoded), nil
			}
		}
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}

// DecodeError wraps a JSON decode failure raised from ResponseRecord.JSON.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mure: decode response body as JSON: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

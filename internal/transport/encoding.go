package transport

import (
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// declaredCharset extracts the charset parameter from a Content-Type header value,
// lowercased, or "" if the header is absent or carries no charset parameter.
func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// resolveCharset implements §4.5 step 3 in full: a declared charset is trusted only when
// htmlindex actually recognizes it, so an absent header and an unrecognized one (a typo,
// a made-up label) both fall through to the same byte-level detector — neither reaches
// decodeText as an unresolved name it would have to fail on a second time.
func resolveCharset(contentType string, content []byte) string {
	if declared := declaredCharset(contentType); declared != "" {
		if _, err := htmlindex.Get(declared); err == nil {
			return declared
		}
	}
	return detectCharset(content)
}

// detectCharset is mure's byte-level charset detector (§4.5 step 3): no general-purpose
// charset-sniffing library exists in the example corpus, so this implements the
// pragmatic heuristic real small HTTP libraries fall back to when a declared charset is
// missing or unrecognized — valid UTF-8 is assumed to be UTF-8, anything else is assumed
// to be Windows-1252 (a single-byte encoding that can decode any byte sequence, which is
// exactly why it's a common silent-fallback choice for "mystery" web content).
func detectCharset(content []byte) string {
	if utf8.Valid(content) {
		return "utf-8"
	}
	return "windows-1252"
}

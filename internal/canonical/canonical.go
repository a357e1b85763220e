// Package canonical derives the stable identity key used to deduplicate
// articles whose raw URLs differ only in scheme, "www." prefix, trailing
// slash, query string, or fragment.
package canonical

import (
	"net/url"
	"strings"
)

// Canonicalize maps a raw URL to its canonical dedup key: scheme and
// "www." stripped, lower-cased host+path with no trailing slash, query,
// or fragment. It is idempotent and never fails — unparseable input comes
// back lower-cased but otherwise unchanged.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)

	trimmed := lower
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	// Strip every leading "www." label, not just the first: a single pass
	// would leave doubled labels one strip short and break idempotence.
	for strings.HasPrefix(trimmed, "www.") {
		trimmed = strings.TrimPrefix(trimmed, "www.")
	}

	u, err := url.Parse("https://" + trimmed)
	if err != nil || u.Host == "" {
		return lower
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	return u.Host + path
}

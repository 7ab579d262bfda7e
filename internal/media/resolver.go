// Package media resolves image references (URLs, filenames, free text) to
// local attachment IDs.
package media

import (
	"context"
	"regexp"
)

// Resolver maps an image reference to a local attachment ID.
type Resolver interface {
	// Resolve returns the attachment ID for a URL, filename, or free-text
	// reference. ok is false when nothing matches; external URLs that are
	// not local attachments also resolve to false so the caller can fall
	// back to URL mode.
	Resolve(ctx context.Context, value string) (id int64, ok bool)
}

var urlRe = regexp.MustCompile(`(?i)^https?://`)

// IsURL reports whether a value looks like an http(s) URL.
func IsURL(value string) bool {
	return urlRe.MatchString(value)
}

// Nop is a resolver that never resolves; used when no attachment library
// is available.
type Nop struct{}

// Resolve always reports no match.
func (Nop) Resolve(context.Context, string) (int64, bool) { return 0, false }

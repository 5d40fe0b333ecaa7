// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/url"
	"strings"
)

// EscapePath escapes each "/"-separated segment of p for use in a URL path.
// DOIs may contain "#", "?", ";" and angle brackets, which would otherwise
// end the path or be sent as a fragment.
func EscapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

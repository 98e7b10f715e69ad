package staticfile

import (
	"bytes"
	"errors"
	"strings"
)

// maxURILen mirrors http.c's parse_uri bound check (SHORTLINE >> 1, with
// SHORTLINE == 512). original_source performs this check *after* already
// having begun writing into the filename buffer via strcpy/strncat — a
// bug spec.md §9 flags (REDESIGN FLAGS). This realization checks the bound
// before touching the filename at all, so an over-long URI never causes any
// write in the first place.
const maxURILen = 256

// ErrURITooLong is returned when the URI (before the query string, if any)
// is maxURILen bytes or longer.
var ErrURITooLong = errors.New("staticfile: uri too long")

// ResolveFilename turns a request URI into a filesystem path under webRoot,
// following parse_uri's rules: strip everything from '?' onward (query
// strings are a declared non-goal), reject overlong URIs, and default a
// directory-looking path to its index.html.
func ResolveFilename(webRoot string, uri []byte) (string, error) {
	path := uri
	if i := bytes.IndexByte(uri, '?'); i >= 0 {
		path = uri[:i]
	}
	if len(path) >= maxURILen {
		return "", ErrURITooLong
	}

	filename := webRoot + string(path)

	lastSlash := strings.LastIndexByte(filename, '/')
	lastComponent := filename[lastSlash+1:]
	if !strings.Contains(lastComponent, ".") && !strings.HasSuffix(filename, "/") {
		filename += "/"
	}
	if strings.HasSuffix(filename, "/") {
		filename += "index.html"
	}

	return filename, nil
}

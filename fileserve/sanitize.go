package fileserve

import (
	"path"
	"strings"
)

// SanitizedPath is a slash-separated path relative to the served root. It
// holds no "..", "." or empty segments and no leading or trailing
// separator. The only way to obtain one is [Sanitize].
type SanitizedPath struct {
	p string
}

// Sanitize normalizes raw for use as a file name under the served root.
// Backslashes become slashes, NUL bytes are removed, and every empty, "."
// and ".." segment is dropped wherever it occurs. The result may be empty.
//
// Sanitize does no I/O and is idempotent.
func Sanitize(raw string) SanitizedPath {
	raw = strings.ReplaceAll(raw, "\x00", "")
	raw = strings.ReplaceAll(raw, `\`, "/")

	segs := strings.Split(raw, "/")
	kept := segs[:0]
	for _, s := range segs {
		switch s {
		case "", ".", "..":
			continue
		}
		kept = append(kept, s)
	}
	return SanitizedPath{p: strings.Join(kept, "/")}
}

func (p SanitizedPath) String() string { return p.p }

// IsEmpty reports whether the path collapsed to the root.
func (p SanitizedPath) IsEmpty() bool { return p.p == "" }

// Name returns the path in the form [io/fs.FS] expects; the root is ".".
func (p SanitizedPath) Name() string {
	if p.p == "" {
		return "."
	}
	return p.p
}

// Ext returns the lowercase extension of the last segment, without the dot.
func (p SanitizedPath) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p.p), "."))
}

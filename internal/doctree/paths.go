package doctree

import (
	"path"
	"strings"
)

// SourceExtensions are the file extensions recognized as documents.
var SourceExtensions = []string{".rst", ".md", ".txt"}

const unresolvedPrefix = "UNRESOLVED__"

// UnresolvedDependency encodes a reference target whose file is only known
// once every document has been parsed.
func UnresolvedDependency(role, target string) string {
	return unresolvedPrefix + role + "__" + target
}

// ParseUnresolvedDependency reverses UnresolvedDependency.
func ParseUnresolvedDependency(dep string) (role, target string, ok bool) {
	rest, found := strings.CutPrefix(dep, unresolvedPrefix)
	if !found {
		return "", "", false
	}
	role, target, ok = strings.Cut(rest, "__")
	return role, target, ok
}

// StripExtension removes a known source extension from p.
func StripExtension(p string) string {
	ext := path.Ext(p)
	for _, known := range SourceExtensions {
		if ext == known {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// ResolvePath resolves target against the directory of the document at
// current. A leading "/" makes target relative to the source root. The
// result is cleaned, slash separated and has no source extension.
func ResolvePath(current, target string) string {
	target = strings.TrimSpace(target)
	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(target)
	} else {
		p = path.Join("/", path.Dir(current), target)
	}
	return StripExtension(strings.TrimPrefix(p, "/"))
}

// Dir returns the directory of a logical document path, "" for the root.
func Dir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

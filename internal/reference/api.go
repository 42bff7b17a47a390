package reference

import (
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
)

type apiKind int

const (
	apiClass apiKind = iota
	apiMethod
	apiProperty
	apiConstant
	apiNamespace
)

var apiKinds = map[string]apiKind{
	"class":     apiClass,
	"method":    apiMethod,
	"property":  apiProperty,
	"const":     apiConstant,
	"namespace": apiNamespace,
}

// apiRole points into generated API documentation. The URL follows a
// fixed convention and does not consult the index:
//
//	App\Kernel::boot()  ->  <base>/classes/App-Kernel.html#method_boot
type apiRole struct {
	base string
	kind apiKind
}

func (r apiRole) Resolve(_ Context, ref *doctree.Reference) ResolvedReference {
	fqsen := strings.TrimPrefix(strings.TrimSpace(ref.Target), `\`)
	if fqsen == "" {
		return invalid(ref)
	}

	owner, member, hasMember := strings.Cut(fqsen, "::")
	var url string
	switch r.kind {
	case apiNamespace:
		url = r.base + "/namespaces/" + strings.ToLower(escapeFQSEN(fqsen)) + ".html"
	case apiClass:
		url = r.base + "/classes/" + escapeFQSEN(owner) + ".html"
	default:
		if !hasMember || member == "" {
			return invalid(ref)
		}
		url = r.base + "/classes/" + escapeFQSEN(owner) + ".html#" + memberAnchor(r.kind, member)
	}

	title := ref.Text
	if title == "" {
		title = fqsen
	}
	return ResolvedReference{
		Title:      title,
		URL:        url,
		Attributes: map[string]string{"title": fqsen},
	}
}

func escapeFQSEN(s string) string {
	return strings.Trim(strings.ReplaceAll(s, `\`, "-"), "-")
}

func memberAnchor(kind apiKind, member string) string {
	switch kind {
	case apiProperty:
		return "property_" + strings.TrimPrefix(member, "$")
	case apiConstant:
		return "constant_" + member
	default:
		return "method_" + strings.TrimSuffix(member, "()")
	}
}

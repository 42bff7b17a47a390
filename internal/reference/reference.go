// Package reference resolves inline roles such as :doc: and :ref: against
// the metadata index.
package reference

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/meta"
)

// ResolvedReference is the outcome of resolving one reference. An invalid
// reference keeps the original target so it can be rendered as text.
type ResolvedReference struct {
	File       string // logical path of the target document, empty for external targets
	Title      string
	URL        string // output path from the build root, or an absolute URL
	Attributes map[string]string
	Invalid    bool
	Target     string
}

// Text is the text to show for the reference.
func (r ResolvedReference) Text() string {
	if r.Invalid || r.Title == "" {
		return r.Target
	}
	return r.Title
}

func invalid(ref *doctree.Reference) ResolvedReference {
	target := ref.Text
	if target == "" {
		target = ref.Target
	}
	return ResolvedReference{Invalid: true, Target: target}
}

// Context is the document a reference appears in.
type Context struct {
	File  string
	Links map[string]string
}

// RoleResolver resolves references of one role.
type RoleResolver interface {
	Resolve(ctx Context, ref *doctree.Reference) ResolvedReference
}

// Resolver dispatches references to role resolvers.
type Resolver struct {
	metas *meta.Metas
	roles map[string]RoleResolver
	log   *slog.Logger
}

// New returns a resolver with the doc and ref roles plus the API roles
// (class, method, namespace, property, const) rooted at apiBase.
func New(metas *meta.Metas, apiBase string, log *slog.Logger) *Resolver {
	r := &Resolver{metas: metas, roles: make(map[string]RoleResolver), log: log}
	r.Register("doc", docRole{metas: metas})
	r.Register("ref", refRole{metas: metas})
	for role, kind := range apiKinds {
		r.Register(role, apiRole{base: strings.TrimRight(apiBase, "/"), kind: kind})
	}
	return r
}

// Register installs or replaces the resolver for role.
func (r *Resolver) Register(role string, rr RoleResolver) {
	r.roles[role] = rr
}

func (r *Resolver) Roles() []string {
	out := make([]string, 0, len(r.roles))
	for role := range r.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Resolve never fails: anything that cannot be resolved comes back with
// Invalid set.
func (r *Resolver) Resolve(ctx Context, ref *doctree.Reference) ResolvedReference {
	rr, ok := r.roles[ref.Role]
	if !ok {
		// "php:class" falls back to "class"
		if i := strings.LastIndexByte(ref.Role, ':'); i >= 0 {
			rr, ok = r.roles[ref.Role[i+1:]]
		}
	}
	if !ok {
		r.log.Warn("unknown role", "file", ctx.File, "role", ref.Role, "target", ref.Target)
		return invalid(ref)
	}
	res := rr.Resolve(ctx, ref)
	if res.Invalid {
		r.log.Warn("invalid reference", "file", ctx.File, "role", ref.Role, "target", ref.Target)
	}
	return res
}

// ResolveDependencies rewrites the unresolved placeholders recorded at
// parse time into the files they point at. Placeholders that still do not
// resolve are left in place.
func (r *Resolver) ResolveDependencies() {
	for _, e := range r.metas.All() {
		ctx := Context{File: e.File, Links: e.Links}
		for _, dep := range append([]string(nil), e.Depends...) {
			role, target, ok := doctree.ParseUnresolvedDependency(dep)
			if !ok {
				continue
			}
			res := r.Resolve(ctx, &doctree.Reference{Role: role, Target: target})
			if res.Invalid || res.File == "" {
				r.log.Warn("unresolved dependency", "file", e.File, "dependency", dep)
				continue
			}
			if err := e.ResolveDependency(dep, res.File); err != nil {
				r.log.Warn("resolve dependency", "file", e.File, "error", err)
			}
		}
	}
}

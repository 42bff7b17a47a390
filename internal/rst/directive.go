package rst

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dgallion1/guides/internal/doctree"
)

// Directive is one parsed ".. name:: data" invocation. It only lives for
// the duration of the handler call.
type Directive struct {
	Name     string
	Variable string // set by the "|name| directive::" substitution form
	Data     string
	Options  Options
	Body     string // raw indented body, dedented
}

// Option is a typed directive option value. Flag options (":glob:") carry
// no value.
type Option struct {
	Value string
	Flag  bool
}

type Options map[string]Option

func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Get returns the option value or def when the option is absent.
func (o Options) Get(key, def string) string {
	opt, ok := o[key]
	if !ok || opt.Flag {
		return def
	}
	return opt.Value
}

// Bool is true for flag options and for "true", "yes" or "1" values.
func (o Options) Bool(key string) bool {
	opt, ok := o[key]
	if !ok {
		return false
	}
	if opt.Flag {
		return true
	}
	switch strings.ToLower(opt.Value) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func (o Options) Int(key string, def int) (int, error) {
	opt, ok := o[key]
	if !ok || opt.Flag {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(opt.Value))
	if err != nil {
		return def, fmt.Errorf("option %q: %w", key, err)
	}
	return n, nil
}

// Handler is implemented by every directive. A handler must also implement
// exactly one of NodeHandler or BodyHandler; the parser picks the calling
// convention from that.
type Handler interface {
	Name() string
	Aliases() []string
}

// NodeHandler turns a directive without nested content into zero or one
// node. prev is the sibling node parsed just before the directive, or nil.
type NodeHandler interface {
	Handler
	Process(ctx *Context, prev doctree.Node, d Directive) (doctree.Node, error)
}

// BodyHandler wraps the directive body, parsed as a fragment. The body is
// required; a directive of this shape without one is a structural error.
type BodyHandler interface {
	Handler
	ProcessBody(ctx *Context, prev doctree.Node, d Directive, content *doctree.Fragment) (doctree.Node, error)
}

// InlineContent is implemented by body handlers whose content may start on
// the directive line, as in ".. note:: Keep this short.".
type InlineContent interface {
	InlineContent() bool
}

// Priority orders registrations for the same name. The highest priority
// wins; equal priorities resolve to the most recent registration.
type Priority int

const (
	PriorityBuiltin   Priority = 0
	PriorityExtension Priority = 100
)

// ErrAmbiguousDirective is returned by Lookup when two extensions claim the
// same name and at least one of them claims it through an alias.
var ErrAmbiguousDirective = errors.New("ambiguous directive")

type registration struct {
	handler  Handler
	priority Priority
	seq      int
	alias    bool
}

// Registry maps directive names and aliases to handlers. Names are case
// sensitive.
type Registry struct {
	mu      sync.RWMutex
	seq     int
	entries map[string][]registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]registration)}
}

// Register adds h under its name and aliases at the given priority.
func (r *Registry) Register(h Handler, priority Priority) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	add := func(name string, alias bool) {
		if name == "" {
			return
		}
		r.entries[name] = append(r.entries[name], registration{
			handler:  h,
			priority: priority,
			seq:      r.seq,
			alias:    alias,
		})
	}
	add(h.Name(), false)
	for _, a := range h.Aliases() {
		add(a, true)
	}
}

// Lookup returns the handler for name, or nil when none is registered.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := r.entries[name]
	if len(regs) == 0 {
		return nil, nil
	}

	top := regs[0].priority
	for _, reg := range regs[1:] {
		if reg.priority > top {
			top = reg.priority
		}
	}

	var winner registration
	var contenders []registration
	for _, reg := range regs {
		if reg.priority != top {
			continue
		}
		contenders = append(contenders, reg)
		if reg.seq > winner.seq {
			winner = reg
		}
	}

	// Primary-name collisions are overrides. Alias collisions between
	// extensions have no defined order and are reported instead.
	if top > PriorityBuiltin {
		for _, reg := range contenders {
			if reg.seq != winner.seq && (reg.alias || winner.alias) {
				return nil, fmt.Errorf("%w: %q is claimed by more than one extension", ErrAmbiguousDirective, name)
			}
		}
	}
	return winner.handler, nil
}

// Names lists every registered name and alias.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

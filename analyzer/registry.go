// Copyright © 2024 The LISPC authors

package analyzer

import (
	"sort"
	"strings"

	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
)

// Expander rewrites a macro call into a new form.
type Expander func(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error)

// Definition is a global definition.
type Definition struct {
	Ns   string
	Name string
	// Value is the analyzed initializer.  It is nil for core definitions
	// and for declared names.
	Value ast.Node
	// Meta is a map of metadata.
	Meta *lisp.LVal

	expander Expander
	native   nativeFn
}

// IsMacro returns true if the definition is a macro.
func (d *Definition) IsMacro() bool {
	return metaFlag(d.Meta, "macro")
}

// IsPrivate returns true if the definition is hidden from other namespaces.
func (d *Definition) IsPrivate() bool {
	return metaFlag(d.Meta, "private")
}

// Doc returns the docstring of the definition, if any.
func (d *Definition) Doc() string {
	if d.Meta == nil || d.Meta.Map == nil {
		return ""
	}
	v, ok := d.Meta.Map.Get(lisp.Keyword("doc"))
	if !ok || v.Type != lisp.LString {
		return ""
	}
	return v.Str
}

// Kind labels the definition for display: macro, builtin, function or
// variable.
func (d *Definition) Kind() string {
	switch {
	case d.IsMacro():
		return "macro"
	case d.Value == nil:
		return "builtin"
	}
	if _, ok := d.Value.(*ast.FnNode); ok {
		return "function"
	}
	return "variable"
}

// Signature renders a call of a function definition with its parameter
// vector, e.g. (add [a & more]).  It is empty for other definitions.
func (d *Definition) Signature() string {
	fn, ok := d.Value.(*ast.FnNode)
	if !ok {
		return ""
	}
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Str
	}
	if fn.IsVariadic && len(names) > 0 {
		names[len(names)-1] = "& " + names[len(names)-1]
	}
	return "(" + d.Name + " [" + strings.Join(names, " ") + "])"
}

func metaFlag(meta *lisp.LVal, name string) bool {
	if meta == nil || meta.Map == nil {
		return false
	}
	v, ok := meta.Map.Get(lisp.Keyword(name))
	return ok && v.IsTruthy()
}

// Namespace holds the definitions and imports of one namespace.
type Namespace struct {
	Name string

	defs           map[string]*Definition
	requireAliases map[string]string
	refers         map[string]string
	useAliases     map[string]string
	interfaces     map[string]*ast.DefInterfaceNode
	classes        map[string]ast.Node
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		Name:           name,
		defs:           make(map[string]*Definition),
		requireAliases: make(map[string]string),
		refers:         make(map[string]string),
		useAliases:     make(map[string]string),
		interfaces:     make(map[string]*ast.DefInterfaceNode),
		classes:        make(map[string]ast.Node),
	}
}

// Registry is the global environment of a compilation session: every
// namespace and its definitions.  A Registry is not safe for concurrent use.
type Registry struct {
	namespaces map[string]*Namespace
	current    string

	// undo holds the inverse of each change made since Begin, while
	// recording is set.
	undo      []func()
	recording bool
}

// NewRegistry returns a registry containing the core namespace.  The
// current namespace is lisp.DefaultNamespace.
func NewRegistry() *Registry {
	r := &Registry{
		namespaces: make(map[string]*Namespace),
		current:    lisp.DefaultNamespace,
	}
	core := r.Namespace(lisp.CoreNamespace)
	for name, fn := range coreFunctions {
		core.defs[name] = &Definition{
			Ns:     lisp.CoreNamespace,
			Name:   name,
			Meta:   lisp.Map(),
			native: fn,
		}
	}
	for name, exp := range coreMacros {
		core.defs[name] = &Definition{
			Ns:       lisp.CoreNamespace,
			Name:     name,
			Meta:     lisp.Map(lisp.Keyword("macro"), lisp.Bool(true)),
			expander: exp,
		}
	}
	r.Namespace(lisp.DefaultNamespace)
	return r
}

// Namespace returns the namespace named name, creating it if necessary.
func (r *Registry) Namespace(name string) *Namespace {
	ns, ok := r.namespaces[name]
	if !ok {
		ns = newNamespace(name)
		setEntry(r, r.namespaces, name, ns)
	}
	return ns
}

// CurrentNamespace returns the namespace of the form being analyzed.
func (r *Registry) CurrentNamespace() string {
	return r.current
}

// SetCurrentNamespace switches the namespace of subsequent forms.
func (r *Registry) SetCurrentNamespace(name string) {
	r.Namespace(name)
	if r.recording {
		prev := r.current
		r.undo = append(r.undo, func() { r.current = prev })
	}
	r.current = name
}

// Begin starts recording changes so that a failed top-level form can be
// undone with Rollback.  Recording continues until Commit or Rollback.
func (r *Registry) Begin() {
	r.undo = r.undo[:0]
	r.recording = true
}

// Commit keeps the changes made since Begin.
func (r *Registry) Commit() {
	r.undo = r.undo[:0]
	r.recording = false
}

// Rollback reverts every change made since Begin, newest first.
func (r *Registry) Rollback() {
	for i := len(r.undo) - 1; i >= 0; i-- {
		r.undo[i]()
	}
	r.undo = r.undo[:0]
	r.recording = false
}

// setEntry sets m[key] to v, recording the previous entry when r is
// recording.
func setEntry[V any](r *Registry, m map[string]V, key string, v V) {
	if r.recording {
		prev, had := m[key]
		r.undo = append(r.undo, func() {
			if had {
				m[key] = prev
			} else {
				delete(m, key)
			}
		})
	}
	m[key] = v
}

// AddDefinition defines name in ns, replacing any previous definition.
func (r *Registry) AddDefinition(ns string, name string, value ast.Node, meta *lisp.LVal) *Definition {
	if meta == nil {
		meta = lisp.Map()
	}
	def := &Definition{Ns: ns, Name: name, Value: value, Meta: meta}
	setEntry(r, r.Namespace(ns).defs, name, def)
	return def
}

// Definition returns the definition of name in ns.
func (r *Registry) Definition(ns string, name string) (*Definition, bool) {
	n, ok := r.namespaces[ns]
	if !ok {
		return nil, false
	}
	def, ok := n.defs[name]
	return def, ok
}

// AddRequireAlias lets ns refer to the namespace required as alias.
func (r *Registry) AddRequireAlias(ns string, alias string, required string) {
	setEntry(r, r.Namespace(ns).requireAliases, alias, required)
}

// AddRefer makes name from namespace from visible unqualified in ns.
func (r *Registry) AddRefer(ns string, name string, from string) {
	setEntry(r, r.Namespace(ns).refers, name, from)
}

// AddUseAlias lets ns refer to the host class by alias.
func (r *Registry) AddUseAlias(ns string, alias string, class string) {
	setEntry(r, r.Namespace(ns).useAliases, alias, class)
}

// UseAlias returns the host class imported into ns as alias.
func (r *Registry) UseAlias(ns string, alias string) (string, bool) {
	n, ok := r.namespaces[ns]
	if !ok {
		return "", false
	}
	class, ok := n.useAliases[alias]
	return class, ok
}

// AddInterface records an interface defined in ns.
func (r *Registry) AddInterface(ns string, node *ast.DefInterfaceNode) {
	setEntry(r, r.Namespace(ns).interfaces, node.Name, node)
	r.AddClass(ns, node.Name, node)
}

// Interface returns the interface name defined in ns.
func (r *Registry) Interface(ns string, name string) (*ast.DefInterfaceNode, bool) {
	n, ok := r.namespaces[ns]
	if !ok {
		return nil, false
	}
	iface, ok := n.interfaces[name]
	return iface, ok
}

// AddClass records a host class (struct, exception or interface) defined in
// ns.
func (r *Registry) AddClass(ns string, name string, node ast.Node) {
	setEntry(r, r.Namespace(ns).classes, name, node)
}

// Class returns the class name defined in ns.
func (r *Registry) Class(ns string, name string) (ast.Node, bool) {
	n, ok := r.namespaces[ns]
	if !ok {
		return nil, false
	}
	node, ok := n.classes[name]
	return node, ok
}

// resolveNamespace returns the namespace denoted by name within ns, which
// is either a require alias or a namespace name.
func (r *Registry) resolveNamespace(ns string, name string) string {
	if n, ok := r.namespaces[ns]; ok {
		if required, ok := n.requireAliases[name]; ok {
			return required
		}
	}
	return name
}

// lookup returns the global definition sym refers to from namespace ns.
// Private definitions of other namespaces are not visible.
func (r *Registry) lookup(ns string, sym *lisp.LVal) (*Definition, bool) {
	visible := func(def *Definition, ok bool) (*Definition, bool) {
		if !ok || (def.IsPrivate() && def.Ns != ns) {
			return nil, false
		}
		return def, true
	}
	if sym.Ns != "" {
		return visible(r.Definition(r.resolveNamespace(ns, sym.Ns), sym.Str))
	}
	if n, ok := r.namespaces[ns]; ok {
		if from, ok := n.refers[sym.Str]; ok {
			if def, ok := visible(r.Definition(from, sym.Str)); ok {
				return def, true
			}
		}
		if def, ok := n.defs[sym.Str]; ok {
			return def, true
		}
	}
	return visible(r.Definition(lisp.CoreNamespace, sym.Str))
}

// Lookup returns the definition the symbol text name refers to from
// namespace ns.
func (r *Registry) Lookup(ns string, name string) (*Definition, bool) {
	return r.lookup(ns, lisp.ParseSymbol(name))
}

// QualifySymbol returns the namespace-qualified name of the global
// definition sym refers to in the current namespace.
func (r *Registry) QualifySymbol(sym *lisp.LVal) (*lisp.LVal, bool) {
	def, ok := r.lookup(r.current, sym)
	if !ok {
		return nil, false
	}
	return lisp.NsSymbol(def.Ns, def.Name), true
}

// Names returns the symbols visible unqualified from ns, sorted.
func (r *Registry) Names(ns string) []string {
	seen := make(map[string]bool)
	add := func(n *Namespace, private bool) {
		for name, def := range n.defs {
			if private || !def.IsPrivate() {
				seen[name] = true
			}
		}
	}
	if core, ok := r.namespaces[lisp.CoreNamespace]; ok {
		add(core, false)
	}
	if n, ok := r.namespaces[ns]; ok {
		add(n, true)
		for name := range n.refers {
			seen[name] = true
		}
		for alias, required := range n.requireAliases {
			if other, ok := r.namespaces[required]; ok {
				for name, def := range other.defs {
					if !def.IsPrivate() {
						seen[alias+"/"+name] = true
					}
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespaces returns the names of all namespaces, sorted.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the definitions of ns sorted by name.
func (r *Registry) Definitions(ns string) []*Definition {
	n, ok := r.namespaces[ns]
	if !ok {
		return nil
	}
	defs := make([]*Definition, 0, len(n.defs))
	for _, def := range n.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// className returns the absolute host name of a class defined in ns.
func className(ns string, name string) string {
	return `\` + ns + `\` + name
}

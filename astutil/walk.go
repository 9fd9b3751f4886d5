// Copyright © 2024 The LISPC authors

// Package astutil provides shared walking utilities for concrete syntax
// trees.
//
// These helpers are used by the language server to find definitions and
// bindings in documents that may not compile.
package astutil

import "github.com/luthersystems/lispc/parser/cst"

// Walk calls fn for every form in the tree, depth-first.  Trivia is
// skipped.  parent is nil for top-level forms.
func Walk(forms []cst.Node, fn func(node cst.Node, parent cst.Node, depth int)) {
	for _, form := range forms {
		walkNode(form, nil, 0, fn)
	}
}

func walkNode(node cst.Node, parent cst.Node, depth int, fn func(cst.Node, cst.Node, int)) {
	if node == nil || node.IsTrivia() {
		return
	}
	fn(node, parent, depth)
	// Quasiquoted forms are code templates.  Forms like (defn ~name ...)
	// inside them are data, not definitions.
	if q, ok := node.(*cst.QuoteNode); ok && q.Kind == cst.Quasiquote {
		return
	}
	for _, child := range cst.Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkCalls calls fn for every parenthesized list with a symbol head, the
// potential calls, macro uses and special forms of the tree.
func WalkCalls(forms []cst.Node, fn func(call *cst.List, depth int)) {
	Walk(forms, func(node cst.Node, _ cst.Node, depth int) {
		if list, ok := node.(*cst.List); ok && HeadSymbol(list) != "" {
			fn(list, depth)
		}
	})
}

// SymbolText returns the text of a symbol atom, looking through metadata.
func SymbolText(n cst.Node) (string, bool) {
	if m, ok := n.(*cst.Meta); ok {
		n = m.Target
	}
	atom, ok := n.(*cst.Atom)
	if !ok || atom.Kind != cst.AtomSymbol {
		return "", false
	}
	return atom.Text(), true
}

// HeadSymbol returns the symbol at the head of a parenthesized list, or "".
func HeadSymbol(n cst.Node) string {
	head, _ := CallForm(n)
	return head
}

// CallForm returns the head symbol and the argument forms of a
// parenthesized list.
func CallForm(n cst.Node) (string, []cst.Node) {
	list, ok := n.(*cst.List)
	if !ok || list.Kind != cst.ListParen {
		return "", nil
	}
	forms := list.Forms()
	if len(forms) == 0 {
		return "", nil
	}
	head, ok := SymbolText(forms[0])
	if !ok {
		return "", nil
	}
	return head, forms[1:]
}

// ArgCount returns the number of arguments of a call, excluding the head.
func ArgCount(n cst.Node) int {
	_, args := CallForm(n)
	return len(args)
}

// UserDefined returns the set of names defined or bound in the tree.  This
// includes:
//   - names defined by def, defn, defmacro and their private variants
//   - parameter names of defn, defmacro and fn
//   - names bound by let and loop
//
// The result is file-global (not scope-aware).
func UserDefined(forms []cst.Node) map[string]bool {
	defs := make(map[string]bool)
	WalkCalls(forms, func(call *cst.List, _ int) {
		head, args := CallForm(call)
		switch head {
		case "def", "defn", "defn-", "defmacro", "defmacro-":
			if len(args) == 0 {
				return
			}
			if name, ok := SymbolText(args[0]); ok {
				defs[name] = true
			}
			if head == "def" {
				return
			}
			for _, arg := range args[1:] {
				if isVector(arg) {
					CollectFormals(arg, defs)
					return
				}
			}
		case "fn":
			for _, arg := range args {
				if isVector(arg) {
					CollectFormals(arg, defs)
					return
				}
			}
		case "let", "loop":
			if len(args) == 0 || !isVector(args[0]) {
				return
			}
			bindings := args[0].(*cst.List).Forms()
			for i := 0; i < len(bindings); i += 2 {
				CollectFormals(bindings[i], defs)
			}
		}
	})
	return defs
}

// CollectFormals adds the symbols bound by a parameter or binding form to
// defs.  Destructuring vectors are searched recursively.  The & marker and
// the ignored name _ are skipped.
func CollectFormals(formals cst.Node, defs map[string]bool) {
	if name, ok := SymbolText(formals); ok {
		if name != "&" && name != "_" {
			defs[name] = true
		}
		return
	}
	if !isVector(formals) {
		return
	}
	for _, f := range formals.(*cst.List).Forms() {
		CollectFormals(f, defs)
	}
}

func isVector(n cst.Node) bool {
	list, ok := n.(*cst.List)
	return ok && list.Kind == cst.ListVector
}

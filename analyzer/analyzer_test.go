// Copyright © 2024 The LISPC authors

package analyzer

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/parser/rdparser"
	"github.com/luthersystems/lispc/reader"
)

// analyzeAll reads and analyzes each top-level form of src in order,
// returning the nodes.  Forms are read one at a time so quasiquoted symbols
// are qualified against earlier definitions.
func analyzeAll(t *testing.T, a *Analyzer, src string) ([]ast.Node, error) {
	t.Helper()
	p := rdparser.NewString("test", src)
	r := reader.New(reader.WithResolver(a.Registry()))
	var nodes []ast.Node
	for {
		form, _, err := p.ParseForm()
		if errors.Is(err, io.EOF) {
			return nodes, nil
		}
		require.NoError(t, err)
		v, err := r.Read(form)
		require.NoError(t, err)
		node, err := a.AnalyzeTopLevel(v)
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, node)
	}
}

// analyzeLast returns the node of the last form in src.
func analyzeLast(t *testing.T, a *Analyzer, src string) ast.Node {
	t.Helper()
	nodes, err := analyzeAll(t, a, src)
	require.NoError(t, err, src)
	require.NotEmpty(t, nodes)
	return nodes[len(nodes)-1]
}

func analyzeErr(t *testing.T, a *Analyzer, src string) *Error {
	t.Helper()
	_, err := analyzeAll(t, a, src)
	require.Error(t, err, src)
	var aerr *Error
	require.True(t, errors.As(err, &aerr), "%T: %v", err, err)
	return aerr
}

func newTestAnalyzer() *Analyzer {
	return New(NewRegistry())
}

func TestAnalyzeLiterals(t *testing.T) {
	a := newTestAnalyzer()
	for _, src := range []string{`1`, `2.5`, `"s"`, `:k`, `nil`, `true`} {
		node := analyzeLast(t, a, src)
		lit, ok := node.(*ast.LiteralNode)
		require.True(t, ok, "%s: %T", src, node)
		assert.Equal(t, src, lit.Value.String())
	}
	node := analyzeLast(t, a, `()`)
	assert.IsType(t, &ast.QuoteNode{}, node)
	node = analyzeLast(t, a, `[1 :a]`)
	require.IsType(t, &ast.VectorNode{}, node)
	assert.Len(t, node.(*ast.VectorNode).Args, 2)
	node = analyzeLast(t, a, `{:a 1}`)
	require.IsType(t, &ast.MapNode{}, node)
	assert.Len(t, node.(*ast.MapNode).Args, 2)
	node = analyzeLast(t, a, `#{:a 1}`)
	assert.IsType(t, &ast.TableNode{}, node)
}

func TestUnresolvedSymbol(t *testing.T) {
	a := newTestAnalyzer()
	err := analyzeErr(t, a, "(def mapv 1)\n(def filter2 2)\n  mep")
	assert.Equal(t, "Cannot resolve symbol 'mep'", err.Msg)
	require.NotNil(t, err.Start())
	assert.Equal(t, 3, err.Start().Line)
	assert.Equal(t, 3, err.Start().Col)
	require.NotEmpty(t, err.Suggestions)
	assert.LessOrEqual(t, len(err.Suggestions), 3)
	assert.Equal(t, "map", err.Suggestions[0])
	assert.Contains(t, err.Error(), "test:3:3: Cannot resolve symbol 'mep'")

	err = analyzeErr(t, a, `(let [count2 1] cuont2)`)
	require.NotEmpty(t, err.Suggestions)
	assert.Equal(t, "count2", err.Suggestions[0])
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       []string
	}{
		{"mep", []string{"map", "mapv", "filter"}, []string{"map", "mapv"}},
		{"map", []string{"map", "mapv"}, []string{"mapv"}},
		{"ab", []string{"x", "abd", "b", "abc", "a"}, []string{"a", "abc", "abd"}},
		{"zzzz", []string{"a", "map"}, []string{}},
		{"mep", []string{"mapv", "map", "map"}, []string{"map", "mapv"}},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Suggest(test.name, test.candidates), test.name)
	}
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("abc", "abc", 3))
	assert.Equal(t, 1, editDistance("mep", "map", 3))
	assert.Equal(t, 3, editDistance("kitten", "sitting", 3))
	assert.Equal(t, 4, editDistance("", "abcd", 3))
	assert.Equal(t, 4, editDistance("abcdefgh", "zzzzzzzz", 3))
	long := strings.Repeat("a", 300)
	assert.Equal(t, 0, editDistance(long+"x", long+"y", 3))
}

func TestResolveOrder(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(def x 1) (let [x 2] x)`)
	let := node.(*ast.LetNode)
	assert.IsType(t, &ast.LocalVarNode{}, let.Body)

	node = analyzeLast(t, a, `x`)
	gv := node.(*ast.GlobalVarNode)
	assert.Equal(t, "user", gv.Ns)
	assert.Equal(t, "x", gv.Name)

	node = analyzeLast(t, a, `count`)
	gv = node.(*ast.GlobalVarNode)
	assert.Equal(t, lisp.CoreNamespace, gv.Ns)

	node = analyzeLast(t, a, `php/strlen`)
	assert.Equal(t, "strlen", node.(*ast.PhpVarNode).Name)

	node = analyzeLast(t, a, `\DateTime`)
	assert.Equal(t, `\DateTime`, node.(*ast.PhpClassNameNode).Name)
}

func TestNamespaces(t *testing.T) {
	a := newTestAnalyzer()
	src := `
(ns app\util)
(def helper 1)
(def ^:private secret 2)
(ns app\main
  (:require app\util :as u :refer [helper])
  (:use \Some\Clock :as C))
`
	nodes, err := analyzeAll(t, a, src)
	require.NoError(t, err)
	ns := nodes[len(nodes)-1].(*ast.NsNode)
	assert.Equal(t, `app\main`, ns.Ns)
	assert.Equal(t, []string{`app\util`}, ns.Requires)
	require.Len(t, ns.Uses, 1)
	assert.Equal(t, &ast.UseAlias{Class: `\Some\Clock`, Alias: "C"}, ns.Uses[0])
	assert.Equal(t, `app\main`, a.Registry().CurrentNamespace())

	for _, src := range []string{`helper`, `u/helper`, `app\util/helper`} {
		gv := analyzeLast(t, a, src).(*ast.GlobalVarNode)
		assert.Equal(t, `app\util`, gv.Ns, src)
		assert.Equal(t, "helper", gv.Name, src)
	}
	aerr := analyzeErr(t, a, `u/secret`)
	assert.Equal(t, "Cannot resolve symbol 'u/secret'", aerr.Msg)

	node := analyzeLast(t, a, `(php/new C)`)
	assert.Equal(t, `\Some\Clock`, node.(*ast.PhpNewNode).Class.(*ast.PhpClassNameNode).Name)

	aerr = analyzeErr(t, a, `(ns x (:import y))`)
	assert.Contains(t, aerr.Msg, "unknown 'ns clause")
}

func TestDef(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(def ^:private x "docs" 1)`)
	def := node.(*ast.DefNode)
	assert.Equal(t, "user", def.Ns)
	assert.Equal(t, "x", def.Name)
	assert.True(t, def.Meta.Map.Has(lisp.Keyword("private")))
	doc, _ := def.Meta.Map.Get(lisp.Keyword("doc"))
	assert.Equal(t, "docs", doc.Str)
	assert.IsType(t, &ast.LiteralNode{}, def.Init)
	assert.True(t, def.Init.Env().IsContext(ast.Expression))
	_, ok := a.Registry().Definition("user", "x")
	assert.True(t, ok)

	node = analyzeLast(t, a, `(def f (fn [n] (f n)))`)
	fn := node.(*ast.DefNode).Init.(*ast.FnNode)
	assert.Equal(t, `user\f`, fn.Env().BoundTo())

	err := analyzeErr(t, a, `(def y (def z 1))`)
	assert.Equal(t, "'def inside of a 'def is forbidden", err.Msg)
	err = analyzeErr(t, a, `(def bad undefined-thing)`)
	assert.Equal(t, "Cannot resolve symbol 'undefined-thing'", err.Msg)
	_, ok = a.Registry().Definition("user", "bad")
	assert.False(t, ok, "failed definitions are removed")
	err = analyzeErr(t, a, `(def a/b 1)`)
	assert.Contains(t, err.Msg, "unqualified symbol")
}

func TestBoundToOnlyAppliesToInit(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(def g (identity (fn [] 1)))`)
	call := node.(*ast.DefNode).Init.(*ast.CallNode)
	assert.Equal(t, "", call.Args[0].Env().BoundTo())
}

func TestIf(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(if true 1)`)
	n := node.(*ast.IfNode)
	assert.True(t, n.Test.Env().IsContext(ast.Expression))
	assert.True(t, n.Then.Env().IsContext(ast.Statement))
	assert.True(t, n.Else.(*ast.LiteralNode).Value.IsNil())

	err := analyzeErr(t, a, `(if)`)
	assert.Equal(t, "'if requires two or three arguments", err.Msg)
}

func TestDo(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(do 1 2 3)`)
	n := node.(*ast.DoNode)
	assert.Len(t, n.Stmts, 2)
	assert.True(t, n.Stmts[0].Env().IsContext(ast.Statement))
	assert.True(t, n.Ret.Env().IsContext(ast.Statement))

	node = analyzeLast(t, a, `(php/+ 1 (do 2 3))`)
	arg := node.(*ast.CallNode).Args[1].(*ast.DoNode)
	assert.True(t, arg.Env().IsContext(ast.Expression))
	assert.True(t, arg.Ret.Env().IsContext(ast.Return))

	node = analyzeLast(t, a, `(do)`)
	assert.True(t, node.(*ast.LiteralNode).Value.IsNil())
}

func TestFn(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(fn [x & more] x)`)
	fn := node.(*ast.FnNode)
	assert.True(t, fn.IsVariadic)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "more", fn.Params[1].Str)
	body := fn.Body.(*ast.LocalVarNode)
	assert.Equal(t, "x", body.Name.Str)
	assert.True(t, body.Env().IsContext(ast.Return))
	assert.False(t, fn.Recurs)

	node = analyzeLast(t, a, `(let [a 1 b 2] (fn [b] (fn [c] a)))`)
	outer := node.(*ast.LetNode).Body.(*ast.FnNode)
	require.Len(t, outer.Uses, 1)
	assert.Equal(t, "a", outer.Uses[0].Str)
	inner := outer.Body.(*ast.FnNode)
	var uses []string
	for _, u := range inner.Uses {
		uses = append(uses, u.Str)
	}
	assert.Equal(t, []string{"a", "b"}, uses)

	node = analyzeLast(t, a, `(fn [[a b] {:k c}] c)`)
	fn = node.(*ast.FnNode)
	require.Len(t, fn.Params, 2)
	assert.True(t, strings.HasPrefix(fn.Params[0].Str, "G__"))
	assert.IsType(t, &ast.LetNode{}, fn.Body)

	err := analyzeErr(t, a, `(fn x)`)
	assert.Equal(t, "First argument of 'fn must be a vector", err.Msg)
}

func TestLetShadowing(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(let [x 1 x (php/+ x 1)] x)`)
	let := node.(*ast.LetNode)
	require.Len(t, let.Bindings, 2)
	first, second := let.Bindings[0], let.Bindings[1]
	assert.Equal(t, "x", first.Shadow.Str)
	assert.NotEqual(t, "x", second.Shadow.Str)
	assert.True(t, strings.HasPrefix(second.Shadow.Str, "x__"))
	init := second.Init.(*ast.CallNode)
	assert.Equal(t, "x", init.Args[0].(*ast.LocalVarNode).Name.Str)
	assert.Equal(t, second.Shadow.Str, let.Body.(*ast.LocalVarNode).Name.Str)

	err := analyzeErr(t, a, `(let [x] x)`)
	assert.Equal(t, "Bindings must be a even number of parameters", err.Msg)
	err = analyzeErr(t, a, `(let x x)`)
	assert.Equal(t, "Binding parameter must be a vector", err.Msg)
}

func TestLetDestructuring(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(let [[a b] [1 2] {:k c} {:k 3}] (php/+ a b c))`)
	let := node.(*ast.LetNode)
	var names []string
	for _, b := range let.Bindings {
		if !strings.HasPrefix(b.Symbol.Str, "G__") {
			names = append(names, b.Symbol.Str)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestRecur(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(fn [n acc] (if (php/== n 0) acc (recur (php/- n 1) (php/* acc n))))`)
	fn := node.(*ast.FnNode)
	assert.True(t, fn.Recurs)
	rec := fn.Body.(*ast.IfNode).Else.(*ast.RecurNode)
	assert.Len(t, rec.Args, 2)
	assert.Equal(t, fn.Params, rec.Frame.Params)

	node = analyzeLast(t, a, `(loop [i 0] (if (php/< i 10) (recur (php/+ i 1)) i))`)
	let := node.(*ast.LetNode)
	assert.True(t, let.IsLoop)
	assert.True(t, let.Recurs)

	node = analyzeLast(t, a, `(php/+ 1 (loop [i 0] (if (php/< i 10) (recur (php/+ i 1)) i)))`)
	loop := node.(*ast.CallNode).Args[1].(*ast.LetNode)
	assert.True(t, loop.Body.Env().IsContext(ast.Return))

	tests := []struct {
		src string
		msg string
	}{
		{`(recur 1)`, "Can't call 'recur here"},
		{`(fn [x] (php/+ 1 (recur 1)))`, "Can't call 'recur here"},
		{`(fn [x] (do (recur 1) 2))`, "Can't call 'recur here"},
		{`(fn [x] (if (recur 1) 1 2))`, "Can't call 'recur here"},
		{`(fn [x] (let [y (recur 1)] y))`, "Can't call 'recur here"},
		{`(fn [x] [(recur 1)])`, "Can't call 'recur here"},
		{`(loop [i 0] (try (recur 1) (finally 2)))`, "Can't call 'recur here"},
		{`(fn [x] (recur 1 2))`, "Wrong number of arguments for 'recur. Expected: 1 args, got: 2"},
		{`(loop [a 1 b 2] (recur 1))`, "Wrong number of arguments for 'recur. Expected: 2 args, got: 1"},
	}
	for _, test := range tests {
		err := analyzeErr(t, a, test.src)
		assert.Equal(t, test.msg, err.Msg, test.src)
	}
}

func TestLoopDestructuring(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(loop [[x & xs] [1 2 3] acc 0] (if x (recur xs (php/+ acc x)) acc))`)
	let := node.(*ast.LetNode)
	assert.True(t, let.IsLoop)
	assert.True(t, let.Recurs)
	require.Len(t, let.Bindings, 2)
	assert.True(t, strings.HasPrefix(let.Bindings[0].Symbol.Str, "G__"))
	assert.Equal(t, "acc", let.Bindings[1].Symbol.Str)
}

func TestTry(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(try (php/risky) (catch \RuntimeException e (php/-> e (getMessage))) (catch Exception e 2) (finally 3))`)
	try := node.(*ast.TryNode)
	require.Len(t, try.Catches, 2)
	assert.Equal(t, `\RuntimeException`, try.Catches[0].Type.Name)
	assert.Equal(t, `\Exception`, try.Catches[1].Type.Name)
	assert.Equal(t, "e", try.Catches[0].Name.Str)
	assert.NotNil(t, try.Finally)
	assert.True(t, try.Finally.Env().IsContext(ast.Statement))

	node = analyzeLast(t, a, `(try 1)`)
	assert.IsType(t, &ast.LiteralNode{}, node)

	err := analyzeErr(t, a, `(try (finally 1) 2)`)
	assert.Contains(t, err.Msg, "must precede")
}

func TestThrowApplyForeach(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(throw (php/new \Exception "x"))`)
	assert.IsType(t, &ast.PhpNewNode{}, node.(*ast.ThrowNode).Exception)

	node = analyzeLast(t, a, `(apply php/+ 1 [2 3])`)
	apply := node.(*ast.ApplyNode)
	assert.True(t, apply.Fn.(*ast.PhpVarNode).IsInfix())
	assert.Len(t, apply.Args, 2)

	node = analyzeLast(t, a, `(foreach [k v #{:a 1}] (php/print k))`)
	fe := node.(*ast.ForeachNode)
	assert.Equal(t, "k", fe.Key.Str)
	assert.Equal(t, "v", fe.Value.Str)
	assert.True(t, fe.Body.Env().IsContext(ast.Statement))

	node = analyzeLast(t, a, `(foreach [[a b] [[1 2]]] (php/print a))`)
	fe = node.(*ast.ForeachNode)
	assert.Nil(t, fe.Key)
	assert.IsType(t, &ast.LetNode{}, fe.Body)

	err := analyzeErr(t, a, `(throw)`)
	assert.Equal(t, "'throw requires exactly one argument", err.Msg)
	err = analyzeErr(t, a, `(apply f)`)
	assert.Equal(t, "'apply requires at least two arguments", err.Msg)
}

func TestPhpInterop(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(php/-> (php/new \DateTime) (format "Y") length)`)
	prop := node.(*ast.PhpObjectCallNode)
	assert.True(t, prop.IsProperty)
	assert.Equal(t, "length", prop.Name)
	call := prop.Target.(*ast.PhpObjectCallNode)
	assert.Equal(t, "format", call.Name)
	assert.Len(t, call.Args, 1)

	node = analyzeLast(t, a, `(php/:: \DateTime (createFromFormat "Y" "2024"))`)
	static := node.(*ast.PhpObjectCallNode)
	assert.True(t, static.IsStatic)
	assert.Equal(t, `\DateTime`, static.Target.(*ast.PhpClassNameNode).Name)

	node = analyzeLast(t, a, `(let [o (php/new \stdClass)] (php/oset (php/-> o x) 1))`)
	assert.IsType(t, &ast.PhpObjectSetNode{}, node.(*ast.LetNode).Body)

	node = analyzeLast(t, a, `(let [arr #{}] (php/aset arr :k 1) (php/apush arr 2) (php/aunset arr :k) (php/aget arr 0))`)
	do := node.(*ast.LetNode).Body.(*ast.DoNode)
	assert.IsType(t, &ast.PhpArraySetNode{}, do.Stmts[0])
	assert.IsType(t, &ast.PhpArrayPushNode{}, do.Stmts[1])
	assert.IsType(t, &ast.PhpArrayUnsetNode{}, do.Stmts[2])
	assert.IsType(t, &ast.PhpArrayGetNode{}, do.Ret)

	err := analyzeErr(t, a, `(php/oset 1 2)`)
	assert.Contains(t, err.Msg, "property access")
	err = analyzeErr(t, a, `(php/+)`)
	assert.Equal(t, "operator php/+ requires at least one argument", err.Msg)
}

func TestSetVar(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(def v 1) (set-var v 2)`)
	sv := node.(*ast.SetVarNode)
	assert.IsType(t, &ast.GlobalVarNode{}, sv.Var)
}

func TestCoreMacros(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(when true 1 2)`)
	assert.IsType(t, &ast.DoNode{}, node.(*ast.IfNode).Then)

	node = analyzeLast(t, a, `(when-not true 1)`)
	assert.True(t, node.(*ast.IfNode).Then.(*ast.LiteralNode).Value.IsNil())

	node = analyzeLast(t, a, `(cond false 1 :else 2)`)
	cond := node.(*ast.IfNode)
	assert.True(t, cond.Else.(*ast.IfNode).Test.(*ast.LiteralNode).Value.IsTruthy())

	node = analyzeLast(t, a, `(defn- add "adds" [a b] (php/+ a b))`)
	def := node.(*ast.DefNode)
	assert.True(t, metaFlag(def.Meta, "private"))
	assert.IsType(t, &ast.FnNode{}, def.Init)

	node = analyzeLast(t, a, `(-> 1 (php/+ 2) (php/* 3))`)
	outer := node.(*ast.CallNode)
	assert.Equal(t, "*", outer.Fn.(*ast.PhpVarNode).Name)
	assert.IsType(t, &ast.CallNode{}, outer.Args[0])

	node = analyzeLast(t, a, `(->> 1 (php/- 2))`)
	assert.IsType(t, &ast.LiteralNode{}, node.(*ast.CallNode).Args[1])

	node = analyzeLast(t, a, `(and 1 2)`)
	assert.IsType(t, &ast.LetNode{}, node)
	node = analyzeLast(t, a, `(or)`)
	assert.True(t, node.(*ast.LiteralNode).Value.IsNil())

	node = analyzeLast(t, a, `(if-let [x 1] x 2)`)
	assert.IsType(t, &ast.LetNode{}, node)
	node = analyzeLast(t, a, `(dotimes [i 3] (php/print i))`)
	assert.True(t, node.(*ast.LetNode).Body.(*ast.LetNode).IsLoop)

	node = analyzeLast(t, a, `(comment anything (goes here))`)
	assert.True(t, node.(*ast.LiteralNode).Value.IsNil())

	node = analyzeLast(t, a, `(declare later) (defn uses-later [] (later))`)
	assert.IsType(t, &ast.DefNode{}, node)

	err := analyzeErr(t, a, `and`)
	assert.Equal(t, "Can't take the value of macro 'and'", err.Msg)
	err = analyzeErr(t, a, `(cond 1)`)
	assert.Equal(t, "'cond requires an even number of forms", err.Msg)
}

func TestUserMacros(t *testing.T) {
	a := newTestAnalyzer()
	src := "(defmacro unless [test & body] `(if ~test nil (do ~@body)))\n(unless false 1 2)"
	node := analyzeLast(t, a, src)
	n := node.(*ast.IfNode)
	assert.Equal(t, "false", n.Test.(*ast.LiteralNode).Value.String())
	assert.True(t, n.Then.(*ast.LiteralNode).Value.IsNil())
	assert.Len(t, n.Else.(*ast.DoNode).Stmts, 1)
	require.NotNil(t, n.Loc())
	assert.Equal(t, 2, n.Loc().Line)

	src = `
(defn- twice [x] (list x x))
(defmacro dup [x] (apply list 'do (twice x)))
(dup (php/print 1))`
	node = analyzeLast(t, a, src)
	assert.Len(t, node.(*ast.DoNode).Stmts, 1)

	src = `
(defmacro count-args [& args] (loop [xs args n 0] (if xs (recur (next xs) (inc n)) n)))
(count-args a b c)`
	node = analyzeLast(t, a, src)
	assert.Equal(t, int64(3), node.(*ast.LiteralNode).Value.Int)

	exp, ok, err := a.Macroexpand(lisp.List(lisp.Symbol("unless"), lisp.Bool(true)), ast.NewNodeEnvironment())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "(if true nil (do))", exp.String())

	err2 := analyzeErr(t, a, "(defmacro broken [] (php/strlen \"x\"))\n(broken)")
	assert.Contains(t, err2.Msg, "error expanding macro broken")
}

func TestMacroExpansionLimit(t *testing.T) {
	a := New(NewRegistry(), WithMaxExpansions(10))
	err := analyzeErr(t, a, "(defmacro forever [] '(forever))\n(forever)")
	assert.Equal(t, "macro expansion limit of 10 exceeded", err.Msg)
}

func TestLocalShadowsMacro(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(fn [when] (when 1))`)
	assert.IsType(t, &ast.CallNode{}, node.(*ast.FnNode).Body)
}

// quotedSymbols collects the quoted symbols with the given name prefix.
func quotedSymbols(n ast.Node, prefix string) []string {
	var out []string
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch n := n.(type) {
		case *ast.QuoteNode:
			if n.Value.Type == lisp.LSymbol && strings.HasPrefix(n.Value.Str, prefix) {
				out = append(out, n.Value.Str)
			}
		case *ast.ApplyNode:
			walk(n.Fn)
			for _, arg := range n.Args {
				walk(arg)
			}
		case *ast.CallNode:
			walk(n.Fn)
			for _, arg := range n.Args {
				walk(arg)
			}
		case *ast.LetNode:
			for _, b := range n.Bindings {
				walk(b.Init)
			}
			walk(n.Body)
		}
	}
	walk(n)
	return out
}

func TestGensymScoping(t *testing.T) {
	a := newTestAnalyzer()
	src := "(let [x 'a] `(let [v# ~x] v#))\n(let [x 'a] `(let [v# ~x] v#))"
	nodes, err := analyzeAll(t, a, src)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	first := quotedSymbols(nodes[0], "v__")
	second := quotedSymbols(nodes[1], "v__")
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, first[0], first[1])
	assert.Equal(t, second[0], second[1])
	assert.NotEqual(t, first[0], second[0])
}

func TestDefStruct(t *testing.T) {
	a := newTestAnalyzer()
	src := `
(definterface Shape (area [this] "Computes the area"))
(defstruct rect [w h] Shape (area [this] (php/* w h)))
(area (rect 2 3))
(rect? 1)`
	nodes, err := analyzeAll(t, a, src)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	iface := nodes[0].(*ast.DoNode).Stmts[0].(*ast.DefInterfaceNode)
	assert.Equal(t, "Shape", iface.Name)
	require.Len(t, iface.Methods, 1)
	assert.Equal(t, "Computes the area", iface.Methods[0].Comment)

	do := nodes[1].(*ast.DoNode)
	st := do.Stmts[0].(*ast.DefStructNode)
	assert.Equal(t, "rect", st.Name)
	require.Len(t, st.Interfaces, 1)
	assert.Equal(t, "Shape", st.Interfaces[0].Name)
	require.Len(t, st.Interfaces[0].Methods, 1)
	ctor := do.Stmts[1].(*ast.DefNode).Init.(*ast.FnNode)
	newNode := ctor.Body.(*ast.PhpNewNode)
	assert.Equal(t, `\user\rect`, newNode.Class.(*ast.PhpClassNameNode).Name)

	pred := nodes[3].(*ast.CallNode)
	assert.Equal(t, "rect?", pred.Fn.(*ast.GlobalVarNode).Name)

	aerr := analyzeErr(t, a, `(defstruct bad [x] Missing)`)
	assert.Equal(t, "Interface 'Missing' is not defined", aerr.Msg)
	aerr = analyzeErr(t, a, `(defstruct partial [x] Shape)`)
	assert.Contains(t, aerr.Msg, "must implement every method")
}

func TestDefException(t *testing.T) {
	a := newTestAnalyzer()
	node := analyzeLast(t, a, `(defexception my-error)`)
	exc := node.(*ast.DefExceptionNode)
	assert.Equal(t, `\Exception`, exc.Parent.Name)
	node = analyzeLast(t, a, `(try 1 (catch my-error e e))`)
	assert.Equal(t, `\user\my-error`, node.(*ast.TryNode).Catches[0].Type.Name)
}

func TestIsSpecialForm(t *testing.T) {
	assert.True(t, IsSpecialForm(lisp.Symbol("if")))
	assert.True(t, IsSpecialForm(lisp.NsSymbol("php", "new")))
	assert.False(t, IsSpecialForm(lisp.NsSymbol("user", "if")))
	assert.False(t, IsSpecialForm(lisp.Symbol("defn")))
}

func TestRegistryLookup(t *testing.T) {
	a := newTestAnalyzer()
	_, err := analyzeAll(t, a, `
(ns app\util)
(defn helper "Helps." [x] x)
(defn va [a & more] a)
(def ^:private secret 2)
(ns app\main (:require app\util :as u))
`)
	require.NoError(t, err)
	reg := a.Registry()

	def, ok := reg.Lookup(`app\main`, "u/helper")
	require.True(t, ok)
	assert.Equal(t, `app\util`, def.Ns)
	assert.Equal(t, "Helps.", def.Doc())
	assert.False(t, def.IsMacro())
	assert.Equal(t, "function", def.Kind())
	assert.Equal(t, "(helper [x])", def.Signature())

	def, ok = reg.Lookup(`app\util`, "va")
	require.True(t, ok)
	assert.Equal(t, "(va [a & more])", def.Signature())

	def, ok = reg.Lookup(`app\main`, "when")
	require.True(t, ok)
	assert.Equal(t, lisp.CoreNamespace, def.Ns)
	assert.True(t, def.IsMacro())
	assert.Equal(t, "macro", def.Kind())
	assert.Empty(t, def.Signature())

	def, ok = reg.Lookup(`app\util`, "secret")
	require.True(t, ok)
	assert.Empty(t, def.Doc())
	assert.Equal(t, "variable", def.Kind())

	def, ok = reg.Lookup(`app\main`, "first")
	require.True(t, ok)
	assert.Equal(t, "builtin", def.Kind())

	_, ok = reg.Lookup(`app\main`, "u/secret")
	assert.False(t, ok)
	_, ok = reg.Lookup(`app\main`, "nope")
	assert.False(t, ok)
}

func TestRegistryRollback(t *testing.T) {
	reg := NewRegistry()
	kept := reg.AddDefinition("user", "kept", nil, nil)

	reg.Begin()
	reg.AddDefinition("user", "kept", nil, nil)
	reg.AddDefinition("user", "temp", nil, nil)
	reg.SetCurrentNamespace("scratch")
	reg.AddRequireAlias("scratch", "u", "user")
	reg.AddUseAlias("scratch", "Dt", `\DateTime`)
	reg.Rollback()

	def, ok := reg.Definition("user", "kept")
	require.True(t, ok)
	assert.Same(t, kept, def)
	_, ok = reg.Definition("user", "temp")
	assert.False(t, ok)
	assert.Equal(t, "user", reg.CurrentNamespace())
	assert.NotContains(t, reg.Namespaces(), "scratch")

	reg.Begin()
	reg.AddDefinition("user", "temp", nil, nil)
	reg.Commit()
	reg.Rollback()
	_, ok = reg.Definition("user", "temp")
	assert.True(t, ok)
}

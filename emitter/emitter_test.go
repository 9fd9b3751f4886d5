// Copyright © 2024 The LISPC authors

package emitter

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/analyzer"
	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/parser/rdparser"
	"github.com/luthersystems/lispc/reader"
	"github.com/luthersystems/lispc/sourcemap"
)

// emitAll analyzes and emits each top-level form of src.
func emitAll(t *testing.T, e *Emitter, src string) string {
	t.Helper()
	a := analyzer.New(analyzer.NewRegistry())
	p := rdparser.NewString("test", src)
	r := reader.New(reader.WithResolver(a.Registry()))
	for {
		form, _, err := p.ParseForm()
		if errors.Is(err, io.EOF) {
			return e.Result().Code
		}
		require.NoError(t, err)
		v, err := r.Read(form)
		require.NoError(t, err)
		node, err := a.AnalyzeTopLevel(v)
		require.NoError(t, err, src)
		require.NoError(t, e.EmitNode(node), src)
	}
}

func TestEmitStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"literal", `1`, "1;\n"},
		{"infix", `(php/+ 1 2 3)`, "(1 + 2 + 3);\n"},
		{"unary minus", `(php/- 1)`, "(-1);\n"},
		{"host call", `(php/strlen "abc")`, "strlen(\"abc\");\n"},
		{"def", `(def x 1)`, `\Lispc\Lang\Registry::getInstance()->addDefinition("user", "x", 1);` + "\n"},
		{"global", "(def x 1)\nx", `\Lispc\Lang\Registry::getInstance()->addDefinition("user", "x", 1);` + "\n" +
			`\Lispc\Lang\Registry::getInstance()->getDefinition("user", "x");` + "\n"},
		{"let", `(let [x 1] (php/+ x 2))`, "$x = 1;\n($x + 2);\n"},
		{"if without else", `(if true 1)`, "if (\\Lispc\\Lang\\Truthy::isTruthy(true)) {\n  1;\n}\n"},
		{"if", `(if true 1 2)`, "if (\\Lispc\\Lang\\Truthy::isTruthy(true)) {\n  1;\n} else {\n  2;\n}\n"},
		{"ternary", `(php/strlen (if true "a" "bc"))`, "strlen((\\Lispc\\Lang\\Truthy::isTruthy(true) ? \"a\" : \"bc\"));\n"},
		{"ns", `(ns my-app\util)`, "namespace my_app\\util;\n"},
		{"new", `(php/new \DateTime "now")`, "new \\DateTime(\"now\");\n"},
		{"array get", `(let [a (php/array)] (php/aget a 0))`, "$a = array();\n($a[0] ?? null);\n"},
		{"array push", `(let [a (php/array)] (php/apush a 1))`, "$a = array();\n$a[] = 1;\n"},
		{"array unset", `(let [a (php/array)] (php/aunset a 0))`, "$a = array();\nunset($a[0]);\n"},
		{"throw", `(throw (php/new \Exception "x"))`, "throw new \\Exception(\"x\");\n"},
		{"foreach", `(foreach [x (php/array)] (php/strlen x))`, "foreach ((array() ?? []) as $x) {\n  strlen($x);\n}\n"},
		{"exception", `(defexception* MyError)`, "class MyError extends \\Exception {}\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			code := emitAll(t, New(), test.src)
			assert.Equal(t, test.code, code)
		})
	}
}

func TestEmitBlockInExpression(t *testing.T) {
	code := emitAll(t, New(), `(php/strlen (let [x "a"] x))`)
	assert.Equal(t, "strlen((function() {\n  $x = \"a\";\n  return $x;\n})());\n", code)

	code = emitAll(t, New(), `(let [y 1] (php/strlen (do (php/print y) y)))`)
	assert.Contains(t, code, "(function() use (&$y) {\n")
	assert.Contains(t, code, "  print($y);\n  return $y;\n")
}

func TestEmitFn(t *testing.T) {
	code := emitAll(t, New(), `(def f (fn [a] a))`)
	expect := `\Lispc\Lang\Registry::getInstance()->addDefinition("user", "f", new class() extends \Lispc\Lang\AbstractFn {
  public const BOUND_TO = "user\\f";
  public function __invoke($a) {
    return $a;
  }
});
`
	assert.Equal(t, expect, code)

	code = emitAll(t, New(), `(let [x 1] (fn [y & more] (php/+ x y)))`)
	assert.Contains(t, code, "new class($x) extends \\Lispc\\Lang\\AbstractFn {\n")
	assert.Contains(t, code, "  private $x;\n")
	assert.Contains(t, code, "    $this->x = $x;\n")
	assert.Contains(t, code, "  public function __invoke($y, ...$more) {\n")
	assert.Contains(t, code, "    $x = $this->x;\n")
	assert.Contains(t, code, "    $more = \\Lispc\\Lang\\TypeFactory::getInstance()->persistentListFromArray($more);\n")
	assert.Contains(t, code, "    return ($x + $y);\n")
	assert.NotContains(t, code, "BOUND_TO")
}

func TestEmitLoop(t *testing.T) {
	code := emitAll(t, New(), `(loop [i 0] (if (php/< i 10) (recur (php/+ i 1)) i))`)
	expect := `$i = 0;
while (true) {
  if (\Lispc\Lang\Truthy::isTruthy(($i < 10))) {
    $__recur_1 = ($i + 1);
    $i = $__recur_1;
    continue;
  } else {
    $i;
  }
  break;
}
`
	assert.Equal(t, expect, code)
}

func TestEmitShadowedLocals(t *testing.T) {
	code := emitAll(t, New(), `(let [x 1] (let [x (php/+ x 1)] x))`)
	lines := strings.Split(strings.TrimSpace(code), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "$x = 1;", lines[0])
	assert.Regexp(t, `^\$x__\d+ = \(\$x \+ 1\);$`, lines[1])
	assert.Regexp(t, `^\$x__\d+;$`, lines[2])
}

func TestEmitApply(t *testing.T) {
	code := emitAll(t, New(), `(apply php/max 1 [2 3])`)
	assert.Equal(t, "max(1, ...((\\Lispc\\Lang\\TypeFactory::getInstance()->persistentVectorFromArray([2, 3])) ?? []));\n", code)

	code = emitAll(t, New(), `(apply php/+ [1 2])`)
	assert.Contains(t, code, "array_reduce(array_slice($xs, 1), function($a, $b) { return ($a + $b); }, $xs[0])")
}

func TestEmitQuote(t *testing.T) {
	code := emitAll(t, New(), `'(a :b "c")`)
	assert.Equal(t, `\Lispc\Lang\TypeFactory::getInstance()->persistentListFromArray([\Lispc\Lang\Symbol::create("a"), \Lispc\Lang\Keyword::create("b"), "c"]);`+"\n", code)
}

func TestEmitTry(t *testing.T) {
	code := emitAll(t, New(), `(try (php/strlen "a") (catch \Exception e (php/print e)) (finally (php/print "done")))`)
	expect := `try {
  strlen("a");
} catch (\Exception $e) {
  print($e);
} finally {
  print("done");
}
`
	assert.Equal(t, expect, code)
}

func TestEmitStruct(t *testing.T) {
	src := `(definterface Shape (area [this] "Computes the area."))
(defstruct Rect [w h] Shape (area [this] (php/* w h)))`
	code := emitAll(t, New(), src)
	assert.Contains(t, code, "interface Shape {\n  /** Computes the area. */\n  public function area();\n}\n")
	assert.Contains(t, code, "class Rect implements \\user\\Shape {\n")
	assert.Contains(t, code, "  public $w;\n  public $h;\n")
	assert.Contains(t, code, "  public function __construct($w, $h) {\n    $this->w = $w;\n    $this->h = $h;\n  }\n")
	assert.Contains(t, code, "  public function area() {\n    $__this = $this;\n    $w = $this->w;\n    $h = $this->h;\n    return ($w * $h);\n  }\n")
}

func TestEmitErrorDiscardsForm(t *testing.T) {
	e := New()
	env := ast.NewNodeEnvironment().WithContext(ast.Expression)
	node := &ast.NsNode{Base: ast.Base{Environment: env}, Ns: "x"}
	_, err := e.Emit(node)
	require.Error(t, err)
	var eerr *Error
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "namespace declarations must be top-level statements", eerr.Error())
	assert.Nil(t, eerr.Start())
	assert.Equal(t, "", e.Result().Code)
}

func TestEmitRaw(t *testing.T) {
	e := New()
	e.EmitRaw("<?php\n")
	code := emitAll(t, e, `1`)
	assert.Equal(t, "<?php\n1;\n", code)
}

func TestSourceMap(t *testing.T) {
	e := New(WithSourceMap(true))
	e.EmitRaw("<?php\n")
	emitAll(t, e, "(def x 1)\n\n(php/strlen \"a\")")
	res := e.Result()
	assert.Equal(t, []string{"test"}, res.Sources)
	assert.Equal(t, "test", res.OriginalSourceName)

	c, err := sourcemap.NewConsumer(res.SourceMap)
	require.NoError(t, err)
	assert.Equal(t, 0, c.OriginalLine(1))
	assert.Equal(t, 1, c.OriginalLine(2))
	assert.Equal(t, 3, c.OriginalLine(3))

	b, err := res.SourceMapJSON("out.php")
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, float64(3), doc["version"])
	assert.Equal(t, "out.php", doc["file"])
	assert.Equal(t, res.SourceMap, doc["mappings"])
}

func TestSourceMapDisabled(t *testing.T) {
	e := New()
	emitAll(t, e, `(def x 1)`)
	res := e.Result()
	assert.Empty(t, res.SourceMap)
	assert.Empty(t, res.Sources)
}

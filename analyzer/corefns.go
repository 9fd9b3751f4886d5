// Copyright © 2024 The LISPC authors

package analyzer

import (
	"fmt"
	"strings"

	"github.com/luthersystems/lispc/lisp"
)

// coreFunctions are the functions of the core namespace available while
// expanding macros.  The generated code calls the host implementation of the
// same names.
var coreFunctions map[string]nativeFn

// hostOperators are the host operators available while expanding macros.
var hostOperators map[string]nativeFn

func init() {
	coreFunctions = map[string]nativeFn{
		"list":     coreList,
		"vector":   coreVector,
		"hash-map": coreHashMap,
		"table":    coreTable,
		"concat":   coreConcat,
		"cons":     coreCons,
		"conj":     coreConj,
		"first":    coreFirst,
		"second":   coreSecond,
		"next":     coreNext,
		"rest":     coreRest,
		"count":    coreCount,
		"nth":      coreNth,
		"get":      coreGet,
		"vec":      coreVec,
		"str":      coreStr,
		"symbol":   coreSymbol,
		"keyword":  coreKeyword,
		"name":     coreName,
		"gensym":   coreGensym,
		"=":        coreEqual,
		"not":      coreNot,
		"identity": coreIdentity,
		"nil?":     typePredicate(lisp.LNil),
		"symbol?":  typePredicate(lisp.LSymbol),
		"keyword?": typePredicate(lisp.LKeyword),
		"string?":  typePredicate(lisp.LString),
		"list?":    typePredicate(lisp.LList),
		"vector?":  typePredicate(lisp.LVector),
		"map?":     typePredicate(lisp.LMap),
		"number?":  typePredicate(lisp.LInt, lisp.LFloat),
		"empty?":   coreEmpty,
		"map":      coreMap,
		"filter":   coreFilter,
		"reduce":   coreReduce,
		"+":        arithmetic("+"),
		"-":        arithmetic("-"),
		"*":        arithmetic("*"),
		"inc":      coreInc,
		"dec":      coreDec,
		"<":        comparison("<"),
		">":        comparison(">"),
		"<=":       comparison("<="),
		">=":       comparison(">="),
	}
	hostOperators = map[string]nativeFn{
		"+":   arithmetic("+"),
		"-":   arithmetic("-"),
		"*":   arithmetic("*"),
		".":   coreStr,
		"==":  coreEqual,
		"===": coreEqual,
		"<":   comparison("<"),
		">":   comparison(">"),
		"<=":  comparison("<="),
		">=":  comparison(">="),
	}
}

func arity(name string, args []*lisp.LVal, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return fmt.Errorf("wrong number of arguments to %s: %d", name, len(args))
	}
	return nil
}

// seqCells returns the elements of a sequence.  Nil is an empty sequence and
// maps are sequences of [key value] vectors.
func seqCells(v *lisp.LVal) ([]*lisp.LVal, error) {
	switch v.Type {
	case lisp.LNil:
		return nil, nil
	case lisp.LList, lisp.LVector:
		return v.Cells, nil
	case lisp.LMap, lisp.LTable:
		var cells []*lisp.LVal
		for _, e := range v.Map.Entries() {
			cells = append(cells, lisp.Vector(e.Key, e.Val))
		}
		return cells, nil
	case lisp.LString:
		var cells []*lisp.LVal
		for _, c := range v.Str {
			cells = append(cells, lisp.String(string(c)))
		}
		return cells, nil
	}
	return nil, fmt.Errorf("%s is not a sequence: %v", v.Type, v)
}

func copyCells(cells []*lisp.LVal) []*lisp.LVal {
	return append([]*lisp.LVal(nil), cells...)
}

func coreList(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	return lisp.List(copyCells(args)...), nil
}

func coreVector(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	return lisp.Vector(copyCells(args)...), nil
}

func coreHashMap(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("hash-map requires an even number of arguments")
	}
	return lisp.Map(args...), nil
}

func coreTable(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("table requires an even number of arguments")
	}
	return lisp.Table(args...), nil
}

func coreConcat(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	var cells []*lisp.LVal
	for _, arg := range args {
		xs, err := seqCells(arg)
		if err != nil {
			return nil, err
		}
		cells = append(cells, xs...)
	}
	return lisp.List(cells...), nil
}

func coreCons(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("cons", args, 2, 2); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[1])
	if err != nil {
		return nil, err
	}
	return lisp.List(append([]*lisp.LVal{args[0]}, xs...)...), nil
}

func coreConj(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("conj", args, 1, -1); err != nil {
		return nil, err
	}
	coll := args[0]
	switch coll.Type {
	case lisp.LNil, lisp.LList:
		cells := copyCells(coll.Cells)
		for _, x := range args[1:] {
			cells = append([]*lisp.LVal{x}, cells...)
		}
		return lisp.List(cells...), nil
	case lisp.LVector:
		return lisp.Vector(append(copyCells(coll.Cells), args[1:]...)...), nil
	}
	return nil, fmt.Errorf("conj is not supported on %s", coll.Type)
}

func coreFirst(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("first", args, 1, 1); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[0])
	if err != nil || len(xs) == 0 {
		return lisp.Nil(), err
	}
	return xs[0], nil
}

func coreSecond(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("second", args, 1, 1); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[0])
	if err != nil || len(xs) < 2 {
		return lisp.Nil(), err
	}
	return xs[1], nil
}

func coreNext(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("next", args, 1, 1); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[0])
	if err != nil || len(xs) < 2 {
		return lisp.Nil(), err
	}
	return lisp.List(copyCells(xs[1:])...), nil
}

func coreRest(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("rest", args, 1, 1); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[0])
	if err != nil || len(xs) == 0 {
		return lisp.List(), err
	}
	return lisp.List(copyCells(xs[1:])...), nil
}

func coreCount(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("count", args, 1, 1); err != nil {
		return nil, err
	}
	return lisp.Int(int64(args[0].Len())), nil
}

func coreNth(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("nth", args, 2, 3); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[0])
	if err != nil {
		return nil, err
	}
	if args[1].Type != lisp.LInt {
		return nil, fmt.Errorf("nth index must be an int: %v", args[1])
	}
	i := args[1].Int
	if i >= 0 && i < int64(len(xs)) {
		return xs[i], nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return nil, fmt.Errorf("index out of bounds: %d", i)
}

func coreGet(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("get", args, 2, 3); err != nil {
		return nil, err
	}
	notFound := lisp.Nil()
	if len(args) == 3 {
		notFound = args[2]
	}
	coll, key := args[0], args[1]
	switch coll.Type {
	case lisp.LMap, lisp.LTable:
		if v, ok := coll.Map.Get(key); ok {
			return v, nil
		}
	case lisp.LVector, lisp.LList:
		if key.Type == lisp.LInt && key.Int >= 0 && key.Int < int64(len(coll.Cells)) {
			return coll.Cells[key.Int], nil
		}
	}
	return notFound, nil
}

func coreVec(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("vec", args, 1, 1); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Vector(copyCells(xs)...), nil
}

func coreStr(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	var b strings.Builder
	for _, arg := range args {
		switch arg.Type {
		case lisp.LNil:
		case lisp.LString:
			b.WriteString(arg.Str)
		default:
			b.WriteString(arg.String())
		}
	}
	return lisp.String(b.String()), nil
}

func coreSymbol(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("symbol", args, 1, 2); err != nil {
		return nil, err
	}
	for _, arg := range args {
		if arg.Type != lisp.LString {
			return nil, fmt.Errorf("symbol expects string arguments: %v", arg)
		}
	}
	if len(args) == 2 {
		return lisp.NsSymbol(args[0].Str, args[1].Str), nil
	}
	return lisp.ParseSymbol(args[0].Str), nil
}

func coreKeyword(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("keyword", args, 1, 2); err != nil {
		return nil, err
	}
	for _, arg := range args {
		if arg.Type != lisp.LString {
			return nil, fmt.Errorf("keyword expects string arguments: %v", arg)
		}
	}
	if len(args) == 2 {
		return lisp.NsKeyword(args[0].Str, args[1].Str), nil
	}
	return lisp.Keyword(args[0].Str), nil
}

func coreName(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("name", args, 1, 1); err != nil {
		return nil, err
	}
	switch args[0].Type {
	case lisp.LSymbol, lisp.LKeyword, lisp.LString:
		return lisp.String(args[0].Str), nil
	}
	return nil, fmt.Errorf("name expects a symbol, keyword or string: %v", args[0])
}

func coreGensym(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("gensym", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if args[0].Type != lisp.LString {
			return nil, fmt.Errorf("gensym prefix must be a string: %v", args[0])
		}
		return lisp.GensymPrefix(args[0].Str), nil
	}
	return lisp.Gensym(), nil
}

func coreEqual(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	for i := 1; i < len(args); i++ {
		if !args[0].Equal(args[i]) {
			return lisp.Bool(false), nil
		}
	}
	return lisp.Bool(true), nil
}

func coreNot(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("not", args, 1, 1); err != nil {
		return nil, err
	}
	return lisp.Bool(!args[0].IsTruthy()), nil
}

func coreIdentity(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("identity", args, 1, 1); err != nil {
		return nil, err
	}
	return args[0], nil
}

func typePredicate(types ...lisp.LType) nativeFn {
	return func(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
		if err := arity("predicate", args, 1, 1); err != nil {
			return nil, err
		}
		for _, t := range types {
			if args[0].Type == t {
				return lisp.Bool(true), nil
			}
		}
		return lisp.Bool(false), nil
	}
}

func coreEmpty(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("empty?", args, 1, 1); err != nil {
		return nil, err
	}
	return lisp.Bool(args[0].Len() == 0), nil
}

func coreMap(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("map", args, 2, 2); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[1])
	if err != nil {
		return nil, err
	}
	out := make([]*lisp.LVal, len(xs))
	for i, x := range xs {
		out[i], err = ev.call(args[0], []*lisp.LVal{x})
		if err != nil {
			return nil, err
		}
	}
	return lisp.List(out...), nil
}

func coreFilter(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("filter", args, 2, 2); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[1])
	if err != nil {
		return nil, err
	}
	var out []*lisp.LVal
	for _, x := range xs {
		ok, err := ev.call(args[0], []*lisp.LVal{x})
		if err != nil {
			return nil, err
		}
		if ok.IsTruthy() {
			out = append(out, x)
		}
	}
	return lisp.List(out...), nil
}

func coreReduce(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("reduce", args, 3, 3); err != nil {
		return nil, err
	}
	xs, err := seqCells(args[2])
	if err != nil {
		return nil, err
	}
	acc := args[1]
	for _, x := range xs {
		acc, err = ev.call(args[0], []*lisp.LVal{acc, x})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func toFloat(v *lisp.LVal) float64 {
	if v.Type == lisp.LInt {
		return float64(v.Int)
	}
	return v.Float
}

func arithmetic(op string) nativeFn {
	return func(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
		isFloat := false
		for _, arg := range args {
			if !arg.IsNumeric() {
				return nil, fmt.Errorf("%s expects numbers: %v", op, arg)
			}
			isFloat = isFloat || arg.Type == lisp.LFloat
		}
		if len(args) == 0 {
			if op == "-" {
				return nil, fmt.Errorf("- requires at least one argument")
			}
			if op == "*" {
				return lisp.Int(1), nil
			}
			return lisp.Int(0), nil
		}
		if op == "-" && len(args) == 1 {
			args = []*lisp.LVal{lisp.Int(0), args[0]}
		}
		if isFloat {
			acc := toFloat(args[0])
			for _, arg := range args[1:] {
				switch op {
				case "+":
					acc += toFloat(arg)
				case "-":
					acc -= toFloat(arg)
				case "*":
					acc *= toFloat(arg)
				}
			}
			return lisp.Float(acc), nil
		}
		acc := args[0].Int
		for _, arg := range args[1:] {
			switch op {
			case "+":
				acc += arg.Int
			case "-":
				acc -= arg.Int
			case "*":
				acc *= arg.Int
			}
		}
		return lisp.Int(acc), nil
	}
}

func coreInc(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("inc", args, 1, 1); err != nil {
		return nil, err
	}
	return arithmetic("+")(ev, []*lisp.LVal{args[0], lisp.Int(1)})
}

func coreDec(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := arity("dec", args, 1, 1); err != nil {
		return nil, err
	}
	return arithmetic("-")(ev, []*lisp.LVal{args[0], lisp.Int(1)})
}

func comparison(op string) nativeFn {
	return func(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error) {
		if err := arity(op, args, 1, -1); err != nil {
			return nil, err
		}
		for _, arg := range args {
			if !arg.IsNumeric() {
				return nil, fmt.Errorf("%s expects numbers: %v", op, arg)
			}
		}
		for i := 1; i < len(args); i++ {
			x, y := toFloat(args[i-1]), toFloat(args[i])
			var ok bool
			switch op {
			case "<":
				ok = x < y
			case ">":
				ok = x > y
			case "<=":
				ok = x <= y
			case ">=":
				ok = x >= y
			}
			if !ok {
				return lisp.Bool(false), nil
			}
		}
		return lisp.Bool(true), nil
	}
}

package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEngine wraps expr-lang/expr with a compiled-program cache, keyed by
// the post-conversion expression text (condition/switch expressions repeat
// heavily across a run's node invocations, so recompiling every call would
// be wasted work).
type ExprEngine struct {
	programCache map[string]*vm.Program
}

func NewExprEngine() *ExprEngine {
	return &ExprEngine{programCache: make(map[string]*vm.Program)}
}

// EvaluateBoolean compiles expression (after syntax conversion) with
// expr.AsBool so a non-boolean result fails at compile time, then runs it
// against the environment built from input and ctx.
func (e *ExprEngine) EvaluateBoolean(expression string, input interface{}, ctx *Context) (bool, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	expression = convertSyntax(expression)
	env := e.buildEnvironment(input, ctx)

	program, cached := e.programCache[expression]
	if !cached {
		var err error
		program, err = expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("expression compilation failed: %w", err)
		}
		e.programCache[expression] = program
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("expression execution failed: %w", err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return boolean, got %T", output)
	}
	return result, nil
}

func (e *ExprEngine) buildEnvironment(input interface{}, ctx *Context) map[string]interface{} {
	env := make(map[string]interface{})
	addGuardFunctions(env)

	if ctx.NodeResults != nil {
		env["node"] = ctx.NodeResults
	}
	if ctx.Variables != nil {
		env["variables"] = ctx.Variables
		for k, v := range ctx.Variables {
			if k != "node" && k != "variables" && k != "context" {
				env[k] = v
			}
		}
	}
	if ctx.ContextVars != nil {
		env["context"] = ctx.ContextVars
	}
	if input != nil {
		env["item"] = input
		env["input"] = input
	}
	return env
}

// addGuardFunctions adds the string and null-handling helpers a boolean
// guard plausibly needs. Array/aggregation/date functions the teacher's
// transform-oriented engine carried are deliberately absent: nothing here
// evaluates a value-producing expression, only a predicate.
func addGuardFunctions(env map[string]interface{}) {
	env["contains"] = strings.Contains
	env["startsWith"] = strings.HasPrefix
	env["endsWith"] = strings.HasSuffix
	env["upper"] = strings.ToUpper
	env["lower"] = strings.ToLower
	env["trim"] = strings.TrimSpace

	env["isNull"] = func(v interface{}) bool { return v == nil }
	env["coalesce"] = func(args ...interface{}) interface{} {
		for _, arg := range args {
			if arg != nil {
				return arg
			}
		}
		return nil
	}
}

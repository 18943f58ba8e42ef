// Package expression evaluates the boolean guard expressions a condition or
// switch node's config carries, backed by expr-lang/expr.
package expression

import "sync"

// Context is the scope a guard expression evaluates against: the node's own
// result fields, the variables a caller wants visible under "variables.",
// and a fixed set of constants under "context.". All three are optional.
type Context struct {
	NodeResults map[string]interface{}
	Variables   map[string]interface{}
	ContextVars map[string]interface{}
}

var (
	globalEngine *ExprEngine
	engineOnce   sync.Once
)

func getEngine() *ExprEngine {
	engineOnce.Do(func() {
		globalEngine = NewExprEngine()
	})
	return globalEngine
}

// Evaluate compiles and runs expr against the given Context, with input
// additionally exposed under both "item" and "input" — condition and switch
// nodes call this with their own input map and nothing else. A non-boolean
// result is a compilation-time error (expr.AsBool rejects it), since a guard
// that doesn't reduce to true/false is a configuration mistake, not a value
// to coerce.
func Evaluate(expr string, input interface{}, ctx *Context) (bool, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	if input != nil {
		_, hasItem := ctx.Variables["item"]
		_, hasInput := ctx.Variables["input"]
		if !hasItem || !hasInput {
			merged := &Context{NodeResults: ctx.NodeResults, ContextVars: ctx.ContextVars, Variables: map[string]interface{}{}}
			for k, v := range ctx.Variables {
				merged.Variables[k] = v
			}
			if !hasItem {
				merged.Variables["item"] = input
			}
			if !hasInput {
				merged.Variables["input"] = input
			}
			ctx = merged
		}
	}
	return getEngine().EvaluateBoolean(expr, input, ctx)
}

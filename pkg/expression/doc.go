// Package expression evaluates the boolean guard expressions carried by the
// condition and switch node kinds (pkg/node/control.go). It is deliberately
// narrow: a condition or switch case is a single predicate over the node's
// input, never a value transform, so the package exposes one entry point,
// Evaluate, and nothing that produces a non-boolean result.
//
// # Syntax
//
// Expressions are evaluated by github.com/expr-lang/expr against an
// environment built from the node's input:
//
//	item.status == "ok"          // the node's input, also exposed as "input"
//	node.count > 10 && node.ok   // input fields reachable as top-level names too
//	contains(item.tags, "beta")
//	isNull(item.owner) || item.owner == "system"
//
// One native convenience is layered on top of expr-lang's own syntax:
// "field.length" is rewritten to "len(field)" before compilation, so
// conditions can read naturally without requiring the caller to know
// expr-lang's builtin name for it.
//
// # Functions
//
// Beyond expr-lang's builtins (len, abs, round, floor, ceil, min, max, ...),
// Evaluate's environment adds the string and null-handling helpers a
// predicate typically needs: contains, startsWith, endsWith, upper, lower,
// trim, and isNull/coalesce. It does not add array, aggregation, or
// date/time functions — those belong to a value-producing transform
// language, not a boolean guard, and are out of scope here.
package expression

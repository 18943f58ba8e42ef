package expression

import "regexp"

// lengthProperty matches "field.length" (with optional dotted/indexed
// prefixes) so it can be rewritten to expr-lang's len() builtin before
// compilation — the one native-syntax convenience conditions get beyond
// raw expr-lang. The map()-closure rewrite the teacher's converter also did
// has no caller here: a boolean guard never projects a collection, so it is
// dropped rather than carried as dead weight.
var lengthProperty = regexp.MustCompile(`(\w+(?:\.\w+|\[\d+\])*?)\.length\b`)

func convertSyntax(expression string) string {
	return lengthProperty.ReplaceAllString(expression, "len($1)")
}

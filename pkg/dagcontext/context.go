// Package dagcontext implements the shared, dotted-path-addressable data map
// passed to every node invocation, plus the {{dotted.key}} template engine
// that substitutes over it.
package dagcontext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// templatePattern matches {{ KEY }} where KEY is whitespace-trimmed and any
// sequence of characters other than '}'. Precompiled once, per the "treat
// the interpolator as pure over (template, lookup)" design note.
var templatePattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Context holds the two logical layers described in the data model: `data`
// (user/shared) and `variables` (template-scope). All access is dotted-path
// keyed and safe for concurrent readers; the executor is the single writer.
type Context struct {
	mu        sync.RWMutex
	data      map[string]any
	variables map[string]any
}

// New builds a Context seeded with initialData as the data layer.
func New(initialData map[string]any) *Context {
	return NewWithVariables(initialData, nil)
}

// NewWithVariables builds a Context with both layers seeded.
func NewWithVariables(data, variables map[string]any) *Context {
	c := &Context{data: map[string]any{}, variables: map[string]any{}}
	if data != nil {
		c.data = deepCopyMap(data)
	}
	if variables != nil {
		c.variables = deepCopyMap(variables)
	}
	return c
}

// Get looks up a dotted path, descending through nested maps.
func (c *Context) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := lookup(c.data, path); ok {
		return v, true
	}
	return lookup(c.variables, path)
}

// Has reports whether path resolves in data ∪ variables.
func (c *Context) Has(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// Set writes value at the dotted path within the data layer, creating
// intermediate maps as needed.
func (c *Context) Set(path string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setPath(c.data, path, value)
}

// SetVariable writes value at the dotted path within the variables layer.
func (c *Context) SetVariable(path string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setPath(c.variables, path, value)
}

// Remove deletes the value at path from the data layer, if present.
func (c *Context) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removePath(c.data, path)
}

// Merge recursively deep-merges m into the data layer. Corresponding keys
// merge when both values are maps; otherwise the right value (m's) wins.
// Sequence concatenation is not performed.
func (c *Context) Merge(m map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = deepMerge(c.data, m)
}

// MergeVariables deep-merges m into the variables layer.
func (c *Context) MergeVariables(m map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables = deepMerge(c.variables, m)
}

// ProcessTemplate substitutes every {{key}} occurrence in s by its value
// looked up via dotted path in data ∪ variables (data takes precedence).
// Unresolved or non-stringifiable keys are left verbatim, making the
// function idempotent: f(f(s)) == f(s) whenever s has no resolvable keys.
func (c *Context) ProcessTemplate(s string) string {
	return templatePattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := templatePattern.FindStringSubmatch(match)
		if len(sub) != 2 {
			return match
		}
		key := strings.TrimSpace(sub[1])
		val, ok := c.Get(key)
		if !ok {
			return match
		}
		str, ok := stringify(val)
		if !ok {
			return match
		}
		return str
	})
}

// ProcessTemplates deep-walks tree (maps, slices, strings, scalars) and
// substitutes every string leaf via ProcessTemplate, returning a new tree.
func (c *Context) ProcessTemplates(tree any) any {
	switch v := tree.(type) {
	case string:
		return c.ProcessTemplate(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = c.ProcessTemplates(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = c.ProcessTemplates(val)
		}
		return out
	default:
		return v
	}
}

// Snapshot returns a deep-copied, read-only view of the data layer suitable
// for passing into a node invocation. Node implementations must not mutate
// the returned value; the executor alone performs the single-writer update.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopyMap(c.data)
}

// VariablesSnapshot returns a deep-copied view of the variables layer.
func (c *Context) VariablesSnapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopyMap(c.variables)
}

func lookup(m map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := asMap[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func setPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
}

func removePath(m map[string]any, path string) {
	parts := strings.Split(path, ".")
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			delete(cur, p)
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
}

func deepMerge(left, right map[string]any) map[string]any {
	out := deepCopyMap(left)
	for k, rv := range right {
		if lv, ok := out[k]; ok {
			lvMap, lok := lv.(map[string]any)
			rvMap, rok := rv.(map[string]any)
			if lok && rok {
				out[k] = deepMerge(lvMap, rvMap)
				continue
			}
		}
		out[k] = deepCopyValue(rv)
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case nil:
		return "", false
	default:
		return "", false
	}
}

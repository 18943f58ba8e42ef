package node

import (
	"context"
	"fmt"

	"github.com/flowcraft/dagrunner/pkg/expression"
)

// conditionNode and switchNode are grounded on the teacher's
// control_condition.go/control_switch.go node executors, adapted onto the
// Node capability and wired to pkg/expression's expr-lang/expr-backed
// boolean evaluator instead of that package's custom ExecutionContext.

type conditionNode struct{ Base }

func newConditionNode(id, name string, config map[string]any) (Node, error) {
	return &conditionNode{Base: NewBase(id, name, "condition", config)}, nil
}

func (n *conditionNode) Validate() bool {
	_, ok := n.Config()["condition"].(string)
	return ok
}

func (n *conditionNode) Describe() Describe {
	return Describe{Description: "Evaluates a boolean expression and tags which branch it took", Category: "control", Icon: "git-branch"}
}

func (n *conditionNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	expr, ok := n.Config()["condition"].(string)
	if !ok || expr == "" {
		return &Result{Success: false, Error: "condition: missing condition expression"}, nil
	}

	met, err := expression.Evaluate(expr, input, exprContextFrom(input))
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("condition: %v", err)}, nil
	}

	path := "false"
	if met {
		path = "true"
	}
	return &Result{Success: true, Data: map[string]any{
		"value":       input,
		"condition":   expr,
		"conditionMet": met,
		"path":        path,
	}}, nil
}

// switchNode evaluates an ordered list of {"case": expr, "label": string}
// config entries and reports the first case that matched (or "default" if
// none did), grounded on control_switch.go's first-match-wins semantics.
type switchNode struct{ Base }

func newSwitchNode(id, name string, config map[string]any) (Node, error) {
	return &switchNode{Base: NewBase(id, name, "switch", config)}, nil
}

func (n *switchNode) Validate() bool {
	_, ok := n.Config()["cases"].([]any)
	return ok
}

func (n *switchNode) Describe() Describe {
	return Describe{Description: "Routes down the first matching case expression", Category: "control", Icon: "shuffle"}
}

func (n *switchNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	raw, ok := n.Config()["cases"].([]any)
	if !ok {
		return &Result{Success: false, Error: "switch: missing cases list"}, nil
	}

	exprCtx := exprContextFrom(input)
	for i, item := range raw {
		caseMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		condition, _ := caseMap["case"].(string)
		if condition == "" {
			continue
		}
		met, err := expression.Evaluate(condition, input, exprCtx)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("switch: case %d: %v", i, err)}, nil
		}
		if met {
			label, _ := caseMap["label"].(string)
			if label == "" {
				label = fmt.Sprintf("case_%d", i)
			}
			return &Result{Success: true, Data: map[string]any{"value": input, "label": label}}, nil
		}
	}
	return &Result{Success: true, Data: map[string]any{"value": input, "label": "default"}}, nil
}

// exprContextFrom exposes the node's assembled input map as both the node
// result set and the variable scope, since the core's Node contract doesn't
// hand built-in kinds the executor's full Context (that stays internal per
// §5's single-writer policy); a node only ever sees its own input.
func exprContextFrom(input map[string]any) *expression.Context {
	return &expression.Context{
		NodeResults: input,
		Variables:   input,
		ContextVars: map[string]any{},
	}
}

// RegisterControlFlow installs the condition/switch node kinds, the
// expression-evaluating counterparts to the four core built-ins.
func RegisterControlFlow(r *Registry) error {
	if err := r.Register("condition", newConditionNode, "if"); err != nil {
		return fmt.Errorf("node: register condition: %w", err)
	}
	if err := r.Register("switch", newSwitchNode, "case"); err != nil {
		return fmt.Errorf("node: register switch: %w", err)
	}
	return nil
}

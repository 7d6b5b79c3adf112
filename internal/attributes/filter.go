package attributes

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"gattscope/internal/event"
)

// Filter is a compiled event predicate.
type Filter struct {
	program *vm.Program
	rawExpr string
}

// NewFilter compiles the filter expression. An empty expression matches every
// event. Expressions whose static type is not boolean fail here.
func NewFilter(exprStr string) (*Filter, error) {
	if exprStr == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(exprStr, expr.Env(exprEnv), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", err)
	}

	return &Filter{program: program, rawExpr: exprStr}, nil
}

// Match evaluates the filter against one event. base is the capture's first
// event timestamp, anchoring the ts variable.
func (f *Filter) Match(ev *event.Event, base time.Time) (bool, error) {
	if f.program == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, Env(ev, base))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter expression %q: %w", f.rawExpr, err)
	}

	matched, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression %q produced %T, want bool", f.rawExpr, output)
	}
	return matched, nil
}

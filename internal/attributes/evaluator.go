package attributes

import (
	"fmt"
	"reflect"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.opentelemetry.io/otel/attribute"

	"gattscope/internal/config"
	"gattscope/internal/event"
)

// exprEnv is the typed environment expressions compile against.
var exprEnv = map[string]interface{}{
	"frame":  0,
	"conn":   0,
	"handle": 0,
	"op":     "",
	"value":  "",
	"ts":     0.0,
}

// Env builds the evaluation environment for one event. base is the timestamp
// of the capture's first event, anchoring the ts variable.
func Env(ev *event.Event, base time.Time) map[string]interface{} {
	return map[string]interface{}{
		"frame":  int(ev.Frame),
		"conn":   ev.Conn,
		"handle": int(ev.Handle),
		"op":     ev.Opcode.String(),
		"value":  ev.Value,
		"ts":     ev.Timestamp.Sub(base).Seconds(),
	}
}

// Evaluator handles compilation and evaluation of custom attribute expressions.
type Evaluator struct {
	customAttrs   []config.CustomAttribute
	compiledExprs []*vm.Program
}

// NewEvaluator creates a new attribute evaluator.
// It pre-compiles all custom attribute expressions for efficiency.
func NewEvaluator(customAttrs []config.CustomAttribute) (*Evaluator, error) {
	compiledExprs := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := expr.Compile(attr.Expression, expr.Env(exprEnv))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression for attribute %q: %w", attr.Name, err)
		}
		compiledExprs[i] = program
	}

	return &Evaluator{
		customAttrs:   customAttrs,
		compiledExprs: compiledExprs,
	}, nil
}

// EvaluateCustomAttributes evaluates the custom attribute expressions against
// one event. A runtime failure does not abort the rest: the failing attribute
// is skipped and an underscore-prefixed warning attribute records the error.
func (e *Evaluator) EvaluateCustomAttributes(ev *event.Event, base time.Time) []attribute.KeyValue {
	if len(e.customAttrs) == 0 || ev == nil {
		return nil
	}

	env := Env(ev, base)

	var attrs []attribute.KeyValue
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.compiledExprs[i], env)
		if err != nil {
			attrs = append(attrs, attribute.String("_"+customAttr.Name+"_eval_error", err.Error()))
			continue
		}

		// A map result expands into one attribute per key with dot notation.
		outputValue := reflect.ValueOf(output)
		if outputValue.Kind() == reflect.Map {
			for _, key := range outputValue.MapKeys() {
				keyStr := fmt.Sprintf("%v", key.Interface())
				attrName := customAttr.Name + "." + sanitizeAttributeName(keyStr)
				value := outputValue.MapIndex(key).Interface()
				attrs = append(attrs, attribute.String(attrName, fmt.Sprint(value)))
			}
		} else {
			attrs = append(attrs, attribute.String(customAttr.Name, fmt.Sprint(output)))
		}
	}

	return attrs
}

// sanitizeAttributeName replaces non-alphanumeric characters with underscores.
func sanitizeAttributeName(name string) string {
	result := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result[i] = c
		} else {
			result[i] = '_'
		}
	}
	return string(result)
}

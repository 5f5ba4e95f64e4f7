// Package program implements the small functional language question
// programs are written in: a list of primitive nodes, each consuming the
// outputs of earlier nodes, evaluated by walking the list against a scene
// graph.
package program

import (
	"fmt"

	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

// Execute evaluates an emitted program trace and returns the value of its
// last step.
func Execute(steps []Step, g *scene.Graph) (Value, error) {
	if len(steps) == 0 {
		return Value{}, fmt.Errorf("execute: empty program")
	}

	outputs := make([]Value, len(steps))
	for i, step := range steps {
		op, ok := Lookup(step.Type)
		if !ok {
			return Value{}, fmt.Errorf("execute: step %d: unknown op %q", i, step.Type)
		}

		in := make([]Value, len(step.Inputs))
		for k, idx := range step.Inputs {
			if idx < 0 || idx >= i {
				return Value{}, fmt.Errorf("execute: step %d: input %d out of range", i, idx)
			}
			in[k] = outputs[idx]
		}

		side := ""
		if op.Side != "" && len(step.ValueInputs) > 0 {
			side = step.ValueInputs[0]
		}

		v, err := op.Apply(g, in, side)
		if err != nil {
			return Value{}, fmt.Errorf("execute: step %d (%s): %w", i, step.Type, err)
		}
		outputs[i] = v
	}
	return outputs[len(outputs)-1], nil
}

// Replay re-executes a trace and returns the formatted answer.
func Replay(steps []Step, g *scene.Graph) (any, error) {
	v, err := Execute(steps, g)
	if err != nil {
		return nil, err
	}
	if !v.Kind.IsAnswer() {
		return nil, fmt.Errorf("replay: program ends in %s, not an answer", v.Kind)
	}
	return v.Answer(), nil
}

package synth

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tensorplex-labs/clevr-action/internal/program"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
	"github.com/tensorplex-labs/clevr-action/internal/template"
)

// Candidate is one complete, valid binding of a template on a scene.
type Candidate struct {
	Bindings template.Bindings
	Answer   program.Value
}

// errStop ends an expansion early; it never leaves this package.
var errStop = errors.New("stop expansion")

// expand walks the template's nodes in order, binding params the first time
// a node needs them. Each partial binding is checked against the constraints
// it fully determines and evaluated right away, so an invalid node prunes
// every binding below it. yield is called for every complete candidate and
// may return errStop.
func (s *Synthesizer) expand(g *scene.Graph, t *template.Template, yield func(Candidate) error) error {
	bindings := template.Bindings{}
	outputs := make([]program.Value, len(t.Nodes))
	seen := 0

	var visit func(i int) error
	visit = func(i int) error {
		if i == len(t.Nodes) {
			seen++
			if err := yield(Candidate{Bindings: maps.Clone(bindings), Answer: outputs[i-1]}); err != nil {
				return err
			}
			if seen >= s.opts.MaxCandidatesPerTemplate {
				return errStop
			}
			return nil
		}

		node := t.Nodes[i]
		in := make([]program.Value, len(node.Inputs))
		for k, idx := range node.Inputs {
			in[k] = outputs[idx]
		}

		unbound := ""
		values := []string{""}
		if len(node.SideInputs) > 0 {
			name := node.SideInputs[0]
			if v, ok := bindings[name]; ok {
				values = []string{v}
			} else {
				unbound = name
				values = s.domain(t, name)
			}
		}

		for _, v := range values {
			if unbound != "" {
				bindings[unbound] = v
				if !paramsSatisfied(t, bindings) {
					continue
				}
			}
			out, err := t.Op(i).Apply(g, in, v)
			if errors.Is(err, program.ErrInvalid) {
				continue
			}
			if err != nil {
				return fmt.Errorf("template %s[%d] node %d: %w", t.Filename, t.Index, i, err)
			}
			outputs[i] = out
			if !outputsDiffer(t, i, outputs) {
				continue
			}
			if err := visit(i + 1); err != nil {
				return err
			}
		}
		if unbound != "" {
			delete(bindings, unbound)
		}
		return nil
	}

	err := visit(0)
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

// domain returns the shuffled values a param may take. Attribute filters
// may also be left empty.
func (s *Synthesizer) domain(t *template.Template, name string) []string {
	typ := t.ParamType(name)
	values := slices.Clone(s.lib.Metadata.Domain(typ))
	if _, optional := program.ParamAttribute[typ]; optional {
		values = append(values, "")
	}
	s.rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
	return values
}

// paramsSatisfied checks the constraints whose params are all bound.
func paramsSatisfied(t *template.Template, b template.Bindings) bool {
	for _, c := range t.Constraints {
		switch c.Type {
		case template.ConstraintNull:
			if v, ok := b[c.Params[0]]; ok && v != "" {
				return false
			}
		case template.ConstraintNotNull:
			if v, ok := b[c.Params[0]]; ok && v == "" {
				return false
			}
		case template.ConstraintNeq:
			a, okA := b[c.Params[0]]
			z, okZ := b[c.Params[1]]
			if okA && okZ && a != "" && a == z {
				return false
			}
		}
	}
	return true
}

// outputsDiffer checks the OUT_NEQ constraints that become decidable once
// node i is evaluated.
func outputsDiffer(t *template.Template, i int, outputs []program.Value) bool {
	for _, c := range t.Constraints {
		if c.Type != template.ConstraintOutNeq {
			continue
		}
		a, b := c.Nodes[0], c.Nodes[1]
		if max(a, b) != i {
			continue
		}
		if outputs[a].Equal(outputs[b]) {
			return false
		}
	}
	return true
}

package template

import (
	"strconv"
	"strings"

	"github.com/tensorplex-labs/clevr-action/internal/program"
)

// Bindings maps param names to chosen values. An empty value means the
// param is unconstrained.
type Bindings map[string]string

// Render fills the text variant k of t with bindings.
func (l *Library) Render(t *Template, k int, b Bindings) string {
	text := placeholderRe.ReplaceAllStringFunc(t.Text[k], func(ph string) string {
		v := b[ph]
		switch t.ParamType(ph) {
		case program.ParamShape:
			if v == "" {
				return l.Metadata.NullShape
			}
		case program.ParamRelation:
			if p, ok := l.Metadata.RelationPhrases[v]; ok {
				return p
			}
		}
		return v
	})
	return Capitalize(join(tokenize(text)))
}

// Instantiate turns the template's nodes into an executable trace under
// bindings.
func (t *Template) Instantiate(b Bindings) []program.Step {
	steps := make([]program.Step, len(t.Nodes))
	for i, n := range t.Nodes {
		steps[i] = program.Step{
			Type:        n.Type,
			Inputs:      append([]int{}, n.Inputs...),
			ValueInputs: []string{},
		}
		for _, name := range n.SideInputs {
			if v := b[name]; v != "" {
				steps[i].ValueInputs = append(steps[i].ValueInputs, v)
			}
		}
	}
	return steps
}

// CanonicalTrace is a stable string form of an instantiated program.
func CanonicalTrace(steps []program.Step) string {
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(s.Type)
		for _, in := range s.Inputs {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(in))
		}
		for _, v := range s.ValueInputs {
			sb.WriteString(" =")
			sb.WriteString(v)
		}
	}
	return sb.String()
}

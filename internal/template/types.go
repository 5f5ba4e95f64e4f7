package template

import (
	"errors"

	"github.com/tensorplex-labs/clevr-action/internal/program"
)

// ErrMalformedTemplate is returned for templates that fail load-time checks.
var ErrMalformedTemplate = errors.New("malformed template")

// Constraint types.
const (
	ConstraintNull    = "NULL"
	ConstraintNotNull = "NOT_NULL"
	ConstraintNeq     = "NEQ"
	ConstraintOutNeq  = "OUT_NEQ"
)

type Param struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// Constraint restricts the bindings of a template. NULL, NOT_NULL and NEQ
// name params; OUT_NEQ names two nodes whose outputs must differ.
type Constraint struct {
	Type   string   `json:"type" yaml:"type"`
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`
	Nodes  []int    `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// Template is one question family.
type Template struct {
	Text        []string       `json:"text" yaml:"text"`
	Nodes       []program.Node `json:"nodes" yaml:"nodes"`
	Params      []Param        `json:"params" yaml:"params"`
	Constraints []Constraint   `json:"constraints" yaml:"constraints"`
	Action      bool           `json:"action" yaml:"action"`

	Filename string `json:"-" yaml:"-"`
	Index    int    `json:"-" yaml:"-"` // position within its file
	Family   int    `json:"-" yaml:"-"` // position across the whole library

	ops        []*program.Op
	paramTypes map[string]string
}

// Op returns the resolved primitive of node i.
func (t *Template) Op(i int) *program.Op {
	return t.ops[i]
}

// ParamType returns the declared type of a param name.
func (t *Template) ParamType(name string) string {
	return t.paramTypes[name]
}

// AnswerKind is the kind of value the template's last node produces.
func (t *Template) AnswerKind() program.Kind {
	return t.ops[len(t.ops)-1].Out
}

// AnswerOp is the last node's primitive.
func (t *Template) AnswerOp() *program.Op {
	return t.ops[len(t.ops)-1]
}

// Metadata describes the value domains params are drawn from and how some of
// them are written in question text.
type Metadata struct {
	Dataset         string              `json:"dataset"`
	Types           map[string][]string `json:"types"`
	RelationPhrases map[string]string   `json:"relation_phrases"`
	NullShape       string              `json:"null_shape"`
	ActionLabels    []string            `json:"action_labels"`
}

// Domain returns the values a param type ranges over.
func (m *Metadata) Domain(paramType string) []string {
	return m.Types[paramType]
}

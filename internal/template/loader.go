// Package template loads and validates the question template library.
package template

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/tensorplex-labs/clevr-action/internal/program"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

// Library is a validated set of templates with their metadata and synonyms.
type Library struct {
	Templates []*Template
	Metadata  *Metadata
	Synonyms  *Synonyms
}

var placeholderRe = regexp.MustCompile(`<[A-Za-z][A-Za-z0-9]*>`)

// Open loads every template file in the root of templates, in lexical order,
// and metadata.json / synonyms.json from support. A missing
// synonyms.json yields an empty synonym table.
func Open(templates, support fs.FS) (*Library, error) {
	meta, err := LoadMetadata(support, "metadata.json")
	if err != nil {
		return nil, err
	}
	syn, err := LoadSynonyms(support, "synonyms.json")
	if err != nil {
		return nil, err
	}
	ts, err := LoadTemplates(templates)
	if err != nil {
		return nil, err
	}
	return NewLibrary(ts, meta, syn)
}

// LoadTemplates decodes every template file in the root of fsys, JSON or
// YAML. Each file holds a list of templates.
func LoadTemplates(fsys fs.FS) ([]*Template, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isTemplateFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no template files found", ErrMalformedTemplate)
	}

	var out []*Template
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read template file %s: %w", name, err)
		}
		file, err := decodeTemplates(name, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTemplate, name, err)
		}
		for i, t := range file {
			if t == nil {
				return nil, fmt.Errorf("%w: %s[%d]: null template", ErrMalformedTemplate, name, i)
			}
			t.Filename = path.Base(name)
			t.Index = i
			out = append(out, t)
		}
	}
	return out, nil
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func decodeTemplates(name string, data []byte) ([]*Template, error) {
	var file []*Template
	if strings.ToLower(path.Ext(name)) == ".json" {
		err := sonic.Unmarshal(data, &file)
		return file, err
	}
	err := yaml.Unmarshal(data, &file)
	return file, err
}

// LoadMetadata decodes the metadata file.
func LoadMetadata(fsys fs.FS, name string) (*Metadata, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", name, err)
	}
	if m.NullShape == "" {
		m.NullShape = "object"
	}
	return &m, nil
}

// NewLibrary validates templates against the primitive set and metadata and
// assigns family indices in order.
func NewLibrary(templates []*Template, meta *Metadata, syn *Synonyms) (*Library, error) {
	if meta == nil {
		return nil, fmt.Errorf("metadata cannot be nil")
	}
	if syn == nil {
		syn = NewSynonyms(nil)
	}
	for family, t := range templates {
		t.Family = family
		if err := t.resolve(meta); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrMalformedTemplate, t.Filename, t.Index, err)
		}
	}
	return &Library{Templates: templates, Metadata: meta, Synonyms: syn}, nil
}

func (t *Template) resolve(meta *Metadata) error {
	if len(t.Text) == 0 {
		return fmt.Errorf("no text")
	}
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}

	t.paramTypes = make(map[string]string, len(t.Params))
	for _, p := range t.Params {
		if _, dup := t.paramTypes[p.Name]; dup {
			return fmt.Errorf("param %s declared twice", p.Name)
		}
		if _, ok := meta.Types[p.Type]; !ok {
			return fmt.Errorf("param %s has unknown type %q", p.Name, p.Type)
		}
		t.paramTypes[p.Name] = p.Type
	}

	used := make(map[string]bool, len(t.Params))
	t.ops = make([]*program.Op, len(t.Nodes))
	for i, n := range t.Nodes {
		op, ok := program.Lookup(n.Type)
		if !ok {
			return fmt.Errorf("node %d: unknown type %q", i, n.Type)
		}
		if len(n.Inputs) != len(op.In) {
			return fmt.Errorf("node %d (%s): want %d inputs, got %d", i, n.Type, len(op.In), len(n.Inputs))
		}
		for k, idx := range n.Inputs {
			if idx < 0 || idx >= i {
				return fmt.Errorf("node %d (%s): input %d out of range", i, n.Type, idx)
			}
			if got := t.ops[idx].Out; got != op.In[k] {
				return fmt.Errorf("node %d (%s): input %d is %s, want %s", i, n.Type, k, got, op.In[k])
			}
		}
		wantSide := 0
		if op.Side != "" {
			wantSide = 1
		}
		if len(n.SideInputs) != wantSide {
			return fmt.Errorf("node %d (%s): want %d side inputs, got %d", i, n.Type, wantSide, len(n.SideInputs))
		}
		for _, name := range n.SideInputs {
			pt, ok := t.paramTypes[name]
			if !ok {
				return fmt.Errorf("node %d (%s): undeclared param %s", i, n.Type, name)
			}
			if pt != op.Side {
				return fmt.Errorf("node %d (%s): param %s is %s, want %s", i, n.Type, name, pt, op.Side)
			}
			used[name] = true
		}
		if op.Action {
			t.Action = true
		}
		t.ops[i] = op
	}

	for _, p := range t.Params {
		if !used[p.Name] {
			return fmt.Errorf("param %s is never used", p.Name)
		}
	}
	if !t.AnswerKind().IsAnswer() {
		return fmt.Errorf("last node produces %s, not an answer", t.AnswerKind())
	}

	for _, c := range t.Constraints {
		if err := t.checkConstraint(c); err != nil {
			return err
		}
	}

	for k, text := range t.Text {
		for _, ph := range placeholderRe.FindAllString(text, -1) {
			if _, ok := t.paramTypes[ph]; !ok {
				return fmt.Errorf("text %d references undeclared param %s", k, ph)
			}
		}
	}
	return nil
}

func (t *Template) checkConstraint(c Constraint) error {
	wantParams, wantNodes := 0, 0
	switch c.Type {
	case ConstraintNull, ConstraintNotNull:
		wantParams = 1
	case ConstraintNeq:
		wantParams = 2
	case ConstraintOutNeq:
		wantNodes = 2
	default:
		return fmt.Errorf("unknown constraint %q", c.Type)
	}
	if len(c.Params) != wantParams || len(c.Nodes) != wantNodes {
		return fmt.Errorf("constraint %s: want %d params and %d nodes", c.Type, wantParams, wantNodes)
	}
	for _, name := range c.Params {
		if _, ok := t.paramTypes[name]; !ok {
			return fmt.Errorf("constraint %s: undeclared param %s", c.Type, name)
		}
	}
	for _, idx := range c.Nodes {
		if idx < 0 || idx >= len(t.Nodes) {
			return fmt.Errorf("constraint %s: node %d out of range", c.Type, idx)
		}
	}
	return nil
}

// AnswerDomain lists the case-folded answers the template family can produce,
// used to seed the answer balancer. Families whose answers cannot be
// enumerated from metadata return nil.
func (l *Library) AnswerDomain(t *Template) []string {
	name := t.AnswerOp().Name
	switch {
	case t.AnswerKind() == program.KindBool:
		return []string{"no", "yes"}
	case name == "count":
		return lower(l.Metadata.Domain(program.ParamInteger))
	case name == "query_action":
		return lower(l.Metadata.ActionLabels)
	case name == "query_direction":
		return lower(scene.MoveDirections)
	}
	for param, attr := range program.ParamAttribute {
		if strings.HasPrefix(name, "query_"+attr) {
			return lower(l.Metadata.Domain(param))
		}
	}
	return nil
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	sort.Strings(out)
	return out
}

// TemplatesFor returns the templates usable on a scene with or without an
// action pair. Action templates need the pair; plain templates always apply.
func (l *Library) TemplatesFor(hasAction bool) []*Template {
	out := make([]*Template, 0, len(l.Templates))
	for _, t := range l.Templates {
		if t.Action && !hasAction {
			continue
		}
		out = append(out, t)
	}
	return out
}

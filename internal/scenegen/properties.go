package scenegen

import (
	"fmt"
	"io/fs"
	"slices"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

// Properties is the catalogue objects are drawn from. Map values are the
// renderer's asset names and colours; only the keys matter for layout, plus
// the size radii.
type Properties struct {
	Shapes    map[string]string  `json:"shapes"`
	Colors    map[string][3]int  `json:"colors"`
	Materials map[string]string  `json:"materials"`
	Sizes     map[string]float64 `json:"sizes"`
	names     map[string][]string
}

// LoadProperties decodes a properties file.
func LoadProperties(fsys fs.FS, name string) (*Properties, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	var p Properties
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode properties %s: %w", name, err)
	}
	if err := p.index(); err != nil {
		return nil, fmt.Errorf("properties %s: %w", name, err)
	}
	return &p, nil
}

func (p *Properties) index() error {
	p.names = map[string][]string{
		scene.AttrShape:    keys(p.Shapes),
		scene.AttrColor:    keys(p.Colors),
		scene.AttrMaterial: keys(p.Materials),
		scene.AttrSize:     keys(p.Sizes),
	}
	for attr, names := range p.names {
		if len(names) == 0 {
			return fmt.Errorf("no %s values", attr)
		}
	}
	for name, r := range p.Sizes {
		if r <= 0 {
			return fmt.Errorf("size %s has non-positive radius %v", name, r)
		}
	}
	return nil
}

// Names returns the sorted values of an attribute.
func (p *Properties) Names(attr string) []string {
	return slices.Clone(p.names[attr])
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

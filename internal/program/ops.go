package program

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

// ErrInvalid marks a node that has no value on the given scene, such as
// unique over a set that is not a singleton. It rejects a candidate binding
// and is never a run failure.
var ErrInvalid = errors.New("invalid program on scene")

// Param types a side input may carry.
const (
	ParamSize     = "Size"
	ParamColor    = "Color"
	ParamMaterial = "Material"
	ParamShape    = "Shape"
	ParamRelation = "Relation"
	ParamInteger  = "Integer"
)

// ParamAttribute maps attribute param types to object attribute names.
var ParamAttribute = map[string]string{
	ParamSize:     scene.AttrSize,
	ParamColor:    scene.AttrColor,
	ParamMaterial: scene.AttrMaterial,
	ParamShape:    scene.AttrShape,
}

type evalFunc func(g *scene.Graph, in []Value, side string) (Value, error)

// Op is a primitive scene-query operation.
type Op struct {
	Name   string
	In     []Kind
	Side   string // param type of the single side input, empty if none
	Out    Kind
	Action bool // requires a before/after pair
	eval   evalFunc
}

// Apply evaluates the op on already evaluated inputs.
func (op *Op) Apply(g *scene.Graph, in []Value, side string) (Value, error) {
	if len(in) != len(op.In) {
		return Value{}, fmt.Errorf("%s: want %d inputs, got %d", op.Name, len(op.In), len(in))
	}
	for i, v := range in {
		if v.Kind != op.In[i] {
			return Value{}, fmt.Errorf("%s: input %d is %s, want %s", op.Name, i, v.Kind, op.In[i])
		}
	}
	if op.Action && !g.HasAction() {
		return Value{}, ErrInvalid
	}
	return op.eval(g, in, side)
}

var ops = map[string]*Op{}

func register(op *Op) {
	if _, dup := ops[op.Name]; dup {
		panic("program: duplicate op " + op.Name)
	}
	ops[op.Name] = op
}

// Lookup returns the op with the given name.
func Lookup(name string) (*Op, bool) {
	op, ok := ops[name]
	return op, ok
}

// Names returns every registered op name, sorted.
func Names() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	set1    = []Kind{KindObjectSet}
	set2    = []Kind{KindObjectSet, KindObjectSet}
	object1 = []Kind{KindObject}
	int2    = []Kind{KindInt, KindInt}
	cat2    = []Kind{KindCategory, KindCategory}
)

func init() {
	register(&Op{Name: "scene", Out: KindObjectSet, eval: evalScene})
	register(&Op{Name: "unique", In: set1, Out: KindObject, eval: evalUnique})
	register(&Op{Name: "relate", In: object1, Side: ParamRelation, Out: KindObjectSet, eval: evalRelate})
	register(&Op{Name: "union", In: set2, Out: KindObjectSet, eval: setOp(union)})
	register(&Op{Name: "intersect", In: set2, Out: KindObjectSet, eval: setOp(intersect)})
	register(&Op{Name: "difference", In: set2, Out: KindObjectSet, eval: setOp(difference)})
	register(&Op{Name: "count", In: set1, Out: KindInt, eval: evalCount})
	register(&Op{Name: "exist", In: set1, Out: KindBool, eval: evalExist})
	register(&Op{Name: "count_equal", In: set1, Side: ParamInteger, Out: KindBool, eval: evalCountEqual})
	register(&Op{Name: "equal_integer", In: int2, Out: KindBool, eval: compareInts(func(a, b int) bool { return a == b })})
	register(&Op{Name: "less_than", In: int2, Out: KindBool, eval: compareInts(func(a, b int) bool { return a < b })})
	register(&Op{Name: "greater_than", In: int2, Out: KindBool, eval: compareInts(func(a, b int) bool { return a > b })})

	for param, attr := range ParamAttribute {
		register(&Op{Name: "filter_" + attr, In: set1, Side: param, Out: KindObjectSet, eval: filterAttr(attr)})
		register(&Op{Name: "query_" + attr, In: object1, Out: KindCategory, eval: queryAttr(attr)})
		register(&Op{Name: "same_" + attr, In: object1, Out: KindObjectSet, eval: sameAttr(attr)})
		register(&Op{Name: "equal_" + attr, In: cat2, Out: KindBool, eval: evalEqualCategory})
		register(&Op{Name: "query_" + attr + "_before", In: object1, Out: KindCategory, Action: true, eval: changedAttr(attr, false)})
		register(&Op{Name: "query_" + attr + "_after", In: object1, Out: KindCategory, Action: true, eval: changedAttr(attr, true)})
	}

	register(&Op{Name: "changed_object", In: set1, Out: KindObject, Action: true, eval: evalChangedObject})
	register(&Op{Name: "query_action", In: object1, Out: KindCategory, Action: true, eval: evalQueryAction})
	register(&Op{Name: "query_direction", In: object1, Out: KindCategory, Action: true, eval: evalQueryDirection})
}

func evalScene(g *scene.Graph, _ []Value, _ string) (Value, error) {
	set := make([]int, g.NumObjects())
	for i := range set {
		set[i] = i
	}
	return SetValue(set), nil
}

func evalUnique(_ *scene.Graph, in []Value, _ string) (Value, error) {
	if len(in[0].Set) != 1 {
		return Value{}, ErrInvalid
	}
	return ObjectValue(in[0].Set[0]), nil
}

func evalRelate(g *scene.Graph, in []Value, side string) (Value, error) {
	related, ok := g.Before.Related(side, in[0].Object)
	if !ok {
		return Value{}, ErrInvalid
	}
	return SetValue(slices.Clone(related)), nil
}

func evalCount(_ *scene.Graph, in []Value, _ string) (Value, error) {
	return IntValue(len(in[0].Set)), nil
}

func evalExist(_ *scene.Graph, in []Value, _ string) (Value, error) {
	return BoolValue(len(in[0].Set) > 0), nil
}

func evalCountEqual(_ *scene.Graph, in []Value, side string) (Value, error) {
	n, err := strconv.Atoi(side)
	if err != nil {
		return Value{}, ErrInvalid
	}
	return BoolValue(len(in[0].Set) == n), nil
}

func compareInts(cmp func(a, b int) bool) evalFunc {
	return func(_ *scene.Graph, in []Value, _ string) (Value, error) {
		return BoolValue(cmp(in[0].Int, in[1].Int)), nil
	}
}

func evalEqualCategory(_ *scene.Graph, in []Value, _ string) (Value, error) {
	return BoolValue(in[0].Category == in[1].Category), nil
}

func filterAttr(attr string) evalFunc {
	return func(g *scene.Graph, in []Value, side string) (Value, error) {
		if side == "" {
			return in[0], nil
		}
		out := []int{}
		for _, i := range in[0].Set {
			if g.Before.Objects[i].Attr(attr) == side {
				out = append(out, i)
			}
		}
		return SetValue(out), nil
	}
}

func queryAttr(attr string) evalFunc {
	return func(g *scene.Graph, in []Value, _ string) (Value, error) {
		return CategoryValue(g.Before.Objects[in[0].Object].Attr(attr)), nil
	}
}

func sameAttr(attr string) evalFunc {
	return func(g *scene.Graph, in []Value, _ string) (Value, error) {
		target := in[0].Object
		want := g.Before.Objects[target].Attr(attr)
		out := []int{}
		for i, o := range g.Before.Objects {
			if i != target && o.Attr(attr) == want {
				out = append(out, i)
			}
		}
		return SetValue(out), nil
	}
}

func changedAttr(attr string, after bool) evalFunc {
	return func(g *scene.Graph, in []Value, _ string) (Value, error) {
		i := in[0].Object
		if !g.AttrChanged(i, attr) {
			return Value{}, ErrInvalid
		}
		if after {
			return CategoryValue(g.After.Objects[i].Attr(attr)), nil
		}
		return CategoryValue(g.Before.Objects[i].Attr(attr)), nil
	}
}

func evalChangedObject(g *scene.Graph, in []Value, _ string) (Value, error) {
	id, ok := g.ChangedObject()
	if !ok || !slices.Contains(in[0].Set, id) {
		return Value{}, ErrInvalid
	}
	return ObjectValue(id), nil
}

func evalQueryAction(g *scene.Graph, in []Value, _ string) (Value, error) {
	return CategoryValue(g.ActionLabel(in[0].Object)), nil
}

func evalQueryDirection(g *scene.Graph, in []Value, _ string) (Value, error) {
	dir, moved := g.Movement(in[0].Object)
	if !moved {
		return Value{}, ErrInvalid
	}
	return CategoryValue(dir), nil
}

func setOp(f func(a, b []int) []int) evalFunc {
	return func(_ *scene.Graph, in []Value, _ string) (Value, error) {
		return SetValue(f(in[0].Set, in[1].Set)), nil
	}
}

func union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func intersect(a, b []int) []int {
	out := []int{}
	for _, x := range a {
		if _, found := slices.BinarySearch(b, x); found {
			out = append(out, x)
		}
	}
	return out
}

func difference(a, b []int) []int {
	out := []int{}
	for _, x := range a {
		if _, found := slices.BinarySearch(b, x); !found {
			out = append(out, x)
		}
	}
	return out
}

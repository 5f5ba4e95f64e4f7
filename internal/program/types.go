package program

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindObjectSet
	KindObject
	KindBool
	KindInt
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindObjectSet:
		return "ObjectSet"
	case KindObject:
		return "Object"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindCategory:
		return "Category"
	}
	return "Invalid"
}

// IsAnswer reports whether values of this kind can be a question's answer.
func (k Kind) IsAnswer() bool {
	return k == KindBool || k == KindInt || k == KindCategory
}

// Value is the result of one program node. Only the field matching Kind is
// meaningful; Set is always sorted ascending.
type Value struct {
	Kind     Kind
	Set      []int
	Object   int
	Bool     bool
	Int      int
	Category string
}

func SetValue(set []int) Value     { return Value{Kind: KindObjectSet, Set: set} }
func ObjectValue(i int) Value      { return Value{Kind: KindObject, Object: i} }
func BoolValue(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func IntValue(n int) Value         { return Value{Kind: KindInt, Int: n} }
func CategoryValue(c string) Value { return Value{Kind: KindCategory, Category: c} }

var title = cases.Title(language.English)

// Answer renders the value the way it is written to the question file:
// "Yes"/"No" for booleans, an int for counts, a title-cased category.
func (v Value) Answer() any {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case KindInt:
		return v.Int
	case KindCategory:
		return title.String(v.Category)
	}
	return nil
}

// Key is a case-folded string form of the answer, used for balancing.
func (v Value) Key() string {
	return AnswerKey(v.Answer())
}

// Equal compares two values of the same kind.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindObjectSet:
		if len(v.Set) != len(o.Set) {
			return false
		}
		for i := range v.Set {
			if v.Set[i] != o.Set[i] {
				return false
			}
		}
		return true
	case KindObject:
		return v.Object == o.Object
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindCategory:
		return v.Category == o.Category
	}
	return false
}

// AnswerKey normalises an answer as found in memory or decoded from JSON,
// where integers may come back as float64.
func AnswerKey(answer any) string {
	switch a := answer.(type) {
	case string:
		return strings.ToLower(a)
	case int:
		return strconv.Itoa(a)
	case int64:
		return strconv.FormatInt(a, 10)
	case float64:
		if a == float64(int64(a)) {
			return strconv.FormatInt(int64(a), 10)
		}
		return strconv.FormatFloat(a, 'g', -1, 64)
	case bool:
		if a {
			return "yes"
		}
		return "no"
	}
	return ""
}

// Node is one step of a template program; side inputs name template params.
type Node struct {
	Type       string   `json:"type" yaml:"type"`
	Inputs     []int    `json:"inputs" yaml:"inputs"`
	SideInputs []string `json:"side_inputs,omitempty" yaml:"side_inputs,omitempty"`
}

// Step is one step of an emitted program trace with params bound to values.
type Step struct {
	Type        string   `json:"type"`
	Inputs      []int    `json:"inputs"`
	ValueInputs []string `json:"value_inputs"`
}

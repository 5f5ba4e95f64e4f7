// Package scene holds the ground-truth scene records and the derived
// relationship graph questions are asked about.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// RelationEpsilon is the minimum projected offset for two objects to be related.
const RelationEpsilon = 0.2

var ErrMalformedScene = errors.New("malformed scene")

// DefaultDirections are the ground-plane directions of the stock camera.
func DefaultDirections() Directions {
	behind := Vec3{-0.754490315914154, 0.6563112735748291, 0}
	left := Vec3{-0.6563112735748291, -0.7544902563095093, 0}
	above := Vec3{0, 0, 1}
	return Directions{
		Behind: behind,
		Front:  negate(behind),
		Left:   left,
		Right:  negate(left),
		Above:  above,
		Below:  negate(above),
	}
}

func negate(v Vec3) Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// Attr returns the named categorical attribute.
func (o Object) Attr(name string) string {
	switch name {
	case AttrSize:
		return o.Size
	case AttrColor:
		return o.Color
	case AttrMaterial:
		return o.Material
	case AttrShape:
		return o.Shape
	}
	return ""
}

// SetAttr overwrites the named categorical attribute.
func (o *Object) SetAttr(name, value string) {
	switch name {
	case AttrSize:
		o.Size = value
	case AttrColor:
		o.Color = value
	case AttrMaterial:
		o.Material = value
	case AttrShape:
		o.Shape = value
	}
}

// ComputeRelationships derives every cardinal relation for every ordered
// object pair from positions. Above and below are never recorded.
func ComputeRelationships(objects []Object, dirs Directions) Relationships {
	out := make(Relationships, len(Relations))
	for _, name := range Relations {
		dir, ok := dirs[name]
		if !ok {
			continue
		}
		perObject := make([][]int, len(objects))
		for i, a := range objects {
			related := []int{}
			for j, b := range objects {
				if i == j {
					continue
				}
				diff := Sub(b.Position, a.Position)
				if floats.Dot(diff[:], dir[:]) > RelationEpsilon {
					related = append(related, j)
				}
			}
			perObject[i] = related
		}
		out[name] = perObject
	}
	return out
}

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	out := a
	floats.Sub(out[:], b[:])
	return out
}

// Normalize fills in missing directions and relationships and checks that the
// relationship table covers every object.
func (f *Frame) Normalize() error {
	if len(f.Directions) == 0 {
		f.Directions = DefaultDirections()
	}
	if len(f.Relationships) == 0 {
		f.Relationships = ComputeRelationships(f.Objects, f.Directions)
	}
	for name, perObject := range f.Relationships {
		if len(perObject) != len(f.Objects) {
			return fmt.Errorf("%w: relation %q has %d entries for %d objects",
				ErrMalformedScene, name, len(perObject), len(f.Objects))
		}
		for i, related := range perObject {
			for _, j := range related {
				if j < 0 || j >= len(f.Objects) || j == i {
					return fmt.Errorf("%w: relation %q of object %d references %d",
						ErrMalformedScene, name, i, j)
				}
			}
		}
	}
	return nil
}

// Related returns the objects standing in relation rel to object i.
func (f *Frame) Related(rel string, i int) ([]int, bool) {
	perObject, ok := f.Relationships[rel]
	if !ok || i < 0 || i >= len(perObject) {
		return nil, false
	}
	return perObject[i], true
}

// Normalize prepares both frames of a scene and validates the action record.
func (s *Scene) Normalize() error {
	if err := s.Frame.Normalize(); err != nil {
		return fmt.Errorf("image %d: %w", s.ImageIndex, err)
	}
	if s.After == nil {
		return nil
	}
	if len(s.After.Directions) == 0 {
		s.After.Directions = s.Directions
	}
	if err := s.After.Normalize(); err != nil {
		return fmt.Errorf("image %d after frame: %w", s.ImageIndex, err)
	}
	if len(s.After.Objects) != len(s.Objects) {
		return fmt.Errorf("%w: image %d has %d objects before and %d after",
			ErrMalformedScene, s.ImageIndex, len(s.Objects), len(s.After.Objects))
	}
	if s.Action != nil && s.Action.ObjectID != nil {
		if id := *s.Action.ObjectID; id < 0 || id >= len(s.Objects) {
			return fmt.Errorf("%w: image %d action references object %d",
				ErrMalformedScene, s.ImageIndex, id)
		}
	}
	return nil
}

// Distinguishable reports whether no two objects share all four attributes.
func Distinguishable(objects []Object) bool {
	seen := make(map[[4]string]struct{}, len(objects))
	for _, o := range objects {
		key := [4]string{o.Size, o.Color, o.Material, o.Shape}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// SortByIndex orders scenes by image index.
func SortByIndex(scenes []Scene) {
	slices.SortStableFunc(scenes, func(a, b Scene) int {
		return a.ImageIndex - b.ImageIndex
	})
}

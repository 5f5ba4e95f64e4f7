package scene

// Graph is the read-only view the question programs are evaluated against:
// the before frame, and for action samples the after frame and action record.
type Graph struct {
	ImageIndex    int
	ImageFilename string
	Split         string
	Before        *Frame
	After         *Frame
	Action        *Action
}

// NewGraph builds the evaluation graph of a normalized scene.
func NewGraph(s *Scene) *Graph {
	return &Graph{
		ImageIndex:    s.ImageIndex,
		ImageFilename: s.ImageFilename,
		Split:         s.Split,
		Before:        &s.Frame,
		After:         s.After,
		Action:        s.Action,
	}
}

// HasAction reports whether the graph carries a before/after pair.
func (g *Graph) HasAction() bool {
	return g.After != nil && g.Action != nil
}

// NumObjects is the number of objects in the before frame.
func (g *Graph) NumObjects() int {
	return len(g.Before.Objects)
}

// ChangedObject returns the index of the object the action changed.
func (g *Graph) ChangedObject() (int, bool) {
	if !g.HasAction() || g.Action.ObjectID == nil {
		return 0, false
	}
	return *g.Action.ObjectID, true
}

// AttrChanged reports whether attribute attr of object i differs between the
// two frames.
func (g *Graph) AttrChanged(i int, attr string) bool {
	if !g.HasAction() || i < 0 || i >= len(g.After.Objects) {
		return false
	}
	return g.Before.Objects[i].Attr(attr) != g.After.Objects[i].Attr(attr)
}

// Movement returns the coarse direction object i moved in, if it moved.
func (g *Graph) Movement(i int) (string, bool) {
	if !g.HasAction() || i < 0 || i >= len(g.After.Objects) {
		return "", false
	}
	return MoveDirection(g.Before.Objects[i].Position, g.After.Objects[i].Position, g.Before.Directions)
}

// ActionLabel returns the action label for object i: the recorded label for
// the changed object and "No Change" for every other object.
func (g *Graph) ActionLabel(i int) string {
	id, ok := g.ChangedObject()
	if !ok || id != i {
		return LabelNoChange
	}
	return g.Action.Label
}

package scene

// Changed reports whether the action type records an actual change.
func (t ActionType) Changed() bool {
	switch t {
	case ColorChanged, MaterialChanged, PositionChanged, SizeChanged, ShapeChanged:
		return true
	}
	return false
}

// Label maps an action type to its human readable label.
func (t ActionType) Label() string {
	switch t {
	case ColorChanged:
		return LabelColorChange
	case MaterialChanged:
		return LabelMaterialChange
	case PositionChanged:
		return LabelMovement
	case SizeChanged:
		return LabelSizeChange
	case ShapeChanged:
		return LabelShapeChange
	}
	return LabelNoChange
}

// ActionTypeFor returns the changed or unchanged type for a mutated property.
// Property is one of the attribute names or "position".
func ActionTypeFor(property string, changed bool) ActionType {
	var pair [2]ActionType
	switch property {
	case AttrColor:
		pair = [2]ActionType{ColorChanged, ColorUnchanged}
	case AttrMaterial:
		pair = [2]ActionType{MaterialChanged, MaterialUnchanged}
	case AttrSize:
		pair = [2]ActionType{SizeChanged, SizeUnchanged}
	case AttrShape:
		pair = [2]ActionType{ShapeChanged, ShapeUnchanged}
	default:
		pair = [2]ActionType{PositionChanged, PositionUnchanged}
	}
	if changed {
		return pair[0]
	}
	return pair[1]
}

// NewAction builds the action record for a mutation of object id.
func NewAction(t ActionType, id int, direction string) *Action {
	a := &Action{Type: t, Label: t.Label()}
	if t.Changed() {
		a.ObjectID = &id
		if t == PositionChanged {
			a.Direction = direction
		}
	}
	return a
}

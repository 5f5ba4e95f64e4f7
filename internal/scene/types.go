package scene

// Vec3 is a position or direction in world coordinates.
type Vec3 [3]float64

// Spatial relations recorded for every ordered object pair.
const (
	Left   = "left"
	Right  = "right"
	Front  = "front"
	Behind = "behind"
	Above  = "above"
	Below  = "below"
)

// Relations lists the cardinal relations in a fixed order.
var Relations = []string{Left, Right, Front, Behind}

// Object attribute names.
const (
	AttrSize     = "size"
	AttrColor    = "color"
	AttrMaterial = "material"
	AttrShape    = "shape"
)

// Attributes lists the categorical object attributes in a fixed order.
var Attributes = []string{AttrSize, AttrColor, AttrMaterial, AttrShape}

type Object struct {
	Shape       string    `json:"shape"`
	Color       string    `json:"color"`
	Material    string    `json:"material"`
	Size        string    `json:"size"`
	Position    Vec3      `json:"position"`
	Rotation    float64   `json:"rotation"`
	PixelCoords []float64 `json:"pixel_coords,omitempty"`
}

// Relationships maps a relation name to, for each object i, the sorted indices
// of the objects standing in that relation to i. If j is in r["left"][i] then
// object j is left of object i.
type Relationships map[string][][]int

// Directions maps a relation name to its unit vector on the ground plane.
type Directions map[string]Vec3

// Frame is one rendered state of a scene.
type Frame struct {
	Split         string        `json:"split"`
	ImageFilename string        `json:"image_filename"`
	Objects       []Object      `json:"objects"`
	Relationships Relationships `json:"relationships"`
	Directions    Directions    `json:"directions"`
}

// Scene is one sample: a frame plus, when an action was applied, the action
// record and the after frame sharing the same image index.
type Scene struct {
	Frame
	ImageIndex int     `json:"image_index"`
	Action     *Action `json:"action,omitempty"`
	After      *Frame  `json:"after,omitempty"`
}

type Info struct {
	Date    string `json:"date"`
	Version string `json:"version"`
	Split   string `json:"split"`
	License string `json:"license"`
}

type File struct {
	Info   Info    `json:"info"`
	Scenes []Scene `json:"scenes"`
}

// ActionType classifies what the producer did to the tracked object.
type ActionType string

const (
	ColorChanged      ActionType = "color_changed"
	ColorUnchanged    ActionType = "color_unchanged"
	MaterialChanged   ActionType = "material_changed"
	MaterialUnchanged ActionType = "material_unchanged"
	PositionChanged   ActionType = "position_changed"
	PositionUnchanged ActionType = "position_unchanged"
	SizeChanged       ActionType = "size_changed"
	SizeUnchanged     ActionType = "size_unchanged"
	ShapeChanged      ActionType = "shape_changed"
	ShapeUnchanged    ActionType = "shape_unchanged"
)

// ActionTypes lists every action type in a fixed order.
var ActionTypes = []ActionType{
	ColorChanged, ColorUnchanged,
	MaterialChanged, MaterialUnchanged,
	PositionChanged, PositionUnchanged,
	SizeChanged, SizeUnchanged,
	ShapeChanged, ShapeUnchanged,
}

// Action labels.
const (
	LabelColorChange    = "Color Change"
	LabelMaterialChange = "Material Change"
	LabelMovement       = "Movement"
	LabelSizeChange     = "Size Change"
	LabelShapeChange    = "Shape Change"
	LabelNoChange       = "No Change"
)

// Action describes the difference between a scene and its after frame.
// ObjectID is set only when something actually changed.
type Action struct {
	Type      ActionType `json:"type"`
	Label     string     `json:"label"`
	ObjectID  *int       `json:"object_id,omitempty"`
	Direction string     `json:"direction,omitempty"`
}

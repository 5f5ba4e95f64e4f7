package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

func twoObjectGraph(t *testing.T) *scene.Graph {
	t.Helper()
	s := &scene.Scene{Frame: scene.Frame{
		Objects: []scene.Object{
			{Shape: "cube", Color: "red", Material: "rubber", Size: "large", Position: scene.Vec3{-2, 0, 0.7}},
			{Shape: "sphere", Color: "blue", Material: "metal", Size: "small", Position: scene.Vec3{2, 0, 0.35}},
		},
		Directions: scene.Directions{
			scene.Left:   {-1, 0, 0},
			scene.Right:  {1, 0, 0},
			scene.Behind: {0, 1, 0},
			scene.Front:  {0, -1, 0},
		},
	}}
	require.NoError(t, s.Normalize())
	return scene.NewGraph(s)
}

func actionGraph(t *testing.T, after scene.Object, typ scene.ActionType) *scene.Graph {
	t.Helper()
	before := []scene.Object{
		{Shape: "cube", Color: "blue", Material: "rubber", Size: "large", Position: scene.Vec3{0, 0, 0.7}},
		{Shape: "sphere", Color: "green", Material: "metal", Size: "small", Position: scene.Vec3{2, 2, 0.35}},
	}
	afterObjects := []scene.Object{after, before[1]}
	s := &scene.Scene{
		Frame:  scene.Frame{Objects: before},
		Action: scene.NewAction(typ, 0, ""),
		After:  &scene.Frame{Objects: afterObjects},
	}
	require.NoError(t, s.Normalize())
	return scene.NewGraph(s)
}

func TestExecute_RelationalYesNo(t *testing.T) {
	g := twoObjectGraph(t)
	// Is the red cube to the left of the blue sphere?
	steps := []Step{
		{Type: "scene"},
		{Type: "filter_color", Inputs: []int{0}, ValueInputs: []string{"red"}},
		{Type: "filter_shape", Inputs: []int{1}, ValueInputs: []string{"cube"}},
		{Type: "unique", Inputs: []int{2}},
		{Type: "scene"},
		{Type: "filter_color", Inputs: []int{4}, ValueInputs: []string{"blue"}},
		{Type: "filter_shape", Inputs: []int{5}, ValueInputs: []string{"sphere"}},
		{Type: "unique", Inputs: []int{6}},
		{Type: "relate", Inputs: []int{7}, ValueInputs: []string{"left"}},
		{Type: "intersect", Inputs: []int{8, 2}},
		{Type: "exist", Inputs: []int{9}},
	}

	answer, err := Replay(steps, g)
	require.NoError(t, err)
	assert.Equal(t, "Yes", answer)

	steps[8].ValueInputs = []string{"right"}
	answer, err = Replay(steps, g)
	require.NoError(t, err)
	assert.Equal(t, "No", answer)
}

func TestExecute_CountAndQueries(t *testing.T) {
	g := twoObjectGraph(t)

	answer, err := Replay([]Step{{Type: "scene"}, {Type: "count", Inputs: []int{0}}}, g)
	require.NoError(t, err)
	assert.Equal(t, 2, answer)

	answer, err = Replay([]Step{
		{Type: "scene"},
		{Type: "filter_size", Inputs: []int{0}, ValueInputs: []string{"small"}},
		{Type: "unique", Inputs: []int{1}},
		{Type: "query_material", Inputs: []int{2}},
	}, g)
	require.NoError(t, err)
	assert.Equal(t, "Metal", answer)

	answer, err = Replay([]Step{
		{Type: "scene"},
		{Type: "filter_color", Inputs: []int{0}, ValueInputs: []string{""}},
		{Type: "count_equal", Inputs: []int{1}, ValueInputs: []string{"2"}},
	}, g)
	require.NoError(t, err)
	assert.Equal(t, "Yes", answer, "empty filter value is the identity")
}

func TestExecute_UniqueRejectsAmbiguity(t *testing.T) {
	g := twoObjectGraph(t)
	_, err := Execute([]Step{
		{Type: "scene"},
		{Type: "unique", Inputs: []int{0}},
	}, g)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Execute([]Step{
		{Type: "scene"},
		{Type: "filter_color", Inputs: []int{0}, ValueInputs: []string{"purple"}},
		{Type: "unique", Inputs: []int{1}},
	}, g)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestExecute_StructuralErrors(t *testing.T) {
	g := twoObjectGraph(t)

	_, err := Execute(nil, g)
	assert.Error(t, err)

	_, err = Execute([]Step{{Type: "teleport"}}, g)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)

	_, err = Execute([]Step{{Type: "count", Inputs: []int{0}}}, g)
	assert.Error(t, err, "forward reference")

	_, err = Execute([]Step{{Type: "scene"}, {Type: "query_color", Inputs: []int{0}}}, g)
	assert.Error(t, err, "kind mismatch")
	assert.NotErrorIs(t, err, ErrInvalid)

	_, err = Replay([]Step{{Type: "scene"}}, g)
	assert.Error(t, err, "object set is not an answer")
}

func TestSetOps(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 5}, union([]int{1, 3, 5}, []int{2, 3}))
	assert.Equal(t, []int{3}, intersect([]int{1, 3, 5}, []int{2, 3}))
	assert.Equal(t, []int{1, 5}, difference([]int{1, 3, 5}, []int{2, 3}))
	assert.Empty(t, intersect([]int{1}, nil))
}

func TestSameAttr_ExcludesSelf(t *testing.T) {
	g := twoObjectGraph(t)
	v, err := Execute([]Step{
		{Type: "scene"},
		{Type: "filter_shape", Inputs: []int{0}, ValueInputs: []string{"cube"}},
		{Type: "unique", Inputs: []int{1}},
		{Type: "same_shape", Inputs: []int{2}},
	}, g)
	require.NoError(t, err)
	assert.Empty(t, v.Set)
}

func TestActionOps_ColorChange(t *testing.T) {
	after := scene.Object{Shape: "cube", Color: "red", Material: "rubber", Size: "large", Position: scene.Vec3{0, 0, 0.7}}
	g := actionGraph(t, after, scene.ColorChanged)

	answer, err := Replay([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
		{Type: "query_color_after", Inputs: []int{1}},
	}, g)
	require.NoError(t, err)
	assert.Equal(t, "Red", answer)

	answer, err = Replay([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
		{Type: "query_color_before", Inputs: []int{1}},
	}, g)
	require.NoError(t, err)
	assert.Equal(t, "Blue", answer)

	answer, err = Replay([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
		{Type: "query_action", Inputs: []int{1}},
	}, g)
	require.NoError(t, err)
	assert.Equal(t, "Color Change", answer)

	_, err = Execute([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
		{Type: "query_direction", Inputs: []int{1}},
	}, g)
	assert.ErrorIs(t, err, ErrInvalid, "object did not move")

	_, err = Execute([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
		{Type: "query_material_after", Inputs: []int{1}},
	}, g)
	assert.ErrorIs(t, err, ErrInvalid, "material did not change")
}

func TestActionOps_Movement(t *testing.T) {
	dirs := scene.DefaultDirections()
	front := dirs[scene.Front]
	after := scene.Object{Shape: "cube", Color: "blue", Material: "rubber", Size: "large",
		Position: scene.Vec3{front[0] * 1.5, front[1] * 1.5, 0.7}}
	g := actionGraph(t, after, scene.PositionChanged)

	answer, err := Replay([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
		{Type: "query_direction", Inputs: []int{1}},
	}, g)
	require.NoError(t, err)
	assert.Equal(t, "Front", answer)
}

func TestActionOps_RequirePair(t *testing.T) {
	g := twoObjectGraph(t)
	_, err := Execute([]Step{
		{Type: "scene"},
		{Type: "changed_object", Inputs: []int{0}},
	}, g)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAnswerKey(t *testing.T) {
	assert.Equal(t, "yes", AnswerKey("Yes"))
	assert.Equal(t, "3", AnswerKey(3))
	assert.Equal(t, "3", AnswerKey(float64(3)))
	assert.Equal(t, "front right", AnswerKey("Front Right"))
	assert.Equal(t, "red", CategoryValue("red").Key())
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "filter_color")
	assert.Contains(t, names, "query_shape_after")
	assert.IsIncreasing(t, names)
}

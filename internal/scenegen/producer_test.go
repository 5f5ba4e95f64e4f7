package scenegen

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/clevr-action/assets"
	"github.com/tensorplex-labs/clevr-action/internal/dataset"
	"github.com/tensorplex-labs/clevr-action/internal/progress"
	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

func properties(t *testing.T) *Properties {
	t.Helper()
	props, err := LoadProperties(assets.FS, "properties.json")
	require.NoError(t, err)
	return props
}

func TestLoadProperties(t *testing.T) {
	props := properties(t)
	assert.Equal(t, []string{"cube", "cylinder", "sphere"}, props.Names(scene.AttrShape))
	assert.Equal(t, []string{"large", "small"}, props.Names(scene.AttrSize))
	assert.Len(t, props.Names(scene.AttrColor), 8)
	assert.InDelta(t, 0.7, props.Sizes["large"], 1e-9)
}

func TestScene_LayoutRules(t *testing.T) {
	props := properties(t)
	cfg := DefaultConfig()
	p, err := NewProducer(props, cfg, 1)
	require.NoError(t, err)

	for i := range 20 {
		s, err := p.Scene(i)
		require.NoError(t, err)

		assert.Equal(t, i, s.ImageIndex)
		assert.Equal(t, Filename("CLEVR", "new", i, "png"), s.ImageFilename)
		assert.GreaterOrEqual(t, len(s.Objects), cfg.MinObjects)
		assert.LessOrEqual(t, len(s.Objects), cfg.MaxObjects)
		assert.True(t, scene.Distinguishable(s.Objects))
		assert.Nil(t, s.After)

		for a, o := range s.Objects {
			assert.LessOrEqual(t, o.Position[0], 3.0)
			assert.GreaterOrEqual(t, o.Position[0], -3.0)
			assert.True(t, p.fits(s.Directions, s.Objects, a, o.Position[0], o.Position[1], props.Sizes[o.Size]),
				"object %d of scene %d breaks spacing", a, i)
		}
		assert.Len(t, s.Relationships[scene.Left], len(s.Objects))
	}
}

func TestScene_DeterministicPerIndex(t *testing.T) {
	props := properties(t)
	cfg := DefaultConfig()
	cfg.Action = true

	a, err := NewProducer(props, cfg, 9)
	require.NoError(t, err)
	b, err := NewProducer(props, cfg, 9)
	require.NoError(t, err)

	// b skips ahead; index 5 must not depend on what ran before it.
	_, err = b.Scene(4)
	require.NoError(t, err)

	sa, err := a.Scene(5)
	require.NoError(t, err)
	sb, err := b.Scene(5)
	require.NoError(t, err)

	ja, err := dataset.Marshal(sa)
	require.NoError(t, err)
	jb, err := dataset.Marshal(sb)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
}

func TestScene_ActionMode(t *testing.T) {
	props := properties(t)
	cfg := DefaultConfig()
	cfg.Action = true
	p, err := NewProducer(props, cfg, 3)
	require.NoError(t, err)

	seen := map[scene.ActionType]bool{}
	for i := range 60 {
		s, err := p.Scene(i)
		require.NoError(t, err)
		require.NotNil(t, s.Action)
		require.NotNil(t, s.After)
		seen[s.Action.Type] = true

		assert.Equal(t, Filename("CLEVR", "cor", i, "png"), s.After.ImageFilename)
		assert.Len(t, s.After.Objects, len(s.Objects))

		g := scene.NewGraph(s)
		diffs := 0
		for k := range s.Objects {
			if !assert.ObjectsAreEqual(s.Objects[k], s.After.Objects[k]) {
				diffs++
			}
		}
		if !s.Action.Type.Changed() {
			assert.Zero(t, diffs, "scene %d: %s", i, s.Action.Type)
			assert.Nil(t, s.Action.ObjectID)
			continue
		}

		require.NotNil(t, s.Action.ObjectID)
		id := *s.Action.ObjectID
		assert.Equal(t, 1, diffs)
		switch s.Action.Type {
		case scene.PositionChanged:
			dir, moved := g.Movement(id)
			assert.True(t, moved)
			assert.Equal(t, s.Action.Direction, dir)
			assert.Equal(t, scene.LabelMovement, s.Action.Label)
		case scene.ColorChanged:
			assert.True(t, g.AttrChanged(id, scene.AttrColor))
		case scene.MaterialChanged:
			assert.True(t, g.AttrChanged(id, scene.AttrMaterial))
		default:
			t.Fatalf("unexpected action %s", s.Action.Type)
		}
	}
	assert.True(t, seen[scene.PositionChanged])
	assert.True(t, seen[scene.ColorChanged])
}

func TestScene_AfterFrameKeepsLayoutRules(t *testing.T) {
	props := properties(t)
	for _, prop := range []string{scene.AttrSize, scene.AttrColor, scene.AttrMaterial} {
		t.Run(prop, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Action = true
			cfg.ActionProperties = []string{prop}
			cfg.MinObjects, cfg.MaxObjects = 10, 10
			p, err := NewProducer(props, cfg, 11)
			require.NoError(t, err)

			changed := 0
			for i := range 150 {
				s, err := p.Scene(i)
				require.NoError(t, err)
				after := s.After.Objects
				assert.True(t, scene.Distinguishable(after), "scene %d: after frame has identical objects", i)
				for a, o := range after {
					r := props.Sizes[o.Size]
					assert.InDelta(t, r, o.Position[2], 1e-9)
					assert.True(t, p.fits(s.After.Directions, after, a, o.Position[0], o.Position[1], r),
						"scene %d: after-frame object %d overlaps", i, a)
				}
				if s.Action.Type.Changed() {
					changed++
				} else {
					assert.True(t, assert.ObjectsAreEqual(s.Objects, after), "scene %d: unchanged action altered objects", i)
				}
			}
			assert.Positive(t, changed)
		})
	}
}

func TestScene_PlacementFailed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinObjects, cfg.MaxObjects = 40, 40
	cfg.MinDist = 2
	cfg.MaxRetries = 5
	cfg.MaxLayoutAttempts = 3
	p, err := NewProducer(properties(t), cfg, 1)
	require.NoError(t, err)

	_, err = p.Scene(0)
	assert.ErrorIs(t, err, ErrPlacementFailed)
}

func TestNewProducer_Validation(t *testing.T) {
	props := properties(t)

	_, err := NewProducer(nil, DefaultConfig(), 0)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.MinObjects, cfg.MaxObjects = 5, 2
	_, err = NewProducer(props, cfg, 0)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Action = true
	cfg.ActionProperties = []string{"weight"}
	_, err = NewProducer(props, cfg, 0)
	assert.Error(t, err)
}

func TestRunAndJoin(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Action = true
	p, err := NewProducer(properties(t), cfg, 5)
	require.NoError(t, err)

	cursor, err := progress.Load(filepath.Join(dir, "progress.json"))
	require.NoError(t, err)

	paths, err := p.Run(context.Background(), cursor, filepath.Join(dir, "scenes"), 10, 4)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, 13, cursor.LastCompleted)

	// A rerun resumes past everything already written.
	resumed, err := progress.Load(filepath.Join(dir, "progress.json"))
	require.NoError(t, err)
	assert.Equal(t, 14, resumed.Next(10))
	again, err := p.Run(context.Background(), resumed, filepath.Join(dir, "scenes"), 10, 4)
	require.NoError(t, err)
	assert.Equal(t, paths, again)

	f, counts, err := Join(paths, scene.Info{Split: "new", Version: "1.0"})
	require.NoError(t, err)
	require.Len(t, f.Scenes, 4)
	for k, s := range f.Scenes {
		assert.Equal(t, 10+k, s.ImageIndex)
		assert.NotNil(t, s.After)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 4, total)
	assert.Len(t, counts, len(scene.ActionTypes))

	out := filepath.Join(dir, "CLEVR_scenes.json.zst")
	require.NoError(t, scene.WriteFile(out, f))
	loaded, err := scene.LoadFile(out)
	require.NoError(t, err)
	assert.Len(t, loaded.Scenes, 4)
}

func TestRun_WindowBelowCursor(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProducer(properties(t), DefaultConfig(), 5)
	require.NoError(t, err)

	cursorPath := filepath.Join(dir, "progress.json")
	cursor, err := progress.Load(cursorPath)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), cursor, filepath.Join(dir, "a"), 100, 3)
	require.NoError(t, err)

	// A lower window sharing the cursor file still produces its own scenes.
	cursor, err = progress.Load(cursorPath)
	require.NoError(t, err)
	assert.Equal(t, 102, cursor.LastCompleted)
	paths, err := p.Run(context.Background(), cursor, filepath.Join(dir, "b"), 0, 3)
	require.NoError(t, err)

	f, _, err := Join(paths, scene.Info{Split: "new"})
	require.NoError(t, err)
	require.Len(t, f.Scenes, 3)
	assert.Equal(t, 0, f.Scenes[0].ImageIndex)

	// The first window still joins after the cursor moved back.
	cursor, err = progress.Load(cursorPath)
	require.NoError(t, err)
	again, err := p.Run(context.Background(), cursor, filepath.Join(dir, "a"), 100, 3)
	require.NoError(t, err)
	_, _, err = Join(again, scene.Info{Split: "new"})
	require.NoError(t, err)
}

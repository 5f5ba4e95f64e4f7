// Package scenegen lays out random object scenes and, in action mode, the
// after frame of a single-object change. It produces the scene records the
// question synthesizer consumes; rendering is not part of it.
package scenegen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/clevr-action/internal/scene"
)

// ErrPlacementFailed is returned when no layout could be found within the
// configured attempts.
var ErrPlacementFailed = errors.New("object placement failed")

// PropertyPosition is the action property that moves an object.
const PropertyPosition = "position"

// arena is the half width of the square objects are placed in.
const arena = 3.0

type Config struct {
	MinObjects        int
	MaxObjects        int
	MinDist           float64
	Margin            float64
	MaxRetries        int
	MaxLayoutAttempts int

	Action           bool
	ActionProperties []string
	MoveProbability  float64

	FilenamePrefix string
	Split          string
	AfterSplit     string
}

func DefaultConfig() Config {
	return Config{
		MinObjects:        3,
		MaxObjects:        10,
		MinDist:           0.25,
		Margin:            0.4,
		MaxRetries:        50,
		MaxLayoutAttempts: 100,
		ActionProperties:  []string{PropertyPosition, scene.AttrMaterial, scene.AttrColor},
		MoveProbability:   0.8,
		FilenamePrefix:    "CLEVR",
		Split:             "new",
		AfterSplit:        "cor",
	}
}

type Producer struct {
	props *Properties
	cfg   Config
	seed  uint64
}

// NewProducer validates cfg. Each scene index draws from its own generator
// derived from seed, so a resumed run reproduces the same scenes.
func NewProducer(props *Properties, cfg Config, seed uint64) (*Producer, error) {
	if props == nil {
		return nil, fmt.Errorf("properties cannot be nil")
	}
	if cfg.MinObjects < 1 || cfg.MaxObjects < cfg.MinObjects {
		return nil, fmt.Errorf("invalid object range [%d, %d]", cfg.MinObjects, cfg.MaxObjects)
	}
	if cfg.MaxRetries < 1 || cfg.MaxLayoutAttempts < 1 {
		return nil, fmt.Errorf("max retries and layout attempts must be positive")
	}
	if cfg.Action {
		if len(cfg.ActionProperties) == 0 {
			return nil, fmt.Errorf("action mode needs at least one action property")
		}
		for _, prop := range cfg.ActionProperties {
			if prop != PropertyPosition && !slices.Contains(scene.Attributes, prop) {
				return nil, fmt.Errorf("unknown action property %q", prop)
			}
		}
	}
	return &Producer{props: props, cfg: cfg, seed: seed}, nil
}

// Filename is the per-index file name, e.g. CLEVR_new_000042.png.
func Filename(prefix, split string, index int, ext string) string {
	return fmt.Sprintf("%s_%s_%06d.%s", prefix, split, index, ext)
}

// Scene lays out the scene for index.
func (p *Producer) Scene(index int) (*scene.Scene, error) {
	rng := rand.New(rand.NewPCG(p.seed, uint64(index)))
	dirs := scene.DefaultDirections()

	n := p.cfg.MinObjects + rng.IntN(p.cfg.MaxObjects-p.cfg.MinObjects+1)
	objects, err := p.layout(rng, dirs, n)
	if err != nil {
		return nil, fmt.Errorf("scene %d: %w", index, err)
	}

	s := &scene.Scene{
		Frame: scene.Frame{
			Split:         p.cfg.Split,
			ImageFilename: Filename(p.cfg.FilenamePrefix, p.cfg.Split, index, "png"),
			Objects:       objects,
			Directions:    dirs,
		},
		ImageIndex: index,
	}

	if p.cfg.Action {
		after, action := p.mutate(rng, dirs, objects)
		s.Action = action
		s.After = &scene.Frame{
			Split:         p.cfg.AfterSplit,
			ImageFilename: Filename(p.cfg.FilenamePrefix, p.cfg.AfterSplit, index, "png"),
			Objects:       after,
			Directions:    scene.DefaultDirections(),
		}
	}

	if err := s.Normalize(); err != nil {
		return nil, fmt.Errorf("scene %d: %w", index, err)
	}
	return s, nil
}

// layout places n objects. A layout restarts when one object cannot be
// placed within MaxRetries tries or when two objects end up identical.
func (p *Producer) layout(rng *rand.Rand, dirs scene.Directions, n int) ([]scene.Object, error) {
	for range p.cfg.MaxLayoutAttempts {
		objects, ok := p.tryLayout(rng, dirs, n)
		if ok && scene.Distinguishable(objects) {
			return objects, nil
		}
	}
	return nil, fmt.Errorf("%w: %d objects after %d layouts", ErrPlacementFailed, n, p.cfg.MaxLayoutAttempts)
}

func (p *Producer) tryLayout(rng *rand.Rand, dirs scene.Directions, n int) ([]scene.Object, bool) {
	objects := make([]scene.Object, 0, n)
	for range n {
		size := p.pick(rng, scene.AttrSize)
		r := p.props.Sizes[size]
		x, y, ok := p.findSlot(rng, dirs, objects, -1, r)
		if !ok {
			return nil, false
		}
		objects = append(objects, scene.Object{
			Shape:    p.pick(rng, scene.AttrShape),
			Color:    p.pick(rng, scene.AttrColor),
			Material: p.pick(rng, scene.AttrMaterial),
			Size:     size,
			Position: scene.Vec3{x, y, r},
			Rotation: 360 * rng.Float64(),
		})
	}
	return objects, true
}

// findSlot draws positions until one keeps MinDist from every other object
// and Margin along every cardinal direction. Object skip is ignored.
func (p *Producer) findSlot(rng *rand.Rand, dirs scene.Directions, objects []scene.Object, skip int, r float64) (float64, float64, bool) {
	for range p.cfg.MaxRetries {
		x := (2*rng.Float64() - 1) * arena
		y := (2*rng.Float64() - 1) * arena
		if p.fits(dirs, objects, skip, x, y, r) {
			return x, y, true
		}
	}
	return 0, 0, false
}

func (p *Producer) fits(dirs scene.Directions, objects []scene.Object, skip int, x, y, r float64) bool {
	for j, o := range objects {
		if j == skip {
			continue
		}
		d := []float64{x - o.Position[0], y - o.Position[1]}
		if floats.Norm(d, 2)-r-p.props.Sizes[o.Size] < p.cfg.MinDist {
			return false
		}
		for _, name := range []string{scene.Left, scene.Right, scene.Front, scene.Behind} {
			dir := dirs[name]
			margin := floats.Dot(d, dir[:2])
			if margin > 0 && margin < p.cfg.Margin {
				return false
			}
		}
	}
	return true
}

// mutate changes one property of one object. A redraw that lands on the
// old value, a skipped move, a move or growth with no room and a change
// that makes two objects identical are all recorded as the unchanged
// action type.
func (p *Producer) mutate(rng *rand.Rand, dirs scene.Directions, objects []scene.Object) ([]scene.Object, *scene.Action) {
	after := slices.Clone(objects)
	id := rng.IntN(len(after))
	prop := p.cfg.ActionProperties[rng.IntN(len(p.cfg.ActionProperties))]

	if prop == PropertyPosition {
		if rng.Float64() < p.cfg.MoveProbability {
			old := after[id].Position
			r := p.props.Sizes[after[id].Size]
			if x, y, ok := p.findSlot(rng, dirs, after, id, r); ok {
				moved := scene.Vec3{x, y, old[2]}
				if dir, ok := scene.MoveDirection(old, moved, dirs); ok {
					after[id].Position = moved
					return after, scene.NewAction(scene.PositionChanged, id, dir)
				}
			}
		}
		return after, scene.NewAction(scene.PositionUnchanged, id, "")
	}

	value := p.pick(rng, prop)
	if value == after[id].Attr(prop) {
		return after, scene.NewAction(scene.ActionTypeFor(prop, false), id, "")
	}
	changed := slices.Clone(after)
	changed[id].SetAttr(prop, value)
	if prop == scene.AttrSize {
		r := p.props.Sizes[value]
		changed[id].Position[2] = r
		if !p.fits(dirs, changed, id, changed[id].Position[0], changed[id].Position[1], r) {
			return after, scene.NewAction(scene.ActionTypeFor(prop, false), id, "")
		}
	}
	if !scene.Distinguishable(changed) {
		return after, scene.NewAction(scene.ActionTypeFor(prop, false), id, "")
	}
	return changed, scene.NewAction(scene.ActionTypeFor(prop, true), id, "")
}

func (p *Producer) pick(rng *rand.Rand, attr string) string {
	names := p.props.names[attr]
	return names[rng.IntN(len(names))]
}

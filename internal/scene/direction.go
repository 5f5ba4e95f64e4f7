package scene

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MoveEpsilon is the smallest planar displacement that counts as movement.
const MoveEpsilon = 0.2

// MoveDirections are the eight coarse movement labels, clockwise from Front.
var MoveDirections = []string{
	"Front", "Front Right", "Right", "Back Right",
	"Back", "Back Left", "Left", "Front Left",
}

// MoveDirection discretises the planar displacement from before to after into
// one of MoveDirections, each covering a 45 degree sector centred on its
// label. It reports false when the object did not move.
func MoveDirection(before, after Vec3, dirs Directions) (string, bool) {
	d := Sub(after, before)
	d[2] = 0
	if floats.Norm(d[:], 2) < MoveEpsilon {
		return "", false
	}

	front, ok := dirs[Front]
	if !ok {
		front = DefaultDirections()[Front]
	}
	right, ok := dirs[Right]
	if !ok {
		right = DefaultDirections()[Right]
	}

	f := floats.Dot(d[:], front[:])
	r := floats.Dot(d[:], right[:])
	angle := math.Atan2(r, f) * 180 / math.Pi

	sector := int(math.Round(angle/45)) % len(MoveDirections)
	if sector < 0 {
		sector += len(MoveDirections)
	}
	return MoveDirections[sector], true
}

package core

import "math"

// Position is a physical grid position used to rank neighbors.
type Position struct {
	X, Y, Z int16
}

// DistanceSquared returns the squared euclidean distance to o, saturated at
// math.MaxInt32.
func (p Position) DistanceSquared(o Position) int32 {
	dx := int64(p.X) - int64(o.X)
	dy := int64(p.Y) - int64(o.Y)
	dz := int64(p.Z) - int64(o.Z)

	return int32(min(dx*dx+dy*dy+dz*dz, math.MaxInt32))
}

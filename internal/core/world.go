package core

import (
	"math"
	"math/rand/v2"
)

// spawnInset keeps freshly spawned sessions away from the world edges.
const spawnInset = 80.0

// Position is a point in world coordinates.
type Position struct {
	X float64
	Y float64
}

// Bounds is the inclusive rectangle every accepted position stays inside.
type Bounds struct {
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

// DefaultBounds matches the 800x600 canvas shared with the client.
func DefaultBounds() Bounds {
	return Bounds{MinX: 20, MaxX: 780, MinY: 20, MaxY: 580}
}

// Clamp pulls p into the bounds.
func (b Bounds) Clamp(p Position) Position {
	return Position{
		X: math.Min(math.Max(p.X, b.MinX), b.MaxX),
		Y: math.Min(math.Max(p.Y, b.MinY), b.MaxY),
	}
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p Position) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// World carries the movement rules shared by every room.
type World struct {
	Bounds Bounds
	// MaxStep rejects moves whose per-axis distance exceeds it. Zero keeps the
	// permissive clamp-and-accept policy.
	MaxStep float64
}

// DefaultWorld returns the permissive world with default bounds.
func DefaultWorld() World {
	return World{Bounds: DefaultBounds()}
}

// Accepts reports whether a move from cur to the already clamped next is allowed.
func (w World) Accepts(cur, next Position) bool {
	if next == cur {
		return false
	}
	if w.MaxStep > 0 {
		if math.Abs(next.X-cur.X) > w.MaxStep || math.Abs(next.Y-cur.Y) > w.MaxStep {
			return false
		}
	}
	return true
}

// Spawn picks an integer position inside the bounds, inset from the edges.
func (w World) Spawn() Position {
	b := w.Bounds
	return Position{
		X: spawnAxis(b.MinX, b.MaxX),
		Y: spawnAxis(b.MinY, b.MaxY),
	}
}

func spawnAxis(lo, hi float64) float64 {
	inset := math.Min(spawnInset, (hi-lo)/4)
	from := math.Ceil(lo + inset)
	to := math.Floor(hi - inset)
	if to <= from {
		return (lo + hi) / 2
	}
	return from + float64(rand.IntN(int(to-from)+1))
}

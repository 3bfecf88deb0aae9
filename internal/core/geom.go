// Package core provides fundamental types and utilities for the colony simulator.
// It contains no external dependencies (especially no Bubble Tea) to keep the
// movement logic pure and testable.
package core

import "fmt"

// Point is an integer pixel coordinate in viewport space.
type Point struct {
	X, Y int
}

// Add returns the point translated by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// String formats the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rect represents an axis-aligned bounding box in viewport pixel coordinates.
// X is the left edge and Y is the top edge. Rects are immutable snapshots.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectAt creates a rectangle of size w×h whose top-left corner is p.
func RectAt(p Point, w, h int) Rect {
	return Rect{X: p.X, Y: p.Y, W: w, H: h}
}

// Left returns the x-coordinate of the left edge.
func (r Rect) Left() int {
	return r.X
}

// Top returns the y-coordinate of the top edge.
func (r Rect) Top() int {
	return r.Y
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Intersects returns true if this rectangle overlaps with another.
// Uses standard AABB collision detection.
func (r Rect) Intersects(other Rect) bool {
	// No overlap if one rect is completely to the left, right, above, or below
	if r.X >= other.Right() || other.X >= r.Right() {
		return false
	}
	if r.Y >= other.Bottom() || other.Y >= r.Bottom() {
		return false
	}
	return true
}

// OverlapsX reports whether the horizontal spans of r and other share at least
// one pixel column. Touching edges do not overlap.
func (r Rect) OverlapsX(other Rect) bool {
	return r.Right() > other.X && r.X < other.Right()
}

// OverlapsY reports whether the vertical spans of r and other share at least
// one pixel row. Touching edges do not overlap.
func (r Rect) OverlapsY(other Rect) bool {
	return r.Bottom() > other.Y && r.Y < other.Bottom()
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// String formats the rect as "{x,y wxh}".
func (r Rect) String() string {
	return fmt.Sprintf("{%d,%d %dx%d}", r.X, r.Y, r.W, r.H)
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

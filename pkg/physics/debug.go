// pkg/physics/debug.go
package physics

// DebugDrawer receives read-only overlay primitives from shapes, the
// dynamic tree and contacts. The physics package never draws by itself.
type DebugDrawer interface {
	DrawLine(from, to Vector2D)
	DrawCircle(center Vector2D, radius float64)
	DrawPoint(p Vector2D)
}

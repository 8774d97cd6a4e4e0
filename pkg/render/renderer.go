// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// DrawWorld draws every body's shape and the last tick's contacts. The
// broad-phase overlay is included when tree is set.
func DrawWorld(d physics.DebugDrawer, w *physics.World, tree bool) {
	if tree {
		w.DebugDraw(d)
		return
	}
	for _, b := range w.Bodies() {
		b.Shape().DebugDraw(d)
	}
	for _, c := range w.Contacts() {
		c.DebugDraw(d)
	}
}

// NullRenderer is a physics.DebugDrawer that only logs what it is asked to
// draw at debug level and counts the primitives.
type NullRenderer struct {
	logger *logging.Logger
	ctx    context.Context

	Lines   int
	Circles int
	Points  int
}

// NewNullRenderer creates a new NullRenderer. A nil logger uses the default
// structured logger.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &NullRenderer{
		logger: logger,
		ctx:    context.Background(),
	}
}

// Clear resets the primitive counters
func (d *NullRenderer) Clear() {
	d.Lines, d.Circles, d.Points = 0, 0, 0
	d.logger.Debug(d.ctx, "Clear called")
}

// Present logs the number of primitives drawn since the last Clear
func (d *NullRenderer) Present() {
	d.logger.Debug(d.ctx, "Present called",
		"lines", d.Lines,
		"circles", d.Circles,
		"points", d.Points,
	)
}

// DrawLine implements physics.DebugDrawer
func (d *NullRenderer) DrawLine(from, to physics.Vector2D) {
	d.Lines++
	d.logger.Debug(d.ctx, "DrawLine called", "from", from.String(), "to", to.String())
}

// DrawCircle implements physics.DebugDrawer
func (d *NullRenderer) DrawCircle(center physics.Vector2D, radius float64) {
	d.Circles++
	d.logger.Debug(d.ctx, "DrawCircle called", "center", center.String(), "radius", radius)
}

// DrawPoint implements physics.DebugDrawer
func (d *NullRenderer) DrawPoint(p physics.Vector2D) {
	d.Points++
	d.logger.Debug(d.ctx, "DrawPoint called", "point", p.String())
}

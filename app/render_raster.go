package app

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// maxBufferSize caps offscreen buffer dimensions to keep GPU memory bounded.
const maxBufferSize = 4096

// RasterTarget renders the map into an offscreen buffer and re-blits the
// cached pixels until something invalidates them. Redraw cost is paid only
// when the projection, viewport or selection changes, which is what makes
// large maps cheap to keep on screen.
type RasterTarget struct {
	inner *VectorTarget

	buffer      *ebiten.Image
	bufferW     int
	bufferH     int
	needsRedraw bool
	screen      *ebiten.Image
}

// NewRasterTarget wraps the vector strategy with an offscreen cache.
func NewRasterTarget(background *ebiten.Image) *RasterTarget {
	return &RasterTarget{
		inner:       NewVectorTarget(background),
		needsRedraw: true,
	}
}

// SetBackground swaps the map image and invalidates the cache.
func (rt *RasterTarget) SetBackground(background *ebiten.Image) {
	rt.inner.SetBackground(background)
	rt.needsRedraw = true
}

// Invalidate marks the buffer stale; the next frame redraws into it. Wired as
// the store change callback and called on any viewport mutation.
func (rt *RasterTarget) Invalidate() {
	rt.needsRedraw = true
}

// BeginFrame sizes the buffer to the screen and decides whether this frame
// re-renders or replays the cache. It returns true when the caller should emit
// draw commands.
func (rt *RasterTarget) BeginFrame(screen *ebiten.Image) bool {
	rt.screen = screen

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if w > maxBufferSize {
		w = maxBufferSize
	}
	if h > maxBufferSize {
		h = maxBufferSize
	}
	if w <= 0 || h <= 0 {
		return false
	}

	if rt.buffer == nil || rt.bufferW != w || rt.bufferH != h {
		rt.buffer = ebiten.NewImage(w, h)
		rt.bufferW = w
		rt.bufferH = h
		rt.needsRedraw = true
	}

	if !rt.needsRedraw {
		return false
	}

	rt.buffer.Clear()
	rt.inner.SetDestination(rt.buffer)
	return true
}

// EndFrame blits the (possibly just refreshed) buffer to the screen.
func (rt *RasterTarget) EndFrame() {
	if rt.screen == nil || rt.buffer == nil {
		return
	}
	rt.needsRedraw = false
	rt.screen.DrawImage(rt.buffer, nil)
}

// RenderTarget passthroughs into the buffered vector strategy.

func (rt *RasterTarget) DrawBackground(scale, offsetX, offsetY float64) {
	rt.inner.DrawBackground(scale, offsetX, offsetY)
}

func (rt *RasterTarget) FillPolygon(points []typedef.Point, fill color.RGBA) {
	rt.inner.FillPolygon(points, fill)
}

func (rt *RasterTarget) StrokePolygon(points []typedef.Point, stroke color.RGBA, width float32) {
	rt.inner.StrokePolygon(points, stroke, width)
}

func (rt *RasterTarget) DrawLabel(x, y float64, label string, col color.RGBA, emphasized bool) {
	rt.inner.DrawLabel(x, y, label, col, emphasized)
}

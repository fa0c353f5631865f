package app

import (
	"math"

	"github.com/Eltensy/newvictoryweb-sub000/alg"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// Viewport owns the scale and pan state of the map and converts between
// screen and map coordinates. It is deliberately free of any rendering
// imports so the transform math can be exercised without a window.
//
// Convention: screen = map*scale + offset, with the offset accumulated in
// screen pixels. Drag-pan and wheel-zoom both operate on the offset in screen
// space, so the two input paths can never drift apart.
type Viewport struct {
	scale   float64
	offsetX float64
	offsetY float64

	minScale float64
	maxScale float64

	screenW int
	screenH int

	// Animation state for smooth zoom-to-territory transitions.
	targetScale   float64
	targetOffsetX float64
	targetOffsetY float64
	startScale    float64
	startOffsetX  float64
	startOffsetY  float64
	isAnimating   bool
	animProgress  float64
	animSpeed     float64
}

// NewViewport creates a viewport at scale 1 with no pan.
func NewViewport() *Viewport {
	return &Viewport{
		scale:     1,
		minScale:  alg.MinScale,
		maxScale:  alg.MaxScale,
		animSpeed: 4.0,
	}
}

// SetScreenSize records the drawable size used for centering math.
func (v *Viewport) SetScreenSize(w, h int) {
	v.screenW = w
	v.screenH = h
}

// Scale returns the current zoom level.
func (v *Viewport) Scale() float64 { return v.scale }

// Offset returns the current pan offset in screen pixels.
func (v *Viewport) Offset() (float64, float64) { return v.offsetX, v.offsetY }

// ScreenToMap converts a screen point to map-space coordinates. The result is
// not clamped: clicks outside the canonical frame simply hit nothing.
func (v *Viewport) ScreenToMap(screenX, screenY float64) typedef.Point {
	return typedef.Point{
		X: (screenX - v.offsetX) / v.scale,
		Y: (screenY - v.offsetY) / v.scale,
	}
}

// ScreenToMapClamped converts like ScreenToMap but clamps into the canonical
// frame. Used for authoring so new points never land outside the map.
func (v *Viewport) ScreenToMapClamped(screenX, screenY float64) typedef.Point {
	p := v.ScreenToMap(screenX, screenY)
	p.X = alg.Clamp(p.X, 0, typedef.FrameWidth)
	p.Y = alg.Clamp(p.Y, 0, typedef.FrameHeight)
	return p
}

// MapToScreen converts a map point to screen coordinates.
func (v *Viewport) MapToScreen(p typedef.Point) (float64, float64) {
	return p.X*v.scale + v.offsetX, p.Y*v.scale + v.offsetY
}

// ZoomAt multiplies the scale by factor while keeping the map point under the
// given screen position visually fixed. A zoom clamped to an unchanged scale
// is a no-op so the offset cannot creep at the limits.
func (v *Viewport) ZoomAt(screenX, screenY, factor float64) {
	newScale := alg.Clamp(v.scale*factor, v.minScale, v.maxScale)
	if newScale == v.scale {
		return
	}

	// Map point under the cursor before the zoom...
	anchor := v.ScreenToMap(screenX, screenY)

	// ...must project to the same screen position after it.
	v.scale = newScale
	v.offsetX = screenX - anchor.X*v.scale
	v.offsetY = screenY - anchor.Y*v.scale
	v.stopAnimation()
}

// PanBy shifts the view by a drag delta in screen pixels.
func (v *Viewport) PanBy(deltaX, deltaY float64) {
	v.offsetX += deltaX
	v.offsetY += deltaY
	v.stopAnimation()
}

// Reset restores scale 1 and zero pan.
func (v *Viewport) Reset() {
	v.scale = 1
	v.offsetX = 0
	v.offsetY = 0
	v.stopAnimation()
}

// Center pans so the canonical frame is centered on screen at the current
// scale.
func (v *Viewport) Center() {
	v.offsetX = (float64(v.screenW) - typedef.FrameWidth*v.scale) / 2
	v.offsetY = (float64(v.screenH) - typedef.FrameHeight*v.scale) / 2
	v.stopAnimation()
}

// AnimateTo starts a smooth transition toward centering the given map point at
// the given scale.
func (v *Viewport) AnimateTo(center typedef.Point, scale float64) {
	scale = alg.Clamp(scale, v.minScale, v.maxScale)

	v.startScale = v.scale
	v.startOffsetX = v.offsetX
	v.startOffsetY = v.offsetY
	v.targetScale = scale
	v.targetOffsetX = float64(v.screenW)/2 - center.X*scale
	v.targetOffsetY = float64(v.screenH)/2 - center.Y*scale
	v.animProgress = 0
	v.isAnimating = true
}

// Update advances a running animation. deltaTime is in seconds.
func (v *Viewport) Update(deltaTime float64) {
	if !v.isAnimating {
		return
	}

	v.animProgress += deltaTime * v.animSpeed
	if v.animProgress >= 1 {
		v.scale = v.targetScale
		v.offsetX = v.targetOffsetX
		v.offsetY = v.targetOffsetY
		v.isAnimating = false
		return
	}

	// Ease-out cubic: fast start, gentle settle.
	t := 1 - math.Pow(1-v.animProgress, 3)
	v.scale = v.startScale + (v.targetScale-v.startScale)*t
	v.offsetX = v.startOffsetX + (v.targetOffsetX-v.startOffsetX)*t
	v.offsetY = v.startOffsetY + (v.targetOffsetY-v.startOffsetY)*t
}

// IsAnimating reports whether a zoom/pan transition is in flight.
func (v *Viewport) IsAnimating() bool { return v.isAnimating }

func (v *Viewport) stopAnimation() {
	v.isAnimating = false
}

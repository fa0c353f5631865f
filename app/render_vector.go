//lint:file-ignore SA1019 using deprecated text package for Draw
package app

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

var labelFace font.Face = basicfont.Face7x13

// fontYOffset centers basicfont glyphs on the label anchor
const fontYOffset = 4

// VectorTarget draws polygons directly onto the destination image every frame
// using ebiten's vector path API. Simple and always crisp; the raster strategy
// trades that for cached redraws.
type VectorTarget struct {
	dst        *ebiten.Image
	background *ebiten.Image
	whitePixel *ebiten.Image
}

// NewVectorTarget creates the strategy. background may be nil when the map
// image has not loaded yet.
func NewVectorTarget(background *ebiten.Image) *VectorTarget {
	whitePixel := ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)
	return &VectorTarget{background: background, whitePixel: whitePixel}
}

// SetDestination points the target at this frame's screen.
func (vt *VectorTarget) SetDestination(dst *ebiten.Image) { vt.dst = dst }

// SetBackground swaps the map image once an async load finishes.
func (vt *VectorTarget) SetBackground(background *ebiten.Image) { vt.background = background }

// DrawBackground scales the map image into the canonical frame and applies
// the viewport transform.
func (vt *VectorTarget) DrawBackground(scale, offsetX, offsetY float64) {
	if vt.dst == nil || vt.background == nil {
		return
	}

	bounds := vt.background.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(
		typedef.FrameWidth/float64(bounds.Dx())*scale,
		typedef.FrameHeight/float64(bounds.Dy())*scale,
	)
	opts.GeoM.Translate(offsetX, offsetY)
	opts.Filter = ebiten.FilterLinear
	vt.dst.DrawImage(vt.background, opts)
}

// FillPolygon fills an arbitrary (possibly concave) polygon using the non-zero
// fill rule.
func (vt *VectorTarget) FillPolygon(points []typedef.Point, fill color.RGBA) {
	if vt.dst == nil || len(points) < 3 {
		return
	}

	var path vector.Path
	path.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, p := range points[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()

	vertices, indices := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vertices {
		vertices[i].ColorR = float32(fill.R) / 255
		vertices[i].ColorG = float32(fill.G) / 255
		vertices[i].ColorB = float32(fill.B) / 255
		vertices[i].ColorA = float32(fill.A) / 255
	}

	opts := &ebiten.DrawTrianglesOptions{}
	opts.FillRule = ebiten.FillRuleNonZero
	opts.AntiAlias = true
	vt.dst.DrawTriangles(vertices, indices, vt.whitePixel, opts)
}

// StrokePolygon outlines the polygon edge by edge.
func (vt *VectorTarget) StrokePolygon(points []typedef.Point, stroke color.RGBA, width float32) {
	if vt.dst == nil || len(points) < 2 {
		return
	}

	j := len(points) - 1
	for i := 0; i < len(points); i++ {
		vector.StrokeLine(vt.dst,
			float32(points[j].X), float32(points[j].Y),
			float32(points[i].X), float32(points[i].Y),
			width, stroke, true)
		j = i
	}
}

// DrawLabel renders centered label text with a dark halo for readability over
// arbitrary map colors. Emphasized labels (team leader present) get a double
// pass that reads as bold with the bitmap face.
func (vt *VectorTarget) DrawLabel(x, y float64, label string, col color.RGBA, emphasized bool) {
	if vt.dst == nil || label == "" {
		return
	}

	w := font.MeasureString(labelFace, label).Ceil()
	tx := int(x) - w/2
	ty := int(y) + fontYOffset

	shadow := color.RGBA{0, 0, 0, 220}
	text.Draw(vt.dst, label, labelFace, tx+1, ty+1, shadow)
	text.Draw(vt.dst, label, labelFace, tx, ty, col)
	if emphasized {
		text.Draw(vt.dst, label, labelFace, tx+1, ty, col)
	}
}

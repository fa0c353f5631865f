package app

import (
	"image/color"
	"math"
	"strings"

	"github.com/Eltensy/newvictoryweb-sub000/alg"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// RenderTarget is the drawing capability the render pass emits to. Points
// arrive already projected to screen space, so stroke widths and font sizes
// are constant regardless of zoom level. Two strategies implement it: direct
// vector drawing and a cached raster buffer.
type RenderTarget interface {
	DrawBackground(scale, offsetX, offsetY float64)
	FillPolygon(points []typedef.Point, fill color.RGBA)
	StrokePolygon(points []typedef.Point, stroke color.RGBA, width float32)
	DrawLabel(x, y float64, label string, col color.RGBA, emphasized bool)
}

// Fill alpha by territory state. Occupied spots read stronger than free ones
// so claim coverage is visible at a glance.
const (
	fillAlphaFree     = 55
	fillAlphaOccupied = 130
	fillAlphaFull     = 180

	strokeWidthNormal   float32 = 1.5
	strokeWidthSelected float32 = 3.5
)

var labelColor = color.RGBA{255, 255, 255, 255}

// RenderMap projects the claim projection through the viewport and emits draw
// commands. A malformed territory (under 3 points, NaN coordinates) is skipped
// so one bad shape cannot take the rest of the map down with it.
func RenderMap(target RenderTarget, territories []*typedef.Territory, settings *typedef.DropMapSettings, vp *Viewport, selectedID string) {
	target.DrawBackground(vp.Scale(), vp.offsetX, vp.offsetY)

	var teamMode typedef.TeamMode
	if settings != nil {
		teamMode = settings.TeamMode
	}

	for _, t := range territories {
		if t == nil || !t.IsActive || !validPolygon(t.Points) {
			continue
		}

		screenPts := make([]typedef.Point, len(t.Points))
		for i, p := range t.Points {
			x, y := vp.MapToScreen(p)
			screenPts[i] = typedef.Point{X: x, Y: y}
		}

		fill := territoryFill(t)
		target.FillPolygon(screenPts, fill)

		stroke := fill
		stroke.A = 255
		width := strokeWidthNormal
		if t.ID == selectedID {
			width = strokeWidthSelected
		}
		target.StrokePolygon(screenPts, stroke, width)

		if label := occupantLabel(t, teamMode); label != "" {
			cx, cy := vp.MapToScreen(alg.Centroid(t.Points))
			target.DrawLabel(cx, cy, label, labelColor, hasLeader(t))
		}
	}
}

// validPolygon rejects shapes the renderer cannot draw.
func validPolygon(points []typedef.Point) bool {
	if len(points) < 3 {
		return false
	}
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// territoryFill maps occupancy state to the fill color.
func territoryFill(t *typedef.Territory) color.RGBA {
	c := parseHexColor(t.Color)
	switch {
	case len(t.Claims) == 0:
		c.A = fillAlphaFree
	case t.MaxOccupants > 0 && len(t.Claims) >= t.MaxOccupants:
		c.A = fillAlphaFull
	default:
		c.A = fillAlphaOccupied
	}
	return c
}

// occupantLabel builds the territory label. Single-owner spots carry the
// owner's display name; team spots list members joined with " + ", padded with
// "?" up to the tournament team size when known, else up to maxOccupants. The
// team leader sorts first.
func occupantLabel(t *typedef.Territory, teamMode typedef.TeamMode) string {
	if len(t.Claims) == 0 {
		return ""
	}

	teamGrouped := false
	for _, c := range t.Claims {
		if c.TeamID != "" {
			teamGrouped = true
			break
		}
	}

	if !teamGrouped && len(t.Claims) == 1 {
		return t.Claims[0].DisplayName
	}

	names := make([]string, 0, len(t.Claims))
	for _, c := range t.Claims {
		if c.IsTeamLeader {
			names = append([]string{c.DisplayName}, names...)
		} else {
			names = append(names, c.DisplayName)
		}
	}

	pad := teamMode.Size()
	if pad == 0 {
		pad = t.MaxOccupants
	}
	for len(names) < pad {
		names = append(names, "?")
	}
	return strings.Join(names, " + ")
}

func hasLeader(t *typedef.Territory) bool {
	for _, c := range t.Claims {
		if c.IsTeamLeader {
			return true
		}
	}
	return false
}

// parseHexColor reads #rgb or #rrggbb; anything else falls back to a neutral
// gray rather than failing the draw.
func parseHexColor(s string) color.RGBA {
	fallback := color.RGBA{128, 128, 128, 255}

	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[i*2] = s[i]
			expanded[i*2+1] = s[i]
		}
		s = string(expanded)
	case 6:
	default:
		return fallback
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return fallback
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{rgb[0], rgb[1], rgb[2], 255}
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

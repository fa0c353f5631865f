package app

import (
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// recordingTarget captures emitted draw commands for assertions without any
// rendering surface.
type recordingTarget struct {
	backgrounds int
	fills       []struct {
		points []typedef.Point
		fill   color.RGBA
	}
	strokes []struct {
		width float32
	}
	labels []struct {
		text       string
		emphasized bool
	}
}

func (r *recordingTarget) DrawBackground(scale, offsetX, offsetY float64) { r.backgrounds++ }

func (r *recordingTarget) FillPolygon(points []typedef.Point, fill color.RGBA) {
	r.fills = append(r.fills, struct {
		points []typedef.Point
		fill   color.RGBA
	}{points, fill})
}

func (r *recordingTarget) StrokePolygon(points []typedef.Point, stroke color.RGBA, width float32) {
	r.strokes = append(r.strokes, struct{ width float32 }{width})
}

func (r *recordingTarget) DrawLabel(x, y float64, label string, col color.RGBA, emphasized bool) {
	r.labels = append(r.labels, struct {
		text       string
		emphasized bool
	}{label, emphasized})
}

func renderTerritory(id string, claims ...typedef.Claim) *typedef.Territory {
	return &typedef.Territory{
		ID: id, Name: "Spot " + id, Color: "#2060ff", MaxOccupants: 2, IsActive: true,
		Points: []typedef.Point{{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 150, Y: 200}},
		Claims: claims,
	}
}

func TestRenderSkipsMalformedShapes(t *testing.T) {
	vp := NewViewport()
	vp.SetScreenSize(800, 600)

	bad1 := renderTerritory("bad1")
	bad1.Points = bad1.Points[:2]
	bad2 := renderTerritory("bad2")
	bad2.Points[1].X = math.NaN()
	inactive := renderTerritory("off")
	inactive.IsActive = false
	good := renderTerritory("good")

	target := &recordingTarget{}
	RenderMap(target, []*typedef.Territory{bad1, nil, bad2, inactive, good}, nil, vp, "")

	if target.backgrounds != 1 {
		t.Errorf("background drawn %d times, want 1", target.backgrounds)
	}
	if len(target.fills) != 1 {
		t.Fatalf("fills = %d, want 1 (only the well-formed active shape)", len(target.fills))
	}
}

func TestRenderFillAlphaTracksOccupancy(t *testing.T) {
	vp := NewViewport()
	vp.SetScreenSize(800, 600)

	free := renderTerritory("free")
	partial := renderTerritory("partial", typedef.Claim{UserID: "a", DisplayName: "a"})
	full := renderTerritory("full",
		typedef.Claim{UserID: "a", DisplayName: "a"},
		typedef.Claim{UserID: "b", DisplayName: "b"})

	target := &recordingTarget{}
	RenderMap(target, []*typedef.Territory{free, partial, full}, nil, vp, "")

	if len(target.fills) != 3 {
		t.Fatalf("fills = %d, want 3", len(target.fills))
	}
	if !(target.fills[0].fill.A < target.fills[1].fill.A && target.fills[1].fill.A < target.fills[2].fill.A) {
		t.Errorf("fill alpha should rise with occupancy: %d, %d, %d",
			target.fills[0].fill.A, target.fills[1].fill.A, target.fills[2].fill.A)
	}
}

func TestRenderSelectionEmphasizesStroke(t *testing.T) {
	vp := NewViewport()
	vp.SetScreenSize(800, 600)

	a, b := renderTerritory("a"), renderTerritory("b")
	target := &recordingTarget{}
	RenderMap(target, []*typedef.Territory{a, b}, nil, vp, "b")

	if len(target.strokes) != 2 {
		t.Fatalf("strokes = %d, want 2", len(target.strokes))
	}
	if target.strokes[1].width <= target.strokes[0].width {
		t.Errorf("selected stroke %v should be wider than normal %v",
			target.strokes[1].width, target.strokes[0].width)
	}
}

func TestRenderProjectsThroughViewport(t *testing.T) {
	vp := NewViewport()
	vp.SetScreenSize(800, 600)
	vp.ZoomAt(0, 0, 2) // scale 2 anchored at origin
	vp.PanBy(10, 20)

	target := &recordingTarget{}
	RenderMap(target, []*typedef.Territory{renderTerritory("a")}, nil, vp, "")

	got := target.fills[0].points[0]
	want := typedef.Point{X: 100*2 + 10, Y: 100*2 + 20}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("projected vertex = %v, want %v", got, want)
	}
}

func TestOccupantLabelSingleOwner(t *testing.T) {
	t1 := renderTerritory("a", typedef.Claim{UserID: "u", DisplayName: "Raze"})
	t1.MaxOccupants = 1
	if got := occupantLabel(t1, typedef.TeamModeUnknown); got != "Raze" {
		t.Errorf("single owner label = %q, want Raze", got)
	}

	if got := occupantLabel(renderTerritory("empty"), typedef.TeamModeSquad); got != "" {
		t.Errorf("empty territory label = %q, want empty", got)
	}
}

func TestOccupantLabelTeamPadding(t *testing.T) {
	team := renderTerritory("a",
		typedef.Claim{UserID: "u1", DisplayName: "Raze", TeamID: "team-1"},
		typedef.Claim{UserID: "u2", DisplayName: "Mira", TeamID: "team-1", IsTeamLeader: true},
	)
	team.MaxOccupants = 4

	// Squad mode pads to four members, leader listed first.
	got := occupantLabel(team, typedef.TeamModeSquad)
	if got != "Mira + Raze + ? + ?" {
		t.Errorf("squad label = %q", got)
	}

	// Unknown team size pads to maxOccupants instead.
	got = occupantLabel(team, typedef.TeamModeUnknown)
	if strings.Count(got, "?") != 2 {
		t.Errorf("unknown-mode label = %q, want 2 placeholders up to maxOccupants", got)
	}

	// Trio pads to three.
	if got := occupantLabel(team, typedef.TeamModeTrio); got != "Mira + Raze + ?" {
		t.Errorf("trio label = %q", got)
	}
}

func TestRenderEmitsTeamLabel(t *testing.T) {
	vp := NewViewport()
	vp.SetScreenSize(800, 600)

	team := renderTerritory("a",
		typedef.Claim{UserID: "u1", DisplayName: "Raze", TeamID: "t"},
		typedef.Claim{UserID: "u2", DisplayName: "Mira", TeamID: "t", IsTeamLeader: true},
	)
	settings := &typedef.DropMapSettings{TeamMode: typedef.TeamModeDuo}

	target := &recordingTarget{}
	RenderMap(target, []*typedef.Territory{team}, settings, vp, "")

	if len(target.labels) != 1 {
		t.Fatalf("labels = %d, want 1", len(target.labels))
	}
	if target.labels[0].text != "Mira + Raze" {
		t.Errorf("label = %q, want duo roster with no padding", target.labels[0].text)
	}
	if !target.labels[0].emphasized {
		t.Error("leader presence should emphasize the label")
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff8800", color.RGBA{255, 136, 0, 255}},
		{"2060FF", color.RGBA{32, 96, 255, 255}},
		{"#fa0", color.RGBA{255, 170, 0, 255}},
		{"", color.RGBA{128, 128, 128, 255}},
		{"#zzzzzz", color.RGBA{128, 128, 128, 255}},
	}
	for _, tc := range cases {
		if got := parseHexColor(tc.in); got != tc.want {
			t.Errorf("parseHexColor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

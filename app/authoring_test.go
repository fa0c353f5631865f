package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Eltensy/newvictoryweb-sub000/api"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "dropmap-app-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("DROPMAP_DATA_DIR", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestAuthoringCapturesClampedPoints(t *testing.T) {
	vp := NewViewport()
	tool := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-1")
	tool.Clear()

	// Inside the frame at identity transform.
	tool.AddPointAt(100, 200, vp)
	// Far outside; must be clamped to the frame edge, not rejected.
	tool.AddPointAt(-5000, 9000, vp)

	pts := tool.Points()
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if pts[0].X != 100 || pts[0].Y != 200 {
		t.Errorf("first point = %+v, want (100, 200)", pts[0])
	}
	if pts[1].X != 0 || pts[1].Y != typedef.FrameHeight {
		t.Errorf("clamped point = %+v, want (0, %v)", pts[1], typedef.FrameHeight)
	}
}

func TestAuthoringUndoRemovesLastPoint(t *testing.T) {
	vp := NewViewport()
	tool := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-1")
	tool.Clear()

	tool.AddPointAt(10, 10, vp)
	tool.AddPointAt(20, 20, vp)
	tool.UndoPoint()

	pts := tool.Points()
	if len(pts) != 1 || pts[0].X != 10 {
		t.Fatalf("after undo got %+v, want single point at (10, 10)", pts)
	}

	tool.UndoPoint()
	tool.UndoPoint() // empty buffer, must not panic
	if len(tool.Points()) != 0 {
		t.Errorf("expected empty buffer after undoing everything")
	}
}

func TestAuthoringValidation(t *testing.T) {
	vp := NewViewport()
	tool := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-1")
	tool.Clear()

	if err := tool.Validate(); !errors.Is(err, typedef.ErrShapeNameEmpty) {
		t.Errorf("empty buffer: got %v, want ErrShapeNameEmpty", err)
	}

	tool.SetName("Tilted Towers")
	tool.AddPointAt(10, 10, vp)
	tool.AddPointAt(20, 10, vp)
	if err := tool.Validate(); !errors.Is(err, typedef.ErrTooFewPoints) {
		t.Errorf("two points: got %v, want ErrTooFewPoints", err)
	}

	tool.AddPointAt(20, 20, vp)
	if err := tool.Validate(); err != nil {
		t.Errorf("valid buffer rejected: %v", err)
	}
}

func TestAuthoringSaveRunsTwoStepFlow(t *testing.T) {
	var createdShape typedef.Shape
	var attachBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/dropmap/shapes":
			json.NewDecoder(r.Body).Decode(&createdShape)
			createdShape.ID = "shape-42"
			json.NewEncoder(w).Encode(map[string]any{"shape": createdShape})
		case r.Method == http.MethodPost && r.URL.Path == "/api/dropmap/templates/tmpl-1/shapes":
			json.NewDecoder(r.Body).Decode(&attachBody)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	vp := NewViewport()
	tool := NewAuthoringTool(api.NewClient(srv.URL, "tok"), "tmpl-1")
	tool.Clear()
	tool.SetName("Salty Springs")
	tool.SetMaxOccupants(2)
	tool.AddPointAt(10, 10, vp)
	tool.AddPointAt(60, 10, vp)
	tool.AddPointAt(35, 50, vp)

	if err := tool.Save(context.Background()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if createdShape.Name != "Salty Springs" || len(createdShape.Points) != 3 {
		t.Errorf("created shape = %+v", createdShape)
	}
	if attachBody["shapeId"] != "shape-42" {
		t.Errorf("attach used shape id %v, want shape-42", attachBody["shapeId"])
	}
	if attachBody["maxOccupants"] != float64(2) {
		t.Errorf("attach maxOccupants = %v, want 2", attachBody["maxOccupants"])
	}
	if len(tool.Points()) != 0 {
		t.Errorf("buffer not cleared after save")
	}
}

func TestAuthoringSaveNeverCallsBackendWhenInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend reached with invalid buffer: %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	tool := NewAuthoringTool(api.NewClient(srv.URL, "tok"), "tmpl-1")
	tool.Clear()
	tool.SetName("Lonely Lodge")
	if err := tool.Save(context.Background()); !errors.Is(err, typedef.ErrTooFewPoints) {
		t.Fatalf("got %v, want ErrTooFewPoints", err)
	}
}

func TestAuthoringDraftSurvivesRestart(t *testing.T) {
	vp := NewViewport()
	tool := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-draft")
	tool.Clear()
	tool.SetName("Draft Spot")
	tool.AddPointAt(10, 10, vp)
	tool.AddPointAt(20, 20, vp)

	restored := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-draft")
	restored.Toggle()
	if !restored.Active() {
		t.Fatalf("toggle did not activate the tool")
	}
	if got := restored.Points(); len(got) != 2 {
		t.Fatalf("restored %d points, want 2", len(got))
	}
	if restored.Name() != "Draft Spot" {
		t.Errorf("restored name %q, want Draft Spot", restored.Name())
	}
	restored.Clear()
}

func TestAuthoringDraftIgnoredForOtherTemplate(t *testing.T) {
	vp := NewViewport()
	tool := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-a")
	tool.Clear()
	tool.AddPointAt(10, 10, vp)

	other := NewAuthoringTool(api.NewClient("http://localhost:1", "tok"), "tmpl-b")
	other.Toggle()
	if len(other.Points()) != 0 {
		t.Errorf("draft from tmpl-a leaked into tmpl-b")
	}
	tool.Clear()
}

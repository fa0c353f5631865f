package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Eltensy/newvictoryweb-sub000/api"
	"github.com/Eltensy/newvictoryweb-sub000/storage"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

const defaultShapeColor = "#3b82f6"

// AuthoringTool captures polygon outlines in map coordinates for new
// territories. Points are buffered locally; nothing reaches the backend until
// an explicit save, which runs the two-step create-then-attach flow.
type AuthoringTool struct {
	client     *api.Client
	templateID string

	active       bool
	points       []typedef.Point
	name         string
	color        string
	maxOccupants int
}

// NewAuthoringTool creates an inactive tool bound to a template.
func NewAuthoringTool(client *api.Client, templateID string) *AuthoringTool {
	return &AuthoringTool{
		client:       client,
		templateID:   templateID,
		color:        defaultShapeColor,
		maxOccupants: 1,
	}
}

// Active reports whether clicks are being captured as vertices.
func (at *AuthoringTool) Active() bool { return at.active }

// Toggle flips capture mode. Entering capture mode restores an autosaved
// draft, if one survived a previous session.
func (at *AuthoringTool) Toggle() {
	at.active = !at.active
	if !at.active {
		return
	}
	draft, err := storage.LoadDraft()
	if err != nil || draft == nil || len(draft.Points) == 0 {
		return
	}
	if draft.TemplateID != "" && draft.TemplateID != at.templateID {
		return
	}
	at.points = draft.Points
	at.name = draft.Name
	if draft.Color != "" {
		at.color = draft.Color
	}
	log.Printf("[AUTHOR] Restored draft with %d points", len(at.points))
}

// AddPointAt appends the clicked screen position as a vertex. Positions
// outside the canonical frame are clamped to its edge rather than rejected, so
// shapes can hug the map border.
func (at *AuthoringTool) AddPointAt(screenX, screenY float64, vp *Viewport) {
	at.points = append(at.points, vp.ScreenToMapClamped(screenX, screenY))
	at.autosave()
}

// UndoPoint removes the most recent vertex.
func (at *AuthoringTool) UndoPoint() {
	if len(at.points) == 0 {
		return
	}
	at.points = at.points[:len(at.points)-1]
	at.autosave()
}

// Clear discards the buffer and the autosaved draft.
func (at *AuthoringTool) Clear() {
	at.points = nil
	at.name = ""
	storage.ClearDraft()
}

// Points returns a copy of the captured vertices for preview rendering.
func (at *AuthoringTool) Points() []typedef.Point {
	out := make([]typedef.Point, len(at.points))
	copy(out, at.points)
	return out
}

// SetName sets the territory name used on save. Kept verbatim while typing;
// trimmed on validation.
func (at *AuthoringTool) SetName(name string) {
	at.name = name
	at.autosave()
}

// Name returns the pending territory name.
func (at *AuthoringTool) Name() string { return at.name }

// SetColor overrides the fill color used on save.
func (at *AuthoringTool) SetColor(hex string) {
	if hex != "" {
		at.color = hex
	}
}

// SetMaxOccupants overrides the per-territory occupancy cap attached on save.
func (at *AuthoringTool) SetMaxOccupants(n int) {
	if n > 0 {
		at.maxOccupants = n
	}
}

// Validate reports whether the buffer can be saved as a territory.
func (at *AuthoringTool) Validate() error {
	if strings.TrimSpace(at.name) == "" {
		return typedef.ErrShapeNameEmpty
	}
	if len(at.points) < 3 {
		return typedef.ErrTooFewPoints
	}
	return nil
}

// Save validates locally, then creates the shape and attaches it to the
// template. Validation failures never leave the process. On success the buffer
// and the draft are cleared.
func (at *AuthoringTool) Save(ctx context.Context) error {
	if err := at.Validate(); err != nil {
		return err
	}

	shape := typedef.Shape{
		Name:   strings.TrimSpace(at.name),
		Points: at.Points(),
		Color:  at.color,
	}
	created, err := at.client.CreateShape(ctx, shape)
	if err != nil {
		return fmt.Errorf("create shape: %w", err)
	}
	if err := at.client.AttachShape(ctx, at.templateID, created.ID, at.maxOccupants); err != nil {
		return fmt.Errorf("attach shape %s: %w", created.ID, err)
	}

	log.Printf("[AUTHOR] Saved shape %s (%d points) to template %s", created.ID, len(shape.Points), at.templateID)
	at.points = nil
	at.name = ""
	storage.ClearDraft()
	return nil
}

// CopyToClipboard exports the buffer as JSON so a shape can be moved between
// templates or shared.
func (at *AuthoringTool) CopyToClipboard() error {
	shape := typedef.Shape{Name: strings.TrimSpace(at.name), Points: at.Points(), Color: at.color}
	raw, err := json.Marshal(shape)
	if err != nil {
		return err
	}
	return clipboard.WriteAll(string(raw))
}

// PasteFromClipboard replaces the buffer with a previously exported shape.
func (at *AuthoringTool) PasteFromClipboard() error {
	raw, err := clipboard.ReadAll()
	if err != nil {
		return err
	}
	var shape typedef.Shape
	if err := json.Unmarshal([]byte(raw), &shape); err != nil {
		return fmt.Errorf("clipboard is not a shape: %w", err)
	}
	if len(shape.Points) == 0 {
		return typedef.ErrTooFewPoints
	}
	for _, p := range shape.Points {
		if p.X < 0 || p.X > typedef.FrameWidth || p.Y < 0 || p.Y > typedef.FrameHeight {
			return fmt.Errorf("clipboard shape point (%.1f, %.1f) outside frame", p.X, p.Y)
		}
	}

	at.points = shape.Points
	if shape.Name != "" {
		at.name = shape.Name
	}
	if shape.Color != "" {
		at.color = shape.Color
	}
	at.autosave()
	return nil
}

func (at *AuthoringTool) autosave() {
	if err := storage.SaveDraft(storage.DraftData{
		TemplateID: at.templateID,
		Name:       at.name,
		Color:      at.color,
		Points:     at.points,
	}); err != nil {
		log.Printf("[AUTHOR] Draft autosave failed: %v", err)
	}
}

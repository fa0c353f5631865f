package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/pierrec/lz4"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// SnapshotData is the locally persisted projection of the last successful
// fetch: enough to render the map read-only before the first fetch of the next
// session lands, or offline entirely.
type SnapshotData struct {
	Type      string    `json:"type"`    // "dropmap_snapshot"
	Version   string    `json:"version"` // "1.0"
	Timestamp time.Time `json:"timestamp"`

	Settings    *typedef.DropMapSettings `json:"settings"`
	Territories []*typedef.Territory     `json:"territories"`

	TotalTerritories int `json:"totalTerritories"`
	TotalClaims      int `json:"totalClaims"`
}

// DraftData is the authoring buffer autosave, so a crash mid-drawing does not
// lose a half-finished polygon.
type DraftData struct {
	TemplateID string          `json:"templateId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Points     []typedef.Point `json:"points"`
	SavedAt    time.Time       `json:"savedAt"`
}

const (
	snapshotFile = "last_map.lz4"
	draftFile    = "authoring_draft.json"
)

// SaveSnapshot persists the map state as LZ4-compressed JSON in the data dir.
func SaveSnapshot(settings *typedef.DropMapSettings, territories []*typedef.Territory) error {
	snap := SnapshotData{
		Type:             "dropmap_snapshot",
		Version:          "1.0",
		Timestamp:        time.Now(),
		Settings:         settings,
		Territories:      territories,
		TotalTerritories: len(territories),
	}
	for _, t := range territories {
		snap.TotalClaims += len(t.Claims)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	if err := WriteDataFile(snapshotFile, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Printf("[STORAGE] Snapshot saved: %d territories, %d claims, %d bytes compressed",
		snap.TotalTerritories, snap.TotalClaims, buf.Len())
	return nil
}

// LoadSnapshot reads the last persisted map state, if any.
func LoadSnapshot() (*SnapshotData, error) {
	data, err := ReadDataFile(snapshotFile)
	if err != nil {
		return nil, err
	}

	reader := lz4.NewReader(bytes.NewReader(data))
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snap SnapshotData
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Type != "dropmap_snapshot" {
		return nil, fmt.Errorf("unexpected snapshot type %q", snap.Type)
	}
	return &snap, nil
}

// SaveDraft autosaves the authoring buffer.
func SaveDraft(draft DraftData) error {
	draft.SavedAt = time.Now()
	raw, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return WriteDataFile(draftFile, raw, 0o644)
}

// LoadDraft restores a previously autosaved authoring buffer, or nil when none
// exists.
func LoadDraft() (*DraftData, error) {
	data, err := ReadDataFile(draftFile)
	if err != nil {
		return nil, err
	}
	var draft DraftData
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return &draft, nil
}

// ClearDraft removes the autosaved buffer after a successful save or an
// explicit clear.
func ClearDraft() {
	_ = WriteDataFile(draftFile, []byte("{}"), 0o644)
}

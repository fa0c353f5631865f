package storage

import (
	"testing"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

func TestKeybindsDefaultWhenMissing(t *testing.T) {
	t.Setenv("DROPMAP_DATA_DIR", t.TempDir())
	resetDataDirForTest()

	binds := LoadKeybinds()
	if binds != typedef.DefaultKeybinds() {
		t.Errorf("missing file should load defaults, got %+v", binds)
	}
}

func TestKeybindsRoundTrip(t *testing.T) {
	t.Setenv("DROPMAP_DATA_DIR", t.TempDir())
	resetDataDirForTest()

	binds := typedef.DefaultKeybinds()
	binds.ResetView = "HOME"
	binds.DebugOverlay = "F1"
	if err := SaveKeybinds(binds); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := LoadKeybinds()
	if loaded.ResetView != "HOME" || loaded.DebugOverlay != "F1" {
		t.Errorf("loaded %+v, want custom bindings back", loaded)
	}
	if loaded.Unclaim != binds.Unclaim {
		t.Errorf("untouched binding changed: %q", loaded.Unclaim)
	}
}

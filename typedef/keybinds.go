package typedef

import (
	"strconv"
	"strings"
)

// Keybinds stores user-configurable keyboard shortcuts for the map actions.
type Keybinds struct {
	ResetView       string `json:"resetView,omitempty"`
	Unclaim         string `json:"unclaim,omitempty"`
	RemoveClaim     string `json:"removeClaim,omitempty"`
	AuthoringToggle string `json:"authoringToggle,omitempty"`
	UndoPoint       string `json:"undoPoint,omitempty"`
	ClearDraft      string `json:"clearDraft,omitempty"`
	SaveShape       string `json:"saveShape,omitempty"`
	DebugOverlay    string `json:"debugOverlay,omitempty"`
}

// DefaultKeybinds returns the baseline key configuration.
func DefaultKeybinds() Keybinds {
	return Keybinds{
		ResetView:       "R",
		Unclaim:         "U",
		RemoveClaim:     "DELETE",
		AuthoringToggle: "A",
		UndoPoint:       "Z",
		ClearDraft:      "BACKSPACE",
		SaveShape:       "ENTER",
		DebugOverlay:    "F3",
	}
}

// CanonicalizeBinding trims, uppercases, and validates supported key names.
// Allowed values: empty string (disabled), single letters A-Z, function keys
// F1-F12, and common names like SPACE, ESCAPE, ENTER, TAB, BACKSPACE, DELETE,
// INSERT, HOME, END, PAGEUP, PAGEDOWN, and arrow keys.
// Returns the canonical uppercase name and true when valid.
func CanonicalizeBinding(binding string) (string, bool) {
	val := strings.TrimSpace(binding)
	if val == "" {
		return "", true // empty means unbound/disabled
	}
	upper := strings.ToUpper(val)

	// Single-letter A-Z
	if len(upper) == 1 {
		ch := upper[0]
		if ch >= 'A' && ch <= 'Z' {
			return upper, true
		}
	}

	// Function keys F1-F12
	if strings.HasPrefix(upper, "F") && len(upper) > 1 {
		if n, err := strconv.Atoi(upper[1:]); err == nil && n >= 1 && n <= 12 {
			return "F" + strconv.Itoa(n), true
		}
	}

	switch upper {
	case "SPACE", "SPACEBAR":
		return "SPACE", true
	case "ESC", "ESCAPE":
		return "ESCAPE", true
	case "ENTER", "RETURN":
		return "ENTER", true
	case "TAB":
		return "TAB", true
	case "BACKSPACE":
		return "BACKSPACE", true
	case "DELETE", "DEL":
		return "DELETE", true
	case "INSERT", "INS":
		return "INSERT", true
	case "HOME":
		return "HOME", true
	case "END":
		return "END", true
	case "PAGEUP", "PGUP":
		return "PAGEUP", true
	case "PAGEDOWN", "PGDN":
		return "PAGEDOWN", true
	case "UP", "ARROWUP":
		return "UP", true
	case "DOWN", "ARROWDOWN":
		return "DOWN", true
	case "LEFT", "ARROWLEFT":
		return "LEFT", true
	case "RIGHT", "ARROWRIGHT":
		return "RIGHT", true
	default:
		return "", false
	}
}

// NormalizeKeybinds canonicalizes the configuration and fills defaults when a
// binding is missing or invalid.
func NormalizeKeybinds(k *Keybinds) {
	if k == nil {
		return
	}
	defaults := DefaultKeybinds()
	normalize := func(target *string, fallback string) {
		if val, ok := CanonicalizeBinding(*target); ok && val != "" {
			*target = val
			return
		}
		*target = fallback
	}

	normalize(&k.ResetView, defaults.ResetView)
	normalize(&k.Unclaim, defaults.Unclaim)
	normalize(&k.RemoveClaim, defaults.RemoveClaim)
	normalize(&k.AuthoringToggle, defaults.AuthoringToggle)
	normalize(&k.UndoPoint, defaults.UndoPoint)
	normalize(&k.ClearDraft, defaults.ClearDraft)
	normalize(&k.SaveShape, defaults.SaveShape)
	normalize(&k.DebugOverlay, defaults.DebugOverlay)
}

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

const keybindsFile = "keybinds.json"

// LoadKeybinds reads the user's shortcut configuration, falling back to the
// defaults when the file is missing or malformed. The result is always
// normalized.
func LoadKeybinds() typedef.Keybinds {
	binds := typedef.DefaultKeybinds()
	data, err := ReadDataFile(keybindsFile)
	if err == nil {
		if jsonErr := json.Unmarshal(data, &binds); jsonErr != nil {
			binds = typedef.DefaultKeybinds()
		}
	}
	typedef.NormalizeKeybinds(&binds)
	return binds
}

// SaveKeybinds persists the shortcut configuration.
func SaveKeybinds(binds typedef.Keybinds) error {
	typedef.NormalizeKeybinds(&binds)
	raw, err := json.MarshalIndent(binds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keybinds: %w", err)
	}
	return WriteDataFile(keybindsFile, raw, 0o644)
}

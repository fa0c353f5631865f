package app

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyByName maps canonical binding names to ebiten keys. Only names that
// CanonicalizeBinding accepts appear here.
var keyByName = map[string]ebiten.Key{
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,

	"F1": ebiten.KeyF1, "F2": ebiten.KeyF2, "F3": ebiten.KeyF3,
	"F4": ebiten.KeyF4, "F5": ebiten.KeyF5, "F6": ebiten.KeyF6,
	"F7": ebiten.KeyF7, "F8": ebiten.KeyF8, "F9": ebiten.KeyF9,
	"F10": ebiten.KeyF10, "F11": ebiten.KeyF11, "F12": ebiten.KeyF12,

	"SPACE":     ebiten.KeySpace,
	"ESCAPE":    ebiten.KeyEscape,
	"ENTER":     ebiten.KeyEnter,
	"TAB":       ebiten.KeyTab,
	"BACKSPACE": ebiten.KeyBackspace,
	"DELETE":    ebiten.KeyDelete,
	"INSERT":    ebiten.KeyInsert,
	"HOME":      ebiten.KeyHome,
	"END":       ebiten.KeyEnd,
	"PAGEUP":    ebiten.KeyPageUp,
	"PAGEDOWN":  ebiten.KeyPageDown,
	"UP":        ebiten.KeyArrowUp,
	"DOWN":      ebiten.KeyArrowDown,
	"LEFT":      ebiten.KeyArrowLeft,
	"RIGHT":     ebiten.KeyArrowRight,
}

// bindingJustPressed reports whether the key bound to the canonical name was
// pressed this tick. An empty or unknown name never fires.
func bindingJustPressed(name string) bool {
	key, ok := keyByName[name]
	if !ok {
		return false
	}
	return inpututil.IsKeyJustPressed(key)
}

//go:build js && wasm

package viewport

import (
	"syscall/js"

	"github.com/Faultbox/veggieview/internal/engine/app"
)

// ForPlatform returns the browser host, reading window.innerWidth/innerHeight.
func ForPlatform(surface *app.Surface) Host {
	return surfaceHost{surface: surface, page: pageSize}
}

func pageSize() (float64, float64, error) {
	win := js.Global().Get("window")
	if win.IsUndefined() || win.IsNull() {
		return 0, 0, ErrNoWindow
	}
	w, h := win.Get("innerWidth"), win.Get("innerHeight")
	if w.Type() != js.TypeNumber || h.Type() != js.TypeNumber {
		return 0, 0, ErrNoWindow
	}
	return w.Float(), h.Float(), nil
}

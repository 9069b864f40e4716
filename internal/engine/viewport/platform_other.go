//go:build !(js && wasm)

package viewport

import "github.com/Faultbox/veggieview/internal/engine/app"

// ForPlatform returns Noop: native windows report their own size.
func ForPlatform(*app.Surface) Host {
	return Noop{}
}

//go:build js && wasm

package assets

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"syscall/js"
)

// DefaultSource returns an HTTP source for root, resolved against the
// page location.
func DefaultSource(root string) (fs.FS, error) {
	ref, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("asset root %q: %w", root, err)
	}

	loc := js.Global().Get("location")
	if loc.IsUndefined() || loc.IsNull() {
		return nil, fmt.Errorf("asset root %q: page location unavailable", root)
	}
	page, err := url.Parse(loc.Get("href").String())
	if err != nil {
		return nil, fmt.Errorf("page location: %w", err)
	}

	base := page.ResolveReference(ref)
	return &HTTPFS{Base: base, Client: http.DefaultClient}, nil
}

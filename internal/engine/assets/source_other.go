//go:build !(js && wasm)

package assets

import (
	"fmt"
	"io/fs"
	"os"
)

// DefaultSource returns the asset directory root on the local filesystem.
func DefaultSource(root string) (fs.FS, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", root)
	}
	return os.DirFS(root), nil
}

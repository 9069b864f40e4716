package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

// ErrBadHandle is returned for asset references that cannot be parsed.
var ErrBadHandle = errors.New("assets: bad handle")

const sceneLabel = "Scene"

// Handle references one scene inside a glTF file, e.g.
// "models/tomato/scene.gltf#Scene0".
type Handle struct {
	Path  string // slash separated, relative to the asset source
	Scene int
}

// ParseHandle parses "path[#SceneN]". A missing fragment selects scene 0.
func ParseHandle(s string) (Handle, error) {
	p, frag, hasFrag := strings.Cut(s, "#")

	p = path.Clean(strings.TrimSpace(p))
	if p == "." || !fs.ValidPath(p) {
		return Handle{}, fmt.Errorf("%w: path %q", ErrBadHandle, s)
	}

	h := Handle{Path: p}
	if !hasFrag {
		return h, nil
	}

	digits, ok := strings.CutPrefix(frag, sceneLabel)
	if !ok || digits == "" {
		return Handle{}, fmt.Errorf("%w: label %q", ErrBadHandle, frag)
	}
	if strings.TrimLeft(digits, "0123456789") != "" {
		return Handle{}, fmt.Errorf("%w: scene index %q", ErrBadHandle, digits)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: scene index %q", ErrBadHandle, digits)
	}
	h.Scene = n
	return h, nil
}

func (h Handle) String() string {
	return h.Path + "#" + sceneLabel + strconv.Itoa(h.Scene)
}

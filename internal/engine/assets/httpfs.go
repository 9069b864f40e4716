package assets

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"time"
)

// HTTPFS is a read-only fs.FS over plain HTTP GETs. It is how the browser
// build reads models served next to the page.
type HTTPFS struct {
	Base   *url.URL
	Client *http.Client
}

// NewHTTPFS returns an HTTPFS rooted at base.
func NewHTTPFS(base string) (*HTTPFS, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing asset base %q: %w", base, err)
	}
	return &HTTPFS{Base: u, Client: http.DefaultClient}, nil
}

// Open fetches name in full.
func (h *HTTPFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	resp, err := h.Client.Get(h.Base.JoinPath(name).String())
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	case resp.StatusCode != http.StatusOK:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("http status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return &httpFile{Reader: bytes.NewReader(data), name: name, size: int64(len(data))}, nil
}

type httpFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *httpFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *httpFile) Close() error               { return nil }

// fs.FileInfo
func (f *httpFile) Name() string       { return f.name }
func (f *httpFile) Size() int64        { return f.size }
func (f *httpFile) Mode() fs.FileMode  { return 0o444 }
func (f *httpFile) ModTime() time.Time { return time.Time{} }
func (f *httpFile) IsDir() bool        { return false }
func (f *httpFile) Sys() any           { return nil }

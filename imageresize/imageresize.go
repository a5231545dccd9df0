// Package imageresize serves cover art and memory photos, resized on
// demand. Resized versions are cached on disk keyed by the original
// file's identity, so a re-uploaded photo invalidates naturally.
package imageresize

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/disintegration/imaging"
)

const defaultJpegQuality = 85

// Options to pass to the resizer.
type Options struct {
	// Cachedir holds resized copies. Empty disables caching.
	Cachedir string
}

// Resizer opens image files and hands back resized versions according
// to query parameters.
type Resizer struct {
	cachedir string
	tmpExt   string

	// one resize at a time per original file
	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

func New(o *Options) *Resizer {
	return &Resizer{
		cachedir: o.Cachedir,
		tmpExt:   fmt.Sprintf(".%d", os.Getpid()),
		inflight: make(map[string]*sync.Mutex),
	}
}

// imageType returns jpg or png for supported files, empty otherwise.
func imageType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "jpg"
	case ".png":
		return "png"
	}
	return ""
}

func paramUint(r *http.Request, name string) uint {
	v, _ := strconv.ParseUint(r.URL.Query().Get(name), 10, 32)
	return uint(v)
}

// cacheKey derives a stable identity for the original file from its
// device and inode, so renames keep the cache and rewrites drop it.
func cacheKey(file http.File) string {
	fi, err := file.Stat()
	if err != nil {
		return ""
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%08x.%016x", st.Dev, st.Ino)
}

func (r *Resizer) cachePath(key string, w, h, q uint) string {
	return fmt.Sprintf("%s/%s:%dx%dq%d", r.cachedir, key, w, h, q)
}

func (r *Resizer) cacheRead(key string, w, h, q uint) http.File {
	if r.cachedir == "" || key == "" {
		return nil
	}
	f, err := os.Open(r.cachePath(key, w, h, q))
	if err != nil {
		return nil
	}
	return f
}

// cacheWrite stores the blob and returns an open handle to it, or nil
// when the cache is unavailable.
func (r *Resizer) cacheWrite(key string, blob []byte, w, h, q uint) http.File {
	if r.cachedir == "" || key == "" {
		return nil
	}
	fn := r.cachePath(key, w, h, q)
	tmp := fn + r.tmpExt
	fh, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0666)
	if err != nil {
		return nil
	}
	if _, err := fh.Write(blob); err != nil {
		fh.Close()
		os.Remove(tmp)
		return nil
	}
	if err := os.Rename(tmp, fn); err != nil {
		fh.Close()
		os.Remove(tmp)
		return nil
	}
	fh.Seek(0, 0)
	return fh
}

func (r *Resizer) lockFile(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.inflight[name]
	if !ok {
		m = &sync.Mutex{}
		r.inflight[name] = m
	}
	return m
}

// OpenFile opens the named image. With w/h/q query parameters on a GET
// request it returns a resized version instead, from cache when
// possible. Non-image files and unparameterized requests pass through
// untouched.
func (r *Resizer) OpenFile(rw http.ResponseWriter, rq *http.Request, name string) (http.File, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	fi, err := file.Stat()
	if err != nil || fi.IsDir() {
		return file, nil
	}

	ctype := imageType(name)
	if ctype == "" {
		return file, nil
	}
	rw.Header().Set("Content-Type", "image/"+ctype)

	if rq.Method != http.MethodGet || rq.URL.RawQuery == "" {
		return file, nil
	}

	w := paramUint(rq, "w")
	h := paramUint(rq, "h")
	q := paramUint(rq, "q")
	if w == 0 && h == 0 && q == 0 {
		return file, nil
	}
	if q == 0 {
		q = defaultJpegQuality
	}

	key := cacheKey(file)
	if cf := r.cacheRead(key, w, h, q); cf != nil {
		file.Close()
		return cf, nil
	}

	m := r.lockFile(name)
	m.Lock()
	defer m.Unlock()

	// another request may have populated the cache while we waited
	if cf := r.cacheRead(key, w, h, q); cf != nil {
		file.Close()
		return cf, nil
	}

	img, _, err := image.Decode(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	ow := img.Bounds().Dx()
	oh := img.Bounds().Dy()
	tw, th := targetSize(ow, oh, int(w), int(h))
	if tw != ow || th != oh {
		img = imaging.Resize(img, tw, th, imaging.Lanczos)
	}

	var buf bytes.Buffer
	switch ctype {
	case "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(q)})
	case "png":
		err = png.Encode(&buf, img)
	}
	if err != nil {
		file.Close()
		return nil, err
	}

	if cf := r.cacheWrite(key, buf.Bytes(), w, h, q); cf != nil {
		file.Close()
		return cf, nil
	}

	blob := newBlobFile(buf.Bytes(), fi)
	file.Close()
	return blob, nil
}

// targetSize computes the output dimensions. A single given dimension
// preserves aspect ratio; none given keeps the original.
func targetSize(ow, oh, w, h int) (int, int) {
	if ow == 0 || oh == 0 {
		return ow, oh
	}
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0:
		return w, w * oh / ow
	case h > 0:
		return h * ow / oh, h
	}
	return ow, oh
}

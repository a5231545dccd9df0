package imageresize

import (
	"bytes"
	"io/fs"
	"os"
	"time"
)

// blobFile adapts an in-memory byte slice to http.File so a freshly
// resized image can be served without a cache round-trip. Stat borrows
// name and mtime from the original file but reports the blob's size.
type blobFile struct {
	*bytes.Reader
	info blobInfo
}

type blobInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func newBlobFile(blob []byte, orig os.FileInfo) *blobFile {
	return &blobFile{
		Reader: bytes.NewReader(blob),
		info: blobInfo{
			name:    orig.Name(),
			size:    int64(len(blob)),
			modTime: orig.ModTime(),
		},
	}
}

func (f *blobFile) Close() error {
	return nil
}

func (f *blobFile) Readdir(count int) ([]os.FileInfo, error) {
	return nil, fs.ErrInvalid
}

func (f *blobFile) Stat() (os.FileInfo, error) {
	return f.info, nil
}

func (i blobInfo) Name() string       { return i.name }
func (i blobInfo) Size() int64        { return i.size }
func (i blobInfo) Mode() fs.FileMode  { return 0444 }
func (i blobInfo) ModTime() time.Time { return i.modTime }
func (i blobInfo) IsDir() bool        { return false }
func (i blobInfo) Sys() any           { return nil }

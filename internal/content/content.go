// Package content exposes a directory tree as a read-only http.FileSystem.
//
// Lookups go through a go-billy BoundOS filesystem, which resolves every
// name (including symlink targets) inside the root, so nothing outside the
// root can be opened no matter what the request path contains.
package content

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Root is a read-only view of one directory.
type Root struct {
	dir string
	fs  billy.Filesystem
}

// Open returns a Root for dir. The directory must exist; relative paths
// are resolved against the working directory once, here.
func Open(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}
	return &Root{
		dir: abs,
		fs:  osfs.New(abs, osfs.WithBoundOS(), osfs.WithDeduplicatePath(false)),
	}, nil
}

// Dir returns the absolute root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Open implements http.FileSystem. name is a slash-separated path as
// produced by http.FileServer.
func (r *Root) Open(name string) (http.File, error) {
	name = path.Clean("/" + name)

	info, err := r.fs.Stat(relative(name))
	if err != nil {
		return nil, mapError(err)
	}
	if info.IsDir() {
		return &dirFile{root: r, name: name, info: info}, nil
	}
	if !info.Mode().IsRegular() {
		// Devices, sockets and pipes are never served.
		return nil, fs.ErrNotExist
	}

	f, err := r.fs.Open(relative(name))
	if err != nil {
		return nil, mapError(err)
	}
	return &file{File: f, info: info}, nil
}

// relative strips the leading slash from a cleaned request path. Names
// handed to billy are always relative so an absolute request path is never
// matched against the root directory itself.
func relative(name string) string {
	if name == "/" {
		return "."
	}
	return strings.TrimPrefix(name, "/")
}

// mapError turns boundary violations into plain not-found errors so that
// http.FileServer answers 404 for them.
func mapError(err error) error {
	if errors.Is(err, billy.ErrCrossedBoundary) {
		return fs.ErrNotExist
	}
	return err
}

// file is an opened regular file.
type file struct {
	billy.File
	info os.FileInfo
}

func (f *file) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (f *file) Readdir(int) ([]fs.FileInfo, error) {
	return nil, fmt.Errorf("readdir %s: not a directory", f.Name())
}

// dirFile is an opened directory. Entries are read lazily on the first
// Readdir call.
type dirFile struct {
	root    *Root
	name    string
	info    os.FileInfo
	entries []os.FileInfo
	loaded  bool
	offset  int
}

func (d *dirFile) Close() error { return nil }

func (d *dirFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read %s: is a directory", d.name)
}

func (d *dirFile) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekStart {
		d.offset = 0
		return 0, nil
	}
	return 0, fmt.Errorf("seek %s: is a directory", d.name)
}

func (d *dirFile) Stat() (fs.FileInfo, error) {
	return d.info, nil
}

// Readdir follows the os.File contract: count <= 0 returns everything
// that is left, count > 0 returns at most count entries and io.EOF at the
// end.
func (d *dirFile) Readdir(count int) ([]fs.FileInfo, error) {
	if !d.loaded {
		entries, err := d.root.fs.ReadDir(relative(d.name))
		if err != nil {
			return nil, mapError(err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		d.entries = entries
		d.loaded = true
	}

	rest := d.entries[d.offset:]
	if count <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if count > len(rest) {
		count = len(rest)
	}
	d.offset += count
	return rest[:count], nil
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }

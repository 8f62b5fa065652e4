package store

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const tempSuffix = ".tmp"

// Dir is a local filesystem-backed blob store. Each blob is a regular file
// directly under root, named after the blob.
type Dir struct {
	root string
}

// NewDir constructs a store rooted at root. The directory will be created if needed.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: root}, nil
}

// Root returns the directory holding the blobs.
func (d *Dir) Root() string {
	return d.root
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

// Put writes data to a temporary file and renames it into place.
func (d *Dir) Put(name string, data []byte) error {
	if !validName(name) {
		return ErrInvalidName
	}
	tmp := filepath.Join(d.root, "."+name+"."+uuid.NewString()+tempSuffix)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(d.root, name)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (d *Dir) Get(name string) ([]byte, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	b, err := os.ReadFile(filepath.Join(d.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (d *Dir) Delete(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(d.root, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List skips subdirectories and in-flight temporary files.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !validName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

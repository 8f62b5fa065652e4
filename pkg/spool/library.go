// Package spool ties card sessions, the dump codec and blob storage together.
package spool

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/barnettlynn/spooltag/pkg/color"
	"github.com/barnettlynn/spooltag/pkg/dump"
	"github.com/barnettlynn/spooltag/pkg/store"
)

// ErrDuplicate is returned by Import when identical dump content is already stored.
var ErrDuplicate = errors.New("spool: dump already stored")

// Library keeps artifact sets in a blob store, keyed by base name.
type Library struct {
	blobs store.Blobs
}

func NewLibrary(blobs store.Blobs) *Library {
	return &Library{blobs: blobs}
}

// Entry describes one stored dump.
type Entry struct {
	BaseName  string
	ContentID string
	Size      int
}

// Stored is a dump loaded back from the library.
type Stored struct {
	Entry
	Metadata dump.Metadata
	Swatch   color.Swatch
	Dump     []byte
}

// priorBlob is the content a blob held before Save replaced it.
type priorBlob struct {
	name   string
	data   []byte
	exists bool
}

// Save writes every artifact of a. Either all of them are stored or, on
// failure, every blob already replaced gets its previous content back.
func (l *Library) Save(a *dump.Artifacts) error {
	var touched []priorBlob
	for _, f := range a.Files() {
		prior := priorBlob{name: f.Name}
		old, err := l.blobs.Get(f.Name)
		switch {
		case err == nil:
			prior.data, prior.exists = old, true
		case !store.IsNotFound(err):
			l.rollback(touched)
			return fmt.Errorf("save %s: %w", f.Name, err)
		}
		touched = append(touched, prior)
		if err := l.blobs.Put(f.Name, f.Data); err != nil {
			l.rollback(touched)
			return fmt.Errorf("save %s: %w", f.Name, err)
		}
	}
	slog.Debug("artifacts saved", "base", a.BaseName, "cid", store.ContentID(a.Dump))
	return nil
}

// rollback undoes Puts in reverse order. A blob that did not exist before is
// removed; one that did is rewritten with its old content.
func (l *Library) rollback(touched []priorBlob) {
	for i := len(touched) - 1; i >= 0; i-- {
		p := touched[i]
		var err error
		if p.exists {
			err = l.blobs.Put(p.name, p.data)
		} else if err = l.blobs.Delete(p.name); store.IsNotFound(err) {
			err = nil
		}
		if err != nil {
			slog.Warn("rollback failed", "name", p.name, "err", err)
		}
	}
}

func isDumpName(name string) bool {
	return strings.HasSuffix(name, dump.DumpExt) && !strings.HasSuffix(name, dump.RawKeysSuffix)
}

// List returns the stored dumps sorted by base name.
func (l *Library) List() ([]Entry, error) {
	names, err := l.blobs.List()
	if err != nil {
		return nil, fmt.Errorf("list dumps: %w", err)
	}
	var entries []Entry
	for _, name := range names {
		if !isDumpName(name) {
			continue
		}
		data, err := l.blobs.Get(name)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		entries = append(entries, Entry{
			BaseName:  strings.TrimSuffix(name, dump.DumpExt),
			ContentID: store.ContentID(data),
			Size:      len(data),
		})
	}
	return entries, nil
}

// Load reads the dump stored under base and decodes its metadata.
func (l *Library) Load(base string) (*Stored, error) {
	data, err := l.blobs.Get(dump.DumpFile(base))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", base, err)
	}
	md, err := dump.ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", base, err)
	}
	return &Stored{
		Entry:    Entry{BaseName: base, ContentID: store.ContentID(data), Size: len(data)},
		Metadata: md,
		Swatch:   color.SwatchFor(string(md.Color)),
		Dump:     data,
	}, nil
}

func artifactNames(base string) []string {
	return []string{dump.DumpFile(base), dump.DictionaryFile(base), dump.RawKeysFile(base)}
}

// Delete removes every artifact of base. It returns store.ErrNotFound when
// none of them existed.
func (l *Library) Delete(base string) error {
	removed := 0
	for _, name := range artifactNames(base) {
		err := l.blobs.Delete(name)
		switch {
		case err == nil:
			removed++
		case store.IsNotFound(err):
		default:
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	if removed == 0 {
		return fmt.Errorf("delete %s: %w", base, store.ErrNotFound)
	}
	return nil
}

// Export writes the artifacts of base to w as a zip bundle.
func (l *Library) Export(w io.Writer, base string) error {
	var files []dump.File
	for _, name := range artifactNames(base) {
		data, err := l.blobs.Get(name)
		if err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		files = append(files, dump.File{Name: name, Data: data})
	}
	return dump.WriteBundle(w, files)
}

// Import stores a full dump produced elsewhere. UID, metadata and keys are
// recovered from the dump itself.
func (l *Library) Import(data []byte) (*dump.Artifacts, error) {
	if _, err := dump.LayoutOf(data); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	a, err := dump.FromDump(data)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	cid := store.ContentID(a.Dump)
	entries, err := l.List()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ContentID == cid {
			return nil, fmt.Errorf("import as %s: same content as %s: %w", a.BaseName, e.BaseName, ErrDuplicate)
		}
	}

	if err := l.Save(a); err != nil {
		return nil, err
	}
	slog.Info("dump imported", "base", a.BaseName, "cid", cid)
	return a, nil
}

// ImportBundle imports the dump entry of a zip bundle written by Export.
func (l *Library) ImportBundle(data []byte) (*dump.Artifacts, error) {
	files, err := dump.ReadBundle(data)
	if err != nil {
		return nil, err
	}
	f, err := dump.DumpFromBundle(files)
	if err != nil {
		return nil, err
	}
	return l.Import(f.Data)
}

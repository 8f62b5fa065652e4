package dump

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// bundleTime is stamped on every entry so identical artifacts give identical archives.
var bundleTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxBundleEntry bounds entry sizes when reading untrusted archives.
const maxBundleEntry = 1 << 20

// WriteBundle writes files as a zip archive, entries in the given order and
// named after the files.
func WriteBundle(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: bundleTime}
		ew, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("bundle entry %s: %w", f.Name, err)
		}
		if _, err := ew.Write(f.Data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("bundle entry %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// ReadBundle returns the regular file entries of a zip archive.
func ReadBundle(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	var files []File
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.ContainsAny(zf.Name, `/\`) {
			continue
		}
		if zf.UncompressedSize64 > maxBundleEntry {
			return nil, fmt.Errorf("bundle entry %s too large (%d bytes)", zf.Name, zf.UncompressedSize64)
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("bundle entry %s: %w", zf.Name, err)
		}
		b, err := io.ReadAll(io.LimitReader(rc, maxBundleEntry))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("bundle entry %s: %w", zf.Name, err)
		}
		files = append(files, File{Name: zf.Name, Data: b})
	}
	return files, nil
}

// DumpFromBundle picks the full dump entry out of a bundle.
func DumpFromBundle(files []File) (File, error) {
	for _, f := range files {
		if strings.HasSuffix(f.Name, DumpExt) && !strings.HasSuffix(f.Name, RawKeysSuffix) {
			return f, nil
		}
	}
	return File{}, fmt.Errorf("bundle has no %s dump entry", DumpExt)
}

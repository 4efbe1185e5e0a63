package extract

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// zipAndRemove archives the contents of dir into dir.zip and removes the
// directory. Entries are written in sorted name order so the archive is
// reproducible.
func zipAndRemove(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &WriteError{Path: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	zipPath := dir + ".zip"
	f, err := os.Create(zipPath)
	if err != nil {
		return &WriteError{Path: zipPath, Err: err}
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range names {
		if err := addFileToZip(w, filepath.Join(dir, name), name); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return &WriteError{Path: zipPath, Err: err}
	}

	if err := os.RemoveAll(dir); err != nil {
		return &WriteError{Path: dir, Err: err}
	}
	return nil
}

func addFileToZip(w *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer src.Close()

	dst, err := w.Create(name)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

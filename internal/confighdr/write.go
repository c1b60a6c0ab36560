package confighdr

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteIfChanged writes data to path unless the file already holds exactly
// data. It reports whether the file was written. Writes go through a
// temporary file and a rename.
func WriteIfChanged(fs afero.Fs, path string, data []byte) (bool, error) {
	old, err := afero.ReadFile(fs, path)
	switch {
	case err == nil && bytes.Equal(old, data):
		return false, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return false, err
	}
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	f, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = fs.Remove(tmp)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = fs.Remove(tmp)
		return false, err
	}
	if err := fs.Chmod(tmp, 0o644); err != nil {
		_ = fs.Remove(tmp)
		return false, err
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return false, err
	}
	return true, nil
}

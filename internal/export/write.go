package export

import (
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

// WriteFile writes export output through a temp file and rename so a
// failed write never leaves a truncated export behind.
func WriteFile(dst string, content []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create export directory")
	}

	tmp, err := os.CreateTemp(dir, "apidash-*.export")
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errdef.Wrap(errdef.CodeFilesystem, err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "close temp file")
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "rename temp file")
	}
	return nil
}

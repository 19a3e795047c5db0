package exchange

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteFile writes b to path atomically. An existing file is only replaced when overwrite is set.
func WriteFile(path string, b []byte, overwrite bool) error {
	if path == "" {
		return Errorf(CodeInvalidParam, "file name is empty")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return Errorf(CodeFileExists, "%s already exists", path)
		}
	}
	return renameio.WriteFile(path, b, 0o644)
}

// ReadFile reads path, reporting a missing file as FILE_NOT_EXISTS.
func ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Errorf(CodeFileNotExists, "%s does not exist", path)
	}
	return b, err
}

// Resolve places name under root. name must be a relative path that stays inside root;
// absolute paths and ".." escapes are INVALID_PARAM.
func Resolve(root, name string) (string, error) {
	if name == "" {
		return "", Errorf(CodeInvalidParam, "file name is empty")
	}
	if filepath.IsAbs(name) || !filepath.IsLocal(name) {
		return "", Errorf(CodeInvalidParam, "file %q must stay inside the exchange directory", name)
	}
	return filepath.Join(root, name), nil
}

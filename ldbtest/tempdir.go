package ldbtest

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrefixEnv names the environment variable holding the root that temporary
// directories are created under, in its "tmp" subdirectory.
const PrefixEnv = "SELFTEST_PREFIX"

// tempPattern is the name pattern of directories made by TempDir.
const tempPattern = "ldbtest-*"

// FilesystemError is returned when a temporary directory cannot be created.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (err *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", err.Op, err.Path, err.Err)
}

// Unwrap returns the underlying error.
func (err *FilesystemError) Unwrap() error { return err.Err }

// Cause returns the underlying error for github.com/pkg/errors.
func (err *FilesystemError) Cause() error { return err.Err }

// TempRoot returns the directory temporary directories are created in:
// $SELFTEST_PREFIX/tmp if the variable is set, or "" for the platform default.
func TempRoot() string {
	prefix, ok := os.LookupEnv(PrefixEnv)
	if !ok {
		return ""
	}
	return filepath.Join(prefix, "tmp")
}

// TempDir creates a new, uniquely named directory under TempRoot. The
// directory is never removed automatically.
func TempDir() (string, error) {
	return mkdirTemp(TempRoot())
}

func mkdirTemp(root string) (string, error) {
	dir, err := os.MkdirTemp(root, tempPattern)
	if err != nil {
		if root == "" {
			root = os.TempDir()
		}
		return "", &FilesystemError{Op: "mkdirtemp", Path: root, Err: err}
	}
	return dir, nil
}

// Package evidence owns the on-disk artifacts of a run: the directory layout,
// collision-free artifact names, and the run report.
package evidence

import (
	"errors"
	"fmt"
	"os"

	"github.com/entrhq/uitest/pkg/logging"
)

// DirectoryError reports an evidence directory that could not be created.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("cannot create evidence directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// IsDirectoryError reports whether err is or wraps a DirectoryError.
func IsDirectoryError(err error) bool {
	var dirErr *DirectoryError
	return errors.As(err, &dirErr)
}

// EnsureDirectories creates every directory in dirs. It stops at the first
// failure, logging it at CRITICAL, since later stages write into these paths
// without checking. A nil logger is allowed.
func EnsureDirectories(dirs []string, logger *logging.Logger) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			if logger != nil {
				logger.Criticalf("failed to create directory %s: %v", dir, err)
			}
			return &DirectoryError{Path: dir, Err: err}
		}
		if logger != nil {
			logger.Debugf("directory ready: %s", dir)
		}
	}
	return nil
}

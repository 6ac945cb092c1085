package harness

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"
)

// ResetScratch recursively deletes dir. A missing directory is not an error;
// recreating it is left to the engine.
func ResetScratch(fs afero.Fs, dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || clean == "/" || clean == "." || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return &ScratchError{Path: dir, Err: errors.New("refusing to remove a filesystem root")}
	}
	if err := fs.RemoveAll(dir); err != nil {
		return &ScratchError{Path: dir, Err: err}
	}
	return nil
}

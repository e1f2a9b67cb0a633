// Package artifact persists the finished document.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write saves data to path in one shot: the bytes land in a temp file in the
// destination directory and are renamed into place, so a crash mid-write
// never leaves a partial file under the final name.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".magdl-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("placing artifact: %w", err)
	}
	return nil
}

//go:build windows

package mo

import (
	"fmt"
	"os"
)

// No mmap implementation is wired up for Windows; LoadFile falls back
// to reading the whole file into memory instead.
func (m *fileMapping) tryMap(f *os.File, size int64) error {
	return fmt.Errorf("mmap not supported on this platform")
}

func (m *fileMapping) closeMapping() error {
	return nil
}

//go:build !windows

package mo

import (
	"fmt"
	"os"
	"syscall"
)

// tryMap maps the already-stat'd file f, whose size the caller
// (LoadFile) has already found to be at least headerSize, so unlike a
// general-purpose mmap helper this never has to special-case a
// zero-length file.
func (m *fileMapping) tryMap(f *os.File, size int64) error {
	if size != int64(int(size)) {
		return fmt.Errorf("file %q is too large to map", f.Name())
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		return err
	}
	m.data = data
	m.isMapped = true
	return nil
}

func (m *fileMapping) closeMapping() error {
	return syscall.Munmap(m.data)
}

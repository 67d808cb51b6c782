package mo

import (
	"runtime"
)

// fileMapping holds the raw bytes of a loaded catalogue, either mmap'd
// directly over the source file or, when mapping isn't attempted or
// doesn't pan out (tiny files, pipes, platforms without an mmap
// implementation here), read fully into memory by LoadFile. Catalogue
// keeps a reference to its fileMapping for its entire lifetime, so the
// mapping stays valid as long as the Catalogue is reachable. The []byte
// slices handed out by NthOrigString and friends alias the mapping but
// do not keep it alive: once the Catalogue is unreachable, the
// finalizer may unmap it.
type fileMapping struct {
	data []byte

	isMapped bool
}

// Close releases the mapping, if one was made. It is safe to call on a
// fileMapping that was only ever populated by a plain read.
func (m *fileMapping) Close() error {
	runtime.SetFinalizer(m, nil)
	if !m.isMapped {
		return nil
	}
	return m.closeMapping()
}

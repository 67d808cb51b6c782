package mo

import (
	"encoding/binary"
	"fmt"
)

// stringInfo is the on-disk (length, address) descriptor used by both
// the original- and translation-string tables.
type stringInfo struct {
	length  uint32
	address uint32
}

// view is an endian-aware accessor over an in-memory MO file buffer.
// Bounds-checked accessors (u8At, u32At, stringInfoAt, cstrAt) are used
// while a region's extent hasn't been established yet; their *Unsafe
// counterparts skip the check and are used once validateStringTable
// (or an equivalent prior check) has already confirmed the region
// lies within the buffer.
type view struct {
	buf   []byte
	order binary.ByteOrder
}

func (v view) size() uint32 {
	return uint32(len(v.buf))
}

func (v view) u8At(addr uint32) (byte, error) {
	if addr >= v.size() {
		return 0, fmt.Errorf("unexpected EOF at 0x%x", addr)
	}
	return v.buf[addr], nil
}

func (v view) u8AtUnsafe(addr uint32) byte {
	return v.buf[addr]
}

func (v view) u32At(addr uint32) (uint32, error) {
	if uint64(addr)+4 > uint64(v.size()) {
		return 0, fmt.Errorf("unexpected EOF at 0x%x", addr)
	}
	return v.order.Uint32(v.buf[addr : addr+4]), nil
}

func (v view) u32AtUnsafe(addr uint32) uint32 {
	return v.order.Uint32(v.buf[addr : addr+4])
}

func (v view) stringInfoAt(addr uint32) (stringInfo, error) {
	length, err := v.u32At(addr)
	if err != nil {
		return stringInfo{}, err
	}
	address, err := v.u32At(addr + 4)
	if err != nil {
		return stringInfo{}, err
	}
	return stringInfo{length: length, address: address}, nil
}

func (v view) stringInfoAtUnsafe(addr uint32) stringInfo {
	return stringInfo{
		length:  v.u32AtUnsafe(addr),
		address: v.u32AtUnsafe(addr + 4),
	}
}

// cstrAt returns the bytes from addr up to (not including) the next
// NUL, failing if the buffer ends before a NUL is found.
func (v view) cstrAt(addr uint32) ([]byte, error) {
	end := addr
	for {
		b, err := v.u8At(end)
		if err != nil {
			return nil, fmt.Errorf("unterminated string at 0x%x", addr)
		}
		if b == 0 {
			return v.buf[addr:end], nil
		}
		end++
	}
}

// cstrAtUnsafe returns the bytes from addr up to (not including) the
// next NUL. The caller must have already validated that a terminator
// exists at or after addr.
func (v view) cstrAtUnsafe(addr uint32) []byte {
	end := addr
	for v.buf[end] != 0 {
		end++
	}
	return v.buf[addr:end]
}

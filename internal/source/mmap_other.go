//go:build !linux && !darwin

package source

import (
	"fmt"
	"io"
	"os"
)

// mapFile reads the whole file where no mmap implementation is wired.
func mapFile(file *os.File, size int64) (*Mapped, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Name(), err)
	}
	return NewBytes(data), nil
}

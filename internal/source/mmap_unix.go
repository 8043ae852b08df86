//go:build linux || darwin

package source

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(file *os.File, size int64) (*Mapped, error) {
	if size == 0 {
		return NewBytes(nil), nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap %s: file too large", file.Name())
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", file.Name(), err)
	}
	// Advisory only; a failure does not affect correctness.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &Mapped{
		data: data,
		release: func() error {
			return unix.Munmap(data)
		},
	}, nil
}

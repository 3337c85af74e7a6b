//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

var advice = map[Hint][]int{
	HintNone:   {unix.MADV_NORMAL},
	HintLoad:   {unix.MADV_SEQUENTIAL, unix.MADV_WILLNEED},
	HintLookup: {unix.MADV_RANDOM},
}

func osAdvise(data []byte, h Hint) error {
	for _, a := range advice[h] {
		// Unaligned or unsupported ranges are not failures.
		if err := unix.Madvise(data, a); err != nil && !errors.Is(err, unix.EINVAL) {
			return err
		}
	}
	return nil
}

//go:build linux

package proctitle

import (
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// comm is limited to 16 bytes including the terminator.
const commMax = 15

// Set renames argv[0] and the kernel thread name via PR_SET_NAME.
func Set(title string) error {
	if title == "" {
		return errors.New("empty process title")
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	comm := title
	if len(comm) > commMax {
		comm = comm[:commMax]
	}
	p, err := unix.BytePtrFromString(comm)
	if err != nil {
		return err
	}
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
}

//go:build !linux

package proctitle

import "os"

// Set only rewrites argv[0] outside Linux.
func Set(title string) error {
	if title != "" && len(os.Args) > 0 {
		os.Args[0] = title
	}
	return nil
}

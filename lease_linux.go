// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package tmpfile // import "blitznote.com/src/tmpfile"

import (
	"os"

	"golang.org/x/sys/unix"
)

// Candidate entries are invisible only by convention. A write lease on
// them makes the convention count for something: the kernel holds off any
// process that opens the entry prematurely until the lease falls, and one
// that opened with O_NONBLOCK learns of its mistake through EWOULDBLOCK.
//
// Errors go ignored. Leases want same-owner files and a cooperating
// filesystem, and the candidate works fine without one.

func takeLease(f *os.File) {
	_, _ = unix.FcntlInt(f.Fd(), unix.F_SETLEASE, unix.F_WRLCK)
}

func releaseLease(f *os.File) {
	_, _ = unix.FcntlInt(f.Fd(), unix.F_SETLEASE, unix.F_UNLCK)
}

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package safewrite // import "blitznote.com/src/tmpfile/safewrite"

import (
	"os"

	"golang.org/x/sys/unix"
)

// Writes below this size gain nothing from preallocation.
const reserveFileSizeThreshold = 1 << 15

// reserve asks the filesystem to set aside room for the copy that follows,
// trading fragmentation for an early ENOSPC. Best-effort: the write itself
// reports any real problem. KEEP_SIZE leaves the observable length alone;
// a write that then comes up short must not publish trailing zeros.
func reserve(f *os.File, anticipatedSize int64) {
	if f == nil || anticipatedSize <= reserveFileSizeThreshold {
		return
	}
	_ = unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, anticipatedSize)
}
